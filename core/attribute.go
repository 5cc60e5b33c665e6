package core

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/gogpu/g3d/gpucore"
)

// Attribute construction errors.
var (
	ErrItemSize    = errors.New("core: item size must be in [1,4]")
	ErrArrayLength = errors.New("core: array length is not a multiple of item size")
)

// ElementKind is the scalar type of an attribute's backing array.
type ElementKind uint8

// Element kinds.
const (
	Float32 ElementKind = iota + 1
	Float64
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
)

var elementKindNames = [...]string{
	Float32: "float32",
	Float64: "float64",
	Int8:    "int8",
	Uint8:   "uint8",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
}

func (k ElementKind) String() string {
	if int(k) < len(elementKindNames) && elementKindNames[k] != "" {
		return elementKindNames[k]
	}
	return "unknown"
}

// Size returns the byte size of one element.
func (k ElementKind) Size() int {
	switch k {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Float32, Int32, Uint32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// UpdateRange is a dirty span measured in array elements (not items).
type UpdateRange struct {
	Start int
	Count int
}

// End returns the first element past the range.
func (r UpdateRange) End() int { return r.Start + r.Count }

type element interface {
	~float32 | ~float64 | ~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32
}

// BufferAttribute is one vertex channel (or an index stream): a typed array
// of Count items, each ItemSize elements wide.
type BufferAttribute struct {
	Disposable

	// Normalized maps integer data to [0,1] or [-1,1] in the shader.
	Normalized bool
	// Usage hints how often the data changes.
	Usage gpucore.UsageHint

	id       uint64
	kind     ElementKind
	itemSize int
	count    int
	data     any
	version  uint64
	ranges   []UpdateRange
}

func newAttribute[T element](kind ElementKind, data []T, itemSize int) (*BufferAttribute, error) {
	if itemSize < 1 || itemSize > 4 {
		return nil, fmt.Errorf("%w: got %d", ErrItemSize, itemSize)
	}
	if len(data)%itemSize != 0 {
		return nil, fmt.Errorf("%w: %d elements, item size %d", ErrArrayLength, len(data), itemSize)
	}
	return &BufferAttribute{
		id:       NextID(),
		kind:     kind,
		itemSize: itemSize,
		count:    len(data) / itemSize,
		data:     data,
	}, nil
}

// NewFloat32Attribute wraps data as a float32 attribute. The slice is
// shared, not copied.
func NewFloat32Attribute(data []float32, itemSize int) (*BufferAttribute, error) {
	return newAttribute(Float32, data, itemSize)
}

// NewFloat64Attribute wraps data as a float64 attribute.
func NewFloat64Attribute(data []float64, itemSize int) (*BufferAttribute, error) {
	return newAttribute(Float64, data, itemSize)
}

// NewInt8Attribute wraps data as an int8 attribute.
func NewInt8Attribute(data []int8, itemSize int) (*BufferAttribute, error) {
	return newAttribute(Int8, data, itemSize)
}

// NewUint8Attribute wraps data as a uint8 attribute.
func NewUint8Attribute(data []uint8, itemSize int) (*BufferAttribute, error) {
	return newAttribute(Uint8, data, itemSize)
}

// NewInt16Attribute wraps data as an int16 attribute.
func NewInt16Attribute(data []int16, itemSize int) (*BufferAttribute, error) {
	return newAttribute(Int16, data, itemSize)
}

// NewUint16Attribute wraps data as a uint16 attribute.
func NewUint16Attribute(data []uint16, itemSize int) (*BufferAttribute, error) {
	return newAttribute(Uint16, data, itemSize)
}

// NewInt32Attribute wraps data as an int32 attribute.
func NewInt32Attribute(data []int32, itemSize int) (*BufferAttribute, error) {
	return newAttribute(Int32, data, itemSize)
}

// NewUint32Attribute wraps data as a uint32 attribute.
func NewUint32Attribute(data []uint32, itemSize int) (*BufferAttribute, error) {
	return newAttribute(Uint32, data, itemSize)
}

// ID returns the attribute's process-unique identity.
func (a *BufferAttribute) ID() uint64 { return a.id }

// Kind returns the element type.
func (a *BufferAttribute) Kind() ElementKind { return a.kind }

// ItemSize returns the number of elements per item.
func (a *BufferAttribute) ItemSize() int { return a.itemSize }

// Count returns the number of items.
func (a *BufferAttribute) Count() int { return a.count }

// Len returns the number of array elements (Count × ItemSize).
func (a *BufferAttribute) Len() int { return a.count * a.itemSize }

// ByteLen returns the size of the array in bytes.
func (a *BufferAttribute) ByteLen() int { return a.Len() * a.kind.Size() }

// Version returns the mutation counter.
func (a *BufferAttribute) Version() uint64 { return a.version }

// Data returns the backing array as its concrete slice type.
func (a *BufferAttribute) Data() any { return a.data }

// Float32s returns the backing array, or nil for other kinds.
func (a *BufferAttribute) Float32s() []float32 {
	v, _ := a.data.([]float32)
	return v
}

// Uint16s returns the backing array, or nil for other kinds.
func (a *BufferAttribute) Uint16s() []uint16 {
	v, _ := a.data.([]uint16)
	return v
}

// Uint32s returns the backing array, or nil for other kinds.
func (a *BufferAttribute) Uint32s() []uint32 {
	v, _ := a.data.([]uint32)
	return v
}

// IndexAt returns element i as an integer, for index streams.
func (a *BufferAttribute) IndexAt(i int) int {
	switch v := a.data.(type) {
	case []uint16:
		return int(v[i])
	case []uint32:
		return int(v[i])
	case []uint8:
		return int(v[i])
	case []int32:
		return int(v[i])
	default:
		return -1
	}
}

// NeedsUpdate marks the whole array dirty. The next upload transfers every
// byte unless update ranges are declared before it.
func (a *BufferAttribute) NeedsUpdate() {
	a.version++
}

// AddUpdateRange declares elements [start, start+count) dirty and bumps the
// version. Ranges are clamped to the array.
func (a *BufferAttribute) AddUpdateRange(start, count int) {
	if start < 0 {
		count += start
		start = 0
	}
	if start+count > a.Len() {
		count = a.Len() - start
	}
	if count <= 0 {
		return
	}
	a.ranges = append(a.ranges, UpdateRange{Start: start, Count: count})
	a.version++
}

// UpdateRanges returns the ranges declared since the last ClearUpdateRanges.
func (a *BufferAttribute) UpdateRanges() []UpdateRange {
	return a.ranges
}

// ClearUpdateRanges forgets declared ranges. The resource cache calls it
// after uploading them.
func (a *BufferAttribute) ClearUpdateRanges() {
	a.ranges = a.ranges[:0]
}

// SetXYZ writes item i of a float32 attribute with item size >= 3 and
// marks it dirty.
func (a *BufferAttribute) SetXYZ(i int, x, y, z float32) {
	v := a.Float32s()
	o := i * a.itemSize
	v[o], v[o+1], v[o+2] = x, y, z
	a.AddUpdateRange(o, 3)
}

// GetXYZ reads item i of a float32 attribute with item size >= 3.
func (a *BufferAttribute) GetXYZ(i int) (x, y, z float32) {
	v := a.Float32s()
	o := i * a.itemSize
	return v[o], v[o+1], v[o+2]
}

// Bytes encodes the whole array little-endian.
func (a *BufferAttribute) Bytes() []byte {
	return a.ByteRange(0, a.Len())
}

// ByteRange encodes elements [start, start+count) little-endian.
func (a *BufferAttribute) ByteRange(start, count int) []byte {
	size := a.kind.Size()
	out := make([]byte, count*size)
	switch v := a.data.(type) {
	case []float32:
		for i, f := range v[start : start+count] {
			binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
		}
	case []float64:
		for i, f := range v[start : start+count] {
			binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(f))
		}
	case []int8:
		for i, x := range v[start : start+count] {
			out[i] = byte(x)
		}
	case []uint8:
		copy(out, v[start:start+count])
	case []int16:
		for i, x := range v[start : start+count] {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(x))
		}
	case []uint16:
		for i, x := range v[start : start+count] {
			binary.LittleEndian.PutUint16(out[i*2:], x)
		}
	case []int32:
		for i, x := range v[start : start+count] {
			binary.LittleEndian.PutUint32(out[i*4:], uint32(x))
		}
	case []uint32:
		for i, x := range v[start : start+count] {
			binary.LittleEndian.PutUint32(out[i*4:], x)
		}
	}
	return out
}

// Replace swaps the backing array, keeping kind and item size, and marks
// the attribute dirty. A length change is only legal through an explicit
// GPU reallocation on the next upload.
func (a *BufferAttribute) Replace(data any) error {
	var n int
	switch v := data.(type) {
	case []float32:
		n = a.checkKind(Float32, len(v))
	case []float64:
		n = a.checkKind(Float64, len(v))
	case []int8:
		n = a.checkKind(Int8, len(v))
	case []uint8:
		n = a.checkKind(Uint8, len(v))
	case []int16:
		n = a.checkKind(Int16, len(v))
	case []uint16:
		n = a.checkKind(Uint16, len(v))
	case []int32:
		n = a.checkKind(Int32, len(v))
	case []uint32:
		n = a.checkKind(Uint32, len(v))
	default:
		return fmt.Errorf("core: replace: unsupported array type %T", data)
	}
	if n < 0 {
		return fmt.Errorf("core: replace: got %T, want %s array", data, a.kind)
	}
	if n%a.itemSize != 0 {
		return fmt.Errorf("%w: %d elements, item size %d", ErrArrayLength, n, a.itemSize)
	}
	a.data = data
	a.count = n / a.itemSize
	a.ranges = a.ranges[:0]
	a.version++
	return nil
}

func (a *BufferAttribute) checkKind(k ElementKind, n int) int {
	if k != a.kind {
		return -1
	}
	return n
}
