package gpucore

import "errors"

// Resource IDs
//
// These opaque IDs represent GPU resources. Each device implementation
// maintains a mapping between IDs and actual backend resources.
// IDs are uint64 to accommodate various backend handle sizes.

// BufferID is an opaque handle to a GPU buffer.
type BufferID uint64

// TextureID is an opaque handle to a GPU texture.
type TextureID uint64

// ProgramID is an opaque handle to a linked vertex+fragment program.
type ProgramID uint64

// FramebufferID is an opaque handle to a set of render attachments.
// The zero FramebufferID is the default (presentable) framebuffer.
type FramebufferID uint64

// InvalidID is the zero value, representing an invalid/null resource.
const InvalidID = 0

// DefaultFramebuffer is the presentable framebuffer owned by the device.
const DefaultFramebuffer FramebufferID = 0

// Errors reported by devices.
var (
	// ErrContextLost is returned by every fallible call after the device
	// lost its underlying context.
	ErrContextLost = errors.New("gpucore: context lost")

	// ErrShaderCompile wraps the diagnostic of a program that failed to
	// compile or link.
	ErrShaderCompile = errors.New("gpucore: shader compile failed")

	// ErrInvalidResource is returned when an ID does not name a live resource.
	ErrInvalidResource = errors.New("gpucore: invalid resource")

	// ErrUnsupported is returned for formats or features the device lacks.
	ErrUnsupported = errors.New("gpucore: unsupported")
)

// BufferUsage is a bitmask specifying how a buffer will be used.
type BufferUsage uint32

// Buffer usage flags.
const (
	BufferUsageVertex BufferUsage = 1 << iota
	BufferUsageIndex
	BufferUsageUniform
	BufferUsageCopyDst
	BufferUsageCopySrc
)

// UsageHint tells the device how often a buffer's contents change.
type UsageHint uint8

// Usage hints.
const (
	UsageStatic UsageHint = iota
	UsageDynamic
	UsageStream
)

// TextureFormat specifies the format of texture data.
type TextureFormat uint32

// Texture formats.
const (
	TextureFormatUndefined TextureFormat = iota
	TextureFormatRGBA8Unorm
	TextureFormatRGBA8UnormSRGB
	TextureFormatBGRA8Unorm
	TextureFormatR8Unorm
	TextureFormatR32Float
	TextureFormatRG32Float
	TextureFormatRGBA32Float
	TextureFormatDepth24PlusStencil8
	TextureFormatDepth32Float
)

var textureFormatNames = [...]string{
	TextureFormatUndefined:           "Undefined",
	TextureFormatRGBA8Unorm:          "RGBA8Unorm",
	TextureFormatRGBA8UnormSRGB:      "RGBA8UnormSRGB",
	TextureFormatBGRA8Unorm:          "BGRA8Unorm",
	TextureFormatR8Unorm:             "R8Unorm",
	TextureFormatR32Float:            "R32Float",
	TextureFormatRG32Float:           "RG32Float",
	TextureFormatRGBA32Float:         "RGBA32Float",
	TextureFormatDepth24PlusStencil8: "Depth24PlusStencil8",
	TextureFormatDepth32Float:        "Depth32Float",
}

// String returns the format name.
func (f TextureFormat) String() string {
	if int(f) < len(textureFormatNames) {
		return textureFormatNames[f]
	}
	return "Unknown"
}

// BytesPerPixel returns the texel size of color formats, or 0 for depth
// and undefined formats.
func (f TextureFormat) BytesPerPixel() int {
	switch f {
	case TextureFormatRGBA8Unorm, TextureFormatRGBA8UnormSRGB, TextureFormatBGRA8Unorm, TextureFormatR32Float:
		return 4
	case TextureFormatR8Unorm:
		return 1
	case TextureFormatRG32Float:
		return 8
	case TextureFormatRGBA32Float:
		return 16
	default:
		return 0
	}
}

// IsDepth reports whether f is a depth or depth/stencil format.
func (f TextureFormat) IsDepth() bool {
	return f == TextureFormatDepth24PlusStencil8 || f == TextureFormatDepth32Float
}

// HasStencil reports whether f carries a stencil aspect.
func (f TextureFormat) HasStencil() bool {
	return f == TextureFormatDepth24PlusStencil8
}

// TextureUsage is a bitmask specifying how a texture will be used.
type TextureUsage uint32

// Texture usage flags.
const (
	TextureUsageCopySrc TextureUsage = 1 << iota
	TextureUsageCopyDst
	TextureUsageTextureBinding
	TextureUsageRenderAttachment
)

// FilterMode selects texel filtering.
type FilterMode uint8

// Filter modes.
const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// WrapMode selects texture coordinate addressing.
type WrapMode uint8

// Wrap modes.
const (
	WrapClampToEdge WrapMode = iota
	WrapRepeat
	WrapMirroredRepeat
)

// SamplerState describes how a texture is sampled.
type SamplerState struct {
	MinFilter    FilterMode
	MagFilter    FilterMode
	MipmapFilter FilterMode
	WrapS        WrapMode
	WrapT        WrapMode
}

// VertexFormat describes one vertex attribute element layout.
type VertexFormat uint8

// Vertex formats.
const (
	VertexFormatFloat32 VertexFormat = iota + 1
	VertexFormatFloat32x2
	VertexFormatFloat32x3
	VertexFormatFloat32x4
	VertexFormatUint8x4
	VertexFormatUnorm8x4
	VertexFormatUint16x2
	VertexFormatUint16x4
	VertexFormatSint16x2
	VertexFormatSint16x4
	VertexFormatUint32
	VertexFormatUint32x2
	VertexFormatUint32x3
	VertexFormatUint32x4
	VertexFormatSint32
	VertexFormatSint32x2
	VertexFormatSint32x3
	VertexFormatSint32x4
)

// VertexLayout describes how a vertex buffer feeds an attribute location.
type VertexLayout struct {
	Format VertexFormat
	Stride uint32
	Offset uint64
}

// IndexFormat selects index element size.
type IndexFormat uint8

// Index formats.
const (
	IndexFormatUint16 IndexFormat = iota + 1
	IndexFormatUint32
)

// Size returns the element size in bytes.
func (f IndexFormat) Size() int {
	if f == IndexFormatUint32 {
		return 4
	}
	return 2
}

// Topology selects how vertices are assembled into primitives.
type Topology uint8

// Primitive topologies.
const (
	TopologyTriangles Topology = iota
	TopologyLines
	TopologyLineStrip
	TopologyPoints
)

// BlendFactor is a blend equation multiplier.
type BlendFactor uint8

// Blend factors.
const (
	BlendZero BlendFactor = iota
	BlendOne
	BlendSrcColor
	BlendOneMinusSrcColor
	BlendSrcAlpha
	BlendOneMinusSrcAlpha
	BlendDstColor
	BlendOneMinusDstColor
	BlendDstAlpha
	BlendOneMinusDstAlpha
	BlendConstant
	BlendOneMinusConstant
)

// BlendOperation combines the weighted source and destination.
type BlendOperation uint8

// Blend operations.
const (
	BlendOpAdd BlendOperation = iota
	BlendOpSubtract
	BlendOpReverseSubtract
	BlendOpMin
	BlendOpMax
)

// CompareFunc is a depth or stencil comparison.
type CompareFunc uint8

// Comparison functions.
const (
	CompareNever CompareFunc = iota
	CompareLess
	CompareEqual
	CompareLessEqual
	CompareGreater
	CompareNotEqual
	CompareGreaterEqual
	CompareAlways
)

// StencilOp is an action applied to the stencil buffer.
type StencilOp uint8

// Stencil operations.
const (
	StencilKeep StencilOp = iota
	StencilZero
	StencilReplace
	StencilIncrement
	StencilDecrement
	StencilInvert
	StencilIncrementWrap
	StencilDecrementWrap
)

// CullMode selects which faces are discarded.
type CullMode uint8

// Cull modes.
const (
	CullNone CullMode = iota
	CullFront
	CullBack
)

// FrontFace selects the winding of front-facing triangles.
type FrontFace uint8

// Front face windings.
const (
	FrontFaceCCW FrontFace = iota
	FrontFaceCW
)

// Color is a linear RGBA color.
type Color struct {
	R, G, B, A float32
}

// Rect is an integer pixel rectangle with the origin at the bottom-left.
type Rect struct {
	X, Y          int
	Width, Height int
}

// ClearFlags selects the attachments a Clear call touches.
type ClearFlags uint8

// Clear flags.
const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
	ClearStencil
)

// UniformType is the shader type of a uniform declaration.
type UniformType uint8

// Uniform types.
const (
	UniformFloat UniformType = iota + 1
	UniformVec2
	UniformVec3
	UniformVec4
	UniformMat3
	UniformMat4
	UniformInt
	UniformSampler2D
)

// Components returns the number of 32-bit scalars the type occupies
// without padding.
func (t UniformType) Components() int {
	switch t {
	case UniformFloat, UniformInt, UniformSampler2D:
		return 1
	case UniformVec2:
		return 2
	case UniformVec3:
		return 3
	case UniformVec4:
		return 4
	case UniformMat3:
		return 9
	case UniformMat4:
		return 16
	default:
		return 0
	}
}
