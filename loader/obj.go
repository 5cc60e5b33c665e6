package loader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/core"
	"github.com/gogpu/g3d/geometry"
)

// ErrOBJ is wrapped by every OBJ syntax error.
var ErrOBJ = errors.New("loader: malformed obj")

// objVertex is one distinct v/vt/vn triple. Missing parts are -1.
type objVertex struct{ v, vt, vn int }

type objDecoder struct {
	line int

	positions []float32
	uvs       []float32
	normals   []float32

	vertices  map[objVertex]uint32
	order     []objVertex
	indices   []uint32
	materials []string
	material  int

	// groupStart is the first index of the current material run.
	groupStart int
	groups     []geometry.Group
}

// DecodeOBJ reads positions, texture coordinates, normals and polygonal
// faces from a Wavefront OBJ stream. Faces are fan triangulated. Every
// usemtl run becomes a geometry group whose material index is the order in
// which the material name first appeared. Normals are computed when the
// file declares none.
func DecodeOBJ(ctx context.Context, r io.Reader) (*geometry.Geometry, error) {
	dec := &objDecoder{vertices: make(map[objVertex]uint32), material: -1}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64<<10), 1<<20)
	for sc.Scan() {
		dec.line++
		if dec.line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err := dec.parseLine(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return dec.build()
}

func (dec *objDecoder) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrOBJ, dec.line, fmt.Sprintf(format, args...))
}

func (dec *objDecoder) parseLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	switch fields[0] {
	case "v":
		return dec.parseFloats(&dec.positions, fields[1:], 3)
	case "vn":
		return dec.parseFloats(&dec.normals, fields[1:], 3)
	case "vt":
		return dec.parseFloats(&dec.uvs, fields[1:], 2)
	case "f":
		return dec.parseFace(fields[1:])
	case "usemtl":
		if len(fields) < 2 {
			return dec.errorf("usemtl with no name")
		}
		dec.useMaterial(fields[1])
	default:
		// o, g, s, mtllib and the rest carry no geometry.
	}
	return nil
}

func (dec *objDecoder) parseFloats(dst *[]float32, fields []string, n int) error {
	if len(fields) < n {
		return dec.errorf("want %d components, got %d", n, len(fields))
	}
	for _, f := range fields[:n] {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return dec.errorf("%v", err)
		}
		*dst = append(*dst, float32(v))
	}
	return nil
}

// parseIndex resolves a one-based or negative relative OBJ index.
func (dec *objDecoder) parseIndex(s string, count int) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, dec.errorf("%v", err)
	}
	switch {
	case v > 0:
		v--
	case v < 0:
		v += count
	default:
		return 0, dec.errorf("index 0")
	}
	if v < 0 || v >= count {
		return 0, dec.errorf("index %s out of range", s)
	}
	return v, nil
}

func (dec *objDecoder) parseFace(fields []string) error {
	if len(fields) < 3 {
		return dec.errorf("face with %d vertices", len(fields))
	}
	if dec.material < 0 {
		dec.useMaterial("")
	}
	corners := make([]uint32, len(fields))
	for i, f := range fields {
		parts := strings.Split(f, "/")
		key := objVertex{v: -1, vt: -1, vn: -1}
		var err error
		if key.v, err = dec.parseIndex(parts[0], len(dec.positions)/3); err != nil {
			return err
		}
		if len(parts) > 1 && parts[1] != "" {
			if key.vt, err = dec.parseIndex(parts[1], len(dec.uvs)/2); err != nil {
				return err
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if key.vn, err = dec.parseIndex(parts[2], len(dec.normals)/3); err != nil {
				return err
			}
		}
		idx, ok := dec.vertices[key]
		if !ok {
			idx = uint32(len(dec.order)) //nolint:gosec // bounded by file size
			dec.vertices[key] = idx
			dec.order = append(dec.order, key)
		}
		corners[i] = idx
	}
	for i := 1; i+1 < len(corners); i++ {
		dec.indices = append(dec.indices, corners[0], corners[i], corners[i+1])
	}
	return nil
}

func (dec *objDecoder) useMaterial(name string) {
	idx := -1
	for i, m := range dec.materials {
		if m == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		idx = len(dec.materials)
		dec.materials = append(dec.materials, name)
	}
	if idx == dec.material {
		return
	}
	dec.closeGroup()
	dec.material = idx
}

func (dec *objDecoder) closeGroup() {
	if dec.material >= 0 && len(dec.indices) > dec.groupStart {
		dec.groups = append(dec.groups, geometry.Group{
			Start:         dec.groupStart,
			Count:         len(dec.indices) - dec.groupStart,
			MaterialIndex: dec.material,
		})
	}
	dec.groupStart = len(dec.indices)
}

func (dec *objDecoder) build() (*geometry.Geometry, error) {
	dec.closeGroup()
	if len(dec.indices) == 0 {
		return nil, fmt.Errorf("%w: no faces", ErrOBJ)
	}
	n := len(dec.order)
	pos := make([]float32, 0, n*3)
	uv := make([]float32, 0, n*2)
	nrm := make([]float32, 0, n*3)
	hasUV, hasNormal := len(dec.uvs) > 0, len(dec.normals) > 0
	for _, k := range dec.order {
		pos = append(pos, dec.positions[k.v*3:k.v*3+3]...)
		if hasUV {
			if k.vt >= 0 {
				uv = append(uv, dec.uvs[k.vt*2:k.vt*2+2]...)
			} else {
				uv = append(uv, 0, 0)
			}
		}
		if hasNormal {
			if k.vn >= 0 {
				nrm = append(nrm, dec.normals[k.vn*3:k.vn*3+3]...)
			} else {
				nrm = append(nrm, 0, 0, 0)
			}
		}
	}
	if !hasNormal {
		nrm = vertexNormals(pos, dec.indices)
	}

	g := geometry.New()
	p, err := core.NewFloat32Attribute(pos, 3)
	if err != nil {
		return nil, err
	}
	g.SetAttribute(geometry.AttrPosition, p)
	normals, err := core.NewFloat32Attribute(nrm, 3)
	if err != nil {
		return nil, err
	}
	g.SetAttribute(geometry.AttrNormal, normals)
	if hasUV {
		t, err := core.NewFloat32Attribute(uv, 2)
		if err != nil {
			return nil, err
		}
		g.SetAttribute(geometry.AttrUV, t)
	}

	var index *core.BufferAttribute
	if n <= 0xFFFF {
		small := make([]uint16, len(dec.indices))
		for i, v := range dec.indices {
			small[i] = uint16(v) //nolint:gosec // n fits
		}
		index, err = core.NewUint16Attribute(small, 1)
	} else {
		index, err = core.NewUint32Attribute(dec.indices, 1)
	}
	if err != nil {
		return nil, err
	}
	g.SetIndex(index)
	if len(dec.groups) > 1 {
		for _, gr := range dec.groups {
			g.AddGroup(gr.Start, gr.Count, gr.MaterialIndex)
		}
	}
	return g, nil
}

// vertexNormals averages area-weighted face normals per vertex.
func vertexNormals(pos []float32, indices []uint32) []float32 {
	acc := make([]mgl32.Vec3, len(pos)/3)
	at := func(i uint32) mgl32.Vec3 { return mgl32.Vec3{pos[i*3], pos[i*3+1], pos[i*3+2]} }
	for t := 0; t+2 < len(indices); t += 3 {
		a, b, c := indices[t], indices[t+1], indices[t+2]
		pa := at(a)
		n := at(b).Sub(pa).Cross(at(c).Sub(pa))
		acc[a] = acc[a].Add(n)
		acc[b] = acc[b].Add(n)
		acc[c] = acc[c].Add(n)
	}
	out := make([]float32, 0, len(pos))
	for _, n := range acc {
		if n.Len() > 0 {
			n = n.Normalize()
		}
		out = append(out, n[0], n[1], n[2])
	}
	return out
}
