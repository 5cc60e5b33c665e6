package geometry

import (
	"github.com/chewxy/math32"

	"github.com/gogpu/g3d/core"
)

// build assembles a geometry from flat position/normal/uv/index arrays.
// Inputs come from the builders below and are well formed by construction.
func build(name string, pos, nrm, uv []float32, idx []uint32, vertices int) *Geometry {
	g := New()
	g.Name = name
	p, _ := core.NewFloat32Attribute(pos, 3)
	n, _ := core.NewFloat32Attribute(nrm, 3)
	t, _ := core.NewFloat32Attribute(uv, 2)
	g.SetAttribute(AttrPosition, p)
	g.SetAttribute(AttrNormal, n)
	g.SetAttribute(AttrUV, t)

	var index *core.BufferAttribute
	if vertices <= 0xFFFF {
		small := make([]uint16, len(idx))
		for i, v := range idx {
			small[i] = uint16(v)
		}
		index, _ = core.NewUint16Attribute(small, 1)
	} else {
		index, _ = core.NewUint32Attribute(idx, 1)
	}
	g.SetIndex(index)
	return g
}

// NewPlane returns a width x height plane in the XY plane facing +Z,
// subdivided into segX x segY quads.
func NewPlane(width, height float32, segX, segY int) *Geometry {
	segX, segY = max(segX, 1), max(segY, 1)
	var pos, nrm, uv []float32
	var idx []uint32

	for iy := 0; iy <= segY; iy++ {
		v := float32(iy) / float32(segY)
		for ix := 0; ix <= segX; ix++ {
			u := float32(ix) / float32(segX)
			pos = append(pos, (u-0.5)*width, (0.5-v)*height, 0)
			nrm = append(nrm, 0, 0, 1)
			uv = append(uv, u, 1-v)
		}
	}
	row := uint32(segX + 1)
	for iy := 0; iy < segY; iy++ {
		for ix := 0; ix < segX; ix++ {
			a := uint32(iy)*row + uint32(ix)
			b := a + row
			idx = append(idx, a, b, a+1, b, b+1, a+1)
		}
	}
	return build("plane", pos, nrm, uv, idx, len(pos)/3)
}

// NewBox returns an axis-aligned box centered at the origin with one
// material group per face in the order +X, -X, +Y, -Y, +Z, -Z.
func NewBox(width, height, depth float32) *Geometry {
	type face struct {
		u, v, w int     // axis indices for the face's u, v and normal
		du, dv  float32 // u and v directions
		dw      float32 // normal direction
		su, sv  float32 // extents along u and v
		sw      float32 // offset along the normal
	}
	faces := []face{
		{2, 1, 0, -1, -1, 1, depth, height, width},
		{2, 1, 0, 1, -1, -1, depth, height, width},
		{0, 2, 1, 1, 1, 1, width, depth, height},
		{0, 2, 1, 1, -1, -1, width, depth, height},
		{0, 1, 2, 1, -1, 1, width, height, depth},
		{0, 1, 2, -1, -1, -1, width, height, depth},
	}

	var pos, nrm, uv []float32
	var idx []uint32
	var groups []Group
	for fi, f := range faces {
		base := uint32(len(pos) / 3)
		for iy := 0; iy <= 1; iy++ {
			for ix := 0; ix <= 1; ix++ {
				var p, n [3]float32
				p[f.u] = (float32(ix) - 0.5) * f.su * f.du
				p[f.v] = (float32(iy) - 0.5) * f.sv * f.dv
				p[f.w] = f.sw / 2 * f.dw
				n[f.w] = f.dw
				pos = append(pos, p[0], p[1], p[2])
				nrm = append(nrm, n[0], n[1], n[2])
				uv = append(uv, float32(ix), 1-float32(iy))
			}
		}
		idx = append(idx, base, base+2, base+1, base+2, base+3, base+1)
		groups = append(groups, Group{Start: fi * 6, Count: 6, MaterialIndex: fi})
	}
	geo := build("box", pos, nrm, uv, idx, len(pos)/3)
	for _, gr := range groups {
		geo.AddGroup(gr.Start, gr.Count, gr.MaterialIndex)
	}
	return geo
}

// NewSphere returns a UV sphere of the given radius.
func NewSphere(radius float32, widthSegments, heightSegments int) *Geometry {
	ws, hs := max(widthSegments, 3), max(heightSegments, 2)
	var pos, nrm, uv []float32
	var idx []uint32

	for iy := 0; iy <= hs; iy++ {
		v := float32(iy) / float32(hs)
		theta := v * math32.Pi
		for ix := 0; ix <= ws; ix++ {
			u := float32(ix) / float32(ws)
			phi := u * 2 * math32.Pi
			x := -math32.Cos(phi) * math32.Sin(theta)
			y := math32.Cos(theta)
			z := math32.Sin(phi) * math32.Sin(theta)
			pos = append(pos, x*radius, y*radius, z*radius)
			nrm = append(nrm, x, y, z)
			uv = append(uv, u, 1-v)
		}
	}
	row := uint32(ws + 1)
	for iy := 0; iy < hs; iy++ {
		for ix := 0; ix < ws; ix++ {
			a := uint32(iy)*row + uint32(ix) + 1
			b := uint32(iy)*row + uint32(ix)
			c := uint32(iy+1)*row + uint32(ix)
			d := uint32(iy+1)*row + uint32(ix) + 1
			if iy != 0 {
				idx = append(idx, a, b, d)
			}
			if iy != hs-1 {
				idx = append(idx, b, c, d)
			}
		}
	}
	return build("sphere", pos, nrm, uv, idx, len(pos)/3)
}
