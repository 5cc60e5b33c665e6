package math3d

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min, Max mgl32.Vec3
}

// EmptyBox returns a box that contains nothing and absorbs the first point
// it is expanded by.
func EmptyBox() Box3 {
	inf := math32.Inf(1)
	return Box3{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// BoxFromPoints returns the bounds of a flat xyz array using the given
// stride in floats between points (3 for tightly packed positions).
func BoxFromPoints(points []float32, stride int) Box3 {
	b := EmptyBox()
	if stride < 3 {
		stride = 3
	}
	for i := 0; i+2 < len(points); i += stride {
		b = b.ExpandByPoint(mgl32.Vec3{points[i], points[i+1], points[i+2]})
	}
	return b
}

// IsEmpty reports whether the box contains no point.
func (b Box3) IsEmpty() bool {
	return b.Max[0] < b.Min[0] || b.Max[1] < b.Min[1] || b.Max[2] < b.Min[2]
}

// ExpandByPoint returns the smallest box containing b and p.
func (b Box3) ExpandByPoint(p mgl32.Vec3) Box3 {
	for i := 0; i < 3; i++ {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
	return b
}

// Union returns the smallest box containing b and o.
func (b Box3) Union(o Box3) Box3 {
	if o.IsEmpty() {
		return b
	}
	return b.ExpandByPoint(o.Min).ExpandByPoint(o.Max)
}

// Center returns the box midpoint. The center of an empty box is the origin.
func (b Box3) Center() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the box extent along each axis, or zero for an empty box.
func (b Box3) Size() mgl32.Vec3 {
	if b.IsEmpty() {
		return mgl32.Vec3{}
	}
	return b.Max.Sub(b.Min)
}

// ContainsPoint reports whether p lies inside or on the box.
func (b Box3) ContainsPoint(p mgl32.Vec3) bool {
	return p[0] >= b.Min[0] && p[0] <= b.Max[0] &&
		p[1] >= b.Min[1] && p[1] <= b.Max[1] &&
		p[2] >= b.Min[2] && p[2] <= b.Max[2]
}

// ApplyMat4 returns the bounds of the eight transformed corners of b.
func (b Box3) ApplyMat4(m mgl32.Mat4) Box3 {
	if b.IsEmpty() {
		return b
	}
	out := EmptyBox()
	for i := 0; i < 8; i++ {
		c := mgl32.Vec3{b.Min[0], b.Min[1], b.Min[2]}
		if i&1 != 0 {
			c[0] = b.Max[0]
		}
		if i&2 != 0 {
			c[1] = b.Max[1]
		}
		if i&4 != 0 {
			c[2] = b.Max[2]
		}
		out = out.ExpandByPoint(TransformPoint(m, c))
	}
	return out
}

// Sphere is a bounding sphere. A negative radius marks an empty sphere.
type Sphere struct {
	Center mgl32.Vec3
	Radius float32
}

// EmptySphere returns a sphere that contains nothing.
func EmptySphere() Sphere {
	return Sphere{Radius: -1}
}

// IsEmpty reports whether the sphere contains no point.
func (s Sphere) IsEmpty() bool {
	return s.Radius < 0
}

// SphereFromPoints centers the sphere on the bounding box of points and
// takes the largest distance to any point as the radius.
func SphereFromPoints(points []float32, stride int) Sphere {
	if stride < 3 {
		stride = 3
	}
	box := BoxFromPoints(points, stride)
	if box.IsEmpty() {
		return EmptySphere()
	}
	center := box.Center()
	var maxSq float32
	for i := 0; i+2 < len(points); i += stride {
		d := mgl32.Vec3{points[i], points[i+1], points[i+2]}.Sub(center)
		maxSq = math32.Max(maxSq, d.Dot(d))
	}
	return Sphere{Center: center, Radius: math32.Sqrt(maxSq)}
}

// ApplyMat4 transforms the center by m and scales the radius by the
// largest axis scale of m.
func (s Sphere) ApplyMat4(m mgl32.Mat4) Sphere {
	if s.IsEmpty() {
		return s
	}
	return Sphere{
		Center: TransformPoint(m, s.Center),
		Radius: s.Radius * MaxScaleOnAxis(m),
	}
}

// ContainsPoint reports whether p lies inside or on the sphere.
func (s Sphere) ContainsPoint(p mgl32.Vec3) bool {
	d := p.Sub(s.Center)
	return d.Dot(d) <= s.Radius*s.Radius
}

// Plane is the set of points p with Normal·p + Constant == 0.
type Plane struct {
	Normal   mgl32.Vec3
	Constant float32
}

// PlaneFromCoefficients returns the normalized plane ax + by + cz + d = 0.
func PlaneFromCoefficients(a, b, c, d float32) Plane {
	return Plane{Normal: mgl32.Vec3{a, b, c}, Constant: d}.Normalize()
}

// Normalize scales the plane so its normal has unit length.
func (p Plane) Normalize() Plane {
	l := p.Normal.Len()
	if l == 0 {
		return p
	}
	inv := 1 / l
	return Plane{Normal: p.Normal.Mul(inv), Constant: p.Constant * inv}
}

// DistanceToPoint returns the signed distance from the plane to v.
func (p Plane) DistanceToPoint(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) + p.Constant
}
