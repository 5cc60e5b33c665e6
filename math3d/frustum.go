package math3d

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// DepthRange is the clip-space depth convention of a projection.
type DepthRange uint8

const (
	// DepthNegOneToOne maps near/far to z = -1/+1 (OpenGL).
	DepthNegOneToOne DepthRange = iota
	// DepthZeroToOne maps near/far to z = 0/1 (WebGPU, Vulkan, Metal, D3D).
	DepthZeroToOne
)

// Frustum plane indices.
const (
	PlaneRight = iota
	PlaneLeft
	PlaneTop
	PlaneBottom
	PlaneNear
	PlaneFar
)

// Frustum is six inward-facing clip planes ordered right, left, top,
// bottom, near, far.
type Frustum struct {
	Planes [6]Plane
}

// FrustumFromMatrix extracts the clip planes of a (view-)projection
// matrix from its rows (Gribb/Hartmann).
func FrustumFromMatrix(m mgl32.Mat4, depth DepthRange) Frustum {
	r0, r1, r2, r3 := m.Row(0), m.Row(1), m.Row(2), m.Row(3)
	plane := func(v mgl32.Vec4) Plane {
		return PlaneFromCoefficients(v[0], v[1], v[2], v[3])
	}

	var f Frustum
	f.Planes[PlaneRight] = plane(r3.Sub(r0))
	f.Planes[PlaneLeft] = plane(r3.Add(r0))
	f.Planes[PlaneTop] = plane(r3.Sub(r1))
	f.Planes[PlaneBottom] = plane(r3.Add(r1))
	if depth == DepthZeroToOne {
		f.Planes[PlaneNear] = plane(r2)
	} else {
		f.Planes[PlaneNear] = plane(r3.Add(r2))
	}
	f.Planes[PlaneFar] = plane(r3.Sub(r2))
	return f
}

// IntersectsSphere reports whether s is at least partly inside the frustum.
// A sphere is rejected only when its center lies more than its radius
// behind some plane.
func (f Frustum) IntersectsSphere(s Sphere) bool {
	if s.IsEmpty() {
		return false
	}
	for _, p := range f.Planes {
		if p.DistanceToPoint(s.Center) < -s.Radius {
			return false
		}
	}
	return true
}

// IntersectsBox reports whether b is at least partly inside the frustum,
// testing the corner furthest along each plane normal.
func (f Frustum) IntersectsBox(b Box3) bool {
	if b.IsEmpty() {
		return false
	}
	for _, p := range f.Planes {
		var v mgl32.Vec3
		for i := 0; i < 3; i++ {
			if p.Normal[i] > 0 {
				v[i] = b.Max[i]
			} else {
				v[i] = b.Min[i]
			}
		}
		if p.DistanceToPoint(v) < 0 {
			return false
		}
	}
	return true
}

// ContainsPoint reports whether v lies inside every plane.
func (f Frustum) ContainsPoint(v mgl32.Vec3) bool {
	for _, p := range f.Planes {
		if p.DistanceToPoint(v) < 0 {
			return false
		}
	}
	return true
}

// Perspective returns a right-handed perspective projection with vertical
// field of view fovY in radians.
func Perspective(fovY, aspect, near, far float32, depth DepthRange) mgl32.Mat4 {
	if depth == DepthNegOneToOne {
		return mgl32.Perspective(fovY, aspect, near, far)
	}
	f := 1 / math32.Tan(fovY/2)
	nf := 1 / (near - far)
	return mgl32.Mat4{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, far * nf, -1,
		0, 0, near * far * nf, 0,
	}
}

// Orthographic returns a right-handed orthographic projection.
func Orthographic(left, right, bottom, top, near, far float32, depth DepthRange) mgl32.Mat4 {
	if depth == DepthNegOneToOne {
		return mgl32.Ortho(left, right, bottom, top, near, far)
	}
	rl, tb, fn := 1/(right-left), 1/(top-bottom), 1/(far-near)
	return mgl32.Mat4{
		2 * rl, 0, 0, 0,
		0, 2 * tb, 0, 0,
		0, 0, -fn, 0,
		-(right + left) * rl, -(top + bottom) * tb, -near * fn, 1,
	}
}
