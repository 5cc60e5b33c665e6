package math3d

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestFrustumPlaneOrder(t *testing.T) {
	// Orthographic box [-1,1]^2, near 1, far 10, looking down -Z.
	for _, depth := range []DepthRange{DepthNegOneToOne, DepthZeroToOne} {
		proj := Orthographic(-1, 1, -1, 1, 1, 10, depth)
		f := FrustumFromMatrix(proj, depth)

		assertVec3(t, mgl32.Vec3{-1, 0, 0}, f.Planes[PlaneRight].Normal)
		assertVec3(t, mgl32.Vec3{1, 0, 0}, f.Planes[PlaneLeft].Normal)
		assertVec3(t, mgl32.Vec3{0, -1, 0}, f.Planes[PlaneTop].Normal)
		assertVec3(t, mgl32.Vec3{0, 1, 0}, f.Planes[PlaneBottom].Normal)
		assertVec3(t, mgl32.Vec3{0, 0, -1}, f.Planes[PlaneNear].Normal)
		assertVec3(t, mgl32.Vec3{0, 0, 1}, f.Planes[PlaneFar].Normal)

		assert.InDelta(t, 0, f.Planes[PlaneNear].DistanceToPoint(mgl32.Vec3{0, 0, -1}), tol, "depth %d near", depth)
		assert.InDelta(t, 0, f.Planes[PlaneFar].DistanceToPoint(mgl32.Vec3{0, 0, -10}), tol, "depth %d far", depth)
	}
}

func TestFrustumDepthConventionsAgree(t *testing.T) {
	fov := mgl32.DegToRad(60)
	a := FrustumFromMatrix(Perspective(fov, 1.5, 0.1, 100, DepthNegOneToOne), DepthNegOneToOne)
	b := FrustumFromMatrix(Perspective(fov, 1.5, 0.1, 100, DepthZeroToOne), DepthZeroToOne)
	for i := range a.Planes {
		assertVec3(t, a.Planes[i].Normal, b.Planes[i].Normal)
		assert.InDelta(t, a.Planes[i].Constant, b.Planes[i].Constant, 1e-2, "plane %d", i)
	}
}

func TestFrustumIntersectsSphere(t *testing.T) {
	view := mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	proj := Perspective(math32.Pi/2, 1, 0.1, 50, DepthZeroToOne)
	f := FrustumFromMatrix(proj.Mul4(view), DepthZeroToOne)

	tests := []struct {
		name   string
		sphere Sphere
		want   bool
	}{
		{"center", Sphere{Center: mgl32.Vec3{}, Radius: 1}, true},
		{"behind camera", Sphere{Center: mgl32.Vec3{0, 0, 20}, Radius: 1}, false},
		{"beyond far", Sphere{Center: mgl32.Vec3{0, 0, -100}, Radius: 1}, false},
		{"far left", Sphere{Center: mgl32.Vec3{-100, 0, 0}, Radius: 1}, false},
		// Left plane passes through x = -5 at z = 0 for a 90 degree fov.
		{"straddles left", Sphere{Center: mgl32.Vec3{-5.5, 0, 0}, Radius: 1}, true},
		{"empty", EmptySphere(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IntersectsSphere(tt.sphere))
		})
	}
}

func TestFrustumIntersectsBox(t *testing.T) {
	f := FrustumFromMatrix(Orthographic(-1, 1, -1, 1, 0, 10, DepthNegOneToOne), DepthNegOneToOne)

	inside := Box3{Min: mgl32.Vec3{-0.5, -0.5, -2}, Max: mgl32.Vec3{0.5, 0.5, -1}}
	straddle := Box3{Min: mgl32.Vec3{0.5, 0, -2}, Max: mgl32.Vec3{3, 1, -1}}
	outside := Box3{Min: mgl32.Vec3{2, 2, -2}, Max: mgl32.Vec3{3, 3, -1}}

	assert.True(t, f.IntersectsBox(inside))
	assert.True(t, f.IntersectsBox(straddle))
	assert.False(t, f.IntersectsBox(outside))
	assert.True(t, f.ContainsPoint(mgl32.Vec3{0, 0, -5}))
	assert.False(t, f.ContainsPoint(mgl32.Vec3{0, 0, 5}))
}

func TestPerspectiveZeroToOneDepth(t *testing.T) {
	proj := Perspective(1, 1, 1, 10, DepthZeroToOne)
	near := TransformPoint(proj, mgl32.Vec3{0, 0, -1})
	far := TransformPoint(proj, mgl32.Vec3{0, 0, -10})
	assert.InDelta(t, 0, near[2], tol)
	assert.InDelta(t, 1, far[2], tol)
}
