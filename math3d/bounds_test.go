package math3d

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoxFromPoints(t *testing.T) {
	pts := []float32{
		0, 0, 0,
		1, 2, 3,
		-1, 5, 0.5,
	}
	b := BoxFromPoints(pts, 3)
	require.False(t, b.IsEmpty())
	assertVec3(t, mgl32.Vec3{-1, 0, 0}, b.Min)
	assertVec3(t, mgl32.Vec3{1, 5, 3}, b.Max)
	assertVec3(t, mgl32.Vec3{0, 2.5, 1.5}, b.Center())
	assertVec3(t, mgl32.Vec3{2, 5, 3}, b.Size())
}

func TestEmptyBox(t *testing.T) {
	b := EmptyBox()
	assert.True(t, b.IsEmpty())
	assert.True(t, BoxFromPoints(nil, 3).IsEmpty())
	assert.Equal(t, mgl32.Vec3{}, b.Center())

	u := b.Union(Box3{Min: mgl32.Vec3{1, 1, 1}, Max: mgl32.Vec3{2, 2, 2}})
	assertVec3(t, mgl32.Vec3{1, 1, 1}, u.Min)
}

func TestBoxApplyMat4(t *testing.T) {
	b := Box3{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}
	got := b.ApplyMat4(mgl32.Translate3D(10, 0, 0).Mul4(mgl32.Scale3D(2, 1, 1)))
	assertVec3(t, mgl32.Vec3{8, -1, -1}, got.Min)
	assertVec3(t, mgl32.Vec3{12, 1, 1}, got.Max)
}

func TestSphereFromPoints(t *testing.T) {
	pts := []float32{
		-1, 0, 0,
		1, 0, 0,
		0, 1, 0,
		0, -1, 0,
	}
	s := SphereFromPoints(pts, 3)
	assertVec3(t, mgl32.Vec3{}, s.Center)
	assert.InDelta(t, 1, s.Radius, tol)
	assert.True(t, SphereFromPoints(nil, 3).IsEmpty())
}

func TestSphereApplyMat4(t *testing.T) {
	s := Sphere{Center: mgl32.Vec3{1, 0, 0}, Radius: 2}
	got := s.ApplyMat4(mgl32.Translate3D(0, 3, 0).Mul4(mgl32.Scale3D(1, 3, 2)))
	assertVec3(t, mgl32.Vec3{1, 3, 0}, got.Center)
	assert.InDelta(t, 6, got.Radius, tol)
}

func TestPlaneDistance(t *testing.T) {
	p := PlaneFromCoefficients(0, 2, 0, -4) // y = 2
	assert.InDelta(t, 1, p.Normal.Len(), tol)
	assert.InDelta(t, 3, p.DistanceToPoint(mgl32.Vec3{7, 5, -1}), tol)
	assert.InDelta(t, -2, p.DistanceToPoint(mgl32.Vec3{0, 0, 0}), tol)
}
