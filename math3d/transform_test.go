package math3d

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

const tol = 1e-4

func assertVec3(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol, "component %d of %v", i, got)
	}
}

// assertSameRotation accepts q and -q, which encode the same rotation.
func assertSameRotation(t *testing.T, want, got mgl32.Quat) {
	t.Helper()
	d := want.Dot(got)
	assert.InDelta(t, 1, math32.Abs(d), tol, "quats %v and %v", want, got)
}

func TestComposeTranslationOnly(t *testing.T) {
	m := Compose(mgl32.Vec3{1, 2, 3}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1})
	assert.True(t, m.ApproxEqual(mgl32.Translate3D(1, 2, 3)), "got %v", m)
}

func TestComposeOrderIsTRS(t *testing.T) {
	pos := mgl32.Vec3{4, -2, 7}
	q := mgl32.QuatRotate(0.7, mgl32.Vec3{0, 1, 1}.Normalize())
	s := mgl32.Vec3{2, 3, 0.5}

	want := mgl32.Translate3D(pos[0], pos[1], pos[2]).
		Mul4(q.Mat4()).
		Mul4(mgl32.Scale3D(s[0], s[1], s[2]))
	got := Compose(pos, q, s)
	assert.True(t, got.ApproxEqualThreshold(want, tol), "Compose = %v, want %v", got, want)
}

func TestDecomposeRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		pos   mgl32.Vec3
		axis  mgl32.Vec3
		angle float32
		scale mgl32.Vec3
	}{
		{"identity", mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 0, mgl32.Vec3{1, 1, 1}},
		{"translate", mgl32.Vec3{5, 0, -3}, mgl32.Vec3{0, 1, 0}, 0, mgl32.Vec3{1, 1, 1}},
		{"rotateY", mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 1.2, mgl32.Vec3{1, 1, 1}},
		{"rotate180X", mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 0, 0}, math32.Pi, mgl32.Vec3{1, 1, 1}},
		{"full", mgl32.Vec3{-1, 2, 3.5}, mgl32.Vec3{1, 2, 3}, 2.5, mgl32.Vec3{0.5, 4, 2}},
		{"nonuniform", mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, 0, 1}, -0.4, mgl32.Vec3{3, 1, 0.25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mgl32.QuatRotate(tt.angle, tt.axis.Normalize())
			p, gotQ, gotS := Decompose(Compose(tt.pos, q, tt.scale))
			assertVec3(t, tt.pos, p)
			assertVec3(t, tt.scale, gotS)
			assertSameRotation(t, q, gotQ)
		})
	}
}

func TestDecomposeNegativeDeterminant(t *testing.T) {
	m := Compose(mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{1, -2, 1})
	_, q, s := Decompose(m)

	assert.Less(t, s[0], float32(0), "first axis carries the reflection")
	assert.Greater(t, s[1], float32(0))

	// Recomposition reproduces the original matrix.
	back := Compose(mgl32.Vec3{}, q, s)
	assert.True(t, back.ApproxEqualThreshold(m, tol), "recomposed %v, want %v", back, m)
}

func TestSlerpEndpoints(t *testing.T) {
	a := mgl32.QuatRotate(0.3, mgl32.Vec3{0, 1, 0})
	b := mgl32.QuatRotate(1.9, mgl32.Vec3{1, 0, 0})

	assertSameRotation(t, a, Slerp(a, b, 0))
	assertSameRotation(t, b, Slerp(a, b, 1))
}

func TestSlerpMidpoint(t *testing.T) {
	a := mgl32.QuatIdent()
	b := mgl32.QuatRotate(math32.Pi/2, mgl32.Vec3{0, 0, 1})

	got := Slerp(a, b, 0.5)
	want := mgl32.QuatRotate(math32.Pi/4, mgl32.Vec3{0, 0, 1})
	assertSameRotation(t, want, got)
	assert.InDelta(t, 1, got.Len(), tol)
}

func TestSlerpShortestPath(t *testing.T) {
	a := mgl32.QuatRotate(0.2, mgl32.Vec3{0, 1, 0})
	b := mgl32.QuatRotate(0.4, mgl32.Vec3{0, 1, 0}).Scale(-1)

	got := Slerp(a, b, 0.5)
	assertSameRotation(t, mgl32.QuatRotate(0.3, mgl32.Vec3{0, 1, 0}), got)
}

func TestSlerpNearlyParallel(t *testing.T) {
	a := mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})
	b := mgl32.QuatRotate(0.5+1e-6, mgl32.Vec3{0, 1, 0})

	got := Slerp(a, b, 0.5)
	for _, c := range []float32{got.W, got.V[0], got.V[1], got.V[2]} {
		assert.False(t, math32.IsNaN(c), "component is NaN: %v", got)
	}
	assert.InDelta(t, 1, got.Len(), tol)
	assertSameRotation(t, a, got)
}

func TestMaxScaleOnAxis(t *testing.T) {
	m := Compose(mgl32.Vec3{9, 9, 9}, mgl32.QuatRotate(1, mgl32.Vec3{0, 1, 0}), mgl32.Vec3{1, 5, 2})
	assert.InDelta(t, 5, MaxScaleOnAxis(m), tol)
}
