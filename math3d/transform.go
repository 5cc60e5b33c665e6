package math3d

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Epsilon is the tolerance used by approximate comparisons in this package.
const Epsilon = 1e-6

// Compose returns T(pos) · R(q) · S(scale) as a column-major matrix.
// q is expected to be a unit quaternion.
func Compose(pos mgl32.Vec3, q mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	x, y, z, w := q.V[0], q.V[1], q.V[2], q.W
	x2, y2, z2 := x+x, y+y, z+z
	xx, xy, xz := x*x2, x*y2, x*z2
	yy, yz, zz := y*y2, y*z2, z*z2
	wx, wy, wz := w*x2, w*y2, w*z2
	sx, sy, sz := scale[0], scale[1], scale[2]

	return mgl32.Mat4{
		(1 - (yy + zz)) * sx, (xy + wz) * sx, (xz - wy) * sx, 0,
		(xy - wz) * sy, (1 - (xx + zz)) * sy, (yz + wx) * sy, 0,
		(xz + wy) * sz, (yz - wx) * sz, (1 - (xx + yy)) * sz, 0,
		pos[0], pos[1], pos[2], 1,
	}
}

// Decompose splits an affine T·R·S matrix into position, rotation and scale.
// A negative determinant is attributed to the X axis: its scale is negated
// so the remaining basis is a proper right-handed rotation.
func Decompose(m mgl32.Mat4) (pos mgl32.Vec3, q mgl32.Quat, scale mgl32.Vec3) {
	sx := mgl32.Vec3{m[0], m[1], m[2]}.Len()
	sy := mgl32.Vec3{m[4], m[5], m[6]}.Len()
	sz := mgl32.Vec3{m[8], m[9], m[10]}.Len()
	if m.Det() < 0 {
		sx = -sx
	}

	pos = mgl32.Vec3{m[12], m[13], m[14]}
	scale = mgl32.Vec3{sx, sy, sz}

	invX, invY, invZ := safeInv(sx), safeInv(sy), safeInv(sz)
	r := mgl32.Mat3{
		m[0] * invX, m[1] * invX, m[2] * invX,
		m[4] * invY, m[5] * invY, m[6] * invY,
		m[8] * invZ, m[9] * invZ, m[10] * invZ,
	}
	q = QuatFromRotation(r)
	return pos, q, scale
}

func safeInv(v float32) float32 {
	if v == 0 {
		return 0
	}
	return 1 / v
}

// QuatFromRotation converts a pure rotation matrix to a unit quaternion.
// The largest diagonal term selects the branch so the square root argument
// stays well away from zero.
func QuatFromRotation(r mgl32.Mat3) mgl32.Quat {
	// Column-major: r[col*3+row].
	m11, m12, m13 := r[0], r[3], r[6]
	m21, m22, m23 := r[1], r[4], r[7]
	m31, m32, m33 := r[2], r[5], r[8]
	trace := m11 + m22 + m33

	var q mgl32.Quat
	switch {
	case trace > 0:
		s := 0.5 / math32.Sqrt(trace+1)
		q.W = 0.25 / s
		q.V = mgl32.Vec3{(m32 - m23) * s, (m13 - m31) * s, (m21 - m12) * s}
	case m11 > m22 && m11 > m33:
		s := 2 * math32.Sqrt(1+m11-m22-m33)
		q.W = (m32 - m23) / s
		q.V = mgl32.Vec3{0.25 * s, (m12 + m21) / s, (m13 + m31) / s}
	case m22 > m33:
		s := 2 * math32.Sqrt(1+m22-m11-m33)
		q.W = (m13 - m31) / s
		q.V = mgl32.Vec3{(m12 + m21) / s, 0.25 * s, (m23 + m32) / s}
	default:
		s := 2 * math32.Sqrt(1+m33-m11-m22)
		q.W = (m21 - m12) / s
		q.V = mgl32.Vec3{(m13 + m31) / s, (m23 + m32) / s, 0.25 * s}
	}
	return q.Normalize()
}

// Slerp spherically interpolates from a to b along the shortest arc.
// t <= 0 yields a and t >= 1 yields b. When the quaternions are nearly
// parallel the result falls back to a normalized linear blend. The result
// is always normalized.
func Slerp(a, b mgl32.Quat, t float32) mgl32.Quat {
	if t <= 0 {
		return a.Normalize()
	}
	if t >= 1 {
		return b.Normalize()
	}

	cosHalf := a.Dot(b)
	if cosHalf < 0 {
		b = b.Scale(-1)
		cosHalf = -cosHalf
	}
	if cosHalf >= 1 {
		return a.Normalize()
	}

	sqrSin := 1 - cosHalf*cosHalf
	if sqrSin <= Epsilon {
		s := 1 - t
		return a.Scale(s).Add(b.Scale(t)).Normalize()
	}

	sinHalf := math32.Sqrt(sqrSin)
	half := math32.Atan2(sinHalf, cosHalf)
	ra := math32.Sin((1-t)*half) / sinHalf
	rb := math32.Sin(t*half) / sinHalf
	return a.Scale(ra).Add(b.Scale(rb)).Normalize()
}

// MaxScaleOnAxis returns the largest column length of the upper 3x3 of m.
func MaxScaleOnAxis(m mgl32.Mat4) float32 {
	sx := m[0]*m[0] + m[1]*m[1] + m[2]*m[2]
	sy := m[4]*m[4] + m[5]*m[5] + m[6]*m[6]
	sz := m[8]*m[8] + m[9]*m[9] + m[10]*m[10]
	return math32.Sqrt(math32.Max(sx, math32.Max(sy, sz)))
}

// TransformPoint applies m to p with w = 1 and performs the perspective divide.
func TransformPoint(m mgl32.Mat4, p mgl32.Vec3) mgl32.Vec3 {
	v := m.Mul4x1(p.Vec4(1))
	if v[3] != 0 && v[3] != 1 {
		inv := 1 / v[3]
		return mgl32.Vec3{v[0] * inv, v[1] * inv, v[2] * inv}
	}
	return v.Vec3()
}

// NormalMatrix returns the inverse transpose of the upper 3x3 of m.
func NormalMatrix(m mgl32.Mat4) mgl32.Mat3 {
	return m.Mat3().Inv().Transpose()
}
