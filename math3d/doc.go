// Package math3d provides the 3D math kernel of g3d.
//
// Vectors, matrices and quaternions are the mgl32 value types
// ([mgl32.Vec3], [mgl32.Mat4] column-major, [mgl32.Quat]). This package
// adds the composition algebra the scene graph relies on, plus bounding
// volumes and frustums:
//
//   - [Compose] and [Decompose] convert between (position, rotation, scale)
//     and a T·R·S matrix.
//   - [Slerp] interpolates unit quaternions along the shortest arc.
//   - [Box3], [Sphere] and [Plane] are bounding volumes.
//   - [FrustumFromMatrix] extracts six clip planes from a projection, for
//     either device depth convention ([DepthNegOneToOne], [DepthZeroToOne]).
//
// All functions are pure and operate on values.
package math3d
