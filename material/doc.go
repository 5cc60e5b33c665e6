// Package material describes the shading contract of a draw.
//
// A [Material] is tagged with a [Family] (basic, lambert, phong, standard,
// physical) that fixes its capability set at creation. Family-specific
// parameters live in small trait structs ([ColorTrait], [SpecularTrait],
// [PBRTrait], ...) composed into the material, and fixed-function state
// (blending, depth, stencil, culling) lives in [RenderState].
//
// Partial updates go through [Material.SetValues] with a [Config] whose
// nil fields are left untouched:
//
//	m := material.New(material.Standard, material.Config{
//		Color:     material.Ptr(mgl32.Vec3{1, 0.5, 0}),
//		Roughness: material.Ptr[float32](0.4),
//	})
//	m.SetValues(material.Config{Opacity: material.Ptr[float32](0.5)})
//
// Every call that changes rendered output increments [Material.Version] by
// exactly one. Calls that change only metadata (the name) do not. Changes
// that alter the generated shader additionally bump
// [Material.ProgramVersion], which the program cache keys on.
package material
