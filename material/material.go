package material

import (
	"maps"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/core"
	"github.com/gogpu/g3d/gpucore"
)

// Family tags the shading model of a material.
type Family uint8

// Material families.
const (
	Basic Family = iota
	Lambert
	Phong
	Standard
	Physical
	// Depth writes only depth; the renderer uses it for shadow passes.
	Depth
)

var familyNames = [...]string{
	Basic:    "basic",
	Lambert:  "lambert",
	Phong:    "phong",
	Standard: "standard",
	Physical: "physical",
	Depth:    "depth",
}

// String returns the family name, which is also its shader template id.
func (f Family) String() string {
	if int(f) < len(familyNames) {
		return familyNames[f]
	}
	return "unknown"
}

// Capability is a bit set of the traits a family reads.
type Capability uint32

// Capabilities.
const (
	CapColor Capability = 1 << iota
	CapMap
	CapLighting
	CapEmissive
	CapSpecular
	CapPBR
	CapTransmission
	CapNormalMap
)

// Has reports whether every bit of o is set.
func (c Capability) Has(o Capability) bool { return c&o == o }

// Capabilities returns the fixed capability set of f.
func (f Family) Capabilities() Capability {
	switch f {
	case Basic:
		return CapColor | CapMap
	case Lambert:
		return CapColor | CapMap | CapLighting | CapEmissive | CapNormalMap
	case Phong:
		return CapColor | CapMap | CapLighting | CapEmissive | CapSpecular | CapNormalMap
	case Standard:
		return CapColor | CapMap | CapLighting | CapEmissive | CapPBR | CapNormalMap
	case Physical:
		return CapColor | CapMap | CapLighting | CapEmissive | CapPBR | CapTransmission | CapNormalMap
	default:
		return 0
	}
}

// ColorTrait is the base color of a surface.
type ColorTrait struct {
	Color mgl32.Vec3
}

// MapTrait holds the texture slots a material may sample.
type MapTrait struct {
	Map            *core.Texture
	NormalMap      *core.Texture
	EmissiveMap    *core.Texture
	RoughnessMap   *core.Texture
	MetalnessMap   *core.Texture
	NormalScale    float32
	VertexColors   bool
	FlatShading    bool
	ReceiveShadows bool
}

// EmissiveTrait is light emitted by the surface itself.
type EmissiveTrait struct {
	Emissive          mgl32.Vec3
	EmissiveIntensity float32
}

// SpecularTrait is the Blinn-Phong highlight.
type SpecularTrait struct {
	Specular  mgl32.Vec3
	Shininess float32
}

// PBRTrait is the metallic-roughness model.
type PBRTrait struct {
	Roughness float32
	Metalness float32
}

// TransmissionTrait is thin-surface refraction for physical materials.
type TransmissionTrait struct {
	Transmission float32
	Thickness    float32
	IOR          float32
}

// Material is the shading contract of a draw. It may be shared by many
// meshes and is reference counted like geometry.
type Material struct {
	core.Disposable

	ColorTrait
	MapTrait
	EmissiveTrait
	SpecularTrait
	PBRTrait
	TransmissionTrait

	Name        string
	Transparent bool
	Opacity     float32
	AlphaTest   float32
	ToneMapped  bool
	Visible     bool
	State       RenderState

	id             uint64
	family         Family
	caps           Capability
	defines        map[string]string
	version        uint64
	programVersion uint64
	refs           int
}

// New creates a material of family f with family defaults, then applies cfg.
// The creator holds the first reference.
func New(f Family, cfg Config) *Material {
	m := &Material{
		ColorTrait:        ColorTrait{Color: mgl32.Vec3{1, 1, 1}},
		MapTrait:          MapTrait{NormalScale: 1, ReceiveShadows: true},
		EmissiveTrait:     EmissiveTrait{EmissiveIntensity: 1},
		SpecularTrait:     SpecularTrait{Specular: mgl32.Vec3{0.067, 0.067, 0.067}, Shininess: 30},
		PBRTrait:          PBRTrait{Roughness: 1},
		TransmissionTrait: TransmissionTrait{IOR: 1.5},
		Opacity:           1,
		ToneMapped:        true,
		Visible:           true,
		State:             DefaultRenderState(),
		id:                core.NextID(),
		family:            f,
		caps:              f.Capabilities(),
		defines:           make(map[string]string),
		refs:              1,
	}
	m.apply(cfg)
	m.version = 0
	m.programVersion = 0
	return m
}

// ID returns the material's process-unique identity.
func (m *Material) ID() uint64 { return m.id }

// Family returns the shading model tag.
func (m *Material) Family() Family { return m.family }

// Capabilities returns the capability set resolved at creation.
func (m *Material) Capabilities() Capability { return m.caps }

// Version increments once per SetValues call that changes rendered output.
func (m *Material) Version() uint64 { return m.version }

// ProgramVersion increments when a change alters the generated shader.
func (m *Material) ProgramVersion() uint64 { return m.programVersion }

// Defines returns the free-form shader defines. The map must not be modified.
func (m *Material) Defines() map[string]string { return m.defines }

// IsTransmissive reports whether the material refracts the opaque scene.
func (m *Material) IsTransmissive() bool {
	return m.caps.Has(CapTransmission) && m.Transmission > 0
}

// EffectiveBlend resolves the blend state the material draws with. Normal
// blending on an opaque material draws without blending.
func (m *Material) EffectiveBlend() ResolvedBlend {
	b := m.State.Blend
	if b.Blending == NormalBlending && !m.Transparent {
		b.Blending = NoBlending
	}
	return b.Resolve()
}

// Textures returns every non-nil texture slot the family samples, keyed by
// sampler name.
func (m *Material) Textures() map[string]*core.Texture {
	out := make(map[string]*core.Texture)
	add := func(name string, t *core.Texture, cap Capability) {
		if t != nil && m.caps.Has(cap) {
			out[name] = t
		}
	}
	add("map", m.Map, CapMap)
	add("normalMap", m.NormalMap, CapNormalMap)
	add("emissiveMap", m.EmissiveMap, CapEmissive)
	add("roughnessMap", m.RoughnessMap, CapPBR)
	add("metalnessMap", m.MetalnessMap, CapPBR)
	return out
}

// UniformValue is one per-draw uniform a material contributes.
type UniformValue struct {
	Name  string
	Type  gpucore.UniformType
	Value []float32
}

// Uniforms returns the material uniforms of its family. Values are set per
// draw and never baked into a program.
func (m *Material) Uniforms() []UniformValue {
	u := []UniformValue{
		{"diffuse", gpucore.UniformVec3, m.Color[:]},
		{"opacity", gpucore.UniformFloat, []float32{m.Opacity}},
		{"alphaTest", gpucore.UniformFloat, []float32{m.AlphaTest}},
	}
	if m.caps.Has(CapEmissive) {
		e := m.Emissive.Mul(m.EmissiveIntensity)
		u = append(u, UniformValue{"emissive", gpucore.UniformVec3, e[:]})
	}
	if m.caps.Has(CapSpecular) {
		u = append(u,
			UniformValue{"specular", gpucore.UniformVec3, m.Specular[:]},
			UniformValue{"shininess", gpucore.UniformFloat, []float32{m.Shininess}})
	}
	if m.caps.Has(CapPBR) {
		u = append(u,
			UniformValue{"roughness", gpucore.UniformFloat, []float32{m.Roughness}},
			UniformValue{"metalness", gpucore.UniformFloat, []float32{m.Metalness}})
	}
	if m.caps.Has(CapTransmission) {
		u = append(u,
			UniformValue{"transmission", gpucore.UniformFloat, []float32{m.Transmission}},
			UniformValue{"thickness", gpucore.UniformFloat, []float32{m.Thickness}},
			UniformValue{"ior", gpucore.UniformFloat, []float32{m.IOR}})
	}
	if m.caps.Has(CapNormalMap) && m.NormalMap != nil {
		u = append(u, UniformValue{"normalScale", gpucore.UniformFloat, []float32{m.NormalScale}})
	}
	return u
}

// Retain adds a reference.
func (m *Material) Retain() { m.refs++ }

// Release drops a reference; the last release disposes the material.
func (m *Material) Release() {
	if m.refs <= 0 {
		return
	}
	m.refs--
	if m.refs == 0 {
		m.Disposable.Dispose()
	}
}

// RefCount returns the number of live references.
func (m *Material) RefCount() int { return m.refs }

// Dispose disposes the material regardless of outstanding references,
// releasing every program keyed to it.
func (m *Material) Dispose() {
	m.refs = 0
	m.Disposable.Dispose()
}

// Clone returns an independent copy with a new identity and one reference.
func (m *Material) Clone() *Material {
	c := *m
	c.Disposable = core.Disposable{}
	c.id = core.NextID()
	c.defines = maps.Clone(m.defines)
	c.refs = 1
	return &c
}
