package material

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/core"
	"github.com/gogpu/g3d/gpucore"
)

func TestSetValuesVersion(t *testing.T) {
	m := New(Standard, Config{})
	if m.Version() != 0 {
		t.Fatalf("Version() after New = %d, want 0", m.Version())
	}

	m.SetValues(Config{Color: Ptr(mgl32.Vec3{1, 0, 0}), Roughness: Ptr[float32](0.5)})
	if m.Version() != 1 {
		t.Errorf("Version() after color change = %d, want 1", m.Version())
	}

	m.SetValues(Config{Name: Ptr("foo")})
	if m.Version() != 1 {
		t.Errorf("Version() after name change = %d, want 1", m.Version())
	}
	if m.Name != "foo" {
		t.Errorf("Name = %q, want foo", m.Name)
	}

	m.SetValues(Config{Color: Ptr(mgl32.Vec3{1, 0, 0})})
	if m.Version() != 1 {
		t.Errorf("Version() after equal write = %d, want 1", m.Version())
	}
}

func TestProgramVersion(t *testing.T) {
	tex := core.NewTexture()
	doubleSided := DefaultRenderState()
	doubleSided.Side = DoubleSide
	noDepthWrite := doubleSided
	noDepthWrite.Depth.Write = false
	premultiplied := noDepthWrite
	premultiplied.Blend.PremultipliedAlpha = true
	tests := []struct {
		name    string
		cfg     Config
		program bool
	}{
		{"uniform value", Config{Roughness: Ptr[float32](0.2)}, false},
		{"opacity", Config{Opacity: Ptr[float32](0.5)}, false},
		{"add map", Config{Map: tex}, true},
		{"same map", Config{Map: tex}, false},
		{"clear map", Config{Map: NoTexture}, true},
		{"alpha test on", Config{AlphaTest: Ptr[float32](0.5)}, true},
		{"alpha test moved", Config{AlphaTest: Ptr[float32](0.25)}, false},
		{"vertex colors", Config{VertexColors: Ptr(true)}, true},
		{"define", Config{Defines: map[string]string{"USE_FOG": "1"}}, true},
		{"same define", Config{Defines: map[string]string{"USE_FOG": "1"}}, false},
		{"remove define", Config{Defines: map[string]string{"USE_FOG": RemoveDefine}}, true},
		{"remove missing define", Config{Defines: map[string]string{"USE_FOG": RemoveDefine}}, false},
		{"transparent", Config{Transparent: Ptr(true)}, true},
		{"same transparent", Config{Transparent: Ptr(true)}, false},
		{"double sided", Config{State: &doubleSided}, true},
		{"depth write", Config{State: &noDepthWrite}, false},
		{"premultiplied alpha", Config{State: &premultiplied}, true},
	}
	m := New(Physical, Config{})
	for _, tt := range tests {
		before := m.ProgramVersion()
		m.SetValues(tt.cfg)
		got := m.ProgramVersion() != before
		if got != tt.program {
			t.Errorf("%s: program changed = %v, want %v", tt.name, got, tt.program)
		}
	}
	if m.Map != nil {
		t.Errorf("Map = %v after NoTexture, want nil", m.Map)
	}
	if _, ok := m.Defines()["USE_FOG"]; ok {
		t.Errorf("Defines() = %v after RemoveDefine, want USE_FOG gone", m.Defines())
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		family Family
		has    Capability
		hasNot Capability
	}{
		{Basic, CapColor | CapMap, CapLighting},
		{Lambert, CapLighting | CapEmissive, CapSpecular},
		{Phong, CapSpecular, CapPBR},
		{Standard, CapPBR, CapTransmission},
		{Physical, CapPBR | CapTransmission, 0},
	}
	for _, tt := range tests {
		c := tt.family.Capabilities()
		if !c.Has(tt.has) {
			t.Errorf("%v.Capabilities() missing %b", tt.family, tt.has)
		}
		if tt.hasNot != 0 && c&tt.hasNot != 0 {
			t.Errorf("%v.Capabilities() has unexpected %b", tt.family, tt.hasNot)
		}
	}
}

func TestUniformsFollowFamily(t *testing.T) {
	names := func(m *Material) map[string]bool {
		out := make(map[string]bool)
		for _, u := range m.Uniforms() {
			out[u.Name] = true
		}
		return out
	}
	basic := names(New(Basic, Config{}))
	if basic["roughness"] || basic["shininess"] {
		t.Errorf("basic uniforms = %v, want no lit uniforms", basic)
	}
	phong := names(New(Phong, Config{}))
	if !phong["shininess"] || phong["roughness"] {
		t.Errorf("phong uniforms = %v", phong)
	}
	phys := names(New(Physical, Config{}))
	if !phys["ior"] || !phys["roughness"] {
		t.Errorf("physical uniforms = %v", phys)
	}
}

func TestEffectiveBlend(t *testing.T) {
	m := New(Basic, Config{})
	if m.EffectiveBlend().Enabled {
		t.Error("opaque NormalBlending should draw without blending")
	}
	m.SetValues(Config{Transparent: Ptr(true)})
	b := m.EffectiveBlend()
	if !b.Enabled || b.Src != gpucore.BlendSrcAlpha || b.Dst != gpucore.BlendOneMinusSrcAlpha {
		t.Errorf("transparent blend = %+v", b)
	}
}

func TestReleaseDisposes(t *testing.T) {
	m := New(Basic, Config{})
	disposed := 0
	m.OnDispose(func() { disposed++ })
	m.Retain()
	m.Release()
	if disposed != 0 {
		t.Fatalf("disposed after first Release, refs = %d", m.RefCount())
	}
	m.Release()
	m.Release()
	if disposed != 1 {
		t.Errorf("dispose listener ran %d times, want 1", disposed)
	}
}
