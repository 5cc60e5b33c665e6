package program

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/core"
	"github.com/gogpu/g3d/geometry"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/material"
	"github.com/gogpu/g3d/recording"
)

func box(t *testing.T) *geometry.Geometry {
	t.Helper()
	return geometry.NewBox(1, 1, 1)
}

func TestSharedProgramForDifferentUniformValues(t *testing.T) {
	dev := recording.New()
	c := NewCache(dev, 0)
	g := box(t)
	lights := LightState{Directional: 1}

	red := material.New(material.Standard, material.Config{Color: material.Ptr(mgl32.Vec3{1, 0, 0})})
	blue := material.New(material.Standard, material.Config{Color: material.Ptr(mgl32.Vec3{0, 0, 1}), Roughness: material.Ptr[float32](0.3)})

	p1, err := c.Acquire(ResolveParameters(g, red, lights, Env{}))
	if err != nil {
		t.Fatal(err)
	}
	p2, err := c.Acquire(ResolveParameters(g, blue, lights, Env{}))
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Fatal("materials differing in uniform values got different programs")
	}
	if got := dev.Count(recording.CmdCreateProgram); got != 1 {
		t.Errorf("CreateProgram calls = %d, want 1", got)
	}
	if p1.RefCount() != 2 {
		t.Errorf("RefCount() = %d, want 2", p1.RefCount())
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Compiles != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestKeyChangesWithContext(t *testing.T) {
	g := box(t)
	base := material.New(material.Standard, material.Config{})
	baseKey := ResolveParameters(g, base, LightState{}, Env{}).Key()

	mapped := material.New(material.Standard, material.Config{Map: core.NewTexture()})
	fog := material.New(material.Standard, material.Config{Defines: map[string]string{"FOG": "1"}})
	phong := material.New(material.Phong, material.Config{})

	tests := []struct {
		name   string
		m      *material.Material
		lights LightState
		env    Env
	}{
		{"map", mapped, LightState{}, Env{}},
		{"define", fog, LightState{}, Env{}},
		{"family", phong, LightState{}, Env{}},
		{"light count", base, LightState{Point: 2}, Env{}},
		{"clipping", base, LightState{}, Env{ClippingPlanes: 1}},
		{"tone mapping", base, LightState{}, Env{ToneMapping: ToneACES}},
		{"color space", base, LightState{}, Env{OutputColorSpace: ColorSpaceSRGB}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := ResolveParameters(g, tt.m, tt.lights, tt.env).Key()
			if k == baseKey {
				t.Errorf("Key() = %q, equal to base key", k)
			}
		})
	}
}

func TestKeyDeterministic(t *testing.T) {
	g := box(t)
	defs := map[string]string{"A": "1", "B": "2", "C": "3", "D": "4"}
	m := material.New(material.Lambert, material.Config{Defines: defs})
	want := ResolveParameters(g, m, LightState{Directional: 2}, Env{}).Key()
	for range 20 {
		if got := ResolveParameters(g, m, LightState{Directional: 2}, Env{}).Key(); got != want {
			t.Fatalf("Key() = %q, want %q", got, want)
		}
	}
	if !strings.HasPrefix(want, "lambert|") {
		t.Errorf("Key() = %q, want lambert template prefix", want)
	}
}

func TestUnlitIgnoresLights(t *testing.T) {
	g := box(t)
	m := material.New(material.Basic, material.Config{})
	a := ResolveParameters(g, m, LightState{}, Env{}).Key()
	b := ResolveParameters(g, m, LightState{Directional: 3, Point: 1}, Env{}).Key()
	if a != b {
		t.Errorf("basic keys differ with light count: %q vs %q", a, b)
	}
}

func TestCompileErrorNotCached(t *testing.T) {
	dev := recording.New()
	dev.FailCompile("fs_main")
	c := NewCache(dev, 0)
	params := ResolveParameters(box(t), material.New(material.Basic, material.Config{}), LightState{}, Env{})

	_, err := c.Acquire(params)
	var ce *ShaderCompileError
	if !errors.As(err, &ce) {
		t.Fatalf("Acquire() error = %v, want *ShaderCompileError", err)
	}
	if !errors.Is(err, ErrShaderCompile) || !errors.Is(err, gpucore.ErrShaderCompile) {
		t.Errorf("error %v does not unwrap to the compile sentinels", err)
	}
	if ce.Source == "" || ce.Diagnostic == "" {
		t.Error("ShaderCompileError missing source or diagnostic")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after failed compile, want 0", c.Len())
	}

	dev.ClearCompileFailures()
	p, err := c.Acquire(params)
	if err != nil {
		t.Fatalf("retry Acquire() error = %v", err)
	}
	if s := c.Stats(); s.CompileErrors != 1 || s.Compiles != 1 || s.Misses != 2 {
		t.Errorf("Stats() = %+v, want one failure then one compile", s)
	}
	if p.RefCount() != 1 {
		t.Errorf("RefCount() = %d, want 1", p.RefCount())
	}
}

func TestReleaseDestroysAtZero(t *testing.T) {
	dev := recording.New()
	c := NewCache(dev, 0)
	params := ResolveParameters(box(t), material.New(material.Basic, material.Config{}), LightState{}, Env{})
	p, _ := c.Acquire(params)
	if _, err := c.Acquire(params); err != nil {
		t.Fatal(err)
	}

	if err := c.Release(p); err != nil {
		t.Fatal(err)
	}
	if dev.LivePrograms() != 1 {
		t.Fatalf("program destroyed with refcount %d", p.RefCount())
	}
	if err := c.Release(p); err != nil {
		t.Fatal(err)
	}
	if dev.LivePrograms() != 0 || c.Len() != 0 {
		t.Errorf("after last Release: live = %d, Len() = %d", dev.LivePrograms(), c.Len())
	}
	if err := c.Release(p); !errors.Is(err, ErrReleased) {
		t.Errorf("extra Release() error = %v, want ErrReleased", err)
	}

	if _, err := c.Acquire(params); err != nil {
		t.Fatal(err)
	}
	if s := c.Stats(); s.SourceHits != 1 {
		t.Errorf("SourceHits = %d, want reassembly served from the source cache", s.SourceHits)
	}
}

func TestInvalidateRecompiles(t *testing.T) {
	dev := recording.New()
	c := NewCache(dev, 0)
	params := ResolveParameters(box(t), material.New(material.Basic, material.Config{}), LightState{}, Env{})
	if _, err := c.Acquire(params); err != nil {
		t.Fatal(err)
	}
	dev.LoseContext()
	dev.RestoreContext()
	c.Invalidate()
	if c.Len() != 0 {
		t.Fatalf("Len() = %d after Invalidate", c.Len())
	}
	if _, err := c.Acquire(params); err != nil {
		t.Fatal(err)
	}
	if got := dev.Count(recording.CmdCreateProgram); got != 2 {
		t.Errorf("CreateProgram calls = %d, want 2", got)
	}
}
