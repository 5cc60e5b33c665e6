package g3d

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/material"
	"github.com/gogpu/g3d/math3d"
	"github.com/gogpu/g3d/program"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.width != 1 || o.height != 1 || o.pixelRatio != 1 || o.samples != 1 {
		t.Errorf("size = %dx%d@%v samples %d, want 1x1@1 samples 1", o.width, o.height, o.pixelRatio, o.samples)
	}
	if o.depthRange != math3d.DepthZeroToOne {
		t.Errorf("depthRange = %v, want DepthZeroToOne", o.depthRange)
	}
	if o.shadowMapSize != DefaultShadowMapSize || o.shadowType != program.ShadowPCF {
		t.Errorf("shadows = %d/%v, want %d/PCF", o.shadowMapSize, o.shadowType, DefaultShadowMapSize)
	}
	if o.outputColorSpace != program.ColorSpaceSRGB || o.exposure != 1 {
		t.Errorf("output = %v exposure %v, want sRGB exposure 1", o.outputColorSpace, o.exposure)
	}
	if o.programCacheCapacity != DefaultProgramCacheCapacity {
		t.Errorf("programCacheCapacity = %d, want %d", o.programCacheCapacity, DefaultProgramCacheCapacity)
	}
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name  string
		opt   Option
		check func(options) bool
	}{
		{"size", WithSize(800, 600), func(o options) bool { return o.width == 800 && o.height == 600 }},
		{"invalid size ignored", WithSize(0, 600), func(o options) bool { return o.width == 1 && o.height == 1 }},
		{"pixel ratio", WithPixelRatio(2), func(o options) bool { return o.pixelRatio == 2 }},
		{"invalid pixel ratio ignored", WithPixelRatio(-1), func(o options) bool { return o.pixelRatio == 1 }},
		{"samples", WithSampleCount(4), func(o options) bool { return o.samples == 4 }},
		{"samples clamped", WithSampleCount(0), func(o options) bool { return o.samples == 1 }},
		{"depth range", WithDepthRange(math3d.DepthNegOneToOne), func(o options) bool { return o.depthRange == math3d.DepthNegOneToOne }},
		{"clear color", WithClearColor(gpucore.Color{R: 1, A: 1}), func(o options) bool { return o.clearColor.R == 1 }},
		{"shadow map size", WithShadowMapSize(512), func(o options) bool { return o.shadowMapSize == 512 }},
		{"shadow type", WithShadowType(program.ShadowBasic), func(o options) bool { return o.shadowType == program.ShadowBasic }},
		{"tone mapping", WithToneMapping(program.ToneACES, 2), func(o options) bool {
			return o.toneMapping == program.ToneACES && o.exposure == 2
		}},
		{"tone mapping keeps exposure", WithToneMapping(program.ToneLinear, 0), func(o options) bool { return o.exposure == 1 }},
		{"output color space", WithOutputColorSpace(program.ColorSpaceLinear), func(o options) bool {
			return o.outputColorSpace == program.ColorSpaceLinear
		}},
		{"clipping planes", WithClippingPlanes(mgl32.Vec4{0, 1, 0, 0}), func(o options) bool { return len(o.clippingPlanes) == 1 }},
		{"program cache", WithProgramCacheCapacity(8), func(o options) bool { return o.programCacheCapacity == 8 }},
		{"backend", WithBackend("recording"), func(o options) bool { return o.backendName == "recording" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			tt.opt(&o)
			if !tt.check(o) {
				t.Errorf("option %s not applied: %+v", tt.name, o)
			}
		})
	}
}

func TestClippingPlanesReachShaders(t *testing.T) {
	r, _ := newTestRenderer(t, WithClippingPlanes(mgl32.Vec4{0, 1, 0, 0}, mgl32.Vec4{1, 0, 0, 2}))
	root, cam := testScene(t, r)
	addBox(t, r, root, r.CreateMaterial(material.Basic, material.Config{}))
	render(t, r, root, cam)

	if got := r.env.ClippingPlanes; got != 2 {
		t.Errorf("env.ClippingPlanes = %d, want 2", got)
	}
	var names []string
	for _, u := range r.lights.uniforms {
		names = append(names, u.name)
	}
	for _, want := range []string{"clippingPlane0", "clippingPlane1", "toneMappingExposure"} {
		found := false
		for _, n := range names {
			found = found || n == want
		}
		if !found {
			t.Errorf("frame uniforms %v missing %s", names, want)
		}
	}
}
