package state

import (
	"testing"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/material"
	"github.com/gogpu/g3d/recording"
)

func stateCalls(dev *recording.Device) int {
	n := 0
	for _, c := range dev.Commands() {
		if _, ok := c.(recording.StateCommand); ok {
			n++
		}
	}
	return n
}

func TestRedundantCallsSkipped(t *testing.T) {
	dev := recording.New()
	m := New(dev)

	m.UseProgram(1)
	m.UseProgram(1)
	m.BindTexture(0, 5)
	m.BindTexture(0, 5)
	m.BindTexture(1, 5)
	m.SetDepth(true, true, gpucore.CompareLess)
	m.SetDepth(true, true, gpucore.CompareLess)
	m.SetViewport(gpucore.Rect{Width: 10, Height: 10})
	m.SetViewport(gpucore.Rect{Width: 10, Height: 10})

	if got := dev.Count(recording.CmdUseProgram); got != 1 {
		t.Errorf("UseProgram issued %d times, want 1", got)
	}
	if got := dev.Count(recording.CmdBindTexture); got != 2 {
		t.Errorf("BindTexture issued %d times, want 2", got)
	}
	s := m.Stats()
	if s.Issued != 7 || s.Skipped != 6 {
		t.Errorf("Stats() = %+v, want 7 issued, 6 skipped", s)
	}
}

func TestDisabledStateSkipsDetails(t *testing.T) {
	dev := recording.New()
	m := New(dev)
	m.SetBlending(material.ResolvedBlend{Enabled: false, Src: gpucore.BlendOne})
	if dev.Count(recording.CmdSetBlendFunc) != 0 {
		t.Error("blend func issued while blending disabled")
	}
	m.SetStencil(material.StencilState{Test: false, Func: gpucore.CompareEqual})
	if dev.Count(recording.CmdSetStencilFunc) != 0 {
		t.Error("stencil func issued while stencil disabled")
	}
}

func TestBlendColorOnlyForConstantFactors(t *testing.T) {
	dev := recording.New()
	m := New(dev)
	b := material.ResolvedBlend{
		Enabled: true,
		Src:     gpucore.BlendSrcAlpha, Dst: gpucore.BlendOneMinusSrcAlpha,
		SrcAlpha: gpucore.BlendOne, DstAlpha: gpucore.BlendOneMinusSrcAlpha,
		Constant: gpucore.Color{R: 1},
	}
	m.SetBlending(b)
	if dev.Count(recording.CmdSetBlendColor) != 0 {
		t.Error("blend color issued without constant factors")
	}
	b.Dst = gpucore.BlendConstant
	m.SetBlending(b)
	m.SetBlending(b)
	if dev.Count(recording.CmdSetBlendColor) != 1 {
		t.Errorf("blend color issued %d times, want 1", dev.Count(recording.CmdSetBlendColor))
	}
}

func TestResetReissues(t *testing.T) {
	dev := recording.New()
	m := New(dev)
	mat := material.New(material.Standard, material.Config{})

	m.ApplyMaterial(mat, false)
	first := stateCalls(dev)
	m.ApplyMaterial(mat, false)
	if got := stateCalls(dev); got != first {
		t.Errorf("second ApplyMaterial issued %d calls, want 0", got-first)
	}

	m.Reset()
	m.ApplyMaterial(mat, false)
	if got := stateCalls(dev) - first; got != first {
		t.Errorf("ApplyMaterial after Reset issued %d calls, want %d", got, first)
	}
}

func TestMaterialSwitchIssuesOnlyDifferences(t *testing.T) {
	dev := recording.New()
	m := New(dev)
	opaque := material.New(material.Basic, material.Config{})
	rs := material.DefaultRenderState()
	rs.Side = material.DoubleSide
	double := material.New(material.Basic, material.Config{State: &rs})

	m.ApplyMaterial(opaque, false)
	before := stateCalls(dev)
	m.ApplyMaterial(double, false)
	if got := stateCalls(dev) - before; got != 1 {
		t.Errorf("switching cull side issued %d calls, want 1", got)
	}
	if dev.Count(recording.CmdSetCullMode) != 2 {
		t.Errorf("SetCullMode count = %d, want 2", dev.Count(recording.CmdSetCullMode))
	}
}
