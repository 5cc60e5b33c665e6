// Package state caches the fixed-function state last applied to a device so
// redundant state calls are never issued.
package state

import (
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/material"
)

// cached holds the last applied value. The zero value is unknown, so the
// first set always issues.
type cached[T comparable] struct {
	v  T
	ok bool
}

func (c *cached[T]) set(v T) bool {
	if c.ok && c.v == v {
		return false
	}
	c.v, c.ok = v, true
	return true
}

// Stats counts state calls since the last ResetStats.
type Stats struct {
	Issued  int
	Skipped int
}

type blendEquation struct{ color, alpha gpucore.BlendOperation }

type blendFunc struct{ src, dst, srcAlpha, dstAlpha gpucore.BlendFactor }

type stencilFunc struct {
	fn   gpucore.CompareFunc
	ref  int32
	mask uint32
}

type stencilOp struct{ fail, zfail, zpass gpucore.StencilOp }

type polygonOffset struct {
	enabled       bool
	factor, units float32
}

type scissor struct {
	enabled bool
	rect    gpucore.Rect
}

// MaxTextureUnits bounds the texture unit cache.
const MaxTextureUnits = 32

// Machine wraps a device and filters state calls against the last applied
// value. It is used from the render goroutine only.
type Machine struct {
	dev   gpucore.Device
	stats Stats

	framebuffer cached[gpucore.FramebufferID]
	program     cached[gpucore.ProgramID]
	textures    [MaxTextureUnits]cached[gpucore.TextureID]

	blend         cached[bool]
	blendEquation cached[blendEquation]
	blendFunc     cached[blendFunc]
	blendColor    cached[gpucore.Color]

	depthTest  cached[bool]
	depthWrite cached[bool]
	depthFunc  cached[gpucore.CompareFunc]

	stencilTest      cached[bool]
	stencilFunc      cached[stencilFunc]
	stencilOp        cached[stencilOp]
	stencilWriteMask cached[uint32]

	cull          cached[gpucore.CullMode]
	frontFace     cached[gpucore.FrontFace]
	polygonOffset cached[polygonOffset]
	colorMask     cached[[4]bool]
	viewport      cached[gpucore.Rect]
	scissor       cached[scissor]
}

// New returns a machine with every cached value unknown.
func New(dev gpucore.Device) *Machine {
	return &Machine{dev: dev}
}

// Device returns the wrapped device.
func (m *Machine) Device() gpucore.Device { return m.dev }

// Stats returns the issued and skipped call counts.
func (m *Machine) Stats() Stats { return m.stats }

// ResetStats zeroes the counters.
func (m *Machine) ResetStats() { m.stats = Stats{} }

// Reset forgets every cached value, so the next setter of each kind issues.
// Call it after the device context was lost or state was changed behind the
// machine's back.
func (m *Machine) Reset() {
	stats := m.stats
	*m = Machine{dev: m.dev, stats: stats}
}

func (m *Machine) changed(c bool) bool {
	if c {
		m.stats.Issued++
	} else {
		m.stats.Skipped++
	}
	return c
}

// BindFramebuffer binds a render target.
func (m *Machine) BindFramebuffer(id gpucore.FramebufferID) {
	if m.changed(m.framebuffer.set(id)) {
		m.dev.BindFramebuffer(id)
	}
}

// UseProgram binds a program. It reports whether the program changed, in
// which case every uniform must be set again.
func (m *Machine) UseProgram(id gpucore.ProgramID) bool {
	if m.changed(m.program.set(id)) {
		m.dev.UseProgram(id)
		return true
	}
	return false
}

// BindTexture binds id to a texture unit. Units beyond MaxTextureUnits are
// bound without caching.
func (m *Machine) BindTexture(unit int, id gpucore.TextureID) {
	if unit < 0 || unit >= MaxTextureUnits {
		m.stats.Issued++
		m.dev.BindTexture(unit, id)
		return
	}
	if m.changed(m.textures[unit].set(id)) {
		m.dev.BindTexture(unit, id)
	}
}

// SetBlending applies a resolved blend. Equations and factors of a disabled
// blend are left untouched.
func (m *Machine) SetBlending(b material.ResolvedBlend) {
	if m.changed(m.blend.set(b.Enabled)) {
		m.dev.SetBlendEnabled(b.Enabled)
	}
	if !b.Enabled {
		return
	}
	if m.changed(m.blendEquation.set(blendEquation{b.Color, b.Alpha})) {
		m.dev.SetBlendEquation(b.Color, b.Alpha)
	}
	if m.changed(m.blendFunc.set(blendFunc{b.Src, b.Dst, b.SrcAlpha, b.DstAlpha})) {
		m.dev.SetBlendFunc(b.Src, b.Dst, b.SrcAlpha, b.DstAlpha)
	}
	if usesConstant(b) && m.changed(m.blendColor.set(b.Constant)) {
		m.dev.SetBlendColor(b.Constant)
	}
}

func usesConstant(b material.ResolvedBlend) bool {
	for _, f := range [...]gpucore.BlendFactor{b.Src, b.Dst, b.SrcAlpha, b.DstAlpha} {
		if f == gpucore.BlendConstant || f == gpucore.BlendOneMinusConstant {
			return true
		}
	}
	return false
}

// SetDepth applies the depth test, depth write and compare function. The
// compare function is left untouched while the test is disabled.
func (m *Machine) SetDepth(test, write bool, fn gpucore.CompareFunc) {
	if m.changed(m.depthTest.set(test)) {
		m.dev.SetDepthTest(test)
	}
	m.SetDepthMask(write)
	if test && m.changed(m.depthFunc.set(fn)) {
		m.dev.SetDepthFunc(fn)
	}
}

// SetDepthMask enables or disables depth writes.
func (m *Machine) SetDepthMask(write bool) {
	if m.changed(m.depthWrite.set(write)) {
		m.dev.SetDepthWrite(write)
	}
}

// SetStencil applies a stencil configuration. Function and operations are
// left untouched while the test is disabled.
func (m *Machine) SetStencil(s material.StencilState) {
	if m.changed(m.stencilTest.set(s.Test)) {
		m.dev.SetStencilTest(s.Test)
	}
	if !s.Test {
		return
	}
	m.SetStencilMask(s.WriteMask)
	if m.changed(m.stencilFunc.set(stencilFunc{s.Func, s.Ref, s.FuncMask})) {
		m.dev.SetStencilFunc(s.Func, s.Ref, s.FuncMask)
	}
	if m.changed(m.stencilOp.set(stencilOp{s.Fail, s.ZFail, s.ZPass})) {
		m.dev.SetStencilOp(s.Fail, s.ZFail, s.ZPass)
	}
}

// SetStencilMask sets the stencil write mask.
func (m *Machine) SetStencilMask(mask uint32) {
	if m.changed(m.stencilWriteMask.set(mask)) {
		m.dev.SetStencilWriteMask(mask)
	}
}

// SetCullFace sets which faces are culled.
func (m *Machine) SetCullFace(mode gpucore.CullMode) {
	if m.changed(m.cull.set(mode)) {
		m.dev.SetCullMode(mode)
	}
}

// SetFrontFace sets the front-facing winding.
func (m *Machine) SetFrontFace(f gpucore.FrontFace) {
	if m.changed(m.frontFace.set(f)) {
		m.dev.SetFrontFace(f)
	}
}

// SetPolygonOffset sets the depth bias. Factor and units are ignored while
// disabled.
func (m *Machine) SetPolygonOffset(enabled bool, factor, units float32) {
	po := polygonOffset{enabled: enabled}
	if enabled {
		po.factor, po.units = factor, units
	}
	if m.changed(m.polygonOffset.set(po)) {
		m.dev.SetPolygonOffset(po.enabled, po.factor, po.units)
	}
}

// SetColorMask sets the color channel write mask.
func (m *Machine) SetColorMask(r, g, b, a bool) {
	if m.changed(m.colorMask.set([4]bool{r, g, b, a})) {
		m.dev.SetColorMask(r, g, b, a)
	}
}

// SetViewport sets the viewport rectangle.
func (m *Machine) SetViewport(r gpucore.Rect) {
	if m.changed(m.viewport.set(r)) {
		m.dev.SetViewport(r)
	}
}

// SetScissor enables the scissor test with r, or disables it.
func (m *Machine) SetScissor(enabled bool, r gpucore.Rect) {
	s := scissor{enabled: enabled}
	if enabled {
		s.rect = r
	}
	if m.changed(m.scissor.set(s)) {
		m.dev.SetScissor(s.enabled, s.rect)
	}
}

// ApplyRenderState applies everything a material controls except blending.
// flipWinding mirrors the front face for negatively scaled transforms.
func (m *Machine) ApplyRenderState(rs material.RenderState, flipWinding bool) {
	m.SetDepth(rs.Depth.Test, rs.Depth.Write, rs.Depth.Func)
	m.SetStencil(rs.Stencil)
	m.SetCullFace(rs.Side.CullMode())
	front := gpucore.FrontFaceCCW
	if flipWinding {
		front = gpucore.FrontFaceCW
	}
	m.SetFrontFace(front)
	m.SetPolygonOffset(rs.PolygonOffset, rs.PolygonOffsetFactor, rs.PolygonOffsetUnits)
	w := rs.ColorWrite
	m.SetColorMask(w, w, w, w)
}

// ApplyMaterial applies the blend and render state of mat.
func (m *Machine) ApplyMaterial(mat *material.Material, flipWinding bool) {
	m.SetBlending(mat.EffectiveBlend())
	m.ApplyRenderState(mat.State, flipWinding)
}
