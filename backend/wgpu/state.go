package wgpu

import "github.com/gogpu/g3d/gpucore"

// fixedState is the part of the gpucore state baked into a render pipeline.
type fixedState struct {
	blend                bool
	colorOp, alphaOp     gpucore.BlendOperation
	src, dst, srcA, dstA gpucore.BlendFactor

	depthTest  bool
	depthWrite bool
	depthFunc  gpucore.CompareFunc

	stencilTest      bool
	stencilFunc      gpucore.CompareFunc
	stencilReadMask  uint32
	stencilWriteMask uint32
	stencilFail      gpucore.StencilOp
	stencilZFail     gpucore.StencilOp
	stencilZPass     gpucore.StencilOp

	cull      gpucore.CullMode
	front     gpucore.FrontFace
	offset    bool
	factor    float32
	units     float32
	colorMask [4]bool
}

type vertexBinding struct {
	buffer gpucore.BufferID
	layout gpucore.VertexLayout
}

type indexBinding struct {
	buffer gpucore.BufferID
	format gpucore.IndexFormat
}

// drawState is everything a draw reads.
type drawState struct {
	fixed fixedState

	blendColor     gpucore.Color
	stencilRef     int32
	viewport       gpucore.Rect
	scissorEnabled bool
	scissor        gpucore.Rect

	program     gpucore.ProgramID
	framebuffer gpucore.FramebufferID
	textures    map[int]gpucore.TextureID
	vertices    map[int32]vertexBinding
	index       indexBinding
}

func defaultDrawState() drawState {
	return drawState{
		fixed: fixedState{
			colorOp: gpucore.BlendOpAdd, alphaOp: gpucore.BlendOpAdd,
			src: gpucore.BlendOne, dst: gpucore.BlendZero,
			srcA: gpucore.BlendOne, dstA: gpucore.BlendZero,
			depthFunc:        gpucore.CompareLess,
			stencilFunc:      gpucore.CompareAlways,
			stencilReadMask:  0xFF,
			stencilWriteMask: 0xFF,
			colorMask:        [4]bool{true, true, true, true},
		},
		textures: make(map[int]gpucore.TextureID),
		vertices: make(map[int32]vertexBinding),
	}
}

// UseProgram implements gpucore.Device.
func (d *Device) UseProgram(id gpucore.ProgramID) { d.state.program = id }

// BindTexture implements gpucore.Device.
func (d *Device) BindTexture(unit int, id gpucore.TextureID) { d.state.textures[unit] = id }

// SetBlendEnabled implements gpucore.Device.
func (d *Device) SetBlendEnabled(enabled bool) { d.state.fixed.blend = enabled }

// SetBlendEquation implements gpucore.Device.
func (d *Device) SetBlendEquation(color, alpha gpucore.BlendOperation) {
	d.state.fixed.colorOp, d.state.fixed.alphaOp = color, alpha
}

// SetBlendFunc implements gpucore.Device.
func (d *Device) SetBlendFunc(srcColor, dstColor, srcAlpha, dstAlpha gpucore.BlendFactor) {
	f := &d.state.fixed
	f.src, f.dst, f.srcA, f.dstA = srcColor, dstColor, srcAlpha, dstAlpha
}

// SetBlendColor implements gpucore.Device.
func (d *Device) SetBlendColor(c gpucore.Color) { d.state.blendColor = c }

// SetDepthTest implements gpucore.Device.
func (d *Device) SetDepthTest(enabled bool) { d.state.fixed.depthTest = enabled }

// SetDepthWrite implements gpucore.Device.
func (d *Device) SetDepthWrite(enabled bool) { d.state.fixed.depthWrite = enabled }

// SetDepthFunc implements gpucore.Device.
func (d *Device) SetDepthFunc(fn gpucore.CompareFunc) { d.state.fixed.depthFunc = fn }

// SetStencilTest implements gpucore.Device.
func (d *Device) SetStencilTest(enabled bool) { d.state.fixed.stencilTest = enabled }

// SetStencilFunc implements gpucore.Device.
func (d *Device) SetStencilFunc(fn gpucore.CompareFunc, ref int32, mask uint32) {
	d.state.fixed.stencilFunc = fn
	d.state.fixed.stencilReadMask = mask
	d.state.stencilRef = ref
}

// SetStencilOp implements gpucore.Device.
func (d *Device) SetStencilOp(fail, depthFail, pass gpucore.StencilOp) {
	f := &d.state.fixed
	f.stencilFail, f.stencilZFail, f.stencilZPass = fail, depthFail, pass
}

// SetStencilWriteMask implements gpucore.Device.
func (d *Device) SetStencilWriteMask(mask uint32) { d.state.fixed.stencilWriteMask = mask }

// SetCullMode implements gpucore.Device.
func (d *Device) SetCullMode(mode gpucore.CullMode) { d.state.fixed.cull = mode }

// SetFrontFace implements gpucore.Device.
func (d *Device) SetFrontFace(face gpucore.FrontFace) { d.state.fixed.front = face }

// SetPolygonOffset implements gpucore.Device.
func (d *Device) SetPolygonOffset(enabled bool, factor, units float32) {
	f := &d.state.fixed
	f.offset, f.factor, f.units = enabled, factor, units
}

// SetColorMask implements gpucore.Device.
func (d *Device) SetColorMask(r, g, b, a bool) { d.state.fixed.colorMask = [4]bool{r, g, b, a} }

// SetViewport implements gpucore.Device.
func (d *Device) SetViewport(r gpucore.Rect) { d.state.viewport = r }

// SetScissor implements gpucore.Device.
func (d *Device) SetScissor(enabled bool, r gpucore.Rect) {
	d.state.scissorEnabled, d.state.scissor = enabled, r
}

// BindVertexBuffer implements gpucore.Device.
func (d *Device) BindVertexBuffer(location int32, id gpucore.BufferID, layout gpucore.VertexLayout) {
	d.state.vertices[location] = vertexBinding{buffer: id, layout: layout}
}

// BindIndexBuffer implements gpucore.Device.
func (d *Device) BindIndexBuffer(id gpucore.BufferID, format gpucore.IndexFormat) {
	d.state.index = indexBinding{buffer: id, format: format}
}

// BindFramebuffer implements gpucore.Device.
func (d *Device) BindFramebuffer(id gpucore.FramebufferID) { d.state.framebuffer = id }
