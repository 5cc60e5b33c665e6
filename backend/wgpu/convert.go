package wgpu

import (
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

func textureFormat(f gpucore.TextureFormat) gputypes.TextureFormat {
	switch f {
	case gpucore.TextureFormatRGBA8Unorm:
		return gputypes.TextureFormatRGBA8Unorm
	case gpucore.TextureFormatRGBA8UnormSRGB:
		return gputypes.TextureFormatRGBA8UnormSrgb
	case gpucore.TextureFormatBGRA8Unorm:
		return gputypes.TextureFormatBGRA8Unorm
	case gpucore.TextureFormatR8Unorm:
		return gputypes.TextureFormatR8Unorm
	case gpucore.TextureFormatR32Float:
		return gputypes.TextureFormatR32Float
	case gpucore.TextureFormatRG32Float:
		return gputypes.TextureFormatRG32Float
	case gpucore.TextureFormatRGBA32Float:
		return gputypes.TextureFormatRGBA32Float
	case gpucore.TextureFormatDepth24PlusStencil8:
		return gputypes.TextureFormatDepth24PlusStencil8
	case gpucore.TextureFormatDepth32Float:
		return gputypes.TextureFormatDepth32Float
	default:
		return gputypes.TextureFormatUndefined
	}
}

func textureUsage(u gpucore.TextureUsage) gputypes.TextureUsage {
	var out gputypes.TextureUsage
	if u&gpucore.TextureUsageCopySrc != 0 {
		out |= gputypes.TextureUsageCopySrc
	}
	if u&gpucore.TextureUsageCopyDst != 0 {
		out |= gputypes.TextureUsageCopyDst
	}
	if u&gpucore.TextureUsageTextureBinding != 0 {
		out |= gputypes.TextureUsageTextureBinding
	}
	if u&gpucore.TextureUsageRenderAttachment != 0 {
		out |= gputypes.TextureUsageRenderAttachment
	}
	return out
}

func bufferUsage(u gpucore.BufferUsage) gputypes.BufferUsage {
	out := gputypes.BufferUsageCopyDst
	if u&gpucore.BufferUsageVertex != 0 {
		out |= gputypes.BufferUsageVertex
	}
	if u&gpucore.BufferUsageIndex != 0 {
		out |= gputypes.BufferUsageIndex
	}
	if u&gpucore.BufferUsageUniform != 0 {
		out |= gputypes.BufferUsageUniform
	}
	if u&gpucore.BufferUsageCopySrc != 0 {
		out |= gputypes.BufferUsageCopySrc
	}
	return out
}

func filterMode(f gpucore.FilterMode) gputypes.FilterMode {
	if f == gpucore.FilterNearest {
		return gputypes.FilterModeNearest
	}
	return gputypes.FilterModeLinear
}

func addressMode(w gpucore.WrapMode) gputypes.AddressMode {
	switch w {
	case gpucore.WrapRepeat:
		return gputypes.AddressModeRepeat
	case gpucore.WrapMirroredRepeat:
		return gputypes.AddressModeMirrorRepeat
	default:
		return gputypes.AddressModeClampToEdge
	}
}

func samplerDescriptor(label string, s gpucore.SamplerState) *hal.SamplerDescriptor {
	return &hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: addressMode(s.WrapS),
		AddressModeV: addressMode(s.WrapT),
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filterMode(s.MagFilter),
		MinFilter:    filterMode(s.MinFilter),
		MipmapFilter: filterMode(s.MipmapFilter),
	}
}

var vertexFormats = [...]gputypes.VertexFormat{
	gpucore.VertexFormatFloat32:   gputypes.VertexFormatFloat32,
	gpucore.VertexFormatFloat32x2: gputypes.VertexFormatFloat32x2,
	gpucore.VertexFormatFloat32x3: gputypes.VertexFormatFloat32x3,
	gpucore.VertexFormatFloat32x4: gputypes.VertexFormatFloat32x4,
	gpucore.VertexFormatUint8x4:   gputypes.VertexFormatUint8x4,
	gpucore.VertexFormatUnorm8x4:  gputypes.VertexFormatUnorm8x4,
	gpucore.VertexFormatUint16x2:  gputypes.VertexFormatUint16x2,
	gpucore.VertexFormatUint16x4:  gputypes.VertexFormatUint16x4,
	gpucore.VertexFormatSint16x2:  gputypes.VertexFormatSint16x2,
	gpucore.VertexFormatSint16x4:  gputypes.VertexFormatSint16x4,
	gpucore.VertexFormatUint32:    gputypes.VertexFormatUint32,
	gpucore.VertexFormatUint32x2:  gputypes.VertexFormatUint32x2,
	gpucore.VertexFormatUint32x3:  gputypes.VertexFormatUint32x3,
	gpucore.VertexFormatUint32x4:  gputypes.VertexFormatUint32x4,
	gpucore.VertexFormatSint32:    gputypes.VertexFormatSint32,
	gpucore.VertexFormatSint32x2:  gputypes.VertexFormatSint32x2,
	gpucore.VertexFormatSint32x3:  gputypes.VertexFormatSint32x3,
	gpucore.VertexFormatSint32x4:  gputypes.VertexFormatSint32x4,
}

var vertexFormatSizes = [...]uint32{
	gpucore.VertexFormatFloat32:   4,
	gpucore.VertexFormatFloat32x2: 8,
	gpucore.VertexFormatFloat32x3: 12,
	gpucore.VertexFormatFloat32x4: 16,
	gpucore.VertexFormatUint8x4:   4,
	gpucore.VertexFormatUnorm8x4:  4,
	gpucore.VertexFormatUint16x2:  4,
	gpucore.VertexFormatUint16x4:  8,
	gpucore.VertexFormatSint16x2:  4,
	gpucore.VertexFormatSint16x4:  8,
	gpucore.VertexFormatUint32:    4,
	gpucore.VertexFormatUint32x2:  8,
	gpucore.VertexFormatUint32x3:  12,
	gpucore.VertexFormatUint32x4:  16,
	gpucore.VertexFormatSint32:    4,
	gpucore.VertexFormatSint32x2:  8,
	gpucore.VertexFormatSint32x3:  12,
	gpucore.VertexFormatSint32x4:  16,
}

func vertexFormat(f gpucore.VertexFormat) (gputypes.VertexFormat, uint32, bool) {
	if int(f) >= len(vertexFormats) || f == 0 {
		return 0, 0, false
	}
	return vertexFormats[f], vertexFormatSizes[f], true
}

func indexFormat(f gpucore.IndexFormat) gputypes.IndexFormat {
	if f == gpucore.IndexFormatUint32 {
		return gputypes.IndexFormatUint32
	}
	return gputypes.IndexFormatUint16
}

func topology(t gpucore.Topology) gputypes.PrimitiveTopology {
	switch t {
	case gpucore.TopologyLines:
		return gputypes.PrimitiveTopologyLineList
	case gpucore.TopologyLineStrip:
		return gputypes.PrimitiveTopologyLineStrip
	case gpucore.TopologyPoints:
		return gputypes.PrimitiveTopologyPointList
	default:
		return gputypes.PrimitiveTopologyTriangleList
	}
}

func compareFunction(f gpucore.CompareFunc) gputypes.CompareFunction {
	switch f {
	case gpucore.CompareNever:
		return gputypes.CompareFunctionNever
	case gpucore.CompareLess:
		return gputypes.CompareFunctionLess
	case gpucore.CompareEqual:
		return gputypes.CompareFunctionEqual
	case gpucore.CompareLessEqual:
		return gputypes.CompareFunctionLessEqual
	case gpucore.CompareGreater:
		return gputypes.CompareFunctionGreater
	case gpucore.CompareNotEqual:
		return gputypes.CompareFunctionNotEqual
	case gpucore.CompareGreaterEqual:
		return gputypes.CompareFunctionGreaterEqual
	default:
		return gputypes.CompareFunctionAlways
	}
}

func stencilOperation(op gpucore.StencilOp) hal.StencilOperation {
	switch op {
	case gpucore.StencilZero:
		return hal.StencilOperationZero
	case gpucore.StencilReplace:
		return hal.StencilOperationReplace
	case gpucore.StencilIncrement:
		return hal.StencilOperationIncrementClamp
	case gpucore.StencilDecrement:
		return hal.StencilOperationDecrementClamp
	case gpucore.StencilInvert:
		return hal.StencilOperationInvert
	case gpucore.StencilIncrementWrap:
		return hal.StencilOperationIncrementWrap
	case gpucore.StencilDecrementWrap:
		return hal.StencilOperationDecrementWrap
	default:
		return hal.StencilOperationKeep
	}
}

func cullMode(m gpucore.CullMode) gputypes.CullMode {
	switch m {
	case gpucore.CullFront:
		return gputypes.CullModeFront
	case gpucore.CullBack:
		return gputypes.CullModeBack
	default:
		return gputypes.CullModeNone
	}
}

func frontFace(f gpucore.FrontFace) gputypes.FrontFace {
	if f == gpucore.FrontFaceCW {
		return gputypes.FrontFaceCW
	}
	return gputypes.FrontFaceCCW
}

func blendFactor(f gpucore.BlendFactor) gputypes.BlendFactor {
	switch f {
	case gpucore.BlendOne:
		return gputypes.BlendFactorOne
	case gpucore.BlendSrcColor:
		return gputypes.BlendFactorSrc
	case gpucore.BlendOneMinusSrcColor:
		return gputypes.BlendFactorOneMinusSrc
	case gpucore.BlendSrcAlpha:
		return gputypes.BlendFactorSrcAlpha
	case gpucore.BlendOneMinusSrcAlpha:
		return gputypes.BlendFactorOneMinusSrcAlpha
	case gpucore.BlendDstColor:
		return gputypes.BlendFactorDst
	case gpucore.BlendOneMinusDstColor:
		return gputypes.BlendFactorOneMinusDst
	case gpucore.BlendDstAlpha:
		return gputypes.BlendFactorDstAlpha
	case gpucore.BlendOneMinusDstAlpha:
		return gputypes.BlendFactorOneMinusDstAlpha
	case gpucore.BlendConstant:
		return gputypes.BlendFactorConstant
	case gpucore.BlendOneMinusConstant:
		return gputypes.BlendFactorOneMinusConstant
	default:
		return gputypes.BlendFactorZero
	}
}

func blendOperation(op gpucore.BlendOperation) gputypes.BlendOperation {
	switch op {
	case gpucore.BlendOpSubtract:
		return gputypes.BlendOperationSubtract
	case gpucore.BlendOpReverseSubtract:
		return gputypes.BlendOperationReverseSubtract
	case gpucore.BlendOpMin:
		return gputypes.BlendOperationMin
	case gpucore.BlendOpMax:
		return gputypes.BlendOperationMax
	default:
		return gputypes.BlendOperationAdd
	}
}

// colorWriteMask packs the channel flags in WebGPU bit order.
func colorWriteMask(m [4]bool) gputypes.ColorWriteMask {
	var bits uint32
	for i, on := range m {
		if on {
			bits |= 1 << i
		}
	}
	return gputypes.ColorWriteMask(bits)
}
