package material

import "github.com/gogpu/g3d/gpucore"

// Side selects which faces are rendered.
type Side uint8

// Sides.
const (
	FrontSide Side = iota
	BackSide
	DoubleSide
)

// CullMode returns the face culling that renders s.
func (s Side) CullMode() gpucore.CullMode {
	switch s {
	case BackSide:
		return gpucore.CullFront
	case DoubleSide:
		return gpucore.CullNone
	default:
		return gpucore.CullBack
	}
}

// Blending selects a blend preset.
type Blending uint8

// Blend presets.
const (
	NoBlending Blending = iota
	NormalBlending
	AdditiveBlending
	SubtractiveBlending
	MultiplyBlending
	CustomBlending
)

// BlendState is the blend configuration of a material. Equation and factor
// fields are read only for CustomBlending.
type BlendState struct {
	Blending           Blending
	Equation           gpucore.BlendOperation
	EquationAlpha      gpucore.BlendOperation
	Src, Dst           gpucore.BlendFactor
	SrcAlpha, DstAlpha gpucore.BlendFactor
	Color              gpucore.Color
	PremultipliedAlpha bool
}

// DepthState is the depth test configuration.
type DepthState struct {
	Test  bool
	Write bool
	Func  gpucore.CompareFunc
}

// StencilState is the stencil test configuration.
type StencilState struct {
	Test      bool
	Func      gpucore.CompareFunc
	Ref       int32
	FuncMask  uint32
	WriteMask uint32
	Fail      gpucore.StencilOp
	ZFail     gpucore.StencilOp
	ZPass     gpucore.StencilOp
}

// RenderState groups every fixed-function setting a material controls.
type RenderState struct {
	Blend               BlendState
	Depth               DepthState
	Stencil             StencilState
	Side                Side
	PolygonOffset       bool
	PolygonOffsetFactor float32
	PolygonOffsetUnits  float32
	ColorWrite          bool
}

// DefaultRenderState returns opaque, depth-tested, back-face-culled state.
func DefaultRenderState() RenderState {
	return RenderState{
		Blend: BlendState{
			Blending:      NormalBlending,
			Equation:      gpucore.BlendOpAdd,
			EquationAlpha: gpucore.BlendOpAdd,
			Src:           gpucore.BlendSrcAlpha,
			Dst:           gpucore.BlendOneMinusSrcAlpha,
			SrcAlpha:      gpucore.BlendOne,
			DstAlpha:      gpucore.BlendOneMinusSrcAlpha,
		},
		Depth: DepthState{Test: true, Write: true, Func: gpucore.CompareLessEqual},
		Stencil: StencilState{
			Func:      gpucore.CompareAlways,
			FuncMask:  0xFF,
			WriteMask: 0xFF,
			Fail:      gpucore.StencilKeep,
			ZFail:     gpucore.StencilKeep,
			ZPass:     gpucore.StencilKeep,
		},
		Side:       FrontSide,
		ColorWrite: true,
	}
}

// ResolvedBlend is a blend preset expanded to explicit equations.
type ResolvedBlend struct {
	Enabled            bool
	Color, Alpha       gpucore.BlendOperation
	Src, Dst           gpucore.BlendFactor
	SrcAlpha, DstAlpha gpucore.BlendFactor
	Constant           gpucore.Color
}

// Resolve expands the preset to explicit blend equations and factors.
func (b BlendState) Resolve() ResolvedBlend {
	add := gpucore.BlendOpAdd
	r := ResolvedBlend{Enabled: true, Color: add, Alpha: add, Constant: b.Color}
	switch b.Blending {
	case NoBlending:
		r = ResolvedBlend{Color: add, Alpha: add, Src: gpucore.BlendOne, Dst: gpucore.BlendZero,
			SrcAlpha: gpucore.BlendOne, DstAlpha: gpucore.BlendZero}
	case AdditiveBlending:
		r.Src, r.Dst, r.SrcAlpha, r.DstAlpha = gpucore.BlendSrcAlpha, gpucore.BlendOne, gpucore.BlendOne, gpucore.BlendOne
		if b.PremultipliedAlpha {
			r.Src = gpucore.BlendOne
		}
	case SubtractiveBlending:
		r.Src, r.Dst, r.SrcAlpha, r.DstAlpha = gpucore.BlendZero, gpucore.BlendOneMinusSrcColor, gpucore.BlendZero, gpucore.BlendOne
	case MultiplyBlending:
		r.Src, r.Dst, r.SrcAlpha, r.DstAlpha = gpucore.BlendZero, gpucore.BlendSrcColor, gpucore.BlendZero, gpucore.BlendSrcAlpha
	case CustomBlending:
		r.Color, r.Alpha = b.Equation, b.EquationAlpha
		r.Src, r.Dst, r.SrcAlpha, r.DstAlpha = b.Src, b.Dst, b.SrcAlpha, b.DstAlpha
	default: // NormalBlending
		r.Src, r.Dst, r.SrcAlpha, r.DstAlpha = gpucore.BlendSrcAlpha, gpucore.BlendOneMinusSrcAlpha, gpucore.BlendOne, gpucore.BlendOneMinusSrcAlpha
		if b.PremultipliedAlpha {
			r.Src = gpucore.BlendOne
		}
	}
	return r
}
