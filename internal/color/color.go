// Package color converts between the sRGB transfer function and linear
// light.
//
// Colors given by callers (clear colors, color textures) are sRGB encoded.
// Shading, blending and filtering happen in linear space; the conversions
// here move values across that boundary on the CPU.
package color

import "github.com/gogpu/g3d/gpucore"

// ToLinear converts the RGB channels of an sRGB device color to linear.
// Alpha is never gamma encoded and passes through.
func ToLinear(c gpucore.Color) gpucore.Color {
	return gpucore.Color{
		R: SRGBToLinear(c.R),
		G: SRGBToLinear(c.G),
		B: SRGBToLinear(c.B),
		A: c.A,
	}
}

// ToSRGB converts the RGB channels of a linear device color to sRGB.
func ToSRGB(c gpucore.Color) gpucore.Color {
	return gpucore.Color{
		R: LinearToSRGB(c.R),
		G: LinearToSRGB(c.G),
		B: LinearToSRGB(c.B),
		A: c.A,
	}
}
