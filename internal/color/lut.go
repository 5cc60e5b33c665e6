package color

import "math"

// decodeLUT maps an sRGB byte to 16-bit linear light.
var decodeLUT [256]uint16

// encodeLUT maps 12-bit linear light to an sRGB byte.
var encodeLUT [4096]uint8

func init() {
	for i := range decodeLUT {
		s := float64(i) / 255
		var l float64
		if s <= 0.04045 {
			l = s / 12.92
		} else {
			l = math.Pow((s+0.055)/1.055, 2.4)
		}
		decodeLUT[i] = uint16(l*65535 + 0.5)
	}
	for i := range encodeLUT {
		l := float64(i) / 4095
		var s float64
		if l <= 0.0031308 {
			s = l * 12.92
		} else {
			s = 1.055*math.Pow(l, 1.0/2.4) - 0.055
		}
		encodeLUT[i] = uint8(min(max(s*255+0.5, 0), 255)) //nolint:gosec // clamped to [0,255]
	}
}

// Decode8 converts an sRGB byte to 16-bit linear light.
func Decode8(s uint8) uint16 { return decodeLUT[s] }

// Encode16 converts 16-bit linear light to an sRGB byte. The input is
// rounded to twelve bits, which round trips every byte exactly.
func Encode16(l uint16) uint8 { return encodeLUT[index12(l)] }

// index12 rounds l from the 16-bit scale to the 4095 steps of encodeLUT.
func index12(l uint16) uint32 { return (uint32(l)*4095 + 32767) / 65535 }

// DecodeRGBA8 expands sRGB encoded RGBA8 pixels into 16-bit linear RGBA,
// the layout of image.RGBA64. Alpha is widened, not decoded.
func DecodeRGBA8(dst []uint8, src []uint8) {
	for i := 0; i+3 < len(src); i += 4 {
		o := i * 2
		put16(dst[o:], decodeLUT[src[i]])
		put16(dst[o+2:], decodeLUT[src[i+1]])
		put16(dst[o+4:], decodeLUT[src[i+2]])
		put16(dst[o+6:], uint16(src[i+3])*0x101)
	}
}

// EncodeRGBA8 is the inverse of DecodeRGBA8.
func EncodeRGBA8(dst []uint8, src []uint8) {
	for i := 0; i+3 < len(dst); i += 4 {
		o := i * 2
		dst[i] = encodeLUT[index12(get16(src[o:]))]
		dst[i+1] = encodeLUT[index12(get16(src[o+2:]))]
		dst[i+2] = encodeLUT[index12(get16(src[o+4:]))]
		dst[i+3] = uint8(get16(src[o+6:]) >> 8)
	}
}

// image.RGBA64 stores big-endian components.
func put16(b []uint8, v uint16) { b[0], b[1] = uint8(v>>8), uint8(v) }

func get16(b []uint8) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
