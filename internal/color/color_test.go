package color

import (
	"math"
	"testing"

	"github.com/gogpu/g3d/gpucore"
)

func floatNear(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) <= eps
}

func TestSRGBToLinearEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		input float32
		want  float32
	}{
		{"black", 0.0, 0.0},
		{"white", 1.0, 1.0},
		{"threshold", 0.04045, 0.04045 / 12.92},
		{"just above threshold", 0.04046, float32(math.Pow((0.04046+0.055)/1.055, 2.4))},
		{"mid gray", 0.5, float32(math.Pow((0.5+0.055)/1.055, 2.4))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SRGBToLinear(tt.input); !floatNear(got, tt.want, 1e-6) {
				t.Errorf("SRGBToLinear(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLinearToSRGBEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		input float32
		want  float32
	}{
		{"black", 0.0, 0.0},
		{"white", 1.0, 1.0},
		{"threshold", 0.0031308, 0.0031308 * 12.92},
		{"mid gray linear", 0.21404, float32(1.055*math.Pow(0.21404, 1.0/2.4) - 0.055)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LinearToSRGB(tt.input); !floatNear(got, tt.want, 1e-6) {
				t.Errorf("LinearToSRGB(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestColorConversionKeepsAlpha(t *testing.T) {
	c := gpucore.Color{R: 0.5, G: 0.25, B: 1, A: 0.3}
	lin := ToLinear(c)
	if lin.A != c.A {
		t.Errorf("ToLinear alpha = %v, want %v", lin.A, c.A)
	}
	if !floatNear(lin.R, SRGBToLinear(0.5), 1e-6) || lin.B != 1 {
		t.Errorf("ToLinear(%v) = %v", c, lin)
	}
	back := ToSRGB(lin)
	for _, p := range [][2]float32{{back.R, c.R}, {back.G, c.G}, {back.B, c.B}, {back.A, c.A}} {
		if !floatNear(p[0], p[1], 1e-5) {
			t.Errorf("ToSRGB(ToLinear(%v)) = %v", c, back)
			break
		}
	}
}

func TestLUTRoundTripsEveryByte(t *testing.T) {
	for i := range 256 {
		s := uint8(i)
		if got := Encode16(Decode8(s)); got != s {
			t.Errorf("Encode16(Decode8(%d)) = %d", s, got)
		}
	}
}

func TestEncode16RoundsToTable(t *testing.T) {
	tests := []struct {
		l    uint16
		want uint32
	}{
		{0, 0},
		{8, 0},
		{9, 1},
		{65535, 4095},
	}
	for _, tt := range tests {
		if got := index12(tt.l); got != tt.want {
			t.Errorf("index12(%d) = %d, want %d", tt.l, got, tt.want)
		}
	}
	if got := Encode16(65535); got != 255 {
		t.Errorf("Encode16(65535) = %d, want 255", got)
	}
}

func TestLUTMatchesFormula(t *testing.T) {
	for i := range 256 {
		want := SRGBToLinear(float32(i) / 255)
		got := float32(Decode8(uint8(i))) / 65535
		if !floatNear(got, want, 1e-4) {
			t.Errorf("Decode8(%d) = %v, want %v", i, got, want)
		}
	}
}

func TestDecodeEncodeRGBA8(t *testing.T) {
	src := []uint8{0, 128, 255, 64, 10, 200, 30, 255}
	wide := make([]uint8, len(src)*2)
	DecodeRGBA8(wide, src)
	if got := get16(wide[6:]); got != 64*0x101 {
		t.Errorf("alpha widened to %d, want %d", got, 64*0x101)
	}
	if got := get16(wide[2:]); got != Decode8(128) {
		t.Errorf("green decoded to %d, want %d", got, Decode8(128))
	}
	out := make([]uint8, len(src))
	EncodeRGBA8(out, wide)
	for i := range src {
		if out[i] != src[i] {
			t.Errorf("round trip byte %d = %d, want %d", i, out[i], src[i])
		}
	}
}
