package core

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/g3d/gpucore"
)

func TestNewTextureNotReady(t *testing.T) {
	tex := NewTexture()
	if tex.Ready() {
		t.Error("Ready() = true for empty texture")
	}
	if !tex.MinFilter.NeedsMipmaps() {
		t.Error("default MinFilter should need mipmaps")
	}
}

func TestSetImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 3))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 2, color.NRGBA{B: 255, A: 255})

	tex := NewTexture()
	tex.FlipY = true
	v := tex.Version()
	tex.SetImage(img)

	if !tex.Ready() || tex.Version() != v+1 {
		t.Fatalf("Ready()=%v Version()=%d, want true %d", tex.Ready(), tex.Version(), v+1)
	}
	w, h := tex.Size()
	if w != 2 || h != 3 || len(tex.Pixels()) != 24 {
		t.Fatalf("Size() = %dx%d len=%d", w, h, len(tex.Pixels()))
	}
	// Flipped: the top-left red texel is now in the last row.
	if got := tex.Pixels()[2*8]; got != 255 {
		t.Errorf("flipped red = %d, want 255", got)
	}
	if got := tex.Pixels()[4+2]; got != 255 {
		t.Errorf("flipped blue = %d, want 255", got)
	}
}

func TestSetPixelsSize(t *testing.T) {
	tex := NewTexture()
	if err := tex.SetPixels(2, 2, gpucore.TextureFormatRGBA8Unorm, make([]byte, 15)); err == nil {
		t.Error("SetPixels() with short data: expected error")
	}
	if err := tex.SetPixels(2, 2, gpucore.TextureFormatR8Unorm, make([]byte, 4)); err != nil {
		t.Errorf("SetPixels() error = %v", err)
	}
	if err := tex.SetPixels(2, 2, gpucore.TextureFormatDepth32Float, make([]byte, 16)); err == nil {
		t.Error("SetPixels() with depth format: expected error")
	}
}

func TestDownscale(t *testing.T) {
	tex := NewImageTexture(image.NewRGBA(image.Rect(0, 0, 64, 16)))
	if !tex.Downscale(32) {
		t.Fatal("Downscale(32) = false")
	}
	w, h := tex.Size()
	if w != 32 || h != 8 {
		t.Errorf("Size() = %dx%d, want 32x8", w, h)
	}
	if tex.Downscale(32) {
		t.Error("second Downscale(32) = true")
	}
}

func TestDownscaleSRGBFiltersInLinearLight(t *testing.T) {
	stripes := func() *image.RGBA {
		img := image.NewRGBA(image.Rect(0, 0, 16, 4))
		for y := range 4 {
			for x := range 16 {
				v := uint8(0)
				if x%2 == 1 {
					v = 255
				}
				img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
			}
		}
		return img
	}
	tests := []struct {
		name   string
		srgb   bool
		lo, hi uint8
	}{
		{"gamma encoded average", false, 120, 136},
		{"linear light average", true, 180, 196},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tex := NewImageTexture(stripes())
			tex.SRGB = tt.srgb
			if !tex.Downscale(8) {
				t.Fatal("Downscale(8) = false")
			}
			w, _ := tex.Size()
			r := tex.Pixels()[(1*w+3)*4]
			if r < tt.lo || r > tt.hi {
				t.Errorf("mid pixel red = %d, want in [%d, %d]", r, tt.lo, tt.hi)
			}
		})
	}
}

func TestMipLevels(t *testing.T) {
	tests := []struct {
		w, h int
		want int
	}{
		{1, 1, 1},
		{2, 2, 2},
		{256, 64, 9},
		{300, 1, 9},
	}
	for _, tt := range tests {
		tex := NewTexture()
		_ = tex.SetPixels(tt.w, tt.h, gpucore.TextureFormatR8Unorm, make([]byte, tt.w*tt.h))
		if got := tex.MipLevels(); got != tt.want {
			t.Errorf("MipLevels(%dx%d) = %d, want %d", tt.w, tt.h, got, tt.want)
		}
	}
}
