package resource

import (
	"testing"

	"github.com/gogpu/g3d/core"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/recording"
)

func readyTexture(t *testing.T, w, h int) *core.Texture {
	t.Helper()
	tex, err := core.NewDataTexture(w, h, gpucore.TextureFormatRGBA8Unorm, make([]byte, w*h*4))
	if err != nil {
		t.Fatal(err)
	}
	return tex
}

func TestUploadTextureSkipsUnchanged(t *testing.T) {
	dev := recording.New()
	c := New(dev)
	tex := readyTexture(t, 4, 4)

	id1, err := c.UploadTexture(tex)
	if err != nil {
		t.Fatal(err)
	}
	id2, _ := c.UploadTexture(tex)
	if id1 != id2 {
		t.Errorf("UploadTexture() id changed")
	}
	if got := dev.Count(recording.CmdWriteTexture); got != 1 {
		t.Errorf("WriteTexture count = %d, want 1", got)
	}

	tex.NeedsUpdate()
	if _, err := c.UploadTexture(tex); err != nil {
		t.Fatal(err)
	}
	if got := dev.Count(recording.CmdWriteTexture); got != 2 {
		t.Errorf("WriteTexture count after NeedsUpdate = %d, want 2", got)
	}
	if got := dev.Count(recording.CmdCreateTexture); got != 1 {
		t.Errorf("CreateTexture count = %d, want 1", got)
	}
}

func TestUploadTextureMipmaps(t *testing.T) {
	tests := []struct {
		name     string
		generate bool
		filter   core.MinFilter
		wantMips int
	}{
		{"trilinear", true, core.MinLinearMipmapLinear, 1},
		{"linear filter", true, core.MinLinear, 0},
		{"disabled", false, core.MinLinearMipmapLinear, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := recording.New()
			c := New(dev)
			tex := readyTexture(t, 8, 8)
			tex.GenerateMipmaps = tt.generate
			tex.MinFilter = tt.filter

			id, err := c.UploadTexture(tex)
			if err != nil {
				t.Fatal(err)
			}
			if got := dev.Count(recording.CmdGenerateMipmaps); got != tt.wantMips {
				t.Errorf("GenerateMipmaps count = %d, want %d", got, tt.wantMips)
			}
			desc, _ := dev.TextureDesc(id)
			wantLevels := 1
			if tt.wantMips > 0 {
				wantLevels = 4
			}
			if desc.MipLevels != wantLevels {
				t.Errorf("MipLevels = %d, want %d", desc.MipLevels, wantLevels)
			}
		})
	}
}

func TestUploadTexturePlaceholder(t *testing.T) {
	dev := recording.New()
	c := New(dev)
	pending := core.NewTexture()

	id, err := c.UploadTexture(pending)
	if err != nil {
		t.Fatal(err)
	}
	ph, _ := c.Placeholder()
	if id != ph {
		t.Errorf("UploadTexture(not ready) = %d, want placeholder %d", id, ph)
	}
	desc, _ := dev.TextureDesc(id)
	if desc.Width != 1 || desc.Height != 1 {
		t.Errorf("placeholder size = %dx%d, want 1x1", desc.Width, desc.Height)
	}

	_ = pending.SetPixels(2, 2, gpucore.TextureFormatRGBA8Unorm, make([]byte, 16))
	real, err := c.UploadTexture(pending)
	if err != nil {
		t.Fatal(err)
	}
	if real == ph {
		t.Error("ready texture still resolves to the placeholder")
	}
}

func TestUploadTextureResizeReallocates(t *testing.T) {
	dev := recording.New()
	c := New(dev)
	tex := readyTexture(t, 4, 4)
	if _, err := c.UploadTexture(tex); err != nil {
		t.Fatal(err)
	}

	_ = tex.SetPixels(8, 8, gpucore.TextureFormatRGBA8Unorm, make([]byte, 256))
	if _, err := c.UploadTexture(tex); err != nil {
		t.Fatal(err)
	}
	if dev.LiveTextures() != 1 {
		t.Errorf("LiveTextures() = %d, want 1", dev.LiveTextures())
	}
	if got := dev.Count(recording.CmdDestroyTexture); got != 1 {
		t.Errorf("DestroyTexture count = %d, want 1", got)
	}
}

func TestTextureDisposeEvicts(t *testing.T) {
	dev := recording.New()
	c := New(dev)
	tex := readyTexture(t, 2, 2)
	if _, err := c.UploadTexture(tex); err != nil {
		t.Fatal(err)
	}

	tex.Dispose()
	if dev.LiveTextures() != 0 {
		t.Errorf("LiveTextures() = %d, want 0", dev.LiveTextures())
	}
	if _, ok := c.Texture(tex); ok {
		t.Error("Texture() still cached after dispose")
	}
}
