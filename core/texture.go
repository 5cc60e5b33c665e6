package core

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/color"
)

// MinFilter selects minification filtering, including the mipmap variants.
type MinFilter uint8

// Minification filters.
const (
	MinNearest MinFilter = iota
	MinLinear
	MinNearestMipmapNearest
	MinLinearMipmapNearest
	MinNearestMipmapLinear
	MinLinearMipmapLinear
)

// NeedsMipmaps reports whether sampling with f reads mip levels.
func (f MinFilter) NeedsMipmaps() bool {
	return f >= MinNearestMipmapNearest
}

// Sampler converts the filter pair to device sampler filters.
func (f MinFilter) Sampler() (minFilter, mipFilter gpucore.FilterMode) {
	switch f {
	case MinNearest, MinNearestMipmapNearest:
		return gpucore.FilterNearest, gpucore.FilterNearest
	case MinLinearMipmapNearest:
		return gpucore.FilterLinear, gpucore.FilterNearest
	case MinNearestMipmapLinear:
		return gpucore.FilterNearest, gpucore.FilterLinear
	default:
		return gpucore.FilterLinear, gpucore.FilterLinear
	}
}

// Texture is a 2D image destined for the GPU.
//
// A Texture starts not ready when created without pixels; the renderer
// samples a shared placeholder until SetImage or SetPixels runs.
type Texture struct {
	Disposable

	Name            string
	MinFilter       MinFilter
	MagFilter       gpucore.FilterMode
	WrapS, WrapT    gpucore.WrapMode
	GenerateMipmaps bool
	// FlipY flips rows when converting from an image.Image.
	FlipY bool
	// SRGB marks pixels stored with the sRGB transfer function. Such
	// textures are filtered in linear light when resized on the CPU.
	SRGB bool

	id      uint64
	format  gpucore.TextureFormat
	width   int
	height  int
	pixels  []byte
	ready   bool
	version uint64
}

// NewTexture returns an empty, not-ready texture with trilinear defaults.
func NewTexture() *Texture {
	return &Texture{
		id:              NextID(),
		MinFilter:       MinLinearMipmapLinear,
		MagFilter:       gpucore.FilterLinear,
		WrapS:           gpucore.WrapClampToEdge,
		WrapT:           gpucore.WrapClampToEdge,
		GenerateMipmaps: true,
		format:          gpucore.TextureFormatRGBA8Unorm,
	}
}

// NewImageTexture returns a ready texture holding img converted to RGBA8.
func NewImageTexture(img image.Image) *Texture {
	t := NewTexture()
	t.SetImage(img)
	return t
}

// NewDataTexture returns a ready texture holding raw texels of format.
func NewDataTexture(width, height int, format gpucore.TextureFormat, data []byte) (*Texture, error) {
	t := NewTexture()
	if err := t.SetPixels(width, height, format, data); err != nil {
		return nil, err
	}
	return t, nil
}

// ID returns the texture's process-unique identity.
func (t *Texture) ID() uint64 { return t.id }

// Ready reports whether pixel data is present.
func (t *Texture) Ready() bool { return t.ready }

// Version returns the mutation counter.
func (t *Texture) Version() uint64 { return t.version }

// Format returns the texel format.
func (t *Texture) Format() gpucore.TextureFormat { return t.format }

// Size returns the texture dimensions in texels.
func (t *Texture) Size() (width, height int) { return t.width, t.height }

// Pixels returns the tightly packed texel data.
func (t *Texture) Pixels() []byte { return t.pixels }

// NeedsUpdate bumps the version so the next upload re-sends the pixels.
func (t *Texture) NeedsUpdate() { t.version++ }

// SetImage converts img to RGBA8, marks the texture ready and bumps the version.
func (t *Texture) SetImage(img image.Image) {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() || b.Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	}
	pix := rgba.Pix
	if t.FlipY {
		pix = flipRows(pix, 4*b.Dx(), b.Dy())
	}
	t.width, t.height = b.Dx(), b.Dy()
	t.format = gpucore.TextureFormatRGBA8Unorm
	t.pixels = pix
	t.ready = true
	t.version++
}

// SetPixels stores raw texels, marks the texture ready and bumps the version.
func (t *Texture) SetPixels(width, height int, format gpucore.TextureFormat, data []byte) error {
	bpp := format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("core: texture %q: format %s has no texel size", t.Name, format)
	}
	if len(data) != width*height*bpp {
		return fmt.Errorf("core: texture %q: got %d bytes, want %d for %dx%d %s",
			t.Name, len(data), width*height*bpp, width, height, format)
	}
	t.width, t.height = width, height
	t.format = format
	t.pixels = data
	t.ready = true
	t.version++
	return nil
}

// Downscale resizes the texture so neither side exceeds maxSize, keeping
// aspect ratio. Only RGBA8 textures are resized; it reports whether the
// pixels changed.
func (t *Texture) Downscale(maxSize int) bool {
	if !t.ready || t.format != gpucore.TextureFormatRGBA8Unorm {
		return false
	}
	if t.width <= maxSize && t.height <= maxSize {
		return false
	}
	w, h := t.width, t.height
	if w >= h {
		h = max(1, h*maxSize/w)
		w = maxSize
	} else {
		w = max(1, w*maxSize/h)
		h = maxSize
	}
	if t.SRGB {
		t.pixels = scaleLinear(t.pixels, t.width, t.height, w, h)
	} else {
		src := &image.RGBA{Pix: t.pixels, Stride: 4 * t.width, Rect: image.Rect(0, 0, t.width, t.height)}
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
		t.pixels = dst.Pix
	}
	t.width, t.height = w, h
	t.version++
	return true
}

// scaleLinear resizes sRGB RGBA8 pixels through 16-bit linear light.
func scaleLinear(pix []byte, sw, sh, dw, dh int) []byte {
	src := image.NewRGBA64(image.Rect(0, 0, sw, sh))
	color.DecodeRGBA8(src.Pix, pix)
	dst := image.NewRGBA64(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	out := make([]byte, 4*dw*dh)
	color.EncodeRGBA8(out, dst.Pix)
	return out
}

// MipLevels returns the length of the full mip chain for the current size.
func (t *Texture) MipLevels() int {
	n := 1
	for s := max(t.width, t.height); s > 1; s >>= 1 {
		n++
	}
	return n
}

func flipRows(pix []byte, stride, rows int) []byte {
	out := make([]byte, len(pix))
	for y := 0; y < rows; y++ {
		copy(out[(rows-1-y)*stride:(rows-y)*stride], pix[y*stride:(y+1)*stride])
	}
	return out
}
