package wgpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyPitchAlignment is the WebGPU row alignment of texture-to-buffer copies.
const copyPitchAlignment = 256

// ReadPixels copies the color attachment of a single-sample framebuffer
// into an image. It must be called outside a frame.
func (d *Device) ReadPixels(id gpucore.FramebufferID) (*image.RGBA, error) {
	if d.lost {
		return nil, gpucore.ErrContextLost
	}
	if d.frame != nil {
		return nil, errors.New("wgpu: read pixels inside frame")
	}
	fb, err := d.lookupFramebuffer(id)
	if err != nil {
		return nil, err
	}
	if fb.samples() != 1 {
		return nil, fmt.Errorf("wgpu: read pixels %d: multisampled: %w", id, gpucore.ErrUnsupported)
	}
	format := fb.color.desc.Format
	if format != gpucore.TextureFormatRGBA8Unorm && format != gpucore.TextureFormatBGRA8Unorm &&
		format != gpucore.TextureFormatRGBA8UnormSRGB {
		return nil, fmt.Errorf("wgpu: read pixels %d: %v: %w", id, format, gpucore.ErrUnsupported)
	}

	w, h := fb.size()
	bytesPerRow := uint32(w) * 4 //nolint:gosec // validated at creation
	aligned := uint32(alignUp(uint64(bytesPerRow), copyPitchAlignment))
	size := uint64(aligned) * uint64(h) //nolint:gosec // validated at creation

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create readback buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	tex := fb.color.tex
	err = d.encode("readback", func(enc hal.CommandEncoder) error {
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageRenderAttachment,
				NewUsage: gputypes.TextureUsageCopySrc,
			},
		}})
		enc.CopyTextureToBuffer(tex, staging, []hal.BufferTextureCopy{{
			BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: aligned, RowsPerImage: uint32(h)},   //nolint:gosec // small
			TextureBase:  hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
			Size:         hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1}, //nolint:gosec // small
		}})
		enc.TransitionTextures([]hal.TextureBarrier{{
			Texture: tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageCopySrc,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
		return nil
	})
	if err != nil {
		return nil, err
	}

	raw := make([]byte, size)
	if err := d.queue.ReadBuffer(staging, 0, raw); err != nil {
		return nil, fmt.Errorf("wgpu: read pixels: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		row := raw[y*int(aligned) : y*int(aligned)+int(bytesPerRow)]
		copy(img.Pix[y*img.Stride:], row)
	}
	if format == gpucore.TextureFormatBGRA8Unorm {
		swapRedBlue(img.Pix)
	}
	return img, nil
}

func swapRedBlue(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}
