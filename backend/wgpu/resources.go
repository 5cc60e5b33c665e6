package wgpu

import (
	"fmt"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// copyAlignment is the WebGPU alignment of buffer write sizes and offsets.
const copyAlignment = 4

type buffer struct {
	buf  hal.Buffer
	desc gpucore.BufferDescriptor
}

type texture struct {
	tex     hal.Texture
	view    hal.TextureView
	sampler hal.Sampler
	desc    gpucore.TextureDescriptor
	format  gputypes.TextureFormat

	// levels holds one single-level view per mip, created for render
	// attachments and mipmap generation.
	levels []hal.TextureView
}

func (t *texture) destroy(device hal.Device) {
	for _, v := range t.levels {
		if v != nil {
			device.DestroyTextureView(v)
		}
	}
	t.levels = nil
	if t.sampler != nil {
		device.DestroySampler(t.sampler)
	}
	if t.view != nil {
		device.DestroyTextureView(t.view)
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
	}
}

func (t *texture) mipLevels() int { return max(t.desc.MipLevels, 1) }

func (t *texture) samples() int { return max(t.desc.SampleCount, 1) }

// level returns a view of one mip level.
func (t *texture) level(device hal.Device, i int) (hal.TextureView, error) {
	if t.mipLevels() == 1 {
		return t.view, nil
	}
	if t.levels == nil {
		t.levels = make([]hal.TextureView, t.mipLevels())
	}
	if t.levels[i] != nil {
		return t.levels[i], nil
	}
	v, err := device.CreateTextureView(t.tex, &hal.TextureViewDescriptor{
		Label:         fmt.Sprintf("%s_mip%d", t.desc.Label, i),
		Format:        t.format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		BaseMipLevel:  uint32(i), //nolint:gosec // mip index is tiny
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, err
	}
	t.levels[i] = v
	return v, nil
}

type framebuffer struct {
	desc  gpucore.FramebufferDescriptor
	color *texture
	depth *texture

	// surface replaces the color attachment view of the default
	// framebuffer when a host presents to a window.
	surface hal.TextureView
}

func (f *framebuffer) colorView(device hal.Device) (hal.TextureView, error) {
	if f.surface != nil {
		return f.surface, nil
	}
	return f.color.level(device, 0)
}

func (f *framebuffer) size() (int, int) { return f.color.desc.Width, f.color.desc.Height }

func (f *framebuffer) samples() int { return f.color.samples() }

func (f *framebuffer) depthFormat() gpucore.TextureFormat {
	if f.depth == nil {
		return gpucore.TextureFormatUndefined
	}
	return f.depth.desc.Format
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc gpucore.BufferDescriptor) (gpucore.BufferID, error) {
	if d.lost {
		return gpucore.InvalidID, gpucore.ErrContextLost
	}
	if desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create buffer %q: zero size", desc.Label)
	}
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  alignUp(desc.Size, copyAlignment),
		Usage: bufferUsage(desc.Usage),
	})
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create buffer %q: %w", desc.Label, err)
	}
	id := gpucore.BufferID(d.newID())
	d.buffers[id] = &buffer{buf: buf, desc: desc}
	return id, nil
}

// WriteBuffer implements gpucore.Device. Unaligned writes are widened to
// four bytes with zero padding.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	b, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("wgpu: write buffer %d: %w", id, gpucore.ErrInvalidResource)
	}
	if offset+uint64(len(data)) > b.desc.Size {
		return fmt.Errorf("wgpu: write buffer %d: %d bytes at %d overflow size %d",
			id, len(data), offset, b.desc.Size)
	}
	if len(data) == 0 {
		return nil
	}
	start := offset &^ (copyAlignment - 1)
	if start != offset || len(data)%copyAlignment != 0 {
		padded := make([]byte, alignUp(offset+uint64(len(data)), copyAlignment)-start)
		copy(padded[offset-start:], data)
		data = padded
	}
	d.queue.WriteBuffer(b.buf, start, data)
	return nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	b, ok := d.buffers[id]
	if !ok {
		return
	}
	delete(d.buffers, id)
	d.device.DestroyBuffer(b.buf)
}

func (d *Device) createTexture(desc gpucore.TextureDescriptor) (*texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("invalid size %dx%d", desc.Width, desc.Height)
	}
	format := textureFormat(desc.Format)
	if format == gputypes.TextureFormatUndefined {
		return nil, gpucore.ErrUnsupported
	}
	usage := textureUsage(desc.Usage) | gputypes.TextureUsageCopyDst
	if desc.MipLevels > 1 {
		// Mip levels are filled by rendering from the level above.
		usage |= gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding
	}
	t := &texture{desc: desc, format: format}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         desc.Label,
		Size:          hal.Extent3D{Width: uint32(desc.Width), Height: uint32(desc.Height), DepthOrArrayLayers: 1}, //nolint:gosec // validated above
		MipLevelCount: uint32(t.mipLevels()),                                                                        //nolint:gosec // small
		SampleCount:   uint32(t.samples()),                                                                          //nolint:gosec // small
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return nil, err
	}
	t.tex = tex
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         desc.Label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: uint32(t.mipLevels()), //nolint:gosec // small
	})
	if err != nil {
		t.destroy(d.device)
		return nil, err
	}
	t.view = view
	if desc.Usage&gpucore.TextureUsageTextureBinding != 0 && !desc.Format.IsDepth() {
		sampler, err := d.device.CreateSampler(samplerDescriptor(desc.Label+"_sampler", desc.Sampler))
		if err != nil {
			t.destroy(d.device)
			return nil, err
		}
		t.sampler = sampler
	}
	return t, nil
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	if d.lost {
		return gpucore.InvalidID, gpucore.ErrContextLost
	}
	t, err := d.createTexture(desc)
	if err != nil {
		return gpucore.InvalidID, fmt.Errorf("wgpu: create texture %q: %w", desc.Label, err)
	}
	id := gpucore.TextureID(d.newID())
	d.textures[id] = t
	return id, nil
}

func (d *Device) writeTexture(t *texture, data []byte) {
	w, h := uint32(t.desc.Width), uint32(t.desc.Height) //nolint:gosec // validated at creation
	d.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		data,
		&hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  w * uint32(t.desc.Format.BytesPerPixel()), //nolint:gosec // small
			RowsPerImage: h,
		},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
}

// WriteTexture implements gpucore.Device.
func (d *Device) WriteTexture(id gpucore.TextureID, data []byte) error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("wgpu: write texture %d: %w", id, gpucore.ErrInvalidResource)
	}
	bpp := t.desc.Format.BytesPerPixel()
	if bpp == 0 {
		return fmt.Errorf("wgpu: write texture %d: %v: %w", id, t.desc.Format, gpucore.ErrUnsupported)
	}
	if want := t.desc.Width * t.desc.Height * bpp; len(data) != want {
		return fmt.Errorf("wgpu: write texture %d: got %d bytes, want %d", id, len(data), want)
	}
	d.writeTexture(t, data)
	return nil
}

// GenerateMipmaps implements gpucore.Device. Each level is rendered from
// the level above with a linear blit.
func (d *Device) GenerateMipmaps(id gpucore.TextureID) error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	t, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("wgpu: generate mipmaps %d: %w", id, gpucore.ErrInvalidResource)
	}
	if t.mipLevels() == 1 {
		return nil
	}
	if err := d.encode("mipmaps", func(enc hal.CommandEncoder) error {
		return d.blitter().mipmaps(d.device, enc, t)
	}); err != nil {
		return fmt.Errorf("wgpu: generate mipmaps %d: %w", id, err)
	}
	return nil
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	t, ok := d.textures[id]
	if !ok {
		return
	}
	delete(d.textures, id)
	t.destroy(d.device)
}

// CreateFramebuffer implements gpucore.Device.
func (d *Device) CreateFramebuffer(desc gpucore.FramebufferDescriptor) (gpucore.FramebufferID, error) {
	if d.lost {
		return gpucore.InvalidID, gpucore.ErrContextLost
	}
	color, ok := d.textures[desc.Color]
	if !ok {
		return gpucore.InvalidID, fmt.Errorf("wgpu: framebuffer %q color: %w", desc.Label, gpucore.ErrInvalidResource)
	}
	fb := &framebuffer{desc: desc, color: color}
	if desc.Depth != gpucore.InvalidID {
		depth, ok := d.textures[desc.Depth]
		if !ok {
			return gpucore.InvalidID, fmt.Errorf("wgpu: framebuffer %q depth: %w", desc.Label, gpucore.ErrInvalidResource)
		}
		if depth.samples() != color.samples() {
			return gpucore.InvalidID, fmt.Errorf("wgpu: framebuffer %q: color has %d samples, depth %d",
				desc.Label, color.samples(), depth.samples())
		}
		fb.depth = depth
	}
	id := gpucore.FramebufferID(d.newID())
	d.framebuffers[id] = fb
	return id, nil
}

// DestroyFramebuffer implements gpucore.Device. Attachments stay alive.
func (d *Device) DestroyFramebuffer(id gpucore.FramebufferID) {
	if _, ok := d.framebuffers[id]; !ok {
		return
	}
	if d.frame != nil && d.frame.target == id {
		d.frame.endPass()
	}
	delete(d.framebuffers, id)
	if d.state.framebuffer == id {
		d.state.framebuffer = gpucore.DefaultFramebuffer
	}
}

func (d *Device) createScreen(width, height int) error {
	color, err := d.createTexture(gpucore.TextureDescriptor{
		Label:  "screen_color",
		Width:  width,
		Height: height,
		Format: d.cfg.Format,
		Usage:  gpucore.TextureUsageRenderAttachment | gpucore.TextureUsageCopySrc | gpucore.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create screen color: %w", err)
	}
	depth, err := d.createTexture(gpucore.TextureDescriptor{
		Label:  "screen_depth",
		Width:  width,
		Height: height,
		Format: gpucore.TextureFormatDepth24PlusStencil8,
		Usage:  gpucore.TextureUsageRenderAttachment,
	})
	if err != nil {
		color.destroy(d.device)
		return fmt.Errorf("wgpu: create screen depth: %w", err)
	}
	var surface hal.TextureView
	if d.screen != nil {
		surface = d.screen.surface
	}
	d.screen = &framebuffer{color: color, depth: depth, surface: surface}
	return nil
}

func (d *Device) destroyScreen() {
	if d.screen == nil {
		return
	}
	d.screen.color.destroy(d.device)
	d.screen.depth.destroy(d.device)
	d.screen = nil
}

// Resize reallocates the default framebuffer. Equal sizes are a no-op.
func (d *Device) Resize(width, height int) error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	if w, h := d.screen.size(); w == width && h == height {
		return nil
	}
	if d.frame != nil && d.frame.target == gpucore.DefaultFramebuffer {
		d.frame.endPass()
	}
	old := d.screen
	if err := d.createScreen(max(width, 1), max(height, 1)); err != nil {
		return err
	}
	old.color.destroy(d.device)
	old.depth.destroy(d.device)
	return nil
}

// SetSurfaceView directs the default framebuffer into a host-owned view,
// typically the current swapchain texture. Pass nil to render offscreen
// again. The view must match the default framebuffer size and format.
func (d *Device) SetSurfaceView(view hal.TextureView) {
	if d.frame != nil && d.frame.target == gpucore.DefaultFramebuffer {
		d.frame.endPass()
	}
	d.screen.surface = view
}

func (d *Device) lookupFramebuffer(id gpucore.FramebufferID) (*framebuffer, error) {
	if id == gpucore.DefaultFramebuffer {
		return d.screen, nil
	}
	fb, ok := d.framebuffers[id]
	if !ok {
		return nil, fmt.Errorf("wgpu: framebuffer %d: %w", id, gpucore.ErrInvalidResource)
	}
	return fb, nil
}

func alignUp(v, a uint64) uint64 {
	return (v + a - 1) / a * a
}
