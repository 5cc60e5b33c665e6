package wgpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// submitTimeout bounds the fence wait after a submit.
const submitTimeout = 5 * time.Second

// ErrSubmitTimeout is returned when the GPU does not signal a submit in time.
var ErrSubmitTimeout = errors.New("wgpu: submit timeout")

type pendingClear struct {
	flags   gpucore.ClearFlags
	color   gpucore.Color
	depth   float32
	stencil uint32
}

// frame records the work between BeginFrame and EndFrame into a single
// command encoder.
type frame struct {
	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder
	target  gpucore.FramebufferID

	// pipeline is the pipeline bound on pass.
	pipeline hal.RenderPipeline

	clears          map[gpucore.FramebufferID]pendingClear
	bindGroups      []hal.BindGroup
	retiredPrograms []*program
}

func (f *frame) endPass() {
	if f.pass == nil {
		return
	}
	f.pass.End()
	f.pass = nil
	f.pipeline = nil
}

// release destroys the transient objects of the frame.
func (f *frame) release(d *Device) {
	for _, bg := range f.bindGroups {
		d.device.DestroyBindGroup(bg)
	}
	f.bindGroups = nil
	for _, p := range f.retiredPrograms {
		p.destroy(d.device)
	}
	f.retiredPrograms = nil
	d.releaseBlit()
}

// abort drops the recorded work without submitting it.
func (f *frame) abort(d *Device) {
	f.endPass()
	if f.encoder != nil {
		f.encoder.DiscardEncoding()
		f.encoder = nil
	}
	f.release(d)
	d.pool.reset()
}

// BeginFrame implements gpucore.Device.
func (d *Device) BeginFrame() error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	if d.frame != nil {
		return errors.New("wgpu: frame already in progress")
	}
	enc, err := d.beginEncoder("frame")
	if err != nil {
		return err
	}
	d.frame = &frame{
		encoder: enc,
		clears:  make(map[gpucore.FramebufferID]pendingClear),
	}
	return nil
}

// EndFrame implements gpucore.Device. It blocks until the GPU finished the
// frame.
func (d *Device) EndFrame() error {
	f := d.frame
	if f == nil {
		return ErrNoFrame
	}
	d.frame = nil
	if d.lost {
		f.abort(d)
		return gpucore.ErrContextLost
	}
	f.endPass()
	err := d.flushClears(f, gpucore.InvalidID, false)
	if err == nil {
		err = d.submit(f.encoder)
	}
	f.encoder = nil
	f.release(d)
	d.pool.reset()
	d.destroyRetired()
	return err
}

func (d *Device) beginEncoder(label string) (hal.CommandEncoder, error) {
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding(label); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	return enc, nil
}

// submit ends enc, submits it and waits for completion. A failed submit or
// wait loses the device.
func (d *Device) submit(enc hal.CommandEncoder) error {
	cmd, err := enc.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmd)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmd}, fence, 1); err != nil {
		d.loseContext(err)
		return fmt.Errorf("wgpu: submit: %w: %w", gpucore.ErrContextLost, err)
	}
	ok, err := d.device.Wait(fence, 1, submitTimeout)
	if err != nil {
		d.loseContext(err)
		return fmt.Errorf("wgpu: wait: %w: %w", gpucore.ErrContextLost, err)
	}
	if !ok {
		d.loseContext(ErrSubmitTimeout)
		return fmt.Errorf("%w: %w", gpucore.ErrContextLost, ErrSubmitTimeout)
	}
	return nil
}

func (d *Device) loseContext(err error) {
	if !d.lost {
		slogger().Warn("wgpu: context lost", "err", err)
	}
	d.lost = true
}

// encode runs fn on the frame encoder, or on a one-shot encoder that is
// submitted immediately when no frame is open.
func (d *Device) encode(label string, fn func(hal.CommandEncoder) error) error {
	if d.frame != nil {
		d.frame.endPass()
		if err := d.flushClears(d.frame, gpucore.InvalidID, false); err != nil {
			return err
		}
		return fn(d.frame.encoder)
	}
	enc, err := d.beginEncoder(label)
	if err != nil {
		return err
	}
	if err := fn(enc); err != nil {
		enc.DiscardEncoding()
		d.releaseBlit()
		return err
	}
	err = d.submit(enc)
	d.releaseBlit()
	return err
}

func (d *Device) releaseBlit() {
	if d.blit != nil {
		d.blit.release(d.device)
	}
}

// Clear implements gpucore.Device. Clears become load operations of the
// next pass on the bound framebuffer.
func (d *Device) Clear(flags gpucore.ClearFlags, color gpucore.Color, depth float32, stencil uint32) {
	f := d.frame
	if f == nil || flags == 0 {
		return
	}
	id := d.state.framebuffer
	if f.pass != nil && f.target == id {
		f.endPass()
	}
	c := f.clears[id]
	c.flags |= flags
	if flags&gpucore.ClearColor != 0 {
		c.color = color
	}
	if flags&gpucore.ClearDepth != 0 {
		c.depth = depth
	}
	if flags&gpucore.ClearStencil != 0 {
		c.stencil = stencil
	}
	f.clears[id] = c
}

// flushClears applies pending clears with empty passes. When only is true,
// just the clear of id is flushed; otherwise every clear except id.
func (d *Device) flushClears(f *frame, id gpucore.FramebufferID, only bool) error {
	for target := range f.clears {
		if (target == id) != only {
			continue
		}
		fb, err := d.lookupFramebuffer(target)
		if err != nil {
			delete(f.clears, target)
			continue
		}
		if err := d.beginPass(f, target, fb); err != nil {
			return err
		}
		f.endPass()
	}
	return nil
}

// beginPass opens a render pass on fb, consuming its pending clear.
func (d *Device) beginPass(f *frame, id gpucore.FramebufferID, fb *framebuffer) error {
	view, err := fb.colorView(d.device)
	if err != nil {
		return fmt.Errorf("wgpu: framebuffer %d view: %w", id, err)
	}
	c, cleared := f.clears[id]
	delete(f.clears, id)

	color := hal.RenderPassColorAttachment{
		View:    view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if cleared && c.flags&gpucore.ClearColor != 0 {
		color.LoadOp = gputypes.LoadOpClear
		color.ClearValue = gputypes.Color{
			R: float64(c.color.R), G: float64(c.color.G), B: float64(c.color.B), A: float64(c.color.A),
		}
	}
	desc := &hal.RenderPassDescriptor{
		Label:            fmt.Sprintf("pass_%d", id),
		ColorAttachments: []hal.RenderPassColorAttachment{color},
	}
	if fb.depth != nil {
		depthView, err := fb.depth.level(d.device, 0)
		if err != nil {
			return fmt.Errorf("wgpu: framebuffer %d depth view: %w", id, err)
		}
		ds := &hal.RenderPassDepthStencilAttachment{
			View:            depthView,
			DepthLoadOp:     gputypes.LoadOpLoad,
			DepthStoreOp:    gputypes.StoreOpStore,
			DepthClearValue: 1,
		}
		if cleared && c.flags&gpucore.ClearDepth != 0 {
			ds.DepthLoadOp = gputypes.LoadOpClear
			ds.DepthClearValue = c.depth
		}
		if fb.depthFormat().HasStencil() {
			ds.StencilLoadOp = gputypes.LoadOpLoad
			ds.StencilStoreOp = gputypes.StoreOpStore
			if cleared && c.flags&gpucore.ClearStencil != 0 {
				ds.StencilLoadOp = gputypes.LoadOpClear
				ds.StencilClearValue = c.stencil
			}
		}
		desc.DepthStencilAttachment = ds
	}
	f.pass = f.encoder.BeginRenderPass(desc)
	f.target = id
	f.pipeline = nil
	d.stats.Passes++
	return nil
}

// ensurePass opens a pass on the bound framebuffer unless one is open.
func (d *Device) ensurePass(fb *framebuffer) error {
	f := d.frame
	id := d.state.framebuffer
	if f.pass != nil && f.target == id {
		return nil
	}
	f.endPass()
	// Clears of other targets must land before this pass samples them.
	if err := d.flushClears(f, id, false); err != nil {
		return err
	}
	return d.beginPass(f, id, fb)
}

// ResolveFramebuffer implements gpucore.Device.
func (d *Device) ResolveFramebuffer(src, dst gpucore.FramebufferID) error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	from, err := d.lookupFramebuffer(src)
	if err != nil {
		return err
	}
	to, err := d.lookupFramebuffer(dst)
	if err != nil {
		return err
	}
	if from.samples() == 1 {
		return fmt.Errorf("wgpu: resolve %d: source is not multisampled", src)
	}
	if to.samples() != 1 {
		return fmt.Errorf("wgpu: resolve %d: destination is multisampled", dst)
	}
	return d.encode("resolve", func(enc hal.CommandEncoder) error {
		srcView, err := from.colorView(d.device)
		if err != nil {
			return err
		}
		dstView, err := to.colorView(d.device)
		if err != nil {
			return err
		}
		pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: "resolve",
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:          srcView,
				ResolveTarget: dstView,
				LoadOp:        gputypes.LoadOpLoad,
				StoreOp:       gputypes.StoreOpStore,
			}},
		})
		pass.End()
		d.stats.Passes++
		return nil
	})
}

// Draw implements gpucore.Device.
func (d *Device) Draw(t gpucore.Topology, first, count int) error {
	return d.draw(t, first, count, false)
}

// DrawIndexed implements gpucore.Device.
func (d *Device) DrawIndexed(t gpucore.Topology, first, count int) error {
	return d.draw(t, first, count, true)
}

func (d *Device) draw(t gpucore.Topology, first, count int, indexed bool) error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	if d.frame == nil {
		return ErrNoFrame
	}
	if count <= 0 {
		return nil
	}
	p, ok := d.programs[d.state.program]
	if !ok {
		return fmt.Errorf("wgpu: draw: program %d: %w", d.state.program, gpucore.ErrInvalidResource)
	}
	fb, err := d.lookupFramebuffer(d.state.framebuffer)
	if err != nil {
		return err
	}

	desc := pipelineDesc{
		program:     d.state.program,
		prog:        p,
		fixed:       d.state.fixed,
		topology:    t,
		colorFormat: fb.color.desc.Format,
		depthFormat: fb.depthFormat(),
		samples:     fb.samples(),
		vertices:    make([]gpucore.VertexLayout, len(p.attributes)),
	}
	vbufs := make([]*buffer, len(p.attributes))
	for i, name := range p.attributes {
		vb, ok := d.state.vertices[int32(i)] //nolint:gosec // small
		if !ok {
			return fmt.Errorf("wgpu: draw %s: attribute %q not bound", p.label, name)
		}
		b, ok := d.buffers[vb.buffer]
		if !ok {
			return fmt.Errorf("wgpu: draw %s: attribute %q buffer %d: %w", p.label, name, vb.buffer, gpucore.ErrInvalidResource)
		}
		desc.vertices[i] = vb.layout
		vbufs[i] = b
	}
	var ibuf *buffer
	if indexed {
		ibuf, ok = d.buffers[d.state.index.buffer]
		if !ok {
			return fmt.Errorf("wgpu: draw %s: index buffer %d: %w", p.label, d.state.index.buffer, gpucore.ErrInvalidResource)
		}
	}

	pipeline, err := d.pipeline(&desc)
	if err != nil {
		return err
	}
	bg, err := d.bindGroup(p)
	if err != nil {
		return err
	}
	if err := d.ensurePass(fb); err != nil {
		return err
	}

	f := d.frame
	pass := f.pass
	if f.pipeline != pipeline {
		pass.SetPipeline(pipeline)
		f.pipeline = pipeline
	}
	pass.SetBindGroup(0, bg, nil)
	for i, b := range vbufs {
		pass.SetVertexBuffer(uint32(i), b.buf, desc.vertices[i].Offset) //nolint:gosec // small
	}
	d.applyDynamicState(pass, fb)

	if indexed {
		pass.SetIndexBuffer(ibuf.buf, indexFormat(d.state.index.format), 0)
		pass.DrawIndexed(uint32(count), 1, uint32(first), 0, 0) //nolint:gosec // validated count
	} else {
		pass.Draw(uint32(count), 1, uint32(first), 0) //nolint:gosec // validated count
	}
	d.stats.Draws++
	return nil
}

// bindGroup snapshots the uniform block of p and binds the textures of its
// samplers. Unbound units sample the placeholder.
func (d *Device) bindGroup(p *program) (hal.BindGroup, error) {
	size := uint64(len(p.block))
	ubuf, offset, err := d.pool.alloc(d.device, size)
	if err != nil {
		return nil, err
	}
	d.queue.WriteBuffer(ubuf, offset, p.block)
	d.stats.UniformBytes += size

	entries := make([]gputypes.BindGroupEntry, 0, 1+2*len(p.samplers))
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  0,
		Resource: gputypes.BufferBinding{Buffer: ubuf.NativeHandle(), Offset: offset, Size: size},
	})
	for k := range p.samplers {
		t := d.placeholder
		if bound, ok := d.textures[d.state.textures[k]]; ok && bound.sampler != nil {
			t = bound
		}
		entries = append(entries,
			gputypes.BindGroupEntry{
				Binding:  uint32(1 + 2*k), //nolint:gosec // small
				Resource: gputypes.TextureViewBinding{TextureView: uintptr(t.view.NativeHandle())},
			},
			gputypes.BindGroupEntry{
				Binding:  uint32(2 + 2*k), //nolint:gosec // small
				Resource: gputypes.SamplerBinding{Sampler: uintptr(t.sampler.NativeHandle())},
			})
	}
	bg, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.label + "_bind_group",
		Layout:  p.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: bind group %s: %w", p.label, err)
	}
	d.frame.bindGroups = append(d.frame.bindGroups, bg)
	return bg, nil
}

type viewportSetter interface {
	SetViewport(x, y, width, height, minDepth, maxDepth float32)
}

type scissorSetter interface {
	SetScissorRect(x, y, width, height uint32)
}

type stencilReferenceSetter interface {
	SetStencilReference(reference uint32)
}

type blendConstantSetter interface {
	SetBlendConstant(color *gputypes.Color)
}

// applyDynamicState sets viewport, scissor, stencil reference and blend
// constant on pass. Rects are converted from a bottom-left origin.
func (d *Device) applyDynamicState(pass hal.RenderPassEncoder, fb *framebuffer) {
	w, h := fb.size()
	if vs, ok := pass.(viewportSetter); ok {
		vp := d.state.viewport
		if vp.Width <= 0 || vp.Height <= 0 {
			vp = gpucore.Rect{Width: w, Height: h}
		}
		vs.SetViewport(float32(vp.X), float32(h-vp.Y-vp.Height), float32(vp.Width), float32(vp.Height), 0, 1)
	}
	if ss, ok := pass.(scissorSetter); ok {
		r := gpucore.Rect{Width: w, Height: h}
		if d.state.scissorEnabled {
			r = clipRect(d.state.scissor, w, h)
		}
		ss.SetScissorRect(uint32(r.X), uint32(h-r.Y-r.Height), uint32(r.Width), uint32(r.Height)) //nolint:gosec // clipped
	}
	if d.state.fixed.stencilTest {
		if sr, ok := pass.(stencilReferenceSetter); ok {
			sr.SetStencilReference(uint32(d.state.stencilRef)) //nolint:gosec // bit pattern
		}
	}
	if d.state.fixed.blend {
		if bc, ok := pass.(blendConstantSetter); ok {
			c := d.state.blendColor
			bc.SetBlendConstant(&gputypes.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)})
		}
	}
}

// clipRect intersects r with a w by h framebuffer.
func clipRect(r gpucore.Rect, w, h int) gpucore.Rect {
	x0, y0 := max(r.X, 0), max(r.Y, 0)
	x1, y1 := min(r.X+r.Width, w), min(r.Y+r.Height, h)
	if x1 <= x0 || y1 <= y0 {
		return gpucore.Rect{}
	}
	return gpucore.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
