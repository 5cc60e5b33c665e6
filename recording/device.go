package recording

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/gpucore"
)

// BackendName is the registry name of the recording device.
const BackendName = "recording"

func init() {
	backend.Register(BackendName, func() (gpucore.Device, error) {
		return New(), nil
	})
}

// Device is a gpucore.Device that records every call.
type Device struct {
	commands []Command
	counts   [cmdCount]int

	buffers      map[gpucore.BufferID]gpucore.BufferDescriptor
	textures     map[gpucore.TextureID]gpucore.TextureDescriptor
	programs     map[gpucore.ProgramID]gpucore.ProgramInfo
	framebuffers map[gpucore.FramebufferID]gpucore.FramebufferDescriptor

	program     gpucore.ProgramID
	framebuffer gpucore.FramebufferID

	failCompile  []string
	lost         bool
	bytesWritten uint64

	nextID atomic.Uint64
}

var _ gpucore.Device = (*Device)(nil)

// New creates an empty recording device.
func New() *Device {
	d := &Device{}
	d.resetTables()
	d.nextID.Store(1)
	return d
}

func (d *Device) resetTables() {
	d.buffers = make(map[gpucore.BufferID]gpucore.BufferDescriptor)
	d.textures = make(map[gpucore.TextureID]gpucore.TextureDescriptor)
	d.programs = make(map[gpucore.ProgramID]gpucore.ProgramInfo)
	d.framebuffers = make(map[gpucore.FramebufferID]gpucore.FramebufferDescriptor)
	d.program = gpucore.InvalidID
	d.framebuffer = gpucore.DefaultFramebuffer
}

func (d *Device) newID() uint64 {
	return d.nextID.Add(1) - 1
}

func (d *Device) record(c Command) {
	d.commands = append(d.commands, c)
	d.counts[c.Type()]++
}

func (d *Device) state(cmd CommandType, args ...any) {
	d.record(StateCommand{Cmd: cmd, Args: args})
}

// Commands returns the recorded commands in call order.
func (d *Device) Commands() []Command {
	return d.commands
}

// Count returns how many commands of type t were recorded.
func (d *Device) Count(t CommandType) int {
	if t >= cmdCount {
		return 0
	}
	return d.counts[t]
}

// BytesWritten returns the total number of bytes passed to WriteBuffer.
func (d *Device) BytesWritten() uint64 {
	return d.bytesWritten
}

// Reset clears the command log and counters. Resources stay alive.
func (d *Device) Reset() {
	d.commands = d.commands[:0]
	d.counts = [cmdCount]int{}
	d.bytesWritten = 0
}

// FailCompile makes CreateProgram fail for every source containing substr.
// An empty substr fails every compile.
func (d *Device) FailCompile(substr string) {
	d.failCompile = append(d.failCompile, substr)
}

// ClearCompileFailures removes every FailCompile rule.
func (d *Device) ClearCompileFailures() {
	d.failCompile = nil
}

// LoseContext simulates a lost graphics context. All IDs become invalid.
func (d *Device) LoseContext() {
	d.lost = true
	d.resetTables()
}

// RestoreContext ends a simulated context loss.
func (d *Device) RestoreContext() {
	d.lost = false
}

// IsContextLost implements gpucore.Device.
func (d *Device) IsContextLost() bool {
	return d.lost
}

// LiveBuffers returns the number of buffers not yet destroyed.
func (d *Device) LiveBuffers() int { return len(d.buffers) }

// LiveTextures returns the number of textures not yet destroyed.
func (d *Device) LiveTextures() int { return len(d.textures) }

// LivePrograms returns the number of programs not yet destroyed.
func (d *Device) LivePrograms() int { return len(d.programs) }

// LiveFramebuffers returns the number of framebuffers not yet destroyed.
func (d *Device) LiveFramebuffers() int { return len(d.framebuffers) }

// BufferSize returns the allocated size of a live buffer.
func (d *Device) BufferSize(id gpucore.BufferID) (uint64, bool) {
	desc, ok := d.buffers[id]
	return desc.Size, ok
}

// TextureDesc returns the descriptor of a live texture.
func (d *Device) TextureDesc(id gpucore.TextureID) (gpucore.TextureDescriptor, bool) {
	desc, ok := d.textures[id]
	return desc, ok
}

// CreateBuffer implements gpucore.Device.
func (d *Device) CreateBuffer(desc gpucore.BufferDescriptor) (gpucore.BufferID, error) {
	if d.lost {
		return gpucore.InvalidID, gpucore.ErrContextLost
	}
	if desc.Size == 0 {
		return gpucore.InvalidID, fmt.Errorf("recording: create buffer %q: zero size", desc.Label)
	}
	id := gpucore.BufferID(d.newID())
	d.buffers[id] = desc
	d.record(CreateBufferCommand{ID: id, Desc: desc})
	return id, nil
}

// WriteBuffer implements gpucore.Device.
func (d *Device) WriteBuffer(id gpucore.BufferID, offset uint64, data []byte) error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	desc, ok := d.buffers[id]
	if !ok {
		return fmt.Errorf("recording: write buffer %d: %w", id, gpucore.ErrInvalidResource)
	}
	if offset+uint64(len(data)) > desc.Size {
		return fmt.Errorf("recording: write buffer %d: range [%d,%d) exceeds size %d",
			id, offset, offset+uint64(len(data)), desc.Size)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	d.bytesWritten += uint64(len(data))
	d.record(WriteBufferCommand{ID: id, Offset: offset, Data: cp})
	return nil
}

// DestroyBuffer implements gpucore.Device.
func (d *Device) DestroyBuffer(id gpucore.BufferID) {
	if _, ok := d.buffers[id]; !ok {
		return
	}
	delete(d.buffers, id)
	d.record(DestroyBufferCommand{ID: id})
}

// CreateTexture implements gpucore.Device.
func (d *Device) CreateTexture(desc gpucore.TextureDescriptor) (gpucore.TextureID, error) {
	if d.lost {
		return gpucore.InvalidID, gpucore.ErrContextLost
	}
	if desc.Width <= 0 || desc.Height <= 0 {
		return gpucore.InvalidID, fmt.Errorf("recording: create texture %q: invalid size %dx%d",
			desc.Label, desc.Width, desc.Height)
	}
	if desc.Format == gpucore.TextureFormatUndefined {
		return gpucore.InvalidID, fmt.Errorf("recording: create texture %q: %w", desc.Label, gpucore.ErrUnsupported)
	}
	if desc.SampleCount == 0 {
		desc.SampleCount = 1
	}
	if desc.MipLevels == 0 {
		desc.MipLevels = 1
	}
	id := gpucore.TextureID(d.newID())
	d.textures[id] = desc
	d.record(CreateTextureCommand{ID: id, Desc: desc})
	return id, nil
}

// WriteTexture implements gpucore.Device.
func (d *Device) WriteTexture(id gpucore.TextureID, data []byte) error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	desc, ok := d.textures[id]
	if !ok {
		return fmt.Errorf("recording: write texture %d: %w", id, gpucore.ErrInvalidResource)
	}
	want := desc.Width * desc.Height * desc.Format.BytesPerPixel()
	if len(data) != want {
		return fmt.Errorf("recording: write texture %d: got %d bytes, want %d", id, len(data), want)
	}
	d.record(WriteTextureCommand{ID: id, Size: len(data)})
	return nil
}

// GenerateMipmaps implements gpucore.Device.
func (d *Device) GenerateMipmaps(id gpucore.TextureID) error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	if _, ok := d.textures[id]; !ok {
		return fmt.Errorf("recording: generate mipmaps %d: %w", id, gpucore.ErrInvalidResource)
	}
	d.record(GenerateMipmapsCommand{ID: id})
	return nil
}

// DestroyTexture implements gpucore.Device.
func (d *Device) DestroyTexture(id gpucore.TextureID) {
	if _, ok := d.textures[id]; !ok {
		return
	}
	delete(d.textures, id)
	d.record(DestroyTextureCommand{ID: id})
}

// CreateProgram implements gpucore.Device. Locations are assigned in
// declaration order.
func (d *Device) CreateProgram(desc gpucore.ProgramDescriptor) (gpucore.ProgramID, gpucore.ProgramInfo, error) {
	if d.lost {
		return gpucore.InvalidID, gpucore.ProgramInfo{}, gpucore.ErrContextLost
	}
	for _, s := range d.failCompile {
		if strings.Contains(desc.Source, s) {
			return gpucore.InvalidID, gpucore.ProgramInfo{},
				fmt.Errorf("%w: %s: rule %q matched source", gpucore.ErrShaderCompile, desc.Label, s)
		}
	}
	info := gpucore.ProgramInfo{
		Attributes: make(map[string]int32, len(desc.Attributes)),
		Uniforms:   make(map[string]int32, len(desc.Uniforms)),
		Samplers:   make(map[string]int32, len(desc.Samplers)),
	}
	for i, a := range desc.Attributes {
		info.Attributes[a] = int32(i)
	}
	for i, u := range desc.Uniforms {
		info.Uniforms[u.Name] = int32(i)
	}
	for i, s := range desc.Samplers {
		info.Samplers[s] = int32(i)
	}
	id := gpucore.ProgramID(d.newID())
	d.programs[id] = info
	d.record(CreateProgramCommand{ID: id, Label: desc.Label})
	return id, info, nil
}

// DestroyProgram implements gpucore.Device.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	if _, ok := d.programs[id]; !ok {
		return
	}
	delete(d.programs, id)
	if d.program == id {
		d.program = gpucore.InvalidID
	}
	d.record(DestroyProgramCommand{ID: id})
}

// CreateFramebuffer implements gpucore.Device.
func (d *Device) CreateFramebuffer(desc gpucore.FramebufferDescriptor) (gpucore.FramebufferID, error) {
	if d.lost {
		return gpucore.InvalidID, gpucore.ErrContextLost
	}
	if _, ok := d.textures[desc.Color]; desc.Color != gpucore.InvalidID && !ok {
		return gpucore.InvalidID, fmt.Errorf("recording: framebuffer color: %w", gpucore.ErrInvalidResource)
	}
	if _, ok := d.textures[desc.Depth]; desc.Depth != gpucore.InvalidID && !ok {
		return gpucore.InvalidID, fmt.Errorf("recording: framebuffer depth: %w", gpucore.ErrInvalidResource)
	}
	id := gpucore.FramebufferID(d.newID())
	d.framebuffers[id] = desc
	d.record(CreateFramebufferCommand{ID: id, Desc: desc})
	return id, nil
}

// DestroyFramebuffer implements gpucore.Device.
func (d *Device) DestroyFramebuffer(id gpucore.FramebufferID) {
	if _, ok := d.framebuffers[id]; !ok {
		return
	}
	delete(d.framebuffers, id)
	if d.framebuffer == id {
		d.framebuffer = gpucore.DefaultFramebuffer
	}
	d.record(DestroyFramebufferCommand{ID: id})
}

// BindFramebuffer implements gpucore.Device.
func (d *Device) BindFramebuffer(id gpucore.FramebufferID) {
	d.framebuffer = id
	d.record(BindFramebufferCommand{ID: id})
}

// ResolveFramebuffer implements gpucore.Device.
func (d *Device) ResolveFramebuffer(src, dst gpucore.FramebufferID) error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	if _, ok := d.framebuffers[src]; !ok {
		return fmt.Errorf("recording: resolve source %d: %w", src, gpucore.ErrInvalidResource)
	}
	if _, ok := d.framebuffers[dst]; !ok && dst != gpucore.DefaultFramebuffer {
		return fmt.Errorf("recording: resolve target %d: %w", dst, gpucore.ErrInvalidResource)
	}
	d.record(ResolveFramebufferCommand{Src: src, Dst: dst})
	return nil
}

// CurrentProgram returns the program selected by the last UseProgram.
func (d *Device) CurrentProgram() gpucore.ProgramID {
	return d.program
}

// UseProgram implements gpucore.Device.
func (d *Device) UseProgram(id gpucore.ProgramID) {
	d.program = id
	d.state(CmdUseProgram, id)
}

// BindTexture implements gpucore.Device.
func (d *Device) BindTexture(unit int, id gpucore.TextureID) {
	d.state(CmdBindTexture, unit, id)
}

// SetBlendEnabled implements gpucore.Device.
func (d *Device) SetBlendEnabled(enabled bool) {
	d.state(CmdSetBlendEnabled, enabled)
}

// SetBlendEquation implements gpucore.Device.
func (d *Device) SetBlendEquation(color, alpha gpucore.BlendOperation) {
	d.state(CmdSetBlendEquation, color, alpha)
}

// SetBlendFunc implements gpucore.Device.
func (d *Device) SetBlendFunc(srcColor, dstColor, srcAlpha, dstAlpha gpucore.BlendFactor) {
	d.state(CmdSetBlendFunc, srcColor, dstColor, srcAlpha, dstAlpha)
}

// SetBlendColor implements gpucore.Device.
func (d *Device) SetBlendColor(c gpucore.Color) {
	d.state(CmdSetBlendColor, c)
}

// SetDepthTest implements gpucore.Device.
func (d *Device) SetDepthTest(enabled bool) {
	d.state(CmdSetDepthTest, enabled)
}

// SetDepthWrite implements gpucore.Device.
func (d *Device) SetDepthWrite(enabled bool) {
	d.state(CmdSetDepthWrite, enabled)
}

// SetDepthFunc implements gpucore.Device.
func (d *Device) SetDepthFunc(fn gpucore.CompareFunc) {
	d.state(CmdSetDepthFunc, fn)
}

// SetStencilTest implements gpucore.Device.
func (d *Device) SetStencilTest(enabled bool) {
	d.state(CmdSetStencilTest, enabled)
}

// SetStencilFunc implements gpucore.Device.
func (d *Device) SetStencilFunc(fn gpucore.CompareFunc, ref int32, mask uint32) {
	d.state(CmdSetStencilFunc, fn, ref, mask)
}

// SetStencilOp implements gpucore.Device.
func (d *Device) SetStencilOp(fail, depthFail, pass gpucore.StencilOp) {
	d.state(CmdSetStencilOp, fail, depthFail, pass)
}

// SetStencilWriteMask implements gpucore.Device.
func (d *Device) SetStencilWriteMask(mask uint32) {
	d.state(CmdSetStencilWriteMask, mask)
}

// SetCullMode implements gpucore.Device.
func (d *Device) SetCullMode(mode gpucore.CullMode) {
	d.state(CmdSetCullMode, mode)
}

// SetFrontFace implements gpucore.Device.
func (d *Device) SetFrontFace(face gpucore.FrontFace) {
	d.state(CmdSetFrontFace, face)
}

// SetPolygonOffset implements gpucore.Device.
func (d *Device) SetPolygonOffset(enabled bool, factor, units float32) {
	d.state(CmdSetPolygonOffset, enabled, factor, units)
}

// SetColorMask implements gpucore.Device.
func (d *Device) SetColorMask(r, g, b, a bool) {
	d.state(CmdSetColorMask, r, g, b, a)
}

// SetViewport implements gpucore.Device.
func (d *Device) SetViewport(r gpucore.Rect) {
	d.state(CmdSetViewport, r)
}

// SetScissor implements gpucore.Device.
func (d *Device) SetScissor(enabled bool, r gpucore.Rect) {
	d.state(CmdSetScissor, enabled, r)
}

// SetUniform implements gpucore.Device.
func (d *Device) SetUniform(loc int32, v []float32) {
	cp := make([]float32, len(v))
	copy(cp, v)
	d.record(SetUniformCommand{Location: loc, Values: cp})
}

// SetUniformInt implements gpucore.Device.
func (d *Device) SetUniformInt(loc int32, v int32) {
	d.record(SetUniformCommand{Location: loc, Int: v, IsInt: true})
}

// BindVertexBuffer implements gpucore.Device.
func (d *Device) BindVertexBuffer(location int32, id gpucore.BufferID, layout gpucore.VertexLayout) {
	d.record(BindVertexBufferCommand{Location: location, ID: id, Layout: layout})
}

// BindIndexBuffer implements gpucore.Device.
func (d *Device) BindIndexBuffer(id gpucore.BufferID, format gpucore.IndexFormat) {
	d.record(BindIndexBufferCommand{ID: id, Format: format})
}

// Clear implements gpucore.Device.
func (d *Device) Clear(flags gpucore.ClearFlags, color gpucore.Color, depth float32, stencil uint32) {
	d.record(ClearCommand{Flags: flags, Color: color, Depth: depth, Stencil: stencil})
}

// Draw implements gpucore.Device.
func (d *Device) Draw(topology gpucore.Topology, first, count int) error {
	return d.draw(false, topology, first, count)
}

// DrawIndexed implements gpucore.Device.
func (d *Device) DrawIndexed(topology gpucore.Topology, first, count int) error {
	return d.draw(true, topology, first, count)
}

func (d *Device) draw(indexed bool, topology gpucore.Topology, first, count int) error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	if _, ok := d.programs[d.program]; !ok {
		return fmt.Errorf("recording: draw without program: %w", gpucore.ErrInvalidResource)
	}
	d.record(DrawCommand{
		Indexed:     indexed,
		Topology:    topology,
		First:       first,
		Count:       count,
		Program:     d.program,
		Framebuffer: d.framebuffer,
	})
	return nil
}

// BeginFrame implements gpucore.Device.
func (d *Device) BeginFrame() error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	d.record(FrameCommand{})
	return nil
}

// EndFrame implements gpucore.Device.
func (d *Device) EndFrame() error {
	if d.lost {
		return gpucore.ErrContextLost
	}
	d.record(FrameCommand{End: true})
	return nil
}

// Draws returns every recorded draw in call order.
func (d *Device) Draws() []DrawCommand {
	var out []DrawCommand
	for _, c := range d.commands {
		if dc, ok := c.(DrawCommand); ok {
			out = append(out, dc)
		}
	}
	return out
}

// BufferWrites returns every recorded buffer upload in call order.
func (d *Device) BufferWrites() []WriteBufferCommand {
	var out []WriteBufferCommand
	for _, c := range d.commands {
		if wc, ok := c.(WriteBufferCommand); ok {
			out = append(out, wc)
		}
	}
	return out
}
