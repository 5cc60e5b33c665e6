//go:build !nogpu

package wgpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal/noop"
)

const testShader = `
struct Uniforms {
    color: vec4<f32>,
}

@group(0) @binding(0) var<uniform> u: Uniforms;

@vertex
fn vs_main(@location(0) position: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return u.color;
}
`

// newNoopDevice wraps a noop hal device.
func newNoopDevice(t *testing.T) *Device {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	open, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	d, err := NewFromHAL(open.Device, open.Queue, Config{Width: 8, Height: 8})
	if err != nil {
		open.Device.Destroy()
		instance.Destroy()
		t.Fatalf("NewFromHAL failed: %v", err)
	}
	t.Cleanup(func() {
		d.Destroy()
		open.Device.Destroy()
		instance.Destroy()
	})
	return d
}

func TestPackUniformMat3Padding(t *testing.T) {
	fields, size := gpucore.UniformLayout([]gpucore.UniformDecl{{Name: "normalMatrix", Type: gpucore.UniformMat3}})
	if size != 48 {
		t.Fatalf("UniformLayout() size = %d, want 48", size)
	}
	block := make([]byte, size)
	packUniform(block, fields[0], []float32{1, 2, 3, 4, 5, 6, 7, 8, 9})

	// Column c starts at 16*c; the fourth word of each column is padding.
	want := map[int]float32{0: 1, 4: 2, 8: 3, 16: 4, 20: 5, 24: 6, 32: 7, 36: 8, 40: 9}
	for off, v := range want {
		if got := readFloat(block, off); got != v {
			t.Errorf("block[%d] = %v, want %v", off, got, v)
		}
	}
	for _, off := range []int{12, 28, 44} {
		if got := readFloat(block, off); got != 0 {
			t.Errorf("padding block[%d] = %v, want 0", off, got)
		}
	}
}

func TestPipelineHashIgnoresDisabledState(t *testing.T) {
	base := pipelineDesc{
		program:     1,
		fixed:       defaultDrawState().fixed,
		colorFormat: gpucore.TextureFormatRGBA8Unorm,
		depthFormat: gpucore.TextureFormatDepth32Float,
		samples:     1,
	}
	same := base
	same.fixed.src = gpucore.BlendSrcAlpha
	same.fixed.stencilFunc = gpucore.CompareEqual
	if base.hash() != same.hash() {
		t.Error("hash() differs for state ignored by disabled blend and stencil")
	}

	tests := []struct {
		name   string
		mutate func(*pipelineDesc)
	}{
		{"blend enabled", func(p *pipelineDesc) { p.fixed.blend = true }},
		{"depth func", func(p *pipelineDesc) { p.fixed.depthTest = true; p.fixed.depthFunc = gpucore.CompareLessEqual }},
		{"cull", func(p *pipelineDesc) { p.fixed.cull = gpucore.CullBack }},
		{"topology", func(p *pipelineDesc) { p.topology = gpucore.TopologyLines }},
		{"samples", func(p *pipelineDesc) { p.samples = 4 }},
		{"program", func(p *pipelineDesc) { p.program = 2 }},
		{"vertex format", func(p *pipelineDesc) {
			p.vertices = []gpucore.VertexLayout{{Format: gpucore.VertexFormatFloat32x3}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			if p.hash() == base.hash() {
				t.Errorf("hash() unchanged after %s", tt.name)
			}
		})
	}
}

func TestClipRect(t *testing.T) {
	tests := []struct {
		in   gpucore.Rect
		want gpucore.Rect
	}{
		{gpucore.Rect{X: 0, Y: 0, Width: 4, Height: 4}, gpucore.Rect{X: 0, Y: 0, Width: 4, Height: 4}},
		{gpucore.Rect{X: -2, Y: 6, Width: 4, Height: 4}, gpucore.Rect{X: 0, Y: 6, Width: 2, Height: 2}},
		{gpucore.Rect{X: 10, Y: 10, Width: 4, Height: 4}, gpucore.Rect{}},
	}
	for _, tt := range tests {
		if got := clipRect(tt.in, 8, 8); got != tt.want {
			t.Errorf("clipRect(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCreateProgramCompileError(t *testing.T) {
	d := newNoopDevice(t)
	_, _, err := d.CreateProgram(gpucore.ProgramDescriptor{Label: "broken", Source: "fn vs_main( {"})
	if !errors.Is(err, gpucore.ErrShaderCompile) {
		t.Fatalf("CreateProgram() error = %v, want ErrShaderCompile", err)
	}
	if got := d.Stats().Programs; got != 0 {
		t.Errorf("Programs = %d, want 0", got)
	}
}

func TestCreateProgramLocations(t *testing.T) {
	d := newNoopDevice(t)
	_, info, err := d.CreateProgram(gpucore.ProgramDescriptor{
		Label:      "flat",
		Source:     testShader,
		Attributes: []string{"position"},
		Uniforms:   []gpucore.UniformDecl{{Name: "color", Type: gpucore.UniformVec4}},
	})
	if err != nil {
		t.Fatalf("CreateProgram() error = %v", err)
	}
	if got := info.AttributeLocation("position"); got != 0 {
		t.Errorf("AttributeLocation(position) = %d, want 0", got)
	}
	if got := info.UniformLocation("color"); got != 0 {
		t.Errorf("UniformLocation(color) = %d, want 0", got)
	}
	if got := info.UniformLocation("missing"); got != -1 {
		t.Errorf("UniformLocation(missing) = %d, want -1", got)
	}
}

func TestBufferBookkeeping(t *testing.T) {
	d := newNoopDevice(t)
	id, err := d.CreateBuffer(gpucore.BufferDescriptor{Label: "vertices", Size: 6, Usage: gpucore.BufferUsageVertex})
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if err := d.WriteBuffer(id, 1, []byte{1, 2, 3}); err != nil {
		t.Errorf("WriteBuffer() unaligned error = %v", err)
	}
	if err := d.WriteBuffer(id, 4, []byte{1, 2, 3}); err == nil {
		t.Error("WriteBuffer() past the end should fail")
	}
	d.DestroyBuffer(id)
	if err := d.WriteBuffer(id, 0, []byte{1}); !errors.Is(err, gpucore.ErrInvalidResource) {
		t.Errorf("WriteBuffer() after destroy error = %v, want ErrInvalidResource", err)
	}
	if got := d.Stats().Buffers; got != 0 {
		t.Errorf("Buffers = %d, want 0", got)
	}
}

func TestWriteTextureSizeCheck(t *testing.T) {
	d := newNoopDevice(t)
	id, err := d.CreateTexture(gpucore.TextureDescriptor{
		Label:  "albedo",
		Width:  2,
		Height: 2,
		Format: gpucore.TextureFormatRGBA8Unorm,
		Usage:  gpucore.TextureUsageTextureBinding,
	})
	if err != nil {
		t.Fatalf("CreateTexture() error = %v", err)
	}
	if err := d.WriteTexture(id, make([]byte, 16)); err != nil {
		t.Errorf("WriteTexture() error = %v", err)
	}
	if err := d.WriteTexture(id, make([]byte, 15)); err == nil {
		t.Error("WriteTexture() with short data should fail")
	}
}

func TestDrawOutsideFrame(t *testing.T) {
	d := newNoopDevice(t)
	if err := d.Draw(gpucore.TopologyTriangles, 0, 3); !errors.Is(err, ErrNoFrame) {
		t.Errorf("Draw() error = %v, want ErrNoFrame", err)
	}
	if err := d.EndFrame(); !errors.Is(err, ErrNoFrame) {
		t.Errorf("EndFrame() error = %v, want ErrNoFrame", err)
	}
}

func TestFrameReusesPipelines(t *testing.T) {
	d := newNoopDevice(t)
	prog, info, err := d.CreateProgram(gpucore.ProgramDescriptor{
		Label:      "flat",
		Source:     testShader,
		Attributes: []string{"position"},
		Uniforms:   []gpucore.UniformDecl{{Name: "color", Type: gpucore.UniformVec4}},
	})
	if err != nil {
		t.Fatalf("CreateProgram() error = %v", err)
	}
	vb, err := d.CreateBuffer(gpucore.BufferDescriptor{Label: "triangle", Size: 36, Usage: gpucore.BufferUsageVertex})
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}

	for frame := range 2 {
		if err := d.BeginFrame(); err != nil {
			t.Fatalf("frame %d: BeginFrame() error = %v", frame, err)
		}
		d.BindFramebuffer(gpucore.DefaultFramebuffer)
		d.Clear(gpucore.ClearColor|gpucore.ClearDepth, gpucore.Color{A: 1}, 1, 0)
		d.UseProgram(prog)
		d.SetUniform(info.UniformLocation("color"), []float32{1, 0, 0, 1})
		d.BindVertexBuffer(0, vb, gpucore.VertexLayout{Format: gpucore.VertexFormatFloat32x3, Stride: 12})
		for range 3 {
			if err := d.Draw(gpucore.TopologyTriangles, 0, 3); err != nil {
				t.Fatalf("frame %d: Draw() error = %v", frame, err)
			}
		}
		if err := d.EndFrame(); err != nil {
			t.Fatalf("frame %d: EndFrame() error = %v", frame, err)
		}
	}

	s := d.Stats()
	if s.Draws != 6 {
		t.Errorf("Draws = %d, want 6", s.Draws)
	}
	if s.Passes != 2 {
		t.Errorf("Passes = %d, want 2", s.Passes)
	}
	if s.Pipelines.Misses != 1 || s.Pipelines.Hits != 5 {
		t.Errorf("Pipelines = %+v, want 1 miss and 5 hits", s.Pipelines)
	}
	if s.Pipelines.Len != 1 {
		t.Errorf("Pipelines.Len = %d, want 1", s.Pipelines.Len)
	}
}

func TestUniformPoolAlignment(t *testing.T) {
	d := newNoopDevice(t)
	var p uniformPool
	defer p.destroy(d.device)

	_, off0, err := p.alloc(d.device, 64)
	if err != nil {
		t.Fatalf("alloc() error = %v", err)
	}
	_, off1, err := p.alloc(d.device, 64)
	if err != nil {
		t.Fatalf("alloc() error = %v", err)
	}
	if off0 != 0 || off1 != uniformAlignment {
		t.Errorf("offsets = %d, %d, want 0, %d", off0, off1, uniformAlignment)
	}
	p.reset()
	if _, off, _ := p.alloc(d.device, 64); off != 0 {
		t.Errorf("offset after reset = %d, want 0", off)
	}
	if len(p.chunks) != 1 {
		t.Errorf("chunks = %d, want 1", len(p.chunks))
	}
}

func readFloat(b []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[off:]))
}

func TestReadPixelsInsideFrame(t *testing.T) {
	d := newNoopDevice(t)
	if err := d.BeginFrame(); err != nil {
		t.Fatalf("BeginFrame() error = %v", err)
	}
	if _, err := d.ReadPixels(gpucore.DefaultFramebuffer); err == nil {
		t.Error("ReadPixels() inside frame = nil error, want error")
	}
	if err := d.EndFrame(); err != nil {
		t.Fatalf("EndFrame() error = %v", err)
	}
}

func TestSwapRedBlue(t *testing.T) {
	pix := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	swapRedBlue(pix)
	want := []byte{3, 2, 1, 4, 7, 6, 5, 8}
	for i := range pix {
		if pix[i] != want[i] {
			t.Fatalf("swapRedBlue() = %v, want %v", pix, want)
		}
	}
}
