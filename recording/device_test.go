package recording

import (
	"errors"
	"testing"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/gpucore"
)

func TestRegistered(t *testing.T) {
	dev, err := backend.Get(BackendName)
	if err != nil {
		t.Fatalf("backend.Get(%q) error = %v", BackendName, err)
	}
	if _, ok := dev.(*Device); !ok {
		t.Errorf("backend.Get(%q) = %T, want *Device", BackendName, dev)
	}
}

func TestBufferLifecycle(t *testing.T) {
	d := New()

	id, err := d.CreateBuffer(gpucore.BufferDescriptor{Size: 16, Usage: gpucore.BufferUsageVertex})
	if err != nil {
		t.Fatalf("CreateBuffer() error = %v", err)
	}
	if id == gpucore.InvalidID {
		t.Fatal("CreateBuffer() returned InvalidID")
	}
	if err := d.WriteBuffer(id, 8, make([]byte, 8)); err != nil {
		t.Errorf("WriteBuffer() error = %v", err)
	}
	if err := d.WriteBuffer(id, 12, make([]byte, 8)); err == nil {
		t.Error("WriteBuffer() past end: expected error")
	}
	if got := d.BytesWritten(); got != 8 {
		t.Errorf("BytesWritten() = %d, want 8", got)
	}

	d.DestroyBuffer(id)
	if got := d.LiveBuffers(); got != 0 {
		t.Errorf("LiveBuffers() = %d, want 0", got)
	}
	if err := d.WriteBuffer(id, 0, []byte{1}); !errors.Is(err, gpucore.ErrInvalidResource) {
		t.Errorf("WriteBuffer() after destroy error = %v, want ErrInvalidResource", err)
	}
}

func TestCreateProgramLocations(t *testing.T) {
	d := New()
	_, info, err := d.CreateProgram(gpucore.ProgramDescriptor{
		Source:     "fn vs_main() {}",
		Attributes: []string{"position", "normal"},
		Uniforms:   []gpucore.UniformDecl{{Name: "modelMatrix", Type: gpucore.UniformMat4}},
		Samplers:   []string{"map"},
	})
	if err != nil {
		t.Fatalf("CreateProgram() error = %v", err)
	}
	if got := info.AttributeLocation("normal"); got != 1 {
		t.Errorf("AttributeLocation(normal) = %d, want 1", got)
	}
	if got := info.UniformLocation("modelMatrix"); got != 0 {
		t.Errorf("UniformLocation(modelMatrix) = %d, want 0", got)
	}
	if got := info.UniformLocation("missing"); got != -1 {
		t.Errorf("UniformLocation(missing) = %d, want -1", got)
	}
	if got := info.SamplerUnit("map"); got != 0 {
		t.Errorf("SamplerUnit(map) = %d, want 0", got)
	}
}

func TestFailCompile(t *testing.T) {
	d := New()
	d.FailCompile("#error")

	_, _, err := d.CreateProgram(gpucore.ProgramDescriptor{Label: "bad", Source: "x #error y"})
	if !errors.Is(err, gpucore.ErrShaderCompile) {
		t.Fatalf("CreateProgram() error = %v, want ErrShaderCompile", err)
	}
	if d.LivePrograms() != 0 {
		t.Errorf("LivePrograms() = %d, want 0", d.LivePrograms())
	}

	d.ClearCompileFailures()
	if _, _, err := d.CreateProgram(gpucore.ProgramDescriptor{Source: "x #error y"}); err != nil {
		t.Errorf("CreateProgram() after clear error = %v", err)
	}
}

func TestContextLoss(t *testing.T) {
	d := New()
	id, _ := d.CreateBuffer(gpucore.BufferDescriptor{Size: 4})

	d.LoseContext()
	if !d.IsContextLost() {
		t.Fatal("IsContextLost() = false after LoseContext")
	}
	if _, err := d.CreateBuffer(gpucore.BufferDescriptor{Size: 4}); !errors.Is(err, gpucore.ErrContextLost) {
		t.Errorf("CreateBuffer() error = %v, want ErrContextLost", err)
	}
	if err := d.Draw(gpucore.TopologyTriangles, 0, 3); !errors.Is(err, gpucore.ErrContextLost) {
		t.Errorf("Draw() error = %v, want ErrContextLost", err)
	}

	d.RestoreContext()
	if err := d.WriteBuffer(id, 0, []byte{1}); !errors.Is(err, gpucore.ErrInvalidResource) {
		t.Errorf("WriteBuffer() with stale ID error = %v, want ErrInvalidResource", err)
	}
}

func TestDrawRecordsCurrentState(t *testing.T) {
	d := New()
	prog, _, _ := d.CreateProgram(gpucore.ProgramDescriptor{Source: "ok"})
	color, _ := d.CreateTexture(gpucore.TextureDescriptor{Width: 4, Height: 4, Format: gpucore.TextureFormatRGBA8Unorm})
	fb, _ := d.CreateFramebuffer(gpucore.FramebufferDescriptor{Color: color})

	if err := d.Draw(gpucore.TopologyTriangles, 0, 3); err == nil {
		t.Error("Draw() without program: expected error")
	}

	d.UseProgram(prog)
	d.BindFramebuffer(fb)
	if err := d.DrawIndexed(gpucore.TopologyTriangles, 0, 6); err != nil {
		t.Fatalf("DrawIndexed() error = %v", err)
	}

	draws := d.Draws()
	if len(draws) != 1 {
		t.Fatalf("len(Draws()) = %d, want 1", len(draws))
	}
	if draws[0].Program != prog || draws[0].Framebuffer != fb || !draws[0].Indexed {
		t.Errorf("Draws()[0] = %+v", draws[0])
	}
	if got := d.Count(CmdDrawIndexed); got != 1 {
		t.Errorf("Count(DrawIndexed) = %d, want 1", got)
	}
	if got := d.Count(CmdUseProgram); got != 1 {
		t.Errorf("Count(UseProgram) = %d, want 1", got)
	}
}

func TestWriteTextureSize(t *testing.T) {
	d := New()
	id, err := d.CreateTexture(gpucore.TextureDescriptor{Width: 2, Height: 2, Format: gpucore.TextureFormatRGBA8Unorm})
	if err != nil {
		t.Fatalf("CreateTexture() error = %v", err)
	}
	if err := d.WriteTexture(id, make([]byte, 16)); err != nil {
		t.Errorf("WriteTexture(16) error = %v", err)
	}
	if err := d.WriteTexture(id, make([]byte, 15)); err == nil {
		t.Error("WriteTexture(15): expected error")
	}
}

func TestCommandTypeString(t *testing.T) {
	tests := []struct {
		c    CommandType
		want string
	}{
		{CmdCreateBuffer, "CreateBuffer"},
		{CmdDrawIndexed, "DrawIndexed"},
		{CmdEndFrame, "EndFrame"},
		{CommandType(250), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("CommandType(%d).String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}
