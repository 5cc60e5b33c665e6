package recording

import "github.com/gogpu/g3d/gpucore"

// CommandType identifies the type of a command.
type CommandType uint8

const (
	// Resource commands
	CmdCreateBuffer CommandType = iota
	CmdWriteBuffer
	CmdDestroyBuffer
	CmdCreateTexture
	CmdWriteTexture
	CmdGenerateMipmaps
	CmdDestroyTexture
	CmdCreateProgram
	CmdDestroyProgram
	CmdCreateFramebuffer
	CmdDestroyFramebuffer
	CmdBindFramebuffer
	CmdResolveFramebuffer

	// State commands
	CmdUseProgram
	CmdBindTexture
	CmdSetBlendEnabled
	CmdSetBlendEquation
	CmdSetBlendFunc
	CmdSetBlendColor
	CmdSetDepthTest
	CmdSetDepthWrite
	CmdSetDepthFunc
	CmdSetStencilTest
	CmdSetStencilFunc
	CmdSetStencilOp
	CmdSetStencilWriteMask
	CmdSetCullMode
	CmdSetFrontFace
	CmdSetPolygonOffset
	CmdSetColorMask
	CmdSetViewport
	CmdSetScissor

	// Draw commands
	CmdSetUniform
	CmdBindVertexBuffer
	CmdBindIndexBuffer
	CmdClear
	CmdDraw
	CmdDrawIndexed
	CmdBeginFrame
	CmdEndFrame

	cmdCount
)

var commandTypeNames = [...]string{
	CmdCreateBuffer:        "CreateBuffer",
	CmdWriteBuffer:         "WriteBuffer",
	CmdDestroyBuffer:       "DestroyBuffer",
	CmdCreateTexture:       "CreateTexture",
	CmdWriteTexture:        "WriteTexture",
	CmdGenerateMipmaps:     "GenerateMipmaps",
	CmdDestroyTexture:      "DestroyTexture",
	CmdCreateProgram:       "CreateProgram",
	CmdDestroyProgram:      "DestroyProgram",
	CmdCreateFramebuffer:   "CreateFramebuffer",
	CmdDestroyFramebuffer:  "DestroyFramebuffer",
	CmdBindFramebuffer:     "BindFramebuffer",
	CmdResolveFramebuffer:  "ResolveFramebuffer",
	CmdUseProgram:          "UseProgram",
	CmdBindTexture:         "BindTexture",
	CmdSetBlendEnabled:     "SetBlendEnabled",
	CmdSetBlendEquation:    "SetBlendEquation",
	CmdSetBlendFunc:        "SetBlendFunc",
	CmdSetBlendColor:       "SetBlendColor",
	CmdSetDepthTest:        "SetDepthTest",
	CmdSetDepthWrite:       "SetDepthWrite",
	CmdSetDepthFunc:        "SetDepthFunc",
	CmdSetStencilTest:      "SetStencilTest",
	CmdSetStencilFunc:      "SetStencilFunc",
	CmdSetStencilOp:        "SetStencilOp",
	CmdSetStencilWriteMask: "SetStencilWriteMask",
	CmdSetCullMode:         "SetCullMode",
	CmdSetFrontFace:        "SetFrontFace",
	CmdSetPolygonOffset:    "SetPolygonOffset",
	CmdSetColorMask:        "SetColorMask",
	CmdSetViewport:         "SetViewport",
	CmdSetScissor:          "SetScissor",
	CmdSetUniform:          "SetUniform",
	CmdBindVertexBuffer:    "BindVertexBuffer",
	CmdBindIndexBuffer:     "BindIndexBuffer",
	CmdClear:               "Clear",
	CmdDraw:                "Draw",
	CmdDrawIndexed:         "DrawIndexed",
	CmdBeginFrame:          "BeginFrame",
	CmdEndFrame:            "EndFrame",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// --------------------------------------------------------------------------
// Resource Commands
// --------------------------------------------------------------------------

// CreateBufferCommand records a buffer allocation.
type CreateBufferCommand struct {
	ID   gpucore.BufferID
	Desc gpucore.BufferDescriptor
}

// Type implements Command.
func (CreateBufferCommand) Type() CommandType { return CmdCreateBuffer }

// WriteBufferCommand records a buffer upload. Data is a copy of the
// uploaded bytes.
type WriteBufferCommand struct {
	ID     gpucore.BufferID
	Offset uint64
	Data   []byte
}

// Type implements Command.
func (WriteBufferCommand) Type() CommandType { return CmdWriteBuffer }

// DestroyBufferCommand records a buffer release.
type DestroyBufferCommand struct {
	ID gpucore.BufferID
}

// Type implements Command.
func (DestroyBufferCommand) Type() CommandType { return CmdDestroyBuffer }

// CreateTextureCommand records a texture allocation.
type CreateTextureCommand struct {
	ID   gpucore.TextureID
	Desc gpucore.TextureDescriptor
}

// Type implements Command.
func (CreateTextureCommand) Type() CommandType { return CmdCreateTexture }

// WriteTextureCommand records a base level texture upload.
type WriteTextureCommand struct {
	ID   gpucore.TextureID
	Size int
}

// Type implements Command.
func (WriteTextureCommand) Type() CommandType { return CmdWriteTexture }

// GenerateMipmapsCommand records mip chain generation.
type GenerateMipmapsCommand struct {
	ID gpucore.TextureID
}

// Type implements Command.
func (GenerateMipmapsCommand) Type() CommandType { return CmdGenerateMipmaps }

// DestroyTextureCommand records a texture release.
type DestroyTextureCommand struct {
	ID gpucore.TextureID
}

// Type implements Command.
func (DestroyTextureCommand) Type() CommandType { return CmdDestroyTexture }

// CreateProgramCommand records a program compile.
type CreateProgramCommand struct {
	ID    gpucore.ProgramID
	Label string
}

// Type implements Command.
func (CreateProgramCommand) Type() CommandType { return CmdCreateProgram }

// DestroyProgramCommand records a program release.
type DestroyProgramCommand struct {
	ID gpucore.ProgramID
}

// Type implements Command.
func (DestroyProgramCommand) Type() CommandType { return CmdDestroyProgram }

// CreateFramebufferCommand records framebuffer creation.
type CreateFramebufferCommand struct {
	ID   gpucore.FramebufferID
	Desc gpucore.FramebufferDescriptor
}

// Type implements Command.
func (CreateFramebufferCommand) Type() CommandType { return CmdCreateFramebuffer }

// DestroyFramebufferCommand records framebuffer release.
type DestroyFramebufferCommand struct {
	ID gpucore.FramebufferID
}

// Type implements Command.
func (DestroyFramebufferCommand) Type() CommandType { return CmdDestroyFramebuffer }

// BindFramebufferCommand records a render target switch.
type BindFramebufferCommand struct {
	ID gpucore.FramebufferID
}

// Type implements Command.
func (BindFramebufferCommand) Type() CommandType { return CmdBindFramebuffer }

// ResolveFramebufferCommand records a multisample resolve.
type ResolveFramebufferCommand struct {
	Src, Dst gpucore.FramebufferID
}

// Type implements Command.
func (ResolveFramebufferCommand) Type() CommandType { return CmdResolveFramebuffer }

// --------------------------------------------------------------------------
// State Commands
// --------------------------------------------------------------------------

// StateCommand records one fixed-function state change. Args holds the
// setter arguments in declaration order.
type StateCommand struct {
	Cmd  CommandType
	Args []any
}

// Type implements Command.
func (c StateCommand) Type() CommandType { return c.Cmd }

// --------------------------------------------------------------------------
// Draw Commands
// --------------------------------------------------------------------------

// SetUniformCommand records a uniform write.
type SetUniformCommand struct {
	Location int32
	Values   []float32
	Int      int32
	IsInt    bool
}

// Type implements Command.
func (SetUniformCommand) Type() CommandType { return CmdSetUniform }

// BindVertexBufferCommand records an attribute binding.
type BindVertexBufferCommand struct {
	Location int32
	ID       gpucore.BufferID
	Layout   gpucore.VertexLayout
}

// Type implements Command.
func (BindVertexBufferCommand) Type() CommandType { return CmdBindVertexBuffer }

// BindIndexBufferCommand records an index binding.
type BindIndexBufferCommand struct {
	ID     gpucore.BufferID
	Format gpucore.IndexFormat
}

// Type implements Command.
func (BindIndexBufferCommand) Type() CommandType { return CmdBindIndexBuffer }

// ClearCommand records an attachment clear.
type ClearCommand struct {
	Flags   gpucore.ClearFlags
	Color   gpucore.Color
	Depth   float32
	Stencil uint32
}

// Type implements Command.
func (ClearCommand) Type() CommandType { return CmdClear }

// DrawCommand records a draw call with the program and framebuffer that
// were current when it was issued.
type DrawCommand struct {
	Indexed     bool
	Topology    gpucore.Topology
	First       int
	Count       int
	Program     gpucore.ProgramID
	Framebuffer gpucore.FramebufferID
}

// Type implements Command.
func (c DrawCommand) Type() CommandType {
	if c.Indexed {
		return CmdDrawIndexed
	}
	return CmdDraw
}

// FrameCommand records a frame boundary.
type FrameCommand struct {
	End bool
}

// Type implements Command.
func (c FrameCommand) Type() CommandType {
	if c.End {
		return CmdEndFrame
	}
	return CmdBeginFrame
}
