package gpucore

// BufferDescriptor describes a buffer allocation.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage BufferUsage
	Hint  UsageHint
}

// TextureDescriptor describes a 2D texture allocation.
type TextureDescriptor struct {
	Label       string
	Width       int
	Height      int
	Format      TextureFormat
	Usage       TextureUsage
	SampleCount int
	MipLevels   int
	Sampler     SamplerState
}

// UniformDecl declares one uniform a program consumes.
type UniformDecl struct {
	Name string
	Type UniformType
}

// ProgramDescriptor is the assembled source of a program plus the
// interface the source declares. Source holds a single module with a
// vs_main and an fs_main entry point.
type ProgramDescriptor struct {
	Label      string
	Source     string
	Attributes []string
	Uniforms   []UniformDecl
	Samplers   []string
}

// ProgramInfo maps the declared program interface to device locations.
// A location of -1 means the name was optimized away or never declared.
type ProgramInfo struct {
	Attributes map[string]int32
	Uniforms   map[string]int32
	Samplers   map[string]int32
}

// AttributeLocation returns the location of name, or -1.
func (p ProgramInfo) AttributeLocation(name string) int32 {
	if loc, ok := p.Attributes[name]; ok {
		return loc
	}
	return -1
}

// UniformLocation returns the location of name, or -1.
func (p ProgramInfo) UniformLocation(name string) int32 {
	if loc, ok := p.Uniforms[name]; ok {
		return loc
	}
	return -1
}

// SamplerUnit returns the texture unit bound to sampler name, or -1.
func (p ProgramInfo) SamplerUnit(name string) int32 {
	if loc, ok := p.Samplers[name]; ok {
		return loc
	}
	return -1
}

// FramebufferDescriptor groups render attachments. Color and Depth may be
// multisampled; they must then share one sample count.
type FramebufferDescriptor struct {
	Label string
	Color TextureID
	Depth TextureID
}

// Device abstracts a graphics API with a state-machine interface.
//
// Resource lifecycle:
//   - Resources are created via Create* methods
//   - Resources must be explicitly destroyed via Destroy* methods
//   - IDs become invalid after destruction and after context loss
//
// State setters never fail. Their effect is observed by the next Draw or
// DrawIndexed. A Device is used from a single goroutine.
type Device interface {
	// === Buffers ===

	CreateBuffer(desc BufferDescriptor) (BufferID, error)
	WriteBuffer(id BufferID, offset uint64, data []byte) error
	DestroyBuffer(id BufferID)

	// === Textures ===

	CreateTexture(desc TextureDescriptor) (TextureID, error)

	// WriteTexture uploads the whole base mip level.
	WriteTexture(id TextureID, data []byte) error

	// GenerateMipmaps fills mip levels 1..n from level 0.
	GenerateMipmaps(id TextureID) error
	DestroyTexture(id TextureID)

	// === Programs ===

	// CreateProgram compiles and links desc. Failures wrap ErrShaderCompile
	// and carry the compiler diagnostic in the error text.
	CreateProgram(desc ProgramDescriptor) (ProgramID, ProgramInfo, error)
	DestroyProgram(id ProgramID)

	// === Framebuffers ===

	CreateFramebuffer(desc FramebufferDescriptor) (FramebufferID, error)
	DestroyFramebuffer(id FramebufferID)

	// BindFramebuffer directs subsequent Clear and Draw calls.
	BindFramebuffer(id FramebufferID)

	// ResolveFramebuffer blits the multisampled color of src into the
	// single-sample color of dst.
	ResolveFramebuffer(src, dst FramebufferID) error

	// === Fixed-function state ===

	UseProgram(id ProgramID)
	BindTexture(unit int, id TextureID)
	SetBlendEnabled(enabled bool)
	SetBlendEquation(color, alpha BlendOperation)
	SetBlendFunc(srcColor, dstColor, srcAlpha, dstAlpha BlendFactor)
	SetBlendColor(c Color)
	SetDepthTest(enabled bool)
	SetDepthWrite(enabled bool)
	SetDepthFunc(fn CompareFunc)
	SetStencilTest(enabled bool)
	SetStencilFunc(fn CompareFunc, ref int32, mask uint32)
	SetStencilOp(fail, depthFail, pass StencilOp)
	SetStencilWriteMask(mask uint32)
	SetCullMode(mode CullMode)
	SetFrontFace(face FrontFace)
	SetPolygonOffset(enabled bool, factor, units float32)
	SetColorMask(r, g, b, a bool)
	SetViewport(r Rect)
	SetScissor(enabled bool, r Rect)

	// === Draw ===

	// SetUniform stores v at location loc of the current program. The length
	// of v must match the declared uniform type.
	SetUniform(loc int32, v []float32)
	SetUniformInt(loc int32, v int32)
	BindVertexBuffer(location int32, id BufferID, layout VertexLayout)
	BindIndexBuffer(id BufferID, format IndexFormat)
	Clear(flags ClearFlags, color Color, depth float32, stencil uint32)
	Draw(topology Topology, first, count int) error
	DrawIndexed(topology Topology, first, count int) error

	// === Frame ===

	// BeginFrame opens a frame. EndFrame submits all recorded work and
	// presents the default framebuffer.
	BeginFrame() error
	EndFrame() error
	IsContextLost() bool
}
