package g3d

import (
	"errors"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/program"
	"github.com/gogpu/g3d/resource"
	"github.com/gogpu/g3d/scene"
)

// Errors surfaced by the renderer. Resource-level errors are logged and the
// affected draw is skipped; they reach callers only through Stats and the
// log. Hierarchy and handle errors are returned synchronously.
var (
	// ErrUnsupportedFormat reports an attribute or texture element type the
	// device has no format for.
	ErrUnsupportedFormat = resource.ErrUnsupportedFormat

	// ErrSizeMismatch reports a re-upload whose size differs from the
	// allocation. Call Reallocate explicitly.
	ErrSizeMismatch = resource.ErrSizeMismatch

	// ErrShaderCompile is unwrapped from every *ShaderCompileError.
	ErrShaderCompile = program.ErrShaderCompile

	// ErrContextLost reports that the device lost its context. The frame is
	// dropped and the next frame rebuilds GPU state.
	ErrContextLost = gpucore.ErrContextLost

	// ErrInvalidHierarchy reports an attach that would create a cycle.
	ErrInvalidHierarchy = scene.ErrInvalidHierarchy

	// ErrInvalidNode reports a stale or nil node handle.
	ErrInvalidNode = scene.ErrInvalidNode

	// ErrDisposed is returned by every call on a disposed Renderer.
	ErrDisposed = errors.New("g3d: renderer disposed")

	// ErrNoCamera is returned by RenderFrame when the camera node carries no
	// camera.
	ErrNoCamera = errors.New("g3d: node has no camera")
)

// ShaderCompileError carries the source and diagnostic of a failed compile.
type ShaderCompileError = program.ShaderCompileError
