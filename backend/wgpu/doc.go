// Package wgpu implements gpucore.Device on the gogpu/wgpu hardware
// abstraction layer.
//
// The device keeps the state-machine model of gpucore and turns it into
// WebGPU objects on demand:
//
//   - each program is one WGSL module validated by naga, one bind group
//     layout and a CPU copy of its uniform block
//   - each Draw resolves the current fixed-function state, vertex layouts and
//     framebuffer formats into a render pipeline cached by FNV-1a hash
//   - each Draw snapshots the uniform block into a pooled uniform buffer
//   - render passes open lazily per framebuffer and close when the
//     framebuffer changes or the frame ends
//
// The package registers itself under the name "wgpu":
//
//	import _ "github.com/gogpu/g3d/backend/wgpu"
//
// Hosts that own a GPU device, such as a gogpu window, pass it with
// NewFromProvider so g3d renders on the same device.
package wgpu
