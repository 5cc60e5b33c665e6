// Package gpucore defines the graphics API abstraction the g3d renderer
// draws through.
//
// The [Device] interface is deliberately small and state-machine shaped:
// resources are created and destroyed through opaque IDs, fixed-function
// state is set with individual setters, and draws consume whatever state
// is current. Concrete devices translate these calls to a real API:
//
//	+----------------------+
//	|   g3d.Renderer       |
//	|   state.Machine      |
//	+----------+-----------+
//	           | gpucore.Device
//	   +-------+---------+
//	   |                 |
//	+--v-----------+  +--v-----------+
//	| backend/wgpu |  |  recording   |
//	| (hal.Device) |  | (headless)   |
//	+--------------+  +--------------+
//
// # Resource IDs
//
// IDs are uint64 values. The zero value [InvalidID] never names a live
// resource. Each Device maintains its own mapping from IDs to backend
// objects, so IDs from different devices must not be mixed.
//
// # Context Loss
//
// A Device may lose its underlying context at any time (driver reset,
// surface loss). Once lost, every call that can fail returns
// [ErrContextLost] and [Device.IsContextLost] reports true until the host
// restores the device. All IDs issued before the loss are invalid.
package gpucore
