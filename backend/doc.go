// Package backend provides a registry of pluggable gpucore.Device
// implementations.
//
// Devices are registered via init() functions and selected at runtime.
// Importing a device package registers it:
//
//	import _ "github.com/gogpu/g3d/backend/wgpu"
//	import _ "github.com/gogpu/g3d/recording"
//
// # Device Selection
//
// Use Default() to get the best available device, or Get() to request
// a specific device by name:
//
//	// Get the default (best available) device
//	dev, err := backend.Default()
//
//	// Or request a specific one
//	dev, err := backend.Get("recording")
package backend
