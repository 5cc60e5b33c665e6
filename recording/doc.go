// Package recording provides a headless gpucore.Device that records every
// call as a typed command.
//
// Commands are stored in order and can be inspected by tests and tools.
// Design follows Cairo's approach of typed command structs for
// inspectability and debuggability, rather than an opaque byte stream.
//
// The device keeps enough resource bookkeeping to validate IDs, reports
// buffer write sizes, and can simulate a lost graphics context or a
// failing shader compiler:
//
//	dev := recording.New()
//	dev.FailCompile("#error")
//	...
//	dev.LoseContext()
//	if !dev.IsContextLost() { ... }
//	dev.RestoreContext()
//
// The recording device is registered with the backend registry under the
// name "recording" so demos can run without a GPU.
package recording
