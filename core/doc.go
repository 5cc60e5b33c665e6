// Package core holds the CPU-side resources the renderer uploads to the GPU:
// vertex attribute streams ([BufferAttribute]) and images ([Texture]).
//
// Both carry a monotonically increasing version. Mutations bump the version
// and the resource cache re-uploads when it sees a version it has not
// uploaded yet. Attributes additionally record dirty element ranges so a
// partial edit uploads only the touched bytes.
//
// Resources signal disposal through [Disposable.OnDispose]. Caches subscribe
// to that signal instead of holding the CPU object alive.
package core
