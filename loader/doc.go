// Package loader decodes textures and geometry off the render thread.
//
// Loads return a Future immediately. Work runs on a bounded pool of
// goroutines; results are handed to the render thread by Poll, which the
// renderer calls once per frame. A texture future carries its texture from
// the start: it samples the shared placeholder until Poll installs the
// decoded pixels and bumps its version.
//
//	l := loader.New(loader.Options{})
//	f := l.LoadTexture(ctx, "assets/brick.webp")
//	tex, _ := f.Result() // usable at once, not Ready yet
//	...
//	for _, done := range l.Poll() {
//		if done.Err() != nil { ... }
//	}
//
// Image decoding registers PNG, JPEG and GIF from the standard library and
// WebP and BMP from golang.org/x/image. Geometry is read from Wavefront OBJ.
package loader
