// Package resource maps CPU-side attributes and textures to GPU buffers and
// textures, re-uploading only what changed.
//
// The [Cache] never keeps the CPU objects alive: entries are keyed by the
// resource identity and evicted when the resource announces disposal.
//
// # Attribute Uploads
//
// The first [Cache.Upload] allocates a buffer sized to the whole array.
// Later uploads compare versions; a changed attribute re-sends either the
// whole array or, when update ranges were declared, only those ranges
// after merging overlapping and adjacent ones. A changed array length fails
// with [ErrSizeMismatch] until [Cache.Reallocate] is called.
//
// # Texture Uploads
//
// [Cache.UploadTexture] skips unchanged versions, substitutes a shared 1x1
// placeholder for textures that are not ready, and generates mipmaps only
// when the texture asks for them and its minification filter reads them.
package resource
