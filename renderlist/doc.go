// Package renderlist builds the per-frame draw lists of a camera.
//
// Build walks the visible part of a scene graph, culls meshes whose world
// bounding sphere lies outside the camera frustum, expands geometry groups
// into one DrawItem per group and distributes items into three buckets:
// transmissive, opaque and transparent. Each bucket is sorted stably; opaque
// front to back, the others back to front.
//
// Lists are transient. A Builder reuses its list storage across frames.
package renderlist
