// Package g3d is a retained-mode 3D renderer: a scene graph of nodes with
// meshes, cameras and lights, drawn through a caching GPU pipeline.
//
// # Overview
//
// A Renderer owns the scene graph and every GPU-side cache. The caller builds
// nodes, geometry and materials once, then calls RenderFrame on every display
// tick. Per frame the renderer updates world matrices, resolves the camera,
// builds a culled and sorted render list, draws shadow maps, the
// transmission source, and the opaque, transmissive and transparent buckets,
// then resolves and presents.
//
// Work that does not change between frames is not repeated: attribute and
// texture uploads follow version counters and dirty ranges, shader programs
// are keyed by their resolved permutation and shared by every draw with the
// same key, and fixed-function state is diffed against the last value
// applied.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/g3d"
//	    "github.com/gogpu/g3d/geometry"
//	    "github.com/gogpu/g3d/material"
//	    "github.com/gogpu/g3d/scene"
//	)
//
//	r, err := g3d.New(g3d.WithSize(800, 600))
//	if err != nil { ... }
//	defer r.Dispose()
//
//	root := r.CreateNode()
//	cam := r.CreateNode()
//	r.SetCamera(cam, scene.NewPerspectiveCamera(50, 800.0/600.0, 0.1, 100))
//	r.Attach(root, cam)
//
//	box := r.CreateNode()
//	mat := r.CreateMaterial(material.Standard, material.Config{Roughness: material.Ptr[float32](0.4)})
//	r.CreateMesh(box, geometry.NewBox(1, 1, 1), mat)
//	r.Attach(root, box)
//
//	for running {
//	    if err := r.RenderFrame(root, cam, nil); err != nil { ... }
//	}
//
// # Packages
//
//   - math3d: transforms, bounds, planes and frustums
//   - core, geometry, material: CPU-side resources
//   - resource, program, state, target: GPU caches
//   - scene, renderlist: the graph and its per-frame draw list
//   - gpucore, backend, backend/wgpu, recording: devices
//   - loader: asynchronous texture and model loading
//
// # Errors
//
// Hierarchy and handle misuse is returned synchronously. Resource failures
// (unsupported formats, size mismatches, shader compile errors) skip the
// affected draw, are logged, and counted in Stats. A lost device context
// drops the frame; the first frame after recovery rebuilds every cache.
package g3d
