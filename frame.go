package g3d

import (
	"errors"
	"fmt"

	"github.com/gogpu/g3d/core"
	"github.com/gogpu/g3d/geometry"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/internal/color"
	"github.com/gogpu/g3d/material"
	"github.com/gogpu/g3d/math3d"
	"github.com/gogpu/g3d/program"
	"github.com/gogpu/g3d/renderlist"
	"github.com/gogpu/g3d/resource"
	"github.com/gogpu/g3d/scene"
	"github.com/gogpu/g3d/target"
)

// shadowClear packs to the far plane in the depth material encoding.
var shadowClear = gpucore.Color{R: 1, G: 1, B: 1, A: 1}

// pass is one framebuffer draw sequence.
type pass struct {
	name     string
	view     scene.View
	fb       gpucore.FramebufferID
	viewport gpucore.Rect
	serial   uint64
	shadow   bool
}

// RenderFrame draws the subtree under root as seen by the camera on the
// camera node, into out or into the default framebuffer when out is nil.
//
// The frame runs in a fixed order: loader delivery, world matrix update,
// camera resolve, render list build, shadow passes, the transmission source
// pass, then opaque, transmissive and transparent draws, resolve, present.
//
// A draw that fails on a resource is logged and skipped. A lost context
// drops the frame and returns an error wrapping ErrContextLost; the first
// frame after the device recovers rebuilds every cache.
func (r *Renderer) RenderFrame(root, camera scene.NodeID, out *target.Target) error {
	if r.disposed {
		return ErrDisposed
	}
	r.pollLoader()

	if r.dev.IsContextLost() {
		return r.drop(ErrContextLost)
	}
	if r.needsReset {
		r.reset()
	}

	r.graph.UpdateAll()
	view, err := r.graph.ResolveView(camera, r.opts.depthRange)
	if err != nil {
		if r.graph.Valid(camera) {
			return ErrNoCamera
		}
		return fmt.Errorf("g3d: render frame camera: %w", err)
	}
	list := r.builder.Build(r.graph, root, view)
	r.collectLights(list.Lights)
	r.prepareEnv(out)

	before := r.resources.Stats()
	stateBefore := r.state.Stats()
	fs := FrameStats{Culled: list.Culled}

	if err := r.dev.BeginFrame(); err != nil {
		return r.drop(err)
	}
	err = r.renderPasses(list, view, out, &fs)
	if endErr := r.dev.EndFrame(); err == nil {
		err = endErr
	}
	if err != nil {
		return r.drop(err)
	}

	after := r.resources.Stats()
	stateAfter := r.state.Stats()
	fs.Uploads = (after.FullUploads - before.FullUploads) +
		(after.RangeUploads - before.RangeUploads) +
		(after.TextureUploads - before.TextureUploads)
	fs.StateChanges = stateAfter.Issued - stateBefore.Issued
	fs.StateSkipped = stateAfter.Skipped - stateBefore.Skipped
	r.stats.Frames++
	r.stats.Last = fs
	return nil
}

// drop ends a frame that could not complete. Context loss schedules a full
// reset for the next frame.
func (r *Renderer) drop(err error) error {
	r.stats.Dropped++
	if errors.Is(err, ErrContextLost) {
		if !r.needsReset {
			Logger().Warn("g3d: context lost, frame dropped")
		}
		r.needsReset = true
	}
	return fmt.Errorf("g3d: render frame: %w", err)
}

func (r *Renderer) pollLoader() {
	if r.loader == nil {
		return
	}
	r.stats.Loads += len(r.loader.Poll())
}

// prepareEnv fixes the environment of the frame. Offscreen targets hold
// linear color.
func (r *Renderer) prepareEnv(out *target.Target) {
	space := r.opts.outputColorSpace
	if out != nil {
		space = program.ColorSpaceLinear
	}
	r.env = program.Env{
		ClippingPlanes:   len(r.opts.clippingPlanes),
		EnvMap:           r.envMode,
		ShadowMap:        r.opts.shadowType,
		ToneMapping:      r.opts.toneMapping,
		OutputColorSpace: space,
	}
	clear(r.frameTextures)
}

func (r *Renderer) renderPasses(list *renderlist.List, view scene.View, out *target.Target, fs *FrameStats) error {
	if err := r.renderShadows(list, fs); err != nil {
		return err
	}
	if r.envMap != nil && r.envMode != program.EnvNone {
		id, err := r.resources.UploadTexture(r.envMap)
		if err != nil {
			if lost(err) {
				return err
			}
			Logger().Warn("g3d: environment map", "err", err)
		} else {
			r.frameTextures["envMap"] = id
		}
	}

	fb, viewport, err := r.output(out)
	if err != nil {
		return err
	}

	if len(list.Transmissive) > 0 {
		if err := r.renderTransmissionSource(list, view, viewport, fs); err != nil {
			return err
		}
	}

	p := r.beginPass("main", view, fb, viewport, r.clearColor())
	fs.Passes++
	for _, items := range [...][]renderlist.DrawItem{list.Opaque, list.Transmissive, list.Transparent} {
		if err := r.drawItems(p, items, fs); err != nil {
			return err
		}
	}
	return r.finishOutput(out)
}

// output returns the framebuffer the main pass draws into.
func (r *Renderer) output(out *target.Target) (gpucore.FramebufferID, gpucore.Rect, error) {
	if out != nil {
		fb, err := r.targets.Framebuffer(out)
		if err != nil {
			return 0, gpucore.Rect{}, fmt.Errorf("g3d: output target: %w", err)
		}
		return fb, out.Viewport(), nil
	}
	w, h := r.DrawingBufferSize()
	viewport := gpucore.Rect{Width: w, Height: h}
	if r.opts.samples <= 1 {
		return gpucore.DefaultFramebuffer, viewport, nil
	}
	if r.msaa == nil {
		t, err := r.targets.Create(target.Options{Label: "msaa", Width: w, Height: h, Samples: r.opts.samples, Depth: true})
		if err != nil {
			return 0, gpucore.Rect{}, fmt.Errorf("g3d: multisample target: %w", err)
		}
		r.msaa = t
	}
	fb, err := r.targets.Framebuffer(r.msaa)
	if err != nil {
		return 0, gpucore.Rect{}, fmt.Errorf("g3d: multisample target: %w", err)
	}
	return fb, viewport, nil
}

// finishOutput resolves multisampled output.
func (r *Renderer) finishOutput(out *target.Target) error {
	if out != nil {
		r.targets.MarkRendered(out)
		if err := r.targets.Resolve(out); err != nil {
			return fmt.Errorf("g3d: resolve output: %w", err)
		}
		return nil
	}
	if r.msaa == nil {
		return nil
	}
	fb, err := r.targets.Framebuffer(r.msaa)
	if err != nil {
		return err
	}
	if err := r.dev.ResolveFramebuffer(fb, gpucore.DefaultFramebuffer); err != nil {
		return fmt.Errorf("g3d: resolve default framebuffer: %w", err)
	}
	return nil
}

// clearColor returns the clear color encoded for the current output color
// space. The option holds display (sRGB) values.
func (r *Renderer) clearColor() gpucore.Color {
	if r.env.OutputColorSpace == program.ColorSpaceLinear {
		return color.ToLinear(r.opts.clearColor)
	}
	return r.opts.clearColor
}

// beginPass binds fb, clears it and opens a uniform scope: programs used in
// the pass receive view and light uniforms once.
func (r *Renderer) beginPass(name string, view scene.View, fb gpucore.FramebufferID, viewport gpucore.Rect, clearColor gpucore.Color) *pass {
	r.passSerial++
	r.state.BindFramebuffer(fb)
	r.state.SetViewport(viewport)
	r.state.SetScissor(false, gpucore.Rect{})
	r.state.SetColorMask(true, true, true, true)
	r.state.SetDepthMask(true)
	r.state.SetStencilMask(0xFF)
	r.dev.Clear(gpucore.ClearColor|gpucore.ClearDepth|gpucore.ClearStencil, clearColor, 1, 0)
	Logger().Debug("g3d: pass", "name", name, "framebuffer", fb, "viewport", viewport)
	return &pass{name: name, view: view, fb: fb, viewport: viewport, serial: r.passSerial}
}

// renderShadows draws every shadow caster's depth into its shadow map.
func (r *Renderer) renderShadows(list *renderlist.List, fs *FrameStats) error {
	used := make(map[*scene.Light]bool, len(r.lights.casters))
	for _, c := range r.lights.casters {
		used[c.light] = true
		t, err := r.shadowMap(c.light)
		if err != nil {
			return err
		}
		fb, err := r.targets.Framebuffer(t)
		if err != nil {
			return fmt.Errorf("g3d: shadow map: %w", err)
		}
		p := r.beginPass("shadow", c.view, fb, t.Viewport(), shadowClear)
		p.shadow = true
		fs.Passes++
		for i := range list.Shadow {
			it := &list.Shadow[i]
			sphere := it.Geometry.BoundingSphere().ApplyMat4(it.World)
			if !sphere.IsEmpty() && !c.view.Frustum.IntersectsSphere(sphere) {
				continue
			}
			if err := r.drawItem(p, it, fs); err != nil {
				return err
			}
		}
		r.targets.MarkRendered(t)
		tex, err := r.targets.Texture(t)
		if err != nil {
			return fmt.Errorf("g3d: shadow map texture: %w", err)
		}
		r.frameTextures[c.sampler] = tex
	}
	for l, t := range r.shadowMaps {
		if !used[l] {
			r.targets.Release(t)
			delete(r.shadowMaps, l)
		}
	}
	return nil
}

// shadowMap returns the shadow target of l sized to its map size, capped
// by the renderer option.
func (r *Renderer) shadowMap(l *scene.Light) (*target.Target, error) {
	size := r.opts.shadowMapSize
	if l.Shadow.MapSize > 0 {
		size = min(size, l.Shadow.MapSize)
	}
	if t, ok := r.shadowMaps[l]; ok {
		if err := r.targets.SetSize(t, size, size); err != nil {
			return nil, fmt.Errorf("g3d: shadow map: %w", err)
		}
		return t, nil
	}
	t, err := r.targets.Create(target.Options{
		Label:   "shadow",
		Width:   size,
		Height:  size,
		Depth:   true,
		Sampler: gpucore.SamplerState{MinFilter: gpucore.FilterNearest, MagFilter: gpucore.FilterNearest},
	})
	if err != nil {
		return nil, fmt.Errorf("g3d: shadow map: %w", err)
	}
	r.shadowMaps[l] = t
	return t, nil
}

// renderTransmissionSource draws the opaque bucket into the transmission
// target. Transmissive materials sample its mipmapped color as the scene
// behind them; resolve and mip generation run when it is read.
func (r *Renderer) renderTransmissionSource(list *renderlist.List, view scene.View, viewport gpucore.Rect, fs *FrameStats) error {
	if r.transmission == nil {
		t, err := r.targets.Create(target.Options{
			Label:   "transmission",
			Width:   viewport.Width,
			Height:  viewport.Height,
			Depth:   true,
			Mipmaps: true,
			Sampler: gpucore.SamplerState{
				MinFilter:    gpucore.FilterLinear,
				MagFilter:    gpucore.FilterLinear,
				MipmapFilter: gpucore.FilterLinear,
			},
		})
		if err != nil {
			return fmt.Errorf("g3d: transmission target: %w", err)
		}
		r.transmission = t
	} else if err := r.targets.SetSize(r.transmission, viewport.Width, viewport.Height); err != nil {
		return fmt.Errorf("g3d: transmission target: %w", err)
	}

	fb, err := r.targets.Framebuffer(r.transmission)
	if err != nil {
		return fmt.Errorf("g3d: transmission target: %w", err)
	}
	space := r.env.OutputColorSpace
	r.env.OutputColorSpace = program.ColorSpaceLinear
	p := r.beginPass("transmission", view, fb, r.transmission.Viewport(), r.clearColor())
	fs.Passes++
	err = r.drawItems(p, list.Opaque, fs)
	r.env.OutputColorSpace = space
	if err != nil {
		return err
	}
	r.targets.MarkRendered(r.transmission)
	tex, err := r.targets.Texture(r.transmission)
	if err != nil {
		return fmt.Errorf("g3d: transmission texture: %w", err)
	}
	r.frameTextures["transmissionMap"] = tex
	return nil
}

func (r *Renderer) drawItems(p *pass, items []renderlist.DrawItem, fs *FrameStats) error {
	for i := range items {
		if err := r.drawItem(p, &items[i], fs); err != nil {
			return err
		}
	}
	return nil
}

func lost(err error) bool { return errors.Is(err, ErrContextLost) }

// drawItem issues one draw. Resource and compile failures skip the draw and
// return nil; only a lost context is returned.
func (r *Renderer) drawItem(p *pass, it *renderlist.DrawItem, fs *FrameStats) error {
	err := r.issue(p, it)
	switch {
	case err == nil:
		if p.shadow {
			fs.ShadowDraws++
		} else {
			fs.Draws++
		}
		return nil
	case lost(err):
		return err
	default:
		fs.Skipped++
		Logger().Warn("g3d: draw skipped",
			"pass", p.name,
			"node", it.Node,
			"material", it.MaterialID,
			"err", err)
		return nil
	}
}

func (r *Renderer) issue(p *pass, it *renderlist.DrawItem) error {
	mat := it.Material
	if p.shadow {
		mat = r.depthMaterial
	}
	g := it.Geometry
	if _, err := g.VertexCount(); err != nil {
		return err
	}
	prog, err := r.programFor(g, mat)
	if err != nil {
		return err
	}

	r.state.UseProgram(prog.ID())
	if r.programPass[prog.ID()] != p.serial {
		r.setPassUniforms(prog, p)
		r.programPass[prog.ID()] = p.serial
	}
	r.setObjectUniforms(prog, it, mat)
	if err := r.bindTextures(prog, mat); err != nil {
		return err
	}
	if err := r.bindAttributes(prog, g); err != nil {
		return err
	}

	flip := it.World.Det() < 0
	r.state.ApplyMaterial(mat, flip)
	if p.shadow {
		r.state.SetCullFace(it.Material.State.Side.CullMode())
	}

	if idx := g.Index(); idx != nil {
		buf, err := r.resources.Upload(idx, gpucore.BufferUsageIndex)
		if err != nil {
			return err
		}
		format, err := resource.IndexFormat(idx)
		if err != nil {
			return err
		}
		r.dev.BindIndexBuffer(buf, format)
		return r.dev.DrawIndexed(gpucore.TopologyTriangles, it.Start, it.Count)
	}
	return r.dev.Draw(gpucore.TopologyTriangles, it.Start, it.Count)
}

func setUniform(r *Renderer, prog *program.Program, name string, v []float32) {
	if loc := prog.UniformLocation(name); loc >= 0 {
		r.dev.SetUniform(loc, v)
	}
}

func (r *Renderer) setPassUniforms(prog *program.Program, p *pass) {
	setUniform(r, prog, "viewMatrix", p.view.View[:])
	setUniform(r, prog, "projectionMatrix", p.view.Projection[:])
	setUniform(r, prog, "cameraPosition", vec3(p.view.Position))
	for _, u := range r.lights.uniforms {
		setUniform(r, prog, u.name, u.value)
	}
}

func (r *Renderer) setObjectUniforms(prog *program.Program, it *renderlist.DrawItem, mat *material.Material) {
	setUniform(r, prog, "modelMatrix", it.World[:])
	if prog.UniformLocation("normalMatrix") >= 0 {
		n := math3d.NormalMatrix(it.World)
		setUniform(r, prog, "normalMatrix", n[:])
	}
	for _, u := range mat.Uniforms() {
		setUniform(r, prog, u.Name, u.Value)
	}
}

// materialTexture returns the material texture bound to sampler name.
func materialTexture(m *material.Material, name string) *core.Texture {
	switch name {
	case "map":
		return m.Map
	case "normalMap":
		return m.NormalMap
	case "emissiveMap":
		return m.EmissiveMap
	case "roughnessMap":
		return m.RoughnessMap
	case "metalnessMap":
		return m.MetalnessMap
	default:
		return nil
	}
}

// bindTextures binds every sampler the program declares. Samplers without
// a texture this frame sample the placeholder.
func (r *Renderer) bindTextures(prog *program.Program, m *material.Material) error {
	for _, name := range prog.Samplers() {
		unit := prog.SamplerUnit(name)
		if unit < 0 {
			continue
		}
		var id gpucore.TextureID
		var err error
		if tex := materialTexture(m, name); tex != nil {
			id, err = r.resources.UploadTexture(tex)
		} else if fid, ok := r.frameTextures[name]; ok {
			id = fid
		} else {
			id, err = r.resources.Placeholder()
		}
		if err != nil {
			return fmt.Errorf("sampler %q: %w", name, err)
		}
		r.state.BindTexture(int(unit), id)
	}
	return nil
}

// bindAttributes uploads and binds every attribute the program reads.
func (r *Renderer) bindAttributes(prog *program.Program, g *geometry.Geometry) error {
	for _, name := range prog.Attributes() {
		loc := prog.AttributeLocation(name)
		if loc < 0 {
			continue
		}
		a := g.Attribute(name)
		if a == nil {
			return fmt.Errorf("geometry %d has no %q attribute", g.ID(), name)
		}
		format, err := resource.VertexFormat(a)
		if err != nil {
			return err
		}
		buf, err := r.resources.Upload(a, gpucore.BufferUsageVertex)
		if err != nil {
			return err
		}
		r.dev.BindVertexBuffer(loc, buf, gpucore.VertexLayout{
			Format: format,
			Stride: uint32(a.ItemSize() * a.Kind().Size()), //nolint:gosec // small positive
		})
	}
	return nil
}
