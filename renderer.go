package g3d

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/backend"
	"github.com/gogpu/g3d/core"
	"github.com/gogpu/g3d/geometry"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/loader"
	"github.com/gogpu/g3d/material"
	"github.com/gogpu/g3d/program"
	"github.com/gogpu/g3d/renderlist"
	"github.com/gogpu/g3d/resource"
	"github.com/gogpu/g3d/scene"
	"github.com/gogpu/g3d/state"
	"github.com/gogpu/g3d/target"
)

// FrameStats reports the work of one RenderFrame.
type FrameStats struct {
	Draws       int
	ShadowDraws int
	Skipped     int
	Culled      int
	Passes      int
	Uploads     int

	StateChanges int
	StateSkipped int
}

// Stats reports renderer activity.
type Stats struct {
	Frames  int
	Dropped int
	Resets  int
	Loads   int

	// Programs is the number of live compiled programs.
	Programs int

	// Last is the most recent completed frame.
	Last FrameStats

	Resources    resource.Stats
	ProgramCache program.Stats
	Targets      target.Stats
}

// bindingKey identifies the program a (material, geometry) pair draws with
// for one output color space.
type bindingKey struct {
	material uint64
	geometry uint64
	space    program.ColorSpace
}

// binding is a program acquisition plus the inputs it was resolved from.
type binding struct {
	prog            *program.Program
	programVersion  uint64
	geometryVersion uint64
	lights          program.LightState
	env             program.Env
}

// Renderer draws a scene graph through a gpucore.Device. It owns the graph,
// every GPU cache and the internal render targets. A Renderer is used from
// one goroutine; only asset loading runs elsewhere.
type Renderer struct {
	opts    options
	dev     gpucore.Device
	ownsDev bool

	graph     *scene.Graph
	resources *resource.Cache
	programs  *program.Cache
	state     *state.Machine
	targets   *target.Manager
	builder   *renderlist.Builder

	loader     *loader.Loader
	ownsLoader bool

	width, height int
	pixelRatio    float32
	msaa          *target.Target
	transmission  *target.Target
	shadowMaps    map[*scene.Light]*target.Target

	depthMaterial *material.Material
	bindings      map[bindingKey]*binding
	watched       map[uint64]struct{}
	programPass   map[gpucore.ProgramID]uint64
	passSerial    uint64

	envMap          *core.Texture
	envMode         program.EnvMapMode
	envMapIntensity float32

	lights        lightSet
	env           program.Env
	frameTextures map[string]gpucore.TextureID

	needsReset bool
	disposed   bool
	stats      Stats
}

// New creates a renderer. Without WithDevice the highest priority device of
// the backend registry is opened.
func New(opts ...Option) (*Renderer, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		SetLogger(o.logger)
	}

	dev, owns := o.device, false
	if dev == nil {
		var err error
		if o.backendName != "" {
			dev, err = backend.Get(o.backendName)
		} else {
			dev, err = backend.Default()
		}
		if err != nil {
			return nil, fmt.Errorf("g3d: open device: %w", err)
		}
		owns = true
	}

	r := &Renderer{
		opts:            o,
		dev:             dev,
		ownsDev:         owns,
		graph:           scene.NewGraph(),
		resources:       resource.New(dev),
		programs:        program.NewCache(dev, o.programCacheCapacity),
		state:           state.New(dev),
		targets:         target.NewManager(dev),
		builder:         renderlist.NewBuilder(),
		loader:          o.loader,
		width:           o.width,
		height:          o.height,
		pixelRatio:      o.pixelRatio,
		shadowMaps:      make(map[*scene.Light]*target.Target),
		depthMaterial:   material.New(material.Depth, material.Config{Name: material.Ptr("shadow-depth")}),
		bindings:        make(map[bindingKey]*binding),
		watched:         make(map[uint64]struct{}),
		programPass:     make(map[gpucore.ProgramID]uint64),
		envMapIntensity: 1,
		frameTextures:   make(map[string]gpucore.TextureID),
	}
	if err := r.applySize(); err != nil {
		r.Dispose()
		return nil, err
	}
	Logger().Info("g3d: renderer created",
		"device", fmt.Sprintf("%T", dev),
		"size", fmt.Sprintf("%dx%d", r.width, r.height),
		"pixelRatio", r.pixelRatio,
		"samples", o.samples)
	return r, nil
}

// Device returns the device the renderer draws with.
func (r *Renderer) Device() gpucore.Device { return r.dev }

// Graph returns the scene graph. Nodes created through it are valid
// arguments to every Renderer method.
func (r *Renderer) Graph() *scene.Graph { return r.graph }

// Loader returns the asset loader polled by RenderFrame, creating one with
// default options on first use.
func (r *Renderer) Loader() *loader.Loader {
	if r.loader == nil {
		r.loader = loader.New(loader.Options{})
		r.ownsLoader = true
	}
	return r.loader
}

// CreateNode adds an unattached node to the scene graph.
func (r *Renderer) CreateNode() scene.NodeID {
	return r.graph.CreateNode()
}

// DestroyNode removes id and orphans its children.
func (r *Renderer) DestroyNode(id scene.NodeID) error {
	return r.graph.DestroyNode(id)
}

// Attach makes child a child of parent, detaching it from any previous
// parent. A cycle is rejected with ErrInvalidHierarchy and leaves the graph
// unchanged.
func (r *Renderer) Attach(parent, child scene.NodeID) error {
	return r.graph.Attach(parent, child)
}

// Detach removes id from its parent.
func (r *Renderer) Detach(id scene.NodeID) error {
	return r.graph.Detach(id)
}

// SetLocalTransform sets position, rotation and scale of id.
func (r *Renderer) SetLocalTransform(id scene.NodeID, position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) error {
	return r.graph.SetLocalTransform(id, position, rotation, scale)
}

// SetCamera attaches a camera to id.
func (r *Renderer) SetCamera(id scene.NodeID, c *scene.Camera) error {
	return r.graph.SetCamera(id, c)
}

// SetLight attaches a light to id.
func (r *Renderer) SetLight(id scene.NodeID, l *scene.Light) error {
	return r.graph.SetLight(id, l)
}

// CreateGeometry builds a geometry from named attribute streams, an
// optional index and optional groups. Every stream must hold the same
// number of vertices.
func (r *Renderer) CreateGeometry(attributes map[string]*core.BufferAttribute, index *core.BufferAttribute, groups ...geometry.Group) (*geometry.Geometry, error) {
	if attributes[geometry.AttrPosition] == nil {
		return nil, fmt.Errorf("g3d: create geometry: missing %q attribute", geometry.AttrPosition)
	}
	g := geometry.New()
	for name, a := range attributes {
		g.SetAttribute(name, a)
	}
	if _, err := g.VertexCount(); err != nil {
		g.Dispose()
		return nil, fmt.Errorf("g3d: create geometry: %w", err)
	}
	if index != nil {
		if _, err := resource.IndexFormat(index); err != nil {
			g.Dispose()
			return nil, fmt.Errorf("g3d: create geometry: %w", err)
		}
		g.SetIndex(index)
	}
	for _, grp := range groups {
		g.AddGroup(grp.Start, grp.Count, grp.MaterialIndex)
	}
	return g, nil
}

// CreateMaterial returns a material of family with cfg applied.
func (r *Renderer) CreateMaterial(family material.Family, cfg material.Config) *material.Material {
	return material.New(family, cfg)
}

// UpdateMaterial merges cfg into m.
func (r *Renderer) UpdateMaterial(m *material.Material, cfg material.Config) error {
	if m == nil || m.Disposed() {
		return fmt.Errorf("g3d: update material: %w", resource.ErrDisposed)
	}
	m.SetValues(cfg)
	return nil
}

// CreateMesh draws g on node with one material per geometry group, or with
// materials[0] for the whole geometry. The mesh holds references to g and
// every material until it is replaced or the node is destroyed.
func (r *Renderer) CreateMesh(node scene.NodeID, g *geometry.Geometry, materials ...*material.Material) (*scene.Mesh, error) {
	if g == nil || g.Disposed() {
		return nil, fmt.Errorf("g3d: create mesh: geometry %w", resource.ErrDisposed)
	}
	if len(materials) == 0 {
		return nil, errors.New("g3d: create mesh: no material")
	}
	for i, m := range materials {
		if m == nil || m.Disposed() {
			return nil, fmt.Errorf("g3d: create mesh: material %d %w", i, resource.ErrDisposed)
		}
	}
	if !r.graph.Valid(node) {
		return nil, fmt.Errorf("g3d: create mesh: %w", scene.ErrInvalidNode)
	}
	mesh := scene.NewMesh(g, materials...)
	if err := r.graph.SetMesh(node, mesh); err != nil {
		mesh.Release()
		return nil, fmt.Errorf("g3d: create mesh: %w", err)
	}
	return mesh, nil
}

// CreateRenderTarget allocates an offscreen target RenderFrame can draw
// into and materials can sample.
func (r *Renderer) CreateRenderTarget(opts target.Options) (*target.Target, error) {
	return r.targets.Create(opts)
}

// RenderTargetTexture returns the color texture of t ready for sampling,
// resolving and generating mipmaps on demand.
func (r *Renderer) RenderTargetTexture(t *target.Target) (gpucore.TextureID, error) {
	return r.targets.Texture(t)
}

// ReleaseRenderTarget destroys t.
func (r *Renderer) ReleaseRenderTarget(t *target.Target) {
	r.targets.Release(t)
}

// SetEnvironment sets the environment map lit materials reflect or refract.
// A nil texture removes it.
func (r *Renderer) SetEnvironment(tex *core.Texture, mode program.EnvMapMode, intensity float32) {
	if tex == nil {
		mode = program.EnvNone
	}
	r.envMap, r.envMode, r.envMapIntensity = tex, mode, intensity
}

// Resize sets the logical size of the default framebuffer. The drawing
// buffer is the logical size scaled by the pixel ratio.
func (r *Renderer) Resize(width, height int) error {
	if r.disposed {
		return ErrDisposed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("g3d: resize %dx%d: %w", width, height, target.ErrInvalidSize)
	}
	r.width, r.height = width, height
	return r.applySize()
}

// SetPixelRatio sets the ratio of drawing buffer pixels to logical pixels.
func (r *Renderer) SetPixelRatio(ratio float32) error {
	if r.disposed {
		return ErrDisposed
	}
	if ratio <= 0 {
		return fmt.Errorf("g3d: invalid pixel ratio %v", ratio)
	}
	r.pixelRatio = ratio
	return r.applySize()
}

// Size returns the logical size.
func (r *Renderer) Size() (width, height int) { return r.width, r.height }

// DrawingBufferSize returns the size of the default framebuffer in pixels.
func (r *Renderer) DrawingBufferSize() (width, height int) {
	w := int(math.Round(float64(float32(r.width) * r.pixelRatio)))
	h := int(math.Round(float64(float32(r.height) * r.pixelRatio)))
	return max(w, 1), max(h, 1)
}

// resizer is implemented by devices that own a resizable default
// framebuffer.
type resizer interface {
	Resize(width, height int) error
}

func (r *Renderer) applySize() error {
	w, h := r.DrawingBufferSize()
	if rs, ok := r.dev.(resizer); ok {
		if err := rs.Resize(w, h); err != nil {
			return fmt.Errorf("g3d: resize device: %w", err)
		}
	}
	if r.msaa != nil {
		if err := r.targets.SetSize(r.msaa, w, h); err != nil {
			return fmt.Errorf("g3d: resize multisample target: %w", err)
		}
	}
	return nil
}

// Stats returns renderer, cache and target statistics.
func (r *Renderer) Stats() Stats {
	s := r.stats
	s.Programs = r.programs.Len()
	s.Resources = r.resources.Stats()
	s.ProgramCache = r.programs.Stats()
	s.Targets = r.targets.Stats()
	return s
}

// Dispose releases every GPU resource the renderer created. A device opened
// by New is destroyed as well. Later calls return ErrDisposed.
func (r *Renderer) Dispose() {
	if r.disposed {
		return
	}
	r.disposed = true
	if r.ownsLoader {
		r.loader.Close()
	}
	r.releaseBindings(func(bindingKey) bool { return true })
	r.programs.Dispose()
	r.resources.Dispose()
	r.targets.Dispose()
	r.depthMaterial.Dispose()
	if r.ownsDev {
		if d, ok := r.dev.(interface{ Destroy() }); ok {
			d.Destroy()
		}
	}
	Logger().Info("g3d: renderer disposed", "frames", r.stats.Frames)
}

// programFor returns the program m draws g with, re-resolving only when an
// input of the permutation moved. A failed compile is not cached: the next
// draw of the pair compiles again.
func (r *Renderer) programFor(g *geometry.Geometry, m *material.Material) (*program.Program, error) {
	key := bindingKey{material: m.ID(), geometry: g.ID(), space: r.env.OutputColorSpace}
	b := r.bindings[key]
	if b != nil && b.programVersion == m.ProgramVersion() && b.geometryVersion == g.Version() &&
		b.lights == r.lights.state && b.env == r.env {
		return b.prog, nil
	}

	params := program.ResolveParameters(g, m, r.lights.state, r.env)
	if b != nil && b.prog.Key() == params.Key() {
		b.programVersion, b.geometryVersion = m.ProgramVersion(), g.Version()
		b.lights, b.env = r.lights.state, r.env
		return b.prog, nil
	}

	p, err := r.programs.Acquire(params)
	if err != nil {
		return nil, err
	}
	if b == nil {
		b = &binding{}
		r.bindings[key] = b
		r.watch(&m.Disposable, m.ID(), func(k bindingKey) bool { return k.material == m.ID() })
		r.watch(&g.Disposable, g.ID(), func(k bindingKey) bool { return k.geometry == g.ID() })
	} else if err := r.programs.Release(b.prog); err != nil {
		Logger().Warn("g3d: release program", "key", b.prog.Key(), "err", err)
	}
	b.prog = p
	b.programVersion, b.geometryVersion = m.ProgramVersion(), g.Version()
	b.lights, b.env = r.lights.state, r.env
	return p, nil
}

// watch releases the bindings matching match when d is disposed. Each
// resource is subscribed once.
func (r *Renderer) watch(d *core.Disposable, id uint64, match func(bindingKey) bool) {
	if _, ok := r.watched[id]; ok {
		return
	}
	r.watched[id] = struct{}{}
	d.OnDispose(func() {
		delete(r.watched, id)
		if !r.disposed {
			r.releaseBindings(match)
		}
	})
}

func (r *Renderer) releaseBindings(match func(bindingKey) bool) {
	for k, b := range r.bindings {
		if !match(k) {
			continue
		}
		if err := r.programs.Release(b.prog); err != nil {
			Logger().Warn("g3d: release program", "key", b.prog.Key(), "err", err)
		}
		delete(r.bindings, k)
	}
}

// reset drops every device handle after a context loss. Caches repopulate
// lazily as the next frame draws.
func (r *Renderer) reset() {
	r.state.Reset()
	r.resources.Invalidate()
	r.programs.Invalidate()
	r.targets.Invalidate()
	clear(r.bindings)
	clear(r.programPass)
	r.needsReset = false
	r.stats.Resets++
	Logger().Info("g3d: context restored", "resets", r.stats.Resets)
}
