package renderlist

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/geometry"
	"github.com/gogpu/g3d/material"
	"github.com/gogpu/g3d/scene"
)

// Bucket classifies a draw by how it composes with the frame.
type Bucket uint8

// Buckets in their pass order.
const (
	Transmissive Bucket = iota
	Opaque
	Transparent
)

func (b Bucket) String() string {
	switch b {
	case Transmissive:
		return "transmissive"
	case Opaque:
		return "opaque"
	case Transparent:
		return "transparent"
	default:
		return "unknown"
	}
}

// Classify returns the bucket a material draws in.
func Classify(m *material.Material) Bucket {
	switch {
	case m.IsTransmissive():
		return Transmissive
	case m.Transparent:
		return Transparent
	default:
		return Opaque
	}
}

// NoGroup marks a DrawItem that draws the whole geometry.
const NoGroup = -1

// DrawItem is one draw of a frame.
type DrawItem struct {
	Node     scene.NodeID
	Mesh     *scene.Mesh
	Geometry *geometry.Geometry
	Material *material.Material
	// Group indexes Geometry.Groups, or is NoGroup.
	Group int
	// Start and Count are the element range, already clipped to the
	// geometry draw range.
	Start, Count int

	World       mgl32.Mat4
	Depth       float32
	RenderOrder int
	GroupOrder  int
	MaterialID  uint64
}

// LightItem is an active light of a frame.
type LightItem struct {
	Node  scene.NodeID
	Light *scene.Light
}

// List is the output of one Build.
type List struct {
	Opaque       []DrawItem
	Transmissive []DrawItem
	Transparent  []DrawItem
	// Shadow holds every visible shadow-casting draw, regardless of the
	// camera frustum.
	Shadow []DrawItem
	Lights []LightItem

	Culled int
}

// Reset empties the list keeping its storage.
func (l *List) Reset() {
	l.Opaque = l.Opaque[:0]
	l.Transmissive = l.Transmissive[:0]
	l.Transparent = l.Transparent[:0]
	l.Shadow = l.Shadow[:0]
	l.Lights = l.Lights[:0]
	l.Culled = 0
}

// Len returns the number of camera draws.
func (l *List) Len() int {
	return len(l.Opaque) + len(l.Transmissive) + len(l.Transparent)
}

// Bucket returns the items of b.
func (l *List) Bucket(b Bucket) []DrawItem {
	switch b {
	case Transmissive:
		return l.Transmissive
	case Transparent:
		return l.Transparent
	default:
		return l.Opaque
	}
}

func (l *List) push(it DrawItem) {
	switch Classify(it.Material) {
	case Transmissive:
		l.Transmissive = append(l.Transmissive, it)
	case Transparent:
		l.Transparent = append(l.Transparent, it)
	default:
		l.Opaque = append(l.Opaque, it)
	}
}

// SortOpaque orders items front to back, ties by group order, render order
// and material.
func SortOpaque(items []DrawItem) {
	slices.SortStableFunc(items, func(a, b DrawItem) int {
		return cmp.Or(
			cmp.Compare(a.Depth, b.Depth),
			cmp.Compare(a.GroupOrder, b.GroupOrder),
			cmp.Compare(a.RenderOrder, b.RenderOrder),
			cmp.Compare(a.MaterialID, b.MaterialID),
		)
	})
}

// SortTransparent orders items back to front, ties by group order and
// render order.
func SortTransparent(items []DrawItem) {
	slices.SortStableFunc(items, func(a, b DrawItem) int {
		return cmp.Or(
			cmp.Compare(b.Depth, a.Depth),
			cmp.Compare(a.GroupOrder, b.GroupOrder),
			cmp.Compare(a.RenderOrder, b.RenderOrder),
		)
	})
}

// Builder builds draw lists. It keeps one List and reuses it every frame.
type Builder struct {
	list List
}

// NewBuilder returns a builder with empty storage.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build collects the draws below root seen by view. World matrices must be
// current. The returned list is valid until the next Build.
func (b *Builder) Build(g *scene.Graph, root scene.NodeID, view scene.View) *List {
	l := &b.list
	l.Reset()
	camLayers := scene.AllLayers
	if view.Camera != nil {
		camLayers = view.Camera.Layers
	}

	b.visit(g, root, 0, view, camLayers)

	SortOpaque(l.Opaque)
	SortTransparent(l.Transmissive)
	SortTransparent(l.Transparent)
	return l
}

func (b *Builder) visit(g *scene.Graph, id scene.NodeID, groupOrder int, view scene.View, camLayers scene.Layers) {
	if !g.Visible(id) {
		return
	}
	if order, ok := g.GroupOrder(id); ok {
		groupOrder = order
	}
	l := &b.list
	if g.Layers(id).Test(camLayers) {
		if light := g.Light(id); light != nil {
			l.Lights = append(l.Lights, LightItem{Node: id, Light: light})
		}
		if mesh := g.Mesh(id); mesh != nil && mesh.Geometry != nil {
			b.addMesh(g, id, mesh, groupOrder, view)
		}
	}
	for k := range g.NumChildren(id) {
		b.visit(g, g.Child(id, k), groupOrder, view, camLayers)
	}
}

func (b *Builder) addMesh(g *scene.Graph, id scene.NodeID, mesh *scene.Mesh, groupOrder int, view scene.View) {
	l := &b.list
	world := g.WorldMatrix(id)
	sphere := mesh.Geometry.BoundingSphere().ApplyMat4(world)

	inView := true
	if g.FrustumCulled(id) && !sphere.IsEmpty() && !view.Frustum.IntersectsSphere(sphere) {
		inView = false
		l.Culled++
	}
	if !inView && !mesh.CastShadow {
		return
	}

	center := sphere.Center
	if sphere.IsEmpty() {
		center = world.Col(3).Vec3()
	}
	base := DrawItem{
		Node:        id,
		Mesh:        mesh,
		Geometry:    mesh.Geometry,
		World:       world,
		Depth:       view.Depth(center),
		RenderOrder: g.RenderOrder(id),
		GroupOrder:  groupOrder,
	}

	emit := func(it DrawItem) {
		if it.Count <= 0 || it.Material == nil || !it.Material.Visible {
			return
		}
		it.MaterialID = it.Material.ID()
		if inView {
			l.push(it)
		}
		if mesh.CastShadow {
			l.Shadow = append(l.Shadow, it)
		}
	}

	drawStart, drawCount := mesh.Geometry.DrawRange()
	if !mesh.UsesGroups() {
		it := base
		it.Group = NoGroup
		it.Material = mesh.Material(0)
		it.Start, it.Count = drawStart, drawCount
		emit(it)
		return
	}
	for gi, grp := range mesh.Geometry.Groups() {
		it := base
		it.Group = gi
		it.Material = mesh.Material(grp.MaterialIndex)
		start := max(grp.Start, drawStart)
		end := min(grp.Start+grp.Count, drawStart+drawCount)
		it.Start, it.Count = start, end-start
		emit(it)
	}
}
