// Package geometry provides drawable shapes: named attribute streams, an
// optional index stream, material groups and lazily computed bounds.
package geometry

import (
	"errors"
	"fmt"

	"github.com/gogpu/g3d/core"
	"github.com/gogpu/g3d/math3d"
)

// Standard attribute names.
const (
	AttrPosition = "position"
	AttrNormal   = "normal"
	AttrUV       = "uv"
	AttrColor    = "color"
	AttrTangent  = "tangent"
)

// Geometry errors.
var (
	ErrVertexCount = errors.New("geometry: attribute vertex counts disagree")
	ErrNoPosition  = errors.New("geometry: no position attribute")
)

// Group draws [Start, Start+Count) of the index (or vertex) range with
// materials[MaterialIndex].
type Group struct {
	Start         int
	Count         int
	MaterialIndex int
}

// Geometry is a shape that may be shared by many meshes. It is reference
// counted: the creator holds the first reference and the geometry is
// disposed when the last reference is released.
type Geometry struct {
	core.Disposable

	Name string

	id         uint64
	attributes map[string]*core.BufferAttribute
	order      []string
	index      *core.BufferAttribute
	groups     []Group
	drawStart  int
	drawCount  int
	refs       int
	version    uint64

	box         math3d.Box3
	sphere      math3d.Sphere
	boxValid    bool
	sphereValid bool
	boundsFor   uint64 // position attribute version the bounds were computed from
}

// New returns an empty geometry with one reference.
func New() *Geometry {
	return &Geometry{
		id:         core.NextID(),
		attributes: make(map[string]*core.BufferAttribute),
		drawCount:  -1,
		refs:       1,
	}
}

// ID returns the geometry's process-unique identity.
func (g *Geometry) ID() uint64 { return g.id }

// Version increments whenever the set of streams or groups changes.
func (g *Geometry) Version() uint64 { return g.version }

// SetAttribute adds or replaces the stream called name.
func (g *Geometry) SetAttribute(name string, a *core.BufferAttribute) {
	if _, ok := g.attributes[name]; !ok {
		g.order = append(g.order, name)
	}
	g.attributes[name] = a
	g.version++
	if name == AttrPosition {
		g.invalidateBounds()
	}
}

// Attribute returns the stream called name, or nil.
func (g *Geometry) Attribute(name string) *core.BufferAttribute {
	return g.attributes[name]
}

// HasAttribute reports whether a stream called name is present.
func (g *Geometry) HasAttribute(name string) bool {
	_, ok := g.attributes[name]
	return ok
}

// DeleteAttribute removes the stream called name.
func (g *Geometry) DeleteAttribute(name string) {
	if _, ok := g.attributes[name]; !ok {
		return
	}
	delete(g.attributes, name)
	for i, n := range g.order {
		if n == name {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	g.version++
	if name == AttrPosition {
		g.invalidateBounds()
	}
}

// AttributeNames returns stream names in insertion order.
func (g *Geometry) AttributeNames() []string {
	return g.order
}

// SetIndex sets the index stream. nil removes it.
func (g *Geometry) SetIndex(index *core.BufferAttribute) {
	g.index = index
	g.version++
	g.invalidateBounds()
}

// Index returns the index stream, or nil for non-indexed geometry.
func (g *Geometry) Index() *core.BufferAttribute {
	return g.index
}

// AddGroup appends a material group.
func (g *Geometry) AddGroup(start, count, materialIndex int) {
	g.groups = append(g.groups, Group{Start: start, Count: count, MaterialIndex: materialIndex})
	g.version++
}

// ClearGroups removes every group.
func (g *Geometry) ClearGroups() {
	g.groups = nil
	g.version++
}

// Groups returns the material groups.
func (g *Geometry) Groups() []Group {
	return g.groups
}

// SetDrawRange limits drawing to [start, start+count). A negative count
// draws to the end.
func (g *Geometry) SetDrawRange(start, count int) {
	g.drawStart, g.drawCount = start, count
}

// DrawRange returns the effective [start, start+count) in index units (or
// vertex units for non-indexed geometry) after clamping.
func (g *Geometry) DrawRange() (start, count int) {
	total := g.ElementCount()
	start = min(max(g.drawStart, 0), total)
	count = total - start
	if g.drawCount >= 0 {
		count = min(count, g.drawCount)
	}
	return start, count
}

// ElementCount returns the index count, or the vertex count when the
// geometry is not indexed.
func (g *Geometry) ElementCount() int {
	if g.index != nil {
		return g.index.Count()
	}
	if p := g.attributes[AttrPosition]; p != nil {
		return p.Count()
	}
	return 0
}

// VertexCount returns the shared vertex count of every stream, or
// ErrVertexCount if two streams disagree.
func (g *Geometry) VertexCount() (int, error) {
	n := -1
	for _, name := range g.order {
		c := g.attributes[name].Count()
		if n < 0 {
			n = c
			continue
		}
		if c != n {
			return 0, fmt.Errorf("%w: %q has %d, expected %d", ErrVertexCount, name, c, n)
		}
	}
	return max(n, 0), nil
}

func (g *Geometry) invalidateBounds() {
	g.boxValid = false
	g.sphereValid = false
}

func (g *Geometry) boundsStale() bool {
	p := g.attributes[AttrPosition]
	return p != nil && p.Version() != g.boundsFor
}

// ComputeBoundingBox scans the positions unless the box is still valid.
func (g *Geometry) ComputeBoundingBox() {
	if g.boundsStale() {
		g.invalidateBounds()
	}
	if g.boxValid {
		return
	}
	p := g.attributes[AttrPosition]
	if p == nil || p.Kind() != core.Float32 || p.ItemSize() < 3 {
		g.box = math3d.EmptyBox()
	} else {
		g.box = math3d.BoxFromPoints(p.Float32s(), p.ItemSize())
		g.boundsFor = p.Version()
	}
	g.boxValid = true
}

// ComputeBoundingSphere scans the positions unless the sphere is still valid.
func (g *Geometry) ComputeBoundingSphere() {
	if g.boundsStale() {
		g.invalidateBounds()
	}
	if g.sphereValid {
		return
	}
	p := g.attributes[AttrPosition]
	if p == nil || p.Kind() != core.Float32 || p.ItemSize() < 3 {
		g.sphere = math3d.EmptySphere()
	} else {
		g.sphere = math3d.SphereFromPoints(p.Float32s(), p.ItemSize())
		g.boundsFor = p.Version()
	}
	g.sphereValid = true
}

// BoundingBox returns the box, computing it if needed.
func (g *Geometry) BoundingBox() math3d.Box3 {
	g.ComputeBoundingBox()
	return g.box
}

// BoundingSphere returns the sphere, computing it if needed.
func (g *Geometry) BoundingSphere() math3d.Sphere {
	g.ComputeBoundingSphere()
	return g.sphere
}

// Retain adds a reference.
func (g *Geometry) Retain() {
	g.refs++
}

// Release drops a reference. The last release disposes the geometry and
// every stream it owns.
func (g *Geometry) Release() {
	if g.refs <= 0 {
		return
	}
	g.refs--
	if g.refs == 0 {
		g.dispose()
	}
}

// RefCount returns the number of live references.
func (g *Geometry) RefCount() int {
	return g.refs
}

func (g *Geometry) dispose() {
	for _, a := range g.attributes {
		a.Dispose()
	}
	if g.index != nil {
		g.index.Dispose()
	}
	g.Disposable.Dispose()
}

// Dispose releases the geometry regardless of outstanding references.
func (g *Geometry) Dispose() {
	g.refs = 0
	g.dispose()
}
