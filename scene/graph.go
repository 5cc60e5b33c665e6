package scene

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/math3d"
)

// Scene graph errors.
var (
	// ErrInvalidHierarchy is returned when an attach would create a cycle.
	// The graph is left unchanged.
	ErrInvalidHierarchy = errors.New("scene: invalid hierarchy")

	// ErrInvalidNode is returned for a handle to a destroyed or foreign node.
	ErrInvalidNode = errors.New("scene: invalid node")
)

// NodeID is a generation-checked handle to a node. The zero value is Nil.
type NodeID struct {
	index uint32
	gen   uint32
}

// Nil is the invalid node handle.
var Nil NodeID

// IsNil reports whether id is the zero handle.
func (id NodeID) IsNil() bool { return id.gen == 0 }

func (id NodeID) String() string {
	if id.IsNil() {
		return "node(nil)"
	}
	return fmt.Sprintf("node(%d#%d)", id.index, id.gen)
}

// State is the transform state of a node.
type State uint8

// Node states.
const (
	// Clean nodes have current local and world matrices.
	Clean State = iota
	// MatrixDirty nodes must recompose their local matrix.
	MatrixDirty
	// WorldDirty nodes have a current local matrix but a stale world matrix.
	WorldDirty
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case MatrixDirty:
		return "matrix-dirty"
	case WorldDirty:
		return "world-dirty"
	default:
		return "unknown"
	}
}

// Layers is a 32-bit membership mask. Cameras draw nodes whose layers
// intersect their own.
type Layers uint32

// AllLayers enables every layer.
const AllLayers Layers = 0xFFFFFFFF

// DefaultLayers is layer 0 only.
const DefaultLayers Layers = 1

// Test reports whether l and o share a layer.
func (l Layers) Test(o Layers) bool { return l&o != 0 }

// Enable returns l with layer n set.
func (l Layers) Enable(n int) Layers { return l | 1<<uint(n) }

// Disable returns l with layer n cleared.
func (l Layers) Disable(n int) Layers { return l &^ (1 << uint(n)) }

const noParent = -1

type node struct {
	gen   uint32
	alive bool
	name  string

	parent   int32
	children []int32

	position mgl32.Vec3
	rotation mgl32.Quat
	scale    mgl32.Vec3
	local    mgl32.Mat4
	world    mgl32.Mat4
	state    State

	visible       bool
	renderOrder   int
	groupOrder    int
	hasGroupOrder bool
	frustumCulled bool
	layers        Layers

	mesh   *Mesh
	camera *Camera
	light  *Light
}

// Graph is an arena of nodes. It is used from the render goroutine only.
type Graph struct {
	nodes []node
	free  []uint32
	roots []int32
	alive int
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Len returns the number of live nodes.
func (g *Graph) Len() int { return g.alive }

func (g *Graph) get(id NodeID) (*node, error) {
	if id.IsNil() || int(id.index) >= len(g.nodes) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNode, id)
	}
	n := &g.nodes[id.index]
	if !n.alive || n.gen != id.gen {
		return nil, fmt.Errorf("%w: %v", ErrInvalidNode, id)
	}
	return n, nil
}

func (g *Graph) handle(i int32) NodeID {
	return NodeID{index: uint32(i), gen: g.nodes[i].gen}
}

// Valid reports whether id refers to a live node of g.
func (g *Graph) Valid(id NodeID) bool {
	_, err := g.get(id)
	return err == nil
}

// CreateNode adds a parentless node with identity transform.
func (g *Graph) CreateNode() NodeID {
	var idx uint32
	if n := len(g.free); n > 0 {
		idx = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		idx = uint32(len(g.nodes))
		g.nodes = append(g.nodes, node{})
	}
	n := &g.nodes[idx]
	n.gen++
	if n.gen == 0 {
		n.gen = 1
	}
	*n = node{
		gen:           n.gen,
		alive:         true,
		parent:        noParent,
		children:      n.children[:0],
		rotation:      mgl32.QuatIdent(),
		scale:         mgl32.Vec3{1, 1, 1},
		local:         mgl32.Ident4(),
		world:         mgl32.Ident4(),
		state:         Clean,
		visible:       true,
		frustumCulled: true,
		layers:        DefaultLayers,
	}
	g.roots = append(g.roots, int32(idx))
	g.alive++
	return g.handle(int32(idx))
}

// DestroyNode removes id from its parent and frees it. Its children become
// roots and keep their local transforms. Components are released.
func (g *Graph) DestroyNode(id NodeID) error {
	n, err := g.get(id)
	if err != nil {
		return err
	}
	g.unlink(int32(id.index))
	for _, c := range n.children {
		cn := &g.nodes[c]
		cn.parent = noParent
		cn.markWorldDirty()
		g.roots = append(g.roots, c)
	}
	n.children = n.children[:0]
	g.free1(int32(id.index))
	return nil
}

// DestroySubtree frees id and every descendant.
func (g *Graph) DestroySubtree(id NodeID) error {
	if _, err := g.get(id); err != nil {
		return err
	}
	g.unlink(int32(id.index))
	var subtree []int32
	g.walk(int32(id.index), func(i int32) bool {
		subtree = append(subtree, i)
		return true
	})
	for _, i := range subtree {
		g.free1(i)
	}
	return nil
}

func (g *Graph) free1(i int32) {
	n := &g.nodes[i]
	n.releaseComponents()
	n.alive = false
	n.parent = noParent
	n.children = n.children[:0]
	g.free = append(g.free, uint32(i))
	g.alive--
}

// unlink removes i from its parent's child list or from the root list.
func (g *Graph) unlink(i int32) {
	n := &g.nodes[i]
	if n.parent == noParent {
		g.roots = removeIndex(g.roots, i)
		return
	}
	p := &g.nodes[n.parent]
	p.children = removeIndex(p.children, i)
	n.parent = noParent
}

func removeIndex(s []int32, v int32) []int32 {
	if k := slices.Index(s, v); k >= 0 {
		return slices.Delete(s, k, k+1)
	}
	return s
}

// Attach makes child the last child of parent, detaching it from a previous
// parent first. Attaching a node to itself or to one of its descendants
// returns ErrInvalidHierarchy and leaves the graph unchanged.
func (g *Graph) Attach(parent, child NodeID) error {
	if _, err := g.get(parent); err != nil {
		return err
	}
	c, err := g.get(child)
	if err != nil {
		return err
	}
	if parent == child {
		return fmt.Errorf("%w: %v attached to itself", ErrInvalidHierarchy, child)
	}
	for a := g.nodes[parent.index].parent; a != noParent; a = g.nodes[a].parent {
		if a == int32(child.index) {
			return fmt.Errorf("%w: %v is an ancestor of %v", ErrInvalidHierarchy, child, parent)
		}
	}
	if c.parent == int32(parent.index) {
		return nil
	}
	g.unlink(int32(child.index))
	c.parent = int32(parent.index)
	p := &g.nodes[parent.index]
	p.children = append(p.children, int32(child.index))
	c.markWorldDirty()
	return nil
}

// Detach makes id a root. Detaching a root does nothing.
func (g *Graph) Detach(id NodeID) error {
	n, err := g.get(id)
	if err != nil {
		return err
	}
	if n.parent == noParent {
		return nil
	}
	g.unlink(int32(id.index))
	g.roots = append(g.roots, int32(id.index))
	n.markWorldDirty()
	return nil
}

// Parent returns the parent of id, or Nil for a root.
func (g *Graph) Parent(id NodeID) NodeID {
	n, err := g.get(id)
	if err != nil || n.parent == noParent {
		return Nil
	}
	return g.handle(n.parent)
}

// Children returns the children of id in attach order.
func (g *Graph) Children(id NodeID) []NodeID {
	n, err := g.get(id)
	if err != nil {
		return nil
	}
	out := make([]NodeID, len(n.children))
	for k, c := range n.children {
		out[k] = g.handle(c)
	}
	return out
}

// NumChildren returns the number of children of id.
func (g *Graph) NumChildren(id NodeID) int {
	n, err := g.get(id)
	if err != nil {
		return 0
	}
	return len(n.children)
}

// Child returns the k-th child of id, or the nil handle when k is out of
// range. Unlike Children it does not allocate.
func (g *Graph) Child(id NodeID, k int) NodeID {
	n, err := g.get(id)
	if err != nil || k < 0 || k >= len(n.children) {
		return NodeID{}
	}
	return g.handle(n.children[k])
}

// Roots returns every parentless node.
func (g *Graph) Roots() []NodeID {
	out := make([]NodeID, len(g.roots))
	for k, r := range g.roots {
		out[k] = g.handle(r)
	}
	return out
}

// IsAncestor reports whether a is a proper ancestor of b.
func (g *Graph) IsAncestor(a, b NodeID) bool {
	if !g.Valid(a) || !g.Valid(b) {
		return false
	}
	for p := g.nodes[b.index].parent; p != noParent; p = g.nodes[p].parent {
		if p == int32(a.index) {
			return true
		}
	}
	return false
}

// walk visits i and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func (g *Graph) walk(i int32, fn func(int32) bool) {
	if !fn(i) {
		return
	}
	for _, c := range g.nodes[i].children {
		g.walk(c, fn)
	}
}

// Traverse visits id and its descendants in pre-order. Returning false from
// fn skips the children of the visited node.
func (g *Graph) Traverse(id NodeID, fn func(NodeID) bool) {
	if !g.Valid(id) {
		return
	}
	g.walk(int32(id.index), func(i int32) bool { return fn(g.handle(i)) })
}

// TraverseVisible is Traverse restricted to visible nodes; an invisible node
// hides its subtree.
func (g *Graph) TraverseVisible(id NodeID, fn func(NodeID)) {
	g.Traverse(id, func(n NodeID) bool {
		if !g.nodes[n.index].visible {
			return false
		}
		fn(n)
		return true
	})
}

// SetName sets a debugging name.
func (g *Graph) SetName(id NodeID, name string) {
	if n, err := g.get(id); err == nil {
		n.name = name
	}
}

// Name returns the debugging name.
func (g *Graph) Name(id NodeID) string {
	if n, err := g.get(id); err == nil {
		return n.name
	}
	return ""
}

// FindByName returns the first node named name in pre-order below root.
func (g *Graph) FindByName(root NodeID, name string) NodeID {
	found := Nil
	g.Traverse(root, func(n NodeID) bool {
		if found.IsNil() && g.nodes[n.index].name == name {
			found = n
		}
		return found.IsNil()
	})
	return found
}

// Bounds returns the world-space bounding sphere of the mesh on id, or an
// empty sphere. World matrices must be current.
func (g *Graph) Bounds(id NodeID) math3d.Sphere {
	n, err := g.get(id)
	if err != nil || n.mesh == nil || n.mesh.Geometry == nil {
		return math3d.EmptySphere()
	}
	return n.mesh.Geometry.BoundingSphere().ApplyMat4(n.world)
}
