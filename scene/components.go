package scene

import (
	"github.com/gogpu/g3d/geometry"
	"github.com/gogpu/g3d/material"
)

// Mesh draws a geometry with one material per group.
type Mesh struct {
	Geometry  *geometry.Geometry
	Materials []*material.Material

	CastShadow    bool
	ReceiveShadow bool

	released bool
}

// NewMesh retains g and every material. The references are dropped when the
// mesh is removed from its node or the node is destroyed.
func NewMesh(g *geometry.Geometry, materials ...*material.Material) *Mesh {
	g.Retain()
	for _, m := range materials {
		m.Retain()
	}
	return &Mesh{Geometry: g, Materials: materials, ReceiveShadow: true}
}

// Material returns the material at index, or nil when out of range.
func (m *Mesh) Material(index int) *material.Material {
	if index < 0 || index >= len(m.Materials) {
		return nil
	}
	return m.Materials[index]
}

// UsesGroups reports whether the mesh draws per geometry group. A mesh with
// a single material draws the whole geometry with it.
func (m *Mesh) UsesGroups() bool {
	return len(m.Materials) > 1 && len(m.Geometry.Groups()) > 0
}

// Release drops the references NewMesh took. It is idempotent.
func (m *Mesh) Release() {
	if m == nil || m.released {
		return
	}
	m.released = true
	m.Geometry.Release()
	for _, mat := range m.Materials {
		mat.Release()
	}
}

func (n *node) releaseComponents() {
	n.mesh.Release()
	n.mesh = nil
	n.camera = nil
	n.light = nil
}

// SetMesh attaches m to id, releasing a previous mesh. A nil m removes it.
func (g *Graph) SetMesh(id NodeID, m *Mesh) error {
	n, err := g.get(id)
	if err != nil {
		return err
	}
	if n.mesh != m {
		n.mesh.Release()
	}
	n.mesh = m
	return nil
}

// Mesh returns the mesh on id, or nil.
func (g *Graph) Mesh(id NodeID) *Mesh {
	if n, err := g.get(id); err == nil {
		return n.mesh
	}
	return nil
}

// SetCamera attaches c to id. A nil c removes it.
func (g *Graph) SetCamera(id NodeID, c *Camera) error {
	n, err := g.get(id)
	if err != nil {
		return err
	}
	n.camera = c
	return nil
}

// Camera returns the camera on id, or nil.
func (g *Graph) Camera(id NodeID) *Camera {
	if n, err := g.get(id); err == nil {
		return n.camera
	}
	return nil
}

// SetLight attaches l to id. A nil l removes it.
func (g *Graph) SetLight(id NodeID, l *Light) error {
	n, err := g.get(id)
	if err != nil {
		return err
	}
	n.light = l
	return nil
}

// Light returns the light on id, or nil.
func (g *Graph) Light(id NodeID) *Light {
	if n, err := g.get(id); err == nil {
		return n.light
	}
	return nil
}

// SetVisible shows or hides id and its subtree.
func (g *Graph) SetVisible(id NodeID, v bool) {
	if n, err := g.get(id); err == nil {
		n.visible = v
	}
}

// Visible reports the node's own visibility flag.
func (g *Graph) Visible(id NodeID) bool {
	n, err := g.get(id)
	return err == nil && n.visible
}

// SetRenderOrder sets the sort override used before depth ties.
func (g *Graph) SetRenderOrder(id NodeID, order int) {
	if n, err := g.get(id); err == nil {
		n.renderOrder = order
	}
}

// RenderOrder returns the sort override.
func (g *Graph) RenderOrder(id NodeID) int {
	if n, err := g.get(id); err == nil {
		return n.renderOrder
	}
	return 0
}

// SetGroupOrder makes id a sort group: every draw in its subtree sorts by
// order before depth ties, unless a nearer ancestor sets its own.
func (g *Graph) SetGroupOrder(id NodeID, order int) {
	if n, err := g.get(id); err == nil {
		n.groupOrder = order
		n.hasGroupOrder = true
	}
}

// ClearGroupOrder removes the sort group set by SetGroupOrder.
func (g *Graph) ClearGroupOrder(id NodeID) {
	if n, err := g.get(id); err == nil {
		n.groupOrder = 0
		n.hasGroupOrder = false
	}
}

// GroupOrder returns the group order set on id and whether one is set.
func (g *Graph) GroupOrder(id NodeID) (int, bool) {
	if n, err := g.get(id); err == nil {
		return n.groupOrder, n.hasGroupOrder
	}
	return 0, false
}

// SetFrustumCulled enables or disables culling of id against the camera.
func (g *Graph) SetFrustumCulled(id NodeID, v bool) {
	if n, err := g.get(id); err == nil {
		n.frustumCulled = v
	}
}

// FrustumCulled reports whether id is subject to frustum culling.
func (g *Graph) FrustumCulled(id NodeID) bool {
	n, err := g.get(id)
	return err == nil && n.frustumCulled
}

// SetLayers sets the layer mask of id.
func (g *Graph) SetLayers(id NodeID, l Layers) {
	if n, err := g.get(id); err == nil {
		n.layers = l
	}
}

// Layers returns the layer mask of id.
func (g *Graph) Layers(id NodeID) Layers {
	if n, err := g.get(id); err == nil {
		return n.layers
	}
	return 0
}
