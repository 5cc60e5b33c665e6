package scene

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/math3d"
)

func (n *node) markMatrixDirty() { n.state = MatrixDirty }

func (n *node) markWorldDirty() {
	if n.state == Clean {
		n.state = WorldDirty
	}
}

// SetPosition sets the local translation.
func (g *Graph) SetPosition(id NodeID, p mgl32.Vec3) {
	if n, err := g.get(id); err == nil {
		n.position = p
		n.markMatrixDirty()
	}
}

// SetRotation sets the local rotation. q is normalized.
func (g *Graph) SetRotation(id NodeID, q mgl32.Quat) {
	if n, err := g.get(id); err == nil {
		n.rotation = q.Normalize()
		n.markMatrixDirty()
	}
}

// SetScale sets the local scale.
func (g *Graph) SetScale(id NodeID, s mgl32.Vec3) {
	if n, err := g.get(id); err == nil {
		n.scale = s
		n.markMatrixDirty()
	}
}

// SetLocalTransform sets translation, rotation and scale at once.
func (g *Graph) SetLocalTransform(id NodeID, p mgl32.Vec3, q mgl32.Quat, s mgl32.Vec3) error {
	n, err := g.get(id)
	if err != nil {
		return err
	}
	n.position, n.rotation, n.scale = p, q.Normalize(), s
	n.markMatrixDirty()
	return nil
}

// SetLocalMatrix decomposes m into the local transform.
func (g *Graph) SetLocalMatrix(id NodeID, m mgl32.Mat4) error {
	p, q, s := math3d.Decompose(m)
	return g.SetLocalTransform(id, p, q, s)
}

// LocalTransform returns translation, rotation and scale.
func (g *Graph) LocalTransform(id NodeID) (mgl32.Vec3, mgl32.Quat, mgl32.Vec3) {
	n, err := g.get(id)
	if err != nil {
		return mgl32.Vec3{}, mgl32.QuatIdent(), mgl32.Vec3{1, 1, 1}
	}
	return n.position, n.rotation, n.scale
}

// LookAt rotates id so that its -Z axis points at target in its parent's
// space, with +Y as close to up as possible.
func (g *Graph) LookAt(id NodeID, target, up mgl32.Vec3) {
	n, err := g.get(id)
	if err != nil {
		return
	}
	if target.Sub(n.position).Len() < math3d.Epsilon {
		return
	}
	view := mgl32.LookAtV(n.position, target, up)
	n.rotation = math3d.QuatFromRotation(view.Mat3().Transpose())
	n.markMatrixDirty()
}

// State returns the transform state of id.
func (g *Graph) State(id NodeID) State {
	if n, err := g.get(id); err == nil {
		return n.state
	}
	return Clean
}

// LocalMatrix returns the last composed local matrix.
func (g *Graph) LocalMatrix(id NodeID) mgl32.Mat4 {
	if n, err := g.get(id); err == nil {
		return n.local
	}
	return mgl32.Ident4()
}

// WorldMatrix returns the cached world matrix. It is current only after an
// update pass reached id.
func (g *Graph) WorldMatrix(id NodeID) mgl32.Mat4 {
	if n, err := g.get(id); err == nil {
		return n.world
	}
	return mgl32.Ident4()
}

// WorldPosition returns the translation of the cached world matrix.
func (g *Graph) WorldPosition(id NodeID) mgl32.Vec3 {
	return g.WorldMatrix(id).Col(3).Vec3()
}

// UpdateMatrix recomposes the local matrix as T·R·S and marks the world
// matrix dirty.
func (g *Graph) UpdateMatrix(id NodeID) {
	if n, err := g.get(id); err == nil {
		n.updateMatrix()
	}
}

func (n *node) updateMatrix() {
	n.local = math3d.Compose(n.position, n.rotation, n.scale)
	n.state = WorldDirty
}

// UpdateWorldMatrix refreshes the world matrix of id and its subtree.
// A node is recomputed only when it or an ancestor is dirty; parentDirty
// forces recomputation of id. It returns the number of recomputed nodes.
func (g *Graph) UpdateWorldMatrix(id NodeID, parentDirty bool) int {
	if !g.Valid(id) {
		return 0
	}
	return g.updateWorld(int32(id.index), parentDirty)
}

func (g *Graph) updateWorld(i int32, parentDirty bool) int {
	n := &g.nodes[i]
	if n.state == MatrixDirty {
		n.updateMatrix()
	}
	updated := 0
	dirty := parentDirty || n.state == WorldDirty
	if dirty {
		if n.parent == noParent {
			n.world = n.local
		} else {
			n.world = g.nodes[n.parent].world.Mul4(n.local)
		}
		n.state = Clean
		updated = 1
	}
	for k := 0; k < len(n.children); k++ {
		updated += g.updateWorld(n.children[k], dirty)
		n = &g.nodes[i]
	}
	return updated
}

// UpdateAll refreshes every world matrix from the roots down and returns
// the number of recomputed nodes.
func (g *Graph) UpdateAll() int {
	updated := 0
	for k := 0; k < len(g.roots); k++ {
		updated += g.updateWorld(g.roots[k], false)
	}
	return updated
}
