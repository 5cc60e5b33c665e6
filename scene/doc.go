// Package scene implements the retained scene graph.
//
// Nodes live in an arena owned by a Graph and are addressed by NodeID
// handles. A handle carries a generation, so a handle to a destroyed node
// stays invalid after its slot is reused. Parent and child links are arena
// indices; there are no pointer cycles.
//
// Each node keeps a local transform (position, rotation, scale) and a cached
// world matrix. Setters mark the local matrix dirty; UpdateAll walks every
// root in pre-order and recomputes only the world matrices whose node or
// ancestor changed.
//
//	g := scene.NewGraph()
//	root := g.CreateNode()
//	child := g.CreateNode()
//	_ = g.Attach(root, child)
//	g.SetPosition(child, mgl32.Vec3{1, 0, 0})
//	g.UpdateAll()
//
// Drawables attach to nodes as components: a Mesh, a Camera or a Light.
package scene
