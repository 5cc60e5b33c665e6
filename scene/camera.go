package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/math3d"
)

// Projection is the camera projection kind.
type Projection uint8

// Projections.
const (
	Perspective Projection = iota
	Orthographic
)

// Camera is a projection attached to a node. The node's world matrix places
// the camera; it looks down its local -Z axis.
type Camera struct {
	Projection Projection

	// FovY is the vertical field of view in degrees.
	FovY   float32
	Aspect float32
	Near   float32
	Far    float32

	Left, Right, Top, Bottom float32

	Zoom   float32
	Layers Layers
}

// NewPerspectiveCamera returns a perspective camera.
func NewPerspectiveCamera(fovY, aspect, near, far float32) *Camera {
	return &Camera{Projection: Perspective, FovY: fovY, Aspect: aspect, Near: near, Far: far, Zoom: 1, Layers: DefaultLayers}
}

// NewOrthographicCamera returns an orthographic camera.
func NewOrthographicCamera(left, right, top, bottom, near, far float32) *Camera {
	return &Camera{
		Projection: Orthographic,
		Left:       left, Right: right, Top: top, Bottom: bottom,
		Near: near, Far: far, Zoom: 1, Layers: DefaultLayers,
	}
}

// ProjectionMatrix returns the projection for the device depth convention.
func (c *Camera) ProjectionMatrix(depth math3d.DepthRange) mgl32.Mat4 {
	zoom := c.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	if c.Projection == Orthographic {
		cx, cy := (c.Left+c.Right)/2, (c.Top+c.Bottom)/2
		hw, hh := (c.Right-c.Left)/(2*zoom), (c.Top-c.Bottom)/(2*zoom)
		return math3d.Orthographic(cx-hw, cx+hw, cy-hh, cy+hh, c.Near, c.Far, depth)
	}
	fov := mgl32.DegToRad(c.FovY)
	if zoom != 1 {
		fov = 2 * math32.Atan(math32.Tan(fov/2)/zoom)
	}
	return math3d.Perspective(fov, c.Aspect, c.Near, c.Far, depth)
}

// SetAspect updates the aspect ratio of a perspective camera or widens an
// orthographic one around its center.
func (c *Camera) SetAspect(aspect float32) {
	if c.Projection == Perspective {
		c.Aspect = aspect
		return
	}
	cx := (c.Left + c.Right) / 2
	hh := (c.Top - c.Bottom) / 2
	c.Left, c.Right = cx-hh*aspect, cx+hh*aspect
}

// View is a camera resolved for one frame.
type View struct {
	Node           NodeID
	Camera         *Camera
	World          mgl32.Mat4
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	ViewProjection mgl32.Mat4
	Position       mgl32.Vec3
	Frustum        math3d.Frustum
}

// ResolveView computes view, projection and frustum of the camera on id.
// World matrices must be current.
func (g *Graph) ResolveView(id NodeID, depth math3d.DepthRange) (View, error) {
	n, err := g.get(id)
	if err != nil {
		return View{}, err
	}
	if n.camera == nil {
		return View{}, ErrInvalidNode
	}
	return NewView(id, n.camera, n.world, depth), nil
}

// NewView builds a View for a camera placed by world.
func NewView(id NodeID, c *Camera, world mgl32.Mat4, depth math3d.DepthRange) View {
	proj := c.ProjectionMatrix(depth)
	view := world.Inv()
	vp := proj.Mul4(view)
	return View{
		Node:           id,
		Camera:         c,
		World:          world,
		View:           view,
		Projection:     proj,
		ViewProjection: vp,
		Position:       world.Col(3).Vec3(),
		Frustum:        math3d.FrustumFromMatrix(vp, depth),
	}
}

// Depth returns the camera-space distance of a world point along the view
// direction. Larger is farther.
func (v View) Depth(p mgl32.Vec3) float32 {
	return -math3d.TransformPoint(v.View, p).Z()
}
