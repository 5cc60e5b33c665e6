package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// LightKind tags a light.
type LightKind uint8

// Light kinds.
const (
	AmbientLight LightKind = iota
	DirectionalLight
	PointLight
	SpotLight
	HemisphereLight
)

func (k LightKind) String() string {
	switch k {
	case AmbientLight:
		return "ambient"
	case DirectionalLight:
		return "directional"
	case PointLight:
		return "point"
	case SpotLight:
		return "spot"
	case HemisphereLight:
		return "hemisphere"
	default:
		return "unknown"
	}
}

// Shadow configures the shadow map of a directional or spot light.
type Shadow struct {
	MapSize int
	Bias    float32
	Near    float32
	Far     float32
	// Extent is the half size of a directional light's orthographic volume.
	Extent float32
}

// DefaultShadow is the shadow configuration of new lights.
var DefaultShadow = Shadow{MapSize: 1024, Bias: -0.0005, Near: 0.5, Far: 500, Extent: 5}

// Light is a light source attached to a node. Its position is the node's
// world position.
type Light struct {
	Kind      LightKind
	Color     mgl32.Vec3
	Intensity float32

	// GroundColor is the lower hemisphere color of a hemisphere light.
	GroundColor mgl32.Vec3

	// Distance is the cutoff range of point and spot lights; 0 is unbounded.
	Distance float32
	Decay    float32

	// Angle is the spot cone half angle in radians; Penumbra in [0,1] the
	// fraction of the cone that fades.
	Angle    float32
	Penumbra float32

	// Target is the node directional and spot lights aim at; Nil aims at
	// the world origin.
	Target NodeID

	CastShadow bool
	Shadow     Shadow
}

// NewAmbientLight returns uniform light from all directions.
func NewAmbientLight(color mgl32.Vec3, intensity float32) *Light {
	return &Light{Kind: AmbientLight, Color: color, Intensity: intensity}
}

// NewDirectionalLight returns parallel light from the node toward its target.
func NewDirectionalLight(color mgl32.Vec3, intensity float32) *Light {
	return &Light{Kind: DirectionalLight, Color: color, Intensity: intensity, Shadow: DefaultShadow}
}

// NewPointLight returns omnidirectional light from the node.
func NewPointLight(color mgl32.Vec3, intensity, distance, decay float32) *Light {
	return &Light{Kind: PointLight, Color: color, Intensity: intensity, Distance: distance, Decay: decay}
}

// NewSpotLight returns a cone of light from the node toward its target.
func NewSpotLight(color mgl32.Vec3, intensity, distance, angle, penumbra, decay float32) *Light {
	return &Light{
		Kind: SpotLight, Color: color, Intensity: intensity,
		Distance: distance, Angle: angle, Penumbra: penumbra, Decay: decay,
		Shadow: DefaultShadow,
	}
}

// NewHemisphereLight returns sky light fading to a ground color.
func NewHemisphereLight(sky, ground mgl32.Vec3, intensity float32) *Light {
	return &Light{Kind: HemisphereLight, Color: sky, GroundColor: ground, Intensity: intensity}
}

// Radiance returns Color scaled by Intensity.
func (l *Light) Radiance() mgl32.Vec3 { return l.Color.Mul(l.Intensity) }

// ConeCos returns the cosines of the outer and inner spot cone angles.
func (l *Light) ConeCos() (outer, inner float32) {
	outer = math32.Cos(l.Angle)
	inner = math32.Cos(l.Angle * (1 - l.Penumbra))
	return outer, inner
}

// CastsShadow reports whether the light renders a shadow map.
func (l *Light) CastsShadow() bool {
	return l.CastShadow && (l.Kind == DirectionalLight || l.Kind == SpotLight)
}

// LightDirection returns the normalized world direction the light on id
// travels: from its node toward its target. World matrices must be current.
func (g *Graph) LightDirection(id NodeID) mgl32.Vec3 {
	l := g.Light(id)
	if l == nil {
		return mgl32.Vec3{0, -1, 0}
	}
	from := g.WorldPosition(id)
	var to mgl32.Vec3
	if g.Valid(l.Target) {
		to = g.WorldPosition(l.Target)
	}
	d := to.Sub(from)
	if d.Len() < 1e-6 {
		return mgl32.Vec3{0, -1, 0}
	}
	return d.Normalize()
}
