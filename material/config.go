package material

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/core"
)

// Ptr returns a pointer to v, for filling Config fields inline.
func Ptr[T any](v T) *T { return &v }

// NoTexture clears a texture slot when assigned through Config.
var NoTexture = &core.Texture{}

// Config is a partial material update. Nil fields are left unchanged.
// Texture fields take NoTexture to clear a slot.
type Config struct {
	Name *string

	Color             *mgl32.Vec3
	Emissive          *mgl32.Vec3
	EmissiveIntensity *float32
	Specular          *mgl32.Vec3
	Shininess         *float32
	Roughness         *float32
	Metalness         *float32
	Transmission      *float32
	Thickness         *float32
	IOR               *float32
	NormalScale       *float32

	Map          *core.Texture
	NormalMap    *core.Texture
	EmissiveMap  *core.Texture
	RoughnessMap *core.Texture
	MetalnessMap *core.Texture

	VertexColors   *bool
	FlatShading    *bool
	ReceiveShadows *bool

	Transparent *bool
	Opacity     *float32
	AlphaTest   *float32
	ToneMapped  *bool
	Visible     *bool

	State *RenderState

	// Defines adds or overwrites preprocessor symbols. A symbol mapped to
	// RemoveDefine is deleted.
	Defines map[string]string
}

// RemoveDefine as a Config.Defines value deletes that symbol.
const RemoveDefine = "\x00remove"


// SetValues applies cfg. Version increments by one if any rendered value
// changed; ProgramVersion increments by one if the generated shader would
// differ. Name changes affect neither.
func (m *Material) SetValues(cfg Config) {
	m.apply(cfg)
}

type changes struct {
	visual  bool
	program bool
}

func (m *Material) apply(cfg Config) {
	var c changes
	if cfg.Name != nil {
		m.Name = *cfg.Name
	}

	setVec(&c, &m.Color, cfg.Color)
	setVec(&c, &m.Emissive, cfg.Emissive)
	setFloat(&c, &m.EmissiveIntensity, cfg.EmissiveIntensity)
	setVec(&c, &m.Specular, cfg.Specular)
	setFloat(&c, &m.Shininess, cfg.Shininess)
	setFloat(&c, &m.Roughness, cfg.Roughness)
	setFloat(&c, &m.Metalness, cfg.Metalness)
	setFloat(&c, &m.Thickness, cfg.Thickness)
	setFloat(&c, &m.IOR, cfg.IOR)
	setFloat(&c, &m.NormalScale, cfg.NormalScale)
	setFloat(&c, &m.Opacity, cfg.Opacity)

	if cfg.Transmission != nil && *cfg.Transmission != m.Transmission {
		if (m.Transmission > 0) != (*cfg.Transmission > 0) {
			c.program = true
		}
		m.Transmission = *cfg.Transmission
		c.visual = true
	}
	if cfg.AlphaTest != nil && *cfg.AlphaTest != m.AlphaTest {
		if (m.AlphaTest > 0) != (*cfg.AlphaTest > 0) {
			c.program = true
		}
		m.AlphaTest = *cfg.AlphaTest
		c.visual = true
	}

	setTexture(&c, &m.Map, cfg.Map)
	setTexture(&c, &m.NormalMap, cfg.NormalMap)
	setTexture(&c, &m.EmissiveMap, cfg.EmissiveMap)
	setTexture(&c, &m.RoughnessMap, cfg.RoughnessMap)
	setTexture(&c, &m.MetalnessMap, cfg.MetalnessMap)

	setProgramBool(&c, &m.VertexColors, cfg.VertexColors)
	setProgramBool(&c, &m.FlatShading, cfg.FlatShading)
	setProgramBool(&c, &m.ReceiveShadows, cfg.ReceiveShadows)
	setProgramBool(&c, &m.ToneMapped, cfg.ToneMapped)

	if cfg.Transparent != nil && *cfg.Transparent != m.Transparent {
		m.Transparent = *cfg.Transparent
		c.visual = true
		c.program = true
	}
	if cfg.Visible != nil && *cfg.Visible != m.Visible {
		m.Visible = *cfg.Visible
		c.visual = true
	}
	if cfg.State != nil && *cfg.State != m.State {
		if cfg.State.Side != m.State.Side || cfg.State.Blend.PremultipliedAlpha != m.State.Blend.PremultipliedAlpha {
			c.program = true
		}
		m.State = *cfg.State
		c.visual = true
	}
	for k, v := range cfg.Defines {
		old, ok := m.defines[k]
		if v == RemoveDefine {
			if !ok {
				continue
			}
			delete(m.defines, k)
		} else {
			if ok && old == v {
				continue
			}
			m.defines[k] = v
		}
		c.visual = true
		c.program = true
	}

	if c.visual {
		m.version++
	}
	if c.program {
		m.programVersion++
	}
}

func setFloat(c *changes, dst *float32, v *float32) {
	if v != nil && *v != *dst {
		*dst = *v
		c.visual = true
	}
}

func setVec(c *changes, dst *mgl32.Vec3, v *mgl32.Vec3) {
	if v != nil && *v != *dst {
		*dst = *v
		c.visual = true
	}
}

func setProgramBool(c *changes, dst *bool, v *bool) {
	if v != nil && *v != *dst {
		*dst = *v
		c.visual = true
		c.program = true
	}
}

// setTexture swaps a slot. Presence changes alter the program; swapping one
// texture for another only changes bindings.
func setTexture(c *changes, dst **core.Texture, v *core.Texture) {
	if v == nil {
		return
	}
	if v == NoTexture {
		v = nil
	}
	if v == *dst {
		return
	}
	if (v == nil) != (*dst == nil) {
		c.program = true
	}
	*dst = v
	c.visual = true
}
