package g3d

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/program"
	"github.com/gogpu/g3d/renderlist"
	"github.com/gogpu/g3d/scene"
)

// uniform is a named value set on every program of a pass that declares it.
type uniform struct {
	name  string
	value []float32
}

// shadowCaster is a light that renders a shadow map this frame.
type shadowCaster struct {
	node    scene.NodeID
	light   *scene.Light
	view    scene.View
	sampler string
}

// lightSet is the lighting of one frame, resolved once before any pass.
type lightSet struct {
	state    program.LightState
	uniforms []uniform
	casters  []shadowCaster
}

// shadowsFirst orders shadow-casting lights before the others. Shadow maps
// are indexed like the lights they belong to, so casters take the low
// indices. The order is otherwise stable.
func shadowsFirst(items []renderlist.LightItem) {
	slices.SortStableFunc(items, func(a, b renderlist.LightItem) int {
		return cmp.Compare(castRank(a.Light), castRank(b.Light))
	})
}

func castRank(l *scene.Light) int {
	if l.CastsShadow() {
		return 0
	}
	return 1
}

func vec3(v mgl32.Vec3) []float32 { return []float32{v[0], v[1], v[2]} }

func scalar(v float32) []float32 { return []float32{v} }

func indexedName(base string, i int) string { return base + strconv.Itoa(i) }

// collectLights resolves the lights found by the render list into counts,
// uniform values and shadow casters.
func (r *Renderer) collectLights(items []renderlist.LightItem) {
	var dir, point, spot, hemi []renderlist.LightItem
	var ambient mgl32.Vec3
	for _, it := range items {
		switch it.Light.Kind {
		case scene.AmbientLight:
			ambient = ambient.Add(it.Light.Radiance())
		case scene.DirectionalLight:
			dir = append(dir, it)
		case scene.PointLight:
			point = append(point, it)
		case scene.SpotLight:
			spot = append(spot, it)
		case scene.HemisphereLight:
			hemi = append(hemi, it)
		}
	}
	shadowsFirst(dir)
	shadowsFirst(spot)

	ls := lightSet{}
	ls.state.Directional = len(dir)
	ls.state.Point = len(point)
	ls.state.Spot = len(spot)
	ls.state.Hemisphere = len(hemi)
	u := []uniform{{"ambientLightColor", vec3(ambient)}}

	for i, it := range hemi {
		up := r.graph.WorldPosition(it.Node)
		if up.Len() < 1e-6 {
			up = mgl32.Vec3{0, 1, 0}
		}
		u = append(u,
			uniform{indexedName("hemiLightDirection", i), vec3(up.Normalize())},
			uniform{indexedName("hemiLightSkyColor", i), vec3(it.Light.Radiance())},
			uniform{indexedName("hemiLightGroundColor", i), vec3(it.Light.GroundColor.Mul(it.Light.Intensity))})
	}

	for i, it := range dir {
		u = append(u,
			uniform{indexedName("dirLightDirection", i), vec3(r.graph.LightDirection(it.Node))},
			uniform{indexedName("dirLightColor", i), vec3(it.Light.Radiance())})
		if it.Light.CastsShadow() {
			c := r.shadowCaster(it, indexedName("dirShadowMap", i))
			ls.casters = append(ls.casters, c)
			ls.state.DirectionalShadows++
			u = append(u,
				uniform{indexedName("dirShadowMatrix", i), c.view.ViewProjection[:]},
				uniform{indexedName("dirShadowBias", i), scalar(it.Light.Shadow.Bias)})
		}
	}

	for i, it := range point {
		u = append(u,
			uniform{indexedName("pointLightPosition", i), vec3(r.graph.WorldPosition(it.Node))},
			uniform{indexedName("pointLightColor", i), vec3(it.Light.Radiance())},
			uniform{indexedName("pointLightDistance", i), scalar(it.Light.Distance)},
			uniform{indexedName("pointLightDecay", i), scalar(it.Light.Decay)})
	}

	for i, it := range spot {
		outer, inner := it.Light.ConeCos()
		u = append(u,
			uniform{indexedName("spotLightPosition", i), vec3(r.graph.WorldPosition(it.Node))},
			uniform{indexedName("spotLightDirection", i), vec3(r.graph.LightDirection(it.Node))},
			uniform{indexedName("spotLightColor", i), vec3(it.Light.Radiance())},
			uniform{indexedName("spotLightDistance", i), scalar(it.Light.Distance)},
			uniform{indexedName("spotLightDecay", i), scalar(it.Light.Decay)},
			uniform{indexedName("spotLightConeCos", i), scalar(outer)},
			uniform{indexedName("spotLightPenumbraCos", i), scalar(inner)})
		if it.Light.CastsShadow() {
			c := r.shadowCaster(it, indexedName("spotShadowMap", i))
			ls.casters = append(ls.casters, c)
			ls.state.SpotShadows++
			u = append(u,
				uniform{indexedName("spotShadowMatrix", i), c.view.ViewProjection[:]},
				uniform{indexedName("spotShadowBias", i), scalar(it.Light.Shadow.Bias)})
		}
	}

	if r.envMode != program.EnvNone {
		u = append(u, uniform{"envMapIntensity", scalar(r.envMapIntensity)})
	}
	u = append(u, uniform{"toneMappingExposure", scalar(r.opts.exposure)})
	for i, p := range r.opts.clippingPlanes {
		u = append(u, uniform{indexedName("clippingPlane", i), []float32{p[0], p[1], p[2], p[3]}})
	}

	ls.uniforms = u
	r.lights = ls
}

// shadowCaster places the shadow camera of a light: an orthographic volume
// for directional lights, the spot cone for spot lights. Both look from the
// light node toward its target.
func (r *Renderer) shadowCaster(it renderlist.LightItem, sampler string) shadowCaster {
	l := it.Light
	pos := r.graph.WorldPosition(it.Node)
	dir := r.graph.LightDirection(it.Node)
	up := mgl32.Vec3{0, 1, 0}
	if math32.Abs(dir.Dot(up)) > 0.999 {
		up = mgl32.Vec3{0, 0, 1}
	}
	world := mgl32.LookAtV(pos, pos.Add(dir), up).Inv()

	near, far := l.Shadow.Near, l.Shadow.Far
	var cam *scene.Camera
	if l.Kind == scene.SpotLight {
		fov := mgl32.RadToDeg(2 * l.Angle)
		cam = scene.NewPerspectiveCamera(min(fov, 179), 1, near, far)
	} else {
		e := l.Shadow.Extent
		cam = scene.NewOrthographicCamera(-e, e, e, -e, near, far)
	}
	cam.Layers = scene.AllLayers
	return shadowCaster{
		node:    it.Node,
		light:   l,
		view:    scene.NewView(it.Node, cam, world, r.opts.depthRange),
		sampler: sampler,
	}
}
