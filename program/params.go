package program

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/gogpu/g3d/geometry"
	"github.com/gogpu/g3d/material"
)

// Feature is one boolean shader switch.
type Feature uint8

// Features. The order is the bit order in the packed key.
const (
	FeatureLit Feature = iota
	FeatureNormals
	FeatureUVs
	FeatureTangents
	FeatureVertexColors
	FeatureMap
	FeatureNormalMap
	FeatureEmissiveMap
	FeatureRoughnessMap
	FeatureMetalnessMap
	FeatureAlphaTest
	FeatureFlatShading
	FeatureDoubleSided
	FeatureBackSide
	FeatureTransmission
	FeatureReceiveShadows
	FeaturePremultipliedAlpha
	FeatureOpacity
	featureCount
)

var featureDefines = [featureCount]string{
	FeatureLit:                "USE_LIGHTS",
	FeatureNormals:            "USE_NORMAL",
	FeatureUVs:                "USE_UV",
	FeatureTangents:           "USE_TANGENT",
	FeatureVertexColors:       "USE_COLOR",
	FeatureMap:                "USE_MAP",
	FeatureNormalMap:          "USE_NORMALMAP",
	FeatureEmissiveMap:        "USE_EMISSIVEMAP",
	FeatureRoughnessMap:       "USE_ROUGHNESSMAP",
	FeatureMetalnessMap:       "USE_METALNESSMAP",
	FeatureAlphaTest:          "USE_ALPHATEST",
	FeatureFlatShading:        "FLAT_SHADED",
	FeatureDoubleSided:        "DOUBLE_SIDED",
	FeatureBackSide:           "FLIP_SIDED",
	FeatureTransmission:       "USE_TRANSMISSION",
	FeatureReceiveShadows:     "USE_SHADOWMAP",
	FeaturePremultipliedAlpha: "PREMULTIPLIED_ALPHA",
	FeatureOpacity:            "USE_OPACITY",
}

// Define returns the preprocessor symbol the feature sets.
func (f Feature) Define() string {
	if f < featureCount {
		return featureDefines[f]
	}
	return ""
}

const featureWords = (int(featureCount) + 31) / 32

// Features is a packed feature bit set.
type Features [featureWords]uint32

// Set turns f on or off.
func (fs *Features) Set(f Feature, on bool) {
	if on {
		fs[f/32] |= 1 << (f % 32)
	} else {
		fs[f/32] &^= 1 << (f % 32)
	}
}

// Has reports whether f is on.
func (fs Features) Has(f Feature) bool { return fs[f/32]&(1<<(f%32)) != 0 }

// EnvMapMode is how an environment map is applied.
type EnvMapMode uint8

// Environment map modes.
const (
	EnvNone EnvMapMode = iota
	EnvReflection
	EnvRefraction
)

// ShadowMapType selects the shadow filter.
type ShadowMapType uint8

// Shadow filters.
const (
	ShadowBasic ShadowMapType = iota
	ShadowPCF
)

// ToneMapping selects the tone mapping operator.
type ToneMapping uint8

// Tone mapping operators.
const (
	ToneNone ToneMapping = iota
	ToneLinear
	ToneReinhard
	ToneACES
)

// ColorSpace is the color space of the output target.
type ColorSpace uint8

// Color spaces.
const (
	ColorSpaceLinear ColorSpace = iota
	ColorSpaceSRGB
)

var toneDefines = [...]string{
	ToneNone:     "TONE_NONE",
	ToneLinear:   "TONE_LINEAR",
	ToneReinhard: "TONE_REINHARD",
	ToneACES:     "TONE_ACES",
}

// LightState counts the active lights of a frame.
type LightState struct {
	Directional int
	Point       int
	Spot        int
	Hemisphere  int

	DirectionalShadows int
	SpotShadows        int
}

// Env is the renderer-wide environment a draw is made in.
type Env struct {
	ClippingPlanes   int
	EnvMap           EnvMapMode
	ShadowMap        ShadowMapType
	ToneMapping      ToneMapping
	OutputColorSpace ColorSpace
}

// Parameters is the resolved shader permutation of a draw.
type Parameters struct {
	Template string
	Features Features

	DirectionalLights  int
	PointLights        int
	SpotLights         int
	HemisphereLights   int
	DirectionalShadows int
	SpotShadows        int
	ClippingPlanes     int

	EnvMap           EnvMapMode
	ShadowMap        ShadowMapType
	ToneMapping      ToneMapping
	OutputColorSpace ColorSpace

	Caps    material.Capability
	Defines map[string]string
}

// ResolveParameters reduces a draw context to its shader permutation. Only
// inputs that change the emitted source are recorded.
func ResolveParameters(g *geometry.Geometry, m *material.Material, lights LightState, env Env) Parameters {
	caps := m.Capabilities()
	p := Parameters{
		Template:         m.Family().String(),
		ClippingPlanes:   env.ClippingPlanes,
		OutputColorSpace: env.OutputColorSpace,
		Caps:             caps,
		Defines:          maps.Clone(m.Defines()),
	}
	if m.Family() == material.Depth {
		return p
	}

	lit := caps.Has(material.CapLighting)
	hasUV := g.HasAttribute(geometry.AttrUV)
	tex := m.Textures()
	_, useMap := tex["map"]
	_, useNormalMap := tex["normalMap"]
	_, useEmissiveMap := tex["emissiveMap"]
	_, useRoughnessMap := tex["roughnessMap"]
	_, useMetalnessMap := tex["metalnessMap"]
	useNormalMap = useNormalMap && lit

	f := &p.Features
	f.Set(FeatureLit, lit)
	f.Set(FeatureNormals, lit && g.HasAttribute(geometry.AttrNormal) && !m.FlatShading)
	f.Set(FeatureUVs, hasUV && len(tex) > 0)
	f.Set(FeatureTangents, useNormalMap && g.HasAttribute(geometry.AttrTangent))
	f.Set(FeatureVertexColors, m.VertexColors && g.HasAttribute(geometry.AttrColor))
	f.Set(FeatureMap, useMap)
	f.Set(FeatureNormalMap, useNormalMap)
	f.Set(FeatureEmissiveMap, useEmissiveMap)
	f.Set(FeatureRoughnessMap, useRoughnessMap)
	f.Set(FeatureMetalnessMap, useMetalnessMap)
	f.Set(FeatureAlphaTest, m.AlphaTest > 0)
	f.Set(FeatureFlatShading, lit && m.FlatShading)
	f.Set(FeatureDoubleSided, m.State.Side == material.DoubleSide)
	f.Set(FeatureBackSide, m.State.Side == material.BackSide)
	f.Set(FeatureTransmission, m.IsTransmissive())
	f.Set(FeaturePremultipliedAlpha, m.State.Blend.PremultipliedAlpha)
	f.Set(FeatureOpacity, m.Transparent || m.AlphaTest > 0 || m.IsTransmissive())

	if lit {
		p.DirectionalLights = lights.Directional
		p.PointLights = lights.Point
		p.SpotLights = lights.Spot
		p.HemisphereLights = lights.Hemisphere
		p.EnvMap = env.EnvMap
		if m.ReceiveShadows && lights.DirectionalShadows+lights.SpotShadows > 0 {
			f.Set(FeatureReceiveShadows, true)
			p.DirectionalShadows = min(lights.DirectionalShadows, lights.Directional)
			p.SpotShadows = min(lights.SpotShadows, lights.Spot)
			p.ShadowMap = env.ShadowMap
		}
	}
	if m.ToneMapped {
		p.ToneMapping = env.ToneMapping
	}
	return p
}

// Key returns the deterministic cache key. Equal keys imply identical
// source; any difference in emitted source changes the key.
func (p Parameters) Key() string {
	var b strings.Builder
	b.WriteString(p.Template)
	for _, w := range p.Features {
		b.WriteByte('|')
		b.WriteString(strconv.FormatUint(uint64(w), 16))
	}
	b.WriteByte('|')
	counts := [...]int{
		p.DirectionalLights, p.PointLights, p.SpotLights, p.HemisphereLights,
		p.DirectionalShadows, p.SpotShadows, p.ClippingPlanes,
		int(p.EnvMap), int(p.ShadowMap), int(p.ToneMapping), int(p.OutputColorSpace),
		int(p.Caps),
	}
	for i, c := range counts {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(c))
	}
	for _, k := range slices.Sorted(maps.Keys(p.Defines)) {
		b.WriteByte('|')
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(p.Defines[k]))
	}
	return b.String()
}

// defines returns every preprocessor symbol of p: feature switches, counts
// and the free-form defines.
func (p Parameters) defines() map[string]string {
	d := make(map[string]string, len(p.Defines)+int(featureCount)+12)
	for f := range featureCount {
		if p.Features.Has(f) {
			d[f.Define()] = "1"
		}
	}
	d["NUM_DIR_LIGHTS"] = strconv.Itoa(p.DirectionalLights)
	d["NUM_POINT_LIGHTS"] = strconv.Itoa(p.PointLights)
	d["NUM_SPOT_LIGHTS"] = strconv.Itoa(p.SpotLights)
	d["NUM_HEMI_LIGHTS"] = strconv.Itoa(p.HemisphereLights)
	d["NUM_DIR_SHADOWS"] = strconv.Itoa(p.DirectionalShadows)
	d["NUM_SPOT_SHADOWS"] = strconv.Itoa(p.SpotShadows)
	d["NUM_CLIPPING_PLANES"] = strconv.Itoa(p.ClippingPlanes)
	d[toneDefines[p.ToneMapping]] = "1"
	d["FAMILY_"+strings.ToUpper(p.Template)] = "1"
	if p.ShadowMap == ShadowPCF {
		d["SHADOWMAP_PCF"] = "1"
	}
	switch p.EnvMap {
	case EnvReflection:
		d["USE_ENVMAP"] = "1"
		d["ENVMAP_REFLECTION"] = "1"
	case EnvRefraction:
		d["USE_ENVMAP"] = "1"
		d["ENVMAP_REFRACTION"] = "1"
	}
	if p.OutputColorSpace == ColorSpaceSRGB {
		d["OUTPUT_SRGB"] = "1"
	}
	caps := map[material.Capability]string{
		material.CapEmissive:     "HAS_EMISSIVE",
		material.CapSpecular:     "HAS_SPECULAR",
		material.CapPBR:          "HAS_PBR",
		material.CapTransmission: "HAS_TRANSMISSION",
	}
	for c, name := range caps {
		if p.Caps.Has(c) {
			d[name] = "1"
		}
	}
	for k, v := range p.Defines {
		d[k] = v
	}
	return d
}
