package program

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/material"
)

//go:embed shaders/*.wgsl
var chunkFS embed.FS

// ErrPreprocess is returned for malformed chunk directives.
var ErrPreprocess = errors.New("program: preprocess")

const maxIncludeDepth = 16

// Source is an assembled program: one WGSL module with vs_main and fs_main
// entry points, and the interface it declares.
//
// Binding layout: the Uniforms struct is group 0 binding 0. Sampler k of
// Samplers is a texture_2d at binding 1+2k and its sampler at 2+2k.
// Attribute k of Attributes is vertex location k.
type Source struct {
	Code       string
	Attributes []string
	Uniforms   []gpucore.UniformDecl
	Samplers   []string
}

// Descriptor returns the device descriptor compiling s.
func (s Source) Descriptor(label string) gpucore.ProgramDescriptor {
	return gpucore.ProgramDescriptor{
		Label:      label,
		Source:     s.Code,
		Attributes: s.Attributes,
		Uniforms:   s.Uniforms,
		Samplers:   s.Samplers,
	}
}

// Assemble expands the chunk templates for p.
func Assemble(p Parameters) (Source, error) {
	return assemble(chunkFS, p)
}

func assemble(fsys fs.FS, p Parameters) (Source, error) {
	src := Source{
		Attributes: attributesOf(p),
		Uniforms:   uniformsOf(p),
		Samplers:   samplersOf(p),
	}
	pp := &preprocessor{fsys: fsys, defines: p.defines()}

	var b strings.Builder
	writeInterface(&b, src)
	template := "mesh"
	if p.Template == material.Depth.String() {
		template = "depth"
	}
	if err := pp.include(template, &b, 0); err != nil {
		return Source{}, err
	}
	src.Code = b.String()
	return src, nil
}

var attributeTypes = map[string]string{
	"position": "vec3<f32>",
	"normal":   "vec3<f32>",
	"uv":       "vec2<f32>",
	"color":    "vec4<f32>",
	"tangent":  "vec4<f32>",
}

func attributesOf(p Parameters) []string {
	attrs := []string{"position"}
	if p.Features.Has(FeatureNormals) {
		attrs = append(attrs, "normal")
	}
	if p.Features.Has(FeatureUVs) {
		attrs = append(attrs, "uv")
	}
	if p.Features.Has(FeatureVertexColors) {
		attrs = append(attrs, "color")
	}
	if p.Features.Has(FeatureTangents) {
		attrs = append(attrs, "tangent")
	}
	return attrs
}

type declList []gpucore.UniformDecl

func (l *declList) add(t gpucore.UniformType, names ...string) {
	for _, n := range names {
		*l = append(*l, gpucore.UniformDecl{Name: n, Type: t})
	}
}

func indexed(n int, names ...string) []string {
	out := make([]string, 0, n*len(names))
	for i := range n {
		for _, name := range names {
			out = append(out, name+strconv.Itoa(i))
		}
	}
	return out
}

func uniformsOf(p Parameters) []gpucore.UniformDecl {
	var l declList
	l.add(gpucore.UniformMat4, "modelMatrix", "viewMatrix", "projectionMatrix")
	l.add(gpucore.UniformVec4, indexed(p.ClippingPlanes, "clippingPlane")...)
	if p.Template == material.Depth.String() {
		return l
	}
	f := p.Features
	l.add(gpucore.UniformMat3, "normalMatrix")
	l.add(gpucore.UniformVec3, "cameraPosition", "diffuse")
	if f.Has(FeatureOpacity) {
		l.add(gpucore.UniformFloat, "opacity")
	}
	if f.Has(FeatureAlphaTest) {
		l.add(gpucore.UniformFloat, "alphaTest")
	}
	if p.Caps.Has(material.CapEmissive) {
		l.add(gpucore.UniformVec3, "emissive")
	}
	if p.Caps.Has(material.CapSpecular) {
		l.add(gpucore.UniformVec3, "specular")
		l.add(gpucore.UniformFloat, "shininess")
	}
	if p.Caps.Has(material.CapPBR) {
		l.add(gpucore.UniformFloat, "roughness", "metalness")
	}
	if f.Has(FeatureTransmission) {
		l.add(gpucore.UniformFloat, "transmission", "thickness", "ior")
	}
	if f.Has(FeatureNormalMap) {
		l.add(gpucore.UniformFloat, "normalScale")
	}
	if f.Has(FeatureLit) {
		l.add(gpucore.UniformVec3, "ambientLightColor")
		l.add(gpucore.UniformVec3, indexed(p.HemisphereLights, "hemiLightDirection", "hemiLightSkyColor", "hemiLightGroundColor")...)
		l.add(gpucore.UniformVec3, indexed(p.DirectionalLights, "dirLightDirection", "dirLightColor")...)
		l.add(gpucore.UniformMat4, indexed(p.DirectionalShadows, "dirShadowMatrix")...)
		l.add(gpucore.UniformFloat, indexed(p.DirectionalShadows, "dirShadowBias")...)
		l.add(gpucore.UniformVec3, indexed(p.PointLights, "pointLightPosition", "pointLightColor")...)
		l.add(gpucore.UniformFloat, indexed(p.PointLights, "pointLightDistance", "pointLightDecay")...)
		l.add(gpucore.UniformVec3, indexed(p.SpotLights, "spotLightPosition", "spotLightDirection", "spotLightColor")...)
		l.add(gpucore.UniformFloat, indexed(p.SpotLights, "spotLightDistance", "spotLightDecay", "spotLightConeCos", "spotLightPenumbraCos")...)
		l.add(gpucore.UniformMat4, indexed(p.SpotShadows, "spotShadowMatrix")...)
		l.add(gpucore.UniformFloat, indexed(p.SpotShadows, "spotShadowBias")...)
		if p.EnvMap != EnvNone {
			l.add(gpucore.UniformFloat, "envMapIntensity")
		}
	}
	if p.ToneMapping != ToneNone {
		l.add(gpucore.UniformFloat, "toneMappingExposure")
	}
	return l
}

func samplersOf(p Parameters) []string {
	var s []string
	f := p.Features
	maps := []struct {
		feature Feature
		name    string
	}{
		{FeatureMap, "map"},
		{FeatureNormalMap, "normalMap"},
		{FeatureEmissiveMap, "emissiveMap"},
		{FeatureRoughnessMap, "roughnessMap"},
		{FeatureMetalnessMap, "metalnessMap"},
	}
	for _, m := range maps {
		if f.Has(m.feature) {
			s = append(s, m.name)
		}
	}
	if f.Has(FeatureLit) {
		s = append(s, indexed(p.DirectionalShadows, "dirShadowMap")...)
		s = append(s, indexed(p.SpotShadows, "spotShadowMap")...)
		if p.EnvMap != EnvNone {
			s = append(s, "envMap")
		}
	}
	if f.Has(FeatureTransmission) {
		s = append(s, "transmissionMap")
	}
	return s
}

var wgslTypes = map[gpucore.UniformType]string{
	gpucore.UniformFloat: "f32",
	gpucore.UniformVec2:  "vec2<f32>",
	gpucore.UniformVec3:  "vec3<f32>",
	gpucore.UniformVec4:  "vec4<f32>",
	gpucore.UniformMat3:  "mat3x3<f32>",
	gpucore.UniformMat4:  "mat4x4<f32>",
	gpucore.UniformInt:   "i32",
}

func writeInterface(b *strings.Builder, s Source) {
	b.WriteString("struct Uniforms {\n")
	for _, u := range s.Uniforms {
		fmt.Fprintf(b, "    %s: %s,\n", u.Name, wgslTypes[u.Type])
	}
	b.WriteString("}\n\n@group(0) @binding(0) var<uniform> u: Uniforms;\n")
	for k, name := range s.Samplers {
		fmt.Fprintf(b, "@group(0) @binding(%d) var t_%s: texture_2d<f32>;\n", 1+2*k, name)
		fmt.Fprintf(b, "@group(0) @binding(%d) var s_%s: sampler;\n", 2+2*k, name)
	}
	b.WriteString("\nstruct VertexInput {\n")
	for k, name := range s.Attributes {
		fmt.Fprintf(b, "    @location(%d) %s: %s,\n", k, name, attributeTypes[name])
	}
	b.WriteString("}\n\n")
}

type preprocessor struct {
	fsys    fs.FS
	defines map[string]string
}

func (pp *preprocessor) include(name string, out *strings.Builder, depth int) error {
	if depth > maxIncludeDepth {
		return fmt.Errorf("%w: include depth exceeded at <%s>", ErrPreprocess, name)
	}
	data, err := fs.ReadFile(pp.fsys, "shaders/"+name+".wgsl")
	if err != nil {
		return fmt.Errorf("%w: chunk <%s>: %w", ErrPreprocess, name, err)
	}
	lines := strings.Split(string(data), "\n")
	return pp.process(name, lines, out, depth)
}

type cond struct {
	parent bool
	taken  bool
	active bool
}

// process expands one block of lines. Conditionals must balance within the
// block; unrolled bodies are expanded recursively.
func (pp *preprocessor) process(name string, lines []string, out *strings.Builder, depth int) error {
	var stack []cond
	active := func() bool { return len(stack) == 0 || stack[len(stack)-1].active }

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			if active() {
				expanded, err := pp.substitute(line)
				if err != nil {
					return fmt.Errorf("%s:%d: %w", name, i+1, err)
				}
				out.WriteString(expanded)
				out.WriteByte('\n')
			}
			continue
		}
		directive, arg, _ := strings.Cut(trimmed, " ")
		arg = strings.TrimSpace(arg)
		switch directive {
		case "#ifdef", "#ifndef":
			_, defined := pp.defines[arg]
			c := defined == (directive == "#ifdef")
			stack = append(stack, cond{parent: active(), taken: c, active: active() && c})
		case "#else":
			if len(stack) == 0 {
				return fmt.Errorf("%w: %s:%d: #else without #ifdef", ErrPreprocess, name, i+1)
			}
			top := &stack[len(stack)-1]
			top.active = top.parent && !top.taken
		case "#endif":
			if len(stack) == 0 {
				return fmt.Errorf("%w: %s:%d: #endif without #ifdef", ErrPreprocess, name, i+1)
			}
			stack = stack[:len(stack)-1]
		case "#unroll":
			end, err := matchUnroll(lines, i)
			if err != nil {
				return fmt.Errorf("%w: %s:%d: %w", ErrPreprocess, name, i+1, err)
			}
			if active() {
				if err := pp.unroll(name, arg, lines[i+1:end], out, depth); err != nil {
					return err
				}
			}
			i = end
		case "#endunroll":
			return fmt.Errorf("%w: %s:%d: #endunroll without #unroll", ErrPreprocess, name, i+1)
		case "#include":
			if !active() {
				continue
			}
			chunk := strings.Trim(arg, "<>\"")
			if err := pp.include(chunk, out, depth+1); err != nil {
				return err
			}
		case "#define":
			if !active() {
				continue
			}
			k, v, _ := strings.Cut(arg, " ")
			pp.defines[k] = strings.TrimSpace(v)
		default:
			return fmt.Errorf("%w: %s:%d: unknown directive %s", ErrPreprocess, name, i+1, directive)
		}
	}
	if len(stack) != 0 {
		return fmt.Errorf("%w: %s: unterminated #ifdef", ErrPreprocess, name)
	}
	return nil
}

func matchUnroll(lines []string, start int) (int, error) {
	nest := 0
	for j := start + 1; j < len(lines); j++ {
		switch t := strings.TrimSpace(lines[j]); {
		case strings.HasPrefix(t, "#unroll"):
			nest++
		case strings.HasPrefix(t, "#endunroll"):
			if nest == 0 {
				return j, nil
			}
			nest--
		}
	}
	return 0, errors.New("unterminated #unroll")
}

// unroll repeats body for i in [start, count) where arg is "COUNT [START]".
func (pp *preprocessor) unroll(name, arg string, body []string, out *strings.Builder, depth int) error {
	fields := strings.Fields(arg)
	if len(fields) == 0 || len(fields) > 2 {
		return fmt.Errorf("%w: %s: malformed #unroll %q", ErrPreprocess, name, arg)
	}
	count, err := pp.intDefine(fields[0])
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPreprocess, name, err)
	}
	start := 0
	if len(fields) == 2 {
		if start, err = pp.intDefine(fields[1]); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrPreprocess, name, err)
		}
	}
	for k := start; k < count; k++ {
		idx := strconv.Itoa(k)
		lines := make([]string, len(body))
		for j, l := range body {
			lines[j] = strings.ReplaceAll(l, "{i}", idx)
		}
		if err := pp.process(name, lines, out, depth); err != nil {
			return err
		}
	}
	return nil
}

func (pp *preprocessor) intDefine(name string) (int, error) {
	v, ok := pp.defines[name]
	if !ok {
		return strconv.Atoi(name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("define %s=%q is not an integer", name, v)
	}
	return n, nil
}

// substitute replaces ${NAME} with the value of define NAME.
func (pp *preprocessor) substitute(line string) (string, error) {
	if !strings.Contains(line, "${") {
		return line, nil
	}
	var b strings.Builder
	for {
		i := strings.Index(line, "${")
		if i < 0 {
			b.WriteString(line)
			return b.String(), nil
		}
		j := strings.IndexByte(line[i:], '}')
		if j < 0 {
			return "", fmt.Errorf("%w: unterminated ${", ErrPreprocess)
		}
		key := line[i+2 : i+j]
		v, ok := pp.defines[key]
		if !ok {
			return "", fmt.Errorf("%w: undefined ${%s}", ErrPreprocess, key)
		}
		b.WriteString(line[:i])
		b.WriteString(v)
		line = line[i+j+1:]
	}
}
