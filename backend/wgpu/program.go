package wgpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// minUniformBlock is the smallest uniform binding the device allocates.
const minUniformBlock = 16

type program struct {
	label      string
	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	layout     hal.PipelineLayout
	info       gpucore.ProgramInfo

	attributes []string
	uniforms   []gpucore.UniformDecl
	fields     []gpucore.UniformField
	samplers   []string

	// block is the CPU copy of the uniform block. Every draw snapshots it.
	block []byte
}

func (p *program) destroy(device hal.Device) {
	if p.layout != nil {
		device.DestroyPipelineLayout(p.layout)
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
	}
	if p.module != nil {
		device.DestroyShaderModule(p.module)
	}
}

// compileWGSL validates source with naga and returns SPIR-V words.
func compileWGSL(source string) ([]uint32, error) {
	spirv, err := naga.Compile(source)
	if err != nil {
		return nil, err
	}
	words := make([]uint32, len(spirv)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(spirv[i*4:])
	}
	return words, nil
}

// CreateProgram implements gpucore.Device. The source follows the g3d
// binding convention: the uniform block at group 0 binding 0, sampler k as
// a texture at binding 1+2k and a sampler at binding 2+2k, attribute k at
// location k.
func (d *Device) CreateProgram(desc gpucore.ProgramDescriptor) (gpucore.ProgramID, gpucore.ProgramInfo, error) {
	if d.lost {
		return gpucore.InvalidID, gpucore.ProgramInfo{}, gpucore.ErrContextLost
	}
	spirv, err := compileWGSL(desc.Source)
	if err != nil {
		return gpucore.InvalidID, gpucore.ProgramInfo{}, fmt.Errorf("%w: %s: %w", gpucore.ErrShaderCompile, desc.Label, err)
	}
	p := &program{
		label:      desc.Label,
		attributes: desc.Attributes,
		uniforms:   desc.Uniforms,
		samplers:   desc.Samplers,
	}
	var size uint64
	p.fields, size = gpucore.UniformLayout(desc.Uniforms)
	p.block = make([]byte, max(size, minUniformBlock))

	p.module, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Label,
		Source: hal.ShaderSource{WGSL: desc.Source, SPIRV: spirv},
	})
	if err != nil {
		return gpucore.InvalidID, gpucore.ProgramInfo{}, fmt.Errorf("%w: %s: %w", gpucore.ErrShaderCompile, desc.Label, err)
	}

	entries := []gputypes.BindGroupLayoutEntry{{
		Binding:    0,
		Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
		Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}}
	for k := range desc.Samplers {
		entries = append(entries,
			gputypes.BindGroupLayoutEntry{
				Binding:    uint32(1 + 2*k), //nolint:gosec // sampler count is small
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			gputypes.BindGroupLayoutEntry{
				Binding:    uint32(2 + 2*k), //nolint:gosec // sampler count is small
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			})
	}
	p.bindLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   desc.Label + "_bind_layout",
		Entries: entries,
	})
	if err != nil {
		p.destroy(d.device)
		return gpucore.InvalidID, gpucore.ProgramInfo{}, fmt.Errorf("wgpu: program %s bind layout: %w", desc.Label, err)
	}
	p.layout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		p.destroy(d.device)
		return gpucore.InvalidID, gpucore.ProgramInfo{}, fmt.Errorf("wgpu: program %s layout: %w", desc.Label, err)
	}

	p.info = gpucore.ProgramInfo{
		Attributes: make(map[string]int32, len(desc.Attributes)),
		Uniforms:   make(map[string]int32, len(desc.Uniforms)),
		Samplers:   make(map[string]int32, len(desc.Samplers)),
	}
	for i, a := range desc.Attributes {
		p.info.Attributes[a] = int32(i) //nolint:gosec // small
	}
	for i, u := range desc.Uniforms {
		p.info.Uniforms[u.Name] = int32(i) //nolint:gosec // small
	}
	for i, s := range desc.Samplers {
		p.info.Samplers[s] = int32(i) //nolint:gosec // small
	}
	id := gpucore.ProgramID(d.newID())
	d.programs[id] = p
	slogger().Debug("wgpu: program created", "label", desc.Label, "uniform_bytes", len(p.block))
	return id, p.info, nil
}

// DestroyProgram implements gpucore.Device. Pipelines built from the
// program are dropped from the cache.
func (d *Device) DestroyProgram(id gpucore.ProgramID) {
	p, ok := d.programs[id]
	if !ok {
		return
	}
	delete(d.programs, id)
	if d.state.program == id {
		d.state.program = gpucore.InvalidID
	}
	// Pipeline keys do not record which program they belong to, so the
	// whole cache is flushed.
	d.pipelines.Clear()
	if d.frame != nil {
		d.frame.retiredPrograms = append(d.frame.retiredPrograms, p)
		return
	}
	p.destroy(d.device)
}

// SetUniform implements gpucore.Device. Matrices are given column-major;
// mat3 columns are padded to 16 bytes.
func (d *Device) SetUniform(loc int32, v []float32) {
	p, ok := d.programs[d.state.program]
	if !ok || loc < 0 || int(loc) >= len(p.fields) {
		return
	}
	packUniform(p.block, p.fields[loc], v)
}

// SetUniformInt implements gpucore.Device.
func (d *Device) SetUniformInt(loc int32, v int32) {
	p, ok := d.programs[d.state.program]
	if !ok || loc < 0 || int(loc) >= len(p.fields) {
		return
	}
	f := p.fields[loc]
	if f.Size < 4 {
		return
	}
	binary.LittleEndian.PutUint32(p.block[f.Offset:], uint32(v)) //nolint:gosec // bit pattern copy
}

// packUniform writes v into field f of block. Values beyond the field are
// dropped.
func packUniform(block []byte, f gpucore.UniformField, v []float32) {
	if f.Size == 0 {
		return
	}
	if f.Columns == 0 {
		n := min(len(v), int(f.Size/4))
		for i := range n {
			binary.LittleEndian.PutUint32(block[f.Offset+uint64(i)*4:], math.Float32bits(v[i]))
		}
		return
	}
	rows := f.Columns
	for c := range f.Columns {
		col := f.Offset + uint64(c)*16
		for r := range rows {
			i := c*rows + r
			if i >= len(v) {
				return
			}
			binary.LittleEndian.PutUint32(block[col+uint64(r)*4:], math.Float32bits(v[i]))
		}
	}
}
