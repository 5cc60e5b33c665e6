package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

//go:embed shaders/blit.wgsl
var blitShaderSource string

// blitter draws a fullscreen triangle sampling one texture. Pipelines are
// built per target format.
type blitter struct {
	module     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	layout     hal.PipelineLayout
	sampler    hal.Sampler
	pipelines  map[gputypes.TextureFormat]hal.RenderPipeline

	// pending holds bind groups referenced by unsubmitted commands.
	pending []hal.BindGroup
}

// blitter returns the lazily created blitter. A creation failure is
// reported by the next mipmaps call.
func (d *Device) blitter() *blitter {
	if d.blit == nil {
		d.blit = &blitter{pipelines: make(map[gputypes.TextureFormat]hal.RenderPipeline)}
	}
	return d.blit
}

func (b *blitter) init(device hal.Device) error {
	if b.module != nil {
		return nil
	}
	spirv, err := compileWGSL(blitShaderSource)
	if err != nil {
		return fmt.Errorf("compile blit shader: %w", err)
	}
	module, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "blit",
		Source: hal.ShaderSource{WGSL: blitShaderSource, SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("create blit module: %w", err)
	}
	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "blit_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		device.DestroyShaderModule(module)
		return fmt.Errorf("create blit bind layout: %w", err)
	}
	layout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "blit_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		device.DestroyBindGroupLayout(bindLayout)
		device.DestroyShaderModule(module)
		return fmt.Errorf("create blit layout: %w", err)
	}
	sampler, err := device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "blit_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		device.DestroyPipelineLayout(layout)
		device.DestroyBindGroupLayout(bindLayout)
		device.DestroyShaderModule(module)
		return fmt.Errorf("create blit sampler: %w", err)
	}
	b.module, b.bindLayout, b.layout, b.sampler = module, bindLayout, layout, sampler
	return nil
}

func (b *blitter) pipeline(device hal.Device, format gputypes.TextureFormat) (hal.RenderPipeline, error) {
	if p, ok := b.pipelines[format]; ok {
		return p, nil
	}
	p, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "blit",
		Layout: b.layout,
		Vertex: hal.VertexState{Module: b.module, EntryPoint: "vs_main"},
		Fragment: &hal.FragmentState{
			Module:     b.module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    format,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	})
	if err != nil {
		return nil, fmt.Errorf("create blit pipeline: %w", err)
	}
	b.pipelines[format] = p
	return p, nil
}

// mipmaps records one pass per mip level of t, each sampling the level
// above.
func (b *blitter) mipmaps(device hal.Device, enc hal.CommandEncoder, t *texture) error {
	if err := b.init(device); err != nil {
		return err
	}
	pipeline, err := b.pipeline(device, t.format)
	if err != nil {
		return err
	}
	for i := 1; i < t.mipLevels(); i++ {
		src, err := t.level(device, i-1)
		if err != nil {
			return err
		}
		dst, err := t.level(device, i)
		if err != nil {
			return err
		}
		bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  fmt.Sprintf("blit_mip%d", i),
			Layout: b.bindLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: uintptr(src.NativeHandle())}},
				{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: uintptr(b.sampler.NativeHandle())}},
			},
		})
		if err != nil {
			return fmt.Errorf("create blit bind group: %w", err)
		}
		b.pending = append(b.pending, bg)
		pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
			Label: fmt.Sprintf("mip%d", i),
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:    dst,
				LoadOp:  gputypes.LoadOpClear,
				StoreOp: gputypes.StoreOpStore,
			}},
		})
		pass.SetPipeline(pipeline)
		pass.SetBindGroup(0, bg, nil)
		pass.Draw(3, 1, 0, 0)
		pass.End()
	}
	return nil
}

// release destroys bind groups of submitted work.
func (b *blitter) release(device hal.Device) {
	for _, bg := range b.pending {
		device.DestroyBindGroup(bg)
	}
	b.pending = b.pending[:0]
}

func (b *blitter) destroy(device hal.Device) {
	b.release(device)
	for f, p := range b.pipelines {
		device.DestroyRenderPipeline(p)
		delete(b.pipelines, f)
	}
	if b.sampler != nil {
		device.DestroySampler(b.sampler)
	}
	if b.layout != nil {
		device.DestroyPipelineLayout(b.layout)
	}
	if b.bindLayout != nil {
		device.DestroyBindGroupLayout(b.bindLayout)
	}
	if b.module != nil {
		device.DestroyShaderModule(b.module)
	}
}
