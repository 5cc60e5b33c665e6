package wgpu

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"math"

	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// pipelineDesc is everything a render pipeline is built from.
type pipelineDesc struct {
	program     gpucore.ProgramID
	prog        *program
	fixed       fixedState
	topology    gpucore.Topology
	colorFormat gpucore.TextureFormat
	depthFormat gpucore.TextureFormat
	samples     int
	vertices    []gpucore.VertexLayout
}

// keyWriter feeds fixed-width values into an FNV-1a hash.
type keyWriter struct {
	h   hash.Hash64
	buf [8]byte
}

func (w *keyWriter) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.buf[:4], v)
	_, _ = w.h.Write(w.buf[:4])
}

func (w *keyWriter) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.buf[:], v)
	_, _ = w.h.Write(w.buf[:])
}

func (w *keyWriter) f32(v float32) { w.u32(math.Float32bits(v)) }

func (w *keyWriter) bool(v bool) {
	if v {
		w.u32(1)
	} else {
		w.u32(0)
	}
}

// hash returns the cache key. State that a disabled test or blend ignores
// is left out so equivalent pipelines share one entry.
func (p *pipelineDesc) hash() uint64 {
	w := keyWriter{h: fnv.New64a()}
	w.u64(uint64(p.program))
	w.u32(uint32(p.topology))
	w.u32(uint32(p.colorFormat))
	w.u32(uint32(p.depthFormat))
	w.u32(uint32(p.samples)) //nolint:gosec // small

	f := p.fixed
	w.bool(f.blend)
	if f.blend {
		for _, v := range [...]uint32{uint32(f.colorOp), uint32(f.alphaOp), uint32(f.src), uint32(f.dst), uint32(f.srcA), uint32(f.dstA)} {
			w.u32(v)
		}
	}
	if p.depthFormat != gpucore.TextureFormatUndefined {
		w.bool(f.depthTest)
		w.bool(f.depthWrite && f.depthTest)
		if f.depthTest {
			w.u32(uint32(f.depthFunc))
		}
		w.bool(f.offset)
		if f.offset {
			w.f32(f.factor)
			w.f32(f.units)
		}
	}
	if p.depthFormat.HasStencil() {
		w.bool(f.stencilTest)
		if f.stencilTest {
			for _, v := range [...]uint32{uint32(f.stencilFunc), f.stencilReadMask, f.stencilWriteMask,
				uint32(f.stencilFail), uint32(f.stencilZFail), uint32(f.stencilZPass)} {
				w.u32(v)
			}
		}
	}
	w.u32(uint32(f.cull))
	w.u32(uint32(f.front))
	for _, m := range f.colorMask {
		w.bool(m)
	}
	for _, v := range p.vertices {
		w.u32(uint32(v.Format))
		w.u32(v.Stride)
	}
	return w.h.Sum64()
}

func (p *pipelineDesc) blendState() *gputypes.BlendState {
	f := p.fixed
	if !f.blend {
		return nil
	}
	return &gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: blendFactor(f.src),
			DstFactor: blendFactor(f.dst),
			Operation: blendOperation(f.colorOp),
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: blendFactor(f.srcA),
			DstFactor: blendFactor(f.dstA),
			Operation: blendOperation(f.alphaOp),
		},
	}
}

func (p *pipelineDesc) depthStencil() *hal.DepthStencilState {
	if p.depthFormat == gpucore.TextureFormatUndefined {
		return nil
	}
	f := p.fixed
	ds := &hal.DepthStencilState{
		Format:            textureFormat(p.depthFormat),
		DepthWriteEnabled: f.depthTest && f.depthWrite,
		DepthCompare:      gputypes.CompareFunctionAlways,
	}
	if f.depthTest {
		ds.DepthCompare = compareFunction(f.depthFunc)
	}
	if f.offset {
		ds.DepthBias = int32(f.units)
		ds.DepthBiasSlopeScale = f.factor
	}
	face := hal.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      hal.StencilOperationKeep,
		DepthFailOp: hal.StencilOperationKeep,
		PassOp:      hal.StencilOperationKeep,
	}
	if p.depthFormat.HasStencil() && f.stencilTest {
		face = hal.StencilFaceState{
			Compare:     compareFunction(f.stencilFunc),
			FailOp:      stencilOperation(f.stencilFail),
			DepthFailOp: stencilOperation(f.stencilZFail),
			PassOp:      stencilOperation(f.stencilZPass),
		}
		ds.StencilReadMask = f.stencilReadMask
		ds.StencilWriteMask = f.stencilWriteMask
	}
	ds.StencilFront, ds.StencilBack = face, face
	return ds
}

func (p *pipelineDesc) vertexBuffers() []gputypes.VertexBufferLayout {
	out := make([]gputypes.VertexBufferLayout, len(p.vertices))
	for i, v := range p.vertices {
		format, size, _ := vertexFormat(v.Format)
		stride := v.Stride
		if stride == 0 {
			stride = size
		}
		out[i] = gputypes.VertexBufferLayout{
			ArrayStride: uint64(stride),
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: format, Offset: 0, ShaderLocation: uint32(i)}, //nolint:gosec // small
			},
		}
	}
	return out
}

func (d *Device) createPipeline(p *pipelineDesc) (hal.RenderPipeline, error) {
	pipeline, err := d.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  p.prog.label,
		Layout: p.prog.layout,
		Vertex: hal.VertexState{
			Module:     p.prog.module,
			EntryPoint: "vs_main",
			Buffers:    p.vertexBuffers(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.prog.module,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    textureFormat(p.colorFormat),
				Blend:     p.blendState(),
				WriteMask: colorWriteMask(p.fixed.colorMask),
			}},
		},
		DepthStencil: p.depthStencil(),
		Primitive: gputypes.PrimitiveState{
			Topology:  topology(p.topology),
			FrontFace: frontFace(p.fixed.front),
			CullMode:  cullMode(p.fixed.cull),
		},
		Multisample: gputypes.MultisampleState{
			Count: uint32(p.samples), //nolint:gosec // small
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline %s: %w", p.prog.label, err)
	}
	slogger().Debug("wgpu: pipeline created", "program", p.prog.label, "cached", d.pipelines.Len()+1)
	return pipeline, nil
}

// pipeline returns the cached pipeline for p, creating it on a miss.
func (d *Device) pipeline(p *pipelineDesc) (hal.RenderPipeline, error) {
	return d.pipelines.GetOrCreate(p.hash(), func() (hal.RenderPipeline, error) {
		return d.createPipeline(p)
	})
}
