package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const (
	// uniformAlignment is the minimum uniform buffer offset alignment.
	uniformAlignment = 256

	// uniformChunkSize is the size of one pooled uniform buffer.
	uniformChunkSize = 64 << 10
)

type uniformChunk struct {
	buf  hal.Buffer
	size uint64
}

// uniformPool hands out per-draw uniform ranges for one frame. Chunks are
// kept across frames and rewound by reset.
type uniformPool struct {
	chunks []uniformChunk
	chunk  int
	offset uint64
}

func (p *uniformPool) alloc(device hal.Device, size uint64) (hal.Buffer, uint64, error) {
	for p.chunk < len(p.chunks) {
		c := p.chunks[p.chunk]
		if p.offset+size <= c.size {
			off := p.offset
			p.offset = alignUp(off+size, uniformAlignment)
			return c.buf, off, nil
		}
		p.chunk++
		p.offset = 0
	}
	chunkSize := max(uint64(uniformChunkSize), alignUp(size, uniformAlignment))
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: fmt.Sprintf("uniforms_%d", len(p.chunks)),
		Size:  chunkSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("wgpu: create uniform chunk: %w", err)
	}
	p.chunks = append(p.chunks, uniformChunk{buf: buf, size: chunkSize})
	p.chunk = len(p.chunks) - 1
	p.offset = alignUp(size, uniformAlignment)
	return buf, 0, nil
}

func (p *uniformPool) reset() {
	p.chunk = 0
	p.offset = 0
}

func (p *uniformPool) destroy(device hal.Device) {
	for _, c := range p.chunks {
		device.DestroyBuffer(c.buf)
	}
	p.chunks = nil
	p.reset()
}
