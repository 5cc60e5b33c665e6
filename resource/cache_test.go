package resource

import (
	"errors"
	"testing"

	"github.com/gogpu/g3d/core"
	"github.com/gogpu/g3d/gpucore"
	"github.com/gogpu/g3d/recording"
)

func newFloats(t *testing.T, n, itemSize int) *core.BufferAttribute {
	t.Helper()
	a, err := core.NewFloat32Attribute(make([]float32, n), itemSize)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestUploadAllocatesOnce(t *testing.T) {
	dev := recording.New()
	c := New(dev)
	a := newFloats(t, 30, 3)

	id1, err := c.Upload(a, gpucore.BufferUsageVertex)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	id2, err := c.Upload(a, gpucore.BufferUsageVertex)
	if err != nil {
		t.Fatalf("second Upload() error = %v", err)
	}
	if id1 != id2 {
		t.Errorf("Upload() id changed: %d -> %d", id1, id2)
	}
	if got := dev.Count(recording.CmdCreateBuffer); got != 1 {
		t.Errorf("CreateBuffer count = %d, want 1", got)
	}
	if got := dev.Count(recording.CmdWriteBuffer); got != 1 {
		t.Errorf("WriteBuffer count = %d, want 1 (unchanged version skips)", got)
	}
	if size, _ := dev.BufferSize(id1); size != 120 {
		t.Errorf("buffer size = %d, want 120", size)
	}
}

func TestUploadPartialRange(t *testing.T) {
	dev := recording.New()
	c := New(dev)
	a := newFloats(t, 300, 1)

	if _, err := c.Upload(a, gpucore.BufferUsageVertex); err != nil {
		t.Fatal(err)
	}
	dev.Reset()

	a.AddUpdateRange(100, 50)
	if _, err := c.Upload(a, gpucore.BufferUsageVertex); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	writes := dev.BufferWrites()
	if len(writes) != 1 {
		t.Fatalf("writes = %d, want 1", len(writes))
	}
	if writes[0].Offset != 400 || len(writes[0].Data) != 200 {
		t.Errorf("write = offset %d len %d, want offset 400 len 200", writes[0].Offset, len(writes[0].Data))
	}
	if dev.BytesWritten() != 200 {
		t.Errorf("BytesWritten() = %d, want 200 (not the full 1200)", dev.BytesWritten())
	}
	if len(a.UpdateRanges()) != 0 {
		t.Error("update ranges not cleared after upload")
	}
}

func TestUploadCoalescesRanges(t *testing.T) {
	dev := recording.New()
	c := New(dev)
	a := newFloats(t, 100, 1)
	if _, err := c.Upload(a, gpucore.BufferUsageVertex); err != nil {
		t.Fatal(err)
	}
	dev.Reset()

	a.AddUpdateRange(10, 5)
	a.AddUpdateRange(12, 10) // overlaps
	a.AddUpdateRange(22, 3)  // adjacent
	a.AddUpdateRange(50, 1)  // separate
	if _, err := c.Upload(a, gpucore.BufferUsageVertex); err != nil {
		t.Fatal(err)
	}

	writes := dev.BufferWrites()
	if len(writes) != 2 {
		t.Fatalf("writes = %d, want 2", len(writes))
	}
	if writes[0].Offset != 40 || len(writes[0].Data) != 60 {
		t.Errorf("write[0] = offset %d len %d, want 40/60", writes[0].Offset, len(writes[0].Data))
	}
	if writes[1].Offset != 200 || len(writes[1].Data) != 4 {
		t.Errorf("write[1] = offset %d len %d, want 200/4", writes[1].Offset, len(writes[1].Data))
	}
}

func TestUploadFullWhenNoRanges(t *testing.T) {
	dev := recording.New()
	c := New(dev)
	a := newFloats(t, 12, 3)
	if _, err := c.Upload(a, gpucore.BufferUsageVertex); err != nil {
		t.Fatal(err)
	}
	dev.Reset()

	a.NeedsUpdate()
	if _, err := c.Upload(a, gpucore.BufferUsageVertex); err != nil {
		t.Fatal(err)
	}
	if dev.BytesWritten() != 48 {
		t.Errorf("BytesWritten() = %d, want 48", dev.BytesWritten())
	}
}

func TestUploadUint16PadsToFourBytes(t *testing.T) {
	dev := recording.New()
	c := New(dev)
	idx, _ := core.NewUint16Attribute([]uint16{0, 1, 2}, 1)

	id, err := c.Upload(idx, gpucore.BufferUsageIndex)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if size, _ := dev.BufferSize(id); size != 8 {
		t.Errorf("buffer size = %d, want 8", size)
	}

	dev.Reset()
	idx.AddUpdateRange(1, 1)
	if _, err := c.Upload(idx, gpucore.BufferUsageIndex); err != nil {
		t.Fatal(err)
	}
	w := dev.BufferWrites()
	if len(w) != 1 || w[0].Offset != 0 || len(w[0].Data) != 4 {
		t.Errorf("writes = %+v, want one aligned 4-byte write at 0", w)
	}
}

func TestSizeMismatchRequiresReallocate(t *testing.T) {
	tests := []struct {
		name     string
		attr     func(t *testing.T) *core.BufferAttribute
		replace  any
		wantSize uint64
	}{
		{"grown floats", func(t *testing.T) *core.BufferAttribute { return newFloats(t, 9, 3) }, make([]float32, 18), 72},
		{"uint16 within padding", func(t *testing.T) *core.BufferAttribute {
			a, err := core.NewUint16Attribute([]uint16{0, 1, 2}, 1)
			if err != nil {
				t.Fatal(err)
			}
			return a
		}, []uint16{0, 1, 2, 3}, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := recording.New()
			c := New(dev)
			a := tt.attr(t)
			if _, err := c.Upload(a, gpucore.BufferUsageVertex); err != nil {
				t.Fatal(err)
			}
			if err := a.Replace(tt.replace); err != nil {
				t.Fatal(err)
			}

			if _, err := c.Upload(a, gpucore.BufferUsageVertex); !errors.Is(err, ErrSizeMismatch) {
				t.Fatalf("Upload() error = %v, want ErrSizeMismatch", err)
			}
			if dev.LiveBuffers() != 1 {
				t.Errorf("LiveBuffers() = %d, want 1", dev.LiveBuffers())
			}

			id, err := c.Reallocate(a, gpucore.BufferUsageVertex)
			if err != nil {
				t.Fatalf("Reallocate() error = %v", err)
			}
			if size, _ := dev.BufferSize(id); size != tt.wantSize {
				t.Errorf("reallocated size = %d, want %d", size, tt.wantSize)
			}
			if dev.LiveBuffers() != 1 {
				t.Errorf("LiveBuffers() after Reallocate = %d, want 1", dev.LiveBuffers())
			}
		})
	}
}

func TestUnsupportedFormat(t *testing.T) {
	c := New(recording.New())

	f64, _ := core.NewFloat64Attribute(make([]float64, 3), 3)
	if _, err := c.Upload(f64, gpucore.BufferUsageVertex); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Upload(float64) error = %v, want ErrUnsupportedFormat", err)
	}

	u8, _ := core.NewUint8Attribute(make([]uint8, 3), 1)
	if _, err := c.Upload(u8, gpucore.BufferUsageIndex); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Upload(uint8 index) error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := VertexFormat(u8); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("VertexFormat(uint8x1) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestVertexFormat(t *testing.T) {
	pos, _ := core.NewFloat32Attribute(make([]float32, 9), 3)
	col, _ := core.NewUint8Attribute(make([]uint8, 8), 4)
	col.Normalized = true

	tests := []struct {
		a    *core.BufferAttribute
		want gpucore.VertexFormat
	}{
		{pos, gpucore.VertexFormatFloat32x3},
		{col, gpucore.VertexFormatUnorm8x4},
	}
	for _, tt := range tests {
		got, err := VertexFormat(tt.a)
		if err != nil || got != tt.want {
			t.Errorf("VertexFormat(%s x%d) = %v, %v; want %v", tt.a.Kind(), tt.a.ItemSize(), got, err, tt.want)
		}
	}
}

func TestDisposeEvicts(t *testing.T) {
	dev := recording.New()
	c := New(dev)
	a := newFloats(t, 3, 3)
	if _, err := c.Upload(a, gpucore.BufferUsageVertex); err != nil {
		t.Fatal(err)
	}

	a.Dispose()
	if dev.LiveBuffers() != 0 {
		t.Errorf("LiveBuffers() after dispose = %d, want 0", dev.LiveBuffers())
	}
	if _, ok := c.Buffer(a); ok {
		t.Error("Buffer() still cached after dispose")
	}
	if _, err := c.Upload(a, gpucore.BufferUsageVertex); !errors.Is(err, ErrDisposed) {
		t.Errorf("Upload() after dispose error = %v, want ErrDisposed", err)
	}
}

func TestInvalidateRepopulates(t *testing.T) {
	dev := recording.New()
	c := New(dev)
	a := newFloats(t, 3, 3)
	if _, err := c.Upload(a, gpucore.BufferUsageVertex); err != nil {
		t.Fatal(err)
	}

	dev.LoseContext()
	dev.RestoreContext()
	c.Invalidate()

	id, err := c.Upload(a, gpucore.BufferUsageVertex)
	if err != nil {
		t.Fatalf("Upload() after invalidate error = %v", err)
	}
	if _, ok := dev.BufferSize(id); !ok {
		t.Error("re-uploaded buffer is not live on the device")
	}
}

func TestCoalesce(t *testing.T) {
	tests := []struct {
		name string
		in   []core.UpdateRange
		want []core.UpdateRange
	}{
		{"empty", nil, nil},
		{"single", []core.UpdateRange{{Start: 3, Count: 2}}, []core.UpdateRange{{Start: 3, Count: 2}}},
		{"unsorted", []core.UpdateRange{{Start: 10, Count: 1}, {Start: 0, Count: 2}}, []core.UpdateRange{{Start: 0, Count: 2}, {Start: 10, Count: 1}}},
		{"adjacent", []core.UpdateRange{{Start: 0, Count: 5}, {Start: 5, Count: 5}}, []core.UpdateRange{{Start: 0, Count: 10}}},
		{"contained", []core.UpdateRange{{Start: 0, Count: 10}, {Start: 2, Count: 3}}, []core.UpdateRange{{Start: 0, Count: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coalesce(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("Coalesce() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Coalesce()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
