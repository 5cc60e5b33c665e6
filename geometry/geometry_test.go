package geometry

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/g3d/core"
)

func mustFloats(t *testing.T, data []float32, itemSize int) *core.BufferAttribute {
	t.Helper()
	a, err := core.NewFloat32Attribute(data, itemSize)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestVertexCount(t *testing.T) {
	g := New()
	g.SetAttribute(AttrPosition, mustFloats(t, make([]float32, 9), 3))
	g.SetAttribute(AttrUV, mustFloats(t, make([]float32, 6), 2))
	n, err := g.VertexCount()
	if err != nil || n != 3 {
		t.Fatalf("VertexCount() = %d, %v; want 3, nil", n, err)
	}

	g.SetAttribute(AttrNormal, mustFloats(t, make([]float32, 12), 3))
	if _, err := g.VertexCount(); !errors.Is(err, ErrVertexCount) {
		t.Errorf("VertexCount() error = %v, want ErrVertexCount", err)
	}
}

func TestBoundingBoxLazyAndInvalidated(t *testing.T) {
	g := New()
	pos := mustFloats(t, []float32{0, 0, 0, 2, 4, 6}, 3)
	g.SetAttribute(AttrPosition, pos)

	b := g.BoundingBox()
	if b.Max != (mgl32.Vec3{2, 4, 6}) {
		t.Fatalf("BoundingBox().Max = %v, want [2 4 6]", b.Max)
	}

	// Mutate in place without signaling: the cached box stays.
	pos.Float32s()[3] = 10
	if got := g.BoundingBox().Max[0]; got != 2 {
		t.Errorf("BoundingBox() recomputed without a version change: max x = %v", got)
	}

	pos.NeedsUpdate()
	if got := g.BoundingBox().Max[0]; got != 10 {
		t.Errorf("BoundingBox() after NeedsUpdate max x = %v, want 10", got)
	}

	g.SetAttribute(AttrPosition, mustFloats(t, []float32{-1, -1, -1, 1, 1, 1}, 3))
	if got := g.BoundingBox().Min; got != (mgl32.Vec3{-1, -1, -1}) {
		t.Errorf("BoundingBox() after SetAttribute min = %v", got)
	}
}

func TestBoundingSphere(t *testing.T) {
	g := NewSphere(2, 16, 8)
	s := g.BoundingSphere()
	if s.Radius < 1.99 || s.Radius > 2.01 {
		t.Errorf("BoundingSphere().Radius = %v, want 2", s.Radius)
	}
	if l := s.Center.Len(); l > 1e-4 {
		t.Errorf("BoundingSphere().Center = %v, want origin", s.Center)
	}
}

func TestNoPositionBounds(t *testing.T) {
	g := New()
	if !g.BoundingBox().IsEmpty() {
		t.Error("BoundingBox() of empty geometry is not empty")
	}
	if !g.BoundingSphere().IsEmpty() {
		t.Error("BoundingSphere() of empty geometry is not empty")
	}
}

func TestDrawRange(t *testing.T) {
	g := NewPlane(1, 1, 1, 1)
	start, count := g.DrawRange()
	if start != 0 || count != 6 {
		t.Errorf("DrawRange() = %d,%d; want 0,6", start, count)
	}
	g.SetDrawRange(3, 100)
	start, count = g.DrawRange()
	if start != 3 || count != 3 {
		t.Errorf("DrawRange() clamped = %d,%d; want 3,3", start, count)
	}
}

func TestBoxGroups(t *testing.T) {
	g := NewBox(1, 2, 3)
	if n := len(g.Groups()); n != 6 {
		t.Fatalf("len(Groups()) = %d, want 6", n)
	}
	if g.Index().Count() != 36 {
		t.Errorf("index count = %d, want 36", g.Index().Count())
	}
	b := g.BoundingBox()
	if b.Max != (mgl32.Vec3{0.5, 1, 1.5}) {
		t.Errorf("BoundingBox().Max = %v, want [0.5 1 1.5]", b.Max)
	}
	if n, err := g.VertexCount(); err != nil || n != 24 {
		t.Errorf("VertexCount() = %d, %v; want 24", n, err)
	}
}

func TestRefCounting(t *testing.T) {
	g := NewPlane(1, 1, 1, 1)
	pos := g.Attribute(AttrPosition)
	disposed := false
	g.OnDispose(func() { disposed = true })

	g.Retain()
	g.Release()
	if disposed || pos.Disposed() {
		t.Fatal("disposed while a reference remains")
	}
	g.Release()
	if !disposed || !pos.Disposed() || !g.Index().Disposed() {
		t.Error("last Release did not dispose geometry and streams")
	}
	g.Release()
	if g.RefCount() != 0 {
		t.Errorf("RefCount() = %d, want 0", g.RefCount())
	}
}
