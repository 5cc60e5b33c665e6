package loader

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gogpu/g3d/geometry"
)

const quadOBJ = `# two triangles, two materials
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl red
f 1/1/1 2/2/1 3/3/1
usemtl blue
f -4/1/1 -2/3/1 -1/4/1
`

func TestDecodeOBJ(t *testing.T) {
	g, err := DecodeOBJ(context.Background(), strings.NewReader(quadOBJ))
	if err != nil {
		t.Fatalf("DecodeOBJ() error = %v", err)
	}
	if n, err := g.VertexCount(); err != nil || n != 4 {
		t.Errorf("VertexCount() = %d, %v, want 4, nil", n, err)
	}
	if got := g.Index().Count(); got != 6 {
		t.Errorf("index count = %d, want 6", got)
	}
	want := []geometry.Group{{Start: 0, Count: 3, MaterialIndex: 0}, {Start: 3, Count: 3, MaterialIndex: 1}}
	groups := g.Groups()
	if len(groups) != len(want) {
		t.Fatalf("Groups() = %v, want %v", groups, want)
	}
	for i := range want {
		if groups[i] != want[i] {
			t.Errorf("Groups()[%d] = %v, want %v", i, groups[i], want[i])
		}
	}
	if !g.HasAttribute(geometry.AttrUV) {
		t.Error("uv attribute missing")
	}
}

func TestDecodeOBJComputesNormals(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nv 1 1 0\nf 1 2 4 3\n"
	g, err := DecodeOBJ(context.Background(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("DecodeOBJ() error = %v", err)
	}
	if got := g.Index().Count(); got != 6 {
		t.Errorf("fan of a quad: %d indices, want 6", got)
	}
	n := g.Attribute(geometry.AttrNormal).Float32s()
	for i := 0; i < len(n); i += 3 {
		if n[i] != 0 || n[i+1] != 0 || n[i+2] != 1 {
			t.Errorf("normal %d = %v, want [0 0 1]", i/3, n[i:i+3])
		}
	}
	if len(g.Groups()) != 0 {
		t.Errorf("Groups() = %v, want none for a single material", g.Groups())
	}
}

func TestDecodeOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"zero index", "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 0 1 2\n"},
		{"out of range", "v 0 0 0\nf 1 2 3\n"},
		{"short vertex", "v 0 0\n"},
		{"two corners", "v 0 0 0\nv 1 0 0\nf 1 2\n"},
		{"no faces", "v 0 0 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOBJ(context.Background(), strings.NewReader(tt.src))
			if !errors.Is(err, ErrOBJ) {
				t.Errorf("DecodeOBJ() error = %v, want ErrOBJ", err)
			}
		})
	}
}
