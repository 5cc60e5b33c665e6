package gpucore

import "testing"

func TestUniformLayout(t *testing.T) {
	decls := []UniformDecl{
		{"a", UniformVec3},
		{"b", UniformFloat},
		{"m", UniformMat3},
		{"c", UniformVec2},
		{"d", UniformMat4},
		{"tex", UniformSampler2D},
		{"e", UniformFloat},
	}
	fields, size := UniformLayout(decls)
	want := []uint64{0, 12, 16, 64, 80, 0, 144}
	for i, w := range want {
		if i == 5 {
			continue
		}
		if fields[i].Offset != w {
			t.Errorf("field %s offset = %d, want %d", decls[i].Name, fields[i].Offset, w)
		}
	}
	if fields[2].Columns != 3 || fields[4].Columns != 4 {
		t.Errorf("matrix columns = %d, %d; want 3, 4", fields[2].Columns, fields[4].Columns)
	}
	if size != 160 {
		t.Errorf("block size = %d, want 160", size)
	}
}
