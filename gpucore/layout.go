package gpucore

// UniformField is the placement of one uniform inside a uniform block.
type UniformField struct {
	Offset uint64
	Size   uint64
	// Columns is the number of matrix columns, each padded to 16 bytes.
	// It is zero for scalars and vectors.
	Columns int
}

// UniformLayout places decls in a uniform block with WGSL host-shareable
// alignment rules and returns every field plus the block size rounded to 16.
// Sampler declarations take no space.
func UniformLayout(decls []UniformDecl) ([]UniformField, uint64) {
	fields := make([]UniformField, len(decls))
	var offset uint64
	for i, d := range decls {
		align, size, cols := uniformShape(d.Type)
		if size == 0 {
			continue
		}
		offset = alignUp(offset, align)
		fields[i] = UniformField{Offset: offset, Size: size, Columns: cols}
		offset += size
	}
	return fields, alignUp(offset, 16)
}

func uniformShape(t UniformType) (align, size uint64, columns int) {
	switch t {
	case UniformFloat, UniformInt:
		return 4, 4, 0
	case UniformVec2:
		return 8, 8, 0
	case UniformVec3:
		return 16, 12, 0
	case UniformVec4:
		return 16, 16, 0
	case UniformMat3:
		return 16, 48, 3
	case UniformMat4:
		return 16, 64, 4
	default:
		return 1, 0, 0
	}
}

func alignUp(v, a uint64) uint64 {
	return (v + a - 1) / a * a
}
