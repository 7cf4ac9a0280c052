package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshexport/pkg/mesh"
)

// ErrEmptyOrInvalid is returned when a submesh cannot produce a primitive.
var ErrEmptyOrInvalid = errors.New("submesh is empty or invalid")

// Assemble converts one submesh of rec into a primitive.
//
// Triangles are read from consecutive index triples; a trailing partial
// triple is ignored, as are triangles that repeat a vertex. Only the
// vertices the submesh references are copied, in first-use order.
// Attribute values are copied unmodified.
func Assemble(rec *mesh.Record, sm mesh.Submesh, mat *Material) (*Primitive, error) {
	if sm.End() > uint64(len(rec.Indices)) {
		return nil, fmt.Errorf("%w: range [%d, %d) exceeds %d indices", ErrEmptyOrInvalid, sm.IndexOffset, sm.End(), len(rec.Indices))
	}

	src := rec.Indices[sm.IndexOffset:sm.End()]
	src = src[:len(src)-len(src)%3]
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: fewer than 3 indices", ErrEmptyOrInvalid)
	}

	if !streamsMatch(rec) {
		return nil, fmt.Errorf("%w: vertex streams differ in length", ErrEmptyOrInvalid)
	}

	vertexCount := uint32(rec.VertexCount())
	remap := make(map[uint32]uint32)
	var order []uint32
	indices := make([]uint32, 0, len(src))

	for i := 0; i < len(src); i += 3 {
		a, b, c := src[i], src[i+1], src[i+2]
		if a >= vertexCount || b >= vertexCount || c >= vertexCount {
			return nil, fmt.Errorf("%w: triangle %d references vertex outside [0, %d)", ErrEmptyOrInvalid, i/3, vertexCount)
		}
		if a == b || b == c || a == c {
			continue
		}
		for _, v := range [3]uint32{a, b, c} {
			local, ok := remap[v]
			if !ok {
				local = uint32(len(order))
				remap[v] = local
				order = append(order, v)
			}
			indices = append(indices, local)
		}
	}

	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: all triangles degenerate", ErrEmptyOrInvalid)
	}

	prim := &Primitive{
		Positions: gather(rec.Positions, order),
		Normals:   gather(rec.Normals, order),
		Tangents:  gather(rec.Tangents, order),
		Colors:    gather(rec.Colors, order),
		Indices:   indices,
		Material:  mat,
	}
	for ch := 0; ch < rec.UVChannelCount(); ch++ {
		uv := rec.UVs[ch]
		if uv == nil {
			// glTF texcoord sets must be contiguous; fill the gap with zeros.
			prim.UVs = append(prim.UVs, make([][2]float32, len(order)))
			continue
		}
		prim.UVs = append(prim.UVs, gather(uv, order))
	}

	return prim, nil
}

func streamsMatch(rec *mesh.Record) bool {
	n := rec.VertexCount()
	ok := func(length int, present bool) bool { return !present || length == n }
	if !ok(len(rec.Normals), rec.Normals != nil) ||
		!ok(len(rec.Tangents), rec.Tangents != nil) ||
		!ok(len(rec.Colors), rec.Colors != nil) {
		return false
	}
	for _, uv := range rec.UVs {
		if !ok(len(uv), uv != nil) {
			return false
		}
	}
	return true
}

// gather copies stream[order[i]] for each i. A nil stream stays nil.
func gather[T any](stream []T, order []uint32) []T {
	if stream == nil {
		return nil
	}
	out := make([]T, len(order))
	for i, v := range order {
		out[i] = stream[v]
	}
	return out
}
