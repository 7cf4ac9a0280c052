// Package mesh defines the in-memory mesh record consumed by the exporter.
package mesh

import (
	"errors"
	"fmt"
)

// MaxUVChannels is the number of texture coordinate channels a record can carry.
const MaxUVChannels = 8

// MaxInfluences is the number of bone influences stored per vertex.
const MaxInfluences = 4

// Record validation errors.
var (
	ErrStreamLength      = errors.New("vertex stream length mismatch")
	ErrIndexOutOfRange   = errors.New("index references missing vertex")
	ErrSubmeshOutOfRange = errors.New("submesh range outside index buffer")
)

// Submesh is an index range into the parent record's index buffer.
type Submesh struct {
	IndexOffset uint32 // First index of the range
	IndexCount  uint32 // Number of indices in the range
}

// End returns the index one past the last index of the range.
func (s Submesh) End() uint64 {
	return uint64(s.IndexOffset) + uint64(s.IndexCount)
}

// Record is a decoded mesh with parallel per-vertex streams.
//
// Optional streams are nil when absent. A present stream has one element per
// vertex, where the vertex count is len(Positions).
type Record struct {
	Name      string
	Submeshes []Submesh

	Positions [][3]float32
	Normals   [][3]float32
	Tangents  [][4]float32
	Colors    [][4]float32
	UVs       [MaxUVChannels][][2]float32

	// Skin is read lazily; a nil reader means the record has no skin stream.
	Skin SkinReader

	BindPoses [][16]float32
	Indices   []uint32
}

// VertexCount returns the number of vertices in the record.
func (r *Record) VertexCount() int {
	return len(r.Positions)
}

// UVChannelCount returns the number of leading UV channels that are present.
func (r *Record) UVChannelCount() int {
	n := 0
	for i := range r.UVs {
		if r.UVs[i] != nil {
			n = i + 1
		}
	}
	return n
}

// Validate checks that every present stream matches the vertex count, every
// submesh range lies inside the index buffer and every index is in range.
// The skin stream is not decoded.
func (r *Record) Validate() error {
	n := r.VertexCount()

	check := func(name string, length int, present bool) error {
		if present && length != n {
			return fmt.Errorf("%w: %s has %d entries, want %d", ErrStreamLength, name, length, n)
		}
		return nil
	}
	if err := check("normals", len(r.Normals), r.Normals != nil); err != nil {
		return err
	}
	if err := check("tangents", len(r.Tangents), r.Tangents != nil); err != nil {
		return err
	}
	if err := check("colors", len(r.Colors), r.Colors != nil); err != nil {
		return err
	}
	for i, uv := range r.UVs {
		if err := check(fmt.Sprintf("uv%d", i), len(uv), uv != nil); err != nil {
			return err
		}
	}

	for i, idx := range r.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: indices[%d] = %d, vertex count %d", ErrIndexOutOfRange, i, idx, n)
		}
	}

	for i, sm := range r.Submeshes {
		if sm.End() > uint64(len(r.Indices)) {
			return fmt.Errorf("%w: submesh %d [%d, %d) of %d", ErrSubmeshOutOfRange, i, sm.IndexOffset, sm.End(), len(r.Indices))
		}
	}

	return nil
}
