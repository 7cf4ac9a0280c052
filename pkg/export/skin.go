package export

import (
	"github.com/Faultbox/meshexport/pkg/mesh"
)

// SkinClass is the outcome of inspecting a record's skin stream.
type SkinClass int

const (
	// SkinAbsent means there is no usable skin: no stream, no positions,
	// mismatched lengths, or only zero weights.
	SkinAbsent SkinClass = iota
	// SkinEffective means at least one vertex has a non-zero weight.
	SkinEffective
	// SkinUnreadable means the skin stream failed to decode.
	SkinUnreadable
)

// String returns a human-readable class name.
func (c SkinClass) String() string {
	switch c {
	case SkinAbsent:
		return "absent"
	case SkinEffective:
		return "effective"
	case SkinUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

// ClassifySkin reads the position and skin streams of rec.
func ClassifySkin(rec *mesh.Record) SkinClass {
	if rec.Skin == nil || rec.Positions == nil {
		return SkinAbsent
	}

	weights, err := rec.Skin.ReadSkin()
	if err != nil {
		return SkinUnreadable
	}
	if len(weights) != len(rec.Positions) {
		return SkinAbsent
	}

	for _, w := range weights {
		if w.Effective() {
			return SkinEffective
		}
	}
	return SkinAbsent
}

// HasEffectiveSkin reports whether rec carries bone weights that influence
// deformation. It fails closed: an unreadable skin stream reports false so
// the mesh is treated as unskinned.
func HasEffectiveSkin(rec *mesh.Record) bool {
	switch ClassifySkin(rec) {
	case SkinEffective:
		return true
	case SkinUnreadable:
		return false
	default:
		return false
	}
}
