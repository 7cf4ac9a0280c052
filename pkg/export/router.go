package export

import (
	"github.com/Faultbox/meshexport/pkg/mesh"
)

// Decision is the export path selected for a mesh.
type Decision int

const (
	// UseNative delegates the mesh to the native serializer.
	UseNative Decision = iota
	// UseBinaryContainer exports the mesh as a binary glTF container.
	UseBinaryContainer
)

// String returns a human-readable decision name.
func (d Decision) String() string {
	switch d {
	case UseNative:
		return "native"
	case UseBinaryContainer:
		return "container"
	default:
		return "unknown"
	}
}

// Route applies the routing table:
//
//	native -> UseNative
//	glb    -> UseBinaryContainer
//	fbx    -> UseNative when skinned, UseBinaryContainer otherwise
//
// Unknown policies route to UseNative.
func Route(policy Policy, skinned bool) Decision {
	switch policy {
	case PolicyGlb:
		return UseBinaryContainer
	case PolicyFbx:
		if skinned {
			return UseNative
		}
		return UseBinaryContainer
	default:
		return UseNative
	}
}

// RouteMesh classifies rec at whole-mesh granularity and routes it.
// It does not modify rec, so repeated calls on the same record agree.
func RouteMesh(rec *mesh.Record, policy Policy) Decision {
	return Route(policy, HasEffectiveSkin(rec))
}
