package scene

import (
	"errors"
	"fmt"

	"github.com/Faultbox/meshexport/pkg/mesh"
)

// ErrMeshHasNoGeometry is returned when no submesh produced a primitive.
var ErrMeshHasNoGeometry = errors.New("mesh has no geometry")

// unnamedRoot names the root node of a record without a name.
const unnamedRoot = "Mesh"

// Omission describes a submesh left out of the graph.
type Omission struct {
	Submesh int
	Err     error
}

// Build creates a root node named after rec with one child per submesh that
// assembles into a primitive. Children keep submesh order and are named by
// submesh ordinal. All primitives share mat; nil selects DefaultMaterial.
//
// Submeshes that fail to assemble are skipped and reported in the returned
// omissions. If none assemble, Build returns ErrMeshHasNoGeometry.
func Build(rec *mesh.Record, mat *Material) (*Graph, []Omission, error) {
	if mat == nil {
		mat = DefaultMaterial
	}

	name := rec.Name
	if name == "" {
		name = unnamedRoot
	}
	root := newNode(name)

	var omitted []Omission
	for i, sm := range rec.Submeshes {
		prim, err := Assemble(rec, sm, mat)
		if err != nil {
			omitted = append(omitted, Omission{Submesh: i, Err: err})
			continue
		}

		child := newNode(SubmeshNodeName(i))
		child.Primitive = prim
		root.Children = append(root.Children, child)
	}

	if len(root.Children) == 0 {
		return nil, omitted, fmt.Errorf("%w: %q (%d submeshes)", ErrMeshHasNoGeometry, name, len(rec.Submeshes))
	}

	return &Graph{Root: root}, omitted, nil
}

// SubmeshNodeName returns the node name used for the submesh at index i.
func SubmeshNodeName(i int) string {
	return fmt.Sprintf("Submesh_%d", i)
}
