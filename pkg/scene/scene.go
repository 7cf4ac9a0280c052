// Package scene builds the node hierarchy exported for a mesh record.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Material is a named surface shared by reference across primitives.
type Material struct {
	Name string
}

// DefaultMaterial is the material attached when the caller supplies none.
// It is never mutated and may be shared across concurrent exports.
var DefaultMaterial = &Material{Name: "Default"}

// Primitive is one triangle list with its own compacted vertex streams.
type Primitive struct {
	Positions [][3]float32
	Normals   [][3]float32 // nil when the source has no normals
	Tangents  [][4]float32 // nil when the source has no tangents
	Colors    [][4]float32 // nil when the source has no colors
	UVs       [][][2]float32
	Indices   []uint32
	Material  *Material
}

// TriangleCount returns the number of triangles in the index list.
func (p *Primitive) TriangleCount() int {
	return len(p.Indices) / 3
}

// Node is a transform in the hierarchy, optionally owning one primitive.
type Node struct {
	Name      string
	Local     mgl32.Mat4
	World     mgl32.Mat4
	Primitive *Primitive
	Children  []*Node
}

// newNode returns a node placed at the identity.
func newNode(name string) *Node {
	return &Node{
		Name:  name,
		Local: mgl32.Ident4(),
		World: mgl32.Ident4(),
	}
}

// Walk visits n and its descendants depth-first, parents before children.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Graph is the scene produced for one export call.
type Graph struct {
	Root *Node
}

// Primitives returns every primitive in the graph in node order.
func (g *Graph) Primitives() []*Primitive {
	var prims []*Primitive
	if g == nil || g.Root == nil {
		return nil
	}
	g.Root.Walk(func(n *Node) {
		if n.Primitive != nil {
			prims = append(prims, n.Primitive)
		}
	})
	return prims
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	count := 0
	if g == nil || g.Root == nil {
		return 0
	}
	g.Root.Walk(func(*Node) { count++ })
	return count
}
