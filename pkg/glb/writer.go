// Package glb serializes scene graphs into binary glTF containers.
package glb

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/meshexport/pkg/scene"
)

// ErrEmptyContainerOutput is returned when serialization yields no bytes or
// the graph holds no buffer data to pack.
var ErrEmptyContainerOutput = errors.New("empty container output")

// DefaultGenerator is written to asset.generator when Options leaves it empty.
const DefaultGenerator = "meshexport"

// Options controls container metadata.
type Options struct {
	Generator string
}

// Serialize packs g into a two-chunk container: a JSON chunk describing
// nodes, meshes and materials followed by a BIN chunk holding vertex and
// index data. Both chunks are 4-byte aligned. The output is deterministic
// for a given graph.
func Serialize(g *scene.Graph, opts Options) ([]byte, error) {
	if g == nil || g.Root == nil {
		return nil, fmt.Errorf("%w: nil scene graph", ErrEmptyContainerOutput)
	}

	doc := buildDocument(g, opts)
	if len(doc.Buffers) == 0 || doc.Buffers[0].ByteLength == 0 {
		return nil, fmt.Errorf("%w: %q has no buffer data", ErrEmptyContainerOutput, g.Root.Name)
	}

	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encoding container: %w", err)
	}

	if buf.Len() == 0 {
		return nil, ErrEmptyContainerOutput
	}
	return buf.Bytes(), nil
}

// buildDocument converts the graph into a glTF document. Nodes are emitted
// depth-first with the root at index 0.
func buildDocument(g *scene.Graph, opts Options) *gltf.Document {
	generator := opts.Generator
	if generator == "" {
		generator = DefaultGenerator
	}

	doc := &gltf.Document{
		Asset: gltf.Asset{Version: "2.0", Generator: generator},
	}
	materials := make(map[*scene.Material]int)

	var addNode func(n *scene.Node) int
	addNode = func(n *scene.Node) int {
		idx := len(doc.Nodes)
		node := &gltf.Node{
			Name:     n.Name,
			Matrix:   toMatrix(n.Local),
			Rotation: [4]float64{0, 0, 0, 1},
			Scale:    [3]float64{1, 1, 1},
		}
		doc.Nodes = append(doc.Nodes, node)

		if n.Primitive != nil {
			node.Mesh = gltf.Index(addMesh(doc, n.Name, n.Primitive, materials))
		}
		for _, c := range n.Children {
			node.Children = append(node.Children, addNode(c))
		}
		return idx
	}
	root := addNode(g.Root)

	doc.Scenes = []*gltf.Scene{{Name: g.Root.Name, Nodes: []int{root}}}
	doc.Scene = gltf.Index(0)
	return doc
}

func addMesh(doc *gltf.Document, name string, p *scene.Primitive, materials map[*scene.Material]int) int {
	attrs := map[string]int{
		gltf.POSITION: modeler.WritePosition(doc, p.Positions),
	}
	if p.Normals != nil {
		attrs[gltf.NORMAL] = modeler.WriteNormal(doc, p.Normals)
	}
	if p.Tangents != nil {
		attrs[gltf.TANGENT] = modeler.WriteTangent(doc, p.Tangents)
	}
	if p.Colors != nil {
		attrs[gltf.COLOR_0] = modeler.WriteColor(doc, p.Colors)
	}
	for i, uv := range p.UVs {
		attrs[fmt.Sprintf("TEXCOORD_%d", i)] = modeler.WriteTextureCoord(doc, uv)
	}

	prim := &gltf.Primitive{
		Attributes: attrs,
		Indices:    gltf.Index(modeler.WriteIndices(doc, p.Indices)),
		Mode:       gltf.PrimitiveTriangles,
	}
	if p.Material != nil {
		prim.Material = gltf.Index(addMaterial(doc, p.Material, materials))
	}

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{Name: name, Primitives: []*gltf.Primitive{prim}})
	return len(doc.Meshes) - 1
}

// addMaterial returns the index of m, adding it on first use.
func addMaterial(doc *gltf.Document, m *scene.Material, materials map[*scene.Material]int) int {
	if idx, ok := materials[m]; ok {
		return idx
	}
	doc.Materials = append(doc.Materials, &gltf.Material{Name: m.Name})
	idx := len(doc.Materials) - 1
	materials[m] = idx
	return idx
}

func toMatrix(m mgl32.Mat4) [16]float64 {
	var out [16]float64
	for i, v := range m {
		out[i] = float64(v)
	}
	return out
}
