package scene

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/meshexport/pkg/mesh"
)

// makeCube returns a 4-vertex, 6-index record split into the given ranges.
func makeCube(submeshes ...mesh.Submesh) *mesh.Record {
	if len(submeshes) == 0 {
		submeshes = []mesh.Submesh{{IndexOffset: 0, IndexCount: 6}}
	}
	return &mesh.Record{
		Name:      "Cube",
		Positions: [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		Normals:   [][3]float32{{0, 0, 1}, {0, 0, 1}, {0, 0, 1}, {0, 0, 1}},
		Indices:   []uint32{0, 1, 2, 0, 2, 3},
		Submeshes: submeshes,
	}
}

func TestAssemble(t *testing.T) {
	rec := makeCube()
	rec.UVs[0] = [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	prim, err := Assemble(rec, rec.Submeshes[0], DefaultMaterial)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	if prim.TriangleCount() != 2 {
		t.Errorf("triangles = %d, want 2", prim.TriangleCount())
	}
	if len(prim.Positions) != 4 {
		t.Errorf("positions = %d, want 4", len(prim.Positions))
	}
	if prim.Tangents != nil || prim.Colors != nil {
		t.Error("absent streams should stay nil")
	}
	if len(prim.UVs) != 1 || len(prim.UVs[0]) != 4 {
		t.Errorf("uvs = %v, want one channel of 4", prim.UVs)
	}
	if prim.Material != DefaultMaterial {
		t.Error("material not attached by reference")
	}
	for i, idx := range prim.Indices {
		if prim.Positions[idx] != rec.Positions[rec.Indices[i]] {
			t.Errorf("index %d resolves to %v, want %v", i, prim.Positions[idx], rec.Positions[rec.Indices[i]])
		}
	}
}

func TestAssembleCompactsVertices(t *testing.T) {
	rec := makeCube(mesh.Submesh{IndexOffset: 3, IndexCount: 3})

	prim, err := Assemble(rec, rec.Submeshes[0], DefaultMaterial)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	want := [][3]float32{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}}
	if len(prim.Positions) != len(want) {
		t.Fatalf("positions = %v, want %v", prim.Positions, want)
	}
	for i := range want {
		if prim.Positions[i] != want[i] {
			t.Errorf("position %d = %v, want %v", i, prim.Positions[i], want[i])
		}
	}
	if got := prim.Indices; got[0] != 0 || got[1] != 1 || got[2] != 2 {
		t.Errorf("indices = %v, want [0 1 2]", got)
	}
}

func TestAssembleUVGap(t *testing.T) {
	rec := makeCube()
	rec.UVs[1] = [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	prim, err := Assemble(rec, rec.Submeshes[0], DefaultMaterial)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(prim.UVs) != 2 {
		t.Fatalf("uv channels = %d, want 2", len(prim.UVs))
	}
	for _, uv := range prim.UVs[0] {
		if uv != [2]float32{} {
			t.Errorf("gap channel should be zero-filled, got %v", uv)
		}
	}
}

func TestAssembleEmptyOrInvalid(t *testing.T) {
	tests := []struct {
		name string
		sm   mesh.Submesh
		edit func(r *mesh.Record)
	}{
		{"empty range", mesh.Submesh{IndexOffset: 0, IndexCount: 0}, nil},
		{"two indices", mesh.Submesh{IndexOffset: 0, IndexCount: 2}, nil},
		{"past end", mesh.Submesh{IndexOffset: 3, IndexCount: 6}, nil},
		{"bad index", mesh.Submesh{IndexOffset: 0, IndexCount: 3}, func(r *mesh.Record) { r.Indices[1] = 9 }},
		{"degenerate", mesh.Submesh{IndexOffset: 0, IndexCount: 3}, func(r *mesh.Record) { r.Indices[1] = 0 }},
		{"short stream", mesh.Submesh{IndexOffset: 0, IndexCount: 3}, func(r *mesh.Record) { r.Normals = r.Normals[:2] }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := makeCube(tt.sm)
			if tt.edit != nil {
				tt.edit(rec)
			}
			prim, err := Assemble(rec, tt.sm, DefaultMaterial)
			if !errors.Is(err, ErrEmptyOrInvalid) {
				t.Errorf("got %v, want ErrEmptyOrInvalid", err)
			}
			if prim != nil {
				t.Error("expected no primitive")
			}
		})
	}
}

func TestAssembleDropsPartialTriangle(t *testing.T) {
	rec := makeCube(mesh.Submesh{IndexOffset: 0, IndexCount: 5})
	prim, err := Assemble(rec, rec.Submeshes[0], DefaultMaterial)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if prim.TriangleCount() != 1 {
		t.Errorf("triangles = %d, want 1", prim.TriangleCount())
	}
}

func TestBuildChildCount(t *testing.T) {
	full := mesh.Submesh{IndexOffset: 0, IndexCount: 6}
	empty := mesh.Submesh{IndexOffset: 6, IndexCount: 0}

	tests := []struct {
		name      string
		submeshes []mesh.Submesh
		wantKids  int
	}{
		{"one of one", []mesh.Submesh{full}, 1},
		{"two of three", []mesh.Submesh{full, empty, full}, 2},
		{"one of four", []mesh.Submesh{empty, empty, empty, full}, 1},
		{"none of two", []mesh.Submesh{empty, empty}, 0},
		{"zero submeshes", []mesh.Submesh{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := makeCube()
			rec.Submeshes = tt.submeshes

			g, omitted, err := Build(rec, nil)
			if tt.wantKids == 0 {
				if !errors.Is(err, ErrMeshHasNoGeometry) {
					t.Fatalf("got %v, want ErrMeshHasNoGeometry", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if len(g.Root.Children) != tt.wantKids {
				t.Errorf("children = %d, want %d", len(g.Root.Children), tt.wantKids)
			}
			if len(omitted) != len(tt.submeshes)-tt.wantKids {
				t.Errorf("omitted = %d, want %d", len(omitted), len(tt.submeshes)-tt.wantKids)
			}
		})
	}
}

func TestBuildNamingAndPlacement(t *testing.T) {
	full := mesh.Submesh{IndexOffset: 0, IndexCount: 6}
	rec := makeCube(mesh.Submesh{IndexOffset: 6}, full, full)

	g, omitted, err := Build(rec, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if g.Root.Name != "Cube" {
		t.Errorf("root name = %q, want Cube", g.Root.Name)
	}
	if len(omitted) != 1 || omitted[0].Submesh != 0 {
		t.Errorf("omitted = %+v, want submesh 0", omitted)
	}

	wantNames := []string{"Submesh_1", "Submesh_2"}
	for i, child := range g.Root.Children {
		if child.Name != wantNames[i] {
			t.Errorf("child %d name = %q, want %q", i, child.Name, wantNames[i])
		}
		if child.Local != mgl32.Ident4() || child.World != mgl32.Ident4() {
			t.Errorf("child %d placement is not identity", i)
		}
		if child.Primitive.Material != DefaultMaterial {
			t.Errorf("child %d material not shared default", i)
		}
	}
	if g.Root.Primitive != nil {
		t.Error("root should carry no geometry")
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", g.NodeCount())
	}
	if len(g.Primitives()) != 2 {
		t.Errorf("Primitives = %d, want 2", len(g.Primitives()))
	}
}

func TestBuildUnnamedRoot(t *testing.T) {
	rec := makeCube()
	rec.Name = ""
	g, _, err := Build(rec, &Material{Name: "Stone"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if g.Root.Name != unnamedRoot {
		t.Errorf("root name = %q, want %q", g.Root.Name, unnamedRoot)
	}
	if g.Root.Children[0].Primitive.Material.Name != "Stone" {
		t.Error("custom material not attached")
	}
}
