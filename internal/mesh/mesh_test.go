package mesh

import (
	"errors"
	gomath "math"
	"strings"
	"testing"

	"github.com/Faultbox/sktransfer/pkg/formats"
	"github.com/Faultbox/sktransfer/pkg/math"
)

// Two triangles sharing an edge; vertex 2 is split by a UV seam.
const testSeamOBJ = `o Strip
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0.1 0.1
vt 0.9 0.1
vt 0.9 0.9
vt 0.1 0.9
vt 0.5 0.5
f 1/1 2/2 3/3
f 1/1 3/5 4/4
`

func parseTestOBJ(t *testing.T, data string) *formats.OBJ {
	t.Helper()
	obj, err := formats.ParseOBJ(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseOBJ failed: %v", err)
	}
	return obj
}

func TestFromOBJ_SeamsAndNormals(t *testing.T) {
	m, err := FromOBJ(parseTestOBJ(t, testSeamOBJ), "")
	if err != nil {
		t.Fatalf("FromOBJ failed: %v", err)
	}

	if m.Name != "Strip" {
		t.Errorf("expected name Strip, got %q", m.Name)
	}
	if m.VertexCount() != 4 {
		t.Fatalf("expected 4 vertices, got %d", m.VertexCount())
	}

	layer, err := m.UVLayer(0)
	if err != nil {
		t.Fatalf("UVLayer(0) failed: %v", err)
	}
	if layer.UVs[2] != (math.Vec2{X: 0.9, Y: 0.9}) {
		t.Errorf("vertex 2 primary UV = %v, want first corner's (0.9, 0.9)", layer.UVs[2])
	}
	if len(layer.Seams) != 1 || layer.Seams[0] != (SeamUV{Vertex: 2, UV: math.Vec2{X: 0.5, Y: 0.5}}) {
		t.Errorf("unexpected seams: %+v", layer.Seams)
	}

	// Flat quad in the XY plane with counter-clockwise winding.
	for i, n := range m.Normals {
		if n.Distance(math.Vec3{Z: 1}) > 1e-12 {
			t.Errorf("vertex %d normal = %v, want (0,0,1)", i, n)
		}
	}
}

func TestFromOBJ_OBJNormalsAveraged(t *testing.T) {
	data := "v 0 0 0\nv 1 0 0\nv 0 1 0\nvt 0 0\nvt 1 0\nvt 0 1\nvn 1 0 0\nvn 0 1 0\nf 1/1/1 2/2/1 3/3/2\nf 1/1/2 3/3/1 2/2/2\n"
	m, err := FromOBJ(parseTestOBJ(t, data), "avg")
	if err != nil {
		t.Fatalf("FromOBJ failed: %v", err)
	}
	want := math.Vec3{X: 1, Y: 1}.Normalize()
	if m.Normals[0].Distance(want) > 1e-12 {
		t.Errorf("vertex 0 normal = %v, want %v", m.Normals[0], want)
	}
}

func TestFromOBJ_MissingUV(t *testing.T) {
	data := "v 0 0 0\nv 1 0 0\nv 0 1 0\nv 5 5 5\nvt 0 0\nf 1/1 2/1 3/1\n"
	_, err := FromOBJ(parseTestOBJ(t, data), "loose")
	if !errors.Is(err, ErrMissingUVLayer) {
		t.Errorf("expected ErrMissingUVLayer for loose vertex, got %v", err)
	}
}

func TestFromOBJ_NoTexCoords(t *testing.T) {
	m, err := FromOBJ(parseTestOBJ(t, "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"), "bare")
	if err != nil {
		t.Fatalf("FromOBJ failed: %v", err)
	}
	if _, err := m.UVLayer(0); !errors.Is(err, ErrMissingUVLayer) {
		t.Errorf("expected ErrMissingUVLayer, got %v", err)
	}
}

func TestAddOBJShapeKey(t *testing.T) {
	m, err := FromOBJ(parseTestOBJ(t, testSeamOBJ), "")
	if err != nil {
		t.Fatalf("FromOBJ failed: %v", err)
	}
	target := parseTestOBJ(t, strings.Replace(testSeamOBJ, "v 1 1 0", "v 1 1 0.5", 1))

	if err := AddOBJShapeKey(m, target, KeyNameFromPath("/tmp/targets/Bulge.obj")); err != nil {
		t.Fatalf("AddOBJShapeKey failed: %v", err)
	}
	key, idx, err := m.ShapeKey("Bulge")
	if err != nil {
		t.Fatalf("ShapeKey failed: %v", err)
	}
	if idx != 0 || m.ActiveShapeKeyName() != "Bulge" {
		t.Errorf("expected Bulge to be the active key at index 0, got %d / %q", idx, m.ActiveShapeKeyName())
	}
	if key.Displacements[2] != (math.Vec3{Z: 0.5}) {
		t.Errorf("displacement of vertex 2 = %v, want (0,0,0.5)", key.Displacements[2])
	}
	if key.Displacements[0] != (math.Vec3{}) {
		t.Errorf("displacement of vertex 0 = %v, want zero", key.Displacements[0])
	}

	short := parseTestOBJ(t, "v 0 0 0\n")
	if err := AddOBJShapeKey(m, short, "Short"); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestAddShapeKey_Duplicate(t *testing.T) {
	m := &Mesh{Name: "tri", Positions: make([]math.Vec3, 3)}
	key := ShapeKey{Name: "Smile", Displacements: make([]math.Vec3, 3)}

	if err := m.AddShapeKey(key, false); err != nil {
		t.Fatalf("first AddShapeKey failed: %v", err)
	}
	if err := m.AddShapeKey(key, false); !errors.Is(err, ErrDuplicateShapeKey) {
		t.Errorf("expected ErrDuplicateShapeKey, got %v", err)
	}

	key.Displacements = []math.Vec3{{X: 1}, {}, {}}
	if err := m.AddShapeKey(key, true); err != nil {
		t.Fatalf("replacing AddShapeKey failed: %v", err)
	}
	if len(m.ShapeKeys) != 1 || m.ShapeKeys[0].Displacements[0].X != 1 {
		t.Errorf("expected key to be replaced in place, got %+v", m.ShapeKeys)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Mesh {
		return &Mesh{
			Name:      "tri",
			Positions: make([]math.Vec3, 3),
			Faces:     [][]int{{0, 1, 2}},
			UVLayers: []UVLayer{{
				Name: "UVMap",
				UVs:  []math.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
			}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Mesh)
		want   error
	}{
		{"valid", func(*Mesh) {}, nil},
		{"uv out of range", func(m *Mesh) { m.UVLayers[0].UVs[1].X = 1.5 }, ErrUVOutOfRange},
		{"uv NaN", func(m *Mesh) { m.UVLayers[0].UVs[1].Y = gomath.NaN() }, ErrUVOutOfRange},
		{"seam out of range", func(m *Mesh) {
			m.UVLayers[0].Seams = []SeamUV{{Vertex: 0, UV: math.Vec2{X: -0.5}}}
		}, ErrUVOutOfRange},
		{"short uv layer", func(m *Mesh) { m.UVLayers[0].UVs = m.UVLayers[0].UVs[:2] }, ErrLengthMismatch},
		{"bad face index", func(m *Mesh) { m.Faces[0][2] = 7 }, ErrInvalidFace},
		{"short normals", func(m *Mesh) { m.Normals = make([]math.Vec3, 1) }, ErrLengthMismatch},
		{"short shape key", func(m *Mesh) {
			m.ShapeKeys = []ShapeKey{{Name: "k", Displacements: make([]math.Vec3, 2)}}
		}, ErrLengthMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := base()
			tt.mutate(m)
			err := m.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected valid mesh, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestSnapshotConversion(t *testing.T) {
	m, err := FromOBJ(parseTestOBJ(t, testSeamOBJ), "")
	if err != nil {
		t.Fatalf("FromOBJ failed: %v", err)
	}
	m.ShapeKeys = []ShapeKey{{Name: "Lift", SliderMin: -1, SliderMax: 1,
		Displacements: []math.Vec3{{Z: 1}, {Z: 2}, {Z: 3}, {Z: 4}}}}

	again, err := FromSnapshot(m.Snapshot())
	if err != nil {
		t.Fatalf("FromSnapshot failed: %v", err)
	}
	if again.UVLayers[0].Seams[0] != m.UVLayers[0].Seams[0] {
		t.Errorf("seam changed: %+v", again.UVLayers[0].Seams)
	}
	key, _, err := again.ShapeKey("Lift")
	if err != nil {
		t.Fatalf("ShapeKey failed: %v", err)
	}
	if key.SliderMin != -1 || key.Displacements[3] != (math.Vec3{Z: 4}) {
		t.Errorf("shape key changed: %+v", key)
	}
}

func TestFromSnapshot_ComputesNormals(t *testing.T) {
	s := &formats.Snapshot{
		Name:      "tri",
		Positions: [][3]float64{{0, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Faces:     [][]int{{0, 1, 2}},
		UVLayers:  []formats.SnapshotUVLayer{{Name: "UVMap", UVs: [][2]float64{{0, 0}, {1, 0}, {0, 1}}}},
	}
	m, err := FromSnapshot(s)
	if err != nil {
		t.Fatalf("FromSnapshot failed: %v", err)
	}
	if !m.HasNormals() {
		t.Fatal("expected normals to be computed")
	}
	if m.Normals[1].Distance(math.Vec3{X: 1}) > 1e-12 {
		t.Errorf("normal = %v, want (1,0,0)", m.Normals[1])
	}
}

func TestDeformed(t *testing.T) {
	m := &Mesh{Positions: []math.Vec3{{X: 1}, {Y: 1}}}
	key := &ShapeKey{Displacements: []math.Vec3{{Z: 1}, {Z: -1}}}
	got := m.Deformed(key)
	if got[0] != (math.Vec3{X: 1, Z: 1}) || got[1] != (math.Vec3{Y: 1, Z: -1}) {
		t.Errorf("Deformed = %v", got)
	}
	if m.Positions[0] != (math.Vec3{X: 1}) {
		t.Error("Deformed modified the base positions")
	}
}

func TestMeshOBJ(t *testing.T) {
	m, err := FromOBJ(parseTestOBJ(t, testSeamOBJ), "")
	if err != nil {
		t.Fatalf("FromOBJ failed: %v", err)
	}

	lifted := make([]math.Vec3, m.VertexCount())
	for i, p := range m.Positions {
		lifted[i] = p.Add(math.Vec3{Z: 1})
	}
	obj := m.OBJ(lifted)

	var sb strings.Builder
	if err := formats.WriteOBJ(&sb, obj); err != nil {
		t.Fatalf("WriteOBJ failed: %v", err)
	}
	back, err := FromOBJ(parseTestOBJ(t, sb.String()), "")
	if err != nil {
		t.Fatalf("FromOBJ of written mesh failed: %v", err)
	}

	if back.Name != "Strip" || back.VertexCount() != 4 || len(back.Faces) != 2 {
		t.Fatalf("unexpected mesh %q with %d vertices and %d faces", back.Name, back.VertexCount(), len(back.Faces))
	}
	if back.Positions[2] != (math.Vec3{X: 1, Y: 1, Z: 1}) {
		t.Errorf("vertex 2 = %v, want lifted position", back.Positions[2])
	}
	if len(back.UVLayers[0].Seams) != 0 {
		t.Errorf("expected seams to be dropped, got %+v", back.UVLayers[0].Seams)
	}
	if back.UVLayers[0].UVs[2] != m.UVLayers[0].UVs[2] {
		t.Errorf("primary UV not preserved: %v", back.UVLayers[0].UVs[2])
	}
}
