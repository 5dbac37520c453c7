// Package mesh holds the immutable mesh snapshot the transfer pipeline reads:
// per-vertex positions, normals, UV layers and shape keys.
package mesh

import (
	"errors"
	"fmt"

	"github.com/Faultbox/sktransfer/pkg/math"
)

// Mesh precondition errors.
var (
	ErrMissingUVLayer    = errors.New("missing UV layer")
	ErrMissingShapeKey   = errors.New("missing shape key")
	ErrDuplicateShapeKey = errors.New("shape key already exists")
	ErrLengthMismatch    = errors.New("per-vertex array length mismatch")
	ErrUVOutOfRange      = errors.New("UV coordinate outside the unit square")
	ErrMissingNormals    = errors.New("missing vertex normals")
	ErrInvalidFace       = errors.New("invalid face")
)

// SeamUV is an additional UV coordinate of a vertex split by a UV seam.
type SeamUV struct {
	Vertex int
	UV     math.Vec2
}

// UVLayer maps every vertex to UV space. UVs holds the primary coordinate
// of each vertex, Seams the extra coordinates of split vertices.
type UVLayer struct {
	Name  string
	UVs   []math.Vec2
	Seams []SeamUV
}

// ShapeKey is a named per-vertex displacement field relative to the base
// positions.
type ShapeKey struct {
	Name          string
	SliderMin     float64
	SliderMax     float64
	Displacements []math.Vec3
}

// Mesh is a snapshot of a host mesh. The transfer pipeline never mutates
// it; only AddShapeKey does.
type Mesh struct {
	Name           string
	Positions      []math.Vec3
	Normals        []math.Vec3 // Unit normals, one per vertex (may be empty)
	Faces          [][]int     // Polygons as vertex index lists
	UVLayers       []UVLayer
	ActiveUV       int
	ShapeKeys      []ShapeKey
	ActiveShapeKey int
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// HasNormals reports whether every vertex carries a normal.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) == len(m.Positions) && len(m.Positions) > 0
}

// UVLayer returns the UV layer at index i.
func (m *Mesh) UVLayer(i int) (*UVLayer, error) {
	if i < 0 || i >= len(m.UVLayers) {
		return nil, fmt.Errorf("%w: index %d (mesh %q has %d)", ErrMissingUVLayer, i, m.Name, len(m.UVLayers))
	}
	return &m.UVLayers[i], nil
}

// ShapeKey looks a shape key up by name and returns it with its index.
func (m *Mesh) ShapeKey(name string) (*ShapeKey, int, error) {
	for i := range m.ShapeKeys {
		if m.ShapeKeys[i].Name == name {
			return &m.ShapeKeys[i], i, nil
		}
	}
	return nil, -1, fmt.Errorf("%w: %q on mesh %q", ErrMissingShapeKey, name, m.Name)
}

// ActiveShapeKeyName returns the name of the active shape key, or "" when
// the mesh has none.
func (m *Mesh) ActiveShapeKeyName() string {
	if m.ActiveShapeKey < 0 || m.ActiveShapeKey >= len(m.ShapeKeys) {
		return ""
	}
	return m.ShapeKeys[m.ActiveShapeKey].Name
}

// ShapeKeyNames lists the shape keys in order.
func (m *Mesh) ShapeKeyNames() []string {
	names := make([]string, len(m.ShapeKeys))
	for i, k := range m.ShapeKeys {
		names[i] = k.Name
	}
	return names
}

// AddShapeKey appends key. An existing key with the same name is replaced
// when replace is set, otherwise ErrDuplicateShapeKey is returned.
func (m *Mesh) AddShapeKey(key ShapeKey, replace bool) error {
	if len(key.Displacements) != m.VertexCount() {
		return fmt.Errorf("%w: shape key %q has %d displacements, mesh %q has %d vertices",
			ErrLengthMismatch, key.Name, len(key.Displacements), m.Name, m.VertexCount())
	}
	if _, i, err := m.ShapeKey(key.Name); err == nil {
		if !replace {
			return fmt.Errorf("%w: %q on mesh %q", ErrDuplicateShapeKey, key.Name, m.Name)
		}
		m.ShapeKeys[i] = key
		return nil
	}
	m.ShapeKeys = append(m.ShapeKeys, key)
	return nil
}

// Deformed returns the base positions displaced by key.
func (m *Mesh) Deformed(key *ShapeKey) []math.Vec3 {
	out := make([]math.Vec3, len(m.Positions))
	for i, p := range m.Positions {
		if i < len(key.Displacements) {
			p = p.Add(key.Displacements[i])
		}
		out[i] = p
	}
	return out
}

// Validate checks the structural invariants of the snapshot: array lengths,
// face indices and the UV range of every layer.
func (m *Mesh) Validate() error {
	n := m.VertexCount()
	if len(m.Normals) != 0 && len(m.Normals) != n {
		return fmt.Errorf("%w: %d normals for %d vertices", ErrLengthMismatch, len(m.Normals), n)
	}
	for fi, face := range m.Faces {
		if len(face) < 3 {
			return fmt.Errorf("%w: face %d has %d vertices", ErrInvalidFace, fi, len(face))
		}
		for _, vi := range face {
			if vi < 0 || vi >= n {
				return fmt.Errorf("%w: face %d references vertex %d", ErrInvalidFace, fi, vi)
			}
		}
	}
	for li := range m.UVLayers {
		if err := m.validateUVLayer(li); err != nil {
			return err
		}
	}
	for _, k := range m.ShapeKeys {
		if len(k.Displacements) != n {
			return fmt.Errorf("%w: shape key %q has %d displacements for %d vertices",
				ErrLengthMismatch, k.Name, len(k.Displacements), n)
		}
	}
	return nil
}

func (m *Mesh) validateUVLayer(li int) error {
	layer := &m.UVLayers[li]
	if len(layer.UVs) != m.VertexCount() {
		return fmt.Errorf("%w: UV layer %q has %d coordinates for %d vertices",
			ErrLengthMismatch, layer.Name, len(layer.UVs), m.VertexCount())
	}
	for vi, uv := range layer.UVs {
		if !uv.InUnitSquare() {
			return fmt.Errorf("%w: UV layer %q vertex %d at (%g, %g)", ErrUVOutOfRange, layer.Name, vi, uv.X, uv.Y)
		}
	}
	for _, s := range layer.Seams {
		if s.Vertex < 0 || s.Vertex >= m.VertexCount() {
			return fmt.Errorf("%w: UV layer %q seam references vertex %d", ErrLengthMismatch, layer.Name, s.Vertex)
		}
		if !s.UV.InUnitSquare() {
			return fmt.Errorf("%w: UV layer %q seam of vertex %d at (%g, %g)", ErrUVOutOfRange, layer.Name, s.Vertex, s.UV.X, s.UV.Y)
		}
	}
	return nil
}
