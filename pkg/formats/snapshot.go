// YAML mesh snapshot: a self-contained description of one mesh, its UV
// layers and its shape keys.

package formats

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Snapshot format errors.
var (
	ErrEmptySnapshot = errors.New("snapshot has no vertices")
)

// SnapshotSeam is an extra UV coordinate of a vertex lying on a UV seam.
type SnapshotSeam struct {
	Vertex int        `yaml:"vertex"`
	UV     [2]float64 `yaml:"uv,flow"`
}

// SnapshotUVLayer holds one UV coordinate per vertex plus seam extras.
type SnapshotUVLayer struct {
	Name  string         `yaml:"name"`
	UVs   [][2]float64   `yaml:"uvs"`
	Seams []SnapshotSeam `yaml:"seams,omitempty"`
}

// SnapshotShapeKey holds one displacement per vertex, relative to the
// base positions.
type SnapshotShapeKey struct {
	Name          string       `yaml:"name"`
	SliderMin     float64      `yaml:"slider_min"`
	SliderMax     float64      `yaml:"slider_max"`
	Displacements [][3]float64 `yaml:"displacements"`
}

// Snapshot is the on-disk form of a mesh.
type Snapshot struct {
	Name           string             `yaml:"name"`
	Positions      [][3]float64       `yaml:"positions"`
	Normals        [][3]float64       `yaml:"normals,omitempty"`
	Faces          [][]int            `yaml:"faces,omitempty"`
	UVLayers       []SnapshotUVLayer  `yaml:"uv_layers"`
	ActiveUV       int                `yaml:"active_uv"`
	ShapeKeys      []SnapshotShapeKey `yaml:"shape_keys,omitempty"`
	ActiveShapeKey int                `yaml:"active_shape_key"`
}

// ParseSnapshot parses a YAML snapshot.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	s := &Snapshot{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	if len(s.Positions) == 0 {
		return nil, ErrEmptySnapshot
	}
	return s, nil
}

// ParseSnapshotFile parses a YAML snapshot from disk.
func ParseSnapshotFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}
	return ParseSnapshot(data)
}

// Marshal encodes the snapshot as YAML.
func (s *Snapshot) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// WriteSnapshotFile writes the snapshot to path, creating parent
// directories as needed.
func WriteSnapshotFile(path string, s *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
