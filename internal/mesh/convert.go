package mesh

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Faultbox/sktransfer/pkg/formats"
	"github.com/Faultbox/sktransfer/pkg/math"
)

// FromOBJ builds a mesh from a parsed OBJ. Each OBJ position is one vertex;
// its primary UV is the texture coordinate of its first face corner and any
// other distinct coordinate becomes a seam UV. Corner normals are averaged
// per vertex, or computed from the faces when the file has none.
func FromOBJ(obj *formats.OBJ, name string) (*Mesh, error) {
	if name == "" {
		name = obj.Name
	}
	m := &Mesh{
		Name:      name,
		Positions: make([]math.Vec3, len(obj.Positions)),
		Faces:     make([][]int, len(obj.Faces)),
	}
	for i, p := range obj.Positions {
		m.Positions[i] = math.Vec3From(p)
	}

	n := len(obj.Positions)
	uvs := make([]math.Vec2, n)
	hasUV := make([]bool, n)
	var seams []SeamUV
	seen := make(map[SeamUV]bool)

	normalSums := make([]math.Vec3, n)
	hasNormals := len(obj.Normals) > 0

	for fi, face := range obj.Faces {
		m.Faces[fi] = make([]int, len(face.Corners))
		for ci, c := range face.Corners {
			m.Faces[fi][ci] = c.V
			if hasNormals && c.VN >= 0 {
				normalSums[c.V] = normalSums[c.V].Add(math.Vec3From(obj.Normals[c.VN]))
			}
			if c.VT < 0 {
				continue
			}
			uv := math.Vec2{X: obj.TexCoords[c.VT][0], Y: obj.TexCoords[c.VT][1]}
			switch {
			case !hasUV[c.V]:
				uvs[c.V] = uv
				hasUV[c.V] = true
			case uvs[c.V] != uv:
				s := SeamUV{Vertex: c.V, UV: uv}
				if !seen[s] {
					seen[s] = true
					seams = append(seams, s)
				}
			}
		}
	}

	if len(obj.TexCoords) > 0 {
		for vi, ok := range hasUV {
			if !ok {
				return nil, fmt.Errorf("%w: vertex %d of %q has no texture coordinate", ErrMissingUVLayer, vi, name)
			}
		}
		m.UVLayers = []UVLayer{{Name: "UVMap", UVs: uvs, Seams: seams}}
	}

	if hasNormals {
		m.Normals = make([]math.Vec3, n)
		for i, s := range normalSums {
			m.Normals[i] = s.Normalize()
		}
	} else {
		m.ComputeNormals()
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// AddOBJShapeKey adds a shape key whose displacements are the differences
// between target's positions and the mesh's base positions. The target must
// list its vertices in the same order as the base mesh.
func AddOBJShapeKey(m *Mesh, target *formats.OBJ, name string) error {
	if len(target.Positions) != m.VertexCount() {
		return fmt.Errorf("%w: shape target %q has %d vertices, mesh %q has %d",
			ErrLengthMismatch, name, len(target.Positions), m.Name, m.VertexCount())
	}
	key := ShapeKey{Name: name, SliderMin: 0, SliderMax: 1, Displacements: make([]math.Vec3, m.VertexCount())}
	for i, p := range target.Positions {
		key.Displacements[i] = math.Vec3From(p).Sub(m.Positions[i])
	}
	if err := m.AddShapeKey(key, false); err != nil {
		return err
	}
	m.ActiveShapeKey = len(m.ShapeKeys) - 1
	return nil
}

// KeyNameFromPath derives a shape key name from a shape target file name.
func KeyNameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FromSnapshot builds a mesh from a YAML snapshot. Normals are computed
// from the faces when the snapshot carries none.
func FromSnapshot(s *formats.Snapshot) (*Mesh, error) {
	m := &Mesh{
		Name:           s.Name,
		Positions:      make([]math.Vec3, len(s.Positions)),
		Faces:          s.Faces,
		ActiveUV:       s.ActiveUV,
		ActiveShapeKey: s.ActiveShapeKey,
	}
	for i, p := range s.Positions {
		m.Positions[i] = math.Vec3From(p)
	}
	if len(s.Normals) > 0 {
		m.Normals = make([]math.Vec3, len(s.Normals))
		for i, n := range s.Normals {
			m.Normals[i] = math.Vec3From(n).Normalize()
		}
	}
	for _, l := range s.UVLayers {
		layer := UVLayer{Name: l.Name, UVs: make([]math.Vec2, len(l.UVs))}
		for i, uv := range l.UVs {
			layer.UVs[i] = math.Vec2{X: uv[0], Y: uv[1]}
		}
		for _, seam := range l.Seams {
			layer.Seams = append(layer.Seams, SeamUV{Vertex: seam.Vertex, UV: math.Vec2{X: seam.UV[0], Y: seam.UV[1]}})
		}
		m.UVLayers = append(m.UVLayers, layer)
	}
	for _, k := range s.ShapeKeys {
		key := ShapeKey{Name: k.Name, SliderMin: k.SliderMin, SliderMax: k.SliderMax,
			Displacements: make([]math.Vec3, len(k.Displacements))}
		for i, d := range k.Displacements {
			key.Displacements[i] = math.Vec3From(d)
		}
		m.ShapeKeys = append(m.ShapeKeys, key)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	if len(m.Normals) == 0 && len(m.Faces) > 0 {
		m.ComputeNormals()
	}
	return m, nil
}

// Snapshot converts the mesh back to its on-disk form.
func (m *Mesh) Snapshot() *formats.Snapshot {
	s := &formats.Snapshot{
		Name:           m.Name,
		Positions:      make([][3]float64, len(m.Positions)),
		Faces:          m.Faces,
		ActiveUV:       m.ActiveUV,
		ActiveShapeKey: m.ActiveShapeKey,
	}
	for i, p := range m.Positions {
		s.Positions[i] = p.Array()
	}
	if len(m.Normals) > 0 {
		s.Normals = make([][3]float64, len(m.Normals))
		for i, n := range m.Normals {
			s.Normals[i] = n.Array()
		}
	}
	for _, l := range m.UVLayers {
		layer := formats.SnapshotUVLayer{Name: l.Name, UVs: make([][2]float64, len(l.UVs))}
		for i, uv := range l.UVs {
			layer.UVs[i] = [2]float64{uv.X, uv.Y}
		}
		for _, seam := range l.Seams {
			layer.Seams = append(layer.Seams, formats.SnapshotSeam{Vertex: seam.Vertex, UV: [2]float64{seam.UV.X, seam.UV.Y}})
		}
		s.UVLayers = append(s.UVLayers, layer)
	}
	for _, k := range m.ShapeKeys {
		key := formats.SnapshotShapeKey{Name: k.Name, SliderMin: k.SliderMin, SliderMax: k.SliderMax,
			Displacements: make([][3]float64, len(k.Displacements))}
		for i, d := range k.Displacements {
			key.Displacements[i] = d.Array()
		}
		s.ShapeKeys = append(s.ShapeKeys, key)
	}
	return s
}

// PositionArrays converts positions to the fixed-size arrays used by the
// file formats.
func PositionArrays(positions []math.Vec3) [][3]float64 {
	out := make([][3]float64, len(positions))
	for i, p := range positions {
		out[i] = p.Array()
	}
	return out
}

// OBJ converts the mesh to an OBJ, writing positions in place of the base
// positions when given. The active UV layer becomes one texture coordinate
// per vertex; seam UVs have no corner to attach to and are dropped.
func (m *Mesh) OBJ(positions []math.Vec3) *formats.OBJ {
	if positions == nil {
		positions = m.Positions
	}
	obj := &formats.OBJ{Name: m.Name, Positions: PositionArrays(positions)}

	layer, err := m.UVLayer(m.ActiveUV)
	hasUV := err == nil && len(layer.UVs) == len(positions)
	if hasUV {
		obj.TexCoords = make([][2]float64, len(layer.UVs))
		for i, uv := range layer.UVs {
			obj.TexCoords[i] = [2]float64{uv.X, uv.Y}
		}
	}
	if m.HasNormals() {
		obj.Normals = PositionArrays(m.Normals)
	}

	obj.Faces = make([]formats.OBJFace, len(m.Faces))
	for fi, face := range m.Faces {
		corners := make([]formats.OBJCorner, len(face))
		for ci, vi := range face {
			c := formats.OBJCorner{V: vi, VT: -1, VN: -1}
			if hasUV {
				c.VT = vi
			}
			if m.HasNormals() {
				c.VN = vi
			}
			corners[ci] = c
		}
		obj.Faces[fi] = formats.OBJFace{Corners: corners}
	}
	return obj
}
