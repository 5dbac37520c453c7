package mesh

import "github.com/Faultbox/sktransfer/pkg/math"

// ComputeNormals sets area-weighted vertex normals from the faces.
// Polygons are fanned into triangles around their first vertex; vertices
// not used by any non-degenerate face get a zero normal.
func (m *Mesh) ComputeNormals() {
	normals := make([]math.Vec3, len(m.Positions))
	for _, face := range m.Faces {
		if len(face) < 3 {
			continue
		}
		p0 := m.Positions[face[0]]
		for i := 1; i+1 < len(face); i++ {
			e1 := m.Positions[face[i]].Sub(p0)
			e2 := m.Positions[face[i+1]].Sub(p0)
			// The cross product length is twice the triangle area, which
			// gives the area weighting for free.
			n := e1.Cross(e2)
			normals[face[0]] = normals[face[0]].Add(n)
			normals[face[i]] = normals[face[i]].Add(n)
			normals[face[i+1]] = normals[face[i+1]].Add(n)
		}
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	m.Normals = normals
}
