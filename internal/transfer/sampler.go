package transfer

import (
	"github.com/Faultbox/sktransfer/internal/deltabuf"
	"github.com/Faultbox/sktransfer/internal/mesh"
	"github.com/Faultbox/sktransfer/pkg/math"
)

// SampleDestination reads a displacement for every destination vertex
// through the given UV layer. A vertex split by UV seams averages the
// values found at all of its UVs; a vertex that finds none gets a zero
// displacement and is counted as uncovered.
//
// In normal-relative mode the buffer holds the component along the source
// normal plus the residual orthogonal to it, and the displacement is rebuilt
// around the destination vertex normal. A vertex whose normal is zero or not
// finite cannot be rebuilt; it is left undisplaced and counted as uncovered,
// the same way the rasterizer drops such source samples.
func SampleDestination(b *deltabuf.Buffer, dst *mesh.Mesh, layer *mesh.UVLayer, normalRelative bool) (displacements []math.Vec3, uncovered int) {
	seams := make(map[int][]math.Vec2, len(layer.Seams))
	for _, s := range layer.Seams {
		seams[s.Vertex] = append(seams[s.Vertex], s.UV)
	}

	displacements = make([]math.Vec3, dst.VertexCount())
	for vi, uv := range layer.UVs {
		var normal math.Vec3
		if normalRelative {
			n, ok := math.UnitNormal(dst.Normals[vi])
			if !ok {
				uncovered++
				continue
			}
			normal = n
		}

		sum, n := deltabuf.Value{}, 0
		if v, ok := b.ReadUV(uv); ok {
			sum, n = v, 1
		}
		for _, extra := range seams[vi] {
			if v, ok := b.ReadUV(extra); ok {
				sum = sum.Add(v)
				n++
			}
		}
		if n == 0 {
			uncovered++
			continue
		}
		v := sum.Scale(1 / float64(n))
		if normalRelative {
			displacements[vi] = math.JoinNormal(v.Vec, v.Normal, normal)
		} else {
			displacements[vi] = v.Vec
		}
	}
	return displacements, uncovered
}
