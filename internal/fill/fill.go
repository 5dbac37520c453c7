// Package fill scan-converts triangles back into the delta buffer and
// writes barycentric interpolations of the corner values into the cells
// they cover.
//
// Coverage rule: with a triangle oriented to positive area, a cell is
// covered when every edge function is positive, or zero on an edge that
// either lies on the convex hull or points "down or left" in raster space
// (d.Y > 0, or d.Y == 0 and d.X < 0). An edge shared by two triangles is
// traversed in opposite directions by them, so exactly one of the two
// covers the cells lying on it.
package fill

import (
	"image"

	"github.com/Faultbox/sktransfer/internal/deltabuf"
	"github.com/Faultbox/sktransfer/internal/triangulate"
)

// Stats reports the work done by Fill.
type Stats struct {
	Triangles int // Triangles rasterized
	Skipped   int // Degenerate triangles or triangles with an unreadable corner
	Cells     int // Cells that received an interpolated value
}

// Fill interpolates every triangle into b. Cells that already hold a value
// (sampled or interpolated earlier) are left untouched.
func Fill(b *deltabuf.Buffer, tris []triangulate.Triangle) Stats {
	var stats Stats
	for _, tr := range tris {
		n, ok := fillTriangle(b, tr)
		if !ok {
			stats.Skipped++
			continue
		}
		stats.Triangles++
		stats.Cells += n
	}
	return stats
}

// edge is one directed triangle edge and its inclusion rule.
type edge struct {
	from, to  image.Point
	inclusive bool // cells exactly on the edge belong to this triangle
}

// oriented returns the triangle's corners reordered to positive area along
// with its three edges. Edge i is opposite corner i, so its edge function
// is the unnormalized barycentric weight of that corner.
func oriented(tr triangulate.Triangle) (v [3]image.Point, edges [3]edge, area int64) {
	v = tr.V
	hull := tr.Hull // hull[i]: edge v[i] -> v[(i+1)%3]
	area = tr.Area2()
	if area < 0 {
		// Swapping corners 1 and 2 reverses every edge:
		// 0->2 was 2->0, 2->1 was 1->2, 1->0 was 0->1.
		v[1], v[2] = v[2], v[1]
		hull = [3]bool{hull[2], hull[1], hull[0]}
		area = -area
	}
	for i := 0; i < 3; i++ {
		from, to := v[(i+1)%3], v[(i+2)%3]
		edges[i] = edge{
			from:      from,
			to:        to,
			inclusive: hull[(i+1)%3] || ownsEdge(to.Sub(from)),
		}
	}
	return v, edges, area
}

// ownsEdge is the tie-break for cells on an edge shared by two triangles.
// Exactly one of d and -d satisfies it.
func ownsEdge(d image.Point) bool {
	return d.Y > 0 || (d.Y == 0 && d.X < 0)
}

// weights returns the edge function values of p, or false when p is not
// covered by the triangle.
func weights(edges [3]edge, p image.Point) ([3]int64, bool) {
	var w [3]int64
	for i, e := range edges {
		w[i] = triangulate.Orient(e.from, e.to, p)
		if w[i] < 0 || (w[i] == 0 && !e.inclusive) {
			return w, false
		}
	}
	return w, true
}

// covers reports whether p is covered by tr under the coverage rule.
func covers(tr triangulate.Triangle, p image.Point) bool {
	_, edges, area := oriented(tr)
	if area == 0 {
		return false
	}
	_, ok := weights(edges, p)
	return ok
}

func fillTriangle(b *deltabuf.Buffer, tr triangulate.Triangle) (int, bool) {
	v, edges, area := oriented(tr)
	if area == 0 {
		return 0, false
	}

	var values [3]deltabuf.Value
	for i, p := range v {
		val, ok := b.ReadValue(p)
		if !ok {
			return 0, false
		}
		values[i] = val
	}

	box := image.Rectangle{Min: v[0], Max: v[0].Add(image.Pt(1, 1))}
	for _, p := range v[1:] {
		box = box.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	box = box.Intersect(b.Bounds())

	inv := 1 / float64(area)
	written := 0
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			p := image.Pt(x, y)
			w, ok := weights(edges, p)
			if !ok {
				continue
			}
			value := values[0].Scale(float64(w[0]) * inv).
				Add(values[1].Scale(float64(w[1]) * inv)).
				Add(values[2].Scale(float64(w[2]) * inv))
			if b.SetInterpolated(p, value) {
				written++
			}
		}
	}
	return written, true
}
