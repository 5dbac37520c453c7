// Package triangulate builds the Delaunay triangulation of the occupied
// delta buffer cells.
package triangulate

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/fogleman/delaunay"
)

// ErrDegenerate is returned when the points admit no triangle: fewer than
// three points, or all of them collinear. The accompanying triangulation is
// empty but valid.
var ErrDegenerate = errors.New("degenerate point set")

// Triangle references three grid points. Hull[i] is set when the edge from
// V[i] to V[(i+1)%3] lies on the convex hull, i.e. no other triangle shares
// it.
type Triangle struct {
	V    [3]image.Point
	Hull [3]bool
}

// Area2 returns twice the signed area of the triangle. It is positive when
// V[0], V[1], V[2] turn clockwise in raster coordinates (y down).
func (t Triangle) Area2() int64 {
	return Orient(t.V[0], t.V[1], t.V[2])
}

// Orient returns the edge function of c against the directed edge a->b.
func Orient(a, b, c image.Point) int64 {
	return int64(b.X-a.X)*int64(c.Y-a.Y) - int64(b.Y-a.Y)*int64(c.X-a.X)
}

// Triangulation is the output of Triangulate.
type Triangulation struct {
	Points    []image.Point // Input points in row-major order
	Triangles []Triangle
}

// Triangulate computes the Delaunay triangulation of points. No point is
// added, removed or moved. The input is sorted row-major first, so the
// result depends only on the point set and not on its order.
func Triangulate(points []image.Point) (*Triangulation, error) {
	sorted := make([]image.Point, len(points))
	copy(sorted, points)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Y != sorted[j].Y {
			return sorted[i].Y < sorted[j].Y
		}
		return sorted[i].X < sorted[j].X
	})
	sorted = dedupe(sorted)

	out := &Triangulation{Points: sorted}
	if len(sorted) < 3 {
		return out, fmt.Errorf("%w: %d points", ErrDegenerate, len(sorted))
	}
	if collinear(sorted) {
		return out, fmt.Errorf("%w: %d collinear points", ErrDegenerate, len(sorted))
	}

	pts := make([]delaunay.Point, len(sorted))
	for i, p := range sorted {
		pts[i] = delaunay.Point{X: float64(p.X), Y: float64(p.Y)}
	}
	tri, err := delaunay.Triangulate(pts)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrDegenerate, err)
	}

	for t := 0; t+2 < len(tri.Triangles); t += 3 {
		var tr Triangle
		for i := 0; i < 3; i++ {
			tr.V[i] = sorted[tri.Triangles[t+i]]
		}
		if tr.Area2() == 0 {
			continue
		}
		out.Triangles = append(out.Triangles, tr)
	}
	if len(out.Triangles) == 0 {
		return out, fmt.Errorf("%w: no non-degenerate triangle", ErrDegenerate)
	}
	markHull(out.Triangles)
	return out, nil
}

type edgeKey struct{ a, b image.Point }

func undirected(a, b image.Point) edgeKey {
	if b.Y < a.Y || (b.Y == a.Y && b.X < a.X) {
		a, b = b, a
	}
	return edgeKey{a, b}
}

// markHull flags the edges used by a single triangle. Counting edges
// instead of reading the library's halfedges keeps the flags right when
// zero-area triangles were dropped.
func markHull(tris []Triangle) {
	uses := make(map[edgeKey]int, len(tris)*3/2+3)
	for _, tr := range tris {
		for i := 0; i < 3; i++ {
			uses[undirected(tr.V[i], tr.V[(i+1)%3])]++
		}
	}
	for t := range tris {
		for i := 0; i < 3; i++ {
			tris[t].Hull[i] = uses[undirected(tris[t].V[i], tris[t].V[(i+1)%3])] == 1
		}
	}
}

// dedupe removes repeated points from a sorted slice.
func dedupe(pts []image.Point) []image.Point {
	if len(pts) < 2 {
		return pts
	}
	out := pts[:1]
	for _, p := range pts[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}

// collinear reports whether every point lies on the line through the first
// two.
func collinear(pts []image.Point) bool {
	a, b := pts[0], pts[1]
	for _, c := range pts[2:] {
		if Orient(a, b, c) != 0 {
			return false
		}
	}
	return true
}
