package fill

import (
	"image"
	"math/rand"
	"testing"

	"github.com/Faultbox/sktransfer/internal/deltabuf"
	"github.com/Faultbox/sktransfer/internal/triangulate"
	"github.com/Faultbox/sktransfer/pkg/math"
)

// linear is the field the corner samples are drawn from; barycentric
// interpolation must reproduce it exactly.
func linear(p image.Point) math.Vec3 {
	return math.Vec3{X: 0.5*float64(p.X) - 2, Y: float64(p.Y) * 0.25, Z: float64(p.X+p.Y) + 1}
}

// createTestBuffer samples the linear field at n random cells and returns
// the buffer with its triangulation.
func createTestBuffer(t *testing.T, seed int64, n, size int) (*deltabuf.Buffer, *triangulate.Triangulation) {
	t.Helper()
	b, err := deltabuf.New(size)
	if err != nil {
		t.Fatalf("deltabuf.New failed: %v", err)
	}
	rng := rand.New(rand.NewSource(seed))
	for len(b.Occupied()) < n {
		p := image.Pt(rng.Intn(size), rng.Intn(size))
		if b.At(p).Count == 0 {
			b.Accumulate(p, linear(p))
		}
	}
	tri, err := triangulate.Triangulate(b.Occupied())
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}
	return b, tri
}

// closedContains reports whether p lies in the closed triangle.
func closedContains(tr triangulate.Triangle, p image.Point) bool {
	_, edges, area := oriented(tr)
	if area == 0 {
		return false
	}
	for _, e := range edges {
		if triangulate.Orient(e.from, e.to, p) < 0 {
			return false
		}
	}
	return true
}

func TestFill_Square(t *testing.T) {
	b, _ := deltabuf.New(8)
	corners := []image.Point{{1, 1}, {5, 1}, {5, 5}, {1, 5}}
	for _, p := range corners {
		b.Accumulate(p, linear(p))
	}
	tri, err := triangulate.Triangulate(b.Occupied())
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}

	stats := Fill(b, tri.Triangles)
	if stats.Triangles != 2 || stats.Skipped != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
	if stats.Cells != 21 {
		t.Errorf("expected 21 interpolated cells, got %d", stats.Cells)
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			p := image.Pt(x, y)
			inside := x >= 1 && x <= 5 && y >= 1 && y <= 5
			v, ok := b.Read(p)
			if ok != inside {
				t.Errorf("cell %v: readable = %v, want %v", p, ok, inside)
				continue
			}
			if ok && v.Distance(linear(p)) > 1e-9 {
				t.Errorf("cell %v = %v, want %v", p, v, linear(p))
			}
		}
	}
}

func TestFill_InterpolatesNormalComponent(t *testing.T) {
	b, _ := deltabuf.New(8)
	// Normal component 2x + y at the corners of a right triangle.
	corners := []image.Point{{0, 0}, {6, 0}, {0, 6}}
	for _, p := range corners {
		b.AccumulateValue(p, deltabuf.Value{Vec: linear(p), Normal: float64(2*p.X + p.Y)})
	}
	tri, err := triangulate.Triangulate(b.Occupied())
	if err != nil {
		t.Fatalf("Triangulate failed: %v", err)
	}
	Fill(b, tri.Triangles)

	p := image.Pt(2, 3)
	v, ok := b.ReadValue(p)
	if !ok {
		t.Fatalf("cell %v was not filled", p)
	}
	if got := v.Normal; got < 7-1e-9 || got > 7+1e-9 {
		t.Errorf("normal component at %v = %v, want 7", p, got)
	}
	if v.Vec.Distance(linear(p)) > 1e-9 {
		t.Errorf("vector at %v = %v, want %v", p, v.Vec, linear(p))
	}
}

func TestFill_NeverOverwritesSamples(t *testing.T) {
	b, tri := createTestBuffer(t, 3, 60, 40)

	before := make(map[image.Point]deltabuf.Cell)
	for _, p := range b.Occupied() {
		before[p] = b.At(p)
	}

	Fill(b, tri.Triangles)

	for p, c := range before {
		if got := b.At(p); got != c {
			t.Errorf("sampled cell %v changed from %+v to %+v", p, c, got)
		}
	}
}

func TestFill_ReproducesLinearField(t *testing.T) {
	b, tri := createTestBuffer(t, 8, 40, 32)
	stats := Fill(b, tri.Triangles)
	if stats.Cells == 0 {
		t.Fatal("expected interpolated cells")
	}

	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			p := image.Pt(x, y)
			if b.Provenance(p) != deltabuf.Interpolated {
				continue
			}
			v, _ := b.Read(p)
			if v.Distance(linear(p)) > 1e-9 {
				t.Errorf("cell %v = %v, want %v", p, v, linear(p))
			}
		}
	}
}

func TestFill_PartitionsTriangulation(t *testing.T) {
	for _, seed := range []int64{1, 17, 23} {
		b, tri := createTestBuffer(t, seed, 50, 36)

		vertices := make(map[image.Point]bool)
		for _, p := range tri.Points {
			vertices[p] = true
		}

		for y := 0; y < b.Size(); y++ {
			for x := 0; x < b.Size(); x++ {
				p := image.Pt(x, y)
				if vertices[p] {
					continue
				}
				inUnion := false
				covered := 0
				for _, tr := range tri.Triangles {
					if closedContains(tr, p) {
						inUnion = true
					}
					if covers(tr, p) {
						covered++
					}
				}
				switch {
				case inUnion && covered != 1:
					t.Errorf("seed %d: cell %v covered %d times", seed, p, covered)
				case !inUnion && covered != 0:
					t.Errorf("seed %d: cell %v outside every triangle is covered", seed, p)
				}
			}
		}

		// Every covered cell ends up filled after Fill.
		Fill(b, tri.Triangles)
		for y := 0; y < b.Size(); y++ {
			for x := 0; x < b.Size(); x++ {
				p := image.Pt(x, y)
				for _, tr := range tri.Triangles {
					if covers(tr, p) && b.Provenance(p) == deltabuf.Empty {
						t.Errorf("seed %d: covered cell %v left empty", seed, p)
					}
				}
			}
		}
	}
}

func TestFill_SharedEdgeTieBreak(t *testing.T) {
	// Two triangles sharing the vertical edge (4,0)-(4,8).
	left := triangulate.Triangle{V: [3]image.Point{{0, 4}, {4, 0}, {4, 8}}, Hull: [3]bool{true, false, true}}
	right := triangulate.Triangle{V: [3]image.Point{{4, 0}, {8, 4}, {4, 8}}, Hull: [3]bool{true, true, false}}

	for y := 1; y < 8; y++ {
		p := image.Pt(4, y)
		l, r := covers(left, p), covers(right, p)
		if l == r {
			t.Errorf("cell %v on the shared edge: left %v, right %v; want exactly one", p, l, r)
		}
	}
}

func TestFill_HullEdgesInclusive(t *testing.T) {
	// A lone triangle keeps every cell on its boundary.
	tr := triangulate.Triangle{V: [3]image.Point{{0, 0}, {6, 0}, {0, 6}}, Hull: [3]bool{true, true, true}}
	for i := 1; i < 6; i++ {
		for _, p := range []image.Point{{i, 0}, {0, i}, {i, 6 - i}} {
			if !covers(tr, p) {
				t.Errorf("hull boundary cell %v not covered", p)
			}
		}
	}
}

func TestFill_SkipsUnreadableCorner(t *testing.T) {
	b, _ := deltabuf.New(8)
	b.Accumulate(image.Pt(0, 0), math.Vec3{X: 1})
	b.Accumulate(image.Pt(6, 0), math.Vec3{X: 1})
	tr := triangulate.Triangle{V: [3]image.Point{{0, 0}, {6, 0}, {0, 6}}, Hull: [3]bool{true, true, true}}

	stats := Fill(b, []triangulate.Triangle{tr})
	if stats.Skipped != 1 || stats.Cells != 0 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestFill_Degenerate(t *testing.T) {
	b, _ := deltabuf.New(8)
	tr := triangulate.Triangle{V: [3]image.Point{{0, 0}, {2, 2}, {4, 4}}}
	if stats := Fill(b, []triangulate.Triangle{tr}); stats.Skipped != 1 {
		t.Errorf("expected degenerate triangle to be skipped, got %+v", stats)
	}
}
