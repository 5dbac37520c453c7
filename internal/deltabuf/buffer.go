// Package deltabuf implements the delta buffer: a square grid indexed by
// quantized UV coordinates that accumulates displacement samples and holds
// the values interpolated between them.
package deltabuf

import (
	"errors"
	"fmt"
	"image"
	gomath "math"

	"github.com/Faultbox/sktransfer/pkg/math"
)

// ErrInvalidSize is returned for grids smaller than 2x2.
var ErrInvalidSize = errors.New("invalid delta buffer size")

// MinSize is the smallest supported grid side.
const MinSize = 2

// Provenance tells where the value of a cell comes from.
type Provenance uint8

const (
	Empty        Provenance = iota // No sample and no interpolated value
	Sampled                        // At least one source sample
	Interpolated                   // Written by the triangle fill
)

// String returns a human-readable provenance name.
func (p Provenance) String() string {
	switch p {
	case Empty:
		return "Empty"
	case Sampled:
		return "Sampled"
	case Interpolated:
		return "Interpolated"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// Value is what a cell stores. Vec is a world-space displacement, or in
// normal-relative mode the part of it orthogonal to the source normal;
// Normal is then the component along that normal.
type Value struct {
	Vec    math.Vec3
	Normal float64
}

// Add returns v + o.
func (v Value) Add(o Value) Value {
	return Value{Vec: v.Vec.Add(o.Vec), Normal: v.Normal + o.Normal}
}

// Scale returns v * s.
func (v Value) Scale(s float64) Value {
	return Value{Vec: v.Vec.Scale(s), Normal: v.Normal * s}
}

// Cell is one grid cell.
// Filled == (Count > 0) until the fill stage runs; afterwards a cell may be
// Filled with Count == 0, in which case Sum holds the interpolated value.
type Cell struct {
	Sum    Value
	Count  uint32
	Filled bool
}

// Buffer is a size x size grid of cells stored in row-major order.
// Row 0 corresponds to v = 1.
type Buffer struct {
	size  int
	cells []Cell
}

// New allocates an empty buffer. Sizes below MinSize are rejected before
// any allocation.
func New(size int) (*Buffer, error) {
	if size < MinSize {
		return nil, fmt.Errorf("%w: %d (minimum %d)", ErrInvalidSize, size, MinSize)
	}
	return &Buffer{
		size:  size,
		cells: make([]Cell, size*size),
	}, nil
}

// Size returns the grid side length.
func (b *Buffer) Size() int {
	return b.size
}

// Bounds returns the grid rectangle.
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.size, b.size)
}

// CellFor maps a UV coordinate to its cell:
// (floor(u*(size-1)), floor((1-v)*(size-1))).
// Coordinates are clamped into the grid so rounding noise at the unit
// square border never escapes it.
func (b *Buffer) CellFor(uv math.Vec2) image.Point {
	last := float64(b.size - 1)
	return image.Point{
		X: clampIndex(gomath.Floor(uv.X*last), b.size),
		Y: clampIndex(gomath.Floor((1-uv.Y)*last), b.size),
	}
}

func clampIndex(f float64, size int) int {
	if !(f > 0) { // also catches NaN
		return 0
	}
	if f >= float64(size-1) {
		return size - 1
	}
	return int(f)
}

// In reports whether p lies inside the grid.
func (b *Buffer) In(p image.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < b.size && p.Y < b.size
}

func (b *Buffer) index(p image.Point) int {
	return p.Y*b.size + p.X
}

// At returns a copy of the cell at p. Out-of-range points return an empty
// cell.
func (b *Buffer) At(p image.Point) Cell {
	if !b.In(p) {
		return Cell{}
	}
	return b.cells[b.index(p)]
}

// Accumulate adds a world-space displacement to the cell at p and
// increments its sample count. Repeated samples are averaged by Read.
func (b *Buffer) Accumulate(p image.Point, value math.Vec3) {
	b.AccumulateValue(p, Value{Vec: value})
}

// AccumulateValue is Accumulate for a full cell value.
func (b *Buffer) AccumulateValue(p image.Point, value Value) {
	if !b.In(p) {
		return
	}
	c := &b.cells[b.index(p)]
	c.Sum = c.Sum.Add(value)
	c.Count++
	c.Filled = true
}

// Read returns the vector part of the cell at p. See ReadValue.
func (b *Buffer) Read(p image.Point) (math.Vec3, bool) {
	v, ok := b.ReadValue(p)
	return v.Vec, ok
}

// ReadValue returns the value of the cell at p: the mean of its samples,
// the interpolated value for filled cells without samples, or false for
// empty cells.
func (b *Buffer) ReadValue(p image.Point) (Value, bool) {
	if !b.In(p) {
		return Value{}, false
	}
	c := &b.cells[b.index(p)]
	switch {
	case c.Count > 0:
		return c.Sum.Scale(1 / float64(c.Count)), true
	case c.Filled:
		return c.Sum, true
	default:
		return Value{}, false
	}
}

// ReadUV is ReadValue at the cell of uv.
func (b *Buffer) ReadUV(uv math.Vec2) (Value, bool) {
	return b.ReadValue(b.CellFor(uv))
}

// SetInterpolated stores an interpolated value in an unfilled cell.
// It returns false, leaving the cell untouched, when the cell already holds
// a sample or an earlier interpolated value.
func (b *Buffer) SetInterpolated(p image.Point, value Value) bool {
	if !b.In(p) {
		return false
	}
	c := &b.cells[b.index(p)]
	if c.Filled {
		return false
	}
	c.Sum = value
	c.Count = 0
	c.Filled = true
	return true
}

// Provenance returns where the value of the cell at p comes from.
func (b *Buffer) Provenance(p image.Point) Provenance {
	c := b.At(p)
	switch {
	case c.Count > 0:
		return Sampled
	case c.Filled:
		return Interpolated
	default:
		return Empty
	}
}

// Occupied lists the cells holding at least one sample, in row-major order.
func (b *Buffer) Occupied() []image.Point {
	var pts []image.Point
	for i, c := range b.cells {
		if c.Count > 0 {
			pts = append(pts, image.Point{X: i % b.size, Y: i / b.size})
		}
	}
	return pts
}

// Stats summarizes the buffer contents.
type Stats struct {
	Sampled      int
	Interpolated int
	Empty        int
	MaxCount     uint32
	// CountHistogram maps a sample count to the number of cells holding
	// exactly that many samples. Empty and interpolated cells are under 0.
	CountHistogram map[uint32]int
}

// Stats computes the buffer statistics.
func (b *Buffer) Stats() Stats {
	s := Stats{CountHistogram: make(map[uint32]int)}
	for _, c := range b.cells {
		s.CountHistogram[c.Count]++
		switch {
		case c.Count > 0:
			s.Sampled++
			if c.Count > s.MaxCount {
				s.MaxCount = c.Count
			}
		case c.Filled:
			s.Interpolated++
		default:
			s.Empty++
		}
	}
	return s
}
