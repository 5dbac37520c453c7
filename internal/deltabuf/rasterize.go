package deltabuf

import "github.com/Faultbox/sktransfer/pkg/math"

// Sample is one source vertex (or seam corner) projected into UV space.
type Sample struct {
	UV           math.Vec2
	Normal       math.Vec3
	Displacement math.Vec3
}

// RasterStats reports what Rasterize did with its samples.
type RasterStats struct {
	Written int
	Skipped int // Non-finite UV or displacement, or unusable normal in normal-relative mode
}

// Rasterize accumulates every sample into the cell of its UV coordinate.
// With normalRelative set, a displacement is stored as its component along
// the sample normal plus the world-space residual orthogonal to it.
func Rasterize(b *Buffer, samples []Sample, normalRelative bool) RasterStats {
	var stats RasterStats
	for _, s := range samples {
		if !s.UV.IsFinite() || !s.Displacement.IsFinite() {
			stats.Skipped++
			continue
		}
		cell := b.CellFor(s.UV)
		if !normalRelative {
			b.Accumulate(cell, s.Displacement)
			stats.Written++
			continue
		}
		n, ok := math.UnitNormal(s.Normal)
		if !ok {
			stats.Skipped++
			continue
		}
		var value Value
		value.Vec, value.Normal = math.SplitNormal(s.Displacement, n)
		b.AccumulateValue(cell, value)
		stats.Written++
	}
	return stats
}
