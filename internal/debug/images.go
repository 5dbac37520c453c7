// Package debug renders the delta buffer as raster images for visual
// inspection of a transfer.
package debug

import (
	"fmt"
	"image"
	"image/color"
	gomath "math"

	"github.com/Faultbox/sktransfer/internal/deltabuf"
)

// Stage names the pipeline point a debug image is taken at.
type Stage string

const (
	StageCounts     Stage = "counts"     // Samples per cell, before the fill
	StageDeltas     Stage = "deltas"     // Sampled displacements, before the fill
	StageFilled     Stage = "filled"     // Sampled and interpolated displacements
	StageProvenance Stage = "provenance" // Sampled, interpolated or empty per cell
)

// ImageID identifies the transfer a set of debug images belongs to.
type ImageID struct {
	Object   string
	ShapeKey int
	UVLayer  int
	Size     int
}

// Filename returns "{object}-sk{key}-uv{layer}-{size}x{size}-{stage}.png".
func (id ImageID) Filename(stage Stage) string {
	return fmt.Sprintf("%s-sk%d-uv%d-%dx%d-%s.png", id.Object, id.ShapeKey, id.UVLayer, id.Size, id.Size, stage)
}

// CountsImage maps per-cell sample counts to gray levels, normalized so the
// smallest count is black and the largest white.
func CountsImage(b *deltabuf.Buffer) *image.Gray {
	size := b.Size()
	img := image.NewGray(b.Bounds())

	minCount, maxCount := ^uint32(0), uint32(0)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := b.At(image.Pt(x, y)).Count
			minCount = min(minCount, c)
			maxCount = max(maxCount, c)
		}
	}
	if maxCount == minCount {
		return img
	}
	span := float64(maxCount - minCount)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := b.At(image.Pt(x, y)).Count
			img.SetGray(x, y, color.Gray{Y: uint8(255 * float64(c-minCount) / span)})
		}
	}
	return img
}

// DeltasImage maps the displacement of every cell to RGB (X, Y, Z).
// Components are normalized with one global minimum and maximum over all
// three channels; cells without a value count as zero.
func DeltasImage(b *deltabuf.Buffer) *image.RGBA {
	size := b.Size()
	img := image.NewRGBA(b.Bounds())

	values := make([][3]float64, size*size)
	lo, hi := gomath.Inf(1), gomath.Inf(-1)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v, _ := b.Read(image.Pt(x, y))
			arr := v.Array()
			values[y*size+x] = arr
			for _, f := range arr {
				lo = gomath.Min(lo, f)
				hi = gomath.Max(hi, f)
			}
		}
	}

	span := hi - lo
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			var rgb [3]uint8
			if span > 0 {
				for i, f := range values[y*size+x] {
					rgb[i] = uint8(255 * (f - lo) / span)
				}
			}
			img.SetRGBA(x, y, color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255})
		}
	}
	return img
}

// ProvenanceImage paints sampled cells white, interpolated cells gray and
// empty cells black.
func ProvenanceImage(b *deltabuf.Buffer) *image.Gray {
	img := image.NewGray(b.Bounds())
	for y := 0; y < b.Size(); y++ {
		for x := 0; x < b.Size(); x++ {
			var level uint8
			switch b.Provenance(image.Pt(x, y)) {
			case deltabuf.Sampled:
				level = 255
			case deltabuf.Interpolated:
				level = 128
			}
			img.SetGray(x, y, color.Gray{Y: level})
		}
	}
	return img
}

// Render returns the image for stage.
func Render(b *deltabuf.Buffer, stage Stage) (image.Image, error) {
	switch stage {
	case StageCounts:
		return CountsImage(b), nil
	case StageDeltas, StageFilled:
		return DeltasImage(b), nil
	case StageProvenance:
		return ProvenanceImage(b), nil
	default:
		return nil, fmt.Errorf("unknown debug stage %q", stage)
	}
}
