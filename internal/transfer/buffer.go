package transfer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/sktransfer/internal/debug"
	"github.com/Faultbox/sktransfer/internal/deltabuf"
	"github.com/Faultbox/sktransfer/internal/fill"
	"github.com/Faultbox/sktransfer/internal/logger"
	"github.com/Faultbox/sktransfer/internal/mesh"
	"github.com/Faultbox/sktransfer/internal/triangulate"
)

// Stats summarizes one pipeline run.
type Stats struct {
	Samples           int            // Samples rasterized (vertices plus seam UVs)
	Skipped           int            // Samples dropped for non-finite data
	OccupiedCells     int            // Cells holding at least one sample
	MaxCount          uint32         // Largest sample count of a single cell
	CountHistogram    map[uint32]int // Cells per sample count, before the fill
	Triangles         int            // Triangles rasterized by the fill
	InterpolatedCells int
	EmptyCells        int // Cells left without a value after the fill
	Uncovered         int // Destination vertices that read no value
}

// Buffer is a filled delta buffer with what happened while building it.
type Buffer struct {
	*deltabuf.Buffer
	Stats       Stats
	Diagnostics []Diagnostic
	DebugImages []string
}

// BuildBuffer runs the source half of the pipeline: it rasterizes the
// shape key through the given UV layer, triangulates the occupied cells and
// fills the triangles. The source mesh is not modified.
func BuildBuffer(src *mesh.Mesh, uvLayer int, keyName string, opts Options) (*Buffer, error) {
	if opts.BufferSize < deltabuf.MinSize {
		return nil, &Error{Source: src.Name, ShapeKey: keyName,
			Err: fmt.Errorf("%w: buffer size %d (minimum %d)", ErrInvalidConfig, opts.BufferSize, deltabuf.MinSize)}
	}
	layer, key, keyIndex, err := sourceInputs(src, uvLayer, keyName, opts.NormalRelative)
	if err != nil {
		return nil, &Error{Source: src.Name, ShapeKey: keyName, Err: err}
	}

	buf, err := deltabuf.New(opts.BufferSize)
	if err != nil {
		return nil, &Error{Source: src.Name, ShapeKey: keyName, Err: fmt.Errorf("%w: %w", ErrInvalidConfig, err)}
	}

	log := logger.Named("transfer").With(
		zap.String("object", src.Name),
		zap.String("shape_key", key.Name),
		zap.Int("uv_layer", uvLayer),
	)
	out := &Buffer{Buffer: buf}
	id := debug.ImageID{Object: src.Name, ShapeKey: keyIndex, UVLayer: uvLayer, Size: opts.BufferSize}

	samples := sourceSamples(src, layer, key)
	raster := deltabuf.Rasterize(buf, samples, opts.NormalRelative)
	out.Stats.Samples = raster.Written
	out.Stats.Skipped = raster.Skipped
	if raster.Skipped > 0 {
		out.diagnose(log, SkippedSamples, "%d of %d source samples skipped (non-finite data)", raster.Skipped, len(samples))
	}

	before := buf.Stats()
	out.Stats.OccupiedCells = before.Sampled
	out.Stats.MaxCount = before.MaxCount
	out.Stats.CountHistogram = before.CountHistogram
	log.Debug("rasterized", zap.Int("samples", raster.Written), zap.Int("cells", before.Sampled),
		zap.Uint32("max_count", before.MaxCount))

	out.saveDebug(log, opts.Debug, id, debug.StageCounts)
	out.saveDebug(log, opts.Debug, id, debug.StageDeltas)

	tri, err := triangulate.Triangulate(buf.Occupied())
	switch {
	case errors.Is(err, triangulate.ErrDegenerate):
		out.diagnose(log, DegenerateTriangulation, "no interpolation possible, only sampled cells are used: %v", err)
	case err != nil:
		return nil, &Error{Source: src.Name, ShapeKey: key.Name, Err: err}
	}

	filled := fill.Fill(buf, tri.Triangles)
	out.Stats.Triangles = filled.Triangles
	log.Debug("filled", zap.Int("triangles", filled.Triangles), zap.Int("skipped", filled.Skipped),
		zap.Int("cells", filled.Cells))

	after := buf.Stats()
	out.Stats.InterpolatedCells = after.Interpolated
	out.Stats.EmptyCells = after.Empty

	out.saveDebug(log, opts.Debug, id, debug.StageFilled)
	out.saveDebug(log, opts.Debug, id, debug.StageProvenance)

	return out, nil
}

// sourceInputs checks the source preconditions and resolves the UV layer
// and shape key.
func sourceInputs(src *mesh.Mesh, uvLayer int, keyName string, normalRelative bool) (*mesh.UVLayer, *mesh.ShapeKey, int, error) {
	if err := src.Validate(); err != nil {
		return nil, nil, -1, err
	}
	layer, err := src.UVLayer(uvLayer)
	if err != nil {
		return nil, nil, -1, err
	}
	key, keyIndex, err := src.ShapeKey(keyName)
	if err != nil {
		return nil, nil, -1, err
	}
	if normalRelative && !src.HasNormals() {
		return nil, nil, -1, fmt.Errorf("%w: mesh %q", mesh.ErrMissingNormals, src.Name)
	}
	return layer, key, keyIndex, nil
}

// sourceSamples emits one sample per vertex and one per seam UV.
func sourceSamples(src *mesh.Mesh, layer *mesh.UVLayer, key *mesh.ShapeKey) []deltabuf.Sample {
	samples := make([]deltabuf.Sample, 0, len(layer.UVs)+len(layer.Seams))
	sample := func(vi int, s deltabuf.Sample) deltabuf.Sample {
		s.Displacement = key.Displacements[vi]
		if src.HasNormals() {
			s.Normal = src.Normals[vi]
		}
		return s
	}
	for vi, uv := range layer.UVs {
		samples = append(samples, sample(vi, deltabuf.Sample{UV: uv}))
	}
	for _, seam := range layer.Seams {
		samples = append(samples, sample(seam.Vertex, deltabuf.Sample{UV: seam.UV}))
	}
	return samples
}

func (b *Buffer) diagnose(log *zap.Logger, kind DiagnosticKind, format string, args ...any) {
	d := Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)}
	b.Diagnostics = append(b.Diagnostics, d)
	log.Warn(d.Message, zap.String("kind", string(kind)))
}

func (b *Buffer) saveDebug(log *zap.Logger, sink DebugSink, id debug.ImageID, stage debug.Stage) {
	if sink == nil {
		return
	}
	path, err := sink.Write(id, stage, b.Buffer)
	if err != nil {
		b.diagnose(log, DebugImageFailed, "%s image: %v", stage, err)
		return
	}
	b.DebugImages = append(b.DebugImages, path)
	log.Debug("debug image saved", zap.String("path", path))
}
