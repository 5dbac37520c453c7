// Package transfer moves shape keys between meshes with different
// topology through UV space.
//
// The source shape key is rasterized into a delta buffer indexed by UV,
// the gaps between samples are filled by interpolating over a Delaunay
// triangulation of the occupied cells, and every destination vertex reads
// its displacement back from the buffer at its own UV.
package transfer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/sktransfer/internal/logger"
	"github.com/Faultbox/sktransfer/internal/mesh"
)

// Request names what to transfer. An empty ShapeKey selects the source's
// active shape key.
type Request struct {
	Source        *mesh.Mesh
	SourceUV      int
	ShapeKey      string
	Destination   *mesh.Mesh
	DestinationUV int
}

// Result is a transferred shape key, not yet attached to the destination.
type Result struct {
	ShapeKey    mesh.ShapeKey
	Stats       Stats
	Diagnostics []Diagnostic
	DebugImages []string
}

// Transfer computes the shape key req describes for the destination mesh.
// Neither mesh is modified. Precondition failures are returned as *Error.
func Transfer(req Request, opts Options) (*Result, error) {
	keyName := req.keyName()
	if err := req.validate(keyName, opts); err != nil {
		return nil, req.wrap(keyName, err)
	}

	buf, err := BuildBuffer(req.Source, req.SourceUV, keyName, opts)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Destination = req.Destination.Name
		}
		return nil, err
	}

	srcKey, _, _ := req.Source.ShapeKey(keyName)
	dstLayer, _ := req.Destination.UVLayer(req.DestinationUV)
	displacements, uncovered := SampleDestination(buf.Buffer, req.Destination, dstLayer, opts.NormalRelative)

	res := &Result{
		ShapeKey: mesh.ShapeKey{
			Name:          srcKey.Name,
			SliderMin:     srcKey.SliderMin,
			SliderMax:     srcKey.SliderMax,
			Displacements: displacements,
		},
		Stats:       buf.Stats,
		Diagnostics: buf.Diagnostics,
		DebugImages: buf.DebugImages,
	}
	res.Stats.Uncovered = uncovered

	log := logger.Named("transfer")
	if uncovered > 0 {
		d := Diagnostic{
			Kind: UncoveredVertices,
			Message: fmt.Sprintf("%d of %d vertices of %q found no value and keep a zero displacement",
				uncovered, req.Destination.VertexCount(), req.Destination.Name),
		}
		res.Diagnostics = append(res.Diagnostics, d)
		log.Warn(d.Message, zap.String("kind", string(d.Kind)))
	}
	log.Info("shape key transferred",
		zap.String("source", req.Source.Name),
		zap.String("destination", req.Destination.Name),
		zap.String("shape_key", srcKey.Name),
		zap.Int("triangles", res.Stats.Triangles),
		zap.Int("uncovered", uncovered),
	)
	return res, nil
}

// Apply runs Transfer and attaches the new shape key to the destination.
// On any error the destination is left unmodified.
func Apply(req Request, opts Options) (*Result, error) {
	keyName := req.keyName()
	if err := req.validate(keyName, opts); err != nil {
		return nil, req.wrap(keyName, err)
	}
	if err := checkCommit(req.Destination, []string{keyName}, opts.Replace); err != nil {
		return nil, req.wrap(keyName, err)
	}
	res, err := Transfer(req, opts)
	if err != nil {
		return nil, err
	}
	if err := req.Destination.AddShapeKey(res.ShapeKey, opts.Replace); err != nil {
		return nil, req.wrap(res.ShapeKey.Name, err)
	}
	return res, nil
}

func (r Request) keyName() string {
	if r.ShapeKey != "" || r.Source == nil {
		return r.ShapeKey
	}
	return r.Source.ActiveShapeKeyName()
}

func (r Request) wrap(keyName string, err error) *Error {
	e := &Error{ShapeKey: keyName, Err: err}
	if r.Source != nil {
		e.Source = r.Source.Name
	}
	if r.Destination != nil {
		e.Destination = r.Destination.Name
	}
	return e
}

// validate checks everything that does not depend on the buffer. Source
// preconditions are checked again by BuildBuffer, which can run alone.
func (r Request) validate(keyName string, opts Options) error {
	if opts.BufferSize < 2 {
		return fmt.Errorf("%w: buffer size %d (minimum 2)", ErrInvalidConfig, opts.BufferSize)
	}
	if r.Source == nil || r.Destination == nil {
		return fmt.Errorf("%w: source and destination meshes are required", ErrInvalidConfig)
	}
	if r.Source == r.Destination {
		return fmt.Errorf("%w: %q", ErrSameMesh, r.Source.Name)
	}
	if _, _, _, err := sourceInputs(r.Source, r.SourceUV, keyName, opts.NormalRelative); err != nil {
		return err
	}
	if err := r.Destination.Validate(); err != nil {
		return err
	}
	if _, err := r.Destination.UVLayer(r.DestinationUV); err != nil {
		return err
	}
	if opts.NormalRelative && !r.Destination.HasNormals() {
		return fmt.Errorf("%w: mesh %q", mesh.ErrMissingNormals, r.Destination.Name)
	}
	return nil
}

// checkCommit fails when attaching keys to dst would clash with a key it
// already has, or when keys repeats a name.
func checkCommit(dst *mesh.Mesh, keys []string, replace bool) error {
	seen := make(map[string]bool, len(keys))
	for _, name := range keys {
		if seen[name] {
			return fmt.Errorf("%w: %q requested twice", mesh.ErrDuplicateShapeKey, name)
		}
		seen[name] = true
		if replace {
			continue
		}
		if _, _, err := dst.ShapeKey(name); err == nil {
			return fmt.Errorf("%w: %q on mesh %q", mesh.ErrDuplicateShapeKey, name, dst.Name)
		}
	}
	return nil
}
