package transfer

import (
	"errors"
	"fmt"
)

// Transfer errors. Mesh precondition errors come from the mesh package and
// are returned wrapped in *Error.
var (
	ErrInvalidConfig = errors.New("invalid transfer configuration")
	ErrSameMesh      = errors.New("source and destination are the same mesh")
	ErrNoShapeKeys   = errors.New("no shape keys to transfer")
)

// Error is a fatal failure of one transfer call. It names the objects and
// the shape key involved; the destination mesh is left unmodified.
type Error struct {
	Source      string
	Destination string
	ShapeKey    string
	Err         error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transfer %q from %q to %q: %v", e.ShapeKey, e.Source, e.Destination, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// DiagnosticKind classifies a non-fatal condition.
type DiagnosticKind string

const (
	DegenerateTriangulation DiagnosticKind = "degenerate_triangulation"
	UncoveredVertices       DiagnosticKind = "uncovered_vertices"
	SkippedSamples          DiagnosticKind = "skipped_samples"
	DebugImageFailed        DiagnosticKind = "debug_image_failed"
)

// Diagnostic reports a condition that degraded the result without failing
// the transfer.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Kind, d.Message)
}
