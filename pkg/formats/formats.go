// Package formats provides readers and writers for the mesh files consumed
// by the shape key transfer tools.
package formats

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat is returned for file names whose extension matches no
// supported mesh format.
var ErrUnknownFormat = errors.New("unknown mesh format")

// Kind identifies a mesh file format.
type Kind int

const (
	KindOBJ      Kind = iota + 1 // Wavefront OBJ (.obj)
	KindSnapshot                 // YAML mesh snapshot (.yaml, .yml)
)

func (k Kind) String() string {
	switch k {
	case KindOBJ:
		return "OBJ"
	case KindSnapshot:
		return "snapshot"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DetectKind picks the format of path from its extension.
func DetectKind(path string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		return KindOBJ, nil
	case ".yaml", ".yml":
		return KindSnapshot, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}
