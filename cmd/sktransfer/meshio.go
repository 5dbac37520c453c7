package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Faultbox/sktransfer/internal/mesh"
	"github.com/Faultbox/sktransfer/pkg/formats"
)

// loadMesh reads a mesh from an OBJ or a YAML snapshot and adds one shape
// key per shape target OBJ, named after the target file.
func loadMesh(path string, shapes []string) (*mesh.Mesh, error) {
	kind, err := formats.DetectKind(path)
	if err != nil {
		return nil, err
	}

	var m *mesh.Mesh
	switch kind {
	case formats.KindOBJ:
		obj, err := formats.ParseOBJFile(path)
		if err != nil {
			return nil, err
		}
		name := obj.Name
		if name == "" {
			name = mesh.KeyNameFromPath(path)
		}
		if m, err = mesh.FromOBJ(obj, name); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case formats.KindSnapshot:
		snap, err := formats.ParseSnapshotFile(path)
		if err != nil {
			return nil, err
		}
		if m, err = mesh.FromSnapshot(snap); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	for _, shape := range shapes {
		target, err := formats.ParseOBJFile(shape)
		if err != nil {
			return nil, err
		}
		if err := mesh.AddOBJShapeKey(m, target, mesh.KeyNameFromPath(shape)); err != nil {
			return nil, fmt.Errorf("%s: %w", shape, err)
		}
	}
	return m, nil
}

// samePath reports whether a and b name the same file, either by their
// cleaned absolute paths or, for existing files, by identity on disk.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && absA == absB {
		return true
	}
	infoA, errA := os.Stat(a)
	infoB, errB := os.Stat(b)
	return errA == nil && errB == nil && os.SameFile(infoA, infoB)
}

// writeMesh saves m to path. A snapshot keeps every shape key; an OBJ
// holds the mesh deformed by the named key.
func writeMesh(path string, m *mesh.Mesh, keyName string) error {
	kind, err := formats.DetectKind(path)
	if err != nil {
		return err
	}

	switch kind {
	case formats.KindSnapshot:
		return formats.WriteSnapshotFile(path, m.Snapshot())
	default:
		key, _, err := m.ShapeKey(keyName)
		if err != nil {
			return err
		}
		return formats.WriteOBJFile(path, m.OBJ(m.Deformed(key)))
	}
}
