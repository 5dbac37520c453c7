// Wavefront OBJ parser for base meshes and shape targets.

package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrMalformedOBJ    = errors.New("malformed OBJ data")
	ErrInvalidOBJIndex = errors.New("invalid OBJ index")
)

// OBJCorner references the attributes of one face corner.
// Indices are zero-based; -1 means the attribute is absent.
type OBJCorner struct {
	V  int // Position index
	VT int // Texture coordinate index
	VN int // Normal index
}

// OBJFace is a polygon with three or more corners.
type OBJFace struct {
	Corners []OBJCorner
}

// OBJ represents a parsed Wavefront OBJ file.
// Only geometry statements are kept; materials and groups are ignored.
type OBJ struct {
	Name      string       // First object name ("o" statement)
	Positions [][3]float64 // "v" statements
	TexCoords [][2]float64 // "vt" statements
	Normals   [][3]float64 // "vn" statements
	Faces     []OBJFace    // "f" statements
}

// ParseOBJ parses an OBJ file from a reader.
func ParseOBJ(r io.Reader) (*OBJ, error) {
	obj := &OBJ{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		var err error
		switch fields[0] {
		case "o":
			if obj.Name == "" && len(fields) > 1 {
				obj.Name = strings.Join(fields[1:], " ")
			}
		case "v":
			var p [3]float64
			err = parseFloats(fields[1:], p[:])
			obj.Positions = append(obj.Positions, p)
		case "vt":
			var uv [2]float64
			err = parseFloats(fields[1:], uv[:])
			obj.TexCoords = append(obj.TexCoords, uv)
		case "vn":
			var n [3]float64
			err = parseFloats(fields[1:], n[:])
			obj.Normals = append(obj.Normals, n)
		case "f":
			var face OBJFace
			face, err = obj.parseFace(fields[1:])
			obj.Faces = append(obj.Faces, face)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	return obj, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*OBJ, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening OBJ file: %w", err)
	}
	defer f.Close()
	return ParseOBJ(f)
}

// parseFloats fills dst from the leading fields. Extra fields (such as the
// optional w of "v" and "vt") are ignored.
func parseFloats(fields []string, dst []float64) error {
	if len(fields) < len(dst) {
		return fmt.Errorf("%w: expected %d components, got %d", ErrMalformedOBJ, len(dst), len(fields))
	}
	for i := range dst {
		f, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedOBJ, err)
		}
		dst[i] = f
	}
	return nil
}

// parseFace parses the corners of an "f" statement (v, v/vt, v//vn, v/vt/vn).
func (o *OBJ) parseFace(fields []string) (OBJFace, error) {
	if len(fields) < 3 {
		return OBJFace{}, fmt.Errorf("%w: face with %d corners", ErrMalformedOBJ, len(fields))
	}
	face := OBJFace{Corners: make([]OBJCorner, len(fields))}
	for i, field := range fields {
		parts := strings.Split(field, "/")
		if len(parts) > 3 {
			return OBJFace{}, fmt.Errorf("%w: face corner %q", ErrMalformedOBJ, field)
		}
		c := OBJCorner{V: -1, VT: -1, VN: -1}
		var err error
		if c.V, err = resolveIndex(parts[0], len(o.Positions)); err != nil {
			return OBJFace{}, err
		}
		if c.V < 0 {
			return OBJFace{}, fmt.Errorf("%w: face corner %q has no position", ErrMalformedOBJ, field)
		}
		if len(parts) > 1 {
			if c.VT, err = resolveIndex(parts[1], len(o.TexCoords)); err != nil {
				return OBJFace{}, err
			}
		}
		if len(parts) > 2 {
			if c.VN, err = resolveIndex(parts[2], len(o.Normals)); err != nil {
				return OBJFace{}, err
			}
		}
		face.Corners[i] = c
	}
	return face, nil
}

// resolveIndex converts a one-based (or negative, relative) OBJ index into a
// zero-based index. An empty field resolves to -1.
func resolveIndex(field string, count int) (int, error) {
	if field == "" {
		return -1, nil
	}
	idx, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidOBJIndex, field)
	}
	switch {
	case idx > 0 && idx <= count:
		return idx - 1, nil
	case idx < 0 && -idx <= count:
		return count + idx, nil
	default:
		return 0, fmt.Errorf("%w: %d (have %d)", ErrInvalidOBJIndex, idx, count)
	}
}

// WithPositions returns a shallow copy of the OBJ whose positions are
// replaced. positions must have the same length as o.Positions.
func (o *OBJ) WithPositions(positions [][3]float64) (*OBJ, error) {
	if len(positions) != len(o.Positions) {
		return nil, fmt.Errorf("position count mismatch: expected %d, got %d", len(o.Positions), len(positions))
	}
	out := *o
	out.Positions = positions
	return &out, nil
}

// WriteOBJ writes the OBJ in a form ParseOBJ reads back.
func WriteOBJ(w io.Writer, o *OBJ) error {
	bw := bufio.NewWriter(w)

	if o.Name != "" {
		fmt.Fprintf(bw, "o %s\n", o.Name)
	}
	for _, p := range o.Positions {
		fmt.Fprintf(bw, "v %s %s %s\n", formatFloat(p[0]), formatFloat(p[1]), formatFloat(p[2]))
	}
	for _, uv := range o.TexCoords {
		fmt.Fprintf(bw, "vt %s %s\n", formatFloat(uv[0]), formatFloat(uv[1]))
	}
	for _, n := range o.Normals {
		fmt.Fprintf(bw, "vn %s %s %s\n", formatFloat(n[0]), formatFloat(n[1]), formatFloat(n[2]))
	}
	for _, face := range o.Faces {
		bw.WriteString("f")
		for _, c := range face.Corners {
			bw.WriteString(" " + strconv.Itoa(c.V+1))
			switch {
			case c.VT >= 0 && c.VN >= 0:
				fmt.Fprintf(bw, "/%d/%d", c.VT+1, c.VN+1)
			case c.VT >= 0:
				fmt.Fprintf(bw, "/%d", c.VT+1)
			case c.VN >= 0:
				fmt.Fprintf(bw, "//%d", c.VN+1)
			}
		}
		bw.WriteString("\n")
	}

	return bw.Flush()
}

// WriteOBJFile writes the OBJ to disk.
func WriteOBJFile(path string, o *OBJ) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating OBJ file: %w", err)
	}
	if err := WriteOBJ(f, o); err != nil {
		f.Close()
		return fmt.Errorf("writing OBJ file: %w", err)
	}
	return f.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
