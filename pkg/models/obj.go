package models

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/taigrr/flipbook/pkg/math3d"
)

// LoadOBJ reads a Wavefront OBJ file into a finished, locked mesh named after
// the file. See ParseOBJ for the meaning of flipped.
func LoadOBJ(path string, flipped bool) (*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj: %w", err)
	}
	defer f.Close()

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParseOBJ(f, name, flipped)
}

// ParseOBJ reads OBJ text from r. Only vertex ("v x y z") and face
// ("f i1 i2 ... ik") records are used. Face indices are 1-based, may be
// negative (relative to the last vertex read) and may carry /vt/vn suffixes,
// which are ignored. Polygons are split into a fan of triangles.
//
// An unflipped model stands on the XY plane with its axis along Z. A flipped
// model has its axis along the file's Y, as most modelling tools and glTF
// export it; coordinates are read as (z, x, y).
//
// The result is recentered, seated and locked.
func ParseOBJ(r io.Reader, name string, flipped bool) (*Mesh, error) {
	m := NewMesh(name)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			p, err := parseVertex(fields[1:], flipped)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", name, lineNo, err)
			}
			m.AddVertex(p)
		case "f":
			vs, err := parseFace(fields[1:], m.VertexCount())
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", name, lineNo, err)
			}
			if err := m.AddPolygon(vs); err != nil {
				return nil, fmt.Errorf("%s line %d: %w", name, lineNo, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read obj %s: %w", name, err)
	}
	if m.TriangleCount() == 0 {
		return nil, fmt.Errorf("%s: no faces: %w", name, ErrDegenerateMesh)
	}

	if err := m.Finish(); err != nil {
		return nil, err
	}
	return m, nil
}

func parseVertex(fields []string, flipped bool) (math3d.Vec3, error) {
	if len(fields) < 3 {
		return math3d.Vec3{}, fmt.Errorf("vertex needs 3 coordinates, got %d", len(fields))
	}
	var c [3]float64
	for i := range 3 {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return math3d.Vec3{}, fmt.Errorf("vertex coordinate %q: %w", fields[i], err)
		}
		c[i] = v
	}
	if flipped {
		return math3d.V3(c[2], c[0], c[1]), nil
	}
	return math3d.V3(c[0], c[1], c[2]), nil
}

func parseFace(fields []string, vertexCount int) ([]VertexIndex, error) {
	if len(fields) < 3 {
		return nil, fmt.Errorf("face needs 3 corners, got %d", len(fields))
	}
	vs := make([]VertexIndex, 0, len(fields))
	for _, f := range fields {
		ref, _, _ := strings.Cut(f, "/")
		i, err := strconv.Atoi(ref)
		if err != nil {
			return nil, fmt.Errorf("face index %q: %w", f, err)
		}
		switch {
		case i > 0:
			i--
		case i < 0:
			i += vertexCount
		default:
			return nil, fmt.Errorf("face index 0: %w", ErrIndexOutOfRange)
		}
		vs = append(vs, VertexIndex(i))
	}
	return vs, nil
}
