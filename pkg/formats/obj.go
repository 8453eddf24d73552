package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/michax/optix-prime-baking/pkg/bake"
	"github.com/michax/optix-prime-baking/pkg/math"
)

// OBJ format errors.
var ErrMalformedOBJ = errors.New("malformed OBJ data")

// ParseOBJ parses a Wavefront OBJ mesh from raw bytes. Vertex positions,
// vertex normals and faces are honored; texture coordinates, materials and
// groupings are skipped. Faces may use the v, v/vt, v//vn and v/vt/vn
// reference forms with positive or negative (relative) indices; faces with
// more than three vertices are fan triangulated.
func ParseOBJ(data []byte) (*bake.Mesh, error) {
	mesh := &bake.Mesh{}

	// Faces must agree on whether they reference normals: -1 undecided,
	// 0 without, 1 with.
	normalFaces := -1

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		switch fields[0] {
		case "v":
			v, err := parseOBJVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, lineNum, err)
			}
			mesh.Vertices = append(mesh.Vertices, v)

		case "vn":
			n, err := parseOBJVec3(fields[1:])
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, lineNum, err)
			}
			mesh.Normals = append(mesh.Normals, n)

		case "f":
			refs := fields[1:]
			if len(refs) < 3 {
				return nil, fmt.Errorf("%w: line %d: face needs at least 3 vertices", ErrMalformedOBJ, lineNum)
			}

			vIdx := make([]int32, len(refs))
			nIdx := make([]int32, len(refs))
			withNormals := false
			for i, ref := range refs {
				vi, ni, hasNormal, err := parseOBJRef(ref, len(mesh.Vertices), len(mesh.Normals))
				if err != nil {
					return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedOBJ, lineNum, err)
				}
				if i == 0 {
					withNormals = hasNormal
				} else if hasNormal != withNormals {
					return nil, fmt.Errorf("%w: line %d: face mixes vertices with and without normal indices",
						ErrMalformedOBJ, lineNum)
				}
				vIdx[i], nIdx[i] = vi, ni
			}

			state := 0
			if withNormals {
				state = 1
			}
			if normalFaces == -1 {
				normalFaces = state
			} else if normalFaces != state {
				return nil, fmt.Errorf("%w: line %d: some faces reference normals and some do not",
					ErrMalformedOBJ, lineNum)
			}

			for i := 1; i+1 < len(refs); i++ {
				mesh.TriVertexIndices = append(mesh.TriVertexIndices,
					bake.TriIndices{vIdx[0], vIdx[i], vIdx[i+1]})
				if withNormals {
					mesh.TriNormalIndices = append(mesh.TriNormalIndices,
						bake.TriIndices{nIdx[0], nIdx[i], nIdx[i+1]})
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ data: %w", err)
	}

	// Normals nobody references do not belong in the mesh.
	if normalFaces != 1 {
		mesh.Normals = nil
	}

	return mesh, nil
}

// ParseOBJFile parses an OBJ file from disk.
func ParseOBJFile(path string) (*bake.Mesh, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading OBJ file: %w", err)
	}
	return ParseOBJ(data)
}

// parseOBJVec3 parses three float components.
func parseOBJVec3(fields []string) (math.Vec3, error) {
	if len(fields) < 3 {
		return math.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(fields))
	}
	var c [3]float32
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return math.Vec3{}, fmt.Errorf("invalid component %q", fields[i])
		}
		c[i] = float32(f)
	}
	return math.Vec3{X: c[0], Y: c[1], Z: c[2]}, nil
}

// parseOBJRef parses one face vertex reference and resolves its indices
// against the tables parsed so far.
func parseOBJRef(ref string, numVertices, numNormals int) (vi, ni int32, hasNormal bool, err error) {
	parts := strings.Split(ref, "/")
	if len(parts) > 3 || parts[0] == "" {
		return 0, 0, false, fmt.Errorf("invalid vertex reference %q", ref)
	}

	vi, err = resolveOBJIndex(parts[0], numVertices, "vertex")
	if err != nil {
		return 0, 0, false, err
	}

	if len(parts) == 3 && parts[2] != "" {
		ni, err = resolveOBJIndex(parts[2], numNormals, "normal")
		if err != nil {
			return 0, 0, false, err
		}
		hasNormal = true
	}
	return vi, ni, hasNormal, nil
}

// resolveOBJIndex turns a 1-based or negative (relative) OBJ index into a
// 0-based one.
func resolveOBJIndex(tok string, count int, kind string) (int32, error) {
	idx, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("invalid %s index %q", kind, tok)
	}
	switch {
	case idx > 0:
		idx--
	case idx < 0:
		idx = count + idx
	default:
		return 0, fmt.Errorf("%s index 0 is not valid", kind)
	}
	if idx < 0 || idx >= count {
		return 0, fmt.Errorf("%s index %s out of range (%d entries)", kind, tok, count)
	}
	return int32(idx), nil
}
