// Package bake generates deterministic sample points on triangulated
// surfaces for ambient occlusion estimation.
package bake

import (
	"errors"
	"fmt"
	gomath "math"

	"go.uber.org/multierr"

	"github.com/michax/optix-prime-baking/pkg/math"
)

// Mesh validation errors.
var (
	ErrNoVertices      = errors.New("mesh has no vertices")
	ErrNoTriangles     = errors.New("mesh has no triangles")
	ErrNormalsMismatch = errors.New("normals and triangle normal indices must be present together")
)

// TriIndices holds one triangle's three indices into a parallel vertex or
// normal table.
type TriIndices [3]int32

// Mesh is a read-only triangulated surface. Vertices and TriVertexIndices
// are required; Normals and TriNormalIndices are optional but must be
// present together, with one index triple per triangle.
type Mesh struct {
	Vertices         []math.Vec3
	TriVertexIndices []TriIndices
	Normals          []math.Vec3
	TriNormalIndices []TriIndices
}

// NumVertices returns the vertex count.
func (m *Mesh) NumVertices() int { return len(m.Vertices) }

// NumTriangles returns the triangle count.
func (m *Mesh) NumTriangles() int { return len(m.TriVertexIndices) }

// HasNormals reports whether per-vertex shading normals are available.
func (m *Mesh) HasNormals() bool {
	return len(m.Normals) > 0 && len(m.TriNormalIndices) > 0
}

// TriangleArea returns the surface area of triangle i.
func (m *Mesh) TriangleArea(i int) float64 {
	tri := m.TriVertexIndices[i]
	return triangleArea(m.Vertices[tri[0]], m.Vertices[tri[1]], m.Vertices[tri[2]])
}

// SurfaceArea returns the summed area of all triangles.
func (m *Mesh) SurfaceArea() float64 {
	var area float64
	for i := range m.TriVertexIndices {
		area += m.TriangleArea(i)
	}
	return area
}

// triangleArea computes 0.5*|cross(e0,e1)|. The magnitude is accumulated in
// float64 so large meshes do not lose area to cancellation.
func triangleArea(v0, v1, v2 math.Vec3) float64 {
	c := v1.Sub(v0).Cross(v2.Sub(v0))
	x, y, z := float64(c.X), float64(c.Y), float64(c.Z)
	return 0.5 * gomath.Sqrt(x*x+y*y+z*z)
}

// Validate checks the structural invariants of the mesh and reports every
// violated category. Loaders call this before handing a mesh to the sampler.
func (m *Mesh) Validate() error {
	var errs error

	if m.NumVertices() == 0 {
		errs = multierr.Append(errs, ErrNoVertices)
	}
	if m.NumTriangles() == 0 {
		errs = multierr.Append(errs, ErrNoTriangles)
	}

	hasNormals := len(m.Normals) > 0
	hasNormalIndices := len(m.TriNormalIndices) > 0
	if hasNormals != hasNormalIndices {
		errs = multierr.Append(errs, ErrNormalsMismatch)
	}
	if hasNormalIndices && len(m.TriNormalIndices) != len(m.TriVertexIndices) {
		errs = multierr.Append(errs, fmt.Errorf("%d normal index triples for %d triangles",
			len(m.TriNormalIndices), len(m.TriVertexIndices)))
	}

	if err := checkIndexRange(m.TriVertexIndices, len(m.Vertices), "vertex"); err != nil {
		errs = multierr.Append(errs, err)
	}
	if hasNormals && hasNormalIndices {
		if err := checkIndexRange(m.TriNormalIndices, len(m.Normals), "normal"); err != nil {
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}

// checkIndexRange reports the first out-of-range index in a triple table.
func checkIndexRange(tris []TriIndices, tableLen int, kind string) error {
	for ti, tri := range tris {
		for _, idx := range tri {
			if idx < 0 || int(idx) >= tableLen {
				return fmt.Errorf("triangle %d: %s index %d out of range [0,%d)", ti, kind, idx, tableLen)
			}
		}
	}
	return nil
}
