// Package bake generates deterministic sample points on triangulated
// surfaces for ambient occlusion estimation.
package bake

import (
	"fmt"
	gomath "math"
	"runtime"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/michax/optix-prime-baking/pkg/math"
)

// Sharding across goroutines only pays off once the per-triangle work
// outweighs the spawn cost.
const parallelMinTriangles = 2048

// SurfaceSampler distributes a fixed budget of low-discrepancy sample
// points across the triangles of a mesh, area-weighted, and fills in the
// position, shading normal, face normal and differential area of every
// sample. A sampler holds no state between runs apart from the one-time
// normals warning latch, so repeated runs over the same input produce
// bit-identical buffers.
type SurfaceSampler struct {
	// Workers bounds the number of goroutines used for sample placement.
	// Zero or negative selects runtime.NumCPU(). The output is identical
	// for any worker count.
	Workers int

	log             *zap.Logger
	normalsReversed atomic.Bool
}

// NewSurfaceSampler returns a sampler that logs through log.
// A nil log disables logging.
func NewSurfaceSampler(log *zap.Logger) *SurfaceSampler {
	if log == nil {
		log = zap.NewNop()
	}
	return &SurfaceSampler{log: log}
}

// NormalsReversed reports whether any vertex normal pointed against its
// face normal and had to be flipped during a run of this sampler.
func (s *SurfaceSampler) NormalsReversed() bool {
	return s.normalsReversed.Load()
}

// SampleSurface fills out with exactly out.NumSamples() samples on mesh.
// Every triangle receives at least minSamplesPerTriangle samples; the rest
// of the budget is split proportionally to triangle area. Sample placement
// within a triangle follows a Halton pattern shifted per triangle, so the
// result is deterministic for fixed inputs.
//
// Preconditions, violation of which panics: the mesh passes Validate,
// minSamplesPerTriangle >= 1, all four output buffers share the same
// length, and that length is at least NumTriangles()*minSamplesPerTriangle.
func (s *SurfaceSampler) SampleSurface(mesh *Mesh, minSamplesPerTriangle int, out *AOSamples) {
	numTris := mesh.NumTriangles()
	numSamples := out.NumSamples()

	if minSamplesPerTriangle < 1 {
		panic(fmt.Sprintf("bake: minSamplesPerTriangle must be >= 1, got %d", minSamplesPerTriangle))
	}
	if numSamples < numTris*minSamplesPerTriangle {
		panic(fmt.Sprintf("bake: %d samples cannot cover %d triangles at %d samples each",
			numSamples, numTris, minSamplesPerTriangle))
	}
	if len(out.Normals) != numSamples || len(out.FaceNormals) != numSamples || len(out.Infos) != numSamples {
		panic("bake: AOSamples buffers differ in length")
	}
	if err := mesh.Validate(); err != nil {
		panic(fmt.Sprintf("bake: invalid mesh: %v", err))
	}

	counts, areas := s.allocateCounts(mesh, minSamplesPerTriangle, numSamples)

	// Per-triangle output offsets. Disjoint sub-ranges make the placement
	// loop shardable with no shared counter.
	offsets := make([]int, numTris)
	total := 0
	for i, c := range counts {
		offsets[i] = total
		total += c
	}
	if total != numSamples {
		panic(fmt.Sprintf("bake: allocated %d samples for a budget of %d", total, numSamples))
	}

	s.placeSamples(mesh, counts, offsets, out)

	// Differential area: a triangle's area split evenly over its samples.
	// Zero-area triangles legitimately produce dA == 0.
	for i := 0; i < numTris; i++ {
		dA := float32(areas[i] / float64(counts[i]))
		infos := out.Infos[offsets[i] : offsets[i]+counts[i]]
		for k := range infos {
			infos[k].DiffArea = dA
		}
	}

	s.log.Debug("surface sampling complete",
		zap.Int("triangles", numTris),
		zap.Int("samples", numSamples))
}

// allocateCounts decides how many samples each triangle receives, in three
// phases: a fixed floor per triangle, an area-proportional share of the
// remaining budget truncated per triangle, and a one-per-triangle walk
// handing out what truncation left over. Truncating rather than rounding
// keeps the running total from ever exceeding the budget, at the price of a
// small systematic bias against large triangles; lower triangle indices get
// first claim on the leftovers.
func (s *SurfaceSampler) allocateCounts(mesh *Mesh, minPerTri, numSamples int) (counts []int, areas []float64) {
	numTris := mesh.NumTriangles()
	counts = make([]int, numTris)
	areas = make([]float64, numTris)

	placed := 0
	for i := range counts {
		counts[i] = minPerTri
		placed += minPerTri
	}

	var meshArea float64
	for i := range areas {
		areas[i] = mesh.TriangleArea(i)
		meshArea += areas[i]
	}

	if meshArea > 0 {
		budget := numSamples - placed
		for i := 0; i < numTris && placed < numSamples; i++ {
			extra := int(float64(budget) * areas[i] / meshArea)
			if space := numSamples - placed; extra > space {
				extra = space
			}
			counts[i] += extra
			placed += extra
		}
	}

	if rem := numSamples - placed; rem > numTris {
		panic(fmt.Sprintf("bake: %d unplaced samples exceed triangle count %d", rem, numTris))
	}
	for i := 0; i < numTris && placed < numSamples; i++ {
		counts[i]++
		placed++
	}

	return counts, areas
}

// placeSamples runs sampleTriangle for every triangle, sharding the
// triangle range across workers for large meshes. Each triangle writes only
// its own output sub-range and every written value depends only on the
// triangle index and the sample's position within the triangle, so the
// result does not depend on the sharding.
func (s *SurfaceSampler) placeSamples(mesh *Mesh, counts, offsets []int, out *AOSamples) {
	numTris := mesh.NumTriangles()

	workers := s.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers == 1 || numTris < parallelMinTriangles {
		for i := 0; i < numTris; i++ {
			s.sampleTriangle(mesh, i, offsets[i], counts[i], out)
		}
		return
	}

	chunk := (numTris + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < numTris; start += chunk {
		end := min(start+chunk, numTris)
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				s.sampleTriangle(mesh, i, offsets[i], counts[i], out)
			}
		}(start, end)
	}
	wg.Wait()
}

// sampleTriangle writes count samples for triangle triIdx into the output
// slots [offset, offset+count). DiffArea is stamped later, once per
// triangle.
func (s *SurfaceSampler) sampleTriangle(mesh *Mesh, triIdx, offset, count int, out *AOSamples) {
	tri := mesh.TriVertexIndices[triIdx]
	v0 := mesh.Vertices[tri[0]]
	v1 := mesh.Vertices[tri[1]]
	v2 := mesh.Vertices[tri[2]]

	faceNormal := v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
	var n0, n1, n2 math.Vec3
	if mesh.HasNormals() {
		ni := mesh.TriNormalIndices[triIdx]
		n0 = s.faceForward(mesh.Normals[ni[0]], faceNormal)
		n1 = s.faceForward(mesh.Normals[ni[1]], faceNormal)
		n2 = s.faceForward(mesh.Normals[ni[2]], faceNormal)
	} else {
		// Missing vertex normals, shade with the face normal.
		n0, n1, n2 = faceNormal, faceNormal, faceNormal
	}

	shift := triangleOffset(uint32(triIdx))

	for k := 0; k < count; k++ {
		r1 := frac(shift.X + Halton(2, uint32(k)+1))
		r2 := frac(shift.Y + Halton(3, uint32(k)+1))
		b0, b1, b2 := mapToTriangle(r1, r2)

		slot := offset + k
		out.Positions[slot] = v0.Scale(b0).Add(v1.Scale(b1)).Add(v2.Scale(b2))
		out.Normals[slot] = n0.Scale(b0).Add(n1.Scale(b1)).Add(n2.Scale(b2)).Normalize()
		out.FaceNormals[slot] = faceNormal
		out.Infos[slot] = SampleInfo{TriIndex: int32(triIdx), Bary: [3]float32{b0, b1, b2}}
	}
}

// faceForward returns n unless it points against geomNormal, in which case
// the negation is returned. The first flip latches a warning: inconsistent
// input normals are corrected, not fatal.
func (s *SurfaceSampler) faceForward(n, geomNormal math.Vec3) math.Vec3 {
	if n.Dot(geomNormal) > 0 {
		return n
	}
	if s.normalsReversed.CompareAndSwap(false, true) {
		s.log.Warn("reversing vertex normals to point in same direction as face normals")
	}
	return n.Neg()
}

// mapToTriangle maps a point in the unit square onto barycentric
// coordinates with uniform area density (square-root transform).
func mapToTriangle(r1, r2 float32) (b0, b1, b2 float32) {
	sqrtR1 := float32(gomath.Sqrt(float64(r1)))
	b0 = 1 - sqrtR1
	b1 = r2 * sqrtR1
	b2 = 1 - b0 - b1
	return b0, b1, b2
}

// frac returns the fractional part of x for x >= 0.
func frac(x float32) float32 {
	return x - float32(int32(x))
}
