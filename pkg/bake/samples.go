package bake

import "github.com/michax/optix-prime-baking/pkg/math"

// SampleInfo describes one generated sample for the downstream evaluator.
type SampleInfo struct {
	TriIndex int32      // owning triangle
	Bary     [3]float32 // barycentric coordinates within that triangle, summing to 1
	DiffArea float32    // share of the triangle's area carried by this sample
}

// AOSamples holds the output buffers of a surface sampling run, one entry
// per sample. The caller allocates all four buffers to the same length
// before sampling; the sampler only writes into them.
type AOSamples struct {
	Positions   []math.Vec3  // sample positions on the surface
	Normals     []math.Vec3  // interpolated shading normals
	FaceNormals []math.Vec3  // flat geometric normals of the owning triangles
	Infos       []SampleInfo // per-sample metadata
}

// NewAOSamples allocates output buffers for n samples.
func NewAOSamples(n int) *AOSamples {
	return &AOSamples{
		Positions:   make([]math.Vec3, n),
		Normals:     make([]math.Vec3, n),
		FaceNormals: make([]math.Vec3, n),
		Infos:       make([]SampleInfo, n),
	}
}

// NumSamples returns the sample capacity of the buffers.
func (s *AOSamples) NumSamples() int { return len(s.Positions) }
