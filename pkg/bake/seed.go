package bake

import "github.com/michax/optix-prime-baking/pkg/math"

// Per-triangle sample offsets. Without them the same Halton pattern would
// repeat identically on every triangle and the repetition shows up as
// correlation artifacts across the mesh; shifting the pattern by a stable
// pseudo-random offset per triangle (Cranley–Patterson rotation)
// decorrelates the triangles while keeping the bake fully reproducible.

// tea mixes two words with four rounds of the TEA block cipher round
// function. The output depends only on the inputs, never on platform or
// run.
func tea(v0, v1 uint32) uint32 {
	var sum uint32
	for n := 0; n < 4; n++ {
		sum += 0x9e3779b9
		v0 += ((v1 << 4) + 0xa341316c) ^ (v1 + sum) ^ ((v1 >> 5) + 0xc8013ea4)
		v1 += ((v0 << 4) + 0xad90777d) ^ (v0 + sum) ^ ((v0 >> 5) + 0x7e95761e)
	}
	return v0
}

// lcg advances the state and returns its low 24 bits.
func lcg(state *uint32) uint32 {
	*state = 1664525**state + 1013904223
	return *state & 0x00ffffff
}

// lcgFloat draws the next value from the state, mapped to [0,1).
func lcgFloat(state *uint32) float32 {
	return float32(lcg(state)) / float32(0x01000000)
}

// triangleOffset returns the deterministic sample-shift for one triangle,
// both components in [0,1).
func triangleOffset(triIndex uint32) math.Vec2 {
	state := tea(triIndex, triIndex)
	u := lcgFloat(&state)
	v := lcgFloat(&state)
	return math.Vec2{X: u, Y: v}
}
