package bake

// Halton returns element index of the Halton sequence with the given base:
// the radix inverse of index, in [0,1). Digits of index in base b become
// fractional digits in reverse order, so consecutive indices fill the unit
// interval far more evenly than uniform random draws. Bases used together
// for a multi-dimensional point must be coprime to avoid correlated
// aliasing between the axes.
func Halton(base, index uint32) float32 {
	if base < 2 {
		panic("bake: Halton base must be >= 2")
	}
	result := float32(0)
	invBase := 1 / float32(base)
	f := invBase
	for i := index; i > 0; i /= base {
		result += f * float32(i%base)
		f *= invBase
	}
	return result
}
