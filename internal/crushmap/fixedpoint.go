package crushmap

import "math"

// Fixed is a 16.16 fixed-point value: the wire-format scale for weights and
// device offloads. FixedOne (0x10000) represents 1.0.
type Fixed uint32

const FixedOne Fixed = 0x10000

// FixedFromFloat rounds f*0x10000 to the nearest integer. Callers validating
// a [0,1] range (offloads) must check that separately; FixedFromFloat itself
// accepts any non-negative float a caller has already range-checked.
func FixedFromFloat(f float64) Fixed {
	return Fixed(math.Round(f * float64(FixedOne)))
}

func (f Fixed) Float() float64 {
	return float64(f) / float64(FixedOne)
}

// sumWeights adds fixed-point weights into a 64-bit accumulator, per the
// design note to guard overflow when summing many large weights.
func sumWeights(weights []Fixed) uint64 {
	var sum uint64
	for _, w := range weights {
		sum += uint64(w)
	}
	return sum
}
