package crushmap

import (
	"math"
	"sort"
)

// computeStrawLengths derives per-item straw lengths from a bucket's
// weights, working from lightest to heaviest. Under the kernel's
// max(hash_xor(item) * straw_length) selection rule, the lightest item
// gets a full-scale straw and, moving toward the heaviest item, the
// running scale grows by the factor that keeps each item's expected win
// rate proportional to its own weight. A zero-weight item always gets
// straw length 0, so it never wins the max() regardless of the hash draw.
func computeStrawLengths(weights []Fixed) []uint64 {
	n := len(weights)
	straws := make([]uint64, n)
	if n == 0 {
		return straws
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return weights[order[a]] < weights[order[b]] })

	straw := float64(FixedOne)
	var weightBelow, lastW float64
	remaining := n

	for i, idx := range order {
		w := float64(weights[idx])
		if w == 0 {
			remaining--
			continue
		}

		straws[idx] = uint64(math.Round(straw))
		weightBelow += (w - lastW) * float64(remaining)
		lastW = w
		remaining--
		if remaining == 0 {
			break
		}

		nextW := float64(weights[order[i+1]])
		weightNext := (nextW - w) * float64(remaining)
		straw *= math.Pow((weightBelow+weightNext)/weightBelow, 1.0/float64(remaining))
	}

	return straws
}
