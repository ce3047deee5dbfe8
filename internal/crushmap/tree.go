package crushmap

// nextPow2 returns the smallest power of two >= n (n >= 1).
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// buildTreeNodes constructs the complete binary tree of per-subtree summed
// weights a TREE bucket needs. The array is 1-indexed: node i's children
// are at 2i and 2i+1, index 0 is unused padding, and item i sits at leaf
// pow2+i. Leaves beyond len(weights) are zero-weight padding so the tree
// stays complete; len(nodes) == 2*nextPow2(size), i.e. 2*nextPow2-1
// meaningful entries plus the unused index 0.
func buildTreeNodes(weights []Fixed) []uint64 {
	pow2 := nextPow2(len(weights))
	nodes := make([]uint64, 2*pow2)
	for i, w := range weights {
		nodes[pow2+i] = uint64(w)
	}
	for i := pow2 - 1; i >= 1; i-- {
		nodes[i] = nodes[2*i] + nodes[2*i+1]
	}
	return nodes
}
