package crushmap

// Finalize seals the Map. It:
//
//   - recomputes each bucket's summed weight and checks it against the
//     builder's own running tally,
//   - builds the TREE node array for TREE buckets,
//   - precomputes STRAW lengths for STRAW buckets,
//   - builds the UNIFORM item weight and the LIST per-position cumulative
//     weights those algorithms need,
//
// and then marks the Map read-only. Finalize is idempotent only in the
// sense that calling it twice on an already-finalized Map is an error —
// there is no partial re-finalization.
func (m *Map) Finalize() error {
	if m.finalized {
		return errAlreadyFinalized()
	}

	for _, b := range m.Buckets() {
		if len(b.Items) != len(b.Weights) {
			return Error{Kind: "LengthMismatch", Message: "bucket " + b.Name + ": items and weights have different lengths"}
		}

		recomputed := sumWeights(b.Weights)
		if b.SummedWeight != 0 && b.SummedWeight != recomputed {
			return errWeightMismatch(b.Name, b.SummedWeight, recomputed)
		}
		b.SummedWeight = recomputed

		switch b.Alg {
		case Uniform:
			var itemWeight Fixed
			if len(b.Weights) > 0 {
				itemWeight = b.Weights[0]
			}
			b.AlgData = UniformData{ItemWeight: itemWeight}

		case List:
			cum := make([]uint64, len(b.Weights))
			var running uint64
			for i := len(b.Weights) - 1; i >= 0; i-- {
				running += uint64(b.Weights[i])
				cum[i] = running
			}
			b.AlgData = ListData{CumulativeFromHere: cum}

		case Tree:
			b.AlgData = TreeData{Nodes: buildTreeNodes(b.Weights)}

		case Straw:
			b.AlgData = StrawData{StrawLengths: computeStrawLengths(b.Weights)}

		default:
			return errUnknownAlgorithm(b.Alg.String())
		}
	}

	m.finalized = true
	return nil
}
