package placement

import "github.com/crushlang/crush/internal/crushmap"

// triesPerItem bounds how many (hash, try_index) draws a single choose step
// spends hunting for one more non-colliding, non-offloaded item before
// giving up on it. Exhausting the budget means the step emits fewer
// devices than requested rather than looping forever.
const triesPerItem = 50

// PlaceByName runs the rule registered under name over a finalized Map.
// inputKey is the caller's placement key (e.g. a hash of an object name),
// already reduced to a uint64; replicaCount is the number of devices the
// caller wants back.
func PlaceByName(m *crushmap.Map, name string, inputKey uint64, replicaCount int) ([]crushmap.DeviceID, error) {
	rule, ok := m.RuleByName(name)
	if !ok {
		return nil, errUnknownRule(name)
	}
	return Place(m, rule, inputKey, replicaCount)
}

// Place evaluates rule's steps over a virtual stack of current selections,
// returning the ordered device ids EMIT accumulates.
func Place(m *crushmap.Map, rule *crushmap.Rule, inputKey uint64, replicaCount int) ([]crushmap.DeviceID, error) {
	if err := m.RequireFinalized(); err != nil {
		return nil, errNotFinalized()
	}

	var out []crushmap.DeviceID
	var current []crushmap.ItemID

	for _, step := range rule.Steps {
		switch step.Op {
		case crushmap.OpTake:
			current = []crushmap.ItemID{crushmap.ItemID(step.Arg1)}

		case crushmap.OpChooseFirstN, crushmap.OpChooseIndep:
			n := resolveN(step.Arg1, replicaCount)
			var next []crushmap.ItemID
			for _, parent := range current {
				next = append(next, chooseAt(m, parent, step.Arg2, n, inputKey)...)
			}
			current = next

		case crushmap.OpChooseLeafFirstN, crushmap.OpChooseLeafIndep:
			n := resolveN(step.Arg1, replicaCount)
			var next []crushmap.ItemID
			for _, parent := range current {
				for i, mid := range chooseAt(m, parent, step.Arg2, n, inputKey) {
					leaf, ok := descendToDevice(m, mid, inputKey, i)
					if ok {
						next = append(next, crushmap.ItemID(leaf))
					}
				}
			}
			current = next

		case crushmap.OpEmit:
			for _, item := range current {
				if item.IsDevice() {
					out = append(out, item.AsDevice())
				}
			}
			current = nil
		}
	}

	return out, nil
}

// resolveN applies the "n <= 0 means replicas + n" convention.
func resolveN(n, replicas int) int {
	if n <= 0 {
		return replicas + n
	}
	return n
}

// chooseAt selects up to n distinct items of typeLevel beneath parent,
// recursing down through any intermediate bucket levels the hierarchy
// interposes between parent and typeLevel.
func chooseAt(m *crushmap.Map, parent crushmap.ItemID, typeLevel, n int, inputKey uint64) []crushmap.ItemID {
	if parent.IsDevice() || n <= 0 {
		return nil
	}
	bucket, ok := m.Bucket(parent.AsBucket())
	if !ok || len(bucket.Items) == 0 {
		return nil
	}

	var chosen []crushmap.ItemID
	seen := make(map[crushmap.ItemID]bool)

	for replicaIndex := 0; len(chosen) < n && replicaIndex < n*triesPerItem; replicaIndex++ {
		tryIndex := 0
		for tryIndex < triesPerItem {
			h := crushHash(inputKey, int32(bucket.ID), replicaIndex, tryIndex)
			tryIndex++

			idx, ok := selectIndex(bucket, h)
			if !ok {
				break
			}
			child := bucket.Items[idx]
			if isRejected(m, child) {
				continue
			}

			resolved, ok := descendToLevel(m, child, typeLevel, inputKey, replicaIndex)
			if !ok || seen[resolved] {
				continue
			}
			seen[resolved] = true
			chosen = append(chosen, resolved)
			break
		}
	}

	return chosen
}

// descendToLevel walks down from item until it reaches something at
// typeLevel (devices count as level 0), picking one child per bucket via
// the same hash-seeded algorithm-specific rule.
func descendToLevel(m *crushmap.Map, item crushmap.ItemID, typeLevel int, inputKey uint64, replicaIndex int) (crushmap.ItemID, bool) {
	level := itemLevel(m, item)
	for level > typeLevel {
		if item.IsDevice() {
			return 0, false
		}
		bucket, ok := m.Bucket(item.AsBucket())
		if !ok || len(bucket.Items) == 0 {
			return 0, false
		}
		found := false
		for tryIndex := 0; tryIndex < triesPerItem; tryIndex++ {
			h := crushHash(inputKey, int32(bucket.ID), replicaIndex, tryIndex)
			idx, ok := selectIndex(bucket, h)
			if !ok {
				continue
			}
			next := bucket.Items[idx]
			if isRejected(m, next) {
				continue
			}
			item = next
			found = true
			break
		}
		if !found {
			return 0, false
		}
		level = itemLevel(m, item)
	}
	return item, level == typeLevel
}

// descendToDevice is descendToLevel targeting level 0 (a leaf device), used
// by CHOOSELEAF after choosing the intermediate failure domain.
func descendToDevice(m *crushmap.Map, item crushmap.ItemID, inputKey uint64, replicaIndex int) (crushmap.DeviceID, bool) {
	resolved, ok := descendToLevel(m, item, 0, inputKey, replicaIndex)
	if !ok {
		return 0, false
	}
	return resolved.AsDevice(), true
}

func itemLevel(m *crushmap.Map, item crushmap.ItemID) int {
	if item.IsDevice() {
		return 0
	}
	b, ok := m.Bucket(item.AsBucket())
	if !ok {
		return -1
	}
	return b.TypeLevel
}

// isRejected reports whether a device's offload fraction should cause the
// kernel to reject it and retry. Buckets are never rejected directly;
// rejection only applies once descent reaches a device.
func isRejected(m *crushmap.Map, item crushmap.ItemID) bool {
	if !item.IsDevice() {
		return false
	}
	dev, ok := m.Device(item.AsDevice())
	if !ok {
		return true
	}
	return dev.Offload == crushmap.FixedOne
}

// selectIndex picks a child index of bucket for hash h, dispatching on the
// bucket's algorithm.
func selectIndex(bucket *crushmap.Bucket, h uint64) (int, bool) {
	if len(bucket.Items) == 0 {
		return 0, false
	}

	switch bucket.Alg {
	case crushmap.Uniform:
		return int(h % uint64(len(bucket.Items))), true

	case crushmap.List:
		data, ok := bucket.AlgData.(crushmap.ListData)
		if !ok {
			return 0, false
		}
		for i := 0; i < len(bucket.Items); i++ {
			if data.CumulativeFromHere[i] == 0 {
				continue
			}
			r := h % data.CumulativeFromHere[i]
			if r < uint64(bucket.Weights[i]) {
				return i, true
			}
		}
		return len(bucket.Items) - 1, true

	case crushmap.Tree:
		data, ok := bucket.AlgData.(crushmap.TreeData)
		if !ok || len(data.Nodes) == 0 {
			return 0, false
		}
		pow2 := len(data.Nodes) / 2
		node := 1
		for node < pow2 {
			total := data.Nodes[node]
			if total == 0 {
				return 0, false
			}
			left := data.Nodes[2*node]
			if h%total < left {
				node = 2 * node
			} else {
				node = 2*node + 1
			}
		}
		idx := node - pow2
		if idx >= len(bucket.Items) {
			return 0, false
		}
		return idx, true

	case crushmap.Straw:
		data, ok := bucket.AlgData.(crushmap.StrawData)
		if !ok {
			return 0, false
		}
		best := -1
		var bestScore uint64
		for i, length := range data.StrawLengths {
			if bucket.Weights[i] == 0 {
				continue
			}
			score := (itemHash(h, i) & 0xffff) * length
			if best == -1 || score > bestScore {
				best, bestScore = i, score
			}
		}
		if best == -1 {
			return 0, false
		}
		return best, true

	default:
		return 0, false
	}
}
