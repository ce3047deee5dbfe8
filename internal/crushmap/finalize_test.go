package crushmap

import "testing"

func buildSimpleMap(t *testing.T, alg Algorithm, weights []float64) *Map {
	t.Helper()
	m := NewMap()
	mustDefineType(t, m, 0, "device")
	mustDefineType(t, m, 1, "host")

	items := make([]ItemID, len(weights))
	fixedWeights := make([]Fixed, len(weights))
	for i, w := range weights {
		name := string(rune('a' + i))
		if err := m.DefineDevice(DeviceID(i), name); err != nil {
			t.Fatalf("DefineDevice: %v", err)
		}
		items[i] = ItemID(i)
		fixedWeights[i] = FixedFromFloat(w)
	}

	var summed uint64
	for _, w := range fixedWeights {
		summed += uint64(w)
	}

	bucket := &Bucket{
		ID:           -1,
		Name:         "host-a",
		TypeLevel:    1,
		Alg:          alg,
		Items:        items,
		Weights:      fixedWeights,
		SummedWeight: summed,
	}
	if err := m.AddBucket(bucket); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}
	return m
}

func TestFinalizeUniform(t *testing.T) {
	m := buildSimpleMap(t, Uniform, []float64{1, 1, 1})
	if err := m.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	b, _ := m.Bucket(-1)
	data, ok := b.AlgData.(UniformData)
	if !ok {
		t.Fatalf("AlgData is %T, want UniformData", b.AlgData)
	}
	if data.ItemWeight != FixedOne {
		t.Errorf("ItemWeight = %v, want FixedOne", data.ItemWeight)
	}
}

func TestFinalizeList(t *testing.T) {
	m := buildSimpleMap(t, List, []float64{1, 2, 3})
	if err := m.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	b, _ := m.Bucket(-1)
	data, ok := b.AlgData.(ListData)
	if !ok {
		t.Fatalf("AlgData is %T, want ListData", b.AlgData)
	}
	want := []uint64{uint64(FixedOne) * 6, uint64(FixedOne) * 5, uint64(FixedOne) * 3}
	for i := range want {
		if data.CumulativeFromHere[i] != want[i] {
			t.Errorf("CumulativeFromHere[%d] = %d, want %d", i, data.CumulativeFromHere[i], want[i])
		}
	}
}

func TestFinalizeTree(t *testing.T) {
	m := buildSimpleMap(t, Tree, []float64{1, 1, 1})
	if err := m.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	b, _ := m.Bucket(-1)
	data, ok := b.AlgData.(TreeData)
	if !ok {
		t.Fatalf("AlgData is %T, want TreeData", b.AlgData)
	}
	// 3 items -> next_pow2 = 4 -> 2*4 = 8 node slots (index 0 padding).
	if len(data.Nodes) != 8 {
		t.Errorf("len(Nodes) = %d, want 8", len(data.Nodes))
	}
	if data.Nodes[1] != uint64(FixedOne)*3 {
		t.Errorf("root weight = %d, want %d", data.Nodes[1], uint64(FixedOne)*3)
	}
}

func TestFinalizeStrawZeroWeightNeverWins(t *testing.T) {
	m := buildSimpleMap(t, Straw, []float64{0, 5, 5})
	if err := m.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	b, _ := m.Bucket(-1)
	data, ok := b.AlgData.(StrawData)
	if !ok {
		t.Fatalf("AlgData is %T, want StrawData", b.AlgData)
	}
	if data.StrawLengths[0] != 0 {
		t.Errorf("zero-weight item's straw length = %d, want 0", data.StrawLengths[0])
	}
}

func TestFinalizeRejectsWeightMismatch(t *testing.T) {
	m := NewMap()
	mustDefineType(t, m, 0, "device")
	mustDefineType(t, m, 1, "host")
	if err := m.DefineDevice(0, "a"); err != nil {
		t.Fatalf("DefineDevice: %v", err)
	}
	bucket := &Bucket{
		ID:           -1,
		Name:         "host-a",
		TypeLevel:    1,
		Alg:          Uniform,
		Items:        []ItemID{0},
		Weights:      []Fixed{FixedOne},
		SummedWeight: uint64(FixedOne) * 99, // deliberately wrong
	}
	if err := m.AddBucket(bucket); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}
	if err := m.Finalize(); err == nil {
		t.Error("expected Finalize to reject a mismatched summed weight")
	}
}

func TestFinalizeTwiceFails(t *testing.T) {
	m := buildSimpleMap(t, Uniform, []float64{1})
	if err := m.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := m.Finalize(); err == nil {
		t.Error("expected second Finalize call to fail")
	}
}
