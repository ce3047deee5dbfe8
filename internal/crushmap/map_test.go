package crushmap

import "testing"

func TestDefineDeviceAndLookup(t *testing.T) {
	m := NewMap()
	if err := m.DefineDevice(0, "osd.0"); err != nil {
		t.Fatalf("DefineDevice: %v", err)
	}

	id, ok := m.LookupItem("osd.0")
	if !ok {
		t.Fatal("osd.0 should resolve")
	}
	if id != ItemID(0) {
		t.Errorf("got item id %d, want 0", id)
	}
	if m.MaxDevices() != 1 {
		t.Errorf("MaxDevices() = %d, want 1", m.MaxDevices())
	}
}

func TestDefineDeviceDuplicateName(t *testing.T) {
	m := NewMap()
	if err := m.DefineDevice(0, "osd.0"); err != nil {
		t.Fatalf("DefineDevice: %v", err)
	}
	if err := m.DefineDevice(1, "osd.0"); err == nil {
		t.Error("expected an error defining a second device with the same name")
	}
}

func TestDefineTypeRejectsDuplicateLevel(t *testing.T) {
	m := NewMap()
	if err := m.DefineType(0, "device"); err != nil {
		t.Fatalf("DefineType: %v", err)
	}
	if err := m.DefineType(0, "host"); err == nil {
		t.Error("expected duplicate type level to fail")
	}
}

func TestAddBucketOrdering(t *testing.T) {
	m := NewMap()
	mustDefineType(t, m, 0, "device")
	mustDefineType(t, m, 1, "host")

	if err := m.DefineDevice(0, "osd.0"); err != nil {
		t.Fatalf("DefineDevice: %v", err)
	}

	host := &Bucket{
		ID:        -1,
		Name:      "host-a",
		TypeLevel: 0, // same level as its device child: must be rejected
		Alg:       Uniform,
		Items:     []ItemID{0},
		Weights:   []Fixed{FixedOne},
	}
	if err := m.AddBucket(host); err == nil {
		t.Error("expected a type-level violation error")
	}

	host.TypeLevel = 1
	if err := m.AddBucket(host); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}
}

func TestNextAutoBucketIDSkipsReserved(t *testing.T) {
	m := NewMap()
	m.ReserveBucketID(-1)

	id := m.NextAutoBucketID()
	if id != -2 {
		t.Errorf("NextAutoBucketID() = %d, want -2", id)
	}
}

func TestItemNameRoundTrip(t *testing.T) {
	m := NewMap()
	mustDefineType(t, m, 0, "device")
	mustDefineType(t, m, 1, "host")
	if err := m.DefineDevice(0, "osd.0"); err != nil {
		t.Fatalf("DefineDevice: %v", err)
	}
	bucket := &Bucket{ID: -1, Name: "host-a", TypeLevel: 1, Alg: Uniform, Items: []ItemID{0}, Weights: []Fixed{FixedOne}}
	if err := m.AddBucket(bucket); err != nil {
		t.Fatalf("AddBucket: %v", err)
	}

	if name, ok := m.ItemName(0); !ok || name != "osd.0" {
		t.Errorf("ItemName(0) = %q, %v, want osd.0, true", name, ok)
	}
	if name, ok := m.ItemName(-1); !ok || name != "host-a" {
		t.Errorf("ItemName(-1) = %q, %v, want host-a, true", name, ok)
	}
}

func mustDefineType(t *testing.T, m *Map, level int, name string) {
	t.Helper()
	if err := m.DefineType(level, name); err != nil {
		t.Fatalf("DefineType(%d, %q): %v", level, name, err)
	}
}
