package placement_test

import (
	"testing"

	"github.com/crushlang/crush/internal/dsl"
	"github.com/crushlang/crush/internal/placement"
)

const program = `
type 0 device
type 1 host
type 2 rack

device 0 osd0
device 1 osd1
device 2 osd2
device 3 osd3

host host-a {
  alg straw
  item osd0
  item osd1
}

host host-b {
  alg straw
  item osd2
  item osd3
}

rack rack-a {
  alg uniform
  item host-a
  item host-b
}

rule replicated_rule {
  pool 0
  type replicated
  min_size 1
  max_size 10
  step take rack-a
  step chooseleaf firstn 0 type host
  step emit
}
`

func TestPlaceByNameReturnsRequestedReplicas(t *testing.T) {
	m, err := dsl.Compile(program)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	devices, err := placement.PlaceByName(m, "replicated_rule", 0xC0FFEE, 2)
	if err != nil {
		t.Fatalf("PlaceByName: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2", len(devices))
	}

	seen := make(map[int]bool)
	for _, d := range devices {
		if seen[int(d)] {
			t.Errorf("device %d chosen twice", d)
		}
		seen[int(d)] = true
	}
}

func TestPlaceByNameIsDeterministic(t *testing.T) {
	m, err := dsl.Compile(program)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	first, err := placement.PlaceByName(m, "replicated_rule", 42, 2)
	if err != nil {
		t.Fatalf("PlaceByName: %v", err)
	}
	second, err := placement.PlaceByName(m, "replicated_rule", 42, 2)
	if err != nil {
		t.Fatalf("PlaceByName: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("got different replica counts across identical calls: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("position %d differs across identical calls: %d vs %d", i, first[i], second[i])
		}
	}
}

func TestPlaceByNameUnknownRule(t *testing.T) {
	m, err := dsl.Compile(program)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if _, err := placement.PlaceByName(m, "does-not-exist", 0, 2); err == nil {
		t.Error("expected an error for an unknown rule name")
	}
}
