package decompiler_test

import (
	"strings"
	"testing"

	"github.com/crushlang/crush/internal/decompiler"
	"github.com/crushlang/crush/internal/dsl"
)

const program = `
type 0 device
type 1 host

device 0 osd0
device 1 osd1 offload 0.5

host host-a {
  id -3
  alg straw
  item osd0
  item osd1 weight 2.0
}

rule replicated_rule {
  pool 0
  type replicated
  min_size 1
  max_size 10
  step take host-a
  step chooseleaf firstn 0 type host
  step emit
}
`

func TestDecompileThenRecompileProducesEquivalentMap(t *testing.T) {
	m, err := dsl.Compile(program)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	text, err := decompiler.Decompile(m)
	if err != nil {
		t.Fatalf("Decompile: %v", err)
	}

	recompiled, err := dsl.Compile(text)
	if err != nil {
		t.Fatalf("recompiling decompiled source: %v\n--- decompiled source ---\n%s", err, text)
	}

	if _, ok := recompiled.Bucket(-3); !ok {
		t.Error("expected explicit bucket id -3 to survive decompile/recompile")
	}
	dev, ok := recompiled.Device(1)
	if !ok || dev.Offload == 0 {
		t.Error("expected osd1's offload to survive decompile/recompile")
	}
	rule, ok := recompiled.RuleByName("replicated_rule")
	if !ok {
		t.Fatal("expected rule name to survive decompile/recompile")
	}
	if len(rule.Steps) != 3 {
		t.Errorf("got %d steps, want 3", len(rule.Steps))
	}
}

// TestDecompileRoundTripsBucketWithHole covers §4.2's sizing rule paired
// with §4.6: a bucket whose explicit positions leave a real gap (no item
// clause for slot 1) must decompile and recompile to the same bucket
// shape, with the hole staying empty rather than resolving to device 0.
func TestDecompileRoundTripsBucketWithHole(t *testing.T) {
	m, err := dsl.Compile(`
type 0 device
type 1 host
device 0 a
device 1 b
host host-a {
  alg list
  item a pos 0
  item b pos 2
}
`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	text, err := decompiler.Decompile(m)
	if err != nil {
		t.Fatalf("Decompile: %v", err)
	}

	recompiled, err := dsl.Compile(text)
	if err != nil {
		t.Fatalf("recompiling decompiled source: %v\n--- decompiled source ---\n%s", err, text)
	}

	host, ok := recompiled.Bucket(-1)
	if !ok {
		t.Fatal("expected bucket host-a to survive decompile/recompile")
	}
	if len(host.Items) != 3 {
		t.Fatalf("len(host.Items) = %d, want 3", len(host.Items))
	}
	if !host.Items[1].IsHole() {
		t.Errorf("host.Items[1] = %v, want a hole", host.Items[1])
	}
	if got := host.Items[0].AsDevice(); got != 0 {
		t.Errorf("host.Items[0] device = %v, want 0", got)
	}
	if got := host.Items[2].AsDevice(); got != 1 {
		t.Errorf("host.Items[2] device = %v, want 1", got)
	}
}

func TestDecompileEmitsExplicitBucketID(t *testing.T) {
	m, err := dsl.Compile(program)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	text, err := decompiler.Decompile(m)
	if err != nil {
		t.Fatalf("Decompile: %v", err)
	}
	if !strings.Contains(text, "id -3") {
		t.Errorf("decompiled source missing explicit bucket id:\n%s", text)
	}
}
