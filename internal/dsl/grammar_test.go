package dsl

import "testing"

const sampleSource = `
type 0 device
type 1 host

device 0 osd0
device 1 osd1 offload 0.25

host host-a {
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

func TestParseSampleProgram(t *testing.T) {
	tree, err := crushParser.ParseString("", sampleSource)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	var devices, types, buckets, rules int
	for _, e := range tree.Entries {
		switch {
		case e.Device != nil:
			devices++
		case e.Type != nil:
			types++
		case e.Bucket != nil:
			buckets++
		case e.Rule != nil:
			rules++
		}
	}

	if devices != 2 || types != 2 || buckets != 1 || rules != 1 {
		t.Errorf("got devices=%d types=%d buckets=%d rules=%d, want 2 2 1 1", devices, types, buckets, rules)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := crushParser.ParseString("", "this is not crush dsl {{{"); err == nil {
		t.Error("expected a parse error for malformed input")
	}
}

func TestChooseleafParsesBeforeChoosePrefix(t *testing.T) {
	tree, err := crushParser.ParseString("", `
rule r {
  pool 0
  type replicated
  min_size 1
  max_size 1
  step take x
  step chooseleaf indep 1 type host
  step emit
}
`)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	steps := tree.Entries[0].Rule.Steps
	if steps[1].ChooseLeaf == nil {
		t.Fatal("expected the second step to parse as chooseleaf")
	}
	if !steps[1].ChooseLeaf.Indep {
		t.Error("expected Indep to be set")
	}
}
