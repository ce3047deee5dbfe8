package decompiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crushlang/crush/internal/crushmap"
)

// Decompile renders a finalized Map as DSL source that recompiles to a
// byte-identical Map. Types emit in level order, buckets in id order
// (most negative first), and each bucket's children in position order.
func Decompile(m *crushmap.Map) (string, error) {
	var b strings.Builder

	for _, t := range m.Types() {
		fmt.Fprintf(&b, "type %d %s\n", t.Level, t.Name)
	}

	for _, d := range m.Devices() {
		writeDevice(&b, d)
	}

	for _, bucket := range m.Buckets() {
		if err := writeBucket(&b, m, bucket); err != nil {
			return "", err
		}
	}

	for _, r := range m.Rules() {
		if err := writeRule(&b, m, r); err != nil {
			return "", err
		}
	}

	return b.String(), nil
}

func writeDevice(b *strings.Builder, d *crushmap.Device) {
	fmt.Fprintf(b, "device %d %s", int(d.ID), d.Name)
	if d.Offload != 0 {
		fmt.Fprintf(b, " offload %s", formatFixed(d.Offload))
	}
	b.WriteByte('\n')
}

// writeBucket emits a bucket's block, deciding per item whether an explicit
// pos is required to reproduce its slot on recompilation: UNIFORM and TREE
// buckets always pin position; LIST and STRAW only pin it where the
// natural left-to-right auto-placement the Builder performs would land the
// item somewhere else, which happens only when an earlier hole (a
// crushmap.NoItem slot with no item clause of its own) has shifted the
// count.
func writeBucket(b *strings.Builder, m *crushmap.Map, bucket *crushmap.Bucket) error {
	typeName, _ := m.TypeName(bucket.TypeLevel)
	fmt.Fprintf(b, "%s %s {\n", typeName, bucket.Name)
	fmt.Fprintf(b, "  id %d\n", int(bucket.ID))
	fmt.Fprintf(b, "  alg %s\n", bucket.Alg.String())

	alwaysPin := bucket.Alg == crushmap.Uniform || bucket.Alg == crushmap.Tree
	autoPos := 0
	filled := make([]bool, len(bucket.Items))

	for pos, item := range bucket.Items {
		if item.IsHole() {
			// A pos-forced gap with no item clause of its own. Nothing to
			// emit; the Builder's auto-placement walk never assigns a name
			// to it either.
			continue
		}
		name, ok := m.ItemName(item)
		if !ok {
			return errDanglingBucketItem(bucket.Name, int(item))
		}

		needsPos := alwaysPin
		for autoPos < len(filled) && filled[autoPos] {
			autoPos++
		}
		if autoPos != pos {
			needsPos = true
		}
		filled[pos] = true
		if autoPos == pos {
			autoPos++
		}

		fmt.Fprintf(b, "  item %s", name)
		if bucket.Weights[pos] != defaultWeight(m, item) {
			fmt.Fprintf(b, " weight %s", formatFixed(bucket.Weights[pos]))
		}
		if needsPos {
			fmt.Fprintf(b, " pos %d", pos)
		}
		b.WriteByte('\n')
	}

	b.WriteString("}\n")
	return nil
}

// defaultWeight is the weight the Builder assigns an item clause with no
// explicit `weight` attribute: 1.0 for a device, or the referenced bucket's
// own summed weight.
func defaultWeight(m *crushmap.Map, item crushmap.ItemID) crushmap.Fixed {
	if item.IsDevice() {
		return crushmap.FixedOne
	}
	child, ok := m.Bucket(item.AsBucket())
	if !ok {
		return crushmap.FixedOne
	}
	return crushmap.Fixed(child.SummedWeight)
}

func writeRule(b *strings.Builder, m *crushmap.Map, r *crushmap.Rule) error {
	b.WriteString("rule")
	if r.Name != "" {
		fmt.Fprintf(b, " %s", r.Name)
	}
	b.WriteString(" {\n")
	fmt.Fprintf(b, "  pool %d\n", r.Pool)
	fmt.Fprintf(b, "  type %s\n", r.Kind.String())
	fmt.Fprintf(b, "  min_size %d\n", r.MinSize)
	fmt.Fprintf(b, "  max_size %d\n", r.MaxSize)

	for _, s := range r.Steps {
		line, err := formatStep(m, s)
		if err != nil {
			return err
		}
		if line != "" {
			fmt.Fprintf(b, "  step %s\n", line)
		}
	}

	b.WriteString("}\n")
	return nil
}

func formatStep(m *crushmap.Map, s crushmap.Step) (string, error) {
	switch s.Op {
	case crushmap.OpTake:
		name, ok := m.ItemName(crushmap.ItemID(s.Arg1))
		if !ok {
			return "", errDanglingItem(s.Arg1)
		}
		return "take " + name, nil

	case crushmap.OpChooseFirstN, crushmap.OpChooseIndep, crushmap.OpChooseLeafFirstN, crushmap.OpChooseLeafIndep:
		typeName, ok := m.TypeName(s.Arg2)
		if !ok {
			return "", Error{Kind: "DanglingType", Message: "rule step references an unregistered type level"}
		}
		verb := "choose"
		if s.Op == crushmap.OpChooseLeafFirstN || s.Op == crushmap.OpChooseLeafIndep {
			verb = "chooseleaf"
		}
		mode := "firstn"
		if s.Op == crushmap.OpChooseIndep || s.Op == crushmap.OpChooseLeafIndep {
			mode = "indep"
		}
		return fmt.Sprintf("%s %s %d type %s", verb, mode, s.Arg1, typeName), nil

	case crushmap.OpEmit:
		return "emit", nil

	default:
		return "", nil
	}
}

// formatFixed renders a 16.16 fixed-point value with enough decimal digits
// (six, finer than the format's own 1/65536 step) that reparsing always
// recovers the identical Fixed after rounding.
func formatFixed(f crushmap.Fixed) string {
	return strconv.FormatFloat(f.Float(), 'f', 6, 64)
}
