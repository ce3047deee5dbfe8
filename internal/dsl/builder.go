package dsl

import (
	"github.com/crushlang/crush/internal/crushmap"
)

// pendingOffload is an offload value computed while walking a device
// declaration but not applied to the Map until after Finalize: once every
// top-level construct has been processed and Map.Finalize has sealed the
// bucket derived state, the builder applies the offloads it collected
// along the way.
type pendingOffload struct {
	id      crushmap.DeviceID
	offload crushmap.Fixed
}

// builder is the Semantic Builder: a short-lived value that lives for
// exactly one Compile call and owns no state beyond it.
type builder struct {
	m        *crushmap.Map
	offloads []pendingOffload
}

func newBuilder() *builder {
	return &builder{m: crushmap.NewMap()}
}

// build runs the two-pass Builder over a parsed Program and returns a
// finalized Map.
func (b *builder) build(tree *Program) (*crushmap.Map, error) {
	// Pass 1: pre-scan explicitly assigned bucket ids so auto-assignment
	// never collides with one appearing later in source order.
	for _, e := range tree.Entries {
		if e.Bucket != nil && e.Bucket.ID != nil && *e.Bucket.ID != 0 {
			b.m.ReserveBucketID(crushmap.BucketID(*e.Bucket.ID))
		}
	}

	// Pass 2: walk top-level constructs in source order.
	for _, e := range tree.Entries {
		var err error
		switch {
		case e.Device != nil:
			err = b.walkDevice(e.Device)
		case e.Type != nil:
			err = b.walkType(e.Type)
		case e.Bucket != nil:
			err = b.walkBucket(e.Bucket)
		case e.Rule != nil:
			err = b.walkRule(e.Rule)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := b.m.Finalize(); err != nil {
		return nil, err
	}

	for _, po := range b.offloads {
		if err := b.m.SetOffload(po.id, po.offload); err != nil {
			return nil, err
		}
	}

	return b.m, nil
}

func (b *builder) walkDevice(d *DeviceDecl) error {
	id := crushmap.DeviceID(d.ID)
	if err := b.m.DefineDevice(id, d.Name); err != nil {
		return err
	}

	var f float64
	hasOffload := true
	switch {
	case d.Offload != nil:
		f = *d.Offload
	case d.Load != nil:
		f = 1 - *d.Load
	case d.Down:
		f = 1.0
	default:
		hasOffload = false
	}

	if !hasOffload {
		return nil
	}
	if f < 0 || f > 1 {
		return errIllegalOffload(f)
	}

	b.offloads = append(b.offloads, pendingOffload{id: id, offload: crushmap.FixedFromFloat(f)})
	return nil
}

func (b *builder) walkType(t *TypeDecl) error {
	return b.m.DefineType(t.Level, t.Name)
}

func (b *builder) walkBucket(decl *BucketDecl) error {
	typeLevel, ok := b.m.TypeLevel(decl.TypeName)
	if !ok {
		return errUnknownType(decl.TypeName)
	}

	alg, ok := crushmap.AlgorithmFromName(decl.Alg)
	if !ok {
		return errUnknownAlgorithm(decl.Alg)
	}

	size, filled, err := layoutPositions(decl)
	if err != nil {
		return err
	}

	items := make([]crushmap.ItemID, size)
	for i := range items {
		items[i] = crushmap.NoItem
	}
	weights := make([]crushmap.Fixed, size)
	seenNames := make(map[string]bool, len(decl.Items))
	curPos := 0

	for _, item := range decl.Items {
		if seenNames[item.Name] {
			return errDuplicateItemName(decl.Name, item.Name)
		}
		seenNames[item.Name] = true

		itemID, ok := b.m.LookupItem(item.Name)
		if !ok {
			return errUnknownItem(item.Name)
		}

		var weight crushmap.Fixed
		switch {
		case item.Weight != nil:
			weight = crushmap.FixedFromFloat(*item.Weight)
		case !itemID.IsDevice():
			child, _ := b.m.Bucket(itemID.AsBucket())
			weight = crushmap.Fixed(child.SummedWeight)
		default:
			weight = crushmap.FixedOne
		}

		pos := 0
		if item.Pos != nil {
			pos = *item.Pos
		} else {
			for filled[curPos] {
				curPos++
			}
			pos = curPos
			curPos++
		}
		filled[pos] = true

		items[pos] = itemID
		weights[pos] = weight
	}

	var id crushmap.BucketID
	if decl.ID == nil || *decl.ID == 0 {
		id = b.m.NextAutoBucketID()
	} else {
		id = crushmap.BucketID(*decl.ID)
	}

	bucket := &crushmap.Bucket{
		ID:           id,
		Name:         decl.Name,
		TypeLevel:    typeLevel,
		Alg:          alg,
		Items:        items,
		Weights:      weights,
		SummedWeight: sumFixed(weights),
	}
	return b.m.AddBucket(bucket)
}

// layoutPositions scans a bucket's item clauses for explicit pos
// attributes, sizing the items/weights vectors to max(count, max_pos+1)
// and marking every explicitly claimed slot as filled up front.
func layoutPositions(decl *BucketDecl) (size int, filled []bool, err error) {
	size = len(decl.Items)
	maxPos := -1
	occupied := make(map[int]bool)

	for _, item := range decl.Items {
		if item.Pos == nil {
			continue
		}
		if occupied[*item.Pos] {
			return 0, nil, errPositionCollision(decl.Name, *item.Pos)
		}
		occupied[*item.Pos] = true
		if *item.Pos > maxPos {
			maxPos = *item.Pos
		}
	}

	if maxPos+1 > size {
		size = maxPos + 1
	}

	filled = make([]bool, size)
	for pos := range occupied {
		filled[pos] = true
	}
	return size, filled, nil
}

func (b *builder) walkRule(decl *RuleDecl) error {
	kind, ok := crushmap.RuleKindFromName(decl.Kind)
	if !ok {
		return errUnknownRuleKind(decl.Kind)
	}

	steps := make([]crushmap.Step, 0, len(decl.Steps))
	for _, s := range decl.Steps {
		step, err := b.convertStep(s)
		if err != nil {
			return err
		}
		steps = append(steps, step)
	}

	name := ""
	if decl.Name != nil {
		name = *decl.Name
	}

	rule := &crushmap.Rule{
		Name:    name,
		Pool:    decl.Pool,
		Kind:    kind,
		MinSize: decl.MinSize,
		MaxSize: decl.MaxSize,
		Steps:   steps,
	}
	return b.m.AddRule(rule)
}

func (b *builder) convertStep(s *StepDecl) (crushmap.Step, error) {
	switch {
	case s.Take != nil:
		itemID, ok := b.m.LookupItem(s.Take.Item)
		if !ok {
			return crushmap.Step{}, errUnknownItem(s.Take.Item)
		}
		return crushmap.Step{Op: crushmap.OpTake, Arg1: int(itemID)}, nil

	case s.ChooseLeaf != nil:
		return b.convertChoose(s.ChooseLeaf, true)

	case s.Choose != nil:
		return b.convertChoose(s.Choose, false)

	case s.Emit:
		return crushmap.Step{Op: crushmap.OpEmit}, nil

	default:
		return crushmap.Step{Op: crushmap.OpNoop}, nil
	}
}

func (b *builder) convertChoose(c *StepChooseDecl, leaf bool) (crushmap.Step, error) {
	typeLevel, ok := b.m.TypeLevel(c.Type)
	if !ok {
		return crushmap.Step{}, errUnknownType(c.Type)
	}

	var op crushmap.Opcode
	switch {
	case leaf && c.Indep:
		op = crushmap.OpChooseLeafIndep
	case leaf && c.Firstn:
		op = crushmap.OpChooseLeafFirstN
	case !leaf && c.Indep:
		op = crushmap.OpChooseIndep
	default:
		op = crushmap.OpChooseFirstN
	}

	return crushmap.Step{Op: op, Arg1: c.N, Arg2: typeLevel}, nil
}

func sumFixed(weights []crushmap.Fixed) uint64 {
	var sum uint64
	for _, w := range weights {
		sum += uint64(w)
	}
	return sum
}
