package codec

import (
	"bytes"
	"sort"

	"github.com/crushlang/crush/internal/crushmap"
)

// Decode parses the binary wire form into a finalized Map. The per-bucket
// algorithm-specific trailing fields (UNIFORM item-weight, LIST cumulative
// weights, TREE node array, STRAW straw lengths) are read off the wire for
// format compliance but not reapplied directly: Finalize recomputes them
// deterministically from the same items/weights, which is exactly what
// decode(encode(m)) == m requires.
func Decode(data []byte) (*crushmap.Map, error) {
	top := newReader(data)

	if err := decodeHeader(top); err != nil {
		return nil, err
	}

	deviceRecs, maxDevices, err := decodeDevices(top)
	if err != nil {
		return nil, err
	}

	dirEntries, err := decodeBucketDirectory(top)
	if err != nil {
		return nil, err
	}

	bodiesSection, err := nextSection(top, "bucket bodies")
	if err != nil {
		return nil, err
	}
	bodiesData := bodiesSection.data

	ruleRecs, err := decodeRules(top)
	if err != nil {
		return nil, err
	}

	typeNames, itemNames, ruleNames, err := decodeNameTables(top)
	if err != nil {
		return nil, err
	}

	m := crushmap.NewMap()

	for _, t := range typeNames {
		if err := m.DefineType(t.level, t.name); err != nil {
			return nil, err
		}
	}

	for _, d := range deviceRecs {
		name, ok := itemNames[int(d.id)]
		if !ok {
			return nil, errTruncated("item name table (missing device name)")
		}
		if err := m.DefineDevice(crushmap.DeviceID(d.id), name); err != nil {
			return nil, err
		}
		if d.offload != 0 {
			if err := m.SetOffload(crushmap.DeviceID(d.id), crushmap.Fixed(d.offload)); err != nil {
				return nil, err
			}
		}
	}
	m.SetMaxDevices(int(maxDevices))

	bucketRecs := make([]bucketRecord, 0, len(dirEntries))
	for _, e := range dirEntries {
		if int(e.offset) > len(bodiesData) {
			return nil, errSectionOverrun("bucket body")
		}
		rec, err := decodeBucketBody(bodiesData[e.offset:])
		if err != nil {
			return nil, err
		}
		bucketRecs = append(bucketRecs, rec)
	}
	// Children always have a strictly lower type level than their parent
	// (enforced by AddBucket), so building in ascending-level order adds
	// every item before anything that references it, regardless of what
	// order the wire's id-ordered directory lists them in.
	sort.Slice(bucketRecs, func(i, j int) bool { return bucketRecs[i].typeLevel < bucketRecs[j].typeLevel })

	for _, rec := range bucketRecs {
		name, ok := itemNames[int(rec.id)]
		if !ok {
			return nil, errTruncated("item name table (missing bucket name)")
		}
		b := &crushmap.Bucket{
			ID:        crushmap.BucketID(rec.id),
			Name:      name,
			TypeLevel: rec.typeLevel,
			Alg:       crushmap.Algorithm(rec.alg),
			Items:     rec.items,
			Weights:   rec.weights,
		}
		if err := m.AddBucket(b); err != nil {
			return nil, err
		}
	}

	for i, rr := range ruleRecs {
		r := &crushmap.Rule{
			Name:    ruleNames[i],
			Pool:    rr.pool,
			Kind:    crushmap.RuleKind(rr.kind),
			MinSize: rr.minSize,
			MaxSize: rr.maxSize,
			Steps:   rr.steps,
		}
		if err := m.AddRule(r); err != nil {
			return nil, err
		}
	}

	if err := m.Finalize(); err != nil {
		return nil, err
	}

	return m, nil
}

func decodeHeader(top *reader) error {
	r, err := nextSection(top, "header")
	if err != nil {
		return err
	}
	got, err := r.take(4, "magic")
	if err != nil {
		return err
	}
	if !bytes.Equal(got, magic[:]) {
		return errBadMagic()
	}
	v, err := r.u32("version")
	if err != nil {
		return err
	}
	if v != version {
		return errUnsupportedVersion(v)
	}
	return nil
}

type deviceRecord struct {
	id      int32
	offload uint32
}

func decodeDevices(top *reader) ([]deviceRecord, uint32, error) {
	r, err := nextSection(top, "devices")
	if err != nil {
		return nil, 0, err
	}
	maxDevices, err := r.u32("max devices")
	if err != nil {
		return nil, 0, err
	}
	count, err := r.u32("device count")
	if err != nil {
		return nil, 0, err
	}
	recs := make([]deviceRecord, 0, count)
	for i := uint32(0); i < count; i++ {
		id, err := r.i32("device id")
		if err != nil {
			return nil, 0, err
		}
		offload, err := r.u32("device offload")
		if err != nil {
			return nil, 0, err
		}
		recs = append(recs, deviceRecord{id: id, offload: offload})
	}
	return recs, maxDevices, nil
}

type dirEntry struct {
	id     int32
	offset uint32
}

func decodeBucketDirectory(top *reader) ([]dirEntry, error) {
	r, err := nextSection(top, "bucket directory")
	if err != nil {
		return nil, err
	}
	count, err := r.u32("bucket directory count")
	if err != nil {
		return nil, err
	}
	entries := make([]dirEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		id, err := r.i32("bucket id")
		if err != nil {
			return nil, err
		}
		offset, err := r.u32("bucket offset")
		if err != nil {
			return nil, err
		}
		entries = append(entries, dirEntry{id: id, offset: offset})
	}
	return entries, nil
}

type bucketRecord struct {
	id        int32
	typeLevel int
	alg       uint8
	items     []crushmap.ItemID
	weights   []crushmap.Fixed
}

func decodeBucketBody(body []byte) (bucketRecord, error) {
	r := newReader(body)
	id, err := r.i32("bucket id")
	if err != nil {
		return bucketRecord{}, err
	}
	typeLevel, err := r.i32("bucket type level")
	if err != nil {
		return bucketRecord{}, err
	}
	alg, err := r.u8("bucket algorithm")
	if err != nil {
		return bucketRecord{}, err
	}
	if _, err := r.u64("bucket summed weight"); err != nil {
		return bucketRecord{}, err
	}
	size, err := r.u32("bucket size")
	if err != nil {
		return bucketRecord{}, err
	}

	items := make([]crushmap.ItemID, size)
	for i := range items {
		v, err := r.i32("bucket child id")
		if err != nil {
			return bucketRecord{}, err
		}
		items[i] = crushmap.ItemID(v)
	}
	weights := make([]crushmap.Fixed, size)
	for i := range weights {
		v, err := r.u32("bucket child weight")
		if err != nil {
			return bucketRecord{}, err
		}
		weights[i] = crushmap.Fixed(v)
	}

	return bucketRecord{id: id, typeLevel: int(typeLevel), alg: alg, items: items, weights: weights}, nil
}

type ruleRecord struct {
	pool    int
	kind    uint8
	minSize int
	maxSize int
	steps   []crushmap.Step
}

func decodeRules(top *reader) ([]ruleRecord, error) {
	r, err := nextSection(top, "rules")
	if err != nil {
		return nil, err
	}
	count, err := r.u32("rule count")
	if err != nil {
		return nil, err
	}
	recs := make([]ruleRecord, 0, count)
	for i := uint32(0); i < count; i++ {
		pool, err := r.i32("rule pool")
		if err != nil {
			return nil, err
		}
		kind, err := r.u8("rule kind")
		if err != nil {
			return nil, err
		}
		minSize, err := r.i32("rule min size")
		if err != nil {
			return nil, err
		}
		maxSize, err := r.i32("rule max size")
		if err != nil {
			return nil, err
		}
		stepCount, err := r.u32("rule step count")
		if err != nil {
			return nil, err
		}
		steps := make([]crushmap.Step, 0, stepCount)
		for j := uint32(0); j < stepCount; j++ {
			op, err := r.u8("step opcode")
			if err != nil {
				return nil, err
			}
			arg1, err := r.i32("step arg1")
			if err != nil {
				return nil, err
			}
			arg2, err := r.i32("step arg2")
			if err != nil {
				return nil, err
			}
			steps = append(steps, crushmap.Step{Op: crushmap.Opcode(op), Arg1: int(arg1), Arg2: int(arg2)})
		}
		recs = append(recs, ruleRecord{
			pool:    int(pool),
			kind:    kind,
			minSize: int(minSize),
			maxSize: int(maxSize),
			steps:   steps,
		})
	}
	return recs, nil
}

type typeNameRecord struct {
	level int
	name  string
}

func decodeNameTables(top *reader) ([]typeNameRecord, map[int]string, map[int]string, error) {
	r, err := nextSection(top, "name tables")
	if err != nil {
		return nil, nil, nil, err
	}

	typeCount, err := r.u32("type name count")
	if err != nil {
		return nil, nil, nil, err
	}
	types := make([]typeNameRecord, 0, typeCount)
	for i := uint32(0); i < typeCount; i++ {
		level, err := r.i32("type level")
		if err != nil {
			return nil, nil, nil, err
		}
		name, err := r.str("type name")
		if err != nil {
			return nil, nil, nil, err
		}
		types = append(types, typeNameRecord{level: int(level), name: name})
	}

	itemCount, err := r.u32("item name count")
	if err != nil {
		return nil, nil, nil, err
	}
	items := make(map[int]string, itemCount)
	for i := uint32(0); i < itemCount; i++ {
		id, err := r.i32("item id")
		if err != nil {
			return nil, nil, nil, err
		}
		name, err := r.str("item name")
		if err != nil {
			return nil, nil, nil, err
		}
		items[int(id)] = name
	}

	ruleCount, err := r.u32("rule name count")
	if err != nil {
		return nil, nil, nil, err
	}
	rules := make(map[int]string, ruleCount)
	for i := uint32(0); i < ruleCount; i++ {
		idx, err := r.u32("rule index")
		if err != nil {
			return nil, nil, nil, err
		}
		name, err := r.str("rule name")
		if err != nil {
			return nil, nil, nil, err
		}
		rules[int(idx)] = name
	}

	return types, items, rules, nil
}
