package crushmap

import (
	"sort"
	"strconv"
)

// Map is the in-memory representation of a cluster's placement hierarchy:
// devices, buckets, types, and rules, plus the derived caches finalize()
// computes. It is built incrementally through the mutators below by a
// single Builder, then sealed by Finalize and thereafter treated as
// immutable by every downstream consumer, including the codec.
type Map struct {
	maxDevices int
	devices    map[DeviceID]*Device

	buckets         map[BucketID]*Bucket
	reservedBuckets map[BucketID]bool
	nextAutoBucket  BucketID // next candidate id, counting down from -1

	types           []Type
	typeNameToLevel map[string]int
	typeLevelToName map[int]string

	rules         []*Rule
	ruleNameToIdx map[string]int

	itemNameToID map[string]ItemID

	finalized bool
}

func NewMap() *Map {
	return &Map{
		devices:         make(map[DeviceID]*Device),
		buckets:         make(map[BucketID]*Bucket),
		reservedBuckets: make(map[BucketID]bool),
		nextAutoBucket:  -1,
		typeNameToLevel: make(map[string]int),
		typeLevelToName: make(map[int]string),
		ruleNameToIdx:   make(map[string]int),
		itemNameToID:    make(map[string]ItemID),
	}
}

func (m *Map) checkMutable() error {
	if m.finalized {
		return errAlreadyFinalized()
	}
	return nil
}

// DefineType registers a hierarchy level, recording the name<->level mapping.
func (m *Map) DefineType(level int, name string) error {
	if err := m.checkMutable(); err != nil {
		return err
	}
	if _, exists := m.typeNameToLevel[name]; exists {
		return errDuplicateName("type", name)
	}
	if _, exists := m.typeLevelToName[level]; exists {
		return Error{Kind: "DuplicateType", Message: "type level " + strconv.Itoa(level) + " is already assigned"}
	}
	m.typeNameToLevel[name] = level
	m.typeLevelToName[level] = name
	m.types = append(m.types, Type{Level: level, Name: name})
	sort.Slice(m.types, func(i, j int) bool { return m.types[i].Level < m.types[j].Level })
	return nil
}

func (m *Map) TypeLevel(name string) (int, bool) {
	lvl, ok := m.typeNameToLevel[name]
	return lvl, ok
}

func (m *Map) TypeName(level int) (string, bool) {
	name, ok := m.typeLevelToName[level]
	return name, ok
}

func (m *Map) Types() []Type {
	out := make([]Type, len(m.types))
	copy(out, m.types)
	return out
}

// DefineDevice registers a device name/id pair: it asserts the name is
// unused, records both directions of the id<->name mapping, and extends
// max_devices if needed.
func (m *Map) DefineDevice(id DeviceID, name string) error {
	if err := m.checkMutable(); err != nil {
		return err
	}
	if _, exists := m.itemNameToID[name]; exists {
		return errDuplicateName("item", name)
	}
	m.devices[id] = &Device{ID: id, Name: name}
	m.itemNameToID[name] = ItemID(id)
	if int(id)+1 > m.maxDevices {
		m.maxDevices = int(id) + 1
	}
	return nil
}

// SetOffload records a device's offload fraction, already converted to
// fixed point and range-checked by the caller. Unlike the other mutators
// this is allowed after Finalize: the Builder applies collected offloads
// as its last step, once finalize has already sealed the bucket derived
// state that offload values play no part in.
func (m *Map) SetOffload(id DeviceID, offload Fixed) error {
	dev, ok := m.devices[id]
	if !ok {
		return Error{Kind: "UnknownDevice", Message: "device id has no definition"}
	}
	dev.Offload = offload
	return nil
}

func (m *Map) SetMaxDevices(n int) {
	if n > m.maxDevices {
		m.maxDevices = n
	}
}

func (m *Map) MaxDevices() int { return m.maxDevices }

func (m *Map) Device(id DeviceID) (*Device, bool) {
	d, ok := m.devices[id]
	return d, ok
}

// Devices returns devices ordered by id, ascending.
func (m *Map) Devices() []*Device {
	ids := make([]DeviceID, 0, len(m.devices))
	for id := range m.devices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*Device, len(ids))
	for i, id := range ids {
		out[i] = m.devices[id]
	}
	return out
}

// LookupItem resolves a name (device or bucket) to its ItemID. Every item
// reference elsewhere in the Map must resolve through this: an item name
// always refers to an already-defined device or bucket.
func (m *Map) LookupItem(name string) (ItemID, bool) {
	id, ok := m.itemNameToID[name]
	return id, ok
}

// ReserveBucketID marks id as spoken for by the Builder's pre-scan pass,
// so NextAutoBucketID never hands it out.
func (m *Map) ReserveBucketID(id BucketID) {
	m.reservedBuckets[id] = true
}

// NextAutoBucketID counts down from -1 (continuing below the last id it
// handed out) and returns the first id not already reserved or in use,
// and reserves it so a second auto-assignment in the same build does
// not collide with it.
func (m *Map) NextAutoBucketID() BucketID {
	id := m.nextAutoBucket
	for m.reservedBuckets[id] || m.buckets[id] != nil {
		id--
	}
	m.reservedBuckets[id] = true
	m.nextAutoBucket = id - 1
	return id
}

// AddBucket registers a fully-built bucket. Every non-hole item in
// b.Items must already be resolvable through LookupItem and have a type
// level strictly lower than b.TypeLevel; a NoItem slot (a pos-forced gap
// with no item clause) carries no type of its own and is skipped.
func (m *Map) AddBucket(b *Bucket) error {
	if err := m.checkMutable(); err != nil {
		return err
	}
	if _, exists := m.buckets[b.ID]; exists {
		return errDuplicateBucketID(b.ID)
	}
	if _, exists := m.itemNameToID[b.Name]; exists {
		return errDuplicateName("item", b.Name)
	}
	for _, child := range b.Items {
		if child.IsHole() {
			continue
		}
		childLevel, err := m.itemTypeLevel(child)
		if err != nil {
			return err
		}
		if childLevel >= b.TypeLevel {
			return errTypeLevelViolation(b.Name, childLevel, b.TypeLevel)
		}
	}

	m.buckets[b.ID] = b
	m.itemNameToID[b.Name] = ItemID(b.ID)
	return nil
}

func (m *Map) itemTypeLevel(id ItemID) (int, error) {
	if id.IsDevice() {
		if _, ok := m.devices[id.AsDevice()]; !ok {
			return 0, errUnknownItem(strconv.Itoa(int(id)))
		}
		return 0, nil
	}
	b, ok := m.buckets[id.AsBucket()]
	if !ok {
		return 0, errUnknownItem(strconv.Itoa(int(id)))
	}
	return b.TypeLevel, nil
}

func (m *Map) Bucket(id BucketID) (*Bucket, bool) {
	b, ok := m.buckets[id]
	return b, ok
}

// ItemName resolves an ItemID back to the device or bucket name that was
// given to it, the reverse of LookupItem. Used by the decompiler to turn
// item/take references back into names.
func (m *Map) ItemName(id ItemID) (string, bool) {
	if id.IsHole() {
		return "", false
	}
	if id.IsDevice() {
		d, ok := m.devices[id.AsDevice()]
		if !ok {
			return "", false
		}
		return d.Name, true
	}
	b, ok := m.buckets[id.AsBucket()]
	if !ok {
		return "", false
	}
	return b.Name, true
}

// Buckets returns buckets ordered by id, most negative first — the same
// order the codec and decompiler emit them in.
func (m *Map) Buckets() []*Bucket {
	ids := make([]BucketID, 0, len(m.buckets))
	for id := range m.buckets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*Bucket, len(ids))
	for i, id := range ids {
		out[i] = m.buckets[id]
	}
	return out
}

// AddRule registers a placement program, enforcing the invariant that it
// contains at least one TAKE before any CHOOSE*, and at least one EMIT.
func (m *Map) AddRule(r *Rule) error {
	if err := m.checkMutable(); err != nil {
		return err
	}
	if r.Name != "" {
		if _, exists := m.ruleNameToIdx[r.Name]; exists {
			return errDuplicateName("rule", r.Name)
		}
	}
	if err := validateRuleSteps(r); err != nil {
		return err
	}

	if r.Name != "" {
		m.ruleNameToIdx[r.Name] = len(m.rules)
	}
	m.rules = append(m.rules, r)
	return nil
}

func validateRuleSteps(r *Rule) error {
	sawTake := false
	sawEmit := false
	for _, step := range r.Steps {
		switch step.Op {
		case OpTake:
			sawTake = true
		case OpChooseFirstN, OpChooseIndep, OpChooseLeafFirstN, OpChooseLeafIndep:
			if !sawTake {
				return errRuleInvariant(ruleLabel(r), "a choose/chooseleaf step appears before any take step")
			}
		case OpEmit:
			if !sawTake {
				return errRuleInvariant(ruleLabel(r), "an emit step appears before any take step")
			}
			sawEmit = true
		}
	}
	if !sawTake {
		return errRuleInvariant(ruleLabel(r), "rule has no take step")
	}
	if !sawEmit {
		return errRuleInvariant(ruleLabel(r), "rule has no emit step")
	}
	return nil
}

func ruleLabel(r *Rule) string {
	if r.Name != "" {
		return r.Name
	}
	return "<unnamed>"
}

func (m *Map) Rules() []*Rule {
	out := make([]*Rule, len(m.rules))
	copy(out, m.rules)
	return out
}

func (m *Map) RuleByName(name string) (*Rule, bool) {
	idx, ok := m.ruleNameToIdx[name]
	if !ok {
		return nil, false
	}
	return m.rules[idx], true
}

func (m *Map) IsFinalized() bool { return m.finalized }

// RequireFinalized is the precondition check for callers outside this
// package — the codec and the reference placement kernel — that only make
// sense against a sealed Map: before Finalize, bucket AlgData is nil and
// SummedWeight is whatever the Builder last wrote, neither of which a
// consumer should read.
func (m *Map) RequireFinalized() error {
	if !m.finalized {
		return errNotFinalized()
	}
	return nil
}

