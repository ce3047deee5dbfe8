package crushmap

import "math"

// DeviceID identifies a leaf device. Device ids are non-negative.
type DeviceID int

// BucketID identifies an interior bucket node. Bucket ids are strictly
// negative; BucketSlot packs them into a dense array: slot = -1 - id.
type BucketID int

func (id BucketID) Slot() int { return -1 - int(id) }

func SlotToBucketID(slot int) BucketID { return BucketID(-1 - slot) }

// ItemID is either a DeviceID (>= 0) or a BucketID (< 0): a single
// signed-integer child reference used throughout the on-disk and
// in-memory forms, so a bucket's children are always addressed by id,
// never by pointer.
type ItemID int

// NoItem is the sentinel ItemID marking a bucket slot with no item clause:
// a hole forced by §4.2's sizing rule when an explicit pos leaves an
// earlier position untargeted (e.g. "item a pos 0" + "item b pos 2" with
// nothing at position 1). It must never alias a real device or bucket id:
// device ids are non-negative and bounded by max_devices, and bucket ids
// are bounded by max_buckets via bucket_slot = -1-id, so math.MinInt32
// falls outside both ranges.
const NoItem ItemID = ItemID(math.MinInt32)

func (id ItemID) IsHole() bool       { return id == NoItem }
func (id ItemID) IsDevice() bool     { return id >= 0 }
func (id ItemID) AsDevice() DeviceID { return DeviceID(id) }
func (id ItemID) AsBucket() BucketID { return BucketID(id) }

// Algorithm is the within-bucket selection policy.
type Algorithm int

const (
	Uniform Algorithm = iota
	List
	Tree
	Straw
)

func (a Algorithm) String() string {
	switch a {
	case Uniform:
		return "uniform"
	case List:
		return "list"
	case Tree:
		return "tree"
	case Straw:
		return "straw"
	default:
		return "unknown"
	}
}

func AlgorithmFromName(name string) (Algorithm, bool) {
	switch name {
	case "uniform":
		return Uniform, true
	case "list":
		return List, true
	case "tree":
		return Tree, true
	case "straw":
		return Straw, true
	default:
		return 0, false
	}
}

// RuleKind is a rule's storage-partition strategy.
type RuleKind int

const (
	Replicated RuleKind = iota
	Raid4
)

func (k RuleKind) String() string {
	if k == Raid4 {
		return "raid4"
	}
	return "replicated"
}

func RuleKindFromName(name string) (RuleKind, bool) {
	switch name {
	case "replicated":
		return Replicated, true
	case "raid4":
		return Raid4, true
	default:
		return 0, false
	}
}

// Opcode is a rule step's tagged instruction kind.
type Opcode int

const (
	OpNoop Opcode = iota
	OpTake
	OpChooseFirstN
	OpChooseIndep
	OpChooseLeafFirstN
	OpChooseLeafIndep
	OpEmit
)

// Step is one instruction of a rule's placement program. Arg1/Arg2 are
// interpreted per Op:
//
//	OpTake:             Arg1 = starting item id, Arg2 unused
//	OpChoose*:          Arg1 = n (<=0 means "replicas + n"), Arg2 = type level
//	OpEmit, OpNoop:      both unused
type Step struct {
	Op   Opcode
	Arg1 int
	Arg2 int
}

// Type is one level of the placement hierarchy. Level 0 is reserved for
// devices.
type Type struct {
	Level int
	Name  string
}

// Device is a leaf node.
type Device struct {
	ID      DeviceID
	Name    string
	Offload Fixed
}

// Bucket is an interior tree node aggregating children. AlgData is
// populated by finalize() and is nil beforehand.
type Bucket struct {
	ID        BucketID
	Name      string
	TypeLevel int
	Alg       Algorithm

	Items   []ItemID
	Weights []Fixed

	SummedWeight uint64

	AlgData BucketAlgData
}

// BucketAlgData is the tagged variant of a bucket's algorithm-specific
// derived state, computed by finalize() and consumed by the codec and the
// reference placement kernel. Exactly one concrete type is ever set, chosen
// by the bucket's Alg.
type BucketAlgData interface {
	isBucketAlgData()
}

// UniformData holds the single per-item weight UNIFORM buckets require all
// children to share.
type UniformData struct {
	ItemWeight Fixed
}

func (UniformData) isBucketAlgData() {}

// ListData holds, for each position i (0-indexed, newest-first: the order
// LIST's own selection rule walks in), the summed weight of items at
// position >= i.
type ListData struct {
	CumulativeFromHere []uint64
}

func (ListData) isBucketAlgData() {}

// TreeData holds the precomputed complete binary tree of per-subtree
// summed weights: len(Nodes) == 2*nextPow2(len(items)), i.e.
// 2*nextPow2-1 meaningful entries, 1-indexed (Nodes[0] is unused padding
// so that node i's children are 2i and 2i+1); see tree.go.
type TreeData struct {
	Nodes []uint64
}

func (TreeData) isBucketAlgData() {}

// StrawData holds the precomputed straw length per item, parallel to Items.
type StrawData struct {
	StrawLengths []uint64
}

func (StrawData) isBucketAlgData() {}

// Rule is a placement program.
type Rule struct {
	Name    string
	Pool    int
	Kind    RuleKind
	MinSize int
	MaxSize int
	Steps   []Step
}
