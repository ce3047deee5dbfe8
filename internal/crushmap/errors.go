package crushmap

import "fmt"

// Error is the typed error returned by every mutator and by finalize. It
// follows the same Kind+Message shape the rest of this codebase uses so
// callers can branch on Kind without parsing Message.
type Error struct {
	Kind    string
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("map error (%v): %v", e.Kind, e.Message)
}

func errDuplicateName(kind, name string) error {
	return Error{Kind: "DuplicateName", Message: fmt.Sprintf("%s name %q is already in use", kind, name)}
}

func errUnknownItem(name string) error {
	return Error{Kind: "UnknownItem", Message: fmt.Sprintf("unknown item %q", name)}
}

func errUnknownType(name string) error {
	return Error{Kind: "UnknownType", Message: fmt.Sprintf("unknown type %q", name)}
}

func errDuplicateBucketID(id BucketID) error {
	return Error{Kind: "DuplicateBucketID", Message: fmt.Sprintf("bucket id %d is already assigned", id)}
}

func errPositionCollision(bucket string, pos int) error {
	return Error{Kind: "PositionCollision", Message: fmt.Sprintf("bucket %q: position %d is assigned to more than one item", bucket, pos)}
}

func errDuplicateItemName(bucket, item string) error {
	return Error{Kind: "DuplicateItemName", Message: fmt.Sprintf("bucket %q: item %q appears more than once", bucket, item)}
}

func errTypeLevelViolation(bucket string, childLevel, bucketLevel int) error {
	return Error{Kind: "TypeLevelViolation", Message: fmt.Sprintf("bucket %q (level %d): child has level %d, which is not strictly lower", bucket, bucketLevel, childLevel)}
}

func errIllegalOffload(f float64) error {
	return Error{Kind: "IllegalOffload", Message: fmt.Sprintf("offload value %v is outside [0, 1]", f)}
}

func errUnknownAlgorithm(name string) error {
	return Error{Kind: "UnknownAlgorithm", Message: fmt.Sprintf("unknown bucket algorithm %q", name)}
}

func errRuleInvariant(rule, msg string) error {
	return Error{Kind: "RuleInvariant", Message: fmt.Sprintf("rule %q: %s", rule, msg)}
}

func errWeightMismatch(bucket string, want, got uint64) error {
	return Error{Kind: "WeightMismatch", Message: fmt.Sprintf("bucket %q: summed weight mismatch: builder computed %d, finalize computed %d", bucket, want, got)}
}

func errNotFinalized() error {
	return Error{Kind: "NotFinalized", Message: "map has not been finalized"}
}

func errAlreadyFinalized() error {
	return Error{Kind: "AlreadyFinalized", Message: "map is already finalized and read-only"}
}
