package decompiler

import "fmt"

// Error is the decompiler's typed error for maps that cannot be rendered
// back to text, matching dsl.SyntaxError / crushmap.Error's Kind+Message
// shape.
type Error struct {
	Kind    string
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("decompile: %s: %s", e.Kind, e.Message) }

func errDanglingItem(id int) error {
	return Error{Kind: "DanglingItem", Message: fmt.Sprintf("rule step references item id %d with no registered name", id)}
}

func errDanglingBucketItem(bucket string, id int) error {
	return Error{Kind: "DanglingItem", Message: fmt.Sprintf("bucket %q: item id %d has no registered name", bucket, id)}
}
