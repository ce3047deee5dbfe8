package dsl

import "fmt"

// SyntaxError is returned for both lex/parse failures and the semantic
// errors the Builder raises while walking the parsed tree. Line and
// Column are 1-based and, for parse failures, come from the position the
// grammar library reports; lineIndex looks up that line's text in the
// original source to extract Fragment.
type SyntaxError struct {
	Kind     string
	Message  string
	Line     int
	Column   int
	Fragment string
}

func (e SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%d:%d: error: %s at '%s'", e.Line, e.Column, e.Message, e.Fragment)
	}
	return fmt.Sprintf("syntax error (%v): %v", e.Kind, e.Message)
}

func errUnknownItem(name string) error {
	return SyntaxError{Kind: "UnknownItem", Message: fmt.Sprintf("unknown item %q", name)}
}

func errUnknownType(name string) error {
	return SyntaxError{Kind: "UnknownType", Message: fmt.Sprintf("unknown type %q", name)}
}

func errUnknownAlgorithm(name string) error {
	return SyntaxError{Kind: "UnknownAlgorithm", Message: fmt.Sprintf("unknown bucket algorithm %q", name)}
}

func errUnknownRuleKind(name string) error {
	return SyntaxError{Kind: "UnknownRuleType", Message: fmt.Sprintf("unknown rule type %q", name)}
}

func errIllegalOffload(value float64) error {
	return SyntaxError{Kind: "IllegalOffload", Message: fmt.Sprintf("offload value %v is outside [0, 1]", value)}
}

func errPositionCollision(bucket string, pos int) error {
	return SyntaxError{Kind: "PositionCollision", Message: fmt.Sprintf("bucket %q: position %d is used by more than one item", bucket, pos)}
}

func errDuplicateItemName(bucket, item string) error {
	return SyntaxError{Kind: "DuplicateItemName", Message: fmt.Sprintf("bucket %q: item %q appears more than once", bucket, item)}
}
