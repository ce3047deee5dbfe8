package placement

import "fmt"

// Error is the placement kernel's typed error.
type Error struct {
	Kind    string
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("placement: %s: %s", e.Kind, e.Message) }

func errUnknownRule(name string) error {
	return Error{Kind: "UnknownRule", Message: fmt.Sprintf("no rule named %q", name)}
}

func errNotFinalized() error {
	return Error{Kind: "NotFinalized", Message: "map has not been finalized; Place requires a sealed Map"}
}
