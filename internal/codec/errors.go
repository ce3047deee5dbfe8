package codec

import "fmt"

// Error is the codec package's typed error, matching dsl.SyntaxError and
// crushmap.Error's Kind+Message shape: truncated input, bad magic, an
// unsupported version, or a declared size that exceeds remaining bytes.
type Error struct {
	Kind    string
	Message string
}

func (e Error) Error() string { return fmt.Sprintf("codec: %s: %s", e.Kind, e.Message) }

func errTruncated(what string) error {
	return Error{Kind: "Truncated", Message: fmt.Sprintf("unexpected end of input reading %s", what)}
}

func errNotFinalized() error {
	return Error{Kind: "NotFinalized", Message: "map has not been finalized; Encode requires a sealed Map"}
}

func errBadMagic() error {
	return Error{Kind: "BadMagic", Message: "input does not begin with the CRUSH map magic bytes"}
}

func errUnsupportedVersion(got uint32) error {
	return Error{Kind: "UnsupportedVersion", Message: fmt.Sprintf("unsupported format version %d", got)}
}

func errSectionOverrun(section string) error {
	return Error{Kind: "SectionOverrun", Message: fmt.Sprintf("%s section's declared size exceeds remaining bytes", section)}
}
