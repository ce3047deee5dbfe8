package dsl

import (
	"github.com/crushlang/crush/internal/crushmap"
)

// Compile parses source and runs the Semantic Builder over it, returning a
// finalized Map. This is the single entry point the top-level package's
// Compile function calls; the builder it constructs owns nothing beyond
// the lifetime of this one call.
func Compile(source string) (*crushmap.Map, error) {
	tree, err := crushParser.ParseString("", source)
	if err != nil {
		return nil, enrichSyntaxError(source, err)
	}

	b := newBuilder()
	m, err := b.build(tree)
	if err != nil {
		return nil, err
	}

	return m, nil
}
