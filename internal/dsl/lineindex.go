package dsl

import (
	"strings"

	"github.com/alecthomas/participle/v2"
)

// lineIndex maps a byte offset into the concatenated source back to a
// 1-based line and column and the text of that line, via a table mapping
// the offset of each physical line's start back to its line number.
type lineIndex struct {
	source      string
	lineOffsets []int // byte offset of the start of each line, 0-indexed by line number - 1
}

func newLineIndex(source string) *lineIndex {
	offsets := []int{0}
	for i, r := range source {
		if r == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return &lineIndex{source: source, lineOffsets: offsets}
}

// locate returns the 1-based line, 1-based column, and text of the line
// containing byte offset.
func (idx *lineIndex) locate(offset int) (line, col int, text string) {
	line = 1
	for i, start := range idx.lineOffsets {
		if start > offset {
			break
		}
		line = i + 1
	}

	lineStart := idx.lineOffsets[line-1]
	lineEnd := len(idx.source)
	if line < len(idx.lineOffsets) {
		lineEnd = idx.lineOffsets[line] - 1 // exclude the newline
	}
	if lineEnd < lineStart {
		lineEnd = lineStart
	}

	col = offset - lineStart + 1
	return line, col, idx.source[lineStart:lineEnd]
}

// enrichSyntaxError turns a raw participle parse error into a SyntaxError
// carrying the line, column, and source fragment nearest the failure, so
// it renders as "<line>:<col>: error: parse error at '<fragment>'".
func enrichSyntaxError(source string, err error) error {
	perr, ok := err.(participle.Error)
	if !ok {
		return SyntaxError{Kind: "ParseError", Message: err.Error()}
	}

	pos := perr.Position()
	idx := newLineIndex(source)

	line := pos.Line
	col := pos.Column
	var fragment string
	if line >= 1 {
		_, _, lineText := idx.locate(offsetForLine(idx, line))
		fragment = nearestFragment(lineText, col)
	}
	if line == 0 {
		line, col, fragment = 1, 1, nearestFragment(firstLine(source), 1)
	}

	return SyntaxError{
		Kind:     "ParseError",
		Message:  "parse error",
		Line:     line,
		Column:   col,
		Fragment: fragment,
	}
}

func offsetForLine(idx *lineIndex, line int) int {
	if line-1 < len(idx.lineOffsets) {
		return idx.lineOffsets[line-1]
	}
	return len(idx.source)
}

func firstLine(source string) string {
	if i := strings.IndexByte(source, '\n'); i >= 0 {
		return source[:i]
	}
	return source
}

// nearestFragment extracts the token-ish text at or after col (1-based)
// within line, for inclusion in the diagnostic message.
func nearestFragment(line string, col int) string {
	if col < 1 {
		col = 1
	}
	if col > len(line) {
		return strings.TrimSpace(line)
	}
	rest := line[col-1:]
	end := strings.IndexAny(rest, " \t")
	if end < 0 {
		end = len(rest)
	}
	if end == 0 {
		return strings.TrimSpace(line)
	}
	return rest[:end]
}
