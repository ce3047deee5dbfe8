// Package clilog is a small verbosity-gated stderr writer for crushtool's
// diagnostic output.
package clilog

import (
	"fmt"
	"os"
)

// Logger gates diagnostic output behind a verbosity count set by repeated
// -v flags.
type Logger struct {
	Verbosity int
}

// New returns a Logger at the given verbosity.
func New(verbosity int) *Logger {
	return &Logger{Verbosity: verbosity}
}

// V reports whether messages at level are enabled.
func (l *Logger) V(level int) bool {
	return l != nil && l.Verbosity >= level
}

// Printf writes a level-gated message to stderr, with a trailing newline
// added if the format doesn't already end in one.
func (l *Logger) Printf(level int, format string, args ...any) {
	if !l.V(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if len(msg) == 0 || msg[len(msg)-1] != '\n' {
		msg += "\n"
	}
	fmt.Fprint(os.Stderr, msg)
}
