// Package errors defines the error taxonomy of the trunk pipeline. Every
// stage fails with one of these types so callers can tell lexing, parsing,
// resolution, and build-environment failures apart.
package errors

import (
	"fmt"
	"strings"
	"time"

	"github.com/edsrzf/trunk/token"
)

// LexError reports a character sequence that matches no token rule.
type LexError struct {
	Msg string
	Pos token.Position
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at %s: %s", e.Pos, e.Msg)
}

// ParseError reports a token stream that does not match the grammar. When
// Msg is set it is used verbatim; otherwise the message is built from the
// expected token kinds and the token actually found.
type ParseError struct {
	Expected []token.Kind
	Msg      string
	Got      token.Token
}

func (e *ParseError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("parse error at %s: %s", e.Got.Span.From, e.Msg)
	}
	kinds := make([]string, len(e.Expected))
	for i, k := range e.Expected {
		kinds[i] = k.String()
	}
	return fmt.Sprintf("parse error at %s: expected one of %s, got %s",
		e.Got.Span.From, strings.Join(kinds, ", "), e.Got.Name())
}

// ResolutionError reports a name or literal the compiler could not bind:
// unresolved or duplicate declarations, misused bindings, or literals with
// no exact target-language representation.
type ResolutionError struct {
	Msg  string
	Name string
	Pos  token.Position
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolution error at %s: %s", e.Pos, e.Msg)
}

// BuildEnvironmentError reports a failed toolchain command during build
// environment assembly, naming the step and carrying the command's output.
type BuildEnvironmentError struct {
	Step   string
	Output string
	Err    error
}

func (e *BuildEnvironmentError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("build environment: %s: %s", e.Step, e.Err)
	}
	return fmt.Sprintf("build environment: %s: %s\n%s", e.Step, e.Err, e.Output)
}

func (e *BuildEnvironmentError) Unwrap() error { return e.Err }

// TimeoutError reports a toolchain command that did not finish within the
// configured bound.
type TimeoutError struct {
	Step  string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("build environment: %s: timed out after %s", e.Step, e.After)
}

// IOError reports a filesystem failure on a named path.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
