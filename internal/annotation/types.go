// Package annotation parses the comment-based assertion grammar used
// by rule fixtures ("// Noncompliant", "// Secondary", "// Error",
// "// Fixed") and links secondary locations to their primary issues.
package annotation

import (
	"errors"
	"fmt"
)

// Kind enumerates the annotation keywords.
type Kind string

// Annotation keywords as they appear in fixture comments.
const (
	// Noncompliant marks a line expected to trigger a rule diagnostic.
	Noncompliant Kind = "Noncompliant"

	// Secondary marks a supporting location for an issue flagged
	// elsewhere.
	Secondary Kind = "Secondary"

	// Error marks a line expected to produce a compiler error that is
	// unrelated to the rule under test.
	Error Kind = "Error"

	// Fixed marks a line in a code-fix fixture that must no longer
	// produce any diagnostic.
	Fixed Kind = "Fixed"
)

var keywords = []Kind{Noncompliant, Secondary, Error, Fixed}

// Span is a column range on a single line. Columns are 1-based and
// counted in runes. The zero Span means "anywhere on the line".
type Span struct {
	// Column is the first column of the flagged range.
	Column int `json:"column"`

	// Length is the number of runes in the flagged range.
	Length int `json:"length"`
}

// IsZero reports whether the span is unspecified.
func (s Span) IsZero() bool { return s.Column == 0 }

// String renders the span in the "^C#L" shorthand.
func (s Span) String() string {
	if s.IsZero() {
		return ""
	}
	return fmt.Sprintf("^%d#%d", s.Column, s.Length)
}

// Assertion is a single annotation recognized in a fixture.
type Assertion struct {
	// Kind is the annotation keyword.
	Kind Kind `json:"kind"`

	// File is the fixture path the assertion was read from.
	File string `json:"file"`

	// Line is the target line the assertion applies to (1-based).
	Line int `json:"line"`

	// SourceLine is the line the annotation comment is written on.
	SourceLine int `json:"source_line"`

	// Offset is Line minus the line the annotation is anchored to.
	Offset int `json:"offset,omitempty"`

	// Span is the precise column range, if one was given.
	Span Span `json:"span,omitzero"`

	// Message is the expected diagnostic message ("{{...}}").
	Message string `json:"message,omitempty"`

	// IDs are issue identifiers used to link secondaries, or compiler
	// diagnostic codes for Error assertions.
	IDs []string `json:"ids,omitempty"`

	// Count is the number of issues expected on the line. Zero means one.
	Count int `json:"count,omitempty"`
}

// Position renders the assertion target as file:line[:col].
func (a Assertion) Position() string {
	if a.Span.IsZero() {
		return fmt.Sprintf("%s:%d", a.File, a.Line)
	}
	return fmt.Sprintf("%s:%d:%d", a.File, a.Line, a.Span.Column)
}

// ParseError describes a malformed annotation.
type ParseError struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Msg  string `json:"message"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// ParseErrors flattens an error returned by Parse or Link into the
// individual ParseError values it carries.
func ParseErrors(err error) []*ParseError {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*ParseError
		for _, e := range joined.Unwrap() {
			out = append(out, ParseErrors(e)...)
		}
		return out
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return []*ParseError{pe}
	}
	return []*ParseError{{Msg: err.Error()}}
}
