// Package diagnostic defines the diagnostics an analyzer actually
// reported and reads them from the native JSON format or SARIF 2.1.0.
package diagnostic

import (
	"crypto/sha256"
	"fmt"
	"regexp"

	"github.com/unbound-force/noncompliant/internal/annotation"
)

// Severity is the reported diagnostic level.
type Severity string

// Severity constants, named after SARIF levels.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityNote    Severity = "note"
	SeverityNone    Severity = "none"
)

// Location is a source range. Lines and columns are 1-based; columns
// count runes. Zero columns mean the column is unknown.
type Location struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column,omitempty"`
	EndLine   int    `json:"end_line,omitempty"`
	EndColumn int    `json:"end_column,omitempty"`

	// Message is the text attached to a secondary location.
	Message string `json:"message,omitempty"`
}

// Span returns the single-line column range of the location. It is
// zero when the column is unknown; a range that crosses lines has
// zero length.
func (l Location) Span() annotation.Span {
	if l.Column == 0 {
		return annotation.Span{}
	}
	length := 0
	if (l.EndLine == 0 || l.EndLine == l.Line) && l.EndColumn > l.Column {
		length = l.EndColumn - l.Column
	}
	return annotation.Span{Column: l.Column, Length: length}
}

// String renders file:line[:col].
func (l Location) String() string {
	if l.Column == 0 {
		return fmt.Sprintf("%s:%d", l.File, l.Line)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Diagnostic is a single reported issue.
type Diagnostic struct {
	// ID is a stable identifier for diffing across runs
	// (sha256 of rule, location and message).
	ID string `json:"id,omitempty"`

	// Rule is the analyzer rule ID or compiler diagnostic code.
	Rule string `json:"rule"`

	// Severity is the reported level.
	Severity Severity `json:"severity,omitempty"`

	// Location is the primary location.
	Location Location `json:"location"`

	// Message is the diagnostic message.
	Message string `json:"message"`

	// Secondary lists additional locations.
	Secondary []Location `json:"secondary,omitempty"`
}

// IsCompiler reports whether the diagnostic comes from the compiler
// according to pattern.
func (d Diagnostic) IsCompiler(pattern *regexp.Regexp) bool {
	return pattern != nil && pattern.MatchString(d.Rule)
}

// GenerateID produces a stable, deterministic ID for a diagnostic. The
// ID is a sha256 hash truncated to 8 hex characters, prefixed with
// "dg-".
func GenerateID(rule string, loc Location, message string) string {
	input := fmt.Sprintf("%s:%s:%d:%d:%s", rule, loc.File, loc.Line, loc.Column, message)
	hash := sha256.Sum256([]byte(input))
	return fmt.Sprintf("dg-%x", hash[:4])
}

func assignIDs(diags []Diagnostic) {
	for i := range diags {
		if diags[i].ID == "" {
			diags[i].ID = GenerateID(diags[i].Rule, diags[i].Location, diags[i].Message)
		}
	}
}
