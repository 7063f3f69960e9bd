// Package verify compares the diagnostics an analyzer reported against
// the expectations annotated in rule fixtures.
package verify

import (
	"fmt"
	"sort"
)

// Kind classifies a mismatch between expected and actual diagnostics.
type Kind string

// Mismatch kinds.
const (
	// Missing means an expected diagnostic was not reported.
	Missing Kind = "missing"

	// Unexpected means a diagnostic was reported where none was expected.
	Unexpected Kind = "unexpected"

	// MessageMismatch means the diagnostic was on the right line but its
	// message differs from the annotated one.
	MessageMismatch Kind = "message_mismatch"

	// LocationMismatch means the diagnostic was on the right line but
	// its column range differs from the annotated one.
	LocationMismatch Kind = "location_mismatch"

	// FixedLineReported means a diagnostic was reported on a line a
	// code-fix fixture marks as Fixed.
	FixedLineReported Kind = "fixed_line_reported"

	// MissingSecondary means an expected secondary location was not
	// reported for a matched issue.
	MissingSecondary Kind = "missing_secondary"

	// UnexpectedSecondary means a matched issue carried a secondary
	// location that was not annotated.
	UnexpectedSecondary Kind = "unexpected_secondary"

	// InvalidAnnotation means the fixture itself is malformed.
	InvalidAnnotation Kind = "invalid_annotation"
)

// Kinds lists every mismatch kind in report order.
var Kinds = []Kind{
	InvalidAnnotation,
	Missing,
	Unexpected,
	MessageMismatch,
	LocationMismatch,
	FixedLineReported,
	MissingSecondary,
	UnexpectedSecondary,
}

func kindRank(k Kind) int {
	for i, kind := range Kinds {
		if kind == k {
			return i
		}
	}
	return len(Kinds)
}

// Mismatch is a single difference between a fixture and the reported
// diagnostics.
type Mismatch struct {
	Kind Kind   `json:"kind"`
	File string `json:"file"`
	Line int    `json:"line"`

	// Column is the reported or expected column, when known.
	Column int `json:"column,omitempty"`

	// Rule is the diagnostic rule ID involved, when known.
	Rule string `json:"rule,omitempty"`

	// Expected describes the annotation side.
	Expected string `json:"expected,omitempty"`

	// Actual describes the reported side.
	Actual string `json:"actual,omitempty"`

	// DiagnosticID is the ID of the reported diagnostic involved.
	DiagnosticID string `json:"diagnostic_id,omitempty"`
}

func (m Mismatch) String() string {
	switch {
	case m.Expected != "" && m.Actual != "":
		return fmt.Sprintf("%s:%d: %s: expected %s, got %s", m.File, m.Line, m.Kind, m.Expected, m.Actual)
	case m.Expected != "":
		return fmt.Sprintf("%s:%d: %s: %s", m.File, m.Line, m.Kind, m.Expected)
	default:
		return fmt.Sprintf("%s:%d: %s: %s", m.File, m.Line, m.Kind, m.Actual)
	}
}

// FileResult is the outcome of verifying one fixture.
type FileResult struct {
	Path    string `json:"path"`
	Rule    string `json:"rule"`
	Variant string `json:"variant,omitempty"`
	Fixed   bool   `json:"fixed,omitempty"`

	// Expected is the number of expected primary diagnostics.
	Expected int `json:"expected"`

	// Actual is the number of reported diagnostics considered.
	Actual int `json:"actual"`

	// Matched is the number of expectations paired with a diagnostic.
	Matched int `json:"matched"`

	Mismatches []Mismatch `json:"mismatches"`
}

// OK reports whether the fixture verified without mismatches.
func (r FileResult) OK() bool { return len(r.Mismatches) == 0 }

// Summary aggregates a verification run.
type Summary struct {
	Fixtures int `json:"fixtures"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Expected int `json:"expected"`
	Actual   int `json:"actual"`

	// Orphans counts diagnostics reported for files that are not
	// fixtures. They do not affect the outcome.
	Orphans int `json:"orphans"`

	ByKind map[Kind]int `json:"by_kind"`
}

// Result is the outcome of verifying a set of fixtures.
type Result struct {
	Files   []FileResult `json:"files"`
	Summary Summary      `json:"summary"`
}

// OK reports whether every fixture verified without mismatches.
func (r Result) OK() bool { return r.Summary.Failed == 0 }

// Failing returns the results of fixtures with mismatches.
func (r Result) Failing() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if !f.OK() {
			out = append(out, f)
		}
	}
	return out
}

func summarize(files []FileResult, orphans int) Summary {
	s := Summary{
		Fixtures: len(files),
		Orphans:  orphans,
		ByKind:   make(map[Kind]int),
	}
	for _, f := range files {
		if f.OK() {
			s.Passed++
		} else {
			s.Failed++
		}
		s.Expected += f.Expected
		s.Actual += f.Actual
		for _, m := range f.Mismatches {
			s.ByKind[m.Kind]++
		}
	}
	return s
}

func sortMismatches(ms []Mismatch) {
	sort.SliceStable(ms, func(i, j int) bool {
		if ms[i].Line != ms[j].Line {
			return ms[i].Line < ms[j].Line
		}
		if ms[i].Kind != ms[j].Kind {
			return kindRank(ms[i].Kind) < kindRank(ms[j].Kind)
		}
		return ms[i].Column < ms[j].Column
	})
}
