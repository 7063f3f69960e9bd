// Package report provides output formatters for verification results
// in JSON and human-readable text formats.
package report

import (
	"encoding/json"
	"io"

	"github.com/unbound-force/noncompliant/internal/verify"
)

// JSONReport is the top-level JSON output structure.
type JSONReport struct {
	Version string              `json:"version"`
	OK      bool                `json:"ok"`
	Summary verify.Summary      `json:"summary"`
	Files   []verify.FileResult `json:"files"`
}

// WriteJSON writes a verification result as formatted JSON to the
// writer.
func WriteJSON(w io.Writer, res verify.Result, version string) error {
	files := make([]verify.FileResult, len(res.Files))
	for i, f := range res.Files {
		if f.Mismatches == nil {
			f.Mismatches = []verify.Mismatch{}
		}
		files[i] = f
	}
	sum := res.Summary
	if sum.ByKind == nil {
		sum.ByKind = map[verify.Kind]int{}
	}

	report := JSONReport{
		Version: version,
		OK:      res.OK(),
		Summary: sum,
		Files:   files,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
