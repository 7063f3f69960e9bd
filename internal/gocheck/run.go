package gocheck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/token"
	"os"
	"sort"
	"unicode/utf8"

	"github.com/unbound-force/noncompliant/internal/diagnostic"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/checker"
	"golang.org/x/tools/go/packages"
)

// Run applies analyzers to pkgs and returns their diagnostics sorted
// by position. The rule of each diagnostic is the analyzer name and
// related information becomes secondary locations. Analyzer failures
// are joined into the returned error alongside the diagnostics that
// were produced.
func Run(ctx context.Context, analyzers []*analysis.Analyzer, pkgs []*packages.Package) ([]diagnostic.Diagnostic, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(analyzers) == 0 || len(pkgs) == 0 {
		return nil, nil
	}

	graph, err := checker.Analyze(analyzers, pkgs, &checker.Options{})
	if err != nil {
		return nil, fmt.Errorf("running analyzers: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	conv := newConverter()
	var (
		diags []diagnostic.Diagnostic
		errs  []error
	)
	for _, act := range graph.Roots {
		if act.Err != nil {
			errs = append(errs, fmt.Errorf("%s on %s: %w", act.Analyzer.Name, act.Package.PkgPath, act.Err))
			continue
		}
		for _, d := range act.Diagnostics {
			diags = append(diags, conv.convert(act.Package.Fset, act.Analyzer.Name, d))
		}
	}

	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i].Location, diags[j].Location
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	return diags, errors.Join(errs...)
}

// converter turns token positions into locations with rune columns.
type converter struct {
	lines map[string][][]byte
}

func newConverter() *converter {
	return &converter{lines: make(map[string][][]byte)}
}

func (c *converter) convert(fset *token.FileSet, rule string, d analysis.Diagnostic) diagnostic.Diagnostic {
	loc := c.location(fset, d.Pos, d.End)
	out := diagnostic.Diagnostic{
		Rule:     rule,
		Severity: diagnostic.SeverityWarning,
		Location: loc,
		Message:  d.Message,
	}
	for _, rel := range d.Related {
		sec := c.location(fset, rel.Pos, rel.End)
		sec.Message = rel.Message
		out.Secondary = append(out.Secondary, sec)
	}
	out.ID = diagnostic.GenerateID(out.Rule, out.Location, out.Message)
	return out
}

func (c *converter) location(fset *token.FileSet, pos, end token.Pos) diagnostic.Location {
	start := fset.Position(pos)
	loc := diagnostic.Location{
		File:   start.Filename,
		Line:   start.Line,
		Column: c.runeColumn(start.Filename, start.Line, start.Column),
	}
	if end.IsValid() && end > pos {
		e := fset.Position(end)
		loc.EndLine = e.Line
		loc.EndColumn = c.runeColumn(e.Filename, e.Line, e.Column)
	}
	return loc
}

// runeColumn converts a 1-based byte column into a 1-based rune
// column. The byte column is returned when the source is unavailable.
func (c *converter) runeColumn(file string, line, col int) int {
	if col <= 1 || line < 1 {
		return col
	}
	lines, ok := c.lines[file]
	if !ok {
		src, err := os.ReadFile(file)
		if err == nil {
			lines = bytes.Split(src, []byte("\n"))
		}
		c.lines[file] = lines
	}
	if line > len(lines) {
		return col
	}
	text := lines[line-1]
	if col-1 > len(text) {
		return utf8.RuneCount(text) + (col - 1 - len(text)) + 1
	}
	return utf8.RuneCount(text[:col-1]) + 1
}
