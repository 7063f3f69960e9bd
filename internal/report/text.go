package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/unbound-force/noncompliant/internal/annotation"
	"github.com/unbound-force/noncompliant/internal/fixture"
	"github.com/unbound-force/noncompliant/internal/verify"
)

// TextOptions controls the text report.
type TextOptions struct {
	// Verbose also lists fixtures that verified cleanly.
	Verbose bool
}

// WriteText writes a verification result as human-readable styled
// text. Only failing fixtures get a mismatch table.
func WriteText(w io.Writer, res verify.Result) error {
	return WriteTextOptions(w, res, TextOptions{})
}

// WriteTextOptions is WriteText with options.
func WriteTextOptions(w io.Writer, res verify.Result, opts TextOptions) error {
	s := DefaultStyles()

	first := true
	for _, f := range res.Files {
		if f.OK() {
			if opts.Verbose {
				fmt.Fprintf(w, "%s %s\n", s.Verdict(true), f.Path)
			}
			continue
		}
		if !first || opts.Verbose {
			fmt.Fprintln(w)
		}
		first = false
		writeFileResult(w, f, s)
	}

	writeSummary(w, res.Summary, s)
	return nil
}

func writeFileResult(w io.Writer, f verify.FileResult, s Styles) {
	fmt.Fprintf(w, "%s %s\n", s.Verdict(false), s.Header.Render(f.Path))
	fmt.Fprintln(w, s.SubHeader.Render(fmt.Sprintf(
		"    rule %s: %d expected, %d reported, %d matched",
		ruleLabel(f), f.Expected, f.Actual, f.Matched)))

	// Budget: 80 cols. LINE=7, KIND=20, DETAIL takes the rest of the
	// 76-column table after borders and padding.
	t := MismatchTable(f.Mismatches, s, 40).Width(76)
	fmt.Fprintln(w, t)
}

// MismatchTable renders mismatches as a LINE/KIND/DETAIL table with
// kinds color-coded. Details longer than maxDetail cells are truncated.
func MismatchTable(ms []verify.Mismatch, s Styles, maxDetail int) *table.Table {
	rows := make([][]string, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, []string{
			position(m),
			string(m.Kind),
			truncate(detail(m), maxDetail),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if col == 1 && row >= 0 && row < len(ms) {
				return s.KindStyle(ms[row].Kind).PaddingRight(1)
			}
			return s.TableCell
		}).
		Headers("LINE", "KIND", "DETAIL").
		Rows(rows...)
}

func writeSummary(w io.Writer, sum verify.Summary, s Styles) {
	fmt.Fprintf(w, "\n%s %s\n",
		s.Verdict(sum.Failed == 0),
		s.Header.Render(fmt.Sprintf(
			"%d fixture(s) verified: %d passed, %d failed",
			sum.Fixtures, sum.Passed, sum.Failed)))
	fmt.Fprintf(w, "    %d expected, %d reported diagnostic(s)\n", sum.Expected, sum.Actual)

	var parts []string
	for _, kind := range verify.Kinds {
		if c := sum.ByKind[kind]; c > 0 {
			parts = append(parts, s.KindStyle(kind).Render(fmt.Sprintf("%s: %d", kind, c)))
		}
	}
	if len(parts) > 0 {
		fmt.Fprintf(w, "    Mismatches: %s\n", strings.Join(parts, ", "))
	}
	if sum.Orphans > 0 {
		fmt.Fprintln(w, s.Muted.Render(fmt.Sprintf(
			"    %d diagnostic(s) reported outside any fixture", sum.Orphans)))
	}
}

// WriteFixtures lists fixtures with their assertion counts.
func WriteFixtures(w io.Writer, fixtures []fixture.Fixture) error {
	s := DefaultStyles()

	if len(fixtures) == 0 {
		fmt.Fprintln(w, s.Muted.Render("No fixtures found."))
		return nil
	}

	const maxPath = 34
	rows := make([][]string, 0, len(fixtures))
	invalid := 0
	for _, fx := range fixtures {
		rows = append(rows, []string{
			truncate(fx.Path, maxPath),
			truncate(fx.Rule, 14),
			fmt.Sprint(fx.Count(annotation.Noncompliant)),
			fmt.Sprint(fx.Count(annotation.Secondary)),
			fmt.Sprint(fx.Count(annotation.Error)),
			fmt.Sprint(fx.Count(annotation.Fixed)),
		})
		if len(fx.Errors) > 0 {
			invalid++
		}
	}

	t := table.New().
		Width(76).
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			if row >= 0 && row < len(fixtures) && len(fixtures[row].Errors) > 0 {
				return s.Invalid.PaddingRight(1)
			}
			return s.TableCell
		}).
		Headers("FIXTURE", "RULE", "NC", "SEC", "ERR", "FIX").
		Rows(rows...)

	fmt.Fprintln(w, t)
	fmt.Fprintf(w, "\n%s\n", s.Header.Render(fmt.Sprintf(
		"%d fixture(s), %d with invalid annotations", len(fixtures), invalid)))
	return nil
}

func ruleLabel(f verify.FileResult) string {
	label := f.Rule
	if f.Variant != "" {
		label += " (" + f.Variant + ")"
	}
	if f.Fixed {
		label += " [fixed]"
	}
	return label
}

func position(m verify.Mismatch) string {
	if m.Column > 0 {
		return fmt.Sprintf("%d:%d", m.Line, m.Column)
	}
	return fmt.Sprint(m.Line)
}

func detail(m verify.Mismatch) string {
	switch {
	case m.Expected != "" && m.Actual != "":
		return fmt.Sprintf("expected %s, got %s", m.Expected, m.Actual)
	case m.Expected != "":
		return m.Expected
	default:
		return m.Actual
	}
}

// truncate shortens s to at most max terminal cells.
func truncate(s string, max int) string {
	return runewidth.Truncate(s, max, "...")
}
