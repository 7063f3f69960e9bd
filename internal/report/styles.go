package report

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/unbound-force/noncompliant/internal/verify"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for per-fixture headers.
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// Missing, Unexpected, Mismatch, Secondary and Invalid color-code
	// mismatch kinds.
	Missing    lipgloss.Style
	Unexpected lipgloss.Style
	Mismatch   lipgloss.Style
	Secondary  lipgloss.Style
	Invalid    lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// Pass styles PASS indicators.
	Pass lipgloss.Style

	// Fail styles FAIL indicators.
	Fail lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		Missing:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Unexpected: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		Mismatch:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Secondary:  lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		Invalid:    lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		Pass: lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		Fail: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// KindStyle returns the style for a mismatch kind.
func (s Styles) KindStyle(kind verify.Kind) lipgloss.Style {
	switch kind {
	case verify.Missing:
		return s.Missing
	case verify.Unexpected, verify.FixedLineReported:
		return s.Unexpected
	case verify.MessageMismatch, verify.LocationMismatch:
		return s.Mismatch
	case verify.MissingSecondary, verify.UnexpectedSecondary:
		return s.Secondary
	case verify.InvalidAnnotation:
		return s.Invalid
	default:
		return s.Muted
	}
}

// Verdict renders PASS or FAIL.
func (s Styles) Verdict(ok bool) string {
	if ok {
		return s.Pass.Render("PASS")
	}
	return s.Fail.Render("FAIL")
}
