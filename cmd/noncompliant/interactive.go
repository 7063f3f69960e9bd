package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/unbound-force/noncompliant/internal/report"
	"github.com/unbound-force/noncompliant/internal/verify"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Failing  key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Failing, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Failing, k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Failing:  key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "failing only")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// verifyModel is the Bubble Tea model for browsing verification results.
type verifyModel struct {
	result      verify.Result
	viewport    viewport.Model
	help        help.Model
	keys        keyMap
	ready       bool
	failingOnly bool
	content     string
}

func newVerifyModel(res verify.Result) verifyModel {
	return verifyModel{
		result:      res,
		help:        help.New(),
		keys:        defaultKeyMap,
		failingOnly: true,
		content:     renderVerifyContent(res, true),
	}
}

var titleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("63")).
	MarginBottom(1)

// renderVerifyContent renders the scrollable body of the TUI. The
// mismatch tables are the ones the text report prints, with rounded
// borders and room for longer details.
func renderVerifyContent(res verify.Result, failingOnly bool) string {
	s := report.DefaultStyles()
	var sb strings.Builder

	sum := res.Summary
	sb.WriteString(titleStyle.Render(
		fmt.Sprintf("Fixture Verification: %d fixture(s), %d passed, %d failed",
			sum.Fixtures, sum.Passed, sum.Failed)))
	sb.WriteString("\n\n")

	for _, f := range res.Files {
		if f.OK() {
			if !failingOnly {
				sb.WriteString(s.Verdict(true) + " " + f.Path + "\n")
			}
			continue
		}

		sb.WriteString(s.Verdict(false) + " " + s.Header.Render(f.Path) + "\n")
		sb.WriteString(s.SubHeader.Render(fmt.Sprintf("    %d expected, %d reported, %d matched",
			f.Expected, f.Actual, f.Matched)))
		sb.WriteString("\n")
		sb.WriteString(report.MismatchTable(f.Mismatches, s, 60).
			Border(lipgloss.RoundedBorder()).
			String())
		sb.WriteString("\n\n")
	}

	if sum.Orphans > 0 {
		sb.WriteString(s.Muted.Render(fmt.Sprintf("%d diagnostic(s) reported outside any fixture", sum.Orphans)))
		sb.WriteString("\n")
	}
	if sum.Failed == 0 {
		sb.WriteString(s.Pass.Render("All fixtures verified."))
		sb.WriteString("\n")
	}

	return sb.String()
}

func (m verifyModel) Init() tea.Cmd {
	return nil
}

func (m verifyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		footerHeight := 2

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Failing):
			m.failingOnly = !m.failingOnly
			m.content = renderVerifyContent(m.result, m.failingOnly)
			if m.ready {
				m.viewport.SetContent(m.content)
				m.viewport.GotoTop()
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m verifyModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := report.DefaultStyles().Muted.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractiveVerify launches the Bubble Tea TUI for browsing
// verification results.
func runInteractiveVerify(res verify.Result) error {
	model := newVerifyModel(res)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
