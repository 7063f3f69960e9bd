package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/unbound-force/noncompliant/internal/verify"
)

func sampleVerifyResult() verify.Result {
	files := []verify.FileResult{
		{Path: "TestCases/UnusedLocal.cs", Rule: "UnusedLocal", Expected: 1, Actual: 1, Matched: 1},
		{
			Path:     "TestCases/EmptyCatch.cs",
			Rule:     "EmptyCatch",
			Expected: 1,
			Actual:   1,
			Mismatches: []verify.Mismatch{{
				Kind:     verify.MessageMismatch,
				File:     "TestCases/EmptyCatch.cs",
				Line:     5,
				Expected: "{{Either remove or fill this block of code.}}",
				Actual:   "{{Fill this block.}}",
			}},
		},
	}
	return verify.Result{
		Files:   files,
		Summary: verify.Summary{Fixtures: 2, Passed: 1, Failed: 1, Expected: 2, Actual: 2},
	}
}

// TestRenderVerifyContent_EmptyResult verifies that an empty result
// reports zero fixtures and a clean run.
func TestRenderVerifyContent_EmptyResult(t *testing.T) {
	output := renderVerifyContent(verify.Result{}, true)

	if !strings.Contains(output, "0 fixture(s)") {
		t.Errorf("expected output to contain '0 fixture(s)', got:\n%s", output)
	}
	if !strings.Contains(output, "All fixtures verified.") {
		t.Errorf("expected clean-run message, got:\n%s", output)
	}
}

func TestRenderVerifyContent_FailingOnly(t *testing.T) {
	output := renderVerifyContent(sampleVerifyResult(), true)

	if !strings.Contains(output, "TestCases/EmptyCatch.cs") {
		t.Errorf("expected failing fixture, got:\n%s", output)
	}
	if !strings.Contains(output, "message_mismatch") {
		t.Errorf("expected mismatch kind, got:\n%s", output)
	}
	if strings.Contains(output, "TestCases/UnusedLocal.cs") {
		t.Errorf("passing fixture should be hidden, got:\n%s", output)
	}
}

func TestRenderVerifyContent_All(t *testing.T) {
	output := renderVerifyContent(sampleVerifyResult(), false)
	if !strings.Contains(output, "PASS TestCases/UnusedLocal.cs") {
		t.Errorf("expected passing fixture, got:\n%s", output)
	}
}

func TestRenderVerifyContent_DetailTruncation(t *testing.T) {
	res := sampleVerifyResult()
	res.Files[1].Mismatches[0].Expected = "{{" + strings.Repeat("x", 80) + "}}"
	output := renderVerifyContent(res, true)
	if !strings.Contains(output, "...") {
		t.Errorf("expected long detail to be truncated, got:\n%s", output)
	}
}

func TestVerifyModel_Update(t *testing.T) {
	m := newVerifyModel(sampleVerifyResult())
	if m.View() != "Initializing..." {
		t.Errorf("expected initializing view before the window size is known")
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = updated.(verifyModel)
	if !m.ready {
		t.Fatal("expected model to be ready after WindowSizeMsg")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	m = updated.(verifyModel)
	if m.failingOnly {
		t.Error("expected 'f' to toggle the failing-only filter")
	}
	if !strings.Contains(m.content, "TestCases/UnusedLocal.cs") {
		t.Error("expected passing fixtures after toggling the filter")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Error("expected quit command for 'q'")
	}
}
