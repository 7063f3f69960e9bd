package gocheck

import (
	"context"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/unbound-force/noncompliant/internal/fixture"
	"github.com/unbound-force/noncompliant/internal/verify"
	"golang.org/x/tools/go/analysis"
)

// testdataPath returns the absolute path to a testdata fixture package.
func testdataPath(pkgName string) string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "testdata", "src", pkgName)
}

func TestPasses_Sorted(t *testing.T) {
	passes := Passes()
	if len(passes) != 8 {
		t.Fatalf("expected 8 registered passes, got %d", len(passes))
	}
	for i := 1; i < len(passes); i++ {
		if passes[i-1].Name >= passes[i].Name {
			t.Errorf("passes not sorted: %s before %s", passes[i-1].Name, passes[i].Name)
		}
	}
}

func TestSelect(t *testing.T) {
	got, err := Select([]string{"printf", " bools", "printf", ""})
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "printf" || got[1].Name != "bools" {
		t.Errorf("unexpected selection: %v", got)
	}

	all, err := Select(nil)
	if err != nil || len(all) != len(Passes()) {
		t.Errorf("empty selection should return every pass, got %d (%v)", len(all), err)
	}

	_, err = Select([]string{"gocyclo"})
	if err == nil || !strings.Contains(err.Error(), "unknown analyzer \"gocyclo\"") {
		t.Errorf("expected unknown analyzer error, got %v", err)
	}
}

func TestLoad_InvalidDir(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Run(ctx, Passes(), nil); err == nil {
		t.Error("expected context error")
	}
}

func TestRun_VerifiesFixturePackage(t *testing.T) {
	if testing.Short() {
		t.Skip("loads packages with go/packages")
	}

	dir := testdataPath("passes")
	pkgs, err := Load(dir, ".")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	analyzers, err := Select([]string{"bools", "printf", "unreachable"})
	if err != nil {
		t.Fatal(err)
	}
	diags, err := Run(context.Background(), analyzers, pkgs)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(diags) != 3 {
		t.Fatalf("expected 3 diagnostics, got %d: %+v", len(diags), diags)
	}

	rules := map[string]bool{}
	for _, d := range diags {
		rules[d.Rule] = true
		if !strings.HasPrefix(d.ID, "dg-") {
			t.Errorf("diagnostic without ID: %+v", d)
		}
	}
	for _, name := range []string{"bools", "printf", "unreachable"} {
		if !rules[name] {
			t.Errorf("no diagnostic from %s", name)
		}
	}

	fx, err := fixture.LoadFile(filepath.Join(dir, "passes.go"), nil)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	res := verify.File(&fx, diags, verify.Options{Root: dir})
	if !res.OK() {
		t.Errorf("fixture did not verify: %v", res.Mismatches)
	}
}

func TestConverter_RuneColumnsAndRelated(t *testing.T) {
	src := "package p\nvar s = \"é\" + x\n"
	path := filepath.Join(t.TempDir(), "p.go")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	fset := token.NewFileSet()
	f := fset.AddFile(path, -1, len(src))
	f.SetLinesForContent([]byte(src))

	// "x" is byte column 16 but rune column 15.
	xOff := strings.Index(src, "x")
	d := analysis.Diagnostic{
		Pos:     f.Pos(xOff),
		End:     f.Pos(xOff + 1),
		Message: "undefined-ish",
		Related: []analysis.RelatedInformation{{Pos: f.Pos(len("package p\n")), Message: "declared here"}},
	}

	got := newConverter().convert(fset, "demo", d)
	if got.Rule != "demo" || got.Location.Line != 2 {
		t.Errorf("unexpected diagnostic: %+v", got)
	}
	if got.Location.Column != 15 || got.Location.EndColumn != 16 {
		t.Errorf("columns = %d..%d, want 15..16", got.Location.Column, got.Location.EndColumn)
	}
	if len(got.Secondary) != 1 || got.Secondary[0].Line != 2 || got.Secondary[0].Column != 1 || got.Secondary[0].Message != "declared here" {
		t.Errorf("unexpected secondary: %+v", got.Secondary)
	}
}
