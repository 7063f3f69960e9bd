package fixture

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/unbound-force/noncompliant/internal/annotation"
	"github.com/unbound-force/noncompliant/internal/cache"
	"github.com/unbound-force/noncompliant/internal/config"
)

const testRoot = "testdata/TestCases"

func TestRuleOf(t *testing.T) {
	tests := []struct {
		path    string
		rule    string
		variant string
		fixed   bool
	}{
		{path: "UnusedLocal.cs", rule: "UnusedLocal"},
		{path: "Rules/UnusedLocal.CSharp9.cs", rule: "UnusedLocal", variant: "CSharp9"},
		{path: "UnusedLocal_TopLevel.CSharp9.cs", rule: "UnusedLocal", variant: "TopLevel.CSharp9"},
		{path: "UnusedLocal.Fixed.cs", rule: "UnusedLocal", fixed: true},
		{path: "UnusedLocal.Fixed.Batch.cs", rule: "UnusedLocal", variant: "Batch", fixed: true},
		{path: "Makefile", rule: "Makefile"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rule, variant, fixed := RuleOf(tt.path)
			if rule != tt.rule || variant != tt.variant || fixed != tt.fixed {
				t.Errorf("RuleOf(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.path, rule, variant, fixed, tt.rule, tt.variant, tt.fixed)
			}
		})
	}
}

func TestFilter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Fixtures.Include = []string{"TestCases/**", "*.vb"}
	cfg.Fixtures.Exclude = append(cfg.Fixtures.Exclude, "*.Generated.cs")

	tests := []struct {
		rel  string
		want bool
	}{
		{rel: "TestCases/UnusedLocal.cs", want: true},
		{rel: "TestCases/Nested/Deep.cs", want: true},
		{rel: "Other/Rule.vb", want: true},
		{rel: "Other/Rule.cs", want: false},
		{rel: "TestCases/Rule.Generated.cs", want: false},
		{rel: "TestCases/obj/Rule.cs", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			if got := Filter(tt.rel, cfg); got != tt.want {
				t.Errorf("Filter(%q) = %v, want %v", tt.rel, got, tt.want)
			}
		})
	}
}

func TestDiscover(t *testing.T) {
	paths, err := Discover(context.Background(), testRoot, nil)
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}

	want := []string{
		"BrokenAnnotation.vb",
		"EmptyCatch.CSharp9.cs",
		"UnusedLocal.Fixed.cs",
		"UnusedLocal.cs",
	}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Discover() = %v, want %v", paths, want)
	}
}

func TestDiscover_SkipsConfigAndRulelessFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{".noncompliant.yaml", ".noncompliant.toml", "_shared.cs", "Rule.yaml", "Rule.cs"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("# Noncompliant\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := Discover(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	want := []string{"Rule.cs", "Rule.yaml"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Discover() = %v, want %v", paths, want)
	}
}

func TestDiscover_Cancelled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Fixtures.Timeout = config.Duration{Duration: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Discover(ctx, testRoot, cfg)
	if err == nil {
		t.Fatal("expected error for cancelled discovery")
	}
	if !strings.Contains(err.Error(), "stopped") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoad(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Verify.Rules = map[string][]string{"UnusedLocal": {"S1481"}}

	paths, err := Discover(context.Background(), testRoot, cfg)
	if err != nil {
		t.Fatal(err)
	}
	fixtures, err := Load(context.Background(), testRoot, paths, LoadOptions{Config: cfg})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(fixtures) != len(paths) {
		t.Fatalf("expected %d fixtures, got %d", len(paths), len(fixtures))
	}

	byPath := make(map[string]Fixture)
	for i, fx := range fixtures {
		if fx.Path != paths[i] {
			t.Errorf("fixture %d: order not preserved, got %q want %q", i, fx.Path, paths[i])
		}
		byPath[fx.Path] = fx
	}

	unused := byPath["UnusedLocal.cs"]
	if unused.Rule != "UnusedLocal" || len(unused.RuleIDs) != 1 || unused.RuleIDs[0] != "S1481" {
		t.Errorf("unexpected rule mapping: %q %v", unused.Rule, unused.RuleIDs)
	}
	if len(unused.Expectations) != 1 {
		t.Fatalf("expected 1 expectation in UnusedLocal.cs, got %d", len(unused.Expectations))
	}
	primary := unused.Expectations[0].Primary
	if primary.Line != 7 || primary.Span != (annotation.Span{Column: 17, Length: 6}) {
		t.Errorf("unexpected primary location: line %d span %s", primary.Line, primary.Span)
	}
	if !strings.Contains(primary.Message, "'unused'") {
		t.Errorf("unexpected message: %q", primary.Message)
	}

	catch := byPath["EmptyCatch.CSharp9.cs"]
	if catch.Variant != "CSharp9" {
		t.Errorf("expected variant CSharp9, got %q", catch.Variant)
	}
	if len(catch.Expectations) != 2 {
		t.Fatalf("expected 2 expectations in EmptyCatch, got %d", len(catch.Expectations))
	}
	if len(catch.Expectations[0].Secondaries) != 1 {
		t.Errorf("expected the secondary to be linked, got %+v", catch.Expectations[0])
	}
	if !catch.Expectations[1].Compiler() || catch.Expectations[1].Code != "CS0103" {
		t.Errorf("expected compiler expectation CS0103, got %+v", catch.Expectations[1])
	}

	fixed := byPath["UnusedLocal.Fixed.cs"]
	if !fixed.Fixed || !fixed.FixedLines()[7] {
		t.Errorf("expected fixed fixture with line 7 marked, got %+v", fixed)
	}

	broken := byPath["BrokenAnnotation.vb"]
	if len(broken.Errors) != 2 {
		t.Errorf("expected 2 annotation errors in BrokenAnnotation.vb, got %v", broken.Errors)
	}
}

func TestLoad_UsesCache(t *testing.T) {
	dir := t.TempDir()
	src := "Foo(); // Noncompliant {{from source}}\n"
	if err := os.WriteFile(filepath.Join(dir, "Rule.cs"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := cache.Open(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}

	// Seed the cache with a different parse result to prove it is used.
	key := cache.Key("Rule.cs", annotation.CFamily, []byte(src))
	seeded := &cache.Entry{
		Path: "Rule.cs",
		Assertions: []annotation.Assertion{
			{Kind: annotation.Noncompliant, File: "Rule.cs", Line: 1, SourceLine: 1, Message: "from cache"},
		},
	}
	if err := c.Put(key, seeded); err != nil {
		t.Fatal(err)
	}

	fixtures, err := Load(context.Background(), dir, []string{"Rule.cs"}, LoadOptions{Cache: c})
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := fixtures[0].Expectations[0].Primary.Message; got != "from cache" {
		t.Errorf("expected cached message, got %q", got)
	}
}

func TestLoad_PopulatesCache(t *testing.T) {
	dir := t.TempDir()
	src := []byte("Foo(); // Noncompliant\n")
	if err := os.WriteFile(filepath.Join(dir, "Rule.cs"), src, 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := cache.Open(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Load(context.Background(), dir, []string{"Rule.cs"}, LoadOptions{Cache: c}); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	entry, ok, err := c.Get(cache.Key("Rule.cs", annotation.CFamily, src))
	if err != nil || !ok {
		t.Fatalf("expected cache entry after load, ok=%v err=%v", ok, err)
	}
	if len(entry.Assertions) != 1 {
		t.Errorf("expected 1 cached assertion, got %d", len(entry.Assertions))
	}
}

// Changing a syntax override must not serve annotations parsed with the
// previous syntax from the cache.
func TestLoad_CacheHonorsSyntaxOverride(t *testing.T) {
	dir := t.TempDir()
	src := "x = 1 // Noncompliant\ny = 2 # Noncompliant\n"
	if err := os.WriteFile(filepath.Join(dir, "Rule.razor"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := cache.Open(filepath.Join(dir, ".cache"))
	if err != nil {
		t.Fatal(err)
	}

	lineOf := func(cfg *config.Config) int {
		t.Helper()
		fixtures, err := Load(context.Background(), dir, []string{"Rule.razor"}, LoadOptions{Config: cfg, Cache: c})
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if n := len(fixtures[0].Assertions); n != 1 {
			t.Fatalf("expected 1 assertion, got %d", n)
		}
		return fixtures[0].Assertions[0].Line
	}

	if got := lineOf(config.DefaultConfig()); got != 1 {
		t.Errorf("C-family syntax: line = %d, want 1", got)
	}

	hash := config.DefaultConfig()
	hash.Fixtures.Syntax = map[string]string{".razor": "hash"}
	if got := lineOf(hash); got != 2 {
		t.Errorf("hash syntax with a warm cache: line = %d, want 2", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), t.TempDir(), []string{"Nope.cs"}, LoadOptions{})
	if err == nil {
		t.Fatal("expected error for missing fixture")
	}
}

func TestLoadFile(t *testing.T) {
	fx, err := LoadFile(filepath.Join(testRoot, "EmptyCatch.CSharp9.cs"), nil)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if fx.Path != "EmptyCatch.CSharp9.cs" || fx.Count(annotation.Secondary) != 1 {
		t.Errorf("unexpected fixture: %+v", fx)
	}
}
