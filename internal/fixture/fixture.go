// Package fixture discovers rule fixtures, maps each one to the rule it
// exercises, and parses their annotations.
package fixture

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/unbound-force/noncompliant/internal/annotation"
	"github.com/unbound-force/noncompliant/internal/config"
)

// Fixture is a parsed rule fixture.
type Fixture struct {
	// Path is the fixture path relative to the discovery root, with
	// forward slashes.
	Path string `json:"path"`

	// Rule is the rule name taken from the file name.
	Rule string `json:"rule"`

	// Variant distinguishes fixtures of the same rule
	// ("CSharp9", "TopLevelStatements").
	Variant string `json:"variant,omitempty"`

	// Fixed is set for code-fix output fixtures ("Rule.Fixed.cs").
	Fixed bool `json:"fixed,omitempty"`

	// RuleIDs are the analyzer rule IDs this fixture is checked
	// against. Empty means any rule ID is accepted.
	RuleIDs []string `json:"rule_ids,omitempty"`

	// Hash is the cache key of the fixture, see cache.Key.
	Hash string `json:"hash"`

	// Assertions are the raw annotations in source order.
	Assertions []annotation.Assertion `json:"assertions"`

	// Expectations are the linked primaries and their secondaries.
	Expectations []annotation.Expectation `json:"expectations"`

	// Errors are malformed annotations found while parsing or linking.
	Errors []annotation.ParseError `json:"errors,omitempty"`
}

// FixedLines returns the set of lines marked with a Fixed annotation.
func (f *Fixture) FixedLines() map[int]bool {
	lines := make(map[int]bool)
	for _, a := range f.Assertions {
		if a.Kind == annotation.Fixed {
			lines[a.Line] = true
		}
	}
	return lines
}

// Count returns the number of assertions of the given kind.
func (f *Fixture) Count(kind annotation.Kind) int {
	n := 0
	for _, a := range f.Assertions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

// RuleOf splits a fixture file name into its rule name and variant.
// The rule name runs up to the first '.' or '_' of the base name
// without extension. A "Fixed" segment marks a code-fix fixture and
// is not part of the variant.
//
//	UnusedLocal.cs                 -> UnusedLocal
//	UnusedLocal.CSharp9.cs         -> UnusedLocal, CSharp9
//	UnusedLocal_TopLevel.CSharp9.cs -> UnusedLocal, TopLevel.CSharp9
//	UnusedLocal.Fixed.Batch.cs     -> UnusedLocal, Batch, fixed
func RuleOf(path string) (rule, variant string, fixed bool) {
	base := filepath.Base(filepath.ToSlash(path))
	base = strings.TrimSuffix(base, filepath.Ext(base))

	cut := strings.IndexAny(base, "._")
	if cut < 0 {
		return base, "", false
	}
	rule = base[:cut]

	var parts []string
	for _, part := range strings.Split(base[cut+1:], ".") {
		if part == "" {
			continue
		}
		if part == "Fixed" {
			fixed = true
			continue
		}
		parts = append(parts, part)
	}
	return rule, strings.Join(parts, "."), fixed
}

// Discover walks root and returns the relative paths of every file
// that has a known comment syntax, names a rule and passes the
// configured filters, sorted by path. Configuration files are never
// fixtures. Hidden directories are skipped. The walk is bounded
// by cfg.Fixtures.Timeout when it is non-zero.
func Discover(ctx context.Context, root string, cfg *config.Config) ([]string, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	timeout := cfg.Fixtures.Timeout.Duration
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("fixture discovery stopped: %w", ctxErr)
		}
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		if d.IsDir() {
			base := d.Name()
			if strings.HasPrefix(base, ".") && rel != "." {
				return filepath.SkipDir
			}
			return nil
		}

		if _, ok := cfg.SyntaxFor(path); !ok {
			return nil
		}
		if slices.Contains(config.FileNames, d.Name()) {
			return nil
		}
		if rule, _, _ := RuleOf(rel); rule == "" {
			return nil
		}
		if !Filter(rel, cfg) {
			return nil
		}

		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}
