package gocheck

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/unreachable"
)

var registry = func() map[string]*analysis.Analyzer {
	m := make(map[string]*analysis.Analyzer)
	for _, a := range []*analysis.Analyzer{
		assign.Analyzer,
		bools.Analyzer,
		copylock.Analyzer,
		nilfunc.Analyzer,
		nilness.Analyzer,
		printf.Analyzer,
		shadow.Analyzer,
		unreachable.Analyzer,
	} {
		m[a.Name] = a
	}
	return m
}()

// Passes returns every registered analyzer, sorted by name.
func Passes() []*analysis.Analyzer {
	out := make([]*analysis.Analyzer, 0, len(registry))
	for _, a := range registry {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// PassNames returns the registered analyzer names, sorted.
func PassNames() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select returns the analyzers with the given names, in order. An
// empty list selects every registered analyzer.
func Select(names []string) ([]*analysis.Analyzer, error) {
	if len(names) == 0 {
		return Passes(), nil
	}

	seen := make(map[string]bool, len(names))
	out := make([]*analysis.Analyzer, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		a, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown analyzer %q: available analyzers are %s",
				name, strings.Join(PassNames(), ", "))
		}
		seen[name] = true
		out = append(out, a)
	}
	return out, nil
}
