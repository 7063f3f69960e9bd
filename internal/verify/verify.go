package verify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/unbound-force/noncompliant/internal/annotation"
	"github.com/unbound-force/noncompliant/internal/config"
	"github.com/unbound-force/noncompliant/internal/diagnostic"
	"github.com/unbound-force/noncompliant/internal/fixture"
)

// Options configures verification.
type Options struct {
	// Root is the directory the fixtures were discovered under. Absolute
	// diagnostic paths are made relative to it.
	Root string

	// Config supplies the compiler pattern and compiler warning policy.
	// If nil, config.DefaultConfig() is used.
	Config *config.Config
}

func (o Options) config() *config.Config {
	if o.Config == nil {
		return config.DefaultConfig()
	}
	return o.Config
}

// All verifies every fixture against the diagnostics reported for it.
// Diagnostics are routed to fixtures by path; diagnostics for other
// files are counted as orphans.
func All(fixtures []fixture.Fixture, diags []diagnostic.Diagnostic, opts Options) Result {
	cfg := opts.config()

	paths := make([]string, len(fixtures))
	for i := range fixtures {
		paths[i] = fixtures[i].Path
	}
	r := newRouter(opts.Root, paths)

	buckets := make([][]diagnostic.Diagnostic, len(fixtures))
	orphans := 0
	for _, d := range diags {
		i := r.route(d.Location.File)
		if i < 0 {
			orphans++
			continue
		}
		buckets[i] = append(buckets[i], d)
	}

	files := make([]FileResult, len(fixtures))
	for i := range fixtures {
		files[i] = verifyFile(&fixtures[i], i, buckets[i], r, cfg)
	}
	return Result{Files: files, Summary: summarize(files, orphans)}
}

// File verifies a single fixture. Diagnostics that belong to other
// files are ignored.
func File(fx *fixture.Fixture, diags []diagnostic.Diagnostic, opts Options) FileResult {
	return All([]fixture.Fixture{*fx}, diags, opts).Files[0]
}

type fileVerifier struct {
	fx       *fixture.Fixture
	idx      int
	router   *router
	compiler *regexp.Regexp
	out      []Mismatch
}

func verifyFile(fx *fixture.Fixture, idx int, diags []diagnostic.Diagnostic, r *router, cfg *config.Config) FileResult {
	v := &fileVerifier{fx: fx, idx: idx, router: r, compiler: cfg.CompilerRegexp()}

	for _, pe := range fx.Errors {
		v.add(Mismatch{Kind: InvalidAnnotation, Line: pe.Line, Expected: pe.Msg})
	}

	actual := v.relevant(diags, cfg.Verify.IgnoreCompilerWarnings)
	matched := v.match(actual)

	sortMismatches(v.out)
	return FileResult{
		Path:       fx.Path,
		Rule:       fx.Rule,
		Variant:    fx.Variant,
		Fixed:      fx.Fixed,
		Expected:   len(fx.Expectations),
		Actual:     len(actual),
		Matched:    matched,
		Mismatches: v.out,
	}
}

func (v *fileVerifier) add(m Mismatch) {
	m.File = v.fx.Path
	v.out = append(v.out, m)
}

// relevant drops diagnostics the fixture does not assert on: rule
// diagnostics outside the fixture's rule set and, when configured,
// compiler warnings whose code no Error annotation names.
func (v *fileVerifier) relevant(diags []diagnostic.Diagnostic, ignoreWarnings bool) []diagnostic.Diagnostic {
	rules := make(map[string]bool, len(v.fx.RuleIDs))
	for _, id := range v.fx.RuleIDs {
		rules[id] = true
	}
	codes := make(map[string]bool)
	for _, e := range v.fx.Expectations {
		if e.Code != "" {
			codes[e.Code] = true
		}
	}

	var out []diagnostic.Diagnostic
	for _, d := range diags {
		if d.IsCompiler(v.compiler) {
			warning := d.Severity != "" && d.Severity != diagnostic.SeverityError
			if ignoreWarnings && warning && !codes[d.Rule] {
				continue
			}
			out = append(out, d)
			continue
		}
		if len(rules) > 0 && !rules[d.Rule] {
			continue
		}
		out = append(out, d)
	}
	return out
}

// match pairs expectations with diagnostics line by line and records
// every difference. It returns the number of matched expectations.
func (v *fileVerifier) match(actual []diagnostic.Diagnostic) int {
	exps := v.fx.Expectations

	byLine := make(map[int][]int)
	for i, d := range actual {
		byLine[d.Location.Line] = append(byLine[d.Location.Line], i)
	}
	for _, idxs := range byLine {
		sort.SliceStable(idxs, func(a, b int) bool {
			return actual[idxs[a]].Location.Column < actual[idxs[b]].Location.Column
		})
	}

	// The most specific expectations on a line claim diagnostics first.
	order := make([]int, len(exps))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := exps[order[a]].Primary, exps[order[b]].Primary
		if ea.Line != eb.Line {
			return ea.Line < eb.Line
		}
		return specificity(ea) > specificity(eb)
	})

	used := make([]bool, len(actual))
	pair := make([]int, len(exps))
	for i := range pair {
		pair[i] = -1
	}

	claim := func(ei int, accept func(annotation.Expectation, diagnostic.Diagnostic) bool) {
		for _, ai := range byLine[exps[ei].Primary.Line] {
			if !used[ai] && accept(exps[ei], actual[ai]) {
				used[ai] = true
				pair[ei] = ai
				return
			}
		}
	}

	for _, ei := range order {
		claim(ei, v.strict)
	}
	for _, ei := range order {
		if pair[ei] >= 0 {
			continue
		}
		claim(ei, v.sameKind)
		if pair[ei] < 0 {
			e := exps[ei]
			v.add(Mismatch{
				Kind:     Missing,
				Line:     e.Primary.Line,
				Column:   e.Primary.Span.Column,
				Rule:     e.Code,
				Expected: describeExpectation(e),
			})
			continue
		}
		v.compareInexact(exps[ei], actual[pair[ei]])
	}

	matched := 0
	for ei, ai := range pair {
		if ai < 0 {
			continue
		}
		matched++
		if !exps[ei].Compiler() {
			v.compareSecondaries(exps[ei], actual[ai])
		}
	}

	fixed := v.fx.FixedLines()
	for ai, d := range actual {
		if used[ai] {
			continue
		}
		kind := Unexpected
		if fixed[d.Location.Line] {
			kind = FixedLineReported
		}
		v.add(Mismatch{
			Kind:         kind,
			Line:         d.Location.Line,
			Column:       d.Location.Column,
			Rule:         d.Rule,
			Actual:       describeDiagnostic(d),
			DiagnosticID: d.ID,
		})
	}

	return matched
}

func specificity(a annotation.Assertion) int {
	n := 0
	if !a.Span.IsZero() {
		n += 2
	}
	if a.Message != "" {
		n++
	}
	return n
}

func (v *fileVerifier) sameKind(e annotation.Expectation, d diagnostic.Diagnostic) bool {
	if e.Compiler() != d.IsCompiler(v.compiler) {
		return false
	}
	return e.Code == "" || e.Code == d.Rule
}

func (v *fileVerifier) strict(e annotation.Expectation, d diagnostic.Diagnostic) bool {
	return v.sameKind(e, d) && spanMatches(e.Primary.Span, d.Location) && messageMatches(e.Primary.Message, d.Message)
}

func spanMatches(want annotation.Span, loc diagnostic.Location) bool {
	return want.IsZero() || want == loc.Span()
}

func messageMatches(want, got string) bool {
	return want == "" || want == got
}

// compareInexact records why a line-level match was not strict.
func (v *fileVerifier) compareInexact(e annotation.Expectation, d diagnostic.Diagnostic) {
	if !spanMatches(e.Primary.Span, d.Location) {
		v.add(Mismatch{
			Kind:         LocationMismatch,
			Line:         e.Primary.Line,
			Column:       d.Location.Column,
			Rule:         d.Rule,
			Expected:     e.Primary.Span.String(),
			Actual:       spanText(d.Location),
			DiagnosticID: d.ID,
		})
	}
	if !messageMatches(e.Primary.Message, d.Message) {
		v.add(Mismatch{
			Kind:         MessageMismatch,
			Line:         e.Primary.Line,
			Column:       d.Location.Column,
			Rule:         d.Rule,
			Expected:     quote(e.Primary.Message),
			Actual:       quote(d.Message),
			DiagnosticID: d.ID,
		})
	}
}

// compareSecondaries matches expected and reported secondary locations
// as multisets. Reported locations in other files are ignored.
func (v *fileVerifier) compareSecondaries(e annotation.Expectation, d diagnostic.Diagnostic) {
	var locs []diagnostic.Location
	for _, loc := range d.Secondary {
		if loc.File == "" || v.router.inFile(loc, v.idx) {
			locs = append(locs, loc)
		}
	}
	used := make([]bool, len(locs))

	for _, s := range e.Secondaries {
		found := false
		for j, loc := range locs {
			if used[j] || loc.Line != s.Line {
				continue
			}
			if spanMatches(s.Span, loc) && messageMatches(s.Message, loc.Message) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			v.add(Mismatch{
				Kind:         MissingSecondary,
				Line:         s.Line,
				Column:       s.Span.Column,
				Rule:         d.Rule,
				Expected:     describeAssertion(s),
				DiagnosticID: d.ID,
			})
		}
	}

	for j, loc := range locs {
		if used[j] {
			continue
		}
		v.add(Mismatch{
			Kind:         UnexpectedSecondary,
			Line:         loc.Line,
			Column:       loc.Column,
			Rule:         d.Rule,
			Actual:       describeLocation(loc),
			DiagnosticID: d.ID,
		})
	}
}

func describeExpectation(e annotation.Expectation) string {
	var b strings.Builder
	b.WriteString(string(e.Primary.Kind))
	switch {
	case e.Code != "":
		fmt.Fprintf(&b, " [%s]", e.Code)
	case e.ID != "":
		fmt.Fprintf(&b, " [%s]", e.ID)
	}
	writeDetail(&b, e.Primary.Span, e.Primary.Message)
	return b.String()
}

func describeAssertion(a annotation.Assertion) string {
	var b strings.Builder
	b.WriteString(string(a.Kind))
	writeDetail(&b, a.Span, a.Message)
	return b.String()
}

func describeDiagnostic(d diagnostic.Diagnostic) string {
	var b strings.Builder
	b.WriteString(d.Rule)
	writeDetail(&b, d.Location.Span(), d.Message)
	return b.String()
}

func describeLocation(loc diagnostic.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "line %d", loc.Line)
	writeDetail(&b, loc.Span(), loc.Message)
	return b.String()
}

func writeDetail(b *strings.Builder, span annotation.Span, msg string) {
	if !span.IsZero() {
		b.WriteString(" " + span.String())
	}
	if msg != "" {
		b.WriteString(" " + quote(msg))
	}
}

func spanText(loc diagnostic.Location) string {
	if span := loc.Span(); !span.IsZero() {
		return span.String()
	}
	return "no column"
}

func quote(msg string) string { return "{{" + msg + "}}" }
