package annotation

import (
	"errors"
	"fmt"
)

// Expectation is one diagnostic a fixture expects the analyzer to
// report, together with the secondary locations linked to it.
type Expectation struct {
	// Primary is the Noncompliant or Error assertion.
	Primary Assertion `json:"primary"`

	// ID is the issue identifier used to link secondaries.
	ID string `json:"id,omitempty"`

	// Code is the compiler diagnostic code for Error expectations.
	// Empty for rule expectations.
	Code string `json:"code,omitempty"`

	// Secondaries are the expected secondary locations.
	Secondaries []Assertion `json:"secondaries,omitempty"`
}

// Compiler reports whether the expectation is a compiler error rather
// than a rule diagnostic.
func (e Expectation) Compiler() bool { return e.Primary.Kind == Error }

// Link turns the assertions of a single file into expectations.
//
// A Noncompliant with ids [a, b] yields one expectation per id, and a
// Noncompliant with a count yields that many expectations. An Error
// with codes yields one expectation per code. Secondaries attach to
// the primary with the same id, or, when unlabelled, to the only
// unlabelled primary in the file. Fixed assertions produce no
// expectations.
func Link(asserts []Assertion) ([]Expectation, error) {
	var (
		exps        []Expectation
		errs        []error
		byID        = make(map[string]int)
		unlabelled  []int
		secondaries []Assertion
	)

	fail := func(a Assertion, format string, args ...any) {
		errs = append(errs, &ParseError{File: a.File, Line: a.SourceLine, Msg: fmt.Sprintf(format, args...)})
	}

	for _, a := range asserts {
		switch a.Kind {
		case Noncompliant:
			if len(a.IDs) > 0 {
				for _, id := range a.IDs {
					if _, dup := byID[id]; dup {
						fail(a, "duplicate issue id %q", id)
						continue
					}
					byID[id] = len(exps)
					exps = append(exps, Expectation{Primary: a, ID: id})
				}
				continue
			}
			for n := max(a.Count, 1); n > 0; n-- {
				unlabelled = append(unlabelled, len(exps))
				exps = append(exps, Expectation{Primary: a})
			}
		case Error:
			if len(a.IDs) == 0 {
				exps = append(exps, Expectation{Primary: a})
				continue
			}
			for _, code := range a.IDs {
				exps = append(exps, Expectation{Primary: a, Code: code})
			}
		case Secondary:
			secondaries = append(secondaries, a)
		}
	}

	for _, s := range secondaries {
		if len(s.IDs) == 0 {
			if len(unlabelled) != 1 {
				fail(s, "secondary location without id needs exactly one unlabelled primary, found %d", len(unlabelled))
				continue
			}
			idx := unlabelled[0]
			exps[idx].Secondaries = append(exps[idx].Secondaries, s)
			continue
		}
		for _, id := range s.IDs {
			idx, ok := byID[id]
			if !ok {
				fail(s, "secondary location references unknown issue id %q", id)
				continue
			}
			exps[idx].Secondaries = append(exps[idx].Secondaries, s)
		}
	}

	return exps, errors.Join(errs...)
}
