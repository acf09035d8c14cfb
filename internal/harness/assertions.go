package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/linearfn/internal/ir"
	"github.com/roach88/linearfn/internal/query"
	"github.com/roach88/linearfn/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the rendered program to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Program  string // Rendered program
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Program != "" {
		fmt.Fprintf(&buf, "\nProgram:\n%s", e.Program)
	}
	return buf.String()
}

// evaluate checks one assertion against a compiled result. q is the
// compiled query, for assertions that compile again.
func evaluate(a Assertion, q query.Query, result *Result) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Program: result.program.Text()}
	}

	switch a.Type {
	case AssertExtensional:
		got := ir.Analyze(result.program).Extensional
		if !slices.Equal(got, a.Names) {
			return fail(fmt.Sprintf("inputs %v", a.Names), fmt.Sprintf("inputs %v", got))
		}
		return nil

	case AssertDeterministic:
		again, err := recompile(q, result.Compilation.Dialect)
		if err != nil {
			return fail("second compilation succeeds", err.Error())
		}
		if again != result.Text {
			return fail("byte-identical text", fmt.Sprintf("hash %s, then %s",
				ir.HashText(result.Compilation.Dialect, result.Text),
				ir.HashText(result.Compilation.Dialect, again)))
		}
		return nil
	}

	def, ok := result.program.Lookup(a.Predicate)
	if !ok {
		return fail("predicate "+a.Predicate, "no such predicate")
	}
	info, ok := storedPredicate(result.Compilation, a.Predicate)
	if !ok {
		return fail("predicate "+a.Predicate+" recorded", "missing from stored compilation")
	}

	switch a.Type {
	case AssertRuleContains:
		for _, r := range def.Rules {
			if r.String() == a.Rule {
				return nil
			}
		}
		return fail(a.Rule, def.String())

	case AssertRuleCount:
		if info.RuleCount != a.Count {
			return fail(fmt.Sprintf("%d rule(s) for %s", a.Count, a.Predicate), fmt.Sprintf("%d", info.RuleCount))
		}

	case AssertArity:
		if info.Arity != a.Arity {
			return fail(fmt.Sprintf("%s/%d", a.Predicate, a.Arity), fmt.Sprintf("%s/%d", a.Predicate, info.Arity))
		}

	case AssertRecursive:
		if !info.Recursive {
			return fail(a.Predicate+" recursive", "not in a recursive component")
		}
	}
	return nil
}

func storedPredicate(c store.Compilation, name string) (store.PredicateInfo, bool) {
	for _, p := range c.Predicates {
		if p.Name == name {
			return p, true
		}
	}
	return store.PredicateInfo{}, false
}
