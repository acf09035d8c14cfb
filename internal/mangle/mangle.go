// Package mangle exports programs to the Mangle Datalog dialect.
//
// The IR renders its own plain Datalog text (ir.Program.Text). Mangle has
// stricter lexical rules: variables start with an uppercase letter,
// predicate names with a lowercase letter, booleans are the names /true
// and /false, and equality is written "=". Export builds mangle ast
// clauses from a program and Render prints them; Check parses text back
// with the mangle parser so exported programs are known to be loadable.
package mangle

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/mangle/ast"
	"github.com/google/mangle/parse"

	"github.com/roach88/linearfn/internal/ir"
)

// Export converts every rule of p, in program order, to a mangle clause.
func Export(p *ir.Program) ([]ast.Clause, error) {
	var clauses []ast.Clause
	for _, def := range p.Predicates() {
		for i, r := range def.Rules {
			c, err := exportRule(r)
			if err != nil {
				return nil, fmt.Errorf("predicate %s rule %d: %w", def.Name, i, err)
			}
			clauses = append(clauses, c)
		}
	}
	return clauses, nil
}

// Render exports p and prints one clause per line, with a blank line
// between predicate blocks.
func Render(p *ir.Program) (string, error) {
	var sb strings.Builder
	for bi, def := range p.Predicates() {
		if bi > 0 {
			sb.WriteString("\n")
		}
		for i, r := range def.Rules {
			c, err := exportRule(r)
			if err != nil {
				return "", fmt.Errorf("predicate %s rule %d: %w", def.Name, i, err)
			}
			sb.WriteString(c.String())
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// Check parses source with the mangle parser and returns the number of
// clauses it contains.
func Check(source string) (int, error) {
	unit, err := parse.Unit(strings.NewReader(source))
	if err != nil {
		return 0, fmt.Errorf("mangle parse failed: %w", err)
	}
	return len(unit.Clauses), nil
}

// RenderChecked renders p and verifies the result parses.
func RenderChecked(p *ir.Program) (string, error) {
	text, err := Render(p)
	if err != nil {
		return "", err
	}
	n, err := Check(text)
	if err != nil {
		return "", err
	}
	if want := p.RuleCount(); n != want {
		return "", fmt.Errorf("mangle parse returned %d clauses, want %d", n, want)
	}
	return text, nil
}

func exportRule(r ir.Rule) (ast.Clause, error) {
	head, err := exportAtom(r.Head)
	if err != nil {
		return ast.Clause{}, err
	}
	if r.IsFact() {
		return ast.Clause{Head: head}, nil
	}

	premises := make([]ast.Term, 0, len(r.Body)+len(r.Constraints))
	for _, a := range r.Body {
		atom, err := exportAtom(a)
		if err != nil {
			return ast.Clause{}, err
		}
		premises = append(premises, atom)
	}
	for _, c := range r.Constraints {
		eq, ok := c.(ir.Eq)
		if !ok {
			return ast.Clause{}, fmt.Errorf("unsupported constraint %s", c)
		}
		left, err := exportTerm(eq.Left)
		if err != nil {
			return ast.Clause{}, err
		}
		right, err := exportTerm(eq.Right)
		if err != nil {
			return ast.Clause{}, err
		}
		premises = append(premises, ast.Eq{Left: left, Right: right})
	}
	return ast.Clause{Head: head, Premises: premises}, nil
}

func exportAtom(a ir.Atom) (ast.Atom, error) {
	if !isPredicateName(a.Predicate) {
		return ast.Atom{}, fmt.Errorf("predicate name %q must start with a lowercase letter", a.Predicate)
	}
	args := make([]ast.BaseTerm, 0, len(a.Args))
	for _, t := range a.Args {
		bt, err := exportTerm(t)
		if err != nil {
			return ast.Atom{}, err
		}
		args = append(args, bt)
	}
	return ast.NewAtom(a.Predicate, args...), nil
}

func exportTerm(t ir.Term) (ast.BaseTerm, error) {
	switch x := t.(type) {
	case ir.Var:
		return ast.Variable{Symbol: VariableName(x.Name)}, nil
	case ir.Const:
		switch v := x.Value.(type) {
		case ir.IRString:
			return ast.String(string(v)), nil
		case ir.IRInt:
			return ast.Number(int64(v)), nil
		case ir.IRBool:
			if v {
				return ast.TrueConstant, nil
			}
			return ast.FalseConstant, nil
		}
		return nil, fmt.Errorf("unsupported constant %T", x.Value)
	}
	return nil, fmt.Errorf("unsupported term %T", t)
}

// VariableName maps an IR variable name to a mangle variable: the first
// letter is uppercased ("v3" → "V3"); names not starting with a letter get
// a "V" prefix.
func VariableName(name string) string {
	if name == "" {
		return "V"
	}
	r := []rune(name)
	if !unicode.IsLetter(r[0]) {
		return "V" + name
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func isPredicateName(name string) bool {
	for i, r := range name {
		switch {
		case i == 0 && !(r >= 'a' && r <= 'z'):
			return false
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
		default:
			return false
		}
	}
	return name != ""
}
