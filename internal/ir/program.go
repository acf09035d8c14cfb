package ir

import (
	"strconv"
	"strings"
)

// Term is a rule argument: a variable or a constant.
//
// This is a sealed interface. Terms are plain values and compare
// structurally with ==.
type Term interface {
	term() // Marker method - seals interface to this package
	String() string
}

// Var is a logic variable. Its scope is the rule it appears in.
type Var struct {
	Name string
}

func (Var) term() {}

// String renders the bare variable name.
func (v Var) String() string { return v.Name }

// Const is a constant term.
type Const struct {
	Value IRValue
}

func (Const) term() {}

// String renders the literal value.
func (c Const) String() string {
	if c.Value == nil {
		return "<nil>"
	}
	return c.Value.Literal()
}

// V creates a variable term.
func V(name string) Var { return Var{Name: name} }

// C creates a constant term.
func C(v IRValue) Const { return Const{Value: v} }

// CompareVars orders variables for join unification.
// Variables named with a shared prefix and a numeric suffix ("v2", "v10")
// compare numerically; everything else compares lexicographically.
func CompareVars(a, b Var) int {
	ap, an, aok := splitIndex(a.Name)
	bp, bn, bok := splitIndex(b.Name)
	if aok && bok && ap == bp {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a.Name, b.Name)
}

// splitIndex splits "v12" into ("v", 12, true).
func splitIndex(name string) (string, int64, bool) {
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) {
		return name, 0, false
	}
	n, err := strconv.ParseInt(name[i:], 10, 64)
	if err != nil {
		return name, 0, false
	}
	return name[:i], n, true
}

// Constraint is a side condition on a rule that is not expressed through
// shared variables.
//
// This is a sealed interface. Eq is the only constraint today.
type Constraint interface {
	constraint() // Marker method - seals interface to this package
	String() string
	Terms() []Term
}

// Eq constrains two terms to be equal.
type Eq struct {
	Left  Term
	Right Term
}

func (Eq) constraint() {}

// String renders "left == right".
func (e Eq) String() string {
	return e.Left.String() + " == " + e.Right.String()
}

// Terms returns both sides of the equality.
func (e Eq) Terms() []Term { return []Term{e.Left, e.Right} }

// Atom is a predicate applied to positional terms.
type Atom struct {
	Predicate string
	Args      []Term
}

// NewAtom creates an atom.
func NewAtom(pred string, args ...Term) Atom {
	return Atom{Predicate: pred, Args: args}
}

// Arity returns the number of arguments.
func (a Atom) Arity() int { return len(a.Args) }

// String renders "name(t1, t2)".
func (a Atom) String() string {
	var b strings.Builder
	b.WriteString(a.Predicate)
	b.WriteByte('(')
	for i, t := range a.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Rule derives Head when every Body atom and every Constraint holds.
// A rule with an empty body and no constraints is a fact.
type Rule struct {
	Head        Atom
	Body        []Atom
	Constraints []Constraint
}

// IsFact reports whether the rule has neither body atoms nor constraints.
func (r Rule) IsFact() bool {
	return len(r.Body) == 0 && len(r.Constraints) == 0
}

// Vars returns the distinct variables of the rule in first-occurrence order
// (head, then body, then constraints).
func (r Rule) Vars() []Var {
	seen := make(map[Var]bool)
	var out []Var
	add := func(t Term) {
		if v, ok := t.(Var); ok && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, t := range r.Head.Args {
		add(t)
	}
	for _, a := range r.Body {
		for _, t := range a.Args {
			add(t)
		}
	}
	for _, c := range r.Constraints {
		for _, t := range c.Terms() {
			add(t)
		}
	}
	return out
}

// PredicateDef is a named predicate and its rules, read as a disjunction.
type PredicateDef struct {
	Name  string
	Rules []Rule
}

// Program maps predicate names to their definitions.
// Insertion order is preserved for deterministic rendering.
//
// A Program is built by a single translation pass and treated as
// immutable afterwards.
type Program struct {
	order []string
	preds map[string]*PredicateDef
}

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{preds: make(map[string]*PredicateDef)}
}

// AddRule appends a rule to the predicate named by the rule head,
// creating the predicate on first use.
func (p *Program) AddRule(r Rule) {
	name := r.Head.Predicate
	def, ok := p.preds[name]
	if !ok {
		def = &PredicateDef{Name: name}
		p.preds[name] = def
		p.order = append(p.order, name)
	}
	def.Rules = append(def.Rules, r)
}

// Merge appends every predicate of other, in other's order.
// Rules of predicates present in both are appended after existing rules.
func (p *Program) Merge(other *Program) {
	if other == nil {
		return
	}
	for _, def := range other.Predicates() {
		for _, r := range def.Rules {
			p.AddRule(r)
		}
	}
}

// Lookup returns the definition of a predicate.
func (p *Program) Lookup(name string) (*PredicateDef, bool) {
	def, ok := p.preds[name]
	return def, ok
}

// Predicates returns definitions in insertion order.
func (p *Program) Predicates() []*PredicateDef {
	out := make([]*PredicateDef, 0, len(p.order))
	for _, name := range p.order {
		out = append(out, p.preds[name])
	}
	return out
}

// Len returns the number of predicates.
func (p *Program) Len() int { return len(p.order) }

// RuleCount returns the total number of rules across all predicates.
func (p *Program) RuleCount() int {
	n := 0
	for _, def := range p.preds {
		n += len(def.Rules)
	}
	return n
}
