package ir

import (
	"encoding/json"
	"strings"
)

// String renders a rule as Datalog source.
//
//	head(t, ...).                                  (fact)
//	head(t, ...) :- atom, ..., left == right, ... . (rule)
func (r Rule) String() string {
	if r.IsFact() {
		return r.Head.String() + "."
	}

	parts := make([]string, 0, len(r.Body)+len(r.Constraints))
	for _, a := range r.Body {
		parts = append(parts, a.String())
	}
	for _, c := range r.Constraints {
		parts = append(parts, c.String())
	}
	return r.Head.String() + " :- " + strings.Join(parts, ", ") + "."
}

// String renders the predicate's rules joined by newlines, in order.
func (d *PredicateDef) String() string {
	lines := make([]string, len(d.Rules))
	for i, r := range d.Rules {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

// Text renders the whole program.
// Predicate blocks appear in insertion order separated by one blank line.
// The result ends with a newline unless the program is empty.
//
// Text is a pure function: identical programs render byte-identical text.
func (p *Program) Text() string {
	if p == nil || len(p.order) == 0 {
		return ""
	}
	blocks := make([]string, 0, len(p.order))
	for _, def := range p.Predicates() {
		blocks = append(blocks, def.String())
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

// String is an alias for Text.
func (p *Program) String() string { return p.Text() }

// programJSON is the JSON shape of a program: rules are rendered text.
type programJSON struct {
	Predicates []predicateJSON `json:"predicates"`
}

type predicateJSON struct {
	Name  string   `json:"name"`
	Arity int      `json:"arity"`
	Rules []string `json:"rules"`
}

// MarshalJSON encodes the program with predicates in insertion order.
func (p *Program) MarshalJSON() ([]byte, error) {
	out := programJSON{Predicates: []predicateJSON{}}
	for _, def := range p.Predicates() {
		pj := predicateJSON{Name: def.Name, Rules: make([]string, len(def.Rules))}
		for i, r := range def.Rules {
			pj.Rules[i] = r.String()
			pj.Arity = r.Head.Arity()
		}
		out.Predicates = append(out.Predicates, pj)
	}
	return json.Marshal(out)
}
