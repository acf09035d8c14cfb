package translate

import (
	"log/slog"

	"github.com/roach88/linearfn/internal/expr"
	"github.com/roach88/linearfn/internal/ir"
	"github.com/roach88/linearfn/internal/query"
)

// translator lowers one query tree into prog.
//
// LOWERING:
//
// Every node lowers to a list of conjunctive fragments (see fragment). A
// fragment is one rule body in the making: atoms, constraints and the terms
// of the row it produces. Filter and Map rewrite fragments in place,
// FlatMap concatenates the outer and inner fragments, and a fragment only
// becomes a rule when a predicate is materialized. Join variables are
// merged by the unification pass in unify.go when the rule is emitted.
//
// EDB, Union and recursive groups always materialize as predicates of
// their own; the fragment they return is a single atom over that predicate.
type translator struct {
	ctx  *Context
	prog *ir.Program
	log  *slog.Logger
}

// row is the shape and content of the rows a fragment produces.
type row struct {
	cols  []string
	terms []ir.Term
}

// fragment is a conjunctive query: the head terms hold when every atom and
// every constraint holds.
type fragment struct {
	atoms       []ir.Atom
	constraints []ir.Constraint
	out         row
}

// scope binds lambda parameters to rows. Lookups walk outward through the
// enclosing binders, keyed by Ref ID.
type scope struct {
	parent *scope
	ref    uint64
	row    row
}

func (s *scope) bind(ref expr.Ref, r row) *scope {
	return &scope{parent: s, ref: ref.ID, row: r}
}

func (s *scope) lookup(id uint64) (row, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.ref == id {
			return cur.row, true
		}
	}
	return row{}, false
}

// binds reports whether any of ids is bound in s.
func (s *scope) binds(ids map[uint64]bool) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if ids[cur.ref] {
			return true
		}
	}
	return false
}

// emit adds target(out) :- atoms, constraints after unification.
func (t *translator) emit(target string, f fragment) ir.Rule {
	f = unify(f)
	r := ir.Rule{
		Head:        ir.NewAtom(target, f.out.terms...),
		Body:        f.atoms,
		Constraints: f.constraints,
	}
	t.prog.AddRule(r)
	t.log.Debug("emit rule", "predicate", target, "rule", r.String())
	return r
}

// forward emits target(vs) :- source(vs) over fresh variables.
func (t *translator) forward(target string, source Predicate) {
	vars := t.ctx.freshVars(len(source.Columns))
	t.emit(target, fragment{
		atoms: []ir.Atom{ir.NewAtom(source.Name, vars...)},
		out:   row{cols: source.Columns, terms: vars},
	})
}

// atomOver returns the single-atom fragment reading pred with fresh variables.
func (t *translator) atomOver(pred Predicate) fragment {
	vars := t.ctx.freshVars(len(pred.Columns))
	return fragment{
		atoms: []ir.Atom{ir.NewAtom(pred.Name, vars...)},
		out:   row{cols: pred.Columns, terms: vars},
	}
}

// materialize lowers q into rules for a named predicate. An empty target
// mints a fresh name, except for recursive references, which resolve to
// the predicate already assigned to them.
func (t *translator) materialize(q query.Query, target string, sc *scope) (Predicate, error) {
	switch node := q.(type) {
	case nil:
		return Predicate{}, newError(ErrCodeNilQuery, nil, "nil query node")
	case query.EDB:
		pred, _ := t.materializeEDB(node, target)
		return pred, nil
	case query.Union:
		return t.materializeUnion(node, target, sc)
	case query.IntensionalRef, query.IntensionalPredicates:
		pred, err := t.resolveIntensional(node, sc)
		if err != nil {
			return Predicate{}, err
		}
		if target == "" || target == pred.Name {
			return pred, nil
		}
		t.forward(target, pred)
		return Predicate{Name: target, Columns: pred.Columns}, nil
	}

	frags, err := t.lower(q, sc)
	if err != nil {
		return Predicate{}, err
	}
	if target == "" {
		target = t.ctx.freshPred()
	}
	var cols []string
	for _, f := range frags {
		if cols != nil && len(cols) != len(f.out.terms) {
			return Predicate{}, newError(ErrCodeArityMismatch, q,
				"alternatives produce %d and %d columns", len(cols), len(f.out.terms))
		}
		cols = f.out.cols
		t.emit(target, f)
	}
	return Predicate{Name: target, Columns: cols}, nil
}

// materializeEDB emits target(v_i..) :- name(v_i..) and returns the
// variables used, so the caller can read the predicate with the same names.
func (t *translator) materializeEDB(e query.EDB, target string) (Predicate, []ir.Term) {
	if target == "" {
		target = t.ctx.freshPred()
	}
	vars := t.ctx.freshVars(e.Arity())
	t.emit(target, fragment{
		atoms: []ir.Atom{ir.NewAtom(e.Name, vars...)},
		out:   row{cols: e.Columns, terms: vars},
	})
	return Predicate{Name: target, Columns: e.Columns}, vars
}

// materializeUnion emits two rules sharing one head, each forwarding one side.
func (t *translator) materializeUnion(u query.Union, target string, sc *scope) (Predicate, error) {
	left, err := t.materialize(u.Left, "", sc)
	if err != nil {
		return Predicate{}, err
	}
	right, err := t.materialize(u.Right, "", sc)
	if err != nil {
		return Predicate{}, err
	}
	if len(left.Columns) != len(right.Columns) {
		return Predicate{}, newError(ErrCodeArityMismatch, u,
			"union of %d-column %s and %d-column %s",
			len(left.Columns), left.Name, len(right.Columns), right.Name)
	}

	if target == "" {
		target = t.ctx.freshPred()
	}
	head := t.ctx.freshVars(len(left.Columns))
	for _, side := range []Predicate{left, right} {
		t.emit(target, fragment{
			atoms: []ir.Atom{ir.NewAtom(side.Name, head...)},
			out:   row{cols: left.Columns, terms: head},
		})
	}
	return Predicate{Name: target, Columns: left.Columns}, nil
}

// lower turns q into conjunctive fragments under sc.
func (t *translator) lower(q query.Query, sc *scope) ([]fragment, error) {
	switch node := q.(type) {
	case nil:
		return nil, newError(ErrCodeNilQuery, nil, "nil query node")

	case query.EDB:
		pred, vars := t.materializeEDB(node, "")
		return []fragment{{
			atoms: []ir.Atom{ir.NewAtom(pred.Name, vars...)},
			out:   row{cols: node.Columns, terms: vars},
		}}, nil

	case query.Filter:
		frags, err := t.lower(node.From, sc)
		if err != nil {
			return nil, err
		}
		for i := range frags {
			inner := sc.bind(node.Pred.Param, frags[i].out)
			cs, err := t.predicate(node.Pred.Body, inner)
			if err != nil {
				return nil, err
			}
			frags[i].constraints = append(frags[i].constraints, cs...)
		}
		return frags, nil

	case query.Map:
		frags, err := t.lower(node.From, sc)
		if err != nil {
			return nil, err
		}
		for i := range frags {
			inner := sc.bind(node.F.Param, frags[i].out)
			out, err := t.projection(node.F.Body, inner)
			if err != nil {
				return nil, err
			}
			frags[i].out = out
		}
		return frags, nil

	case query.FlatMap:
		outer, err := t.lower(node.From, sc)
		if err != nil {
			return nil, err
		}
		var out []fragment
		for _, of := range outer {
			innerScope := sc.bind(node.F.Param, of.out)
			inner, err := t.lower(node.F.Body, innerScope)
			if err != nil {
				return nil, err
			}
			for _, in := range inner {
				out = append(out, join(of, in))
			}
		}
		return out, nil

	case query.Union:
		if sc != nil && sc.binds(freeRefs(node)) {
			// Correlated with an enclosing binder: distribute instead of
			// materializing, one fragment list per side.
			left, err := t.lower(node.Left, sc)
			if err != nil {
				return nil, err
			}
			right, err := t.lower(node.Right, sc)
			if err != nil {
				return nil, err
			}
			if len(left) > 0 && len(right) > 0 && len(left[0].out.terms) != len(right[0].out.terms) {
				return nil, newError(ErrCodeArityMismatch, node,
					"union of %d-column and %d-column rows", len(left[0].out.terms), len(right[0].out.terms))
			}
			return append(left, right...), nil
		}
		pred, err := t.materializeUnion(node, "", sc)
		if err != nil {
			return nil, err
		}
		return []fragment{t.atomOver(pred)}, nil

	case query.IntensionalRef, query.IntensionalPredicates:
		pred, err := t.resolveIntensional(node, sc)
		if err != nil {
			return nil, err
		}
		return []fragment{t.atomOver(pred)}, nil

	default:
		return nil, newError(ErrCodeUnsupportedExpr, q, "unknown query type %T", q)
	}
}

// join concatenates an outer and an inner fragment; the inner row is the
// result.
func join(outer, inner fragment) fragment {
	atoms := make([]ir.Atom, 0, len(outer.atoms)+len(inner.atoms))
	atoms = append(atoms, outer.atoms...)
	atoms = append(atoms, inner.atoms...)
	cs := make([]ir.Constraint, 0, len(outer.constraints)+len(inner.constraints))
	cs = append(cs, outer.constraints...)
	cs = append(cs, inner.constraints...)
	return fragment{atoms: atoms, constraints: cs, out: inner.out}
}
