package translate

import "github.com/roach88/linearfn/internal/ir"

// unify eliminates variable-to-variable equalities from a fragment.
//
// For every Eq(Var a, Var b) the later variable (ir.CompareVars) is
// replaced by the earlier one in atoms, constraints and output terms, and
// the equality is dropped. Equalities involving constants are kept after
// substitution. Constraints that become trivial (x == x, c == c) and exact
// duplicates are dropped.
func unify(f fragment) fragment {
	parent := make(map[ir.Var]ir.Var)

	var find func(v ir.Var) ir.Var
	find = func(v ir.Var) ir.Var {
		p, ok := parent[v]
		if !ok || p == v {
			return v
		}
		root := find(p)
		parent[v] = root
		return root
	}

	var kept []ir.Constraint
	for _, c := range f.constraints {
		eq, ok := c.(ir.Eq)
		if !ok {
			kept = append(kept, c)
			continue
		}
		l, lok := eq.Left.(ir.Var)
		r, rok := eq.Right.(ir.Var)
		if !lok || !rok {
			kept = append(kept, c)
			continue
		}
		a, b := find(l), find(r)
		if a == b {
			continue
		}
		if ir.CompareVars(a, b) <= 0 {
			parent[b] = a
		} else {
			parent[a] = b
		}
	}

	subst := func(t ir.Term) ir.Term {
		if v, ok := t.(ir.Var); ok {
			return find(v)
		}
		return t
	}
	substAll := func(ts []ir.Term) []ir.Term {
		out := make([]ir.Term, len(ts))
		for i, t := range ts {
			out[i] = subst(t)
		}
		return out
	}

	out := fragment{
		atoms: make([]ir.Atom, len(f.atoms)),
		out:   row{cols: f.out.cols, terms: substAll(f.out.terms)},
	}
	for i, a := range f.atoms {
		out.atoms[i] = ir.NewAtom(a.Predicate, substAll(a.Args)...)
	}

	seen := make(map[ir.Eq]bool)
	for _, c := range kept {
		eq, ok := c.(ir.Eq)
		if !ok {
			out.constraints = append(out.constraints, c)
			continue
		}
		eq = ir.Eq{Left: subst(eq.Left), Right: subst(eq.Right)}
		if eq.Left == eq.Right || seen[eq] {
			continue
		}
		seen[eq] = true
		out.constraints = append(out.constraints, eq)
	}
	return out
}
