package translate

import (
	"strconv"

	"github.com/roach88/linearfn/internal/expr"
	"github.com/roach88/linearfn/internal/ir"
)

// predicate lowers a filter body to constraints.
//
//	a == b   → Eq(a, b)
//	p && q   → constraints of p, then of q
//	true     → nothing
//	r.flag   → Eq(flag, true)
func (t *translator) predicate(e expr.Expr, sc *scope) ([]ir.Constraint, error) {
	switch x := e.(type) {
	case expr.Eq:
		l, err := t.operand(x.L, sc)
		if err != nil {
			return nil, err
		}
		r, err := t.operand(x.R, sc)
		if err != nil {
			return nil, err
		}
		return []ir.Constraint{ir.Eq{Left: l, Right: r}}, nil

	case expr.And:
		l, err := t.predicate(x.L, sc)
		if err != nil {
			return nil, err
		}
		r, err := t.predicate(x.R, sc)
		if err != nil {
			return nil, err
		}
		return append(l, r...), nil

	case expr.Lit:
		if b, ok := x.Value.(ir.IRBool); ok && bool(b) {
			return nil, nil
		}
		return nil, newError(ErrCodeUnsupportedExpr, x, "filter literal must be true")

	case expr.Select:
		term, err := t.resolveSelect(x, sc)
		if err != nil {
			return nil, err
		}
		return []ir.Constraint{ir.Eq{Left: term, Right: ir.C(ir.NewIRBool(true))}}, nil

	default:
		return nil, newError(ErrCodeUnsupportedExpr, e, "filter predicate must be ==, && or true")
	}
}

// operand lowers one side of an equality to a term.
func (t *translator) operand(e expr.Expr, sc *scope) (ir.Term, error) {
	switch x := e.(type) {
	case expr.Select:
		return t.resolveSelect(x, sc)
	case expr.Lit:
		return ir.C(x.Value), nil
	default:
		return nil, newError(ErrCodeUnsupportedExpr, e, "equality operand must be a column or a literal")
	}
}

// projection lowers a map body to the produced row.
//
// Project fields resolve to the bound term (Select), a constant (Lit) or,
// for anything else, a fresh variable that no body atom binds.
func (t *translator) projection(e expr.Expr, sc *scope) (row, error) {
	switch x := e.(type) {
	case expr.Project:
		out := row{cols: x.Columns(), terms: make([]ir.Term, len(x.Fields))}
		for i, f := range x.Fields {
			switch fe := f.Expr.(type) {
			case expr.Select:
				term, err := t.resolveSelect(fe, sc)
				if err != nil {
					return row{}, err
				}
				out.terms[i] = term
			case expr.Lit:
				out.terms[i] = ir.C(fe.Value)
			case expr.Ref, expr.Project:
				return row{}, newError(ErrCodeUnsupportedExpr, f.Expr,
					"field %s: rows are flat, nested rows cannot be projected", f.Name)
			default:
				v := t.ctx.freshVar()
				t.log.Warn("projection produces an unbound variable",
					"field", f.Name, "expr", f.Expr.String(), "var", v.Name)
				out.terms[i] = v
			}
		}
		return out, nil

	case expr.Ref:
		r, ok := sc.lookup(x.ID)
		if !ok {
			return row{}, newError(ErrCodeUnboundRef, x, "map body %s is not bound by an enclosing lambda", x)
		}
		return r, nil

	case expr.Select:
		term, err := t.resolveSelect(x, sc)
		if err != nil {
			return row{}, err
		}
		return row{cols: []string{x.Name}, terms: []ir.Term{term}}, nil

	case expr.Lit:
		return row{cols: []string{expr.PositionalName(0)}, terms: []ir.Term{ir.C(x.Value)}}, nil

	default:
		v := t.ctx.freshVar()
		t.log.Warn("projection produces an unbound variable", "expr", e.String(), "var", v.Name)
		return row{cols: []string{expr.PositionalName(0)}, terms: []ir.Term{v}}, nil
	}
}

// resolveSelect maps x.name to the term bound for that column, resolving
// the target Ref by ID through the enclosing binders.
func (t *translator) resolveSelect(s expr.Select, sc *scope) (ir.Term, error) {
	ref, ok := s.X.(expr.Ref)
	if !ok {
		return nil, newError(ErrCodeUnsupportedExpr, s, "select must target a row parameter")
	}
	r, ok := sc.lookup(ref.ID)
	if !ok {
		return nil, newError(ErrCodeUnboundRef, s, "%s is not bound by an enclosing lambda", ref)
	}
	idx, ok := columnIndex(r.cols, s.Name)
	if !ok {
		return nil, newError(ErrCodeUnknownColumn, s, "row has columns %v", r.cols)
	}
	return r.terms[idx], nil
}

// columnIndex finds name among cols: exact match first, then the numeric
// suffix convention ("field2", "x2" → position 2, 1-based).
func columnIndex(cols []string, name string) (int, bool) {
	for i, c := range cols {
		if c == name {
			return i, true
		}
	}
	i := len(name)
	for i > 0 && name[i-1] >= '0' && name[i-1] <= '9' {
		i--
	}
	if i == len(name) || i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(name[i:])
	if err != nil || n < 1 || n > len(cols) {
		return 0, false
	}
	return n - 1, true
}
