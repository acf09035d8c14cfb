package translate

import (
	"github.com/roach88/linearfn/internal/expr"
	"github.com/roach88/linearfn/internal/query"
)

// resolveIntensional returns the predicate assigned to a recursive
// reference or group member, translating the group on first use.
func (t *translator) resolveIntensional(q query.Query, sc *scope) (Predicate, error) {
	switch node := q.(type) {
	case query.IntensionalRef:
		pred, ok := t.ctx.Env[node.ID]
		if !ok {
			return Predicate{}, newError(ErrCodeUnresolvedRef, node,
				"recursive reference is not bound by any enclosing group or environment")
		}
		return pred, nil

	case query.IntensionalPredicates:
		if node.Group == nil {
			return Predicate{}, newError(ErrCodeNilQuery, node, "recursive group is nil")
		}
		if node.Index < 0 || node.Index >= len(node.Group.Members) {
			return Predicate{}, newError(ErrCodeUnresolvedRef, node,
				"index %d out of range for a group of %d", node.Index, len(node.Group.Members))
		}
		preds, err := t.translateGroup(node.Group, sc)
		if err != nil {
			return Predicate{}, err
		}
		return preds[node.Index], nil
	}
	return Predicate{}, newError(ErrCodeUnsupportedExpr, q, "not a recursive reference")
}

// translateGroup names every member in ascending ref order, extends the
// environment and translates each body once per compilation.
func (t *translator) translateGroup(g *query.Group, sc *scope) ([]Predicate, error) {
	if preds, ok := t.ctx.groups[g]; ok {
		return preds, nil
	}

	for _, m := range g.Members {
		if sc.binds(freeRefs(m.Body)) {
			return nil, newError(ErrCodeCorrelatedRecursion, m.Ref,
				"recursive body reads a row bound outside the group")
		}
	}

	preds := make([]Predicate, len(g.Members))
	for i := range g.Members {
		preds[i].Name = t.ctx.freshPred()
	}
	cols, err := t.groupColumns(g)
	if err != nil {
		return nil, err
	}
	for i, m := range g.Members {
		preds[i].Columns = cols[i]
		t.ctx.Env[m.Ref.ID] = preds[i]
	}
	t.ctx.groups[g] = preds

	for i, m := range g.Members {
		t.log.Debug("translate recursive member", "ref", m.Ref.ID, "predicate", preds[i].Name)
		got, err := t.materialize(m.Body, preds[i].Name, nil)
		if err != nil {
			return nil, err
		}
		if len(got.Columns) != len(preds[i].Columns) {
			return nil, newError(ErrCodeArityMismatch, m.Body,
				"recursive member %s declared %d columns, body produces %d",
				preds[i].Name, len(preds[i].Columns), len(got.Columns))
		}
	}
	return preds, nil
}

// groupColumns infers the row shape of every member. Members whose shape
// depends on another member are retried until no progress is made.
func (t *translator) groupColumns(g *query.Group) ([][]string, error) {
	known := make(map[uint64][]string, len(g.Members))
	out := make([][]string, len(g.Members))
	for progress := true; progress; {
		progress = false
		for i, m := range g.Members {
			if out[i] != nil {
				continue
			}
			if cols, ok := t.columnsOf(m.Body, known, nil); ok {
				out[i] = cols
				known[m.Ref.ID] = cols
				progress = true
			}
		}
	}
	for i, m := range g.Members {
		if out[i] == nil {
			return nil, newError(ErrCodeArityMismatch, m.Ref,
				"cannot infer the columns of recursive member #%d", m.Ref.ID)
		}
	}
	return out, nil
}

// columnsOf computes the column names q produces without translating it.
// known holds members of the group under construction; binders holds the
// columns of enclosing lambda parameters.
func (t *translator) columnsOf(q query.Query, known map[uint64][]string, binders *scope) ([]string, bool) {
	switch node := q.(type) {
	case query.EDB:
		return node.Columns, true

	case query.Filter:
		return t.columnsOf(node.From, known, binders)

	case query.Map:
		switch body := node.F.Body.(type) {
		case expr.Project:
			return body.Columns(), true
		case expr.Ref:
			if body.ID == node.F.Param.ID {
				return t.columnsOf(node.From, known, binders)
			}
			r, ok := binders.lookup(body.ID)
			return r.cols, ok
		case expr.Select:
			return []string{body.Name}, true
		default:
			return []string{expr.PositionalName(0)}, true
		}

	case query.FlatMap:
		from, ok := t.columnsOf(node.From, known, binders)
		if !ok {
			return nil, false
		}
		return t.columnsOf(node.F.Body, known, binders.bind(node.F.Param, row{cols: from}))

	case query.Union:
		if cols, ok := t.columnsOf(node.Left, known, binders); ok {
			return cols, true
		}
		return t.columnsOf(node.Right, known, binders)

	case query.IntensionalRef:
		if pred, ok := t.ctx.Env[node.ID]; ok {
			return pred.Columns, true
		}
		cols, ok := known[node.ID]
		return cols, ok

	case query.IntensionalPredicates:
		if node.Group == nil || node.Index < 0 || node.Index >= len(node.Group.Members) {
			return nil, false
		}
		if preds, ok := t.ctx.groups[node.Group]; ok {
			return preds[node.Index].Columns, true
		}
		return t.columnsOf(node.Group.Members[node.Index].Body, known, binders)
	}
	return nil, false
}

// freeRefs returns the IDs of Refs that q reads but does not bind.
func freeRefs(q query.Query) map[uint64]bool {
	out := make(map[uint64]bool)
	collectFree(q, out, make(map[*query.Group]bool))
	return out
}

func collectFree(q query.Query, out map[uint64]bool, seen map[*query.Group]bool) {
	addLambda := func(param expr.Ref, body map[uint64]bool) {
		for id := range body {
			if id != param.ID {
				out[id] = true
			}
		}
	}

	switch node := q.(type) {
	case query.Filter:
		collectFree(node.From, out, seen)
		addLambda(node.Pred.Param, expr.Refs(node.Pred.Body))
	case query.Map:
		collectFree(node.From, out, seen)
		addLambda(node.F.Param, expr.Refs(node.F.Body))
	case query.FlatMap:
		collectFree(node.From, out, seen)
		inner := make(map[uint64]bool)
		collectFree(node.F.Body, inner, seen)
		addLambda(node.F.Param, inner)
	case query.Union:
		collectFree(node.Left, out, seen)
		collectFree(node.Right, out, seen)
	case query.IntensionalPredicates:
		if node.Group == nil || seen[node.Group] {
			return
		}
		seen[node.Group] = true
		for _, m := range node.Group.Members {
			collectFree(m.Body, out, seen)
		}
	}
}
