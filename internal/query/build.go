package query

import "github.com/roach88/linearfn/internal/expr"

// NewFilter builds Filter(from, pred) with a fresh row parameter.
func NewFilter(from Query, pred func(r expr.Ref) expr.Expr) Filter {
	return Filter{From: from, Pred: expr.Lambda(pred)}
}

// NewMap builds Map(from, f) with a fresh row parameter.
func NewMap(from Query, f func(r expr.Ref) expr.Expr) Map {
	return Map{From: from, F: expr.Lambda(f)}
}

// NewFlatMap builds FlatMap(from, f) with a fresh row parameter.
func NewFlatMap(from Query, f func(r expr.Ref) Query) FlatMap {
	r := expr.NewRef()
	return FlatMap{From: from, F: QueryFun{Param: r, Body: f(r)}}
}

// NewUnion builds Union(left, right).
func NewUnion(left, right Query) Union {
	return Union{Left: left, Right: right}
}

// Builder chains combinators over a query.
//
//	q := query.From(query.NewEDB("q1", 2)).
//	    Filter(func(r expr.Ref) expr.Expr { return expr.Equal(r.Col("field1"), expr.Int(5)) }).
//	    Map(func(r expr.Ref) expr.Expr { return expr.Tuple(r.Col("field2")) }).
//	    Query()
type Builder struct {
	q Query
}

// From starts a chain.
func From(q Query) Builder { return Builder{q: q} }

// Filter appends a Filter.
func (b Builder) Filter(pred func(r expr.Ref) expr.Expr) Builder {
	return Builder{q: NewFilter(b.q, pred)}
}

// Map appends a Map.
func (b Builder) Map(f func(r expr.Ref) expr.Expr) Builder {
	return Builder{q: NewMap(b.q, f)}
}

// FlatMap appends a FlatMap.
func (b Builder) FlatMap(f func(r expr.Ref) Query) Builder {
	return Builder{q: NewFlatMap(b.q, f)}
}

// Union unions the chain with other.
func (b Builder) Union(other Query) Builder {
	return Builder{q: NewUnion(b.q, other)}
}

// Query returns the built node.
func (b Builder) Query() Query { return b.q }
