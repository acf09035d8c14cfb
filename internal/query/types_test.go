package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linearfn/internal/expr"
)

func TestQuerySealed(t *testing.T) {
	// Verify all node types implement Query (compile-time check via assignment)
	var _ Query = EDB{}
	var _ Query = Filter{}
	var _ Query = Map{}
	var _ Query = FlatMap{}
	var _ Query = Union{}
	var _ Query = IntensionalRef{}
	var _ Query = IntensionalPredicates{}
}

func TestNewEDB(t *testing.T) {
	e := NewEDB("q1", 3)

	assert.Equal(t, []string{"field1", "field2", "field3"}, e.Columns)
	assert.Equal(t, 3, e.Arity())
	assert.Equal(t, "EDB(q1/3)", e.String())
}

func TestNewEDBColumnsCopies(t *testing.T) {
	cols := []string{"src", "dst"}
	e := NewEDBColumns("edge", cols...)
	cols[0] = "changed"

	assert.Equal(t, []string{"src", "dst"}, e.Columns)
}

func TestNewIntensionalRefUnique(t *testing.T) {
	a := NewIntensionalRef()
	b := NewIntensionalRef()

	assert.NotEqual(t, a, b)
	assert.Equal(t, fmt.Sprintf("IntensionalRef(#%d)", a.ID), a.String())
}

func TestNewGroupOrdersMembers(t *testing.T) {
	r1 := NewIntensionalRef()
	r2 := NewIntensionalRef()
	edge := NewEDB("edge", 2)

	g := NewGroup(Member{Ref: r2, Body: edge}, Member{Ref: r1, Body: r2})

	require.Len(t, g.Members, 2)
	assert.Equal(t, r1, g.Members[0].Ref)
	assert.Equal(t, r2, g.Members[1].Ref)

	body, ok := g.Body(r2)
	require.True(t, ok)
	assert.Equal(t, edge, body)

	assert.True(t, g.Contains(r1))
	assert.False(t, g.Contains(NewIntensionalRef()))
	assert.Equal(t, map[uint64]Query{r1.ID: r2, r2.ID: edge}, g.Bodies())

	want := fmt.Sprintf("IntensionalPredicates([#%d #%d], 1)", r1.ID, r2.ID)
	assert.Equal(t, want, IntensionalPredicates{Group: g, Index: 1}.String())
}

func TestBuilder(t *testing.T) {
	q1 := NewEDB("q1", 2)

	q := From(q1).
		Filter(func(r expr.Ref) expr.Expr { return expr.Equal(r.Col("field1"), expr.Int(5)) }).
		Map(func(r expr.Ref) expr.Expr { return expr.Tuple(r.Col("field2")) }).
		Query()

	m, ok := q.(Map)
	require.True(t, ok, "outermost node is the last combinator")
	f, ok := m.From.(Filter)
	require.True(t, ok)
	assert.Equal(t, q1, f.From)
	assert.NotEqual(t, f.Pred.Param, m.F.Param, "each combinator binds a fresh row")
}

func TestString(t *testing.T) {
	q1 := NewEDB("q1", 2)
	u := NewUnion(q1, NewEDB("q2", 2))
	assert.Equal(t, "Union(EDB(q1/2), EDB(q2/2))", u.String())

	var nilChild Query
	assert.Equal(t, "Union(<nil>, EDB(q1/2))", NewUnion(nilChild, q1).String())
	assert.Equal(t, "IntensionalPredicates(<nil>, 0)", IntensionalPredicates{}.String())

	f := NewFilter(q1, func(r expr.Ref) expr.Expr { return expr.Bool(true) })
	assert.Equal(t, fmt.Sprintf("Filter(EDB(q1/2), %s)", f.Pred), f.String())
}
