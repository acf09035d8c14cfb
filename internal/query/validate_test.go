package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linearfn/internal/expr"
)

// closure builds path = edge ∪ (path ⋈ edge) as a one-member group.
func closure() IntensionalPredicates {
	edge := NewEDB("edge", 2)
	path := NewIntensionalRef()
	body := NewUnion(edge, NewFlatMap(path, func(p expr.Ref) Query {
		return NewMap(
			NewFilter(edge, func(e expr.Ref) expr.Expr {
				return expr.Equal(e.Col("field1"), p.Col("field2"))
			}),
			func(e expr.Ref) expr.Expr { return expr.Tuple(p.Col("field1"), e.Col("field2")) },
		)
	}))
	return IntensionalPredicates{Group: NewGroup(Member{Ref: path, Body: body}), Index: 0}
}

func TestValidate_WellFormed(t *testing.T) {
	q := From(NewEDB("q1", 2)).
		Filter(func(r expr.Ref) expr.Expr {
			return expr.All(expr.Equal(r.Col("field1"), expr.Int(5)), expr.Bool(true))
		}).
		Map(func(r expr.Ref) expr.Expr { return expr.Tuple(r.Col("field2"), expr.Str("x")) }).
		Query()

	result := Validate(q)

	assert.True(t, result.IsWellFormed)
	assert.Empty(t, result.Warnings)
	assert.NotNil(t, result.Warnings, "empty slice, not nil, for JSON output")
}

func TestValidate_Recursive(t *testing.T) {
	result := Validate(closure())

	assert.True(t, result.IsWellFormed, "warnings: %v", result.Warnings)
}

func TestValidate_CorrelatedFlatMap(t *testing.T) {
	q := NewFlatMap(NewEDB("a", 2), func(x expr.Ref) Query {
		return NewFilter(NewEDB("b", 2), func(y expr.Ref) expr.Expr {
			return expr.Equal(x.Col("field2"), y.Col("field1"))
		})
	})

	assert.True(t, Validate(q).IsWellFormed)
}

func TestValidate_Warnings(t *testing.T) {
	edb := NewEDB("q1", 2)
	outside := expr.NewRef()

	tests := []struct {
		name    string
		query   Query
		wantMsg string
	}{
		{
			name:    "nil query",
			query:   nil,
			wantMsg: "nil query node",
		},
		{
			name:    "empty EDB name",
			query:   NewEDB("", 1),
			wantMsg: "EDB with empty predicate name",
		},
		{
			name:    "EDB without columns",
			query:   NewEDB("e", 0),
			wantMsg: "EDB(e/0) has no columns",
		},
		{
			name: "select on unbound ref",
			query: NewFilter(edb, func(r expr.Ref) expr.Expr {
				return expr.Equal(outside.Col("field1"), expr.Int(1))
			}),
			wantMsg: "which no enclosing lambda binds",
		},
		{
			name: "select on non-ref",
			query: NewMap(edb, func(r expr.Ref) expr.Expr {
				return expr.Select{X: expr.Int(1), Name: "field1"}
			}),
			wantMsg: "does not target a row parameter",
		},
		{
			name:    "free intensional ref",
			query:   NewIntensionalRef(),
			wantMsg: "is not a member of any enclosing recursive group",
		},
		{
			name:    "nil group",
			query:   IntensionalPredicates{},
			wantMsg: "IntensionalPredicates with nil group",
		},
		{
			name:    "index out of range",
			query:   IntensionalPredicates{Group: closure().Group, Index: 3},
			wantMsg: "index out of range (group has 1 members)",
		},
		{
			name: "computed projection",
			query: NewMap(edb, func(r expr.Ref) expr.Expr {
				return expr.Row(expr.F("sum", expr.Add(r.Col("field1"), expr.Int(1))))
			}),
			wantMsg: "projected field sum",
		},
		{
			name: "computed map body",
			query: NewMap(edb, func(r expr.Ref) expr.Expr {
				return expr.Add(r.Col("field1"), expr.Int(1))
			}),
			wantMsg: "produces an unbound variable",
		},
		{
			name: "unbound map body ref",
			query: NewMap(edb, func(r expr.Ref) expr.Expr {
				return outside
			}),
			wantMsg: "is not bound by any enclosing lambda",
		},
		{
			name: "false filter literal",
			query: NewFilter(edb, func(r expr.Ref) expr.Expr {
				return expr.Bool(false)
			}),
			wantMsg: "literal false is not true",
		},
		{
			name: "non-boolean filter",
			query: NewFilter(edb, func(r expr.Ref) expr.Expr {
				return expr.Add(r.Col("field1"), expr.Int(1))
			}),
			wantMsg: "is not an equality or conjunction",
		},
		{
			name: "computed equality operand",
			query: NewFilter(edb, func(r expr.Ref) expr.Expr {
				return expr.Equal(expr.Add(r.Col("field1"), expr.Int(1)), expr.Int(2))
			}),
			wantMsg: "is neither a column nor a literal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.query)

			assert.False(t, result.IsWellFormed)
			require.NotEmpty(t, result.Warnings)
			assert.Contains(t, result.Warnings[0], tt.wantMsg)
		})
	}
}

func TestValidate_CollectsAllWarnings(t *testing.T) {
	q := NewUnion(
		NewEDB("", 2),
		NewMap(NewIntensionalRef(), func(r expr.Ref) expr.Expr {
			return expr.Add(r.Col("field1"), expr.Int(1))
		}),
	)

	result := Validate(q)

	require.Len(t, result.Warnings, 3)
	assert.Contains(t, result.Warnings[0], "empty predicate name")
	assert.Contains(t, result.Warnings[1], "enclosing recursive group")
	assert.Contains(t, result.Warnings[2], "unbound variable")
}

func TestValidate_RefOutsideGroup(t *testing.T) {
	g := closure()
	ref := g.Group.Members[0].Ref

	// The member's reference is only valid inside the group's bodies.
	result := Validate(NewUnion(g, ref))

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "is not a member of any enclosing recursive group")
}
