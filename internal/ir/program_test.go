package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closureProgram is the transitive closure of edge read through p0.
func closureProgram() *Program {
	p := NewProgram()
	p.AddRule(Rule{
		Head: NewAtom("p0", V("v0"), V("v1")),
		Body: []Atom{NewAtom("p1", V("v0"), V("v1"))},
	})
	p.AddRule(Rule{
		Head: NewAtom("p1", V("v2"), V("v3")),
		Body: []Atom{NewAtom("edge", V("v2"), V("v3"))},
	})
	p.AddRule(Rule{
		Head: NewAtom("p1", V("v2"), V("v3")),
		Body: []Atom{
			NewAtom("p1", V("v2"), V("v4")),
			NewAtom("edge", V("v4"), V("v3")),
		},
	})
	return p
}

const closureText = `p0(v0, v1) :- p1(v0, v1).

p1(v2, v3) :- edge(v2, v3).
p1(v2, v3) :- p1(v2, v4), edge(v4, v3).
`

func TestRuleString(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want string
	}{
		{
			name: "fact",
			rule: Rule{Head: NewAtom("f", C(IRInt(1)), C(IRString("a")))},
			want: `f(1, "a").`,
		},
		{
			name: "body only",
			rule: Rule{
				Head: NewAtom("p1", V("v0"), V("v1")),
				Body: []Atom{NewAtom("q1", V("v0"), V("v1"))},
			},
			want: "p1(v0, v1) :- q1(v0, v1).",
		},
		{
			name: "constraints after atoms",
			rule: Rule{
				Head:        NewAtom("p0", V("v1")),
				Body:        []Atom{NewAtom("p1", V("v0"), V("v1"))},
				Constraints: []Constraint{Eq{Left: V("v0"), Right: C(IRInt(5))}},
			},
			want: "p0(v1) :- p1(v0, v1), v0 == 5.",
		},
		{
			name: "nullary head",
			rule: Rule{Head: NewAtom("p0"), Body: []Atom{NewAtom("q")}},
			want: "p0() :- q().",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.String())
		})
	}
}

func TestRuleIsFact(t *testing.T) {
	assert.True(t, Rule{Head: NewAtom("f", C(IRInt(1)))}.IsFact())
	assert.False(t, Rule{
		Head:        NewAtom("f", V("x")),
		Constraints: []Constraint{Eq{Left: V("x"), Right: C(IRInt(1))}},
	}.IsFact())
}

func TestRuleVars(t *testing.T) {
	r := Rule{
		Head: NewAtom("p", V("v3"), V("v1")),
		Body: []Atom{
			NewAtom("q", V("v1"), V("v2")),
			NewAtom("r", V("v2"), C(IRInt(1))),
		},
		Constraints: []Constraint{Eq{Left: V("v4"), Right: V("v3")}},
	}

	assert.Equal(t, []Var{V("v3"), V("v1"), V("v2"), V("v4")}, r.Vars())
}

func TestCompareVars(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"v2", "v10", -1},
		{"v10", "v2", 1},
		{"v3", "v3", 0},
		{"a", "b", -1},
		{"v2", "w1", -1},
		{"x", "x1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareVars(V(tt.a), V(tt.b)))
		})
	}
}

func TestProgramText(t *testing.T) {
	assert.Equal(t, closureText, closureProgram().Text())
	assert.Equal(t, closureText, closureProgram().String())
}

func TestProgramTextEmpty(t *testing.T) {
	var nilProg *Program
	assert.Equal(t, "", NewProgram().Text())
	assert.Equal(t, "", nilProg.Text())
}

func TestProgramInsertionOrder(t *testing.T) {
	p := closureProgram()

	names := []string{}
	for _, def := range p.Predicates() {
		names = append(names, def.Name)
	}

	assert.Equal(t, []string{"p0", "p1"}, names)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, 3, p.RuleCount())
}

func TestProgramLookup(t *testing.T) {
	p := closureProgram()

	def, ok := p.Lookup("p1")
	require.True(t, ok)
	assert.Len(t, def.Rules, 2)

	_, ok = p.Lookup("edge")
	assert.False(t, ok, "extensional inputs are not defined")
}

func TestProgramMerge(t *testing.T) {
	p := NewProgram()
	p.AddRule(Rule{Head: NewAtom("p1", V("v0")), Body: []Atom{NewAtom("a", V("v0"))}})

	other := NewProgram()
	other.AddRule(Rule{Head: NewAtom("p2", V("v1")), Body: []Atom{NewAtom("b", V("v1"))}})
	other.AddRule(Rule{Head: NewAtom("p1", V("v2")), Body: []Atom{NewAtom("c", V("v2"))}})

	p.Merge(other)
	p.Merge(nil)

	assert.Equal(t, "p1(v0) :- a(v0).\np1(v2) :- c(v2).\n\np2(v1) :- b(v1).\n", p.Text())
}

func TestProgramMarshalJSON(t *testing.T) {
	data, err := closureProgram().MarshalJSON()
	require.NoError(t, err)

	assert.JSONEq(t, `{"predicates": [
		{"name": "p0", "arity": 2, "rules": ["p0(v0, v1) :- p1(v0, v1)."]},
		{"name": "p1", "arity": 2, "rules": [
			"p1(v2, v3) :- edge(v2, v3).",
			"p1(v2, v3) :- p1(v2, v4), edge(v4, v3)."
		]}
	]}`, string(data))
}

func TestProgramMarshalJSONEmpty(t *testing.T) {
	data, err := NewProgram().MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"predicates": []}`, string(data))
}
