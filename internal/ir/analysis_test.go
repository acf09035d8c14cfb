package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeSelfRecursion(t *testing.T) {
	a := Analyze(closureProgram())

	assert.Equal(t, []string{"edge"}, a.Extensional)
	require.Len(t, a.Recursive, 1)
	assert.Equal(t, []string{"p1"}, a.Recursive[0].Predicates)
	assert.Equal(t, []string{"p1", "p1"}, a.Recursive[0].Path)
	assert.Equal(t, "self-recursive predicate: p1 → p1", a.Recursive[0].Message)

	assert.True(t, a.IsRecursive("p1"))
	assert.False(t, a.IsRecursive("p0"))
	assert.False(t, a.IsRecursive("edge"))
}

func TestAnalyzeMutualRecursion(t *testing.T) {
	p := NewProgram()
	p.AddRule(Rule{Head: NewAtom("a", V("x")), Body: []Atom{NewAtom("b", V("x"))}})
	p.AddRule(Rule{Head: NewAtom("b", V("x")), Body: []Atom{NewAtom("a", V("x"))}})
	p.AddRule(Rule{Head: NewAtom("b", V("x")), Body: []Atom{NewAtom("e", V("x"))}})

	a := Analyze(p)

	assert.Equal(t, []string{"e"}, a.Extensional)
	require.Len(t, a.Recursive, 1)
	assert.Equal(t, []string{"a", "b"}, a.Recursive[0].Predicates)
	assert.Equal(t, []string{"a", "b", "a"}, a.Recursive[0].Path)
	assert.Equal(t, "mutually recursive predicates: a → b → a", a.Recursive[0].Message)
}

func TestAnalyzeNonRecursive(t *testing.T) {
	p := NewProgram()
	p.AddRule(Rule{Head: NewAtom("p0", V("v1")), Body: []Atom{NewAtom("p1", V("v0"), V("v1"))}})
	p.AddRule(Rule{Head: NewAtom("p1", V("v0"), V("v1")), Body: []Atom{NewAtom("q1", V("v0"), V("v1"))}})

	a := Analyze(p)

	assert.Equal(t, []string{"q1"}, a.Extensional)
	assert.Empty(t, a.Recursive)
	assert.NotNil(t, a.Recursive, "empty slice, not nil, for JSON output")
}

func TestAnalyzeExtensionalSorted(t *testing.T) {
	p := NewProgram()
	p.AddRule(Rule{
		Head: NewAtom("p0", V("x")),
		Body: []Atom{NewAtom("zeta", V("x")), NewAtom("alpha", V("x")), NewAtom("zeta", V("x"))},
	})

	assert.Equal(t, []string{"alpha", "zeta"}, Analyze(p).Extensional)
}

func TestAnalyzeDeterministic(t *testing.T) {
	first := Analyze(closureProgram())
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Analyze(closureProgram()))
	}
}
