package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/linearfn/internal/query"
	"github.com/roach88/linearfn/internal/translate"
)

const closureText = `p2(v0, v1) :- edge(v0, v1).

p3(v4, v5) :- edge(v4, v5).

p4(v2, v5) :- p1(v2, v3), p3(v3, v5).

p1(v6, v7) :- p2(v6, v7).
p1(v6, v7) :- p4(v6, v7).

p0(v8, v9) :- p1(v8, v9).
`

func peek(t *testing.T, cat *Catalog, name string) string {
	t.Helper()
	q, ok := cat.Query(name)
	require.True(t, ok, "query %s", name)
	text, err := translate.Peek(q)
	require.NoError(t, err)
	return text
}

func TestLoad_YAMLAndCUEAgree(t *testing.T) {
	fromYAML, err := Load(filepath.Join("testdata", "closure.yaml"))
	require.NoError(t, err)
	fromCUE, err := Load(filepath.Join("testdata", "closure"))
	require.NoError(t, err)

	assert.Equal(t, fromYAML.Relations, fromCUE.Relations)

	for _, f := range []*File{fromYAML, fromCUE} {
		cat, err := Build(f)
		require.NoError(t, err)
		assert.Equal(t, []string{"from_one", "path"}, cat.Names())
		assert.Equal(t, closureText, peek(t, cat, "path"))
		assert.Contains(t, peek(t, cat, "from_one"), "p0(v8, v9) :- p1(v8, v9), v8 == 1.\n")
	}
}

func TestLoad_SingleCUEFile(t *testing.T) {
	f, err := Load(filepath.Join("testdata", "closure", "closure.cue"))
	require.NoError(t, err)
	assert.Contains(t, f.Relations, "edge")
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assertCode(t, err, ErrCodeNotFound)

	_, err = Load(dir)
	assertCode(t, err, ErrCodeNoFiles)

	txt := filepath.Join(dir, "defs.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0644))
	_, err = Load(txt)
	assertCode(t, err, ErrCodeLoadFailed)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("relations:\n  edge: {colums: [a]}\n"), 0644))
	_, err = Load(bad)
	assertCode(t, err, ErrCodeDecodeFailed)
}

func TestParseCUE_Invalid(t *testing.T) {
	_, err := ParseCUE(`relations: edge: columns: ["a"]
relations: edge: columns: ["b"]`)
	assertCode(t, err, ErrCodeBuildFailed)

	_, err = ParseCUE(`relations: edge: arity: int`)
	assertCode(t, err, ErrCodeBuildFailed)
}

func TestParseYAML_Empty(t *testing.T) {
	f, err := ParseYAML(nil)
	require.NoError(t, err)
	cat, err := Build(f)
	require.NoError(t, err)
	assert.Empty(t, cat.Names())
}

func TestBuild_Relations(t *testing.T) {
	f, err := ParseYAML([]byte(`
relations:
  pair: {arity: 2}
  person: {columns: [name, age], arity: 2}
`))
	require.NoError(t, err)
	cat, err := Build(f)
	require.NoError(t, err)

	pair, ok := cat.Relation("pair")
	require.True(t, ok)
	assert.Equal(t, []string{"field1", "field2"}, pair.Columns)

	person, _ := cat.Relation("person")
	assert.Equal(t, query.NewEDBColumns("person", "name", "age"), person)
}

func TestBuild_ScenarioQuery(t *testing.T) {
	f, err := ParseYAML([]byte(`
relations:
  q1: {arity: 2}
queries:
  scenario:
    map:
      from:
        filter:
          from: {edb: q1}
          where: {eq: [{col: field1}, {lit: 5}]}
      to: {tuple: [{col: r.field2}]}
`))
	require.NoError(t, err)
	cat, err := Build(f)
	require.NoError(t, err)

	assert.Equal(t, "p1(v0, v1) :- q1(v0, v1).\n\np0(v1) :- p1(v0, v1), v0 == 5.\n", peek(t, cat, "scenario"))
}

func TestBuild_NamedQueriesCompose(t *testing.T) {
	f, err := ParseCUE(`
relations: a: arity: 1
relations: b: arity: 1
queries: both: union: [{query: "left"}, {edb: "b"}, {query: "left"}]
queries: left: filter: {from: edb: "a", where: and: [{eq: [{col: "r.field1"}, {lit: "x"}]}]}
`)
	require.NoError(t, err)
	cat, err := Build(f)
	require.NoError(t, err)

	both, _ := cat.Query("both")
	outer, ok := both.(query.Union)
	require.True(t, ok)
	_, ok = outer.Left.(query.Union)
	assert.True(t, ok, "n-ary union folds left")

	left, _ := cat.Query("left")
	assert.Equal(t, left, outer.Right, "named queries are built once and shared")
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code string
	}{
		{
			name: "undeclared relation",
			yaml: "queries:\n  q: {edb: nope}\n",
			code: ErrCodeUnknownRelation,
		},
		{
			name: "unknown query",
			yaml: "queries:\n  q: {query: nope}\n",
			code: ErrCodeUnknownQuery,
		},
		{
			name: "ref outside a group",
			yaml: "queries:\n  q: {ref: nope}\n",
			code: ErrCodeUnknownQuery,
		},
		{
			name: "cycle between named queries",
			yaml: "queries:\n  a: {query: b}\n  b: {query: a}\n",
			code: ErrCodeQueryCycle,
		},
		{
			name: "node with two kinds",
			yaml: "relations:\n  e: {arity: 1}\nqueries:\n  q: {edb: e, query: q}\n",
			code: ErrCodeInvalidNode,
		},
		{
			name: "empty node",
			yaml: "queries:\n  q: {}\n",
			code: ErrCodeInvalidNode,
		},
		{
			name: "unknown binder",
			yaml: "relations:\n  e: {arity: 1}\nqueries:\n  q:\n    filter:\n      from: {edb: e}\n      where: {eq: [{col: x.field1}, {lit: 1}]}\n",
			code: ErrCodeUnknownBinder,
		},
		{
			name: "float literal",
			yaml: "relations:\n  e: {arity: 1}\nqueries:\n  q:\n    filter:\n      from: {edb: e}\n      where: {eq: [{col: field1}, {lit: 1.5}]}\n",
			code: ErrCodeInvalidLiteral,
		},
		{
			name: "eq arity",
			yaml: "relations:\n  e: {arity: 1}\nqueries:\n  q:\n    filter:\n      from: {edb: e}\n      where: {eq: [{col: field1}]}\n",
			code: ErrCodeInvalidNode,
		},
		{
			name: "single-sided union",
			yaml: "relations:\n  e: {arity: 1}\nqueries:\n  q: {union: [{edb: e}]}\n",
			code: ErrCodeInvalidNode,
		},
		{
			name: "relation without columns",
			yaml: "relations:\n  e: {}\n",
			code: ErrCodeInvalidRelation,
		},
		{
			name: "relation arity disagrees with columns",
			yaml: "relations:\n  e: {columns: [a], arity: 2}\n",
			code: ErrCodeInvalidRelation,
		},
		{
			name: "duplicate group member",
			yaml: "relations:\n  e: {arity: 1}\ngroups:\n  g1: [{name: m, base: {edb: e}, step: {ref: m}}]\n  g2: [{name: m, base: {edb: e}, step: {ref: m}}]\n",
			code: ErrCodeInvalidGroup,
		},
		{
			name: "member shadows a query",
			yaml: "relations:\n  e: {arity: 1}\ngroups:\n  g: [{name: q, base: {edb: e}, step: {ref: q}}]\nqueries:\n  q: {edb: e}\n",
			code: ErrCodeInvalidGroup,
		},
		{
			name: "bad step",
			yaml: "relations:\n  e: {arity: 1}\ngroups:\n  g: [{name: m, base: {edb: e}, step: {ref: other}}]\n",
			code: ErrCodeUnknownQuery,
		},
		{
			name: "group reached from its own base",
			yaml: "relations:\n  e: {arity: 1}\ngroups:\n  g: [{name: m, base: {query: via}, step: {ref: m}}]\nqueries:\n  via: {query: m}\n",
			code: ErrCodeQueryCycle,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseYAML([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = Build(f)
			assertCode(t, err, tt.code)
		})
	}
}

func TestBuild_MutualRecursion(t *testing.T) {
	f, err := ParseYAML([]byte(`
relations:
  q1: {arity: 2}
  q2: {arity: 2}
groups:
  pair:
    - {name: a, base: {edb: q1}, step: {ref: b}}
    - {name: b, base: {edb: q2}, step: {query: a}}
`))
	require.NoError(t, err)
	cat, err := Build(f)
	require.NoError(t, err)

	a, _ := cat.Query("a")
	b, _ := cat.Query("b")
	ia := a.(query.IntensionalPredicates)
	ib := b.(query.IntensionalPredicates)
	assert.Same(t, ia.Group, ib.Group)
	assert.Equal(t, 0, ia.Index)
	assert.Equal(t, 1, ib.Index)
	assert.True(t, query.Validate(a).IsWellFormed)

	_, _, err = translate.Compile(a)
	require.NoError(t, err)
}

func TestError_Format(t *testing.T) {
	err := defError(ErrCodeUnknownQuery, "queries.q.query", "no query named %q", "x")
	assert.Equal(t, `E202: queries.q.query: no query named "x"`, err.Error())
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, code, ce.Code, "error: %v", err)
}
