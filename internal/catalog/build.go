package catalog

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/roach88/linearfn/internal/expr"
	"github.com/roach88/linearfn/internal/fixpoint"
	"github.com/roach88/linearfn/internal/ir"
	"github.com/roach88/linearfn/internal/query"
)

// defaultBinder names a lambda parameter when "as" is omitted.
const defaultBinder = "r"

// Catalog holds the query trees built from a definition file.
type Catalog struct {
	relations map[string]query.EDB
	queries   map[string]query.Query
	names     []string
}

// Names returns every query and group member name, sorted.
func (c *Catalog) Names() []string { return slices.Clone(c.names) }

// Query returns the tree for a named query or group member.
func (c *Catalog) Query(name string) (query.Query, bool) {
	q, ok := c.queries[name]
	return q, ok
}

// Relation returns a declared relation.
func (c *Catalog) Relation(name string) (query.EDB, bool) {
	r, ok := c.relations[name]
	return r, ok
}

// Build turns every relation, group and named query of f into query trees.
// Named queries may reference each other and group members; references
// between named queries must be acyclic. Recursion is only expressed
// through groups.
func Build(f *File) (*Catalog, error) {
	b := &builder{
		file:     f,
		cat:      &Catalog{relations: map[string]query.EDB{}, queries: map[string]query.Query{}},
		building: map[string]bool{},
		memberOf: map[string]string{},
	}

	for _, name := range sortedKeys(f.Relations) {
		rel, err := buildRelation(name, f.Relations[name])
		if err != nil {
			return nil, err
		}
		b.cat.relations[name] = rel
	}

	for _, group := range sortedKeys(f.Groups) {
		members := f.Groups[group]
		if len(members) == 0 {
			return nil, defError(ErrCodeInvalidGroup, "groups."+group, "group has no members")
		}
		for i, m := range members {
			path := fmt.Sprintf("groups.%s[%d]", group, i)
			if m.Name == "" {
				return nil, defError(ErrCodeInvalidGroup, path, "member needs a name")
			}
			if _, dup := f.Queries[m.Name]; dup {
				return nil, defError(ErrCodeInvalidGroup, path, "member %q shadows a named query", m.Name)
			}
			if other, dup := b.memberOf[m.Name]; dup {
				return nil, defError(ErrCodeInvalidGroup, path, "member %q already defined in group %s", m.Name, other)
			}
			b.memberOf[m.Name] = group
		}
	}

	for _, group := range sortedKeys(f.Groups) {
		if err := b.buildGroup(group); err != nil {
			return nil, err
		}
	}
	for _, name := range sortedKeys(f.Queries) {
		if _, err := b.named(name, "queries."+name); err != nil {
			return nil, err
		}
	}

	b.cat.names = sortedKeys(b.cat.queries)
	return b.cat, nil
}

func buildRelation(name string, r Relation) (query.EDB, error) {
	path := "relations." + name
	switch {
	case len(r.Columns) > 0:
		if r.Arity != 0 && r.Arity != len(r.Columns) {
			return query.EDB{}, defError(ErrCodeInvalidRelation, path,
				"arity %d does not match %d columns", r.Arity, len(r.Columns))
		}
		seen := make(map[string]bool, len(r.Columns))
		for _, c := range r.Columns {
			if c == "" || seen[c] {
				return query.EDB{}, defError(ErrCodeInvalidRelation, path, "column names must be unique and non-empty")
			}
			seen[c] = true
		}
		return query.NewEDBColumns(name, r.Columns...), nil
	case r.Arity > 0:
		return query.NewEDB(name, r.Arity), nil
	default:
		return query.EDB{}, defError(ErrCodeInvalidRelation, path, "relation needs columns or a positive arity")
	}
}

type builder struct {
	file     *File
	cat      *Catalog
	building map[string]bool
	memberOf map[string]string // member name → group name
}

// scope is the lexical environment of a node: lambda binders and, inside
// a group step, the group's references.
type scope struct {
	parent *scope
	name   string
	ref    expr.Ref
	refs   map[string]query.IntensionalRef
}

func (s *scope) bind(name string, r expr.Ref) *scope {
	return &scope{parent: s, name: name, ref: r, refs: s.groupRefs()}
}

func (s *scope) lookup(name string) (expr.Ref, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.name == name && cur.name != "" {
			return cur.ref, true
		}
	}
	return expr.Ref{}, false
}

// innermost returns the closest binder.
func (s *scope) innermost() (expr.Ref, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.name != "" {
			return cur.ref, true
		}
	}
	return expr.Ref{}, false
}

func (s *scope) groupRefs() map[string]query.IntensionalRef {
	if s == nil {
		return nil
	}
	return s.refs
}

// named builds a named query or group member once.
func (b *builder) named(name, path string) (query.Query, error) {
	if q, ok := b.cat.queries[name]; ok {
		return q, nil
	}
	if group, ok := b.memberOf[name]; ok {
		if err := b.buildGroup(group); err != nil {
			return nil, err
		}
		return b.cat.queries[name], nil
	}
	node, ok := b.file.Queries[name]
	if !ok {
		return nil, defError(ErrCodeUnknownQuery, path, "no query named %q", name)
	}
	if b.building[name] {
		return nil, defError(ErrCodeQueryCycle, path,
			"query %q references itself; use a recursive group", name)
	}
	b.building[name] = true
	defer delete(b.building, name)

	q, err := b.node(node, nil, "queries."+name)
	if err != nil {
		return nil, err
	}
	b.cat.queries[name] = q
	return q, nil
}

// buildGroup assembles a recursive group through the fixed-point builder.
func (b *builder) buildGroup(group string) error {
	members := b.file.Groups[group]
	if _, done := b.cat.queries[members[0].Name]; done {
		return nil
	}
	key := "group:" + group
	if b.building[key] {
		return defError(ErrCodeQueryCycle, "groups."+group,
			"group %s is reached from its own base or step through a named query", group)
	}
	b.building[key] = true
	defer delete(b.building, key)

	bases := make([]query.Query, len(members))
	for i, m := range members {
		q, err := b.node(m.Base, nil, fmt.Sprintf("groups.%s[%d].base", group, i))
		if err != nil {
			return err
		}
		bases[i] = q
	}

	var stepErr error
	out, err := fixpoint.Build(bases, func(refs []query.IntensionalRef) []query.Query {
		sc := &scope{refs: make(map[string]query.IntensionalRef, len(members))}
		for i, m := range members {
			sc.refs[m.Name] = refs[i]
		}
		steps := make([]query.Query, len(members))
		for i, m := range members {
			q, err := b.node(m.Step, sc, fmt.Sprintf("groups.%s[%d].step", group, i))
			if err != nil {
				stepErr = err
				return nil
			}
			steps[i] = q
		}
		return steps
	})
	if stepErr != nil {
		return stepErr
	}
	if err != nil {
		return defError(ErrCodeInvalidGroup, "groups."+group, "%v", err)
	}

	for i, m := range members {
		b.cat.queries[m.Name] = out[i]
	}
	return nil
}

func (b *builder) node(n Node, sc *scope, path string) (query.Query, error) {
	kinds := n.kinds()
	if len(kinds) != 1 {
		return nil, defError(ErrCodeInvalidNode, path,
			"node must set exactly one of edb, query, ref, filter, map, flatMap, union (got %v)", kinds)
	}

	switch kinds[0] {
	case "edb":
		rel, ok := b.cat.relations[n.EDB]
		if !ok {
			return nil, defError(ErrCodeUnknownRelation, path+".edb", "no relation named %q", n.EDB)
		}
		return rel, nil

	case "query":
		if ref, ok := sc.groupRefs()[n.Query]; ok {
			// a member of the group under construction
			return ref, nil
		}
		return b.named(n.Query, path+".query")

	case "ref":
		ref, ok := sc.groupRefs()[n.Ref]
		if !ok {
			return nil, defError(ErrCodeUnknownQuery, path+".ref",
				"%q is not a member of an enclosing group", n.Ref)
		}
		return ref, nil

	case "filter":
		from, err := b.node(n.Filter.From, sc, path+".filter.from")
		if err != nil {
			return nil, err
		}
		r := expr.NewRef()
		pred, err := b.expr(n.Filter.Where, sc.bind(binderName(n.Filter.As), r), path+".filter.where")
		if err != nil {
			return nil, err
		}
		return query.Filter{From: from, Pred: expr.Fun{Param: r, Body: pred}}, nil

	case "map":
		from, err := b.node(n.Map.From, sc, path+".map.from")
		if err != nil {
			return nil, err
		}
		r := expr.NewRef()
		body, err := b.expr(n.Map.To, sc.bind(binderName(n.Map.As), r), path+".map.to")
		if err != nil {
			return nil, err
		}
		return query.Map{From: from, F: expr.Fun{Param: r, Body: body}}, nil

	case "flatMap":
		from, err := b.node(n.FlatMap.From, sc, path+".flatMap.from")
		if err != nil {
			return nil, err
		}
		r := expr.NewRef()
		body, err := b.node(n.FlatMap.Body, sc.bind(binderName(n.FlatMap.As), r), path+".flatMap.body")
		if err != nil {
			return nil, err
		}
		return query.FlatMap{From: from, F: query.QueryFun{Param: r, Body: body}}, nil

	default: // union
		if len(n.Union) < 2 {
			return nil, defError(ErrCodeInvalidNode, path+".union", "union needs at least two sides")
		}
		var out query.Query
		for i, side := range n.Union {
			q, err := b.node(side, sc, fmt.Sprintf("%s.union[%d]", path, i))
			if err != nil {
				return nil, err
			}
			if out == nil {
				out = q
				continue
			}
			out = query.NewUnion(out, q)
		}
		return out, nil
	}
}

func (n Node) kinds() []string {
	var out []string
	if n.EDB != "" {
		out = append(out, "edb")
	}
	if n.Query != "" {
		out = append(out, "query")
	}
	if n.Ref != "" {
		out = append(out, "ref")
	}
	if n.Filter != nil {
		out = append(out, "filter")
	}
	if n.Map != nil {
		out = append(out, "map")
	}
	if n.FlatMap != nil {
		out = append(out, "flatMap")
	}
	if n.Union != nil {
		out = append(out, "union")
	}
	return out
}

func (b *builder) expr(e Expr, sc *scope, path string) (expr.Expr, error) {
	kinds := e.kinds()
	if len(kinds) != 1 {
		return nil, defError(ErrCodeInvalidNode, path,
			"expression must set exactly one of col, ref, lit, eq, and, plus, tuple, fields (got %v)", kinds)
	}

	switch kinds[0] {
	case "col":
		binder, col, found := strings.Cut(e.Col, ".")
		var (
			ref expr.Ref
			ok  bool
		)
		if found {
			ref, ok = sc.lookup(binder)
		} else {
			col = binder
			ref, ok = sc.innermost()
		}
		if !ok {
			return nil, defError(ErrCodeUnknownBinder, path+".col", "no enclosing binder for %q", e.Col)
		}
		return ref.Col(col), nil

	case "ref":
		ref, ok := sc.lookup(e.Ref)
		if !ok {
			return nil, defError(ErrCodeUnknownBinder, path+".ref", "no enclosing binder named %q", e.Ref)
		}
		return ref, nil

	case "lit":
		v, err := ir.ToIRValue(e.Lit)
		if err != nil {
			return nil, defError(ErrCodeInvalidLiteral, path+".lit", "%v", err)
		}
		return expr.Lit{Value: v}, nil

	case "eq", "plus":
		args, op := e.Eq, "eq"
		if kinds[0] == "plus" {
			args, op = e.Plus, "plus"
		}
		if len(args) != 2 {
			return nil, defError(ErrCodeInvalidNode, path+"."+op, "%s takes exactly two operands", op)
		}
		l, err := b.expr(args[0], sc, path+"."+op+"[0]")
		if err != nil {
			return nil, err
		}
		r, err := b.expr(args[1], sc, path+"."+op+"[1]")
		if err != nil {
			return nil, err
		}
		if op == "eq" {
			return expr.Equal(l, r), nil
		}
		return expr.Add(l, r), nil

	case "and":
		conds, err := b.exprs(e.And, sc, path+".and")
		if err != nil {
			return nil, err
		}
		return expr.All(conds...), nil

	case "tuple":
		cols, err := b.exprs(e.Tuple, sc, path+".tuple")
		if err != nil {
			return nil, err
		}
		return expr.Tuple(cols...), nil

	default: // fields
		fields := make([]expr.Field, len(e.Fields))
		seen := make(map[string]bool, len(e.Fields))
		for i, f := range e.Fields {
			fp := fmt.Sprintf("%s.fields[%d]", path, i)
			if f.Name == "" || seen[f.Name] {
				return nil, defError(ErrCodeInvalidNode, fp, "field names must be unique and non-empty")
			}
			seen[f.Name] = true
			v, err := b.expr(f.Value, sc, fp+".value")
			if err != nil {
				return nil, err
			}
			fields[i] = expr.F(f.Name, v)
		}
		return expr.Row(fields...), nil
	}
}

func (b *builder) exprs(es []Expr, sc *scope, path string) ([]expr.Expr, error) {
	out := make([]expr.Expr, len(es))
	for i, e := range es {
		x, err := b.expr(e, sc, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

func (e Expr) kinds() []string {
	var out []string
	if e.Col != "" {
		out = append(out, "col")
	}
	if e.Ref != "" {
		out = append(out, "ref")
	}
	if e.Lit != nil {
		out = append(out, "lit")
	}
	if e.Eq != nil {
		out = append(out, "eq")
	}
	if e.And != nil {
		out = append(out, "and")
	}
	if e.Plus != nil {
		out = append(out, "plus")
	}
	if e.Tuple != nil {
		out = append(out, "tuple")
	}
	if e.Fields != nil {
		out = append(out, "fields")
	}
	return out
}

func binderName(as string) string {
	if as == "" {
		return defaultBinder
	}
	return as
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
