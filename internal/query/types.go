package query

import (
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/roach88/linearfn/internal/expr"
)

// Query represents a relational query.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
	String() string
}

// EDB is a named extensional (base) relation.
//
// The atom generated for an EDB has exactly len(Columns) arguments.
type EDB struct {
	Name    string
	Columns []string
}

func (EDB) queryNode() {}

// NewEDB declares a base relation with positional columns field1..fieldN.
func NewEDB(name string, arity int) EDB {
	cols := make([]string, arity)
	for i := range cols {
		cols[i] = expr.PositionalName(i)
	}
	return EDB{Name: name, Columns: cols}
}

// NewEDBColumns declares a base relation with named columns.
func NewEDBColumns(name string, cols ...string) EDB {
	return EDB{Name: name, Columns: slices.Clone(cols)}
}

// Arity returns the declared number of columns.
func (e EDB) Arity() int { return len(e.Columns) }

func (e EDB) String() string { return fmt.Sprintf("EDB(%s/%d)", e.Name, e.Arity()) }

// Filter keeps the rows of From for which Pred holds.
type Filter struct {
	From Query
	Pred expr.Fun
}

func (Filter) queryNode() {}

func (f Filter) String() string {
	return fmt.Sprintf("Filter(%s, %s)", nodeString(f.From), f.Pred)
}

// Map transforms every row of From with F.
type Map struct {
	From Query
	F    expr.Fun
}

func (Map) queryNode() {}

func (m Map) String() string {
	return fmt.Sprintf("Map(%s, %s)", nodeString(m.From), m.F)
}

// QueryFun is a lambda from a row to a query.
type QueryFun struct {
	Param expr.Ref
	Body  Query
}

// String renders "r1 => body".
func (f QueryFun) String() string {
	return f.Param.String() + " => " + nodeString(f.Body)
}

// FlatMap is a correlated join: for each row of From, the rows of F(row).
type FlatMap struct {
	From Query
	F    QueryFun
}

func (FlatMap) queryNode() {}

func (f FlatMap) String() string {
	return fmt.Sprintf("FlatMap(%s, %s)", nodeString(f.From), f.F)
}

// Union is the set union of two queries with the same arity.
type Union struct {
	Left  Query
	Right Query
}

func (Union) queryNode() {}

func (u Union) String() string {
	return fmt.Sprintf("Union(%s, %s)", nodeString(u.Left), nodeString(u.Right))
}

// intensionalCounter mints IntensionalRef IDs.
var intensionalCounter atomic.Uint64

// IntensionalRef is a forward reference to a recursive predicate that is
// not yet named. Identity, not structure, is its key.
type IntensionalRef struct {
	ID uint64
}

func (IntensionalRef) queryNode() {}

func (r IntensionalRef) String() string { return fmt.Sprintf("IntensionalRef(#%d)", r.ID) }

// NewIntensionalRef mints a fresh reference.
func NewIntensionalRef() IntensionalRef {
	return IntensionalRef{ID: intensionalCounter.Add(1)}
}

// Member is one predicate of a recursive group.
type Member struct {
	Ref  IntensionalRef
	Body Query
}

// Group is a resolved set of mutually recursive predicate bodies.
// Members are ordered by ascending Ref ID.
type Group struct {
	Members []Member
}

// NewGroup builds a group, ordering members by ref ID.
func NewGroup(members ...Member) *Group {
	ms := slices.Clone(members)
	slices.SortFunc(ms, func(a, b Member) int {
		switch {
		case a.Ref.ID < b.Ref.ID:
			return -1
		case a.Ref.ID > b.Ref.ID:
			return 1
		default:
			return 0
		}
	})
	return &Group{Members: ms}
}

// Bodies returns the defining query of every member keyed by ref ID.
func (g *Group) Bodies() map[uint64]Query {
	out := make(map[uint64]Query, len(g.Members))
	for _, m := range g.Members {
		out[m.Ref.ID] = m.Body
	}
	return out
}

// Body returns the defining query of ref.
func (g *Group) Body(ref IntensionalRef) (Query, bool) {
	for _, m := range g.Members {
		if m.Ref.ID == ref.ID {
			return m.Body, true
		}
	}
	return nil, false
}

// Contains reports whether ref is a member.
func (g *Group) Contains(ref IntensionalRef) bool {
	_, ok := g.Body(ref)
	return ok
}

// IntensionalPredicates denotes member Index of a recursive group.
type IntensionalPredicates struct {
	Group *Group
	Index int
}

func (IntensionalPredicates) queryNode() {}

func (p IntensionalPredicates) String() string {
	if p.Group == nil {
		return fmt.Sprintf("IntensionalPredicates(<nil>, %d)", p.Index)
	}
	ids := make([]string, len(p.Group.Members))
	for i, m := range p.Group.Members {
		ids[i] = fmt.Sprintf("#%d", m.Ref.ID)
	}
	return fmt.Sprintf("IntensionalPredicates([%s], %d)", strings.Join(ids, " "), p.Index)
}

// nodeString renders a possibly nil child.
func nodeString(q Query) string {
	if q == nil {
		return "<nil>"
	}
	return q.String()
}
