package query

import (
	"fmt"

	"github.com/roach88/linearfn/internal/expr"
	"github.com/roach88/linearfn/internal/ir"
)

// ValidationResult contains the static analysis of a query tree.
//
// Validation never fails: it reports every construct the translator will
// reject or lower lossily, so tools can show all problems at once.
type ValidationResult struct {
	// IsWellFormed is true when no warnings were produced.
	IsWellFormed bool

	// Warnings lists problems in traversal order.
	Warnings []string
}

// Validate checks a query tree without translating it.
//
// Checks:
//  1. No nil nodes and no out-of-range group indexes
//  2. Every Select targets a Ref bound by an enclosing lambda
//  3. Every IntensionalRef belongs to an enclosing recursive group
//  4. Projections only use columns and literals (anything else becomes an
//     unbound variable in the generated rule)
//  5. Filter predicates only use ==, && and literal true
//
// Validate is a pure function with no side effects.
func Validate(q Query) ValidationResult {
	v := &validator{
		warnings: []string{},
		bound:    make(map[uint64]bool),
		visited:  make(map[*Group]bool),
	}
	v.validateQuery(q)

	return ValidationResult{
		IsWellFormed: len(v.warnings) == 0,
		Warnings:     v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
	bound    map[uint64]bool // Ref IDs bound by enclosing lambdas
	groups   []*Group        // enclosing recursive groups
	visited  map[*Group]bool
}

// addWarning appends a warning message.
func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

// withBinder runs fn with ref bound.
func (v *validator) withBinder(ref expr.Ref, fn func()) {
	was := v.bound[ref.ID]
	v.bound[ref.ID] = true
	fn()
	if !was {
		delete(v.bound, ref.ID)
	}
}

// validateQuery recursively validates a query node.
func (v *validator) validateQuery(q Query) {
	if q == nil {
		v.addWarning("nil query node")
		return
	}

	switch node := q.(type) {
	case EDB:
		if node.Name == "" {
			v.addWarning("EDB with empty predicate name")
		}
		if node.Arity() == 0 {
			v.addWarning("%s has no columns", node)
		}
	case Filter:
		v.validateQuery(node.From)
		v.withBinder(node.Pred.Param, func() { v.validatePredicate(node.Pred.Body) })
	case Map:
		v.validateQuery(node.From)
		v.withBinder(node.F.Param, func() { v.validateProjection(node.F.Body) })
	case FlatMap:
		v.validateQuery(node.From)
		v.withBinder(node.F.Param, func() { v.validateQuery(node.F.Body) })
	case Union:
		v.validateQuery(node.Left)
		v.validateQuery(node.Right)
	case IntensionalRef:
		if !v.inEnclosingGroup(node) {
			v.addWarning("%s is not a member of any enclosing recursive group", node)
		}
	case IntensionalPredicates:
		v.validateGroup(node)
	default:
		v.addWarning("unknown query type: %T", q)
	}
}

func (v *validator) inEnclosingGroup(ref IntensionalRef) bool {
	for _, g := range v.groups {
		if g.Contains(ref) {
			return true
		}
	}
	return false
}

// validateGroup validates each member body once, with the group in scope.
func (v *validator) validateGroup(node IntensionalPredicates) {
	if node.Group == nil {
		v.addWarning("IntensionalPredicates with nil group")
		return
	}
	if node.Index < 0 || node.Index >= len(node.Group.Members) {
		v.addWarning("%s: index out of range (group has %d members)", node, len(node.Group.Members))
	}
	if v.visited[node.Group] {
		return
	}
	v.visited[node.Group] = true

	v.groups = append(v.groups, node.Group)
	for _, m := range node.Group.Members {
		v.validateQuery(m.Body)
	}
	v.groups = v.groups[:len(v.groups)-1]
}

// validatePredicate validates a filter body.
func (v *validator) validatePredicate(e expr.Expr) {
	switch x := e.(type) {
	case expr.Eq:
		v.validateOperand(x.L)
		v.validateOperand(x.R)
	case expr.And:
		v.validatePredicate(x.L)
		v.validatePredicate(x.R)
	case expr.Lit:
		if b, ok := x.Value.(ir.IRBool); !ok || !bool(b) {
			v.addWarning("filter predicate literal %s is not true", x)
		}
	case expr.Select:
		v.validateOperand(x)
	default:
		v.addWarning("filter predicate %s is not an equality or conjunction", e)
	}
}

// validateOperand validates one side of an equality.
func (v *validator) validateOperand(e expr.Expr) {
	switch x := e.(type) {
	case expr.Select:
		v.validateSelect(x)
	case expr.Lit:
	default:
		v.addWarning("operand %s is neither a column nor a literal", e)
	}
}

// validateSelect checks that the target is a bound Ref.
func (v *validator) validateSelect(s expr.Select) {
	ref, ok := s.X.(expr.Ref)
	if !ok {
		v.addWarning("select %s does not target a row parameter", s)
		return
	}
	if !v.bound[ref.ID] {
		v.addWarning("select %s targets %s which no enclosing lambda binds", s, ref)
	}
}

// validateProjection validates a map body.
func (v *validator) validateProjection(e expr.Expr) {
	switch x := e.(type) {
	case expr.Project:
		for _, f := range x.Fields {
			switch fe := f.Expr.(type) {
			case expr.Select:
				v.validateSelect(fe)
			case expr.Lit:
			default:
				v.addWarning("projected field %s = %s produces an unbound variable", f.Name, f.Expr)
			}
		}
	case expr.Ref:
		if !v.bound[x.ID] {
			v.addWarning("map body %s is not bound by any enclosing lambda", x)
		}
	case expr.Select:
		v.validateSelect(x)
	case expr.Lit:
	default:
		v.addWarning("map body %s produces an unbound variable", e)
	}
}
