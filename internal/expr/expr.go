// Package expr provides the column expression algebra: scalar computations
// over a row, built from symbolic row handles.
//
// Expr is a sealed interface. A Ref is a fresh, globally unique handle for
// a row; Select projects a named column off a row; Project builds a row
// from named column expressions; Lit, Plus, Eq and And are constants and
// binary operators.
//
// Refs are compared by ID, never by name. A lambda (Fun) binds one Ref and
// every Select inside its body must target that Ref or a Ref bound by an
// enclosing lambda.
package expr

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/roach88/linearfn/internal/ir"
)

// Expr is a scalar expression over rows.
type Expr interface {
	exprNode() // Marker method - seals interface to this package
	String() string
}

// refCounter mints Ref IDs. Process-wide and atomic so that refs created
// by concurrent builders never collide.
var refCounter atomic.Uint64

// Ref is a symbolic row handle. Two Refs are the same iff their IDs match.
type Ref struct {
	ID uint64
}

func (Ref) exprNode() {}

// String renders the handle as "r<ID>".
func (r Ref) String() string { return fmt.Sprintf("r%d", r.ID) }

// NewRef mints a fresh Ref.
func NewRef() Ref {
	return Ref{ID: refCounter.Add(1)}
}

// Col selects the named column of this row.
func (r Ref) Col(name string) Select {
	return Select{X: r, Name: name}
}

// Select projects field Name off X.
type Select struct {
	X    Expr
	Name string
}

func (Select) exprNode() {}

// String renders "x.name".
func (s Select) String() string { return s.X.String() + "." + s.Name }

// Field is one named column of a Project.
type Field struct {
	Name string
	Expr Expr
}

// Project builds a row from named column expressions.
type Project struct {
	Fields []Field
}

func (Project) exprNode() {}

// String renders "(name: expr, ...)".
func (p Project) String() string {
	parts := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		parts[i] = f.Name + ": " + f.Expr.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Columns returns the column names in order.
func (p Project) Columns() []string {
	cols := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		cols[i] = f.Name
	}
	return cols
}

// Tuple builds a positional row. Columns are named field1..fieldN.
func Tuple(exprs ...Expr) Project {
	fields := make([]Field, len(exprs))
	for i, e := range exprs {
		fields[i] = Field{Name: PositionalName(i), Expr: e}
	}
	return Project{Fields: fields}
}

// Row builds a row from explicitly named fields.
func Row(fields ...Field) Project {
	return Project{Fields: fields}
}

// F is a shorthand for Field.
func F(name string, e Expr) Field {
	return Field{Name: name, Expr: e}
}

// PositionalName is the default name of the i-th (0-based) column.
func PositionalName(i int) string {
	return fmt.Sprintf("field%d", i+1)
}

// Lit is a constant.
type Lit struct {
	Value ir.IRValue
}

func (Lit) exprNode() {}

// String renders the literal.
func (l Lit) String() string { return l.Value.Literal() }

// Int creates an integer literal.
func Int(n int64) Lit { return Lit{Value: ir.NewIRInt(n)} }

// Str creates a string literal.
func Str(s string) Lit { return Lit{Value: ir.NewIRString(s)} }

// Bool creates a boolean literal.
func Bool(b bool) Lit { return Lit{Value: ir.NewIRBool(b)} }

// Plus is integer addition.
type Plus struct {
	L, R Expr
}

func (Plus) exprNode() {}

// String renders "(l + r)".
func (p Plus) String() string { return "(" + p.L.String() + " + " + p.R.String() + ")" }

// Eq is equality.
type Eq struct {
	L, R Expr
}

func (Eq) exprNode() {}

// String renders "(l == r)".
func (e Eq) String() string { return "(" + e.L.String() + " == " + e.R.String() + ")" }

// And is conjunction.
type And struct {
	L, R Expr
}

func (And) exprNode() {}

// String renders "(l && r)".
func (a And) String() string { return "(" + a.L.String() + " && " + a.R.String() + ")" }

// Equal is a shorthand for Eq.
func Equal(l, r Expr) Eq { return Eq{L: l, R: r} }

// All folds conditions into a left-nested And. All() is Bool(true).
func All(conds ...Expr) Expr {
	if len(conds) == 0 {
		return Bool(true)
	}
	out := conds[0]
	for _, c := range conds[1:] {
		out = And{L: out, R: c}
	}
	return out
}

// Add is a shorthand for Plus.
func Add(l, r Expr) Plus { return Plus{L: l, R: r} }
