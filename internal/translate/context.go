package translate

import (
	"fmt"
	"io"
	"log/slog"
	"maps"
	"strconv"
	"strings"

	"github.com/roach88/linearfn/internal/ir"
	"github.com/roach88/linearfn/internal/query"
)

// Predicate is a named predicate and the columns of its rows.
type Predicate struct {
	Name    string
	Columns []string
}

// Env maps IntensionalRef IDs to the predicates already assigned to them.
type Env map[uint64]Predicate

// Context is the state of one compilation: the naming environment and the
// next free variable and predicate indexes.
//
// Every name minted through a Context is unique within it. Contexts are
// not safe for concurrent use; concurrent compilations each use their own
// Context and never share names.
type Context struct {
	// Env holds pre-resolved recursive references. Translate adds the
	// members of every recursive group it lowers.
	Env Env

	// NextVar is the next free variable index ("v<NextVar>").
	NextVar int

	// NextPred is the next free predicate index ("p<NextPred>").
	NextPred int

	// Logger receives Debug records per emitted rule. Nil discards.
	Logger *slog.Logger

	groups map[*query.Group][]Predicate
}

// NewContext creates a context with counters at zero.
func NewContext() *Context {
	return &Context{}
}

func (c *Context) logger() *slog.Logger {
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

func (c *Context) freshVar() ir.Var {
	v := ir.V(fmt.Sprintf("v%d", c.NextVar))
	c.NextVar++
	return v
}

func (c *Context) freshVars(n int) []ir.Term {
	out := make([]ir.Term, n)
	for i := range out {
		out[i] = c.freshVar()
	}
	return out
}

func (c *Context) freshPred() string {
	name := fmt.Sprintf("p%d", c.NextPred)
	c.NextPred++
	return name
}

// reserveNames moves NextPred past every "p<N>" name already in Env and
// past target, so minted names never collide with a name the caller chose.
func (c *Context) reserveNames(target string) {
	for _, pred := range c.Env {
		c.reserve(pred.Name)
	}
	c.reserve(target)
}

func (c *Context) reserve(name string) {
	if !strings.HasPrefix(name, "p") {
		return
	}
	n, err := strconv.Atoi(name[1:])
	if err == nil && n >= c.NextPred {
		c.NextPred = n + 1
	}
}

// Translate lowers q into a program whose rules for target compute q.
// An empty target mints a fresh predicate name. It returns the program and
// the name of the result predicate; the context's counters now point past
// every name the program uses.
//
// target is always the head of at least one generated rule. On a reused
// Context the program may read predicates that an earlier Translate on the
// same Context defined (recursive groups are lowered once per Context and
// then resolve through Env); callers merge those programs themselves.
//
// On error no program is returned and the Context is left as it was
// before the call.
func (c *Context) Translate(q query.Query, target string) (*ir.Program, string, error) {
	if q == nil {
		return nil, "", newError(ErrCodeNilQuery, nil, "cannot translate nil query")
	}
	if c.Env == nil {
		c.Env = make(Env)
	}
	if c.groups == nil {
		c.groups = make(map[*query.Group][]Predicate)
	}
	saved := c.save()
	c.reserveNames(target)
	if target == "" {
		target = c.freshPred()
	}

	t := &translator{ctx: c, prog: ir.NewProgram(), log: c.logger()}
	if _, err := t.materialize(q, target, nil); err != nil {
		c.restore(saved)
		return nil, "", err
	}

	t.log.Debug("translated query",
		"target", target,
		"predicates", t.prog.Len(),
		"rules", t.prog.RuleCount(),
		"next_var", c.NextVar)
	return t.prog, target, nil
}

// snapshot is the naming state of a Context between translations.
type snapshot struct {
	env      Env
	groups   map[*query.Group][]Predicate
	nextVar  int
	nextPred int
}

func (c *Context) save() snapshot {
	return snapshot{
		env:      maps.Clone(c.Env),
		groups:   maps.Clone(c.groups),
		nextVar:  c.NextVar,
		nextPred: c.NextPred,
	}
}

func (c *Context) restore(s snapshot) {
	c.Env = s.env
	c.groups = s.groups
	c.NextVar = s.nextVar
	c.NextPred = s.nextPred
}

// Result is the outcome of Translate.
type Result struct {
	Program *ir.Program
	Name    string
	NextVar int
}

// Translate lowers q with the given environment and first variable index.
// It is the functional form of Context.Translate.
func Translate(q query.Query, target string, env Env, nextVar int) (Result, error) {
	ctx := &Context{Env: maps.Clone(env), NextVar: nextVar}
	prog, name, err := ctx.Translate(q, target)
	if err != nil {
		return Result{}, err
	}
	return Result{Program: prog, Name: name, NextVar: ctx.NextVar}, nil
}

// Compile runs a fresh compilation of q.
func Compile(q query.Query) (*ir.Program, string, error) {
	return NewContext().Translate(q, "")
}

// Peek runs a fresh compilation of q and returns the rendered text.
// Counters start at zero, so the same tree always renders the same text.
func Peek(q query.Query) (string, error) {
	prog, _, err := Compile(q)
	if err != nil {
		return "", err
	}
	return prog.Text(), nil
}
