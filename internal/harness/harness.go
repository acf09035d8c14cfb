package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/linearfn/internal/catalog"
	"github.com/roach88/linearfn/internal/ir"
	"github.com/roach88/linearfn/internal/mangle"
	"github.com/roach88/linearfn/internal/query"
	"github.com/roach88/linearfn/internal/store"
	"github.com/roach88/linearfn/internal/translate"
)

// Harness runs scenarios against one logger.
type Harness struct {
	logger *slog.Logger
}

// New creates a harness logging to logger. Nil discards.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{logger: logger}
}

// Run executes a scenario with a discarding logger.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(context.Background(), scenario)
}

// Run compiles the scenario's query and checks it.
//
// Execution flow:
//  1. Load and build the definitions, look up the query
//  2. Compile with fresh counters; a translator error is compared with
//     expect.error
//  3. Render in the scenario's dialect
//  4. Record the compilation in a fresh in-memory store and read it back
//  5. Check expect counts and every assertion
//
// The returned error reports broken scenarios (unloadable definitions,
// unknown query, store failure); failed checks are reported in Result.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	f, err := catalog.Load(scenario.Definitions)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	cat, err := catalog.Build(f)
	if err != nil {
		return nil, fmt.Errorf("build definitions: %w", err)
	}
	q, ok := cat.Query(scenario.Query)
	if !ok {
		return nil, fmt.Errorf("no query named %q in %s", scenario.Query, scenario.Definitions)
	}

	log := h.logger.With("scenario", scenario.Name, "query", scenario.Query)
	result := NewResult()

	tc := translate.NewContext()
	tc.Logger = log
	prog, target, err := tc.Translate(q, "")
	if err != nil {
		code := translate.CodeOf(err)
		if code == "" {
			return nil, fmt.Errorf("compile %s: %w", scenario.Query, err)
		}
		result.ErrorCode = string(code)
		checkExpectedError(scenario, result, err)
		return result, nil
	}
	if scenario.Expect != nil && scenario.Expect.Error != "" {
		result.AddError(fmt.Sprintf("expected error %s, but %s compiled to %d rule(s)",
			scenario.Expect.Error, scenario.Query, prog.RuleCount()))
		return result, nil
	}

	dialect := scenario.dialect()
	text, err := render(prog, dialect)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", dialect, err)
	}
	result.Target = target
	result.Text = text
	result.program = prog

	if err := h.record(ctx, scenario, result); err != nil {
		return nil, err
	}

	checkCounts(scenario.Expect, result)
	for _, a := range scenario.Assertions {
		if err := evaluate(a, q, result); err != nil {
			log.Debug("assertion failed", "type", a.Type, "error", err)
			result.AddError(err.Error())
		}
	}
	return result, nil
}

// record writes the compilation to an in-memory store and reads it back.
func (h *Harness) record(ctx context.Context, scenario *Scenario, result *Result) error {
	st, err := store.Open(":memory:", store.WithIDGenerator(store.NewFixedGenerator("scenario-"+scenario.Name)))
	if err != nil {
		return fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	c := store.NewCompilation(scenario.Query, scenario.Definitions, scenario.dialect(), result.Text, result.program)
	written, err := st.WriteCompilation(ctx, c)
	if err != nil {
		return fmt.Errorf("record compilation: %w", err)
	}
	result.Compilation, err = st.ReadCompilation(ctx, written.ID)
	if err != nil {
		return fmt.Errorf("read compilation: %w", err)
	}
	return nil
}

func (s *Scenario) dialect() string {
	if s.Dialect == "" {
		return DialectDatalog
	}
	return s.Dialect
}

func checkExpectedError(scenario *Scenario, result *Result, err error) {
	switch {
	case scenario.Expect == nil || scenario.Expect.Error == "":
		result.AddError(fmt.Sprintf("compile %s: %v", scenario.Query, err))
	case scenario.Expect.Error != result.ErrorCode:
		result.AddError(fmt.Sprintf("expected error %s, got %v", scenario.Expect.Error, err))
	}
}

func checkCounts(expect *ExpectClause, result *Result) {
	if expect == nil {
		return
	}
	c := result.Compilation
	if expect.Predicates != 0 && c.PredicateCount != expect.Predicates {
		result.AddError(fmt.Sprintf("expected %d predicate(s), got %d", expect.Predicates, c.PredicateCount))
	}
	if expect.Rules != 0 && c.RuleCount != expect.Rules {
		result.AddError(fmt.Sprintf("expected %d rule(s), got %d", expect.Rules, c.RuleCount))
	}
}

func render(prog *ir.Program, dialect string) (string, error) {
	if dialect == DialectMangle {
		return mangle.RenderChecked(prog)
	}
	return prog.Text(), nil
}

// recompile renders q again from fresh counters.
func recompile(q query.Query, dialect string) (string, error) {
	prog, _, err := translate.Compile(q)
	if err != nil {
		return "", err
	}
	return render(prog, dialect)
}
