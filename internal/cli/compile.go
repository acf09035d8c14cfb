package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/linearfn/internal/catalog"
	"github.com/roach88/linearfn/internal/ir"
	"github.com/roach88/linearfn/internal/mangle"
	"github.com/roach88/linearfn/internal/query"
	"github.com/roach88/linearfn/internal/store"
	"github.com/roach88/linearfn/internal/translate"
)

// Output dialects.
const (
	DialectDatalog = "datalog"
	DialectMangle  = "mangle"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Queries []string // empty compiles every query
	Dialect string
	Output  string // output file path
	Store   string // compilation store path
	Jobs    int
}

// CompiledQuery is the result of compiling one named query.
type CompiledQuery struct {
	Name       string `json:"name"`
	Target     string `json:"target"`
	Dialect    string `json:"dialect"`
	Hash       string `json:"hash"`
	Predicates int    `json:"predicates"`
	Rules      int    `json:"rules"`
	Text       string `json:"text"`
	ID         string `json:"id,omitempty"` // set when recorded in a store

	program *ir.Program
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <definitions>",
		Short: "Compile named queries to Datalog",
		Long: `Compile the named queries of a definition file (CUE package directory,
.cue or .yaml file) into Datalog programs.

Every query is compiled into its own program with fresh variable and
predicate names, so the output for a query never depends on which other
queries were compiled alongside it.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.Queries, "query", "q", nil, "query to compile (repeatable; default all)")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", DialectDatalog, "output dialect (datalog|mangle)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")
	cmd.Flags().StringVar(&opts.Store, "store", "", "record compilations in this SQLite database")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 4, "number of queries compiled concurrently")

	return cmd
}

func runCompile(ctx context.Context, opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if err := checkDialect(opts.Dialect); err != nil {
		return formatter.fail(ExitCommandError, err)
	}
	if opts.Jobs < 1 {
		return formatter.fail(ExitCommandError, withCode(ErrCodeBadFlag, fmt.Errorf("--jobs must be at least 1, got %d", opts.Jobs)))
	}

	cat, err := loadCatalog(path)
	if err != nil {
		return formatter.fail(ExitCommandError, err)
	}
	names, err := selectQueries(cat, opts.Queries)
	if err != nil {
		return formatter.fail(ExitCommandError, err)
	}
	if len(names) == 0 {
		return formatter.fail(ExitCommandError, withCode(ErrCodeUnknownName, fmt.Errorf("%s defines no queries", path)))
	}
	formatter.VerboseLog("Compiling %d query(ies) from %s", len(names), path)

	results, err := compileQueries(ctx, cat, names, opts.Dialect, opts.Jobs, opts.logger())
	if err != nil {
		return formatter.fail(ExitCommandError, err)
	}

	if opts.Store != "" {
		if err := recordCompilations(ctx, opts.Store, path, results); err != nil {
			return formatter.fail(ExitCommandError, err)
		}
		formatter.VerboseLog("Recorded %d compilation(s) in %s", len(results), opts.Store)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(joinPrograms(results, opts.Dialect)), 0o644); err != nil {
			return formatter.fail(ExitCommandError, withCode(ErrCodeWriteFailed, fmt.Errorf("writing output file: %w", err)))
		}
	}

	return outputCompileSuccess(formatter, results, opts.Output)
}

// compileQueries compiles each name with its own translate.Context,
// at most jobs at a time. Results follow the order of names.
func compileQueries(ctx context.Context, cat *catalog.Catalog, names []string, dialect string, jobs int, log *slog.Logger) ([]CompiledQuery, error) {
	results := make([]CompiledQuery, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			q, _ := cat.Query(name)
			tc := translate.NewContext()
			tc.Logger = log.With("query", name)

			prog, target, err := tc.Translate(q, "")
			if err != nil {
				return fmt.Errorf("query %s: %w", name, err)
			}
			text, err := render(prog, dialect)
			if err != nil {
				return fmt.Errorf("query %s: %w", name, err)
			}
			results[i] = CompiledQuery{
				Name:       name,
				Target:     target,
				Dialect:    dialect,
				Hash:       ir.HashText(dialect, text),
				Predicates: prog.Len(),
				Rules:      prog.RuleCount(),
				Text:       text,
				program:    prog,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// render prints prog in dialect. Mangle output is parsed back before it
// is returned.
func render(prog *ir.Program, dialect string) (string, error) {
	switch dialect {
	case DialectDatalog:
		return prog.Text(), nil
	case DialectMangle:
		text, err := mangle.RenderChecked(prog)
		if err != nil {
			return "", withCode(ErrCodeRenderFailed, err)
		}
		return text, nil
	}
	return "", withCode(ErrCodeBadFlag, fmt.Errorf("unknown dialect %q", dialect))
}

func checkDialect(dialect string) error {
	if dialect != DialectDatalog && dialect != DialectMangle {
		return withCode(ErrCodeBadFlag, fmt.Errorf("invalid dialect %q: must be %s or %s", dialect, DialectDatalog, DialectMangle))
	}
	return nil
}

// recordCompilations writes results to the store at path in order, so
// sequence numbers follow query order. IDs are copied back into results.
func recordCompilations(ctx context.Context, path, source string, results []CompiledQuery) error {
	s, err := store.Open(path)
	if err != nil {
		return withCode(ErrCodeStoreFailed, err)
	}
	defer s.Close()

	for i, r := range results {
		c, err := s.WriteCompilation(ctx, store.NewCompilation(r.Name, source, r.Dialect, r.Text, r.program))
		if err != nil {
			return withCode(ErrCodeStoreFailed, fmt.Errorf("query %s: %w", r.Name, err))
		}
		results[i].ID = c.ID
	}
	return nil
}

// joinPrograms concatenates programs, each headed by a comment naming
// its query. A single program is written as is.
func joinPrograms(results []CompiledQuery, dialect string) string {
	if len(results) == 1 {
		return results[0].Text
	}
	comment := "%"
	if dialect == DialectMangle {
		comment = "#"
	}
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s query %s (result %s)\n", comment, r.Name, r.Target)
		b.WriteString(r.Text)
	}
	return b.String()
}

func outputCompileSuccess(formatter *OutputFormatter, results []CompiledQuery, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(results)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d query(ies)\n\n", len(results))
	for _, r := range results {
		fmt.Fprintf(w, "%s → %s: %d predicate(s), %d rule(s)\n", r.Name, r.Target, r.Predicates, r.Rules)
		if r.ID != "" {
			fmt.Fprintf(w, "  recorded as %s\n", r.ID)
		}
		if outputFile == "" {
			fmt.Fprintln(w, indent(r.Text))
		}
	}
	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote %s program(s) to %s\n", results[0].Dialect, outputFile)
	}
	return nil
}

func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n")
}

// peekDialect runs a fresh compilation of q and renders it in dialect.
func peekDialect(q query.Query, dialect string) (string, error) {
	prog, _, err := translate.Compile(q)
	if err != nil {
		return "", err
	}
	return render(prog, dialect)
}
