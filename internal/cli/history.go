package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/linearfn/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Store string
	Query string
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List recorded compilations",
		Long: `List compilations recorded by "compile --store", oldest first.
With an id, print that compilation's predicates and program text.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return runHistoryShow(opts, args[0], cmd)
			}
			return runHistoryList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Store, "store", "", "compilation store path (required)")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "only compilations of this query")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show only the N most recent compilations")
	_ = cmd.MarkFlagRequired("store")

	return cmd
}

func openStore(path string) (*store.Store, error) {
	s, err := store.Open(path)
	if err != nil {
		return nil, withCode(ErrCodeStoreFailed, err)
	}
	return s, nil
}

func runHistoryList(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := openStore(opts.Store)
	if err != nil {
		return formatter.fail(ExitCommandError, err)
	}
	defer s.Close()

	list, err := s.ListCompilations(cmd.Context(), store.ListOptions{QueryName: opts.Query, Limit: opts.Limit})
	if err != nil {
		return formatter.fail(ExitCommandError, withCode(ErrCodeStoreFailed, err))
	}

	if formatter.Format == "json" {
		return formatter.Success(list)
	}
	if len(list) == 0 {
		fmt.Fprintln(formatter.Writer, "No compilations recorded")
		return nil
	}
	for _, c := range list {
		fmt.Fprintf(formatter.Writer, "%4d  %s  %-16s %-8s %s  %d predicate(s), %d rule(s)\n",
			c.Seq, c.ID, c.QueryName, c.Dialect, shortHash(c.Hash), c.PredicateCount, c.RuleCount)
	}
	return nil
}

func runHistoryShow(opts *HistoryOptions, id string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	s, err := openStore(opts.Store)
	if err != nil {
		return formatter.fail(ExitCommandError, err)
	}
	defer s.Close()

	c, err := s.ReadCompilation(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return formatter.fail(ExitCommandError, withCode(ErrCodeUnknownName, err))
	}
	if err != nil {
		return formatter.fail(ExitCommandError, withCode(ErrCodeStoreFailed, err))
	}

	if formatter.Format == "json" {
		return formatter.Success(c)
	}
	w := formatter.Writer
	fmt.Fprintf(w, "Compilation %s (#%d)\n", c.ID, c.Seq)
	fmt.Fprintf(w, "  query:    %s\n", c.QueryName)
	if c.Source != "" {
		fmt.Fprintf(w, "  source:   %s\n", c.Source)
	}
	fmt.Fprintf(w, "  dialect:  %s\n", c.Dialect)
	fmt.Fprintf(w, "  hash:     %s\n", c.Hash)
	fmt.Fprintf(w, "  compiler: %s (ir %s)\n\n", c.CompilerVersion, c.IRVersion)
	fmt.Fprintln(w, "Predicates:")
	for _, p := range c.Predicates {
		recursive := ""
		if p.Recursive {
			recursive = ", recursive"
		}
		fmt.Fprintf(w, "  %s/%d: %d rule(s)%s\n", p.Name, p.Arity, p.RuleCount, recursive)
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, c.Text)
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
