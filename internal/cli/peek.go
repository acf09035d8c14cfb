package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/linearfn/internal/translate"
)

// NewPeekCommand creates the peek command.
func NewPeekCommand(rootOpts *RootOptions) *cobra.Command {
	var dialect string

	cmd := &cobra.Command{
		Use:   "peek <definitions> <query>",
		Short: "Print the program for one query",
		Long: `Print the Datalog program compiled for one named query, with nothing else
on stdout. Names always start at p0 and v0, so the same definitions print
the same text on every run.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeek(rootOpts, args[0], args[1], dialect, cmd)
		},
	}

	cmd.Flags().StringVar(&dialect, "dialect", DialectDatalog, "output dialect (datalog|mangle)")

	return cmd
}

// PeekResult is the JSON payload of the peek command.
type PeekResult struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

func runPeek(opts *RootOptions, path, name, dialect string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if err := checkDialect(dialect); err != nil {
		return formatter.fail(ExitCommandError, err)
	}
	cat, err := loadCatalog(path)
	if err != nil {
		return formatter.fail(ExitCommandError, err)
	}
	if _, err := selectQueries(cat, []string{name}); err != nil {
		return formatter.fail(ExitCommandError, err)
	}
	q, _ := cat.Query(name)

	var text string
	if dialect == DialectDatalog {
		text, err = translate.Peek(q)
	} else {
		text, err = peekDialect(q, dialect)
	}
	if err != nil {
		return formatter.fail(ExitCommandError, fmt.Errorf("query %s: %w", name, err))
	}

	if formatter.Format == "json" {
		return formatter.Success(PeekResult{Name: name, Text: text})
	}
	_, err = fmt.Fprint(formatter.Writer, text)
	return err
}
