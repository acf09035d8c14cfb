package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/linearfn/internal/query"
	"github.com/roach88/linearfn/internal/translate"
)

// QueryValidation is the validation outcome of one named query.
type QueryValidation struct {
	Name     string   `json:"name"`
	Warnings []string `json:"warnings,omitempty"`
	Error    string   `json:"error,omitempty"` // translation failure
}

// Valid reports whether the query has neither warnings nor an error.
func (v QueryValidation) Valid() bool {
	return len(v.Warnings) == 0 && v.Error == ""
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Queries []QueryValidation `json:"queries"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var queries []string

	cmd := &cobra.Command{
		Use:   "validate <definitions>",
		Short: "Check definitions without writing programs",
		Long: `Load the definitions, statically check every named query and run a
translation of each one, discarding the result.

Exits 1 when any query has warnings or does not translate, and 2 when the
definitions themselves cannot be loaded.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], queries, cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&queries, "query", "q", nil, "query to validate (repeatable; default all)")

	return cmd
}

func runValidate(opts *RootOptions, path string, requested []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cat, err := loadCatalog(path)
	if err != nil {
		return formatter.fail(ExitCommandError, err)
	}
	names, err := selectQueries(cat, requested)
	if err != nil {
		return formatter.fail(ExitCommandError, err)
	}

	result := ValidationResult{Valid: true, Queries: make([]QueryValidation, 0, len(names))}
	for _, name := range names {
		formatter.VerboseLog("Validating query: %s", name)
		q, _ := cat.Query(name)
		v := QueryValidation{Name: name, Warnings: query.Validate(q).Warnings}
		if _, _, err := translate.Compile(q); err != nil {
			v.Error = err.Error()
		}
		if !v.Valid() {
			result.Valid = false
		}
		result.Queries = append(result.Queries, v)
	}

	if result.Valid {
		return outputValidateSuccess(formatter, result)
	}
	return outputValidationErrors(formatter, result)
}

func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ All %d query(ies) valid\n", len(result.Queries))
	return nil
}

func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	failed := 0
	for _, v := range result.Queries {
		if !v.Valid() {
			failed++
		}
	}
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d query(ies)", failed))

	if formatter.Format == "json" {
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		err := encoder.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: ErrCodeGeneric, Message: exitErr.Message},
		})
		if err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, v := range result.Queries {
		if v.Valid() {
			continue
		}
		fmt.Fprintf(formatter.Writer, "%s\n", v.Name)
		for _, w := range v.Warnings {
			fmt.Fprintf(formatter.Writer, "  warning: %s\n", w)
		}
		if v.Error != "" {
			fmt.Fprintf(formatter.Writer, "  error: %s\n", v.Error)
		}
		fmt.Fprintln(formatter.Writer)
	}
	return exitErr
}
