package harness

import (
	"github.com/roach88/linearfn/internal/ir"
	"github.com/roach88/linearfn/internal/store"
)

// Rendering dialects.
const (
	DialectDatalog = "datalog"
	DialectMangle  = "mangle"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Target is the result predicate of the compiled program.
	Target string `json:"target,omitempty"`

	// Text is the program rendered in the scenario's dialect.
	Text string `json:"text,omitempty"`

	// ErrorCode is the translator error code when compilation failed.
	ErrorCode string `json:"error_code,omitempty"`

	// Compilation is the record read back from the store.
	Compilation store.Compilation `json:"compilation"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	program *ir.Program
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
