package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/linearfn/internal/catalog"
	"github.com/roach88/linearfn/internal/translate"
)

// Error codes for failures that are neither catalog nor translator errors.
const (
	ErrCodeGeneric      = "E001"
	ErrCodeUnknownName  = "E101" // --query or a positional name is not in the catalog
	ErrCodeWriteFailed  = "E102" // --output could not be written
	ErrCodeStoreFailed  = "E103" // compilation store could not be opened or written
	ErrCodeRenderFailed = "E104" // dialect export failed
	ErrCodeBadFlag      = "E105" // flag value out of range
)

// loadCatalog reads and builds the definitions at path.
func loadCatalog(path string) (*catalog.Catalog, error) {
	f, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	return catalog.Build(f)
}

// selectQueries returns the requested names in order, or every catalog
// name when none are requested.
func selectQueries(cat *catalog.Catalog, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return cat.Names(), nil
	}
	all := cat.Names()
	for _, name := range requested {
		if !slices.Contains(all, name) {
			return nil, &nameError{name: name, known: all}
		}
	}
	return requested, nil
}

type nameError struct {
	name  string
	known []string
}

func (e *nameError) Error() string {
	return fmt.Sprintf("no query named %q (known: %v)", e.name, e.known)
}

// errorCode extracts a response code from err. The message is the full
// error text, including any query name it was wrapped with.
func errorCode(err error) (string, string) {
	var catErr *catalog.Error
	if errors.As(err, &catErr) {
		return catErr.Code, err.Error()
	}
	if code := translate.CodeOf(err); code != "" {
		return string(code), err.Error()
	}
	var nameErr *nameError
	if errors.As(err, &nameErr) {
		return ErrCodeUnknownName, err.Error()
	}
	var coded *codedError
	if errors.As(err, &coded) {
		return coded.code, err.Error()
	}
	return ErrCodeGeneric, err.Error()
}

// codedError tags an error with a CLI error code.
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code string, err error) error {
	return &codedError{code: code, err: err}
}
