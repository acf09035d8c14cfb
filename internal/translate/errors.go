package translate

import (
	"errors"
	"fmt"
)

// Error is a translation failure naming the offending node.
//
// Translation errors include:
//   - Unresolved recursive reference: IntensionalRef missing from the environment
//   - Arity mismatch: union sides or recursive members with different row widths
//   - Unknown column: Select names a column the row does not have
//   - Unbound ref: Select targets a Ref no enclosing lambda binds
//   - Unsupported expression: an operator the rule language cannot express
//   - Correlated recursion: a recursive group reads an enclosing lambda's row
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Node is the rendered query or expression node that failed.
	Node string
}

// ErrorCode categorizes translation errors.
type ErrorCode string

const (
	// ErrCodeUnresolvedRef indicates an IntensionalRef with no assigned predicate.
	ErrCodeUnresolvedRef ErrorCode = "UNRESOLVED_REF"

	// ErrCodeArityMismatch indicates rows of different widths meet.
	ErrCodeArityMismatch ErrorCode = "ARITY_MISMATCH"

	// ErrCodeUnknownColumn indicates a Select on a column the row lacks.
	ErrCodeUnknownColumn ErrorCode = "UNKNOWN_COLUMN"

	// ErrCodeUnboundRef indicates a Select whose target Ref is not in scope.
	ErrCodeUnboundRef ErrorCode = "UNBOUND_REF"

	// ErrCodeUnsupportedExpr indicates an expression the lowering cannot express.
	ErrCodeUnsupportedExpr ErrorCode = "UNSUPPORTED_EXPR"

	// ErrCodeCorrelatedRecursion indicates a recursive group that reads an
	// enclosing lambda parameter.
	ErrCodeCorrelatedRecursion ErrorCode = "CORRELATED_RECURSION"

	// ErrCodeNilQuery indicates a nil query node.
	ErrCodeNilQuery ErrorCode = "NIL_QUERY"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("%s: %s (node=%s)", e.Code, e.Message, e.Node)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newError(code ErrorCode, node fmt.Stringer, format string, args ...any) *Error {
	e := &Error{Code: code, Message: fmt.Sprintf(format, args...)}
	if node != nil {
		e.Node = node.String()
	}
	return e
}

// CodeOf returns the code of a translation error, or "" for other errors.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	return ""
}

// IsUnresolvedRef returns true if the error is an unresolved recursive reference.
func IsUnresolvedRef(err error) bool {
	return CodeOf(err) == ErrCodeUnresolvedRef
}

// IsArityMismatch returns true if the error is an arity mismatch.
func IsArityMismatch(err error) bool {
	return CodeOf(err) == ErrCodeArityMismatch
}
