package catalog

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error is a load or build failure in a definition file.
type Error struct {
	Code    string
	Path    string    // definition path, e.g. "queries.reach.filter.where"
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Error code constants.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeScanError    = "E002" // Directory scan error
	ErrCodeNoFiles      = "E003" // No definition files found
	ErrCodeLoadFailed   = "E004" // CUE load failed
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeBuildFailed  = "E006" // CUE build failed
	ErrCodeDecodeFailed = "E008" // Decoding into the definition structure failed

	// Definition errors
	ErrCodeUnknownRelation = "E201" // edb names an undeclared relation
	ErrCodeUnknownQuery    = "E202" // query names an undefined query
	ErrCodeUnknownBinder   = "E203" // col/ref names no enclosing binder
	ErrCodeInvalidNode     = "E204" // node sets zero or several kinds
	ErrCodeQueryCycle      = "E205" // named queries reference each other outside a group
	ErrCodeInvalidGroup    = "E206" // malformed recursive group
	ErrCodeInvalidLiteral  = "E207" // lit is not a string, int or bool
	ErrCodeInvalidRelation = "E208" // relation has no columns or inconsistent arity
)

func defError(code, path, format string, args ...any) *Error {
	return &Error{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}
