package query

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmer-contract violations. Wrapped inside
// [ExecutionError] so callers can test with [errors.Is].
var (
	errUnknownFilterKind = errors.New("unknown filter kind")
	errUnknownOperator   = errors.New("unknown operator")
	errUnknownSortField  = errors.New("unknown sort field")
	errUnknownGroupField = errors.New("unknown group field")
	errNilNode           = errors.New("nil filter node")
)

// SyntaxError reports a malformed query instruction. Parsing is
// all-or-nothing: the first SyntaxError aborts the whole query string and
// no partially built AST survives.
type SyntaxError struct {
	Message string
	Line    int    // 1-based line within the query text
	Column  int    // 1-based column within the line, 1 when unknown
	Hint    string // usage hint, empty when none applies
}

// Error implements error.
func (e *SyntaxError) Error() string {
	msg := fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
	if e.Hint != "" {
		msg += " (" + e.Hint + ")"
	}

	return msg
}

// syntaxErrorf builds a SyntaxError at the given position.
func syntaxErrorf(line, column int, hint, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Message: fmt.Sprintf(format, args...),
		Line:    line,
		Column:  column,
		Hint:    hint,
	}
}

// ExecutionError wraps a failure during predicate construction or query
// execution. These are programmer-contract violations (an unknown filter
// kind or operator reaching the factory), never user input errors.
type ExecutionError struct {
	Op    string // operation that failed, e.g. "build predicate"
	Cause error
}

// Error implements error.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the original cause.
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

func execErrorf(op string, cause error) *ExecutionError {
	return &ExecutionError{Op: op, Cause: cause}
}
