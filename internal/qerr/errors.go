// Package qerr defines the error taxonomy shared by the schema mapper,
// the expression compiler and the query builder.
//
// All three codes describe caller programming errors detected locally,
// before any SQL reaches the storage engine. None of them are retryable.
package qerr

import (
	"errors"
	"fmt"
)

// Code categorizes query errors.
type Code string

const (
	// CodeUnsupportedExpression indicates a node kind, operator or method
	// the compiler cannot translate.
	CodeUnsupportedExpression Code = "UNSUPPORTED_EXPRESSION"

	// CodeInvalidComposition indicates an illegal ordering of builder calls,
	// or a join key selector that is not a plain column reference.
	CodeInvalidComposition Code = "INVALID_QUERY_COMPOSITION"

	// CodeUnresolvedColumn indicates a member name with no mapped column.
	CodeUnresolvedColumn Code = "UNRESOLVED_COLUMN"
)

// Error is a structured query error.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Expr is the textual form of the offending expression node, if any.
	Expr string

	// Details contains additional context (table, member, operator).
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Expr != "" {
		return fmt.Sprintf("%s: %s (expr=%s)", e.Code, e.Message, e.Expr)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unsupported creates an UNSUPPORTED_EXPRESSION error for the given node text.
func Unsupported(expr string, format string, args ...any) *Error {
	return &Error{
		Code:    CodeUnsupportedExpression,
		Message: fmt.Sprintf(format, args...),
		Expr:    expr,
	}
}

// InvalidComposition creates an INVALID_QUERY_COMPOSITION error.
func InvalidComposition(format string, args ...any) *Error {
	return &Error{
		Code:    CodeInvalidComposition,
		Message: fmt.Sprintf(format, args...),
	}
}

// UnresolvedColumn creates an UNRESOLVED_COLUMN error for a member of a table.
func UnresolvedColumn(table, member string) *Error {
	return &Error{
		Code:    CodeUnresolvedColumn,
		Message: fmt.Sprintf("no column mapped for member %q in table %q", member, table),
		Expr:    member,
		Details: map[string]string{
			"table":  table,
			"member": member,
		},
	}
}

// CodeOf returns the code of a query error, or "" for any other error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) Code {
	var qe *Error
	if errors.As(err, &qe) {
		return qe.Code
	}
	return ""
}

// IsUnsupportedExpression returns true if the compiler could not translate
// an expression. An unresolved column is one such failure, so it matches too.
func IsUnsupportedExpression(err error) bool {
	code := CodeOf(err)
	return code == CodeUnsupportedExpression || code == CodeUnresolvedColumn
}

// IsInvalidComposition returns true for illegal builder call orderings.
func IsInvalidComposition(err error) bool {
	return CodeOf(err) == CodeInvalidComposition
}

// IsUnresolvedColumn returns true if a member name had no mapped column.
func IsUnresolvedColumn(err error) bool {
	return CodeOf(err) == CodeUnresolvedColumn
}
