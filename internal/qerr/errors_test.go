package qerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	err := Unsupported(`t.Name.Trim()`, "cannot compile %s", "Call")
	assert.Equal(t, "UNSUPPORTED_EXPRESSION: cannot compile Call (expr=t.Name.Trim())", err.Error())

	err = InvalidComposition("cannot call where after a skip or a take")
	assert.Equal(t, "INVALID_QUERY_COMPOSITION: cannot call where after a skip or a take", err.Error())
}

func TestUnresolvedColumn_Details(t *testing.T) {
	err := UnresolvedColumn("Employee", "Salary")

	assert.Equal(t, CodeUnresolvedColumn, err.Code)
	assert.Equal(t, "Employee", err.Details["table"])
	assert.Equal(t, "Salary", err.Details["member"])
	assert.Contains(t, err.Error(), `"Salary"`)
}

func TestPredicates_ThroughWrapping(t *testing.T) {
	testCases := []struct {
		name          string
		err           error
		unsupported   bool
		invalid       bool
		unresolvedCol bool
	}{
		{"unsupported", Unsupported("x", "nope"), true, false, false},
		{"invalid composition", InvalidComposition("nope"), false, true, false},
		{"unresolved column", UnresolvedColumn("T", "X"), true, false, true},
		{"plain error", errors.New("boom"), false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := tc.err
			if wrapped != nil {
				wrapped = fmt.Errorf("compile where: %w", tc.err)
			}
			assert.Equal(t, tc.unsupported, IsUnsupportedExpression(wrapped))
			assert.Equal(t, tc.invalid, IsInvalidComposition(wrapped))
			assert.Equal(t, tc.unresolvedCol, IsUnresolvedColumn(wrapped))
		})
	}
}
