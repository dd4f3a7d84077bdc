package sandbox

import (
	"errors"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
)

// ErrorCategory is the closed classification of execution failures
// surfaced to callers. Raw errors never leave the sandbox; only a
// category plus a sanitized message derived from it.
type ErrorCategory string

const (
	CategoryUndefinedReference ErrorCategory = "undefined_reference"
	CategoryMissingField       ErrorCategory = "missing_field"
	CategoryTypeMismatch       ErrorCategory = "type_mismatch"
	CategoryValueError         ErrorCategory = "value_error"
	CategoryTimeout            ErrorCategory = "timeout"
	CategoryValidation         ErrorCategory = "validation_failed"
	CategoryOther              ErrorCategory = "other"
)

// ExecError is a classified, sanitized execution failure.
type ExecError struct {
	Category ErrorCategory `json:"category"`
	Message  string        `json:"message"`
}

func (e *ExecError) Error() string { return string(e.Category) + ": " + e.Message }

// classify maps an execution error onto the closed category set with a
// user-facing message. Stack traces are discarded: for Starlark eval
// errors only the message is kept, never the backtrace.
func classify(err error) *ExecError {
	var rerrs resolve.ErrorList
	if errors.As(err, &rerrs) && len(rerrs) > 0 {
		return classifyMessage(rerrs[0].Msg)
	}
	var rerr resolve.Error
	if errors.As(err, &rerr) {
		return classifyMessage(rerr.Msg)
	}
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return classifyMessage(evalErr.Msg)
	}
	return classifyMessage(err.Error())
}

func classifyMessage(msg string) *ExecError {
	switch {
	case strings.Contains(msg, "too many steps"):
		return &ExecError{
			Category: CategoryTimeout,
			Message:  "execution exceeded the allowed compute budget",
		}
	case strings.Contains(msg, "undefined:"),
		strings.Contains(msg, "referenced before assignment"):
		return &ExecError{
			Category: CategoryUndefinedReference,
			Message:  "variable or function not found: " + msg,
		}
	case strings.Contains(msg, "not found in frame"),
		strings.Contains(msg, "not in dict"),
		strings.Contains(msg, "has no attribute"),
		strings.Contains(msg, "no such attribute"):
		return &ExecError{
			Category: CategoryMissingField,
			Message:  "column or key not found: " + msg,
		}
	case strings.Contains(msg, "unknown binary op"),
		strings.Contains(msg, "unsupported"),
		strings.Contains(msg, "not supported"),
		strings.Contains(msg, "got "),
		strings.Contains(msg, "want "):
		return &ExecError{
			Category: CategoryTypeMismatch,
			Message:  "type error in operation: " + msg,
		}
	case strings.Contains(msg, "out of range"),
		strings.Contains(msg, "empty"),
		strings.Contains(msg, "division by zero"),
		strings.Contains(msg, "invalid"):
		return &ExecError{
			Category: CategoryValueError,
			Message:  "invalid value or operation: " + msg,
		}
	default:
		return &ExecError{Category: CategoryOther, Message: msg}
	}
}
