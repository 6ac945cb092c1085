package engine

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a handler after Shutdown.
var ErrClosed = errors.New("engine handler is shut down")

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// CodeChildExecution indicates the configuration asks for execution in a
	// child process.
	CodeChildExecution ErrorCode = "CHILD_EXECUTION"

	// CodeRemoteFS indicates the default filesystem is not local.
	CodeRemoteFS ErrorCode = "REMOTE_FILESYSTEM"

	// CodeMissingResource indicates a session resource does not exist.
	CodeMissingResource ErrorCode = "MISSING_RESOURCE"

	// CodeBadStatement indicates an engine command could not be parsed or applied.
	CodeBadStatement ErrorCode = "BAD_STATEMENT"

	// CodeDriver wraps a failure reported by the SQL driver.
	CodeDriver ErrorCode = "DRIVER"
)

// Error is returned by Execute and New for engine-level failures.
type Error struct {
	Code      ErrorCode
	Message   string
	Statement string
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Statement != "" {
		msg = fmt.Sprintf("%s (statement=%q)", msg, e.Statement)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is an engine Error with the given code.
// Uses errors.As to handle wrapped errors.
func HasCode(err error, code ErrorCode) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

func newError(code ErrorCode, stmt, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Statement: stmt}
}

func wrapDriver(stmt string, err error) *Error {
	return &Error{Code: CodeDriver, Message: "statement failed", Statement: stmt, Err: err}
}
