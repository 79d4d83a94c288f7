package errors

import "fmt"

// CommandError carries the process exit code of a failed command up to main.
type CommandError struct {
	ExitCode    int
	CommonError string
	Err         error
}

// Error implements the error interface, returning the message from the common error.
func (e *CommandError) Error() string {
	return e.CommonError
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError wraps err with the exit code the process should end with.
func NewCommandError(err error, code int) *CommandError {
	return &CommandError{
		ExitCode:    code,
		CommonError: err.Error(),
		Err:         err,
	}
}

// NewCommandErrorf builds a CommandError from a format string.
func NewCommandErrorf(code int, format string, args ...interface{}) *CommandError {
	return NewCommandError(fmt.Errorf(format, args...), code)
}
