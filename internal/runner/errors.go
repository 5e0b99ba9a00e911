package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrNoArgs is returned when a Command has no arguments.
	ErrNoArgs = errors.New("empty argument list")
	// ErrEventsClosed is returned when a process stops reporting events
	// without an exit status or fault.
	ErrEventsClosed = errors.New("process event stream closed before exit")
)

// ProcessError reports a spawn failure or an I/O fault on the child's
// streams. Err is the original cause.
type ProcessError struct {
	Command string
	Err     error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("executing %s: %v", e.Command, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// ExitCodeError reports an exit code outside the command's success set.
type ExitCodeError struct {
	Label   string
	Command string
	Code    int
	Signal  string // set when the process was killed by a signal
}

func (e *ExitCodeError) Error() string {
	tool := e.Label
	if tool == "" {
		tool = "Git"
	}
	if e.Signal != "" {
		return fmt.Sprintf("%s returned an unexpected exit code '%d' (signal: %s) which should be handled by the caller.", tool, e.Code, e.Signal)
	}
	return fmt.Sprintf("%s returned an unexpected exit code '%d' which should be handled by the caller.", tool, e.Code)
}

// ExitCode returns the exit code carried by err, if it is an ExitCodeError.
func ExitCode(err error) (int, bool) {
	var ec *ExitCodeError
	if errors.As(err, &ec) {
		return ec.Code, true
	}
	return 0, false
}
