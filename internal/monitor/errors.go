package monitor

import (
	"errors"
	"fmt"

	"github.com/pranshuparmar/taskman/internal/proc"
)

var (
	// ErrEnumerationUnavailable marks a failed process listing. Refresh
	// logs and counts it but never returns it; the snapshot becomes empty.
	ErrEnumerationUnavailable = errors.New("process enumeration unavailable")

	// ErrPermissionDenied is returned when the caller may not signal the target.
	ErrPermissionDenied = proc.ErrPermissionDenied

	// ErrTerminationFailed is returned when the forceful signal could not be delivered.
	ErrTerminationFailed = errors.New("failed to kill process")

	// ErrInvalidPID is returned for PIDs that are not positive.
	ErrInvalidPID = errors.New("invalid PID")
)

// TerminateError reports where the termination protocol stopped for a PID.
type TerminateError struct {
	PID   int
	State TermState
	Err   error
}

func (e *TerminateError) Error() string {
	return fmt.Sprintf("terminate PID %d (%s): %v", e.PID, e.State, e.Err)
}

func (e *TerminateError) Unwrap() error {
	return e.Err
}
