package proc

import (
	"errors"
	"fmt"
)

// Signal is the closed set of requests the controller may send to a process.
// The mapping to OS signal numbers stays inside this package.
type Signal int

const (
	// Terminate asks the process to exit (SIGTERM).
	Terminate Signal = iota
	// Kill ends the process unconditionally (SIGKILL).
	Kill
	// Probe delivers nothing and only checks that the pid exists (signal 0).
	Probe
)

func (s Signal) String() string {
	switch s {
	case Terminate:
		return "terminate"
	case Kill:
		return "kill"
	case Probe:
		return "probe"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

var (
	// ErrNoSuchProcess is returned when the target pid does not exist.
	ErrNoSuchProcess = errors.New("no such process")
	// ErrPermissionDenied is returned when the caller may not signal the pid.
	ErrPermissionDenied = errors.New("permission denied")
)

// Signaler delivers signals to processes.
type Signaler interface {
	Send(pid int, sig Signal) error
}

// SignalerFunc adapts a function to the Signaler interface.
type SignalerFunc func(pid int, sig Signal) error

func (f SignalerFunc) Send(pid int, sig Signal) error {
	return f(pid, sig)
}
