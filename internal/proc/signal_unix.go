//go:build unix

package proc

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// UnixSignaler sends signals with kill(2).
type UnixSignaler struct{}

// NewSignaler returns the signaler for the current platform.
func NewSignaler() Signaler {
	return UnixSignaler{}
}

func (UnixSignaler) Send(pid int, sig Signal) error {
	// kill(2) treats 0 and negative pids as process groups.
	if pid <= 0 {
		return fmt.Errorf("invalid PID: %d", pid)
	}

	num, err := unixSignal(sig)
	if err != nil {
		return err
	}

	err = unix.Kill(pid, num)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ESRCH):
		return fmt.Errorf("%s PID %d: %w", sig, pid, ErrNoSuchProcess)
	case errors.Is(err, unix.EPERM):
		return fmt.Errorf("%s PID %d: %w", sig, pid, ErrPermissionDenied)
	default:
		return fmt.Errorf("failed to send %s to PID %d: %w", sig, pid, err)
	}
}

func unixSignal(sig Signal) (unix.Signal, error) {
	switch sig {
	case Terminate:
		return unix.SIGTERM, nil
	case Kill:
		return unix.SIGKILL, nil
	case Probe:
		return unix.Signal(0), nil
	default:
		return 0, fmt.Errorf("unsupported signal %s", sig)
	}
}
