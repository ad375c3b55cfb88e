//go:build !unix

package proc

import (
	"errors"
	"fmt"
)

type unsupportedSignaler struct{}

// NewSignaler returns the signaler for the current platform.
func NewSignaler() Signaler {
	return unsupportedSignaler{}
}

func (unsupportedSignaler) Send(pid int, sig Signal) error {
	return fmt.Errorf("%s PID %d: %w", sig, pid, errors.ErrUnsupported)
}
