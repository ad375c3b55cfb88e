package proc

import (
	"context"
	"fmt"
)

// DefaultPSPath is the ps binary used when PSLister.Path is empty.
const DefaultPSPath = "ps"

// snapshotArgs is the fixed column selection ParseSnapshot understands.
var snapshotArgs = []string{"-axo", "pid,ppid,comm,%cpu,%mem"}

// Lister returns the raw text of a process table listing, header included.
type Lister interface {
	List(ctx context.Context) (string, error)
}

// PSLister lists processes by running ps.
type PSLister struct {
	Path string   // ps binary, DefaultPSPath if empty
	Exec Executor // nil uses the package executor
}

func (l *PSLister) List(ctx context.Context) (string, error) {
	path := l.Path
	if path == "" {
		path = DefaultPSPath
	}

	var (
		out []byte
		err error
	)
	if l.Exec != nil {
		out, err = l.Exec.Run(ctx, path, snapshotArgs...)
	} else {
		out, err = Run(ctx, path, snapshotArgs...)
	}
	if err != nil {
		return "", fmt.Errorf("ps process list: %w", err)
	}
	return string(out), nil
}

// StaticLister always returns the same listing. Useful for replaying a
// captured ps output.
type StaticLister string

func (s StaticLister) List(context.Context) (string, error) {
	return string(s), nil
}

// ListerFunc adapts a function to the Lister interface.
type ListerFunc func(ctx context.Context) (string, error)

func (f ListerFunc) List(ctx context.Context) (string, error) {
	return f(ctx)
}
