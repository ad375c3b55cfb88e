package proc

import (
	"context"
	"os/exec"
)

//go:generate mockgen -destination=mocks/mock_executor.go -package=mocks github.com/pranshuparmar/taskman/internal/proc Executor
//go:generate mockgen -destination=mocks/mock_signaler.go -package=mocks github.com/pranshuparmar/taskman/internal/proc Signaler

// Executor runs an external command and returns its standard output.
type Executor interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type RealExecutor struct{}

func (r *RealExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

var executor Executor = &RealExecutor{}

func SetExecutor(e Executor) {
	executor = e
}

func ResetExecutor() {
	executor = &RealExecutor{}
}

// Run executes a command using the current executor
func Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return executor.Run(ctx, name, args...)
}
