package monitor

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/pranshuparmar/taskman/internal/batch"
	"github.com/pranshuparmar/taskman/internal/proc"
)

// TermState is a step of the termination protocol.
type TermState int

const (
	Requested TermState = iota
	SignalSent
	Waiting
	Verified
	Escalated
	Done
	Failed
)

func (s TermState) String() string {
	switch s {
	case Requested:
		return "requested"
	case SignalSent:
		return "signal-sent"
	case Waiting:
		return "waiting"
	case Verified:
		return "verified"
	case Escalated:
		return "escalated"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminate asks pid to exit, waits the grace period, and kills it if it is
// still alive. A process that is already gone counts as success. Every
// successful termination refreshes the snapshot before returning.
func (c *Controller) Terminate(ctx context.Context, pid int) error {
	if pid <= 0 {
		return &TerminateError{PID: pid, State: Requested, Err: ErrInvalidPID}
	}

	t := termination{c: c, pid: pid, log: c.log.With(zap.Int("pid", pid))}
	return t.run(ctx)
}

type termination struct {
	c     *Controller
	pid   int
	state TermState
	log   *zap.Logger
}

func (t *termination) to(next TermState) {
	t.log.Debug("terminate", zap.Stringer("from", t.state), zap.Stringer("to", next))
	t.state = next
}

func (t *termination) run(ctx context.Context) error {
	c := t.c

	err := c.signaler.Send(t.pid, proc.Terminate)
	switch {
	case err == nil:
		t.to(SignalSent)
		t.to(Waiting)
		if err := c.sleep(ctx, c.grace); err != nil {
			t.log.Debug("grace wait cut short", zap.Error(err))
		}
	case errors.Is(err, proc.ErrNoSuchProcess):
		t.to(Done)
		return t.finish(ctx, outcomeGone)
	case errors.Is(err, proc.ErrPermissionDenied):
		return t.fail(err)
	default:
		t.log.Warn("graceful signal failed, escalating", zap.Error(err))
	}

	t.to(Verified)
	if err := c.signaler.Send(t.pid, proc.Probe); err != nil && !errors.Is(err, proc.ErrPermissionDenied) {
		// Probe only reports existence; EPERM means the process is still there.
		t.to(Done)
		return t.finish(ctx, outcomeDone)
	}

	t.to(Escalated)
	if err := c.signaler.Send(t.pid, proc.Kill); err != nil {
		if errors.Is(err, proc.ErrNoSuchProcess) {
			t.to(Done)
			return t.finish(ctx, outcomeDone)
		}
		return t.fail(fmt.Errorf("%w: %w", ErrTerminationFailed, err))
	}

	t.to(Done)
	return t.finish(ctx, outcomeEscalated)
}

func (t *termination) finish(ctx context.Context, outcome string) error {
	t.c.metrics.recordTermination(outcome)
	t.log.Info("process terminated", zap.String("outcome", outcome))
	t.c.refreshAfter(ctx)
	return nil
}

func (t *termination) fail(err error) error {
	t.to(Failed)
	t.c.metrics.recordTermination(outcomeFailed)
	t.log.Warn("terminate failed", zap.Error(err))
	return &TerminateError{PID: t.pid, State: Failed, Err: err}
}

// TerminateAll terminates each distinct pid independently, running at most
// concurrency protocols at once. The result maps every pid to its error,
// nil on success.
func (c *Controller) TerminateAll(ctx context.Context, pids []int, concurrency int) map[int]error {
	unique := slices.Clone(pids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	return batch.Collect(batch.Run(ctx, unique, concurrency, c.Terminate))
}
