package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/pranshuparmar/taskman/internal/proc"
	"github.com/pranshuparmar/taskman/internal/proc/mocks"
)

type recordedSleep struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *recordedSleep) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	return nil
}

func (r *recordedSleep) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waits)
}

type terminateFixture struct {
	c        *Controller
	signaler *mocks.MockSignaler
	sleeps   *recordedSleep
	listings *atomic.Int32
	metrics  *Metrics
}

func newTerminateFixture(t *testing.T) *terminateFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &terminateFixture{
		signaler: mocks.NewMockSignaler(ctrl),
		sleeps:   &recordedSleep{},
		listings: &atomic.Int32{},
		metrics:  NewMetrics(prometheus.NewRegistry()),
	}
	f.c = newTestController(t, Options{
		Lister: proc.ListerFunc(func(context.Context) (string, error) {
			f.listings.Add(1)
			return samplePS, nil
		}),
		Signaler: f.signaler,
		Sleep:    f.sleeps.sleep,
		Metrics:  f.metrics,
	})
	return f
}

func (f *terminateFixture) outcome(label string) float64 {
	return testutil.ToFloat64(f.metrics.terminations.WithLabelValues(label))
}

func TestTerminateAlreadyGone(t *testing.T) {
	f := newTerminateFixture(t)
	f.signaler.EXPECT().
		Send(4321, proc.Terminate).
		Return(fmt.Errorf("kill 4321: %w", proc.ErrNoSuchProcess))

	err := f.c.Terminate(context.Background(), 4321)
	require.NoError(t, err)

	assert.Equal(t, 0, f.sleeps.count(), "grace wait must be skipped")
	assert.Equal(t, int32(1), f.listings.Load(), "snapshot must be refreshed")
	assert.Equal(t, 1.0, f.outcome(outcomeGone))
}

func TestTerminateGracefulExit(t *testing.T) {
	f := newTerminateFixture(t)
	gomock.InOrder(
		f.signaler.EXPECT().Send(1234, proc.Terminate).Return(nil),
		f.signaler.EXPECT().Send(1234, proc.Probe).Return(proc.ErrNoSuchProcess),
	)

	require.NoError(t, f.c.Terminate(context.Background(), 1234))

	assert.Equal(t, []time.Duration{DefaultGracePeriod}, f.sleeps.waits)
	assert.Equal(t, int32(1), f.listings.Load())
	assert.Equal(t, 1.0, f.outcome(outcomeDone))
}

func TestTerminateEscalatesOnce(t *testing.T) {
	f := newTerminateFixture(t)
	gomock.InOrder(
		f.signaler.EXPECT().Send(1234, proc.Terminate).Return(nil),
		f.signaler.EXPECT().Send(1234, proc.Probe).Return(nil),
		f.signaler.EXPECT().Send(1234, proc.Kill).Return(nil).Times(1),
	)

	require.NoError(t, f.c.Terminate(context.Background(), 1234))

	assert.Equal(t, 1, f.sleeps.count())
	assert.Equal(t, int32(1), f.listings.Load())
	assert.Equal(t, 1.0, f.outcome(outcomeEscalated))
}

func TestTerminateProbePermissionDeniedMeansAlive(t *testing.T) {
	f := newTerminateFixture(t)
	gomock.InOrder(
		f.signaler.EXPECT().Send(77, proc.Terminate).Return(nil),
		f.signaler.EXPECT().Send(77, proc.Probe).Return(proc.ErrPermissionDenied),
		f.signaler.EXPECT().Send(77, proc.Kill).Return(nil),
	)

	require.NoError(t, f.c.Terminate(context.Background(), 77))
	assert.Equal(t, 1.0, f.outcome(outcomeEscalated))
}

func TestTerminatePermissionDenied(t *testing.T) {
	f := newTerminateFixture(t)
	f.signaler.EXPECT().
		Send(1, proc.Terminate).
		Return(fmt.Errorf("kill 1: %w", proc.ErrPermissionDenied))

	err := f.c.Terminate(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	var termErr *TerminateError
	require.ErrorAs(t, err, &termErr)
	assert.Equal(t, 1, termErr.PID)
	assert.Equal(t, Failed, termErr.State)

	assert.Equal(t, 0, f.sleeps.count())
	assert.Equal(t, int32(0), f.listings.Load(), "failed terminate must not refresh")
	assert.Equal(t, 1.0, f.outcome(outcomeFailed))
}

func TestTerminateKillFailure(t *testing.T) {
	f := newTerminateFixture(t)
	cause := errors.New("operation not supported")
	gomock.InOrder(
		f.signaler.EXPECT().Send(99, proc.Terminate).Return(nil),
		f.signaler.EXPECT().Send(99, proc.Probe).Return(nil),
		f.signaler.EXPECT().Send(99, proc.Kill).Return(cause),
	)

	err := f.c.Terminate(context.Background(), 99)
	assert.ErrorIs(t, err, ErrTerminationFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, int32(0), f.listings.Load())
}

func TestTerminateGracefulSignalErrorSkipsWait(t *testing.T) {
	f := newTerminateFixture(t)
	gomock.InOrder(
		f.signaler.EXPECT().Send(55, proc.Terminate).Return(errors.New("interrupted system call")),
		f.signaler.EXPECT().Send(55, proc.Probe).Return(nil),
		f.signaler.EXPECT().Send(55, proc.Kill).Return(nil),
	)

	require.NoError(t, f.c.Terminate(context.Background(), 55))
	assert.Equal(t, 0, f.sleeps.count())
}

func TestTerminateProcessExitsBeforeKill(t *testing.T) {
	f := newTerminateFixture(t)
	gomock.InOrder(
		f.signaler.EXPECT().Send(56, proc.Terminate).Return(nil),
		f.signaler.EXPECT().Send(56, proc.Probe).Return(nil),
		f.signaler.EXPECT().Send(56, proc.Kill).Return(proc.ErrNoSuchProcess),
	)

	require.NoError(t, f.c.Terminate(context.Background(), 56))
	assert.Equal(t, 1.0, f.outcome(outcomeDone))
}

func TestTerminateInvalidPID(t *testing.T) {
	f := newTerminateFixture(t)

	for _, pid := range []int{0, -1} {
		err := f.c.Terminate(context.Background(), pid)
		assert.ErrorIs(t, err, ErrInvalidPID)
	}
}

func TestTerminateAllIsolatesFailures(t *testing.T) {
	var kills atomic.Int32
	signaler := proc.SignalerFunc(func(pid int, sig proc.Signal) error {
		switch {
		case pid == 1:
			return proc.ErrNoSuchProcess
		case pid == 2 && sig == proc.Terminate:
			return proc.ErrPermissionDenied
		case pid == 3 && sig == proc.Probe:
			return proc.ErrNoSuchProcess
		case sig == proc.Kill:
			kills.Add(1)
		}
		return nil
	})

	sleeps := &recordedSleep{}
	c := newTestController(t, Options{
		Lister:   proc.StaticLister(samplePS),
		Signaler: signaler,
		Sleep:    sleeps.sleep,
	})

	got := c.TerminateAll(context.Background(), []int{3, 1, 2, 3, 4}, 2)

	require.Len(t, got, 4)
	assert.NoError(t, got[1])
	assert.ErrorIs(t, got[2], ErrPermissionDenied)
	assert.NoError(t, got[3])
	assert.NoError(t, got[4])
	assert.Equal(t, int32(1), kills.Load(), "only pid 4 needed SIGKILL")
}

func TestTermStateString(t *testing.T) {
	assert.Equal(t, "escalated", Escalated.String())
	assert.Equal(t, "state(42)", TermState(42).String())
}

func TestTerminateRefreshesAfterSignals(t *testing.T) {
	const afterKill = "PID PPID COMMAND %CPU %MEM\n" +
		"5678 123 /Applications/Bar.app/Contents/MacOS/Bar 0.5 2.2\n"

	var (
		calls   atomic.Int32
		killed  atomic.Bool
		entered = make(chan struct{})
		release = make(chan struct{})
	)
	lister := proc.ListerFunc(func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			// Started before the signal; still lists 1234.
			close(entered)
			<-release
			return samplePS, nil
		}
		if !killed.Load() {
			return samplePS, nil
		}
		return afterKill, nil
	})
	sig := proc.SignalerFunc(func(pid int, s proc.Signal) error {
		switch s {
		case proc.Terminate:
			killed.Store(true)
			return nil
		case proc.Probe:
			return proc.ErrNoSuchProcess
		default:
			return fmt.Errorf("unexpected %s", s)
		}
	})
	c := newTestController(t, Options{
		Lister:   lister,
		Signaler: sig,
		Sleep:    (&recordedSleep{}).sleep,
	})

	tick := make(chan *Snapshot, 1)
	go func() {
		tick <- c.Refresh(context.Background())
	}()
	<-entered

	require.NoError(t, c.Terminate(context.Background(), 1234))

	_, found := c.Snapshot().Lookup(1234)
	assert.False(t, found, "snapshot after Terminate still lists the ended process")
	assert.Equal(t, int32(2), calls.Load())

	close(release)
	stale := <-tick
	_, found = stale.Lookup(1234)
	assert.False(t, found, "late listing returned instead of the newer snapshot")
	_, found = c.Snapshot().Lookup(1234)
	assert.False(t, found, "late listing replaced the newer snapshot")
}

func TestTerminateAllRefreshesAfterEachSignal(t *testing.T) {
	var (
		mu    sync.Mutex
		alive = map[int]bool{1234: true, 5678: true}
	)
	lister := proc.ListerFunc(func(context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		raw := "PID PPID COMMAND %CPU %MEM\n"
		if alive[5678] {
			raw += "5678 123 /Applications/Bar.app/Contents/MacOS/Bar 0.5 2.2\n"
		}
		if alive[1234] {
			raw += "1234 1 /usr/bin/foo 12.3 1.0\n"
		}
		return raw, nil
	})
	sig := proc.SignalerFunc(func(pid int, s proc.Signal) error {
		mu.Lock()
		defer mu.Unlock()
		if s == proc.Terminate {
			alive[pid] = false
			return nil
		}
		return proc.ErrNoSuchProcess
	})
	c := newTestController(t, Options{
		Lister:   lister,
		Signaler: sig,
		Sleep:    (&recordedSleep{}).sleep,
	})
	c.Refresh(context.Background())

	errs := c.TerminateAll(context.Background(), []int{1234, 5678}, 2)
	require.Len(t, errs, 2)
	for pid, err := range errs {
		assert.NoError(t, err, "pid %d", pid)
	}
	assert.Equal(t, 0, c.Snapshot().Len())
}
