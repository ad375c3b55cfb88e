package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/pranshuparmar/taskman/internal/proc"
)

const (
	// DefaultInterval matches the refresh cadence of the desktop task manager.
	DefaultInterval = 3 * time.Second
	// DefaultGracePeriod is the wait between the graceful and forceful signal.
	DefaultGracePeriod = 300 * time.Millisecond
)

// Options configures a Controller.
type Options struct {
	Lister      proc.Lister
	Signaler    proc.Signaler
	Interval    time.Duration // periodic refresh, 0 disables the timer
	GracePeriod time.Duration // DefaultGracePeriod if zero
	Logger      *zap.Logger
	Metrics     *Metrics

	// Sleep waits out the grace period. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Controller owns the live process snapshot. It refreshes the snapshot on a
// timer and on demand, and terminates processes on request. Readers never
// block on a refresh and never observe a partially built snapshot.
type Controller struct {
	lister   proc.Lister
	signaler proc.Signaler
	grace    time.Duration
	log      *zap.Logger
	metrics  *Metrics
	sleep    func(ctx context.Context, d time.Duration) error
	now      func() time.Time

	current atomic.Pointer[Snapshot]
	refresh singleflight.Group

	// seq numbers listings in start order. storeMu guards storedSeq so a
	// listing that finishes late never replaces one that started after it.
	seq       atomic.Uint64
	storeMu   sync.Mutex
	storedSeq uint64

	mu      sync.Mutex
	subs    map[int]chan *Snapshot
	nextSub int
	closed  bool

	stop      context.CancelFunc
	loopDone  chan struct{}
	closeOnce sync.Once
}

// New builds a Controller. With a positive Interval the refresh timer is
// armed immediately and the first refresh runs right away.
func New(opts Options) (*Controller, error) {
	if opts.Lister == nil {
		return nil, errors.New("monitor: lister is required")
	}
	if opts.Signaler == nil {
		return nil, errors.New("monitor: signaler is required")
	}
	if opts.Interval < 0 {
		return nil, fmt.Errorf("monitor: negative interval %s", opts.Interval)
	}
	if opts.GracePeriod < 0 {
		return nil, fmt.Errorf("monitor: negative grace period %s", opts.GracePeriod)
	}

	c := &Controller{
		lister:   opts.Lister,
		signaler: opts.Signaler,
		grace:    opts.GracePeriod,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		sleep:    opts.Sleep,
		now:      time.Now,
		subs:     make(map[int]chan *Snapshot),
		loopDone: make(chan struct{}),
	}
	if c.grace == 0 {
		c.grace = DefaultGracePeriod
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	c.log = c.log.Named("monitor")
	if c.sleep == nil {
		c.sleep = sleepContext
	}
	c.current.Store(emptySnapshot())

	ctx, cancel := context.WithCancel(context.Background())
	c.stop = cancel
	if opts.Interval > 0 {
		go c.loop(ctx, opts.Interval)
	} else {
		close(c.loopDone)
	}

	return c, nil
}

func (c *Controller) loop(ctx context.Context, interval time.Duration) {
	defer close(c.loopDone)

	c.Refresh(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}

// Snapshot returns the latest complete snapshot. It never blocks.
func (c *Controller) Snapshot() *Snapshot {
	return c.current.Load()
}

// Refresh lists processes, rebuilds the snapshot and publishes it. A failed
// listing is logged and yields an empty snapshot. Callers arriving while a
// refresh is in flight wait for it and share its result.
func (c *Controller) Refresh(ctx context.Context) *Snapshot {
	v, _, _ := c.refresh.Do("refresh", func() (any, error) {
		return c.doRefresh(ctx), nil
	})
	return v.(*Snapshot)
}

// refreshAfter runs a listing that starts after the caller's last action.
// It never joins a refresh that was already in flight.
func (c *Controller) refreshAfter(ctx context.Context) *Snapshot {
	c.refresh.Forget("refresh")
	return c.Refresh(ctx)
}

func (c *Controller) doRefresh(ctx context.Context) *Snapshot {
	seq := c.seq.Add(1)
	start := c.now()

	raw, err := c.lister.List(ctx)
	if err != nil && ctx.Err() != nil {
		// Shutting down; keep what we have.
		return c.current.Load()
	}
	failed := err != nil
	if failed {
		c.log.Warn("process listing failed",
			zap.Error(fmt.Errorf("%w: %w", ErrEnumerationUnavailable, err)))
		raw = ""
	}

	snap := NewSnapshot(proc.ParseSnapshot(raw), start)
	elapsed := c.now().Sub(start)
	c.metrics.recordRefresh(elapsed, snap.Len(), failed)

	c.storeMu.Lock()
	defer c.storeMu.Unlock()
	if seq < c.storedSeq {
		c.log.Debug("discarding stale listing", zap.Uint64("seq", seq))
		return c.current.Load()
	}
	c.storedSeq = seq
	c.current.Store(snap)
	c.log.Debug("snapshot refreshed",
		zap.Int("processes", snap.Len()),
		zap.Duration("took", elapsed))

	c.publish(snap)
	return snap
}

// Subscribe returns a channel that always holds the most recent snapshot
// not yet received; older unread snapshots are dropped. The returned func
// unsubscribes and closes the channel.
func (c *Controller) Subscribe() (<-chan *Snapshot, func()) {
	ch := make(chan *Snapshot, 1)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		close(ch)
		return ch, func() {}
	}

	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

func (c *Controller) publish(snap *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	for _, ch := range c.subs {
		select {
		case <-ch: // drop the stale value
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Close disarms the refresh timer, waits for the timer goroutine to exit
// and closes all subscriber channels. It is safe to call more than once.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.stop()
		<-c.loopDone

		c.mu.Lock()
		defer c.mu.Unlock()
		c.closed = true
		for id, ch := range c.subs {
			delete(c.subs, id)
			close(ch)
		}
	})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
