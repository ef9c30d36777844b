package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jpalmerr/releaseboard/internal/clock"
	"github.com/jpalmerr/releaseboard/internal/state"
)

// DefaultRefreshInterval is the period between automatic refreshes.
const DefaultRefreshInterval = 60 * time.Second

// Refresher re-probes checks periodically while the state asks for it.
//
// A Refresher owns at most one live ticker. [Refresher.Sync] starts it when
// the store reports ShouldRefresh and stops it when that clears, so a
// release whose checks all pass stops generating traffic.
//
// All methods are safe for concurrent use. After [Refresher.Close] the
// Refresher never starts again.
type Refresher struct {
	interval time.Duration
	tick     func()
	clock    clock.Clock
	logger   *slog.Logger
	recorder Recorder

	mu     sync.Mutex
	loop   *tickLoop
	closed bool
	// one count per run goroutine; Add only happens while !closed
	active sync.WaitGroup
}

type tickLoop struct {
	ticker *clock.Ticker
	stop   chan struct{}
	done   chan struct{}
}

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithClock replaces the time source. A nil clock is ignored.
func WithClock(c clock.Clock) RefresherOption {
	return func(r *Refresher) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithRefresherLogger sets the logger. A nil logger is ignored.
func WithRefresherLogger(logger *slog.Logger) RefresherOption {
	return func(r *Refresher) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRefresherRecorder sets the instrumentation hook. A nil recorder is
// ignored.
func WithRefresherRecorder(rec Recorder) RefresherOption {
	return func(r *Refresher) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// NewRefresher creates an idle Refresher calling tick every interval once
// started. A non-positive interval uses [DefaultRefreshInterval].
func NewRefresher(interval time.Duration, tick func(), opts ...RefresherOption) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	r := &Refresher{
		interval: interval,
		tick:     tick,
		clock:    clock.Real(),
		logger:   slog.Default(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start begins ticking. It is a no-op when already running or closed.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loop != nil || r.closed {
		return
	}

	loop := &tickLoop{
		ticker: r.clock.NewTicker(r.interval),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	r.loop = loop
	r.active.Add(1)
	r.recorder.SetRefreshing(true)
	r.logger.Info("auto refresh started", "interval", r.interval.String())

	go r.run(loop)
}

// Stop cancels the ticker and waits for the tick of the loop it stopped to
// return. It is a no-op when idle, even if another caller's Stop is still
// waiting; use [Refresher.Close] to wait for every tick.
func (r *Refresher) Stop() {
	r.mu.Lock()
	loop := r.loop
	r.loop = nil
	if loop != nil {
		r.recorder.SetRefreshing(false)
		r.logger.Info("auto refresh stopped")
	}
	r.mu.Unlock()

	if loop == nil {
		return
	}
	loop.ticker.Stop()
	close(loop.stop)
	<-loop.done
}

// Sync starts or stops the ticker to match shouldRefresh.
func (r *Refresher) Sync(shouldRefresh bool) {
	if shouldRefresh {
		r.Start()
	} else {
		r.Stop()
	}
}

// Running reports whether a ticker is live.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loop != nil
}

// Watch drives Sync from store snapshots until ctx is cancelled or
// snapshots is closed. The Refresher is closed when Watch returns.
func (r *Refresher) Watch(ctx context.Context, snapshots <-chan state.State) {
	defer r.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			r.Sync(snap.ShouldRefresh)
		}
	}
}

// Close stops the ticker for good and waits until no tick is running,
// including one whose loop a concurrent Stop already took. Safe to call
// multiple times.
func (r *Refresher) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	r.Stop()
	r.active.Wait()
}

func (r *Refresher) run(loop *tickLoop) {
	defer r.active.Done()
	defer close(loop.done)
	for {
		select {
		case <-loop.stop:
			return
		case <-loop.ticker.C:
			// a tick racing with Stop must not fire
			select {
			case <-loop.stop:
				return
			default:
			}
			r.recorder.ObserveTick()
			r.tick()
		}
	}
}
