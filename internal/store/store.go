package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/jpalmerr/releaseboard/internal/state"
)

// defaultQueueSize bounds the number of actions waiting to be applied.
// Dispatch blocks when the queue is full.
const defaultQueueSize = 256

// Recorder receives store events for instrumentation. Implementations must
// be safe for concurrent use.
type Recorder interface {
	// ObserveTransition is called once per applied action.
	ObserveTransition(kind string)

	// SetSubscribers reports the current number of subscribers.
	SetSubscribers(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveTransition(string) {}
func (nopRecorder) SetSubscribers(int)       {}

// Store holds the application state and serialises every transition.
//
// Dispatch enqueues an action; a single consumer goroutine applies
// [state.Reduce], replaces the current snapshot and notifies subscribers.
// Actions therefore apply in dispatch order and no caller ever mutates
// state directly.
//
// Subscribers receive snapshots on a channel of capacity 1 with
// latest-wins delivery: a slow subscriber skips intermediate snapshots but
// always ends up with the newest one, and never blocks the consumer.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Store struct {
	logger   *slog.Logger
	recorder Recorder
	queue    chan state.Action

	mu      sync.RWMutex
	current state.State

	subMu       sync.Mutex
	subscribers map[chan state.State]struct{}

	lifeMu   sync.Mutex
	started  bool
	stopped  bool
	quit     chan struct{}
	quitOnce sync.Once
	wg       sync.WaitGroup
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. A nil logger is ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the instrumentation hook. A nil recorder is ignored.
func WithRecorder(r Recorder) Option {
	return func(s *Store) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithQueueSize overrides the action queue capacity.
func WithQueueSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.queue = make(chan state.Action, n)
		}
	}
}

// New creates a Store holding initial. The store does not apply actions
// until [Store.Start] is called; actions dispatched before that are queued.
func New(initial state.State, opts ...Option) *Store {
	s := &Store{
		logger:      slog.Default(),
		recorder:    nopRecorder{},
		queue:       make(chan state.Action, defaultQueueSize),
		current:     initial,
		subscribers: make(map[chan state.State]struct{}),
		quit:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start launches the consumer goroutine. It runs until ctx is cancelled or
// [Store.Stop] is called.
//
// If ctx is nil, context.Background() is used. Start is idempotent and a
// no-op after Stop.
func (s *Store) Start(ctx context.Context) {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.started || s.stopped {
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.consume(ctx)
	}()
}

// Stop halts the consumer, waits for it to exit and closes every subscriber
// channel. Actions still queued are applied before the consumer exits.
//
// Stop is idempotent and safe to call before Start.
func (s *Store) Stop() {
	s.lifeMu.Lock()
	s.stopped = true
	s.lifeMu.Unlock()

	s.quitOnce.Do(func() { close(s.quit) })
	s.wg.Wait()

	s.subMu.Lock()
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
	s.recorder.SetSubscribers(0)
	s.subMu.Unlock()
}

// Dispatch enqueues a. It blocks while the queue is full and reports false
// once the store has been stopped.
func (s *Store) Dispatch(a state.Action) bool {
	select {
	case <-s.quit:
		return false
	default:
	}

	select {
	case s.queue <- a:
		return true
	case <-s.quit:
		return false
	}
}

// State returns the current snapshot. Snapshots are never modified after
// publication, so the returned value is safe to read without locking.
func (s *Store) State() state.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Subscribe returns a channel that receives every published snapshot,
// starting with the current one. The channel is closed by
// [Store.Unsubscribe] or [Store.Stop].
func (s *Store) Subscribe() <-chan state.State {
	ch := make(chan state.State, 1)

	s.subMu.Lock()
	defer s.subMu.Unlock()

	select {
	case <-s.quit:
		close(ch)
		return ch
	default:
	}

	ch <- s.State()
	s.subscribers[ch] = struct{}{}
	s.recorder.SetSubscribers(len(s.subscribers))
	return ch
}

// Unsubscribe removes a subscription and closes its channel. Safe to call
// multiple times or with an unknown channel.
func (s *Store) Unsubscribe(ch <-chan state.State) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for sub := range s.subscribers {
		if sub == ch {
			delete(s.subscribers, sub)
			close(sub)
			break
		}
	}
	s.recorder.SetSubscribers(len(s.subscribers))
}

func (s *Store) consume(ctx context.Context) {
	for {
		select {
		case a := <-s.queue:
			s.apply(a)
		case <-ctx.Done():
			return
		case <-s.quit:
			s.drain()
			return
		}
	}
}

// drain applies whatever is left in the queue without blocking.
func (s *Store) drain() {
	for {
		select {
		case a := <-s.queue:
			s.apply(a)
		default:
			return
		}
	}
}

func (s *Store) apply(a state.Action) {
	if a == nil {
		return
	}

	s.mu.Lock()
	prev := s.current
	next := state.Reduce(prev, a)
	s.current = next
	s.mu.Unlock()

	s.recorder.ObserveTransition(a.Kind())
	s.logger.Debug("state transition", "action", a.Kind(), "should_refresh", next.ShouldRefresh)

	if before, after := prev.Verdict(), next.Verdict(); before != after {
		s.logger.Info("verdict changed",
			"product", next.Selected.Product,
			"version", next.Selected.Version,
			"from", before.String(),
			"to", after.String(),
		)
	}

	s.publish(next)
}

// publish delivers snap to every subscriber, replacing an unread older
// snapshot if there is one.
func (s *Store) publish(snap state.State) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	for ch := range s.subscribers {
		select {
		case ch <- snap:
			continue
		default:
		}
		// drop the stale snapshot, then retry once
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
