package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/releaseboard/internal/state"
)

// Probe outcomes, used as the result label of probe metrics.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomePanic = "panic"
)

// Dispatcher is the part of the store the fetcher needs.
type Dispatcher interface {
	Dispatch(a state.Action) bool
	State() state.State
}

// Recorder receives poller events for instrumentation. Implementations
// must be safe for concurrent use.
type Recorder interface {
	// ObserveRequest is called once per status service request.
	ObserveRequest(kind, outcome string, d time.Duration)

	// ObserveTick is called once per refresher tick.
	ObserveTick()

	// SetRefreshing reports whether the refresher ticker is live.
	SetRefreshing(running bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRequest(string, string, time.Duration) {}
func (nopRecorder) ObserveTick()                                 {}
func (nopRecorder) SetRefreshing(bool)                           {}

// Fetcher turns status service responses into store actions.
//
// Every request runs in its own goroutine and reports back through
// Dispatch, so results arrive in completion order. Check probes are
// scoped to the selection they were issued for; results that come back
// after the user switched versions are discarded by the reducer.
//
// Call [Fetcher.Wait] before stopping the store so nothing dispatches
// into it afterwards.
type Fetcher struct {
	service  StatusService
	store    Dispatcher
	logger   *slog.Logger
	recorder Recorder
	products []string
	wg       sync.WaitGroup
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetcherRecorder sets the instrumentation hook. A nil recorder is ignored.
func WithFetcherRecorder(r Recorder) FetcherOption {
	return func(f *Fetcher) {
		if r != nil {
			f.recorder = r
		}
	}
}

// WithProducts limits [Fetcher.RequestOngoingVersions] to products. An
// empty list keeps every supported product.
func WithProducts(products ...string) FetcherOption {
	return func(f *Fetcher) {
		if len(products) > 0 {
			f.products = products
		}
	}
}

// NewFetcher creates a Fetcher. A nil logger falls back to slog.Default().
func NewFetcher(service StatusService, store Dispatcher, logger *slog.Logger, opts ...FetcherOption) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Fetcher{
		service:  service,
		store:    store,
		logger:   logger,
		recorder: nopRecorder{},
		products: state.Products,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// RequestStatus selects (product, version) and loads its release info and
// check results.
//
// SetVersion is dispatched before RequestStatus returns; the network work
// runs in the background. A transport failure loading the release info is
// shown as the release-info error variant.
func (f *Fetcher) RequestStatus(ctx context.Context, product, version string) {
	sel := state.Selection{Product: product, Version: version}
	f.store.Dispatch(state.SetVersion{Product: product, Version: version})

	f.spawn(func() {
		start := time.Now()
		info, err := f.service.ReleaseInfo(ctx, product, version)
		if err != nil {
			f.recorder.ObserveRequest(RequestReleaseInfo, OutcomeError, time.Since(start))
			f.logger.Warn("release info request failed",
				"product", product,
				"version", version,
				"error", err,
			)
			f.store.Dispatch(state.UpdateReleaseInfo{Info: state.ReleaseInfo{Message: err.Error()}, For: sel})
			return
		}
		f.recorder.ObserveRequest(RequestReleaseInfo, OutcomeOK, time.Since(start))

		f.store.Dispatch(state.UpdateReleaseInfo{Info: info, For: sel})
		if info.IsError() {
			f.logger.Info("release info unavailable",
				"product", product,
				"version", version,
				"message", info.Message,
			)
			return
		}
		f.FetchChecks(ctx, sel, info.Checks)
	})
}

// FetchChecks probes every check in parallel. Each probe dispatches
// AddCheckResult or AddServerError on its own; failures never populate
// the check results.
func (f *Fetcher) FetchChecks(ctx context.Context, sel state.Selection, checks []state.CheckDescriptor) {
	for _, check := range checks {
		f.spawn(func() { f.probe(ctx, sel, check) })
	}
}

// RefreshStatus marks every check of the current release as pending and
// probes it again.
func (f *Fetcher) RefreshStatus(ctx context.Context) {
	snap := f.store.State()
	checks := snap.KnownChecks()
	if len(checks) == 0 {
		return
	}

	f.logger.Debug("refreshing checks",
		"product", snap.Selected.Product,
		"version", snap.Selected.Version,
		"checks", len(checks),
	)
	for _, check := range checks {
		f.store.Dispatch(state.RefreshCheckResult{Title: check.Title, For: snap.Selected})
		f.spawn(func() { f.probe(ctx, snap.Selected, check) })
	}
}

// RequestOngoingVersions loads the channel versions of every tracked
// product.
func (f *Fetcher) RequestOngoingVersions(ctx context.Context) {
	for _, product := range f.products {
		f.spawn(func() {
			start := time.Now()
			versions, err := f.service.OngoingVersions(ctx, product)
			if err != nil {
				f.recorder.ObserveRequest(RequestOngoingVersions, OutcomeError, time.Since(start))
				f.logger.Warn("ongoing versions request failed", "product", product, "error", err)
				f.store.Dispatch(state.AddServerError{
					Title:   fmt.Sprintf("ongoing versions (%s)", product),
					Message: err.Error(),
				})
				return
			}
			f.recorder.ObserveRequest(RequestOngoingVersions, OutcomeOK, time.Since(start))
			f.store.Dispatch(state.UpdateProductVersions{Product: product, Versions: versions})
		})
	}
}

// RequestServiceVersion loads the status service build metadata.
func (f *Fetcher) RequestServiceVersion(ctx context.Context) {
	f.spawn(func() {
		start := time.Now()
		v, err := f.service.ServiceVersion(ctx)
		if err != nil {
			f.recorder.ObserveRequest(RequestServiceVersion, OutcomeError, time.Since(start))
			f.logger.Warn("service version request failed", "error", err)
			f.store.Dispatch(state.AddServerError{Title: "service version", Message: err.Error()})
			return
		}
		f.recorder.ObserveRequest(RequestServiceVersion, OutcomeOK, time.Since(start))
		f.store.Dispatch(state.UpdateServiceVersion{Info: v})
	})
}

// Wait blocks until every request started so far has returned.
func (f *Fetcher) Wait() {
	f.wg.Wait()
}

func (f *Fetcher) spawn(fn func()) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		fn()
	}()
}

func (f *Fetcher) probe(ctx context.Context, sel state.Selection, check state.CheckDescriptor) {
	start := time.Now()
	result, err := f.safeCheck(ctx, check.URL)
	elapsed := time.Since(start)

	if err != nil {
		outcome := OutcomeError
		if _, ok := err.(*panicError); ok {
			outcome = OutcomePanic
		}
		f.recorder.ObserveRequest(RequestCheck, outcome, elapsed)
		f.logger.Warn("check failed",
			"title", check.Title,
			"url", check.URL,
			"error", err,
		)
		f.store.Dispatch(state.AddServerError{Title: check.Title, Message: err.Error(), For: sel})
		return
	}

	f.recorder.ObserveRequest(RequestCheck, OutcomeOK, elapsed)
	f.logger.Debug("check done",
		"title", check.Title,
		"status", result.Status.String(),
		"latency_ms", elapsed.Milliseconds(),
	)
	f.store.Dispatch(state.AddCheckResult{Title: check.Title, Result: result, For: sel})
}

type panicError struct {
	correlationID string
}

func (e *panicError) Error() string {
	return fmt.Sprintf("check panic (correlation_id: %s)", e.correlationID)
}

// safeCheck calls the status service with panic recovery. A panic is
// logged with its stack under a correlation ID, and reported to the user
// as an error carrying only the ID.
func (f *Fetcher) safeCheck(ctx context.Context, checkURL string) (result state.CheckResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			f.logger.Error("check panic",
				"correlation_id", correlationID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			result = state.CheckResult{}
			err = &panicError{correlationID: correlationID}
		}
	}()
	return f.service.CheckStatus(ctx, checkURL)
}
