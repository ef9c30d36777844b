package releaseboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/releaseboard/dashboard"
	"github.com/jpalmerr/releaseboard/internal/clock"
	"github.com/jpalmerr/releaseboard/internal/metrics"
	"github.com/jpalmerr/releaseboard/internal/poller"
	"github.com/jpalmerr/releaseboard/internal/ratelimit"
	"github.com/jpalmerr/releaseboard/internal/router"
	"github.com/jpalmerr/releaseboard/internal/server"
	"github.com/jpalmerr/releaseboard/internal/state"
	"github.com/jpalmerr/releaseboard/internal/store"
)

const (
	defaultRefreshInterval = poller.DefaultRefreshInterval
	defaultPort            = 8080
	defaultRateRPS         = 20
	defaultRateBurst       = 40
)

// Dashboard is the main orchestrator of the release dashboard.
//
// Dashboard owns the state store, talks to the status service, keeps
// incomplete releases refreshed and serves the web UI. It is created using
// [New] with functional options and started with [Dashboard.Start].
//
// The typical lifecycle is:
//
//	d, err := releaseboard.New(releaseboard.WithStartFragment("#pollbot/thunderbird/60.0"))
//	if err != nil {
//	    slog.Error("failed to create dashboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	d.Start(ctx) // blocks until context cancelled
//
// The caller controls the lifecycle via the context. Cancel the context to
// trigger graceful shutdown. A Dashboard can be started once.
type Dashboard struct {
	title           string
	service         Service
	refreshInterval time.Duration
	port            int
	logger          *slog.Logger
	stateCallbacks  []func(State)
	startFragment   string
	headless        bool
	rateRPS         float64
	rateBurst       int
	trustedProxies  []netip.Prefix
	allowedOrigins  []string
	registry        *prometheus.Registry
	clock           clock.Clock

	store   *store.Store
	api     *poller.API
	fetcher *poller.Fetcher
	router  *router.Router
	metrics *metrics.Metrics

	// runMu guards the run state. Navigations hold the read lock while
	// they start requests so shutdown never races the fetcher's WaitGroup.
	runMu   sync.RWMutex
	started bool
	running bool
	runCtx  context.Context
}

// New creates a new [Dashboard] instance with the given options.
//
// Defaults:
//   - Service: the public Pollbot instance ([DefaultService])
//   - Refresh interval: 60 seconds
//   - Port: 8080
//   - Rate limit: 20 requests per second, burst 40
//
// Returns an error if any option is invalid.
//
// Example:
//
//	d, err := releaseboard.New(
//	    releaseboard.WithTitle("Thunderbird Releases"),
//	    releaseboard.WithPort(9090),
//	)
func New(opts ...Option) (*Dashboard, error) {
	cfg := &rbConfig{
		service:         DefaultService(),
		refreshInterval: defaultRefreshInterval,
		port:            defaultPort,
		rateRPS:         defaultRateRPS,
		rateBurst:       defaultRateBurst,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("port must be between 1 and 65535, got %d", cfg.port)
	}

	// default to slog.Default() if no logger provided
	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := cfg.registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	clk := cfg.clock
	if clk == nil {
		clk = clock.Real()
	}

	d := &Dashboard{
		title:           cfg.title,
		service:         cfg.service,
		refreshInterval: cfg.refreshInterval,
		port:            cfg.port,
		logger:          logger,
		stateCallbacks:  cfg.stateCallbacks,
		startFragment:   cfg.startFragment,
		headless:        cfg.headless,
		rateRPS:         cfg.rateRPS,
		rateBurst:       cfg.rateBurst,
		trustedProxies:  cfg.trustedProxies,
		allowedOrigins:  cfg.allowedOrigins,
		registry:        registry,
		clock:           clk,
	}

	m, err := registerMetrics(registry)
	if err != nil {
		return nil, err
	}
	d.metrics = m

	d.store = store.New(state.Initial(),
		store.WithLogger(logger),
		store.WithRecorder(d.metrics),
	)
	d.api = poller.NewAPI(poller.NewClient(), poller.ServiceInfo{
		Name:    cfg.service.name,
		BaseURL: cfg.service.url,
		Headers: copyMap(cfg.service.headers),
		Timeout: cfg.service.timeout,
	})
	d.fetcher = poller.NewFetcher(d.api, d.store, logger,
		poller.WithFetcherRecorder(d.metrics),
		poller.WithProducts(cfg.products...),
	)
	d.router = router.New(d.request, logger)

	return d, nil
}

// registerMetrics converts the registration panic of an already used
// registry into an error.
func registerMetrics(reg *prometheus.Registry) (m *metrics.Metrics, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to register metrics: %v", r)
		}
	}()
	return metrics.New(reg), nil
}

// Start runs the dashboard.
//
// Start is a blocking call that runs until the provided context is cancelled.
// During execution:
//
//   - The status service version and the channel versions are requested
//   - The start fragment, if any, is navigated to
//   - Incomplete releases are refreshed at the configured interval
//   - The HTTP server serves the dashboard at http://localhost:<port>,
//     unless [WithHeadless] was given
//
// Shutdown stops auto refresh, cancels in-flight requests and waits for
// them, stops the store and finally stops the HTTP server.
//
// Returns nil on graceful shutdown. Returns an error if the dashboard was
// already started or the HTTP server fails to start.
func (d *Dashboard) Start(ctx context.Context) error {
	d.runMu.Lock()
	if d.started {
		d.runMu.Unlock()
		return errors.New("dashboard already started")
	}
	d.started = true
	d.runMu.Unlock()

	d.logger.Info("releaseboard starting",
		"service", d.service.name,
		"service_url", d.service.url,
		"refresh_interval", d.refreshInterval.String(),
	)

	// check if context already cancelled
	if ctx.Err() != nil {
		return nil
	}

	// the store outlives ctx so in-flight requests can finish dispatching
	d.store.Start(context.Background())

	probeCtx, cancelProbes := context.WithCancel(ctx)

	refresher := poller.NewRefresher(d.refreshInterval,
		func() { d.fetcher.RefreshStatus(probeCtx) },
		poller.WithClock(d.clock),
		poller.WithRefresherLogger(d.logger),
		poller.WithRefresherRecorder(d.metrics),
	)

	var wg sync.WaitGroup
	refreshSub := d.store.Subscribe()
	wg.Add(1)
	go func() {
		defer wg.Done()
		refresher.Watch(probeCtx, refreshSub)
	}()

	if len(d.stateCallbacks) > 0 {
		callbackSub := d.store.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			for snap := range callbackSub {
				for _, cb := range d.stateCallbacks {
					invokeCallbackSafe(cb, snap, d.logger)
				}
			}
		}()
	}

	d.runMu.Lock()
	d.running = true
	d.runCtx = probeCtx
	d.runMu.Unlock()

	var httpServer *server.Server
	serverCtx, cancelServer := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelServer()

	// cleanup releases everything in shutdown order
	cleanup := func() {
		d.runMu.Lock()
		d.running = false
		d.runMu.Unlock()

		refresher.Close()
		cancelProbes()
		d.fetcher.Wait()
		d.store.Stop() // closes subscriber channels
		wg.Wait()

		if httpServer != nil {
			cancelServer()
			httpServer.Wait()
		}
		d.api.Close()
	}

	d.fetcher.RequestServiceVersion(probeCtx)
	d.fetcher.RequestOngoingVersions(probeCtx)
	if d.startFragment != "" {
		d.Navigate(d.startFragment)
	}

	if !d.headless {
		opts := []server.Option{
			server.WithMetrics(d.metrics, d.registry),
			server.WithAllowedOrigins(d.allowedOrigins...),
		}
		if d.rateRPS > 0 {
			opts = append(opts, server.WithLimiter(ratelimit.New(d.rateRPS, d.rateBurst,
				ratelimit.WithTrustedProxies(d.trustedProxies...))))
		}

		srv := server.NewServer(d.store, d.Navigate, d.port, dashboard.Assets, d.title, d.logger, opts...)
		if err := srv.Start(serverCtx); err != nil {
			cancelServer()
			cleanup()
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		httpServer = srv
		d.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", d.port))
	}

	<-ctx.Done()
	cleanup()
	d.logger.Info("releaseboard stopped")
	return nil
}

// Navigate handles a location fragment of the form
// "#<service>/<product>/<version>".
//
// A matching fragment selects the version and starts loading its release
// info and checks. Anything else is ignored and leaves the current
// selection alone. Navigate reports whether the fragment matched. It
// returns false while the dashboard is not running.
func (d *Dashboard) Navigate(fragment string) bool {
	d.runMu.RLock()
	defer d.runMu.RUnlock()
	if !d.running {
		d.logger.Warn("navigation ignored, dashboard not running", "fragment", fragment)
		return false
	}
	return d.router.Navigate(fragment)
}

// request is the router's RequestFunc. It runs under runMu's read lock.
func (d *Dashboard) request(product, version string) {
	d.fetcher.RequestStatus(d.runCtx, product, version)
}

// State returns the current snapshot.
func (d *Dashboard) State() State {
	return d.store.State()
}

// View returns the render-ready projection of the current snapshot.
func (d *Dashboard) View() View {
	return state.NewView(d.store.State())
}

// Subscribe returns a channel of snapshots, seeded with the current one.
// Delivery is latest-wins. The channel is closed on shutdown or by
// [Dashboard.Unsubscribe].
func (d *Dashboard) Subscribe() <-chan State {
	return d.store.Subscribe()
}

// Unsubscribe closes a channel returned by [Dashboard.Subscribe].
func (d *Dashboard) Unsubscribe(ch <-chan State) {
	d.store.Unsubscribe(ch)
}

// Fragment returns the deep link selecting product and version on this
// dashboard's service.
func (d *Dashboard) Fragment(product, version string) string {
	return router.Fragment(d.service.name, product, version)
}

// Service returns the configured status service.
func (d *Dashboard) Service() Service {
	return d.service
}

// Title returns the configured dashboard title.
func (d *Dashboard) Title() string {
	return d.title
}

// Port returns the configured HTTP port for the dashboard server.
func (d *Dashboard) Port() int {
	return d.port
}

// RefreshInterval returns the configured auto refresh interval.
func (d *Dashboard) RefreshInterval() time.Duration {
	return d.refreshInterval
}

// validateFragment checks a deep link against the route grammar.
func validateFragment(fragment string) error {
	if _, ok := router.Parse(fragment); !ok {
		return fmt.Errorf("fragment %q must have the form #<service>/<product>/<version> with a supported product (%v)",
			fragment, state.Products)
	}
	return nil
}

// invokeCallbackSafe calls a state callback with panic recovery.
// Panics are logged but do not propagate.
func invokeCallbackSafe(cb func(State), snap State, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("state callback panicked",
				"panic", r,
				"product", snap.Selected.Product,
				"version", snap.Selected.Version,
			)
		}
	}()
	cb(snap)
}
