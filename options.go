package releaseboard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/netip"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/releaseboard/internal/clock"
	"github.com/jpalmerr/releaseboard/internal/ratelimit"
	"github.com/jpalmerr/releaseboard/internal/state"
)

// rbConfig holds mutable state during Dashboard construction.
type rbConfig struct {
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
	products        []string
	registry        *prometheus.Registry
	clock           clock.Clock
}

// Option is a function that configures a [Dashboard] instance during construction.
//
// Option implements the functional options pattern, allowing optional
// configuration to be passed to [New] in a type-safe, extensible way.
// Options return an error if validation fails.
type Option func(*rbConfig) error

// WithService sets the status service to read from. Defaults to
// [DefaultService].
//
// Example:
//
//	svc, _ := releaseboard.NewService("pollbot", "https://pollbot.example/v1")
//	d, err := releaseboard.New(releaseboard.WithService(svc))
//
// Returns an error for a zero Service.
func WithService(s Service) Option {
	return func(cfg *rbConfig) error {
		if s.name == "" || s.url == "" {
			return errors.New("service must be created with NewService")
		}
		cfg.service = s
		return nil
	}
}

// WithRefreshInterval sets how often incomplete checks are re-probed while
// auto refresh is active. Defaults to 60 seconds.
//
// Returns an error if the duration is below one second.
func WithRefreshInterval(d time.Duration) Option {
	return func(cfg *rbConfig) error {
		if d < time.Second {
			return fmt.Errorf("refresh interval must be at least 1s, got %s", d)
		}
		cfg.refreshInterval = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server.
//
// The dashboard UI and API will be available at http://localhost:<port>.
// Defaults to 8080 if not specified.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *rbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithLogger sets a custom [slog.Logger] for the Dashboard instance.
//
// If not specified, [slog.Default] is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *rbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTitle sets the dashboard title displayed in the browser tab and header.
//
// If not specified, defaults to "Release Dashboard".
func WithTitle(title string) Option {
	return func(cfg *rbConfig) error {
		cfg.title = title
		return nil
	}
}

// WithStartFragment selects a version on startup, as if the fragment had
// been opened in the browser. The fragment has the form
// "#<service>/<product>/<version>".
//
// Returns an error if the fragment does not name a supported product.
func WithStartFragment(fragment string) Option {
	return func(cfg *rbConfig) error {
		if fragment == "" {
			cfg.startFragment = ""
			return nil
		}
		if err := validateFragment(fragment); err != nil {
			return err
		}
		cfg.startFragment = fragment
		return nil
	}
}

// WithStateCallback registers a function called with state snapshots.
//
// Snapshots are delivered latest-wins: a slow callback may skip
// intermediate snapshots but always sees the most recent one. Compare
// [State.Verdict] across calls to notify on verdict changes.
//
// Callbacks are invoked from a single goroutine in registration order.
// Panics within callbacks are recovered and logged.
//
// Nil callbacks are silently ignored.
func WithStateCallback(cb func(State)) Option {
	return func(cfg *rbConfig) error {
		if cb == nil {
			return nil // no-op for nil callback (safe to call)
		}
		cfg.stateCallbacks = append(cfg.stateCallbacks, cb)
		return nil
	}
}

// WithHeadless disables the HTTP server. The engine still runs and can be
// driven through [Dashboard.Navigate] and [Dashboard.Subscribe].
func WithHeadless() Option {
	return func(cfg *rbConfig) error {
		cfg.headless = true
		return nil
	}
}

// WithRateLimit limits the /api routes to rps requests per second with the
// given burst, globally and per client. rps <= 0 disables limiting.
// Defaults to 20 requests per second with a burst of 40.
//
// Returns an error if rps is positive and burst is below one.
func WithRateLimit(rps float64, burst int) Option {
	return func(cfg *rbConfig) error {
		if rps > 0 && burst < 1 {
			return fmt.Errorf("rate limit burst must be at least 1, got %d", burst)
		}
		cfg.rateRPS = rps
		cfg.rateBurst = burst
		return nil
	}
}

// WithTrustedProxies lists the reverse proxies, as CIDR ranges or bare
// addresses, whose X-Forwarded-For header identifies the client for rate
// limiting. By default the header is ignored.
//
// Returns an error if any entry does not parse.
func WithTrustedProxies(proxies ...string) Option {
	return func(cfg *rbConfig) error {
		prefixes, err := ratelimit.ParsePrefixes(proxies...)
		if err != nil {
			return err
		}
		cfg.trustedProxies = append(cfg.trustedProxies, prefixes...)
		return nil
	}
}

// WithAllowedOrigins sets the origins allowed by CORS and the WebSocket
// endpoint. Defaults to any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(cfg *rbConfig) error {
		cfg.allowedOrigins = append([]string(nil), origins...)
		return nil
	}
}

// WithProducts limits channel version lookups to the given products.
// Defaults to every supported product.
//
// Returns an error for an unsupported product.
func WithProducts(products ...string) Option {
	return func(cfg *rbConfig) error {
		for _, p := range products {
			if !state.IsProduct(p) {
				return fmt.Errorf("unsupported product %q (supported: %v)", p, state.Products)
			}
		}
		cfg.products = append([]string(nil), products...)
		return nil
	}
}

// WithMetricsRegistry registers the dashboard collectors with reg and
// serves reg on /metrics. Defaults to a private registry.
//
// Returns an error if the registry is nil.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(cfg *rbConfig) error {
		if reg == nil {
			return errors.New("metrics registry cannot be nil")
		}
		cfg.registry = reg
		return nil
	}
}

// WithClock replaces the wall clock driving auto refresh. It exists for
// tests.
func WithClock(c clock.Clock) Option {
	return func(cfg *rbConfig) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}
