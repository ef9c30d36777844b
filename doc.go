// Package releaseboard provides an embeddable release status dashboard
// backed by a Pollbot status service.
//
// For a (product, version) pair the dashboard asks the status service which
// checks apply, fetches every check result, aggregates them into a verdict
// and keeps re-fetching while any check is failing. The state lives in a
// single store whose transitions are applied in order; the web UI, the
// terminal UI and state callbacks all render immutable snapshots of it.
//
// # Quick Start
//
// Open a release and start the dashboard with graceful shutdown:
//
//	d, _ := releaseboard.New(releaseboard.WithStartFragment("#pollbot/thunderbird/60.0"))
//
//	// Set up graceful shutdown on SIGINT/SIGTERM
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	d.Start(ctx) // blocks until context is cancelled
//
// # Configuration
//
// The dashboard uses the functional options pattern for configuration:
//
//	svc, err := releaseboard.NewService("staging", "https://pollbot.stage.example/v1",
//	    releaseboard.WithHeaders("Authorization", "Bearer token"),
//	    releaseboard.WithTimeout(5 * time.Second),
//	)
//
//	d, err := releaseboard.New(
//	    releaseboard.WithService(svc),
//	    releaseboard.WithRefreshInterval(30 * time.Second),
//	    releaseboard.WithPort(9090),
//	)
//
// # Navigation
//
// Releases are selected with location fragments of the form
// "#<service>/<product>/<version>", the same deep links the web page uses.
// [Dashboard.Navigate] applies one; anything that does not match, or names
// an unsupported product, is ignored. [Dashboard.Fragment] builds one.
//
// # Verdicts
//
// A release is pending while any check has no result, failed when any
// actionable check did not report "exists", and successful otherwise.
// Non-actionable checks are displayed but never affect the verdict.
//
// # Architecture
//
// The dashboard consists of several internal packages (under internal/):
//
//   - internal/state: Immutable state, actions, reducer, verdict and view
//   - internal/store: Serialised state transitions with latest-wins subscriptions
//   - internal/poller: Status service client, fetch operations and auto refresh
//   - internal/router: Fragment parsing and navigation
//   - internal/server: HTTP server with REST API, Server-Sent Events and WebSocket
//   - internal/tui: Terminal UI and text report
//   - dashboard: Embedded web UI assets
//
// The internal packages are not part of the public API and may change
// without notice. The library is designed for single-binary deployment
// using Go's embed directive for static assets.
package releaseboard
