// Package server provides the HTTP server for the release dashboard and API.
//
// This package handles all HTTP concerns:
//
//   - Dashboard serving: Serves the embedded HTML/CSS/JS dashboard at "/"
//   - REST API: current view at "/api/state", navigation at "/api/navigate"
//   - Live updates: Server-Sent Events at "/api/sse" and a WebSocket at "/api/ws"
//   - Operations: "/healthz" and Prometheus exposition at "/metrics"
//
// Routes are served by chi with CORS applied to every route and an optional
// token-bucket limiter on "/api". The server supports graceful shutdown via
// context cancellation, with a 5-second timeout for in-flight requests.
//
// Users of the releaseboard library should not need to interact with this
// package directly. The server is started by [releaseboard.Dashboard.Start].
package server
