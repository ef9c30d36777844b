// Package poller talks to the release status service and feeds the
// answers into the store.
//
// The main components are:
//
//   - [Client]: HTTP client wrapper with timeout and size limits
//   - [API]: typed access to the status service endpoints
//   - [Fetcher]: fans requests out, one goroutine per check, and
//     dispatches each outcome as a store action
//   - [Refresher]: the periodic re-probe ticker, live only while the
//     state asks for a refresh
//
// Users of the releaseboard library should not need to interact with this
// package directly. Configuration is done through the main releaseboard
// package.
package poller
