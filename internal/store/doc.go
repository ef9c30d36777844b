// Package store holds the dashboard's application state and serialises
// every transition through a single consumer goroutine.
//
// The main components are:
//
//   - [Store]: FIFO action queue, snapshot holder and pub/sub hub
//   - [Recorder]: instrumentation hook implemented by the metrics package
//
// Transitions themselves are defined by [state.Reduce]; the store only
// decides when they run. Subscribers see snapshots with latest-wins
// delivery, so a slow reader (a stalled SSE client, a busy terminal UI)
// never holds up dispatching.
//
// Users of the releaseboard library should not need to interact with this
// package directly.
package store
