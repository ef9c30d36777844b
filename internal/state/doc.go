// Package state holds the release dashboard's application state and the
// pure transition rules applied to it.
//
// This package is internal to releaseboard. It has no I/O and no
// goroutines: every function is deterministic, which keeps transitions
// comparable and directly testable.
//
// The main components are:
//
//   - [State]: the single root value describing one dashboard session
//   - [Action]: the vocabulary of state-changing events
//   - [Reduce]: applies one Action to a State and returns the next State
//   - [Aggregate]: derives the overall release [Verdict] from check results
//   - [View]: a render-ready projection of a State used by the web page,
//     the terminal UI and the CLI report
//
// States are never mutated in place. [Reduce] copies every map or slice
// it changes, so a snapshot handed to a subscriber stays valid forever.
package state
