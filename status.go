package releaseboard

import "github.com/jpalmerr/releaseboard/internal/state"

// State is an immutable snapshot of the dashboard. Snapshots passed to
// callbacks and subscribers must not be modified.
type State = state.State

// Selection identifies the product and version being inspected.
type Selection = state.Selection

// ReleaseInfo is the release metadata returned by the status service.
type ReleaseInfo = state.ReleaseInfo

// CheckDescriptor names one check of a release.
type CheckDescriptor = state.CheckDescriptor

// CheckResult is the outcome of one check.
type CheckResult = state.CheckResult

// CheckStatus is the status reported for one check.
type CheckStatus = state.CheckStatus

// Check statuses. Only [StatusExists] is passing.
const (
	StatusExists     = state.StatusExists
	StatusMissing    = state.StatusMissing
	StatusIncomplete = state.StatusIncomplete
	StatusError      = state.StatusError
)

// Verdict is the aggregated judgement over all checks of a release.
type Verdict = state.Verdict

// Verdicts returned by [State.Verdict].
const (
	VerdictPending = state.VerdictPending
	VerdictSuccess = state.VerdictSuccess
	VerdictFailure = state.VerdictFailure
)

// View is a render-ready projection of a [State].
type View = state.View

// NewView projects s for rendering.
func NewView(s State) View {
	return state.NewView(s)
}
