package state

// Verdict is the aggregated judgement over all checks of a release.
type Verdict string

const (
	// VerdictPending means at least one check has no result yet.
	VerdictPending Verdict = "pending"

	// VerdictSuccess means every actionable check passed.
	VerdictSuccess Verdict = "success"

	// VerdictFailure means at least one actionable check did not pass.
	VerdictFailure Verdict = "failure"
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	return string(v)
}

// Aggregate derives the release verdict from the release info and the
// check results.
//
// Any check without a result yields [VerdictPending]. Otherwise any
// actionable check whose status is not [StatusExists] yields
// [VerdictFailure]. Non-actionable checks never affect the verdict.
// A nil or error-variant release info is pending.
func Aggregate(info *ReleaseInfo, results map[string]CheckResult) Verdict {
	if info == nil || info.IsError() {
		return VerdictPending
	}

	for _, check := range info.Checks {
		if _, ok := results[check.Title]; !ok {
			return VerdictPending
		}
	}

	for _, check := range info.Checks {
		if check.Actionable && !results[check.Title].Status.Passing() {
			return VerdictFailure
		}
	}
	return VerdictSuccess
}
