package state

import "maps"

// Reduce applies a to s and returns the resulting state.
//
// Reduce is pure: s is never modified, and any map or slice that changes is
// copied first. Unknown and nil actions return s unchanged, as do scoped
// actions whose selection no longer matches s.Selected.
func Reduce(s State, a Action) State {
	switch act := a.(type) {
	case SetVersion:
		return setVersion(s, act)
	case UpdateProductVersions:
		return updateProductVersions(s, act)
	case UpdateReleaseInfo:
		if !s.accepts(act.For) {
			return s
		}
		info := act.Info
		s.ReleaseInfo = &info
		return s
	case UpdateServiceVersion:
		info := act.Info
		s.ServiceVersion = &info
		return s
	case AddCheckResult:
		if !s.accepts(act.For) {
			return s
		}
		results := copyResults(s.CheckResults)
		results[act.Title] = act.Result
		s.CheckResults = results
		s.ShouldRefresh = anyFailing(results)
		return s
	case RefreshCheckResult:
		if !s.accepts(act.For) {
			return s
		}
		results := copyResults(s.CheckResults)
		delete(results, act.Title)
		s.CheckResults = results
		return s
	case AddServerError:
		if !s.accepts(act.For) {
			return s
		}
		errs := make([]ServerError, len(s.Errors), len(s.Errors)+1)
		copy(errs, s.Errors)
		s.Errors = append(errs, ServerError{Title: act.Title, Message: act.Message})
		s.ShouldRefresh = true
		return s
	default:
		return s
	}
}

func setVersion(s State, act SetVersion) State {
	next := Selection{Product: act.Product, Version: act.Version}
	if next != s.Selected {
		// results and release info of the previous selection must not leak
		// into the new one
		s.CheckResults = map[string]CheckResult{}
		s.ReleaseInfo = nil
	}
	s.Selected = next
	s.ShouldRefresh = false
	return s
}

func updateProductVersions(s State, act UpdateProductVersions) State {
	all := make(ProductVersions, len(s.ProductVersions)+1)
	for product, channels := range s.ProductVersions {
		all[product] = channels
	}
	merged := make(map[string]string, len(all[act.Product])+len(act.Versions))
	maps.Copy(merged, all[act.Product])
	maps.Copy(merged, act.Versions)
	all[act.Product] = merged
	s.ProductVersions = all
	return s
}

// accepts reports whether an action scoped to sel applies to s.
// The zero selection marks an unscoped action.
func (s State) accepts(sel Selection) bool {
	return sel.IsZero() || sel == s.Selected
}

func copyResults(m map[string]CheckResult) map[string]CheckResult {
	cp := make(map[string]CheckResult, len(m)+1)
	maps.Copy(cp, m)
	return cp
}

func anyFailing(results map[string]CheckResult) bool {
	for _, r := range results {
		if !r.Status.Passing() {
			return true
		}
	}
	return false
}
