package state

import (
	"encoding/json"
	"slices"
	"strings"
)

// Products is the whitelist of products the dashboard knows how to track.
// Deep links naming any other product are ignored.
var Products = []string{"thunderbird"}

// Channels lists the release tracks shown for every product, in display order.
var Channels = []string{"nightly", "beta", "release"}

// IsProduct reports whether p is a supported product.
func IsProduct(p string) bool {
	return slices.Contains(Products, p)
}

// CheckStatus is the outcome reported by the status service for one check.
type CheckStatus string

const (
	// StatusExists means the probed artifact is published. It is the only
	// passing status.
	StatusExists CheckStatus = "exists"

	// StatusMissing means the artifact is not published yet.
	StatusMissing CheckStatus = "missing"

	// StatusIncomplete means the artifact is partially published.
	StatusIncomplete CheckStatus = "incomplete"

	// StatusError means the status service failed to evaluate the check.
	StatusError CheckStatus = "error"
)

// String returns the string representation of the status.
func (s CheckStatus) String() string {
	return string(s)
}

// Passing reports whether the status counts as a pass.
func (s CheckStatus) Passing() bool {
	return s == StatusExists
}

// UnmarshalJSON decodes a status string. Values the dashboard does not
// recognise decode to [StatusError] so they never count as a pass.
func (s *CheckStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch status := CheckStatus(strings.ToLower(strings.TrimSpace(raw))); status {
	case StatusExists, StatusMissing, StatusIncomplete, StatusError:
		*s = status
	default:
		*s = StatusError
	}
	return nil
}

// CheckResult is the outcome of one probe against the status service.
//
// A CheckResult is immutable once created; a re-fetch replaces it wholesale.
type CheckResult struct {
	Status  CheckStatus `json:"status"`
	Message string      `json:"message"`
	Link    string      `json:"link"`
}

// CheckDescriptor describes what to check. Title is the unique key used in
// [State.CheckResults]; Actionable marks checks whose failure blocks the
// overall verdict.
type CheckDescriptor struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Actionable bool   `json:"actionable"`
}

// ReleaseInfo describes one (product, version) release and the checks that
// apply to it. When the status service reports a failure, only Message is
// set (the error variant).
type ReleaseInfo struct {
	Product string            `json:"product,omitempty"`
	Version string            `json:"version,omitempty"`
	Channel string            `json:"channel,omitempty"`
	Checks  []CheckDescriptor `json:"checks,omitempty"`
	Message string            `json:"message,omitempty"`
}

// IsError reports whether the release info is the error variant.
func (r *ReleaseInfo) IsError() bool {
	return r != nil && r.Message != ""
}

// ProductVersions maps product -> channel -> version.
type ProductVersions map[string]map[string]string

// ServerError records a failed fetch: the check (or request) title and the
// transport or parse error message.
type ServerError struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ServiceVersion is the build metadata published by the status service.
// The core treats it as opaque.
type ServiceVersion struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Source  string `json:"source"`
	Build   string `json:"build"`
}

// CommitURL links to the commit the status service was built from.
// Returns "" when source or commit is unknown.
func (v ServiceVersion) CommitURL() string {
	if v.Source == "" || v.Commit == "" {
		return ""
	}
	source := strings.TrimSuffix(strings.Replace(v.Source, ".git", "", 1), "/")
	return source + "/commit/" + v.Commit
}

// Selection is a (product, version) pair. An empty Version means nothing
// is selected.
type Selection struct {
	Product string `json:"product"`
	Version string `json:"version"`
}

// IsZero reports whether both fields are empty.
func (s Selection) IsZero() bool {
	return s == Selection{}
}

// State is the single authoritative application state.
//
// A missing key in CheckResults means the check is pending, which is
// distinct from every [CheckStatus]. ReleaseInfo and ServiceVersion are
// nil until the status service answered.
type State struct {
	CheckResults    map[string]CheckResult `json:"check_results"`
	ReleaseInfo     *ReleaseInfo           `json:"release_info"`
	ProductVersions ProductVersions        `json:"product_versions"`
	Selected        Selection              `json:"selected"`
	ServiceVersion  *ServiceVersion        `json:"service_version"`
	Errors          []ServerError          `json:"errors"`
	ShouldRefresh   bool                   `json:"should_refresh"`
}

// Initial returns the state of a freshly opened dashboard.
func Initial() State {
	return State{
		CheckResults:    map[string]CheckResult{},
		ProductVersions: ProductVersions{},
		Errors:          []ServerError{},
	}
}

// Verdict aggregates the current check results, see [Aggregate].
func (s State) Verdict() Verdict {
	return Aggregate(s.ReleaseInfo, s.CheckResults)
}

// KnownChecks returns a copy of the checks of the current release info.
// Returns nil when no release info is loaded or it is the error variant.
func (s State) KnownChecks() []CheckDescriptor {
	if s.ReleaseInfo == nil || s.ReleaseInfo.IsError() {
		return nil
	}
	return slices.Clone(s.ReleaseInfo.Checks)
}
