package state

// Action is a state-changing event. [Reduce] knows the seven actions
// defined in this file; any other implementation is a no-op.
type Action interface {
	// Kind names the action for logging and metrics.
	Kind() string
}

// Action kinds.
const (
	KindSetVersion            = "set_version"
	KindUpdateProductVersions = "update_product_versions"
	KindUpdateReleaseInfo     = "update_release_info"
	KindUpdateServiceVersion  = "update_service_version"
	KindAddCheckResult        = "add_check_result"
	KindRefreshCheckResult    = "refresh_check_result"
	KindAddServerError        = "add_server_error"
)

// SetVersion selects the (product, version) to display.
type SetVersion struct {
	Product string
	Version string
}

// UpdateProductVersions merges channel versions for one product.
type UpdateProductVersions struct {
	Product  string
	Versions map[string]string
}

// UpdateReleaseInfo replaces the release info.
//
// For scopes the action to the selection it was fetched for; a non-zero For
// that no longer matches the current selection makes the action a no-op.
type UpdateReleaseInfo struct {
	Info ReleaseInfo
	For  Selection
}

// UpdateServiceVersion replaces the status service build metadata.
type UpdateServiceVersion struct {
	Info ServiceVersion
}

// AddCheckResult records the result of one check. For scopes it like
// [UpdateReleaseInfo.For].
type AddCheckResult struct {
	Title  string
	Result CheckResult
	For    Selection
}

// RefreshCheckResult forgets the result of one check so it reads as
// pending until re-fetched. For scopes it like [UpdateReleaseInfo.For].
type RefreshCheckResult struct {
	Title string
	For   Selection
}

// AddServerError records a failed fetch. For scopes it like
// [UpdateReleaseInfo.For].
type AddServerError struct {
	Title   string
	Message string
	For     Selection
}

func (SetVersion) Kind() string            { return KindSetVersion }
func (UpdateProductVersions) Kind() string { return KindUpdateProductVersions }
func (UpdateReleaseInfo) Kind() string     { return KindUpdateReleaseInfo }
func (UpdateServiceVersion) Kind() string  { return KindUpdateServiceVersion }
func (AddCheckResult) Kind() string        { return KindAddCheckResult }
func (RefreshCheckResult) Kind() string    { return KindRefreshCheckResult }
func (AddServerError) Kind() string        { return KindAddServerError }
