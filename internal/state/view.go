package state

import "fmt"

// Phase describes what the main panel of the dashboard shows.
type Phase string

const (
	// PhaseIdle means no version is selected.
	PhaseIdle Phase = "idle"
	// PhaseLoading means a version is selected but its release info has not arrived.
	PhaseLoading Phase = "loading"
	// PhaseError means the status service answered with the release-info error variant.
	PhaseError Phase = "error"
	// PhaseReady means the release info is loaded and checks are displayed.
	PhaseReady Phase = "ready"
)

// Label is the display class of a check card.
type Label string

const (
	LabelSuccess Label = "success"
	LabelDanger  Label = "danger"
	LabelWarning Label = "warning"
	LabelInfo    Label = "info"
)

// LabelFor maps a check result to its display class. A nil result is a
// pending check.
func LabelFor(result *CheckResult, actionable bool) Label {
	switch {
	case result == nil:
		return LabelInfo
	case result.Status == StatusError:
		return LabelDanger
	case result.Status == StatusExists:
		return LabelSuccess
	case actionable:
		return LabelWarning
	default:
		return LabelInfo
	}
}

// View is a render-ready projection of a [State]. It is what the web page,
// the terminal UI and the CLI report consume.
type View struct {
	Phase          Phase        `json:"phase"`
	Product        string       `json:"product"`
	Version        string       `json:"version"`
	Channel        string       `json:"channel,omitempty"`
	Verdict        Verdict      `json:"verdict"`
	ReleaseError   string       `json:"release_error,omitempty"`
	Checks         []CheckView  `json:"checks"`
	Channels       []ChannelRow `json:"channels"`
	Errors         []ErrorRow   `json:"errors"`
	ServiceVersion *VersionRow  `json:"service_version,omitempty"`
	Refreshing     bool         `json:"refreshing"`
}

// CheckView is one check card.
type CheckView struct {
	Title      string      `json:"title"`
	URL        string      `json:"url"`
	Actionable bool        `json:"actionable"`
	Pending    bool        `json:"pending"`
	Status     CheckStatus `json:"status,omitempty"`
	Message    string      `json:"message,omitempty"`
	Link       string      `json:"link,omitempty"`
	Label      Label       `json:"label"`
}

// ChannelRow is one entry of the channel menu. Version is empty while the
// channel is unknown.
type ChannelRow struct {
	Product string `json:"product"`
	Channel string `json:"channel"`
	Version string `json:"version,omitempty"`
}

// ErrorRow is one error banner.
type ErrorRow struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Text    string `json:"text"`
}

// VersionRow is the footer link to the status service build.
type VersionRow struct {
	Version string `json:"version"`
	URL     string `json:"url,omitempty"`
}

// NewView projects s for rendering.
func NewView(s State) View {
	v := View{
		Product:    s.Selected.Product,
		Version:    s.Selected.Version,
		Verdict:    s.Verdict(),
		Checks:     []CheckView{},
		Channels:   channelRows(s.ProductVersions),
		Errors:     make([]ErrorRow, 0, len(s.Errors)),
		Refreshing: s.ShouldRefresh,
	}

	for _, e := range s.Errors {
		v.Errors = append(v.Errors, ErrorRow{
			Title:   e.Title,
			Message: e.Message,
			Text:    fmt.Sprintf("Failed getting check result for '%s': %s", e.Title, e.Message),
		})
	}

	if s.ServiceVersion != nil {
		v.ServiceVersion = &VersionRow{
			Version: s.ServiceVersion.Version,
			URL:     s.ServiceVersion.CommitURL(),
		}
	}

	switch {
	case s.Selected.Version == "":
		v.Phase = PhaseIdle
	case s.ReleaseInfo == nil:
		v.Phase = PhaseLoading
	case s.ReleaseInfo.IsError():
		v.Phase = PhaseError
		v.ReleaseError = s.ReleaseInfo.Message
	default:
		v.Phase = PhaseReady
		v.Channel = s.ReleaseInfo.Channel
		for _, check := range s.ReleaseInfo.Checks {
			v.Checks = append(v.Checks, checkView(check, s.CheckResults))
		}
	}
	return v
}

func checkView(check CheckDescriptor, results map[string]CheckResult) CheckView {
	cv := CheckView{
		Title:      check.Title,
		URL:        check.URL,
		Actionable: check.Actionable,
	}
	result, ok := results[check.Title]
	if !ok {
		cv.Pending = true
		cv.Label = LabelFor(nil, check.Actionable)
		return cv
	}
	cv.Status = result.Status
	cv.Message = result.Message
	cv.Link = result.Link
	cv.Label = LabelFor(&result, check.Actionable)
	return cv
}

func channelRows(pv ProductVersions) []ChannelRow {
	rows := make([]ChannelRow, 0, len(Products)*len(Channels))
	for _, product := range Products {
		for _, channel := range Channels {
			rows = append(rows, ChannelRow{
				Product: product,
				Channel: channel,
				Version: pv[product][channel],
			})
		}
	}
	return rows
}
