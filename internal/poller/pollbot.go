package poller

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jpalmerr/releaseboard/internal/state"
)

// Request kinds, used as the endpoint label of probe metrics.
const (
	RequestServiceVersion  = "service_version"
	RequestOngoingVersions = "ongoing_versions"
	RequestReleaseInfo     = "release_info"
	RequestCheck           = "check"
)

// StatusService is the read-only surface of the status service.
type StatusService interface {
	ServiceVersion(ctx context.Context) (state.ServiceVersion, error)
	OngoingVersions(ctx context.Context, product string) (map[string]string, error)
	ReleaseInfo(ctx context.Context, product, version string) (state.ReleaseInfo, error)
	CheckStatus(ctx context.Context, checkURL string) (state.CheckResult, error)
}

// ServiceInfo describes how to reach the status service.
type ServiceInfo struct {
	// Name is the service segment of deep links (e.g. "pollbot").
	Name string

	// BaseURL is the versioned API root, without trailing slash.
	BaseURL string

	// Headers are sent with every request.
	Headers map[string]string

	// Timeout bounds each request. Zero relies on the caller's context.
	Timeout time.Duration
}

// API talks to a Pollbot-compatible status service.
type API struct {
	client *Client
	info   ServiceInfo
}

var _ StatusService = (*API)(nil)

// NewAPI returns an API using client. A nil client gets a fresh [Client].
func NewAPI(client *Client, info ServiceInfo) *API {
	if client == nil {
		client = NewClient()
	}
	info.BaseURL = strings.TrimRight(info.BaseURL, "/")
	return &API{client: client, info: info}
}

// Info returns the service description the API was built with.
func (a *API) Info() ServiceInfo {
	return a.info
}

// Close releases idle connections.
func (a *API) Close() {
	a.client.Close()
}

// ServiceVersion fetches {base}/__version__.
func (a *API) ServiceVersion(ctx context.Context) (state.ServiceVersion, error) {
	var v state.ServiceVersion
	if err := a.getJSON(ctx, a.info.BaseURL+"/__version__", &v); err != nil {
		return state.ServiceVersion{}, fmt.Errorf("service version: %w", err)
	}
	return v, nil
}

// OngoingVersions fetches {base}/{product}/ongoing-versions, a channel ->
// version map.
func (a *API) OngoingVersions(ctx context.Context, product string) (map[string]string, error) {
	var versions map[string]string
	u := a.info.BaseURL + "/" + url.PathEscape(product) + "/ongoing-versions"
	if err := a.getJSON(ctx, u, &versions); err != nil {
		return nil, fmt.Errorf("ongoing versions for %s: %w", product, err)
	}
	if versions == nil {
		versions = map[string]string{}
	}
	return versions, nil
}

// ReleaseInfo fetches {base}/{product}/{version}.
//
// A body carrying a message is the error variant and is returned without
// error whatever the HTTP status; callers check [state.ReleaseInfo.IsError].
// An error is returned only for transport failures, undecodable bodies and
// non-2xx responses without a message.
func (a *API) ReleaseInfo(ctx context.Context, product, version string) (state.ReleaseInfo, error) {
	u := a.info.BaseURL + "/" + url.PathEscape(product) + "/" + url.PathEscape(version)
	resp := a.client.Get(ctx, u, a.info.Headers, a.info.Timeout)
	if resp.Error != nil {
		return state.ReleaseInfo{}, resp.Error
	}

	var info state.ReleaseInfo
	if err := resp.DecodeJSON(&info); err != nil {
		if !resp.OK() {
			return state.ReleaseInfo{}, unexpectedStatus(resp)
		}
		return state.ReleaseInfo{}, err
	}
	if info.IsError() {
		return state.ReleaseInfo{Message: info.Message}, nil
	}
	if !resp.OK() {
		return state.ReleaseInfo{}, unexpectedStatus(resp)
	}
	return info, nil
}

// CheckStatus fetches one check URL as advertised by the release info.
func (a *API) CheckStatus(ctx context.Context, checkURL string) (state.CheckResult, error) {
	var result state.CheckResult
	if err := a.getJSON(ctx, checkURL, &result); err != nil {
		return state.CheckResult{}, err
	}
	return result, nil
}

func (a *API) getJSON(ctx context.Context, u string, v any) error {
	resp := a.client.Get(ctx, u, a.info.Headers, a.info.Timeout)
	if resp.Error != nil {
		return resp.Error
	}
	if !resp.OK() {
		return unexpectedStatus(resp)
	}
	return resp.DecodeJSON(v)
}

func unexpectedStatus(resp Response) error {
	return fmt.Errorf("unexpected status %d", resp.StatusCode)
}
