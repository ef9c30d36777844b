// Package pollbottest provides an in-memory Pollbot-compatible status
// service for tests and demos.
package pollbottest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/jpalmerr/releaseboard/internal/state"
)

// APIPrefix is the versioned API root served by [Handler].
const APIPrefix = "/v1"

// Check is one check of a fake release.
type Check struct {
	Title      string
	Actionable bool
}

type release struct {
	channel string
	checks  []Check
}

// Handler serves the Pollbot API from memory. Check results default to
// missing until set. The zero value is not usable; call [NewHandler].
type Handler struct {
	mu       sync.Mutex
	version  state.ServiceVersion
	ongoing  map[string]map[string]string
	releases map[string]release
	results  map[string]state.CheckResult
	failing  map[string]int
	requests map[string]int

	router chi.Router
}

// NewHandler returns an empty Handler.
func NewHandler() *Handler {
	h := &Handler{
		version: state.ServiceVersion{
			Version: "1.4.3",
			Commit:  "78539afa",
			Source:  "https://github.com/mozilla/PollBot.git",
		},
		ongoing:  map[string]map[string]string{},
		releases: map[string]release{},
		results:  map[string]state.CheckResult{},
		failing:  map[string]int{},
		requests: map[string]int{},
	}

	r := chi.NewRouter()
	r.Route(APIPrefix, func(r chi.Router) {
		r.Get("/__version__", h.handleVersion)
		r.Get("/{product}/ongoing-versions", h.handleOngoing)
		r.Get("/{product}/{version}", h.handleRelease)
		r.Get("/{product}/{version}/checks/{slug}", h.handleCheck)
	})
	h.router = r
	return h
}

// NewServer starts an httptest server backed by a new Handler. Its status
// service base URL is srv.URL + [APIPrefix].
func NewServer() (*httptest.Server, *Handler) {
	h := NewHandler()
	return httptest.NewServer(h), h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.requests[r.URL.Path]++
	h.mu.Unlock()
	h.router.ServeHTTP(w, r)
}

// SetServiceVersion replaces the build metadata.
func (h *Handler) SetServiceVersion(v state.ServiceVersion) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.version = v
}

// SetOngoing sets the channel -> version map of product.
func (h *Handler) SetOngoing(product string, versions map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := make(map[string]string, len(versions))
	for k, v := range versions {
		cp[k] = v
	}
	h.ongoing[product] = cp
}

// AddRelease registers a release and its checks.
func (h *Handler) AddRelease(product, version, channel string, checks ...Check) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releases[product+"/"+version] = release{channel: channel, checks: append([]Check(nil), checks...)}
}

// SetResult sets the result served for one check.
func (h *Handler) SetResult(product, version, title string, result state.CheckResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := checkKey(product, version, Slug(title))
	h.results[key] = result
	delete(h.failing, key)
}

// FailCheck makes one check answer with the given HTTP status.
func (h *Handler) FailCheck(product, version, title string, status int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.failing[checkKey(product, version, Slug(title))] = status
}

// Requests returns how often path was requested.
func (h *Handler) Requests(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requests[path]
}

// CheckPath is the request path of a check.
func CheckPath(product, version, title string) string {
	return APIPrefix + "/" + product + "/" + version + "/checks/" + Slug(title)
}

// Slug turns a check title into a path segment.
func Slug(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func checkKey(product, version, slug string) string {
	return product + "/" + version + "/" + slug
}

func (h *Handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	v := h.version
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) handleOngoing(w http.ResponseWriter, r *http.Request) {
	product := chi.URLParam(r, "product")
	h.mu.Lock()
	versions, ok := h.ongoing[product]
	h.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "message": "Invalid product."})
		return
	}
	writeJSON(w, http.StatusOK, versions)
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	product := chi.URLParam(r, "product")
	version := chi.URLParam(r, "version")

	h.mu.Lock()
	rel, ok := h.releases[product+"/"+version]
	h.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"status": 404, "message": "Invalid version number."})
		return
	}

	base := "http://" + r.Host
	info := state.ReleaseInfo{Product: product, Version: version, Channel: rel.channel}
	for _, c := range rel.checks {
		info.Checks = append(info.Checks, state.CheckDescriptor{
			Title:      c.Title,
			URL:        base + CheckPath(product, version, c.Title),
			Actionable: c.Actionable,
		})
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	key := checkKey(chi.URLParam(r, "product"), chi.URLParam(r, "version"), chi.URLParam(r, "slug"))

	h.mu.Lock()
	status, failing := h.failing[key]
	result, ok := h.results[key]
	h.mu.Unlock()

	if failing {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if !ok {
		result = state.CheckResult{Status: state.StatusMissing, Message: "Not published yet."}
	}
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
