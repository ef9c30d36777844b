package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_RegistersCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := New(registry)

	m.ObserveTransition("set_version")
	m.ObserveRequest("check", "ok", 10*time.Millisecond)
	m.ObserveTick()
	m.SetRefreshing(true)
	m.SetSubscribers(2)

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) != 7 {
		// HTTP vectors have no children yet
		t.Errorf("Gather() = %d families, want 7", len(families))
	}
}

func TestNew_DoubleRegistrationPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	New(registry)

	defer func() {
		if recover() == nil {
			t.Error("New() on the same registry twice expected panic")
		}
	}()
	New(registry)
}

func TestMetrics_Recorders(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveTransition("add_check_result")
	m.ObserveTransition("add_check_result")
	m.ObserveTransition("set_version")
	if got := testutil.ToFloat64(m.TransitionsTotal.WithLabelValues("add_check_result")); got != 2 {
		t.Errorf("transitions{add_check_result} = %v, want 2", got)
	}

	m.ObserveRequest("check", "error", time.Second)
	if got := testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("check", "error")); got != 1 {
		t.Errorf("upstream{check,error} = %v, want 1", got)
	}

	m.SetRefreshing(true)
	if got := testutil.ToFloat64(m.Refreshing); got != 1 {
		t.Errorf("refreshing = %v, want 1", got)
	}
	m.SetRefreshing(false)
	if got := testutil.ToFloat64(m.Refreshing); got != 0 {
		t.Errorf("refreshing = %v, want 0", got)
	}

	m.ObserveTick()
	m.ObserveTick()
	if got := testutil.ToFloat64(m.RefreshTicks); got != 2 {
		t.Errorf("ticks = %v, want 2", got)
	}

	m.SetSubscribers(3)
	if got := testutil.ToFloat64(m.Subscribers); got != 3 {
		t.Errorf("subscribers = %v, want 3", got)
	}
}

func TestMetrics_Middleware(t *testing.T) {
	m := New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/state", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/api/navigate", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/state", nil),
		httptest.NewRequest(http.MethodGet, "/api/state", nil),
		httptest.NewRequest(http.MethodPost, "/api/navigate", nil),
		httptest.NewRequest(http.MethodGet, "/nope", nil),
	} {
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	tests := []struct {
		route, method, status string
		want                  float64
	}{
		{"/api/state", "GET", "200", 2},
		{"/api/navigate", "POST", "202", 1},
	}
	for _, tt := range tests {
		got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(tt.route, tt.method, tt.status))
		if got != tt.want {
			t.Errorf("http_requests_total{%s,%s,%s} = %v, want %v", tt.route, tt.method, tt.status, got, tt.want)
		}
	}
}

func TestStatusRecorder_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := &statusRecorder{ResponseWriter: rec, statusCode: http.StatusOK}

	if wrapped.Unwrap() != rec {
		t.Error("Unwrap() did not return the underlying writer")
	}

	wrapped.WriteHeader(http.StatusTeapot)
	if wrapped.statusCode != http.StatusTeapot || rec.Code != http.StatusTeapot {
		t.Errorf("statusCode = %d, recorder = %d", wrapped.statusCode, rec.Code)
	}
}
