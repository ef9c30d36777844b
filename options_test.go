package releaseboard

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/releaseboard/internal/clock"
)

func TestNew_Defaults(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if d.Port() != defaultPort {
		t.Errorf("Port() = %v, want %v", d.Port(), defaultPort)
	}
	if d.RefreshInterval() != defaultRefreshInterval {
		t.Errorf("RefreshInterval() = %v, want %v", d.RefreshInterval(), defaultRefreshInterval)
	}
	if d.Service().Name() != DefaultServiceName {
		t.Errorf("Service().Name() = %q, want %q", d.Service().Name(), DefaultServiceName)
	}
	if d.Title() != "" {
		t.Errorf("Title() = %q, want empty", d.Title())
	}
	if d.logger != slog.Default() {
		t.Error("logger should default to slog.Default()")
	}
	if d.rateRPS != defaultRateRPS || d.rateBurst != defaultRateBurst {
		t.Errorf("rate limit = %v/%v, want %v/%v", d.rateRPS, d.rateBurst, defaultRateRPS, defaultRateBurst)
	}
}

func TestNew_InitialState(t *testing.T) {
	d, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s := d.State()
	if !s.Selected.IsZero() || s.ReleaseInfo != nil || s.ShouldRefresh {
		t.Errorf("State() = %+v, want initial state", s)
	}
	if d.View().Phase != "idle" {
		t.Errorf("View().Phase = %q, want idle", d.View().Phase)
	}
}

func TestWithService(t *testing.T) {
	svc, _ := NewService("staging", "https://pollbot.stage.example/v1")
	d, err := New(WithService(svc))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.Service().Name() != "staging" {
		t.Errorf("Service().Name() = %q, want staging", d.Service().Name())
	}
	if got := d.Fragment("thunderbird", "60.0"); got != "#staging/thunderbird/60.0" {
		t.Errorf("Fragment() = %q", got)
	}

	if _, err := New(WithService(Service{})); err == nil {
		t.Error("WithService(Service{}) expected error, got nil")
	}
}

func TestWithRefreshInterval(t *testing.T) {
	d, err := New(WithRefreshInterval(30 * time.Second))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.RefreshInterval() != 30*time.Second {
		t.Errorf("RefreshInterval() = %v, want 30s", d.RefreshInterval())
	}

	for _, interval := range []time.Duration{0, -time.Second, 500 * time.Millisecond} {
		if _, err := New(WithRefreshInterval(interval)); err == nil {
			t.Errorf("WithRefreshInterval(%v) expected error, got nil", interval)
		}
	}
}

func TestWithPort(t *testing.T) {
	tests := []struct {
		port    int
		wantErr bool
	}{
		{1, false},
		{9090, false},
		{65535, false},
		{0, true},
		{-1, true},
		{65536, true},
	}

	for _, tt := range tests {
		d, err := New(WithPort(tt.port))
		if (err != nil) != tt.wantErr {
			t.Errorf("WithPort(%d) error = %v, wantErr %v", tt.port, err, tt.wantErr)
			continue
		}
		if err == nil && d.Port() != tt.port {
			t.Errorf("Port() = %d, want %d", d.Port(), tt.port)
		}
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	d, err := New(WithLogger(logger))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.logger != logger {
		t.Error("logger not set")
	}

	if _, err := New(WithLogger(nil)); err == nil {
		t.Error("WithLogger(nil) expected error, got nil")
	}
}

func TestWithTitle(t *testing.T) {
	d, err := New(WithTitle("Thunderbird Releases"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.Title() != "Thunderbird Releases" {
		t.Errorf("Title() = %q", d.Title())
	}
}

func TestWithStartFragment(t *testing.T) {
	tests := []struct {
		fragment string
		wantErr  bool
	}{
		{"#pollbot/thunderbird/60.0", false},
		{"#pollbot/thunderbird/60.0/extra", false},
		{"", false},
		{"#pollbot/firefox/60.0", true},
		{"pollbot/thunderbird/60.0", true},
		{"#pollbot/thunderbird", true},
	}

	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			_, err := New(WithStartFragment(tt.fragment))
			if (err != nil) != tt.wantErr {
				t.Errorf("WithStartFragment(%q) error = %v, wantErr %v", tt.fragment, err, tt.wantErr)
			}
		})
	}
}

func TestWithStateCallback_NilIsIgnored(t *testing.T) {
	d, err := New(WithStateCallback(nil))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(d.stateCallbacks) != 0 {
		t.Errorf("stateCallbacks = %d, want 0", len(d.stateCallbacks))
	}
}

func TestWithRateLimit(t *testing.T) {
	d, err := New(WithRateLimit(5, 10))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.rateRPS != 5 || d.rateBurst != 10 {
		t.Errorf("rate limit = %v/%v, want 5/10", d.rateRPS, d.rateBurst)
	}

	if _, err := New(WithRateLimit(0, 0)); err != nil {
		t.Errorf("WithRateLimit(0, 0) should disable limiting, got error %v", err)
	}
	if _, err := New(WithRateLimit(5, 0)); err == nil {
		t.Error("WithRateLimit(5, 0) expected error, got nil")
	}
}

func TestWithTrustedProxies(t *testing.T) {
	d, err := New(WithTrustedProxies("10.0.0.0/8", "192.0.2.1"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(d.trustedProxies) != 2 {
		t.Fatalf("trustedProxies = %v, want 2 entries", d.trustedProxies)
	}
	if got := d.trustedProxies[1].String(); got != "192.0.2.1/32" {
		t.Errorf("trustedProxies[1] = %s, want 192.0.2.1/32", got)
	}

	if _, err := New(WithTrustedProxies("proxy.internal")); err == nil {
		t.Error("WithTrustedProxies(proxy.internal) expected error, got nil")
	}
}

func TestWithProducts(t *testing.T) {
	if _, err := New(WithProducts("thunderbird")); err != nil {
		t.Errorf("WithProducts(thunderbird) error = %v", err)
	}
	_, err := New(WithProducts("firefox"))
	if err == nil || !strings.Contains(err.Error(), "unsupported product") {
		t.Errorf("WithProducts(firefox) error = %v, want unsupported product", err)
	}
}

func TestWithMetricsRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(WithMetricsRegistry(reg)); err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// collectors cannot be registered twice
	if _, err := New(WithMetricsRegistry(reg)); err == nil {
		t.Error("New() with a reused registry expected error, got nil")
	}

	if _, err := New(WithMetricsRegistry(nil)); err == nil {
		t.Error("WithMetricsRegistry(nil) expected error, got nil")
	}
}

func TestWithClock(t *testing.T) {
	fake := clock.Fake(time.Unix(0, 0))
	d, err := New(WithClock(fake))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if d.clock != fake {
		t.Error("clock not set")
	}

	if _, err := New(WithClock(nil)); err == nil {
		t.Error("WithClock(nil) expected error, got nil")
	}
}
