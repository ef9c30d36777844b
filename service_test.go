package releaseboard

import (
	"strings"
	"testing"
	"time"
)

func TestNewService_Valid(t *testing.T) {
	svc, err := NewService("pollbot", "https://pollbot.example/v1")
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if svc.Name() != "pollbot" {
		t.Errorf("Name() = %q, want pollbot", svc.Name())
	}
	if svc.URL() != "https://pollbot.example/v1" {
		t.Errorf("URL() = %q", svc.URL())
	}
	if svc.Timeout() != defaultServiceTimeout {
		t.Errorf("Timeout() = %v, want %v", svc.Timeout(), defaultServiceTimeout)
	}
}

func TestNewService_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		svcName string
		url     string
		wantErr string
	}{
		{"empty name", "", "https://pollbot.example", "cannot be empty"},
		{"name with slash", "poll/bot", "https://pollbot.example", "letters, digits and underscores"},
		{"name with dash", "poll-bot", "https://pollbot.example", "letters, digits and underscores"},
		{"no scheme", "pollbot", "pollbot.example/v1", "scheme"},
		{"ftp scheme", "pollbot", "ftp://pollbot.example", "scheme"},
		{"no host", "pollbot", "https://", "host"},
		{"unparseable", "pollbot", "http://[::1", "invalid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.svcName, tt.url)
			if err == nil {
				t.Fatal("NewService() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("NewService() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWithHeaders(t *testing.T) {
	svc, err := NewService("pollbot", "https://pollbot.example",
		WithHeaders("Authorization", "Bearer x", "X-Team", "release"),
	)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	headers := svc.Headers()
	if headers["Authorization"] != "Bearer x" || headers["X-Team"] != "release" {
		t.Errorf("Headers() = %v", headers)
	}

	// returned map is a copy
	headers["Authorization"] = "modified"
	if svc.Headers()["Authorization"] != "Bearer x" {
		t.Error("Headers() should return a copy")
	}
}

func TestWithHeaders_OddArgs(t *testing.T) {
	_, err := NewService("pollbot", "https://pollbot.example", WithHeaders("Authorization"))
	if err == nil {
		t.Error("NewService() expected error for odd header arguments, got nil")
	}
}

func TestWithTimeout(t *testing.T) {
	svc, err := NewService("pollbot", "https://pollbot.example", WithTimeout(3*time.Second))
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	if svc.Timeout() != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", svc.Timeout())
	}

	for _, d := range []time.Duration{0, -time.Second} {
		if _, err := NewService("pollbot", "https://pollbot.example", WithTimeout(d)); err == nil {
			t.Errorf("WithTimeout(%v) expected error, got nil", d)
		}
	}
}

func TestDefaultService(t *testing.T) {
	svc := DefaultService()
	if svc.Name() != DefaultServiceName || svc.URL() != DefaultServiceURL {
		t.Errorf("DefaultService() = %+v", svc)
	}
	if svc.Headers() != nil {
		t.Errorf("Headers() = %v, want nil", svc.Headers())
	}
}
