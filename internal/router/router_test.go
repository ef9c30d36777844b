package router

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParse(t *testing.T) {
	tests := []struct {
		fragment string
		want     Route
		wantOK   bool
	}{
		{"", Route{}, false},
		{"#", Route{}, false},
		{"#foobar", Route{}, false},
		{"#pollbot/thunderbird", Route{}, false},
		{"#pollbot/thunderbird/", Route{}, false},
		{"#pollbot/unknown-product/1.0", Route{}, false},
		{"#pollbot/firefox/60.0", Route{}, false},
		{"pollbot/thunderbird/60.0", Route{}, false},
		{"#pollbot/thunderbird/60.0", Route{"pollbot", "thunderbird", "60.0"}, true},
		{"#pollbot/thunderbird/60.0/", Route{"pollbot", "thunderbird", "60.0"}, true},
		{"#pollbot/thunderbird/60.0b3/extra", Route{"pollbot", "thunderbird", "60.0b3"}, true},
		{"#other/thunderbird/52.9.1esr", Route{"other", "thunderbird", "52.9.1esr"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			got, ok := Parse(tt.fragment)
			if ok != tt.wantOK {
				t.Fatalf("Parse(%q) ok = %v, want %v", tt.fragment, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.fragment, got, tt.want)
			}
		})
	}
}

func TestFragment_RoundTrip(t *testing.T) {
	f := Fragment("pollbot", "thunderbird", "60.0")
	if f != "#pollbot/thunderbird/60.0" {
		t.Fatalf("Fragment() = %q", f)
	}
	route, ok := Parse(f)
	if !ok || route.Product != "thunderbird" || route.Version != "60.0" {
		t.Errorf("Parse(Fragment()) = %+v, %v", route, ok)
	}
}

func TestRouter_Navigate(t *testing.T) {
	type call struct{ product, version string }
	var calls []call

	r := New(func(product, version string) {
		calls = append(calls, call{product, version})
	}, testLogger())

	if r.Navigate("#foobar") {
		t.Error("Navigate(#foobar) = true, want false")
	}
	if !r.Navigate("#pollbot/thunderbird/60.0") {
		t.Error("Navigate(valid) = false, want true")
	}
	if r.Navigate("#pollbot/unknown-product/1.0") {
		t.Error("Navigate(unknown product) = true, want false")
	}

	if len(calls) != 1 {
		t.Fatalf("request called %d times, want 1", len(calls))
	}
	if calls[0] != (call{"thunderbird", "60.0"}) {
		t.Errorf("request(%+v), want thunderbird 60.0", calls[0])
	}
}

func TestNew_NilLogger(t *testing.T) {
	r := New(func(string, string) {}, nil)
	if r.logger == nil {
		t.Error("New(nil logger) should fall back to slog.Default()")
	}
}
