package releaseboard

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"time"
)

const (
	// DefaultServiceName is the service segment of deep links for Pollbot.
	DefaultServiceName = "pollbot"

	// DefaultServiceURL is the public Pollbot API root.
	DefaultServiceURL = "https://pollbot.services.mozilla.com/v1"

	defaultServiceTimeout = 10 * time.Second
)

// serviceNamePattern keeps service names usable as the first segment of a
// deep link.
var serviceNamePattern = regexp.MustCompile(`^\w+$`)

// Service describes the status service the dashboard reads from.
//
// Service is immutable after creation via [NewService]. Getters return
// copies of mutable data.
type Service struct {
	name    string
	url     string
	headers map[string]string
	timeout time.Duration
}

// Name returns the service name used in deep links.
func (s Service) Name() string {
	return s.name
}

// URL returns the versioned API root of the service.
func (s Service) URL() string {
	return s.url
}

// Headers returns a copy of the custom HTTP headers sent with every request.
// Returns nil if no custom headers are set.
func (s Service) Headers() map[string]string {
	return copyMap(s.headers)
}

// Timeout returns the per-request timeout.
// Defaults to 10 seconds if not explicitly set via [WithTimeout].
func (s Service) Timeout() time.Duration {
	return s.timeout
}

// DefaultService returns the public Pollbot instance.
func DefaultService() Service {
	return Service{
		name:    DefaultServiceName,
		url:     DefaultServiceURL,
		timeout: defaultServiceTimeout,
	}
}

// NewService creates a [Service] with the given name, API root and options.
//
// The name is the first segment of deep links ("#<name>/<product>/<version>")
// and may only contain letters, digits and underscores. The rawURL must be
// an http:// or https:// URL.
//
// Example:
//
//	svc, err := releaseboard.NewService("pollbot", "https://pollbot.example/v1",
//	    releaseboard.WithTimeout(5 * time.Second),
//	)
func NewService(name, rawURL string, opts ...ServiceOption) (Service, error) {
	if name == "" {
		return Service{}, errors.New("service name cannot be empty")
	}
	if !serviceNamePattern.MatchString(name) {
		return Service{}, fmt.Errorf("service name %q may only contain letters, digits and underscores", name)
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Service{}, fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return Service{}, errors.New("URL must have a scheme (http:// or https://)")
	}
	if parsedURL.Host == "" {
		return Service{}, errors.New("URL must have a host")
	}

	cfg := &serviceConfig{
		headers: make(map[string]string),
		timeout: defaultServiceTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Service{}, err
		}
	}

	return Service{
		name:    name,
		url:     rawURL,
		headers: cfg.headers,
		timeout: cfg.timeout,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
