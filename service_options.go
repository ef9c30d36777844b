package releaseboard

import (
	"errors"
	"time"
)

// serviceConfig holds mutable state during Service construction.
type serviceConfig struct {
	headers map[string]string
	timeout time.Duration
}

// ServiceOption configures a [Service] during construction.
type ServiceOption func(*serviceConfig) error

// WithHeaders adds custom HTTP headers sent with every status service request.
//
// Arguments are key-value pairs. Later values override earlier ones for the
// same key.
//
// Example:
//
//	svc, err := releaseboard.NewService("pollbot", url,
//	    releaseboard.WithHeaders("Authorization", "Bearer "+token),
//	)
//
// Returns an error if an odd number of arguments is given.
func WithHeaders(keyValues ...string) ServiceOption {
	return func(cfg *serviceConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout sets the per-request timeout. Defaults to 10 seconds.
//
// Returns an error if the duration is zero or negative.
func WithTimeout(d time.Duration) ServiceOption {
	return func(cfg *serviceConfig) error {
		if d <= 0 {
			return errors.New("timeout must be positive")
		}
		cfg.timeout = d
		return nil
	}
}
