package config

import (
	"sort"

	"github.com/jpalmerr/releaseboard"
	"github.com/jpalmerr/releaseboard/internal/logging"
)

// BuildService converts the service section into an SDK Service.
func BuildService(sc ServiceConfig) (releaseboard.Service, error) {
	opts := []releaseboard.ServiceOption{
		releaseboard.WithTimeout(sc.Timeout.Duration()),
	}
	if len(sc.Headers) > 0 {
		opts = append(opts, releaseboard.WithHeaders(mapToKeyValuePairs(sc.Headers)...))
	}
	return releaseboard.NewService(sc.Name, sc.URL, opts...)
}

// BuildOptions converts parsed configuration into SDK options.
//
// The logger is not part of the result; callers build it with
// [Config.LoggingOptions] and append [releaseboard.WithLogger].
func BuildOptions(cfg *Config) ([]releaseboard.Option, error) {
	svc, err := BuildService(cfg.Service)
	if err != nil {
		return nil, err
	}

	opts := []releaseboard.Option{
		releaseboard.WithService(svc),
		releaseboard.WithPort(cfg.Port),
		releaseboard.WithRefreshInterval(cfg.RefreshInterval.Duration()),
		releaseboard.WithProducts(cfg.Products...),
		releaseboard.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}
	if cfg.Title != "" {
		opts = append(opts, releaseboard.WithTitle(cfg.Title))
	}
	if cfg.Start != "" {
		opts = append(opts, releaseboard.WithStartFragment(cfg.Start))
	}
	if len(cfg.RateLimit.TrustedProxies) > 0 {
		opts = append(opts, releaseboard.WithTrustedProxies(cfg.RateLimit.TrustedProxies...))
	}
	if len(cfg.AllowedOrigins) > 0 {
		opts = append(opts, releaseboard.WithAllowedOrigins(cfg.AllowedOrigins...))
	}
	return opts, nil
}

// LoggingOptions converts the log section for [logging.New].
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
