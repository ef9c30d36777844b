package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/jpalmerr/releaseboard"
	"github.com/jpalmerr/releaseboard/config"
	"github.com/jpalmerr/releaseboard/internal/logging"
)

// setup is what every dashboard command derives from the config file.
type setup struct {
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
	opts   []releaseboard.Option
}

// loadSetup loads the config file and builds the logger and dashboard
// options from it. Log records go to fallback unless the config names a
// log file. Callers must close the returned setup.
func loadSetup(configFile string, fallback io.Writer) (*setup, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.LoggingOptions(), fallback)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("failed to build options: %w", err)
	}
	opts = append(opts, releaseboard.WithLogger(logger))

	return &setup{cfg: cfg, logger: logger, closer: closer, opts: opts}, nil
}

// Close releases the log file, if any.
func (s *setup) Close() error {
	return s.closer.Close()
}
