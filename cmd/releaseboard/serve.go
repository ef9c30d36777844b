package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/releaseboard"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the release dashboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the release dashboard server.

The server will:
  - Load configuration from the specified YAML file
  - Ask the status service for its version and the channel versions
  - Open the configured start fragment, if any
  - Serve the dashboard UI on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  releaseboard serve -c config.yaml
  releaseboard serve --config /etc/releaseboard/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	s, err := loadSetup(configFile, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	logger := s.logger

	logger.Info("config loaded",
		"service", s.cfg.Service.Name,
		"service_url", s.cfg.Service.URL,
		"products", s.cfg.Products,
	)
	logger.Info("starting server",
		"port", s.cfg.Port,
		"refresh_interval", s.cfg.RefreshInterval.Duration().String(),
	)

	d, err := releaseboard.New(s.opts...)
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start server - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- d.Start(ctx)
	}()

	// wait for server to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
