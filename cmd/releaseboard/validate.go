package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/releaseboard/config"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a release dashboard configuration file without starting the server.

This command loads .env files, parses the YAML, expands environment
variables, and validates all fields. It's useful for CI/CD pipelines or
pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  releaseboard validate -c config.yaml
  releaseboard validate --config /etc/releaseboard/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// build the SDK service too, so option-level checks run
	if _, err := config.BuildOptions(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	start := cfg.Start
	if start == "" {
		start = "(none)"
	}
	rateLimit := "disabled"
	if cfg.RateLimit.RPS > 0 {
		rateLimit = fmt.Sprintf("%g rps, burst %d", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Port:             %d\n", cfg.Port)
	fmt.Fprintf(out, "  Service:          %s (%s)\n", cfg.Service.Name, cfg.Service.URL)
	fmt.Fprintf(out, "  Refresh interval: %s\n", cfg.RefreshInterval.Duration())
	fmt.Fprintf(out, "  Products:         %s\n", strings.Join(cfg.Products, ", "))
	fmt.Fprintf(out, "  Start:            %s\n", start)
	fmt.Fprintf(out, "  Rate limit:       %s\n", rateLimit)

	return nil
}
