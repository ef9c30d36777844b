// Package main is the entry point for the releaseboard CLI.
//
// The release dashboard can be run either as a library (SDK) or as a
// standalone binary with YAML configuration. This CLI provides the
// standalone binary approach.
//
// Usage:
//
//	releaseboard serve -c config.yaml                            # Start the dashboard
//	releaseboard watch -c config.yaml "#pollbot/thunderbird/60.0" # Terminal UI
//	releaseboard check -c config.yaml "#pollbot/thunderbird/60.0" # One-shot report
//	releaseboard validate -c config.yaml                         # Validate configuration
//	releaseboard version                                         # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "releaseboard",
	Short: "A release status dashboard for Pollbot",
	Long: `releaseboard shows whether a product release is fully published.

It asks a Pollbot status service which checks apply to a release, fetches
every check result, aggregates them into a verdict and keeps re-checking
until all checks pass. Results are shown in a web UI with live updates, in
a terminal UI, or as a one-shot report.

Quick start:
  1. Create a config file (releaseboard.yaml)
  2. Run: releaseboard serve -c releaseboard.yaml
  3. Open http://localhost:8080/#pollbot/thunderbird/60.0 in your browser

Example config:
  port: 8080
  refresh_interval: 60s
  service:
    url: https://pollbot.services.mozilla.com/v1`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this releaseboard binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "releaseboard %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
