package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/releaseboard"
	"github.com/jpalmerr/releaseboard/internal/tui"
)

// watchCmd runs the dashboard in the terminal.
var watchCmd = &cobra.Command{
	Use:   "watch [fragment]",
	Short: "Watch a release in the terminal",
	Long: `Run the dashboard with a terminal UI instead of the web server.

The optional fragment selects the release to open, e.g.
"#pollbot/thunderbird/60.0"; it overrides the start fragment of the config.
Press n, b or r to open the current nightly, beta or release version and
q to quit.

Example:
  releaseboard watch -c config.yaml "#pollbot/thunderbird/60.0"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = watchCmd.MarkFlagRequired("config")
}

func runWatch(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	// the terminal UI owns the screen; logs go to the configured file or nowhere
	s, err := loadSetup(configFile, io.Discard)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	opts := append(s.opts, releaseboard.WithHeadless())
	if len(args) == 1 {
		opts = append(opts, releaseboard.WithStartFragment(args[0]))
	}
	d, err := releaseboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := d.Subscribe()
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(runCtx) }()

	model := tui.New(d.Title(), d.Service().Name(), sub, d.Navigate)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(runCtx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	_, runErr := program.Run()

	cancel()
	startErr := <-errCh

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal UI failed: %w", runErr)
	}
	return startErr
}
