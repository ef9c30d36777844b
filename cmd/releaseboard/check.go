package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/releaseboard"
	"github.com/jpalmerr/releaseboard/internal/router"
	"github.com/jpalmerr/releaseboard/internal/state"
	"github.com/jpalmerr/releaseboard/internal/tui"
)

const defaultCheckTimeout = 2 * time.Minute

// checkCmd prints a one-shot report for a release.
var checkCmd = &cobra.Command{
	Use:   "check <fragment>",
	Short: "Print the check report of one release",
	Long: `Fetch every check of a release once and print a report.

The fragment selects the release, e.g. "#pollbot/thunderbird/60.0". The
command waits until every check has a result, prints the report and exits.

Exit codes:
  0 - All actionable checks passed
  1 - Some checks failed, the status service reported an error, or the
      timeout expired before every check had a result

Example:
  releaseboard check -c config.yaml "#pollbot/thunderbird/60.0"
  releaseboard check -c config.yaml --timeout 30s "#pollbot/thunderbird/60.0"`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	checkCmd.Flags().Duration("timeout", defaultCheckTimeout, "how long to wait for every check result")
	_ = checkCmd.MarkFlagRequired("config")
}

func runCheck(cmd *cobra.Command, args []string) error {
	fragment := args[0]
	route, ok := router.Parse(fragment)
	if !ok {
		return fmt.Errorf("invalid fragment %q: want #<service>/<product>/<version>", fragment)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", timeout)
	}

	configFile, _ := cmd.Flags().GetString("config")
	// the report owns stdout; logs go to the configured file or nowhere
	s, err := loadSetup(configFile, io.Discard)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	opts := append(s.opts,
		releaseboard.WithHeadless(),
		releaseboard.WithStartFragment(fragment),
	)
	d, err := releaseboard.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create dashboard: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	view, waitErr := awaitVerdict(ctx, d, state.Selection{Product: route.Product, Version: route.Version}, timeout)
	fmt.Fprint(cmd.OutOrStdout(), tui.RenderReport(view))

	switch {
	case waitErr != nil:
		return waitErr
	case view.Phase == state.PhaseError:
		return fmt.Errorf("status service error: %s", view.ReleaseError)
	case view.Verdict == state.VerdictFailure:
		return errors.New("some checks failed")
	}
	return nil
}

// awaitVerdict runs d until the release selected by sel has a verdict
// other than pending, the status service rejected it, or timeout expires.
// It returns the last view seen and stops d before returning.
func awaitVerdict(ctx context.Context, d *releaseboard.Dashboard, sel state.Selection, timeout time.Duration) (state.View, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sub := d.Subscribe()
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(runCtx) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	last := d.View()
	var waitErr error
wait:
	for {
		select {
		case snap, ok := <-sub:
			if !ok {
				break wait
			}
			last = state.NewView(snap)
			if decided(snap, sel) {
				break wait
			}
		case <-timer.C:
			waitErr = fmt.Errorf("timed out after %s waiting for check results", timeout)
			break wait
		case <-ctx.Done():
			waitErr = errors.New("interrupted")
			break wait
		}
	}

	cancel()
	if err := <-errCh; err != nil && waitErr == nil {
		waitErr = err
	}
	return last, waitErr
}

// decided reports whether snap shows a final answer for sel.
func decided(snap state.State, sel state.Selection) bool {
	if snap.Selected != sel || snap.ReleaseInfo == nil {
		return false
	}
	return snap.ReleaseInfo.IsError() || snap.Verdict() != state.VerdictPending
}
