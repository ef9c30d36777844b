package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/releaseboard"
)

func main() {
	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// start mock status service (see mock_server.go)
	go StartMockPollbot(ctx, ":9999")
	time.Sleep(100 * time.Millisecond)

	svc, err := releaseboard.NewService("pollbot", "http://localhost:9999/v1",
		releaseboard.WithTimeout(5*time.Second),
	)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	// log every verdict change; a desktop notifier would hook in here
	var last releaseboard.Verdict
	d, err := releaseboard.New(
		releaseboard.WithService(svc),
		releaseboard.WithTitle("Thunderbird Release Dashboard"),
		releaseboard.WithRefreshInterval(5*time.Second),
		releaseboard.WithPort(8080),
		releaseboard.WithStartFragment("#pollbot/thunderbird/61.0b3"),
		releaseboard.WithStateCallback(func(s releaseboard.State) {
			if v := s.Verdict(); v != last {
				slog.Info("verdict changed", "version", s.Selected.Version, "from", last, "to", v)
				last = v
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create dashboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════════════════╗")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Release Dashboard Demo                              ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Open http://localhost:8080 in your browser          ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Thunderbird channels (mock Pollbot on :9999):       ║")
	fmt.Println("  ║   • release 60.0 fully published                      ║")
	fmt.Println("  ║   • beta and nightly publish checks over time         ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ║   Press Ctrl+C to stop                                ║")
	fmt.Println("  ║                                                       ║")
	fmt.Println("  ╚═══════════════════════════════════════════════════════╝")
	fmt.Println()

	if err := d.Start(ctx); err != nil {
		slog.Error("releaseboard error", "error", err)
		os.Exit(1)
	}
}
