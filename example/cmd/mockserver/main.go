// Standalone mock Pollbot for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/releaseboard serve -c example/config.yaml
//	go run ./cmd/releaseboard watch -c example/config.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/releaseboard/internal/pollbottest"
)

func main() {
	fmt.Println("Mock Pollbot starting on :9999")
	fmt.Println("Release 60.0 is published; beta and nightly checks publish over time")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	h := pollbottest.NewHandler()
	h.SeedDemo()
	for _, channel := range []string{"beta", "nightly"} {
		go h.PublishGradually(ctx, "thunderbird", pollbottest.DemoVersions[channel], 20*time.Second, 60*time.Second, slog.Default())
	}

	srv := &http.Server{Addr: ":9999", Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
