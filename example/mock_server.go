package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jpalmerr/releaseboard/internal/pollbottest"
)

// StartMockPollbot serves a fake Pollbot on addr with the demo data set.
// The release version is fully published; the beta and nightly checks are
// published one at a time, every 10-40 seconds, until ctx is cancelled.
func StartMockPollbot(ctx context.Context, addr string) {
	h := pollbottest.NewHandler()
	h.SeedDemo()

	for _, channel := range []string{"beta", "nightly"} {
		go h.PublishGradually(ctx, "thunderbird", pollbottest.DemoVersions[channel], 10*time.Second, 40*time.Second, slog.Default())
	}

	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("mock pollbot error", "error", err)
	}
}
