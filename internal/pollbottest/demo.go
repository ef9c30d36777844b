package pollbottest

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jpalmerr/releaseboard/internal/state"
)

// DemoChecks are the checks of every demo release, modelled on the
// checks Pollbot runs for Thunderbird.
var DemoChecks = []Check{
	{Title: "Archive Release", Actionable: true},
	{Title: "Product details", Actionable: true},
	{Title: "Download links", Actionable: true},
	{Title: "Balrog update rules", Actionable: true},
	{Title: "Release notes", Actionable: false},
	{Title: "Security advisories", Actionable: false},
}

// DemoVersions are the thunderbird channel versions of the demo data set.
var DemoVersions = map[string]string{
	"nightly": "62.0a1",
	"beta":    "61.0b3",
	"release": "60.0",
}

// SeedDemo loads the demo data set: the channel versions in
// [DemoVersions] and one release per channel with [DemoChecks]. The
// release channel is fully published; the others start out missing.
func (h *Handler) SeedDemo() {
	h.SetOngoing("thunderbird", DemoVersions)
	for channel, version := range DemoVersions {
		h.AddRelease("thunderbird", version, channel, DemoChecks...)
	}
	for _, c := range DemoChecks {
		h.SetResult("thunderbird", DemoVersions["release"], c.Title, published(c.Title))
	}
}

// PublishGradually marks the checks of a release as published one at a
// time in random order, waiting between minWait and maxWait before each.
// It returns once every check is published or ctx is cancelled.
func (h *Handler) PublishGradually(ctx context.Context, product, version string, minWait, maxWait time.Duration, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	h.mu.Lock()
	rel, ok := h.releases[product+"/"+version]
	h.mu.Unlock()
	if !ok {
		logger.Warn("unknown release, nothing to publish", "product", product, "version", version)
		return
	}

	order := rand.Perm(len(rel.checks))
	for _, i := range order {
		wait := minWait
		if maxWait > minWait {
			wait += rand.N(maxWait - minWait)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		title := rel.checks[i].Title
		h.SetResult(product, version, title, published(title))
		logger.Info("check published", "product", product, "version", version, "check", title)
	}
}

func published(title string) state.CheckResult {
	return state.CheckResult{
		Status:  state.StatusExists,
		Message: title + " is published.",
		Link:    "https://www.thunderbird.net/",
	}
}
