package poller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jpalmerr/releaseboard/internal/state"
	"github.com/jpalmerr/releaseboard/internal/store"
)

// fakeService is an in-memory StatusService. Check results are keyed by URL.
type fakeService struct {
	mu       sync.Mutex
	releases map[string]state.ReleaseInfo
	checks   map[string]state.CheckResult
	failures map[string]error
	delays   map[string]time.Duration
	calls    map[string]int
	panicOn  string
}

func newFakeService() *fakeService {
	return &fakeService{
		releases: map[string]state.ReleaseInfo{},
		checks:   map[string]state.CheckResult{},
		failures: map[string]error{},
		delays:   map[string]time.Duration{},
		calls:    map[string]int{},
	}
}

func (f *fakeService) record(key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[key]++
	return f.delays[key], f.failures[key]
}

func (f *fakeService) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeService) setCheck(url string, result state.CheckResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checks[url] = result
}

func (f *fakeService) ServiceVersion(ctx context.Context) (state.ServiceVersion, error) {
	if _, err := f.record("__version__"); err != nil {
		return state.ServiceVersion{}, err
	}
	return state.ServiceVersion{Version: "1.4.3"}, nil
}

func (f *fakeService) OngoingVersions(ctx context.Context, product string) (map[string]string, error) {
	if _, err := f.record(product + "/ongoing-versions"); err != nil {
		return nil, err
	}
	return map[string]string{"release": "60.0", "beta": "61.0b1"}, nil
}

func (f *fakeService) ReleaseInfo(ctx context.Context, product, version string) (state.ReleaseInfo, error) {
	key := product + "/" + version
	delay, err := f.record(key)
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return state.ReleaseInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.releases[key]
	if !ok {
		return state.ReleaseInfo{Message: "Invalid version number."}, nil
	}
	return info, nil
}

func (f *fakeService) CheckStatus(ctx context.Context, url string) (state.CheckResult, error) {
	delay, err := f.record(url)
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return state.CheckResult{}, ctx.Err()
		}
	}
	if err != nil {
		return state.CheckResult{}, err
	}
	if url == f.panicOn {
		panic("probe exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checks[url], nil
}

func release60(svc *fakeService) {
	svc.releases["thunderbird/60.0"] = state.ReleaseInfo{
		Product: "thunderbird",
		Version: "60.0",
		Channel: "release",
		Checks: []state.CheckDescriptor{
			{Title: "Archive", URL: "check://archive", Actionable: true},
			{Title: "Bouncer", URL: "check://bouncer", Actionable: true},
			{Title: "Notes", URL: "check://notes", Actionable: false},
		},
	}
	svc.checks["check://archive"] = state.CheckResult{Status: state.StatusExists}
	svc.checks["check://bouncer"] = state.CheckResult{Status: state.StatusExists}
	svc.checks["check://notes"] = state.CheckResult{Status: state.StatusMissing}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s := store.New(state.Initial(), store.WithLogger(testLogger()))
	s.Start(context.Background())
	t.Cleanup(s.Stop)
	return s
}

// waitForState polls the store until cond holds or the deadline passes.
func waitForState(t *testing.T, s *store.Store, cond func(state.State) bool) state.State {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snap := s.State(); cond(snap) {
			return snap
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met, state = %+v", s.State())
	return state.State{}
}

type recordingRecorder struct {
	mu       sync.Mutex
	requests map[string]int
	ticks    atomic.Int64
	running  atomic.Bool
}

func (r *recordingRecorder) ObserveRequest(kind, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.requests == nil {
		r.requests = map[string]int{}
	}
	r.requests[kind+"/"+outcome]++
}

func (r *recordingRecorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[key]
}

func (r *recordingRecorder) ObserveTick()          { r.ticks.Add(1) }
func (r *recordingRecorder) SetRefreshing(on bool) { r.running.Store(on) }

func TestFetcher_RequestStatus(t *testing.T) {
	svc := newFakeService()
	release60(svc)
	s := newTestStore(t)
	rec := &recordingRecorder{}
	f := NewFetcher(svc, s, testLogger(), WithFetcherRecorder(rec))

	f.RequestStatus(context.Background(), "thunderbird", "60.0")
	f.Wait()

	snap := waitForState(t, s, func(st state.State) bool { return len(st.CheckResults) == 3 })
	if snap.Selected != (state.Selection{Product: "thunderbird", Version: "60.0"}) {
		t.Errorf("Selected = %+v", snap.Selected)
	}
	if snap.ReleaseInfo == nil || snap.ReleaseInfo.Channel != "release" {
		t.Errorf("ReleaseInfo = %+v", snap.ReleaseInfo)
	}
	if got := snap.Verdict(); got != state.VerdictSuccess {
		t.Errorf("Verdict() = %v, want %v", got, state.VerdictSuccess)
	}
	// the non-actionable missing check keeps the refresh loop alive
	if !snap.ShouldRefresh {
		t.Error("ShouldRefresh = false, want true with a missing check")
	}
	if got := rec.count(RequestCheck + "/" + OutcomeOK); got != 3 {
		t.Errorf("check/ok requests = %d, want 3", got)
	}
	if got := rec.count(RequestReleaseInfo + "/" + OutcomeOK); got != 1 {
		t.Errorf("release_info/ok requests = %d, want 1", got)
	}
}

// TestFetcher_OneRequestPerCheck verifies the fan-out issues exactly one
// probe per check.
func TestFetcher_OneRequestPerCheck(t *testing.T) {
	svc := newFakeService()
	release60(svc)
	s := newTestStore(t)
	f := NewFetcher(svc, s, testLogger())

	f.RequestStatus(context.Background(), "thunderbird", "60.0")
	f.Wait()

	for _, url := range []string{"check://archive", "check://bouncer", "check://notes"} {
		if got := svc.callCount(url); got != 1 {
			t.Errorf("calls(%s) = %d, want 1", url, got)
		}
	}
}

// TestFetcher_PartialFailure verifies that a failing probe produces a server
// error, leaves the check pending and does not affect the others.
func TestFetcher_PartialFailure(t *testing.T) {
	svc := newFakeService()
	release60(svc)
	svc.failures["check://bouncer"] = errors.New("connection refused")
	s := newTestStore(t)
	f := NewFetcher(svc, s, testLogger())

	f.RequestStatus(context.Background(), "thunderbird", "60.0")
	f.Wait()

	snap := waitForState(t, s, func(st state.State) bool {
		return len(st.CheckResults) == 2 && len(st.Errors) == 1
	})
	if _, ok := snap.CheckResults["Bouncer"]; ok {
		t.Error("failed probe must not populate CheckResults")
	}
	if snap.Errors[0].Title != "Bouncer" || snap.Errors[0].Message != "connection refused" {
		t.Errorf("Errors[0] = %+v", snap.Errors[0])
	}
	if !snap.ShouldRefresh {
		t.Error("ShouldRefresh = false, want true after a probe failure")
	}
	if got := snap.Verdict(); got != state.VerdictPending {
		t.Errorf("Verdict() = %v, want %v", got, state.VerdictPending)
	}
}

func TestFetcher_PanicRecovery(t *testing.T) {
	svc := newFakeService()
	release60(svc)
	svc.panicOn = "check://archive"
	s := newTestStore(t)
	rec := &recordingRecorder{}
	f := NewFetcher(svc, s, testLogger(), WithFetcherRecorder(rec))

	f.RequestStatus(context.Background(), "thunderbird", "60.0")
	f.Wait()

	snap := waitForState(t, s, func(st state.State) bool {
		return len(st.CheckResults) == 2 && len(st.Errors) == 1
	})
	if !strings.Contains(snap.Errors[0].Message, "correlation_id") {
		t.Errorf("Errors[0].Message = %q, want correlation id", snap.Errors[0].Message)
	}
	if strings.Contains(snap.Errors[0].Message, "probe exploded") {
		t.Error("panic value must not leak into the user-facing message")
	}
	if got := rec.count(RequestCheck + "/" + OutcomePanic); got != 1 {
		t.Errorf("check/panic requests = %d, want 1", got)
	}
}

func TestFetcher_ReleaseInfoErrorVariant(t *testing.T) {
	svc := newFakeService()
	s := newTestStore(t)
	f := NewFetcher(svc, s, testLogger())

	f.RequestStatus(context.Background(), "thunderbird", "bogus")
	f.Wait()

	snap := waitForState(t, s, func(st state.State) bool { return st.ReleaseInfo != nil })
	if !snap.ReleaseInfo.IsError() || snap.ReleaseInfo.Message != "Invalid version number." {
		t.Errorf("ReleaseInfo = %+v, want error variant", snap.ReleaseInfo)
	}
	if len(snap.CheckResults) != 0 {
		t.Errorf("CheckResults = %v, want none", snap.CheckResults)
	}
}

func TestFetcher_ReleaseInfoTransportError(t *testing.T) {
	svc := newFakeService()
	svc.failures["thunderbird/60.0"] = errors.New("request failed: dial tcp: connection refused")
	s := newTestStore(t)
	f := NewFetcher(svc, s, testLogger())

	f.RequestStatus(context.Background(), "thunderbird", "60.0")
	f.Wait()

	snap := waitForState(t, s, func(st state.State) bool { return st.ReleaseInfo != nil })
	if !snap.ReleaseInfo.IsError() || !strings.Contains(snap.ReleaseInfo.Message, "connection refused") {
		t.Errorf("ReleaseInfo = %+v, want error variant carrying the transport message", snap.ReleaseInfo)
	}
}

// TestFetcher_SwitchVersionDiscardsStaleResults verifies that results of a
// previous selection arriving late never land in the new selection.
func TestFetcher_SwitchVersionDiscardsStaleResults(t *testing.T) {
	svc := newFakeService()
	release60(svc)
	svc.delays["check://archive"] = 100 * time.Millisecond
	svc.releases["thunderbird/61.0"] = state.ReleaseInfo{
		Product: "thunderbird",
		Version: "61.0",
		Channel: "beta",
		Checks:  []state.CheckDescriptor{{Title: "Archive", URL: "check://archive-61", Actionable: true}},
	}
	svc.checks["check://archive-61"] = state.CheckResult{Status: state.StatusMissing}
	s := newTestStore(t)
	f := NewFetcher(svc, s, testLogger())

	f.RequestStatus(context.Background(), "thunderbird", "60.0")
	waitForState(t, s, func(st state.State) bool { return len(st.CheckResults) == 2 })

	f.RequestStatus(context.Background(), "thunderbird", "61.0")
	f.Wait()

	snap := waitForState(t, s, func(st state.State) bool {
		return st.ReleaseInfo != nil && st.ReleaseInfo.Version == "61.0" && len(st.CheckResults) == 1
	})
	if got := snap.CheckResults["Archive"].Status; got != state.StatusMissing {
		t.Errorf("Archive status = %v, want %v from the new selection", got, state.StatusMissing)
	}
	if _, ok := snap.CheckResults["Bouncer"]; ok {
		t.Error("results of the previous selection leaked into the new one")
	}
}

func TestFetcher_RefreshStatus(t *testing.T) {
	svc := newFakeService()
	release60(svc)
	s := newTestStore(t)
	f := NewFetcher(svc, s, testLogger())

	f.RequestStatus(context.Background(), "thunderbird", "60.0")
	f.Wait()
	waitForState(t, s, func(st state.State) bool { return len(st.CheckResults) == 3 })

	svc.setCheck("check://notes", state.CheckResult{Status: state.StatusExists})
	f.RefreshStatus(context.Background())
	f.Wait()

	snap := waitForState(t, s, func(st state.State) bool {
		return len(st.CheckResults) == 3 && st.CheckResults["Notes"].Status == state.StatusExists
	})
	if snap.ShouldRefresh {
		t.Error("ShouldRefresh = true, want false once every check passes")
	}
	for _, url := range []string{"check://archive", "check://bouncer", "check://notes"} {
		if got := svc.callCount(url); got != 2 {
			t.Errorf("calls(%s) = %d, want 2", url, got)
		}
	}
}

func TestFetcher_RefreshStatusWithoutRelease(t *testing.T) {
	svc := newFakeService()
	s := newTestStore(t)
	f := NewFetcher(svc, s, testLogger())

	// nothing selected: no requests, no panic
	f.RefreshStatus(context.Background())
	f.Wait()

	if got := len(svc.calls); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
}

func TestFetcher_RequestOngoingVersions(t *testing.T) {
	svc := newFakeService()
	s := newTestStore(t)
	f := NewFetcher(svc, s, testLogger())

	f.RequestOngoingVersions(context.Background())
	f.Wait()

	snap := waitForState(t, s, func(st state.State) bool { return len(st.ProductVersions) == len(state.Products) })
	if got := snap.ProductVersions["thunderbird"]["beta"]; got != "61.0b1" {
		t.Errorf("thunderbird beta = %q, want %q", got, "61.0b1")
	}
}

func TestFetcher_WithProducts(t *testing.T) {
	svc := newFakeService()
	s := newTestStore(t)
	f := NewFetcher(svc, s, testLogger(), WithProducts("seamonkey"))

	f.RequestOngoingVersions(context.Background())
	f.Wait()

	if got := svc.callCount("seamonkey/ongoing-versions"); got != 1 {
		t.Errorf("seamonkey requests = %d, want 1", got)
	}
	if got := svc.callCount("thunderbird/ongoing-versions"); got != 0 {
		t.Errorf("thunderbird requests = %d, want 0", got)
	}
}

func TestFetcher_RequestOngoingVersionsFailure(t *testing.T) {
	svc := newFakeService()
	svc.failures["thunderbird/ongoing-versions"] = errors.New("unexpected status 500")
	s := newTestStore(t)
	f := NewFetcher(svc, s, testLogger())

	f.RequestOngoingVersions(context.Background())
	f.Wait()

	snap := waitForState(t, s, func(st state.State) bool { return len(st.Errors) == 1 })
	if got := snap.Errors[0].Title; got != "ongoing versions (thunderbird)" {
		t.Errorf("Errors[0].Title = %q", got)
	}
}

func TestFetcher_RequestServiceVersion(t *testing.T) {
	svc := newFakeService()
	s := newTestStore(t)
	f := NewFetcher(svc, s, testLogger())

	f.RequestServiceVersion(context.Background())
	f.Wait()

	snap := waitForState(t, s, func(st state.State) bool { return st.ServiceVersion != nil })
	if snap.ServiceVersion.Version != "1.4.3" {
		t.Errorf("ServiceVersion = %+v", snap.ServiceVersion)
	}

	svc.failures["__version__"] = errors.New("timeout")
	f.RequestServiceVersion(context.Background())
	f.Wait()

	snap = waitForState(t, s, func(st state.State) bool { return len(st.Errors) == 1 })
	if snap.Errors[0].Title != "service version" {
		t.Errorf("Errors[0].Title = %q, want %q", snap.Errors[0].Title, "service version")
	}
}

// TestFetcher_WaitHonoursCancellation verifies that cancelling the context
// unblocks slow probes so Wait returns promptly.
func TestFetcher_WaitHonoursCancellation(t *testing.T) {
	svc := newFakeService()
	release60(svc)
	svc.delays["check://archive"] = time.Minute
	s := newTestStore(t)
	f := NewFetcher(svc, s, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	f.RequestStatus(ctx, "thunderbird", "60.0")
	waitForState(t, s, func(st state.State) bool { return len(st.CheckResults) == 2 })
	cancel()

	done := make(chan struct{})
	go func() {
		f.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not return after cancellation")
	}
}

// recordingDispatcher forwards to a store and keeps every action it saw.
type recordingDispatcher struct {
	*store.Store

	mu      sync.Mutex
	actions []state.Action
}

func (d *recordingDispatcher) Dispatch(a state.Action) bool {
	d.mu.Lock()
	d.actions = append(d.actions, a)
	d.mu.Unlock()
	return d.Store.Dispatch(a)
}

func (d *recordingDispatcher) take() []state.Action {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := d.actions
	d.actions = nil
	return out
}

// TestFetcher_RefreshStatusMarksEachCheckOnce verifies that one refresh
// marks every known check pending exactly once, scoped to the selection.
func TestFetcher_RefreshStatusMarksEachCheckOnce(t *testing.T) {
	svc := newFakeService()
	release60(svc)
	d := &recordingDispatcher{Store: newTestStore(t)}
	f := NewFetcher(svc, d, testLogger())

	f.RequestStatus(context.Background(), "thunderbird", "60.0")
	f.Wait()
	waitForState(t, d.Store, func(st state.State) bool { return len(st.CheckResults) == 3 })
	d.take()

	f.RefreshStatus(context.Background())
	f.Wait()

	want := state.Selection{Product: "thunderbird", Version: "60.0"}
	got := map[string]int{}
	for _, a := range d.take() {
		refresh, ok := a.(state.RefreshCheckResult)
		if !ok {
			continue
		}
		got[refresh.Title]++
		if refresh.For != want {
			t.Errorf("RefreshCheckResult(%s).For = %+v, want %+v", refresh.Title, refresh.For, want)
		}
	}
	for _, title := range []string{"Archive", "Bouncer", "Notes"} {
		if got[title] != 1 {
			t.Errorf("RefreshCheckResult(%s) dispatched %d times, want 1", title, got[title])
		}
	}
	if len(got) != 3 {
		t.Errorf("refreshed titles = %v, want exactly Archive, Bouncer, Notes", got)
	}
}
