package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/vmunix/plexlocalize/internal/localize"
	"github.com/vmunix/plexlocalize/internal/migrations"
)

type fakeEngine struct {
	mu       sync.Mutex
	runs     chan localize.RunOptions
	recorder localize.Recorder
	events   localize.Publisher
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{runs: make(chan localize.RunOptions, 8)}
}

func (f *fakeEngine) Run(_ context.Context, opts localize.RunOptions) (*localize.RunResult, error) {
	f.runs <- opts
	return &localize.RunResult{Trigger: opts.Trigger}, nil
}

func (f *fakeEngine) Status() localize.Status {
	return localize.Status{Enabled: true}
}

func (f *fakeEngine) SetHistory(r localize.Recorder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recorder = r
}

func (f *fakeEngine) SetEvents(p localize.Publisher) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = p
}

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrations.Apply(context.Background(), db))
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startRunner runs r in the background and returns its base URL.
func startRunner(t *testing.T, r *Runner) (string, func() error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return r.Addr() != nil }, 2*time.Second, 10*time.Millisecond)

	stop := sync.OnceValue(func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			return errors.New("timeout waiting for runner to stop")
		}
	})
	t.Cleanup(func() { _ = stop() })
	return fmt.Sprintf("http://%s", r.Addr()), stop
}

func waitRun(t *testing.T, e *fakeEngine) localize.RunOptions {
	t.Helper()
	select {
	case opts := <-e.runs:
		return opts
	case <-time.After(2 * time.Second):
		t.Fatal("no run started")
		return localize.RunOptions{}
	}
}

func TestRunner_StartsAndStops(t *testing.T) {
	engine := newFakeEngine()
	r := NewRunner(setupTestDB(t), engine, Config{Addr: "127.0.0.1:0"}, testLogger())

	base, stop := startRunner(t, r)

	resp, err := http.Get(base + "/api/v1/status")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	engine.mu.Lock()
	assert.NotNil(t, engine.recorder, "history wired")
	assert.NotNil(t, engine.events, "events wired")
	engine.mu.Unlock()

	require.NoError(t, stop())
}

func TestRunner_PostImportRun(t *testing.T) {
	engine := newFakeEngine()
	r := NewRunner(setupTestDB(t), engine, Config{
		Addr:       "127.0.0.1:0",
		Enabled:    true,
		PostImport: true,
		Delay:      200 * time.Millisecond,
	}, testLogger())
	base, _ := startRunner(t, r)

	before := time.Now()
	for range 3 {
		resp, err := http.Post(base+"/api/v1/import", "application/json", strings.NewReader(`{"title":"Show"}`))
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
	}

	opts := waitRun(t, engine)
	assert.Equal(t, localize.TriggerImport, opts.Trigger)
	require.NotNil(t, opts.Since)
	assert.WithinDuration(t, before.Add(-5*time.Minute), *opts.Since, 2*time.Second)

	select {
	case extra := <-engine.runs:
		t.Fatalf("imports not coalesced: extra run %+v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

// slowEngine keeps working for a while after its context is canceled.
type slowEngine struct {
	*fakeEngine
	active   atomic.Int32
	finished atomic.Int32
}

func (e *slowEngine) Run(ctx context.Context, opts localize.RunOptions) (*localize.RunResult, error) {
	e.active.Add(1)
	defer e.active.Add(-1)
	<-ctx.Done()
	time.Sleep(300 * time.Millisecond)
	e.finished.Add(1)
	return &localize.RunResult{Trigger: opts.Trigger}, ctx.Err()
}

func TestRunner_ShutdownWaitsForPostImportRun(t *testing.T) {
	engine := &slowEngine{fakeEngine: newFakeEngine()}
	r := NewRunner(setupTestDB(t), engine, Config{
		Addr:       "127.0.0.1:0",
		Enabled:    true,
		PostImport: true,
		Delay:      50 * time.Millisecond,
	}, testLogger())
	base, stop := startRunner(t, r)

	resp, err := http.Post(base+"/api/v1/import", "application/json", strings.NewReader(`{"title":"Show"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool { return engine.active.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, stop())
	assert.Zero(t, engine.active.Load(), "run still active after Run returned")
	assert.Equal(t, int32(1), engine.finished.Load())
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunner_LogsBusEvents(t *testing.T) {
	var logs lockedBuffer
	r := NewRunner(setupTestDB(t), newFakeEngine(), Config{Addr: "127.0.0.1:0"}, slog.New(slog.NewTextHandler(&logs, nil)))
	base, _ := startRunner(t, r)

	resp, err := http.Post(base+"/api/v1/import", "application/json", strings.NewReader(`{"title":"Show (2024)","season_episode":"S01E02"}`))
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Eventually(t, func() bool {
		return strings.Contains(logs.String(), `msg="imported Show (2024) S01E02"`)
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, logs.String(), "type=import.completed")
}

func TestRunner_DisabledIgnoresImports(t *testing.T) {
	engine := newFakeEngine()
	r := NewRunner(setupTestDB(t), engine, Config{
		Addr:       "127.0.0.1:0",
		PostImport: true,
		RunOnStart: true,
		Delay:      10 * time.Millisecond,
	}, testLogger())
	base, _ := startRunner(t, r)

	resp, err := http.Post(base+"/api/v1/import", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case opts := <-engine.runs:
		t.Fatalf("disabled runner started a run: %+v", opts)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestRunner_ManualRunWhileDisabled(t *testing.T) {
	engine := newFakeEngine()
	r := NewRunner(setupTestDB(t), engine, Config{Addr: "127.0.0.1:0"}, testLogger())
	base, _ := startRunner(t, r)

	resp, err := http.Post(base+"/api/v1/run", "application/json", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, localize.TriggerManual, waitRun(t, engine).Trigger)
}

func TestRunner_RunOnStart(t *testing.T) {
	engine := newFakeEngine()
	r := NewRunner(setupTestDB(t), engine, Config{
		Addr:       "127.0.0.1:0",
		Enabled:    true,
		RunOnStart: true,
	}, testLogger())
	startRunner(t, r)

	opts := waitRun(t, engine)
	assert.Equal(t, localize.TriggerStartup, opts.Trigger)
	assert.Nil(t, opts.Since)
}

func TestRunner_InvalidCron(t *testing.T) {
	r := NewRunner(setupTestDB(t), newFakeEngine(), Config{
		Addr:    "127.0.0.1:0",
		Enabled: true,
		Cron:    "not a cron",
	}, testLogger())
	err := r.Run(t.Context())
	assert.ErrorContains(t, err, "invalid cron")
}

func TestNewRunner_Defaults(t *testing.T) {
	r := NewRunner(setupTestDB(t), newFakeEngine(), Config{}, nil)
	require.NotNil(t, r.logger)
	assert.Equal(t, DefaultPruneInterval, r.config.PruneInterval)
	assert.Equal(t, DefaultShutdownTimeout, r.config.ShutdownTimeout)
	assert.Nil(t, r.Addr())
}

type fakePruner struct {
	olderThan time.Duration
	err       error
}

func (p *fakePruner) Prune(_ context.Context, olderThan time.Duration) (int64, error) {
	p.olderThan = olderThan
	return 3, p.err
}

func TestRunner_Prune(t *testing.T) {
	r := NewRunner(setupTestDB(t), newFakeEngine(), Config{Retention: 48 * time.Hour}, testLogger())
	ok := &fakePruner{}
	failing := &fakePruner{err: errors.New("locked")}

	r.prune(t.Context(), failing, ok)
	assert.Equal(t, 48*time.Hour, ok.olderThan)
	assert.Equal(t, 48*time.Hour, failing.olderThan)
}

func TestLogRequests_CapturesStatus(t *testing.T) {
	var buf strings.Builder
	log := slog.New(slog.NewTextHandler(&buf, nil))
	h := logRequests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusOK)
	}), log)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	assert.Contains(t, buf.String(), "status=418")
	assert.Contains(t, buf.String(), "path=/api/v1/status")
}
