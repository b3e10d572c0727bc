package v1

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/plexlocalize/internal/api/v1/mocks"
	"github.com/vmunix/plexlocalize/internal/events"
	"github.com/vmunix/plexlocalize/internal/history"
	"github.com/vmunix/plexlocalize/internal/localize"
)

type testServer struct {
	runner  *mocks.MockRunner
	bus     *mocks.MockPublisher
	history *mocks.MockRunLister
	pending *mocks.MockPendingReporter
	srv     *Server
	mux     *http.ServeMux
}

func newTestServer(t *testing.T, cfg Config) *testServer {
	t.Helper()
	ctrl := gomock.NewController(t)
	ts := &testServer{
		runner:  mocks.NewMockRunner(ctrl),
		bus:     mocks.NewMockPublisher(ctrl),
		history: mocks.NewMockRunLister(ctrl),
		pending: mocks.NewMockPendingReporter(ctrl),
		mux:     http.NewServeMux(),
	}
	srv, err := New(t.Context(), ServerDeps{
		Runner:  ts.runner,
		Bus:     ts.bus,
		History: ts.history,
		Pending: ts.pending,
	}, cfg, nil)
	require.NoError(t, err)
	srv.RegisterRoutes(ts.mux)
	ts.srv = srv
	return ts
}

func (ts *testServer) do(method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.mux.ServeHTTP(w, req)
	return w
}

func TestNew_MissingDeps(t *testing.T) {
	_, err := New(t.Context(), ServerDeps{}, Config{}, nil)
	assert.ErrorIs(t, err, ErrMissingDependency)

	ctrl := gomock.NewController(t)
	_, err = New(t.Context(), ServerDeps{Runner: mocks.NewMockRunner(ctrl)}, Config{}, nil)
	assert.ErrorIs(t, err, ErrMissingDependency)
}

func TestImport_PublishesEvent(t *testing.T) {
	ts := newTestServer(t, Config{})

	var got *events.ImportCompleted
	ts.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e events.Event) error {
		got = e.(*events.ImportCompleted)
		return nil
	})

	w := ts.do(http.MethodPost, "/api/v1/import", `{"title":"Show (2024)","season_episode":"S01E02"}`, nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "Show (2024)", got.Title)
	assert.Equal(t, "S01E02", got.SeasonEpisode)
	assert.Equal(t, events.EventImportCompleted, got.EventType())
}

func TestImport_EmptyBody(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	w := ts.do(http.MethodPost, "/api/v1/import", "", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestImport_BadRequests(t *testing.T) {
	ts := newTestServer(t, Config{})

	w := ts.do(http.MethodPost, "/api/v1/import", `{"title":`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_JSON")

	w = ts.do(http.MethodPost, "/api/v1/import", `{"season_episode":"`+strings.Repeat("x", 40)+`"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VALIDATION_FAILED")
}

func TestImport_PublishError(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("db closed"))

	w := ts.do(http.MethodPost, "/api/v1/import", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAPIKey(t *testing.T) {
	ts := newTestServer(t, Config{APIKey: "secret"})
	ts.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	w := ts.do(http.MethodPost, "/api/v1/import", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/import", "", map[string]string{"X-Api-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/import", "", map[string]string{"X-Api-Key": "secret"})
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/import?apikey=secret", "", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, Config{RateLimit: 1})
	ts.bus.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)

	w := ts.do(http.MethodPost, "/api/v1/import", "", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = ts.do(http.MethodPost, "/api/v1/import", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMITED")
}

func TestStartRun(t *testing.T) {
	ts := newTestServer(t, Config{})
	started := make(chan localize.RunOptions, 1)
	ts.runner.EXPECT().Status().Return(localize.Status{Enabled: true})
	ts.runner.EXPECT().Run(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, opts localize.RunOptions) (*localize.RunResult, error) {
			started <- opts
			return &localize.RunResult{}, nil
		})

	w := ts.do(http.MethodPost, "/api/v1/run", "", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	select {
	case opts := <-started:
		assert.Equal(t, localize.TriggerManual, opts.Trigger)
		assert.Nil(t, opts.Since)
	case <-time.After(time.Second):
		t.Fatal("run not started")
	}
	ts.srv.Wait()
}

func TestStartRun_Rejected(t *testing.T) {
	ts := newTestServer(t, Config{})

	ts.runner.EXPECT().Status().Return(localize.Status{Enabled: true, Running: true})
	w := ts.do(http.MethodPost, "/api/v1/run", "", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	ts.runner.EXPECT().Status().Return(localize.Status{Enabled: false, Reason: "bad dictionary"})
	w = ts.do(http.MethodPost, "/api/v1/run", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "bad dictionary")
}

func TestGetStatus(t *testing.T) {
	ts := newTestServer(t, Config{})
	pendingAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	since := pendingAt.Add(-time.Hour)
	ts.runner.EXPECT().Status().Return(localize.Status{
		Enabled: true,
		LastRun: &localize.RunResult{
			RunID:            "r1",
			Trigger:          localize.TriggerImport,
			Since:            &since,
			ServersProcessed: 1,
			BatchesSucceeded: 2,
			Started:          pendingAt,
			Elapsed:          1500 * time.Millisecond,
		},
	})
	ts.pending.EXPECT().Pending().Return(pendingAt, true)

	w := ts.do(http.MethodGet, "/api/v1/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Enabled)
	assert.False(t, resp.Running)
	require.NotNil(t, resp.PendingImport)
	assert.Equal(t, "2026-03-01T12:00:00Z", *resp.PendingImport)
	require.NotNil(t, resp.LastRun)
	assert.Equal(t, "r1", resp.LastRun.RunID)
	assert.Equal(t, "import", resp.LastRun.Trigger)
	assert.InDelta(t, 1.5, resp.LastRun.ElapsedSeconds, 0.001)
	require.NotNil(t, resp.LastRun.Since)
}

func TestListRuns(t *testing.T) {
	ts := newTestServer(t, Config{})
	ts.history.EXPECT().
		List(gomock.Any(), history.Filter{Trigger: localize.TriggerSchedule, Limit: 5}).
		Return([]*localize.RunResult{{RunID: "a"}, {RunID: "b"}}, nil)

	w := ts.do(http.MethodGet, "/api/v1/runs?limit=5&trigger=schedule", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp listRunsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, "a", resp.Items[0].RunID)
}

func TestListRuns_Errors(t *testing.T) {
	ts := newTestServer(t, Config{})

	w := ts.do(http.MethodGet, "/api/v1/runs?limit=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	ts.history.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))
	w = ts.do(http.MethodGet, "/api/v1/runs", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestListRuns_NoHistory(t *testing.T) {
	ctrl := gomock.NewController(t)
	srv, err := New(t.Context(), ServerDeps{
		Runner: mocks.NewMockRunner(ctrl),
		Bus:    mocks.NewMockPublisher(ctrl),
	}, Config{}, nil)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.listRuns(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, Config{APIKey: "secret"})
	w := ts.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
