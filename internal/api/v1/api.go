// Package v1 implements the webhook and control API.
package v1

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vmunix/plexlocalize/internal/events"
	"github.com/vmunix/plexlocalize/internal/history"
	"github.com/vmunix/plexlocalize/internal/localize"
)

// maxBodyBytes bounds webhook payloads.
const maxBodyBytes = 64 << 10

// Config holds API server configuration.
type Config struct {
	// APIKey is required in X-Api-Key on mutating endpoints when set.
	APIKey string
	// RateLimit caps requests per client IP per minute on mutating endpoints.
	RateLimit int
}

// Server is the v1 API server.
type Server struct {
	deps     ServerDeps
	cfg      Config
	validate *validator.Validate
	log      *slog.Logger

	ctx  context.Context
	runs sync.WaitGroup
}

// New creates a new v1 API server. Manual runs started through the API use
// ctx and stop when it is canceled.
func New(ctx context.Context, deps ServerDeps, cfg Config, log *slog.Logger) (*Server, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		deps:     deps,
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.With("component", "api"),
		ctx:      ctx,
	}, nil
}

// RegisterRoutes registers API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Triggers
	mux.Handle("POST /api/v1/import", s.guarded(s.importCompleted))
	mux.Handle("POST /api/v1/run", s.guarded(s.startRun))

	// Read-only
	mux.HandleFunc("GET /api/v1/status", s.getStatus)
	mux.HandleFunc("GET /api/v1/runs", s.listRuns)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// Wait blocks until manual runs started through the API have returned.
func (s *Server) Wait() {
	s.runs.Wait()
}

// Error response
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, code int, errCode, message string) {
	writeJSON(w, code, errorResponse{Error: message, Code: errCode})
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

// queryInt extracts an optional integer from query string.
func queryInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// importCompleted records an upstream import. The body is optional; an
// empty body still arms the post-import run.
func (s *Server) importCompleted(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", err.Error())
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
			return
		}
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	e := events.NewImportCompleted(req.Title, req.SeasonEpisode)
	if err := s.deps.Bus.Publish(r.Context(), e); err != nil {
		s.log.Error("publish import event failed", "error", err)
		writeError(w, http.StatusInternalServerError, "EVENT_ERROR", err.Error())
		return
	}
	s.log.Info("import received", "media", e.Description())
	writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted"})
}

// startRun starts a manual full run in the background.
func (s *Server) startRun(w http.ResponseWriter, r *http.Request) {
	st := s.deps.Runner.Status()
	if !st.Enabled {
		writeError(w, http.StatusServiceUnavailable, "DISABLED", st.Reason)
		return
	}
	if st.Running {
		writeError(w, http.StatusConflict, "ALREADY_RUNNING", "A localization run is already in progress")
		return
	}

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		_, err := s.deps.Runner.Run(s.ctx, localize.RunOptions{Trigger: localize.TriggerManual})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Error("manual run failed", "error", err)
		}
	}()
	writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "accepted", Message: "run started"})
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	st := s.deps.Runner.Status()
	resp := statusResponse{
		Status:  "ok",
		Enabled: st.Enabled,
		Running: st.Running,
		Reason:  st.Reason,
	}
	if s.deps.Pending != nil {
		if at, ok := s.deps.Pending.Pending(); ok {
			v := at.Format(time.RFC3339)
			resp.PendingImport = &v
		}
	}
	if st.LastRun != nil {
		last := runToResponse(st.LastRun)
		resp.LastRun = &last
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.deps.History == nil {
		writeError(w, http.StatusServiceUnavailable, "NO_HISTORY", "Run history not configured")
		return
	}
	limit := queryInt(r, "limit", history.DefaultLimit)
	if limit < 0 {
		writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be non-negative")
		return
	}
	const maxLimit = 500
	limit = min(limit, maxLimit)

	runs, err := s.deps.History.List(r.Context(), history.Filter{
		Trigger: localize.Trigger(r.URL.Query().Get("trigger")),
		Limit:   limit,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listRunsResponse{Items: make([]runResponse, len(runs)), Total: len(runs)}
	for i, run := range runs {
		resp.Items[i] = runToResponse(run)
	}
	writeJSON(w, http.StatusOK, resp)
}

func runToResponse(r *localize.RunResult) runResponse {
	resp := runResponse{
		RunID:            r.RunID,
		Trigger:          string(r.Trigger),
		ServersProcessed: r.ServersProcessed,
		ServersSkipped:   r.ServersSkipped,
		ItemsQueued:      r.ItemsQueued,
		BatchesSucceeded: r.BatchesSucceeded,
		BatchesFailed:    r.BatchesFailed,
		StartedAt:        r.Started.Format(time.RFC3339),
		ElapsedSeconds:   r.Elapsed.Seconds(),
	}
	if r.Since != nil {
		v := r.Since.Format(time.RFC3339)
		resp.Since = &v
	}
	return resp
}
