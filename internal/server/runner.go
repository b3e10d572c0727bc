// Package server runs the daemon: HTTP API, cron schedule, post-import
// debounce and retention pruning.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	v1 "github.com/vmunix/plexlocalize/internal/api/v1"
	"github.com/vmunix/plexlocalize/internal/events"
	"github.com/vmunix/plexlocalize/internal/history"
	"github.com/vmunix/plexlocalize/internal/localize"
	"github.com/vmunix/plexlocalize/internal/trigger"
)

// Defaults for Config.
const (
	DefaultPruneInterval   = 24 * time.Hour
	DefaultShutdownTimeout = 30 * time.Second
)

// Config for the daemon.
type Config struct {
	Addr      string
	APIKey    string
	RateLimit int

	// Enabled gates the automatic triggers. Manual runs through the API
	// are always accepted.
	Enabled    bool
	Cron       string
	RunOnStart bool
	PostImport bool
	Delay      time.Duration

	// Retention bounds run history and event log age. Zero keeps everything.
	Retention       time.Duration
	PruneInterval   time.Duration
	ShutdownTimeout time.Duration
}

// Engine is the localization engine driven by the daemon.
type Engine interface {
	v1.Runner
	SetHistory(r localize.Recorder)
	SetEvents(p localize.Publisher)
}

// Runner manages the daemon components.
type Runner struct {
	db     *sql.DB
	engine Engine
	config Config
	logger *slog.Logger

	mu   sync.Mutex
	addr net.Addr
}

// NewRunner creates a new runner.
func NewRunner(db *sql.DB, engine Engine, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.PruneInterval <= 0 {
		cfg.PruneInterval = DefaultPruneInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	return &Runner{
		db:     db,
		engine: engine,
		config: cfg,
		logger: logger,
	}
}

// Addr returns the bound listen address once Run is serving, or nil.
func (r *Runner) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.addr
}

// Run starts all components.
// It blocks until the context is canceled or a component fails.
func (r *Runner) Run(ctx context.Context) error {
	eventLog := events.NewEventLog(r.db)
	bus := events.NewBus(eventLog, r.logger)
	defer func() { _ = bus.Close() }()

	runs := history.NewStore(r.db)
	r.engine.SetHistory(runs)
	r.engine.SetEvents(bus)

	g, ctx := errgroup.WithContext(ctx)

	deps := v1.ServerDeps{Runner: r.engine, Bus: bus, History: runs}

	// The debounce timer hands its run to a group goroutine so shutdown
	// waits for it.
	var debouncer *trigger.Debouncer
	importRuns := make(chan time.Time, 1)
	if r.config.Enabled && r.config.PostImport {
		debouncer = trigger.NewDebouncer(ctx, r.config.Delay, func(ctx context.Context, since time.Time) {
			select {
			case importRuns <- since:
			case <-ctx.Done():
			}
		}, r.logger)
		deps.Pending = debouncer
	}

	var sched *trigger.Schedule
	if r.config.Enabled && r.config.Cron != "" {
		var err error
		sched, err = trigger.NewSchedule(ctx, r.config.Cron, func(ctx context.Context) {
			r.run(ctx, localize.TriggerSchedule, nil)
		}, r.logger)
		if err != nil {
			return err
		}
	}

	api, err := v1.New(ctx, deps, v1.Config{APIKey: r.config.APIKey, RateLimit: r.config.RateLimit}, r.logger)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	api.RegisterRoutes(mux)

	ln, err := net.Listen("tcp", r.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", r.config.Addr, err)
	}
	r.mu.Lock()
	r.addr = ln.Addr()
	r.mu.Unlock()

	all := bus.SubscribeAll(32)
	g.Go(func() error {
		r.logEvents(ctx, all)
		return nil
	})
	if debouncer != nil {
		imports := bus.Subscribe(events.EventImportCompleted, 16)
		g.Go(func() error {
			defer debouncer.Stop()
			return r.watchImports(ctx, imports, debouncer)
		})
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case since := <-importRuns:
					r.run(ctx, localize.TriggerImport, &since)
				}
			}
		})
	}
	if sched != nil {
		g.Go(func() error { return sched.Run(ctx) })
	}
	if r.config.Enabled && r.config.RunOnStart {
		g.Go(func() error {
			r.run(ctx, localize.TriggerStartup, nil)
			return nil
		})
	}
	if r.config.Retention > 0 {
		g.Go(func() error {
			r.pruneLoop(ctx, runs, eventLog)
			return nil
		})
	}

	srv := &http.Server{
		Handler:           logRequests(mux, r.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		r.logger.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		api.Wait()
		return nil
	})

	err = g.Wait()
	r.logger.Info("server stopped")
	return err
}

// watchImports feeds import events into the debouncer until ctx is done.
func (r *Runner) watchImports(ctx context.Context, ch <-chan events.Event, d *trigger.Debouncer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			at := e.OccurredAt()
			if ic, ok := e.(*events.ImportCompleted); ok {
				at = ic.ImportedAt
			}
			if d.Notify(at) {
				r.logger.Info("post-import run armed", "at", at, "delay", d.Delay)
			}
		}
	}
}

// logEvents records every bus event in the daemon log until ctx is done.
func (r *Runner) logEvents(ctx context.Context, ch <-chan events.Event) {
	log := r.logger.With("component", "events")
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			log.Info(events.Describe(e), "type", e.EventType(), "subject", e.Subject())
		}
	}
}

func (r *Runner) run(ctx context.Context, t localize.Trigger, since *time.Time) {
	if _, err := r.engine.Run(ctx, localize.RunOptions{Trigger: t, Since: since}); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		r.logger.Error("run failed", "trigger", string(t), "error", err)
	}
}

// pruner is implemented by stores with age-based cleanup.
type pruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

func (r *Runner) pruneLoop(ctx context.Context, stores ...pruner) {
	ticker := time.NewTicker(r.config.PruneInterval)
	defer ticker.Stop()
	for {
		r.prune(ctx, stores...)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *Runner) prune(ctx context.Context, stores ...pruner) {
	for _, s := range stores {
		n, err := s.Prune(ctx, r.config.Retention)
		if err != nil {
			if ctx.Err() == nil {
				r.logger.Warn("prune failed", "error", err)
			}
			continue
		}
		if n > 0 {
			r.logger.Info("pruned old records", "store", fmt.Sprintf("%T", s), "removed", n)
		}
	}
}
