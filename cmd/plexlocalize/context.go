package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/mattn/go-isatty"
	_ "modernc.org/sqlite"

	"github.com/vmunix/plexlocalize/internal/config"
	"github.com/vmunix/plexlocalize/internal/localize"
	"github.com/vmunix/plexlocalize/internal/migrations"
	"github.com/vmunix/plexlocalize/internal/notify"
	"github.com/vmunix/plexlocalize/internal/plex"
)

// appContext carries global flags and lazily loaded state shared by commands.
type appContext struct {
	configFlag   string
	logLevelFlag string
	jsonOutput   bool

	configPath string
	config     *config.Config
}

// loadConfig resolves and loads the configuration once.
func (a *appContext) loadConfig() (*config.Config, error) {
	if a.config != nil {
		return a.config, nil
	}
	path := strings.TrimSpace(a.configFlag)
	if path == "" {
		found, err := config.Discover()
		if err != nil {
			return nil, err
		}
		path = found
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	a.configPath = path
	a.config = cfg
	return cfg, nil
}

// logger writes to stderr so command output on stdout stays clean.
func (a *appContext) logger(cfg *config.Config) *slog.Logger {
	level := cfg.Server.LogLevel
	if a.logLevelFlag != "" {
		level = a.logLevelFlag
	}
	return newLogger(os.Stderr, level)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger uses a text handler on terminals and JSON otherwise.
func newLogger(w io.Writer, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	if isTerminal(w) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// openDB opens the SQLite database and applies the schema.
func openDB(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrations.Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// newEngine builds the orchestrator and its Plex clients from cfg.
func newEngine(cfg *config.Config, log *slog.Logger) (*localize.Orchestrator, notify.Notifier) {
	servers := make([]localize.Server, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		servers = append(servers, plex.NewClient(s.Name, s.URL, s.Token, plex.Options{
			Timeout:           cfg.Localize.Timeout,
			RequestsPerSecond: s.RequestsPerSecond,
		}, log))
	}

	engine := localize.NewOrchestrator(localize.Config{
		Libraries: cfg.Localize.Libraries,
		Lock:      cfg.Localize.Lock,
		Notify:    cfg.Localize.Notify,
		Workers:   cfg.Localize.Workers,
		BatchSize: cfg.Localize.BatchSize,
		Retries:   cfg.Localize.Retries,
		Tags:      cfg.Localize.Tags,
		LockFile:  cfg.Localize.LockFile,
	}, localize.NewServerSet(servers...), log)

	notifier := notify.New(notify.Config{
		URL:     cfg.Notify.URL,
		Topic:   cfg.Notify.Topic,
		Timeout: cfg.Notify.Timeout,
	}, log)
	engine.SetNotifier(notifier)
	return engine, notifier
}

// waitNotifications blocks until asynchronous notifications are sent.
func waitNotifications(n notify.Notifier) {
	if w, ok := n.(interface{ Wait() }); ok {
		w.Wait()
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
