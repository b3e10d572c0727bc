package localize

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hbollon/go-edlib"

	"github.com/vmunix/plexlocalize/internal/events"
	"github.com/vmunix/plexlocalize/internal/metrics"
	"github.com/vmunix/plexlocalize/internal/notify"
	"github.com/vmunix/plexlocalize/internal/plex"
	"github.com/vmunix/plexlocalize/internal/tags"
)

// NotifyTitle is the title of the run summary notification.
const NotifyTitle = "【Plex中文本地化】"

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, r RunResult) error
}

// Publisher receives run lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) error
}

// Config holds the engine settings.
type Config struct {
	// Libraries selects libraries as "serverName.libraryKey". The part after
	// the first dot may also be a library title.
	Libraries []string
	// Lock marks written fields as locked on the server.
	Lock bool
	// Notify sends a summary notification after each run.
	Notify    bool
	Workers   int
	BatchSize int
	Retries   int
	// Tags is the raw tag dictionary text. Blank uses the built-in preset.
	Tags string
	// LockFile enables the cross-process run lock when set.
	LockFile string
}

// Status is a snapshot of the orchestrator state.
type Status struct {
	Enabled bool
	Running bool
	LastRun *RunResult
	Reason  string
}

// Orchestrator executes localization runs across servers.
type Orchestrator struct {
	cfg         Config
	servers     Resolver
	dict        tags.Dictionary
	dictErr     error
	scheduler   *Scheduler
	transformer *Transformer
	guard       *Guard
	notifier    notify.Notifier
	history     Recorder
	events      Publisher
	log         *slog.Logger

	running atomic.Bool
	mu      sync.RWMutex
	last    *RunResult
}

// NewOrchestrator creates an orchestrator. A tag dictionary that fails to
// parse leaves the orchestrator disabled: every Run returns ErrDisabled.
func NewOrchestrator(cfg Config, servers Resolver, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "localize")

	dict, err := tags.Parse(cfg.Tags)
	if err != nil {
		log.Error("tag dictionary invalid, localization disabled", "error", err)
	}

	return &Orchestrator{
		cfg:         cfg,
		servers:     servers,
		dict:        dict,
		dictErr:     err,
		scheduler:   NewScheduler(cfg.Workers, cfg.BatchSize, cfg.Retries, log),
		transformer: NewTransformer(log),
		guard:       NewGuard(cfg.LockFile),
		notifier:    notify.Noop{},
		log:         log,
	}
}

// SetNotifier sets the summary notification sink.
func (o *Orchestrator) SetNotifier(n notify.Notifier) {
	if n == nil {
		n = notify.Noop{}
	}
	o.notifier = n
}

// SetHistory sets the run history recorder.
func (o *Orchestrator) SetHistory(r Recorder) {
	o.history = r
}

// SetEvents sets the publisher for run events.
func (o *Orchestrator) SetEvents(p Publisher) {
	o.events = p
}

// Dictionary returns the parsed tag dictionary, or the parse error.
func (o *Orchestrator) Dictionary() (tags.Dictionary, error) {
	return o.dict, o.dictErr
}

// Status reports whether runs are enabled, whether one is in progress and
// the last finished run.
func (o *Orchestrator) Status() Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	s := Status{
		Enabled: o.dictErr == nil,
		Running: o.running.Load(),
		LastRun: o.last,
	}
	if o.dictErr != nil {
		s.Reason = o.dictErr.Error()
	}
	return s
}

// Run executes one localization run. It waits while another run holds the
// guard. Servers are processed one after another; a server that cannot be
// resolved or reached is skipped.
func (o *Orchestrator) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	if o.dictErr != nil {
		o.log.Error("run refused, tag dictionary invalid", "error", o.dictErr)
		return nil, fmt.Errorf("%w: %w", ErrDisabled, o.dictErr)
	}
	if opts.Trigger == "" {
		opts.Trigger = TriggerManual
	}

	selection := o.selection()
	if len(selection) == 0 {
		return nil, ErrNoLibraries
	}

	release, err := o.guard.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	o.running.Store(true)
	defer o.running.Store(false)

	result := RunResult{
		RunID:   uuid.NewString(),
		Trigger: opts.Trigger,
		Since:   opts.Since,
		Started: time.Now(),
	}
	log := o.log.With("run_id", result.RunID, "trigger", string(opts.Trigger))
	log.Info("run started",
		"workers", o.scheduler.Workers,
		"batch_size", o.scheduler.BatchSize,
		"lock", o.cfg.Lock,
		"dictionary_entries", o.dict.Len(),
		"since", formatSince(opts.Since))
	o.publish(ctx, events.NewRunStarted(result.RunID, string(opts.Trigger), opts.Since))

	for _, sel := range selection {
		if ctx.Err() != nil {
			break
		}
		tally, queued, err := o.runServer(ctx, log, sel, opts.Since)
		if err != nil {
			log.Warn("server skipped", "server", sel.server, "error", err)
			result.ServersSkipped++
			continue
		}
		result.ServersProcessed++
		result.ItemsQueued += queued
		result.BatchesSucceeded += tally.Succeeded
		result.BatchesFailed += tally.Failed
	}

	result.Elapsed = time.Since(result.Started)
	o.finish(ctx, log, result)
	return &result, nil
}

func (o *Orchestrator) runServer(ctx context.Context, log *slog.Logger, sel serverSelection, since *time.Time) (BatchTally, int, error) {
	var tally BatchTally

	srv, ok := o.servers.Resolve(sel.server)
	if !ok {
		return tally, 0, fmt.Errorf("%w: %s not configured", ErrServerUnavailable, sel.server)
	}
	if err := srv.Ping(ctx); err != nil {
		return tally, 0, fmt.Errorf("%w: %s: %w", ErrServerUnavailable, sel.server, err)
	}

	libs, err := o.resolveLibraries(ctx, log, srv, sel.libraries)
	if err != nil {
		return tally, 0, err
	}
	if len(libs) == 0 {
		return tally, 0, fmt.Errorf("%w: none of %v on %s", ErrLibraryNotFound, sel.libraries, sel.server)
	}

	start := time.Now()
	log = log.With("server", srv.Name())
	log.Info("processing server", "libraries", libraryTitles(libs))

	fetcher := NewFetcher(srv, o.log)
	ids := o.enumerate(ctx, log, fetcher, libs, since)

	tally = o.scheduler.Run(ctx, ids, func(ctx context.Context, b Batch) error {
		return o.processBatch(ctx, srv, fetcher, b)
	})
	metrics.Batches.WithLabelValues(srv.Name(), "success").Add(float64(tally.Succeeded))
	metrics.Batches.WithLabelValues(srv.Name(), "failure").Add(float64(tally.Failed))

	log.Info("server done",
		"items", len(ids),
		"batches_succeeded", tally.Succeeded,
		"batches_failed", tally.Failed,
		"elapsed", fmt.Sprintf("%.2fs", time.Since(start).Seconds()))
	return tally, len(ids), nil
}

// enumerate lists the ids of every selected library. Import runs list only
// items added since the cutoff; full runs also list collections. A failed
// listing is logged and skipped.
func (o *Orchestrator) enumerate(ctx context.Context, log *slog.Logger, f *Fetcher, libs []Library, since *time.Time) []ItemID {
	var lists [][]ItemID
	for _, lib := range libs {
		typeIDs := lib.Kind.TypeIDs()
		for _, typeID := range typeIDs {
			ids, err := f.ListIDs(ctx, lib, typeID, false, since)
			if err != nil {
				log.Error("list items failed", "library", lib.Title, "type", typeID, "error", err)
				continue
			}
			lists = append(lists, ids)
		}
		if since == nil && len(typeIDs) > 0 {
			ids, err := f.ListIDs(ctx, lib, typeIDs[0], true, nil)
			if err != nil {
				log.Error("list collections failed", "library", lib.Title, "error", err)
				continue
			}
			lists = append(lists, ids)
		}
	}
	return Dedup(lists...)
}

func (o *Orchestrator) processBatch(ctx context.Context, srv Server, f *Fetcher, b Batch) error {
	items, err := f.FetchMany(ctx, b.IDs)
	if err != nil {
		return err
	}
	metrics.ItemsProcessed.WithLabelValues(srv.Name()).Add(float64(len(items)))

	// Items applied before a failure keep their writes.
	for _, item := range items {
		if _, err := o.transformer.Apply(ctx, srv, item, o.dict, o.cfg.Lock); err != nil {
			return err
		}
	}
	return nil
}

// matchesSection reports whether a selected library, given by key or by
// title in any case, names section s.
func matchesSection(lib string, s plex.Section) bool {
	return strconv.Itoa(s.Key) == lib || strings.EqualFold(s.Title, lib)
}

// resolveLibraries matches the selected keys against the server's sections.
// Photo libraries are never selected.
func (o *Orchestrator) resolveLibraries(ctx context.Context, log *slog.Logger, srv Server, wanted []string) ([]Library, error) {
	sections, err := srv.Sections(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrServerUnavailable, srv.Name(), err)
	}

	var libs []Library
	seen := make(map[int]bool)
	for _, w := range wanted {
		found := false
		for _, s := range sections {
			if s.Type == "photo" {
				continue
			}
			if !matchesSection(w, s) {
				continue
			}
			found = true
			if !seen[s.Key] {
				seen[s.Key] = true
				libs = append(libs, Library{ID: s.Key, Title: s.Title, Kind: KindOf(s.Type)})
			}
			break
		}
		if !found {
			args := []any{"server", srv.Name(), "library", w}
			if hint := suggest(w, sections); hint != "" {
				args = append(args, "did_you_mean", hint)
			}
			log.Warn("selected library not found", args...)
		}
	}
	sort.Slice(libs, func(i, j int) bool { return libs[i].ID < libs[j].ID })
	return libs, nil
}

// suggest returns the section title closest to name, if any is close enough.
func suggest(name string, sections []plex.Section) string {
	var best string
	var bestScore float32
	for _, s := range sections {
		if s.Type == "photo" {
			continue
		}
		score := edlib.JaroWinklerSimilarity(strings.ToLower(name), strings.ToLower(s.Title))
		if score > bestScore {
			best, bestScore = s.Title, score
		}
	}
	if bestScore < 0.7 {
		return ""
	}
	return best
}

func (o *Orchestrator) finish(ctx context.Context, log *slog.Logger, r RunResult) {
	outcome := "success"
	if r.BatchesFailed > 0 || r.ServersSkipped > 0 {
		outcome = "partial"
	}
	if r.ServersProcessed == 0 {
		outcome = "failure"
	}
	metrics.Runs.WithLabelValues(string(r.Trigger), outcome).Inc()
	metrics.RunDuration.WithLabelValues(string(r.Trigger)).Observe(r.Elapsed.Seconds())
	metrics.LastRunTimestamp.SetToCurrentTime()

	o.mu.Lock()
	o.last = &r
	o.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	if o.history != nil {
		if err := o.history.Record(detached, r); err != nil {
			log.Error("record run failed", "error", err)
		}
	}
	o.publish(detached, events.NewRunCompleted(
		r.RunID, string(r.Trigger),
		r.ServersProcessed, r.ServersSkipped, r.ItemsQueued,
		r.BatchesSucceeded, r.BatchesFailed, r.Elapsed))

	text := SummaryText(r)
	log.Info(text,
		"servers_processed", r.ServersProcessed,
		"servers_skipped", r.ServersSkipped,
		"items", r.ItemsQueued,
		"batches_succeeded", r.BatchesSucceeded,
		"batches_failed", r.BatchesFailed)
	if o.cfg.Notify {
		o.notifier.Notify(NotifyTitle, text)
	}
}

func (o *Orchestrator) publish(ctx context.Context, e events.Event) {
	if o.events == nil {
		return
	}
	if err := o.events.Publish(ctx, e); err != nil {
		o.log.Warn("publish event failed", "type", e.EventType(), "error", err)
	}
}

// SummaryText renders the run summary sent as notification text.
func SummaryText(r RunResult) string {
	text := fmt.Sprintf("Plex本地化完成，用时 %.2f 秒", r.Elapsed.Seconds())
	if r.Since != nil {
		text = fmt.Sprintf("最近一次入库时间：%s，%s", r.Since.Local().Format(time.DateTime), text)
	}
	return text
}

func formatSince(since *time.Time) string {
	if since == nil {
		return ""
	}
	return since.Local().Format(time.DateTime)
}

func libraryTitles(libs []Library) []string {
	titles := make([]string, len(libs))
	for i, l := range libs {
		titles[i] = l.Title
	}
	return titles
}

type serverSelection struct {
	server    string
	libraries []string
}

// selection groups the configured "server.library" entries by server,
// keeping first-seen order. Malformed entries are logged and ignored.
func (o *Orchestrator) selection() []serverSelection {
	var out []serverSelection
	index := make(map[string]int)
	for _, entry := range o.cfg.Libraries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		server, lib, ok := ParseSelection(entry)
		if !ok {
			o.log.Warn("ignoring library selection", "entry", entry, "error", ErrInvalidSelection)
			continue
		}
		i, exists := index[server]
		if !exists {
			i = len(out)
			index[server] = i
			out = append(out, serverSelection{server: server})
		}
		if !slices.Contains(out[i].libraries, lib) {
			out[i].libraries = append(out[i].libraries, lib)
		}
	}
	return out
}

// ParseSelection splits "server.library" at the first dot.
func ParseSelection(entry string) (server, library string, ok bool) {
	server, library, ok = strings.Cut(entry, ".")
	if !ok || server == "" || library == "" {
		return "", "", false
	}
	return server, library, true
}
