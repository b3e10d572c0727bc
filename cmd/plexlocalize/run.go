package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/plexlocalize/internal/events"
	"github.com/vmunix/plexlocalize/internal/history"
	"github.com/vmunix/plexlocalize/internal/localize"
)

func newRunCommand(app *appContext) *cobra.Command {
	var since string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Localize the selected libraries once and exit",
		Long: `Run one localization pass over the configured libraries.

Without --since every item is processed, collections included. With
--since only items added after that point are processed, as after an
import.

Examples:
  plexlocalize run                          # Full run
  plexlocalize run --since 2h               # Items added in the last two hours
  plexlocalize run --since 2026-01-02T15:04:05+08:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := localize.RunOptions{Trigger: localize.TriggerManual}
			if since != "" {
				t, err := parseSince(since, time.Now())
				if err != nil {
					return err
				}
				opts.Trigger = localize.TriggerImport
				opts.Since = &t
			}
			return runOnce(cmd, app, opts)
		},
	}
	cmd.Flags().StringVar(&since, "since", "", "Only process items added since a duration ago or an RFC 3339 time")
	return cmd
}

func runOnce(cmd *cobra.Command, app *appContext, opts localize.RunOptions) error {
	cfg, err := app.loadConfig()
	if err != nil {
		return err
	}
	log := app.logger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	engine, notifier := newEngine(cfg, log)
	bus := events.NewBus(events.NewEventLog(db), log)
	defer func() { _ = bus.Close() }()
	engine.SetHistory(history.NewStore(db))
	engine.SetEvents(bus)

	result, err := engine.Run(ctx, opts)
	waitNotifications(notifier)
	if err != nil {
		return err
	}

	if app.jsonOutput {
		return printJSON(cmd.OutOrStdout(), result)
	}
	printRunResult(cmd.OutOrStdout(), result)
	return nil
}

// parseSince accepts a duration before now ("90m", "2h") or an RFC 3339 time.
func parseSince(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("invalid --since %q: duration must be positive", s)
		}
		return now.Add(-d), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q: want a duration like 2h or an RFC 3339 time", s)
}

func printRunResult(w io.Writer, r *localize.RunResult) {
	fmt.Fprintln(w, localize.SummaryText(*r))
	rows := [][]string{
		{"Run", r.RunID},
		{"Trigger", string(r.Trigger)},
		{"Servers processed", strconv.Itoa(r.ServersProcessed)},
		{"Servers skipped", strconv.Itoa(r.ServersSkipped)},
		{"Items queued", strconv.Itoa(r.ItemsQueued)},
		{"Batches succeeded", strconv.Itoa(r.BatchesSucceeded)},
		{"Batches failed", strconv.Itoa(r.BatchesFailed)},
	}
	fmt.Fprintln(w, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
}
