package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/plexlocalize/internal/events"
)

// eventView is the JSON shape of a listed event.
type eventView struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	Subject    string    `json:"subject"`
	Summary    string    `json:"summary"`
	OccurredAt time.Time `json:"occurred_at"`
}

func newEventsCommand(app *appContext) *cobra.Command {
	var (
		limit     int
		eventType string
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent import and run events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := events.DefaultRegistry()
			if eventType != "" && !registry.Known(eventType) {
				return fmt.Errorf("unknown event type %q (known: %s)", eventType, strings.Join(registry.Types(), ", "))
			}

			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg.Database.Path)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			raws, err := events.NewEventLog(db).Recent(cmd.Context(), eventType, limit)
			if err != nil {
				return err
			}
			views := decodeEvents(registry, raws)

			out := cmd.OutOrStdout()
			if app.jsonOutput {
				return printJSON(out, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(out, "No events recorded.")
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{v.OccurredAt.Local().Format(time.DateTime), v.Type, v.Summary})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Time", "Type", "Summary"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of events to show")
	cmd.Flags().StringVar(&eventType, "type", "", "Only show events of this type")
	return cmd
}

// decodeEvents summarizes raw events. Entries that no longer decode are
// listed with their subject.
func decodeEvents(r *events.Registry, raws []events.RawEvent) []eventView {
	views := make([]eventView, 0, len(raws))
	for _, raw := range raws {
		v := eventView{ID: raw.ID, Type: raw.EventType, Subject: raw.Subject, OccurredAt: raw.OccurredAt}
		if e, err := r.Unmarshal(raw); err == nil {
			v.Summary = events.Describe(e)
		} else {
			v.Summary = raw.Subject + " (undecodable)"
		}
		views = append(views, v)
	}
	return views
}
