package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vmunix/plexlocalize/internal/history"
	"github.com/vmunix/plexlocalize/internal/localize"
)

func newHistoryCommand(app *appContext) *cobra.Command {
	var (
		limit       int
		triggerName string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent localization runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg.Database.Path)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			runs, err := history.NewStore(db).List(cmd.Context(), history.Filter{
				Trigger: localize.Trigger(triggerName),
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if app.jsonOutput {
				return printJSON(out, runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Trigger", "Since", "Elapsed", "Servers", "Items", "Batches ok", "Batches failed"},
				historyRows(runs),
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", history.DefaultLimit, "Number of runs to show")
	cmd.Flags().StringVar(&triggerName, "trigger", "", "Only show runs started by this trigger (manual, schedule, import, startup)")
	return cmd
}

func historyRows(runs []*localize.RunResult) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		since := "-"
		if r.Since != nil {
			since = r.Since.Local().Format(time.DateTime)
		}
		servers := strconv.Itoa(r.ServersProcessed)
		if r.ServersSkipped > 0 {
			servers += fmt.Sprintf(" (+%d skipped)", r.ServersSkipped)
		}
		rows = append(rows, []string{
			r.Started.Local().Format(time.DateTime),
			string(r.Trigger),
			since,
			fmt.Sprintf("%.2fs", r.Elapsed.Seconds()),
			servers,
			strconv.Itoa(r.ItemsQueued),
			strconv.Itoa(r.BatchesSucceeded),
			strconv.Itoa(r.BatchesFailed),
		})
	}
	return rows
}
