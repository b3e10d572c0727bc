package main

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
)

func newLibrariesCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "libraries [server...]",
		Short: "List libraries on the configured servers",
		Long: `List the libraries of each configured Plex server with the value to use
in localize.libraries. Selected libraries are marked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			names := args
			if len(names) == 0 {
				names = cfg.ServerNames()
			}
			engine, _ := newEngine(cfg, app.logger(cfg))
			entries, failures := engine.Catalog(ctx, names)

			if app.jsonOutput {
				errs := make(map[string]string, len(failures))
				for name, err := range failures {
					errs[name] = err.Error()
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"libraries": entries, "errors": errs})
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				mark := ""
				if e.Selected {
					mark = "*"
				}
				rows = append(rows, []string{mark, e.Server, strconv.Itoa(e.Key), e.Title, e.Type, e.Value()})
			}
			if len(rows) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"", "Server", "Key", "Title", "Type", "Config value"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight},
				))
			}

			failed := make([]string, 0, len(failures))
			for name := range failures {
				failed = append(failed, name)
			}
			sort.Strings(failed)
			for _, name := range failed {
				cmd.PrintErrf("%s: %v\n", name, failures[name])
			}
			if len(entries) == 0 && len(failed) > 0 {
				return fmt.Errorf("no server could be listed")
			}
			return nil
		},
	}
}
