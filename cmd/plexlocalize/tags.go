package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vmunix/plexlocalize/internal/tags"
)

func newTagsCommand(app *appContext) *cobra.Command {
	var preset bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Show the tag translation dictionary",
		Long: `Show the tag dictionary in effect: localize.tags from the config, or
the built-in preset when that is empty. With --preset the preset text is
printed as is, ready to paste into the config and edit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if preset {
				_, err := fmt.Fprint(out, tags.Preset())
				return err
			}

			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			dict, err := tags.Parse(cfg.Localize.Tags)
			if err != nil {
				return err
			}

			if app.jsonOutput {
				return printJSON(out, dict)
			}
			rows := make([][]string, 0, dict.Len())
			for _, k := range dict.Keys() {
				v, _ := dict.Lookup(k)
				rows = append(rows, []string{k, v})
			}
			fmt.Fprintln(out, renderTable([]string{"Tag", "Localized"}, rows, nil))
			fmt.Fprintf(out, "%d entries\n", dict.Len())
			return nil
		},
	}
	cmd.Flags().BoolVar(&preset, "preset", false, "Print the built-in preset dictionary")
	return cmd
}
