package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	app := &appContext{}

	rootCmd := &cobra.Command{
		Use:   "plexlocalize",
		Short: "Chinese localization for Plex libraries",
		Long: `plexlocalize - Chinese localization for Plex libraries

Writes pinyin initial sort titles for Chinese titles and translates
genre, style and mood tags through a configurable dictionary.

Run 'plexlocalize serve' to start the daemon with scheduled and
post-import runs, or 'plexlocalize run' for a one-off run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.SetVersionTemplate("plexlocalize {{.Version}}\n")

	rootCmd.PersistentFlags().StringVarP(&app.configFlag, "config", "c", "", "Configuration file path (default: discovered)")
	rootCmd.PersistentFlags().StringVar(&app.logLevelFlag, "log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().BoolVar(&app.jsonOutput, "json", false, "Output as JSON")

	rootCmd.AddCommand(newRunCommand(app))
	rootCmd.AddCommand(newServeCommand(app))
	rootCmd.AddCommand(newLibrariesCommand(app))
	rootCmd.AddCommand(newTagsCommand(app))
	rootCmd.AddCommand(newHistoryCommand(app))
	rootCmd.AddCommand(newEventsCommand(app))
	rootCmd.AddCommand(newConfigCommand(app))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "plexlocalize %s\n", version)
			return nil
		},
	}
}
