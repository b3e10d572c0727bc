package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/plexlocalize/internal/config"
	"github.com/vmunix/plexlocalize/internal/tags"
)

func newConfigCommand(app *appContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigCheckCommand(app))
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) > 0 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := config.WriteDefault(path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigCheckCommand(app *appContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check [path]",
		Short: "Validate configuration file",
		Long:  "Validates config syntax, required fields, environment variable substitution and the tag dictionary without contacting any server.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				app.configFlag = args[0]
			}
			out := cmd.OutOrStdout()

			cfg, err := app.loadConfig()
			if err != nil {
				var configErr *config.ConfigError
				if errors.As(err, &configErr) {
					printConfigErrors(out, configErr)
					return errors.New("configuration invalid")
				}
				return err
			}

			printConfigSummary(out, app.configPath, cfg)

			dict, err := tags.Parse(cfg.Localize.Tags)
			if err != nil {
				fmt.Fprintf(out, "\nTag dictionary invalid, localization will be disabled:\n  - %v\n", err)
				return errors.New("configuration invalid")
			}
			fmt.Fprintf(out, "  Tags:       %d entries\n", dict.Len())
			fmt.Fprintln(out, "\nConfiguration valid!")
			return nil
		},
	}
}

func printConfigErrors(w io.Writer, e *config.ConfigError) {
	if len(e.Missing) > 0 {
		fmt.Fprintln(w, "Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Fprintf(w, "  - %s\n", m)
		}
		fmt.Fprintln(w)
	}

	if len(e.Errors) > 0 {
		fmt.Fprintln(w, "Validation errors:")
		for _, err := range e.Errors {
			fmt.Fprintf(w, "  - %s\n", err)
		}
		fmt.Fprintln(w)
	}
}

func printConfigSummary(w io.Writer, path string, cfg *config.Config) {
	fmt.Fprintf(w, "Configuration Summary (%s):\n", path)
	fmt.Fprintf(w, "  Server:     %s:%d (log: %s)\n", cfg.Server.Host, cfg.Server.Port, cfg.Server.LogLevel)
	fmt.Fprintf(w, "  Database:   %s\n", cfg.Database.Path)
	fmt.Fprintf(w, "  Plex:       %s\n", strings.Join(cfg.ServerNames(), ", "))
	fmt.Fprintf(w, "  Libraries:  %s\n", strings.Join(cfg.Localize.Libraries, ", "))

	triggers := []string{}
	if cfg.Localize.Cron != "" {
		triggers = append(triggers, "cron "+cfg.Localize.Cron)
	}
	if cfg.Localize.PostImport {
		triggers = append(triggers, fmt.Sprintf("post-import after %s", cfg.Localize.Delay))
	}
	if cfg.Localize.RunOnStart {
		triggers = append(triggers, "on start")
	}
	if !cfg.Localize.Enabled {
		triggers = []string{"disabled"}
	} else if len(triggers) == 0 {
		triggers = append(triggers, "manual only")
	}
	fmt.Fprintf(w, "  Triggers:   %s\n", strings.Join(triggers, ", "))

	notify := "off"
	if cfg.Localize.Notify && cfg.Notify.Topic != "" {
		notify = cfg.Notify.URL + " / " + cfg.Notify.Topic
	}
	fmt.Fprintf(w, "  Notify:     %s\n", notify)
}
