package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"flashdeck/internal/logging"
	"flashdeck/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var cliLog bool
	var component string
	var level string

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log output",
		Long:  "Print the tail of the web server log (or the CLI log with --cli).",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			name := logging.ServerLogFile
			if cliLog {
				name = logging.CLILogFile
			}
			reader := logs.NewReader(filepath.Join(cfg.Paths.LogDir, name))
			filter := logs.Filter{Component: component, MinLevel: level}
			out := cmd.OutOrStdout()
			emit := func(line string) {
				if filter.Match(line) {
					fmt.Fprintln(out, line)
				}
			}

			tail, err := reader.Last(lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				emit(line)
			}
			if !follow {
				return nil
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			if err := reader.Follow(runCtx, emit); err != nil && runCtx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().BoolVar(&cliLog, "cli", false, "Show the CLI log instead of the server log")
	cmd.Flags().StringVar(&component, "component", "", "Only lines from this component (web, payment, auth, flashcards, ...)")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	return cmd
}
