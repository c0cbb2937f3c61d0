package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SantanaDZ/cad-social/internal/logging"
	"github.com/SantanaDZ/cad-social/internal/logtail"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var filter logtail.Filter

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			logLines, err := logtail.Read(cfg.LogPath(), lines)
			if err != nil {
				return fmt.Errorf("read log: %w", err)
			}
			logLines = filter.Apply(logLines)
			if len(logLines) == 0 {
				fmt.Fprintln(out, "Nenhum registro encontrado.")
				return nil
			}
			if logging.IsTerminal(out) {
				logLines = logtail.DefaultStyles().ColorizeLines(logLines)
			}
			fmt.Fprintln(out, strings.Join(logLines, "\n"))
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "Number of lines to read from the end (0 for all)")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&filter.Component, "component", "", "Only lines from this component")
	cmd.Flags().StringVar(&filter.Match, "match", "", "Only lines containing this text")
	return cmd
}
