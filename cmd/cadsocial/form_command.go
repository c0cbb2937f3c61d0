package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/SantanaDZ/cad-social/internal/app"
	"github.com/SantanaDZ/cad-social/internal/form"
	"github.com/SantanaDZ/cad-social/internal/ui"
)

func newFormCommand(ctx *commandContext) *cobra.Command {
	var probeSeconds int

	cmd := &cobra.Command{
		Use:   "form",
		Short: "Open the intake form",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runForm(cmd, ctx, probeSeconds)
		},
	}
	cmd.Flags().IntVar(&probeSeconds, "probe", 0, "Connectivity probe interval in seconds (optional)")
	return cmd
}

// runForm starts the monitor and reconciler and blocks in the TUI until the
// operator quits.
func runForm(cmd *cobra.Command, ctx *commandContext, probeSeconds int) error {
	opts, err := ctx.options(nil)
	if err != nil {
		return err
	}
	if probeSeconds > 0 {
		opts.ProbeEvery = probeSeconds
	}

	rt, err := app.Open(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	runCtx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	wait := rt.Start(runCtx)

	started := time.Now()
	uiErr := ui.Run(ui.Options{
		Context:   runCtx,
		Form:      form.New(nil, rt.Prefs.FormDefaults()),
		Submitter: rt.Submitter,
		Store:     rt.State,
		Sync:      rt.Reconciler.Sync,
		Prefs:     rt.Prefs,
		PrefsPath: ctx.prefsPath(),
	})

	cancel()
	if err := wait(); err != nil && !errors.Is(err, context.Canceled) {
		rt.Logger.Warn("background work stopped with error", slog.String("error", err.Error()))
	}
	rt.Logger.Info("form closed",
		slog.Duration("uptime", time.Since(started).Round(time.Second)),
		slog.Int("pending", rt.Queue.Len()),
	)
	if uiErr != nil {
		return fmt.Errorf("run form: %w", uiErr)
	}
	return nil
}
