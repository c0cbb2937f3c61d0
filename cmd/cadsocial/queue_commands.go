package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SantanaDZ/cad-social/internal/app"
	"github.com/SantanaDZ/cad-social/internal/form"
	"github.com/SantanaDZ/cad-social/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage submissions saved while offline",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueSyncCommand(ctx))
	queueCmd.AddCommand(newQueueDiscardCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued submissions in send order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *app.Runtime) error {
				items := rt.Queue.Items()
				if len(items) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nenhuma inscrição pendente.")
					return nil
				}
				table := renderTable(
					[]string{"#", "ID", "Nome", "Cidade", "Salva em"},
					buildQueueListRows(items),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

func buildQueueListRows(items []queue.Item) [][]string {
	rows := make([][]string, 0, len(items))
	for i, item := range items {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			item.ID,
			payloadText(item.Payload, form.FieldNomeCompleto),
			place(payloadText(item.Payload, form.FieldCidade), payloadText(item.Payload, form.FieldEstado)),
			item.EnqueuedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	return rows
}

func payloadText(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

func newQueueSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Send queued submissions now",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *app.Runtime) error {
				out := cmd.OutOrStdout()

				rt.Monitor.Start(cmd.Context())
				defer rt.Monitor.Stop()

				res := rt.Reconciler.Sync(cmd.Context())
				if msg := res.SkipMessage(); msg != "" {
					fmt.Fprintln(out, msg)
					return nil
				}
				for _, n := range res.Notices() {
					fmt.Fprintln(out, n.Text)
				}
				if remaining := rt.Queue.Len(); remaining > 0 {
					fmt.Fprintf(out, "%d inscrição(ões) continuam na fila.\n", remaining)
				}
				switch {
				case res.Aborted:
					return errors.New("sync aborted: sign in with `cadsocial session set`")
				case res.Failed > 0:
					return fmt.Errorf("%d submission(s) failed to sync", res.Failed)
				}
				return res.Err
			})
		},
	}
}

func newQueueDiscardCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var yes bool

	cmd := &cobra.Command{
		Use:   "discard [id...]",
		Short: "Remove queued submissions without sending them",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all == (len(args) > 0) {
				return errors.New("pass submission ids or --all")
			}
			return ctx.withRuntime(cmd, func(rt *app.Runtime) error {
				out := cmd.OutOrStdout()
				if all {
					n := rt.Queue.Len()
					if n == 0 {
						fmt.Fprintln(out, "Nenhuma inscrição pendente.")
						return nil
					}
					if err := confirm(cmd, fmt.Sprintf("Descartar %d inscrição(ões) da fila?", n), yes); err != nil {
						return err
					}
					rt.Queue.Clear()
					fmt.Fprintf(out, "%d inscrição(ões) descartada(s).\n", n)
					return nil
				}

				known := make(map[string]bool, rt.Queue.Len())
				for _, item := range rt.Queue.Items() {
					known[item.ID] = true
				}
				var missing []string
				for _, id := range args {
					if !known[id] {
						missing = append(missing, id)
					}
				}
				if len(missing) > 0 {
					return fmt.Errorf("not in queue: %s", strings.Join(missing, ", "))
				}
				if err := confirm(cmd, fmt.Sprintf("Descartar %d inscrição(ões) da fila?", len(args)), yes); err != nil {
					return err
				}
				for _, id := range args {
					rt.Queue.Remove(id)
				}
				fmt.Fprintf(out, "%d inscrição(ões) descartada(s).\n", len(args))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Discard every queued submission")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}
