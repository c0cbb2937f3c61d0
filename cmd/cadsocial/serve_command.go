package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/SantanaDZ/cad-social/internal/app"
	"github.com/SantanaDZ/cad-social/internal/logging"
	"github.com/SantanaDZ/cad-social/internal/notifications"
	"github.com/SantanaDZ/cad-social/internal/webhook"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the status-change webhook that e-mails review decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *app.Runtime) error {
				store, err := rt.RequireRemote()
				if err != nil {
					return err
				}
				cfg := rt.Config

				var sender notifications.Sender = notifications.LogSender{Logger: logging.Component(rt.Logger, "email")}
				if cfg.EmailAPIKey != "" {
					sender = notifications.NewHTTPSender(cfg.EmailAPIURL, cfg.EmailAPIKey)
				}
				svc := notifications.NewService(sender, cfg.EmailFrom, cfg.PortalURL, logging.Component(rt.Logger, "notifications"))
				handler := webhook.New(store, svc, cfg.WebhookSecret, logging.Component(rt.Logger, "webhook"))

				addr := strings.TrimSpace(bind)
				if addr == "" {
					addr = cfg.WebhookBind
				}
				return webhook.Serve(cmd.Context(), addr, webhook.NewRouter(handler, rt.Registry), rt.Logger)
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to webhook_bind)")
	return cmd
}
