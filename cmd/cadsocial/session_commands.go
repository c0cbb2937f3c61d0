package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SantanaDZ/cad-social/internal/identity"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the operator session used to attribute submissions",
	}

	sessionCmd.AddCommand(newSessionSetCommand(ctx))
	sessionCmd.AddCommand(newSessionShowCommand(ctx))
	sessionCmd.AddCommand(newSessionClearCommand(ctx))

	return sessionCmd
}

func newSessionSetCommand(ctx *commandContext) *cobra.Command {
	var token string
	var email string

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Store an access token (reads stdin when --token is omitted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			token = strings.TrimSpace(token)
			if token == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("no token given: pass --token or pipe it on stdin")
				}
				token = strings.TrimSpace(line)
			}
			if token == "" {
				return errors.New("no token given: pass --token or pipe it on stdin")
			}

			session := identity.Session{AccessToken: token, Email: strings.TrimSpace(email)}
			if err := identity.SaveSession(cfg.SessionPath, session); err != nil {
				return err
			}
			user, err := identity.NewSessionProvider(cfg.SessionPath, cfg.JWTSecret, nil).CurrentUser(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: session saved but not usable: %v\n", err)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sessão salva para %s.\n", describeUser(user))
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Access token (JWT)")
	cmd.Flags().StringVar(&email, "email", "", "E-mail to use when the token has none")
	return cmd
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the signed-in operator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			user, err := identity.NewSessionProvider(cfg.SessionPath, cfg.JWTSecret, nil).CurrentUser(cmd.Context())
			if errors.Is(err, identity.ErrNoIdentity) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nenhuma sessão ativa.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sessão ativa: %s\n", describeUser(user))
			return nil
		},
	}
}

func newSessionClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := identity.ClearSession(cfg.SessionPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sessão removida.")
			return nil
		},
	}
}

func describeUser(user identity.Identity) string {
	if user.Email == "" {
		return user.UserID
	}
	return fmt.Sprintf("%s (%s)", user.Email, user.UserID)
}
