package main

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/SantanaDZ/cad-social/internal/app"
	"github.com/SantanaDZ/cad-social/internal/form"
	"github.com/SantanaDZ/cad-social/internal/intake"
	"github.com/SantanaDZ/cad-social/internal/remote"
)

func newReviewCommand(ctx *commandContext) *cobra.Command {
	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Review submissions stored remotely",
	}

	reviewCmd.AddCommand(newReviewListCommand(ctx))
	reviewCmd.AddCommand(newReviewShowCommand(ctx))
	reviewCmd.AddCommand(newReviewStatsCommand(ctx))
	reviewCmd.AddCommand(newReviewStatusCommand(ctx))
	reviewCmd.AddCommand(newReviewDeleteCommand(ctx))

	return reviewCmd
}

func newReviewListCommand(ctx *commandContext) *cobra.Command {
	var (
		query remote.ListQuery
		page  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			query.Status = strings.TrimSpace(query.Status)
			if query.Status != "" && !intake.ValidStatus(query.Status) {
				return invalidStatusError(query.Status)
			}
			if page < 1 {
				return fmt.Errorf("invalid page %d", page)
			}
			if page > 1 {
				if query.Limit <= 0 {
					return fmt.Errorf("--page requires a positive --limit")
				}
				query.Offset = (page - 1) * query.Limit
			}
			return ctx.withRuntime(cmd, func(rt *app.Runtime) error {
				store, err := rt.RequireRemote()
				if err != nil {
					return err
				}
				subs, err := store.List(cmd.Context(), query)
				if err != nil {
					return fmt.Errorf("list submissions: %w", err)
				}
				if len(subs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "Nenhuma inscrição encontrada.")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Nome", "Cidade", "Status", "Criada em"},
					buildReviewRows(subs),
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&query.Status, "status", "s", "", "Filter by status (pendente, aprovado, rejeitado)")
	cmd.Flags().StringVar(&query.UserID, "user", "", "Filter by submitting user id")
	cmd.Flags().StringVarP(&query.Search, "search", "q", "", "Match name, CPF or city (case-insensitive)")
	cmd.Flags().IntVarP(&query.Limit, "limit", "n", 50, "Maximum rows to show")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page of --limit rows to show")
	return cmd
}

func newReviewShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show every field of a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withRuntime(cmd, func(rt *app.Runtime) error {
				store, err := rt.RequireRemote()
				if err != nil {
					return err
				}
				rec, err := store.Get(cmd.Context(), id)
				if errors.Is(err, remote.ErrNotFound) {
					return fmt.Errorf("submission %s not found", id)
				}
				if err != nil {
					return fmt.Errorf("get submission %s: %w", id, err)
				}
				table := renderTable(
					[]string{"Campo", "Valor"},
					buildRecordRows(rec),
					[]columnAlignment{alignLeft, alignLeft},
				)
				fmt.Fprint(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
}

// recordMeta are the non-form columns shown after the form fields.
var recordMeta = []struct{ column, label string }{
	{"id", "ID"},
	{"status", "Status"},
	{"user_id", "Usuário"},
	{"created_at", "Criada em"},
	{"updated_at", "Atualizada em"},
}

func buildRecordRows(rec remote.Record) [][]string {
	schema := form.Intake()
	rows := make([][]string, 0, len(rec))
	seen := make(map[string]bool, len(rec))

	for _, name := range schema.AllFields() {
		field, _ := schema.Field(name)
		seen[name] = true
		value, ok := rec[name]
		if !ok || value == nil {
			continue
		}
		rows = append(rows, []string{field.Label, formatRecordValue(field, value)})
	}
	for _, meta := range recordMeta {
		seen[meta.column] = true
		if value, ok := rec[meta.column]; ok && value != nil {
			rows = append(rows, []string{meta.label, formatRecordValue(form.Field{}, value)})
		}
	}

	var rest []string
	for column, value := range rec {
		if !seen[column] && value != nil {
			rest = append(rest, column)
		}
	}
	sort.Strings(rest)
	for _, column := range rest {
		rows = append(rows, []string{column, formatRecordValue(form.Field{}, rec[column])})
	}
	return rows
}

func formatRecordValue(field form.Field, value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "Sim"
		}
		return "Não"
	case float64:
		if field.Kind == form.KindNumber {
			return formatCurrency(v)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Local().Format("2006-01-02 15:04")
	case [16]byte:
		return uuid.UUID(v).String()
	case string:
		if len(field.Options) > 0 {
			return form.OptionLabel(field.Options, v)
		}
		if field.Kind == form.KindNumber {
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				return formatCurrency(n)
			}
		}
		return v
	case driver.Valuer:
		if dv, err := v.Value(); err == nil && dv != nil {
			return formatRecordValue(field, dv)
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}

// formatCurrency renders v as Brazilian reais, e.g. "R$ 1.250,50".
func formatCurrency(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	cents := int64(math.Round(v * 100))
	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	out := fmt.Sprintf("R$ %s,%02d", b.String(), cents%100)
	if neg {
		out = "-" + out
	}
	return out
}

func newReviewStatsCommand(ctx *commandContext) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize submissions by status and city",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, func(rt *app.Runtime) error {
				store, err := rt.RequireRemote()
				if err != nil {
					return err
				}
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return fmt.Errorf("submission stats: %w", err)
				}
				out := cmd.OutOrStdout()
				if stats.Total == 0 {
					fmt.Fprintln(out, "Nenhuma inscrição encontrada.")
					return nil
				}

				statusRows := [][]string{}
				for _, status := range []string{intake.StatusPending, intake.StatusApproved, intake.StatusRejected} {
					statusRows = append(statusRows, []string{status, strconv.Itoa(stats.ByStatus[status])})
				}
				statusRows = append(statusRows, []string{"total", strconv.Itoa(stats.Total)})
				fmt.Fprint(out, renderTable([]string{"Status", "Inscrições"}, statusRows, []columnAlignment{alignLeft, alignRight}))

				regions := stats.ByRegion
				if top > 0 && len(regions) > top {
					regions = regions[:top]
				}
				regionRows := make([][]string, 0, len(regions))
				for _, r := range regions {
					regionRows = append(regionRows, []string{place(r.Cidade, r.Estado), strconv.Itoa(r.Total)})
				}
				fmt.Fprint(out, renderTable([]string{"Região", "Inscrições"}, regionRows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "Cities to list (0 for all)")
	return cmd
}

func buildReviewRows(subs []remote.Submission) [][]string {
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		created := ""
		if t := s.ParsedCreatedAt(); !t.IsZero() {
			created = t.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{s.ID, s.NomeCompleto, place(s.Cidade, s.Estado), s.Status, created})
	}
	return rows
}

func newReviewStatusCommand(ctx *commandContext) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "status <id> <pendente|aprovado|rejeitado>",
		Short: "Set the review status of a submission",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			status := strings.ToLower(strings.TrimSpace(args[1]))
			if !intake.ValidStatus(status) {
				return invalidStatusError(status)
			}
			partial := map[string]any{"status": status}
			if cmd.Flags().Changed("notes") {
				partial["observacoes"] = notes
			}
			return ctx.withRuntime(cmd, func(rt *app.Runtime) error {
				store, err := rt.RequireRemote()
				if err != nil {
					return err
				}
				if err := store.Update(cmd.Context(), remote.TableSubmissions, id, partial); err != nil {
					return fmt.Errorf("update submission %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Inscrição %s marcada como %s.\n", id, status)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "Reviewer notes sent with the decision e-mail")
	return cmd
}

func newReviewDeleteCommand(ctx *commandContext) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			return ctx.withRuntime(cmd, func(rt *app.Runtime) error {
				store, err := rt.RequireRemote()
				if err != nil {
					return err
				}
				if err := confirm(cmd, fmt.Sprintf("Excluir a inscrição %s?", id), yes); err != nil {
					return err
				}
				if err := store.Delete(cmd.Context(), remote.TableSubmissions, id); err != nil {
					return fmt.Errorf("delete submission %s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Inscrição %s excluída.\n", id)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func invalidStatusError(status string) error {
	return fmt.Errorf("invalid status %q (want %s, %s or %s)",
		status, intake.StatusPending, intake.StatusApproved, intake.StatusRejected)
}
