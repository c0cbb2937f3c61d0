package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/SantanaDZ/cad-social/internal/form"
	"github.com/SantanaDZ/cad-social/internal/intake"
	"github.com/SantanaDZ/cad-social/internal/state"
)

func (m Model) renderMain() string {
	sections := []string{
		m.renderHeader(),
		m.renderStep(),
	}
	if notices := m.renderNotices(); notices != "" {
		sections = append(sections, notices)
	}
	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderHeader renders the status bar: app name, connectivity, queue length
// and sync activity.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	parts := []string{styles.Logo.Render("CadSocial")}
	switch {
	case !snap.HasOnline:
		parts = append(parts, styles.MutedText.Render("verificando conexão..."))
	case snap.Online:
		parts = append(parts, styles.OnlineBadge.Render("ONLINE"))
	default:
		parts = append(parts, styles.OfflineBadge.Render("OFFLINE"))
	}
	if snap.Pending > 0 {
		parts = append(parts, styles.PendingBadge.Render(pendingLabel(snap.Pending)))
	}
	if snap.Syncing {
		parts = append(parts, styles.InfoText.Render("sincronizando..."))
	} else if !snap.LastSyncAt.IsZero() {
		parts = append(parts, styles.FaintText.Render("última sincronização "+snap.LastSyncAt.Local().Format("15:04:05")))
	}

	header := styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
	if banner := offlineBanner(snap); banner != "" {
		header = lipgloss.JoinVertical(lipgloss.Left, header, styles.WarningText.Padding(0, 1).Render(banner))
	}
	return header
}

func (m Model) renderStep() string {
	styles := m.theme.Styles()
	step := m.form.CurrentStep()
	total := len(m.form.Schema().Steps)
	errs := m.form.Errors()

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(
		fmt.Sprintf("Etapa %d de %d · %s", m.form.Step()+1, total, step.Title)))
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render(step.Description))
	b.WriteString("\n\n")

	for i, name := range m.names {
		field, _ := m.form.Schema().Field(name)
		label := field.Label
		if field.Required {
			label += " *"
		}

		var block strings.Builder
		block.WriteString(styles.Text.Bold(i == m.focus).Render(label))
		block.WriteString("\n")
		block.WriteString(m.inputs[i].View())
		if msg, ok := errs[name]; ok {
			block.WriteString("\n")
			block.WriteString(styles.DangerText.Render(msg))
		}

		fieldStyle := styles.Field
		if i == m.focus {
			fieldStyle = styles.FocusedField
		}
		b.WriteString(fieldStyle.Render(block.String()))
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) renderNotices() string {
	if len(m.snapshot.Notices) == 0 {
		return ""
	}
	styles := m.theme.Styles()
	lines := make([]string, 0, len(m.snapshot.Notices))
	for _, n := range m.snapshot.Notices {
		style := styles.SuccessText
		if n.Error {
			style = styles.DangerText
		}
		lines = append(lines, style.Render(n.Text))
	}
	return lipgloss.NewStyle().Padding(0, 2).Render(strings.Join(lines, "\n"))
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	var parts []string
	for _, binding := range m.keys.footer() {
		if m.sync == nil && binding.Help().Key == m.keys.Sync.Help().Key {
			continue
		}
		h := binding.Help()
		parts = append(parts, styles.AccentText.Render(h.Key)+" "+h.Desc)
	}
	if m.submitting {
		parts = append([]string{styles.InfoText.Render("enviando...")}, parts...)
	}
	return styles.Footer.Width(m.width).Render(strings.Join(parts, "  "))
}

// offlineBanner is the line shown under the header while offline.
func offlineBanner(snap state.Snapshot) string {
	if !snap.IsOffline() {
		return ""
	}
	if snap.Pending == 0 {
		return intake.MessageQueuedTitle + ". Novas inscrições serão salvas localmente."
	}
	return fmt.Sprintf("%s. %s aguardando envio.", intake.MessageQueuedTitle, pendingLabel(snap.Pending))
}

func pendingLabel(n int) string {
	if n == 1 {
		return "1 inscrição pendente"
	}
	return strconv.Itoa(n) + " inscrições pendentes"
}

// placeholder hints at the accepted input for a field.
func placeholder(f form.Field) string {
	switch {
	case f.Name == form.FieldEstado:
		return "UF, ex.: PE"
	case len(f.Options) > 0:
		values := make([]string, len(f.Options))
		for i, opt := range f.Options {
			values[i] = opt.Value
		}
		return strings.Join(values, " | ")
	case f.Kind == form.KindBool:
		return "sim | não"
	case f.Kind == form.KindNumber:
		return "0,00"
	case f.Kind == form.KindInteger:
		return "1"
	case f.Name == form.FieldDataNascimento:
		return "AAAA-MM-DD"
	}
	return ""
}

// displayValue renders a raw controller value for a text input.
func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "sim"
		}
		return "não"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}
