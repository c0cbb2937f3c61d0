package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
)

// DefaultPortalURL is linked from every status e-mail.
const DefaultPortalURL = "https://cadsocial.com.br/dashboard"

// ErrNoRecipient is returned when a change has no e-mail address.
var ErrNoRecipient = errors.New("recipient email required")

// StatusChange is a review decision to announce.
type StatusChange struct {
	Email        string
	NomeCompleto string
	Status       string
	Observacoes  string
}

// Approved reports whether the decision was an approval.
func (c StatusChange) Approved() bool {
	return c.Status == "aprovado"
}

// Label is the upper-case decision shown in the subject and body.
func (c StatusChange) Label() string {
	if c.Approved() {
		return "APROVADA"
	}
	return "REJEITADA"
}

// Service renders and sends status e-mails.
type Service struct {
	sender    Sender
	from      string
	portalURL string
	logger    *slog.Logger
}

// NewService wires a Service. An empty portalURL uses DefaultPortalURL.
func NewService(sender Sender, from, portalURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(portalURL) == "" {
		portalURL = DefaultPortalURL
	}
	return &Service{sender: sender, from: from, portalURL: portalURL, logger: logger}
}

// NotifyStatusChange e-mails the submitter about the review decision.
func (s *Service) NotifyStatusChange(ctx context.Context, change StatusChange) (SendResult, error) {
	if strings.TrimSpace(change.Email) == "" {
		return SendResult{}, ErrNoRecipient
	}
	subject, body, err := s.Render(change)
	if err != nil {
		return SendResult{}, err
	}
	result, err := s.sender.Send(ctx, Email{
		From:    s.from,
		To:      []string{change.Email},
		Subject: subject,
		HTML:    body,
	})
	if err != nil {
		return SendResult{}, fmt.Errorf("send status email: %w", err)
	}
	s.logger.Info("status email sent",
		slog.String("status", change.Status),
		slog.String("email_id", result.ID),
	)
	return result, nil
}

// Render returns the subject and HTML body for change.
func (s *Service) Render(change StatusChange) (string, string, error) {
	subject := "Sua inscrição no CadSocial foi " + change.Label()
	var buf bytes.Buffer
	err := statusTemplate.Execute(&buf, struct {
		Name        string
		Label       string
		Approved    bool
		Observacoes string
		PortalURL   string
	}{
		Name:        change.NomeCompleto,
		Label:       change.Label(),
		Approved:    change.Approved(),
		Observacoes: strings.TrimSpace(change.Observacoes),
		PortalURL:   s.portalURL,
	})
	if err != nil {
		return "", "", fmt.Errorf("render status email: %w", err)
	}
	return subject, buf.String(), nil
}

var statusTemplate = template.Must(template.New("status").Parse(`<div style="font-family: sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #eee; border-radius: 8px;">
  <h2 style="color: #2563eb;">Olá, {{.Name}}!</h2>
  <p>Gostaríamos de informar que a análise da sua inscrição foi concluída.</p>
  <div style="background-color: {{if .Approved}}#f0fdf4{{else}}#fef2f2{{end}}; padding: 15px; border-radius: 6px; margin: 20px 0;">
    <p style="margin: 0; font-weight: bold; color: {{if .Approved}}#166534{{else}}#991b1b{{end}};">STATUS: {{.Label}}</p>
  </div>
  {{- if .Observacoes}}
  <p><strong>Observações do Analista:</strong></p>
  <blockquote style="border-left: 4px solid #ddd; padding-left: 15px; font-style: italic;">{{.Observacoes}}</blockquote>
  {{- end}}
  <p style="margin-top: 30px;">
    Você pode conferir todos os detalhes acessando o portal:<br>
    <a href="{{.PortalURL}}" style="display: inline-block; background-color: #2563eb; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; margin-top: 10px;">Ver minha inscrição</a>
  </p>
  <hr style="border: 0; border-top: 1px solid #eee; margin: 30px 0;">
  <p style="font-size: 12px; color: #666;">Este é um e-mail automático enviado pelo CadSocial. Por favor, não responda a este e-mail.</p>
</div>
`))
