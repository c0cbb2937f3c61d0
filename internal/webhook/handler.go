package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/SantanaDZ/cad-social/internal/notifications"
	"github.com/SantanaDZ/cad-social/internal/remote"
)

// ProfileLookup resolves the e-mail of a submitter.
type ProfileLookup interface {
	ProfileEmail(ctx context.Context, userID string) (string, error)
}

// Notifier sends the decision e-mail.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, change notifications.StatusChange) (notifications.SendResult, error)
}

// Record is the subset of a submissions row the hook needs.
type Record struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	NomeCompleto string  `json:"nome_completo"`
	Status       string  `json:"status"`
	Observacoes  *string `json:"observacoes"`
}

// StatusChangeEvent is the database webhook payload for an UPDATE.
type StatusChangeEvent struct {
	Record    Record `json:"record"`
	OldRecord Record `json:"old_record"`
}

// Handler serves the status-change database webhook.
type Handler struct {
	profiles ProfileLookup
	notifier Notifier
	secret   string
	logger   *slog.Logger
}

// New constructs a webhook handler. When secret is non-empty, requests must
// carry it as a bearer token.
func New(profiles ProfileLookup, notifier Notifier, secret string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		profiles: profiles,
		notifier: notifier,
		secret:   strings.TrimSpace(secret),
		logger:   logger,
	}
}

// Register mounts webhook endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/hooks/status-change", h.HandleStatusChange)
}

// HandleStatusChange handles POST /hooks/status-change requests.
func (h *Handler) HandleStatusChange(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "não autorizado"})
		return
	}

	var event StatusChangeEvent
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&event); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "corpo inválido"})
		return
	}

	if event.Record.Status == event.OldRecord.Status {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Status não alterado"})
		return
	}
	if event.Record.Status == "pendente" {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Notificação não necessária para pendente"})
		return
	}

	email, err := h.profiles.ProfileEmail(ctx, event.Record.UserID)
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			h.logger.ErrorContext(ctx, "submitter email not found", slog.String("user_id", event.Record.UserID))
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "E-mail não encontrado"})
			return
		}
		h.logger.ErrorContext(ctx, "profile lookup failed",
			slog.String("user_id", event.Record.UserID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	change := notifications.StatusChange{
		Email:        email,
		NomeCompleto: event.Record.NomeCompleto,
		Status:       event.Record.Status,
	}
	if event.Record.Observacoes != nil {
		change.Observacoes = *event.Record.Observacoes
	}
	result, err := h.notifier.NotifyStatusChange(ctx, change)
	if err != nil {
		h.logger.ErrorContext(ctx, "status email failed",
			slog.String("submission_id", event.Record.ID),
			slog.String("status", event.Record.Status),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return true
	}
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(h.secret)) == 1
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
