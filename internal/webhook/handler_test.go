package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SantanaDZ/cad-social/internal/notifications"
	"github.com/SantanaDZ/cad-social/internal/remote"
)

type stubProfiles map[string]string

func (s stubProfiles) ProfileEmail(_ context.Context, userID string) (string, error) {
	if email, ok := s[userID]; ok {
		return email, nil
	}
	return "", remote.ErrNotFound
}

type stubNotifier struct {
	changes []notifications.StatusChange
	err     error
}

func (s *stubNotifier) NotifyStatusChange(_ context.Context, change notifications.StatusChange) (notifications.SendResult, error) {
	s.changes = append(s.changes, change)
	if s.err != nil {
		return notifications.SendResult{}, s.err
	}
	return notifications.SendResult{ID: "re_1"}, nil
}

func newTestRouter(t *testing.T, notifier *stubNotifier, secret string) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(stubProfiles{"user-42": "ana@example.com"}, notifier, secret, logger)
	return NewRouter(h, prometheus.NewRegistry())
}

func post(t *testing.T, router http.Handler, body string, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/hooks/status-change", strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec, decoded
}

func TestHandleStatusChange(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantKey    string
		wantValue  string
		wantSent   int
	}{
		{
			name:       "unchanged status",
			body:       `{"record":{"user_id":"user-42","status":"aprovado"},"old_record":{"status":"aprovado"}}`,
			wantStatus: http.StatusOK, wantKey: "message", wantValue: "Status não alterado",
		},
		{
			name:       "back to pending",
			body:       `{"record":{"user_id":"user-42","status":"pendente"},"old_record":{"status":"rejeitado"}}`,
			wantStatus: http.StatusOK, wantKey: "message", wantValue: "Notificação não necessária para pendente",
		},
		{
			name:       "missing profile email",
			body:       `{"record":{"user_id":"ghost","status":"aprovado"},"old_record":{"status":"pendente"}}`,
			wantStatus: http.StatusBadRequest, wantKey: "error", wantValue: "E-mail não encontrado",
		},
		{
			name:       "approved sends email",
			body:       `{"record":{"id":"s1","user_id":"user-42","nome_completo":"Ana Silva","status":"aprovado","observacoes":"ok"},"old_record":{"status":"pendente"}}`,
			wantStatus: http.StatusOK, wantKey: "id", wantValue: "re_1", wantSent: 1,
		},
		{
			name:       "malformed body",
			body:       `{"record":`,
			wantStatus: http.StatusBadRequest, wantKey: "error", wantValue: "corpo inválido",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &stubNotifier{}
			rec, body := post(t, newTestRouter(t, notifier, ""), tt.body, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantValue, body[tt.wantKey])
			assert.Len(t, notifier.changes, tt.wantSent)
		})
	}
}

func TestHandleStatusChange_PassesDecisionToNotifier(t *testing.T) {
	notifier := &stubNotifier{}
	_, _ = post(t, newTestRouter(t, notifier, ""),
		`{"record":{"user_id":"user-42","nome_completo":"Ana Silva","status":"rejeitado","observacoes":"Renda acima do limite"},"old_record":{"status":"pendente"}}`, nil)

	require.Len(t, notifier.changes, 1)
	assert.Equal(t, notifications.StatusChange{
		Email:        "ana@example.com",
		NomeCompleto: "Ana Silva",
		Status:       "rejeitado",
		Observacoes:  "Renda acima do limite",
	}, notifier.changes[0])
}

func TestHandleStatusChange_NotifierFailure(t *testing.T) {
	notifier := &stubNotifier{err: errors.New("email api returned status 500")}
	rec, body := post(t, newTestRouter(t, notifier, ""),
		`{"record":{"user_id":"user-42","status":"aprovado"},"old_record":{"status":"pendente"}}`, nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body["error"], "status 500")
}

func TestHandleStatusChange_LogsFailureAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	notifier := &stubNotifier{err: errors.New("email api returned status 500")}
	router := NewRouter(New(stubProfiles{"user-42": "ana@example.com"}, notifier, "", logger), prometheus.NewRegistry())

	rec, _ := post(t, router,
		`{"record":{"id":"sub-9","user_id":"user-42","status":"aprovado"},"old_record":{"status":"pendente"}}`, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	rec, _ = post(t, router,
		`{"record":{"id":"sub-10","user_id":"ghost","status":"rejeitado"},"old_record":{"status":"pendente"}}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	require.Len(t, entries, 2)

	assert.Equal(t, "status email failed", entries[0]["msg"])
	assert.Equal(t, "sub-9", entries[0]["submission_id"])
	assert.Equal(t, "aprovado", entries[0]["status"])
	assert.Equal(t, "email api returned status 500", entries[0]["error"])

	assert.Equal(t, "submitter email not found", entries[1]["msg"])
	assert.Equal(t, "ghost", entries[1]["user_id"])
}

func TestHandleStatusChange_RequiresSecretWhenConfigured(t *testing.T) {
	notifier := &stubNotifier{}
	router := newTestRouter(t, notifier, "hook-secret")
	payload := `{"record":{"user_id":"user-42","status":"aprovado"},"old_record":{"status":"pendente"}}`

	rec, _ := post(t, router, payload, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = post(t, router, payload, http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = post(t, router, payload, http.Header{"Authorization": {"Bearer hook-secret"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, notifier.changes, 1)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	router := newTestRouter(t, &stubNotifier{}, "")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
