package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SantanaDZ/cad-social/internal/identity"
	"github.com/SantanaDZ/cad-social/internal/remote"
)

// Review statuses of a submission.
const (
	StatusPending  = "pendente"
	StatusApproved = "aprovado"
	StatusRejected = "rejeitado"
)

// Operator-facing messages.
const (
	MessageSent           = "Inscrição salva com sucesso!"
	MessageQueuedTitle    = "Você está offline"
	MessageQueuedDetail   = "A inscrição foi salva localmente e será enviada quando a conexão voltar."
	MessageSessionExpired = "Sessão expirada. Faça login novamente."
	MessageSaveFailed     = "Erro ao salvar inscrição"
	MessageUnexpected     = "Erro inesperado ao salvar"
)

// ValidStatus reports whether s is a known review status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Connectivity reports current reachability of the remote store.
type Connectivity interface {
	Online() bool
}

// Enqueuer captures a payload for later delivery.
type Enqueuer interface {
	Enqueue(payload map[string]any) (string, error)
}

// Outcome describes where a submission went.
type Outcome struct {
	Sent    bool
	Queued  bool
	QueueID string
	Message string
}

// BuildRecord copies payload and attributes it to userID as a new pending
// submission.
func BuildRecord(payload map[string]any, userID string) map[string]any {
	record := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		record[k] = v
	}
	record["user_id"] = userID
	record["status"] = StatusPending
	return record
}

// Submitter routes validated payloads: straight to the remote store while
// online, into the offline queue otherwise.
type Submitter struct {
	conn     Connectivity
	queue    Enqueuer
	remote   remote.Inserter
	identity identity.Provider
	logger   *slog.Logger
}

// NewSubmitter wires a Submitter.
func NewSubmitter(conn Connectivity, queue Enqueuer, store remote.Inserter, ident identity.Provider, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{conn: conn, queue: queue, remote: store, identity: ident, logger: logger}
}

// Submit delivers or queues payload. While offline it never touches the
// network or the identity provider.
func (s *Submitter) Submit(ctx context.Context, payload map[string]any) (Outcome, error) {
	if !s.conn.Online() {
		id, err := s.queue.Enqueue(payload)
		if err != nil {
			return Outcome{}, fmt.Errorf("queue submission: %w", err)
		}
		return Outcome{
			Queued:  true,
			QueueID: id,
			Message: MessageQueuedTitle + ". " + MessageQueuedDetail,
		}, nil
	}

	user, err := s.identity.CurrentUser(ctx)
	if err != nil {
		s.logger.Warn("submission refused without signed-in user", slog.String("error", err.Error()))
		return Outcome{}, fmt.Errorf("resolve identity: %w", err)
	}
	if err := s.remote.Insert(ctx, remote.TableSubmissions, BuildRecord(payload, user.UserID)); err != nil {
		s.logger.Warn("submission insert failed", slog.String("error", err.Error()))
		return Outcome{}, fmt.Errorf("insert submission: %w", err)
	}
	s.logger.Info("submission sent", slog.String("user_id", user.UserID))
	return Outcome{Sent: true, Message: MessageSent}, nil
}

// Describe turns a Submit error into the message shown to the operator.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, identity.ErrNoIdentity) {
		return MessageSessionExpired
	}
	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		return MessageSaveFailed + ": " + apiErr.Message
	}
	return MessageUnexpected
}
