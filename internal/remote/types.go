package remote

import (
	"errors"
	"fmt"
	"time"
)

const (
	// TableSubmissions holds intake records.
	TableSubmissions = "inscricoes"
	// TableProfiles maps user ids to contact details.
	TableProfiles = "profiles"

	submissionColumns = "id,user_id,nome_completo,cpf,cidade,estado,status,observacoes,created_at"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx answer from the remote store.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote store returned status %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote store returned status %d: %s", e.Status, e.Message)
}

// ListQuery filters List results. Search matches nome_completo, cpf or
// cidade case-insensitively; Offset skips rows for paging.
type ListQuery struct {
	Status string
	UserID string
	Search string
	Limit  int
	Offset int
}

// Record is a full intake row keyed by column name.
type Record map[string]any

// Submission is the summary view of a stored intake record.
type Submission struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	NomeCompleto string  `json:"nome_completo"`
	CPF          *string `json:"cpf"`
	Cidade       string  `json:"cidade"`
	Estado       string  `json:"estado"`
	Status       string  `json:"status"`
	Observacoes  *string `json:"observacoes"`
	CreatedAt    string  `json:"created_at"`
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (s Submission) ParsedCreatedAt() time.Time {
	return parseTime(s.CreatedAt)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05.999999-07", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
