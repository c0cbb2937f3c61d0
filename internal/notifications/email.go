package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the Resend send-email API.
const DefaultEndpoint = "https://api.resend.com/emails"

const sendTimeout = 10 * time.Second

// Email is one outgoing message.
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// SendResult is the provider's acknowledgement.
type SendResult struct {
	ID string `json:"id"`
}

// Sender delivers e-mail.
type Sender interface {
	Send(ctx context.Context, msg Email) (SendResult, error)
}

// HTTPSender posts messages to a Resend-compatible API.
type HTTPSender struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewHTTPSender builds a sender for endpoint (DefaultEndpoint when empty).
func NewHTTPSender(endpoint, apiKey string) *HTTPSender {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &HTTPSender{
		endpoint: endpoint,
		apiKey:   strings.TrimSpace(apiKey),
		http:     &http.Client{Timeout: sendTimeout},
	}
}

// Send implements Sender.
func (s *HTTPSender) Send(ctx context.Context, msg Email) (SendResult, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return SendResult{}, fmt.Errorf("encode email: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return SendResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.http.Do(req)
	if err != nil {
		return SendResult{}, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
		return SendResult{}, fmt.Errorf("email api returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var result SendResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return SendResult{}, fmt.Errorf("decode response: %w", err)
	}
	return result, nil
}

// LogSender logs messages instead of sending them. It is used when no API key
// is configured.
type LogSender struct {
	Logger *slog.Logger
}

// Send implements Sender.
func (s LogSender) Send(_ context.Context, msg Email) (SendResult, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("email not sent: no email api key configured",
		slog.String("to", strings.Join(msg.To, ",")),
		slog.String("subject", msg.Subject),
	)
	return SendResult{}, nil
}
