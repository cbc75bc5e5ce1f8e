package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// HTTPTransport posts messages as JSON to a transactional email API.
type HTTPTransport struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	from       string
	logger     *slog.Logger
}

type httpSendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type httpSendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewHTTPTransport(endpoint, apiKey, from string, timeout time.Duration, logger *slog.Logger) *HTTPTransport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPTransport{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		apiKey:     apiKey,
		from:       from,
		logger:     logger,
	}
}

func (t *HTTPTransport) Name() string { return "http" }

// Send posts the message and returns the provider's message id.
func (t *HTTPTransport) Send(ctx context.Context, msg Message) (Result, error) {
	start := time.Now()

	body, err := json.Marshal(httpSendRequest{
		From:    t.from,
		To:      msg.To,
		Subject: msg.Subject,
		HTML:    msg.HTML,
	})
	if err != nil {
		return Result{}, fmt.Errorf("encoding email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// Limit to 4KB; providers only return a small JSON envelope.
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var parsed httpSendResponse
	_ = json.Unmarshal(raw, &parsed)

	elapsed := time.Since(start).Milliseconds()

	if resp.StatusCode >= 400 {
		reason := parsed.Error
		if reason == "" {
			reason = parsed.Message
		}
		if reason == "" {
			reason = string(raw)
		}
		t.logger.Warn("email rejected",
			"request_id", requestID,
			"status_code", resp.StatusCode,
			"response_time_ms", elapsed,
		)
		return Result{}, fmt.Errorf("mail provider returned %d: %s", resp.StatusCode, reason)
	}

	id := parsed.ID
	if id == "" {
		id = requestID
	}

	t.logger.Debug("email accepted",
		"message_id", id,
		"status_code", resp.StatusCode,
		"response_time_ms", elapsed,
	)

	return Result{MessageID: id}, nil
}
