// Package mattermost posts SLA alerts to a Mattermost incoming webhook.
package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bissquit/asset-desk/internal/alerts"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultUsername = "asset-desk"

	// maxErrorBody bounds how much of a failed response ends up in an error.
	maxErrorBody = 512
)

// Attachment colours by alert kind.
var kindColors = map[alerts.Kind]string{
	alerts.KindBreached: "#d24b4e",
	alerts.KindOverdue:  "#f5a623",
}

// Config holds Mattermost sender configuration.
type Config struct {
	WebhookURL string
	Channel    string        // overrides the webhook's default channel when set
	Username   string        // display name, default "asset-desk"
	IconURL    string        // optional
	Timeout    time.Duration // request timeout
	// RateLimit is the maximum number of messages per second; zero disables it.
	RateLimit float64
}

// Sender implements alerts.Sender via an incoming webhook.
type Sender struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSender creates a new Mattermost sender.
func NewSender(config Config) *Sender {
	if config.Username == "" {
		config.Username = defaultUsername
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	return &Sender{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

type webhookPayload struct {
	Text        string       `json:"text,omitempty"`
	Channel     string       `json:"channel,omitempty"`
	Username    string       `json:"username,omitempty"`
	IconURL     string       `json:"icon_url,omitempty"`
	Attachments []attachment `json:"attachments,omitempty"`
}

type attachment struct {
	Fallback string `json:"fallback"`
	Color    string `json:"color,omitempty"`
	Title    string `json:"title,omitempty"`
	Text     string `json:"text"`
}

// payload renders leg alerts as a coloured attachment and anything else as
// plain markdown.
func (s *Sender) payload(msg alerts.Message) webhookPayload {
	p := webhookPayload{
		Channel:  s.config.Channel,
		Username: s.config.Username,
		IconURL:  s.config.IconURL,
	}

	if color, ok := kindColors[msg.Kind]; ok {
		p.Attachments = []attachment{{
			Fallback: msg.Subject,
			Color:    color,
			Title:    msg.Subject,
			Text:     msg.Body,
		}}
		return p
	}

	if msg.Subject != "" {
		p.Text = fmt.Sprintf("### %s\n\n%s", msg.Subject, msg.Body)
	} else {
		p.Text = msg.Body
	}
	return p
}

// Send posts msg to the configured webhook, waiting for the rate limiter first.
func (s *Sender) Send(ctx context.Context, msg alerts.Message) error {
	if s.config.WebhookURL == "" {
		return &PermanentError{Message: "webhook URL is empty"}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return &RetryableError{Message: fmt.Sprintf("rate limiter: %v", err)}
	}

	body, err := json.Marshal(s.payload(msg))
	if err != nil {
		return &PermanentError{Message: fmt.Sprintf("marshal payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return &PermanentError{Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &RetryableError{Message: fmt.Sprintf("send request: %v", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &RetryableError{Message: fmt.Sprintf("read response: %v", err)}
	}

	if err := classify(resp.StatusCode, string(respBody)); err != nil {
		return err
	}

	slog.Debug("mattermost message sent",
		"webhook", maskWebhookURL(s.config.WebhookURL),
		"kind", msg.Kind,
	)
	return nil
}

// classify turns a webhook status into nil, a PermanentError or a
// RetryableError. Throttling and server failures are worth another try.
func classify(status int, body string) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusBadRequest:
		return &PermanentError{Code: status, Message: "bad request: " + body}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &PermanentError{Code: status, Message: "invalid or expired webhook"}
	case status == http.StatusNotFound:
		return &PermanentError{Code: status, Message: "webhook not found"}
	case status == http.StatusTooManyRequests:
		return &RetryableError{Code: status, Message: "rate limited"}
	case status >= http.StatusInternalServerError:
		return &RetryableError{Code: status, Message: "server error: " + body}
	default:
		return fmt.Errorf("unexpected status %d: %s", status, body)
	}
}

// maskWebhookURL hides the webhook key for logging.
func maskWebhookURL(url string) string {
	if len(url) > 40 {
		return url[:20] + "..." + url[len(url)-4:]
	}
	return url
}

// PermanentError is a delivery failure that repeating will not fix.
type PermanentError struct {
	Code    int
	Message string
}

func (e *PermanentError) Error() string {
	return formatError(e.Code, e.Message)
}

// IsRetryable reports false.
func (e *PermanentError) IsRetryable() bool { return false }

// RetryableError is a delivery failure expected to clear up.
type RetryableError struct {
	Code    int
	Message string
}

func (e *RetryableError) Error() string {
	return formatError(e.Code, e.Message)
}

// IsRetryable reports true.
func (e *RetryableError) IsRetryable() bool { return true }

func formatError(code int, msg string) string {
	if code > 0 {
		return fmt.Sprintf("mattermost error %d: %s", code, msg)
	}
	return "mattermost error: " + msg
}
