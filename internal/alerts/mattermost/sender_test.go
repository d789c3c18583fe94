package mattermost

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bissquit/asset-desk/internal/alerts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSender_Defaults(t *testing.T) {
	sender := NewSender(Config{})

	assert.Equal(t, defaultUsername, sender.config.Username)
	assert.Equal(t, defaultTimeout, sender.config.Timeout)
	assert.NotNil(t, sender.httpClient)
	assert.NotNil(t, sender.limiter)
}

func TestSender_Send_Payload(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewSender(Config{
		WebhookURL: server.URL,
		Channel:    "service-desk",
		IconURL:    "https://example.com/icon.png",
	})
	err := sender.Send(context.Background(), alerts.Message{
		Kind:    alerts.KindBreached,
		Subject: "[SLA Breached] No boot",
		Body:    "details",
	})
	require.NoError(t, err)

	assert.Empty(t, got.Text)
	assert.Equal(t, "service-desk", got.Channel)
	assert.Equal(t, "asset-desk", got.Username)
	assert.Equal(t, "https://example.com/icon.png", got.IconURL)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, attachment{
		Fallback: "[SLA Breached] No boot",
		Color:    "#d24b4e",
		Title:    "[SLA Breached] No boot",
		Text:     "details",
	}, got.Attachments[0])
}

func TestSender_Send_OverdueColor(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NewSender(Config{WebhookURL: server.URL}).Send(context.Background(), alerts.Message{
		Kind:    alerts.KindOverdue,
		Subject: "[SLA Overdue] Printer jam",
		Body:    "running",
	})
	require.NoError(t, err)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, "#f5a623", got.Attachments[0].Color)
}

func TestSender_Send_Markdown(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NewSender(Config{WebhookURL: server.URL}).Send(context.Background(), alerts.Message{
		Subject: "Weekly digest",
		Body:    "3 breaches",
	})
	require.NoError(t, err)
	assert.Equal(t, "### Weekly digest\n\n3 breaches", got.Text)
	assert.Empty(t, got.Attachments)
}

func TestSender_Send_BodyOnly(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := NewSender(Config{WebhookURL: server.URL}).Send(context.Background(), alerts.Message{Body: "plain"})
	require.NoError(t, err)
	assert.Equal(t, "plain", got.Text)
	assert.Empty(t, got.Channel)
}

func TestSender_Send_StatusHandling(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantRetryable bool
		wantContains  string
	}{
		{name: "bad request", status: http.StatusBadRequest, body: "invalid payload", wantContains: "invalid payload"},
		{name: "unauthorized", status: http.StatusUnauthorized, wantContains: "invalid or expired webhook"},
		{name: "forbidden", status: http.StatusForbidden, wantContains: "invalid or expired webhook"},
		{name: "not found", status: http.StatusNotFound, wantContains: "webhook not found"},
		{name: "rate limited", status: http.StatusTooManyRequests, wantRetryable: true, wantContains: "rate limited"},
		{name: "server error", status: http.StatusInternalServerError, body: "boom", wantRetryable: true, wantContains: "boom"},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantRetryable: true, wantContains: "server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewSender(Config{WebhookURL: server.URL}).Send(context.Background(), alerts.Message{Body: "x"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantContains)

			var r interface{ IsRetryable() bool }
			require.ErrorAs(t, err, &r)
			assert.Equal(t, tt.wantRetryable, r.IsRetryable())
		})
	}
}

func TestSender_Send_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("I'm a teapot"))
	}))
	defer server.Close()

	err := NewSender(Config{WebhookURL: server.URL}).Send(context.Background(), alerts.Message{Body: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 418")
}

func TestSender_Send_EmptyWebhook(t *testing.T) {
	err := NewSender(Config{}).Send(context.Background(), alerts.Message{Body: "x"})

	var permErr *PermanentError
	require.ErrorAs(t, err, &permErr)
	assert.Contains(t, permErr.Message, "webhook URL is empty")
}

func TestSender_Send_NetworkError(t *testing.T) {
	sender := NewSender(Config{
		WebhookURL: "http://localhost:59999",
		Timeout:    100 * time.Millisecond,
	})

	err := sender.Send(context.Background(), alerts.Message{Body: "x"})

	var retryErr *RetryableError
	require.ErrorAs(t, err, &retryErr)
	assert.Contains(t, retryErr.Message, "send request")
}

func TestSender_Send_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewSender(Config{WebhookURL: server.URL}).Send(ctx, alerts.Message{Body: "x"})

	var retryErr *RetryableError
	require.ErrorAs(t, err, &retryErr)
	assert.True(t, retryErr.IsRetryable())
}

func TestSender_Send_RateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewSender(Config{WebhookURL: server.URL, RateLimit: 20})

	start := time.Now()
	for range 3 {
		require.NoError(t, sender.Send(context.Background(), alerts.Message{Body: "x"}))
	}

	assert.Equal(t, int32(3), calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond, "burst of one at 20/s spaces sends by 50ms")
}

func TestMaskWebhookURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "short", url: "http://example.com/hook", want: "http://example.com/hook"},
		{name: "exactly 40 chars", url: "http://example.com/hooks/abcdefghijklmno", want: "http://example.com/hooks/abcdefghijklmno"},
		{name: "long", url: "https://mattermost.example.com/hooks/abc123def456ghi789", want: "https://mattermost.e...i789"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, maskWebhookURL(tt.url))
		})
	}
}
