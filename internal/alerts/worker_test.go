package alerts

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bissquit/asset-desk/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorker_ProcessOnce(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	repo := newMemoryRepository()
	sender := &fakeSender{}
	config := DefaultWorkerConfig()
	config.DashboardURL = "https://desk.example.com"
	worker := NewWorker(config, newStubEvaluator(at(1, 10, 0)), repo, renderer, sender)

	assert.Equal(t, 2, worker.processOnce(context.Background()))
	require.Len(t, sender.messages, 2)
	for _, msg := range sender.messages {
		assert.Contains(t, msg.Subject, "No boot")
		assert.Contains(t, msg.Body, "https://desk.example.com/incidents/late")
	}

	assert.Zero(t, worker.processOnce(context.Background()), "alerts are sent once")
	assert.Len(t, sender.messages, 2)
}

func TestWorker_RetryableFailureReleasesKey(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	repo := newMemoryRepository()
	sender := &fakeSender{err: errors.New("timeout")}
	worker := NewWorker(DefaultWorkerConfig(), newStubEvaluator(at(1, 10, 0)), repo, renderer, sender)

	assert.Zero(t, worker.processOnce(context.Background()))
	assert.Empty(t, repo.claimed)

	sender.err = nil
	assert.Equal(t, 2, worker.processOnce(context.Background()))
}

func TestWorker_PermanentFailureKeepsKey(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	repo := newMemoryRepository()
	sender := &fakeSender{err: Reject(errors.New("webhook not found"))}
	worker := NewWorker(DefaultWorkerConfig(), newStubEvaluator(at(1, 10, 0)), repo, renderer, sender)

	assert.Zero(t, worker.processOnce(context.Background()))
	assert.Len(t, repo.claimed, 2)

	sender.err = nil
	assert.Zero(t, worker.processOnce(context.Background()))
}

func TestWorker_EvaluateError(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	ev := newStubEvaluator(at(1, 10, 0))
	ev.err = source.ErrNotReady
	sender := &fakeSender{}
	worker := NewWorker(DefaultWorkerConfig(), ev, newMemoryRepository(), renderer, sender)

	assert.Zero(t, worker.processOnce(context.Background()))
	assert.Empty(t, sender.messages)
}

func TestWorker_StartStop(t *testing.T) {
	renderer, err := NewRenderer()
	require.NoError(t, err)

	sender := &fakeSender{}
	config := DefaultWorkerConfig()
	config.Interval = 10 * time.Millisecond
	worker := NewWorker(config, newStubEvaluator(at(1, 10, 0)), newMemoryRepository(), renderer, sender)

	worker.Start(context.Background())
	assert.Eventually(t, func() bool {
		sender.mu.Lock()
		defer sender.mu.Unlock()
		return len(sender.messages) == 2
	}, time.Second, 10*time.Millisecond)
	worker.Stop()
}

type classifiedError bool

func (e classifiedError) Error() string     { return "classified" }
func (e classifiedError) IsRetryable() bool { return bool(e) }

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "unclassified", err: errors.New("x"), want: true},
		{name: "rejected", err: Reject(errors.New("x")), want: false},
		{name: "wrapped rejection", err: fmt.Errorf("send: %w", Reject(errors.New("x"))), want: false},
		{name: "sender says retry", err: fmt.Errorf("send: %w", classifiedError(true)), want: true},
		{name: "sender says permanent", err: classifiedError(false), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, retryable(tt.err))
		})
	}
}
