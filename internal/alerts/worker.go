package alerts

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/bissquit/asset-desk/internal/pkg/ctxlog"
	"github.com/bissquit/asset-desk/internal/sla"
	"github.com/bissquit/asset-desk/internal/source"
)

// Message is a rendered alert. Kind is empty for messages that are not tied
// to an SLA leg.
type Message struct {
	Kind    Kind
	Subject string
	Body    string
}

// Sender delivers rendered alerts.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Evaluator produces the current snapshot and its SLA report.
type Evaluator interface {
	Evaluate(ctx context.Context) (*source.Snapshot, *sla.Report, error)
}

// WorkerConfig contains worker configuration.
type WorkerConfig struct {
	Interval time.Duration
	// MaxAge ignores breaches whose milestone is older than this.
	MaxAge       time.Duration
	DashboardURL string
}

// DefaultWorkerConfig returns default worker configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Interval: 5 * time.Minute,
		MaxAge:   72 * time.Hour,
	}
}

// Worker periodically evaluates all incidents and alerts on new breaches.
type Worker struct {
	config    WorkerConfig
	evaluator Evaluator
	repo      Repository
	renderer  *Renderer
	sender    Sender

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewWorker creates a new alert worker.
func NewWorker(config WorkerConfig, evaluator Evaluator, repo Repository, renderer *Renderer, sender Sender) *Worker {
	return &Worker{
		config:    config,
		evaluator: evaluator,
		repo:      repo,
		renderer:  renderer,
		sender:    sender,
		stopCh:    make(chan struct{}),
	}
}

// Start launches the worker goroutine.
func (w *Worker) Start(ctx context.Context) {
	slog.Info("starting alert worker",
		"interval", w.config.Interval,
		"max_age", w.config.MaxAge,
	)

	w.wg.Add(1)
	go w.run(ctx)
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	slog.Info("alert worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.processOnce(ctx)
		}
	}
}

// processOnce evaluates the current state and sends every alert not sent before.
// It returns the number of alerts sent.
func (w *Worker) processOnce(ctx context.Context) int {
	snap, report, err := w.evaluator.Evaluate(ctx)
	if err != nil {
		slog.Error("failed to evaluate incidents for alerts", "error", err)
		return 0
	}

	alerts := Detect(snap, report, w.config.MaxAge)
	if len(alerts) == 0 {
		return 0
	}
	recordDetected(len(alerts))

	sent := 0
	for _, a := range alerts {
		if ctx.Err() != nil {
			break
		}
		if w.processAlert(ctx, a) {
			sent++
		}
	}

	if sent > 0 {
		slog.Info("sla alerts sent", "count", sent)
	}
	return sent
}

func (w *Worker) processAlert(ctx context.Context, a Alert) bool {
	ctx = ctxlog.WithAttrs(ctx, "incident_id", a.IncidentID, "leg", a.Leg, "kind", a.Kind)
	logger := ctxlog.From(ctx)

	claimed, err := w.repo.Claim(ctx, a.Key)
	if err != nil {
		logger.Error("failed to claim alert", "error", err)
		recordAlertSent("failed")
		return false
	}
	if !claimed {
		return false
	}

	a.DashboardURL = w.incidentURL(a.IncidentID)

	subject, body, err := w.renderer.Render(a)
	if err != nil {
		logger.Error("failed to render alert", "error", err)
		w.release(ctx, a.Key)
		recordAlertSent("failed")
		return false
	}

	start := time.Now()
	err = w.sender.Send(ctx, Message{Kind: a.Kind, Subject: subject, Body: body})
	if err != nil {
		w.handleSendError(ctx, a, err)
		return false
	}

	recordAlertSent("success")
	recordAlertDuration(time.Since(start))

	logger.Debug("alert sent")
	return true
}

func (w *Worker) handleSendError(ctx context.Context, a Alert, err error) {
	ctxlog.From(ctx).Warn("alert send failed", "error", err)

	if !retryable(err) {
		recordAlertSent("failed")
		return
	}

	// The next run claims the key again.
	w.release(ctx, a.Key)
	recordAlertSent("retry")
}

func (w *Worker) release(ctx context.Context, key Key) {
	if err := w.repo.Release(ctx, key); err != nil {
		ctxlog.From(ctx).Error("failed to release alert", "error", err)
	}
}

func (w *Worker) incidentURL(incidentID string) string {
	if w.config.DashboardURL == "" {
		return ""
	}
	u, err := url.JoinPath(w.config.DashboardURL, "incidents", incidentID)
	if err != nil {
		return ""
	}
	return u
}
