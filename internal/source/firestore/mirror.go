// Package firestore keeps an in-memory mirror of the dashboard's Firestore
// collections, updated in real time through snapshot listeners.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/pkg/metrics"
	"github.com/bissquit/asset-desk/internal/source"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Config configures the Firestore connection.
type Config struct {
	ProjectID  string
	DatabaseID string
}

// collection holds the decoded documents of one Firestore collection.
type collection[T any] struct {
	name   string
	decode func(id string, dataTo func(any) error) (*T, error)
	docs   map[string]*T
	synced bool
	readAt time.Time
}

func newCollection[T any](name string, decode func(id string, dataTo func(any) error) (*T, error)) *collection[T] {
	return &collection[T]{
		name:   name,
		decode: decode,
		docs:   make(map[string]*T),
	}
}

func (c *collection[T]) upsert(id string, dataTo func(any) error) {
	rec, err := c.decode(id, dataTo)
	if err != nil {
		metrics.SourceDecodeErrors.WithLabelValues(c.name).Inc()
		slog.Warn("skipping undecodable document",
			"collection", c.name,
			"document_id", id,
			"error", err,
		)
		// The previous version of the document is stale now.
		delete(c.docs, id)
		return
	}
	c.docs[id] = rec
}

func (c *collection[T]) remove(id string) {
	delete(c.docs, id)
}

// values returns the documents ordered by document ID.
func (c *collection[T]) values() []*T {
	ids := make([]string, 0, len(c.docs))
	for id := range c.docs {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.docs[id])
	}
	return out
}

// change is a document change independent of the Firestore client types.
type change struct {
	removed bool
	id      string
	dataTo  func(any) error
}

func decodeWith[D any, T any](convert func(D, string) (*T, error)) func(string, func(any) error) (*T, error) {
	return func(id string, dataTo func(any) error) (*T, error) {
		var doc D
		if err := dataTo(&doc); err != nil {
			return nil, fmt.Errorf("%w: %w", source.ErrMalformedDocument, err)
		}
		return convert(doc, id)
	}
}

// Mirror implements source.Reader over live Firestore collections.
type Mirror struct {
	client *firestore.Client

	mu        sync.RWMutex
	users     *collection[domain.User]
	equipment *collection[domain.Equipment]
	incidents *collection[domain.Incident]

	ready     chan struct{}
	readyOnce sync.Once
}

// New connects to Firestore. Call Run to start listening.
func New(ctx context.Context, cfg Config) (*Mirror, error) {
	client, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, cfg.DatabaseID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}

	// Fail fast on wrong project or credentials; an empty collection is fine.
	_, err = client.Collection(source.CollectionEquipment).Limit(1).Documents(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		code := status.Code(err)
		if code == codes.PermissionDenied || code == codes.Unauthenticated {
			_ = client.Close()
			return nil, fmt.Errorf("connect to firestore project %s: %w", cfg.ProjectID, err)
		}
		slog.Debug("firestore connection probe returned error",
			"error", err,
			"code", code.String(),
		)
	}

	slog.Info("firestore mirror initialized",
		"project_id", cfg.ProjectID,
		"database_id", cfg.DatabaseID,
	)

	m := newMirror()
	m.client = client
	return m, nil
}

func newMirror() *Mirror {
	return &Mirror{
		users:     newCollection(source.CollectionUsers, decodeWith(source.UserDoc.ToUser)),
		equipment: newCollection(source.CollectionEquipment, decodeWith(source.EquipmentDoc.ToEquipment)),
		incidents: newCollection(source.CollectionIncidents, decodeWith(source.IncidentDoc.ToIncident)),
		ready:     make(chan struct{}),
	}
}

// Run listens to all collections until ctx is cancelled or a listener fails.
func (m *Mirror) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return listen(gctx, m, m.client, m.users) })
	g.Go(func() error { return listen(gctx, m, m.client, m.equipment) })
	g.Go(func() error { return listen(gctx, m, m.client, m.incidents) })

	err := g.Wait()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Close releases the Firestore client.
func (m *Mirror) Close() error {
	if m.client == nil {
		return nil
	}
	return m.client.Close()
}

func listen[T any](ctx context.Context, m *Mirror, client *firestore.Client, c *collection[T]) error {
	it := client.Collection(c.name).Snapshots(ctx)
	defer it.Stop()

	for {
		snap, err := it.Next()
		if err != nil {
			if ctx.Err() != nil || status.Code(err) == codes.Canceled {
				return nil
			}
			return fmt.Errorf("listen to %s: %w", c.name, err)
		}

		changes := make([]change, 0, len(snap.Changes))
		for _, ch := range snap.Changes {
			changes = append(changes, change{
				removed: ch.Kind == firestore.DocumentRemoved,
				id:      ch.Doc.Ref.ID,
				dataTo:  ch.Doc.DataTo,
			})
		}
		apply(m, c, changes, snap.ReadTime)
	}
}

func apply[T any](m *Mirror, c *collection[T], changes []change, readAt time.Time) {
	m.mu.Lock()
	for _, ch := range changes {
		if ch.removed {
			c.remove(ch.id)
			continue
		}
		c.upsert(ch.id, ch.dataTo)
	}
	c.synced = true
	c.readAt = readAt
	count := len(c.docs)
	allSynced := m.users.synced && m.equipment.synced && m.incidents.synced
	m.mu.Unlock()

	metrics.SourceDocuments.WithLabelValues(c.name).Set(float64(count))
	slog.Debug("firestore collection updated",
		"collection", c.name,
		"changes", len(changes),
		"documents", count,
	)

	if allSynced {
		m.readyOnce.Do(func() {
			slog.Info("firestore mirror ready")
			close(m.ready)
		})
	}
}

// Ready reports whether every collection has delivered its initial state.
func (m *Mirror) Ready() bool {
	select {
	case <-m.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the mirror is ready or ctx is done.
func (m *Mirror) WaitReady(ctx context.Context) error {
	select {
	case <-m.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for firestore mirror: %w", ctx.Err())
	}
}

// Snapshot returns the current state of the mirror.
func (m *Mirror) Snapshot(_ context.Context) (*source.Snapshot, error) {
	if !m.Ready() {
		return nil, source.ErrNotReady
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	readAt := m.users.readAt
	for _, t := range []time.Time{m.equipment.readAt, m.incidents.readAt} {
		if t.Before(readAt) {
			readAt = t
		}
	}

	return &source.Snapshot{
		Users:     m.users.values(),
		Equipment: m.equipment.values(),
		Incidents: m.incidents.values(),
		ReadAt:    readAt.UTC(),
	}, nil
}
