package source

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/incidents"
	"github.com/bissquit/asset-desk/internal/inventory"
	"github.com/bissquit/asset-desk/internal/users"
	"golang.org/x/sync/errgroup"
)

// EquipmentLister lists equipment.
type EquipmentLister interface {
	ListEquipment(ctx context.Context, filter inventory.Filter) ([]*domain.Equipment, error)
}

// IncidentLister lists incidents with their histories.
type IncidentLister interface {
	ListIncidents(ctx context.Context, filter incidents.Filter) ([]*domain.Incident, error)
}

// UserLister lists users.
type UserLister interface {
	ListUsers(ctx context.Context, filter users.Filter) ([]*domain.User, error)
}

// RepositoryReader builds snapshots from the relational store.
type RepositoryReader struct {
	equipment EquipmentLister
	incidents IncidentLister
	users     UserLister
	now       func() time.Time
}

// NewRepositoryReader creates a reader backed by the inventory, incidents and users services.
func NewRepositoryReader(equipment EquipmentLister, incidents IncidentLister, users UserLister) *RepositoryReader {
	return &RepositoryReader{
		equipment: equipment,
		incidents: incidents,
		users:     users,
		now:       time.Now,
	}
}

// Snapshot loads the three collections concurrently.
func (r *RepositoryReader) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{ReadAt: r.now().UTC()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := r.equipment.ListEquipment(gctx, inventory.Filter{})
		if err != nil {
			return fmt.Errorf("list equipment: %w", err)
		}
		snap.Equipment = list
		return nil
	})
	g.Go(func() error {
		list, err := r.incidents.ListIncidents(gctx, incidents.Filter{})
		if err != nil {
			return fmt.Errorf("list incidents: %w", err)
		}
		snap.Incidents = list
		return nil
	})
	g.Go(func() error {
		list, err := r.users.ListUsers(gctx, users.Filter{})
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		snap.Users = list
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}
