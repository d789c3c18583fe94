// Package source provides read-only snapshots of users, equipment and incidents
// for SLA evaluation, independent of where the records are stored.
package source

import (
	"context"
	"errors"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
)

// ErrNotReady is returned by readers that have not loaded their first full state yet.
var ErrNotReady = errors.New("snapshot source is not ready")

// Collection names shared by every source.
const (
	CollectionUsers     = "users"
	CollectionEquipment = "equipment"
	CollectionIncidents = "incidents"
)

// Snapshot is a consistent, immutable view of the records at ReadAt.
// Callers must not modify the slices or the records they point to.
type Snapshot struct {
	Users     []*domain.User
	Equipment []*domain.Equipment
	Incidents []*domain.Incident
	ReadAt    time.Time
}

// Reader produces snapshots.
type Reader interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// EquipmentByID indexes equipment by ID.
func (s *Snapshot) EquipmentByID() map[string]*domain.Equipment {
	m := make(map[string]*domain.Equipment, len(s.Equipment))
	for _, e := range s.Equipment {
		m[e.ID] = e
	}
	return m
}

// UsersByID indexes users by ID.
func (s *Snapshot) UsersByID() map[string]*domain.User {
	m := make(map[string]*domain.User, len(s.Users))
	for _, u := range s.Users {
		m[u.ID] = u
	}
	return m
}

// Incident finds an incident by ID.
func (s *Snapshot) Incident(id string) (*domain.Incident, bool) {
	for _, inc := range s.Incidents {
		if inc.ID == id {
			return inc, true
		}
	}
	return nil, false
}
