package incidents

import (
	"context"

	"github.com/bissquit/asset-desk/internal/domain"
)

// Repository defines the interface for incident storage.
// History entries are append-only; no method rewrites or removes one.
type Repository interface {
	CreateIncident(ctx context.Context, incident *domain.Incident) error
	GetIncident(ctx context.Context, id string) (*domain.Incident, error)
	ListIncidents(ctx context.Context, filter Filter) ([]*domain.Incident, error)
	UpdateIncident(ctx context.Context, incident *domain.Incident) error
	DeleteIncident(ctx context.Context, id string) error

	// AppendStatus atomically appends entry and sets the current status.
	// It returns ErrOutOfOrder when entry predates the stored last entry.
	AppendStatus(ctx context.Context, incidentID string, entry domain.StatusEntry) (*domain.Incident, error)
}

// Filter narrows ListIncidents. Empty fields match everything.
type Filter struct {
	Statuses    []domain.IncidentStatus
	EquipmentID string
	AssignedTo  string
	// OpenOnly excludes Resuelta and Cerrada incidents.
	OpenOnly bool
}
