// Package postgres provides PostgreSQL implementation of the alerts repository.
package postgres

import (
	"context"
	"fmt"

	"github.com/bissquit/asset-desk/internal/alerts"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements the alerts.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Claim inserts the alert key unless it is already present.
func (r *Repository) Claim(ctx context.Context, key alerts.Key) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO sla_alerts (incident_id, leg, kind)
		VALUES ($1, $2, $3)
		ON CONFLICT (incident_id, leg, kind) DO NOTHING
	`, key.IncidentID, string(key.Leg), string(key.Kind))
	if err != nil {
		return false, fmt.Errorf("claim alert: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Release deletes the alert key.
func (r *Repository) Release(ctx context.Context, key alerts.Key) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM sla_alerts WHERE incident_id = $1 AND leg = $2 AND kind = $3
	`, key.IncidentID, string(key.Leg), string(key.Kind))
	if err != nil {
		return fmt.Errorf("release alert: %w", err)
	}
	return nil
}
