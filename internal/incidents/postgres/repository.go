// Package postgres provides PostgreSQL implementation of the incidents repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/incidents"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const incidentColumns = `id, equipment_id, title, description, status, assigned_to,
	materials_used, created_at, updated_at`

// Repository implements the incidents.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var inc domain.Incident
	err := row.Scan(
		&inc.ID,
		&inc.EquipmentID,
		&inc.Title,
		&inc.Description,
		&inc.Status,
		&inc.AssignedTo,
		&inc.MaterialsUsed,
		&inc.CreatedAt,
		&inc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if inc.MaterialsUsed == nil {
		inc.MaterialsUsed = make([]domain.Material, 0)
	}
	return &inc, nil
}

// CreateIncident inserts an incident together with its initial history.
func (r *Repository) CreateIncident(ctx context.Context, inc *domain.Incident) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	query := `
		INSERT INTO incidents (id, equipment_id, title, description, status, assigned_to, materials_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		inc.ID,
		inc.EquipmentID,
		inc.Title,
		inc.Description,
		inc.Status,
		inc.AssignedTo,
		inc.MaterialsUsed,
	).Scan(&inc.CreatedAt, &inc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}

	for i, entry := range inc.History {
		if err := insertEntry(ctx, tx, inc.ID, i, entry); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, incidentID string, seq int, entry domain.StatusEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO incident_history (incident_id, seq, status, "timestamp", comment)
		VALUES ($1, $2, $3, $4, $5)
	`, incidentID, seq, entry.Status, entry.Timestamp, entry.Comment)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// GetIncident retrieves an incident with its history.
func (r *Repository) GetIncident(ctx context.Context, id string) (*domain.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`

	inc, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}

	if err := loadHistory(ctx, r.db, []*domain.Incident{inc}); err != nil {
		return nil, err
	}
	return inc, nil
}

// ListIncidents retrieves incidents, newest first, with their histories.
func (r *Repository) ListIncidents(ctx context.Context, filter incidents.Filter) ([]*domain.Incident, error) {
	var (
		conds []string
		args  []any
	)
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, st := range filter.Statuses {
			statuses = append(statuses, string(st))
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filter.EquipmentID != "" {
		args = append(args, filter.EquipmentID)
		conds = append(conds, fmt.Sprintf("equipment_id = $%d", len(args)))
	}
	if filter.AssignedTo != "" {
		args = append(args, filter.AssignedTo)
		conds = append(conds, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if filter.OpenOnly {
		args = append(args, []string{string(domain.IncidentStatusResolved), string(domain.IncidentStatusClosed)})
		conds = append(conds, fmt.Sprintf("status <> ALL($%d)", len(args)))
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Incident, 0)
	for rows.Next() {
		inc, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		result = append(result, inc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}

	if err := loadHistory(ctx, r.db, result); err != nil {
		return nil, err
	}
	return result, nil
}

// loadHistory fills History of every incident in one query, in append order.
func loadHistory(ctx context.Context, q querier, list []*domain.Incident) error {
	if len(list) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Incident, len(list))
	ids := make([]string, 0, len(list))
	for _, inc := range list {
		inc.History = make([]domain.StatusEntry, 0)
		byID[inc.ID] = inc
		ids = append(ids, inc.ID)
	}

	rows, err := q.Query(ctx, `
		SELECT incident_id, status, "timestamp", comment
		FROM incident_history
		WHERE incident_id = ANY($1)
		ORDER BY incident_id, seq
	`, ids)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			incidentID string
			entry      domain.StatusEntry
		)
		if err := rows.Scan(&incidentID, &entry.Status, &entry.Timestamp, &entry.Comment); err != nil {
			return fmt.Errorf("scan history entry: %w", err)
		}
		entry.Timestamp = entry.Timestamp.UTC()
		inc := byID[incidentID]
		inc.History = append(inc.History, entry)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate history: %w", err)
	}
	return nil
}

// UpdateIncident replaces the non-history fields of an incident.
func (r *Repository) UpdateIncident(ctx context.Context, inc *domain.Incident) error {
	query := `
		UPDATE incidents
		SET title = $2, description = $3, assigned_to = $4, materials_used = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		inc.ID,
		inc.Title,
		inc.Description,
		inc.AssignedTo,
		inc.MaterialsUsed,
	).Scan(&inc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return incidents.ErrIncidentNotFound
		}
		return fmt.Errorf("update incident: %w", err)
	}
	return nil
}

// AppendStatus locks the incident row, checks ordering against the stored last
// entry, appends entry and updates the current status.
func (r *Repository) AppendStatus(ctx context.Context, incidentID string, entry domain.StatusEntry) (*domain.Incident, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	var locked string
	err = tx.QueryRow(ctx, `SELECT id FROM incidents WHERE id = $1 FOR UPDATE`, incidentID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("lock incident: %w", err)
	}

	var (
		nextSeq int
		lastSeq int
		lastTS  time.Time
	)
	err = tx.QueryRow(ctx, `
		SELECT seq, "timestamp" FROM incident_history
		WHERE incident_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`, incidentID).Scan(&lastSeq, &lastTS)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return nil, fmt.Errorf("get last history entry: %w", err)
	default:
		if entry.Timestamp.Before(lastTS) {
			return nil, incidents.ErrOutOfOrder
		}
		nextSeq = lastSeq + 1
	}

	if err := insertEntry(ctx, tx, incidentID, nextSeq, entry); err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `UPDATE incidents SET status = $2, updated_at = NOW() WHERE id = $1`, incidentID, entry.Status)
	if err != nil {
		return nil, fmt.Errorf("update incident status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return r.GetIncident(ctx, incidentID)
}

// DeleteIncident deletes an incident; its history is removed by cascade.
func (r *Repository) DeleteIncident(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return incidents.ErrIncidentNotFound
	}
	return nil
}
