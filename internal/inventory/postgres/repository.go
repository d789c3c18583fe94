// Package postgres provides PostgreSQL implementation of the inventory repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/inventory"
	pgutil "github.com/bissquit/asset-desk/internal/pkg/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const serialNumberConstraint = "equipment_serial_number_key"

const equipmentColumns = `id, serial_number, model, manufacturer, type, purchase_date,
	response_time, resolution_time, "group", created_at, updated_at`

// Repository implements the inventory.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanEquipment(row pgx.Row) (*domain.Equipment, error) {
	var e domain.Equipment
	err := row.Scan(
		&e.ID,
		&e.SerialNumber,
		&e.Model,
		&e.Manufacturer,
		&e.Type,
		&e.PurchaseDate,
		&e.ResponseTime,
		&e.ResolutionTime,
		&e.Group,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEquipment inserts equipment. The id is assigned by the caller.
func (r *Repository) CreateEquipment(ctx context.Context, e *domain.Equipment) error {
	query := `
		INSERT INTO equipment (id, serial_number, model, manufacturer, type, purchase_date,
			response_time, resolution_time, "group")
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		e.ID,
		e.SerialNumber,
		e.Model,
		e.Manufacturer,
		e.Type,
		e.PurchaseDate,
		e.ResponseTime,
		e.ResolutionTime,
		e.Group,
	).Scan(&e.CreatedAt, &e.UpdatedAt)

	if err != nil {
		if pgutil.IsUniqueViolation(err, serialNumberConstraint) {
			return inventory.ErrSerialNumberTaken
		}
		return fmt.Errorf("insert equipment: %w", err)
	}
	return nil
}

// GetEquipmentByID retrieves equipment by its id.
func (r *Repository) GetEquipmentByID(ctx context.Context, id string) (*domain.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1`

	e, err := scanEquipment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("get equipment by id: %w", err)
	}
	return e, nil
}

// ListEquipment retrieves equipment ordered by serial number.
func (r *Repository) ListEquipment(ctx context.Context, filter inventory.Filter) ([]*domain.Equipment, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Group != nil {
		args = append(args, *filter.Group)
		conds = append(conds, fmt.Sprintf(`"group" = $%d`, len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}

	query := `SELECT ` + equipmentColumns + ` FROM equipment`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY serial_number"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()

	result := make([]*domain.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan equipment: %w", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equipment: %w", err)
	}
	return result, nil
}

// UpdateEquipment replaces the descriptive fields. SLA columns are left untouched.
func (r *Repository) UpdateEquipment(ctx context.Context, e *domain.Equipment) error {
	query := `
		UPDATE equipment
		SET serial_number = $2, model = $3, manufacturer = $4, type = $5,
			purchase_date = $6, "group" = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		e.ID,
		e.SerialNumber,
		e.Model,
		e.Manufacturer,
		e.Type,
		e.PurchaseDate,
		e.Group,
	).Scan(&e.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.ErrEquipmentNotFound
		}
		if pgutil.IsUniqueViolation(err, serialNumberConstraint) {
			return inventory.ErrSerialNumberTaken
		}
		return fmt.Errorf("update equipment: %w", err)
	}
	return nil
}

// DeleteEquipment deletes equipment by id.
func (r *Repository) DeleteEquipment(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM equipment WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrEquipmentNotFound
	}
	return nil
}

// CountIncidents returns how many incidents reference the equipment.
func (r *Repository) CountIncidents(ctx context.Context, equipmentID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM incidents WHERE equipment_id = $1`, equipmentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count incidents for equipment: %w", err)
	}
	return count, nil
}
