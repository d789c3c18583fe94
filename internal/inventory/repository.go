package inventory

import (
	"context"

	"github.com/bissquit/asset-desk/internal/domain"
)

// Repository defines the interface for equipment data operations.
type Repository interface {
	CreateEquipment(ctx context.Context, equipment *domain.Equipment) error
	GetEquipmentByID(ctx context.Context, id string) (*domain.Equipment, error)
	ListEquipment(ctx context.Context, filter Filter) ([]*domain.Equipment, error)
	UpdateEquipment(ctx context.Context, equipment *domain.Equipment) error
	DeleteEquipment(ctx context.Context, id string) error

	// CountIncidents returns how many incidents reference the equipment.
	CountIncidents(ctx context.Context, equipmentID string) (int, error)
}

// Filter narrows ListEquipment. Nil fields match everything.
type Filter struct {
	Group *domain.Group
	Type  *domain.EquipmentType
}
