// Package inventory manages tracked equipment and its contracted SLA categories.
package inventory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/sla"
	"github.com/google/uuid"
)

// Service implements equipment business logic.
type Service struct {
	repo Repository
}

// NewService creates a new inventory service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// DetailsInput holds the descriptive fields of equipment.
type DetailsInput struct {
	SerialNumber string
	Model        string
	Manufacturer string
	Type         domain.EquipmentType
	PurchaseDate string
	Group        domain.Group
}

// CreateEquipmentInput holds data for registering equipment.
type CreateEquipmentInput struct {
	DetailsInput
	ResponseTime   string
	ResolutionTime string
}

func (in DetailsInput) validate() (DetailsInput, error) {
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)
	if in.SerialNumber == "" {
		return in, ErrEmptySerialNumber
	}
	if !in.Type.IsValid() {
		return in, fmt.Errorf("%w: %s", ErrInvalidType, in.Type)
	}
	if !in.Group.IsValid() {
		return in, fmt.Errorf("%w: %s", ErrInvalidGroup, in.Group)
	}
	if in.PurchaseDate != "" {
		if _, err := time.Parse(time.DateOnly, in.PurchaseDate); err != nil {
			return in, fmt.Errorf("%w: %s", ErrInvalidPurchaseDate, in.PurchaseDate)
		}
	}
	return in, nil
}

// CreateEquipment registers equipment. SLA categories are fixed from here on.
func (s *Service) CreateEquipment(ctx context.Context, input CreateEquipmentInput) (*domain.Equipment, error) {
	details, err := input.DetailsInput.validate()
	if err != nil {
		return nil, err
	}
	if !slices.Contains(sla.ResponseCategories(), input.ResponseTime) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResponseTime, input.ResponseTime)
	}
	if !slices.Contains(sla.ResolutionCategories(), input.ResolutionTime) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidResolutionTime, input.ResolutionTime)
	}

	equipment := &domain.Equipment{
		ID:             uuid.NewString(),
		ResponseTime:   input.ResponseTime,
		ResolutionTime: input.ResolutionTime,
	}
	applyDetails(equipment, details)

	if err := s.repo.CreateEquipment(ctx, equipment); err != nil {
		return nil, fmt.Errorf("create equipment: %w", err)
	}
	return equipment, nil
}

// GetEquipment returns equipment by id.
func (s *Service) GetEquipment(ctx context.Context, id string) (*domain.Equipment, error) {
	return s.repo.GetEquipmentByID(ctx, id)
}

// ListEquipment returns equipment ordered by serial number.
func (s *Service) ListEquipment(ctx context.Context, filter Filter) ([]*domain.Equipment, error) {
	if filter.Group != nil && !filter.Group.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidGroup, *filter.Group)
	}
	if filter.Type != nil && !filter.Type.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidType, *filter.Type)
	}
	return s.repo.ListEquipment(ctx, filter)
}

// UpdateEquipment replaces the descriptive fields of equipment.
// Response and resolution categories are never changed.
func (s *Service) UpdateEquipment(ctx context.Context, id string, input DetailsInput) (*domain.Equipment, error) {
	details, err := input.validate()
	if err != nil {
		return nil, err
	}

	equipment, err := s.repo.GetEquipmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	applyDetails(equipment, details)

	if err := s.repo.UpdateEquipment(ctx, equipment); err != nil {
		return nil, fmt.Errorf("update equipment: %w", err)
	}
	return equipment, nil
}

// DeleteEquipment removes equipment that no incident references.
func (s *Service) DeleteEquipment(ctx context.Context, id string) error {
	if _, err := s.repo.GetEquipmentByID(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountIncidents(ctx, id)
	if err != nil {
		return fmt.Errorf("count incidents: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d incidents", ErrEquipmentInUse, count)
	}

	return s.repo.DeleteEquipment(ctx, id)
}

func applyDetails(e *domain.Equipment, d DetailsInput) {
	e.SerialNumber = d.SerialNumber
	e.Model = d.Model
	e.Manufacturer = d.Manufacturer
	e.Type = d.Type
	e.PurchaseDate = d.PurchaseDate
	e.Group = d.Group
}
