// Package incidents manages incidents and their append-only status history.
package incidents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
	"github.com/bissquit/asset-desk/internal/inventory"
	"github.com/bissquit/asset-desk/internal/users"
	"github.com/google/uuid"
)

// EquipmentReader resolves equipment references.
type EquipmentReader interface {
	GetEquipment(ctx context.Context, id string) (*domain.Equipment, error)
}

// UserReader resolves assignee references.
type UserReader interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Service implements incident business logic.
type Service struct {
	repo      Repository
	equipment EquipmentReader
	users     UserReader
	now       func() time.Time
}

// NewService creates a new incident service.
func NewService(repo Repository, equipment EquipmentReader, users UserReader) *Service {
	return &Service{
		repo:      repo,
		equipment: equipment,
		users:     users,
		now:       time.Now,
	}
}

// CreateIncidentInput holds data for opening an incident.
type CreateIncidentInput struct {
	EquipmentID   string
	Title         string
	Description   string
	Status        domain.IncidentStatus // defaults to Abierta
	Comment       string
	AssignedTo    *string
	MaterialsUsed []domain.Material
}

// UpdateIncidentInput holds the editable, non-history fields of an incident.
type UpdateIncidentInput struct {
	Title         string
	Description   string
	AssignedTo    *string
	MaterialsUsed []domain.Material
}

// AppendStatusInput describes a new history entry.
type AppendStatusInput struct {
	Status  domain.IncidentStatus
	Comment string
	// Timestamp defaults to the current time.
	Timestamp *time.Time
}

// CreateIncident opens an incident and writes its creation entry at the current time.
func (s *Service) CreateIncident(ctx context.Context, input CreateIncidentInput) (*domain.Incident, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	status := input.Status
	if status == "" {
		status = domain.IncidentStatusOpen
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	if _, err := s.equipment.GetEquipment(ctx, input.EquipmentID); err != nil {
		return nil, s.equipmentError(input.EquipmentID, err)
	}
	if err := s.checkAssignee(ctx, input.AssignedTo); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	incident := &domain.Incident{
		ID:          uuid.NewString(),
		EquipmentID: input.EquipmentID,
		Title:       title,
		Description: input.Description,
		Status:      status,
		History: []domain.StatusEntry{
			{Status: status, Timestamp: now, Comment: strings.TrimSpace(input.Comment)},
		},
		AssignedTo:    input.AssignedTo,
		MaterialsUsed: normalizeMaterials(input.MaterialsUsed),
	}

	if err := s.repo.CreateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}
	return incident, nil
}

// GetIncident returns an incident with its full history.
func (s *Service) GetIncident(ctx context.Context, id string) (*domain.Incident, error) {
	return s.repo.GetIncident(ctx, id)
}

// ListIncidents returns incidents, newest first.
func (s *Service) ListIncidents(ctx context.Context, filter Filter) ([]*domain.Incident, error) {
	for _, st := range filter.Statuses {
		if !st.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, st)
		}
	}
	return s.repo.ListIncidents(ctx, filter)
}

// UpdateIncident replaces title, description, assignee and materials.
// Status changes go through AppendStatus.
func (s *Service) UpdateIncident(ctx context.Context, id string, input UpdateIncidentInput) (*domain.Incident, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	incident, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkAssignee(ctx, input.AssignedTo); err != nil {
		return nil, err
	}

	incident.Title = title
	incident.Description = input.Description
	incident.AssignedTo = input.AssignedTo
	incident.MaterialsUsed = normalizeMaterials(input.MaterialsUsed)

	if err := s.repo.UpdateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}
	return incident, nil
}

// AppendStatus adds an entry to the history of an incident.
// A status change needs a comment; keeping the status with a comment records a note.
func (s *Service) AppendStatus(ctx context.Context, id string, input AppendStatusInput) (*domain.Incident, error) {
	if !input.Status.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, input.Status)
	}

	incident, err := s.repo.GetIncident(ctx, id)
	if err != nil {
		return nil, err
	}

	comment := strings.TrimSpace(input.Comment)
	if comment == "" {
		return nil, ErrCommentRequired
	}

	ts := s.now().UTC()
	if input.Timestamp != nil {
		ts = input.Timestamp.UTC()
	}
	if last := incident.LastEntry(); last != nil && ts.Before(last.Timestamp) {
		return nil, fmt.Errorf("%w: %s < %s", ErrOutOfOrder, ts.Format(time.RFC3339), last.Timestamp.Format(time.RFC3339))
	}

	updated, err := s.repo.AppendStatus(ctx, id, domain.StatusEntry{
		Status:    input.Status,
		Timestamp: ts,
		Comment:   comment,
	})
	if err != nil {
		return nil, fmt.Errorf("append status: %w", err)
	}
	return updated, nil
}

// DeleteIncident removes an incident and its history.
func (s *Service) DeleteIncident(ctx context.Context, id string) error {
	return s.repo.DeleteIncident(ctx, id)
}

func (s *Service) checkAssignee(ctx context.Context, userID *string) error {
	if userID == nil {
		return nil
	}
	user, err := s.users.GetUser(ctx, *userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return fmt.Errorf("%w: %s", ErrInvalidAssignee, *userID)
		}
		return fmt.Errorf("get assignee: %w", err)
	}
	if !user.Role.IsTechnician() {
		return fmt.Errorf("%w: %s has role %s", ErrInvalidAssignee, user.Username, user.Role)
	}
	return nil
}

func (s *Service) equipmentError(id string, err error) error {
	if errors.Is(err, inventory.ErrEquipmentNotFound) {
		return fmt.Errorf("%w: %s", ErrEquipmentNotFound, id)
	}
	return fmt.Errorf("get equipment: %w", err)
}

func normalizeMaterials(m []domain.Material) []domain.Material {
	if m == nil {
		return make([]domain.Material, 0)
	}
	return m
}
