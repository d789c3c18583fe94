package source

import (
	"errors"
	"fmt"
	"time"

	"github.com/bissquit/asset-desk/internal/domain"
)

// ErrMalformedDocument marks a stored document that cannot be turned into a record.
var ErrMalformedDocument = errors.New("malformed document")

// UserDoc is a user as stored by the dashboard.
type UserDoc struct {
	ID       string `json:"id" firestore:"id"`
	Username string `json:"username" firestore:"username"`
	Role     string `json:"role" firestore:"role"`
	Group    string `json:"group,omitempty" firestore:"group"`
}

// EquipmentDoc is a piece of equipment as stored by the dashboard.
type EquipmentDoc struct {
	ID             string `json:"id" firestore:"id"`
	SerialNumber   string `json:"serialNumber" firestore:"serialNumber"`
	Model          string `json:"model" firestore:"model"`
	Manufacturer   string `json:"manufacturer" firestore:"manufacturer"`
	Type           string `json:"type" firestore:"type"`
	PurchaseDate   string `json:"purchaseDate" firestore:"purchaseDate"`
	ResponseTime   string `json:"responseTime" firestore:"responseTime"`
	ResolutionTime string `json:"resolutionTime" firestore:"resolutionTime"`
	Group          string `json:"group" firestore:"group"`
}

// HistoryDoc is one history entry with an ISO-8601 timestamp.
type HistoryDoc struct {
	Status    string `json:"status" firestore:"status"`
	Timestamp string `json:"timestamp" firestore:"timestamp"`
	Comment   string `json:"comment,omitempty" firestore:"comment"`
}

// MaterialDoc is a spare part used on an incident.
type MaterialDoc struct {
	ID         string `json:"id" firestore:"id"`
	Name       string `json:"name" firestore:"name"`
	PartNumber string `json:"partNumber" firestore:"partNumber"`
	Quantity   int    `json:"quantity" firestore:"quantity"`
}

// IncidentDoc is an incident as stored by the dashboard.
type IncidentDoc struct {
	ID            string        `json:"id" firestore:"id"`
	EquipmentID   string        `json:"equipmentId" firestore:"equipmentId"`
	Title         string        `json:"title" firestore:"title"`
	Description   string        `json:"description" firestore:"description"`
	Status        string        `json:"status" firestore:"status"`
	History       []HistoryDoc  `json:"history" firestore:"history"`
	AssignedTo    string        `json:"assignedTo,omitempty" firestore:"assignedTo"`
	MaterialsUsed []MaterialDoc `json:"materialsUsed,omitempty" firestore:"materialsUsed"`
}

// ToUser converts the document; id is used when the document has no id field.
func (d UserDoc) ToUser(id string) (*domain.User, error) {
	if d.ID != "" {
		id = d.ID
	}
	if id == "" {
		return nil, fmt.Errorf("%w: user without id", ErrMalformedDocument)
	}
	u := &domain.User{
		ID:       id,
		Username: d.Username,
		Role:     domain.Role(d.Role),
	}
	if d.Group != "" {
		g := domain.Group(d.Group)
		u.Group = &g
	}
	return u, nil
}

// ToEquipment converts the document; id is used when the document has no id field.
// SLA categories are kept verbatim, unknown ones resolve to unbounded targets.
func (d EquipmentDoc) ToEquipment(id string) (*domain.Equipment, error) {
	if d.ID != "" {
		id = d.ID
	}
	if id == "" {
		return nil, fmt.Errorf("%w: equipment without id", ErrMalformedDocument)
	}
	return &domain.Equipment{
		ID:             id,
		SerialNumber:   d.SerialNumber,
		Model:          d.Model,
		Manufacturer:   d.Manufacturer,
		Type:           domain.EquipmentType(d.Type),
		PurchaseDate:   d.PurchaseDate,
		ResponseTime:   d.ResponseTime,
		ResolutionTime: d.ResolutionTime,
		Group:          domain.Group(d.Group),
	}, nil
}

// ToIncident converts the document; id is used when the document has no id field.
// Every history timestamp must parse and entries must be in chronological order.
func (d IncidentDoc) ToIncident(id string) (*domain.Incident, error) {
	if d.ID != "" {
		id = d.ID
	}
	if id == "" {
		return nil, fmt.Errorf("%w: incident without id", ErrMalformedDocument)
	}

	history := make([]domain.StatusEntry, 0, len(d.History))
	for i, h := range d.History {
		ts, err := ParseTimestamp(h.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("%w: incident %s history[%d]: %w", ErrMalformedDocument, id, i, err)
		}
		if i > 0 && ts.Before(history[i-1].Timestamp) {
			return nil, fmt.Errorf("%w: incident %s history[%d] is out of order", ErrMalformedDocument, id, i)
		}
		history = append(history, domain.StatusEntry{
			Status:    domain.IncidentStatus(h.Status),
			Timestamp: ts,
			Comment:   h.Comment,
		})
	}

	materials := make([]domain.Material, 0, len(d.MaterialsUsed))
	for _, m := range d.MaterialsUsed {
		materials = append(materials, domain.Material{
			ID:         m.ID,
			Name:       m.Name,
			PartNumber: m.PartNumber,
			Quantity:   m.Quantity,
		})
	}

	inc := &domain.Incident{
		ID:            id,
		EquipmentID:   d.EquipmentID,
		Title:         d.Title,
		Description:   d.Description,
		Status:        domain.IncidentStatus(d.Status),
		History:       history,
		MaterialsUsed: materials,
	}
	if d.AssignedTo != "" {
		assignee := d.AssignedTo
		inc.AssignedTo = &assignee
	}
	if len(history) > 0 {
		inc.CreatedAt = history[0].Timestamp
		inc.UpdatedAt = history[len(history)-1].Timestamp
	}
	return inc, nil
}

// ParseTimestamp parses an ISO-8601 timestamp as written by browsers
// (Date.prototype.toISOString) or any RFC 3339 producer, and returns it in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return ts.UTC(), nil
}
