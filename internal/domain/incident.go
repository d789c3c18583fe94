package domain

import "time"

// IncidentStatus represents the state of an incident at a point of its history.
type IncidentStatus string

// Incident statuses.
const (
	IncidentStatusOpen              IncidentStatus = "Abierta"
	IncidentStatusAssigned          IncidentStatus = "Asignada"
	IncidentStatusInProgress        IncidentStatus = "En Progreso"
	IncidentStatusTechnicianOnsite  IncidentStatus = "Técnico Onsite"
	IncidentStatusVisitScheduled    IncidentStatus = "Visita concertada"
	IncidentStatusAwaitingParts     IncidentStatus = "En Espera de Piezas"
	IncidentStatusPendingCustomer   IncidentStatus = "Pendiente de cliente"
	IncidentStatusPendingSDM        IncidentStatus = "Pendiente de SDM"
	IncidentStatusPendingTSM        IncidentStatus = "Pendiente de TSM"
	IncidentStatusPendingThirdParty IncidentStatus = "Pendiente de 3ros"
	IncidentStatusResolved          IncidentStatus = "Resuelta"
	IncidentStatusClosed            IncidentStatus = "Cerrada"
)

type statusClass uint8

const (
	classActive statusClass = 1 << iota
	classPaused
	classResponse
	classFinished
)

var incidentStatusClasses = map[IncidentStatus]statusClass{
	IncidentStatusOpen:              classActive,
	IncidentStatusAssigned:          classActive,
	IncidentStatusInProgress:        classActive | classResponse,
	IncidentStatusTechnicianOnsite:  classActive | classResponse,
	IncidentStatusVisitScheduled:    classActive | classResponse,
	IncidentStatusAwaitingParts:     classPaused,
	IncidentStatusPendingCustomer:   classPaused,
	IncidentStatusPendingSDM:        classPaused,
	IncidentStatusPendingTSM:        classPaused,
	IncidentStatusPendingThirdParty: classPaused,
	IncidentStatusResolved:          classActive | classResponse | classFinished,
	IncidentStatusClosed:            classActive | classResponse | classFinished,
}

// IncidentStatuses returns all known statuses in workflow order.
func IncidentStatuses() []IncidentStatus {
	return []IncidentStatus{
		IncidentStatusOpen,
		IncidentStatusAssigned,
		IncidentStatusInProgress,
		IncidentStatusTechnicianOnsite,
		IncidentStatusVisitScheduled,
		IncidentStatusAwaitingParts,
		IncidentStatusPendingCustomer,
		IncidentStatusPendingSDM,
		IncidentStatusPendingTSM,
		IncidentStatusPendingThirdParty,
		IncidentStatusResolved,
		IncidentStatusClosed,
	}
}

// IsValid checks if the status is one of the known incident statuses.
func (s IncidentStatus) IsValid() bool {
	_, ok := incidentStatusClasses[s]
	return ok
}

// IsPaused reports whether the SLA clock is stopped while the incident is in this status.
// Unknown statuses are treated as active.
func (s IncidentStatus) IsPaused() bool {
	return incidentStatusClasses[s]&classPaused != 0
}

// IsActiveResponse reports whether reaching this status means a response has occurred.
func (s IncidentStatus) IsActiveResponse() bool {
	return incidentStatusClasses[s]&classResponse != 0
}

// IsResolution reports whether the status marks resolution completion.
// Only Resuelta counts; Cerrada is a later bookkeeping state.
func (s IncidentStatus) IsResolution() bool {
	return s == IncidentStatusResolved
}

// IsOpen reports whether the incident still needs work.
func (s IncidentStatus) IsOpen() bool {
	return incidentStatusClasses[s]&classFinished == 0
}

// StatusEntry is one append-only record of an incident's history.
type StatusEntry struct {
	Status    IncidentStatus `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Comment   string         `json:"comment,omitempty"`
}

// Material is a spare part consumed while working on an incident.
type Material struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PartNumber string `json:"part_number"`
	Quantity   int    `json:"quantity"`
}

// Incident represents a reported problem with a piece of equipment.
type Incident struct {
	ID            string         `json:"id"`
	EquipmentID   string         `json:"equipment_id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Status        IncidentStatus `json:"status"`
	History       []StatusEntry  `json:"history"`
	AssignedTo    *string        `json:"assigned_to"`
	MaterialsUsed []Material     `json:"materials_used"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// OpenedAt returns the timestamp of the creation event.
// Returns the zero time if the history is empty.
func (i *Incident) OpenedAt() time.Time {
	if len(i.History) == 0 {
		return time.Time{}
	}
	return i.History[0].Timestamp
}

// LastEntry returns the most recent history entry, or nil if the history is empty.
func (i *Incident) LastEntry() *StatusEntry {
	if len(i.History) == 0 {
		return nil
	}
	return &i.History[len(i.History)-1]
}
