package compliance

import "errors"

// Service errors.
var (
	ErrIncidentNotFound  = errors.New("incident not found")
	ErrEquipmentNotFound = errors.New("equipment of the incident not found")
	ErrInvalidVerdict    = errors.New("invalid verdict filter")
	ErrInvalidGroup      = errors.New("invalid group")
	ErrInvalidSort       = errors.New("invalid sort order")
)
