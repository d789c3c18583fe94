package incidents

import "errors"

// Service errors.
var (
	ErrIncidentNotFound  = errors.New("incident not found")
	ErrEquipmentNotFound = errors.New("equipment not found")
	ErrInvalidStatus     = errors.New("invalid incident status")
	ErrInvalidAssignee   = errors.New("assignee must be an existing technician")
	ErrOutOfOrder        = errors.New("status entry is older than the last history entry")
	ErrCommentRequired   = errors.New("a comment is required to change the status")
	ErrEmptyTitle        = errors.New("title is required")
)
