package inventory

import "errors"

// Service errors.
var (
	ErrEquipmentNotFound     = errors.New("equipment not found")
	ErrSerialNumberTaken     = errors.New("serial number already registered")
	ErrEquipmentInUse        = errors.New("equipment has incidents")
	ErrEmptySerialNumber     = errors.New("serial number is required")
	ErrInvalidType           = errors.New("invalid equipment type")
	ErrInvalidGroup          = errors.New("invalid group")
	ErrInvalidPurchaseDate   = errors.New("purchase date must be YYYY-MM-DD")
	ErrInvalidResponseTime   = errors.New("invalid response time category")
	ErrInvalidResolutionTime = errors.New("invalid resolution time category")
)
