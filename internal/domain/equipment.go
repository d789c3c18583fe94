package domain

import "time"

// Group is the support team responsible for a piece of equipment.
type Group string

// Support groups.
const (
	GroupSoftware Group = "Software"
	GroupHardware Group = "Hardware"
)

// IsValid checks if the group is valid.
func (g Group) IsValid() bool {
	return g == GroupSoftware || g == GroupHardware
}

// EquipmentType classifies equipment.
type EquipmentType string

// Equipment types.
const (
	EquipmentTypeLaptop   EquipmentType = "Portátil"
	EquipmentTypeDesktop  EquipmentType = "Sobremesa"
	EquipmentTypeMonitor  EquipmentType = "Monitor"
	EquipmentTypePrinter  EquipmentType = "Impresora"
	EquipmentTypeSoftware EquipmentType = "Software"
	EquipmentTypeOther    EquipmentType = "Otro"
)

// IsValid checks if the equipment type is valid.
func (t EquipmentType) IsValid() bool {
	switch t {
	case EquipmentTypeLaptop, EquipmentTypeDesktop, EquipmentTypeMonitor,
		EquipmentTypePrinter, EquipmentTypeSoftware, EquipmentTypeOther:
		return true
	}
	return false
}

// SLA categories as contracted per equipment.
const (
	SLAOneHour    = "1hora"
	SLATwoHours   = "2horas"
	SLAFourHours  = "4horas"
	SLAEightHours = "8horas"
	SLANextDay    = "NBD"
)

// Equipment represents a tracked IT asset and its service-level contract.
type Equipment struct {
	ID             string        `json:"id"`
	SerialNumber   string        `json:"serial_number"`
	Model          string        `json:"model"`
	Manufacturer   string        `json:"manufacturer"`
	Type           EquipmentType `json:"type"`
	PurchaseDate   string        `json:"purchase_date"`
	ResponseTime   string        `json:"response_time"`
	ResolutionTime string        `json:"resolution_time"`
	Group          Group         `json:"group"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}
