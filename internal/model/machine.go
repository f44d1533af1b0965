package model

import "time"

// MachineStatus is the coarse administrative flag set by staff. The
// authoritative occupancy of a machine is derived from live sessions
// and bookings, not read from this field.
type MachineStatus string

const (
	MachineAvailable   MachineStatus = "available"
	MachineOccupied    MachineStatus = "occupied"
	MachineMaintenance MachineStatus = "maintenance"
)

// Valid reports whether s is one of the recognized machine statuses.
func (s MachineStatus) Valid() bool {
	switch s {
	case MachineAvailable, MachineOccupied, MachineMaintenance:
		return true
	}
	return false
}

// Machine represents one bookable racing simulator. Machines are never
// deleted, only deactivated.
type Machine struct {
	ID          int64         `gorm:"primaryKey" json:"id"`
	DisplayName string        `gorm:"size:256;not null" json:"displayName"`
	Position    int           `json:"position"`
	IsActive    bool          `gorm:"not null;default:true" json:"isActive"`
	Status      MachineStatus `gorm:"size:32;not null;default:available" json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
