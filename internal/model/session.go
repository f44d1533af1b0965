package model

import "time"

// Session is a live usage record created at check-in. EndTime is nil
// while the session is running. Invariant: at most one active session
// per machine.
type Session struct {
	ID              string     `gorm:"primaryKey;size:36" json:"id"`
	MachineID       int64      `gorm:"index;not null" json:"machineId"`
	CustomerName    string     `gorm:"size:256;not null" json:"customerName"`
	BookingID       *string    `gorm:"size:36" json:"bookingId,omitempty"`
	StartTime       time.Time  `gorm:"not null" json:"startTime"`
	DurationMinutes int        `json:"durationMinutes"`
	EndTime         *time.Time `gorm:"index" json:"endTime,omitempty"`
}

// Active reports whether the session is still running.
func (s Session) Active() bool {
	return s.EndTime == nil
}
