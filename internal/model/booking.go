package model

import "time"

// BookingStatus is the lifecycle state of an advance booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// Valid reports whether s is one of the recognized booking statuses.
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

// Blocks reports whether a booking in this status holds its time
// interval against new bookings. Pending bookings block too; a
// customer racing the confirmation step must not lose the slot. Every
// call site deciding "does this interval count" goes through this one
// predicate.
func (s BookingStatus) Blocks() bool {
	return s == BookingPending || s == BookingConfirmed
}

// Booking is a scheduled advance reservation of one machine. Dates are
// shop-local calendar dates ("2006-01-02"); times are shop-local
// "HH:MM" within that date. Invariant: per machine and date, no two
// bookings whose status Blocks() have overlapping [StartTime, EndTime)
// intervals.
type Booking struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	MachineID       int64         `gorm:"index:idx_bookings_machine_date;not null" json:"machineId"`
	BookingDate     string        `gorm:"index:idx_bookings_machine_date;size:10;not null" json:"bookingDate"`
	StartTime       string        `gorm:"size:5;not null" json:"startTime"`
	EndTime         string        `gorm:"size:5;not null" json:"endTime"`
	DurationMinutes int           `gorm:"not null" json:"durationMinutes"`
	Status          BookingStatus `gorm:"size:32;not null" json:"status"`
	CustomerName    string        `gorm:"size:256;not null" json:"customerName"`
	CustomerPhone   string        `gorm:"size:64" json:"customerPhone"`
	Notes           string        `gorm:"size:1024" json:"notes"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}
