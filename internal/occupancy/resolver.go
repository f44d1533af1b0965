package occupancy

import (
	"time"

	"simrig-booking-backend/internal/model"
	"simrig-booking-backend/internal/schedule"
	"simrig-booking-backend/internal/shopclock"
)

// State is the derived occupancy classification of one machine. It is
// recomputed from live data on every read; there is no stored current
// state to go stale.
type State string

const (
	StateAvailable   State = "available"
	StateReserved    State = "reserved"
	StateOccupied    State = "occupied"
	StateMaintenance State = "maintenance"
)

// Snapshot is the input to one resolution: the machine row, its active
// session if any, and its bookings for the shop-local today, all read
// from the same consistent view.
type Snapshot struct {
	Machine       model.Machine
	ActiveSession *model.Session
	TodayBookings []model.Booking
	Now           time.Time
}

// MachineState is the resolved display/control state staff tooling
// acts on. Overdue annotates Reserved when the customer missed the
// start time; it is urgency rendering, not a fifth state, and does not
// change which actions are legal.
type MachineState struct {
	MachineID   int64          `json:"machineId"`
	DisplayName string         `json:"displayName"`
	Position    int            `json:"position"`
	IsActive    bool           `json:"isActive"`
	State       State          `json:"state"`
	Overdue     bool           `json:"overdue"`
	Session     *model.Session `json:"session,omitempty"`
	NextBooking *model.Booking `json:"nextBooking,omitempty"`
	ObservedAt  time.Time      `json:"observedAt"`
}

// Resolve derives the occupancy state for one machine. Priority: a
// live session always wins; then the nearest confirmed booking for
// today reserves the machine; the administrative maintenance flag is a
// fallback display concern only and never overrides a running session.
func Resolve(in Snapshot) MachineState {
	out := MachineState{
		MachineID:   in.Machine.ID,
		DisplayName: in.Machine.DisplayName,
		Position:    in.Machine.Position,
		IsActive:    in.Machine.IsActive,
		ObservedAt:  in.Now,
	}

	if in.ActiveSession != nil && in.ActiveSession.Active() {
		out.State = StateOccupied
		out.Session = in.ActiveSession
		return out
	}

	if next := NearestBooking(in.TodayBookings, in.Now); next != nil {
		out.State = StateReserved
		out.NextBooking = next
		nowMinutes := in.Now.Hour()*60 + in.Now.Minute()
		if start, err := schedule.ParseClock(next.StartTime); err == nil && start < nowMinutes {
			out.Overdue = true
		}
		return out
	}

	if in.Machine.Status == model.MachineMaintenance {
		out.State = StateMaintenance
		return out
	}

	out.State = StateAvailable
	return out
}

// NearestBooking picks the confirmed booking with the earliest start
// among today's bookings. Pending bookings hold their slot on the
// grid but do not reserve the machine for check-in. Also used by the
// check-in action to decide which booking a new session fulfills.
func NearestBooking(bookings []model.Booking, now time.Time) *model.Booking {
	today := now.Format(shopclock.DateFormat)
	var best *model.Booking
	bestStart := 0
	for i := range bookings {
		b := &bookings[i]
		if b.Status != model.BookingConfirmed || b.BookingDate != today {
			continue
		}
		start, err := schedule.ParseClock(b.StartTime)
		if err != nil {
			continue
		}
		if best == nil || start < bestStart {
			best = b
			bestStart = start
		}
	}
	return best
}
