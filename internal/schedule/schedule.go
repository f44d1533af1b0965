package schedule

import (
	"fmt"
	"time"

	"simrig-booking-backend/config"
	"simrig-booking-backend/internal/model"
	"simrig-booking-backend/internal/shopclock"
)

// SlotStatus classifies one slot of a day schedule. Exactly one status
// holds per slot.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotPassed    SlotStatus = "passed"
)

// Slot is one classified interval of a machine's day. Slots are
// derived on every request and never persisted; the ID is stable for a
// given machine, date and start time.
type Slot struct {
	ID        string     `json:"id"`
	StartTime string     `json:"startTime"`
	EndTime   string     `json:"endTime"`
	Status    SlotStatus `json:"status"`
}

// DaySchedule is the full classified grid for one machine and date.
type DaySchedule struct {
	MachineID      int64  `json:"machineId"`
	Date           string `json:"date"`
	Slots          []Slot `json:"slots"`
	AvailableSlots int    `json:"availableSlots"`
	BookedSlots    int    `json:"bookedSlots"`
	PassedSlots    int    `json:"passedSlots"`
}

// BuildDay merges the slot grid with a machine's bookings for the date
// and the current shop time. Cancelled and completed bookings do not
// block; a slot that is both elapsed and booked reports passed, since
// it cannot be acted upon either way. The function is read-only and
// idempotent.
func BuildDay(hours config.HoursConfig, machineID int64, date string, now time.Time, bookings []model.Booking) DaySchedule {
	today := now.Format(shopclock.DateFormat)
	nowMinutes := now.Hour()*60 + now.Minute()

	var blocking []interval
	for _, b := range bookings {
		if !b.Status.Blocks() {
			continue
		}
		start, err := ParseClock(b.StartTime)
		if err != nil {
			continue
		}
		end, err := ParseClock(b.EndTime)
		if err != nil {
			// An end at the closing midnight boundary is legal.
			if b.EndTime == "24:00" {
				end = 24 * 60
			} else {
				continue
			}
		}
		blocking = append(blocking, interval{start, end})
	}

	sched := DaySchedule{MachineID: machineID, Date: date}
	for _, w := range Grid(hours) {
		slot := Slot{
			ID:        fmt.Sprintf("%d-%s-%s", machineID, date, FormatClock(w.Start)),
			StartTime: FormatClock(w.Start),
			EndTime:   FormatClock(w.End),
		}

		switch {
		case date < today, date == today && w.End <= nowMinutes:
			slot.Status = SlotPassed
			sched.PassedSlots++
		case overlapsAny(blocking, w):
			slot.Status = SlotBooked
			sched.BookedSlots++
		default:
			slot.Status = SlotAvailable
			sched.AvailableSlots++
		}
		sched.Slots = append(sched.Slots, slot)
	}
	return sched
}

type interval struct{ start, end int }

func overlapsAny(blocking []interval, w Window) bool {
	for _, b := range blocking {
		if w.Start < b.end && b.start < w.End {
			return true
		}
	}
	return false
}
