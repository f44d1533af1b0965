package schedule

import "simrig-booking-backend/config"

// Window is one candidate slot of the day grid, as minutes since
// midnight, half-open [Start, End).
type Window struct {
	Start int
	End   int
}

// Grid produces the ordered slot windows for one calendar day. The
// grid depends only on the operating-hours configuration, never on
// bookings, so it is identical for every machine on a given day.
// A final slot that would cross the closing hour is truncated away
// rather than emitted out of bounds.
func Grid(hours config.HoursConfig) []Window {
	open, close := operatingWindow(hours)
	step := hours.SlotMinutes
	if step <= 0 || close <= open {
		return nil
	}

	var windows []Window
	for start := open; start+step <= close; start += step {
		windows = append(windows, Window{Start: start, End: start + step})
	}
	return windows
}

// Aligned reports whether a start time (minutes since midnight) lies
// on the configured grid.
func Aligned(hours config.HoursConfig, startMinutes int) bool {
	open, close := operatingWindow(hours)
	if startMinutes < open || startMinutes >= close {
		return false
	}
	return (startMinutes-open)%hours.SlotMinutes == 0
}

// WithinHours reports whether the whole [start, end) interval fits the
// operating window.
func WithinHours(hours config.HoursConfig, startMinutes, endMinutes int) bool {
	open, close := operatingWindow(hours)
	return startMinutes >= open && endMinutes <= close && startMinutes < endMinutes
}

func operatingWindow(hours config.HoursConfig) (open, close int) {
	if hours.Open24Hours {
		return 0, 24 * 60
	}
	return hours.OpenHour * 60, hours.CloseHour * 60
}
