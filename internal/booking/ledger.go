package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"simrig-booking-backend/config"
	"simrig-booking-backend/internal/model"
	"simrig-booking-backend/internal/schedule"
	"simrig-booking-backend/internal/shopclock"
	"simrig-booking-backend/internal/store"
)

// Ledger is the authoritative set of advance bookings. Create and
// reschedule serialize per (machine, date) so two concurrent requests
// for overlapping intervals can never both succeed: the keyed mutex
// covers the check-then-insert, and the check itself re-runs inside
// the storage transaction.
type Ledger struct {
	store store.Store
	clock shopclock.Clock
	cfg   *config.Config

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLedger(s store.Store, clock shopclock.Clock, cfg *config.Config) *Ledger {
	return &Ledger{
		store: s,
		clock: clock,
		cfg:   cfg,
		locks: make(map[string]*sync.Mutex),
	}
}

// CreateParams carries the fields of a new booking request.
type CreateParams struct {
	MachineID       int64
	Date            string
	StartTime       string
	DurationMinutes int
	CustomerName    string
	CustomerPhone   string
	Notes           string
	// Confirmed selects the staff flow (booking starts confirmed)
	// over the customer flow (starts pending).
	Confirmed bool
}

// Create validates the request, checks the interval against every
// blocking booking for the machine and date, and inserts. Returns
// *ConflictError when the interval is taken.
func (l *Ledger) Create(ctx context.Context, p CreateParams) (*model.Booking, error) {
	if !l.cfg.Hours.Enabled {
		return nil, validationf("advance booking is disabled")
	}
	if p.CustomerName == "" {
		return nil, validationf("customer name is required")
	}

	start, end, err := l.validateInterval(p.Date, p.StartTime, p.DurationMinutes)
	if err != nil {
		return nil, err
	}

	if _, err := l.store.GetMachine(ctx, p.MachineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Kind: "machine", ID: fmt.Sprintf("%d", p.MachineID)}
		}
		return nil, fmt.Errorf("failed to look up machine %d: %w", p.MachineID, err)
	}

	status := model.BookingPending
	if p.Confirmed {
		status = model.BookingConfirmed
	}

	b := &model.Booking{
		MachineID:       p.MachineID,
		BookingDate:     p.Date,
		StartTime:       schedule.FormatClock(start),
		EndTime:         schedule.FormatClock(end),
		DurationMinutes: p.DurationMinutes,
		Status:          status,
		CustomerName:    p.CustomerName,
		CustomerPhone:   p.CustomerPhone,
		Notes:           p.Notes,
	}

	unlock := l.lockKey(p.MachineID, p.Date)
	defer unlock()

	err = l.store.InTx(ctx, func(tx store.Store) error {
		if conflict := l.findConflict(ctx, tx, p.MachineID, p.Date, start, end, ""); conflict != nil {
			return conflict
		}
		return tx.InsertBooking(ctx, b)
	})
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	return b, nil
}

// UpdateParams carries a partial update. Nil fields are left alone.
type UpdateParams struct {
	CustomerName    *string
	CustomerPhone   *string
	Notes           *string
	Status          *model.BookingStatus
	MachineID       *int64
	Date            *string
	StartTime       *string
	DurationMinutes *int
}

// Update edits customer fields, notes and status, and reschedules.
// Any change to machine, date, start or duration re-runs the overlap
// check against the new interval, excluding the booking's own row; a
// reschedule can never silently bypass the conflict guard. A booking
// revived from a non-blocking status back to a blocking one is checked
// the same way.
func (l *Ledger) Update(ctx context.Context, id string, p UpdateParams) (*model.Booking, error) {
	b, err := l.getBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	if b.Status == model.BookingCompleted {
		return nil, validationf("booking %s is completed and historical", id)
	}

	if p.CustomerName != nil {
		if *p.CustomerName == "" {
			return nil, validationf("customer name is required")
		}
		b.CustomerName = *p.CustomerName
	}
	if p.CustomerPhone != nil {
		b.CustomerPhone = *p.CustomerPhone
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}

	wasBlocking := b.Status.Blocks()
	if p.Status != nil {
		if !p.Status.Valid() {
			return nil, validationf("unknown booking status %q", *p.Status)
		}
		b.Status = *p.Status
	}

	rescheduled := false
	machineID, date, startStr, duration := b.MachineID, b.BookingDate, b.StartTime, b.DurationMinutes
	if p.MachineID != nil && *p.MachineID != machineID {
		machineID = *p.MachineID
		rescheduled = true
	}
	if p.Date != nil && *p.Date != date {
		date = *p.Date
		rescheduled = true
	}
	if p.StartTime != nil && *p.StartTime != startStr {
		startStr = *p.StartTime
		rescheduled = true
	}
	if p.DurationMinutes != nil && *p.DurationMinutes != duration {
		duration = *p.DurationMinutes
		rescheduled = true
	}

	needsCheck := b.Status.Blocks() && (rescheduled || !wasBlocking)
	if rescheduled {
		start, end, err := l.validateInterval(date, startStr, duration)
		if err != nil {
			return nil, err
		}
		if machineID != b.MachineID {
			if _, err := l.store.GetMachine(ctx, machineID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, &NotFoundError{Kind: "machine", ID: fmt.Sprintf("%d", machineID)}
				}
				return nil, fmt.Errorf("failed to look up machine %d: %w", machineID, err)
			}
		}
		b.MachineID = machineID
		b.BookingDate = date
		b.StartTime = schedule.FormatClock(start)
		b.EndTime = schedule.FormatClock(end)
		b.DurationMinutes = duration
	}

	if needsCheck && !rescheduled {
		// A revival claims its interval anew; a date that has since
		// passed cannot come back blocking.
		if _, _, err := l.validateInterval(b.BookingDate, b.StartTime, b.DurationMinutes); err != nil {
			return nil, err
		}
	}

	if needsCheck {
		start, _ := schedule.ParseClock(b.StartTime)
		end := start + b.DurationMinutes

		unlock := l.lockKey(b.MachineID, b.BookingDate)
		defer unlock()

		err = l.store.InTx(ctx, func(tx store.Store) error {
			if conflict := l.findConflict(ctx, tx, b.MachineID, b.BookingDate, start, end, b.ID); conflict != nil {
				return conflict
			}
			return tx.SaveBooking(ctx, b)
		})
	} else {
		err = l.store.SaveBooking(ctx, b)
	}
	if err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return nil, conflict
		}
		return nil, fmt.Errorf("failed to update booking %s: %w", id, err)
	}
	return b, nil
}

// Cancel releases the booking's interval. Cancelling an already
// cancelled booking succeeds without error.
func (l *Ledger) Cancel(ctx context.Context, id string) error {
	b, err := l.getBooking(ctx, id)
	if err != nil {
		return err
	}
	if b.Status == model.BookingCancelled {
		return nil
	}
	b.Status = model.BookingCancelled
	if err := l.store.SaveBooking(ctx, b); err != nil {
		return fmt.Errorf("failed to cancel booking %s: %w", id, err)
	}
	return nil
}

// Complete marks a fulfilled booking as completed. Terminal.
func (l *Ledger) Complete(ctx context.Context, id string) error {
	b, err := l.getBooking(ctx, id)
	if err != nil {
		return err
	}
	if b.Status == model.BookingCompleted {
		return nil
	}
	b.Status = model.BookingCompleted
	if err := l.store.SaveBooking(ctx, b); err != nil {
		return fmt.Errorf("failed to complete booking %s: %w", id, err)
	}
	return nil
}

// GetByMachineAndDate lists a machine's bookings for one date.
func (l *Ledger) GetByMachineAndDate(ctx context.Context, machineID int64, date string) ([]model.Booking, error) {
	if _, err := time.Parse(shopclock.DateFormat, date); err != nil {
		return nil, validationf("malformed date %q: want YYYY-MM-DD", date)
	}
	return l.store.ListBookings(ctx, machineID, date)
}

// GetDaySchedule builds the classified slot grid for one machine and
// date from a single snapshot read of its bookings.
func (l *Ledger) GetDaySchedule(ctx context.Context, machineID int64, date string) (schedule.DaySchedule, error) {
	bookings, err := l.GetByMachineAndDate(ctx, machineID, date)
	if err != nil {
		return schedule.DaySchedule{}, err
	}
	return schedule.BuildDay(l.cfg.Hours, machineID, date, l.clock.Now(), bookings), nil
}

func (l *Ledger) getBooking(ctx context.Context, id string) (*model.Booking, error) {
	b, err := l.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Kind: "booking", ID: id}
		}
		return nil, fmt.Errorf("failed to load booking %s: %w", id, err)
	}
	return b, nil
}

// validateInterval checks date, start, duration against the catalog,
// the grid and shop-today, and returns the interval in minutes of day.
func (l *Ledger) validateInterval(date, startTime string, duration int) (start, end int, err error) {
	if _, err := time.Parse(shopclock.DateFormat, date); err != nil {
		return 0, 0, validationf("malformed date %q: want YYYY-MM-DD", date)
	}
	if date < l.clock.Today() {
		return 0, 0, validationf("date %s is in the past", date)
	}
	if !l.cfg.DurationAllowed(duration) {
		return 0, 0, validationf("duration %d is not an offered option", duration)
	}

	start, perr := schedule.ParseClock(startTime)
	if perr != nil {
		return 0, 0, &ValidationError{Msg: perr.Error()}
	}
	if !schedule.Aligned(l.cfg.Hours, start) {
		return 0, 0, validationf("start time %s is not on the %d-minute slot grid", startTime, l.cfg.Hours.SlotMinutes)
	}
	end = start + duration
	if !schedule.WithinHours(l.cfg.Hours, start, end) {
		return 0, 0, validationf("interval %s-%s is outside operating hours", startTime, schedule.FormatClock(end))
	}
	return start, end, nil
}

// findConflict returns the first blocking booking whose interval
// intersects [start, end), or nil. excludeID skips the booking's own
// prior row on reschedule.
func (l *Ledger) findConflict(ctx context.Context, tx store.Store, machineID int64, date string, start, end int, excludeID string) error {
	existing, err := tx.ListBookings(ctx, machineID, date)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.ID == excludeID || !other.Status.Blocks() {
			continue
		}
		oStart, err1 := schedule.ParseClock(other.StartTime)
		oEnd, err2 := schedule.ParseClock(other.EndTime)
		if err2 != nil && other.EndTime == "24:00" {
			oEnd, err2 = 24*60, nil
		}
		if err1 != nil || err2 != nil {
			continue
		}
		if start < oEnd && oStart < end {
			return &ConflictError{
				MachineID: machineID,
				Date:      date,
				StartTime: other.StartTime,
				EndTime:   other.EndTime,
			}
		}
	}
	return nil
}

// lockKey serializes writers on one (machine, date) and returns the
// unlock func. Lock cardinality is bounded by machines x dates seen
// since boot, which is small for one venue.
func (l *Ledger) lockKey(machineID int64, date string) func() {
	key := fmt.Sprintf("%d|%s", machineID, date)
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &sync.Mutex{}
		l.locks[key] = lk
	}
	l.mu.Unlock()
	lk.Lock()
	return lk.Unlock
}
