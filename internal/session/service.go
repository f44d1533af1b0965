package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"simrig-booking-backend/internal/booking"
	"simrig-booking-backend/internal/model"
	"simrig-booking-backend/internal/occupancy"
	"simrig-booking-backend/internal/queue"
	"simrig-booking-backend/internal/schedule"
	"simrig-booking-backend/internal/shopclock"
	"simrig-booking-backend/internal/store"
)

var (
	// ErrMachineOccupied rejects a check-in while a session runs.
	ErrMachineOccupied = errors.New("machine already has an active session")
	// ErrMaintenance rejects a check-in on a machine flagged for
	// maintenance. The occupancy resolver never blocks on this flag;
	// the action does.
	ErrMaintenance = errors.New("machine is under maintenance")
)

// Service owns the two actions that move a machine between derived
// states: check-in (creates a session) and end-session (closes it).
// Check-ins serialize per machine so two concurrent requests can never
// both pass the active-session check.
type Service struct {
	store  store.Store
	clock  shopclock.Clock
	ledger *booking.Ledger
	queue  *queue.Service

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewService(s store.Store, clock shopclock.Clock, ledger *booking.Ledger, q *queue.Service) *Service {
	return &Service{
		store:  s,
		clock:  clock,
		ledger: ledger,
		queue:  q,
		locks:  make(map[int64]*sync.Mutex),
	}
}

// lockMachine serializes check-ins on one machine and returns the
// unlock func.
func (s *Service) lockMachine(machineID int64) func() {
	s.mu.Lock()
	lk, ok := s.locks[machineID]
	if !ok {
		lk = &sync.Mutex{}
		s.locks[machineID] = lk
	}
	s.mu.Unlock()
	lk.Lock()
	return lk.Unlock
}

// CheckIn starts a session on a machine. A machine reserved by a
// confirmed booking links the session to that booking; otherwise the
// first waiting queue entry is promoted and played; otherwise the
// explicit customer name starts a plain walk-in session.
func (s *Service) CheckIn(ctx context.Context, machineID int64, customerName string, durationMinutes int) (*model.Session, error) {
	m, err := s.store.GetMachine(ctx, machineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &booking.NotFoundError{Kind: "machine", ID: fmt.Sprintf("%d", machineID)}
		}
		return nil, fmt.Errorf("failed to look up machine %d: %w", machineID, err)
	}
	if m.Status == model.MachineMaintenance {
		return nil, ErrMaintenance
	}

	unlock := s.lockMachine(machineID)
	defer unlock()

	active, err := s.store.ActiveSessionForMachine(ctx, machineID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, ErrMachineOccupied
	}

	now := s.clock.Now()
	sess := &model.Session{
		MachineID:       machineID,
		CustomerName:    customerName,
		StartTime:       now,
		DurationMinutes: durationMinutes,
	}

	todays, err := s.store.ListBookings(ctx, machineID, s.clock.Today())
	if err != nil {
		return nil, err
	}
	if next := occupancy.NearestBooking(todays, now); next != nil {
		sess.BookingID = &next.ID
		if sess.CustomerName == "" {
			sess.CustomerName = next.CustomerName
		}
		if sess.DurationMinutes == 0 {
			sess.DurationMinutes = next.DurationMinutes
		}
	} else {
		entry, err := s.queue.TakeNext(ctx, machineID)
		if err != nil {
			return nil, err
		}
		if entry != nil {
			if sess.CustomerName == "" {
				sess.CustomerName = entry.CustomerName
			}
			if sess.DurationMinutes == 0 {
				sess.DurationMinutes = entry.DurationMinutes
			}
		}
	}
	if sess.CustomerName == "" {
		return nil, &booking.ValidationError{Msg: "customer name is required for a walk-in check-in"}
	}

	if err := s.store.InsertSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	m.Status = model.MachineOccupied
	if err := s.store.SaveMachine(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to flag machine %d occupied: %w", machineID, err)
	}
	return sess, nil
}

// End closes a session and releases the machine: a linked booking is
// completed, a playing queue entry is completed, and the
// administrative flag reverts to available when nothing further is
// queued for today. Ending an already ended session succeeds.
func (s *Service) End(ctx context.Context, sessionID string) error {
	sess, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &booking.NotFoundError{Kind: "session", ID: sessionID}
		}
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	if !sess.Active() {
		return nil
	}

	now := s.clock.Now()
	sess.EndTime = &now
	if err := s.store.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("failed to end session %s: %w", sessionID, err)
	}

	if sess.BookingID != nil {
		if err := s.ledger.Complete(ctx, *sess.BookingID); err != nil {
			return err
		}
	}
	if err := s.queue.FinishPlaying(ctx, sess.MachineID); err != nil {
		return err
	}

	m, err := s.store.GetMachine(ctx, sess.MachineID)
	if err != nil {
		return fmt.Errorf("failed to look up machine %d: %w", sess.MachineID, err)
	}
	if m.Status != model.MachineMaintenance {
		remaining, err := s.upcomingToday(ctx, sess.MachineID, now)
		if err != nil {
			return err
		}
		if !remaining {
			m.Status = model.MachineAvailable
			if err := s.store.SaveMachine(ctx, m); err != nil {
				return fmt.Errorf("failed to release machine %d: %w", sess.MachineID, err)
			}
		}
	}
	return nil
}

// upcomingToday reports whether any blocking booking for the machine
// still ends after now today.
func (s *Service) upcomingToday(ctx context.Context, machineID int64, now time.Time) (bool, error) {
	todays, err := s.store.ListBookings(ctx, machineID, s.clock.Today())
	if err != nil {
		return false, err
	}
	nowMinutes := now.Hour()*60 + now.Minute()
	for _, b := range todays {
		if !b.Status.Blocks() {
			continue
		}
		end, err := schedule.ParseClock(b.EndTime)
		if err != nil {
			if b.EndTime == "24:00" {
				end = 24 * 60
			} else {
				continue
			}
		}
		if end > nowMinutes {
			return true, nil
		}
	}
	return false, nil
}
