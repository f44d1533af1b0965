package occupancy

import (
	"context"

	"simrig-booking-backend/internal/model"
	"simrig-booking-backend/internal/shopclock"
	"simrig-booking-backend/internal/store"
)

// Service assembles resolution snapshots from storage. It owns no
// state of its own; every call is a fresh derivation.
type Service struct {
	store store.Store
	clock shopclock.Clock
}

func NewService(s store.Store, clock shopclock.Clock) *Service {
	return &Service{store: s, clock: clock}
}

// States resolves every machine. The three reads happen inside one
// transaction so a booking cancelled mid-computation cannot produce a
// torn view.
func (s *Service) States(ctx context.Context) ([]MachineState, error) {
	now := s.clock.Now()
	var out []MachineState
	err := s.store.InTx(ctx, func(tx store.Store) error {
		machines, err := tx.ListMachines(ctx, false)
		if err != nil {
			return err
		}
		sessions, err := tx.ActiveSessions(ctx)
		if err != nil {
			return err
		}
		bookings, err := tx.ListBookingsByDate(ctx, s.clock.Today())
		if err != nil {
			return err
		}

		sessionByMachine := make(map[int64]*model.Session, len(sessions))
		for i := range sessions {
			sessionByMachine[sessions[i].MachineID] = &sessions[i]
		}
		bookingsByMachine := make(map[int64][]model.Booking)
		for _, b := range bookings {
			bookingsByMachine[b.MachineID] = append(bookingsByMachine[b.MachineID], b)
		}

		out = make([]MachineState, 0, len(machines))
		for _, m := range machines {
			out = append(out, Resolve(Snapshot{
				Machine:       m,
				ActiveSession: sessionByMachine[m.ID],
				TodayBookings: bookingsByMachine[m.ID],
				Now:           now,
			}))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StateFor resolves a single machine.
func (s *Service) StateFor(ctx context.Context, machineID int64) (MachineState, error) {
	now := s.clock.Now()
	var st MachineState
	err := s.store.InTx(ctx, func(tx store.Store) error {
		m, err := tx.GetMachine(ctx, machineID)
		if err != nil {
			return err
		}
		sess, err := tx.ActiveSessionForMachine(ctx, machineID)
		if err != nil {
			return err
		}
		bookings, err := tx.ListBookings(ctx, machineID, s.clock.Today())
		if err != nil {
			return err
		}
		st = Resolve(Snapshot{Machine: *m, ActiveSession: sess, TodayBookings: bookings, Now: now})
		return nil
	})
	return st, err
}
