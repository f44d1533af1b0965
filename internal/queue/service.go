package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"simrig-booking-backend/config"
	"simrig-booking-backend/internal/booking"
	"simrig-booking-backend/internal/model"
	"simrig-booking-backend/internal/store"
)

// Service owns the walk-in queue lifecycle: join, leave, the playing
// transitions driven by check-in and end-session, and estimates. Joins
// serialize per machine so concurrent arrivals get distinct positions.
type Service struct {
	store store.Store
	cfg   *config.Config

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewService(s store.Store, cfg *config.Config) *Service {
	return &Service{store: s, cfg: cfg, locks: make(map[int64]*sync.Mutex)}
}

// lockMachine serializes queue writers on one machine and returns the
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

// Join appends a customer to a machine's waiting line. The assigned
// position keeps the dense 1-based ordering among waiting entries.
func (s *Service) Join(ctx context.Context, machineID int64, name, phone string, durationMinutes int) (*model.QueueEntry, error) {
	if name == "" {
		return nil, &booking.ValidationError{Msg: "customer name is required"}
	}
	if !s.cfg.DurationAllowed(durationMinutes) {
		return nil, &booking.ValidationError{Msg: fmt.Sprintf("duration %d is not an offered option", durationMinutes)}
	}
	if _, err := s.store.GetMachine(ctx, machineID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &booking.NotFoundError{Kind: "machine", ID: fmt.Sprintf("%d", machineID)}
		}
		return nil, fmt.Errorf("failed to look up machine %d: %w", machineID, err)
	}

	entry := &model.QueueEntry{
		MachineID:       machineID,
		CustomerName:    name,
		CustomerPhone:   phone,
		DurationMinutes: durationMinutes,
		Status:          model.QueueWaiting,
	}

	unlock := s.lockMachine(machineID)
	defer unlock()

	err := s.store.InTx(ctx, func(tx store.Store) error {
		entries, err := tx.ActiveQueueEntries(ctx, machineID)
		if err != nil {
			return err
		}
		waiting := 0
		for _, e := range entries {
			if e.Status == model.QueueWaiting {
				waiting++
			}
		}
		entry.Position = waiting + 1
		return tx.InsertQueueEntry(ctx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join queue: %w", err)
	}
	return entry, nil
}

// Leave cancels a queue entry and recompacts the remaining positions.
// Leaving an already terminal entry succeeds without error.
func (s *Service) Leave(ctx context.Context, id string) error {
	entry, err := s.store.GetQueueEntry(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &booking.NotFoundError{Kind: "queue entry", ID: id}
		}
		return fmt.Errorf("failed to load queue entry %s: %w", id, err)
	}
	if !entry.Status.Active() {
		return nil
	}

	return s.store.InTx(ctx, func(tx store.Store) error {
		entry.Status = model.QueueCancelled
		if err := tx.SaveQueueEntry(ctx, entry); err != nil {
			return err
		}
		return tx.RenumberWaiting(ctx, entry.MachineID)
	})
}

// TakeNext promotes the first waiting entry of a machine to playing
// and recompacts the line. Returns nil when nobody is waiting; that is
// the walk-in check-in path asking, not an error.
func (s *Service) TakeNext(ctx context.Context, machineID int64) (*model.QueueEntry, error) {
	var next *model.QueueEntry
	err := s.store.InTx(ctx, func(tx store.Store) error {
		entries, err := tx.ActiveQueueEntries(ctx, machineID)
		if err != nil {
			return err
		}
		for i := range entries {
			if entries[i].Status == model.QueueWaiting {
				next = &entries[i]
				break
			}
		}
		if next == nil {
			return nil
		}
		next.Status = model.QueuePlaying
		if err := tx.SaveQueueEntry(ctx, next); err != nil {
			return err
		}
		return tx.RenumberWaiting(ctx, machineID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to take next queue entry for machine %d: %w", machineID, err)
	}
	return next, nil
}

// FinishPlaying marks a machine's playing entry completed. No-op when
// the machine has no playing entry.
func (s *Service) FinishPlaying(ctx context.Context, machineID int64) error {
	return s.store.InTx(ctx, func(tx store.Store) error {
		entries, err := tx.ActiveQueueEntries(ctx, machineID)
		if err != nil {
			return err
		}
		for i := range entries {
			if entries[i].Status == model.QueuePlaying {
				entries[i].Status = model.QueueCompleted
				if err := tx.SaveQueueEntry(ctx, &entries[i]); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// EntryEstimate is one live entry with its prefix-sum wait.
type EntryEstimate struct {
	model.QueueEntry
	EstimatedWaitMinutes int `json:"estimatedWaitMinutes"`
}

// Line returns a machine's active entries with per-entry waits plus
// the new-arrival estimate.
func (s *Service) Line(ctx context.Context, machineID int64) ([]EntryEstimate, Estimate, error) {
	entries, err := s.store.ActiveQueueEntries(ctx, machineID)
	if err != nil {
		return nil, Estimate{}, err
	}

	out := make([]EntryEstimate, 0, len(entries))
	for _, e := range entries {
		wait := 0
		if e.Status == model.QueueWaiting {
			wait = WaitForPosition(entries, e.Position)
		}
		out = append(out, EntryEstimate{QueueEntry: e, EstimatedWaitMinutes: wait})
	}
	return out, Estimator(machineID, entries), nil
}
