package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"simrig-booking-backend/config"
	"simrig-booking-backend/internal/booking"
	"simrig-booking-backend/internal/db"
	"simrig-booking-backend/internal/model"
	"simrig-booking-backend/internal/queue"
	"simrig-booking-backend/internal/shopclock"
	"simrig-booking-backend/internal/store"
)

var sessionDBSeq int

type fixture struct {
	svc    *Service
	ledger *booking.Ledger
	queue  *queue.Service
	store  store.Store
	clock  *shopclock.MockClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessionDBSeq++
	dsn := fmt.Sprintf("file:sessiontest%d?mode=memory&cache=shared", sessionDBSeq)
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	s := store.NewGormStore(gormDB)
	require.NoError(t, s.CreateMachine(context.Background(), &model.Machine{
		ID: 1, DisplayName: "Rig 1", IsActive: true, Status: model.MachineAvailable,
	}))

	cfg := &config.Config{
		Hours: config.HoursConfig{
			OpenHour:    10,
			CloseHour:   22,
			SlotMinutes: 30,
			Enabled:     true,
		},
		Durations: []config.DurationOption{{Minutes: 30}, {Minutes: 60}, {Minutes: 120}},
	}
	clock := shopclock.NewMock(time.Date(2025, 6, 10, 13, 0, 0, 0, time.UTC))
	ledger := booking.NewLedger(s, clock, cfg)
	q := queue.NewService(s, cfg)
	return &fixture{
		svc:    NewService(s, clock, ledger, q),
		ledger: ledger,
		queue:  q,
		store:  s,
		clock:  clock,
	}
}

func TestCheckInWalkIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.CheckIn(ctx, 1, "Alice", 60)
	require.NoError(t, err)
	assert.Equal(t, "Alice", sess.CustomerName)
	assert.Nil(t, sess.BookingID)
	assert.True(t, sess.Active())

	m, err := f.store.GetMachine(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.MachineOccupied, m.Status)
}

func TestCheckInWalkInRequiresName(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckIn(context.Background(), 1, "", 60)
	var validation *booking.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCheckInLinksConfirmedBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.ledger.Create(ctx, booking.CreateParams{
		MachineID: 1, Date: "2025-06-10", StartTime: "13:00",
		DurationMinutes: 60, CustomerName: "Booked Bob", Confirmed: true,
	})
	require.NoError(t, err)

	// Empty name and zero duration default to the linked booking.
	sess, err := f.svc.CheckIn(ctx, 1, "", 0)
	require.NoError(t, err)
	require.NotNil(t, sess.BookingID)
	assert.Equal(t, b.ID, *sess.BookingID)
	assert.Equal(t, "Booked Bob", sess.CustomerName)
	assert.Equal(t, 60, sess.DurationMinutes)
}

func TestCheckInPromotesQueueWhenNoBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.queue.Join(ctx, 1, "Waiting Wendy", "", 30)
	require.NoError(t, err)

	sess, err := f.svc.CheckIn(ctx, 1, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "Waiting Wendy", sess.CustomerName)
	assert.Equal(t, 30, sess.DurationMinutes)

	promoted, err := f.store.GetQueueEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QueuePlaying, promoted.Status)
}

func TestCheckInRejectsOccupiedMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CheckIn(ctx, 1, "Alice", 60)
	require.NoError(t, err)

	_, err = f.svc.CheckIn(ctx, 1, "Bob", 60)
	assert.ErrorIs(t, err, ErrMachineOccupied)
}

func TestCheckInConcurrentSingleSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	var rejections []error
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.svc.CheckIn(ctx, 1, fmt.Sprintf("Customer %d", i), 60)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else {
				rejections = append(rejections, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one check-in may win")
	for _, err := range rejections {
		assert.True(t, errors.Is(err, ErrMachineOccupied), "unexpected rejection: %v", err)
	}

	sessions, err := f.store.ActiveSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestCheckInRejectsMaintenanceMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	m, err := f.store.GetMachine(ctx, 1)
	require.NoError(t, err)
	m.Status = model.MachineMaintenance
	require.NoError(t, f.store.SaveMachine(ctx, m))

	_, err = f.svc.CheckIn(ctx, 1, "Alice", 60)
	assert.ErrorIs(t, err, ErrMaintenance)
}

func TestCheckInUnknownMachine(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CheckIn(context.Background(), 99, "Alice", 60)
	var notFound *booking.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestEndReleasesMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.CheckIn(ctx, 1, "Alice", 60)
	require.NoError(t, err)

	require.NoError(t, f.svc.End(ctx, sess.ID))

	ended, err := f.store.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, ended.Active())

	m, err := f.store.GetMachine(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.MachineAvailable, m.Status)

	// Ending again is a no-op.
	assert.NoError(t, f.svc.End(ctx, sess.ID))
}

func TestEndCompletesLinkedBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	b, err := f.ledger.Create(ctx, booking.CreateParams{
		MachineID: 1, Date: "2025-06-10", StartTime: "13:00",
		DurationMinutes: 60, CustomerName: "Booked Bob", Confirmed: true,
	})
	require.NoError(t, err)

	sess, err := f.svc.CheckIn(ctx, 1, "", 0)
	require.NoError(t, err)
	require.NoError(t, f.svc.End(ctx, sess.ID))

	done, err := f.store.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, done.Status)
}

func TestEndCompletesPlayingQueueEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.queue.Join(ctx, 1, "Wendy", "", 30)
	require.NoError(t, err)
	sess, err := f.svc.CheckIn(ctx, 1, "", 0)
	require.NoError(t, err)

	require.NoError(t, f.svc.End(ctx, sess.ID))

	finished, err := f.store.GetQueueEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, model.QueueCompleted, finished.Status)
}

func TestEndKeepsMachineHeldForUpcomingBooking(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The session fulfills the 13:00 booking; the 18:00 booking keeps
	// the machine out of the available pool when the session ends.
	current, err := f.ledger.Create(ctx, booking.CreateParams{
		MachineID: 1, Date: "2025-06-10", StartTime: "13:00",
		DurationMinutes: 60, CustomerName: "Booked Bob", Confirmed: true,
	})
	require.NoError(t, err)
	_, err = f.ledger.Create(ctx, booking.CreateParams{
		MachineID: 1, Date: "2025-06-10", StartTime: "18:00",
		DurationMinutes: 60, CustomerName: "Evening Eve", Confirmed: true,
	})
	require.NoError(t, err)

	sess, err := f.svc.CheckIn(ctx, 1, "", 0)
	require.NoError(t, err)
	require.NotNil(t, sess.BookingID)
	require.Equal(t, current.ID, *sess.BookingID)
	require.NoError(t, f.svc.End(ctx, sess.ID))

	m, err := f.store.GetMachine(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.MachineOccupied, m.Status)
}

func TestEndDoesNotRevertMaintenance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.svc.CheckIn(ctx, 1, "Alice", 60)
	require.NoError(t, err)

	m, err := f.store.GetMachine(ctx, 1)
	require.NoError(t, err)
	m.Status = model.MachineMaintenance
	require.NoError(t, f.store.SaveMachine(ctx, m))

	require.NoError(t, f.svc.End(ctx, sess.ID))

	m, err = f.store.GetMachine(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.MachineMaintenance, m.Status)
}

func TestEndUnknownSession(t *testing.T) {
	f := newFixture(t)

	err := f.svc.End(context.Background(), "nope")
	var notFound *booking.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
