package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"simrig-booking-backend/config"
	"simrig-booking-backend/internal/booking"
	"simrig-booking-backend/internal/db"
	"simrig-booking-backend/internal/model"
	"simrig-booking-backend/internal/store"
)

var dbSeq int

func newTestService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	dbSeq++
	dsn := fmt.Sprintf("file:queuetest%d?mode=memory&cache=shared", dbSeq)
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	s := store.NewGormStore(gormDB)
	require.NoError(t, s.CreateMachine(context.Background(), &model.Machine{
		ID: 1, DisplayName: "Rig 1", IsActive: true, Status: model.MachineAvailable,
	}))

	cfg := &config.Config{Durations: []config.DurationOption{{Minutes: 30}, {Minutes: 60}}}
	return NewService(s, cfg), s
}

func TestJoinAssignsDensePositions(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Join(ctx, 1, "Alice", "", 30)
	require.NoError(t, err)
	second, err := svc.Join(ctx, 1, "Bob", "", 60)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, model.QueueWaiting, first.Status)
}

func TestJoinConcurrentAssignsDistinctPositions(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	const arrivals = 8
	var wg sync.WaitGroup
	for i := 0; i < arrivals; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			svc.Join(ctx, 1, fmt.Sprintf("Guest %d", i), "", 30)
		}(i)
	}
	wg.Wait()

	entries, err := s.ActiveQueueEntries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, arrivals)

	seen := make(map[int]bool)
	for _, e := range entries {
		assert.False(t, seen[e.Position], "position %d assigned twice", e.Position)
		seen[e.Position] = true
		assert.GreaterOrEqual(t, e.Position, 1)
		assert.LessOrEqual(t, e.Position, arrivals)
	}
}

func TestJoinRejectsUnknownDuration(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Join(context.Background(), 1, "Alice", "", 45)
	var validation *booking.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestJoinRejectsUnknownMachine(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Join(context.Background(), 99, "Alice", "", 30)
	var notFound *booking.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestLeaveRecompactsPositions(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	first, _ := svc.Join(ctx, 1, "Alice", "", 30)
	second, _ := svc.Join(ctx, 1, "Bob", "", 30)
	third, _ := svc.Join(ctx, 1, "Cara", "", 30)

	require.NoError(t, svc.Leave(ctx, first.ID))

	entries, err := s.ActiveQueueEntries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, third.ID, entries[1].ID)
	assert.Equal(t, 2, entries[1].Position)

	// Leaving again is a no-op, not an error.
	assert.NoError(t, svc.Leave(ctx, first.ID))
}

func TestLeaveUnknownEntry(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Leave(context.Background(), "nope")
	var notFound *booking.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestTakeNextPromotesFirstWaiting(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	first, _ := svc.Join(ctx, 1, "Alice", "", 30)
	svc.Join(ctx, 1, "Bob", "", 30)

	next, err := svc.TakeNext(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, first.ID, next.ID)
	assert.Equal(t, model.QueuePlaying, next.Status)

	entries, err := s.ActiveQueueEntries(ctx, 1)
	require.NoError(t, err)
	for _, e := range entries {
		if e.Status == model.QueueWaiting {
			assert.Equal(t, 1, e.Position, "remaining waiter moves up")
		}
	}
}

func TestTakeNextEmptyLine(t *testing.T) {
	svc, _ := newTestService(t)

	next, err := svc.TakeNext(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestFinishPlaying(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	svc.Join(ctx, 1, "Alice", "", 30)
	_, err := svc.TakeNext(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, svc.FinishPlaying(ctx, 1))

	entries, err := s.ActiveQueueEntries(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLinePerEntryEstimates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Join(ctx, 1, "Alice", "", 60)
	_, err := svc.TakeNext(ctx, 1)
	require.NoError(t, err)
	svc.Join(ctx, 1, "Bob", "", 30)
	svc.Join(ctx, 1, "Cara", "", 30)

	entries, est, err := svc.Line(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, 120, est.EstimatedWaitMinutes)
	assert.Equal(t, 4, est.NextPosition)

	byName := make(map[string]EntryEstimate)
	for _, e := range entries {
		byName[e.CustomerName] = e
	}
	assert.Equal(t, 0, byName["Alice"].EstimatedWaitMinutes, "playing entry has no wait")
	assert.Equal(t, 60, byName["Bob"].EstimatedWaitMinutes)
	assert.Equal(t, 90, byName["Cara"].EstimatedWaitMinutes)
}
