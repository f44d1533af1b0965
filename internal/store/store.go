package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"simrig-booking-backend/internal/model"
)

// Store defines the interface for all database operations. The booking
// ledger, occupancy resolver and queue logic all sit on top of this;
// none of them touch gorm directly.
type Store interface {
	DB() *gorm.DB

	// InTx runs fn against a Store bound to one transaction. Used by
	// the ledger to make its check-then-insert atomic.
	InTx(ctx context.Context, fn func(Store) error) error

	// Machines
	ListMachines(ctx context.Context, activeOnly bool) ([]model.Machine, error)
	GetMachine(ctx context.Context, id int64) (*model.Machine, error)
	CreateMachine(ctx context.Context, m *model.Machine) error
	SaveMachine(ctx context.Context, m *model.Machine) error

	// Bookings
	ListBookings(ctx context.Context, machineID int64, date string) ([]model.Booking, error)
	ListBookingsByDate(ctx context.Context, date string) ([]model.Booking, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	InsertBooking(ctx context.Context, b *model.Booking) error
	SaveBooking(ctx context.Context, b *model.Booking) error

	// Sessions
	ActiveSessions(ctx context.Context) ([]model.Session, error)
	ActiveSessionForMachine(ctx context.Context, machineID int64) (*model.Session, error)
	GetSession(ctx context.Context, id string) (*model.Session, error)
	InsertSession(ctx context.Context, s *model.Session) error
	SaveSession(ctx context.Context, s *model.Session) error

	// Walk-in queue
	ActiveQueueEntries(ctx context.Context, machineID int64) ([]model.QueueEntry, error)
	AllActiveQueueEntries(ctx context.Context) ([]model.QueueEntry, error)
	GetQueueEntry(ctx context.Context, id string) (*model.QueueEntry, error)
	InsertQueueEntry(ctx context.Context, e *model.QueueEntry) error
	SaveQueueEntry(ctx context.Context, e *model.QueueEntry) error
	RenumberWaiting(ctx context.Context, machineID int64) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) InTx(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// --- Machines ---

func (s *gormStore) ListMachines(ctx context.Context, activeOnly bool) ([]model.Machine, error) {
	q := s.db.WithContext(ctx).Order("position asc, id asc")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	var machines []model.Machine
	if err := q.Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	return machines, nil
}

func (s *gormStore) GetMachine(ctx context.Context, id int64) (*model.Machine, error) {
	var m model.Machine
	if err := s.db.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *gormStore) CreateMachine(ctx context.Context, m *model.Machine) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *gormStore) SaveMachine(ctx context.Context, m *model.Machine) error {
	return s.db.WithContext(ctx).Save(m).Error
}

// --- Bookings ---

func (s *gormStore) ListBookings(ctx context.Context, machineID int64, date string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("machine_id = ? AND booking_date = ?", machineID, date).
		Order("start_time asc").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for machine %d on %s: %w", machineID, date, err)
	}
	return bookings, nil
}

func (s *gormStore) ListBookingsByDate(ctx context.Context, date string) ([]model.Booking, error) {
	var bookings []model.Booking
	err := s.db.WithContext(ctx).
		Where("booking_date = ?", date).
		Order("machine_id asc, start_time asc").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings on %s: %w", date, err)
	}
	return bookings, nil
}

func (s *gormStore) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := s.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *gormStore) InsertBooking(ctx context.Context, b *model.Booking) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(b).Error
}

func (s *gormStore) SaveBooking(ctx context.Context, b *model.Booking) error {
	return s.db.WithContext(ctx).Save(b).Error
}

// --- Sessions ---

func (s *gormStore) ActiveSessions(ctx context.Context) ([]model.Session, error) {
	var sessions []model.Session
	if err := s.db.WithContext(ctx).Where("end_time IS NULL").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	return sessions, nil
}

// ActiveSessionForMachine returns nil when the machine has no running
// session; that is a normal answer, not an error.
func (s *gormStore) ActiveSessionForMachine(ctx context.Context, machineID int64) (*model.Session, error) {
	var sess model.Session
	err := s.db.WithContext(ctx).
		Where("machine_id = ? AND end_time IS NULL", machineID).
		First(&sess).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up active session for machine %d: %w", machineID, err)
	}
	return &sess, nil
}

func (s *gormStore) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var sess model.Session
	if err := s.db.WithContext(ctx).First(&sess, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *gormStore) InsertSession(ctx context.Context, sess *model.Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(sess).Error
}

func (s *gormStore) SaveSession(ctx context.Context, sess *model.Session) error {
	return s.db.WithContext(ctx).Save(sess).Error
}

// --- Walk-in queue ---

func (s *gormStore) ActiveQueueEntries(ctx context.Context, machineID int64) ([]model.QueueEntry, error) {
	var entries []model.QueueEntry
	err := s.db.WithContext(ctx).
		Where("machine_id = ? AND status IN ?", machineID, []model.QueueStatus{model.QueueWaiting, model.QueuePlaying}).
		Order("position asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries for machine %d: %w", machineID, err)
	}
	return entries, nil
}

func (s *gormStore) AllActiveQueueEntries(ctx context.Context) ([]model.QueueEntry, error) {
	var entries []model.QueueEntry
	err := s.db.WithContext(ctx).
		Where("status IN ?", []model.QueueStatus{model.QueueWaiting, model.QueuePlaying}).
		Order("machine_id asc, position asc").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list queue entries: %w", err)
	}
	return entries, nil
}

func (s *gormStore) GetQueueEntry(ctx context.Context, id string) (*model.QueueEntry, error) {
	var e model.QueueEntry
	if err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *gormStore) InsertQueueEntry(ctx context.Context, e *model.QueueEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return s.db.WithContext(ctx).Create(e).Error
}

func (s *gormStore) SaveQueueEntry(ctx context.Context, e *model.QueueEntry) error {
	return s.db.WithContext(ctx).Save(e).Error
}

// RenumberWaiting reassigns dense 1-based positions to the waiting
// entries of one machine, ordered by arrival. Called after a
// cancellation or a check-in removed an entry from the line.
func (s *gormStore) RenumberWaiting(ctx context.Context, machineID int64) error {
	var waiting []model.QueueEntry
	err := s.db.WithContext(ctx).
		Where("machine_id = ? AND status = ?", machineID, model.QueueWaiting).
		Order("position asc, created_at asc").
		Find(&waiting).Error
	if err != nil {
		return fmt.Errorf("failed to load waiting entries for machine %d: %w", machineID, err)
	}

	for i := range waiting {
		want := i + 1
		if waiting[i].Position == want {
			continue
		}
		err := s.db.WithContext(ctx).
			Model(&model.QueueEntry{}).
			Where("id = ?", waiting[i].ID).
			Updates(map[string]any{"position": want, "updated_at": time.Now()}).Error
		if err != nil {
			return fmt.Errorf("failed to renumber queue entry %s: %w", waiting[i].ID, err)
		}
	}
	return nil
}
