package model

import "time"

// QueueStatus is the lifecycle state of a walk-in queue entry.
type QueueStatus string

const (
	QueueWaiting   QueueStatus = "waiting"
	QueuePlaying   QueueStatus = "playing"
	QueueCompleted QueueStatus = "completed"
	QueueCancelled QueueStatus = "cancelled"
)

// Valid reports whether s is one of the recognized queue statuses.
func (s QueueStatus) Valid() bool {
	switch s {
	case QueueWaiting, QueuePlaying, QueueCompleted, QueueCancelled:
		return true
	}
	return false
}

// Active reports whether the entry still occupies a place in the
// queue (waiting) or on the machine (playing).
func (s QueueStatus) Active() bool {
	return s == QueueWaiting || s == QueuePlaying
}

// QueueEntry is a non-scheduled, arrival-ordered reservation for one
// machine. Positions are 1-based and dense among waiting entries of
// the same machine; they are recomputed after a cancellation, never
// kept as permanent ranks.
type QueueEntry struct {
	ID              string      `gorm:"primaryKey;size:36" json:"id"`
	MachineID       int64       `gorm:"index;not null" json:"machineId"`
	CustomerName    string      `gorm:"size:256;not null" json:"customerName"`
	CustomerPhone   string      `gorm:"size:64" json:"customerPhone"`
	Position        int         `gorm:"not null" json:"position"`
	DurationMinutes int         `gorm:"not null" json:"durationMinutes"`
	Status          QueueStatus `gorm:"size:32;not null" json:"status"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}
