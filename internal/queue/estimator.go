package queue

import "simrig-booking-backend/internal/model"

// Estimate summarizes the walk-in line for one machine. The wait math
// is a plain prefix sum: every entry is assumed to consume exactly its
// stated duration, with no overrun.
type Estimate struct {
	MachineID            int64 `json:"machineId"`
	WaitingCount         int   `json:"waitingCount"`
	PlayingCount         int   `json:"playingCount"`
	EstimatedWaitMinutes int   `json:"estimatedWaitMinutes"`
	NextPosition         int   `json:"nextPosition"`
}

// Estimator computes the line estimate for a new arrival from the
// machine's active (waiting or playing) entries.
func Estimator(machineID int64, entries []model.QueueEntry) Estimate {
	est := Estimate{MachineID: machineID}
	for _, e := range entries {
		switch e.Status {
		case model.QueuePlaying:
			est.PlayingCount++
			est.EstimatedWaitMinutes += e.DurationMinutes
		case model.QueueWaiting:
			est.WaitingCount++
			est.EstimatedWaitMinutes += e.DurationMinutes
		}
	}
	est.NextPosition = est.WaitingCount + est.PlayingCount + 1
	return est
}

// WaitForPosition computes the estimated wait for the waiting entry at
// the given 1-based position: the playing entry plus every waiting
// entry ordered strictly before it.
func WaitForPosition(entries []model.QueueEntry, position int) int {
	wait := 0
	for _, e := range entries {
		switch {
		case e.Status == model.QueuePlaying:
			wait += e.DurationMinutes
		case e.Status == model.QueueWaiting && e.Position < position:
			wait += e.DurationMinutes
		}
	}
	return wait
}
