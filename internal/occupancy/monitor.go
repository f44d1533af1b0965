package occupancy

import (
	"context"
	"log"
	"sync"
	"time"
)

// Notifier receives the ids of machines that just became available.
type Notifier interface {
	Dispatch(machineID int64)
}

// Monitor periodically re-derives occupancy for all machines and
// publishes the snapshot to the hub. The tick exists because states
// change with the clock alone (a reservation turns overdue, a passed
// slot frees nothing); mutations additionally trigger an immediate
// Refresh from the API layer.
type Monitor struct {
	svc      *Service
	hub      *Hub
	notifier Notifier
	interval time.Duration

	mu   sync.Mutex
	prev map[int64]State
}

func NewMonitor(svc *Service, hub *Hub, notifier Notifier, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{
		svc:      svc,
		hub:      hub,
		notifier: notifier,
		interval: interval,
		prev:     make(map[int64]State),
	}
}

// Run ticks until the context is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Refresh(ctx)
	for {
		select {
		case <-ticker.C:
			m.Refresh(ctx)
		case <-ctx.Done():
			log.Println("occupancy monitor shutting down")
			return
		}
	}
}

// Refresh recomputes all machine states, publishes them, and
// dispatches a notification for every machine that transitioned into
// available since the previous snapshot.
func (m *Monitor) Refresh(ctx context.Context) {
	states, err := m.svc.States(ctx)
	if err != nil {
		log.Printf("occupancy refresh failed: %v", err)
		return
	}
	m.hub.Publish(states)

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range states {
		was, seen := m.prev[st.MachineID]
		if seen && was != StateAvailable && st.State == StateAvailable && m.notifier != nil {
			m.notifier.Dispatch(st.MachineID)
		}
		m.prev[st.MachineID] = st.State
	}
}
