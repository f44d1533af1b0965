package occupancy

import "sync"

// Hub broadcasts recomputed occupancy snapshots to live subscribers
// (SSE connections). It is a cache of the pure derivation, refreshed
// on every mutation and on the monitor tick, never independently
// mutated. New subscribers get the last snapshot replayed immediately.
type Hub struct {
	mu   sync.RWMutex
	subs map[chan []MachineState]struct{}
	last []MachineState
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan []MachineState]struct{})}
}

// Subscribe registers a listener and replays the last known snapshot.
// The returned cancel func must be called when the listener goes away.
func (h *Hub) Subscribe() (<-chan []MachineState, func()) {
	ch := make(chan []MachineState, 4)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	if h.last != nil {
		ch <- h.last
	}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish fans a snapshot out to every subscriber. A subscriber that
// has fallen behind misses intermediate snapshots rather than blocking
// the publisher; it will catch up on the next one.
func (h *Hub) Publish(states []MachineState) {
	h.mu.Lock()
	h.last = states
	for ch := range h.subs {
		select {
		case ch <- states:
		default:
		}
	}
	h.mu.Unlock()
}

// Last returns the most recently published snapshot, or nil before the
// first publish.
func (h *Hub) Last() []MachineState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last
}
