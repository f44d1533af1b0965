package occupancy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHubReplaysLastSnapshotToNewSubscriber(t *testing.T) {
	hub := NewHub()
	first := []MachineState{{MachineID: 1, State: StateAvailable}}
	hub.Publish(first)

	ch, cancel := hub.Subscribe()
	defer cancel()

	select {
	case got := <-ch:
		assert.Equal(t, first, got)
	case <-time.After(time.Second):
		t.Fatal("expected replay of last snapshot")
	}
}

func TestHubFansOutToAllSubscribers(t *testing.T) {
	hub := NewHub()

	ch1, cancel1 := hub.Subscribe()
	defer cancel1()
	ch2, cancel2 := hub.Subscribe()
	defer cancel2()

	snapshot := []MachineState{{MachineID: 2, State: StateOccupied}}
	hub.Publish(snapshot)

	for _, ch := range []<-chan []MachineState{ch1, ch2} {
		select {
		case got := <-ch:
			assert.Equal(t, snapshot, got)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive snapshot")
		}
	}
}

func TestHubCancelledSubscriberStopsReceiving(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	cancel()

	hub.Publish([]MachineState{{MachineID: 1}})

	select {
	case <-ch:
		t.Fatal("no message expected after cancel")
	default:
	}
}

func TestHubLast(t *testing.T) {
	hub := NewHub()
	assert.Nil(t, hub.Last())

	snapshot := []MachineState{{MachineID: 1, State: StateReserved, Overdue: true}}
	hub.Publish(snapshot)
	assert.Equal(t, snapshot, hub.Last())
}
