package cartstore

import "sync"

type EventType string

const (
	EventSaved   EventType = "saved"
	EventCleared EventType = "cleared"
)

// Event is published on every Save and Clear so other views in the same
// process (header badge, an open cart screen) can refresh without re-reading
// on a schedule.
type Event struct {
	Type      EventType
	LineCount int
}

// Bus is an in-process publish/subscribe channel for cart changes.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe returns a buffered event channel and an unsubscribe function.
// Slow subscribers drop events rather than block publishers.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, 16)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
}

func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
