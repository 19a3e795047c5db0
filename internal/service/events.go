package service

import "sync"

// Broadcaster fans values out to subscribers. Publishing never blocks:
// a subscriber whose buffer is full misses the value.
type Broadcaster[T any] struct {
	mu   sync.RWMutex
	next int
	subs map[int]chan T
}

// Subscribe returns a channel of future values and a function that ends the subscription.
func (b *Broadcaster[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan T, buffer)

	b.mu.Lock()
	if b.subs == nil {
		b.subs = make(map[int]chan T)
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
		}
	}
}

// EventKind names what changed in an edit source.
type EventKind string

const (
	EventCountry  EventKind = "country"
	EventCity     EventKind = "city"
	EventNote     EventKind = "note"
	EventModified EventKind = "modified"
)

// Event reports a change of one (source, year).
type Event struct {
	Kind     EventKind `json:"kind"`
	Source   string    `json:"source"`
	Year     int       `json:"year"`
	Modified bool      `json:"modified,omitempty"`
}
