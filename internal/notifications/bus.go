package notifications

import (
	"context"
	"sync"

	"tablebook/pkg/logger"
	"tablebook/pkg/model"
)

// Bus fans reservation events out to in-process subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]chan ReservationEvent
	nextID int
	log    *logger.Logger
}

func NewBus(log *logger.Logger) *Bus {
	return &Bus{
		subs: make(map[int]chan ReservationEvent),
		log:  log,
	}
}

// Subscribe returns a channel of future events and a func that ends the
// subscription and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan ReservationEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan ReservationEvent, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
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

func (b *Bus) Notify(_ context.Context, kind Kind, reservation *model.Reservation) error {
	b.Publish(NewEvent(kind, reservation))
	return nil
}

func (b *Bus) Publish(event ReservationEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.log.Warn("Dropped reservation event for slow subscriber",
				"subscriber", id,
				"kind", event.Kind,
				"tenant_id", event.TenantID,
			)
		}
	}
}

func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
