package app

import (
	"sync"

	"global_explorer/internal/domain"
)

// Bus fans store change events out to subscribers. Publish is synchronous;
// subscribers must not block.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(domain.Event)
}

func NewBus() *Bus {
	return &Bus{subs: map[int]func(domain.Event){}}
}

// Subscribe registers fn and returns its cancel function.
func (b *Bus) Subscribe(fn func(domain.Event)) (cancel func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

func (b *Bus) Publish(ev domain.Event) {
	b.mu.RLock()
	fns := make([]func(domain.Event), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()
	for _, fn := range fns {
		fn(ev)
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(domain.Event) {}
