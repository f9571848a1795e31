package notify

import (
	"context"
	"sync"

	"title-party/internal/game"
)

// Bus fans change notifications out to in-process subscribers. Each
// subscriber is called on its own goroutine, so delivery order is not
// guaranteed.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(game.Change)
}

func NewBus() *Bus {
	return &Bus{subs: map[int]func(game.Change){}}
}

func (b *Bus) Publish(_ context.Context, change game.Change) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, fn := range b.subs {
		go fn(change)
	}
	return nil
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn func(game.Change)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}
