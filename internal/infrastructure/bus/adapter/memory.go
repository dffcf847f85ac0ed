package adapter

import (
	"context"
	"errors"
	"sync"

	"teamchat/internal/infrastructure/bus/port"
)

// MemoryBus is a single-process port.Bus used in tests and single-node
// development setups. Publish dispatches synchronously to every subscriber of
// the channel, in subscription order, which trivially preserves per-channel
// publication order.
type MemoryBus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string][]memorySub
	closed bool
}

type memorySub struct {
	id      int
	handler port.Handler
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string][]memorySub)}
}

var _ port.Bus = (*MemoryBus)(nil)

func (b *MemoryBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errors.New("bus: closed")
	}
	subs := make([]memorySub, len(b.subs[channel]))
	copy(subs, b.subs[channel])
	b.mu.Unlock()

	for _, s := range subs {
		s.handler(ctx, channel, payload)
	}
	return nil
}

func (b *MemoryBus) Subscribe(ctx context.Context, channel string, h port.Handler) (func(), error) {
	if h == nil {
		return nil, errors.New("bus: nil handler")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, errors.New("bus: closed")
	}
	b.nextID++
	id := b.nextID
	b.subs[channel] = append(b.subs[channel], memorySub{id: id, handler: h})
	b.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			subs := b.subs[channel]
			for i, s := range subs {
				if s.id == id {
					b.subs[channel] = append(subs[:i], subs[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
		})
	}
	return unsubscribe, nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.subs = make(map[string][]memorySub)
	b.mu.Unlock()
	return nil
}
