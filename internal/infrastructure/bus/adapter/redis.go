package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"teamchat/internal/infrastructure/bus/port"
)

// RedisBus implements port.Bus on Redis pub/sub. Every instance subscribing to
// a channel receives each payload published to it, including payloads it
// published itself; Redis preserves publication order per channel.
type RedisBus struct {
	client *redis.Client

	mu     sync.Mutex
	subs   map[*redis.PubSub]struct{}
	closed bool
}

// NewRedisBus constructs a RedisBus for the given Redis URL and verifies
// connectivity with a ping.
func NewRedisBus(url string) (*RedisBus, error) {
	if url == "" {
		return nil, errors.New("bus: empty redis URL")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("bus: parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("bus: ping: %w", err)
	}
	return &RedisBus{client: c, subs: make(map[*redis.PubSub]struct{})}, nil
}

var _ port.Bus = (*RedisBus)(nil)

func (b *RedisBus) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, channel string, h port.Handler) (func(), error) {
	if h == nil {
		return nil, errors.New("bus: nil handler")
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, errors.New("bus: closed")
	}
	ps := b.client.Subscribe(ctx, channel)
	b.subs[ps] = struct{}{}
	b.mu.Unlock()

	// Confirm the subscription before returning so a publish issued right
	// after Subscribe cannot be missed.
	if _, err := ps.Receive(ctx); err != nil {
		b.drop(ps)
		return nil, fmt.Errorf("bus: subscribe %s: %w", channel, err)
	}

	go func() {
		// Channel() serializes messages, which keeps per-channel ordering.
		for msg := range ps.Channel() {
			h(ctx, msg.Channel, []byte(msg.Payload))
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() { b.drop(ps) })
	}
	return unsubscribe, nil
}

func (b *RedisBus) Close() error {
	b.mu.Lock()
	b.closed = true
	subs := make([]*redis.PubSub, 0, len(b.subs))
	for ps := range b.subs {
		subs = append(subs, ps)
	}
	b.subs = make(map[*redis.PubSub]struct{})
	b.mu.Unlock()

	for _, ps := range subs {
		_ = ps.Close()
	}
	return b.client.Close()
}

func (b *RedisBus) drop(ps *redis.PubSub) {
	b.mu.Lock()
	delete(b.subs, ps)
	b.mu.Unlock()
	_ = ps.Close()
}
