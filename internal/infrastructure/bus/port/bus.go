package port

import "context"

// Handler processes one payload received on a subscribed channel. Handlers for
// a given subscription are invoked sequentially, in publication order.
type Handler func(ctx context.Context, channel string, payload []byte)

// Bus is the process-spanning publish/subscribe channel that lets any server
// instance deliver an event to clients connected elsewhere.
//
// Delivery is at-least-once and unordered across channels, but publication
// order is preserved within a single channel. The bus is injected everywhere
// it is used so tests can substitute the in-process adapter.
type Bus interface {
	// Publish sends payload to every subscriber of channel. A publish failure
	// must never be treated as fatal by callers on the hot path; the
	// convention is to log and continue.
	Publish(ctx context.Context, channel string, payload []byte) error

	// Subscribe registers h for payloads published to channel and returns an
	// unsubscribe function. The handler runs until unsubscribe is called or
	// ctx is canceled.
	Subscribe(ctx context.Context, channel string, h Handler) (func(), error)

	// Close tears down all subscriptions and releases resources.
	Close() error
}
