package http

import (
	"context"
	"log"

	busport "teamchat/internal/infrastructure/bus/port"
	"teamchat/internal/infrastructure/realtime"
	chat "teamchat/internal/pkg/chat/application/domain"
)

// SubscribeBus wires the instance's socket registry to the shared event
// channel: every envelope published anywhere in the cluster is validated and
// fanned out to the envelope's target room on this instance. This is the only
// delivery path to sockets; the sender's own instance receives its events the
// same way. Returns the unsubscribe func.
func SubscribeBus(ctx context.Context, bus busport.Bus, router *realtime.Router) (func(), error) {
	return bus.Subscribe(ctx, chat.BusChannel, func(ctx context.Context, channel string, payload []byte) {
		env, err := chat.DecodeEnvelope(payload)
		if err != nil {
			log.Printf("gateway: drop bus payload: %v", err)
			return
		}
		router.Broadcast(env.Room, env.Payload, "")
	})
}
