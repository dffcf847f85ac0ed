package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	busport "teamchat/internal/infrastructure/bus/port"
	queueport "teamchat/internal/infrastructure/queue/port"
	chat "teamchat/internal/pkg/chat/application/domain"
	"teamchat/internal/pkg/chat/application/usecase"
)

// RegisterNotifyOfflineTask wires the offline-recipient bridge: the worker
// picks queued notifications back up and republishes them on the shared event
// channel external collaborators listen on. Delivery is at-least-once, so
// downstream consumers must tolerate duplicates.
func RegisterNotifyOfflineTask(srv queueport.Server, bus busport.Bus) {
	srv.Register(usecase.NotifyOfflineTaskType, NotifyOfflineHandler(bus))
}

// NotifyOfflineHandler returns the queue handler for a single notification.
// A malformed payload is dropped, not retried; a bus failure is returned so
// the queue retries it.
func NotifyOfflineHandler(bus busport.Bus) queueport.Handler {
	return func(ctx context.Context, t queueport.Task) error {
		var n chat.NewMessageNotification
		if err := json.Unmarshal(t.Payload, &n); err != nil {
			log.Printf("task: drop malformed %s payload: %v", t.Type, err)
			return nil
		}

		payload, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encode notification for %s: %w", n.RecipientID, err)
		}
		if err := bus.Publish(ctx, chat.NotificationChannel, payload); err != nil {
			return fmt.Errorf("publish notification for %s: %w", n.RecipientID, err)
		}

		log.Printf("task: notified %s of message %s in %s", n.RecipientID, n.Message.ID, n.ConversationID)
		return nil
	}
}
