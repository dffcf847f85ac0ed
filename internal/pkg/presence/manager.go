package presence

import (
	"context"
	"fmt"
	"log"
	"time"

	busport "teamchat/internal/infrastructure/bus/port"
	"teamchat/internal/infrastructure/realtime"
	authport "teamchat/internal/pkg/auth/port"
	chat "teamchat/internal/pkg/chat/application/domain"
	repository "teamchat/internal/pkg/chat/persistence/repository/port"
)

// Manager owns the per-identity presence state machine:
// offline --connect--> online, online --last connection closes--> offline,
// and online/offline --idle trigger--> away.
//
// Each transition persists the new status first and then announces it on the
// company room. The database is the durable source of truth: a dropped
// broadcast is tolerated because late-joining clients receive the on-connect
// snapshot.
type Manager struct {
	repo repository.PresenceRepository
	bus  busport.Bus
}

func NewManager(repo repository.PresenceRepository, bus busport.Bus) *Manager {
	return &Manager{repo: repo, bus: bus}
}

// Online records that the identity holds at least one live connection.
func (m *Manager) Online(ctx context.Context, id authport.Identity) error {
	return m.transition(ctx, id, chat.PresenceOnline)
}

// Offline records that the identity holds no live connections. Callers must
// consult the connection registry (read-after-write) before invoking this; the
// manager does not second-guess them.
func (m *Manager) Offline(ctx context.Context, id authport.Identity) error {
	return m.transition(ctx, id, chat.PresenceOffline)
}

// Away records the idle state, driven by an external trigger.
func (m *Manager) Away(ctx context.Context, id authport.Identity) error {
	return m.transition(ctx, id, chat.PresenceAway)
}

// Status returns the last persisted status for a user; identities with no row
// have never connected and count as offline.
func (m *Manager) Status(ctx context.Context, userID string) (chat.PresenceStatus, error) {
	p, err := m.repo.Get(ctx, userID)
	if err != nil {
		return chat.PresenceOffline, err
	}
	if p == nil {
		return chat.PresenceOffline, nil
	}
	return p.Status, nil
}

// Snapshot lists the current status of every known identity in the company
// except exceptUserID, backing the private on-connect reply.
func (m *Manager) Snapshot(ctx context.Context, companyID, exceptUserID string) ([]chat.Presence, error) {
	rows, err := m.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, p := range rows {
		if p.UserID == exceptUserID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *Manager) transition(ctx context.Context, id authport.Identity, status chat.PresenceStatus) error {
	now := time.Now().UTC()
	p := chat.Presence{UserID: id.UserID, CompanyID: id.CompanyID, Status: status, UpdatedAt: now}
	if err := m.repo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("presence: persist %s for %s: %w", status, id.UserID, err)
	}

	payload, err := chat.WrapEvent(
		realtime.CompanyRoom(id.CompanyID),
		chat.EventUserStatus,
		chat.NewStatusUpdateEvent(id.UserID, status, now),
	)
	if err != nil {
		log.Printf("presence: encode status event for %s: %v", id.UserID, err)
		return nil
	}
	// The persisted status stands even when the announcement is lost.
	if err := m.bus.Publish(ctx, chat.BusChannel, payload); err != nil {
		log.Printf("presence: publish status for %s: %v", id.UserID, err)
	}
	return nil
}
