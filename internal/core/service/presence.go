package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nimbuschat/nimbus/internal/core/domain"
	"github.com/nimbuschat/nimbus/internal/core/port"
)

// PresenceBroadcaster tells a user's online contacts about connect,
// disconnect and status changes, and keeps the durable presence fields
// current. Contacts with no live connection are simply skipped.
type PresenceBroadcaster struct {
	registry *ConnectionRegistry
	users    port.UserDirectory
}

func NewPresenceBroadcaster(registry *ConnectionRegistry, users port.UserDirectory) *PresenceBroadcaster {
	return &PresenceBroadcaster{
		registry: registry,
		users:    users,
	}
}

// Online records and broadcasts that the user came online.
func (p *PresenceBroadcaster) Online(ctx context.Context, user domain.UserID) {
	now := time.Now().UTC()
	if err := p.users.SetPresence(ctx, user, true, "", now); err != nil {
		log.Warn().Err(err).Str("user_id", user.String()).Msg("Failed to persist online presence")
	}
	p.broadcast(ctx, user, true, "", now)
}

// Offline records and broadcasts that the user went offline.
func (p *PresenceBroadcaster) Offline(ctx context.Context, user domain.UserID) {
	now := time.Now().UTC()
	if err := p.users.SetPresence(ctx, user, false, "", now); err != nil {
		log.Warn().Err(err).Str("user_id", user.String()).Msg("Failed to persist offline presence")
	}
	p.broadcast(ctx, user, false, "", now)
}

// Update records and broadcasts a free-form status change while the
// user stays online.
func (p *PresenceBroadcaster) Update(ctx context.Context, user domain.UserID, status string) error {
	now := time.Now().UTC()
	if err := p.users.SetPresence(ctx, user, true, status, now); err != nil {
		return &domain.PersistenceError{Op: "set presence", Err: err}
	}
	p.broadcast(ctx, user, true, status, now)
	return nil
}

func (p *PresenceBroadcaster) broadcast(ctx context.Context, user domain.UserID, online bool, status string, lastSeen time.Time) {
	contacts, err := p.users.ContactsOf(ctx, user)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.String()).Msg("Failed to resolve contacts for presence broadcast")
		return
	}

	ev := domain.UserStatusEvent(user, online, status, lastSeen)
	for _, contact := range contacts {
		c, ok := p.registry.Lookup(contact)
		if !ok {
			continue
		}
		if err := c.Send(ev); err != nil {
			log.Warn().Err(err).Str("client_id", c.ID()).Msg("Failed to deliver presence update")
		}
	}
}
