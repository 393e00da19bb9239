package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbuschat/nimbus/internal/adapter/driven/persistence/memory"
	"github.com/nimbuschat/nimbus/internal/core/domain"
)

type presenceFixture struct {
	registry *ConnectionRegistry
	users    *memory.UserDirectory
	presence *PresenceBroadcaster

	alice, bob, carol domain.UserID
}

func newPresenceFixture(t *testing.T) *presenceFixture {
	t.Helper()

	f := &presenceFixture{
		registry: NewConnectionRegistry(),
		users:    memory.NewUserDirectory(),
		alice:    domain.NewUserID(),
		bob:      domain.NewUserID(),
		carol:    domain.NewUserID(),
	}
	// Bob and Carol are Alice's contacts; Carol stays offline.
	f.users.Add(domain.User{ID: f.alice, Name: "Alice"}, f.bob, f.carol)
	f.users.Add(domain.User{ID: f.bob, Name: "Bob"}, f.alice)
	f.users.Add(domain.User{ID: f.carol, Name: "Carol"}, f.alice)
	f.presence = NewPresenceBroadcaster(f.registry, f.users)
	return f
}

func TestPresence_OnlineNotifiesConnectedContacts(t *testing.T) {
	f := newPresenceFixture(t)
	b := newFakeClient("b", f.bob)
	f.registry.Register(b)

	f.presence.Online(context.Background(), f.alice)

	updates := b.named(domain.EvUserStatus)
	require.Len(t, updates, 1)
	payload := updates[0].Payload.(domain.UserStatusPayload)
	assert.Equal(t, f.alice.String(), payload.UserID)
	assert.True(t, payload.Online)
	assert.NotZero(t, payload.LastSeen)

	u, err := f.users.GetUser(context.Background(), f.alice)
	require.NoError(t, err)
	assert.True(t, u.Online)
}

func TestPresence_OfflinePersistsLastSeen(t *testing.T) {
	f := newPresenceFixture(t)
	b := newFakeClient("b", f.bob)
	f.registry.Register(b)

	f.presence.Online(context.Background(), f.alice)
	f.presence.Offline(context.Background(), f.alice)

	updates := b.named(domain.EvUserStatus)
	require.Len(t, updates, 2)
	assert.False(t, updates[1].Payload.(domain.UserStatusPayload).Online)

	u, err := f.users.GetUser(context.Background(), f.alice)
	require.NoError(t, err)
	assert.False(t, u.Online)
	assert.False(t, u.LastSeen.IsZero())
}

func TestPresence_UpdateCarriesStatusText(t *testing.T) {
	f := newPresenceFixture(t)
	b := newFakeClient("b", f.bob)
	f.registry.Register(b)

	require.NoError(t, f.presence.Update(context.Background(), f.alice, "in a meeting"))

	updates := b.named(domain.EvUserStatus)
	require.Len(t, updates, 1)
	payload := updates[0].Payload.(domain.UserStatusPayload)
	assert.True(t, payload.Online)
	assert.Equal(t, "in a meeting", payload.Status)

	u, err := f.users.GetUser(context.Background(), f.alice)
	require.NoError(t, err)
	assert.Equal(t, "in a meeting", u.Status)
}

func TestPresence_OfflineContactsAreSkipped(t *testing.T) {
	f := newPresenceFixture(t)
	// Nobody connected at all: must not panic, nothing delivered.
	f.presence.Online(context.Background(), f.alice)

	b := newFakeClient("b", f.bob)
	f.registry.Register(b)
	assert.Empty(t, b.named(domain.EvUserStatus))
}

func TestPresence_UpdateUnknownUser(t *testing.T) {
	f := newPresenceFixture(t)

	err := f.presence.Update(context.Background(), domain.NewUserID(), "ghost")
	require.Error(t, err)
	assert.True(t, domain.IsPersistence(err))
}
