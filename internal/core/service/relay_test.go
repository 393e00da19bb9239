package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbuschat/nimbus/internal/adapter/driven/persistence/memory"
	"github.com/nimbuschat/nimbus/internal/core/domain"
)

type relayFixture struct {
	registry      *ConnectionRegistry
	router        *RoomRouter
	messages      *memory.MessageStore
	conversations *memory.ConversationStore
	users         *memory.UserDirectory
	push          *recordingPush
	relay         *MessageRelay

	alice, bob domain.UserID
	conv       domain.ConversationID
}

func newRelayFixture(t *testing.T) *relayFixture {
	t.Helper()

	f := &relayFixture{
		registry:      NewConnectionRegistry(),
		router:        NewRoomRouter(),
		messages:      memory.NewMessageStore(),
		conversations: memory.NewConversationStore(),
		users:         memory.NewUserDirectory(),
		push:          &recordingPush{},
		alice:         domain.NewUserID(),
		bob:           domain.NewUserID(),
		conv:          domain.NewConversationID(),
	}
	f.users.Add(domain.User{ID: f.alice, Name: "Alice"})
	f.users.Add(domain.User{ID: f.bob, Name: "Bob"})
	f.conversations.Add(f.conv, f.alice, f.bob)
	f.relay = NewMessageRelay(f.registry, f.router, f.messages, f.conversations, f.users, f.push)
	return f
}

// connect registers a client for the user and joins it to the
// conversation room, as the hub would on connect.
func (f *relayFixture) connect(id string, user domain.UserID) *fakeClient {
	c := newFakeClient(id, user)
	f.registry.Register(c)
	f.router.Join(c, ConversationRoom(f.conv))
	return c
}

func TestRelay_SendPersistsAndBroadcasts(t *testing.T) {
	f := newRelayFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)

	msg, err := f.relay.Send(context.Background(), f.alice, f.conv, "hi there", domain.MessageText, nil)
	require.NoError(t, err)
	require.NotNil(t, msg)

	stored, err := f.messages.Get(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi there", stored.Content)
	assert.Equal(t, domain.StatusSent, stored.Status)

	// Sender included in the fan-out so all their devices reflect it.
	require.Equal(t, 1, a.count(domain.EvMessageNew))
	require.Equal(t, 1, b.count(domain.EvMessageNew))

	payload := b.named(domain.EvMessageNew)[0].Payload.(domain.MessagePayload)
	assert.Equal(t, msg.ID.String(), payload.ID)
	assert.Equal(t, f.conv.String(), payload.ConversationID)
	assert.False(t, payload.CreatedAt.IsZero())
}

func TestRelay_SendUpdatesUnreadCounters(t *testing.T) {
	f := newRelayFixture(t)
	f.connect("a", f.alice)
	f.connect("b", f.bob)

	msg, err := f.relay.Send(context.Background(), f.alice, f.conv, "hi", domain.MessageText, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, f.conversations.Unread(f.conv, f.bob))
	assert.Equal(t, 0, f.conversations.Unread(f.conv, f.alice))

	last, ok := f.conversations.LastMessage(f.conv)
	require.True(t, ok)
	assert.Equal(t, msg.ID, last)
}

func TestRelay_SendFailsWhenStoreDown(t *testing.T) {
	f := newRelayFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)

	relay := NewMessageRelay(f.registry, f.router, failingMessageStore{}, f.conversations, f.users, f.push)

	_, err := relay.Send(context.Background(), f.alice, f.conv, "hi", domain.MessageText, nil)
	require.Error(t, err)
	assert.True(t, domain.IsPersistence(err))

	// Visible only if durable: nothing was broadcast.
	assert.Equal(t, 0, a.count(domain.EvMessageNew))
	assert.Equal(t, 0, b.count(domain.EvMessageNew))
}

func TestRelay_SendRejectsEmptyContent(t *testing.T) {
	f := newRelayFixture(t)

	_, err := f.relay.Send(context.Background(), f.alice, f.conv, "", domain.MessageText, nil)
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestRelay_SendPushesToOfflineParticipants(t *testing.T) {
	f := newRelayFixture(t)
	f.connect("a", f.alice)
	// Bob stays offline.

	msg, err := f.relay.Send(context.Background(), f.alice, f.conv, "hi bob", domain.MessageText, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.push.all()) == 1
	}, time.Second, 10*time.Millisecond)

	n := f.push.all()[0]
	assert.Equal(t, f.bob.String(), n.UserID)
	assert.Equal(t, msg.ID.String(), n.MessageID)
	assert.Equal(t, "Alice", n.SenderName)
}

func TestRelay_NoPushForOnlineParticipants(t *testing.T) {
	f := newRelayFixture(t)
	f.connect("a", f.alice)
	f.connect("b", f.bob)

	_, err := f.relay.Send(context.Background(), f.alice, f.conv, "hi", domain.MessageText, nil)
	require.NoError(t, err)

	// Give the would-be dispatch goroutines a moment.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, f.push.all())
}

func TestRelay_UpdateStatusBroadcasts(t *testing.T) {
	f := newRelayFixture(t)
	f.connect("a", f.alice)
	b := f.connect("b", f.bob)

	msg, err := f.relay.Send(context.Background(), f.alice, f.conv, "hi", domain.MessageText, nil)
	require.NoError(t, err)

	require.NoError(t, f.relay.UpdateStatus(context.Background(), msg.ID, domain.StatusRead))

	// Last write wins: a late "delivered" overwrites silently.
	require.NoError(t, f.relay.UpdateStatus(context.Background(), msg.ID, domain.StatusDelivered))

	updates := b.named(domain.EvMessageStatusUp)
	require.Len(t, updates, 2)
	last := updates[1].Payload.(domain.StatusUpdatePayload)
	assert.Equal(t, string(domain.StatusDelivered), last.Status)

	stored, err := f.messages.Get(context.Background(), msg.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, stored.Status)
}

func TestRelay_UpdateStatusUnknownMessage(t *testing.T) {
	f := newRelayFixture(t)

	err := f.relay.UpdateStatus(context.Background(), domain.NewMessageID(), domain.StatusRead)
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}

func TestRelay_DeleteForEveryone(t *testing.T) {
	f := newRelayFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)

	msg, err := f.relay.Send(context.Background(), f.alice, f.conv, "oops", domain.MessageText, nil)
	require.NoError(t, err)

	require.NoError(t, f.relay.Delete(context.Background(), f.alice, msg.ID, true))

	_, err = f.messages.Get(context.Background(), msg.ID)
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)

	require.Equal(t, 1, a.count(domain.EvMessageDeleted))
	require.Equal(t, 1, b.count(domain.EvMessageDeleted))
	payload := b.named(domain.EvMessageDeleted)[0].Payload.(domain.DeletedPayload)
	assert.True(t, payload.DeleteForEveryone)
}

func TestRelay_DeleteForEveryoneRequiresSender(t *testing.T) {
	f := newRelayFixture(t)
	f.connect("a", f.alice)
	b := f.connect("b", f.bob)

	msg, err := f.relay.Send(context.Background(), f.alice, f.conv, "mine", domain.MessageText, nil)
	require.NoError(t, err)

	err = f.relay.Delete(context.Background(), f.bob, msg.ID, true)
	assert.ErrorIs(t, err, domain.ErrNotSender)

	// Message untouched, nothing broadcast.
	_, getErr := f.messages.Get(context.Background(), msg.ID)
	assert.NoError(t, getErr)
	assert.Equal(t, 0, b.count(domain.EvMessageDeleted))
}

func TestRelay_DeleteForMeHidesOnlyForRequester(t *testing.T) {
	f := newRelayFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)

	msg, err := f.relay.Send(context.Background(), f.alice, f.conv, "keep it", domain.MessageText, nil)
	require.NoError(t, err)

	require.NoError(t, f.relay.Delete(context.Background(), f.bob, msg.ID, false))

	assert.True(t, f.messages.HiddenFor(msg.ID, f.bob))
	assert.False(t, f.messages.HiddenFor(msg.ID, f.alice))

	// Echoed to the requester alone, no room multicast.
	assert.Equal(t, 1, b.count(domain.EvMessageDeleted))
	assert.Equal(t, 0, a.count(domain.EvMessageDeleted))

	payload := b.named(domain.EvMessageDeleted)[0].Payload.(domain.DeletedPayload)
	assert.False(t, payload.DeleteForEveryone)
}

func TestRelay_TypingExcludesTypist(t *testing.T) {
	f := newRelayFixture(t)
	a := f.connect("a", f.alice)
	b := f.connect("b", f.bob)

	f.relay.Typing(a, f.conv, true)
	f.relay.Typing(a, f.conv, false)

	assert.Equal(t, 0, a.count(domain.EvTypingUpdate))
	updates := b.named(domain.EvTypingUpdate)
	require.Len(t, updates, 2)
	assert.True(t, updates[0].Payload.(domain.TypingPayload).IsTyping)
	assert.False(t, updates[1].Payload.(domain.TypingPayload).IsTyping)
	assert.Equal(t, f.alice.String(), updates[0].Payload.(domain.TypingPayload).UserID)
}
