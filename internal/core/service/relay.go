package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/nimbuschat/nimbus/internal/core/domain"
	"github.com/nimbuschat/nimbus/internal/core/port"
	"github.com/nimbuschat/nimbus/internal/metrics"
)

// MessageRelay accepts inbound chat events, makes them durable and fans
// them out to the conversation room. A message becomes visible only
// once it is durable: persistence failure means nothing is broadcast.
type MessageRelay struct {
	registry      *ConnectionRegistry
	router        *RoomRouter
	messages      port.MessageStore
	conversations port.ConversationStore
	users         port.UserDirectory
	push          port.PushDispatcher
}

func NewMessageRelay(
	registry *ConnectionRegistry,
	router *RoomRouter,
	messages port.MessageStore,
	conversations port.ConversationStore,
	users port.UserDirectory,
	push port.PushDispatcher,
) *MessageRelay {
	return &MessageRelay{
		registry:      registry,
		router:        router,
		messages:      messages,
		conversations: conversations,
		users:         users,
		push:          push,
	}
}

// Send persists the message, broadcasts it to the conversation room
// (sender included, so every device of the sender reflects it), updates
// conversation bookkeeping and pushes a summary to offline recipients.
// Only the persistence step can fail the send; everything after it is
// best-effort.
func (r *MessageRelay) Send(ctx context.Context, sender domain.UserID, conversationID domain.ConversationID, content string, msgType domain.MessageType, replyTo *domain.MessageID) (*domain.Message, error) {
	msg, err := domain.NewMessage(sender, conversationID, content, msgType, replyTo)
	if err != nil {
		return nil, err
	}

	if err := r.messages.Save(ctx, msg); err != nil {
		return nil, &domain.PersistenceError{Op: "save message", Err: err}
	}

	r.router.Multicast(ConversationRoom(conversationID), domain.NewMessageEvent(msg), nil)
	metrics.MessagesRelayed.Inc()

	if err := r.conversations.RecordMessage(ctx, conversationID, msg.ID, sender); err != nil {
		log.Warn().Err(err).
			Str("conversation_id", conversationID.String()).
			Msg("Failed to update conversation bookkeeping")
	}

	r.notifyOffline(ctx, msg)

	return msg, nil
}

// notifyOffline hands a summary to the push dispatcher for every
// participant without a live connection. Never blocks the send path.
func (r *MessageRelay) notifyOffline(ctx context.Context, msg *domain.Message) {
	participants, err := r.conversations.ParticipantsOf(ctx, msg.ConversationID)
	if err != nil {
		log.Warn().Err(err).
			Str("conversation_id", msg.ConversationID.String()).
			Msg("Failed to resolve participants for push fallback")
		return
	}

	senderName := msg.SenderID.String()
	if u, err := r.users.GetUser(ctx, msg.SenderID); err == nil {
		senderName = u.Name
	}

	for _, participant := range participants {
		if participant == msg.SenderID {
			continue
		}
		if _, online := r.registry.Lookup(participant); online {
			continue
		}

		n := domain.PushNotification{
			UserID:         participant.String(),
			ConversationID: msg.ConversationID.String(),
			MessageID:      msg.ID.String(),
			SenderID:       msg.SenderID.String(),
			SenderName:     senderName,
			Preview:        msg.Content,
			SentAt:         msg.CreatedAt.UnixMilli(),
		}
		go func() {
			if err := r.push.Dispatch(context.WithoutCancel(ctx), n); err != nil {
				log.Warn().Err(err).
					Str("user_id", n.UserID).
					Msg("Push dispatch failed")
				return
			}
			metrics.PushDispatched.Inc()
		}()
	}
}

// UpdateStatus persists a delivery-status change and broadcasts it to
// the message's conversation room. Last write wins: ordering between
// delivered and read is not enforced.
func (r *MessageRelay) UpdateStatus(ctx context.Context, id domain.MessageID, status domain.MessageStatus) error {
	if !status.Valid() {
		return domain.ErrInvalidStatus
	}

	msg, err := r.messages.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			return err
		}
		return &domain.PersistenceError{Op: "update message status", Err: err}
	}

	r.router.Multicast(ConversationRoom(msg.ConversationID), domain.StatusUpdateEvent(id, status), nil)
	return nil
}

// Delete removes a message for everyone (sender only) or hides it for
// the requester. Hide-for-me is echoed back to the requester alone;
// other participants keep seeing the message.
func (r *MessageRelay) Delete(ctx context.Context, requester domain.UserID, id domain.MessageID, forEveryone bool) error {
	msg, err := r.messages.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			return err
		}
		return &domain.PersistenceError{Op: "load message", Err: err}
	}

	if forEveryone {
		if msg.SenderID != requester {
			return domain.ErrNotSender
		}
		if err := r.messages.Delete(ctx, id); err != nil {
			return &domain.PersistenceError{Op: "delete message", Err: err}
		}
		r.router.Multicast(ConversationRoom(msg.ConversationID), domain.DeletedEvent(id, true), nil)
		return nil
	}

	if err := r.messages.HideFor(ctx, id, requester); err != nil {
		return &domain.PersistenceError{Op: "hide message", Err: err}
	}
	if c, ok := r.registry.Lookup(requester); ok {
		if err := c.Send(domain.DeletedEvent(id, false)); err != nil {
			log.Warn().Err(err).Str("client_id", c.ID()).Msg("Failed to echo message deletion")
		}
	}
	return nil
}

// Typing relays a typing indicator to the conversation room, excluding
// the typist. Nothing is persisted.
func (r *MessageRelay) Typing(sender port.Client, conversationID domain.ConversationID, isTyping bool) {
	r.router.Multicast(ConversationRoom(conversationID), domain.TypingEvent(sender.UserID(), isTyping), sender)
}
