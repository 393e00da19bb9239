package port

import (
	"context"
	"time"

	"github.com/nimbuschat/nimbus/internal/core/domain"
)

// MessageStore persists chat messages. Save assigns nothing: the caller
// provides a fully-formed message and the store makes it durable.
type MessageStore interface {
	Save(ctx context.Context, msg *domain.Message) error
	Get(ctx context.Context, id domain.MessageID) (*domain.Message, error)
	UpdateStatus(ctx context.Context, id domain.MessageID, status domain.MessageStatus) (*domain.Message, error)
	Delete(ctx context.Context, id domain.MessageID) error
	HideFor(ctx context.Context, id domain.MessageID, user domain.UserID) error
}

// ConversationStore resolves membership and keeps per-conversation
// bookkeeping current.
type ConversationStore interface {
	ConversationsOf(ctx context.Context, user domain.UserID) ([]domain.ConversationID, error)
	ParticipantsOf(ctx context.Context, id domain.ConversationID) ([]domain.UserID, error)
	// RecordMessage updates the last-message pointer and increments the
	// unread counter of every participant except the sender.
	RecordMessage(ctx context.Context, id domain.ConversationID, msg domain.MessageID, sender domain.UserID) error
}

// UserDirectory looks up durable identities and their contact graph.
type UserDirectory interface {
	GetUser(ctx context.Context, id domain.UserID) (*domain.User, error)
	ContactsOf(ctx context.Context, id domain.UserID) ([]domain.UserID, error)
	SetPresence(ctx context.Context, id domain.UserID, online bool, status string, lastSeen time.Time) error
}

// CallStore keeps the durable call history. Signaling never blocks on
// it; failures are logged only.
type CallStore interface {
	Create(ctx context.Context, s *domain.CallSession) error
	SetState(ctx context.Context, room domain.RoomToken, state domain.CallState, endedAt time.Time) error
}
