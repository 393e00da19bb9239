package domain

import (
	"github.com/google/uuid"
)

type UserID uuid.UUID
type ConversationID uuid.UUID
type MessageID uuid.UUID

func NewUserID() UserID {
	return UserID(uuid.New())
}

func ParseUserID(s string) (UserID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(id), nil
}

func (id UserID) String() string {
	return uuid.UUID(id).String()
}

func (id UserID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

func NewConversationID() ConversationID {
	return ConversationID(uuid.New())
}

func ParseConversationID(s string) (ConversationID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ConversationID{}, err
	}
	return ConversationID(id), nil
}

func (id ConversationID) String() string {
	return uuid.UUID(id).String()
}

func NewMessageID() MessageID {
	return MessageID(uuid.New())
}

func ParseMessageID(s string) (MessageID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return MessageID{}, err
	}
	return MessageID(id), nil
}

func (id MessageID) String() string {
	return uuid.UUID(id).String()
}

// RoomToken names a call room. A fresh token is minted per call attempt
// and is never reused.
type RoomToken string

func NewRoomToken() RoomToken {
	return RoomToken(uuid.New().String())
}

func (t RoomToken) String() string {
	return string(t)
}
