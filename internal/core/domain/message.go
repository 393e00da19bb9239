package domain

import (
	"time"
)

type MessageType string

const (
	MessageText     MessageType = "text"
	MessageImage    MessageType = "image"
	MessageAudio    MessageType = "audio"
	MessageVideo    MessageType = "video"
	MessageDocument MessageType = "document"
	MessageLocation MessageType = "location"
)

func (t MessageType) Valid() bool {
	switch t {
	case MessageText, MessageImage, MessageAudio, MessageVideo, MessageDocument, MessageLocation:
		return true
	}
	return false
}

type MessageStatus string

const (
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
)

func (s MessageStatus) Valid() bool {
	switch s {
	case StatusSent, StatusDelivered, StatusRead:
		return true
	}
	return false
}

// Message is one unit of chat content. The core only handles it
// transiently for fan-out; the store owns it after persistence.
type Message struct {
	ID             MessageID
	ConversationID ConversationID
	SenderID       UserID
	Type           MessageType
	Content        string
	ReplyTo        *MessageID
	Status         MessageStatus
	CreatedAt      time.Time
}

func NewMessage(senderID UserID, conversationID ConversationID, content string, msgType MessageType, replyTo *MessageID) (*Message, error) {
	if content == "" {
		return nil, ErrEmptyMessage
	}
	if msgType == "" {
		msgType = MessageText
	}
	if !msgType.Valid() {
		return nil, ErrInvalidMessageType
	}
	return &Message{
		ID:             NewMessageID(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Type:           msgType,
		Content:        content,
		ReplyTo:        replyTo,
		Status:         StatusSent,
		CreatedAt:      time.Now().UTC(),
	}, nil
}
