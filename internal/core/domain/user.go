package domain

import (
	"time"
)

// User is the durable identity behind a connection. Only the fields the
// realtime core needs; profile data lives with the store.
type User struct {
	ID       UserID
	Name     string
	Online   bool
	Status   string
	LastSeen time.Time
}

// PushNotification is the summary handed to the push dispatcher for a
// recipient with no live connection. Fire-and-forget.
type PushNotification struct {
	UserID         string `json:"user_id"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	SenderID       string `json:"sender_id"`
	SenderName     string `json:"sender_name"`
	Preview        string `json:"preview"`
	SentAt         int64  `json:"sent_at"`
}
