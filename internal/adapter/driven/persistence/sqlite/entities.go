package sqlite

import (
	"time"
)

// userRow mirrors the durable user document. The realtime core only
// touches presence fields; the rest belongs to the CRUD surface.
type userRow struct {
	ID       string    `gorm:"primarykey;size:36"`
	Name     string    `gorm:"size:100;not null"`
	Online   bool      `gorm:"not null;default:false"`
	Status   string    `gorm:"size:200"`
	LastSeen time.Time
}

func (userRow) TableName() string { return "users" }

type contactRow struct {
	UserID    string `gorm:"primarykey;size:36"`
	ContactID string `gorm:"primarykey;size:36"`
}

func (contactRow) TableName() string { return "contacts" }

type conversationRow struct {
	ID            string `gorm:"primarykey;size:36"`
	LastMessageID string `gorm:"size:36"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (conversationRow) TableName() string { return "conversations" }

type participantRow struct {
	ConversationID string `gorm:"primarykey;size:36"`
	UserID         string `gorm:"primarykey;size:36"`
	Unread         int    `gorm:"not null;default:0"`
}

func (participantRow) TableName() string { return "participants" }

type messageRow struct {
	ID             string    `gorm:"primarykey;size:36"`
	ConversationID string    `gorm:"size:36;not null;index:idx_messages_conversation"`
	SenderID       string    `gorm:"size:36;not null;index"`
	Type           string    `gorm:"size:16;not null"`
	Content        string    `gorm:"not null"`
	ReplyTo        string    `gorm:"size:36"`
	Status         string    `gorm:"size:16;not null"`
	CreatedAt      time.Time `gorm:"index:idx_messages_conversation"`
}

func (messageRow) TableName() string { return "messages" }

type hiddenMessageRow struct {
	MessageID string `gorm:"primarykey;size:36"`
	UserID    string `gorm:"primarykey;size:36"`
}

func (hiddenMessageRow) TableName() string { return "hidden_messages" }

type callRow struct {
	RoomID     string `gorm:"primarykey;size:36"`
	CallerID   string `gorm:"size:36;not null;index"`
	ReceiverID string `gorm:"size:36;not null;index"`
	Type       string `gorm:"size:8;not null"`
	Status     string `gorm:"size:16;not null"`
	StartedAt  time.Time
	EndedAt    *time.Time
	Duration   int `gorm:"not null;default:0"`
}

func (callRow) TableName() string { return "calls" }
