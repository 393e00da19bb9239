// Package sqlite provides GORM-backed store adapters over SQLite. One
// Store value implements every persistence port the core consumes.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nimbuschat/nimbus/internal/core/domain"
)

// Store implements port.MessageStore, port.ConversationStore,
// port.UserDirectory and port.CallStore.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if err := db.AutoMigrate(
		&userRow{},
		&contactRow{},
		&conversationRow{},
		&participantRow{},
		&messageRow{},
		&hiddenMessageRow{},
		&callRow{},
	); err != nil {
		return nil, fmt.Errorf("migrate sqlite store: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing handle; used by tests with an in-memory DSN.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- port.MessageStore ---

func (s *Store) Save(ctx context.Context, msg *domain.Message) error {
	row := messageRow{
		ID:             msg.ID.String(),
		ConversationID: msg.ConversationID.String(),
		SenderID:       msg.SenderID.String(),
		Type:           string(msg.Type),
		Content:        msg.Content,
		Status:         string(msg.Status),
		CreatedAt:      msg.CreatedAt,
	}
	if msg.ReplyTo != nil {
		row.ReplyTo = msg.ReplyTo.String()
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("save message: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id domain.MessageID) (*domain.Message, error) {
	var row messageRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMessageNotFound
		}
		return nil, fmt.Errorf("load message: %w", err)
	}
	return rowToMessage(&row)
}

func (s *Store) UpdateStatus(ctx context.Context, id domain.MessageID, status domain.MessageStatus) (*domain.Message, error) {
	res := s.db.WithContext(ctx).Model(&messageRow{}).
		Where("id = ?", id.String()).
		Update("status", string(status))
	if res.Error != nil {
		return nil, fmt.Errorf("update message status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrMessageNotFound
	}
	return s.Get(ctx, id)
}

func (s *Store) Delete(ctx context.Context, id domain.MessageID) error {
	res := s.db.WithContext(ctx).Delete(&messageRow{}, "id = ?", id.String())
	if res.Error != nil {
		return fmt.Errorf("delete message: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrMessageNotFound
	}
	s.db.WithContext(ctx).Delete(&hiddenMessageRow{}, "message_id = ?", id.String())
	return nil
}

func (s *Store) HideFor(ctx context.Context, id domain.MessageID, user domain.UserID) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&messageRow{}).
		Where("id = ?", id.String()).Count(&count).Error; err != nil {
		return fmt.Errorf("hide message: %w", err)
	}
	if count == 0 {
		return domain.ErrMessageNotFound
	}
	row := hiddenMessageRow{MessageID: id.String(), UserID: user.String()}
	// Idempotent: hiding twice is fine.
	err := s.db.WithContext(ctx).Where(&row).FirstOrCreate(&row).Error
	if err != nil {
		return fmt.Errorf("hide message: %w", err)
	}
	return nil
}

// --- port.ConversationStore ---

func (s *Store) ConversationsOf(ctx context.Context, user domain.UserID) ([]domain.ConversationID, error) {
	var rows []participantRow
	if err := s.db.WithContext(ctx).Find(&rows, "user_id = ?", user.String()).Error; err != nil {
		return nil, fmt.Errorf("load conversations: %w", err)
	}
	out := make([]domain.ConversationID, 0, len(rows))
	for _, r := range rows {
		id, err := domain.ParseConversationID(r.ConversationID)
		if err != nil {
			return nil, fmt.Errorf("load conversations: %w", err)
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *Store) ParticipantsOf(ctx context.Context, id domain.ConversationID) ([]domain.UserID, error) {
	var rows []participantRow
	if err := s.db.WithContext(ctx).Find(&rows, "conversation_id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrConversationNotFound
	}
	out := make([]domain.UserID, 0, len(rows))
	for _, r := range rows {
		uid, err := domain.ParseUserID(r.UserID)
		if err != nil {
			return nil, fmt.Errorf("load participants: %w", err)
		}
		out = append(out, uid)
	}
	return out, nil
}

func (s *Store) RecordMessage(ctx context.Context, id domain.ConversationID, msg domain.MessageID, sender domain.UserID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&conversationRow{}).
			Where("id = ?", id.String()).
			Updates(map[string]any{"last_message_id": msg.String(), "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return fmt.Errorf("record message: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrConversationNotFound
		}
		if err := tx.Model(&participantRow{}).
			Where("conversation_id = ? AND user_id <> ?", id.String(), sender.String()).
			Update("unread", gorm.Expr("unread + 1")).Error; err != nil {
			return fmt.Errorf("record message: %w", err)
		}
		return nil
	})
}

// --- port.UserDirectory ---

func (s *Store) GetUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return &domain.User{
		ID:       id,
		Name:     row.Name,
		Online:   row.Online,
		Status:   row.Status,
		LastSeen: row.LastSeen,
	}, nil
}

func (s *Store) ContactsOf(ctx context.Context, id domain.UserID) ([]domain.UserID, error) {
	var rows []contactRow
	if err := s.db.WithContext(ctx).Find(&rows, "user_id = ?", id.String()).Error; err != nil {
		return nil, fmt.Errorf("load contacts: %w", err)
	}
	out := make([]domain.UserID, 0, len(rows))
	for _, r := range rows {
		uid, err := domain.ParseUserID(r.ContactID)
		if err != nil {
			return nil, fmt.Errorf("load contacts: %w", err)
		}
		out = append(out, uid)
	}
	return out, nil
}

func (s *Store) SetPresence(ctx context.Context, id domain.UserID, online bool, status string, lastSeen time.Time) error {
	res := s.db.WithContext(ctx).Model(&userRow{}).
		Where("id = ?", id.String()).
		Updates(map[string]any{"online": online, "status": status, "last_seen": lastSeen})
	if res.Error != nil {
		return fmt.Errorf("set presence: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// --- port.CallStore ---

func (s *Store) Create(ctx context.Context, sess *domain.CallSession) error {
	row := callRow{
		RoomID:     sess.Room.String(),
		CallerID:   sess.CallerID.String(),
		ReceiverID: sess.ReceiverID.String(),
		Type:       string(sess.Kind),
		Status:     string(sess.State),
		StartedAt:  sess.StartedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("record call: %w", err)
	}
	return nil
}

func (s *Store) SetState(ctx context.Context, room domain.RoomToken, state domain.CallState, endedAt time.Time) error {
	updates := map[string]any{"status": string(state)}
	if !endedAt.IsZero() {
		var row callRow
		if err := s.db.WithContext(ctx).First(&row, "room_id = ?", room.String()).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrSessionNotFound
			}
			return fmt.Errorf("update call: %w", err)
		}
		updates["ended_at"] = endedAt
		updates["duration"] = int(endedAt.Sub(row.StartedAt).Seconds())
	}
	res := s.db.WithContext(ctx).Model(&callRow{}).
		Where("room_id = ?", room.String()).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("update call: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func rowToMessage(row *messageRow) (*domain.Message, error) {
	id, err := domain.ParseMessageID(row.ID)
	if err != nil {
		return nil, fmt.Errorf("decode message row: %w", err)
	}
	conv, err := domain.ParseConversationID(row.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("decode message row: %w", err)
	}
	sender, err := domain.ParseUserID(row.SenderID)
	if err != nil {
		return nil, fmt.Errorf("decode message row: %w", err)
	}
	msg := &domain.Message{
		ID:             id,
		ConversationID: conv,
		SenderID:       sender,
		Type:           domain.MessageType(row.Type),
		Content:        row.Content,
		Status:         domain.MessageStatus(row.Status),
		CreatedAt:      row.CreatedAt,
	}
	if row.ReplyTo != "" {
		replyTo, err := domain.ParseMessageID(row.ReplyTo)
		if err != nil {
			return nil, fmt.Errorf("decode message row: %w", err)
		}
		msg.ReplyTo = &replyTo
	}
	return msg, nil
}
