// Package memory holds mutex-guarded in-memory store adapters. They
// back the service tests and the standalone dev mode; production runs
// against the SQLite adapters.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/nimbuschat/nimbus/internal/core/domain"
)

// MessageStore implements port.MessageStore.
type MessageStore struct {
	mu       sync.RWMutex
	messages map[domain.MessageID]*domain.Message
	hidden   map[domain.MessageID]map[domain.UserID]struct{}
}

func NewMessageStore() *MessageStore {
	return &MessageStore{
		messages: make(map[domain.MessageID]*domain.Message),
		hidden:   make(map[domain.MessageID]map[domain.UserID]struct{}),
	}
}

func (s *MessageStore) Save(ctx context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *msg
	s.messages[msg.ID] = &cp
	return nil
}

func (s *MessageStore) Get(ctx context.Context, id domain.MessageID) (*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	cp := *msg
	return &cp, nil
}

func (s *MessageStore) UpdateStatus(ctx context.Context, id domain.MessageID, status domain.MessageStatus) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	msg, ok := s.messages[id]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	msg.Status = status
	cp := *msg
	return &cp, nil
}

func (s *MessageStore) Delete(ctx context.Context, id domain.MessageID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return domain.ErrMessageNotFound
	}
	delete(s.messages, id)
	delete(s.hidden, id)
	return nil
}

func (s *MessageStore) HideFor(ctx context.Context, id domain.MessageID, user domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return domain.ErrMessageNotFound
	}
	if s.hidden[id] == nil {
		s.hidden[id] = make(map[domain.UserID]struct{})
	}
	s.hidden[id][user] = struct{}{}
	return nil
}

// HiddenFor reports whether the message is hidden for the user.
func (s *MessageStore) HiddenFor(id domain.MessageID, user domain.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.hidden[id][user]
	return ok
}

// ConversationStore implements port.ConversationStore.
type ConversationStore struct {
	mu           sync.RWMutex
	participants map[domain.ConversationID][]domain.UserID
	lastMessage  map[domain.ConversationID]domain.MessageID
	unread       map[domain.ConversationID]map[domain.UserID]int
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		participants: make(map[domain.ConversationID][]domain.UserID),
		lastMessage:  make(map[domain.ConversationID]domain.MessageID),
		unread:       make(map[domain.ConversationID]map[domain.UserID]int),
	}
}

// Add seeds a conversation with its participants.
func (s *ConversationStore) Add(id domain.ConversationID, participants ...domain.UserID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.participants[id] = participants
}

func (s *ConversationStore) ConversationsOf(ctx context.Context, user domain.UserID) ([]domain.ConversationID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.ConversationID
	for id, members := range s.participants {
		for _, m := range members {
			if m == user {
				out = append(out, id)
				break
			}
		}
	}
	return out, nil
}

func (s *ConversationStore) ParticipantsOf(ctx context.Context, id domain.ConversationID) ([]domain.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members, ok := s.participants[id]
	if !ok {
		return nil, domain.ErrConversationNotFound
	}
	out := make([]domain.UserID, len(members))
	copy(out, members)
	return out, nil
}

func (s *ConversationStore) RecordMessage(ctx context.Context, id domain.ConversationID, msg domain.MessageID, sender domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.participants[id]
	if !ok {
		return domain.ErrConversationNotFound
	}
	s.lastMessage[id] = msg
	if s.unread[id] == nil {
		s.unread[id] = make(map[domain.UserID]int)
	}
	for _, m := range members {
		if m != sender {
			s.unread[id][m]++
		}
	}
	return nil
}

// Unread returns the unread counter for a participant.
func (s *ConversationStore) Unread(id domain.ConversationID, user domain.UserID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread[id][user]
}

// LastMessage returns the conversation's last-message pointer.
func (s *ConversationStore) LastMessage(id domain.ConversationID) (domain.MessageID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msg, ok := s.lastMessage[id]
	return msg, ok
}

// UserDirectory implements port.UserDirectory.
type UserDirectory struct {
	mu       sync.RWMutex
	users    map[domain.UserID]*domain.User
	contacts map[domain.UserID][]domain.UserID
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{
		users:    make(map[domain.UserID]*domain.User),
		contacts: make(map[domain.UserID][]domain.UserID),
	}
}

// Add seeds a user with an optional contact list.
func (d *UserDirectory) Add(u domain.User, contacts ...domain.UserID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cp := u
	d.users[u.ID] = &cp
	d.contacts[u.ID] = contacts
}

func (d *UserDirectory) GetUser(ctx context.Context, id domain.UserID) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *UserDirectory) ContactsOf(ctx context.Context, id domain.UserID) ([]domain.UserID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]domain.UserID, len(d.contacts[id]))
	copy(out, d.contacts[id])
	return out, nil
}

func (d *UserDirectory) SetPresence(ctx context.Context, id domain.UserID, online bool, status string, lastSeen time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	u, ok := d.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Online = online
	u.Status = status
	u.LastSeen = lastSeen
	return nil
}

// CallStore implements port.CallStore.
type CallStore struct {
	mu    sync.RWMutex
	calls map[domain.RoomToken]*callRecord
}

type callRecord struct {
	session domain.CallSession
	endedAt time.Time
}

func NewCallStore() *CallStore {
	return &CallStore{
		calls: make(map[domain.RoomToken]*callRecord),
	}
}

func (s *CallStore) Create(ctx context.Context, sess *domain.CallSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[sess.Room] = &callRecord{session: *sess}
	return nil
}

func (s *CallStore) SetState(ctx context.Context, room domain.RoomToken, state domain.CallState, endedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.calls[room]
	if !ok {
		return domain.ErrSessionNotFound
	}
	rec.session.State = state
	rec.endedAt = endedAt
	return nil
}

// State returns the recorded state for a room.
func (s *CallStore) State(room domain.RoomToken) (domain.CallState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.calls[room]
	if !ok {
		return "", false
	}
	return rec.session.State, true
}
