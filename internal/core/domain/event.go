package domain

import (
	"encoding/json"
	"time"
)

// Event names carried on the wire, both directions.
const (
	EvMessageSend    = "message:send"
	EvMessageStatus  = "message:status"
	EvMessageDelete  = "message:delete"
	EvPresenceUpdate = "presence:update"
	EvTypingStart    = "typing:start"
	EvTypingStop     = "typing:stop"
	EvCallOffer      = "call:offer"
	EvCallAnswer     = "call:answer"
	EvCallCandidate  = "call:ice-candidate"
	EvCallEnd        = "call:end"
	EvCallMediaState = "call:media-state"

	EvMessageNew      = "message:new"
	EvMessageStatusUp = "message:status_update"
	EvMessageDeleted  = "message:deleted"
	EvUserStatus      = "user:status"
	EvTypingUpdate    = "typing:update"
	EvCallIncoming    = "call:incoming"
	EvCallAnswered    = "call:answered"
	EvCallRejected    = "call:rejected"
	EvCallEnded       = "call:ended"
	EvCallError       = "call:error"
	EvError           = "error"
)

// Event is one outbound frame: a name plus a JSON-marshalable payload.
type Event struct {
	Name    string
	Payload any
}

type MessagePayload struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	SenderID       string    `json:"senderId"`
	Type           string    `json:"type"`
	Content        string    `json:"content"`
	ReplyTo        string    `json:"replyTo,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

func NewMessageEvent(m *Message) Event {
	p := MessagePayload{
		ID:             m.ID.String(),
		ConversationID: m.ConversationID.String(),
		SenderID:       m.SenderID.String(),
		Type:           string(m.Type),
		Content:        m.Content,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt,
	}
	if m.ReplyTo != nil {
		p.ReplyTo = m.ReplyTo.String()
	}
	return Event{Name: EvMessageNew, Payload: p}
}

type StatusUpdatePayload struct {
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

func StatusUpdateEvent(id MessageID, status MessageStatus) Event {
	return Event{Name: EvMessageStatusUp, Payload: StatusUpdatePayload{
		MessageID: id.String(),
		Status:    string(status),
	}}
}

type DeletedPayload struct {
	MessageID         string `json:"messageId"`
	DeleteForEveryone bool   `json:"deleteForEveryone"`
}

func DeletedEvent(id MessageID, forEveryone bool) Event {
	return Event{Name: EvMessageDeleted, Payload: DeletedPayload{
		MessageID:         id.String(),
		DeleteForEveryone: forEveryone,
	}}
}

type UserStatusPayload struct {
	UserID   string `json:"userId"`
	Online   bool   `json:"online"`
	Status   string `json:"status,omitempty"`
	LastSeen int64  `json:"lastSeen"`
}

func UserStatusEvent(user UserID, online bool, status string, lastSeen time.Time) Event {
	return Event{Name: EvUserStatus, Payload: UserStatusPayload{
		UserID:   user.String(),
		Online:   online,
		Status:   status,
		LastSeen: lastSeen.UnixMilli(),
	}}
}

type TypingPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

func TypingEvent(user UserID, isTyping bool) Event {
	return Event{Name: EvTypingUpdate, Payload: TypingPayload{
		UserID:   user.String(),
		IsTyping: isTyping,
	}}
}

type IncomingCallPayload struct {
	CallerID   string          `json:"callerId"`
	CallerName string          `json:"callerName"`
	RoomID     string          `json:"roomId"`
	Type       string          `json:"type"`
	SDP        json.RawMessage `json:"sdp"`
}

func IncomingCallEvent(s *CallSession, callerName string, sdp json.RawMessage) Event {
	return Event{Name: EvCallIncoming, Payload: IncomingCallPayload{
		CallerID:   s.CallerID.String(),
		CallerName: callerName,
		RoomID:     s.Room.String(),
		Type:       string(s.Kind),
		SDP:        sdp,
	}}
}

func CallAnsweredEvent(sdp json.RawMessage) Event {
	return Event{Name: EvCallAnswered, Payload: struct {
		SDP json.RawMessage `json:"sdp"`
	}{SDP: sdp}}
}

func CallRejectedEvent(by UserID) Event {
	return Event{Name: EvCallRejected, Payload: struct {
		UserID string `json:"userId"`
	}{UserID: by.String()}}
}

func CallEndedEvent(by UserID) Event {
	return Event{Name: EvCallEnded, Payload: struct {
		UserID string `json:"userId"`
	}{UserID: by.String()}}
}

func CandidateEvent(candidate json.RawMessage) Event {
	return Event{Name: EvCallCandidate, Payload: struct {
		Candidate json.RawMessage `json:"candidate"`
	}{Candidate: candidate}}
}

type MediaStatePayload struct {
	UserID string `json:"userId"`
	Video  bool   `json:"video"`
	Audio  bool   `json:"audio"`
}

func MediaStateEvent(user UserID, video, audio bool) Event {
	return Event{Name: EvCallMediaState, Payload: MediaStatePayload{
		UserID: user.String(),
		Video:  video,
		Audio:  audio,
	}}
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func ErrorEvent(msg string) Event {
	return Event{Name: EvError, Payload: ErrorPayload{Message: msg}}
}

func CallErrorEvent(msg string) Event {
	return Event{Name: EvCallError, Payload: ErrorPayload{Message: msg}}
}
