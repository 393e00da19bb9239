package domain

import (
	"time"
)

type CallKind string

const (
	CallAudio CallKind = "audio"
	CallVideo CallKind = "video"
)

func (k CallKind) Valid() bool {
	return k == CallAudio || k == CallVideo
}

type CallState string

const (
	CallRinging  CallState = "ringing"
	CallActive   CallState = "ongoing"
	CallEnded    CallState = "ended"
	CallRejected CallState = "rejected"
	CallMissed   CallState = "missed"
)

// Terminal reports whether no further transitions are allowed.
func (s CallState) Terminal() bool {
	return s == CallEnded || s == CallRejected || s == CallMissed
}

// CallSession is the lifecycle state of one call attempt. Exactly one
// session exists per room token.
type CallSession struct {
	Room       RoomToken
	CallerID   UserID
	ReceiverID UserID
	Kind       CallKind
	State      CallState
	StartedAt  time.Time
}

func NewCallSession(caller, receiver UserID, kind CallKind) *CallSession {
	return &CallSession{
		Room:       NewRoomToken(),
		CallerID:   caller,
		ReceiverID: receiver,
		Kind:       kind,
		State:      CallRinging,
		StartedAt:  time.Now().UTC(),
	}
}

// Involves reports whether the user is a party to this call.
func (s *CallSession) Involves(user UserID) bool {
	return s.CallerID == user || s.ReceiverID == user
}
