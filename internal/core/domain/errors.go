package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthentication refuses a connection attempt with a bad,
	// missing or expired credential.
	ErrAuthentication = errors.New("authentication error")

	// ErrReceiverOffline is returned for a call offer whose target has
	// no live connection. The text reaches clients verbatim in
	// call:error frames; keep the casing stable.
	ErrReceiverOffline = errors.New("User is offline")

	// ErrSessionNotFound is returned when a signaling event references
	// an unknown or expired room token. Also sent to clients verbatim.
	ErrSessionNotFound = errors.New("Call room not found")

	// ErrNotSender rejects delete-for-everyone by a non-sender.
	ErrNotSender = errors.New("only the sender can delete for everyone")

	ErrUserNotFound         = errors.New("user not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrConversationNotFound = errors.New("conversation not found")

	ErrEmptyMessage       = errors.New("message content cannot be empty")
	ErrInvalidMessageType = errors.New("invalid message type")
	ErrInvalidStatus      = errors.New("invalid message status")
	ErrInvalidCallKind    = errors.New("invalid call type")
)

// PersistenceError wraps a failure of the external store. Message sends
// surface it to the sender; best-effort operations only log it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err is (or wraps) a store failure.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
