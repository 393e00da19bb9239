package port

import "github.com/nimbuschat/nimbus/internal/core/domain"

// Client is one live transport session bound to a user. Send must not
// block: implementations queue frames and drop with an error when the
// peer cannot keep up.
type Client interface {
	ID() string
	UserID() domain.UserID
	Send(ev domain.Event) error
	Close() error
}
