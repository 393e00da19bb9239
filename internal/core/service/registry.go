package service

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/nimbuschat/nimbus/internal/core/domain"
	"github.com/nimbuschat/nimbus/internal/core/port"
)

// ConnectionRegistry maps a durable identity to at most one live
// connection. Last connection wins: registering a second connection for
// the same identity evicts the first.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]port.Client
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		conns: make(map[domain.UserID]port.Client),
	}
}

// Register installs the mapping for the client's identity and returns
// the evicted prior connection, if any. The caller is responsible for
// closing the evicted connection and tearing down its room memberships.
func (r *ConnectionRegistry) Register(c port.Client) port.Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.conns[c.UserID()]
	if prev == c {
		return nil
	}
	r.conns[c.UserID()] = c
	if prev != nil {
		log.Info().
			Str("user_id", c.UserID().String()).
			Str("evicted", prev.ID()).
			Msg("Replacing existing connection")
	}
	return prev
}

// Unregister removes the mapping only if c is still the current
// connection for its identity. A stale unregister from an evicted
// connection must not knock out its replacement.
func (r *ConnectionRegistry) Unregister(c port.Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.conns[c.UserID()]
	if !ok || cur != c {
		return false
	}
	delete(r.conns, c.UserID())
	return true
}

// Lookup resolves an identity to its live connection, if any.
func (r *ConnectionRegistry) Lookup(id domain.UserID) (port.Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[id]
	return c, ok
}

// Count returns the number of live connections.
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
