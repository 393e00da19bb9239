package service

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/nimbuschat/nimbus/internal/core/domain"
	"github.com/nimbuschat/nimbus/internal/core/port"
)

// ConversationRoom derives the long-lived room name for a conversation.
func ConversationRoom(id domain.ConversationID) string {
	return "conversation:" + id.String()
}

// CallRoom derives the room name for a call token.
func CallRoom(t domain.RoomToken) string {
	return "call:" + t.String()
}

// RoomRouter maintains membership of connections in named multicast
// groups. Delivery is best-effort per member: a connection that cannot
// take the frame is skipped, never blocking the rest of the room.
type RoomRouter struct {
	mu     sync.RWMutex
	rooms  map[string]map[port.Client]struct{}
	joined map[port.Client]map[string]struct{}
}

func NewRoomRouter() *RoomRouter {
	return &RoomRouter{
		rooms:  make(map[string]map[port.Client]struct{}),
		joined: make(map[port.Client]map[string]struct{}),
	}
}

// Join adds the connection to the room. Idempotent.
func (r *RoomRouter) Join(c port.Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[port.Client]struct{})
	}
	r.rooms[room][c] = struct{}{}

	if r.joined[c] == nil {
		r.joined[c] = make(map[string]struct{})
	}
	r.joined[c][room] = struct{}{}
}

// Leave removes the connection from the room. Idempotent.
func (r *RoomRouter) Leave(c port.Client, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(c, room)
}

func (r *RoomRouter) leaveLocked(c port.Client, room string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if rooms, ok := r.joined[c]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.joined, c)
		}
	}
}

// LeaveAll removes the connection from every room it has joined.
func (r *RoomRouter) LeaveAll(c port.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.joined[c] {
		r.leaveLocked(c, room)
	}
}

// Drop destroys the room, removing every member. Used when a call room
// is torn down.
func (r *RoomRouter) Drop(room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for c := range r.rooms[room] {
		r.leaveLocked(c, room)
	}
}

// Multicast delivers the event to every current member of the room
// except the optional excluded connection. A failed send is logged and
// skipped; it is not an error for the caller. The exclusive lock is
// held for the whole fan-out so concurrent multicasts are serialized
// and every member sees the same admission order; member sends are
// queued, not blocking, so the critical section stays short.
func (r *RoomRouter) Multicast(room string, ev domain.Event, exclude port.Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for c := range r.rooms[room] {
		if c == exclude {
			continue
		}
		if err := c.Send(ev); err != nil {
			log.Warn().
				Err(err).
				Str("room", room).
				Str("client_id", c.ID()).
				Str("event", ev.Name).
				Msg("Dropping event for unreachable member")
		}
	}
}

// Members returns the current member count of a room.
func (r *RoomRouter) Members(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// RoomCount returns the number of rooms with at least one member.
func (r *RoomRouter) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
