package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nimbuschat/nimbus/internal/core/domain"
	"github.com/nimbuschat/nimbus/internal/core/port"
	"github.com/nimbuschat/nimbus/internal/metrics"
)

// CallSignalingEngine brokers WebRTC call setup between two live
// connections: offer, answer or reject, ICE relay, media-state updates,
// termination, and cleanup when a party disconnects. Signaling is
// relayed immediately; the durable call history is written best-effort
// through the call store and never blocks the handshake.
type CallSignalingEngine struct {
	mu       sync.Mutex
	sessions map[domain.RoomToken]*domain.CallSession

	registry *ConnectionRegistry
	router   *RoomRouter
	users    port.UserDirectory
	calls    port.CallStore
}

func NewCallSignalingEngine(registry *ConnectionRegistry, router *RoomRouter, users port.UserDirectory, calls port.CallStore) *CallSignalingEngine {
	return &CallSignalingEngine{
		sessions: make(map[domain.RoomToken]*domain.CallSession),
		registry: registry,
		router:   router,
		users:    users,
		calls:    calls,
	}
}

// Offer starts a call attempt toward receiver. The receiver must have a
// live connection, otherwise ErrReceiverOffline and no session is
// created. On success the caller joins a fresh call room and the
// receiver gets call:incoming with the room token and descriptor.
func (e *CallSignalingEngine) Offer(ctx context.Context, caller port.Client, receiver domain.UserID, kind domain.CallKind, sdp json.RawMessage) (*domain.CallSession, error) {
	if !kind.Valid() {
		return nil, domain.ErrInvalidCallKind
	}

	receiverConn, ok := e.registry.Lookup(receiver)
	if !ok {
		return nil, domain.ErrReceiverOffline
	}

	sess := domain.NewCallSession(caller.UserID(), receiver, kind)

	e.mu.Lock()
	e.sessions[sess.Room] = sess
	e.mu.Unlock()

	e.router.Join(caller, CallRoom(sess.Room))
	metrics.CallsStarted.Inc()

	if err := e.calls.Create(ctx, sess); err != nil {
		log.Warn().Err(err).Str("room", sess.Room.String()).Msg("Failed to record call")
	}

	callerName := caller.UserID().String()
	if u, err := e.users.GetUser(ctx, caller.UserID()); err == nil {
		callerName = u.Name
	}

	if err := receiverConn.Send(domain.IncomingCallEvent(sess, callerName, sdp)); err != nil {
		log.Warn().Err(err).Str("room", sess.Room.String()).Msg("Failed to deliver incoming call")
	}

	log.Info().
		Str("room", sess.Room.String()).
		Str("caller", sess.CallerID.String()).
		Str("receiver", receiver.String()).
		Str("type", string(kind)).
		Msg("Call ringing")

	return sess, nil
}

// Answer resolves a ringing session. Accepted: the answerer joins the
// room, the session goes active and the answer descriptor is multicast
// to the room. Rejected: the rejection is multicast and the session is
// torn down.
func (e *CallSignalingEngine) Answer(ctx context.Context, answerer port.Client, room domain.RoomToken, sdp json.RawMessage, accepted bool) error {
	e.mu.Lock()
	sess, ok := e.sessions[room]
	if !ok || sess.State != domain.CallRinging {
		e.mu.Unlock()
		return domain.ErrSessionNotFound
	}

	if !accepted {
		sess.State = domain.CallRejected
		delete(e.sessions, room)
		e.mu.Unlock()

		e.router.Multicast(CallRoom(room), domain.CallRejectedEvent(answerer.UserID()), nil)
		e.teardown(ctx, sess)
		return nil
	}

	sess.State = domain.CallActive
	e.mu.Unlock()

	e.router.Join(answerer, CallRoom(room))
	e.router.Multicast(CallRoom(room), domain.CallAnsweredEvent(sdp), nil)

	if err := e.calls.SetState(ctx, room, domain.CallActive, time.Time{}); err != nil {
		log.Warn().Err(err).Str("room", room.String()).Msg("Failed to record call answer")
	}

	log.Info().Str("room", room.String()).Msg("Call active")
	return nil
}

// Candidate relays an ICE candidate to the other members of the call
// room. Valid while ringing or active; fire-and-forget.
func (e *CallSignalingEngine) Candidate(sender port.Client, room domain.RoomToken, candidate json.RawMessage) error {
	e.mu.Lock()
	sess, ok := e.sessions[room]
	valid := ok && (sess.State == domain.CallRinging || sess.State == domain.CallActive)
	e.mu.Unlock()

	if !valid {
		return domain.ErrSessionNotFound
	}

	e.router.Multicast(CallRoom(room), domain.CandidateEvent(candidate), sender)
	return nil
}

// MediaState relays a camera/microphone toggle to the room. Only valid
// while the call is active.
func (e *CallSignalingEngine) MediaState(sender port.Client, room domain.RoomToken, video, audio bool) error {
	e.mu.Lock()
	sess, ok := e.sessions[room]
	valid := ok && sess.State == domain.CallActive
	e.mu.Unlock()

	if !valid {
		return domain.ErrSessionNotFound
	}

	e.router.Multicast(CallRoom(room), domain.MediaStateEvent(sender.UserID(), video, audio), sender)
	return nil
}

// End terminates the session for any non-terminal state: ended is
// multicast to the room, the room is destroyed and the session
// discarded. Idempotent: ending an unknown or already-ended room is a
// no-op.
func (e *CallSignalingEngine) End(ctx context.Context, room domain.RoomToken, by domain.UserID) {
	e.mu.Lock()
	sess, ok := e.sessions[room]
	if !ok {
		e.mu.Unlock()
		return
	}
	// A caller hanging up before the answer counts as missed for the
	// call history; everything after the answer is a normal end.
	if sess.State == domain.CallRinging {
		sess.State = domain.CallMissed
	} else {
		sess.State = domain.CallEnded
	}
	delete(e.sessions, room)
	e.mu.Unlock()

	e.router.Multicast(CallRoom(room), domain.CallEndedEvent(by), nil)
	e.teardown(ctx, sess)

	log.Info().
		Str("room", room.String()).
		Str("by", by.String()).
		Str("state", string(sess.State)).
		Msg("Call ended")
}

// CleanupFor ends every non-terminal session in which the user is
// caller or receiver. Invoked when a party's connection is lost so no
// orphaned session survives.
func (e *CallSignalingEngine) CleanupFor(ctx context.Context, user domain.UserID) {
	e.mu.Lock()
	var rooms []domain.RoomToken
	for room, sess := range e.sessions {
		if sess.Involves(user) {
			rooms = append(rooms, room)
		}
	}
	e.mu.Unlock()

	for _, room := range rooms {
		e.End(ctx, room, user)
	}
}

// ActiveSessions returns the number of non-terminal sessions.
func (e *CallSignalingEngine) ActiveSessions() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sessions)
}

func (e *CallSignalingEngine) teardown(ctx context.Context, sess *domain.CallSession) {
	e.router.Drop(CallRoom(sess.Room))
	metrics.CallsEnded.WithLabelValues(string(sess.State)).Inc()

	if err := e.calls.SetState(ctx, sess.Room, sess.State, time.Now().UTC()); err != nil {
		log.Warn().Err(err).Str("room", sess.Room.String()).Msg("Failed to record call teardown")
	}
}
