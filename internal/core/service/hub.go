package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/nimbuschat/nimbus/internal/core/domain"
	"github.com/nimbuschat/nimbus/internal/core/port"
	"github.com/nimbuschat/nimbus/internal/metrics"
)

// Frame is one inbound wire frame: an event name plus its raw payload.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Hub owns the connection lifecycle and routes inbound frames to the
// right component through a dispatch table. Errors from a handler are
// reported back only to the offending connection; other members never
// observe a failed operation.
type Hub struct {
	registry      *ConnectionRegistry
	router        *RoomRouter
	presence      *PresenceBroadcaster
	relay         *MessageRelay
	calls         *CallSignalingEngine
	conversations port.ConversationStore

	handlers map[string]func(ctx context.Context, c port.Client, data json.RawMessage) error
}

func NewHub(
	registry *ConnectionRegistry,
	router *RoomRouter,
	presence *PresenceBroadcaster,
	relay *MessageRelay,
	calls *CallSignalingEngine,
	conversations port.ConversationStore,
) *Hub {
	h := &Hub{
		registry:      registry,
		router:        router,
		presence:      presence,
		relay:         relay,
		calls:         calls,
		conversations: conversations,
	}
	h.handlers = map[string]func(ctx context.Context, c port.Client, data json.RawMessage) error{
		domain.EvMessageSend:    h.onMessageSend,
		domain.EvMessageStatus:  h.onMessageStatus,
		domain.EvMessageDelete:  h.onMessageDelete,
		domain.EvPresenceUpdate: h.onPresenceUpdate,
		domain.EvTypingStart:    h.onTypingStart,
		domain.EvTypingStop:     h.onTypingStop,
		domain.EvCallOffer:      h.onCallOffer,
		domain.EvCallAnswer:     h.onCallAnswer,
		domain.EvCallCandidate:  h.onCallCandidate,
		domain.EvCallEnd:        h.onCallEnd,
		domain.EvCallMediaState: h.onCallMediaState,
	}
	return h
}

// Connect registers an authenticated connection: a prior connection for
// the same identity is evicted and closed, the online status is
// broadcast, and the connection auto-joins a room for every
// conversation the user participates in. The membership snapshot is
// taken once per connect and not refreshed until reconnect.
func (h *Hub) Connect(ctx context.Context, c port.Client) {
	if evicted := h.registry.Register(c); evicted != nil {
		h.router.LeaveAll(evicted)
		if err := evicted.Close(); err != nil {
			log.Warn().Err(err).Str("client_id", evicted.ID()).Msg("Failed to close evicted connection")
		}
	} else {
		metrics.ActiveConnections.Inc()
	}

	h.presence.Online(ctx, c.UserID())

	conversations, err := h.conversations.ConversationsOf(ctx, c.UserID())
	if err != nil {
		log.Warn().Err(err).Str("user_id", c.UserID().String()).Msg("Failed to resolve conversations on connect")
		return
	}
	for _, id := range conversations {
		h.router.Join(c, ConversationRoom(id))
	}

	log.Info().
		Str("client_id", c.ID()).
		Str("user_id", c.UserID().String()).
		Int("conversations", len(conversations)).
		Msg("Client connected")
}

// Disconnect tears the connection down: room memberships go away
// unconditionally; the offline broadcast and call cleanup run only if
// this connection is still current for its identity (an evicted
// connection must not mark its replacement offline).
func (h *Hub) Disconnect(ctx context.Context, c port.Client) {
	h.router.LeaveAll(c)

	if !h.registry.Unregister(c) {
		return
	}
	metrics.ActiveConnections.Dec()

	h.presence.Offline(ctx, c.UserID())
	h.calls.CleanupFor(ctx, c.UserID())

	log.Info().
		Str("client_id", c.ID()).
		Str("user_id", c.UserID().String()).
		Msg("Client disconnected")
}

// Dispatch routes one inbound frame. A handler error becomes an error
// or call:error frame for the sending connection alone; Dispatch never
// fails the connection.
func (h *Hub) Dispatch(ctx context.Context, c port.Client, f Frame) {
	handler, ok := h.handlers[f.Event]
	if !ok {
		h.reportError(c, f.Event, domain.ErrorEvent("unknown event: "+f.Event))
		return
	}

	if err := handler(ctx, c, f.Data); err != nil {
		ev := domain.ErrorEvent(err.Error())
		if strings.HasPrefix(f.Event, "call:") {
			ev = domain.CallErrorEvent(err.Error())
		}
		h.reportError(c, f.Event, ev)
	}
}

func (h *Hub) reportError(c port.Client, event string, ev domain.Event) {
	metrics.EventErrors.WithLabelValues(event).Inc()
	if err := c.Send(ev); err != nil {
		log.Warn().Err(err).Str("client_id", c.ID()).Msg("Failed to report event error")
	}
}

func (h *Hub) onMessageSend(ctx context.Context, c port.Client, data json.RawMessage) error {
	var req struct {
		ConversationID string `json:"conversationId"`
		Content        string `json:"content"`
		Type           string `json:"type"`
		ReplyTo        string `json:"replyTo"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	conversationID, err := domain.ParseConversationID(req.ConversationID)
	if err != nil {
		return err
	}
	var replyTo *domain.MessageID
	if req.ReplyTo != "" {
		id, err := domain.ParseMessageID(req.ReplyTo)
		if err != nil {
			return err
		}
		replyTo = &id
	}
	_, err = h.relay.Send(ctx, c.UserID(), conversationID, req.Content, domain.MessageType(req.Type), replyTo)
	return err
}

func (h *Hub) onMessageStatus(ctx context.Context, c port.Client, data json.RawMessage) error {
	var req struct {
		MessageID string `json:"messageId"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	id, err := domain.ParseMessageID(req.MessageID)
	if err != nil {
		return err
	}
	return h.relay.UpdateStatus(ctx, id, domain.MessageStatus(req.Status))
}

func (h *Hub) onMessageDelete(ctx context.Context, c port.Client, data json.RawMessage) error {
	var req struct {
		MessageID         string `json:"messageId"`
		DeleteForEveryone bool   `json:"deleteForEveryone"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	id, err := domain.ParseMessageID(req.MessageID)
	if err != nil {
		return err
	}
	return h.relay.Delete(ctx, c.UserID(), id, req.DeleteForEveryone)
}

func (h *Hub) onPresenceUpdate(ctx context.Context, c port.Client, data json.RawMessage) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	return h.presence.Update(ctx, c.UserID(), req.Status)
}

func (h *Hub) onTypingStart(ctx context.Context, c port.Client, data json.RawMessage) error {
	return h.typing(c, data, true)
}

func (h *Hub) onTypingStop(ctx context.Context, c port.Client, data json.RawMessage) error {
	return h.typing(c, data, false)
}

func (h *Hub) typing(c port.Client, data json.RawMessage, isTyping bool) error {
	var req struct {
		ConversationID string `json:"conversationId"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	conversationID, err := domain.ParseConversationID(req.ConversationID)
	if err != nil {
		return err
	}
	h.relay.Typing(c, conversationID, isTyping)
	return nil
}

func (h *Hub) onCallOffer(ctx context.Context, c port.Client, data json.RawMessage) error {
	var req struct {
		ReceiverID string          `json:"receiverId"`
		SDP        json.RawMessage `json:"sdp"`
		Type       string          `json:"type"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	receiver, err := domain.ParseUserID(req.ReceiverID)
	if err != nil {
		return err
	}
	_, err = h.calls.Offer(ctx, c, receiver, domain.CallKind(req.Type), req.SDP)
	return err
}

func (h *Hub) onCallAnswer(ctx context.Context, c port.Client, data json.RawMessage) error {
	var req struct {
		RoomID   string          `json:"roomId"`
		SDP      json.RawMessage `json:"sdp"`
		Accepted bool            `json:"accepted"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	return h.calls.Answer(ctx, c, domain.RoomToken(req.RoomID), req.SDP, req.Accepted)
}

func (h *Hub) onCallCandidate(ctx context.Context, c port.Client, data json.RawMessage) error {
	var req struct {
		RoomID    string          `json:"roomId"`
		Candidate json.RawMessage `json:"candidate"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	return h.calls.Candidate(c, domain.RoomToken(req.RoomID), req.Candidate)
}

func (h *Hub) onCallEnd(ctx context.Context, c port.Client, data json.RawMessage) error {
	var req struct {
		RoomID string `json:"roomId"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	h.calls.End(ctx, domain.RoomToken(req.RoomID), c.UserID())
	return nil
}

func (h *Hub) onCallMediaState(ctx context.Context, c port.Client, data json.RawMessage) error {
	var req struct {
		RoomID string `json:"roomId"`
		Video  bool   `json:"video"`
		Audio  bool   `json:"audio"`
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	return h.calls.MediaState(c, domain.RoomToken(req.RoomID), req.Video, req.Audio)
}
