package http

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/nimbuschat/nimbus/internal/core/domain"
	"github.com/nimbuschat/nimbus/internal/core/service"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict origins before exposing outside the reverse proxy
	CheckOrigin: func(r *http.Request) bool { return true },
}

var errSendBufferFull = errors.New("send buffer full")

// WSClient implements port.Client over one gorilla connection. Outbound
// frames go through a buffered channel drained by a single writer
// goroutine so that Send never blocks a room fan-out.
type WSClient struct {
	id     string
	userID domain.UserID
	conn   *websocket.Conn

	send      chan domain.Event
	done      chan struct{}
	closeOnce sync.Once
}

func newWSClient(userID domain.UserID, conn *websocket.Conn, sendBuffer int) *WSClient {
	return &WSClient{
		id:     uuid.New().String(),
		userID: userID,
		conn:   conn,
		send:   make(chan domain.Event, sendBuffer),
		done:   make(chan struct{}),
	}
}

func (c *WSClient) ID() string {
	return c.id
}

func (c *WSClient) UserID() domain.UserID {
	return c.userID
}

func (c *WSClient) Send(ev domain.Event) error {
	select {
	case <-c.done:
		return errors.New("connection closed")
	default:
	}

	select {
	case c.send <- ev:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *WSClient) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// writePump is the single writer for the connection.
func (c *WSClient) writePump() {
	type frame struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}

	for {
		select {
		case <-c.done:
			return
		case ev := <-c.send:
			if err := c.conn.WriteJSON(frame{Event: ev.Name, Data: ev.Payload}); err != nil {
				log.Warn().Err(err).Str("client_id", c.id).Msg("Write failed, closing connection")
				c.Close()
				return
			}
		}
	}
}

// ServeWS authenticates the handshake, upgrades the connection and runs
// the read loop. A bad or missing token refuses the connection before
// any event handler runs.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	userID, err := h.Verifier.Verify(token)
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Rejected connection")
		httpError(w, http.StatusUnauthorized, "authentication error")
		return
	}
	if _, err := h.Users.GetUser(r.Context(), userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("Rejected connection for unknown user")
		httpError(w, http.StatusUnauthorized, "authentication error")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	client := newWSClient(userID, conn, h.SendBuffer)

	l := log.With().Str("client_id", client.ID()).Str("user_id", userID.String()).Logger()
	l.Info().Msg("New client connected")

	go client.writePump()
	h.Hub.Connect(r.Context(), client)

	defer func() {
		h.Hub.Disconnect(r.Context(), client)
		client.Close()
		l.Info().Msg("Client connection closed")
	}()

	for {
		var f service.Frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l.Error().Err(err).Msg("Unexpected close error")
			}
			break
		}
		h.Hub.Dispatch(r.Context(), client, f)
	}
}

// bearerToken pulls the credential from the Authorization header or,
// for browser clients that cannot set headers on a WebSocket handshake,
// the token query parameter.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

func httpError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}
