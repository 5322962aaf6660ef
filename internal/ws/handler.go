package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soltown/promenade/internal/broadcast"
	"github.com/soltown/promenade/internal/model"
	"github.com/soltown/promenade/internal/session"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong before the connection is considered dead
	pongWait = 60 * time.Second

	// Ping interval; must be shorter than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum inbound message size in bytes
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inboundEnvelope is the wire framing for client events
type inboundEnvelope struct {
	Type    model.EventType `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler upgrades HTTP requests to websocket connections and bridges them
// to sessions: one reader goroutine feeding the session, one writer draining
// the broadcast router's per-connection queue.
type Handler struct {
	manager *session.Manager
	router  *broadcast.Router
	logger  *slog.Logger
}

// NewHandler creates a websocket handler
func NewHandler(manager *session.Manager, router *broadcast.Router, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		router:  router,
		logger:  logger.With(slog.String("component", "ws")),
	}
}

// ServeHTTP handles one websocket connection for its whole lifetime. The
// display name and social metadata ride the upgrade request's query string.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	platform := r.URL.Query().Get("socialPlatform")
	handle := r.URL.Query().Get("socialHandle")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	// Session outlives the request context; teardown must still be able to
	// persist and broadcast after the HTTP request is done.
	ctx := context.Background()

	id := model.ConnID(uuid.NewString())
	send := h.router.Attach(id)
	go h.writePump(conn, send)

	sess := h.manager.Open(ctx, id, name, platform, handle)
	defer sess.Close(ctx)

	h.readLoop(ctx, conn, sess)
}

// readLoop decodes inbound envelopes and hands them to the session one at a
// time. Running on a single goroutine is what serializes a connection's
// events, including back-to-back zone transitions.
func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read failed",
					slog.String("conn_id", string(sess.ID())),
					slog.Any("error", err))
			}
			return
		}

		var env inboundEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.logger.Debug("undecodable message dropped",
				slog.String("conn_id", string(sess.ID())))
			continue
		}
		sess.HandleMessage(ctx, env.Type, env.Payload)
	}
}

// writePump drains the router's queue onto the wire and keeps the connection
// alive with pings. It exits when the router detaches the connection.
func (h *Handler) writePump(conn *websocket.Conn, send <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
