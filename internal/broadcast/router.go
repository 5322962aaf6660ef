package broadcast

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/soltown/promenade/internal/model"
)

// sendBufferSize is the per-connection outbound queue depth. A slow reader
// loses messages rather than stalling a broadcast; the periodic zone sync
// repairs whatever was dropped.
const sendBufferSize = 256

// Envelope is the wire framing for every outbound event
type Envelope struct {
	Type    model.EventType `json:"type"`
	Payload any             `json:"payload,omitempty"`
}

// client is one attached connection's outbound queue
type client struct {
	id   model.ConnID
	send chan []byte
	zone model.ZoneID
}

// Router delivers events to exactly the set of connections subscribed to a
// zone, or to all connections for global events. It tolerates connections
// detaching mid-fanout: a missing or full queue is skipped, never an error.
type Router struct {
	mu      sync.RWMutex
	clients map[model.ConnID]*client
	zones   map[model.ZoneID]map[model.ConnID]*client
	logger  *slog.Logger
}

// NewRouter creates an empty Router
func NewRouter(logger *slog.Logger) *Router {
	return &Router{
		clients: make(map[model.ConnID]*client),
		zones:   make(map[model.ZoneID]map[model.ConnID]*client),
		logger:  logger.With(slog.String("component", "broadcast")),
	}
}

// Attach registers a connection and returns the channel its write pump should
// drain. The channel is closed by Detach.
func (r *Router) Attach(id model.ConnID) <-chan []byte {
	c := &client{
		id:   id,
		send: make(chan []byte, sendBufferSize),
	}

	r.mu.Lock()
	if old, ok := r.clients[id]; ok {
		r.removeLocked(old)
	}
	r.clients[id] = c
	total := len(r.clients)
	r.mu.Unlock()

	r.logger.Info("connection attached",
		slog.String("conn_id", string(id)),
		slog.Int("total_clients", total))
	return c.send
}

// Detach removes a connection and closes its outbound channel. Idempotent.
func (r *Router) Detach(id model.ConnID) {
	r.mu.Lock()
	c, ok := r.clients[id]
	if ok {
		r.removeLocked(c)
	}
	total := len(r.clients)
	r.mu.Unlock()

	if ok {
		r.logger.Info("connection detached",
			slog.String("conn_id", string(id)),
			slog.Int("total_clients", total))
	}
}

// Subscribe moves a connection's fan-out membership to the given zone,
// leaving whatever zone it was in before.
func (r *Router) Subscribe(id model.ConnID, zone model.ZoneID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[id]
	if !ok {
		return
	}
	if c.zone != "" {
		r.leaveZoneLocked(c)
	}
	c.zone = zone
	members, ok := r.zones[zone]
	if !ok {
		members = make(map[model.ConnID]*client)
		r.zones[zone] = members
	}
	members[id] = c
}

// SendTo delivers an event to a single connection
func (r *Router) SendTo(id model.ConnID, event model.EventType, payload any) {
	msg, err := r.encode(event, payload)
	if err != nil {
		return
	}

	// push never blocks, so holding the read lock is safe and keeps Detach
	// from closing the channel mid-send
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.clients[id]; ok {
		r.push(c, event, msg)
	}
}

// SendToZone delivers an event to every connection subscribed to a zone,
// optionally excluding some connection ids.
func (r *Router) SendToZone(zone model.ZoneID, event model.EventType, payload any, exclude ...model.ConnID) {
	msg, err := r.encode(event, payload)
	if err != nil {
		return
	}

	excluded := make(map[model.ConnID]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.zones[zone] {
		if _, skip := excluded[id]; skip {
			continue
		}
		r.push(c, event, msg)
	}
}

// SendToAll delivers an event to every attached connection
func (r *Router) SendToAll(event model.EventType, payload any, exclude ...model.ConnID) {
	msg, err := r.encode(event, payload)
	if err != nil {
		return
	}

	excluded := make(map[model.ConnID]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.clients {
		if _, skip := excluded[id]; skip {
			continue
		}
		r.push(c, event, msg)
	}
}

// ClientCount returns the number of attached connections
func (r *Router) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Router) encode(event model.EventType, payload any) ([]byte, error) {
	msg, err := json.Marshal(Envelope{Type: event, Payload: payload})
	if err != nil {
		r.logger.Error("encoding event failed",
			slog.String("event", string(event)),
			slog.Any("error", err))
		return nil, err
	}
	return msg, nil
}

// push enqueues without blocking; a full queue drops the message
func (r *Router) push(c *client, event model.EventType, msg []byte) {
	select {
	case c.send <- msg:
	default:
		r.logger.Warn("message dropped - client buffer full",
			slog.String("conn_id", string(c.id)),
			slog.String("event", string(event)))
	}
}

// removeLocked drops a client from the zone index and client table and closes
// its channel. Caller holds the write lock.
func (r *Router) removeLocked(c *client) {
	if c.zone != "" {
		r.leaveZoneLocked(c)
	}
	delete(r.clients, c.id)
	close(c.send)
}

func (r *Router) leaveZoneLocked(c *client) {
	members := r.zones[c.zone]
	delete(members, c.id)
	if len(members) == 0 {
		delete(r.zones, c.zone)
	}
	c.zone = ""
}
