package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// AudienceChangeHandler is called when the connected-viewer count of a
// webinar changes (used for peak tracking).
type AudienceChangeHandler func(webinarID uuid.UUID, count int)

// PresenceHandler is called when a viewer joins or leaves a webinar room.
type PresenceHandler func(webinarID, userID uuid.UUID)

// RoomHandler is called when a webinar room opens (first viewer) or closes
// (last viewer left). The sync supervisor hangs off these.
type RoomHandler func(webinarID uuid.UUID)

// Hub maintains webinar_id -> set of connections and broadcasts messages.
// Uses Redis pub/sub so every instance relays the webinar's change feed.
type Hub struct {
	// webinarID -> map[clientID]*Client
	webinars map[uuid.UUID]map[string]*Client
	subs     map[uuid.UUID]func() // cancel Redis subscription per webinar
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    Publisher
	redisSub Subscriber

	onAudience   AudienceChangeHandler
	onJoin       PresenceHandler
	onLeave      PresenceHandler
	onRoomOpened RoomHandler
	onRoomClosed RoomHandler
}

// Publisher publishes events to the webinar's change-feed channel.
type Publisher interface {
	PublishWebinarEvent(webinarID uuid.UUID, event string, payload []byte) error
}

// Subscriber subscribes to webinar channels and invokes handler for incoming events.
type Subscriber interface {
	SubscribeWebinar(webinarID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger, redisPub Publisher, redisSub Subscriber) *Hub {
	return &Hub{
		webinars: make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// SetAudienceChangeHandler sets the callback for audience count changes.
func (h *Hub) SetAudienceChangeHandler(fn AudienceChangeHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAudience = fn
}

// SetPresenceHandlers sets the join/leave callbacks (participant rows).
func (h *Hub) SetPresenceHandlers(onJoin, onLeave PresenceHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onJoin = onJoin
	h.onLeave = onLeave
}

// SetRoomHandlers sets the room open/close callbacks (sync supervisor).
func (h *Hub) SetRoomHandlers(onOpened, onClosed RoomHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRoomOpened = onOpened
	h.onRoomClosed = onClosed
}

// Register adds a client to a webinar room. Starts the Redis subscription and
// opens the sync room when this is the first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	first := h.webinars[c.WebinarID] == nil
	if first {
		h.webinars[c.WebinarID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeWebinar(c.WebinarID, func(event string, payload []byte) {
				h.BroadcastToWebinar(c.WebinarID, event, json.RawMessage(payload))
			})
			if err != nil {
				// The room still opens; clients on this instance just miss
				// cross-instance events until they reconnect.
				h.logger.Error("webinar channel subscribe failed",
					zap.String("webinar_id", c.WebinarID.String()), zap.Error(err))
			} else {
				h.subs[c.WebinarID] = cancel
			}
		}
	}
	h.webinars[c.WebinarID][c.ID] = c
	count := len(h.webinars[c.WebinarID])
	onAudience, onJoin, onRoomOpened := h.onAudience, h.onJoin, h.onRoomOpened
	h.mu.Unlock()

	if first && onRoomOpened != nil {
		onRoomOpened(c.WebinarID)
	}
	if onJoin != nil {
		onJoin(c.WebinarID, c.UserID)
	}
	if onAudience != nil {
		onAudience(c.WebinarID, count)
	}
	h.logger.Debug("client joined webinar", zap.String("client_id", c.ID), zap.String("webinar_id", c.WebinarID.String()))
}

// Unregister removes a client from a webinar room. Cancels the Redis
// subscription and closes the sync room when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	var count int
	last := false
	if m, ok := h.webinars[c.WebinarID]; ok {
		delete(m, c.ID)
		count = len(m)
		if count == 0 {
			last = true
			delete(h.webinars, c.WebinarID)
			if cancel, ok := h.subs[c.WebinarID]; ok {
				cancel()
				delete(h.subs, c.WebinarID)
			}
		}
	}
	onAudience, onLeave, onRoomClosed := h.onAudience, h.onLeave, h.onRoomClosed
	h.mu.Unlock()

	if onLeave != nil {
		onLeave(c.WebinarID, c.UserID)
	}
	if last && onRoomClosed != nil {
		onRoomClosed(c.WebinarID)
	}
	if onAudience != nil && count > 0 {
		onAudience(c.WebinarID, count)
	}
	h.logger.Debug("client left webinar", zap.String("client_id", c.ID), zap.String("webinar_id", c.WebinarID.String()))
}

// BroadcastToWebinar sends a message to all clients in a webinar (local only).
func (h *Hub) BroadcastToWebinar(webinarID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	refs := make([]*Client, 0, len(h.webinars[webinarID]))
	for _, c := range h.webinars[webinarID] {
		refs = append(refs, c)
	}
	h.mu.RUnlock()

	for _, c := range refs {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// PublishToWebinar publishes a change-feed event to Redis only. The Redis
// subscriber callback broadcasts once for all instances (including this one),
// and every sync client on the channel re-fetches, so a single publish fans
// out everywhere without duplicate local delivery.
func (h *Hub) PublishToWebinar(webinarID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redis != nil {
		_ = h.redis.PublishWebinarEvent(webinarID, event, data)
		return
	}
	h.BroadcastToWebinar(webinarID, event, payload)
}

// AudienceCount returns the number of connected clients in a webinar.
func (h *Hub) AudienceCount(webinarID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.webinars[webinarID])
}

// EachClient calls fn for every connected client of a webinar.
func (h *Hub) EachClient(webinarID uuid.UUID, fn func(clientID string, userID uuid.UUID)) {
	h.mu.RLock()
	refs := make([]*Client, 0, len(h.webinars[webinarID]))
	for _, c := range h.webinars[webinarID] {
		refs = append(refs, c)
	}
	h.mu.RUnlock()
	for _, c := range refs {
		fn(c.ID, c.UserID)
	}
}

// SendToClient sends a message to a single client in a webinar.
func (h *Hub) SendToClient(webinarID uuid.UUID, clientID string, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := WSMessage{Event: event, Data: data}
	h.mu.RLock()
	clients := h.webinars[webinarID]
	c, ok := clients[clientID]
	h.mu.RUnlock()
	if !ok || c == nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
