// Package realtime pushes notifications to connected browsers. Every
// connection joins exactly one room, user_{id}, chosen from the authenticated
// caller. With Redis configured, publishes fan out across server instances
// through a pattern subscription.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/stackit/backend/internal/metrics"
	"github.com/stackit/backend/internal/models"
)

// Hub tracks live connections by room and delivers payloads to them.
type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*clientWriter]struct{}
	closed   bool
	clock    clockwork.Clock
	upgrader websocket.Upgrader
}

// NewHub creates a hub accepting upgrades from allowedOrigins. An empty list
// or "*" accepts any origin.
func NewHub(clock clockwork.Clock, allowedOrigins []string) *Hub {
	h := &Hub{
		rooms: make(map[string]map[*clientWriter]struct{}),
		clock: clock,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		if o != "" {
			set[o] = struct{}{}
		}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Publish delivers payload to every local connection in channel. It never
// blocks on a slow client and succeeds when nobody is listening.
func (h *Hub) Publish(ctx context.Context, channel string, payload []byte) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for cw := range h.rooms[channel] {
		cw.enqueue(payload)
	}
	return nil
}

// ClientCount reports the number of live connections in channel.
func (h *Hub) ClientCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[channel])
}

func (h *Hub) register(channel string, cw *clientWriter) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	room, ok := h.rooms[channel]
	if !ok {
		room = make(map[*clientWriter]struct{})
		h.rooms[channel] = room
	}
	room[cw] = struct{}{}
	metrics.WebSocketConnectionsCurrent.Inc()
	return true
}

func (h *Hub) unregister(channel string, cw *clientWriter) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[channel]
	if !ok {
		return
	}
	if _, ok := room[cw]; !ok {
		return
	}
	delete(room, cw)
	metrics.WebSocketConnectionsCurrent.Dec()
	if len(room) == 0 {
		delete(h.rooms, channel)
	}
}

type connectedEvent struct {
	Event string `json:"event"`
	Data  struct {
		UserID  string `json:"userId"`
		Channel string `json:"channel"`
	} `json:"data"`
}

// ServeUser upgrades the request and joins the connection to userID's room.
// It returns once the client disconnects.
func (h *Hub) ServeUser(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.Warn("[WS] upgrade failed", "user_id", userID, "error", err)
		return
	}

	channel := models.UserChannel(userID)
	cw := newClientWriter(conn, h.clock)
	if !h.register(channel, cw) {
		cw.stopGraceful("server shutting down")
		return
	}
	slog.Debug("[WS] client connected", "user_id", userID, "clients", h.ClientCount(channel))

	var hello connectedEvent
	hello.Event = "connected"
	hello.Data.UserID = userID
	hello.Data.Channel = channel
	if b, err := json.Marshal(hello); err == nil {
		cw.enqueue(b)
	}

	// Clients only listen. Reading keeps pong handling alive and notices the
	// disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.unregister(channel, cw)
	cw.stop()
	slog.Debug("[WS] client disconnected", "user_id", userID)
}

// Close disconnects every client with a close frame and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*clientWriter
	for _, room := range h.rooms {
		for cw := range room {
			all = append(all, cw)
		}
	}
	h.mu.Unlock()

	for _, cw := range all {
		cw.stopGraceful("server shutting down")
	}
}
