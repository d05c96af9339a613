// Package ws pushes suggestion and recording state changes to
// connected clients over websockets.
package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/internal/infrastructure/logging"
	"github.com/deskpilot/deskpilot/internal/infrastructure/monitoring"
	"github.com/deskpilot/deskpilot/internal/shared/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The service binds to loopback; the desktop shell connects
		// without an Origin header.
		return true
	},
}

// client wraps a connection with a write lock. gorilla/websocket
// allows at most one concurrent writer per connection.
type client struct {
	id   string
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Hub fans out state changes to every connected client.
type Hub struct {
	logger  *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*client]struct{}),
	}
}

// WithMetrics adds connection tracking to the hub.
func (h *Hub) WithMetrics(m *monitoring.Metrics) *Hub {
	h.metrics = m
	return h
}

// HandleConnection upgrades the request and serves the client until it
// disconnects. Clients only receive pushes; the sole inbound message
// is a ping.
func (h *Hub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed", zap.Error(err))
		return
	}
	cl := &client{id: uuid.NewString(), conn: conn}
	h.register(cl)
	defer h.unregister(cl)

	if err := cl.send(gin.H{"type": "system", "message": "Connected to activity tracker"}); err != nil {
		return
	}

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		switch msg.Type {
		case "ping":
			if err := cl.send(gin.H{"type": "pong"}); err != nil {
				return
			}
		default:
			if err := cl.send(gin.H{"type": "error", "message": "unknown message type"}); err != nil {
				return
			}
		}
	}
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
	}
	h.logger.Debug("WebSocket client connected", zap.String("client", cl.id), zap.Int("clients", n))
}

// unregister is idempotent; a client dropped during a broadcast is
// also unregistered by its read loop.
func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	_, known := h.clients[cl]
	delete(h.clients, cl)
	n := len(h.clients)
	h.mu.Unlock()
	if !known {
		return
	}
	cl.conn.Close()
	if h.metrics != nil {
		h.metrics.WSConnections.Dec()
	}
	h.logger.Debug("WebSocket client disconnected", zap.String("client", cl.id), zap.Int("clients", n))
}

func (h *Hub) broadcast(v any) {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()

	for _, cl := range clients {
		if err := cl.send(v); err != nil {
			h.logger.Debug("WebSocket write failed, dropping client", zap.Error(err))
			h.unregister(cl)
		}
	}
}

// BroadcastSuggestions pushes the active suggestion set.
func (h *Hub) BroadcastSuggestions(active []types.Suggestion) {
	h.broadcast(gin.H{
		"type":        "suggestions",
		"suggestions": active,
	})
}

// BroadcastRecording pushes a recording state change.
func (h *Hub) BroadcastRecording(recording bool) {
	h.broadcast(gin.H{
		"type":      "recording",
		"recording": recording,
	})
}
