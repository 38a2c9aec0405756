package notifyhub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WriteTimeout bounds a single websocket write so one stuck client cannot stall event delivery.
var WriteTimeout = 5 * time.Second

// Hub holds the live /events connections. gorilla connections allow one
// concurrent writer, so every connection carries its own write lock.
type Hub struct {
	mu    sync.RWMutex
	conns map[*websocket.Conn]*sync.Mutex
}

// New creates a new notify hub.
func New() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Register adds a WebSocket connection to the hub.
func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = &sync.Mutex{}
}

// Unregister removes a WebSocket connection from the hub.
func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, conn)
}

// Len returns the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Send writes one text message to conn. Unregistered connections are skipped.
func (h *Hub) Send(conn *websocket.Conn, payload []byte) error {
	h.mu.RLock()
	lock, ok := h.conns[conn]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	lock.Lock()
	defer lock.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// Broadcast sends payload to every registered connection.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		_ = h.Send(conn, payload)
	}
}
