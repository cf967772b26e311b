// Package chat holds the real-time connection registry for support
// conversations. The registry is an explicit object wired through the
// router so handlers can be tested without a live socket.
package chat

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// Conn is the subset of *websocket.Conn the hub needs.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Hub maps conversation ids to their live connections. Both the
// customer and any support agents viewing the thread register here.
type Hub struct {
	mu    sync.RWMutex
	conns map[uint]map[Conn]bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[Conn]bool)}
}

func (h *Hub) Register(conversationID uint, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.conns[conversationID] == nil {
		h.conns[conversationID] = make(map[Conn]bool)
	}
	h.conns[conversationID][conn] = true
}

func (h *Hub) Unregister(conversationID uint, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, exists := h.conns[conversationID]; exists {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.conns, conversationID)
		}
	}
}

func (h *Hub) ConnectionCount(conversationID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[conversationID])
}

// Broadcast sends v to every connection on the conversation. The conn
// set is copied first so slow writes never hold the registry lock; a
// failed connection is dropped.
func (h *Hub) Broadcast(conversationID uint, v interface{}) {
	h.mu.RLock()
	clients, exists := h.conns[conversationID]
	if !exists || len(clients) == 0 {
		h.mu.RUnlock()
		return
	}

	connsCopy := make([]Conn, 0, len(clients))
	for conn := range clients {
		connsCopy = append(connsCopy, conn)
	}
	h.mu.RUnlock()

	for _, conn := range connsCopy {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			logrus.WithError(err).Warn("failed to set write deadline for broadcast")
			continue
		}

		if err := conn.WriteJSON(v); err != nil {
			logrus.WithError(err).Warnf("failed to broadcast to conversation %d", conversationID)
			h.Unregister(conversationID, conn)
			conn.Close()
		}
	}
}
