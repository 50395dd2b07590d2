// Package realtime fans POS events out to connected websocket screens such
// as kitchen displays and the back-office dashboard.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"dhaba-pos/internal/util"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const writeWait = 10 * time.Second

// Hub manages the websocket connections of one audience.
type Hub struct {
	name      string
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.RWMutex
	gauge     prometheus.Gauge
	logger    *zap.Logger
}

// NewHub creates a hub. gauge may be nil.
func NewHub(name string, gauge prometheus.Gauge) *Hub {
	return &Hub{
		name:      name,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan []byte, 256),
		gauge:     gauge,
		logger:    util.Named("hub").With(zap.String("hub", name)),
	}
}

// Run delivers broadcast messages until ctx is cancelled. Clients that fail a
// write are dropped.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case msg := <-h.broadcast:
			var failed []*websocket.Conn

			h.mutex.RLock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, msg); err != nil {
					failed = append(failed, client)
				}
			}
			h.mutex.RUnlock()

			for _, client := range failed {
				h.RemoveClient(client)
			}
		}
	}
}

// AddClient registers a new connection
func (h *Hub) AddClient(conn *websocket.Conn) {
	h.mutex.Lock()
	h.clients[conn] = true
	count := len(h.clients)
	h.mutex.Unlock()

	h.setGauge(count)
	h.logger.Info("client connected", zap.Int("clients", count))
}

// RemoveClient unregisters and closes a connection
func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mutex.Lock()
	_, ok := h.clients[conn]
	if ok {
		delete(h.clients, conn)
		conn.Close()
	}
	count := len(h.clients)
	h.mutex.Unlock()

	if ok {
		h.setGauge(count)
		h.logger.Info("client disconnected", zap.Int("clients", count))
	}
}

// BroadcastMessage queues a message for every client. When the queue is full
// the message is dropped rather than blocking the caller.
func (h *Hub) BroadcastMessage(message []byte) bool {
	select {
	case h.broadcast <- message:
		return true
	default:
		h.logger.Warn("broadcast queue full, dropping message")
		return false
	}
}

// BroadcastJSON marshals v and queues it for every client
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.BroadcastMessage(data)
	return nil
}

// ClientsCount returns the number of connected clients
func (h *Hub) ClientsCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	for client := range h.clients {
		client.Close()
		delete(h.clients, client)
	}
	h.mutex.Unlock()
	h.setGauge(0)
}

func (h *Hub) setGauge(n int) {
	if h.gauge != nil {
		h.gauge.Set(float64(n))
	}
}
