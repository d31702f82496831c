// Package ws streams zone events to display clients over WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kkkk2058/portfolio/module/core/domain"
	"github.com/kkkk2058/portfolio/module/core/internal/repository/publisher"
)

var _ publisher.ZoneEventPublisher = (*Hub)(nil)

const sendBuffer = 64

type client struct {
	conn     *websocket.Conn
	send     chan []byte
	deviceID string
}

// Hub fans zone events out to connected clients. A client may subscribe to a
// single device with ?device_id=. Slow clients miss events instead of
// blocking the publisher.
type Hub struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *Hub) Register(r *gin.RouterGroup) {
	r.GET("/ws", h.Handle)
}

func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	cl := &client{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		deviceID: c.Query("device_id"),
	}

	h.mu.Lock()
	h.clients[cl] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.WithField("clients", total).Info("websocket client connected")

	go func() {
		defer func() { _ = conn.Close() }()
		for msg := range cl.send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	go func() {
		defer h.remove(cl)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; ok {
		delete(h.clients, cl)
		close(cl.send)
	}
	total := len(h.clients)
	h.mu.Unlock()
	h.logger.WithField("clients", total).Info("websocket client disconnected")
}

// PublishEvent never fails on a slow client; it only errors when the event
// cannot be encoded.
func (h *Hub) PublishEvent(_ context.Context, event *domain.ZoneEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal zone event: %w", err)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for cl := range h.clients {
		if cl.deviceID != "" && cl.deviceID != event.DeviceID {
			continue
		}
		select {
		case cl.send <- data:
		default:
		}
	}
	return nil
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		delete(h.clients, cl)
		close(cl.send)
	}
}
