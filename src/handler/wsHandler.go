package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"precisioncalc/src/service"
)

const wsReadDeadline = 120 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans service events out to every connected websocket client. It is the
// event sink the calculation service publishes through.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool)}
}

// Publish sends the event to every connected client. A client whose write
// fails is dropped.
func (h *Hub) Publish(event service.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(event); err != nil {
			logger.WithError(err).Debug("Dropping websocket client after write failure")
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// ClientCount reports how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Handler upgrades the request and keeps the connection registered until the
// client goes away. Inbound traffic is only used for ping and close.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.WithError(err).Error("WebSocket upgrade failed")
			return
		}

		logger.WithField("remote", conn.RemoteAddr().String()).Info("WebSocket connection established")

		h.mu.Lock()
		h.conns[conn] = true
		h.mu.Unlock()

		go h.readLoop(conn)
	}
}

func (h *Hub) readLoop(conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				logger.WithError(err).Debug("WebSocket read error")
			}
			return
		}

		if msg.Type == "ping" {
			conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
			// Writes are serialized through the hub mutex; gorilla allows
			// only one concurrent writer per connection.
			h.mu.Lock()
			err := conn.WriteJSON(map[string]string{"type": "pong"})
			h.mu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
