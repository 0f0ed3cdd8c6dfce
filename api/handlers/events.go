package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/linesmerrill/malkhana-api/api"
	"github.com/linesmerrill/malkhana-api/models"
	"github.com/linesmerrill/malkhana-api/services"
)

const (
	// clientBuffer is how many events may queue for one client before it is dropped
	clientBuffer = 32
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
)

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type client struct {
	conn *websocket.Conn
	send chan services.CaseEvent
	user string
}

// Hub fans case events out to connected websocket clients
type Hub struct {
	clients map[*client]struct{}
	mutex   sync.Mutex
}

// NewHub returns an empty Hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// Publish queues e for every client. A client whose queue is full is
// disconnected rather than slowing the request that produced the event.
func (h *Hub) Publish(e services.CaseEvent) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		select {
		case c.send <- e:
		default:
			zap.S().Warnw("dropping slow websocket client", "user", c.user)
			h.remove(c)
		}
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) add(c *client) {
	h.mutex.Lock()
	h.clients[c] = struct{}{}
	h.mutex.Unlock()
}

// remove must be called with the mutex held
func (h *Hub) remove(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) unregister(c *client) {
	h.mutex.Lock()
	h.remove(c)
	h.mutex.Unlock()
}

// CaseEventsHandler upgrades an authenticated request to the case activity feed
func (h *Hub) CaseEventsHandler(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerFromContext(r.Context())
	if caller == nil {
		writeError(w, models.ErrUnauthenticated)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Warnw("websocket upgrade error", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan services.CaseEvent, clientBuffer), user: caller.Username}
	h.add(c)
	zap.S().Debugw("websocket client connected", "user", c.user)

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards client messages and notices disconnects
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
		zap.S().Debugw("websocket client disconnected", "user", c.user)
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case e, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
