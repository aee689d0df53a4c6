package http

import (
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"live-quiz-service/internal/app"
)

const sendBuffer = 32

// Hub tracks live websocket connections and implements app.Sender. Each
// connection gets a buffered channel drained by a single writer goroutine,
// so events for one connection are written in the order the sessions emitted
// them and sessions never block on a peer's socket.
type Hub struct {
	log zerolog.Logger

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan app.Event
	done chan struct{}
	once sync.Once
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[string]*client),
	}
}

// Register assigns a connection identity and starts its writer pump.
func (h *Hub) Register(conn *websocket.Conn) string {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan app.Event, sendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()

	go c.writePump(h.log)
	return c.id
}

// Unregister drops a connection. Pending events are discarded; subsequent
// sends to the identity become silent no-ops.
func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	c, ok := h.clients[connID]
	if ok {
		delete(h.clients, connID)
	}
	h.mu.Unlock()
	if ok {
		c.close()
	}
}

// Send queues an event for one connection. Unknown connections are ignored;
// a consumer whose buffer is full loses the event rather than stalling the
// session that emitted it.
func (h *Hub) Send(connID string, evt app.Event) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case <-c.done:
	case c.send <- evt:
	default:
		h.log.Warn().Str("conn", connID).Str("event", evt.Type).Msg("send buffer full, dropping event")
	}
}

func (c *client) writePump(log zerolog.Logger) {
	for {
		select {
		case <-c.done:
			return
		case evt := <-c.send:
			if err := c.conn.WriteJSON(evt); err != nil {
				log.Debug().Err(err).Str("conn", c.id).Msg("ws write failed")
				c.close()
				return
			}
		}
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}
