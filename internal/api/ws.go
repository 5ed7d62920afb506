package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"guardian-service/internal/emergency"
)

const (
	wsWriteWait  = 5 * time.Second
	wsSendBuffer = 16
)

// Hub relays emergency state snapshots to websocket subscribers. It is the
// observer transport between the state machine and rendering clients. Each
// subscriber gets a buffered feed and its own writer goroutine so a slow
// peer can never stall the machine's emit path.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]chan emergency.Event
	logger *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{conns: make(map[*websocket.Conn]chan emergency.Event), logger: logger}
}

// Broadcast queues the event for every subscriber without blocking. A
// subscriber whose buffer is full misses this event; the next snapshot
// carries the full state anyway.
func (hub *Hub) Broadcast(ev emergency.Event) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for _, ch := range hub.conns {
		select {
		case ch <- ev:
		default:
			hub.logger.Warnf("Subscriber not keeping up, skipping event for session %s", ev.SessionID)
		}
	}
}

func (hub *Hub) add(conn *websocket.Conn) chan emergency.Event {
	ch := make(chan emergency.Event, wsSendBuffer)
	hub.mu.Lock()
	hub.conns[conn] = ch
	hub.mu.Unlock()
	return ch
}

// remove is idempotent; both the reader and the writer goroutine call it on
// their way out. The channel is closed under the same lock Broadcast sends
// under, so a send on a closed channel cannot happen.
func (hub *Hub) remove(conn *websocket.Conn) {
	hub.mu.Lock()
	if ch, ok := hub.conns[conn]; ok {
		delete(hub.conns, conn)
		close(ch)
	}
	hub.mu.Unlock()
	conn.Close()
}

func (hub *Hub) writePump(conn *websocket.Conn, ch chan emergency.Event) {
	defer hub.remove(conn)
	for ev := range ch {
		conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(ev); err != nil {
			hub.logger.Errorf("Failed to push event to subscriber: %v", err)
			return
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// AlertsWS upgrades the connection and streams state snapshots until the
// client goes away.
func (h *Handler) AlertsWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	ch := h.hub.add(conn)
	go h.hub.writePump(conn, ch)

	// Drain client frames; the feed is one-way.
	go func() {
		defer h.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
