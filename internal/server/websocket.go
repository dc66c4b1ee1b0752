package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/openvcu/someip/internal/logging"
)

const (
	// Time allowed to write an event to a client.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from a client.
	pongWait = 60 * time.Second

	// Ping period; must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Per-client buffered events; slow clients that fall further behind
	// are dropped rather than blocking the broadcast.
	clientBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The monitoring server binds to localhost by default; remote
	// origins are not filtered beyond that.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans transition events out to connected websocket clients.
type Hub struct {
	events chan TransitionEvent
	done   chan struct{}

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
}

type wsClient struct {
	conn *websocket.Conn
	send chan TransitionEvent
}

func NewHub() *Hub {
	return &Hub{
		events:  make(chan TransitionEvent, 64),
		done:    make(chan struct{}),
		clients: make(map[*wsClient]struct{}),
	}
}

// Broadcast queues an event for all clients. Events are dropped when
// the hub is closed or its queue is full; the monitoring stream is
// best-effort. Safe to call at any point in the hub's lifecycle, so
// discovery event sources never have to sequence against shutdown.
func (h *Hub) Broadcast(event TransitionEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	select {
	case h.events <- event:
	default:
		logging.Warn("Dropping transition event, hub queue full")
	}
}

// Run distributes queued events until Close.
func (h *Hub) Run() {
	for {
		select {
		case event := <-h.events:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- event:
				default:
					// Client too slow; disconnect it.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		case <-h.done:
			return
		}
	}
}

// Close disconnects all clients and stops Run. The events channel
// stays open; late broadcasts are dropped by the closed check instead
// of panicking a sender.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.done)
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) register(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// handleWebSocket upgrades the connection and streams transition
// events until the client disconnects.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Warn("WebSocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}

	client := &wsClient{
		conn: conn,
		send: make(chan TransitionEvent, clientBuffer),
	}
	if !s.hub.register(client) {
		_ = conn.Close()
		return
	}

	logging.Debug("WebSocket client connected",
		zap.String("remote_addr", r.RemoteAddr),
	)

	go client.writeLoop()
	client.readLoop(s.hub)

	logging.Debug("WebSocket client disconnected",
		zap.String("remote_addr", r.RemoteAddr),
	)
}

// readLoop consumes client frames to process pongs and detect
// disconnects; inbound data is otherwise ignored.
func (c *wsClient) readLoop(h *Hub) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
