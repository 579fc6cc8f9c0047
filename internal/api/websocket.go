package api

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/robertguss/steershaft-checklist/internal/logging"
	"github.com/robertguss/steershaft-checklist/internal/wizard"
)

// WebSocketMessage is one frame of the snapshot feed
type WebSocketMessage struct {
	Type      string    `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func newSessionMessage(snap wizard.Snapshot) WebSocketMessage {
	return WebSocketMessage{Type: "session", Data: snap, Timestamp: time.Now()}
}

// WebSocketClient is one connected browser
type WebSocketClient struct {
	hub  *WebSocketHub
	conn *websocket.Conn
	send chan WebSocketMessage

	mu     sync.Mutex
	closed bool
}

// WebSocketHub fans session snapshots out to every client
type WebSocketHub struct {
	clients    map[*WebSocketClient]bool
	broadcast  chan WebSocketMessage
	register   chan *WebSocketClient
	unregister chan *WebSocketClient

	originPatterns []string
	current        func() wizard.Snapshot

	mu      sync.RWMutex
	running bool
	stopCh  chan struct{}
}

// NewWebSocketHub creates a hub accepting connections from allowedOrigins
func NewWebSocketHub(allowedOrigins []string) *WebSocketHub {
	return &WebSocketHub{
		clients:        make(map[*WebSocketClient]bool),
		broadcast:      make(chan WebSocketMessage, 256),
		register:       make(chan *WebSocketClient),
		unregister:     make(chan *WebSocketClient),
		originPatterns: originPatterns(allowedOrigins),
		running:        true,
		stopCh:         make(chan struct{}),
	}
}

// originPatterns converts CORS origins into the host patterns the
// websocket library matches against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, host, ok := strings.Cut(o, "://"); ok {
			o = host
		}
		patterns = append(patterns, o)
	}
	return patterns
}

// SetInitial makes the hub greet each new client with current()
func (h *WebSocketHub) SetInitial(current func() wizard.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = current
}

// Run is the hub's main loop; it returns after Stop
func (h *WebSocketHub) Run() {
	for {
		select {
		case <-h.stopCh:
			h.mu.Lock()
			for client := range h.clients {
				client.close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				if !client.trySend(message) {
					go func(c *WebSocketClient) {
						select {
						case h.unregister <- c:
						case <-h.stopCh:
						}
					}(client)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Stop disconnects every client and ends Run
func (h *WebSocketHub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		h.running = false
		close(h.stopCh)
	}
}

// Broadcast queues msg for every client. Messages are dropped when the hub
// is stopped or its queue is full.
func (h *WebSocketHub) Broadcast(msg WebSocketMessage) {
	h.mu.RLock()
	running := h.running
	h.mu.RUnlock()

	if running {
		select {
		case h.broadcast <- msg:
		default:
		}
	}
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWs upgrades the request and streams snapshots until the client
// goes away.
func (h *WebSocketHub) ServeWs(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		logging.Logger.Warn("WebSocket accept failed", "error", err)
		return
	}

	client := &WebSocketClient{
		hub:  h,
		conn: conn,
		send: make(chan WebSocketMessage, 64),
	}

	h.mu.RLock()
	current := h.current
	h.mu.RUnlock()
	if current != nil {
		client.trySend(newSessionMessage(current()))
	}

	select {
	case h.register <- client:
	case <-h.stopCh:
		client.close()
		return
	}

	go client.writePump()
	client.readPump(r.Context())
}

// readPump answers pings until the connection closes
func (c *WebSocketClient) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.stopCh:
		}
	}()

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := wsjson.Read(ctx, c.conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				logging.Logger.Debug("WebSocket read ended", "error", err)
			}
			return
		}
		if msg.Type == "ping" {
			c.trySend(WebSocketMessage{Type: "pong", Timestamp: time.Now()})
		}
	}
}

// writePump writes queued messages and keeps the connection alive
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := wsjson.Write(ctx, c.conn, message)
			cancel()
			if err != nil {
				logging.Logger.Debug("WebSocket write failed", "error", err)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// trySend queues msg without blocking; false means the client is closed
// or too slow.
func (c *WebSocketClient) trySend(msg WebSocketMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *WebSocketClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close(websocket.StatusNormalClosure, "closing")
}
