package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Priya8975/football-predictions/internal/metrics"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UnreadMessage is pushed to a user's clients when their unread count changes.
type UnreadMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Hub tracks WebSocket clients per user and pushes messages to them.
// All client bookkeeping happens on the Run goroutine.
type Hub struct {
	clients    map[string]map[*client]struct{}
	count      chan chan int
	direct     chan userMessage
	register   chan *client
	unregister chan *client
	done       chan struct{}
	logger     *slog.Logger
}

type userMessage struct {
	userID string
	data   []byte
}

type client struct {
	hub    *Hub
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*client]struct{}),
		count:      make(chan chan int),
		direct:     make(chan userMessage, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run processes registrations and messages until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	total := 0
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*client]struct{})
			metrics.SetWebSocketClients(0)
			return

		case c := <-h.register:
			set, ok := h.clients[c.userID]
			if !ok {
				set = make(map[*client]struct{})
				h.clients[c.userID] = set
			}
			set[c] = struct{}{}
			total++
			metrics.SetWebSocketClients(total)
			h.logger.Debug("websocket client connected", "user_id", c.userID, "total_clients", total)

		case c := <-h.unregister:
			if h.remove(c) {
				total--
				metrics.SetWebSocketClients(total)
				h.logger.Debug("websocket client disconnected", "user_id", c.userID, "total_clients", total)
			}

		case msg := <-h.direct:
			for c := range h.clients[msg.userID] {
				select {
				case c.send <- msg.data:
				default:
					// Slow client; drop it rather than block the hub.
					if h.remove(c) {
						total--
						metrics.SetWebSocketClients(total)
					}
				}
			}

		case reply := <-h.count:
			reply <- total
		}
	}
}

func (h *Hub) remove(c *client) bool {
	set, ok := h.clients[c.userID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	return true
}

// SendToUser queues a JSON message for every client of the user.
func (h *Hub) SendToUser(userID string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("failed to marshal websocket message", "error", err)
		return
	}

	select {
	case h.direct <- userMessage{userID: userID, data: data}:
	default:
		h.logger.Warn("websocket send channel full, dropping message", "user_id", userID)
	}
}

// PushUnread sends the user's current unread count.
func (h *Hub) PushUnread(userID string, count int) {
	h.SendToUser(userID, UnreadMessage{Type: "unread_count", Count: count})
}

// ServeUser upgrades the connection and registers it for userID. The
// caller is responsible for authenticating the request.
func (h *Hub) ServeUser(w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:    h,
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, 16),
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// readPump only exists to process pongs and notice disconnects.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
