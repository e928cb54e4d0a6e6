package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512 * 1024
)

// Hub tracks live chat connections so they can be counted and closed on
// shutdown. Clients never see each other's messages.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
}

// Client is one chat connection. Incoming frames are handed to MessageHandler
// one at a time, in order.
type Client struct {
	Hub            *Hub
	Conn           *websocket.Conn
	Send           chan []byte
	UserID         string
	SessionID      string
	MessageHandler func(*Client, []byte)

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations until ctx is done, then closes every client
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			slog.Info("Client registered", "user_id", client.UserID, "session_id", client.SessionID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			slog.Info("Client unregistered", "user_id", client.UserID, "session_id", client.SessionID)

		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.close()
			}
			h.mu.Unlock()
			slog.Info("WebSocket hub stopped")
			return
		}
	}
}

// Count returns the number of live clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RegisterClient wraps conn in a Client and registers it. The client's
// context is cancelled when the connection goes away.
func (h *Hub) RegisterClient(ctx context.Context, conn *websocket.Conn, userID string) *Client {
	clientCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	client := &Client{
		Hub:       h,
		Conn:      conn,
		Send:      make(chan []byte, 16),
		UserID:    userID,
		SessionID: uuid.New().String(),
		ctx:       clientCtx,
		cancel:    cancel,
	}

	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
	return client
}

// Context is cancelled once the connection closes
func (c *Client) Context() context.Context {
	return c.ctx
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.Send)
	})
}

// Deliver queues a frame for the writer. It reports false if the client is
// gone or its buffer is full.
func (c *Client) Deliver(msg []byte) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			// Send was closed by the hub
			ok = false
		}
	}()
	select {
	case c.Send <- msg:
		return true
	default:
		slog.Warn("Dropping message for slow client", "session_id", c.SessionID)
		return false
	}
}

func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, messageBytes, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		slog.Debug("Message received", "session_id", c.SessionID, "length", len(messageBytes))

		if c.MessageHandler == nil {
			slog.Warn("No message handler registered", "session_id", c.SessionID)
			continue
		}
		// Handled inline so a connection has at most one request in flight
		c.MessageHandler(c, messageBytes)
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
