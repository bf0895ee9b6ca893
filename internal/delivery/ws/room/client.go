package ws_room

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/humanbelnik/livepoll/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 8192
)

// Client is a gorilla websocket connection registered with the hub.
type Client struct {
	id     model.ConnID
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

func NewClient(id model.ConnID, conn *websocket.Conn, hub *Hub, sendBuffer int, logger *slog.Logger) *Client {
	return &Client{
		id:     id,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBuffer),
		logger: logger,
	}
}

func (c *Client) ID() model.ConnID {
	return c.id
}

func (c *Client) Send(ev Event) bool {
	data, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error("failed to encode event", slog.String("event", ev.Type), slog.String("error", err.Error()))
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close stops accepting events. The write pump flushes what is queued and
// then closes the socket.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Run blocks until the connection ends.
func (c *Client) Run(ctx context.Context) {
	c.hub.Attach(c)
	go c.writePump()
	c.readPump(ctx)
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.Detach(c.id)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read error", slog.String("conn_id", c.id), slog.String("error", err.Error()))
			}
			return
		}

		c.hub.Dispatch(ctx, c.id, message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
