package hub

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/weiawesome/yaycha/internal/config"
	"github.com/weiawesome/yaycha/pkg/log"
)

const sendBuffer = 64

// Client is one websocket connection of an authenticated user.
type Client struct {
	ID     string
	UserID uint
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	config config.WebSocketConfig
}

func NewClient(h *Hub, conn *websocket.Conn, userID uint) *Client {
	return &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		config: h.Config(),
	}
}

// ReadPump discards client frames; it exists to process pongs and notice
// the connection closing.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				l := log.L()
				l.Debug().Err(err).Str("client_id", c.ID).Msg("websocket read error")
			}
			return
		}
	}
}

// WritePump forwards hub messages to the connection and keeps it alive with
// pings. It returns when the hub closes the send channel.
func (c *Client) WritePump() {
	ticker := time.NewTicker(c.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
