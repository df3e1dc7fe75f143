package main

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/vestacare/credops/common/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 30 * time.Second

	// Send pings with this period (must be less than pongWait)
	pingPeriod = 25 * time.Second

	// Clients only send pongs, never data
	maxMessageSize = 512
)

// Client is one WebSocket connection watching claim events
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	watch string
	send  chan []byte
	log   *logger.Logger
}

// NewClient creates a new client watching the given agent id ("*" for all)
func NewClient(hub *Hub, conn *websocket.Conn, watch string, log *logger.Logger) *Client {
	return &Client{
		hub:   hub,
		conn:  conn,
		watch: watch,
		send:  make(chan []byte, 512),
		log:   log,
	}
}

// readPump drains the connection to handle pings and detect disconnects.
// This is a server-push feed; inbound data is ignored.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("websocket read error", "error", err)
			}
			break
		}
	}
}

// writePump pumps claim events from the hub to the connection
func (c *Client) writePump() {
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

			// One event per frame so clients can parse each JSON
			// object individually
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(c.send)
			for i := 0; i < n; i++ {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
