package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// Client is one websocket subscriber watching a single question.
type Client struct {
	hub        *Hub
	questionID uuid.UUID
	conn       *websocket.Conn
	send       chan []byte
}

// Serve registers the connection with the hub and blocks until it closes.
func Serve(hub *Hub, questionID uuid.UUID, conn *websocket.Conn) {
	client := &Client{
		hub:        hub,
		questionID: questionID,
		conn:       conn,
		send:       make(chan []byte, sendBuffer),
	}
	hub.register(questionID, client)

	go client.writePump()
	client.readPump()
}

// readPump discards inbound frames; the feed is one-way. It exists to notice
// the close handshake and pong replies.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c.questionID, c)
		close(c.send)
		c.conn.Close()
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

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
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
