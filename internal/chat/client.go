package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one authenticated WebSocket connection. Reads and writes run in
// separate goroutines; the hub only ever touches the send channel.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID uuid.UUID
	send   chan []byte
}

func newClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, sendBuffer),
	}
}

// enqueue hands an encoded event to the writer. A client whose buffer is
// full is dropped rather than waited on.
func (c *Client) enqueue(raw []byte) {
	select {
	case c.send <- raw:
	default:
		c.conn.Close()
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.dispatch(ctx, raw)
	}
}

func (c *Client) dispatch(ctx context.Context, raw []byte) {
	var envelope Envelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.sendError("malformed event")
		return
	}

	switch envelope.Event {
	case EventJoinRoom:
		var payload RoomPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil || payload.Room == "" {
			c.sendError("joinRoom requires a room")
			return
		}
		c.hub.JoinRoom(ctx, c, payload.Room)

	case EventLeaveRoom:
		var payload RoomPayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil || payload.Room == "" {
			c.sendError("leaveRoom requires a room")
			return
		}
		c.hub.LeaveRoom(c, payload.Room)

	case EventMessage:
		var payload ChatMessagePayload
		if err := json.Unmarshal(envelope.Data, &payload); err != nil || payload.Room == "" {
			c.sendError("message requires a room")
			return
		}
		c.hub.SendMessage(c, payload.Room, payload.Message)

	default:
		c.sendError("unknown event " + envelope.Event)
	}
}

func (c *Client) sendError(msg string) {
	raw, err := encodeEvent(EventError, ErrorPayload{Message: msg})
	if err != nil {
		return
	}
	c.enqueue(raw)
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case raw, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
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
