package ws

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"plane-battle/internal/observability"
	"plane-battle/internal/room"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 256
)

// Client is one websocket connection. Outbound frames go through send; the
// hub closes send and done when the client is unregistered.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	id   string
	send chan []byte
	done chan struct{}
	log  *zap.Logger
}

func newClient(h *Hub, conn *websocket.Conn, id string) *Client {
	return &Client{
		hub:  h,
		conn: conn,
		id:   id,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
		log:  h.log.With(zap.String("conn", id)),
	}
}

func (c *Client) ID() string { return c.id }

// readPump decodes inbound frames until the connection fails.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("read failed", zap.Error(err))
			}
			return
		}
		c.hub.dispatch(c, message)
	}
}

// writePump drains send and keeps the connection alive with pings.
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
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
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

// roomsLoop pushes the public room list on every tick while it is non-empty.
func (c *Client) roomsLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.pushRooms()
		}
	}
}

// pushRooms sends one periodic room list. A failure is logged and the loop
// carries on with the next tick.
func (c *Client) pushRooms() {
	defer recoverRooms(c, nil)
	if rooms := c.hub.rooms().PublicRooms(); len(rooms) > 0 {
		c.hub.Emit(c.id, room.EventRoomsList, rooms)
	}
}

// trySend enqueues without blocking. Callers hold the hub read lock, so send
// is never closed underneath them.
func (c *Client) trySend(message []byte, target string) {
	select {
	case c.send <- message:
	default:
		observability.BackpressureDrops.WithLabelValues(target).Inc()
		c.log.Warn("send buffer full, dropped message")
	}
}
