package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"plane-battle/internal/config"
	"plane-battle/internal/observability"
)

// Hub owns every live connection and implements room.Broadcaster. Sends
// only enqueue, so the coordinator may broadcast while holding its lock.
type Hub struct {
	mu          sync.RWMutex
	clients     map[string]*Client
	roomManager RoomManager
	cfg         config.Config
	log         *zap.Logger
	upgrader    websocket.Upgrader
}

func NewHub(cfg config.Config, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		clients: make(map[string]*Client),
		cfg:     cfg,
		log:     log.Named("ws"),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// SetRoomManager wires the coordinator after both sides exist.
func (h *Hub) SetRoomManager(rm RoomManager) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.roomManager = rm
}

func (h *Hub) rooms() RoomManager {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.roomManager
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.cfg.Origins() {
		if o == "*" || o == origin {
			return true
		}
	}
	h.log.Warn("origin rejected", zap.String("origin", origin))
	return false
}

// HandleWS upgrades the request and serves the connection until it closes.
func (h *Hub) HandleWS(c *gin.Context) {
	if h.rooms() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "room manager not ready"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h, conn, uuid.NewString())
	h.register(client)
	h.Emit(client.id, EventConnected, ConnectedPayload{ID: client.id})

	go client.writePump()
	go client.roomsLoop(h.cfg.RoomsListInterval)
	client.readPump()
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	rm := h.roomManager
	h.mu.Unlock()

	observability.WebSocketConnections.Inc()
	c.log.Info("client connected", zap.String("remote", c.conn.RemoteAddr().String()))
	rm.Connect(c.id)
}

// unregister drops the client and then tells the coordinator. hub.mu is
// released first because the coordinator broadcasts back into the hub.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
		close(c.send)
		close(c.done)
	}
	rm := h.roomManager
	h.mu.Unlock()

	if !ok {
		return
	}
	observability.WebSocketConnections.Dec()
	c.log.Info("client disconnected")
	rm.Disconnect(c.id)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) marshal(event string, data interface{}) []byte {
	msg, err := encode(event, data, nil)
	if err != nil {
		h.log.Error("encode event", zap.String("event", event), zap.Error(err))
		return nil
	}
	return msg
}

// Emit sends an event to a single connection.
func (h *Hub) Emit(connID string, event string, data interface{}) {
	msg := h.marshal(event, data)
	if msg == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[connID]; ok {
		c.trySend(msg, "client")
	}
}

// Broadcast sends an event to the listed members of a room.
func (h *Hub) Broadcast(roomCode string, connIDs []string, event string, data interface{}) {
	msg := h.marshal(event, data)
	if msg == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range connIDs {
		if c, ok := h.clients[id]; ok {
			c.trySend(msg, "room")
		}
	}
	h.log.Debug("room broadcast", zap.String("room", roomCode), zap.String("event", event), zap.Int("targets", len(connIDs)))
}

func (h *Hub) BroadcastAll(event string, data interface{}) {
	h.BroadcastOthers("", event, data)
}

// BroadcastOthers sends an event to every connection except one.
func (h *Hub) BroadcastOthers(exceptConnID string, event string, data interface{}) {
	msg := h.marshal(event, data)
	if msg == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id != exceptConnID {
			c.trySend(msg, "global")
		}
	}
}

// reply sends an ack frame when the client asked for one.
func (h *Hub) reply(c *Client, ack []byte, payload AckPayload) {
	if len(ack) == 0 {
		return
	}
	msg, err := encode(EventAck, payload, ack)
	if err != nil {
		c.log.Error("encode ack", zap.Error(err))
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.id]; ok {
		c.trySend(msg, "client")
	}
}

// Shutdown closes every connection. Read pumps then unregister as usual.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for _, c := range h.clients {
		conns = append(conns, c.conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
	}
	h.log.Info("hub shut down", zap.Int("connections", len(conns)))
}
