package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"plane-battle/internal/observability"
	"plane-battle/internal/room"
)

var _ room.Broadcaster = (*Hub)(nil)

// dispatch decodes one frame and routes it to the coordinator. Errors are
// reported to the sender only.
func (h *Hub) dispatch(c *Client, message []byte) {
	var env Envelope
	if err := json.Unmarshal(message, &env); err != nil || env.Event == "" {
		c.log.Debug("dropping malformed frame", zap.ByteString("frame", message))
		return
	}
	observability.InboundEvents.WithLabelValues(eventLabel(env.Event)).Inc()

	rm := h.rooms()
	switch env.Event {
	case EventCreateRoom:
		username, requested, err := decodeCreate(env.Data)
		if err != nil {
			h.fail(c, env, EventRoomError, "", err)
			return
		}
		code := rm.CreateRoom(c.id, username, requested)
		h.reply(c, env.Ack, AckPayload{Success: true, RoomID: code})

	case EventJoinRoom:
		roomID, username, err := decodeJoin(env.Data)
		if err != nil {
			h.fail(c, env, EventRoomError, roomID, err)
			return
		}
		code, err := rm.JoinRoom(c.id, roomID, username)
		if err != nil {
			h.fail(c, env, EventRoomError, code, err)
			return
		}
		h.reply(c, env.Ack, AckPayload{Success: true, RoomID: code})

	case EventPlayerReady:
		planes, err := decodePlanes(env.Data)
		if err == nil {
			err = rm.SubmitReady(c.id, planes)
		}
		h.done(c, env, err)

	case EventStartGame:
		h.done(c, env, rm.StartGame(c.id))

	case EventAttack:
		pos, err := decodePosition(env.Data)
		if err != nil {
			c.log.Debug("dropping malformed attack", zap.Error(err))
			return
		}
		h.done(c, env, rm.Attack(c.id, pos))

	case EventRestartGame:
		h.done(c, env, rm.RestartGame(c.id, decodeRoomID(env.Data)))

	case EventLeaveRoom:
		rm.LeaveRoom(c.id)
		h.reply(c, env.Ack, AckPayload{Success: true})

	case EventGetRooms, EventListRooms, EventGetActiveRooms:
		h.listRooms(c, rm)

	case EventEnsureInRoom:
		h.done(c, env, rm.EnsureInRoom(c.id, decodeRoomID(env.Data)))

	case EventHandleGameOver:
		h.done(c, env, rm.HandleGameOver(c.id, decodeRoomID(env.Data)))

	default:
		c.log.Debug("unknown event", zap.String("event", env.Event))
	}
}

// eventLabel bounds the metric label set to the protocol's own events.
func eventLabel(event string) string {
	if knownEvents[event] {
		return event
	}
	return "unknown"
}

// done finishes a game-scope event: gameError on failure, ack either way.
func (h *Hub) done(c *Client, env Envelope, err error) {
	if err != nil {
		h.fail(c, env, EventGameError, "", err)
		return
	}
	h.reply(c, env.Ack, AckPayload{Success: true})
}

func (h *Hub) fail(c *Client, env Envelope, event, requestedID string, err error) {
	kind := room.Kind(err)
	if errors.Is(err, errMalformed) {
		kind = "malformed"
	}
	observability.RejectedEvents.WithLabelValues(env.Event, kind).Inc()
	c.log.Info("event rejected", zap.String("event", env.Event), zap.String("reason", kind), zap.Error(err))

	msg := err.Error()
	h.Emit(c.id, event, ErrorPayload{Message: msg, RequestedID: requestedID})
	h.reply(c, env.Ack, AckPayload{Success: false, Message: msg, RequestedID: requestedID})
}

// listRooms answers getRooms. A failure while building the list is reported
// to the caller and the connection stays open.
func (h *Hub) listRooms(c *Client, rm RoomManager) {
	defer recoverRooms(c, func(r interface{}) {
		h.Emit(c.id, EventRoomsError, fmt.Sprintf("failed to list rooms: %v", r))
	})
	rm.RequestRooms(c.id)
}

// recoverRooms logs a panic raised while building a room list and hands it
// to report, if any.
func recoverRooms(c *Client, report func(interface{})) {
	r := recover()
	if r == nil {
		return
	}
	c.log.Error("listing rooms failed", zap.Any("panic", r))
	if report != nil {
		report(r)
	}
}
