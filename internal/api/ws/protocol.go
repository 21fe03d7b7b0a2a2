package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"plane-battle/internal/game"
	"plane-battle/internal/room"
)

// Inbound protocol events.
const (
	EventCreateRoom     = "createRoom"
	EventJoinRoom       = "joinRoom"
	EventPlayerReady    = "playerReady"
	EventStartGame      = "startGame"
	EventAttack         = "attack"
	EventRestartGame    = "restartGame"
	EventLeaveRoom      = "leaveRoom"
	EventGetRooms       = "getRooms"
	EventListRooms      = "listRooms"
	EventGetActiveRooms = "getActiveRooms"
	EventEnsureInRoom   = "ensureInRoom"
	EventHandleGameOver = "handleGameOver"
)

var knownEvents = map[string]bool{
	EventCreateRoom:     true,
	EventJoinRoom:       true,
	EventPlayerReady:    true,
	EventStartGame:      true,
	EventAttack:         true,
	EventRestartGame:    true,
	EventLeaveRoom:      true,
	EventGetRooms:       true,
	EventListRooms:      true,
	EventGetActiveRooms: true,
	EventEnsureInRoom:   true,
	EventHandleGameOver: true,
}

// Outbound events owned by the transport.
const (
	EventConnected  = "connected"
	EventAck        = "ack"
	EventRoomError  = "roomError"
	EventGameError  = "gameError"
	EventRoomsError = "roomsError"
)

var errMalformed = errors.New("malformed payload")

// Envelope is the wire frame in both directions. Ack is an opaque client
// token echoed back on the matching ack frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
	Ack   json.RawMessage `json:"ack,omitempty"`
}

type outbound struct {
	Event string          `json:"event"`
	Data  interface{}     `json:"data"`
	Ack   json.RawMessage `json:"ack,omitempty"`
}

type AckPayload struct {
	Success     bool   `json:"success"`
	RoomID      string `json:"roomId,omitempty"`
	Message     string `json:"message,omitempty"`
	RequestedID string `json:"requestedId,omitempty"`
}

type ConnectedPayload struct {
	ID string `json:"id"`
}

type ErrorPayload struct {
	Message     string `json:"message"`
	RequestedID string `json:"requestedId,omitempty"`
}

func encode(event string, data interface{}, ack json.RawMessage) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: data, Ack: ack})
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

func firstNonEmpty(vals ...flexString) string {
	for _, v := range vals {
		if s := strings.TrimSpace(string(v)); s != "" {
			return s
		}
	}
	return ""
}

// isString reports whether raw is a bare JSON string.
func isString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}

func isEmpty(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

// decodeCreate reads {username|name, roomId|id} or a bare username.
func decodeCreate(raw json.RawMessage) (username, roomID string, err error) {
	if isEmpty(raw) {
		return "", "", nil
	}
	if isString(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", "", errMalformed
		}
		return strings.TrimSpace(s), "", nil
	}
	var body struct {
		Username flexString `json:"username"`
		Name     flexString `json:"name"`
		RoomID   flexString `json:"roomId"`
		ID       flexString `json:"id"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", "", errMalformed
	}
	return firstNonEmpty(body.Username, body.Name), firstNonEmpty(body.RoomID, body.ID), nil
}

// decodeJoin reads {roomId|id|room, username|name} or a bare room id.
func decodeJoin(raw json.RawMessage) (roomID, username string, err error) {
	if isEmpty(raw) {
		return "", "", nil
	}
	if isString(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", "", errMalformed
		}
		return s, "", nil
	}
	var body struct {
		RoomID   flexString `json:"roomId"`
		ID       flexString `json:"id"`
		Room     flexString `json:"room"`
		Username flexString `json:"username"`
		Name     flexString `json:"name"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return "", "", errMalformed
	}
	return firstNonEmpty(body.RoomID, body.ID, body.Room), firstNonEmpty(body.Username, body.Name), nil
}

// decodeRoomID reads an optional {roomId} or a bare room id.
func decodeRoomID(raw json.RawMessage) string {
	if isEmpty(raw) {
		return ""
	}
	if isString(raw) {
		var s string
		_ = json.Unmarshal(raw, &s)
		return s
	}
	var body struct {
		RoomID flexString `json:"roomId"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return string(body.RoomID)
}

type wireCoord struct {
	Row    flexString `json:"row"`
	Col    flexString `json:"col"`
	Part   string     `json:"part"`
	IsHead bool       `json:"isHead"`
}

func (w wireCoord) coordinate() (game.Coordinate, error) {
	row, err := game.NormalizeRow(string(w.Row))
	if err != nil {
		return game.Coordinate{}, err
	}
	col, err := game.NormalizeColumn(string(w.Col))
	if err != nil {
		return game.Coordinate{}, err
	}
	return game.Coordinate{Row: row, Col: col, Part: game.PartOf(w.Part, w.IsHead)}, nil
}

type wirePlane struct {
	Coordinates []wireCoord `json:"coordinates"`
}

// decodePlanes reads {planes:[{coordinates:[...]}]} into canonical planes.
// Any shape problem is reported as invalid piece data.
func decodePlanes(raw json.RawMessage) ([]game.Plane, error) {
	var body struct {
		Planes []wirePlane `json:"planes"`
	}
	if isEmpty(raw) {
		return nil, room.ErrInvalidPieceData
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", room.ErrInvalidPieceData, err)
	}
	if len(body.Planes) < game.PlaneCount {
		return nil, room.ErrInvalidPieceData
	}
	planes := make([]game.Plane, len(body.Planes))
	for i, p := range body.Planes {
		coords := make([]game.Coordinate, 0, len(p.Coordinates))
		for _, wc := range p.Coordinates {
			c, err := wc.coordinate()
			if err != nil {
				return nil, fmt.Errorf("%w: plane %d: %v", room.ErrInvalidPieceData, i, err)
			}
			coords = append(coords, c)
		}
		planes[i] = game.Plane{Coordinates: coords}
	}
	return planes, nil
}

// decodePosition reads {position:{row,col}}.
func decodePosition(raw json.RawMessage) (game.Coordinate, error) {
	var body struct {
		Position *wireCoord `json:"position"`
	}
	if isEmpty(raw) {
		return game.Coordinate{}, errMalformed
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Position == nil {
		return game.Coordinate{}, errMalformed
	}
	c, err := body.Position.coordinate()
	if err != nil {
		return game.Coordinate{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	c.Part = ""
	return c, nil
}
