package http

import (
	"time"

	"plane-battle/internal/shared"
)

// RoomResponse is the public view of a room. Piece layouts are never exposed.
type RoomResponse struct {
	RoomID      string           `json:"roomId"`
	Leader      string           `json:"leader"`
	Players     []PlayerResponse `json:"players"`
	GameStarted bool             `json:"gameStarted"`
	CurrentTurn string           `json:"currentTurn,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type PlayerResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Ready    bool   `json:"ready"`
	Turn     bool   `json:"turn,omitempty"`
}

// GameConfigResponse carries the constants a client needs to draw the board.
type GameConfigResponse struct {
	PlaneCount         int      `json:"planeCount"`
	Rows               int      `json:"rows"`
	Columns            []string `json:"columns"`
	MaxPlayers         int      `json:"maxPlayers"`
	RoomGraceSeconds   int      `json:"roomGraceSeconds"`
	RoomsListIntervalS int      `json:"roomsListIntervalSeconds"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Connections int    `json:"connections"`
}

func toRoomResponse(r shared.Room) RoomResponse {
	players := make([]PlayerResponse, len(r.Players))
	for i, p := range r.Players {
		players[i] = PlayerResponse{ID: p.ID, Username: p.Username, Ready: p.Ready, Turn: p.Turn}
	}
	return RoomResponse{
		RoomID:      r.Code,
		Leader:      r.Leader,
		Players:     players,
		GameStarted: r.GameStarted,
		CurrentTurn: r.CurrentTurn,
		CreatedAt:   r.CreatedAt,
	}
}
