package room

import (
	"plane-battle/internal/game"
	"plane-battle/internal/shared"
)

// Outbound protocol events.
const (
	EventRoomCreated        = "roomCreated"
	EventRoomJoined         = "roomJoined"
	EventJoinRoomSuccess    = "joinRoomSuccess"
	EventPlayerJoined       = "playerJoined"
	EventPlayerLeft         = "playerLeft"
	EventReadyStatusUpdate  = "readyStatusUpdate"
	EventPlayerStatusUpdate = "playerStatusUpdate"
	EventGameStart          = "gameStart"
	EventTurnChange         = "turnChange"
	EventContinueTurn       = "continueTurn"
	EventAttackResult       = "attackResult"
	EventGameOver           = "gameOver"
	EventGameReset          = "gameReset"
	EventGameReady          = "gameReady"
	EventRoomsUpdated       = "roomsUpdated"
	EventRoomsList          = "roomsList"
)

const reasonOpponentLeft = "opponent left"

type RoomJoinedPayload struct {
	RoomID    string          `json:"roomId"`
	Players   []shared.Player `json:"players"`
	IsLeader  bool            `json:"isLeader"`
	Recreated bool            `json:"recreated,omitempty"`
}

type RosterPayload struct {
	RoomID  string          `json:"roomId"`
	Players []shared.Player `json:"players"`
	Message string          `json:"message,omitempty"`
}

type PlayerJoinedPayload struct {
	RoomID  string          `json:"roomId"`
	Player  shared.Player   `json:"player"`
	Players []shared.Player `json:"players"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type ReadyStatusPayload struct {
	PlayerID    string `json:"playerId"`
	Ready       bool   `json:"ready"`
	PlayerIndex int    `json:"playerIndex"`
}

type PlayerStatusPayload struct {
	Players []shared.Player `json:"players"`
}

type GameStartPayload struct {
	FirstPlayer string          `json:"firstPlayer"`
	Players     []shared.Player `json:"players"`
	CurrentTurn string          `json:"currentTurn"`
}

type TurnPayload struct {
	CurrentTurn string `json:"currentTurn"`
	Message     string `json:"message,omitempty"`
}

type AttackResultPayload struct {
	Attacker   string      `json:"attacker"`
	Position   Position    `json:"position"`
	Result     game.Result `json:"result"`
	PlaneIndex int         `json:"planeIndex"`
}

type Position struct {
	Row int    `json:"row"`
	Col string `json:"col"`
}

type GameOverPayload struct {
	Winner string `json:"winner"`
	Reason string `json:"reason,omitempty"`
	RoomID string `json:"roomId"`
}
