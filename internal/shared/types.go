package shared

import (
	"time"

	"plane-battle/internal/game"
)

// MaxPlayers is the room capacity.
const MaxPlayers = 2

type Room struct {
	Code        string    `json:"roomId"`
	Leader      string    `json:"leader"`
	Players     []Player  `json:"players"`
	GameStarted bool      `json:"gameStarted"`
	CurrentTurn string    `json:"currentTurn,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	// EmptySince is set when the roster drops to zero and cleared when
	// someone joins again. The sweeper deletes the room once it is older
	// than the grace period.
	EmptySince *time.Time `json:"-"`
}

type Player struct {
	ID       string       `json:"id"`
	Username string       `json:"username"`
	Ready    bool         `json:"ready"`
	Planes   []game.Plane `json:"planes,omitempty"`
	Turn     bool         `json:"turn,omitempty"`
}

// IndexOf returns the roster slot of a connection or -1.
func (r *Room) IndexOf(connID string) int {
	for i := range r.Players {
		if r.Players[i].ID == connID {
			return i
		}
	}
	return -1
}

func (r *Room) HasPlayer(connID string) bool { return r.IndexOf(connID) >= 0 }

func (r *Room) IsFull() bool { return len(r.Players) >= MaxPlayers }

// IsOpen reports whether the room is listed publicly.
func (r *Room) IsOpen() bool { return !r.GameStarted && len(r.Players) < MaxPlayers }

// Members lists the connection ids currently on the roster.
func (r *Room) Members() []string {
	ids := make([]string, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.ID
	}
	return ids
}

// Roster deep-copies the players so payloads can leave the coordinator lock.
func (r *Room) Roster() []Player {
	out := make([]Player, len(r.Players))
	for i, p := range r.Players {
		p.Planes = game.CloneFleet(p.Planes)
		out[i] = p
	}
	return out
}

// PublicRoster is the roster without piece layouts.
func (r *Room) PublicRoster() []Player {
	out := make([]Player, len(r.Players))
	for i, p := range r.Players {
		p.Planes = nil
		out[i] = p
	}
	return out
}

// RoomSummary is an entry of the roomsUpdated broadcast.
type RoomSummary struct {
	ID          string `json:"id"`
	PlayerCount int    `json:"playerCount"`
	Leader      string `json:"leader"`
}

// RoomListing is an entry of the roomsList reply.
type RoomListing struct {
	ID      string `json:"id"`
	Players int    `json:"players"`
}

// MatchEvent is reported to the event feed on lifecycle transitions.
type MatchEvent struct {
	Type    string    `json:"type"`
	RoomID  string    `json:"roomId"`
	Players []string  `json:"players,omitempty"`
	Winner  string    `json:"winner,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	At      time.Time `json:"at"`
}

const (
	EventRoomCreated = "room_created"
	EventGameStarted = "game_started"
	EventGameOver    = "game_over"
	EventGameReset   = "game_reset"
	EventRoomDeleted = "room_deleted"
)
