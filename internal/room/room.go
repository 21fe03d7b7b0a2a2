package room

import (
	"strings"
	"time"

	"plane-battle/internal/shared"
)

// Store is the room registry the Manager owns.
type Store interface {
	GetRoom(code string) (*shared.Room, bool)
	SaveRoom(r *shared.Room)
	DeleteRoom(code string)
	ListRooms() []*shared.Room
	NewCode() string
	SweepEmpty(now time.Time, grace time.Duration) []string
	Count() int
}

// NormalizeCode trims and uppercases a client supplied room id.
func NormalizeCode(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func defaultUsername(connID string) string {
	if len(connID) > 5 {
		connID = connID[:5]
	}
	return "Player" + connID
}

func newRoom(code, leader, username string, now time.Time) *shared.Room {
	return &shared.Room{
		Code:      code,
		Leader:    leader,
		Players:   []shared.Player{{ID: leader, Username: username}},
		CreatedAt: now,
	}
}

// addPlayer appends a fresh, unready player and cancels a pending deletion.
func addPlayer(r *shared.Room, connID, username string) shared.Player {
	p := shared.Player{ID: connID, Username: username}
	r.Players = append(r.Players, p)
	r.EmptySince = nil
	return p
}

func removePlayer(r *shared.Room, idx int) shared.Player {
	p := r.Players[idx]
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)
	return p
}

// endMatch clears the transient match fields. Ready flags are left alone.
func endMatch(r *shared.Room) {
	r.GameStarted = false
	r.CurrentTurn = ""
	for i := range r.Players {
		r.Players[i].Turn = false
	}
}

func setTurn(r *shared.Room, connID string) {
	r.CurrentTurn = connID
	for i := range r.Players {
		r.Players[i].Turn = r.Players[i].ID == connID
	}
}

// resetRoster keeps identities and order and drops everything else.
func resetRoster(r *shared.Room) {
	players := make([]shared.Player, len(r.Players))
	for i, p := range r.Players {
		players[i] = shared.Player{ID: p.ID, Username: p.Username}
	}
	r.Players = players
	r.GameStarted = false
	r.CurrentTurn = ""
}

func allReady(r *shared.Room) bool {
	if len(r.Players) != shared.MaxPlayers {
		return false
	}
	for _, p := range r.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}
