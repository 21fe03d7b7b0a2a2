package room

import (
	"fmt"

	"go.uber.org/zap"

	"plane-battle/internal/game"
	"plane-battle/internal/shared"
)

// SubmitReady stores a player's layout and marks them ready. It never starts
// the match on its own.
func (m *Manager) SubmitReady(connID string, planes []game.Plane) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.roomOfLocked(connID)
	if !ok {
		return ErrNotInRoom
	}
	idx := r.IndexOf(connID)
	if idx < 0 {
		return ErrNotInRoom
	}
	if r.GameStarted {
		return ErrAlreadyStarted
	}
	if err := game.ValidateFleet(planes); err != nil {
		m.log.Debug("layout rejected", zap.String("room", r.Code), zap.String("player", connID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrInvalidPieceData, err)
	}

	r.Players[idx].Ready = true
	r.Players[idx].Planes = game.CloneFleet(planes)

	m.log.Info("player ready", zap.String("room", r.Code), zap.String("player", connID))

	members := r.Members()
	m.out.Broadcast(r.Code, members, EventReadyStatusUpdate, ReadyStatusPayload{PlayerID: connID, Ready: true, PlayerIndex: idx})
	m.out.Broadcast(r.Code, members, EventPlayerStatusUpdate, PlayerStatusPayload{Players: r.PublicRoster()})
	return nil
}

// StartGame is the leader's explicit start. The first turn is drawn at random.
func (m *Manager) StartGame(connID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.roomOfLocked(connID)
	if !ok {
		return ErrNotInRoom
	}
	idx := r.IndexOf(connID)
	if idx < 0 {
		return ErrNotInRoom
	}
	if idx != 0 {
		return ErrNotLeader
	}
	if r.GameStarted {
		return ErrAlreadyStarted
	}
	if !allReady(r) {
		return ErrNotReady
	}
	for _, p := range r.Players {
		if len(p.Planes) != game.PlaneCount {
			return ErrNotReady
		}
	}

	for i := range r.Players {
		game.ResetFleet(r.Players[i].Planes)
	}
	first := r.Players[m.intn(shared.MaxPlayers)]
	r.GameStarted = true
	setTurn(r, first.ID)

	m.log.Info("game started", zap.String("room", r.Code), zap.String("first", first.ID))

	members := r.Members()
	m.out.Broadcast(r.Code, members, EventGameStart, GameStartPayload{
		FirstPlayer: first.ID,
		Players:     r.Roster(),
		CurrentTurn: r.CurrentTurn,
	})
	m.out.Broadcast(r.Code, members, EventTurnChange, TurnPayload{
		CurrentTurn: r.CurrentTurn,
		Message:     first.Username + " goes first",
	})
	m.record(shared.EventGameStarted, r, "", "")
	m.announceRoomsLocked()
	return nil
}
