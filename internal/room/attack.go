package room

import (
	"go.uber.org/zap"

	"plane-battle/internal/game"
	"plane-battle/internal/observability"
	"plane-battle/internal/shared"
)

// Attack fires at pos on the opponent's board. Attacks outside a running
// match are dropped without an error.
func (m *Manager) Attack(connID string, pos game.Coordinate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.roomOfLocked(connID)
	if !ok || !r.GameStarted {
		return nil
	}
	if r.CurrentTurn != connID {
		return ErrNotYourTurn
	}
	idx := r.IndexOf(connID)
	opp := 1 - idx
	if idx < 0 || opp < 0 || opp >= len(r.Players) {
		return nil
	}
	defender := &r.Players[opp]

	out := game.ResolveAttack(defender.Planes, pos)
	observability.AttackResults.WithLabelValues(string(out.Result)).Inc()

	m.log.Debug("attack resolved",
		zap.String("room", r.Code),
		zap.String("attacker", connID),
		zap.Int("row", pos.Row),
		zap.String("col", pos.Col),
		zap.String("result", string(out.Result)),
		zap.Int("plane", out.PlaneIndex),
	)

	members := r.Members()
	m.out.Broadcast(r.Code, members, EventAttackResult, AttackResultPayload{
		Attacker:   connID,
		Position:   Position{Row: pos.Row, Col: pos.Col},
		Result:     out.Result,
		PlaneIndex: out.PlaneIndex,
	})

	switch {
	case game.AllSunk(defender.Planes):
		endMatch(r)
		m.log.Info("game over", zap.String("room", r.Code), zap.String("winner", connID))
		m.out.Broadcast(r.Code, members, EventGameOver, GameOverPayload{Winner: connID, RoomID: r.Code})
		m.record(shared.EventGameOver, r, connID, "")
		m.announceRoomsLocked()
	case out.Result == game.ResultSink:
		m.out.Broadcast(r.Code, members, EventContinueTurn, TurnPayload{CurrentTurn: connID})
	default:
		setTurn(r, defender.ID)
		m.out.Broadcast(r.Code, members, EventTurnChange, TurnPayload{CurrentTurn: defender.ID})
	}
	return nil
}
