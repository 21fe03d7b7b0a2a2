package room

import (
	"go.uber.org/zap"

	"plane-battle/internal/shared"
)

const (
	msgGameReset = "game reset, place your planes and get ready"
	msgGameReady = "game over, get ready for a new match"
)

// resolveCodeLocked picks the target room: explicit id first, then the bound
// room, then the room the connection last left.
func (m *Manager) resolveCodeLocked(connID, roomID string) string {
	if code := NormalizeCode(roomID); code != "" {
		return code
	}
	if b, ok := m.conns[connID]; ok {
		if b.room != "" {
			return b.room
		}
		return b.lastRoom
	}
	return ""
}

// RestartGame clears ready flags and layouts for everyone in the room while
// keeping identities, order and leadership.
func (m *Manager) RestartGame(connID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := m.resolveCodeLocked(connID, roomID)
	if code == "" {
		return ErrNoRoomID
	}
	r, ok := m.store.GetRoom(code)
	if !ok {
		return ErrRoomNotFound
	}
	if !r.HasPlayer(connID) {
		return ErrNotInRoom
	}

	resetRoster(r)
	for _, id := range r.Members() {
		if b, ok := m.conns[id]; ok {
			b.room = code
		}
	}

	m.log.Info("game reset", zap.String("room", code), zap.String("by", connID))

	m.out.Broadcast(code, r.Members(), EventGameReset, RosterPayload{RoomID: code, Players: r.PublicRoster(), Message: msgGameReset})
	m.record(shared.EventGameReset, r, "", "")
	m.announceRoomsLocked()
	return nil
}

// HandleGameOver reconciles room state after a client saw a game over. A
// vanished room is recreated with the caller as leader.
func (m *Manager) HandleGameOver(connID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := m.resolveCodeLocked(connID, roomID)
	if code == "" {
		return ErrNoRoomID
	}

	r, ok := m.store.GetRoom(code)
	if !ok {
		m.switchRoom(connID, code)
		r = newRoom(code, connID, m.usernameFor(connID, ""), m.now())
		m.store.SaveRoom(r)
		m.bind(connID).room = code

		m.log.Info("room recreated", zap.String("room", code), zap.String("leader", connID))

		m.out.Emit(connID, EventRoomJoined, RoomJoinedPayload{RoomID: code, Players: r.PublicRoster(), IsLeader: true, Recreated: true})
		m.record(shared.EventRoomCreated, r, "", "")
		m.announceRoomsLocked()
		return nil
	}

	changed := false
	if !r.HasPlayer(connID) {
		if r.IsFull() {
			return ErrRoomFull
		}
		m.switchRoom(connID, code)
		addPlayer(r, connID, m.usernameFor(connID, ""))
		m.bind(connID).room = code
		changed = true
		m.log.Info("player restored after game over", zap.String("room", code), zap.String("player", connID))
	}

	if r.GameStarted {
		endMatch(r)
		for i := range r.Players {
			r.Players[i].Ready = false
		}
		m.out.Broadcast(code, r.Members(), EventGameReady, RosterPayload{RoomID: code, Players: r.PublicRoster(), Message: msgGameReady})
		changed = true
	}

	if changed {
		m.announceRoomsLocked()
	}
	return nil
}
