package room

import (
	"context"
	"time"

	"go.uber.org/zap"

	"plane-battle/internal/observability"
	"plane-battle/internal/shared"
)

// Sweep deletes rooms that have been empty for the whole grace period and
// returns their codes.
func (m *Manager) Sweep() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := m.store.SweepEmpty(now, m.cfg.RoomGracePeriod)
	if len(removed) == 0 {
		return nil
	}
	for _, code := range removed {
		m.log.Info("empty room deleted", zap.String("room", code))
		m.sink.Record(shared.MatchEvent{Type: shared.EventRoomDeleted, RoomID: code, At: now})
	}
	observability.RoomsSwept.Add(float64(len(removed)))
	m.announceRoomsLocked()
	return removed
}

// Run sweeps on every tick until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	interval := m.cfg.RoomSweepInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
