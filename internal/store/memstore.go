package store

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"plane-battle/internal/shared"
)

const (
	letters  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	codeSize = 6
)

// MemoryStore is the process-wide room registry.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*shared.Room
	rng   *rand.Rand
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: map[string]*shared.Room{},
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *MemoryStore) GetRoom(code string) (*shared.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[code]
	return r, ok
}

func (m *MemoryStore) SaveRoom(r *shared.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.Code] = r
}

func (m *MemoryStore) DeleteRoom(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, code)
}

// ListRooms returns every live room ordered by creation time.
func (m *MemoryStore) ListRooms() []*shared.Room {
	m.mu.RLock()
	out := make([]*shared.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Code < out[j].Code
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// NewCode allocates a 6-letter code not used by any live room.
func (m *MemoryStore) NewCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code := m.randCode()
		if _, taken := m.rooms[code]; !taken {
			return code
		}
	}
}

func (m *MemoryStore) randCode() string {
	b := make([]byte, codeSize)
	for i := range b {
		b[i] = letters[m.rng.Intn(len(letters))]
	}
	return string(b)
}

// SweepEmpty deletes rooms whose roster has been empty for at least grace.
// Emptiness is checked now, not when the room became empty, so a rejoin
// that happened in between keeps the room alive.
func (m *MemoryStore) SweepEmpty(now time.Time, grace time.Duration) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []string
	for code, r := range m.rooms {
		if len(r.Players) > 0 || r.EmptySince == nil {
			continue
		}
		if now.Sub(*r.EmptySince) < grace {
			continue
		}
		delete(m.rooms, code)
		removed = append(removed, code)
	}
	sort.Strings(removed)
	return removed
}
