package room

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"plane-battle/internal/config"
	"plane-battle/internal/observability"
	"plane-battle/internal/shared"
)

// binding is the connection side of the membership index.
type binding struct {
	room     string
	lastRoom string
	username string
}

// Manager is the match coordinator. Every handler runs under one mutex, so
// a handler observes and mutates rooms atomically with respect to all others.
type Manager struct {
	mu    sync.Mutex
	store Store
	out   Broadcaster
	sink  EventSink
	cfg   config.Config
	log   *zap.Logger
	now   func() time.Time
	intn  func(int) int
	conns map[string]*binding
}

type Option func(*Manager)

// WithClock replaces time.Now, mostly for tests of the grace period.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRandom replaces the first-turn picker.
func WithRandom(intn func(int) int) Option {
	return func(m *Manager) { m.intn = intn }
}

func WithEventSink(sink EventSink) Option {
	return func(m *Manager) {
		if sink != nil {
			m.sink = sink
		}
	}
}

type discardSink struct{}

func (discardSink) Record(shared.MatchEvent) {}

func NewManager(s Store, out Broadcaster, cfg config.Config, log *zap.Logger, opts ...Option) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		store: s,
		out:   out,
		sink:  discardSink{},
		cfg:   cfg,
		log:   log.Named("rooms"),
		now:   time.Now,
		intn:  rand.New(rand.NewSource(time.Now().UnixNano())).Intn,
		conns: map[string]*binding{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect registers a connection with the membership index.
func (m *Manager) Connect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bind(connID)
}

// Disconnect leaves the bound room and forgets the connection.
func (m *Manager) Disconnect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(connID)
	delete(m.conns, connID)
}

// RoomOf returns the room a connection is currently bound to.
func (m *Manager) RoomOf(connID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.conns[connID]; ok {
		return b.room
	}
	return ""
}

func (m *Manager) bind(connID string) *binding {
	b, ok := m.conns[connID]
	if !ok {
		b = &binding{}
		m.conns[connID] = b
	}
	return b
}

func (m *Manager) usernameFor(connID, username string) string {
	b := m.bind(connID)
	if username != "" {
		b.username = username
	}
	if b.username == "" {
		b.username = defaultUsername(connID)
	}
	return b.username
}

// switchRoom leaves the bound room when it differs from code.
func (m *Manager) switchRoom(connID, code string) {
	if b := m.bind(connID); b.room != "" && b.room != code {
		m.leaveLocked(connID)
	}
}

// CreateRoom opens a room led by connID and returns its code. A requested id
// is used when it is free, otherwise a fresh code is allocated.
func (m *Manager) CreateRoom(connID, username, requestedID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.switchRoom(connID, "")
	username = m.usernameFor(connID, username)

	code := NormalizeCode(requestedID)
	if _, taken := m.store.GetRoom(code); code == "" || taken {
		code = m.store.NewCode()
	}

	r := newRoom(code, connID, username, m.now())
	m.store.SaveRoom(r)
	m.bind(connID).room = code

	m.log.Info("room created", zap.String("room", code), zap.String("leader", connID), zap.String("username", username))

	m.out.Emit(connID, EventRoomCreated, RoomJoinedPayload{RoomID: code, Players: r.PublicRoster(), IsLeader: true})
	m.record(shared.EventRoomCreated, r, "", "")
	m.announceRoomsLocked()
	return code
}

// JoinRoom adds connID to an existing room. The normalized code is returned
// even on failure so callers can echo it back.
func (m *Manager) JoinRoom(connID, roomID, username string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := NormalizeCode(roomID)
	r, ok := m.store.GetRoom(code)
	if !ok {
		return code, ErrRoomNotFound
	}

	if r.HasPlayer(connID) {
		m.bind(connID).room = code
		m.confirmJoinLocked(connID, r)
		return code, nil
	}
	if r.IsFull() {
		return code, ErrRoomFull
	}

	m.switchRoom(connID, code)
	username = m.usernameFor(connID, username)
	p := addPlayer(r, connID, username)
	m.bind(connID).room = code

	m.log.Info("player joined", zap.String("room", code), zap.String("player", connID), zap.Int("players", len(r.Players)))

	m.out.Broadcast(code, r.Members(), EventPlayerJoined, PlayerJoinedPayload{RoomID: code, Player: p, Players: r.PublicRoster()})
	m.confirmJoinLocked(connID, r)
	m.announceRoomsLocked()
	return code, nil
}

func (m *Manager) confirmJoinLocked(connID string, r *shared.Room) {
	m.out.Emit(connID, EventRoomJoined, RoomJoinedPayload{RoomID: r.Code, Players: r.PublicRoster(), IsLeader: r.Leader == connID})
	m.out.Emit(connID, EventJoinRoomSuccess, RosterPayload{RoomID: r.Code, Players: r.PublicRoster()})
}

// LeaveRoom removes connID from its bound room. It is a no-op when there is none.
func (m *Manager) LeaveRoom(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveLocked(connID)
}

func (m *Manager) leaveLocked(connID string) {
	b, ok := m.conns[connID]
	if !ok || b.room == "" {
		return
	}
	code := b.room
	b.room = ""
	b.lastRoom = code

	r, ok := m.store.GetRoom(code)
	if !ok {
		return
	}
	idx := r.IndexOf(connID)
	if idx < 0 {
		return
	}
	left := removePlayer(r, idx)
	wasStarted := r.GameStarted

	m.log.Info("player left", zap.String("room", code), zap.String("player", connID), zap.Int("players", len(r.Players)))

	if len(r.Players) == 0 {
		now := m.now()
		r.EmptySince = &now
		endMatch(r)
		m.log.Debug("room empty, deletion scheduled", zap.String("room", code), zap.Duration("grace", m.cfg.RoomGracePeriod))
	} else {
		m.out.Broadcast(code, r.Members(), EventPlayerLeft, PlayerLeftPayload{PlayerID: connID, Username: left.Username})
		if wasStarted {
			endMatch(r)
			r.Players[0].Ready = false
			winner := r.Players[0].ID
			m.out.Broadcast(code, r.Members(), EventGameOver, GameOverPayload{Winner: winner, Reason: reasonOpponentLeft, RoomID: code})
			m.record(shared.EventGameOver, r, winner, reasonOpponentLeft)
		}
	}
	m.announceRoomsLocked()
}

// EnsureInRoom re-adds connID to roomID when it fell off the roster, then
// re-confirms the binding to the caller.
func (m *Manager) EnsureInRoom(connID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := NormalizeCode(roomID)
	r, ok := m.store.GetRoom(code)
	if code == "" || !ok {
		return ErrRoomNotFound
	}
	if !r.HasPlayer(connID) {
		if r.IsFull() {
			return ErrRoomFull
		}
		m.switchRoom(connID, code)
		addPlayer(r, connID, m.usernameFor(connID, ""))
		m.log.Info("player restored", zap.String("room", code), zap.String("player", connID))
	}
	m.bind(connID).room = code

	m.out.Emit(connID, EventRoomJoined, RoomJoinedPayload{RoomID: code, Players: r.PublicRoster(), IsLeader: r.Leader == connID})
	return nil
}

// PublicRooms lists rooms that can still be joined, in roomsList shape.
func (m *Manager) PublicRooms() []shared.RoomListing {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listingsLocked()
}

// RoomSummaries lists rooms that can still be joined, in roomsUpdated shape.
func (m *Manager) RoomSummaries() []shared.RoomSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.summariesLocked()
}

// RequestRooms answers a room list request and pushes the same list to
// every other connection.
func (m *Manager) RequestRooms(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.listingsLocked()
	m.out.Emit(connID, EventRoomsList, list)
	m.out.BroadcastOthers(connID, EventRoomsList, list)
}

// RoomCount counts live rooms, including empty ones awaiting the sweep.
func (m *Manager) RoomCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Count()
}

// Snapshot returns a copy of a room without piece layouts.
func (m *Manager) Snapshot(code string) (shared.Room, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store.GetRoom(NormalizeCode(code))
	if !ok {
		return shared.Room{}, false
	}
	snap := *r
	snap.Players = r.PublicRoster()
	snap.EmptySince = nil
	return snap, true
}

func (m *Manager) listingsLocked() []shared.RoomListing {
	out := []shared.RoomListing{}
	for _, r := range m.store.ListRooms() {
		if r.IsOpen() {
			out = append(out, shared.RoomListing{ID: r.Code, Players: len(r.Players)})
		}
	}
	return out
}

func (m *Manager) summariesLocked() []shared.RoomSummary {
	out := []shared.RoomSummary{}
	for _, r := range m.store.ListRooms() {
		if r.IsOpen() {
			out = append(out, shared.RoomSummary{ID: r.Code, PlayerCount: len(r.Players), Leader: r.Leader})
		}
	}
	return out
}

func (m *Manager) announceRoomsLocked() {
	m.out.BroadcastAll(EventRoomsUpdated, m.summariesLocked())
	m.updateGaugesLocked()
}

func (m *Manager) updateGaugesLocked() {
	rooms := m.store.ListRooms()
	running := 0
	for _, r := range rooms {
		if r.GameStarted {
			running++
		}
	}
	observability.RoomsLive.Set(float64(len(rooms)))
	observability.MatchesRunning.Set(float64(running))
}

func (m *Manager) record(kind string, r *shared.Room, winner, reason string) {
	m.sink.Record(shared.MatchEvent{
		Type:    kind,
		RoomID:  r.Code,
		Players: r.Members(),
		Winner:  winner,
		Reason:  reason,
		At:      m.now(),
	})
}

// roomOfLocked resolves the bound room of a connection.
func (m *Manager) roomOfLocked(connID string) (*shared.Room, bool) {
	b, ok := m.conns[connID]
	if !ok || b.room == "" {
		return nil, false
	}
	return m.store.GetRoom(b.room)
}
