package room

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plane-battle/internal/config"
	"plane-battle/internal/game"
	"plane-battle/internal/shared"
	"plane-battle/internal/store"
)

type sent struct {
	to    string
	event string
	data  interface{}
}

// recorder captures outbound traffic. BroadcastAll is recorded under "*",
// BroadcastOthers under "!" + the excluded id.
type recorder struct {
	mu   sync.Mutex
	msgs []sent
}

func (r *recorder) add(to, event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{to: to, event: event, data: data})
}

func (r *recorder) Emit(connID, event string, data interface{}) { r.add(connID, event, data) }

func (r *recorder) Broadcast(_ string, connIDs []string, event string, data interface{}) {
	for _, id := range connIDs {
		r.add(id, event, data)
	}
}

func (r *recorder) BroadcastAll(event string, data interface{}) { r.add("*", event, data) }

func (r *recorder) BroadcastOthers(except, event string, data interface{}) {
	r.add("!"+except, event, data)
}

func (r *recorder) events(to string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.msgs {
		if m.to == to {
			out = append(out, m.event)
		}
	}
	return out
}

func (r *recorder) last(to, event string) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.msgs) - 1; i >= 0; i-- {
		if r.msgs[i].to == to && r.msgs[i].event == event {
			return r.msgs[i].data, true
		}
	}
	return nil, false
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

type sinkRecorder struct {
	events []shared.MatchEvent
}

func (s *sinkRecorder) Record(ev shared.MatchEvent) { s.events = append(s.events, ev) }

func (s *sinkRecorder) types() []string {
	out := make([]string, len(s.events))
	for i, ev := range s.events {
		out[i] = ev.Type
	}
	return out
}

type fixture struct {
	m     *Manager
	out   *recorder
	sink  *sinkRecorder
	store *store.MemoryStore
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		out:   &recorder{},
		sink:  &sinkRecorder{},
		store: store.NewMemoryStore(),
		now:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.m = NewManager(f.store, f.out, config.Default(), nil,
		WithClock(func() time.Time { return f.now }),
		WithRandom(func(int) int { return 0 }),
		WithEventSink(f.sink),
	)
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) room(t *testing.T, code string) *shared.Room {
	t.Helper()
	r, ok := f.store.GetRoom(code)
	require.True(t, ok, "room %s should exist", code)
	return r
}

func plane(headRow int, headCol string, body ...game.Coordinate) game.Plane {
	coords := []game.Coordinate{{Row: headRow, Col: headCol, Part: game.PartHead}}
	return game.Plane{Coordinates: append(coords, body...)}
}

func body(row int, col string) game.Coordinate {
	return game.Coordinate{Row: row, Col: col, Part: game.PartBody}
}

func fleet() []game.Plane {
	return []game.Plane{
		plane(1, "A", body(2, "A"), body(3, "A")),
		plane(3, "B", body(4, "B"), body(5, "B")),
		plane(7, "H", body(8, "H")),
	}
}

func at(row int, col string) game.Coordinate { return game.Coordinate{Row: row, Col: col} }

// startedMatch returns a running match in ABCDEF where c1 moves first.
func startedMatch(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.m.Connect("c1")
	f.m.Connect("c2")
	f.m.CreateRoom("c1", "alice", "ABCDEF")
	_, err := f.m.JoinRoom("c2", "ABCDEF", "bob")
	require.NoError(t, err)
	require.NoError(t, f.m.SubmitReady("c1", fleet()))
	require.NoError(t, f.m.SubmitReady("c2", fleet()))
	require.NoError(t, f.m.StartGame("c1"))
	f.out.reset()
	return f
}

func TestCreateAndJoinRequestedID(t *testing.T) {
	f := newFixture(t)

	code := f.m.CreateRoom("c1", "alice", " abcdef ")
	assert.Equal(t, "ABCDEF", code)
	assert.Contains(t, f.out.events("c1"), EventRoomCreated)
	assert.Contains(t, f.out.events("*"), EventRoomsUpdated)

	joined, err := f.m.JoinRoom("c2", "abcdef", "bob")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", joined)

	r := f.room(t, "ABCDEF")
	require.Len(t, r.Players, 2)
	assert.Equal(t, "c1", r.Leader)
	assert.Equal(t, []string{"c1", "c2"}, r.Members())
	assert.False(t, r.Players[1].Ready)

	assert.Contains(t, f.out.events("c1"), EventPlayerJoined)
	assert.Equal(t, []string{EventPlayerJoined, EventRoomJoined, EventJoinRoomSuccess}, f.out.events("c2"))
	assert.Equal(t, []string{shared.EventRoomCreated}, f.sink.types())
}

func TestCreateRoomAllocatesWhenRequestedIDTaken(t *testing.T) {
	f := newFixture(t)
	f.m.CreateRoom("c1", "alice", "ABCDEF")

	code := f.m.CreateRoom("c2", "bob", "abcdef")
	assert.NotEqual(t, "ABCDEF", code)
	assert.Regexp(t, `^[A-Z]{6}$`, code)
	assert.Equal(t, 2, f.store.Count())
}

func TestCreateRoomDefaultUsername(t *testing.T) {
	f := newFixture(t)
	code := f.m.CreateRoom("abcdefgh", "", "")
	assert.Equal(t, "Playerabcde", f.room(t, code).Players[0].Username)
}

func TestJoinRoomErrors(t *testing.T) {
	f := newFixture(t)
	f.m.CreateRoom("c1", "alice", "ABCDEF")

	code, err := f.m.JoinRoom("c2", "zzzzzz", "bob")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, "ZZZZZZ", code)

	_, err = f.m.JoinRoom("c2", "ABCDEF", "bob")
	require.NoError(t, err)

	_, err = f.m.JoinRoom("c3", "ABCDEF", "carol")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.Equal(t, []string{"c1", "c2"}, f.room(t, "ABCDEF").Members())
	assert.Empty(t, f.m.RoomOf("c3"))
}

func TestJoinRoomIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.m.CreateRoom("c1", "alice", "ABCDEF")
	_, err := f.m.JoinRoom("c2", "ABCDEF", "bob")
	require.NoError(t, err)
	f.out.reset()

	code, err := f.m.JoinRoom("c2", "ABCDEF", "bob")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEF", code)
	assert.Equal(t, []string{"c1", "c2"}, f.room(t, "ABCDEF").Members())
	assert.Equal(t, []string{EventRoomJoined, EventJoinRoomSuccess}, f.out.events("c2"))
	assert.Empty(t, f.out.events("c1"))
}

func TestJoinAnotherRoomLeavesPrevious(t *testing.T) {
	f := newFixture(t)
	f.m.CreateRoom("c1", "alice", "AAAAAA")
	f.m.CreateRoom("c2", "bob", "BBBBBB")

	_, err := f.m.JoinRoom("c1", "BBBBBB", "")
	require.NoError(t, err)

	assert.Empty(t, f.room(t, "AAAAAA").Players)
	assert.NotNil(t, f.room(t, "AAAAAA").EmptySince)
	assert.Equal(t, "BBBBBB", f.m.RoomOf("c1"))
	assert.Equal(t, "alice", f.room(t, "BBBBBB").Players[1].Username)
}

func TestSubmitReadyRejectsShortFleet(t *testing.T) {
	f := newFixture(t)
	f.m.CreateRoom("c1", "alice", "ABCDEF")

	err := f.m.SubmitReady("c1", fleet()[:2])
	assert.ErrorIs(t, err, ErrInvalidPieceData)
	assert.False(t, f.room(t, "ABCDEF").Players[0].Ready)
	assert.Nil(t, f.room(t, "ABCDEF").Players[0].Planes)
}

func TestSubmitReadyBroadcastsWithoutStarting(t *testing.T) {
	f := newFixture(t)
	f.m.CreateRoom("c1", "alice", "ABCDEF")
	_, err := f.m.JoinRoom("c2", "ABCDEF", "bob")
	require.NoError(t, err)

	require.NoError(t, f.m.SubmitReady("c1", fleet()))
	require.NoError(t, f.m.SubmitReady("c2", fleet()))

	r := f.room(t, "ABCDEF")
	assert.True(t, r.Players[0].Ready)
	assert.True(t, r.Players[1].Ready)
	assert.False(t, r.GameStarted)

	data, ok := f.out.last("c1", EventReadyStatusUpdate)
	require.True(t, ok)
	assert.Equal(t, ReadyStatusPayload{PlayerID: "c2", Ready: true, PlayerIndex: 1}, data)
	assert.Contains(t, f.out.events("c2"), EventPlayerStatusUpdate)
	assert.NotContains(t, f.out.events("c1"), EventGameStart)
}

func TestSubmitReadyOutsideRoom(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.m.SubmitReady("ghost", fleet()), ErrNotInRoom)
}

func TestStartGameGuards(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.m.StartGame("c1"), ErrNotInRoom)

	f.m.CreateRoom("c1", "alice", "ABCDEF")
	assert.ErrorIs(t, f.m.StartGame("c1"), ErrNotReady)

	_, err := f.m.JoinRoom("c2", "ABCDEF", "bob")
	require.NoError(t, err)
	assert.ErrorIs(t, f.m.StartGame("c2"), ErrNotLeader)

	require.NoError(t, f.m.SubmitReady("c1", fleet()))
	assert.ErrorIs(t, f.m.StartGame("c1"), ErrNotReady)

	require.NoError(t, f.m.SubmitReady("c2", fleet()))
	require.NoError(t, f.m.StartGame("c1"))
	assert.ErrorIs(t, f.m.StartGame("c1"), ErrAlreadyStarted)
}

func TestStartGameBroadcastsLayoutsAndTurn(t *testing.T) {
	f := newFixture(t)
	f.m.CreateRoom("c1", "alice", "ABCDEF")
	_, err := f.m.JoinRoom("c2", "ABCDEF", "bob")
	require.NoError(t, err)
	require.NoError(t, f.m.SubmitReady("c1", fleet()))
	require.NoError(t, f.m.SubmitReady("c2", fleet()))
	f.m.intn = func(int) int { return 1 }

	require.NoError(t, f.m.StartGame("c1"))

	r := f.room(t, "ABCDEF")
	require.True(t, r.GameStarted)
	require.Len(t, r.Players, 2)
	assert.Equal(t, "c2", r.CurrentTurn)
	assert.True(t, r.Players[1].Turn)
	assert.False(t, r.Players[0].Turn)

	data, ok := f.out.last("c1", EventGameStart)
	require.True(t, ok)
	start := data.(GameStartPayload)
	assert.Equal(t, "c2", start.FirstPlayer)
	assert.Equal(t, "c2", start.CurrentTurn)
	require.Len(t, start.Players, 2)
	assert.Len(t, start.Players[0].Planes, game.PlaneCount)

	// the payload is a copy
	start.Players[0].Planes[0].Sunk = true
	assert.False(t, r.Players[0].Planes[0].Sunk)

	data, ok = f.out.last("c2", EventTurnChange)
	require.True(t, ok)
	assert.Equal(t, TurnPayload{CurrentTurn: "c2", Message: "bob goes first"}, data)
	assert.Equal(t, []string{shared.EventRoomCreated, shared.EventGameStarted}, f.sink.types())
}

func TestAttackHeadSinksAndKeepsTurn(t *testing.T) {
	f := startedMatch(t)

	require.NoError(t, f.m.Attack("c1", at(3, "B")))

	data, ok := f.out.last("c2", EventAttackResult)
	require.True(t, ok)
	assert.Equal(t, AttackResultPayload{
		Attacker:   "c1",
		Position:   Position{Row: 3, Col: "B"},
		Result:     game.ResultSink,
		PlaneIndex: 1,
	}, data)

	r := f.room(t, "ABCDEF")
	assert.True(t, r.Players[1].Planes[1].Sunk)
	assert.Equal(t, "c1", r.CurrentTurn)
	assert.Equal(t, []string{EventAttackResult, EventContinueTurn}, f.out.events("c1"))
}

func TestAttackHitAndMissFlipTurn(t *testing.T) {
	f := startedMatch(t)

	require.NoError(t, f.m.Attack("c1", at(4, "B")))
	data, _ := f.out.last("c1", EventAttackResult)
	assert.Equal(t, game.ResultHit, data.(AttackResultPayload).Result)
	assert.Equal(t, "c2", f.room(t, "ABCDEF").CurrentTurn)

	require.NoError(t, f.m.Attack("c2", at(10, "J")))
	data, _ = f.out.last("c1", EventAttackResult)
	assert.Equal(t, game.ResultMiss, data.(AttackResultPayload).Result)
	assert.Equal(t, -1, data.(AttackResultPayload).PlaneIndex)
	assert.Equal(t, "c1", f.room(t, "ABCDEF").CurrentTurn)

	turn, ok := f.out.last("c2", EventTurnChange)
	require.True(t, ok)
	assert.Equal(t, TurnPayload{CurrentTurn: "c1"}, turn)
}

func TestAttackOutOfTurn(t *testing.T) {
	f := startedMatch(t)
	assert.ErrorIs(t, f.m.Attack("c2", at(1, "A")), ErrNotYourTurn)
	assert.Empty(t, f.out.events("c1"))
}

func TestAttackSinkingLastPlaneEndsMatch(t *testing.T) {
	f := startedMatch(t)

	require.NoError(t, f.m.Attack("c1", at(1, "A")))
	require.NoError(t, f.m.Attack("c1", at(3, "B")))
	f.out.reset()
	require.NoError(t, f.m.Attack("c1", at(7, "H")))

	assert.Equal(t, []string{EventAttackResult, EventGameOver}, f.out.events("c2"))
	data, _ := f.out.last("c2", EventGameOver)
	assert.Equal(t, GameOverPayload{Winner: "c1", RoomID: "ABCDEF"}, data)

	r := f.room(t, "ABCDEF")
	assert.False(t, r.GameStarted)
	assert.Empty(t, r.CurrentTurn)
	assert.Contains(t, f.sink.types(), shared.EventGameOver)

	// stray attacks after the end are dropped
	f.out.reset()
	assert.NoError(t, f.m.Attack("c1", at(2, "A")))
	assert.NoError(t, f.m.Attack("c2", at(2, "A")))
	assert.Empty(t, f.out.events("c1"))
}

func TestAttackWithoutRoomIsDropped(t *testing.T) {
	f := newFixture(t)
	assert.NoError(t, f.m.Attack("ghost", at(1, "A")))
}

func TestLeaveMidGameAwardsSurvivor(t *testing.T) {
	f := startedMatch(t)

	f.m.LeaveRoom("c1")

	assert.Equal(t, []string{EventPlayerLeft, EventGameOver}, f.out.events("c2"))
	data, _ := f.out.last("c2", EventGameOver)
	assert.Equal(t, GameOverPayload{Winner: "c2", Reason: "opponent left", RoomID: "ABCDEF"}, data)

	r := f.room(t, "ABCDEF")
	assert.False(t, r.GameStarted)
	require.Len(t, r.Players, 1)
	assert.False(t, r.Players[0].Ready)
	assert.Empty(t, f.m.RoomOf("c1"))
}

func TestLeaveWithoutRoomIsNoop(t *testing.T) {
	f := newFixture(t)
	f.m.LeaveRoom("ghost")
	f.m.Disconnect("ghost")
	assert.Empty(t, f.out.msgs)
}

func TestEmptyRoomDeletedAfterGrace(t *testing.T) {
	f := newFixture(t)
	f.m.CreateRoom("c1", "alice", "ABCDEF")
	f.m.Disconnect("c1")

	r := f.room(t, "ABCDEF")
	require.NotNil(t, r.EmptySince)

	f.advance(9 * time.Minute)
	assert.Empty(t, f.m.Sweep())
	f.room(t, "ABCDEF")

	f.advance(time.Minute)
	assert.Equal(t, []string{"ABCDEF"}, f.m.Sweep())
	_, ok := f.store.GetRoom("ABCDEF")
	assert.False(t, ok)
	assert.Contains(t, f.sink.types(), shared.EventRoomDeleted)
}

func TestRejoinCancelsDeletion(t *testing.T) {
	f := newFixture(t)
	f.m.CreateRoom("c1", "alice", "ABCDEF")
	f.m.LeaveRoom("c1")

	f.advance(5 * time.Minute)
	_, err := f.m.JoinRoom("c2", "ABCDEF", "bob")
	require.NoError(t, err)
	assert.Nil(t, f.room(t, "ABCDEF").EmptySince)

	f.advance(time.Hour)
	assert.Empty(t, f.m.Sweep())
	f.room(t, "ABCDEF")
}

func TestLeaveAgainReschedules(t *testing.T) {
	f := newFixture(t)
	f.m.CreateRoom("c1", "alice", "ABCDEF")
	f.m.LeaveRoom("c1")
	f.advance(8 * time.Minute)
	require.NoError(t, f.m.EnsureInRoom("c1", "ABCDEF"))
	f.m.LeaveRoom("c1")

	f.advance(8 * time.Minute)
	assert.Empty(t, f.m.Sweep())
	f.advance(2 * time.Minute)
	assert.Equal(t, []string{"ABCDEF"}, f.m.Sweep())
}

func TestEnsureInRoom(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.m.EnsureInRoom("c1", "NOPE"), ErrRoomNotFound)

	f.m.CreateRoom("c1", "alice", "ABCDEF")
	require.NoError(t, f.m.EnsureInRoom("c1", "ABCDEF"))
	assert.Len(t, f.room(t, "ABCDEF").Players, 1)

	require.NoError(t, f.m.EnsureInRoom("c2", "abcdef"))
	assert.Equal(t, []string{"c1", "c2"}, f.room(t, "ABCDEF").Members())
	assert.Equal(t, "ABCDEF", f.m.RoomOf("c2"))
	assert.Contains(t, f.out.events("c2"), EventRoomJoined)

	assert.ErrorIs(t, f.m.EnsureInRoom("c3", "ABCDEF"), ErrRoomFull)
}

func TestRestartGame(t *testing.T) {
	f := startedMatch(t)
	require.NoError(t, f.m.Attack("c1", at(3, "B")))

	assert.ErrorIs(t, f.m.RestartGame("ghost", ""), ErrNoRoomID)
	assert.ErrorIs(t, f.m.RestartGame("c1", "NOPE"), ErrRoomNotFound)
	f.m.Connect("c3")
	assert.ErrorIs(t, f.m.RestartGame("c3", "ABCDEF"), ErrNotInRoom)

	require.NoError(t, f.m.RestartGame("c2", ""))

	r := f.room(t, "ABCDEF")
	assert.False(t, r.GameStarted)
	assert.Empty(t, r.CurrentTurn)
	assert.Equal(t, "c1", r.Leader)
	for _, p := range r.Players {
		assert.False(t, p.Ready)
		assert.Nil(t, p.Planes)
		assert.False(t, p.Turn)
	}
	assert.Equal(t, []string{"alice", "bob"}, []string{r.Players[0].Username, r.Players[1].Username})

	data, ok := f.out.last("c1", EventGameReset)
	require.True(t, ok)
	assert.Equal(t, "ABCDEF", data.(RosterPayload).RoomID)
	assert.Contains(t, f.sink.types(), shared.EventGameReset)
}

func TestRestartGameUsesLastRoom(t *testing.T) {
	f := newFixture(t)
	f.m.CreateRoom("c1", "alice", "ABCDEF")
	_, err := f.m.JoinRoom("c2", "ABCDEF", "bob")
	require.NoError(t, err)
	f.m.LeaveRoom("c1")

	// c1 is no longer on the roster of the room it last left
	assert.ErrorIs(t, f.m.RestartGame("c1", ""), ErrNotInRoom)
}

func TestHandleGameOverRecreatesRoom(t *testing.T) {
	f := newFixture(t)
	f.m.CreateRoom("c1", "alice", "ABCDEF")
	f.m.LeaveRoom("c1")
	f.advance(11 * time.Minute)
	require.Equal(t, []string{"ABCDEF"}, f.m.Sweep())
	f.out.reset()

	require.NoError(t, f.m.HandleGameOver("c1", ""))

	r := f.room(t, "ABCDEF")
	assert.Equal(t, "c1", r.Leader)
	assert.Equal(t, []string{"c1"}, r.Members())
	assert.Equal(t, "alice", r.Players[0].Username)

	data, ok := f.out.last("c1", EventRoomJoined)
	require.True(t, ok)
	assert.Equal(t, RoomJoinedPayload{RoomID: "ABCDEF", Players: r.PublicRoster(), IsLeader: true, Recreated: true}, data)
}

func TestHandleGameOverResetsRunningMatch(t *testing.T) {
	f := startedMatch(t)

	require.NoError(t, f.m.HandleGameOver("c2", "abcdef"))

	r := f.room(t, "ABCDEF")
	assert.False(t, r.GameStarted)
	for _, p := range r.Players {
		assert.False(t, p.Ready)
	}
	assert.Contains(t, f.out.events("c1"), EventGameReady)

	f.out.reset()
	require.NoError(t, f.m.HandleGameOver("c2", "ABCDEF"))
	assert.Empty(t, f.out.events("c1"))
}

func TestHandleGameOverNoRoomID(t *testing.T) {
	f := newFixture(t)
	assert.ErrorIs(t, f.m.HandleGameOver("c1", " "), ErrNoRoomID)
}

func TestRoomListsShowOpenRoomsOnly(t *testing.T) {
	f := startedMatch(t)
	f.m.CreateRoom("c3", "carol", "OPENED")

	assert.Equal(t, []shared.RoomListing{{ID: "OPENED", Players: 1}}, f.m.PublicRooms())
	assert.Equal(t, []shared.RoomSummary{{ID: "OPENED", PlayerCount: 1, Leader: "c3"}}, f.m.RoomSummaries())

	f.out.reset()
	f.m.RequestRooms("c3")
	assert.Equal(t, []string{EventRoomsList}, f.out.events("c3"))
	assert.Equal(t, []string{EventRoomsList}, f.out.events("!c3"))
}

func TestSnapshotHidesPlanes(t *testing.T) {
	f := startedMatch(t)

	snap, ok := f.m.Snapshot("abcdef")
	require.True(t, ok)
	assert.True(t, snap.GameStarted)
	for _, p := range snap.Players {
		assert.Nil(t, p.Planes)
	}
	assert.NotNil(t, f.room(t, "ABCDEF").Players[0].Planes)

	_, ok = f.m.Snapshot("NOPE")
	assert.False(t, ok)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "room_full", Kind(ErrRoomFull))
	assert.Equal(t, "invalid_piece_data", Kind(fmt.Errorf("%w: plane 0", ErrInvalidPieceData)))
	assert.Equal(t, "internal", Kind(assert.AnError))
}
