package room

import "errors"

var (
	ErrRoomNotFound     = errors.New("room does not exist")
	ErrRoomFull         = errors.New("room is full")
	ErrNotInRoom        = errors.New("you are not in a valid room")
	ErrNotLeader        = errors.New("only the room leader can start the game")
	ErrAlreadyStarted   = errors.New("game already started")
	ErrNotReady         = errors.New("waiting for all players to be ready")
	ErrInvalidPieceData = errors.New("invalid plane data, place exactly 3 planes")
	ErrNotYourTurn      = errors.New("it is not your turn")
	ErrNoRoomID         = errors.New("no valid room id provided")
)

var kinds = []struct {
	err  error
	kind string
}{
	{ErrRoomNotFound, "room_not_found"},
	{ErrRoomFull, "room_full"},
	{ErrNotInRoom, "not_in_room"},
	{ErrNotLeader, "not_leader"},
	{ErrAlreadyStarted, "already_started"},
	{ErrNotReady, "not_ready"},
	{ErrInvalidPieceData, "invalid_piece_data"},
	{ErrNotYourTurn, "not_your_turn"},
	{ErrNoRoomID, "no_room_id"},
}

// Kind returns a stable label for a coordinator error, "internal" otherwise.
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}
