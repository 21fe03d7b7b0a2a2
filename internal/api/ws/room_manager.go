package ws

import (
	"plane-battle/internal/game"
	"plane-battle/internal/shared"
)

// RoomManager is the coordinator as seen from the transport.
type RoomManager interface {
	Connect(connID string)
	Disconnect(connID string)
	CreateRoom(connID, username, requestedID string) string
	JoinRoom(connID, roomID, username string) (string, error)
	LeaveRoom(connID string)
	EnsureInRoom(connID, roomID string) error
	SubmitReady(connID string, planes []game.Plane) error
	StartGame(connID string) error
	Attack(connID string, pos game.Coordinate) error
	RestartGame(connID, roomID string) error
	HandleGameOver(connID, roomID string) error
	RequestRooms(connID string)
	PublicRooms() []shared.RoomListing
}
