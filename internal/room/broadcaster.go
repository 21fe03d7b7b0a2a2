package room

import "plane-battle/internal/shared"

// Broadcaster delivers outbound protocol events. Implementations must not
// block and must not call back into the Manager.
type Broadcaster interface {
	Emit(connID string, event string, data interface{})
	Broadcast(roomCode string, connIDs []string, event string, data interface{})
	BroadcastAll(event string, data interface{})
	BroadcastOthers(exceptConnID string, event string, data interface{})
}

// EventSink receives match lifecycle events for external consumers.
type EventSink interface {
	Record(ev shared.MatchEvent)
}
