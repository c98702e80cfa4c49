// state/interfaces.go
package state

import "github.com/wfunc/settlers/rules"

// Player defines the minimal interface for a player entity that a state needs to interact with.
type Player interface {
	GetID() string
	Send(msgID uint16, data []byte) error
}

// RoomContext defines the interface that a Room must implement to be managed by the state machine.
// This breaks the import cycle between room and state.
type RoomContext interface {
	GetID() string
	GetPlayers() map[string]Player
	GetMaxPlayers() int
	// SeatOf maps a session id to its player id in the match.
	SeatOf(sessionID string) (string, bool)
	ChangeState(newState State) error
	Broadcast(msgID uint16, data []byte) error
}

// Matches is the part of the match service a room drives.
type Matches interface {
	Create(roomID string, numPlayers int, seed int64) (*rules.Match, error)
	Apply(roomID string, mv rules.Move) (*rules.Match, error)
}
