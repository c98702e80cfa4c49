package network

const (
	MsgTypeHeartbeat    = 1
	MsgTypeJoinRoom     = 101
	MsgTypeLeaveRoom    = 102
	MsgTypeCreateRoom   = 103
	MsgTypePlayerAction = 202
	MsgTypeRoomState    = 301
	MsgTypeGameStart    = 303
	MsgTypeGameSync     = 304
	MsgTypeGameEnd      = 305
	MsgTypeMoveRejected = 306
	MsgTypeError        = 307
)

// JoinRoomRequest is the body of MsgTypeJoinRoom. An empty RoomID joins
// any room that is still waiting for players.
type JoinRoomRequest struct {
	RoomID string `json:"room_id"`
}

// RoomJoined answers MsgTypeCreateRoom and MsgTypeJoinRoom.
type RoomJoined struct {
	RoomID string `json:"room_id"`
	Seat   string `json:"seat"`
}

// RoomState is broadcast when seats change.
type RoomState struct {
	RoomID     string `json:"room_id"`
	Players    int    `json:"players"`
	MaxPlayers int    `json:"max_players"`
	Status     string `json:"status"`
}

// MoveRejected is sent to the session whose move failed.
type MoveRejected struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type ErrorMessage struct {
	Error string `json:"error"`
}
