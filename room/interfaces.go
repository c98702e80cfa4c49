package room

// Broadcaster delivers a packet to every session seated in a room. The
// broadcast package implements it on top of the room and session managers.
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
}
