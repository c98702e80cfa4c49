// persistence/interface.go
package persistence

import (
	"encoding/json"
	"fmt"
	"time"
)

// MatchRecord is a stored match: how it was created plus its latest document.
type MatchRecord struct {
	RoomID     string          `json:"roomID"`
	NumPlayers int             `json:"numPlayers"`
	Seed       int64           `json:"seed"`
	Scenario   json.RawMessage `json:"scenario"` // scenario.Scenario
	Document   json.RawMessage `json:"document"` // rules.Match
	Winner     string          `json:"winner,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// MoveRecord is one accepted move. Seq starts at 1 per room.
type MoveRecord struct {
	RoomID    string          `json:"roomID"`
	Seq       int             `json:"seq"`
	PlayerID  string          `json:"playerID"`
	Move      string          `json:"move"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Database 数据库接口
type Database interface {
	CreateMatch(rec *MatchRecord) error
	// AppendMove stores mv and replaces the match document in one step.
	AppendMove(mv *MoveRecord, document []byte, winner string) error
	LoadMatch(roomID string) (*MatchRecord, error)
	LoadMoves(roomID string) ([]MoveRecord, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("record not found")
	ErrDuplicateMatch = fmt.Errorf("match already exists")
	ErrMoveOutOfOrder = fmt.Errorf("move out of order")
)
