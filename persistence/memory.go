package persistence

import (
	"slices"
	"sync"
	"time"
)

// Memory keeps matches in process. Used for tests and `driver: memory`.
type Memory struct {
	mutex   sync.RWMutex
	matches map[string]*MatchRecord
	moves   map[string][]MoveRecord
}

func NewMemory() *Memory {
	return &Memory{
		matches: make(map[string]*MatchRecord),
		moves:   make(map[string][]MoveRecord),
	}
}

func (m *Memory) CreateMatch(rec *MatchRecord) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, exists := m.matches[rec.RoomID]; exists {
		return ErrDuplicateMatch
	}
	now := time.Now()
	stored := *rec
	stored.Scenario = slices.Clone(rec.Scenario)
	stored.Document = slices.Clone(rec.Document)
	stored.CreatedAt, stored.UpdatedAt = now, now
	m.matches[rec.RoomID] = &stored
	return nil
}

func (m *Memory) AppendMove(mv *MoveRecord, document []byte, winner string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	match, exists := m.matches[mv.RoomID]
	if !exists {
		return ErrRecordNotFound
	}
	if mv.Seq != len(m.moves[mv.RoomID])+1 {
		return ErrMoveOutOfOrder
	}

	stored := *mv
	stored.Payload = slices.Clone(mv.Payload)
	stored.CreatedAt = time.Now()
	m.moves[mv.RoomID] = append(m.moves[mv.RoomID], stored)

	match.Document = slices.Clone(document)
	match.Winner = winner
	match.UpdatedAt = stored.CreatedAt
	return nil
}

func (m *Memory) LoadMatch(roomID string) (*MatchRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	match, exists := m.matches[roomID]
	if !exists {
		return nil, ErrRecordNotFound
	}
	out := *match
	out.Scenario = slices.Clone(match.Scenario)
	out.Document = slices.Clone(match.Document)
	return &out, nil
}

func (m *Memory) LoadMoves(roomID string) ([]MoveRecord, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if _, exists := m.matches[roomID]; !exists {
		return nil, ErrRecordNotFound
	}
	return slices.Clone(m.moves[roomID]), nil
}

func (m *Memory) Close() error {
	return nil
}
