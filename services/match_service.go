// services/match_service.go
package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/wfunc/settlers/dice"
	"github.com/wfunc/settlers/logger"
	"github.com/wfunc/settlers/monitor"
	"github.com/wfunc/settlers/persistence"
	"github.com/wfunc/settlers/rules"
	"github.com/wfunc/settlers/scenario"
)

// ErrReplayMismatch means replaying the move log did not reproduce the
// stored document.
var ErrReplayMismatch = errors.New("replay does not match stored match")

// Observer receives move outcomes. *monitor.Monitor implements it.
type Observer interface {
	ObserveMove(move, outcome string)
	ObserveDiceSum(sum int)
}

type nopObserver struct{}

func (nopObserver) ObserveMove(string, string) {}
func (nopObserver) ObserveDiceSum(int)          {}

type liveMatch struct {
	match rules.Match
	seq   int
}

// MatchService owns running matches: it applies moves through the rules
// engine and persists the document and move log after every accepted move.
type MatchService struct {
	db       persistence.Database
	engine   *rules.Engine
	scenario scenario.Scenario
	observer Observer

	mutex sync.Mutex
	live  map[string]*liveMatch
}

func NewMatchService(db persistence.Database, s scenario.Scenario, engine *rules.Engine) *MatchService {
	return &MatchService{
		db:       db,
		engine:   engine,
		scenario: s,
		observer: nopObserver{},
		live:     make(map[string]*liveMatch),
	}
}

// SetObserver replaces the move observer.
func (s *MatchService) SetObserver(o Observer) {
	s.observer = o
}

// Create starts a match for roomID. A zero seed is replaced by a random one.
func (s *MatchService) Create(roomID string, numPlayers int, seed int64) (*rules.Match, error) {
	if seed == 0 {
		var err error
		if seed, err = dice.NewSeed(); err != nil {
			return nil, err
		}
	}
	m, err := rules.NewMatch(s.scenario, numPlayers, seed)
	if err != nil {
		return nil, err
	}

	scen, err := json.Marshal(s.scenario)
	if err != nil {
		return nil, err
	}
	doc, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	err = s.db.CreateMatch(&persistence.MatchRecord{
		RoomID:     roomID,
		NumPlayers: numPlayers,
		Seed:       seed,
		Scenario:   scen,
		Document:   doc,
	})
	if err != nil {
		return nil, fmt.Errorf("create match %s: %w", roomID, err)
	}
	s.live[roomID] = &liveMatch{match: *m}

	logger.Log.Infow("match created", "room", roomID, "players", numPlayers, "seed", seed)
	out := m.Clone()
	return &out, nil
}

// Apply runs mv against the room's match. Rejected moves leave both the
// live and the stored match unchanged.
func (s *MatchService) Apply(roomID string, mv rules.Move) (*rules.Match, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	lm, err := s.load(roomID)
	if err != nil {
		return nil, err
	}

	name := "unknown"
	if mv.Command != nil {
		name = mv.Command.Name()
	}

	next, err := s.engine.Apply(lm.match, mv)
	if err != nil {
		outcome := monitor.OutcomeInvalid
		if errors.Is(err, rules.ErrLookup) {
			outcome = monitor.OutcomeLookup
		}
		s.observer.ObserveMove(name, outcome)
		return nil, err
	}

	action, err := rules.EncodeCommand(mv.Command)
	if err != nil {
		return nil, err
	}
	doc, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}
	rec := &persistence.MoveRecord{
		RoomID:   roomID,
		Seq:      lm.seq + 1,
		PlayerID: mv.PlayerID,
		Move:     action.Type,
		Payload:  action.Payload,
	}
	if err := s.db.AppendMove(rec, doc, next.Ctx.Winner); err != nil {
		return nil, fmt.Errorf("persist move %d of %s: %w", rec.Seq, roomID, err)
	}

	lm.match = next
	lm.seq = rec.Seq
	s.observer.ObserveMove(name, monitor.OutcomeAccepted)
	if _, ok := mv.Command.(rules.RollDice); ok {
		s.observer.ObserveDiceSum(next.G.DiceRoll[0] + next.G.DiceRoll[1])
	}
	if next.Ctx.Winner != "" {
		logger.Log.Infow("match won", "room", roomID, "winner", next.Ctx.Winner, "turn", next.Ctx.Turn)
	}

	out := next.Clone()
	return &out, nil
}

// Get returns a copy of the room's current match.
func (s *MatchService) Get(roomID string) (*rules.Match, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	lm, err := s.load(roomID)
	if err != nil {
		return nil, err
	}
	out := lm.match.Clone()
	return &out, nil
}

// Forget drops the in-memory copy of a match. Stored data is kept.
func (s *MatchService) Forget(roomID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.live, roomID)
}

// load returns the live match, reading it from the database if needed.
// Callers hold s.mutex.
func (s *MatchService) load(roomID string) (*liveMatch, error) {
	if lm, ok := s.live[roomID]; ok {
		return lm, nil
	}
	rec, err := s.db.LoadMatch(roomID)
	if err != nil {
		return nil, err
	}
	moves, err := s.db.LoadMoves(roomID)
	if err != nil {
		return nil, err
	}
	var m rules.Match
	if err := json.Unmarshal(rec.Document, &m); err != nil {
		return nil, fmt.Errorf("decode match %s: %w", roomID, err)
	}
	lm := &liveMatch{match: m, seq: len(moves)}
	s.live[roomID] = lm
	return lm, nil
}

// Replay rebuilds the room's match from its seed and move log and checks it
// against the stored document.
func (s *MatchService) Replay(roomID string) (*rules.Match, error) {
	rec, err := s.db.LoadMatch(roomID)
	if err != nil {
		return nil, err
	}
	moves, err := s.db.LoadMoves(roomID)
	if err != nil {
		return nil, err
	}
	return Verify(s.engine, rec, moves)
}

// Export writes the room's match archive under dir.
func (s *MatchService) Export(roomID, dir string) (string, error) {
	rec, err := s.db.LoadMatch(roomID)
	if err != nil {
		return "", err
	}
	moves, err := s.db.LoadMoves(roomID)
	if err != nil {
		return "", err
	}
	path, err := persistence.SaveArchive(dir, rec, moves)
	if err != nil {
		return "", err
	}
	logger.Log.Infow("match exported", "room", roomID, "moves", len(moves), "path", path)
	return path, nil
}

// ReplayRecord re-applies moves to a fresh match built from rec.
func ReplayRecord(engine *rules.Engine, rec *persistence.MatchRecord, moves []persistence.MoveRecord) (*rules.Match, error) {
	var scen scenario.Scenario
	if err := json.Unmarshal(rec.Scenario, &scen); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	m, err := rules.NewMatch(scen, rec.NumPlayers, rec.Seed)
	if err != nil {
		return nil, err
	}

	cur := *m
	for _, mv := range moves {
		cmd, err := rules.DecodeCommand(rules.Action{Type: mv.Move, Payload: mv.Payload})
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", mv.Seq, err)
		}
		cur, err = engine.Apply(cur, rules.Move{PlayerID: mv.PlayerID, Command: cmd})
		if err != nil {
			return nil, fmt.Errorf("move %d: %w", mv.Seq, err)
		}
	}
	return &cur, nil
}

// Verify replays rec and compares the result with rec.Document.
func Verify(engine *rules.Engine, rec *persistence.MatchRecord, moves []persistence.MoveRecord) (*rules.Match, error) {
	replayed, err := ReplayRecord(engine, rec, moves)
	if err != nil {
		return nil, err
	}

	// stores may reformat JSON, so compare canonical encodings
	var stored rules.Match
	if err := json.Unmarshal(rec.Document, &stored); err != nil {
		return nil, fmt.Errorf("decode match %s: %w", rec.RoomID, err)
	}
	want, err := json.Marshal(stored)
	if err != nil {
		return nil, err
	}
	got, err := json.Marshal(replayed)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(want, got) {
		return nil, fmt.Errorf("%w: room %s after %d moves", ErrReplayMismatch, rec.RoomID, len(moves))
	}
	return replayed, nil
}
