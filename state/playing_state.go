package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/wfunc/settlers/logger"
	"github.com/wfunc/settlers/network"
	"github.com/wfunc/settlers/rules"
)

// PlayingState hosts a running match. Every accepted move is broadcast as
// the full match document; rejections go back to the sender only.
type PlayingState struct {
	RoomStateBase
	matches Matches
	seed    int64

	mutex sync.Mutex
	match *rules.Match
}

func NewPlayingState(room RoomContext, matches Matches, seed int64) *PlayingState {
	return &PlayingState{
		RoomStateBase: RoomStateBase{
			ID:   IDPlaying,
			Room: room,
		},
		matches: matches,
		seed:    seed,
	}
}

// OnEnter 创建对局并通知所有玩家
func (s *PlayingState) OnEnter() {
	m, err := s.matches.Create(s.Room.GetID(), s.Room.GetMaxPlayers(), s.seed)
	if err != nil {
		logger.Log.Errorf("Room %s could not create its match: %v", s.Room.GetID(), err)
		data, _ := json.Marshal(network.ErrorMessage{Error: err.Error()})
		s.Room.Broadcast(network.MsgTypeError, data)
		return
	}

	s.mutex.Lock()
	s.match = m
	s.mutex.Unlock()

	logger.Log.Infof("Room %s started a match for %d players", s.Room.GetID(), s.Room.GetMaxPlayers())
	s.broadcast(network.MsgTypeGameStart, m)
}

// Match returns the current document, or nil before the match exists.
func (s *PlayingState) Match() *rules.Match {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.match == nil {
		return nil
	}
	m := s.match.Clone()
	return &m
}

// HandleAction decodes a move from player and applies it.
func (s *PlayingState) HandleAction(player Player, actionData []byte) error {
	var action rules.Action
	if err := json.Unmarshal(actionData, &action); err != nil {
		s.reject(player, "", fmt.Errorf("%w: malformed action: %v", rules.ErrInvalidMove, err))
		return err
	}

	seat, ok := s.Room.SeatOf(player.GetID())
	if !ok {
		err := fmt.Errorf("session %s has no seat in room %s", player.GetID(), s.Room.GetID())
		s.reject(player, action.Type, err)
		return err
	}

	cmd, err := rules.DecodeCommand(action)
	if err != nil {
		s.reject(player, action.Type, err)
		return err
	}

	s.mutex.Lock()
	if s.match == nil {
		s.mutex.Unlock()
		s.reject(player, action.Type, ErrNotPlaying)
		return ErrNotPlaying
	}
	next, err := s.matches.Apply(s.Room.GetID(), rules.Move{PlayerID: seat, Command: cmd})
	if err != nil {
		s.mutex.Unlock()
		s.reject(player, action.Type, err)
		return err
	}
	s.match = next
	s.mutex.Unlock()

	s.broadcast(network.MsgTypeGameSync, next)
	if next.Ctx.Winner != "" {
		return s.Room.ChangeState(NewFinishedState(s.Room, next))
	}
	return nil
}

func (s *PlayingState) reject(player Player, moveType string, err error) {
	switch {
	case errors.Is(err, rules.ErrLookup):
		logger.Log.Errorf("Room %s: %s from %s does not match the board: %v", s.Room.GetID(), moveType, player.GetID(), err)
	default:
		logger.Log.Warnf("Room %s: rejected %s from %s: %v", s.Room.GetID(), moveType, player.GetID(), err)
	}

	data, _ := json.Marshal(network.MoveRejected{Type: moveType, Error: err.Error()})
	if sendErr := player.Send(network.MsgTypeMoveRejected, data); sendErr != nil {
		logger.Log.Warnf("Room %s: could not notify %s: %v", s.Room.GetID(), player.GetID(), sendErr)
	}
}

func (s *PlayingState) broadcast(msgID uint16, m *rules.Match) {
	data, err := json.Marshal(m)
	if err != nil {
		logger.Log.Errorf("Error marshalling match of room %s: %v", s.Room.GetID(), err)
		return
	}
	if err := s.Room.Broadcast(msgID, data); err != nil {
		logger.Log.Warnf("Broadcast to room %s failed: %v", s.Room.GetID(), err)
	}
}

// FinishedState holds the final document; every further move is refused.
type FinishedState struct {
	RoomStateBase
	Final *rules.Match
}

func NewFinishedState(room RoomContext, final *rules.Match) *FinishedState {
	return &FinishedState{
		RoomStateBase: RoomStateBase{
			ID:   IDFinished,
			Room: room,
		},
		Final: final,
	}
}

func (s *FinishedState) OnEnter() {
	logger.Log.Infof("Room %s finished, winner %s", s.Room.GetID(), s.Final.Ctx.Winner)
	data, err := json.Marshal(s.Final)
	if err != nil {
		logger.Log.Errorf("Error marshalling final match of room %s: %v", s.Room.GetID(), err)
		return
	}
	s.Room.Broadcast(network.MsgTypeGameEnd, data)
}

func (s *FinishedState) HandleAction(player Player, actionData []byte) error {
	data, _ := json.Marshal(network.MoveRejected{Error: rules.ErrGameOver.Error()})
	player.Send(network.MsgTypeMoveRejected, data)
	return rules.ErrGameOver
}
