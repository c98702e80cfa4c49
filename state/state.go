package state

import (
	"errors"
	"sync"

	"github.com/wfunc/settlers/logger"
)

// State ids.
const (
	IDWaiting  = "waiting"
	IDPlaying  = "playing"
	IDFinished = "finished"
)

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from State, to State, condition func() bool) error
}

// 状态接口
type State interface {
	OnEnter()
	OnExit()
	OnUpdate()
	GetID() string
	HandleAction(player Player, actionData []byte) error
}

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// ErrNotPlaying rejects actions sent while no match is running.
var ErrNotPlaying = errors.New("no match in progress")

// 基础状态机实现
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

// ChangeState swaps states. OnExit and OnEnter run outside the lock so a
// state may inspect the machine while entering.
func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	old := sm.currentState
	if conditions, exists := sm.transitions[old.GetID()]; exists {
		if condition, exists := conditions[newState.GetID()]; exists {
			if condition != nil && !condition() {
				sm.mutex.Unlock()
				return ErrTransitionNotAllowed
			}
		}
	}
	sm.currentState = newState
	sm.mutex.Unlock()

	logger.Log.Debugf("state %s -> %s", old.GetID(), newState.GetID())
	old.OnExit()
	newState.OnEnter()
	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseStateMachine) AddTransition(from State, to State, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	fromID := from.GetID()
	toID := to.GetID()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	return nil
}

// Guard registers the room lifecycle on sm: a match starts only when full
// returns true, and neither a running nor a finished match goes back.
func Guard(sm StateMachine, full func() bool) {
	waiting := &RoomStateBase{ID: IDWaiting}
	playing := &RoomStateBase{ID: IDPlaying}
	finished := &RoomStateBase{ID: IDFinished}
	never := func() bool { return false }

	sm.AddTransition(waiting, playing, full)
	sm.AddTransition(playing, waiting, never)
	sm.AddTransition(finished, waiting, never)
	sm.AddTransition(finished, playing, never)
}

// 房间状态基础结构
type RoomStateBase struct {
	ID   string
	Room RoomContext
}

func (s *RoomStateBase) GetID() string {
	return s.ID
}

func (s *RoomStateBase) OnEnter() {}

func (s *RoomStateBase) OnExit() {}

func (s *RoomStateBase) OnUpdate() {}

func (s *RoomStateBase) HandleAction(player Player, actionData []byte) error {
	return ErrNotPlaying
}

// WaitingState collects players until every seat is taken.
type WaitingState struct {
	RoomStateBase
	matches Matches
	seed    int64
	started bool
}

// NewWaitingState creates a new waiting state. seed 0 picks a random seed
// when the match starts.
func NewWaitingState(room RoomContext, matches Matches, seed int64) *WaitingState {
	return &WaitingState{
		RoomStateBase: RoomStateBase{
			ID:   IDWaiting,
			Room: room,
		},
		matches: matches,
		seed:    seed,
	}
}

func (s *WaitingState) OnUpdate() {
	if s.started || len(s.Room.GetPlayers()) < s.Room.GetMaxPlayers() {
		return
	}
	s.started = true

	if err := s.Room.ChangeState(NewPlayingState(s.Room, s.matches, s.seed)); err != nil {
		logger.Log.Errorf("Room %s failed to start: %v", s.Room.GetID(), err)
		s.started = false
	}
}
