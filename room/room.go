// room/room.go
package room

import (
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/wfunc/settlers/session"
	"github.com/wfunc/settlers/state"
)

// RoomStatus 表示房间的业务状态
type RoomStatus int

const (
	StatusWaiting RoomStatus = iota
	StatusPlaying
	StatusFinished
)

func (s RoomStatus) String() string {
	switch s {
	case StatusPlaying:
		return state.IDPlaying
	case StatusFinished:
		return state.IDFinished
	default:
		return state.IDWaiting
	}
}

// Room 是游戏房间的核心结构. Seats are handed out in join order and seat i
// plays as player "i".
type Room struct {
	ID           string
	Name         string
	MaxPlayers   int
	Players      map[string]*session.Session // sessionID -> session
	StateMachine state.StateMachine
	CreatedAt    time.Time
	seats        []string // sessionID by seat
	status       RoomStatus
	broadcaster  Broadcaster
	statusMutex  sync.RWMutex
	playerMutex  sync.RWMutex
	ticker       *time.Ticker
	closeChan    chan struct{}
	closeOnce    sync.Once
}

// NewRoom 创建一个新房间. The match starts once maxPlayers have joined.
func NewRoom(id, name string, maxPlayers int, seed int64, matches state.Matches, broadcaster Broadcaster) *Room {
	room := &Room{
		ID:          id,
		Name:        name,
		MaxPlayers:  maxPlayers,
		Players:     make(map[string]*session.Session),
		CreatedAt:   time.Now(),
		closeChan:   make(chan struct{}),
		broadcaster: broadcaster,
	}

	room.StateMachine = state.NewBaseStateMachine(state.NewWaitingState(room, matches, seed))
	state.Guard(room.StateMachine, func() bool { return room.PlayerCount() == room.MaxPlayers })

	room.ticker = time.NewTicker(100 * time.Millisecond)
	go room.loop()

	return room
}

// --- state.RoomContext ---

func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) GetMaxPlayers() int {
	return r.MaxPlayers
}

// GetPlayers 获取房间中的所有玩家
func (r *Room) GetPlayers() map[string]state.Player {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	players := make(map[string]state.Player, len(r.Players))
	for k, v := range r.Players {
		players[k] = v
	}
	return players
}

// SeatOf returns the player id of a seated session.
func (r *Room) SeatOf(sessionID string) (string, bool) {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	i := slices.Index(r.seats, sessionID)
	if i < 0 {
		return "", false
	}
	return strconv.Itoa(i), true
}

// ChangeState 改变房间的状态机状态
func (r *Room) ChangeState(newState state.State) error {
	if err := r.StateMachine.ChangeState(newState); err != nil {
		return err
	}
	switch newState.GetID() {
	case state.IDPlaying:
		r.setStatus(StatusPlaying)
	case state.IDFinished:
		r.setStatus(StatusFinished)
	default:
		r.setStatus(StatusWaiting)
	}
	return nil
}

func (r *Room) Broadcast(msgID uint16, data []byte) error {
	return r.broadcaster.BroadcastToRoom(r.ID, msgID, data)
}

// --- 房间核心逻辑 ---

// AddPlayer seats s. It fails when the room is full or no longer waiting.
func (r *Room) AddPlayer(s *session.Session) (string, bool) {
	r.playerMutex.Lock()
	defer r.playerMutex.Unlock()

	if len(r.seats) >= r.MaxPlayers || r.GetStatus() != StatusWaiting {
		return "", false
	}

	r.Players[s.ID] = s
	r.seats = append(r.seats, s.ID)
	s.SetRoomID(r.ID)
	return strconv.Itoa(len(r.seats) - 1), true
}

// RemovePlayer 从房间移除一个玩家. A seat is only freed while waiting; once
// the match runs the seat stays bound to its player id.
func (r *Room) RemovePlayer(sessionID string) {
	r.playerMutex.Lock()
	defer r.playerMutex.Unlock()

	player, exists := r.Players[sessionID]
	if !exists {
		return
	}
	player.SetRoomID("")
	delete(r.Players, sessionID)
	if r.GetStatus() == StatusWaiting {
		r.seats = slices.DeleteFunc(r.seats, func(id string) bool { return id == sessionID })
	}
}

func (r *Room) GetPlayer(sessionID string) (*session.Session, bool) {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	player, exists := r.Players[sessionID]
	return player, exists
}

func (r *Room) PlayerCount() int {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()
	return len(r.Players)
}

// GetSessions returns a slice of all sessions in the room (thread-safe).
func (r *Room) GetSessions() []*session.Session {
	r.playerMutex.RLock()
	defer r.playerMutex.RUnlock()

	sessions := make([]*session.Session, 0, len(r.Players))
	for _, s := range r.Players {
		sessions = append(sessions, s)
	}
	return sessions
}

func (r *Room) setStatus(status RoomStatus) {
	r.statusMutex.Lock()
	defer r.statusMutex.Unlock()
	r.status = status
}

func (r *Room) GetStatus() RoomStatus {
	r.statusMutex.RLock()
	defer r.statusMutex.RUnlock()
	return r.status
}

// HandleAction passes a player's action to the current state.
func (r *Room) HandleAction(s *session.Session, data []byte) error {
	return r.StateMachine.GetCurrentState().HandleAction(s, data)
}

// loop 是房间的主循环，定时驱动状态更新
func (r *Room) loop() {
	for {
		select {
		case <-r.ticker.C:
			r.Update()
		case <-r.closeChan:
			r.ticker.Stop()
			return
		}
	}
}

// Update 由主循环调用，驱动状态机更新
func (r *Room) Update() {
	if current := r.StateMachine.GetCurrentState(); current != nil {
		current.OnUpdate()
	}
}

// Close 关闭房间，停止主循环
func (r *Room) Close() {
	r.closeOnce.Do(func() { close(r.closeChan) })
}

// --- 房间管理器 ---

// Manager 管理所有房间
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

func NewRoomManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom 创建一个新房间并添加到管理器
func (m *Manager) CreateRoom(id, name string, maxPlayers int, seed int64, matches state.Matches, broadcaster Broadcaster) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room := NewRoom(id, name, maxPlayers, seed, matches, broadcaster)
	m.rooms[id] = room
	return room
}

// RemoveRoom 从管理器中移除并关闭一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if room, exists := m.rooms[id]; exists {
		room.Close()
		delete(m.rooms, id)
	}
}

func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// Rooms returns a snapshot of all rooms.
func (m *Manager) Rooms() []*Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	rooms := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}

// FindAvailableRoom 查找一个可用的房间
func (m *Manager) FindAvailableRoom() *Room {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, room := range m.rooms {
		if room.GetStatus() == StatusWaiting && room.PlayerCount() < room.MaxPlayers {
			return room
		}
	}
	return nil
}
