package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/settlers/broadcast"
	"github.com/wfunc/settlers/config"
	"github.com/wfunc/settlers/logger"
	"github.com/wfunc/settlers/monitor"
	"github.com/wfunc/settlers/network"
	"github.com/wfunc/settlers/room"
	gamerpc "github.com/wfunc/settlers/rpc"
	"github.com/wfunc/settlers/services"
	"github.com/wfunc/settlers/session"
	"github.com/wfunc/settlers/timer"
)

const (
	heartbeatInterval   = 30 * time.Second
	housekeepingPeriod  = 5 * time.Second
	finishedRoomTimeout = 10 * time.Minute
)

type GameServer struct {
	addr           string
	game           config.GameConfig
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	matches        *services.MatchService
	broadcaster    broadcast.Broadcaster
	monitor        *monitor.Monitor
	timers         *timer.Manager
	rpcServer      *gamerpc.Server
	httpServer     *http.Server
	shutdownChan   chan struct{}
	finishedAt     map[string]time.Time
	housekeepMutex sync.Mutex
}

func NewGameServer(addr string, game config.GameConfig, matches *services.MatchService, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		addr:           addr,
		game:           game,
		roomManager:    room.NewRoomManager(),
		sessionManager: session.NewManager(),
		matches:        matches,
		monitor:        mon,
		timers:         timer.NewManager(100 * time.Millisecond),
		shutdownChan:   make(chan struct{}),
		finishedAt:     make(map[string]time.Time),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)
	matches.SetObserver(mon)
	s.timers.AddTimer(housekeepingPeriod, housekeepingPeriod, s.housekeeping)

	return s
}

// AttachRPC makes Start and Shutdown manage the RPC listener too.
func (s *GameServer) AttachRPC(r *gamerpc.Server) {
	s.rpcServer = r
}

func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

func (s *GameServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}

	s.httpServer = &http.Server{Addr: s.addr, Handler: s.Handler()}
	logger.Log.Infof("Game server listening on %s", s.addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *GameServer) Shutdown(ctx context.Context) error {
	close(s.shutdownChan)
	s.timers.Stop()
	if s.rpcServer != nil {
		s.rpcServer.Stop()
	}
	for _, r := range s.roomManager.Rooms() {
		s.roomManager.RemoveRoom(r.ID)
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// housekeeping updates gauges and drops finished rooms that were left
// alone for finishedRoomTimeout.
func (s *GameServer) housekeeping() {
	s.housekeepMutex.Lock()
	defer s.housekeepMutex.Unlock()

	now := time.Now()
	for _, r := range s.roomManager.Rooms() {
		if r.GetStatus() != room.StatusFinished {
			continue
		}
		at, seen := s.finishedAt[r.ID]
		if !seen {
			s.finishedAt[r.ID] = now
			continue
		}
		if now.Sub(at) >= finishedRoomTimeout || r.PlayerCount() == 0 {
			logger.Log.Infof("Closing finished room %s", r.ID)
			s.closeRoom(r.ID)
			delete(s.finishedAt, r.ID)
		}
	}
	s.monitor.SetActiveRooms(s.roomManager.Count())
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.leaveRoom(sess)
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlinePlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	s.monitor.IncMessagesReceived()
	defer func() { s.monitor.ObserveMessageLatency(time.Since(start)) }()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeCreateRoom:
		s.handleCreateRoom(sess)
	case network.MsgTypeJoinRoom:
		s.handleJoinRoom(sess, packet)
	case network.MsgTypeLeaveRoom:
		s.leaveRoom(sess)
	case network.MsgTypePlayerAction:
		s.handleGameAction(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) sendError(sess *session.Session, msg string) {
	data, _ := json.Marshal(network.ErrorMessage{Error: msg})
	sess.Send(network.MsgTypeError, data)
}

func (s *GameServer) handleCreateRoom(sess *session.Session) {
	if sess.RoomID() != "" {
		s.sendError(sess, "already in a room")
		return
	}

	roomID := uuid.New().String()
	r := s.roomManager.CreateRoom(roomID, "Room "+roomID[:8], s.game.Players, s.game.Seed, s.matches, s.broadcaster)
	s.monitor.SetActiveRooms(s.roomManager.Count())
	logger.Log.Infof("Session %s created room %s", sess.GetID(), roomID)

	s.seat(sess, r, network.MsgTypeCreateRoom)
}

func (s *GameServer) handleJoinRoom(sess *session.Session, packet *network.Packet) {
	if sess.RoomID() != "" {
		s.sendError(sess, "already in a room")
		return
	}

	var req network.JoinRoomRequest
	if len(packet.Data) > 0 {
		if err := json.Unmarshal(packet.Data, &req); err != nil {
			s.sendError(sess, "malformed join request")
			return
		}
	}

	var r *room.Room
	if req.RoomID == "" {
		r = s.roomManager.FindAvailableRoom()
	} else {
		r, _ = s.roomManager.GetRoom(req.RoomID)
	}
	if r == nil {
		s.sendError(sess, "room not found")
		return
	}
	s.seat(sess, r, network.MsgTypeJoinRoom)
}

// seat adds sess to r and answers with its seat.
func (s *GameServer) seat(sess *session.Session, r *room.Room, reply uint16) {
	seat, ok := r.AddPlayer(sess)
	if !ok {
		s.sendError(sess, "room is full")
		return
	}
	logger.Log.Infof("Session %s took seat %s in room %s", sess.GetID(), seat, r.ID)

	data, _ := json.Marshal(network.RoomJoined{RoomID: r.ID, Seat: seat})
	sess.Send(reply, data)
	s.broadcastRoomState(r)
}

func (s *GameServer) broadcastRoomState(r *room.Room) {
	data, _ := json.Marshal(network.RoomState{
		RoomID:     r.ID,
		Players:    r.PlayerCount(),
		MaxPlayers: r.MaxPlayers,
		Status:     r.GetStatus().String(),
	})
	s.broadcaster.BroadcastToRoom(r.ID, network.MsgTypeRoomState, data)
}

func (s *GameServer) leaveRoom(sess *session.Session) {
	roomID := sess.RoomID()
	if roomID == "" {
		return
	}
	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		sess.SetRoomID("")
		return
	}

	r.RemovePlayer(sess.GetID())
	logger.Log.Infof("Session %s left room %s", sess.GetID(), roomID)
	if r.PlayerCount() == 0 {
		s.closeRoom(roomID)
		return
	}
	s.broadcastRoomState(r)
}

// closeRoom stops the room. Its match stays in the database; finished
// matches are also written to the archive directory when one is set.
func (s *GameServer) closeRoom(roomID string) {
	if r, ok := s.roomManager.GetRoom(roomID); ok && r.GetStatus() == room.StatusFinished && s.game.ArchiveDir != "" {
		if path, err := s.matches.Export(roomID, s.game.ArchiveDir); err != nil {
			logger.Log.Errorf("Archiving room %s failed: %v", roomID, err)
		} else {
			logger.Log.Infof("Archived room %s to %s", roomID, path)
		}
	}
	s.roomManager.RemoveRoom(roomID)
	s.matches.Forget(roomID)
	s.monitor.SetActiveRooms(s.roomManager.Count())
}

func (s *GameServer) handleGameAction(sess *session.Session, packet *network.Packet) {
	roomID := sess.RoomID()
	if roomID == "" {
		logger.Log.Warnf("Session %s sent game action but is not in a room", sess.GetID())
		s.sendError(sess, "not in a room")
		return
	}

	r, exists := s.roomManager.GetRoom(roomID)
	if !exists {
		logger.Log.Errorf("Room %s not found for session %s", roomID, sess.GetID())
		return
	}

	// the state logs and answers rejections itself
	if err := r.HandleAction(sess, packet.Data); err != nil {
		logger.Log.Debugf("Action from %s in room %s: %v", sess.GetID(), roomID, err)
	}
}
