package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/settlers/logger"
	"github.com/wfunc/settlers/rules"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	server   *rpc.Server
}

// NewServer listens on addr. Services are added with Register.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
		server:   rpc.NewServer(),
	}, nil
}

// Register publishes the methods of svc.
func (s *Server) Register(svc interface{}) error {
	return s.server.Register(svc)
}

// Addr is the address actually bound, useful with ":0".
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.server.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// Matches is the read side of the match service.
type Matches interface {
	Get(roomID string) (*rules.Match, error)
	Replay(roomID string) (*rules.Match, error)
}

// GameService is the struct that exposes RPC methods.
type GameService struct {
	matches Matches
}

// NewGameService creates a new GameService.
func NewGameService(matches Matches) *GameService {
	return &GameService{matches: matches}
}

type MatchArgs struct {
	RoomID string
}

type MatchReply struct {
	Match rules.Match
}

// GetMatch returns the current document of a room's match.
func (gs *GameService) GetMatch(args *MatchArgs, reply *MatchReply) error {
	m, err := gs.matches.Get(args.RoomID)
	if err != nil {
		return err
	}
	reply.Match = *m
	return nil
}

// ReplayMatch rebuilds a match from its move log and returns the result.
// It fails if the rebuilt match differs from the stored one.
func (gs *GameService) ReplayMatch(args *MatchArgs, reply *MatchReply) error {
	m, err := gs.matches.Replay(args.RoomID)
	if err != nil {
		return err
	}
	reply.Match = *m
	return nil
}
