package rpc

import (
	"errors"
	"net/rpc"
	"strings"
	"testing"

	"github.com/wfunc/settlers/rules"
	"github.com/wfunc/settlers/scenario"
)

// MockMatches is a test double for the Matches interface.
type MockMatches struct {
	match *rules.Match
}

func (m *MockMatches) Get(roomID string) (*rules.Match, error) {
	if roomID != "room-1" {
		return nil, errors.New("record not found")
	}
	return m.match, nil
}

func (m *MockMatches) Replay(roomID string) (*rules.Match, error) {
	return m.Get(roomID)
}

func startServer(t *testing.T, matches Matches) *rpc.Client {
	t.Helper()
	srv, err := NewServer("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	if err := srv.Register(NewGameService(matches)); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	go srv.Start()
	t.Cleanup(srv.Stop)

	client, err := rpc.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestGameService_GetMatch(t *testing.T) {
	m, err := rules.NewMatch(scenario.Default(), 3, 5)
	if err != nil {
		t.Fatalf("NewMatch failed: %v", err)
	}
	client := startServer(t, &MockMatches{match: m})

	var reply MatchReply
	if err := client.Call("GameService.GetMatch", &MatchArgs{RoomID: "room-1"}, &reply); err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if reply.Match.Ctx.Seed != 5 {
		t.Errorf("Expected seed 5, got %d", reply.Match.Ctx.Seed)
	}
	if len(reply.Match.G.Players) != 3 {
		t.Errorf("Expected 3 players, got %d", len(reply.Match.G.Players))
	}
	if len(reply.Match.G.Board.Corners) != len(m.G.Board.Corners) {
		t.Errorf("Expected %d corners, got %d", len(m.G.Board.Corners), len(reply.Match.G.Board.Corners))
	}

	if err := client.Call("GameService.ReplayMatch", &MatchArgs{RoomID: "room-1"}, &reply); err != nil {
		t.Fatalf("ReplayMatch failed: %v", err)
	}
}

func TestGameService_UnknownRoom(t *testing.T) {
	client := startServer(t, &MockMatches{})

	var reply MatchReply
	err := client.Call("GameService.GetMatch", &MatchArgs{RoomID: "nope"}, &reply)
	if err == nil || !strings.Contains(err.Error(), "record not found") {
		t.Errorf("Expected record not found error, got %v", err)
	}
}
