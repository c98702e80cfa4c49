package session

import (
	"net"
	"testing"
	"time"

	"github.com/wfunc/settlers/network"
)

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	sent   []uint16
	closed bool
}

func (m *MockConnection) Send(msgID uint16, data []byte) error {
	m.sent = append(m.sent, msgID)
	return nil
}
func (m *MockConnection) Close() error                         { m.closed = true; return nil }
func (m *MockConnection) RemoteAddr() net.Addr                 { return &net.TCPAddr{} }
func (m *MockConnection) SetHeartbeat(interval time.Duration)  {}
func (m *MockConnection) ReadPacket() (*network.Packet, error) { return nil, nil }

func TestNewManager(t *testing.T) {
	manager := NewManager()
	if manager == nil {
		t.Fatal("NewManager should not return nil")
	}
	if manager.sessions == nil {
		t.Fatal("NewManager should initialize the sessions map")
	}
}

func TestManager_Add_Get_Remove(t *testing.T) {
	manager := NewManager()
	sessionID := "test_session_1"
	sess := NewSession(sessionID, &MockConnection{})

	manager.Add(sess)
	if manager.Count() != 1 {
		t.Fatalf("Expected session count to be 1, got %d", manager.Count())
	}

	retrievedSess, exists := manager.Get(sessionID)
	if !exists {
		t.Fatal("Get should find the added session")
	}
	if retrievedSess != sess {
		t.Fatal("Get should return the same session instance")
	}

	manager.Remove(sessionID)
	if manager.Count() != 0 {
		t.Fatalf("Expected session count to be 0 after removal, got %d", manager.Count())
	}

	_, exists = manager.Get(sessionID)
	if exists {
		t.Fatal("Get should not find the removed session")
	}
}

func TestManager_AllAndIdle(t *testing.T) {
	manager := NewManager()

	stale := NewSession("session1", &MockConnection{})
	stale.lastActive = time.Now().Add(-time.Minute)
	fresh := NewSession("session2", &MockConnection{})

	manager.Add(stale)
	manager.Add(fresh)

	if got := len(manager.All()); got != 2 {
		t.Errorf("Expected 2 sessions, got %d", got)
	}

	idle := manager.Idle(time.Now().Add(-30 * time.Second))
	if len(idle) != 1 || idle[0] != stale {
		t.Errorf("Expected only the stale session to be idle, got %v", idle)
	}
}

func TestSession_SendAndRoom(t *testing.T) {
	conn := &MockConnection{}
	sess := NewSession("test_session", conn)
	before := sess.LastActive()

	time.Sleep(time.Millisecond)
	if err := sess.Send(network.MsgTypeGameSync, []byte("{}")); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if len(conn.sent) != 1 || conn.sent[0] != network.MsgTypeGameSync {
		t.Errorf("Expected one GameSync message, got %v", conn.sent)
	}
	if !sess.LastActive().After(before) {
		t.Error("Send should update LastActive")
	}

	if sess.RoomID() != "" {
		t.Errorf("Expected no room, got %q", sess.RoomID())
	}
	sess.SetRoomID("room-1")
	if sess.RoomID() != "room-1" {
		t.Errorf("Expected room-1, got %q", sess.RoomID())
	}

	sess.Close()
	if !conn.closed {
		t.Error("Close should close the connection")
	}
}
