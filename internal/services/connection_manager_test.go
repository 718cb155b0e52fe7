package services

import (
	"testing"

	"healthmate/internal/models"
)

func TestConnectionRegistry(t *testing.T) {
	manager := NewConnectionManager()

	conn := manager.Add(nil)
	if conn.ConnID == "" {
		t.Fatal("expected generated connection id")
	}
	if manager.Count() != 1 {
		t.Errorf("expected 1 connection, got %d", manager.Count())
	}

	if !manager.Register(conn.ConnID, "u1") {
		t.Fatal("Register failed")
	}
	if got, _ := manager.Get(conn.ConnID); got.UserID != "u1" {
		t.Errorf("expected binding to u1, got %q", got.UserID)
	}

	ids := manager.UserIDs()
	if len(ids) != 1 || ids[0] != "u1" {
		t.Errorf("unexpected user ids: %v", ids)
	}

	manager.Unbind(conn.ConnID)
	if len(manager.UserIDs()) != 0 {
		t.Error("expected no bound users after unbind")
	}

	manager.Remove(conn.ConnID)
	if manager.Count() != 0 {
		t.Errorf("expected 0 connections, got %d", manager.Count())
	}
	if _, ok := manager.Get(conn.ConnID); ok {
		t.Error("expected connection to be gone")
	}
}

func TestRegisterUnknownConnection(t *testing.T) {
	manager := NewConnectionManager()
	if manager.Register("missing", "u1") {
		t.Error("expected Register to fail for unknown connection")
	}
}

func TestSendToUserFansOut(t *testing.T) {
	manager := NewConnectionManager()

	first := manager.Add(nil)
	second := manager.Add(nil)
	other := manager.Add(nil)
	manager.Register(first.ConnID, "u1")
	manager.Register(second.ConnID, "u1")
	manager.Register(other.ConnID, "u2")

	if !manager.SendToUser("u1", models.ServerMessage{Type: "ai_response"}) {
		t.Fatal("expected delivery to u1")
	}

	for _, conn := range []*models.UserConnection{first, second} {
		select {
		case msg := <-conn.WriteChan:
			if msg.Type != "ai_response" {
				t.Errorf("unexpected message type %q", msg.Type)
			}
		default:
			t.Errorf("connection %s received nothing", conn.ConnID)
		}
	}

	select {
	case <-other.WriteChan:
		t.Error("u2's connection must not receive u1's message")
	default:
	}
}

func TestSendToUserNoConnections(t *testing.T) {
	manager := NewConnectionManager()
	if manager.SendToUser("ghost", models.ServerMessage{Type: "ai_response"}) {
		t.Error("expected no delivery for unknown user")
	}
}
