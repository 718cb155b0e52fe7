package services

import (
	"log"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"healthmate/internal/models"
)

// ConnectionManager tracks live WebSocket connections and their user binding.
// A user may hold several connections (multiple tabs); messages addressed to
// a user fan out to all of them.
type ConnectionManager struct {
	mu          sync.RWMutex
	connections map[string]*models.UserConnection
}

// NewConnectionManager creates an empty registry
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*models.UserConnection),
	}
}

// Add registers a raw connection and returns its record. The user binding
// comes later through Register.
func (m *ConnectionManager) Add(conn *websocket.Conn) *models.UserConnection {
	userConn := &models.UserConnection{
		ConnID:    uuid.New().String(),
		Conn:      conn,
		CreatedAt: time.Now(),
		WriteChan: make(chan models.ServerMessage, 32),
	}

	m.mu.Lock()
	m.connections[userConn.ConnID] = userConn
	m.mu.Unlock()

	log.Printf("🔌 WebSocket connected: %s", userConn.ConnID)
	return userConn
}

// Remove drops a connection from the registry and closes its write channel
func (m *ConnectionManager) Remove(connID string) {
	m.mu.Lock()
	userConn, ok := m.connections[connID]
	if ok {
		delete(m.connections, connID)
	}
	m.mu.Unlock()

	if ok {
		close(userConn.WriteChan)
		log.Printf("🔌 WebSocket disconnected: %s (user %q)", connID, userConn.UserID)
	}
}

// Register binds a connection to a user id
func (m *ConnectionManager) Register(connID, userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	userConn, ok := m.connections[connID]
	if !ok {
		return false
	}
	userConn.UserID = userID
	return true
}

// Unbind clears the user binding without dropping the connection. Used by
// the disconnect notification event.
func (m *ConnectionManager) Unbind(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if userConn, ok := m.connections[connID]; ok {
		userConn.UserID = ""
	}
}

// Get returns the record for a connection id
func (m *ConnectionManager) Get(connID string) (*models.UserConnection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	userConn, ok := m.connections[connID]
	return userConn, ok
}

// UserIDs returns the distinct user ids with at least one live connection
func (m *ConnectionManager) UserIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	ids := []string{}
	for _, userConn := range m.connections {
		if userConn.UserID == "" {
			continue
		}
		if _, dup := seen[userConn.UserID]; dup {
			continue
		}
		seen[userConn.UserID] = struct{}{}
		ids = append(ids, userConn.UserID)
	}
	return ids
}

// SendToUser fans a message out to every connection bound to the user.
// Returns true if at least one connection received it. Slow consumers with a
// full write buffer are skipped rather than blocking the sender. Sends happen
// under the read lock so Remove cannot close a channel mid-send.
func (m *ConnectionManager) SendToUser(userID string, msg models.ServerMessage) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sent := false
	for _, userConn := range m.connections {
		if userConn.UserID != userID {
			continue
		}
		select {
		case userConn.WriteChan <- msg:
			sent = true
		default:
			log.Printf("⚠️ Dropping message for %s: write buffer full", userConn.ConnID)
		}
	}
	return sent
}

// Count returns the number of live connections
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}
