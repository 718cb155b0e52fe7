package handlers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"

	"healthmate/internal/models"
	"healthmate/internal/services"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler owns the single /ws endpoint
type WebSocketHandler struct {
	conns  *services.ConnectionManager
	convos *services.ConversationService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(conns *services.ConnectionManager, convos *services.ConversationService) *WebSocketHandler {
	return &WebSocketHandler{conns: conns, convos: convos}
}

// Handle runs the connection lifecycle: write pump, ping loop and read loop.
// It blocks until the client disconnects.
func (h *WebSocketHandler) Handle(conn *websocket.Conn) {
	userConn := h.conns.Add(conn)
	defer h.conns.Remove(userConn.ConnID)

	stop := make(chan struct{})
	defer close(stop)

	go h.writePump(userConn)
	go h.pingLoop(userConn, stop)

	userConn.WriteChan <- models.ServerMessage{
		Type:    "connected",
		Message: "Connection established",
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg models.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			userConn.WriteChan <- models.ServerMessage{
				Type:  "error",
				Error: "Invalid message format",
			}
			continue
		}

		h.handleMessage(userConn, msg)
	}
}

func (h *WebSocketHandler) handleMessage(userConn *models.UserConnection, msg models.ClientMessage) {
	switch msg.Type {
	case "register":
		if msg.UserID == "" {
			userConn.WriteChan <- models.ServerMessage{
				Type:  "error",
				Error: "user_id is required to register",
			}
			return
		}
		h.conns.Register(userConn.ConnID, msg.UserID)
		log.Printf("✅ Socket %s registered to user %s", userConn.ConnID, msg.UserID)
		userConn.WriteChan <- models.ServerMessage{
			Type:   "registered",
			UserID: msg.UserID,
			Status: "ok",
		}

	case "disconnect_notification_user":
		h.conns.Unbind(userConn.ConnID)
		userConn.WriteChan <- models.ServerMessage{
			Type:   "registered",
			Status: "unbound",
		}

	case "stream_chat":
		if msg.UserID == "" {
			userConn.WriteChan <- models.ServerMessage{
				Type:  "error",
				Error: "user_id is required for stream_chat",
			}
			return
		}
		h.conns.Register(userConn.ConnID, msg.UserID)
		userConn.WriteChan <- models.ServerMessage{
			Type:   "connected",
			UserID: msg.UserID,
		}

		history, err := h.convos.History(msg.UserID)
		if err != nil {
			log.Printf("❌ History load failed for %s: %v", msg.UserID, err)
			userConn.WriteChan <- models.ServerMessage{
				Type:  "error",
				Error: "Failed to load conversation",
			}
			return
		}
		userConn.WriteChan <- models.ServerMessage{
			Type:         "new_message",
			UserID:       msg.UserID,
			Conversation: history,
		}

	case "ping":
		userConn.WriteChan <- models.ServerMessage{Type: "pong"}

	default:
		userConn.WriteChan <- models.ServerMessage{
			Type:  "error",
			Error: "Unknown message type: " + msg.Type,
		}
	}
}

// writePump serializes all JSON writes to the connection. It exits when the
// manager closes the write channel on Remove.
func (h *WebSocketHandler) writePump(userConn *models.UserConnection) {
	for msg := range userConn.WriteChan {
		userConn.Mutex.Lock()
		userConn.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		err := userConn.Conn.WriteJSON(msg)
		userConn.Mutex.Unlock()
		if err != nil {
			log.Printf("⚠️ Write failed on %s: %v", userConn.ConnID, err)
			return
		}
	}
}

// pingLoop keeps the connection alive with control frames
func (h *WebSocketHandler) pingLoop(userConn *models.UserConnection, stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			userConn.Mutex.Lock()
			userConn.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := userConn.Conn.WriteMessage(websocket.PingMessage, nil)
			userConn.Mutex.Unlock()
			if err != nil {
				return
			}
		}
	}
}
