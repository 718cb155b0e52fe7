package models

import (
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
)

// ClientMessage represents a message from the client
type ClientMessage struct {
	Type   string `json:"type"` // "register", "disconnect_notification_user", "stream_chat", "ping"
	UserID string `json:"user_id,omitempty"`
}

// ServerMessage represents a message sent to the client
type ServerMessage struct {
	Type          string    `json:"type"` // "connected", "registered", "ai_response", "error", "schedule_alert", "new_message", "stream_start", "pong"
	Message       string    `json:"message,omitempty"`
	Response      string    `json:"response,omitempty"`
	Error         string    `json:"error,omitempty"`
	UserID        string    `json:"user_id,omitempty"`
	Status        string    `json:"status,omitempty"`
	Success       bool      `json:"success,omitempty"`
	ReminderTitle string    `json:"reminder_title,omitempty"`
	Conversation  []Message `json:"conversation,omitempty"`
}

// UserConnection represents a single WebSocket connection
type UserConnection struct {
	ConnID    string
	UserID    string // set by the "register" event; empty until then
	Conn      *websocket.Conn
	CreatedAt time.Time

	// WriteChan serializes all writes to the connection
	WriteChan chan ServerMessage

	// Mutex guards direct control-frame writes (ping)
	Mutex sync.Mutex
}
