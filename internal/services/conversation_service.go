package services

import (
	"fmt"
	"strings"
	"time"

	"healthmate/internal/database"
	"healthmate/internal/models"
)

// ConversationService handles the per-user append-only conversation log
type ConversationService struct {
	db *database.DB
}

// NewConversationService creates a new conversation service
func NewConversationService(db *database.DB) *ConversationService {
	return &ConversationService{db: db}
}

// Append records one message at the end of the user's log. The timestamp is
// filled in when the caller left it empty.
func (s *ConversationService) Append(userID string, msg models.Message) error {
	if msg.Time == "" {
		msg.Time = time.Now().Format(time.RFC3339)
	}

	_, err := s.db.Exec(
		`INSERT INTO messages (user_id, role, content, created_report, uploaded_file, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, msg.Role, msg.Content, msg.CreatedReport, msg.UploadedFile, msg.Time)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// History returns the user's messages in insertion order
func (s *ConversationService) History(userID string) ([]models.Message, error) {
	rows, err := s.db.Query(
		`SELECT role, content, created_report, uploaded_file, created_at
		 FROM messages WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.CreatedReport, &msg.UploadedFile, &msg.Time); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// Delete removes the user's whole conversation. Deleting an empty history is
// a no-op, not an error.
func (s *ConversationService) Delete(userID string) error {
	if _, err := s.db.Exec("DELETE FROM messages WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// RenderHistory formats a conversation for prompt injection. The header line
// doubles as the whole rendering when there are no messages yet.
func RenderHistory(messages []models.Message) string {
	var sb strings.Builder
	sb.WriteString("no conversation started yet.")
	for _, msg := range messages {
		sb.WriteString("\n---------\n role:")
		sb.WriteString(msg.Role)
		sb.WriteString("\n content:")
		sb.WriteString(msg.Content)
		sb.WriteString("\n time:")
		sb.WriteString(msg.Time)
	}
	return sb.String()
}
