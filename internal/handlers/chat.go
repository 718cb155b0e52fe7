package handlers

import (
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"healthmate/internal/models"
	"healthmate/internal/services"
)

// allowedDocExts are the document types accepted as chat uploads
var allowedDocExts = map[string]bool{
	".pdf": true,
	".txt": true,
}

// ChatHandler handles the chat message endpoint
type ChatHandler struct {
	chat      *services.ChatService
	conns     *services.ConnectionManager
	uploadDir string
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *services.ChatService, conns *services.ConnectionManager, uploadDir string) *ChatHandler {
	return &ChatHandler{chat: chat, conns: conns, uploadDir: uploadDir}
}

// SendMessage handles POST /chat/v1/messages (form data with optional upload)
func (h *ChatHandler) SendMessage(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.FormValue("user_id"))
	userInput := strings.TrimSpace(c.FormValue("user_input"))
	if userID == "" || userInput == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id and user_input are required",
		})
	}

	uploadedPath := ""
	if file, err := c.FormFile("user_uploaded_file"); err == nil && file != nil {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedDocExts[ext] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid uploaded file type, allowed: .pdf, .txt",
			})
		}
		uploadedPath = filepath.Join(h.uploadDir, uuid.New().String()+ext)
		if err := c.SaveFile(file, uploadedPath); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to save uploaded file",
			})
		}
	}

	ok, message := h.chat.HandleChat(c.Context(), userID, userInput, uploadedPath)
	if !ok {
		h.conns.SendToUser(userID, models.ServerMessage{
			Type:   "error",
			UserID: userID,
			Error:  message,
		})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": message,
		})
	}

	return c.JSON(fiber.Map{
		"response": message,
	})
}
