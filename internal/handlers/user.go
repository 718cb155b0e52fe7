package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"healthmate/internal/reference"
	"healthmate/internal/services"
)

// UserHandler handles dashboard, profile and conversation endpoints
type UserHandler struct {
	users     *services.UserService
	convos    *services.ConversationService
	reference *reference.Service
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService, convos *services.ConversationService, ref *reference.Service) *UserHandler {
	return &UserHandler{users: users, convos: convos, reference: ref}
}

// Dashboard handles GET /user/v1/dashboard/:user_id
func (h *UserHandler) Dashboard(c *fiber.Ctx) error {
	userID := c.Params("user_id")

	dashboard, err := h.users.Dashboard(userID, h.reference.RandomTip())
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		log.Printf("❌ Dashboard failed for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load dashboard",
		})
	}

	return c.JSON(dashboard)
}

// GetProfile handles GET /user/v1/profile/?user_id=
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	user, err := h.users.GetByID(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		log.Printf("❌ Profile load failed for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load profile",
		})
	}

	return c.JSON(user.ToProfileResponse())
}

// UpdateProfile handles PUT /user/v1/profile/. Only whitelisted fields are
// applied; password, schedule and user_id can never be edited here.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	var body map[string]string
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	userID := strings.TrimSpace(body["user_id"])
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}
	delete(body, "user_id")

	user, err := h.users.UpdateProfile(userID, body)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		log.Printf("❌ Profile update failed for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update profile",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated",
		"profile": user.ToProfileResponse(),
	})
}

// DeleteConversation handles DELETE /user/delete/conversation?user_id=.
// Deleting an empty conversation succeeds.
func (h *UserHandler) DeleteConversation(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	if err := h.convos.Delete(userID); err != nil {
		log.Printf("❌ Conversation delete failed for %s: %v", userID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete conversation",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Conversation deleted",
	})
}
