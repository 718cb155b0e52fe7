package handlers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"healthmate/internal/models"
	"healthmate/internal/services"
)

// ScheduleHandler handles reminder schedule endpoints
type ScheduleHandler struct {
	schedules *services.ScheduleService
	users     *services.UserService
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(schedules *services.ScheduleService, users *services.UserService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, users: users}
}

// updateRequest is the bulk-update payload. Omitted fields stay untouched.
type updateRequest struct {
	UserID    string  `json:"user_id"`
	NewEndOn  *string `json:"new_end_on"`
	NewActive *bool   `json:"new_active"`
}

// Update handles POST /schedule/v1/update. The new values apply to every
// schedule the user owns.
func (h *ScheduleHandler) Update(c *fiber.Ctx) error {
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.UserID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	if _, err := h.users.GetByID(req.UserID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		log.Printf("❌ Schedule update lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update schedules",
		})
	}

	updated, err := h.schedules.UpdateAll(req.UserID, req.NewActive, req.NewEndOn)
	if err != nil {
		log.Printf("❌ Schedule update failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update schedules",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Schedules updated",
		"updated": updated,
	})
}

// List handles GET /schedule/v1/schedules?user_id=
func (h *ScheduleHandler) List(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	schedules, err := h.schedules.List(userID)
	if err != nil {
		log.Printf("❌ Schedule list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load schedules",
		})
	}
	if len(schedules) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No schedules found",
		})
	}

	return c.JSON(fiber.Map{
		"schedules": schedules,
	})
}

// Create handles POST /schedule/v1/new?user_id=
func (h *ScheduleHandler) Create(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Query("user_id"))
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "user_id is required",
		})
	}

	if _, err := h.users.GetByID(userID); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		log.Printf("❌ Schedule create lookup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create schedule",
		})
	}

	var sched models.Schedule
	if err := c.BodyParser(&sched); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	created, err := h.schedules.Add(userID, sched)
	if err != nil {
		log.Printf("❌ Schedule create failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create schedule",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Schedule created",
		"schedule": created,
	})
}
