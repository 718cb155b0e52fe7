package handlers

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"healthmate/internal/services"
	"healthmate/pkg/auth"
)

// allowedImageExts are the profile image types accepted at registration
var allowedImageExts = map[string]bool{
	".png":  true,
	".jpeg": true,
	".jpg":  true,
}

// requiredRegistrationFields must all be present in the registration form
var requiredRegistrationFields = []string{
	"username", "gender", "email", "password", "phone", "age", "location",
}

// AuthHandler handles registration and login
type AuthHandler struct {
	users     *services.UserService
	jwtAuth   *auth.JWTAuth
	uploadDir string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *services.UserService, jwtAuth *auth.JWTAuth, uploadDir string) *AuthHandler {
	return &AuthHandler{users: users, jwtAuth: jwtAuth, uploadDir: uploadDir}
}

// Register handles POST /auth/v1/register-user (multipart form)
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	form := map[string]string{}
	for _, field := range requiredRegistrationFields {
		value := strings.TrimSpace(c.FormValue(field))
		if value == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Missing required field: %s", field),
			})
		}
		form[field] = value
	}

	profileImage := ""
	if file, err := c.FormFile("profile_image"); err == nil && file != nil {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedImageExts[ext] {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid profile image type, allowed: .png, .jpeg, .jpg",
			})
		}
		profileImage = uuid.New().String() + ext
		if err := c.SaveFile(file, filepath.Join(h.uploadDir, profileImage)); err != nil {
			log.Printf("❌ Failed to save profile image: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to save profile image",
			})
		}
	}

	user, err := h.users.Register(services.RegisterRequest{
		Username:     form["username"],
		Gender:       form["gender"],
		Email:        form["email"],
		Password:     form["password"],
		Phone:        form["phone"],
		Age:          form["age"],
		Location:     form["location"],
		ProfileImage: profileImage,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Email already registered",
			})
		}
		log.Printf("❌ Registration failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to register user",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user_id": user.UserID,
	})
}

// loginRequest is the login payload
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/v1/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, err := h.users.Authenticate(req.Email, req.Password)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Invalid email or password",
		})
	}

	token, err := h.jwtAuth.GenerateToken(user.UserID, user.Email)
	if err != nil {
		log.Printf("❌ Token generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to generate token",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   token,
	})
}
