package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"healthmate/pkg/auth"
)

// JWTAuth validates the login token on protected routes. The token comes from
// the Authorization header or, for clients that cannot set headers, the
// "token" query parameter. The verified user lands in c.Locals("user").
func JWTAuth(jwtAuth *auth.JWTAuth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := ""
		if header := c.Get("Authorization"); header != "" {
			extracted, err := auth.ExtractToken(header)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid authorization header",
				})
			}
			token = extracted
		} else {
			token = c.Query("token")
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authentication token",
			})
		}

		user, err := jwtAuth.VerifyToken(token)
		if err != nil {
			log.Printf("🔒 Token verification failed: %v", err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals("user", user)
		return c.Next()
	}
}
