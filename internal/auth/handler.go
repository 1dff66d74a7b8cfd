package auth

import (
	"crypto/subtle"
	"strings"

	"spese-backend/internal/config"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/auth/login
func LoginHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !cfg.AuthEnabled() {
			return fiber.NewError(fiber.StatusNotFound, "authentication is disabled")
		}

		var body LoginRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		body.Username = strings.TrimSpace(body.Username)

		userOK := subtle.ConstantTimeCompare([]byte(body.Username), []byte(cfg.AdminUsername)) == 1
		passErr := bcrypt.CompareHashAndPassword([]byte(cfg.AdminPasswordHash), []byte(body.Password))
		if !userOK || passErr != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "wrong username or password")
		}

		token, err := GenerateToken(cfg.JWTSecret, cfg.AdminUsername)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "could not issue token")
		}

		return c.JSON(fiber.Map{
			"token":    token,
			"username": cfg.AdminUsername,
		})
	}
}

// GET /api/auth/me
func MeHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		username, _ := c.Locals(CtxUsernameKey).(string)
		if username == "" {
			username = "anonymous"
		}
		return c.JSON(fiber.Map{"username": username})
	}
}
