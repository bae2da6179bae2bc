package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	config "github.com/postpilothq/postpilot/configs"
)

type CronMiddleware struct {
	cfg config.Config
}

func NewCronMiddleware(cfg config.Config) *CronMiddleware {
	return &CronMiddleware{cfg: cfg}
}

// CronAuth guards the periodic entry points with a shared bearer secret.
func (m *CronMiddleware) CronAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || m.cfg.CronSecret == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(m.cfg.CronSecret)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}
