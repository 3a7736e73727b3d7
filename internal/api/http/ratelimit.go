package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/spec-kit/inventory-service/internal/config"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

// NewAuthLimiter bounds requests per client IP. A nil storage keeps counters in process memory.
func NewAuthLimiter(cfg config.RateLimitConfig, storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        cfg.AuthMax,
		Expiration: cfg.AuthWindow,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return apperrors.NewTooManyRequests(cfg.Message)
		},
		Storage: storage,
	})
}
