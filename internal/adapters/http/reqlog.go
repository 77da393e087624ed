package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/localmart/storefront/internal/pkg/logging"
)

// RequestIDLogMiddleware stores a request-scoped *slog.Logger carrying the
// Fiber request ID in the user context, so usecases and repos log with it
// via logging.FromContext.
func RequestIDLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid, ok := c.Locals("requestid").(string)
		if !ok || rid == "" {
			return c.Next()
		}

		reqLogger := slog.Default().With("request_id", rid)
		c.SetUserContext(logging.WithLogger(c.UserContext(), reqLogger))
		return c.Next()
	}
}
