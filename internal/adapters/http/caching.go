package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses the handler left
// without one.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return err
		}
		// Errors are never cached by shared caches.
		if c.Response().StatusCode() >= 400 {
			c.Set(fiber.HeaderCacheControl, "no-store")
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "no-cache"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/v1/location/device":
			ttl = "no-store"

		case strings.HasPrefix(path, "/v1/stores/nearby"), strings.HasPrefix(path, "/v1/products/nearby"):
			ttl = "public, max-age=60" // catalog snapshot refreshes every 30s

		case strings.HasPrefix(path, "/v1/geocode"):
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/v1/stores/"):
			ttl = "public, max-age=600"

		case strings.HasPrefix(path, "/docs"):
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=60"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}
