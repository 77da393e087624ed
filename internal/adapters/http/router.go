package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/localmart/storefront/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/stores/nearby", timeout.NewWithContext(NearbyStoresHandler(deps), requestTimeout))
	v1.Get("/stores/nearby/by-address", timeout.NewWithContext(NearbyStoresByAddressHandler(deps), requestTimeout))
	v1.Get("/stores/batch", timeout.NewWithContext(BatchStoresHandler(deps), requestTimeout))
	v1.Get("/stores/:id", timeout.NewWithContext(GetStoreHandler(deps), requestTimeout))
	v1.Put("/stores/:id/location", timeout.NewWithContext(UpdateStoreLocationHandler(deps), requestTimeout))
	v1.Get("/products/nearby", timeout.NewWithContext(NearbyProductsHandler(deps), requestTimeout))
	v1.Get("/geocode", timeout.NewWithContext(GeocodeHandler(deps), requestTimeout))
	v1.Get("/geocode/reverse", timeout.NewWithContext(ReverseGeocodeHandler(deps), requestTimeout))
	v1.Get("/location/device", timeout.NewWithContext(DeviceLocationHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	// WebSocket relay of catalog events
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
