package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/localmart/storefront/internal/adapters/googlemaps"
	"github.com/localmart/storefront/internal/adapters/gps"
	"github.com/localmart/storefront/internal/adapters/http"
	natsadapter "github.com/localmart/storefront/internal/adapters/nats"
	"github.com/localmart/storefront/internal/adapters/postgres"
	"github.com/localmart/storefront/internal/adapters/valkey"
	"github.com/localmart/storefront/internal/core/ports"
	"github.com/localmart/storefront/internal/core/proximity"
	"github.com/localmart/storefront/internal/core/usecases"
	"github.com/localmart/storefront/internal/pkg/config"
	"github.com/localmart/storefront/internal/pkg/logging"
	"github.com/localmart/storefront/internal/pkg/metrics"
	"github.com/localmart/storefront/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("storefront-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.OTLPAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	deps := &http.Dependencies{
		DB:              db,
		DefaultRadiusKm: cfg.Discovery.DefaultRadiusKm,
	}

	// Cache
	var cache ports.CacheService
	if c, err := valkey.New(cfg.Valkey.Addr, "storefront"); err != nil {
		slog.Warn("valkey unavailable, running without cache", "error", err)
	} else {
		defer c.Close()
		cache = c
		deps.Cache = c
	}

	// NATS
	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, catalog events disabled", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}

	// Raw NATS connection for the WebSocket relay
	if nc, err := natsadapter.RawConn(cfg.NATS.URL); err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer nc.Close()
		deps.NATS = nc
	}

	geocoder := newGeocoder(cfg.Geocoder)
	locator := newLocator(cfg.Location, cfg.Geocoder)

	// Repos
	storeRepo := postgres.NewStoreRepo(db)
	productRepo := postgres.NewProductRepo(db)

	// Use cases
	discovery := discoveryOptions(cfg.Discovery)
	locations := usecases.NewLocationService(locator, geocoder, cache, locationOptions(cfg))
	stores := usecases.NewStoreService(storeRepo, cache, locations, discovery)
	catalog := usecases.NewCatalogService(storeRepo, productRepo, publisher, stores)

	deps.Stores = stores
	deps.Products = usecases.NewProductService(stores, productRepo, discovery)
	deps.Locations = locations
	deps.Catalog = catalog

	// Every instance drops its snapshot when any instance changes the catalog.
	if sub, err := natsadapter.NewSubscriber(cfg.NATS.URL); err != nil {
		slog.Warn("nats subscriber unavailable, relying on catalog TTL", "error", err)
	} else {
		defer sub.Close()
		if err := sub.SubscribeStoreEvents(ctx, catalog.HandleStoreEvent); err != nil {
			slog.Warn("subscribe store events failed", "error", err)
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "LocalMart Storefront API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173, https://*.localmart.app",
		AllowMethods:     "GET,POST,PUT,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, If-None-Match",
		ExposeHeaders:    "Link, ETag, Retry-After, X-Request-ID",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "geocoder", cfg.Geocoder.Provider, "device", cfg.Location.Device)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func newGeocoder(cfg config.GeocoderConfig) ports.Geocoder {
	if cfg.Provider != "google" {
		slog.Info("geocoding disabled", "provider", cfg.Provider)
		return nil
	}
	g, err := googlemaps.NewGeocoder(mapsOptions(cfg))
	if err != nil {
		log.Fatalf("geocoder: %v", err)
	}
	return g
}

func newLocator(loc config.LocationConfig, geo config.GeocoderConfig) ports.DeviceLocator {
	switch loc.Device {
	case "gps":
		return gps.NewSerialLocator(loc.GPSPort, loc.GPSBaud)
	case "google":
		l, err := googlemaps.NewGeolocationLocator(mapsOptions(geo))
		if err != nil {
			log.Fatalf("geolocation: %v", err)
		}
		return l
	default:
		return nil
	}
}

func mapsOptions(cfg config.GeocoderConfig) googlemaps.Options {
	return googlemaps.Options{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Region:    cfg.Region,
		RateLimit: cfg.RateLimit,
		Timeout:   cfg.Timeout(),
	}
}

func discoveryOptions(cfg config.DiscoveryConfig) usecases.DiscoveryOptions {
	opts := usecases.DefaultDiscoveryOptions()
	opts.DefaultLimit = cfg.DefaultLimit
	opts.MaxLimit = cfg.MaxLimit
	opts.MaxRadiusKm = cfg.MaxRadiusKm
	opts.CatalogTTL = time.Duration(cfg.CatalogTTLSeconds) * time.Second
	opts.GeohashThreshold = cfg.GeohashThreshold
	opts.ProductBatchSize = cfg.ProductBatchSize
	opts.Expansion = proximity.ExpansionPolicy{StepsKm: cfg.ExpansionStepsKm, MaxRadiusKm: cfg.MaxRadiusKm}
	return opts
}

func locationOptions(cfg *config.Config) usecases.LocationOptions {
	opts := usecases.DefaultLocationOptions()
	opts.DeviceTimeout = cfg.Location.Timeout()
	opts.GeocodeAttempts = cfg.Geocoder.RetryAttempts
	opts.GeocodeCacheTTL = time.Duration(cfg.Geocoder.CacheTTLHours * float64(time.Hour))
	return opts
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
