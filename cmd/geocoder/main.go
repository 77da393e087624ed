package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/localmart/storefront/internal/adapters/googlemaps"
	natsadapter "github.com/localmart/storefront/internal/adapters/nats"
	"github.com/localmart/storefront/internal/adapters/postgres"
	"github.com/localmart/storefront/internal/core/ports"
	"github.com/localmart/storefront/internal/core/usecases"
	"github.com/localmart/storefront/internal/pkg/config"
	"github.com/localmart/storefront/internal/pkg/logging"
	"github.com/localmart/storefront/internal/workflows"
)

func main() {
	backfill := flag.Bool("backfill", false, "start a geocoding workflow for every store without a location, then exit")
	limit := flag.Int("limit", 500, "maximum stores to enqueue with -backfill")
	flag.Parse()

	cfg, err := config.Load("storefront-geocoder")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	storeRepo := postgres.NewStoreRepo(db)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	if *backfill {
		if err := enqueueMissing(ctx, c, storeRepo, cfg.Temporal.TaskQueue, *limit); err != nil {
			log.Fatalf("backfill: %v", err)
		}
		return
	}

	if cfg.Geocoder.Provider != "google" {
		log.Fatalf("geocoder worker needs geocoder.provider=google, got %q", cfg.Geocoder.Provider)
	}
	geocoder, err := googlemaps.NewGeocoder(googlemaps.Options{
		APIKey:    cfg.Geocoder.APIKey,
		BaseURL:   cfg.Geocoder.BaseURL,
		Region:    cfg.Geocoder.Region,
		RateLimit: cfg.Geocoder.RateLimit,
		Timeout:   cfg.Geocoder.Timeout(),
	})
	if err != nil {
		log.Fatalf("geocoder: %v", err)
	}

	// Saved locations are announced so API instances drop stale catalogs.
	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, located stores will appear after the catalog TTL", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.GeocodeStoreWorkflow)
	w.RegisterActivity(&workflows.GeocodingActivities{
		Geocoder: geocoder,
		Catalog:  usecases.NewCatalogService(storeRepo, postgres.NewProductRepo(db), publisher, nil),
	})

	slog.Info("geocoder worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

// enqueueMissing starts one workflow per unlocated store. Stores whose
// workflow is still running are skipped.
func enqueueMissing(ctx context.Context, c client.Client, repo ports.StoreRepository, queue string, limit int) error {
	stores, err := repo.ListMissingLocation(ctx, limit)
	if err != nil {
		return err
	}

	started := 0
	for _, st := range stores {
		if st.Address == "" {
			continue
		}
		opts := client.StartWorkflowOptions{
			ID:                       workflows.WorkflowID(st.ID),
			TaskQueue:                queue,
			WorkflowExecutionTimeout: 10 * time.Minute,
		}
		run, err := c.ExecuteWorkflow(ctx, opts, workflows.GeocodeStoreWorkflow, workflows.StoreGeocodeInput{
			StoreID: st.ID,
			Address: st.Address,
		})
		if err != nil {
			var running *serviceerror.WorkflowExecutionAlreadyStarted
			if errors.As(err, &running) {
				continue
			}
			return err
		}
		slog.Debug("geocoding enqueued", "store_id", st.ID, "run_id", run.GetRunID())
		started++
	}

	slog.Info("backfill enqueued", "candidates", len(stores), "started", started)
	return nil
}
