package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"

	natsadapter "github.com/localmart/storefront/internal/adapters/nats"
	"github.com/localmart/storefront/internal/adapters/postgres"
	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/ports"
	"github.com/localmart/storefront/internal/core/usecases"
	"github.com/localmart/storefront/internal/pkg/config"
	"github.com/localmart/storefront/internal/pkg/logging"
)

// Manifest lists the sellers to load, each with its stores and their products.
type Manifest struct {
	Source  string        `json:"source"`
	Sellers []SellerEntry `json:"sellers"`
}

type SellerEntry struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Stores []StoreEntry `json:"stores"`
}

type StoreEntry struct {
	domain.Store
	Products []domain.Product `json:"products"`
}

func main() {
	sellers := flag.String("sellers", "", "comma-separated seller IDs to import (default all)")
	workers := flag.Int("workers", 4, "sellers imported concurrently")
	flag.Parse()

	cfg, err := config.Load("storefront-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Load manifest
	manifestPath := "manifest.json"
	if flag.NArg() > 0 {
		manifestPath = flag.Arg(0)
	}
	manifest, err := loadManifest(manifestPath)
	if err != nil {
		log.Fatalf("manifest: %v", err)
	}
	slog.Info("importing catalog", "sellers", len(manifest.Sellers), "source", manifest.Source)

	// Running API instances refresh their catalogs from these events.
	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, importing without events", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}
	catalog := usecases.NewCatalogService(postgres.NewStoreRepo(db), postgres.NewProductRepo(db), publisher, nil)

	filter := map[string]bool{}
	for _, s := range strings.Split(*sellers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			filter[s] = true
		}
	}

	var g errgroup.Group
	g.SetLimit(*workers)
	failed := make([]string, 0)
	results := make(chan string, len(manifest.Sellers))

	for _, seller := range manifest.Sellers {
		if len(filter) > 0 && !filter[seller.ID] {
			continue
		}
		g.Go(func() error {
			if err := importSeller(ctx, catalog, seller); err != nil {
				slog.Error("seller import failed", "seller", seller.ID, "error", err)
				results <- seller.ID
			}
			return nil
		})
	}

	_ = g.Wait()
	close(results)
	for id := range results {
		failed = append(failed, id)
	}
	if len(failed) > 0 {
		log.Fatalf("import finished with %d failed sellers: %s", len(failed), strings.Join(failed, ", "))
	}
	slog.Info("import complete")
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &m, nil
}

// importSeller writes the stores of a seller before their products, so
// every product row has its store.
func importSeller(ctx context.Context, catalog *usecases.CatalogService, seller SellerEntry) error {
	stores, products := flatten(seller)

	n, err := catalog.ImportStores(ctx, stores)
	if err != nil {
		return fmt.Errorf("stores: %w", err)
	}
	m, err := catalog.ImportProducts(ctx, products)
	if err != nil {
		return fmt.Errorf("products: %w", err)
	}

	unlocated := 0
	for _, st := range stores {
		if st.Location == nil {
			unlocated++
		}
	}
	slog.Info("seller imported", "seller", seller.ID, "stores", n, "products", m, "unlocated", unlocated)
	return nil
}

// flatten assigns missing IDs from stable names and links each product to
// its store, so importing the same manifest again updates rows in place.
func flatten(seller SellerEntry) ([]domain.Store, []domain.Product) {
	stores := make([]domain.Store, 0, len(seller.Stores))
	var products []domain.Product
	for _, e := range seller.Stores {
		st := e.Store
		if st.SellerID == "" {
			st.SellerID = seller.ID
		}
		if st.ID == "" {
			st.ID = usecases.StoreID(st.SellerID, st.Name, st.Address)
		}
		stores = append(stores, st)
		for _, p := range e.Products {
			p.StoreID = st.ID
			if p.ID == "" {
				p.ID = usecases.ProductID(st.ID, p.Name)
			}
			products = append(products, p)
		}
	}
	return stores, products
}
