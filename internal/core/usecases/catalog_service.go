package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/ports"
	"github.com/localmart/storefront/internal/pkg/logging"
	"github.com/localmart/storefront/internal/pkg/metrics"
)

// CatalogService applies catalog changes and keeps discovery in step with them.
type CatalogService struct {
	stores    ports.StoreRepository
	products  ports.ProductRepository
	publisher ports.EventPublisher
	discovery *StoreService
	now       func() time.Time
}

// NewCatalogService creates a new CatalogService. publisher and discovery may be nil.
func NewCatalogService(
	stores ports.StoreRepository,
	products ports.ProductRepository,
	publisher ports.EventPublisher,
	discovery *StoreService,
) *CatalogService {
	return &CatalogService{
		stores:    stores,
		products:  products,
		publisher: publisher,
		discovery: discovery,
		now:       time.Now,
	}
}

// HandleStoreEvent reacts to a catalog change made by any instance.
func (s *CatalogService) HandleStoreEvent(ctx context.Context, evt *domain.StoreEvent) error {
	if evt == nil || evt.StoreID == "" {
		return domain.InvalidArgument("store event without store id")
	}
	metrics.StoreEvents.WithLabelValues(evt.Type).Inc()
	logging.FromContext(ctx).DebugContext(ctx, "store event", "type", evt.Type, "store_id", evt.StoreID)

	if s.discovery != nil {
		s.discovery.Invalidate()
		s.discovery.Forget(ctx, evt.StoreID)
	}
	return nil
}

// SaveStoreLocation records the coordinate of a store and announces it.
func (s *CatalogService) SaveStoreLocation(ctx context.Context, id string, c domain.Coordinate) error {
	if id == "" {
		return domain.InvalidArgument("store id must not be empty")
	}
	if err := c.Validate(); err != nil {
		return err
	}

	if err := s.stores.UpdateLocation(ctx, id, c); err != nil {
		return fmt.Errorf("update store location: %w", err)
	}

	s.changed(ctx, domain.StoreLocated, id, &c)
	return nil
}

// ImportStores validates and upserts stores, returning how many were written.
func (s *CatalogService) ImportStores(ctx context.Context, stores []domain.Store) (int, error) {
	if len(stores) == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	batch := make([]domain.Store, 0, len(stores))
	for i, st := range stores {
		if err := prepareStore(&st, now); err != nil {
			return 0, fmt.Errorf("store %d: %w", i, err)
		}
		batch = append(batch, st)
	}
	uniqueSlugs(batch)

	if err := s.stores.UpsertBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("upsert stores: %w", err)
	}

	for _, st := range batch {
		s.changed(ctx, domain.StoreUpdated, st.ID, st.Location)
	}
	s.announceImport(ctx, batch)
	return len(batch), nil
}

// ImportProducts validates and upserts products, returning how many were written.
func (s *CatalogService) ImportProducts(ctx context.Context, products []domain.Product) (int, error) {
	if len(products) == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	batch := make([]domain.Product, 0, len(products))
	for i, p := range products {
		if err := prepareProduct(&p, now); err != nil {
			return 0, fmt.Errorf("product %d: %w", i, err)
		}
		batch = append(batch, p)
	}

	if err := s.products.UpsertBatch(ctx, batch); err != nil {
		return 0, fmt.Errorf("upsert products: %w", err)
	}
	return len(batch), nil
}

// changed refreshes local discovery state and publishes the event.
// Publishing is best effort: the catalog write already succeeded.
func (s *CatalogService) changed(ctx context.Context, typ, storeID string, loc *domain.Coordinate) {
	if s.discovery != nil {
		s.discovery.Invalidate()
		s.discovery.Forget(ctx, storeID)
	}
	if s.publisher == nil {
		return
	}

	evt := &domain.StoreEvent{
		ID:       uuid.NewString(),
		Type:     typ,
		StoreID:  storeID,
		Location: loc,
		Time:     s.now().UTC(),
	}
	if err := s.publisher.PublishStoreEvent(ctx, evt); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "publish store event failed",
			"store_id", storeID, "type", typ, "error", err)
	}
}

// ImportSummary is broadcast to every live client after a store import.
type ImportSummary struct {
	Type      string    `json:"type"`
	Stores    int       `json:"stores"`
	Unlocated int       `json:"unlocated"`
	Time      time.Time `json:"time"`
}

func (s *CatalogService) announceImport(ctx context.Context, batch []domain.Store) {
	if s.publisher == nil {
		return
	}
	summary := ImportSummary{Type: "catalog.imported", Stores: len(batch), Time: s.now().UTC()}
	for _, st := range batch {
		if st.Location == nil {
			summary.Unlocated++
		}
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.publisher.PublishBroadcast(ctx, data); err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "broadcast import summary failed", "stores", len(batch), "error", err)
	}
}

func prepareStore(st *domain.Store, now time.Time) error {
	st.Name = strings.TrimSpace(st.Name)
	if st.Name == "" {
		return domain.InvalidArgument("name must not be empty")
	}
	if st.ID == "" {
		st.ID = StoreID(st.SellerID, st.Name, st.Address)
	}
	if st.Slug == "" {
		st.Slug = Slugify(st.Name)
	}
	switch st.Status {
	case "":
		st.Status = domain.StoreActive
	case domain.StoreActive, domain.StorePending, domain.StoreSuspended:
	default:
		return domain.InvalidArgument("unknown store status %q", st.Status)
	}
	if st.Location != nil {
		if err := st.Location.Validate(); err != nil {
			return err
		}
	}
	if st.CreatedAt.IsZero() {
		st.CreatedAt = now
	}
	st.UpdatedAt = now
	return nil
}

func prepareProduct(p *domain.Product, now time.Time) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return domain.InvalidArgument("name must not be empty")
	}
	if p.StoreID == "" {
		return domain.InvalidArgument("product %q has no store", p.Name)
	}
	if p.PriceCents < 0 {
		return domain.InvalidArgument("price must not be negative, got %d", p.PriceCents)
	}
	if p.ID == "" {
		p.ID = ProductID(p.StoreID, p.Name)
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	switch p.Status {
	case "":
		p.Status = domain.ProductActive
	case domain.ProductActive, domain.ProductDraft, domain.ProductArchived:
	default:
		return domain.InvalidArgument("unknown product status %q", p.Status)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	return nil
}

// catalogNamespace scopes the name-based IDs of imported stores and products.
var catalogNamespace = uuid.MustParse("5b7e4f0c-9d1a-4c3e-8f2b-6a0d3e1c7b94")

// StoreID derives the ID of a store that arrives without one, so importing
// the same store twice updates it instead of adding a copy.
func StoreID(sellerID, name, address string) string {
	key := sellerID + "\x00" + strings.TrimSpace(name) + "\x00" + NormalizeAddress(address)
	return uuid.NewSHA1(catalogNamespace, []byte("store\x00"+key)).String()
}

// ProductID derives the ID of a product that arrives without one.
func ProductID(storeID, name string) string {
	return uuid.NewSHA1(catalogNamespace, []byte("product\x00"+storeID+"\x00"+strings.TrimSpace(name))).String()
}

// Slugify lower-cases name, strips accents from Latin letters and joins the
// runs of letters and digits with hyphens. Letters of other scripts are kept.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	var base rune
	for _, r := range norm.NFD.String(name) {
		if unicode.Is(unicode.Mn, r) {
			if unicode.Is(unicode.Latin, base) {
				continue
			}
			if b.Len() > 0 && !dash {
				b.WriteRune(r)
			}
			continue
		}
		base = r
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return norm.NFC.String(strings.TrimSuffix(b.String(), "-"))
}

// uniqueSlugs makes slugs unique per seller within batch. A colliding or
// empty slug gets a suffix taken from the store ID.
func uniqueSlugs(batch []domain.Store) {
	seen := make(map[string]struct{}, len(batch))
	taken := func(seller, slug string) bool {
		_, ok := seen[seller+"/"+slug]
		return ok
	}
	for i := range batch {
		st := &batch[i]
		base := st.Slug
		if base == "" {
			base = "store"
		}
		slug := base
		if st.Slug == "" || taken(st.SellerID, slug) {
			slug = base + "-" + idSuffix(st.ID)
		}
		for n := 2; taken(st.SellerID, slug); n++ {
			slug = fmt.Sprintf("%s-%s-%d", base, idSuffix(st.ID), n)
		}
		seen[st.SellerID+"/"+slug] = struct{}{}
		st.Slug = slug
	}
}

func idSuffix(id string) string {
	s := Slugify(strings.ReplaceAll(id, "-", ""))
	if len(s) > 8 {
		s = s[:8]
	}
	if s == "" {
		return "x"
	}
	return s
}
