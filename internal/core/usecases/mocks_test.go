package usecases_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/ports"
)

// --- Mock StoreRepository ---

type mockStoreRepo struct {
	mu sync.Mutex

	listActiveFn     func(ctx context.Context) ([]domain.Store, error)
	getByIDFn        func(ctx context.Context, id string) (*domain.Store, error)
	getByIDsFn       func(ctx context.Context, ids []string) ([]domain.Store, error)
	upsertBatchFn    func(ctx context.Context, stores []domain.Store) error
	updateLocationFn func(ctx context.Context, id string, c domain.Coordinate) error

	listActiveCalls int
}

func (m *mockStoreRepo) Upsert(ctx context.Context, store *domain.Store) error { return nil }

func (m *mockStoreRepo) UpsertBatch(ctx context.Context, stores []domain.Store) error {
	if m.upsertBatchFn != nil {
		return m.upsertBatchFn(ctx, stores)
	}
	return nil
}

func (m *mockStoreRepo) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockStoreRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Store, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (m *mockStoreRepo) ListActive(ctx context.Context) ([]domain.Store, error) {
	m.mu.Lock()
	m.listActiveCalls++
	m.mu.Unlock()
	if m.listActiveFn != nil {
		return m.listActiveFn(ctx)
	}
	return nil, nil
}


func (m *mockStoreRepo) ListMissingLocation(ctx context.Context, limit int) ([]domain.Store, error) {
	return nil, nil
}

func (m *mockStoreRepo) UpdateLocation(ctx context.Context, id string, c domain.Coordinate) error {
	if m.updateLocationFn != nil {
		return m.updateLocationFn(ctx, id, c)
	}
	return nil
}

func (m *mockStoreRepo) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listActiveCalls
}

// --- Mock ProductRepository ---

type mockProductRepo struct {
	listFn        func(ctx context.Context, storeIDs []string, filter ports.ProductFilter) ([]domain.Product, error)
	upsertBatchFn func(ctx context.Context, products []domain.Product) error

	batches [][]string
}

func (m *mockProductRepo) Upsert(ctx context.Context, p *domain.Product) error { return nil }

func (m *mockProductRepo) UpsertBatch(ctx context.Context, products []domain.Product) error {
	if m.upsertBatchFn != nil {
		return m.upsertBatchFn(ctx, products)
	}
	return nil
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}

func (m *mockProductRepo) ListActiveByStores(ctx context.Context, storeIDs []string, filter ports.ProductFilter) ([]domain.Product, error) {
	m.batches = append(m.batches, append([]string(nil), storeIDs...))
	if m.listFn != nil {
		return m.listFn(ctx, storeIDs, filter)
	}
	return nil, nil
}

// --- In-memory cache ---

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, ports.ErrCacheMiss
	}
	return v, nil
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttlSeconds
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// --- testify mocks for external services ---

type mockGeocoder struct{ mock.Mock }

func (m *mockGeocoder) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(domain.GeocodeResult), args.Error(1)
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, c domain.Coordinate) (string, error) {
	args := m.Called(ctx, c)
	return args.String(0), args.Error(1)
}

type mockLocator struct{ mock.Mock }

func (m *mockLocator) Locate(ctx context.Context) (domain.Coordinate, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Coordinate), args.Error(1)
}

type blockingLocator struct {
	released chan struct{}
}

func (l *blockingLocator) Locate(ctx context.Context) (domain.Coordinate, error) {
	<-ctx.Done()
	close(l.released)
	return domain.Coordinate{}, ctx.Err()
}

type recordingPublisher struct {
	mu         sync.Mutex
	events     []*domain.StoreEvent
	broadcasts [][]byte
	err        error
}

func (p *recordingPublisher) PublishStoreEvent(ctx context.Context, evt *domain.StoreEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

func (p *recordingPublisher) PublishBroadcast(ctx context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.broadcasts = append(p.broadcasts, data)
	return p.err
}

// --- fixtures ---

func coord(lat, lon float64) *domain.Coordinate {
	return &domain.Coordinate{Lat: lat, Lon: lon}
}

// Scenario catalog: A ≈1.1 km, B ≈3.3 km, C far away, D unlocated.
func scenarioStores() []domain.Store {
	return []domain.Store{
		{ID: "C", Name: "Gamma", Status: domain.StoreActive, Location: coord(10, 10)},
		{ID: "B", Name: "Beta", Status: domain.StoreActive, Location: coord(0.03, 0)},
		{ID: "A", Name: "Alpha", Status: domain.StoreActive, Location: coord(0.01, 0)},
		{ID: "D", Name: "Delta", Status: domain.StoreActive},
	}
}
