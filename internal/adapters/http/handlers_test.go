package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/localmart/storefront/internal/adapters/http"
	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/ports"
	"github.com/localmart/storefront/internal/core/usecases"
)

// ---- Mock repositories ----

type mockStoreRepo struct {
	listActiveFn     func(ctx context.Context) ([]domain.Store, error)
	getByIDFn        func(ctx context.Context, id string) (*domain.Store, error)
	getByIDsFn       func(ctx context.Context, ids []string) ([]domain.Store, error)
	updateLocationFn func(ctx context.Context, id string, c domain.Coordinate) error
}

func (m *mockStoreRepo) Upsert(ctx context.Context, s *domain.Store) error       { return nil }
func (m *mockStoreRepo) UpsertBatch(ctx context.Context, s []domain.Store) error { return nil }
func (m *mockStoreRepo) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, fmt.Errorf("store %s: %w", id, domain.ErrNotFound)
}
func (m *mockStoreRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Store, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}
func (m *mockStoreRepo) ListActive(ctx context.Context) ([]domain.Store, error) {
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

type mockProductRepo struct {
	listFn func(ctx context.Context, storeIDs []string, f ports.ProductFilter) ([]domain.Product, error)
}

func (m *mockProductRepo) Upsert(ctx context.Context, p *domain.Product) error       { return nil }
func (m *mockProductRepo) UpsertBatch(ctx context.Context, p []domain.Product) error { return nil }
func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return nil, domain.ErrNotFound
}
func (m *mockProductRepo) ListActiveByStores(ctx context.Context, storeIDs []string, f ports.ProductFilter) ([]domain.Product, error) {
	if m.listFn != nil {
		return m.listFn(ctx, storeIDs, f)
	}
	return nil, nil
}

type stubGeocoder struct {
	geocodeFn func(ctx context.Context, address string) (domain.GeocodeResult, error)
	reverseFn func(ctx context.Context, c domain.Coordinate) (string, error)
}

func (s *stubGeocoder) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	if s.geocodeFn != nil {
		return s.geocodeFn(ctx, address)
	}
	return domain.GeocodeResult{}, domain.ErrGeocodeNotFound
}

func (s *stubGeocoder) ReverseGeocode(ctx context.Context, c domain.Coordinate) (string, error) {
	if s.reverseFn != nil {
		return s.reverseFn(ctx, c)
	}
	return "", domain.ErrGeocodeNotFound
}

type stubLocator struct {
	coord domain.Coordinate
	err   error
}

func (s stubLocator) Locate(ctx context.Context) (domain.Coordinate, error) {
	return s.coord, s.err
}

type okPinger struct{ err error }

func (p okPinger) Ping(ctx context.Context) error { return p.err }

// ---- Test helpers ----

func loc(lat, lon float64) *domain.Coordinate {
	return &domain.Coordinate{Lat: lat, Lon: lon}
}

// sampleStores places A about 1.1 km and B about 3.3 km north of (0, 0).
func sampleStores() []domain.Store {
	return []domain.Store{
		{ID: "A", Name: "Alpha Grocer", Slug: "alpha-grocer", Status: domain.StoreActive, Location: loc(0.01, 0)},
		{ID: "B", Name: "Beta Books", Slug: "beta-books", Status: domain.StoreActive, Location: loc(0.03, 0)},
		{ID: "C", Name: "Far Farm", Slug: "far-farm", Status: domain.StoreActive, Location: loc(10, 10)},
		{ID: "D", Name: "Nowhere Deli", Slug: "nowhere-deli", Status: domain.StoreActive},
	}
}

type depsConfig struct {
	stores   *mockStoreRepo
	products *mockProductRepo
	geocoder ports.Geocoder
	locator  ports.DeviceLocator
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*depsConfig)) *handler.Dependencies {
	cfg := &depsConfig{
		stores: &mockStoreRepo{
			listActiveFn: func(ctx context.Context) ([]domain.Store, error) { return sampleStores(), nil },
		},
		products: &mockProductRepo{},
		geocoder: &stubGeocoder{},
	}
	for _, o := range opts {
		o(cfg)
	}

	locOpts := usecases.DefaultLocationOptions()
	locOpts.GeocodeAttempts = 1
	locOpts.DeviceTimeout = time.Second
	locations := usecases.NewLocationService(cfg.locator, cfg.geocoder, nil, locOpts)

	discovery := usecases.DefaultDiscoveryOptions()
	stores := usecases.NewStoreService(cfg.stores, nil, locations, discovery)
	return &handler.Dependencies{
		Stores:          stores,
		Products:        usecases.NewProductService(stores, cfg.products, discovery),
		Locations:       locations,
		Catalog:         usecases.NewCatalogService(cfg.stores, cfg.products, nil, stores),
		DefaultRadiusKm: 5,
	}
}

func get(t *testing.T, app *fiber.App, target string) *httpResult {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return &httpResult{status: resp.StatusCode, header: resp.Header.Get, body: body}
}

type httpResult struct {
	status int
	header func(string) string
	body   []byte
}

func (r *httpResult) decode(t *testing.T, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (r *httpResult) apiError(t *testing.T) handler.APIError {
	t.Helper()
	var e handler.APIError
	r.decode(t, &e)
	return e
}

// ---- Store discovery ----

func TestNearbyStores_Success(t *testing.T) {
	app := setupApp(makeDeps())

	res := get(t, app, "/v1/stores/nearby?lat=0&lon=0&radius_km=5")
	require.Equal(t, 200, res.status)

	var body domain.NearbyResult
	res.decode(t, &body)
	require.Len(t, body.Stores, 2)
	assert.Equal(t, "A", body.Stores[0].Store.ID)
	assert.Equal(t, "B", body.Stores[1].Store.ID)
	assert.InDelta(t, 1.112, body.Stores[0].DistanceKm, 0.01)
	assert.Equal(t, 2, body.Total)
	assert.False(t, body.Expanded)
	assert.Equal(t, "public, max-age=60", res.header("Cache-Control"))
	assert.NotEmpty(t, res.header("ETag"))
}

func TestNearbyStores_DefaultRadius(t *testing.T) {
	app := setupApp(makeDeps())

	res := get(t, app, "/v1/stores/nearby?lat=0&lon=0")
	require.Equal(t, 200, res.status)

	var body domain.NearbyResult
	res.decode(t, &body)
	assert.Equal(t, 5.0, body.RadiusKm)
	assert.Len(t, body.Stores, 2)
}

func TestNearbyStores_Pagination(t *testing.T) {
	app := setupApp(makeDeps())

	res := get(t, app, "/v1/stores/nearby?lat=0&lon=0&radius_km=5&limit=1")
	require.Equal(t, 200, res.status)

	var body domain.NearbyResult
	res.decode(t, &body)
	require.Len(t, body.Stores, 1)
	assert.Equal(t, "A", body.Stores[0].Store.ID)
	assert.Equal(t, 2, body.Total)

	link := res.header("Link")
	assert.Contains(t, link, `rel="next"`)
	assert.Contains(t, link, "offset=1")
	assert.Contains(t, link, "lat=0")

	res = get(t, app, "/v1/stores/nearby?lat=0&lon=0&radius_km=5&limit=1&offset=1")
	require.Equal(t, 200, res.status)
	res.decode(t, &body)
	require.Len(t, body.Stores, 1)
	assert.Equal(t, "B", body.Stores[0].Store.ID)
	assert.NotContains(t, res.header("Link"), `rel="next"`)
}

func TestNearbyStores_Expand(t *testing.T) {
	app := setupApp(makeDeps())

	res := get(t, app, "/v1/stores/nearby?lat=0&lon=0&radius_km=0.5")
	require.Equal(t, 200, res.status)
	var body domain.NearbyResult
	res.decode(t, &body)
	assert.Empty(t, body.Stores)

	res = get(t, app, "/v1/stores/nearby?lat=0&lon=0&radius_km=0.5&expand=true")
	require.Equal(t, 200, res.status)
	res.decode(t, &body)
	require.Len(t, body.Stores, 1)
	assert.True(t, body.Expanded)
	assert.Equal(t, 0.5, body.RequestedRadiusKm)
	assert.Equal(t, 2.0, body.RadiusKm)
}

func TestNearbyStores_BadRequests(t *testing.T) {
	app := setupApp(makeDeps())

	for _, target := range []string{
		"/v1/stores/nearby",
		"/v1/stores/nearby?lat=0",
		"/v1/stores/nearby?lat=abc&lon=0",
		"/v1/stores/nearby?lat=91&lon=0",
		"/v1/stores/nearby?lat=0&lon=181",
		"/v1/stores/nearby?lat=0&lon=0&radius_km=-1",
		"/v1/stores/nearby?lat=0&lon=0&radius_km=500",
		"/v1/stores/nearby?lat=0&lon=0&limit=-1",
		"/v1/stores/nearby?lat=0&lon=0&offset=-3",
		"/v1/stores/nearby?lat=0&lon=0&limit=ten",
	} {
		t.Run(target, func(t *testing.T) {
			res := get(t, app, target)
			require.Equal(t, 400, res.status, string(res.body))
			apiErr := res.apiError(t)
			assert.Equal(t, "bad_request", apiErr.Code)
			assert.Equal(t, "no-store", res.header("Cache-Control"))
		})
	}
}

func TestNearbyStores_CatalogUnavailable(t *testing.T) {
	app := setupApp(makeDeps(func(c *depsConfig) {
		c.stores.listActiveFn = func(ctx context.Context) ([]domain.Store, error) {
			return nil, errors.New("connection refused")
		}
	}))

	res := get(t, app, "/v1/stores/nearby?lat=0&lon=0")
	require.Equal(t, 200, res.status)
	var body domain.NearbyResult
	res.decode(t, &body)
	assert.Empty(t, body.Stores)
	assert.Equal(t, 0, body.Total)
}

func TestNearbyStores_ETagNotModified(t *testing.T) {
	app := setupApp(makeDeps())

	first := get(t, app, "/v1/stores/nearby?lat=0&lon=0")
	etag := first.header("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(fiber.MethodGet, "/v1/stores/nearby?lat=0&lon=0", nil)
	req.Header.Set("If-None-Match", etag)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 304, resp.StatusCode)
}

func TestNearbyStoresByAddress(t *testing.T) {
	app := setupApp(makeDeps(func(c *depsConfig) {
		c.geocoder = &stubGeocoder{
			geocodeFn: func(ctx context.Context, address string) (domain.GeocodeResult, error) {
				switch address {
				case "1 Main St":
					return domain.GeocodeResult{Location: domain.Coordinate{}}, nil
				case "quota":
					return domain.GeocodeResult{}, domain.ErrGeocodeServiceError
				}
				return domain.GeocodeResult{}, domain.ErrGeocodeNotFound
			},
		}
	}))

	res := get(t, app, "/v1/stores/nearby/by-address?address=1%20Main%20St&radius_km=2")
	require.Equal(t, 200, res.status, string(res.body))
	var body domain.NearbyResult
	res.decode(t, &body)
	require.Len(t, body.Stores, 1)
	assert.Equal(t, "A", body.Stores[0].Store.ID)

	res = get(t, app, "/v1/stores/nearby/by-address?address=Atlantis")
	assert.Equal(t, 404, res.status)
	assert.Equal(t, "geocode_not_found", res.apiError(t).Code)

	res = get(t, app, "/v1/stores/nearby/by-address?address=quota")
	assert.Equal(t, 502, res.status)
	assert.Equal(t, "geocode_unavailable", res.apiError(t).Code)
	assert.NotEmpty(t, res.header("Retry-After"))

	res = get(t, app, "/v1/stores/nearby/by-address")
	assert.Equal(t, 400, res.status)
}

func TestGetStore(t *testing.T) {
	app := setupApp(makeDeps(func(c *depsConfig) {
		c.stores.getByIDFn = func(ctx context.Context, id string) (*domain.Store, error) {
			if id == "A" {
				s := sampleStores()[0]
				return &s, nil
			}
			return nil, fmt.Errorf("store %s: %w", id, domain.ErrNotFound)
		}
	}))

	res := get(t, app, "/v1/stores/A")
	require.Equal(t, 200, res.status)
	var store domain.Store
	res.decode(t, &store)
	assert.Equal(t, "Alpha Grocer", store.Name)
	assert.Equal(t, "public, max-age=600", res.header("Cache-Control"))

	res = get(t, app, "/v1/stores/missing")
	assert.Equal(t, 404, res.status)
	assert.Equal(t, "not_found", res.apiError(t).Code)
}

func TestBatchStores(t *testing.T) {
	var requested []string
	app := setupApp(makeDeps(func(c *depsConfig) {
		c.stores.getByIDsFn = func(ctx context.Context, ids []string) ([]domain.Store, error) {
			requested = ids
			return sampleStores()[:2], nil
		}
	}))

	res := get(t, app, "/v1/stores/batch?ids=A,%20B,,")
	require.Equal(t, 200, res.status)
	assert.Equal(t, []string{"A", "B"}, requested)
	var stores []domain.Store
	res.decode(t, &stores)
	assert.Len(t, stores, 2)

	res = get(t, app, "/v1/stores/batch")
	assert.Equal(t, 400, res.status)

	ids := make([]string, 101)
	for i := range ids {
		ids[i] = fmt.Sprintf("s%d", i)
	}
	res = get(t, app, "/v1/stores/batch?ids="+strings.Join(ids, ","))
	assert.Equal(t, 400, res.status)
}

func TestUpdateStoreLocation(t *testing.T) {
	var saved domain.Coordinate
	app := setupApp(makeDeps(func(c *depsConfig) {
		c.stores.updateLocationFn = func(ctx context.Context, id string, loc domain.Coordinate) error {
			if id != "A" {
				return fmt.Errorf("store %s: %w", id, domain.ErrNotFound)
			}
			saved = loc
			return nil
		}
	}))

	put := func(id, body string) int {
		req := httptest.NewRequest(fiber.MethodPut, "/v1/stores/"+id+"/location", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, 200, put("A", `{"lat": 40.4168, "lon": -3.7038}`))
	assert.Equal(t, domain.Coordinate{Lat: 40.4168, Lon: -3.7038}, saved)

	assert.Equal(t, 400, put("A", `{"lat": 95, "lon": 0}`))
	assert.Equal(t, 400, put("A", `{"lat": 1}`))
	assert.Equal(t, 400, put("A", `not json`))
	assert.Equal(t, 404, put("Z", `{"lat": 1, "lon": 1}`))
}

// ---- Products ----

func TestNearbyProducts(t *testing.T) {
	var gotFilter ports.ProductFilter
	app := setupApp(makeDeps(func(c *depsConfig) {
		c.products.listFn = func(ctx context.Context, storeIDs []string, f ports.ProductFilter) ([]domain.Product, error) {
			gotFilter = f
			var out []domain.Product
			for _, id := range storeIDs {
				out = append(out, domain.Product{
					ID: "p-" + id, StoreID: id, Name: "Bread from " + id,
					PriceCents: 300, Currency: "USD", Stock: 1, Status: domain.ProductActive,
				})
			}
			return out, nil
		}
	}))

	res := get(t, app, "/v1/products/nearby?lat=0&lon=0&radius_km=5&category=bakery&q=bread&in_stock=true")
	require.Equal(t, 200, res.status, string(res.body))

	var body domain.NearbyProductResult
	res.decode(t, &body)
	require.Len(t, body.Products, 2)
	assert.Equal(t, "p-A", body.Products[0].Product.ID)
	assert.Equal(t, "A", body.Products[0].Store.ID)
	assert.Equal(t, "p-B", body.Products[1].Product.ID)
	assert.Equal(t, 2, body.StoresScanned)
	assert.Equal(t, ports.ProductFilter{Category: "bakery", Query: "bread", InStockOnly: true}, gotFilter)

	res = get(t, app, "/v1/products/nearby?lat=0")
	assert.Equal(t, 400, res.status)
}

// ---- Location ----

func TestGeocode(t *testing.T) {
	app := setupApp(makeDeps(func(c *depsConfig) {
		c.geocoder = &stubGeocoder{
			geocodeFn: func(ctx context.Context, address string) (domain.GeocodeResult, error) {
				assert.Equal(t, "Puerta del Sol, Madrid", address)
				return domain.GeocodeResult{
					Location:         domain.Coordinate{Lat: 40.4168, Lon: -3.7038},
					FormattedAddress: "Puerta del Sol, 28013 Madrid, Spain",
				}, nil
			},
		}
	}))

	res := get(t, app, "/v1/geocode?address=%20Puerta%20del%20Sol,%20%20Madrid%20")
	require.Equal(t, 200, res.status, string(res.body))
	var body domain.GeocodeResult
	res.decode(t, &body)
	assert.Equal(t, domain.Coordinate{Lat: 40.4168, Lon: -3.7038}, body.Location)

	res = get(t, app, "/v1/geocode?address=%20%20")
	assert.Equal(t, 400, res.status)
}

func TestReverseGeocode(t *testing.T) {
	app := setupApp(makeDeps(func(c *depsConfig) {
		c.geocoder = &stubGeocoder{
			reverseFn: func(ctx context.Context, c domain.Coordinate) (string, error) {
				if c.Lat > 40 {
					return "Puerta del Sol, Madrid", nil
				}
				return "", domain.ErrGeocodeServiceError
			},
		}
	}))

	var body struct {
		Label string `json:"label"`
	}
	res := get(t, app, "/v1/geocode/reverse?lat=40.4168&lon=-3.7038")
	require.Equal(t, 200, res.status)
	res.decode(t, &body)
	assert.Equal(t, "Puerta del Sol, Madrid", body.Label)

	res = get(t, app, "/v1/geocode/reverse?lat=1.5&lon=2.25")
	require.Equal(t, 200, res.status)
	res.decode(t, &body)
	assert.Equal(t, "1.500000, 2.250000", body.Label)
}

func TestDeviceLocation(t *testing.T) {
	app := setupApp(makeDeps(func(c *depsConfig) {
		c.locator = stubLocator{coord: domain.Coordinate{Lat: 51.5074, Lon: -0.1278}}
	}))

	res := get(t, app, "/v1/location/device")
	require.Equal(t, 200, res.status)
	var body struct {
		Location domain.Coordinate `json:"location"`
	}
	res.decode(t, &body)
	assert.Equal(t, domain.Coordinate{Lat: 51.5074, Lon: -0.1278}, body.Location)
	assert.Equal(t, "no-store", res.header("Cache-Control"))
}

func TestDeviceLocation_Unavailable(t *testing.T) {
	for name, locator := range map[string]ports.DeviceLocator{
		"no device":         nil,
		"permission denied": stubLocator{err: errors.New("permission denied")},
		"invalid fix":       stubLocator{coord: domain.Coordinate{Lat: 123}},
	} {
		t.Run(name, func(t *testing.T) {
			app := setupApp(makeDeps(func(c *depsConfig) { c.locator = locator }))

			res := get(t, app, "/v1/location/device")
			require.Equal(t, 503, res.status)
			apiErr := res.apiError(t)
			assert.Equal(t, "location_unavailable", apiErr.Code)
			assert.Contains(t, apiErr.Message, "search by address")
		})
	}
}

// ---- GraphQL ----

func TestGraphQL_NearbyStores(t *testing.T) {
	app := setupApp(makeDeps())

	query := `{"query": "{ nearbyStores(lat: 0, lon: 0, radius_km: 5) { total stores { distance_km store { id name location { lat lon } } } } }"}`
	req := httptest.NewRequest(fiber.MethodPost, "/graphql", strings.NewReader(query))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var out struct {
		Data struct {
			NearbyStores struct {
				Total  int `json:"total"`
				Stores []struct {
					DistanceKm float64 `json:"distance_km"`
					Store      struct {
						ID       string            `json:"id"`
						Location domain.Coordinate `json:"location"`
					} `json:"store"`
				} `json:"stores"`
			} `json:"nearbyStores"`
		} `json:"data"`
		Errors []any `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Empty(t, out.Errors)
	assert.Equal(t, 2, out.Data.NearbyStores.Total)
	require.Len(t, out.Data.NearbyStores.Stores, 2)
	assert.Equal(t, "A", out.Data.NearbyStores.Stores[0].Store.ID)
	assert.Equal(t, 0.01, out.Data.NearbyStores.Stores[0].Store.Location.Lat)
}

func TestGraphQL_InvalidCoordinate(t *testing.T) {
	app := setupApp(makeDeps())

	query := `{"query": "{ nearbyStores(lat: 99, lon: 0) { total } }"}`
	req := httptest.NewRequest(fiber.MethodPost, "/graphql", strings.NewReader(query))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var out struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Errors)
	assert.Contains(t, out.Errors[0].Message, "latitude")
}

// ---- Health & infra ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	res := get(t, app, "/v1/health")
	require.Equal(t, 200, res.status)
	var body map[string]any
	res.decode(t, &body)
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, res.header("X-Request-ID"))
}

func TestReady(t *testing.T) {
	deps := makeDeps()
	app := setupApp(deps)
	res := get(t, app, "/v1/ready")
	assert.Equal(t, 503, res.status, "database is required")

	deps = makeDeps()
	deps.DB = okPinger{}
	deps.Cache = okPinger{}
	res = get(t, setupApp(deps), "/v1/ready")
	require.Equal(t, 200, res.status)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	res.decode(t, &body)
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "ok", body.Checks["database"])
	assert.Equal(t, "not configured", body.Checks["nats"])

	deps.Cache = okPinger{err: errors.New("dial tcp: refused")}
	res = get(t, setupApp(deps), "/v1/ready")
	assert.Equal(t, 503, res.status)
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps())

	res := get(t, app, "/ws")
	assert.Equal(t, fiber.StatusUpgradeRequired, res.status)
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupApp(makeDeps())
	_ = get(t, app, "/v1/stores/nearby?lat=0&lon=0")

	res := get(t, app, "/metrics")
	require.Equal(t, 200, res.status)
	assert.Contains(t, string(res.body), "localmart_http_requests_total")
	assert.Contains(t, string(res.body), "localmart_discovery_nearby_searches_total")
}
