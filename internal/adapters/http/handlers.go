package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/ports"
	"github.com/localmart/storefront/internal/core/usecases"
)

const maxBatchIDs = 100

// queryFloat parses an optional float query parameter. Unlike
// fiber.Ctx.QueryFloat it reports malformed input instead of hiding it.
func queryFloat(c *fiber.Ctx, key string, def float64) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, domain.InvalidArgument("%s must be a number", key)
	}
	return v, nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.InvalidArgument("%s must be an integer", key)
	}
	return v, nil
}

// queryCoordinate reads the required lat/lon pair.
func queryCoordinate(c *fiber.Ctx) (domain.Coordinate, error) {
	if c.Query("lat") == "" || c.Query("lon") == "" {
		return domain.Coordinate{}, domain.InvalidArgument("lat and lon are required")
	}
	lat, err := queryFloat(c, "lat", 0)
	if err != nil {
		return domain.Coordinate{}, err
	}
	lon, err := queryFloat(c, "lon", 0)
	if err != nil {
		return domain.Coordinate{}, err
	}
	return domain.NewCoordinate(lat, lon)
}

// nearbyQuery reads radius_km, limit, offset and expand. The center is left
// to the caller.
func nearbyQuery(c *fiber.Ctx, deps *Dependencies) (usecases.NearbyQuery, error) {
	var q usecases.NearbyQuery
	var err error
	if q.RadiusKm, err = queryFloat(c, "radius_km", deps.defaultRadius()); err != nil {
		return q, err
	}
	if q.Limit, err = queryInt(c, "limit"); err != nil {
		return q, err
	}
	if q.Offset, err = queryInt(c, "offset"); err != nil {
		return q, err
	}
	q.Expand = c.QueryBool("expand", false)
	return q, nil
}

// NearbyStoresHandler returns active stores within a radius of a point.
func NearbyStoresHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := queryCoordinate(c)
		if err != nil {
			return handleError(c, err)
		}
		q, err := nearbyQuery(c, deps)
		if err != nil {
			return handleError(c, err)
		}
		q.Center = center

		res, err := deps.Stores.FindNearby(c.UserContext(), q)
		if err != nil {
			return handleError(c, err)
		}

		SetLinkHeaders(c, Pagination{Offset: res.Offset, Limit: res.Limit, Total: res.Total})
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(res)
	}
}

// NearbyStoresByAddressHandler geocodes an address and returns the stores around it.
func NearbyStoresByAddressHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := c.Query("address")
		if strings.TrimSpace(address) == "" {
			return errBadRequest(c, "address query parameter is required")
		}
		if len(address) > 500 {
			return errBadRequest(c, "address too long (max 500 characters)")
		}
		q, err := nearbyQuery(c, deps)
		if err != nil {
			return handleError(c, err)
		}

		res, err := deps.Stores.FindNearbyByAddress(c.UserContext(), address, q)
		if err != nil {
			return handleError(c, err)
		}

		SetLinkHeaders(c, Pagination{Offset: res.Offset, Limit: res.Limit, Total: res.Total})
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(res)
	}
}

// BatchStoresHandler returns several stores by ID.
// Query: ?ids=id1,id2,id3 (max 100)
func BatchStoresHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Query("ids")
		if raw == "" {
			return errBadRequest(c, "ids query parameter is required")
		}

		var ids []string
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return errBadRequest(c, "ids query parameter is required")
		}
		if len(ids) > maxBatchIDs {
			return errBadRequest(c, "too many ids (max 100)")
		}

		stores, err := deps.Stores.GetByIDs(c.UserContext(), ids)
		if err != nil {
			return handleError(c, err)
		}
		if stores == nil {
			stores = []domain.Store{}
		}
		return c.JSON(stores)
	}
}

// GetStoreHandler returns a single store by ID.
func GetStoreHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "store id is required")
		}

		store, err := deps.Stores.GetByID(c.UserContext(), id)
		if err != nil {
			return handleError(c, err)
		}
		c.Set("Cache-Control", "public, max-age=600")
		return c.JSON(store)
	}
}

type locationRequest struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// UpdateStoreLocationHandler sets the coordinate of a store.
func UpdateStoreLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "store id is required")
		}

		var req locationRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lon == nil {
			return errBadRequest(c, "lat and lon are required")
		}

		loc := domain.Coordinate{Lat: *req.Lat, Lon: *req.Lon}
		if err := deps.Catalog.SaveStoreLocation(c.UserContext(), id, loc); err != nil {
			return handleError(c, err)
		}
		return c.JSON(fiber.Map{"id": id, "location": loc})
	}
}

// NearbyProductsHandler returns products sold by stores near a point.
func NearbyProductsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		center, err := queryCoordinate(c)
		if err != nil {
			return handleError(c, err)
		}
		q, err := nearbyQuery(c, deps)
		if err != nil {
			return handleError(c, err)
		}
		q.Center = center

		query := c.Query("q")
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		filter := ports.ProductFilter{
			Category:    c.Query("category"),
			Query:       query,
			InStockOnly: c.QueryBool("in_stock", false),
		}

		res, err := deps.Products.FindNearby(c.UserContext(), q, filter)
		if err != nil {
			return handleError(c, err)
		}

		SetLinkHeaders(c, Pagination{Offset: res.Offset, Limit: res.Limit, Total: res.Total})
		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(res)
	}
}

// GeocodeHandler resolves a free-text address to a coordinate.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		address := c.Query("address")
		if len(address) > 500 {
			return errBadRequest(c, "address too long (max 500 characters)")
		}

		res, err := deps.Locations.Geocode(c.UserContext(), address)
		if err != nil {
			return handleError(c, err)
		}
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(res)
	}
}

// ReverseGeocodeHandler labels a coordinate with a human-readable address.
// The label falls back to the formatted coordinate when no address is known.
func ReverseGeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc, err := queryCoordinate(c)
		if err != nil {
			return handleError(c, err)
		}

		label := deps.Locations.DescribeCoordinate(c.UserContext(), loc)
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(fiber.Map{"location": loc, "label": label})
	}
}

// DeviceLocationHandler reports the position of the device running the service.
func DeviceLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		loc, err := deps.Locations.ResolveFromDevice(c.UserContext())
		if err != nil {
			return handleError(c, err)
		}
		c.Set("Cache-Control", "no-store")
		return c.JSON(fiber.Map{"location": loc})
	}
}
