package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/localmart/storefront/internal/core/domain"
	"github.com/localmart/storefront/internal/core/ports"
	"github.com/localmart/storefront/internal/core/usecases"
)

// nearbyArgs are shared by the proximity queries.
func nearbyArgs(deps *Dependencies) graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"lon":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
		"radius_km": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: deps.defaultRadius()},
		"limit":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
		"offset":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
		"expand":    &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
	}
}

func nearbyQueryFromArgs(args map[string]interface{}) (usecases.NearbyQuery, error) {
	center, err := domain.NewCoordinate(args["lat"].(float64), args["lon"].(float64))
	if err != nil {
		return usecases.NearbyQuery{}, err
	}
	return usecases.NearbyQuery{
		Center:   center,
		RadiusKm: args["radius_km"].(float64),
		Limit:    args["limit"].(int),
		Offset:   args["offset"].(int),
		Expand:   args["expand"].(bool),
	}, nil
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	storeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Store",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"seller_id":   &graphql.Field{Type: graphql.String},
			"slug":        &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"category":    &graphql.Field{Type: graphql.String},
			"address":     &graphql.Field{Type: graphql.String},
			"phone":       &graphql.Field{Type: graphql.String},
			"image_url":   &graphql.Field{Type: graphql.String},
			"status":      &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: coordinateType},
			"updated_at":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	nearbyStoreType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NearbyStore",
		Fields: graphql.Fields{
			"store":       &graphql.Field{Type: storeType},
			"distance_km": &graphql.Field{Type: graphql.Float},
		},
	})

	nearbyResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NearbyStores",
		Fields: graphql.Fields{
			"stores":              &graphql.Field{Type: graphql.NewList(nearbyStoreType)},
			"center":              &graphql.Field{Type: coordinateType},
			"requested_radius_km": &graphql.Field{Type: graphql.Float},
			"radius_km":           &graphql.Field{Type: graphql.Float},
			"expanded":            &graphql.Field{Type: graphql.Boolean},
			"offset":              &graphql.Field{Type: graphql.Int},
			"limit":               &graphql.Field{Type: graphql.Int},
			"total":               &graphql.Field{Type: graphql.Int},
		},
	})

	productType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Product",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"store_id":    &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"description": &graphql.Field{Type: graphql.String},
			"category":    &graphql.Field{Type: graphql.String},
			"price_cents": &graphql.Field{Type: graphql.Int},
			"currency":    &graphql.Field{Type: graphql.String},
			"stock":       &graphql.Field{Type: graphql.Int},
			"image_url":   &graphql.Field{Type: graphql.String},
		},
	})

	storeSummaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "StoreSummary",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"slug":     &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: coordinateType},
		},
	})

	nearbyProductType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NearbyProduct",
		Fields: graphql.Fields{
			"product":     &graphql.Field{Type: productType},
			"store":       &graphql.Field{Type: storeSummaryType},
			"distance_km": &graphql.Field{Type: graphql.Float},
		},
	})

	nearbyProductsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "NearbyProducts",
		Fields: graphql.Fields{
			"products":            &graphql.Field{Type: graphql.NewList(nearbyProductType)},
			"center":              &graphql.Field{Type: coordinateType},
			"requested_radius_km": &graphql.Field{Type: graphql.Float},
			"radius_km":           &graphql.Field{Type: graphql.Float},
			"expanded":            &graphql.Field{Type: graphql.Boolean},
			"stores_scanned":      &graphql.Field{Type: graphql.Int},
			"offset":              &graphql.Field{Type: graphql.Int},
			"limit":               &graphql.Field{Type: graphql.Int},
			"total":               &graphql.Field{Type: graphql.Int},
		},
	})

	geocodeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeocodeResult",
		Fields: graphql.Fields{
			"location":          &graphql.Field{Type: coordinateType},
			"formatted_address": &graphql.Field{Type: graphql.String},
			"place_id":          &graphql.Field{Type: graphql.String},
			"partial":           &graphql.Field{Type: graphql.Boolean},
		},
	})

	productArgs := nearbyArgs(deps)
	productArgs["category"] = &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""}
	productArgs["q"] = &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""}
	productArgs["in_stock"] = &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"nearbyStores": &graphql.Field{
				Type:        nearbyResultType,
				Description: "Active stores near a point, nearest first",
				Args:        nearbyArgs(deps),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q, err := nearbyQueryFromArgs(p.Args)
					if err != nil {
						return nil, err
					}
					return deps.Stores.FindNearby(p.Context, q)
				},
			},
			"nearbyProducts": &graphql.Field{
				Type:        nearbyProductsType,
				Description: "Products sold by stores near a point",
				Args:        productArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q, err := nearbyQueryFromArgs(p.Args)
					if err != nil {
						return nil, err
					}
					return deps.Products.FindNearby(p.Context, q, ports.ProductFilter{
						Category:    p.Args["category"].(string),
						Query:       p.Args["q"].(string),
						InStockOnly: p.Args["in_stock"].(bool),
					})
				},
			},
			"store": &graphql.Field{
				Type:        storeType,
				Description: "Get a store by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Stores.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"geocode": &graphql.Field{
				Type:        geocodeType,
				Description: "Resolve an address to a coordinate",
				Args: graphql.FieldConfigArgument{
					"address": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Locations.Geocode(p.Context, p.Args["address"].(string))
				},
			},
			"describeLocation": &graphql.Field{
				Type:        graphql.String,
				Description: "Human-readable label for a coordinate",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c, err := domain.NewCoordinate(p.Args["lat"].(float64), p.Args["lon"].(float64))
					if err != nil {
						return nil, err
					}
					return deps.Locations.DescribeCoordinate(p.Context, c), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Query == "" {
			return errBadRequest(c, "query is required")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		c.Set(fiber.HeaderCacheControl, "no-store")
		return c.JSON(result)
	}
}
