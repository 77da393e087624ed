package domain

import (
	"time"
)

// Store lifecycle states. Only active stores take part in discovery.
const (
	StoreActive    = "active"
	StorePending   = "pending"
	StoreSuspended = "suspended"
)

// Product lifecycle states.
const (
	ProductActive   = "active"
	ProductDraft    = "draft"
	ProductArchived = "archived"
)

// Store is a seller's storefront. Location is nil until the store has been
// geocoded; such stores are listed but never matched by proximity queries.
type Store struct {
	ID          string         `json:"id"`
	SellerID    string         `json:"seller_id"`
	Slug        string         `json:"slug"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category,omitempty"`
	Address     string         `json:"address,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	ImageURL    string         `json:"image_url,omitempty"`
	Status      string         `json:"status"`
	Location    *Coordinate    `json:"location,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// EntityID returns the store ID.
func (s Store) EntityID() string { return s.ID }

// Coordinate returns the store location, if known.
func (s Store) Coordinate() (Coordinate, bool) {
	if s.Location == nil {
		return Coordinate{}, false
	}
	return *s.Location, true
}

// Product is an item listed by a store.
type Product struct {
	ID          string    `json:"id"`
	StoreID     string    `json:"store_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	PriceCents  int64     `json:"price_cents"`
	Currency    string    `json:"currency"`
	Stock       int       `json:"stock"`
	Status      string    `json:"status"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NearbyStore is a store annotated with its distance from the search center.
type NearbyStore struct {
	Store      Store   `json:"store"`
	DistanceKm float64 `json:"distance_km"`
}

// NearbyResult is one page of a proximity search over stores.
type NearbyResult struct {
	Stores            []NearbyStore `json:"stores"`
	Center            Coordinate    `json:"center"`
	RequestedRadiusKm float64       `json:"requested_radius_km"`
	RadiusKm          float64       `json:"radius_km"`
	Expanded          bool          `json:"expanded"`
	Offset            int           `json:"offset"`
	Limit             int           `json:"limit"`
	Total             int           `json:"total"`
}

// StoreSummary is the subset of a store embedded in product results.
type StoreSummary struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Slug     string     `json:"slug"`
	Location Coordinate `json:"location"`
}

// NearbyProduct is a product annotated with the distance of the store selling it.
type NearbyProduct struct {
	Product    Product      `json:"product"`
	Store      StoreSummary `json:"store"`
	DistanceKm float64      `json:"distance_km"`
}

// NearbyProductResult is one page of a proximity search over products.
type NearbyProductResult struct {
	Products          []NearbyProduct `json:"products"`
	Center            Coordinate      `json:"center"`
	RequestedRadiusKm float64         `json:"requested_radius_km"`
	RadiusKm          float64         `json:"radius_km"`
	Expanded          bool            `json:"expanded"`
	StoresScanned     int             `json:"stores_scanned"`
	Offset            int             `json:"offset"`
	Limit             int             `json:"limit"`
	Total             int             `json:"total"`
}

// Store event types published on the catalog stream.
const (
	StoreCreated = "created"
	StoreUpdated = "updated"
	StoreDeleted = "deleted"
	StoreLocated = "located"
)

// StoreEvent announces a change to the store catalog.
type StoreEvent struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	StoreID  string      `json:"store_id"`
	Location *Coordinate `json:"location,omitempty"`
	Time     time.Time   `json:"time"`
}
