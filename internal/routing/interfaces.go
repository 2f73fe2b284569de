package routing

import "context"

// DataProvider supplies the store and offer catalog the optimizer works
// over. Implementations are expected to return stores sorted however they
// like; the service re-sorts and caps candidates itself.
type DataProvider interface {
	// GetStoresNearby returns stores within radiusKm of the location,
	// with Distance populated.
	GetStoresNearby(ctx context.Context, loc Location, radiusKm float64) ([]*Store, error)

	// SearchOffers returns product offers matching the item name across
	// all stores near the location.
	SearchOffers(ctx context.Context, itemName string, loc Location) ([]*ProductOffer, error)
}

// RoutePlanner estimates travel distance along an ordered set of
// waypoints. Implementations may call an external routing engine; the
// service falls back to straight-line distance when the planner fails.
type RoutePlanner interface {
	RouteDistanceKm(ctx context.Context, start Location, waypoints []Location) (float64, error)
}
