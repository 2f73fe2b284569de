package provider

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cjenolov/route-service/internal/routing"
)

// PostgresProvider serves the store and offer catalog from the price
// database. Distance filtering runs in Go over a coarse bounding box so
// the queries stay index-friendly without PostGIS.
type PostgresProvider struct {
	db     *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresProvider creates a provider over an existing pool.
func NewPostgresProvider(db *pgxpool.Pool) *PostgresProvider {
	return &PostgresProvider{
		db:     db,
		logger: log.With().Str("component", "postgres_provider").Logger(),
	}
}

// degreesPerKm approximates one kilometer in latitude degrees; longitude
// is widened by the same factor, which over-fetches away from the equator
// and is corrected by the exact distance check below.
const degreesPerKm = 1.0 / 111.0

// GetStoresNearby returns active stores within radiusKm of the location,
// with Distance populated.
func (p *PostgresProvider) GetStoresNearby(ctx context.Context, loc routing.Location, radiusKm float64) ([]*routing.Store, error) {
	delta := radiusKm * degreesPerKm * 1.5

	rows, err := p.db.Query(ctx, `
		SELECT id, name, chain, address, latitude, longitude
		FROM stores
		WHERE status = 'active'
		  AND latitude BETWEEN $1 AND $2
		  AND longitude BETWEEN $3 AND $4
	`, loc.Lat-delta, loc.Lat+delta, loc.Lng-delta, loc.Lng+delta)
	if err != nil {
		return nil, fmt.Errorf("failed to query stores: %w", err)
	}
	defer rows.Close()

	var stores []*routing.Store
	for rows.Next() {
		store := &routing.Store{}
		var lat, lng *float64
		if err := rows.Scan(&store.ID, &store.Name, &store.Chain, &store.Address, &lat, &lng); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		if lat == nil || lng == nil {
			continue
		}
		store.Location = routing.Location{Lat: *lat, Lng: *lng}
		store.Distance = routing.HaversineKm(loc, store.Location)
		if store.Distance > radiusKm {
			continue
		}
		stores = append(stores, store)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stores: %w", err)
	}

	p.logger.Debug().Int("stores", len(stores)).Float64("radius_km", radiusKm).Msg("Loaded nearby stores")
	return stores, nil
}

// SearchOffers returns current offers matching the item name across all
// chains. Matching is accent-insensitive via the normalized name column.
func (p *PostgresProvider) SearchOffers(ctx context.Context, itemName string, loc routing.Location) ([]*routing.ProductOffer, error) {
	normalized := routing.NormalizeName(itemName)

	rows, err := p.db.Query(ctx, `
		SELECT o.id, o.name, o.price, s.name, s.chain, o.unit,
		       COALESCE(o.image_url, ''), COALESCE(o.ingredients, '')
		FROM offers o
		JOIN stores s ON s.id = o.store_id
		WHERE s.status = 'active'
		  AND o.name_normalized ILIKE '%' || $1 || '%'
		  AND o.valid_to > NOW()
		ORDER BY o.price ASC
		LIMIT 500
	`, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	var offers []*routing.ProductOffer
	for rows.Next() {
		offer := &routing.ProductOffer{}
		if err := rows.Scan(&offer.ID, &offer.Name, &offer.Price, &offer.StoreName,
			&offer.Chain, &offer.Unit, &offer.ImageURL, &offer.Ingredients); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, offer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	return offers, nil
}
