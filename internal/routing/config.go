package routing

import "time"

// Config contains tuning knobs for the route optimization core.
type Config struct {
	// Candidate selection
	SearchRadiusKm     float64 // Default store search radius around the shopper
	MaxCandidateStores int     // Cap on stores pulled from the provider

	// Matching
	HouseBrandBonus int64 // Ranking-only discount for house-brand offers, minor units

	// Multi-store search
	MaxStops            int     // Hard cap on stops in a multi-store plan
	MaxExtraDistanceKm  float64 // Added travel budget over the single-store baseline
	DistancePenaltyPerKm int64  // Minor units subtracted from a stop's savings per added km
	MinStopSavings      int64   // A stop must beat this to be added at all

	// Recommendation thresholds
	MinMultiSavings    int64   // Absolute savings needed to recommend a split
	MinMultiSavingsPct float64 // Percentage of the best single total, 0-100

	// Result cache
	CacheTTL time.Duration

	// Fingerprinting
	LocationPrecision int // Decimal places kept when rounding coordinates

	// Upstream fetch
	FetchConcurrency int // Concurrent per-item offer searches

	// Validation limits
	MaxItems int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		SearchRadiusKm:       15.0,
		MaxCandidateStores:   50,
		HouseBrandBonus:      50, // 0.50 in minor units
		MaxStops:             3,
		MaxExtraDistanceKm:   5.0,
		DistancePenaltyPerKm: 20, // 0.20 per km
		MinStopSavings:       50,
		MinMultiSavings:      100, // 1.00
		MinMultiSavingsPct:   2.0,
		CacheTTL:             5 * time.Minute,
		LocationPrecision:    3, // ~110 m grid
		FetchConcurrency:     8,
		MaxItems:             100,
	}
}
