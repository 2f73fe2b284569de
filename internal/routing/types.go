package routing

import (
	"fmt"
	"strings"
	"time"
)

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RequestedItem is one line of the shopper's list. LockedProductID and
// LockedStore, when set, pin the item to a previously chosen offer and
// bypass free matching for that store.
type RequestedItem struct {
	Name            string // Item name used for matching
	OriginalName    string // Raw name as the shopper typed it
	EnglishName     string // Optional translated name
	Quantity        int    // Must be >= 1
	Unit            string // Optional unit hint (e.g. "l", "kg")
	LockedProductID string // Pin to this exact offer
	LockedStore     string // Store the pinned offer belongs to
}

// ProductOffer is one sellable unit at one physical store, as returned by
// the data provider. Read-only for the duration of an optimization run.
type ProductOffer struct {
	ID          string
	Name        string
	Price       int64 // Minor currency units
	StoreName   string
	Chain       string
	Unit        string
	ImageURL    string
	Ingredients string
}

// Richness scores offer metadata completeness. Used only as a deterministic
// tie-break between equally priced offers.
func (o *ProductOffer) Richness() int {
	score := 0
	if o.ImageURL != "" {
		score++
	}
	if o.Ingredients != "" {
		score++
	}
	return score
}

// Store is one physical store near the shopper.
type Store struct {
	ID       string
	Name     string
	Chain    string
	Address  string
	Location Location
	Distance float64 // Distance from shopper in km
}

// MatchLevel is the specificity of correspondence between an offer and a
// physical store. Higher is more specific.
type MatchLevel int

const (
	MatchNone MatchLevel = iota
	MatchParent
	MatchChain
	MatchBranch
)

func (l MatchLevel) String() string {
	switch l {
	case MatchBranch:
		return "branch"
	case MatchChain:
		return "chain"
	case MatchParent:
		return "parent"
	default:
		return "none"
	}
}

// ResolvedItem is a requested item matched to a concrete offer.
type ResolvedItem struct {
	Item      *RequestedItem
	Offer     *ProductOffer
	Level     MatchLevel
	Locked    bool  // Resolved via a lockedProductId pin
	LineTotal int64 // Offer.Price * Item.Quantity
}

// PreferenceMismatch records that an item was resolved at a store other
// than the one the shopper previously locked it to. Presentation only, it
// never influences ranking.
type PreferenceMismatch struct {
	ItemName     string
	LockedStore  string
	ResolvedName string
}

// StoreOption is one "buy everything at this store" plan.
type StoreOption struct {
	Store        *Store
	Items        []*ResolvedItem
	TotalCost    int64 // Sum over resolved items only
	MissingItems []string
	Mismatches   []*PreferenceMismatch
}

// Coverage returns the number of resolved items.
func (o *StoreOption) Coverage() int {
	return len(o.Items)
}

// StoreStop is one store visited in a multi-store plan.
type StoreStop struct {
	Store      *Store
	Items      []*ResolvedItem
	Subtotal   int64
	VisitOrder int // 1 = first stop from the shopper's location
}

// MultiStoreOption is a split purchase across several stores. Every
// requested item appears in at most one stop.
type MultiStoreOption struct {
	Stops          []*StoreStop
	TotalCost      int64
	TotalDistance  float64 // Consecutive-leg travel from the shopper, km
	Savings        int64   // vs best single store, always > 0
	SavingsPercent float64
}

// ItemPrice is one cell of the comparison matrix.
type ItemPrice struct {
	ItemName string
	StoreID  string
	Price    int64 // Line total (price * quantity)
}

// StoreComparison aggregates one store's column of the matrix.
type StoreComparison struct {
	Store    *Store
	Total    int64
	PerItem  []*ItemPrice
	Complete bool // Store resolves every requested item
}

// ItemComparison aggregates one item's row of the matrix.
type ItemComparison struct {
	ItemName       string
	CheapestStore  string
	PricesPerStore []*ItemPrice
}

// ComparisonResult is the cross-store, cross-item price matrix.
type ComparisonResult struct {
	ByStore            map[string]*StoreComparison
	ByItem             map[string]*ItemComparison
	CheapestStoreID    string
	MostExpensiveStore string
	MaxSavings         int64
	Partial            bool // No store resolved the full list
}

// Preferences are the shopper-tunable optimization knobs.
type Preferences struct {
	MaxStores      int
	MaxDistanceKm  float64
	ExcludedChains []string
	SortBy         string // "value" (default), "cheapest" or "closest"
}

// OptimizeRequest is the input to a full route optimization.
type OptimizeRequest struct {
	Items       []*RequestedItem
	Location    Location
	Preferences Preferences
}

// Recommendation is the engine's final verdict.
type Recommendation struct {
	Choice    string // "single" or "multi"
	Reasoning string
}

// OptimizeResult is the full outcome of one optimization run. It is the
// unit stored in the result cache; identical fingerprints within the TTL
// observe the identical value.
type OptimizeResult struct {
	SingleStore    *StoreOption
	MultiStore     *MultiStoreOption
	Recommendation *Recommendation
	Candidates     []*StoreOption
	ComputedAt     time.Time
}

// Validate checks request constraints before any upstream call is made.
func (r *OptimizeRequest) Validate(maxItems int) error {
	if len(r.Items) < 1 {
		return &ValidationError{Field: "items", Reason: "must have at least one item"}
	}
	if maxItems > 0 && len(r.Items) > maxItems {
		return &ValidationError{Field: "items", Reason: "exceeds maximum allowed"}
	}
	for i, item := range r.Items {
		if strings.TrimSpace(item.Name) == "" {
			return &ValidationError{Field: "items", Reason: fmt.Sprintf("item at index %d has an empty name", i)}
		}
		if item.Quantity < 1 {
			return &ValidationError{Field: "items", Reason: fmt.Sprintf("item at index %d has invalid quantity", i)}
		}
	}
	if r.Location.Lat < -90 || r.Location.Lat > 90 {
		return &ValidationError{Field: "location.lat", Reason: "must be between -90 and 90"}
	}
	if r.Location.Lng < -180 || r.Location.Lng > 180 {
		return &ValidationError{Field: "location.lng", Reason: "must be between -180 and 180"}
	}
	if r.Preferences.MaxStores < 0 {
		return &ValidationError{Field: "preferences.maxStores", Reason: "cannot be negative"}
	}
	if r.Preferences.MaxDistanceKm < 0 {
		return &ValidationError{Field: "preferences.maxDistanceKm", Reason: "cannot be negative"}
	}
	return nil
}
