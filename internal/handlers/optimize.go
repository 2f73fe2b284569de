package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cjenolov/route-service/internal/routing"
)

// ============================================================================
// Route Optimization Endpoints
// ============================================================================

// ShoppingItem represents one entry of the requested list
type ShoppingItem struct {
	Name            string `json:"name" binding:"required"`
	OriginalName    string `json:"originalName,omitempty"`
	EnglishName     string `json:"englishName,omitempty"`
	Quantity        int    `json:"quantity" binding:"required,min=1"`
	Unit            string `json:"unit,omitempty"`
	LockedProductID string `json:"lockedProductId,omitempty"`
	LockedStore     string `json:"lockedStore,omitempty"`
}

// Location represents a geographic location
type Location struct {
	Latitude  float64 `json:"latitude" binding:"min=-90,max=90"`
	Longitude float64 `json:"longitude" binding:"min=-180,max=180"`
}

// Preferences holds the shopper's optimization knobs
type Preferences struct {
	MaxStores      int      `json:"maxStores,omitempty"`
	MaxDistanceKm  float64  `json:"maxDistanceKm,omitempty"`
	ExcludedChains []string `json:"excludedChains,omitempty"`
	SortBy         string   `json:"sortBy,omitempty"`
}

// OptimizeRequest represents the route optimization request
type OptimizeRequest struct {
	Items       []*ShoppingItem `json:"items" binding:"required,min=1,max=100"`
	Location    Location        `json:"location" binding:"required"`
	Preferences Preferences     `json:"preferences"`
}

// ResolvedItemInfo is one purchased line in a store option
type ResolvedItemInfo struct {
	ItemName   string `json:"itemName"`
	ProductID  string `json:"productId"`
	Product    string `json:"product"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int64  `json:"unitPrice"`
	LineTotal  int64  `json:"lineTotal"`
	MatchLevel string `json:"matchLevel"`
	Locked     bool   `json:"locked,omitempty"`
}

// MismatchInfo flags an item pinned to another store
type MismatchInfo struct {
	ItemName     string `json:"itemName"`
	LockedStore  string `json:"lockedStore"`
	ResolvedName string `json:"resolvedName"`
}

// StoreInfo describes one store
type StoreInfo struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Chain    string  `json:"chain"`
	Address  string  `json:"address,omitempty"`
	Distance float64 `json:"distanceKm"`
}

// StoreOptionResult is one store's full cart
type StoreOptionResult struct {
	Store        StoreInfo           `json:"store"`
	Items        []*ResolvedItemInfo `json:"items"`
	TotalCost    int64               `json:"totalCost"`
	MissingItems []string            `json:"missingItems,omitempty"`
	Mismatches   []*MismatchInfo     `json:"mismatches,omitempty"`
}

// StoreStopResult is one stop of a multi-store plan
type StoreStopResult struct {
	Store      StoreInfo           `json:"store"`
	Items      []*ResolvedItemInfo `json:"items"`
	Subtotal   int64               `json:"subtotal"`
	VisitOrder int                 `json:"visitOrder"`
}

// MultiStoreResult is the split-purchase plan
type MultiStoreResult struct {
	Stops           []*StoreStopResult `json:"stops"`
	TotalCost       int64              `json:"totalCost"`
	TotalDistanceKm float64            `json:"totalDistanceKm"`
	Savings         int64              `json:"savings"`
	SavingsPercent  float64            `json:"savingsPercent"`
}

// RecommendationResult is the engine's verdict
type RecommendationResult struct {
	Choice    string `json:"choice"`
	Reasoning string `json:"reasoning"`
}

// OptimizeResponse is the full optimization envelope
type OptimizeResponse struct {
	SingleStore    *StoreOptionResult    `json:"singleStore"`
	MultiStore     *MultiStoreResult     `json:"multiStore,omitempty"`
	Recommendation *RecommendationResult `json:"recommendation"`
	Candidates     []*StoreOptionResult  `json:"candidates"`
	CacheHit       bool                  `json:"cacheHit"`
	ComputedAt     time.Time             `json:"computedAt"`
}

// Global service instance (initialized by the application)
var routeService *routing.Service

// InitService sets the routing service used by the handlers.
// This should be called during application startup
func InitService(s *routing.Service) {
	routeService = s
}

// OptimizeRoute handles shopping route optimization
// POST /internal/route/optimize
func OptimizeRoute(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if routeService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service not initialized"})
		return
	}

	result, hit, err := routeService.Optimize(c.Request.Context(), toDomainRequest(&req))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOptimizeResponse(result, hit))
}

// ItemPriceCell is one cell of the comparison matrix
type ItemPriceCell struct {
	ItemName string `json:"itemName"`
	StoreID  string `json:"storeId"`
	Price    int64  `json:"price"`
}

// StoreComparisonResult aggregates one store's column
type StoreComparisonResult struct {
	Store    StoreInfo        `json:"store"`
	Total    int64            `json:"total"`
	PerItem  []*ItemPriceCell `json:"perItem"`
	Complete bool             `json:"complete"`
}

// ItemComparisonResult aggregates one item's row
type ItemComparisonResult struct {
	ItemName       string           `json:"itemName"`
	CheapestStore  string           `json:"cheapestStore"`
	PricesPerStore []*ItemPriceCell `json:"pricesPerStore"`
}

// ComparisonResponse is the comparison envelope
type ComparisonResponse struct {
	ByStore            map[string]*StoreComparisonResult `json:"byStore"`
	ByItem             map[string]*ItemComparisonResult  `json:"byItem"`
	CheapestStoreID    string                            `json:"cheapestStoreId"`
	MostExpensiveStore string                            `json:"mostExpensiveStore"`
	MaxSavings         int64                             `json:"maxSavings"`
	Partial            bool                              `json:"partial"`
}

// CompareStores handles cross-store price comparison
// POST /internal/route/comparison
func CompareStores(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if routeService == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Service not initialized"})
		return
	}

	result, err := routeService.CalculateComparison(c.Request.Context(), toDomainRequest(&req))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toComparisonResponse(result))
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var valErr *routing.ValidationError
	var upErr *routing.UpstreamError
	switch {
	case errors.As(err, &valErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": valErr.Error()})
	// Upstream failures take precedence: an outage must never read as
	// "no store carries these items".
	case errors.As(err, &upErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": upErr.Error()})
	case errors.Is(err, routing.ErrNoViableOption):
		c.JSON(http.StatusNotFound, gin.H{"error": "no store can serve this shopping list"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func toDomainRequest(req *OptimizeRequest) *routing.OptimizeRequest {
	items := make([]*routing.RequestedItem, len(req.Items))
	for i, item := range req.Items {
		items[i] = &routing.RequestedItem{
			Name:            item.Name,
			OriginalName:    item.OriginalName,
			EnglishName:     item.EnglishName,
			Quantity:        item.Quantity,
			Unit:            item.Unit,
			LockedProductID: item.LockedProductID,
			LockedStore:     item.LockedStore,
		}
	}
	return &routing.OptimizeRequest{
		Items:    items,
		Location: routing.Location{Lat: req.Location.Latitude, Lng: req.Location.Longitude},
		Preferences: routing.Preferences{
			MaxStores:      req.Preferences.MaxStores,
			MaxDistanceKm:  req.Preferences.MaxDistanceKm,
			ExcludedChains: req.Preferences.ExcludedChains,
			SortBy:         req.Preferences.SortBy,
		},
	}
}

func toStoreInfo(s *routing.Store) StoreInfo {
	return StoreInfo{
		ID:       s.ID,
		Name:     s.Name,
		Chain:    s.Chain,
		Address:  s.Address,
		Distance: s.Distance,
	}
}

func toResolvedItems(items []*routing.ResolvedItem) []*ResolvedItemInfo {
	out := make([]*ResolvedItemInfo, len(items))
	for i, ri := range items {
		out[i] = &ResolvedItemInfo{
			ItemName:   ri.Item.Name,
			ProductID:  ri.Offer.ID,
			Product:    ri.Offer.Name,
			Quantity:   ri.Item.Quantity,
			UnitPrice:  ri.Offer.Price,
			LineTotal:  ri.LineTotal,
			MatchLevel: ri.Level.String(),
			Locked:     ri.Locked,
		}
	}
	return out
}

func toStoreOptionResult(opt *routing.StoreOption) *StoreOptionResult {
	mismatches := make([]*MismatchInfo, len(opt.Mismatches))
	for i, m := range opt.Mismatches {
		mismatches[i] = &MismatchInfo{
			ItemName:     m.ItemName,
			LockedStore:  m.LockedStore,
			ResolvedName: m.ResolvedName,
		}
	}
	return &StoreOptionResult{
		Store:        toStoreInfo(opt.Store),
		Items:        toResolvedItems(opt.Items),
		TotalCost:    opt.TotalCost,
		MissingItems: opt.MissingItems,
		Mismatches:   mismatches,
	}
}

func toOptimizeResponse(result *routing.OptimizeResult, cacheHit bool) *OptimizeResponse {
	resp := &OptimizeResponse{
		SingleStore: toStoreOptionResult(result.SingleStore),
		Recommendation: &RecommendationResult{
			Choice:    result.Recommendation.Choice,
			Reasoning: result.Recommendation.Reasoning,
		},
		CacheHit:   cacheHit,
		ComputedAt: result.ComputedAt,
	}

	resp.Candidates = make([]*StoreOptionResult, len(result.Candidates))
	for i, opt := range result.Candidates {
		resp.Candidates[i] = toStoreOptionResult(opt)
	}

	if result.MultiStore != nil {
		multi := &MultiStoreResult{
			TotalCost:       result.MultiStore.TotalCost,
			TotalDistanceKm: result.MultiStore.TotalDistance,
			Savings:         result.MultiStore.Savings,
			SavingsPercent:  result.MultiStore.SavingsPercent,
		}
		for _, stop := range result.MultiStore.Stops {
			multi.Stops = append(multi.Stops, &StoreStopResult{
				Store:      toStoreInfo(stop.Store),
				Items:      toResolvedItems(stop.Items),
				Subtotal:   stop.Subtotal,
				VisitOrder: stop.VisitOrder,
			})
		}
		resp.MultiStore = multi
	}

	return resp
}

func toComparisonResponse(result *routing.ComparisonResult) *ComparisonResponse {
	resp := &ComparisonResponse{
		ByStore:            make(map[string]*StoreComparisonResult, len(result.ByStore)),
		ByItem:             make(map[string]*ItemComparisonResult, len(result.ByItem)),
		CheapestStoreID:    result.CheapestStoreID,
		MostExpensiveStore: result.MostExpensiveStore,
		MaxSavings:         result.MaxSavings,
		Partial:            result.Partial,
	}

	for id, sc := range result.ByStore {
		out := &StoreComparisonResult{
			Store:    toStoreInfo(sc.Store),
			Total:    sc.Total,
			Complete: sc.Complete,
		}
		for _, cell := range sc.PerItem {
			out.PerItem = append(out.PerItem, &ItemPriceCell{
				ItemName: cell.ItemName,
				StoreID:  cell.StoreID,
				Price:    cell.Price,
			})
		}
		resp.ByStore[id] = out
	}

	for name, ic := range result.ByItem {
		out := &ItemComparisonResult{
			ItemName:      ic.ItemName,
			CheapestStore: ic.CheapestStore,
		}
		for _, cell := range ic.PricesPerStore {
			out.PricesPerStore = append(out.PricesPerStore, &ItemPriceCell{
				ItemName: cell.ItemName,
				StoreID:  cell.StoreID,
				Price:    cell.Price,
			})
		}
		resp.ByItem[name] = out
	}

	return resp
}
