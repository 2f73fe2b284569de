package routing

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Service ties the pipeline together: fetch candidate data, build and rank
// store options, search for a multi-store split, recommend, and memoize the
// whole result by request fingerprint.
type Service struct {
	provider DataProvider
	planner  RoutePlanner
	config   *Config
	builder  *OptionBuilder
	multi    *MultiOptimizer
	cache    *ResultCache
	metrics  *MetricsRecorder

	// fetchSem bounds concurrent upstream offer searches across all
	// in-flight requests, not per request.
	fetchSem *semaphore.Weighted

	logger zerolog.Logger
}

// NewService wires a service from its collaborators. planner may be nil;
// straight-line distances are used then.
func NewService(provider DataProvider, planner RoutePlanner, registry *ChainRegistry, config *Config) *Service {
	metrics := NewMetricsRecorder()
	matcher := NewMatcher(registry, config)
	return &Service{
		provider: provider,
		planner:  planner,
		config:   config,
		builder:  NewOptionBuilder(matcher),
		multi:    NewMultiOptimizer(config, nil),
		cache:    NewResultCache(config.CacheTTL, metrics),
		metrics:  metrics,
		fetchSem: semaphore.NewWeighted(int64(config.FetchConcurrency)),
		logger:   log.With().Str("component", "route_service").Logger(),
	}
}

// Optimize runs the full pipeline for a request. The second return value
// reports whether this request rode on a previously started computation;
// identical requests within the cache TTL observe the identical result.
func (s *Service) Optimize(ctx context.Context, req *OptimizeRequest) (*OptimizeResult, bool, error) {
	if err := req.Validate(s.config.MaxItems); err != nil {
		s.metrics.RecordError("validation")
		return nil, false, err
	}
	s.metrics.RecordBasketSize(len(req.Items))

	fingerprint := Fingerprint(req, s.config.LocationPrecision)
	result, hit, err := s.cache.GetOrCompute(ctx, fingerprint, func(ctx context.Context) (*OptimizeResult, error) {
		return s.compute(ctx, req)
	})
	if err != nil {
		return nil, hit, err
	}
	return result, hit, nil
}

// compute is the uncached optimization pipeline.
func (s *Service) compute(ctx context.Context, req *OptimizeRequest) (*OptimizeResult, error) {
	started := time.Now()
	defer func() {
		s.metrics.RecordPhaseDuration("total", time.Since(started))
	}()

	stores, offersByItem, err := s.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	options := s.buildOptions(stores, req.Items, offersByItem)
	ranked := RankOptions(options)
	if len(ranked) == 0 {
		s.metrics.RecordError("no_viable_option")
		return nil, ErrNoViableOption
	}
	bestSingle := ranked[0]

	multiStarted := time.Now()
	multi := s.multi.Optimize(req.Location, bestSingle, ranked, req.Preferences)
	s.metrics.RecordPhaseDuration("multi_store", time.Since(multiStarted))
	if multi != nil {
		s.refineRoute(ctx, req.Location, multi)
		s.metrics.RecordMultiStoreSavings(multi.Savings)
	}

	recommendation, err := Recommend(bestSingle, multi, s.config)
	if err != nil {
		s.metrics.RecordError("no_viable_option")
		return nil, err
	}
	s.metrics.RecordRecommendation(recommendation.Choice)

	candidates := SortOptionsBy(ranked, req.Preferences.SortBy)

	s.logger.Info().
		Int("items", len(req.Items)).
		Int("candidates", len(candidates)).
		Str("best_store", bestSingle.Store.Name).
		Bool("multi", multi != nil).
		Str("choice", recommendation.Choice).
		Dur("duration", time.Since(started)).
		Msg("Optimization complete")

	return &OptimizeResult{
		SingleStore:    bestSingle,
		MultiStore:     multi,
		Recommendation: recommendation,
		Candidates:     candidates,
		ComputedAt:     time.Now(),
	}, nil
}

// fetch loads candidate stores and per-item offers. A single failed item
// search degrades to that item going missing everywhere; only a total
// upstream failure aborts the request.
func (s *Service) fetch(ctx context.Context, req *OptimizeRequest) ([]*Store, map[string][]*ProductOffer, error) {
	started := time.Now()
	defer func() {
		s.metrics.RecordPhaseDuration("fetch", time.Since(started))
	}()

	radius := s.config.SearchRadiusKm
	if req.Preferences.MaxDistanceKm > 0 && req.Preferences.MaxDistanceKm < radius {
		radius = req.Preferences.MaxDistanceKm
	}

	stores, err := s.provider.GetStoresNearby(ctx, req.Location, radius)
	if err != nil {
		s.metrics.RecordError("upstream")
		return nil, nil, &UpstreamError{Op: "stores_nearby", Err: err}
	}
	stores = s.filterStores(stores, req.Preferences.ExcludedChains)
	if len(stores) == 0 {
		s.metrics.RecordError("no_viable_option")
		return nil, nil, ErrNoViableOption
	}
	s.metrics.RecordCandidateCount(len(stores))

	offersByItem := make(map[string][]*ProductOffer, len(req.Items))
	var mu sync.Mutex
	var searchErrs []error

	g, gctx := errgroup.WithContext(ctx)
	for _, item := range req.Items {
		item := item
		g.Go(func() error {
			if err := s.fetchSem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer s.fetchSem.Release(1)

			offers, err := s.provider.SearchOffers(gctx, item.Name, req.Location)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Degrade: the item simply goes unresolved.
				searchErrs = append(searchErrs, err)
				s.logger.Warn().Err(err).Str("item", item.Name).Msg("Offer search failed")
				return nil
			}
			offersByItem[item.Name] = offers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.RecordError("upstream")
		return nil, nil, &UpstreamError{Op: "search_offers", Err: err}
	}
	if len(searchErrs) == len(req.Items) {
		s.metrics.RecordError("upstream")
		return nil, nil, &UpstreamError{Op: "search_offers", Err: errors.Join(searchErrs...)}
	}

	return stores, offersByItem, nil
}

// filterStores drops excluded chains, sorts by distance and caps the
// candidate set.
func (s *Service) filterStores(stores []*Store, excludedChains []string) []*Store {
	excluded := make(map[string]bool, len(excludedChains))
	for _, c := range excludedChains {
		excluded[strings.ToLower(c)] = true
	}

	kept := stores[:0]
	for _, store := range stores {
		if excluded[strings.ToLower(store.Chain)] {
			continue
		}
		kept = append(kept, store)
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Distance != kept[j].Distance {
			return kept[i].Distance < kept[j].Distance
		}
		return kept[i].ID < kept[j].ID
	})
	if s.config.MaxCandidateStores > 0 && len(kept) > s.config.MaxCandidateStores {
		kept = kept[:s.config.MaxCandidateStores]
	}
	return kept
}

func (s *Service) buildOptions(stores []*Store, items []*RequestedItem, offersByItem map[string][]*ProductOffer) []*StoreOption {
	started := time.Now()
	defer func() {
		s.metrics.RecordPhaseDuration("single_store", time.Since(started))
	}()

	options := make([]*StoreOption, 0, len(stores))
	for _, store := range stores {
		opt := s.builder.Build(store, items, offersByItem)
		for _, ri := range opt.Items {
			s.metrics.RecordMatchLevel(ri.Level)
		}
		options = append(options, opt)
	}
	return options
}

// refineRoute asks the planner for real travel distance along the stops.
// The straight-line estimate already in place survives planner failures.
func (s *Service) refineRoute(ctx context.Context, shopper Location, multi *MultiStoreOption) {
	if s.planner == nil {
		return
	}
	waypoints := make([]Location, 0, len(multi.Stops))
	for _, stop := range multi.Stops {
		waypoints = append(waypoints, stop.Store.Location)
	}
	km, err := s.planner.RouteDistanceKm(ctx, shopper, waypoints)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Route planner unavailable, keeping straight-line distance")
		return
	}
	multi.TotalDistance = km
}

// CalculateComparison builds the cross-store price matrix for a request.
// Comparisons are not cached: their fan-out is the same fetch the
// optimizer does, and clients poll them far less often.
func (s *Service) CalculateComparison(ctx context.Context, req *OptimizeRequest) (*ComparisonResult, error) {
	if err := req.Validate(s.config.MaxItems); err != nil {
		s.metrics.RecordError("validation")
		return nil, err
	}

	stores, offersByItem, err := s.fetch(ctx, req)
	if err != nil {
		return nil, err
	}

	options := s.buildOptions(stores, req.Items, offersByItem)
	if len(RankOptions(options)) == 0 {
		s.metrics.RecordError("no_viable_option")
		return nil, ErrNoViableOption
	}
	return BuildComparison(req.Items, options), nil
}

// CacheSize exposes the live result cache entry count, for health reporting.
func (s *Service) CacheSize() int {
	return s.cache.Len()
}
