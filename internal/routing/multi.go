package routing

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// StopScorer scores a candidate stop: the marginal savings it brings minus
// a penalty for the travel it adds. Pluggable so alternative strategies can
// be substituted without touching the ranking or caching contracts.
type StopScorer func(savings int64, addedDistanceKm float64) int64

// MultiOptimizer searches for a split purchase across a bounded number of
// stores. The search is a greedy heuristic, not exhaustive combinatorial
// optimization: it adds one stop at a time while each addition pays for
// itself, and never claims global optimality.
type MultiOptimizer struct {
	config *Config
	scorer StopScorer
	logger zerolog.Logger
}

// NewMultiOptimizer creates an optimizer with the default distance-penalty
// scorer. Pass a non-nil scorer to substitute the scoring strategy.
func NewMultiOptimizer(config *Config, scorer StopScorer) *MultiOptimizer {
	o := &MultiOptimizer{
		config: config,
		scorer: scorer,
		logger: log.With().Str("component", "multi_optimizer").Logger(),
	}
	if o.scorer == nil {
		o.scorer = func(savings int64, addedKm float64) int64 {
			return savings - int64(addedKm*float64(config.DistancePenaltyPerKm))
		}
	}
	return o
}

// assignment tracks which stop currently buys one requested item.
type assignment struct {
	storeID  string
	resolved *ResolvedItem
}

// Optimize searches for a multi-store plan strictly cheaper than the best
// single store. Returns nil when no split beats the baseline within the
// stop and distance budgets. Every requested item ends up in at most one
// stop; items the baseline misses may be picked up by added stops.
func (o *MultiOptimizer) Optimize(shopper Location, bestSingle *StoreOption, all []*StoreOption, prefs Preferences) *MultiStoreOption {
	if bestSingle == nil || len(all) == 0 {
		return nil
	}

	maxStops := o.config.MaxStops
	if prefs.MaxStores > 0 && prefs.MaxStores < maxStops {
		maxStops = prefs.MaxStores
	}
	if maxStops < 2 {
		return nil
	}

	assigned := make(map[string]*assignment, len(bestSingle.Items))
	for _, ri := range bestSingle.Items {
		assigned[ri.Item.Name] = &assignment{storeID: bestSingle.Store.ID, resolved: ri}
	}

	stops := map[string]*Store{bestSingle.Store.ID: bestSingle.Store}
	baselineDistance := o.travelDistance(shopper, stops)

	for len(stops) < maxStops {
		best := o.bestCandidate(shopper, stops, assigned, all, baselineDistance)
		if best == nil {
			break
		}

		stops[best.option.Store.ID] = best.option.Store
		for _, ri := range best.takes {
			assigned[ri.Item.Name] = &assignment{storeID: best.option.Store.ID, resolved: ri}
		}
		o.logger.Debug().
			Str("store", best.option.Store.Name).
			Int64("savings", best.savings).
			Int("items", len(best.takes)).
			Msg("Added stop")
	}

	if len(stops) < 2 {
		return nil
	}

	result := o.buildResult(shopper, stops, assigned, bestSingle)
	if result == nil || result.TotalCost >= bestSingle.TotalCost {
		// A split that is not strictly cheaper is never surfaced.
		return nil
	}
	return result
}

// candidate is one evaluated "add this store as a stop" move.
type candidate struct {
	option  *StoreOption
	takes   []*ResolvedItem // Items this stop would buy
	savings int64           // Cost improvement over current assignment
	covers  int             // Previously unassigned items it picks up
	score   int64
	addedKm float64
}

// bestCandidate evaluates every non-stop store and returns the highest
// scoring acceptable addition, or nil when no store pays for its travel.
func (o *MultiOptimizer) bestCandidate(
	shopper Location,
	stops map[string]*Store,
	assigned map[string]*assignment,
	all []*StoreOption,
	baselineDistance float64,
) *candidate {
	var best *candidate

	for _, opt := range all {
		if _, ok := stops[opt.Store.ID]; ok {
			continue
		}

		var takes []*ResolvedItem
		var savings int64
		covers := 0
		for _, ri := range opt.Items {
			current, ok := assigned[ri.Item.Name]
			if !ok {
				takes = append(takes, ri)
				covers++
				continue
			}
			if ri.LineTotal < current.resolved.LineTotal {
				takes = append(takes, ri)
				savings += current.resolved.LineTotal - ri.LineTotal
			}
		}
		if len(takes) == 0 {
			continue
		}

		withStop := cloneStops(stops)
		withStop[opt.Store.ID] = opt.Store
		addedKm := o.travelDistance(shopper, withStop) - o.travelDistance(shopper, stops)
		if o.travelDistance(shopper, withStop)-baselineDistance > o.config.MaxExtraDistanceKm {
			continue
		}

		score := o.scorer(savings, addedKm)
		acceptable := score > o.config.MinStopSavings || (covers > 0 && score >= 0)
		if !acceptable {
			continue
		}

		c := &candidate{option: opt, takes: takes, savings: savings, covers: covers, score: score, addedKm: addedKm}
		if best == nil || c.score > best.score ||
			(c.score == best.score && c.option.Store.ID < best.option.Store.ID) {
			best = c
		}
	}

	return best
}

// buildResult materializes the stop list from the final assignment. Stops
// that lost every item to later additions are pruned.
func (o *MultiOptimizer) buildResult(
	shopper Location,
	stops map[string]*Store,
	assigned map[string]*assignment,
	bestSingle *StoreOption,
) *MultiStoreOption {
	byStore := make(map[string][]*ResolvedItem)
	for _, a := range assigned {
		byStore[a.storeID] = append(byStore[a.storeID], a.resolved)
	}

	result := &MultiStoreOption{}
	for storeID, items := range byStore {
		store := stops[storeID]
		if store == nil || len(items) == 0 {
			continue
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Item.Name < items[j].Item.Name })

		stop := &StoreStop{Store: store, Items: items}
		for _, ri := range items {
			stop.Subtotal += ri.LineTotal
		}
		result.Stops = append(result.Stops, stop)
		result.TotalCost += stop.Subtotal
	}
	if len(result.Stops) < 2 {
		return nil
	}

	// Visit nearer stores first; the literal road path is the routing
	// collaborator's problem, this only decides which stores.
	sort.Slice(result.Stops, func(i, j int) bool {
		a, b := result.Stops[i], result.Stops[j]
		if a.Store.Distance != b.Store.Distance {
			return a.Store.Distance < b.Store.Distance
		}
		return a.Store.ID < b.Store.ID
	})
	waypoints := make([]Location, 0, len(result.Stops))
	for i, stop := range result.Stops {
		stop.VisitOrder = i + 1
		waypoints = append(waypoints, stop.Store.Location)
	}
	result.TotalDistance = RouteDistanceKm(shopper, waypoints)

	result.Savings = bestSingle.TotalCost - result.TotalCost
	if bestSingle.TotalCost > 0 {
		result.SavingsPercent = float64(result.Savings) / float64(bestSingle.TotalCost) * 100
	}
	return result
}

// travelDistance is the consecutive-leg distance of visiting the given
// stops nearest-first from the shopper's location.
func (o *MultiOptimizer) travelDistance(shopper Location, stops map[string]*Store) float64 {
	ordered := make([]*Store, 0, len(stops))
	for _, s := range stops {
		ordered = append(ordered, s)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Distance != ordered[j].Distance {
			return ordered[i].Distance < ordered[j].Distance
		}
		return ordered[i].ID < ordered[j].ID
	})
	waypoints := make([]Location, 0, len(ordered))
	for _, s := range ordered {
		waypoints = append(waypoints, s.Location)
	}
	return RouteDistanceKm(shopper, waypoints)
}

func cloneStops(stops map[string]*Store) map[string]*Store {
	out := make(map[string]*Store, len(stops)+1)
	for k, v := range stops {
		out[k] = v
	}
	return out
}
