package routing

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multiOption(id string, distance float64, prices map[string]int64) *StoreOption {
	opt := &StoreOption{
		Store: &Store{ID: id, Name: id, Chain: id, Distance: distance},
	}
	names := make([]string, 0, len(prices))
	for name := range prices {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		price := prices[name]
		opt.Items = append(opt.Items, &ResolvedItem{
			Item:      &RequestedItem{Name: name, Quantity: 1},
			Offer:     &ProductOffer{ID: id + "-" + name, Name: name, Price: price, Chain: id},
			LineTotal: price,
		})
		opt.TotalCost += price
	}
	return opt
}

func TestMultiOptimizer_SplitBeatsSingleStore(t *testing.T) {
	o := NewMultiOptimizer(DefaultConfig(), nil)

	best := multiOption("s1", 0, map[string]int64{"a": 100, "b": 500})
	alt := multiOption("s2", 0, map[string]int64{"b": 300})

	result := o.Optimize(Location{}, best, []*StoreOption{best, alt}, Preferences{})
	require.NotNil(t, result)
	assert.Equal(t, int64(400), result.TotalCost)
	assert.Equal(t, int64(200), result.Savings)
	assert.Len(t, result.Stops, 2)
	assert.Less(t, result.TotalCost, best.TotalCost)
}

func TestMultiOptimizer_NilWhenNotStrictlyCheaper(t *testing.T) {
	o := NewMultiOptimizer(DefaultConfig(), nil)

	best := multiOption("s1", 0, map[string]int64{"a": 100, "b": 300})
	samePrice := multiOption("s2", 0, map[string]int64{"b": 300})

	result := o.Optimize(Location{}, best, []*StoreOption{best, samePrice}, Preferences{})
	assert.Nil(t, result)
}

func TestMultiOptimizer_SavingsBelowStopThresholdRejected(t *testing.T) {
	cfg := DefaultConfig() // MinStopSavings 50
	o := NewMultiOptimizer(cfg, nil)

	best := multiOption("s1", 0, map[string]int64{"a": 100, "b": 300})
	slightlyCheaper := multiOption("s2", 0, map[string]int64{"b": 260}) // saves 40

	result := o.Optimize(Location{}, best, []*StoreOption{best, slightlyCheaper}, Preferences{})
	assert.Nil(t, result)
}

func TestMultiOptimizer_EachItemBilledOnce(t *testing.T) {
	o := NewMultiOptimizer(DefaultConfig(), nil)

	best := multiOption("s1", 0, map[string]int64{"a": 100, "b": 500, "c": 400})
	s2 := multiOption("s2", 0, map[string]int64{"b": 300, "c": 300})
	s3 := multiOption("s3", 0, map[string]int64{"c": 100})

	result := o.Optimize(Location{}, best, []*StoreOption{best, s2, s3}, Preferences{})
	require.NotNil(t, result)

	seen := make(map[string]int)
	var total int64
	for _, stop := range result.Stops {
		for _, ri := range stop.Items {
			seen[ri.Item.Name]++
			total += ri.LineTotal
		}
	}
	assert.Equal(t, map[string]int{"a": 1, "b": 1, "c": 1}, seen)
	assert.Equal(t, total, result.TotalCost)
	assert.Equal(t, int64(500), result.TotalCost) // a@s1 + b@s2 + c@s3
}

func TestMultiOptimizer_RespectsMaxStoresPreference(t *testing.T) {
	o := NewMultiOptimizer(DefaultConfig(), nil)

	best := multiOption("s1", 0, map[string]int64{"a": 100, "b": 500, "c": 400})
	s2 := multiOption("s2", 0, map[string]int64{"b": 300})
	s3 := multiOption("s3", 0, map[string]int64{"c": 200})

	result := o.Optimize(Location{}, best, []*StoreOption{best, s2, s3}, Preferences{MaxStores: 2})
	require.NotNil(t, result)
	assert.Len(t, result.Stops, 2)
}

func TestMultiOptimizer_SingleStorePreferenceDisablesSplit(t *testing.T) {
	o := NewMultiOptimizer(DefaultConfig(), nil)

	best := multiOption("s1", 0, map[string]int64{"a": 100, "b": 500})
	s2 := multiOption("s2", 0, map[string]int64{"b": 100})

	result := o.Optimize(Location{}, best, []*StoreOption{best, s2}, Preferences{MaxStores: 1})
	assert.Nil(t, result)
}

func TestMultiOptimizer_DistanceBudgetBlocksFarStop(t *testing.T) {
	cfg := DefaultConfig() // MaxExtraDistanceKm 5
	o := NewMultiOptimizer(cfg, nil)

	shopper := Location{Lat: 45.8, Lng: 15.9}
	best := multiOption("s1", 0.5, map[string]int64{"a": 100, "b": 500})
	best.Store.Location = Location{Lat: 45.804, Lng: 15.9}

	far := multiOption("s2", 90, map[string]int64{"b": 100})
	far.Store.Location = Location{Lat: 46.6, Lng: 15.9} // ~89 km away

	result := o.Optimize(shopper, best, []*StoreOption{best, far}, Preferences{})
	assert.Nil(t, result)
}

func TestMultiOptimizer_VisitOrderByDistance(t *testing.T) {
	o := NewMultiOptimizer(DefaultConfig(), nil)

	best := multiOption("s1", 2.0, map[string]int64{"a": 100, "b": 500})
	near := multiOption("s2", 0.5, map[string]int64{"b": 200})

	result := o.Optimize(Location{}, best, []*StoreOption{best, near}, Preferences{})
	require.NotNil(t, result)
	require.Len(t, result.Stops, 2)
	assert.Equal(t, "s2", result.Stops[0].Store.ID)
	assert.Equal(t, 1, result.Stops[0].VisitOrder)
	assert.Equal(t, 2, result.Stops[1].VisitOrder)
}
