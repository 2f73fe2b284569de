package routing

import "sort"

// RankOptions orders per-store options best-first: coverage descending,
// then total cost ascending, then distance from the shopper ascending.
// Options resolving zero items are dropped. Ties fall back to store ID so
// identical inputs always rank identically.
func RankOptions(options []*StoreOption) []*StoreOption {
	ranked := make([]*StoreOption, 0, len(options))
	for _, o := range options {
		if o.Coverage() == 0 {
			continue
		}
		ranked = append(ranked, o)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Coverage() != b.Coverage() {
			return a.Coverage() > b.Coverage()
		}
		if a.TotalCost != b.TotalCost {
			return a.TotalCost < b.TotalCost
		}
		if a.Store.Distance != b.Store.Distance {
			return a.Store.Distance < b.Store.Distance
		}
		return a.Store.ID < b.Store.ID
	})

	return ranked
}

// SortOptionsBy reorders already-ranked options for presentation.
// "cheapest" ignores coverage and sorts on cost; "closest" sorts on
// distance; anything else keeps the default value ranking.
func SortOptionsBy(options []*StoreOption, sortBy string) []*StoreOption {
	out := make([]*StoreOption, len(options))
	copy(out, options)

	switch sortBy {
	case "cheapest":
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].TotalCost < out[j].TotalCost
		})
	case "closest":
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Store.Distance < out[j].Store.Distance
		})
	}
	return out
}
