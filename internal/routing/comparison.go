package routing

import "sort"

// BuildComparison produces the cross-store price matrix from already-built
// store options. Savings are computed between complete carts; when no store
// covers the full list the comparison falls back to the best-coverage carts
// and is flagged Partial.
func BuildComparison(items []*RequestedItem, options []*StoreOption) *ComparisonResult {
	result := &ComparisonResult{
		ByStore: make(map[string]*StoreComparison, len(options)),
		ByItem:  make(map[string]*ItemComparison, len(items)),
	}

	for _, item := range items {
		result.ByItem[item.Name] = &ItemComparison{ItemName: item.Name}
	}

	for _, opt := range options {
		sc := &StoreComparison{
			Store:    opt.Store,
			Total:    opt.TotalCost,
			Complete: len(opt.MissingItems) == 0,
		}
		for _, ri := range opt.Items {
			cell := &ItemPrice{ItemName: ri.Item.Name, StoreID: opt.Store.ID, Price: ri.LineTotal}
			sc.PerItem = append(sc.PerItem, cell)
			if ic, ok := result.ByItem[ri.Item.Name]; ok {
				ic.PricesPerStore = append(ic.PricesPerStore, cell)
			}
		}
		sort.Slice(sc.PerItem, func(i, j int) bool { return sc.PerItem[i].ItemName < sc.PerItem[j].ItemName })
		result.ByStore[opt.Store.ID] = sc
	}

	for _, ic := range result.ByItem {
		sort.Slice(ic.PricesPerStore, func(i, j int) bool {
			a, b := ic.PricesPerStore[i], ic.PricesPerStore[j]
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			return a.StoreID < b.StoreID
		})
		if len(ic.PricesPerStore) > 0 {
			ic.CheapestStore = ic.PricesPerStore[0].StoreID
		}
	}

	cheapest, priciest := spreadOf(completeOnly(result.ByStore))
	if cheapest == nil {
		// No complete cart anywhere: compare among the best-covered carts
		// so the caller still gets a signal. Flag it so clients can say
		// "based on partially available data".
		result.Partial = true
		cheapest, priciest = spreadOf(bestCoverage(options, result.ByStore))
	}
	if cheapest != nil {
		result.CheapestStoreID = cheapest.Store.ID
		result.MostExpensiveStore = priciest.Store.ID
		result.MaxSavings = priciest.Total - cheapest.Total
	}
	return result
}

func completeOnly(byStore map[string]*StoreComparison) []*StoreComparison {
	var out []*StoreComparison
	for _, sc := range byStore {
		if sc.Complete {
			out = append(out, sc)
		}
	}
	return out
}

// bestCoverage picks the comparisons whose options tie on the highest
// item coverage.
func bestCoverage(options []*StoreOption, byStore map[string]*StoreComparison) []*StoreComparison {
	best := 0
	for _, opt := range options {
		if len(opt.Items) > best {
			best = len(opt.Items)
		}
	}
	if best == 0 {
		return nil
	}
	var out []*StoreComparison
	for _, opt := range options {
		if len(opt.Items) == best {
			if sc, ok := byStore[opt.Store.ID]; ok {
				out = append(out, sc)
			}
		}
	}
	return out
}

// spreadOf returns the cheapest and most expensive carts in the set,
// breaking ties on store ID so repeated runs agree.
func spreadOf(carts []*StoreComparison) (cheapest, priciest *StoreComparison) {
	for _, sc := range carts {
		if cheapest == nil || sc.Total < cheapest.Total ||
			(sc.Total == cheapest.Total && sc.Store.ID < cheapest.Store.ID) {
			cheapest = sc
		}
		if priciest == nil || sc.Total > priciest.Total ||
			(sc.Total == priciest.Total && sc.Store.ID < priciest.Store.ID) {
			priciest = sc
		}
	}
	return cheapest, priciest
}
