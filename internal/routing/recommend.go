package routing

import "fmt"

// Recommend picks between the best single-store option and the multi-store
// plan. The split is only recommended when its savings clear both the
// absolute and the percentage thresholds, so marginal wins never send the
// shopper to extra stores.
func Recommend(bestSingle *StoreOption, multi *MultiStoreOption, config *Config) (*Recommendation, error) {
	if bestSingle == nil && multi == nil {
		return nil, ErrNoViableOption
	}

	if bestSingle == nil {
		return &Recommendation{
			Choice: "multi",
			Reasoning: fmt.Sprintf("No single store covers your list; splitting across %d stores gets everything for %s.",
				len(multi.Stops), formatPrice(multi.TotalCost)),
		}, nil
	}

	if multi == nil {
		return &Recommendation{
			Choice: "single",
			Reasoning: fmt.Sprintf("%s has the best overall value at %s; splitting across stores would not save you money.",
				bestSingle.Store.Name, formatPrice(bestSingle.TotalCost)),
		}, nil
	}

	if multi.Savings >= config.MinMultiSavings && multi.SavingsPercent >= config.MinMultiSavingsPct {
		return &Recommendation{
			Choice: "multi",
			Reasoning: fmt.Sprintf("Visiting %d stores saves %s (%.1f%%) compared to shopping only at %s.",
				len(multi.Stops), formatPrice(multi.Savings), multi.SavingsPercent, bestSingle.Store.Name),
		}, nil
	}

	return &Recommendation{
		Choice: "single",
		Reasoning: fmt.Sprintf("Splitting across stores would only save %s; %s at %s is the better trip.",
			formatPrice(multi.Savings), bestSingle.Store.Name, formatPrice(bestSingle.TotalCost)),
	}, nil
}

// formatPrice renders minor currency units for human-readable reasoning.
func formatPrice(minor int64) string {
	return fmt.Sprintf("%d.%02d EUR", minor/100, minor%100)
}
