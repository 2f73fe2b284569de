package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cjenolov/route-service/internal/database"
	"github.com/cjenolov/route-service/internal/provider"
	"github.com/cjenolov/route-service/internal/routing"
)

var (
	optimizeLat       float64
	optimizeLng       float64
	optimizeMaxStores int
	optimizeExcluded  []string
	optimizeSortBy    string
)

// optimizeCmd represents the optimize command
var optimizeCmd = &cobra.Command{
	Use:   "optimize <item> [item...]",
	Short: "Find the best shopping route for a list of items",
	Long: `Optimize a shopping list against nearby stores. Prints the best
single-store option, a multi-store split when one saves money, and the
engine's recommendation.`,
	Example: `  route-service optimize mlijeko kruh jaja --lat 45.815 --lng 15.982
  route-service optimize mlijeko --lat 45.815 --lng 15.982 --exclude lidl --max-stores 2`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().Float64Var(&optimizeLat, "lat", 0, "Shopper latitude (required)")
	optimizeCmd.Flags().Float64Var(&optimizeLng, "lng", 0, "Shopper longitude (required)")
	optimizeCmd.Flags().IntVar(&optimizeMaxStores, "max-stores", 0, "Maximum stores to visit")
	optimizeCmd.Flags().StringSliceVar(&optimizeExcluded, "exclude", nil, "Chains to exclude")
	optimizeCmd.Flags().StringVar(&optimizeSortBy, "sort", "", "Candidate sort: value, cheapest or closest")
	optimizeCmd.MarkFlagRequired("lat")
	optimizeCmd.MarkFlagRequired("lng")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service := buildCLIService()

	req := buildRequest(args)
	result, hit, err := service.Optimize(ctx, req)
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}

	if hit {
		logger.Debug().Msg("Served from result cache")
	}

	fmt.Printf("Recommendation: %s\n", strings.ToUpper(result.Recommendation.Choice))
	fmt.Printf("  %s\n\n", result.Recommendation.Reasoning)

	fmt.Printf("Best single store: %s (%.1f km)\n", result.SingleStore.Store.Name, result.SingleStore.Store.Distance)
	printItems(result.SingleStore.Items)
	fmt.Printf("  Total: %s\n", formatMoney(result.SingleStore.TotalCost))
	if len(result.SingleStore.MissingItems) > 0 {
		fmt.Printf("  Missing: %s\n", strings.Join(result.SingleStore.MissingItems, ", "))
	}

	if result.MultiStore != nil {
		fmt.Printf("\nMulti-store plan (%d stops, %.1f km, saves %s):\n",
			len(result.MultiStore.Stops), result.MultiStore.TotalDistance, formatMoney(result.MultiStore.Savings))
		for _, stop := range result.MultiStore.Stops {
			fmt.Printf("  %d. %s: %s\n", stop.VisitOrder, stop.Store.Name, formatMoney(stop.Subtotal))
			printItems(stop.Items)
		}
	}

	return nil
}

func printItems(items []*routing.ResolvedItem) {
	w := tabwriter.NewWriter(os.Stdout, 4, 2, 2, ' ', 0)
	for _, ri := range items {
		fmt.Fprintf(w, "\t%s\tx%d\t%s\t(%s)\n",
			ri.Offer.Name, ri.Item.Quantity, formatMoney(ri.LineTotal), ri.Level)
	}
	w.Flush()
}

func formatMoney(minor int64) string {
	return fmt.Sprintf("%d.%02d EUR", minor/100, minor%100)
}

func buildRequest(items []string) *routing.OptimizeRequest {
	requested := make([]*routing.RequestedItem, len(items))
	for i, name := range items {
		requested[i] = &routing.RequestedItem{Name: name, Quantity: 1}
	}
	return &routing.OptimizeRequest{
		Items:    requested,
		Location: routing.Location{Lat: optimizeLat, Lng: optimizeLng},
		Preferences: routing.Preferences{
			MaxStores:      optimizeMaxStores,
			ExcludedChains: optimizeExcluded,
			SortBy:         optimizeSortBy,
		},
	}
}

func buildCLIService() *routing.Service {
	optCfg := routing.DefaultConfig()
	if cfg != nil {
		optCfg.SearchRadiusKm = cfg.Optimizer.SearchRadiusKm
		optCfg.MaxCandidateStores = cfg.Optimizer.MaxCandidateStores
		optCfg.HouseBrandBonus = cfg.Optimizer.HouseBrandBonus
		optCfg.MaxStops = cfg.Optimizer.MaxStops
	}
	dataProvider := provider.NewPostgresProvider(database.Pool())
	return routing.NewService(dataProvider, provider.StraightLinePlanner{}, routing.DefaultChainRegistry(), optCfg)
}
