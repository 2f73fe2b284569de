package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	compareLat float64
	compareLng float64
)

// compareCmd represents the compare command
var compareCmd = &cobra.Command{
	Use:   "compare <item> [item...]",
	Short: "Compare prices for a shopping list across nearby stores",
	Long: `Build the cross-store price matrix for a shopping list: each store's
full-cart total, the cheapest store per item, and the maximum possible
savings between stores.`,
	Example: `  route-service compare mlijeko kruh --lat 45.815 --lng 15.982`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().Float64Var(&compareLat, "lat", 0, "Shopper latitude (required)")
	compareCmd.Flags().Float64Var(&compareLng, "lng", 0, "Shopper longitude (required)")
	compareCmd.MarkFlagRequired("lat")
	compareCmd.MarkFlagRequired("lng")
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service := buildCLIService()

	optimizeLat, optimizeLng = compareLat, compareLng
	req := buildRequest(args)

	result, err := service.CalculateComparison(ctx, req)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	if result.Partial {
		fmt.Println("Note: no store covers the full list; totals compare partial carts.")
	}

	w := tabwriter.NewWriter(os.Stdout, 4, 2, 2, ' ', 0)
	fmt.Fprintln(w, "STORE\tTOTAL\tCOMPLETE")

	ids := make([]string, 0, len(result.ByStore))
	for id := range result.ByStore {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return result.ByStore[ids[i]].Total < result.ByStore[ids[j]].Total
	})
	for _, id := range ids {
		sc := result.ByStore[id]
		fmt.Fprintf(w, "%s\t%s\t%v\n", sc.Store.Name, formatMoney(sc.Total), sc.Complete)
	}
	w.Flush()

	if result.CheapestStoreID != "" {
		fmt.Printf("\nMax savings: %s (%s vs %s)\n",
			formatMoney(result.MaxSavings),
			result.ByStore[result.CheapestStoreID].Store.Name,
			result.ByStore[result.MostExpensiveStore].Store.Name)
	}

	return nil
}
