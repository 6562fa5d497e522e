package commands

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

// NewVinCommand creates the vin command.
func NewVinCommand() *cobra.Command {
	var price float64

	cmd := &cobra.Command{
		Use:   "vin <vin>",
		Short: "Check market pricing for a vehicle by VIN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			report, err := app.backend.MarketInfo(cmd.Context(), args[0], price)
			if err != nil {
				return err
			}

			fmt.Println("Vehicle")
			fmt.Println("=======")
			keys := make([]string, 0, len(report.Vehicle))
			for k := range report.Vehicle {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("  %-12s %v\n", k, report.Vehicle[k])
			}

			fmt.Println("\nMarket")
			fmt.Println("======")
			fmt.Printf("  %-12s $%.2f\n", "fair price", report.MarketPrice)
			if low, ok := report.SuggestedRange["low"]; ok {
				fmt.Printf("  %-12s $%.2f - $%.2f\n", "range", low, report.SuggestedRange["high"])
			}
			if price > 0 {
				fmt.Printf("  %-12s $%.2f\n", "difference", report.Difference)
				fmt.Printf("  %-12s %s\n", "rating", report.Rating)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&price, "price", 0, "Contract price to compare against the market")
	return cmd
}
