package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/leaseiq/leaseiq/internal/analysis"
	"github.com/leaseiq/leaseiq/internal/model"
)

// compareFields are the extracted terms shown side by side, in order.
var compareFields = []string{
	"make", "model", "year", "vin",
	"purchasePrice", "monthlyPaymentINR", "downPaymentINR",
	"leaseTermMonths", "aprPercent", "residualValueINR",
	"earlyTerminationLevel", "maintenanceType", "warrantyType", "penaltyLevel",
}

// NewCompareCommand creates the compare command.
func NewCompareCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <contract-a.pdf> <contract-b.pdf>",
		Short: "Extract two contracts and compare their terms side by side",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			results := make([]*analysis.UploadResult, 2)
			g, ctx := errgroup.WithContext(cmd.Context())
			for i, path := range args {
				i, path := i, path
				g.Go(func() error {
					res, err := uploadContract(ctx, app.backend, path)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					results[i] = res
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			printComparison(args, results[0].Data, results[1].Data)
			return nil
		},
	}
}

func uploadContract(ctx context.Context, backend *analysis.Client, path string) (*analysis.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return backend.Upload(ctx, filepath.Base(path), f)
}

func printComparison(paths []string, a, b model.Summary) {
	nameA := filepath.Base(paths[0])
	nameB := filepath.Base(paths[1])

	fmt.Printf("%-24s %-24s %-24s\n", "Field", nameA, nameB)
	fmt.Printf("%-24s %-24s %-24s\n", "-----", "-----", "-----")
	for _, field := range compareFields {
		va, vb := a.String(field), b.String(field)
		if va == "" && vb == "" {
			continue
		}
		if va == "" {
			va = "-"
		}
		if vb == "" {
			vb = "-"
		}
		fmt.Printf("%-24s %-24s %-24s\n", field, va, vb)
	}
}
