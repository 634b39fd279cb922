package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	improveWorst int
	improveBatch int
)

var improveCmd = &cobra.Command{
	Use:   "improve [path]",
	Short: "Rewrite low-scoring documents to raise their quality",
	Long: `Run an improvement cycle on a document: score it, rewrite it guided by
the per-dimension analysis, re-score the result, and commit the new text.

Rewrites that come back empty, suspiciously short, or identical to the
original are rejected and nothing is changed.

Examples:
  shakespeare improve docs/intro.md
  shakespeare improve --worst 5`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if (improveWorst > 0) == (len(args) == 1) {
			fatalf("provide exactly one of a document path or --worst N")
		}

		rt, err := loadRuntime()
		if err != nil {
			fatalf("%v", err)
		}
		defer rt.close()
		ctx := context.Background()

		if improveWorst > 0 {
			printImproveEstimate(ctx, rt, improveWorst)
			result, err := rt.orch.ImproveWorst(ctx, improveWorst, batchSizeOrDefault(improveBatch, rt))
			if err != nil {
				fatalf("improve failed: %v", err)
			}
			if result.Summary.Total == 0 {
				fmt.Println("Nothing to improve: no reviewed document is below its targets.")
				return
			}
			printBatchResult("Improved", result)
			for _, path := range result.Successful {
				printEntryScores(rt.store.Entry(path))
			}
			return
		}

		path, err := filepath.Abs(args[0])
		if err != nil {
			fatalf("%v", err)
		}
		result, err := rt.orch.ImproveOne(ctx, path)
		if err != nil {
			fatalf("%v", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Improved %s: %.2f → %.2f (iteration %d, %s)\n",
			green("✓"), result.Path, result.AvgBefore, result.AvgAfter,
			result.Iterations, statusLabel(result.Status))
	},
}

// printImproveEstimate shows a cost pre-flight when the assessor supports
// estimation. Informational only; the batch proceeds either way.
func printImproveEstimate(ctx context.Context, rt *runtime, count int) {
	if !rt.orch.CanEstimateCost() {
		return
	}
	worst, ok := rt.orch.WorstScoring()
	if !ok {
		return
	}
	// Estimate from the single worst document and scale: close enough for
	// a pre-flight number without reading every candidate twice
	cost, supported, err := rt.orch.EstimateImproveCost(ctx, []string{worst})
	if err != nil || !supported {
		return
	}
	gray := color.New(color.FgHiBlack).SprintFunc()
	fmt.Printf("%s\n", gray(fmt.Sprintf("Estimated cost: ~$%.2f for up to %d document(s)", cost*float64(count), count)))
}

func init() {
	rootCmd.AddCommand(improveCmd)
	improveCmd.Flags().IntVar(&improveWorst, "worst", 0, "Improve the N lowest-scoring documents")
	improveCmd.Flags().IntVar(&improveBatch, "batch", 0, "Documents per concurrent group (default from config)")
}
