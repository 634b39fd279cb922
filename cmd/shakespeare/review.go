package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oletizi/shakespeare-sub001/internal/types"
	"github.com/oletizi/shakespeare-sub001/internal/workflow"
)

var (
	reviewAll   bool
	reviewBatch int
)

var reviewCmd = &cobra.Command{
	Use:   "review [path]",
	Short: "Score unreviewed documents",
	Long: `Score a document on the five quality dimensions and classify its status.

Review is the one-time transition out of the unreviewed state; documents
that have already been reviewed are re-scored only as part of improvement.

Examples:
  shakespeare review docs/intro.md
  shakespeare review --all`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if reviewAll == (len(args) == 1) {
			fatalf("provide exactly one of a document path or --all")
		}

		rt, err := loadRuntime()
		if err != nil {
			fatalf("%v", err)
		}
		defer rt.close()
		ctx := context.Background()

		if reviewAll {
			result, err := rt.orch.ReviewAll(ctx, batchSizeOrDefault(reviewBatch, rt))
			if err != nil {
				fatalf("review failed: %v", err)
			}
			printBatchResult("Reviewed", result)
			for _, path := range result.Successful {
				printEntryScores(rt.store.Entry(path))
			}
			return
		}

		path, err := filepath.Abs(args[0])
		if err != nil {
			fatalf("%v", err)
		}
		entry, err := rt.orch.ReviewOne(ctx, path)
		if err != nil {
			if errors.Is(err, workflow.ErrAlreadyReviewed) {
				fatalf("%v (use 'shakespeare improve' to re-score)", err)
			}
			fatalf("%v", err)
		}
		printEntryScores(entry)
	},
}

func printEntryScores(entry *types.Entry) {
	if entry == nil {
		return
	}
	cyan := color.New(color.FgCyan).SprintFunc()
	fmt.Printf("\n%s\n", cyan(entry.Path))
	for _, dim := range types.Dimensions() {
		fmt.Printf("  %-18s %5.1f\n", dim, entry.CurrentScores[dim])
	}
	fmt.Printf("  %-18s %5.2f  (%s)\n", "average", entry.CurrentScores.Average(), statusLabel(entry.Status))
}

func statusLabel(status types.Status) string {
	switch status {
	case types.StatusMeetsTargets:
		return color.GreenString(string(status))
	case types.StatusNeedsImprovement:
		return color.YellowString(string(status))
	default:
		return color.RedString(string(status))
	}
}

func printBatchResult(verb string, result *workflow.BatchResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Printf("%s %s %d of %d document(s) in %s\n",
		green("✓"), verb, result.Summary.Succeeded, result.Summary.Total,
		result.Summary.Duration.Round(10*time.Millisecond))
	for _, failure := range result.Failed {
		fmt.Printf("  %s %s: %v\n", red("✗"), failure.Path, failure.Err)
	}
}

func batchSizeOrDefault(flag int, rt *runtime) int {
	if flag > 0 {
		return flag
	}
	return rt.cfg.BatchSize
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.Flags().BoolVar(&reviewAll, "all", false, "Review every unreviewed document")
	reviewCmd.Flags().IntVar(&reviewBatch, "batch", 0, "Documents per concurrent group (default from config)")
}
