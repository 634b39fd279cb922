package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oletizi/shakespeare-sub001/internal/workflow"
)

var (
	runImprove int
	runBatch   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full workflow: discover, review, improve",
	Long: `Run the complete content quality workflow in sequence:

  1. discover  - track any new documents in the library
  2. review    - score every unreviewed document
  3. improve   - rewrite the N worst-scoring documents

Each phase finishes (and its results are committed) before the next
begins. A document failure within a phase is reported but does not stop
the run.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := loadRuntime()
		if err != nil {
			fatalf("%v", err)
		}
		defer rt.close()

		result, err := rt.orch.RunFull(context.Background(), runImprove, batchSizeOrDefault(runBatch, rt))
		if err != nil {
			fatalf("workflow failed: %v", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Workflow Complete ==="))
		fmt.Printf("  Discovered: %d new document(s)\n", len(result.Discovered))
		fmt.Printf("  Reviewed:   %d succeeded, %d failed\n", result.Review.Summary.Succeeded, result.Review.Summary.Failed)
		fmt.Printf("  Improved:   %d succeeded, %d failed\n", result.Improve.Summary.Succeeded, result.Improve.Summary.Failed)
		fmt.Printf("  Duration:   %s\n", result.Duration.Round(10*time.Millisecond))
		fmt.Println()

		failures := append(append([]string{}, batchFailures(result.Review)...), batchFailures(result.Improve)...)
		if len(failures) == 0 {
			fmt.Printf("%s All documents processed cleanly\n", green("✓"))
		} else {
			red := color.New(color.FgRed).SprintFunc()
			for _, failure := range failures {
				fmt.Printf("  %s %s\n", red("✗"), failure)
			}
		}
	},
}

func batchFailures(result *workflow.BatchResult) []string {
	var out []string
	for _, failure := range result.Failed {
		out = append(out, fmt.Sprintf("%s: %v", failure.Path, failure.Err))
	}
	return out
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runImprove, "improve", 3, "Number of worst-scoring documents to improve")
	runCmd.Flags().IntVar(&runBatch, "batch", 0, "Documents per concurrent group (default from config)")
}
