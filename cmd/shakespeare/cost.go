package main

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oletizi/shakespeare-sub001/internal/ledger"
)

var costCmd = &cobra.Command{
	Use:   "cost [path]",
	Short: "Show AI spending, per document or in total",
	Long: `Display cumulative AI costs recorded against tracked documents: review,
improvement, and generation spend, plus cost-effectiveness (dollars per
quality point gained).

With a path argument, shows only that document's ledger.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := loadRuntime()
		if err != nil {
			fatalf("%v", err)
		}
		defer rt.close()

		filter := ""
		if len(args) == 1 {
			filter, err = filepath.Abs(args[0])
			if err != nil {
				fatalf("%v", err)
			}
		}

		summary := ledger.Summarize(rt.store.Data().Entries, filter)

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== AI Cost Summary ==="))
		fmt.Printf("%s\n", yellow("Totals:"))
		fmt.Printf("  Reviews:      $%.4f\n", summary.ReviewCosts)
		fmt.Printf("  Improvements: $%.4f\n", summary.ImprovementCosts)
		if summary.GenerationCosts > 0 {
			fmt.Printf("  Generation:   $%.4f\n", summary.GenerationCosts)
		}
		fmt.Printf("  Total:        $%.4f across %d operation(s)\n", summary.TotalCost, summary.Operations)

		if summary.AvgCostPerQualityPoint > 0 {
			fmt.Println()
			fmt.Printf("%s $%.4f per quality point gained\n", yellow("Cost-effectiveness:"), summary.AvgCostPerQualityPoint)
		}

		if filter == "" && len(summary.Entries) > 0 {
			fmt.Println()
			fmt.Printf("%s\n", yellow("Per document:"))
			for _, entry := range summary.Entries {
				fmt.Printf("  %-50s $%.4f (%d op(s))\n", truncatePath(entry.Path, 50), entry.TotalCost, entry.Operations)
			}
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(costCmd)
}
