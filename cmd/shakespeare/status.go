package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oletizi/shakespeare-sub001/internal/types"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the quality status of every tracked document",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := loadRuntime()
		if err != nil {
			fatalf("%v", err)
		}
		defer rt.close()

		db := rt.store.Data()
		if len(db.Entries) == 0 {
			fmt.Println("No tracked documents. Run 'shakespeare discover' first.")
			return
		}

		paths := make([]string, 0, len(db.Entries))
		for path := range db.Entries {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		counts := map[types.Status]int{}
		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("\n%s\n\n", cyan("=== Content Status ==="))
		fmt.Printf("  %-50s %7s %5s  %s\n", "DOCUMENT", "AVG", "ITER", "STATUS")
		for _, path := range paths {
			entry := db.Entries[path]
			counts[entry.Status]++
			avg := "-"
			if a := entry.CurrentScores.Average(); a > 0 {
				avg = fmt.Sprintf("%.2f", a)
			}
			fmt.Printf("  %-50s %7s %5d  %s\n",
				truncatePath(path, 50), avg, entry.ImprovementIterations, statusLabel(entry.Status))
		}

		fmt.Println()
		fmt.Printf("  %d tracked: %s %d, %s %d, %s %d\n",
			len(paths),
			color.GreenString("meets_targets"), counts[types.StatusMeetsTargets],
			color.YellowString("needs_improvement"), counts[types.StatusNeedsImprovement],
			color.RedString("needs_review"), counts[types.StatusNeedsReview])
		fmt.Println()
	},
}

// truncatePath shortens long paths from the left, keeping the filename end
func truncatePath(path string, max int) string {
	if len(path) <= max {
		return path
	}
	return "..." + path[len(path)-max+3:]
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
