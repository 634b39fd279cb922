package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find untracked documents and add them to the database",
	Long: `Scan the content library and create a database entry for every markdown
document not yet tracked. New entries start unreviewed with zero scores;
no AI calls are made. Re-running on an unchanged library is a no-op.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := loadRuntime()
		if err != nil {
			fatalf("%v", err)
		}
		defer rt.close()

		created, err := rt.orch.Discover(context.Background())
		if err != nil {
			fatalf("discovery failed: %v", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		if len(created) == 0 {
			fmt.Println("No new documents found.")
			return
		}
		fmt.Printf("%s Tracking %d new document(s):\n", green("✓"), len(created))
		for _, path := range created {
			fmt.Printf("  %s\n", cyan(path))
		}
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
