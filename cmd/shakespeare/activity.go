package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oletizi/shakespeare-sub001/internal/events"
)

var (
	activityLimit int
	activityPath  string
)

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show recent workflow events",
	Long: `Display the most recent workflow events from the activity log:
discoveries, reviews, improvements, rejections, and batch completions.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		rt, err := loadRuntime()
		if err != nil {
			fatalf("%v", err)
		}
		defer rt.close()

		if rt.events == nil {
			fmt.Println("Event logging is disabled (event_log_path is empty).")
			return
		}

		filter := events.Filter{Limit: activityLimit}
		if activityPath != "" {
			filter.Path, err = filepath.Abs(activityPath)
			if err != nil {
				fatalf("%v", err)
			}
		}

		recent, err := rt.events.Recent(context.Background(), filter)
		if err != nil {
			fatalf("failed to read activity log: %v", err)
		}
		if len(recent) == 0 {
			fmt.Println("No recorded activity yet.")
			return
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		for _, event := range recent {
			label := string(event.Type)
			if event.Severity == events.SeverityWarning {
				label = color.YellowString(label)
			} else if event.Severity == events.SeverityError {
				label = color.RedString(label)
			}
			fmt.Printf("%s  %-22s %s\n",
				gray(event.Timestamp.Local().Format("2006-01-02 15:04:05")),
				label, event.Message)
		}
	},
}

func init() {
	rootCmd.AddCommand(activityCmd)
	activityCmd.Flags().IntVarP(&activityLimit, "limit", "n", 0, "Max events to show (default 50)")
	activityCmd.Flags().StringVar(&activityPath, "path", "", "Only events for this document")
}
