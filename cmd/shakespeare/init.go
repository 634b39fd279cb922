package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/oletizi/shakespeare-sub001/internal/config"
	"github.com/oletizi/shakespeare-sub001/internal/store"
)

var initLibraryDir string

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a content tracker in the current directory",
	Long: `Initialize a content tracker by creating a .shakespeare/ directory.

This creates:
  - .shakespeare/config.yaml (editable configuration)
  - .shakespeare/content-db.json (the content quality database)

Example:
  cd ~/my-site
  shakespeare init
  shakespeare init --library content/posts`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fatalf("failed to get current directory: %v", err)
		}

		cfg := config.DefaultConfig()
		if initLibraryDir != "" {
			cfg.LibraryDir = initLibraryDir
		}

		configPath := filepath.Join(cwd, ".shakespeare", "config.yaml")
		if _, err := os.Stat(configPath); err == nil {
			fatalf("already initialized: %s exists", configPath)
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			fatalf("failed to create .shakespeare directory: %v", err)
		}
		if err := os.WriteFile(configPath, []byte(configTemplate(cfg)), 0644); err != nil {
			fatalf("failed to write config: %v", err)
		}

		// Create the database file now so later commands never race on it
		st, err := store.New(cfg.DatabasePath)
		if err != nil {
			fatalf("%v", err)
		}
		if err := st.Load(); err != nil {
			fatalf("failed to initialize database: %v", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized content tracker\n\n", green("✓"))
		fmt.Printf("  Config:   %s\n", cyan(configPath))
		fmt.Printf("  Database: %s\n", cyan(st.Path()))
		fmt.Printf("  Library:  %s\n", cyan(cfg.LibraryDir))
		fmt.Println()
		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray("export ANTHROPIC_API_KEY=...   # required for review/improve"))
		fmt.Printf("  %s\n", gray("shakespeare discover"))
		fmt.Printf("  %s\n", gray("shakespeare review --all"))
		fmt.Println()
	},
}

func configTemplate(cfg *config.Config) string {
	return fmt.Sprintf(`# shakespeare configuration
library_dir: %s
database_path: %s
event_log_path: %s
target_score: %.1f
batch_size: %d
review_pause: %s
improve_pause: %s
model: %s
input_token_cost: %.2f
output_token_cost: %.2f
max_concurrent_calls: %d
`,
		cfg.LibraryDir, cfg.DatabasePath, cfg.EventLogPath, cfg.TargetScore,
		cfg.BatchSize, cfg.ReviewPause, cfg.ImprovePause, cfg.Model,
		cfg.InputTokenCost, cfg.OutputTokenCost, cfg.MaxConcurrentCalls)
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initLibraryDir, "library", "", "Directory of markdown documents to track (default \"docs\")")
}
