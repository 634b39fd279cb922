// shakespeare is a content quality lifecycle tool: it discovers markdown
// documents, scores them on five quality dimensions with an AI assessor,
// and iteratively improves the worst-scoring ones while tracking cost.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/oletizi/shakespeare-sub001/internal/assessor"
	"github.com/oletizi/shakespeare-sub001/internal/config"
	"github.com/oletizi/shakespeare-sub001/internal/content"
	"github.com/oletizi/shakespeare-sub001/internal/events"
	"github.com/oletizi/shakespeare-sub001/internal/store"
	"github.com/oletizi/shakespeare-sub001/internal/workflow"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "shakespeare",
	Short: "Iteratively review and improve a library of markdown content",
	Long: `Shakespeare tracks the quality of a markdown content library.

It discovers documents, scores them on five dimensions (readability, SEO,
technical accuracy, engagement, content depth), and rewrites the
worst-scoring ones until they meet their targets. Every AI call's cost is
recorded per document.

Typical session:
  shakespeare init          # scaffold .shakespeare/ in the current directory
  shakespeare discover      # start tracking new documents
  shakespeare review --all  # score everything unreviewed
  shakespeare improve --worst 5
  shakespeare status`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// runtime bundles the wired dependencies commands operate on
type runtime struct {
	cfg    *config.Config
	store  *store.Store
	source content.Source
	events *events.Log // nil when event logging is disabled
	orch   *workflow.Orchestrator
}

func (r *runtime) close() {
	if r.events != nil {
		_ = r.events.Close()
	}
}

// loadRuntime wires the store, content source, assessor, and orchestrator
// from the project configuration in the current directory
func loadRuntime() (*runtime, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}

	st, err := store.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := st.Load(); err != nil {
		return nil, err
	}

	source, err := content.NewDirSource(cfg.LibraryDir)
	if err != nil {
		return nil, err
	}

	claude, err := assessor.NewClaude(assessor.Config{
		Model: cfg.Model,
		Pricing: assessor.Pricing{
			InputTokenCost:  cfg.InputTokenCost,
			OutputTokenCost: cfg.OutputTokenCost,
		},
		MaxConcurrentCalls: cfg.MaxConcurrentCalls,
		RequestsPerMinute:  cfg.RequestsPerMinute,
	})
	if err != nil {
		return nil, err
	}

	var eventLog *events.Log
	if cfg.EventLogPath != "" {
		eventLog, err = events.Open(cfg.EventLogPath)
		if err != nil {
			// The activity log is an observability aid, not a dependency
			slog.Warn("event log unavailable, continuing without it", "path", cfg.EventLogPath, "error", err)
			eventLog = nil
		}
	}

	orch, err := workflow.New(workflow.Config{
		Store:        st,
		Source:       source,
		Assessor:     claude,
		Events:       eventLog,
		Targets:      cfg.TargetScores(),
		ReviewPause:  cfg.ReviewPause,
		ImprovePause: cfg.ImprovePause,
	})
	if err != nil {
		return nil, err
	}

	return &runtime{cfg: cfg, store: st, source: source, events: eventLog, orch: orch}, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
