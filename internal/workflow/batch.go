package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/oletizi/shakespeare-sub001/internal/events"
	"github.com/oletizi/shakespeare-sub001/internal/types"
)

// DefaultBatchSize is the group size used when a caller passes 0
const DefaultBatchSize = 5

// ItemFailure records one document that failed inside a batch
type ItemFailure struct {
	Path string
	Err  error
}

// BatchSummary aggregates the outcome of one batch operation
type BatchSummary struct {
	Total     int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// BatchResult reports a batch operation's per-item outcomes
type BatchResult struct {
	Successful []string
	Failed     []ItemFailure
	Summary    BatchSummary
}

// WorkflowResult reports a full discover/review/improve run
type WorkflowResult struct {
	Discovered []string
	Review     *BatchResult
	Improve    *BatchResult
	Duration   time.Duration
}

// runBatch processes paths in groups of batchSize. Items within a group run
// concurrently; groups run serially with pause between them. One item's
// failure never stops the batch: it is recorded and the rest proceed.
func (o *Orchestrator) runBatch(ctx context.Context, paths []string, batchSize int, pause time.Duration, op func(ctx context.Context, path string) error) (*BatchResult, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	start := time.Now()
	result := &BatchResult{}

	for groupStart := 0; groupStart < len(paths); groupStart += batchSize {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		groupEnd := groupStart + batchSize
		if groupEnd > len(paths) {
			groupEnd = len(paths)
		}
		group := paths[groupStart:groupEnd]

		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for _, path := range group {
			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				if err := op(ctx, path); err != nil {
					slog.Warn("batch item failed", "path", path, "error", err)
					mu.Lock()
					result.Failed = append(result.Failed, ItemFailure{Path: path, Err: err})
					mu.Unlock()
					return
				}
				mu.Lock()
				result.Successful = append(result.Successful, path)
				mu.Unlock()
			}(path)
		}
		wg.Wait()

		if groupEnd < len(paths) {
			if err := o.sleep(ctx, pause); err != nil {
				return result, err
			}
		}
	}

	sort.Strings(result.Successful)
	result.Summary = BatchSummary{
		Total:     len(paths),
		Succeeded: len(result.Successful),
		Failed:    len(result.Failed),
		Duration:  time.Since(start),
	}
	return result, nil
}

// ReviewAll reviews every tracked document still in needs_review, in
// concurrent groups of batchSize
func (o *Orchestrator) ReviewAll(ctx context.Context, batchSize int) (*BatchResult, error) {
	pending := o.pendingReview()
	if len(pending) == 0 {
		return &BatchResult{}, nil
	}

	result, err := o.runBatch(ctx, pending, batchSize, o.reviewPause, func(ctx context.Context, path string) error {
		_, err := o.ReviewOne(ctx, path)
		return err
	})
	if err != nil {
		return result, err
	}

	o.recordEvent(ctx, &events.Event{
		Type:    events.EventBatchCompleted,
		Message: fmt.Sprintf("review batch: %d succeeded, %d failed", result.Summary.Succeeded, result.Summary.Failed),
		Data:    map[string]any{"operation": "review", "succeeded": result.Summary.Succeeded, "failed": result.Summary.Failed},
	})
	return result, nil
}

// ImproveWorst improves the count lowest-scoring eligible documents, in
// concurrent groups of batchSize. Eligibility matches WorstScoring:
// reviewed, below targets, positive average.
func (o *Orchestrator) ImproveWorst(ctx context.Context, count, batchSize int) (*BatchResult, error) {
	targets := o.improvable()
	if count > 0 && count < len(targets) {
		targets = targets[:count]
	}
	if len(targets) == 0 {
		return &BatchResult{}, nil
	}

	result, err := o.runBatch(ctx, targets, batchSize, o.improvePause, func(ctx context.Context, path string) error {
		_, err := o.ImproveOne(ctx, path)
		return err
	})
	if err != nil {
		return result, err
	}

	o.recordEvent(ctx, &events.Event{
		Type:    events.EventBatchCompleted,
		Message: fmt.Sprintf("improve batch: %d succeeded, %d failed", result.Summary.Succeeded, result.Summary.Failed),
		Data:    map[string]any{"operation": "improve", "succeeded": result.Summary.Succeeded, "failed": result.Summary.Failed},
	})
	return result, nil
}

// RunFull executes the complete lifecycle: discover new documents, review
// everything pending, then improve the improveCount worst-scoring documents
func (o *Orchestrator) RunFull(ctx context.Context, improveCount, batchSize int) (*WorkflowResult, error) {
	start := time.Now()

	discovered, err := o.Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery failed: %w", err)
	}

	review, err := o.ReviewAll(ctx, batchSize)
	if err != nil {
		return nil, fmt.Errorf("review phase failed: %w", err)
	}

	improve, err := o.ImproveWorst(ctx, improveCount, batchSize)
	if err != nil {
		return nil, fmt.Errorf("improve phase failed: %w", err)
	}

	result := &WorkflowResult{
		Discovered: discovered,
		Review:     review,
		Improve:    improve,
		Duration:   time.Since(start),
	}

	o.recordEvent(ctx, &events.Event{
		Type: events.EventWorkflowCompleted,
		Message: fmt.Sprintf("workflow: %d discovered, %d reviewed, %d improved in %s",
			len(discovered), review.Summary.Succeeded, improve.Summary.Succeeded, result.Duration.Round(time.Millisecond)),
	})
	return result, nil
}

// pendingReview returns the sorted paths of entries still in needs_review
func (o *Orchestrator) pendingReview() []string {
	db := o.store.Data()
	if db == nil {
		return nil
	}
	var pending []string
	for path, entry := range db.Entries {
		if entry.Status == types.StatusNeedsReview {
			pending = append(pending, path)
		}
	}
	sort.Strings(pending)
	return pending
}

// improvable returns improvement-eligible paths ordered worst average
// first, ties broken by path
func (o *Orchestrator) improvable() []string {
	db := o.store.Data()
	if db == nil {
		return nil
	}

	type scored struct {
		path string
		avg  float64
	}
	var eligible []scored
	for path, entry := range db.Entries {
		if entry.Status == types.StatusNeedsReview || entry.Status == types.StatusMeetsTargets {
			continue
		}
		avg := entry.CurrentScores.Average()
		if avg <= 0 {
			continue
		}
		eligible = append(eligible, scored{path: path, avg: avg})
	}
	sort.Slice(eligible, func(i, j int) bool {
		if eligible[i].avg != eligible[j].avg {
			return eligible[i].avg < eligible[j].avg
		}
		return eligible[i].path < eligible[j].path
	})

	paths := make([]string, len(eligible))
	for i, s := range eligible {
		paths[i] = s.path
	}
	return paths
}
