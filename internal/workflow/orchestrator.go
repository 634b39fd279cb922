// Package workflow composes the content source, quality assessor, and
// persistent store into the discover/review/improve operations and their
// batched variants.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/oletizi/shakespeare-sub001/internal/assessor"
	"github.com/oletizi/shakespeare-sub001/internal/content"
	"github.com/oletizi/shakespeare-sub001/internal/events"
	"github.com/oletizi/shakespeare-sub001/internal/ledger"
	"github.com/oletizi/shakespeare-sub001/internal/store"
	"github.com/oletizi/shakespeare-sub001/internal/types"
)

// minImprovedLengthRatio is the floor on an improvement result's length
// relative to the original. Anything shorter is treated as a degraded
// rewrite and rejected.
const minImprovedLengthRatio = 0.3

// Default pauses between batch groups. Improve batches pause longer because
// each item makes three paid API calls instead of one.
const (
	DefaultReviewPause  = 1 * time.Second
	DefaultImprovePause = 3 * time.Second
)

// SleepFunc suspends for d or until ctx is done. Injected so batch tests
// run without real wall-clock delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Config holds orchestrator dependencies and policy
type Config struct {
	Store    *store.Store
	Source   content.Source
	Assessor assessor.Assessor
	Events   *events.Log  // optional activity log
	Targets  types.Scores // target scores stamped onto new entries

	ReviewPause  time.Duration // pause between review batch groups
	ImprovePause time.Duration // pause between improve batch groups
	Sleep        SleepFunc     // defaults to a real sleep
}

// Orchestrator drives documents through the quality lifecycle
type Orchestrator struct {
	store     *store.Store
	source    content.Source
	assessor  assessor.Assessor
	estimator assessor.CostEstimator // nil when the assessor lacks the capability
	events    *events.Log
	targets   types.Scores

	reviewPause  time.Duration
	improvePause time.Duration
	sleep        SleepFunc
}

// New creates an orchestrator. The assessor's optional CostEstimator
// capability is detected here, once, rather than per call.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("content source is required")
	}
	if cfg.Assessor == nil {
		return nil, fmt.Errorf("assessor is required")
	}

	targets := cfg.Targets
	if len(targets) == 0 {
		targets = types.Scores{}
		for _, dim := range types.Dimensions() {
			targets[dim] = types.MeetsTargetsThreshold
		}
	}

	reviewPause := cfg.ReviewPause
	if reviewPause == 0 {
		reviewPause = DefaultReviewPause
	}
	improvePause := cfg.ImprovePause
	if improvePause == 0 {
		improvePause = DefaultImprovePause
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	estimator, _ := cfg.Assessor.(assessor.CostEstimator)

	return &Orchestrator{
		store:        cfg.Store,
		source:       cfg.Source,
		assessor:     cfg.Assessor,
		estimator:    estimator,
		events:       cfg.Events,
		targets:      targets,
		reviewPause:  reviewPause,
		improvePause: improvePause,
		sleep:        sleep,
	}, nil
}

// CanEstimateCost reports whether the assessor supports cost estimation
func (o *Orchestrator) CanEstimateCost() bool {
	return o.estimator != nil
}

// Discover lists every document in the content source and creates a
// zero-scored needs_review entry for each one the store does not already
// track. No assessor call is made; discovery is deliberately free. Returns
// the newly tracked paths. Idempotent: a second run over an unchanged
// corpus returns nothing.
func (o *Orchestrator) Discover(ctx context.Context) ([]string, error) {
	paths, err := o.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list content source: %w", err)
	}

	var created []string
	for _, path := range paths {
		if o.store.Entry(path) != nil {
			continue
		}

		err := o.store.UpdateEntry(path, func(current *types.Entry) (*types.Entry, error) {
			if current != nil {
				return current, nil
			}
			return &types.Entry{
				Path:          path,
				CurrentScores: types.ZeroScores(),
				TargetScores:  o.targets.Clone(),
				Status:        types.StatusNeedsReview,
				ReviewHistory: []types.ReviewRecord{},
			}, nil
		})
		if err != nil {
			return created, fmt.Errorf("failed to track %s: %w", path, err)
		}

		created = append(created, path)
		o.recordEvent(ctx, &events.Event{
			Type:    events.EventDocumentDiscovered,
			Path:    path,
			Message: fmt.Sprintf("tracking new document %s", path),
		})
	}

	slog.Info("discovery complete", "listed", len(paths), "new", len(created))
	return created, nil
}

// ReviewOne scores a needs_review document for the first time, classifies
// its status, and appends one review history record.
//
// Fails with ErrNotFound for untracked paths and ErrAlreadyReviewed for
// entries that have left needs_review.
func (o *Orchestrator) ReviewOne(ctx context.Context, path string) (*types.Entry, error) {
	entry := o.store.Entry(path)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if entry.Status != types.StatusNeedsReview {
		return nil, fmt.Errorf("%w: %s is %s", ErrAlreadyReviewed, path, entry.Status)
	}

	text, err := o.source.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	card, err := o.assessor.Score(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to score %s: %w", path, err)
	}

	var updated *types.Entry
	err = o.store.UpdateEntry(path, func(current *types.Entry) (*types.Entry, error) {
		if current == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		next := current.Clone()
		next.CurrentScores = card.Scores.Clone()
		next.Status = types.Classify(card.Scores)
		next.ReviewHistory = append(next.ReviewHistory, types.ReviewRecord{
			Timestamp:    time.Now().UTC(),
			Scores:       card.Scores.Clone(),
			Improvements: card.Suggestions(),
		})
		if card.CostInfo != nil {
			ledger.Record(next, types.OpReview, *card.CostInfo)
		}
		updated = next
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	o.recordEvent(ctx, &events.Event{
		Type:    events.EventReviewCompleted,
		Path:    path,
		Message: fmt.Sprintf("reviewed %s: avg %.2f, status %s", path, updated.CurrentScores.Average(), updated.Status),
		Data:    map[string]any{"avg": updated.CurrentScores.Average(), "status": string(updated.Status)},
	})

	return updated, nil
}

// WorstScoring returns the tracked document with the lowest positive
// average score among entries eligible for improvement. Entries still in
// needs_review and entries already at meets_targets are excluded, as are
// entries whose average is exactly 0 (never meaningfully scored). The
// second return is false when no eligible entry exists.
//
// Entries are scanned in sorted path order so ties and results are
// deterministic across runs.
func (o *Orchestrator) WorstScoring() (string, bool) {
	db := o.store.Data()
	if db == nil {
		return "", false
	}

	paths := make([]string, 0, len(db.Entries))
	for path := range db.Entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	worst := ""
	worstAvg := 0.0
	for _, path := range paths {
		entry := db.Entries[path]
		if entry.Status == types.StatusNeedsReview || entry.Status == types.StatusMeetsTargets {
			continue
		}
		avg := entry.CurrentScores.Average()
		if avg <= 0 {
			continue
		}
		if worst == "" || avg < worstAvg {
			worst = path
			worstAvg = avg
		}
	}
	return worst, worst != ""
}

// ImproveResult summarizes one committed improvement
type ImproveResult struct {
	Path       string
	AvgBefore  float64
	AvgAfter   float64
	Scores     types.Scores
	Iterations int
	Status     types.Status
}

// ImproveOne runs one improvement cycle on a tracked document: score the
// current text, apply the improvement transform guided by that analysis,
// validate the result, re-score it, write it back to the content source,
// and commit the entry update.
//
// A rejected result (empty, under 30% of the original length, or identical
// to the original) fails loudly with an IntegrityError and leaves both the
// content file and the database untouched.
func (o *Orchestrator) ImproveOne(ctx context.Context, path string) (*ImproveResult, error) {
	entry := o.store.Entry(path)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	text, err := o.source.Read(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// Score the current text even when prior scores exist: the improvement
	// transform needs fresh per-dimension reasoning, not stale history.
	preCard, err := o.assessor.Score(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to score %s: %w", path, err)
	}

	improvement, err := o.assessor.Improve(ctx, text, preCard)
	if err != nil {
		return nil, fmt.Errorf("failed to improve %s: %w", path, err)
	}

	if err := o.checkImprovement(path, text, improvement.Text); err != nil {
		o.recordEvent(ctx, &events.Event{
			Type:     events.EventImprovementRejected,
			Path:     path,
			Severity: events.SeverityWarning,
			Message:  err.Error(),
		})
		return nil, err
	}

	postCard, err := o.assessor.Score(ctx, improvement.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to re-score %s: %w", path, err)
	}

	if err := o.source.Write(ctx, path, improvement.Text); err != nil {
		return nil, fmt.Errorf("failed to write improved %s: %w", path, err)
	}

	avgBefore := preCard.Scores.Average()
	avgAfter := postCard.Scores.Average()

	var updated *types.Entry
	err = o.store.UpdateEntry(path, func(current *types.Entry) (*types.Entry, error) {
		if current == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		next := current.Clone()
		next.ImprovementIterations++
		next.CurrentScores = postCard.Scores.Clone()
		next.Status = types.Classify(postCard.Scores)
		next.ReviewHistory = append(next.ReviewHistory, types.ReviewRecord{
			Timestamp: time.Now().UTC(),
			Scores:    postCard.Scores.Clone(),
			// The suggestions that guided this rewrite come from the
			// pre-improvement analysis
			Improvements: preCard.Suggestions(),
		})

		if preCard.CostInfo != nil {
			ledger.Record(next, types.OpReview, *preCard.CostInfo)
		}
		if postCard.CostInfo != nil {
			ledger.Record(next, types.OpReview, *postCard.CostInfo)
		}
		if improvement.CostInfo != nil {
			ledger.RecordImprove(next, *improvement.CostInfo, avgBefore, avgAfter)
		}

		updated = next
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	o.recordEvent(ctx, &events.Event{
		Type:    events.EventImproveCompleted,
		Path:    path,
		Message: fmt.Sprintf("improved %s: avg %.2f -> %.2f, iteration %d", path, avgBefore, avgAfter, updated.ImprovementIterations),
		Data:    map[string]any{"avg_before": avgBefore, "avg_after": avgAfter},
	})

	return &ImproveResult{
		Path:       path,
		AvgBefore:  avgBefore,
		AvgAfter:   avgAfter,
		Scores:     updated.CurrentScores,
		Iterations: updated.ImprovementIterations,
		Status:     updated.Status,
	}, nil
}

// EstimateImproveCost predicts the USD cost of improving the given
// documents. Returns false when the assessor does not support estimation.
func (o *Orchestrator) EstimateImproveCost(ctx context.Context, paths []string) (float64, bool, error) {
	if o.estimator == nil {
		return 0, false, nil
	}
	var total float64
	for _, path := range paths {
		text, err := o.source.Read(ctx, path)
		if err != nil {
			return 0, true, fmt.Errorf("failed to read %s: %w", path, err)
		}
		cost, err := o.estimator.EstimateCost(ctx, text)
		if err != nil {
			return 0, true, fmt.Errorf("failed to estimate cost for %s: %w", path, err)
		}
		total += cost
	}
	return total, true, nil
}

// checkImprovement validates an improvement result against the integrity
// rules: non-empty, at least 30% of the original's length, and actually
// different from the original
func (o *Orchestrator) checkImprovement(path, original, improved string) error {
	if strings.TrimSpace(improved) == "" {
		return &IntegrityError{Path: path, Reason: "empty result"}
	}
	if float64(len(improved)) < float64(len(original))*minImprovedLengthRatio {
		return &IntegrityError{
			Path:   path,
			Reason: fmt.Sprintf("result is %d chars, under %.0f%% of original %d", len(improved), minImprovedLengthRatio*100, len(original)),
		}
	}
	if improved == original {
		return &IntegrityError{Path: path, Reason: "result identical to original"}
	}
	return nil
}

// recordEvent appends to the activity log when one is configured.
// Best-effort: a logging failure never fails the operation it describes.
func (o *Orchestrator) recordEvent(ctx context.Context, event *events.Event) {
	if o.events == nil {
		return
	}
	if err := o.events.Append(ctx, event); err != nil {
		slog.Warn("failed to record workflow event", "type", event.Type, "error", err)
	}
}
