// Package ledger attributes AI inference spend to content entries and
// supports aggregate cost reporting. It is pure aggregation over entry
// state: no I/O, no clock beyond timestamping new records.
package ledger

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/oletizi/shakespeare-sub001/internal/types"
)

// Record appends one paid operation to the entry's cost ledger: a new
// OperationCost in the operation history, the matching bucket incremented,
// and totalCost recomputed as the sum of the three buckets.
//
// Entries written before cost accounting existed have no ledger; it is
// initialized to zero values here before the first write, never treated as
// an error.
func Record(entry *types.Entry, kind types.OperationKind, info types.CostInfo) {
	ensureLedger(entry)
	ca := entry.CostAccounting

	ca.OperationHistory = append(ca.OperationHistory, types.OperationCost{
		ID:           uuid.New().String(),
		Operation:    kind,
		Cost:         info.Cost,
		Provider:     info.Provider,
		Model:        info.Model,
		InputTokens:  info.InputTokens,
		OutputTokens: info.OutputTokens,
		Timestamp:    time.Now().UTC(),
	})

	switch kind {
	case types.OpReview:
		ca.ReviewCosts += info.Cost
	case types.OpImprove:
		ca.ImprovementCosts += info.Cost
	case types.OpGenerate:
		ca.GenerationCosts += info.Cost
	}

	ca.TotalCost = ca.ReviewCosts + ca.ImprovementCosts + ca.GenerationCosts
	ca.LastUpdated = time.Now().UTC()
}

// RecordImprove records an improve operation and, given the average scores
// before and after the transformation, attaches the purchased quality delta
// to the entry's most recent review record. costPerQualityPoint is only
// meaningful for a positive delta; a flat or negative delta records 0.
func RecordImprove(entry *types.Entry, info types.CostInfo, scoreBefore, scoreAfter float64) {
	Record(entry, types.OpImprove, info)

	if len(entry.ReviewHistory) == 0 {
		return
	}

	delta := scoreAfter - scoreBefore
	cpp := 0.0
	if delta > 0 {
		cpp = info.Cost / delta
	}

	latest := &entry.ReviewHistory[len(entry.ReviewHistory)-1]
	latest.CostEffectiveness = &types.CostEffectiveness{
		Cost:                info.Cost,
		QualityDelta:        delta,
		CostPerQualityPoint: cpp,
	}
}

// ensureLedger lazily initializes a zero-valued cost ledger
func ensureLedger(entry *types.Entry) {
	if entry.CostAccounting == nil {
		entry.CostAccounting = &types.CostAccounting{
			OperationHistory: []types.OperationCost{},
			LastUpdated:      time.Now().UTC(),
		}
	}
}

// EntryCosts is the per-entry slice of a cost summary
type EntryCosts struct {
	Path             string  `json:"path"`
	ReviewCosts      float64 `json:"reviewCosts"`
	ImprovementCosts float64 `json:"improvementCosts"`
	GenerationCosts  float64 `json:"generationCosts"`
	TotalCost        float64 `json:"totalCost"`
	Operations       int     `json:"operations"`
}

// Summary aggregates cost accounting across entries
type Summary struct {
	ReviewCosts      float64      `json:"reviewCosts"`
	ImprovementCosts float64      `json:"improvementCosts"`
	GenerationCosts  float64      `json:"generationCosts"`
	TotalCost        float64      `json:"totalCost"`
	Operations       int          `json:"operations"`
	Entries          []EntryCosts `json:"entries"`

	// AvgCostPerQualityPoint is sum(improve cost) / sum(positive quality
	// deltas) across all recorded improvements, 0 if none were positive.
	AvgCostPerQualityPoint float64 `json:"avgCostPerQualityPoint"`
}

// Summarize computes total cost per bucket across all entries, or across
// the single entry named by filterPath when it is non-empty.
func Summarize(entries map[string]*types.Entry, filterPath string) *Summary {
	sum := &Summary{}
	var improveSpend, positiveDelta float64

	for path, entry := range entries {
		if filterPath != "" && path != filterPath {
			continue
		}

		for _, rec := range entry.ReviewHistory {
			if ce := rec.CostEffectiveness; ce != nil && ce.QualityDelta > 0 {
				improveSpend += ce.Cost
				positiveDelta += ce.QualityDelta
			}
		}

		ca := entry.CostAccounting
		if ca == nil {
			continue
		}

		sum.ReviewCosts += ca.ReviewCosts
		sum.ImprovementCosts += ca.ImprovementCosts
		sum.GenerationCosts += ca.GenerationCosts
		sum.Operations += len(ca.OperationHistory)
		sum.Entries = append(sum.Entries, EntryCosts{
			Path:             path,
			ReviewCosts:      ca.ReviewCosts,
			ImprovementCosts: ca.ImprovementCosts,
			GenerationCosts:  ca.GenerationCosts,
			TotalCost:        ca.TotalCost,
			Operations:       len(ca.OperationHistory),
		})
	}

	sort.Slice(sum.Entries, func(i, j int) bool { return sum.Entries[i].Path < sum.Entries[j].Path })

	sum.TotalCost = sum.ReviewCosts + sum.ImprovementCosts + sum.GenerationCosts
	if positiveDelta > 0 {
		sum.AvgCostPerQualityPoint = improveSpend / positiveDelta
	}
	return sum
}
