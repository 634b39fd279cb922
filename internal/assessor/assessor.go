// Package assessor provides AI-powered quality scoring and content
// improvement for tracked documents.
//
// The package is split across several files:
// - assessor.go: collaborator interfaces and result types (this file)
// - claude.go: Anthropic-backed implementation and prompt construction
// - retry.go: circuit breaker and retry logic for API calls
// - jsonx.go: resilient parsing of JSON embedded in model output
package assessor

import (
	"context"
	"sort"

	"github.com/oletizi/shakespeare-sub001/internal/types"
)

// DimensionAnalysis carries the model's reasoning and concrete suggestions
// for one quality dimension
type DimensionAnalysis struct {
	Reasoning   string   `json:"reasoning"`
	Suggestions []string `json:"suggestions"`
}

// Scorecard is the result of scoring one document: a value per quality
// dimension plus the free-text analysis behind each value
type Scorecard struct {
	Scores   types.Scores                 `json:"scores"`
	Analysis map[string]DimensionAnalysis `json:"analysis"`
	CostInfo *types.CostInfo              `json:"-"`
}

// Suggestions flattens every dimension's suggestion strings into one list,
// in canonical dimension order so output is deterministic
func (s *Scorecard) Suggestions() []string {
	var out []string
	seen := make(map[string]bool, len(s.Analysis))
	for _, dim := range types.Dimensions() {
		if a, ok := s.Analysis[dim]; ok {
			out = append(out, a.Suggestions...)
			seen[dim] = true
		}
	}
	// Any dimensions outside the canonical set, sorted for stability
	var rest []string
	for dim := range s.Analysis {
		if !seen[dim] {
			rest = append(rest, dim)
		}
	}
	sort.Strings(rest)
	for _, dim := range rest {
		out = append(out, s.Analysis[dim].Suggestions...)
	}
	return out
}

// Improvement is the result of an improvement transformation
type Improvement struct {
	Text     string
	CostInfo *types.CostInfo
}

// Assessor scores document text and applies improvement transformations
type Assessor interface {
	// Score rates the text on every quality dimension
	Score(ctx context.Context, text string) (*Scorecard, error)
	// Improve rewrites the text guided by a prior scorecard's analysis
	Improve(ctx context.Context, text string, card *Scorecard) (*Improvement, error)
}

// CostEstimator is an optional capability an Assessor may implement.
// Callers check for it once at construction, never per call.
type CostEstimator interface {
	// EstimateCost predicts the USD cost of one improvement cycle
	// (score, improve, re-score) for the given text
	EstimateCost(ctx context.Context, text string) (float64, error)
}
