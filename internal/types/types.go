// Package types defines the core data model for the content quality
// lifecycle: entries, scores, review history, and the cost accounting
// attached to each tracked document.
package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status represents the lifecycle stage of a tracked document
type Status string

const (
	// StatusNeedsReview indicates a document that has been discovered but not yet scored
	StatusNeedsReview Status = "needs_review"
	// StatusNeedsImprovement indicates a scored document below its quality targets
	StatusNeedsImprovement Status = "needs_improvement"
	// StatusMeetsTargets indicates a document at or above its quality targets
	StatusMeetsTargets Status = "meets_targets"
)

// IsValid reports whether s is one of the known lifecycle statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusNeedsReview, StatusNeedsImprovement, StatusMeetsTargets:
		return true
	}
	return false
}

// Quality dimensions scored by the assessor. The set is fixed: every
// scorecard carries exactly these five dimensions, each in [0,10].
const (
	DimReadability       = "readability"
	DimSEO               = "seoScore"
	DimTechnicalAccuracy = "technicalAccuracy"
	DimEngagement        = "engagement"
	DimContentDepth      = "contentDepth"
)

// Dimensions lists the scored quality dimensions in canonical order
func Dimensions() []string {
	return []string{DimReadability, DimSEO, DimTechnicalAccuracy, DimEngagement, DimContentDepth}
}

// Scores maps a quality dimension name to its value in [0,10]
type Scores map[string]float64

// Average returns the mean of all dimension values, or 0 for an empty map
func (s Scores) Average() float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

// Clone returns an independent copy of the score map
func (s Scores) Clone() Scores {
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// ZeroScores returns a score map with every known dimension set to 0,
// the shape discovery seeds new entries with
func ZeroScores() Scores {
	out := make(Scores, len(Dimensions()))
	for _, d := range Dimensions() {
		out[d] = 0
	}
	return out
}

// OperationKind identifies a paid AI operation recorded in the cost ledger
type OperationKind string

const (
	OpReview   OperationKind = "review"
	OpImprove  OperationKind = "improve"
	OpGenerate OperationKind = "generate"
)

// CostInfo describes the inference spend of a single AI call, as reported
// by the assessor
type CostInfo struct {
	Cost         float64 `json:"cost"`
	Provider     string  `json:"provider"`
	Model        string  `json:"model"`
	InputTokens  int64   `json:"inputTokens"`
	OutputTokens int64   `json:"outputTokens"`
}

// OperationCost is one append-only record in an entry's operation history,
// one per paid AI call
type OperationCost struct {
	ID           string        `json:"id"`
	Operation    OperationKind `json:"operation"`
	Cost         float64       `json:"cost"`
	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	InputTokens  int64         `json:"inputTokens"`
	OutputTokens int64         `json:"outputTokens"`
	Timestamp    time.Time     `json:"timestamp"`
}

// CostAccounting is the per-entry cumulative cost ledger. It is absent on
// entries written by older versions of the tool; the ledger package
// initializes it lazily before the first write.
type CostAccounting struct {
	ReviewCosts      float64         `json:"reviewCosts"`
	ImprovementCosts float64         `json:"improvementCosts"`
	GenerationCosts  float64         `json:"generationCosts"`
	TotalCost        float64         `json:"totalCost"`
	OperationHistory []OperationCost `json:"operationHistory"`
	LastUpdated      time.Time       `json:"lastUpdated"`
}

// CostEffectiveness records the quality gain purchased by an improve
// operation, attached to the review record the operation produced
type CostEffectiveness struct {
	Cost                float64 `json:"cost"`
	QualityDelta        float64 `json:"qualityDelta"`
	CostPerQualityPoint float64 `json:"costPerQualityPoint"`
}

// ReviewRecord is one entry in the append-only review history
type ReviewRecord struct {
	Timestamp         time.Time          `json:"timestamp"`
	Scores            Scores             `json:"scores"`
	Improvements      []string           `json:"improvements"`
	CostEffectiveness *CostEffectiveness `json:"costEffectiveness,omitempty"`
}

// Entry is the persisted record of one tracked document. The Path field is
// the unique key: absolute in memory, stored relative to the database file's
// directory on disk.
type Entry struct {
	Path                  string          `json:"path"`
	CurrentScores         Scores          `json:"currentScores"`
	TargetScores          Scores          `json:"targetScores"`
	Status                Status          `json:"status"`
	ImprovementIterations int             `json:"improvementIterations"`
	ReviewHistory         []ReviewRecord  `json:"reviewHistory"`
	CostAccounting        *CostAccounting `json:"costAccounting,omitempty"`
}

// Clone returns a deep copy of the entry. Workflow operations mutate a copy
// and commit it by whole-object replacement.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	out := *e
	out.CurrentScores = e.CurrentScores.Clone()
	out.TargetScores = e.TargetScores.Clone()
	out.ReviewHistory = make([]ReviewRecord, len(e.ReviewHistory))
	copy(out.ReviewHistory, e.ReviewHistory)
	if e.CostAccounting != nil {
		ca := *e.CostAccounting
		ca.OperationHistory = make([]OperationCost, len(e.CostAccounting.OperationHistory))
		copy(ca.OperationHistory, e.CostAccounting.OperationHistory)
		out.CostAccounting = &ca
	}
	return &out
}

// Validate checks the entry's internal invariants
func (e *Entry) Validate() error {
	if e.Path == "" {
		return fmt.Errorf("entry has empty path")
	}
	if !e.Status.IsValid() {
		return fmt.Errorf("entry %s has unknown status %q", e.Path, e.Status)
	}
	if e.ImprovementIterations < 0 {
		return fmt.Errorf("entry %s has negative improvement iterations", e.Path)
	}
	for dim, v := range e.CurrentScores {
		if v < 0 || v > 10 {
			return fmt.Errorf("entry %s score %s=%.2f outside [0,10]", e.Path, dim, v)
		}
	}
	return nil
}

// Database is the full in-memory content database: every tracked entry keyed
// by its absolute path, plus any top-level fields written by other tools
// (CLI workflow config, etc.) which are preserved verbatim across a
// load/save cycle.
type Database struct {
	LastUpdated time.Time
	Entries     map[string]*Entry

	// Extra holds unknown top-level document fields this engine does not
	// own. They round-trip untouched.
	Extra map[string]json.RawMessage
}

// NewDatabase returns an empty database ready for use
func NewDatabase() *Database {
	return &Database{
		LastUpdated: time.Now().UTC(),
		Entries:     make(map[string]*Entry),
	}
}

// Validate checks the map-key/entry-path invariant across the database
func (db *Database) Validate() error {
	for key, entry := range db.Entries {
		if entry == nil {
			return fmt.Errorf("nil entry under key %s", key)
		}
		if entry.Path != key {
			return fmt.Errorf("entry key %s does not match entry path %s", key, entry.Path)
		}
		if err := entry.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON emits the on-disk document shape: lastUpdated, entries, and
// any preserved unknown fields at the top level
func (db *Database) MarshalJSON() ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(db.Extra)+2)
	for k, v := range db.Extra {
		doc[k] = v
	}

	ts, err := json.Marshal(db.LastUpdated)
	if err != nil {
		return nil, err
	}
	doc["lastUpdated"] = ts

	entries := db.Entries
	if entries == nil {
		entries = map[string]*Entry{}
	}
	ents, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}
	doc["entries"] = ents

	return json.Marshal(doc)
}

// UnmarshalJSON parses the on-disk document, capturing top-level fields it
// does not own into Extra
func (db *Database) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	db.Entries = make(map[string]*Entry)
	db.Extra = nil

	for key, raw := range doc {
		switch key {
		case "lastUpdated":
			if err := json.Unmarshal(raw, &db.LastUpdated); err != nil {
				return fmt.Errorf("invalid lastUpdated: %w", err)
			}
		case "entries":
			if err := json.Unmarshal(raw, &db.Entries); err != nil {
				return fmt.Errorf("invalid entries: %w", err)
			}
		default:
			if db.Extra == nil {
				db.Extra = make(map[string]json.RawMessage)
			}
			db.Extra[key] = raw
		}
	}

	if db.Entries == nil {
		db.Entries = make(map[string]*Entry)
	}
	return nil
}
