package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabasePreservesUnknownTopLevelFields(t *testing.T) {
	raw := `{
		"lastUpdated": "2025-06-01T12:00:00Z",
		"workflowConfig": {"autoImprove": true, "maxIterations": 3},
		"entries": {
			"docs/intro.md": {
				"path": "docs/intro.md",
				"currentScores": {"readability": 7.5},
				"targetScores": {"readability": 8.0},
				"status": "needs_improvement",
				"improvementIterations": 1,
				"reviewHistory": []
			}
		}
	}`

	var db Database
	require.NoError(t, json.Unmarshal([]byte(raw), &db))

	require.Len(t, db.Entries, 1)
	assert.Equal(t, StatusNeedsImprovement, db.Entries["docs/intro.md"].Status)
	require.Contains(t, db.Extra, "workflowConfig")

	out, err := json.Marshal(&db)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Contains(t, doc, "workflowConfig")
	assert.JSONEq(t, `{"autoImprove": true, "maxIterations": 3}`, string(doc["workflowConfig"]))
}

func TestDatabaseValidate(t *testing.T) {
	db := NewDatabase()
	db.Entries["/abs/a.md"] = &Entry{
		Path:   "/abs/a.md",
		Status: StatusNeedsReview,
	}
	require.NoError(t, db.Validate())

	// Key/path mismatch violates the map invariant
	db.Entries["/abs/b.md"] = &Entry{
		Path:   "/abs/other.md",
		Status: StatusNeedsReview,
	}
	assert.Error(t, db.Validate())
}

func TestEntryValidate(t *testing.T) {
	e := &Entry{Path: "/a.md", Status: StatusMeetsTargets, CurrentScores: Scores{"readability": 9.1}}
	require.NoError(t, e.Validate())

	e.CurrentScores["readability"] = 11
	assert.Error(t, e.Validate())

	assert.Error(t, (&Entry{Path: "", Status: StatusNeedsReview}).Validate())
	assert.Error(t, (&Entry{Path: "/a.md", Status: Status("bogus")}).Validate())
}

func TestEntryCloneIsIndependent(t *testing.T) {
	orig := &Entry{
		Path:          "/a.md",
		CurrentScores: Scores{"readability": 7.0},
		TargetScores:  Scores{"readability": 8.0},
		Status:        StatusNeedsImprovement,
		ReviewHistory: []ReviewRecord{{Timestamp: time.Now(), Scores: Scores{"readability": 7.0}}},
		CostAccounting: &CostAccounting{
			ReviewCosts:      0.01,
			TotalCost:        0.01,
			OperationHistory: []OperationCost{{ID: "op-1", Operation: OpReview, Cost: 0.01}},
		},
	}

	clone := orig.Clone()
	clone.CurrentScores["readability"] = 9.9
	clone.ReviewHistory = append(clone.ReviewHistory, ReviewRecord{})
	clone.CostAccounting.OperationHistory = append(clone.CostAccounting.OperationHistory, OperationCost{ID: "op-2"})

	assert.Equal(t, 7.0, orig.CurrentScores["readability"])
	assert.Len(t, orig.ReviewHistory, 1)
	assert.Len(t, orig.CostAccounting.OperationHistory, 1)
}

func TestZeroScoresCoversAllDimensions(t *testing.T) {
	z := ZeroScores()
	require.Len(t, z, len(Dimensions()))
	for _, d := range Dimensions() {
		v, ok := z[d]
		require.True(t, ok, "missing dimension %s", d)
		assert.Equal(t, 0.0, v)
	}
}
