package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oletizi/shakespeare-sub001/internal/types"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := New(filepath.Join(dir, ".shakespeare", "content-db.json"))
	require.NoError(t, err)
	require.NoError(t, s.Load())
	return s, dir
}

func TestLoadMissingFileCreatesEmptyDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, ".shakespeare", "content-db.json")

	s, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Load())

	// The file exists and is a valid empty database
	data, err := os.ReadFile(dbPath)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "lastUpdated")
	assert.Contains(t, doc, "entries")
	assert.Empty(t, s.Data().Entries)
}

func TestLoadMalformedFileFails(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.json")
	require.NoError(t, os.WriteFile(dbPath, []byte("{not json"), 0644))

	s, err := New(dbPath)
	require.NoError(t, err)
	assert.Error(t, s.Load())
}

func TestLoadNullEntryFails(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.json")

	raw := `{"lastUpdated": "2025-06-01T12:00:00Z", "entries": {"a.md": null}}`
	require.NoError(t, os.WriteFile(dbPath, []byte(raw), 0644))

	s, err := New(dbPath)
	require.NoError(t, err)
	err = s.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.md")
}

func TestLoadInvalidEntryFails(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.json")

	// Scores outside [0,10] fail validation on load
	raw := `{
		"lastUpdated": "2025-06-01T12:00:00Z",
		"entries": {
			"a.md": {"path": "a.md", "currentScores": {"readability": 42}, "status": "needs_review"}
		}
	}`
	require.NoError(t, os.WriteFile(dbPath, []byte(raw), 0644))

	s, err := New(dbPath)
	require.NoError(t, err)
	assert.Error(t, s.Load())
}

func TestUpdateEntryCreatesAndPersists(t *testing.T) {
	s, dir := newTestStore(t)
	docPath := filepath.Join(dir, "docs", "intro.md")

	err := s.UpdateEntry(docPath, func(current *types.Entry) (*types.Entry, error) {
		require.Nil(t, current)
		return &types.Entry{
			Path:          docPath,
			CurrentScores: types.ZeroScores(),
			TargetScores:  types.Scores{"readability": 8.0},
			Status:        types.StatusNeedsReview,
		}, nil
	})
	require.NoError(t, err)

	// Re-open from disk: entry present with absolute key
	s2, err := New(s.Path())
	require.NoError(t, err)
	require.NoError(t, s2.Load())

	entry := s2.Entry(docPath)
	require.NotNil(t, entry)
	assert.Equal(t, docPath, entry.Path)
	assert.Equal(t, types.StatusNeedsReview, entry.Status)
}

func TestSaveEncodesRelativeKeys(t *testing.T) {
	s, dir := newTestStore(t)
	docPath := filepath.Join(dir, "docs", "intro.md")

	require.NoError(t, s.UpdateEntry(docPath, func(*types.Entry) (*types.Entry, error) {
		return &types.Entry{Path: docPath, Status: types.StatusNeedsReview}, nil
	}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	var doc struct {
		Entries map[string]*types.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	// The db lives in <dir>/.shakespeare, so docs/intro.md encodes as ../docs/intro.md
	wantKey := filepath.Join("..", "docs", "intro.md")
	require.Contains(t, doc.Entries, wantKey)
	assert.Equal(t, wantKey, doc.Entries[wantKey].Path)
	assert.False(t, filepath.IsAbs(doc.Entries[wantKey].Path))
}

func TestUpdateEntryRejectsMismatchedPath(t *testing.T) {
	s, dir := newTestStore(t)
	docPath := filepath.Join(dir, "a.md")

	err := s.UpdateEntry(docPath, func(*types.Entry) (*types.Entry, error) {
		return &types.Entry{Path: filepath.Join(dir, "b.md"), Status: types.StatusNeedsReview}, nil
	})
	assert.Error(t, err)
	assert.Nil(t, s.Entry(docPath))
}

func TestUnknownTopLevelFieldsSurviveLoadSave(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db.json")

	raw := `{
		"lastUpdated": "2025-06-01T12:00:00Z",
		"entries": {},
		"workflowConfig": {"autoImprove": true}
	}`
	require.NoError(t, os.WriteFile(dbPath, []byte(raw), 0644))

	s, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Load())
	require.NoError(t, s.Save())

	data, err := os.ReadFile(dbPath)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Contains(t, doc, "workflowConfig")
	assert.JSONEq(t, `{"autoImprove": true}`, string(doc["workflowConfig"]))
}

func TestDataReturnsSameObjectAcrossCalls(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Same(t, s.Data(), s.Data())
}
