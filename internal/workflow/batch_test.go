package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oletizi/shakespeare-sub001/internal/types"
)

func TestRunBatchGroupsAndPauses(t *testing.T) {
	source := newFakeSource(nil)
	orch, _, sleeper := newTestOrchestrator(t, source, &fakeAssessor{})

	var (
		mu          sync.Mutex
		inFlight    int
		maxInFlight int
	)
	op := func(ctx context.Context, path string) error {
		mu.Lock()
		inFlight++
		if inFlight > maxInFlight {
			maxInFlight = inFlight
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil
	}

	paths := make([]string, 7)
	for i := range paths {
		paths[i] = fmt.Sprintf("/lib/doc-%d.md", i)
	}

	result, err := orch.runBatch(context.Background(), paths, 3, 2*time.Second, op)
	require.NoError(t, err)

	assert.Equal(t, 7, result.Summary.Total)
	assert.Equal(t, 7, result.Summary.Succeeded)
	assert.Zero(t, result.Summary.Failed)
	assert.LessOrEqual(t, maxInFlight, 3, "no more than one group in flight at once")

	// Groups of [3,3,1] mean two inter-group pauses
	assert.Equal(t, []time.Duration{2 * time.Second, 2 * time.Second}, sleeper.pauses)
}

func TestRunBatchIsolatesFailures(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, newFakeSource(nil), &fakeAssessor{})

	boom := errors.New("scoring failed")
	op := func(ctx context.Context, path string) error {
		if path == "/lib/doc-1.md" {
			return boom
		}
		return nil
	}

	result, err := orch.runBatch(context.Background(),
		[]string{"/lib/doc-0.md", "/lib/doc-1.md", "/lib/doc-2.md"}, 3, 0, op)
	require.NoError(t, err)

	assert.Equal(t, []string{"/lib/doc-0.md", "/lib/doc-2.md"}, result.Successful)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "/lib/doc-1.md", result.Failed[0].Path)
	assert.ErrorIs(t, result.Failed[0].Err, boom)
}

func TestRunBatchHonorsCancellation(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, newFakeSource(nil), &fakeAssessor{})

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	op := func(ctx context.Context, path string) error {
		calls.Add(1)
		cancel()
		return nil
	}

	paths := []string{"/lib/doc-0.md", "/lib/doc-1.md", "/lib/doc-2.md", "/lib/doc-3.md"}
	_, err := orch.runBatch(ctx, paths, 2, time.Second, op)
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, calls.Load(), int32(2), "second group never starts")
}

func TestReviewAllReviewsOnlyPending(t *testing.T) {
	source := newFakeSource(map[string]string{
		"/lib/a.md": "body a",
		"/lib/b.md": "body b",
		"/lib/c.md": "body c",
	})
	fake := &fakeAssessor{scores: map[string]float64{
		"body a": 9.0,
		"body b": 7.5,
	}}
	orch, st, _ := newTestOrchestrator(t, source, fake)
	seedEntry(t, st, "/lib/a.md", 0, types.StatusNeedsReview)
	seedEntry(t, st, "/lib/b.md", 0, types.StatusNeedsReview)
	seedEntry(t, st, "/lib/c.md", 9.2, types.StatusMeetsTargets)

	result, err := orch.ReviewAll(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"/lib/a.md", "/lib/b.md"}, result.Successful)
	assert.Empty(t, result.Failed)

	assert.Equal(t, types.StatusMeetsTargets, st.Entry("/lib/a.md").Status)
	assert.Equal(t, types.StatusNeedsImprovement, st.Entry("/lib/b.md").Status)
	// Already-done entry was not re-reviewed
	assert.Empty(t, st.Entry("/lib/c.md").ReviewHistory)
}

func TestReviewAllRecordsItemFailures(t *testing.T) {
	source := newFakeSource(map[string]string{
		"/lib/a.md": "body a",
		"/lib/b.md": "body b",
	})
	source.fails["/lib/b.md"] = errors.New("unreadable")
	orch, st, _ := newTestOrchestrator(t, source, &fakeAssessor{})
	seedEntry(t, st, "/lib/a.md", 0, types.StatusNeedsReview)
	seedEntry(t, st, "/lib/b.md", 0, types.StatusNeedsReview)

	result, err := orch.ReviewAll(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"/lib/a.md"}, result.Successful)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "/lib/b.md", result.Failed[0].Path)

	// The failed entry stays reviewable
	assert.Equal(t, types.StatusNeedsReview, st.Entry("/lib/b.md").Status)
}

func TestImproveWorstPicksLowestAverages(t *testing.T) {
	textA := "body a " + longFiller()
	textB := "body b " + longFiller()
	textC := "body c " + longFiller()
	source := newFakeSource(map[string]string{
		"/lib/a.md": textA,
		"/lib/b.md": textB,
		"/lib/c.md": textC,
	})
	fake := &fakeAssessor{scores: map[string]float64{
		textA: 7.8,
		textB: 7.2,
		textC: 8.0,
	}}
	orch, st, _ := newTestOrchestrator(t, source, fake)
	seedEntry(t, st, "/lib/a.md", 7.8, types.StatusNeedsImprovement)
	seedEntry(t, st, "/lib/b.md", 7.2, types.StatusNeedsImprovement)
	seedEntry(t, st, "/lib/c.md", 8.0, types.StatusNeedsImprovement)

	result, err := orch.ImproveWorst(context.Background(), 2, 5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/lib/a.md", "/lib/b.md"}, result.Successful)
	assert.Equal(t, 0, st.Entry("/lib/c.md").ImprovementIterations)
}

func TestImproveWorstWithNothingEligible(t *testing.T) {
	orch, st, _ := newTestOrchestrator(t, newFakeSource(nil), &fakeAssessor{})
	seedEntry(t, st, "/lib/a.md", 9.0, types.StatusMeetsTargets)
	seedEntry(t, st, "/lib/b.md", 0, types.StatusNeedsReview)

	result, err := orch.ImproveWorst(context.Background(), 3, 5)
	require.NoError(t, err)
	assert.Empty(t, result.Successful)
	assert.Empty(t, result.Failed)
}

func TestRunFullLifecycle(t *testing.T) {
	body := "draft body " + longFiller()
	source := newFakeSource(map[string]string{"/lib/a.md": body})
	fake := &fakeAssessor{scores: map[string]float64{body: 7.5}}
	orch, st, _ := newTestOrchestrator(t, source, fake)

	result, err := orch.RunFull(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"/lib/a.md"}, result.Discovered)
	assert.Equal(t, 1, result.Review.Summary.Succeeded)
	assert.Equal(t, 1, result.Improve.Summary.Succeeded)

	entry := st.Entry("/lib/a.md")
	assert.Equal(t, 1, entry.ImprovementIterations)
	// One review record plus one improvement record
	assert.Len(t, entry.ReviewHistory, 2)
}

func longFiller() string {
	filler := ""
	for i := 0; i < 20; i++ {
		filler += "sentence with enough length to pass integrity checks. "
	}
	return filler
}
