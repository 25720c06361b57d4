package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-gluten-scan/internal/ai"
	"go-gluten-scan/internal/model"
	"go-gluten-scan/internal/ws"
)

var testNow = time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

func newClassifierFixture(verdict *ai.Verdict) (*fakeProductRepo, *fakeClassifier, *StalenessClassifier) {
	repo := newFakeProductRepo()
	classifier := &fakeClassifier{verdict: verdict}
	sc := NewStalenessClassifier(repo, classifier, nil, ClassifierConfig{
		FreshnessWindow: 7 * 24 * time.Hour,
		Workers:         1,
		QueueSize:       8,
		Now:             func() time.Time { return testNow },
	})
	return repo, classifier, sc
}

func TestCheckStaleProductGetsUpdated(t *testing.T) {
	repo, _, sc := newClassifierFixture(&ai.Verdict{
		Label:       model.StatusContainsGluten,
		Explanation: "Wheat flour is listed",
	})
	repo.put(&model.Product{
		Barcode:         "0001",
		Name:            "Granola Bar",
		Ingredients:     model.IngredientList{"oats", "honey", "wheat flour"},
		StatusLabel:     model.StatusUnknown,
		LastEvaluatedAt: testNow.Add(-8 * 24 * time.Hour),
	})

	result := sc.check(context.Background(), "0001")
	assert.Equal(t, checkUpdated, result)

	stored := repo.get("0001")
	assert.Equal(t, model.StatusContainsGluten, stored.StatusLabel)
	assert.Equal(t, "Wheat flour is listed", stored.StatusExplanation)
	assert.True(t, stored.LastEvaluatedAt.Equal(testNow))
}

func TestCheckFreshProductSkipsClassifier(t *testing.T) {
	repo, classifier, sc := newClassifierFixture(&ai.Verdict{Label: model.StatusGlutenFree})
	repo.put(&model.Product{
		Barcode:         "0002",
		StatusLabel:     model.StatusGlutenFree,
		LastEvaluatedAt: testNow.Add(-24 * time.Hour),
	})

	result := sc.check(context.Background(), "0002")
	assert.Equal(t, checkFresh, result)
	assert.Equal(t, 0, classifier.callCount())
	assert.Equal(t, 0, repo.updateCalls)
}

func TestCheckClassifierFailureKeepsStatus(t *testing.T) {
	repo, classifier, sc := newClassifierFixture(nil)
	classifier.err = errors.New("timeout")
	repo.put(&model.Product{
		Barcode:           "0003",
		StatusLabel:       model.StatusGlutenFree,
		StatusExplanation: "No gluten sources in ingredients",
		LastEvaluatedAt:   testNow.Add(-10 * 24 * time.Hour),
	})

	result := sc.check(context.Background(), "0003")
	assert.Equal(t, checkUnchanged, result)

	// A failed call must never revert a previously good status.
	stored := repo.get("0003")
	assert.Equal(t, model.StatusGlutenFree, stored.StatusLabel)
	assert.Equal(t, "No gluten sources in ingredients", stored.StatusExplanation)
	assert.True(t, stored.LastEvaluatedAt.Equal(testNow.Add(-10*24*time.Hour)))
}

func TestCheckSameVerdictRefreshesEvaluationTime(t *testing.T) {
	repo, _, sc := newClassifierFixture(&ai.Verdict{
		Label:       model.StatusGlutenFree,
		Explanation: "Still gluten free",
	})
	repo.put(&model.Product{
		Barcode:           "0004",
		StatusLabel:       model.StatusGlutenFree,
		StatusExplanation: "Original explanation",
		LastEvaluatedAt:   testNow.Add(-8 * 24 * time.Hour),
	})

	result := sc.check(context.Background(), "0004")
	assert.Equal(t, checkUnchanged, result)

	stored := repo.get("0004")
	assert.Equal(t, 0, repo.updateCalls)
	assert.Equal(t, 1, repo.refreshCalls)
	assert.Equal(t, "Original explanation", stored.StatusExplanation)
	assert.True(t, stored.LastEvaluatedAt.Equal(testNow))
}

func TestCheckMissingProductIsHarmless(t *testing.T) {
	_, classifier, sc := newClassifierFixture(nil)
	result := sc.check(context.Background(), "does-not-exist")
	assert.Equal(t, checkUnchanged, result)
	assert.Equal(t, 0, classifier.callCount())
}

func TestEnqueueDropsWhenFull(t *testing.T) {
	repo := newFakeProductRepo()
	sc := NewStalenessClassifier(repo, &fakeClassifier{}, nil, ClassifierConfig{
		FreshnessWindow: time.Hour,
		QueueSize:       1,
	})
	// Workers are not started, so the first enqueue fills the queue.
	assert.True(t, sc.Enqueue("a"))
	assert.False(t, sc.Enqueue("b"))
}

func TestWorkerProcessesEnqueuedBarcode(t *testing.T) {
	repo, _, sc := newClassifierFixture(&ai.Verdict{
		Label:       model.StatusContainsGluten,
		Explanation: "Barley malt",
	})
	repo.put(&model.Product{
		Barcode:         "0005",
		StatusLabel:     model.StatusUnknown,
		LastEvaluatedAt: testNow.Add(-30 * 24 * time.Hour),
	})

	sc.Start(context.Background())
	defer sc.Stop()

	require.True(t, sc.Enqueue("0005"))
	require.Eventually(t, func() bool {
		return repo.get("0005").StatusLabel == model.StatusContainsGluten
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSweepEnqueuesStaleProducts(t *testing.T) {
	repo, _, sc := newClassifierFixture(&ai.Verdict{Label: model.StatusGlutenFree})
	repo.put(&model.Product{Barcode: "old", LastEvaluatedAt: testNow.Add(-30 * 24 * time.Hour)})
	repo.put(&model.Product{Barcode: "boundary", LastEvaluatedAt: testNow.Add(-7 * 24 * time.Hour)})
	repo.put(&model.Product{Barcode: "new", LastEvaluatedAt: testNow.Add(-time.Hour)})

	sc.cfg.SweepBatchSize = 10
	sc.sweep()

	// The stale barcode and the one exactly at the window boundary land in
	// the queue; the fresh one does not.
	require.Len(t, sc.jobs, 2)
	queued := map[string]bool{<-sc.jobs: true, <-sc.jobs: true}
	assert.True(t, queued["old"])
	assert.True(t, queued["boundary"])
}

func TestCheckUpdatedBroadcastsStatusChange(t *testing.T) {
	repo := newFakeProductRepo()
	classifier := &fakeClassifier{verdict: &ai.Verdict{
		Label:       model.StatusContainsGluten,
		Explanation: "Wheat flour is listed",
	}}
	hub := ws.NewHub()
	sc := NewStalenessClassifier(repo, classifier, hub, ClassifierConfig{
		FreshnessWindow: 7 * 24 * time.Hour,
		Now:             func() time.Time { return testNow },
	})
	repo.put(&model.Product{
		Barcode:         "0006",
		Name:            "Granola Bar",
		StatusLabel:     model.StatusUnknown,
		LastEvaluatedAt: testNow.Add(-8 * 24 * time.Hour),
	})

	result := sc.check(context.Background(), "0006")
	require.Equal(t, checkUpdated, result)

	select {
	case msg := <-hub.Broadcast:
		payload := string(msg)
		assert.Contains(t, payload, `"type":"status_update"`)
		assert.Contains(t, payload, `"barcode":"0006"`)
		assert.Contains(t, payload, `"new_label":"CONTAINS_GLUTEN"`)
		assert.Contains(t, payload, `"old_label":"UNKNOWN"`)
	default:
		t.Fatal("expected a status_update broadcast on label change")
	}
}

func TestCheckUnchangedDoesNotBroadcast(t *testing.T) {
	repo := newFakeProductRepo()
	classifier := &fakeClassifier{verdict: &ai.Verdict{Label: model.StatusGlutenFree}}
	hub := ws.NewHub()
	sc := NewStalenessClassifier(repo, classifier, hub, ClassifierConfig{
		FreshnessWindow: 7 * 24 * time.Hour,
		Now:             func() time.Time { return testNow },
	})
	repo.put(&model.Product{
		Barcode:         "0007",
		StatusLabel:     model.StatusGlutenFree,
		LastEvaluatedAt: testNow.Add(-8 * 24 * time.Hour),
	})

	result := sc.check(context.Background(), "0007")
	require.Equal(t, checkUnchanged, result)
	assert.Empty(t, hub.Broadcast)
}
