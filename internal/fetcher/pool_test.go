package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"xhsclient/pkg/logger"
	"xhsclient/pkg/xhs"
)

// mockFetcher returns canned comments per note ID
type mockFetcher struct {
	mu       sync.Mutex
	comments map[string][]xhs.Comment
	errs     map[string]error
	calls    map[string]int
	maxSeen  int
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{
		comments: make(map[string][]xhs.Comment),
		errs:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (m *mockFetcher) GetComments(ctx context.Context, noteID string, count int) ([]xhs.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[noteID]++
	if count > m.maxSeen {
		m.maxSeen = count
	}
	if err := m.errs[noteID]; err != nil {
		return nil, err
	}
	return m.comments[noteID], nil
}

func (m *mockFetcher) callCount(noteID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[noteID]
}

// staticChecker marks a fixed set of notes as already fetched
type staticChecker map[string]bool

func (c staticChecker) IsNoteFetched(noteID string) bool { return c[noteID] }

func collectResults(pool *WorkerPool) map[string]CommentResult {
	results := make(map[string]CommentResult)
	for result := range pool.Results() {
		results[result.Job.NoteID] = result
	}
	return results
}

func TestWorkerPoolFetchesAllJobs(t *testing.T) {
	fetcher := newMockFetcher()
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("n%d", i)
		fetcher.comments[id] = []xhs.Comment{{ID: id + "-c1"}, {ID: id + "-c2"}}
	}

	pool := NewWorkerPool(context.Background(), 3, 0, fetcher, nil, logger.NewTestLogger())
	pool.Start()

	done := make(chan map[string]CommentResult)
	go func() { done <- collectResults(pool) }()

	for i := 0; i < 10; i++ {
		if err := pool.Submit(CommentJob{NoteID: fmt.Sprintf("n%d", i)}); err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
	}
	pool.Stop()

	results := <-done
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	for id, result := range results {
		if !result.Success {
			t.Errorf("job %s failed: %v", id, result.Error)
		}
		if len(result.Comments) != 2 {
			t.Errorf("job %s returned %d comments, want 2", id, len(result.Comments))
		}
	}
}

func TestWorkerPoolReportsErrors(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.comments["good"] = []xhs.Comment{{ID: "c1"}}
	fetcher.errs["bad"] = errors.New("fetch exploded")

	pool := NewWorkerPool(context.Background(), 2, 0, fetcher, nil, logger.NewTestLogger())
	pool.Start()

	done := make(chan map[string]CommentResult)
	go func() { done <- collectResults(pool) }()

	pool.Submit(CommentJob{NoteID: "good"})
	pool.Submit(CommentJob{NoteID: "bad"})
	pool.Stop()

	results := <-done
	if !results["good"].Success {
		t.Errorf("good job failed: %v", results["good"].Error)
	}
	if results["bad"].Success {
		t.Error("expected bad job to fail")
	}
	if results["bad"].Error == nil || !errors.Is(results["bad"].Error, fetcher.errs["bad"]) {
		t.Errorf("expected wrapped fetch error, got %v", results["bad"].Error)
	}
}

func TestWorkerPoolSkipsFetchedNotes(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.comments["new"] = []xhs.Comment{{ID: "c1"}}

	checker := staticChecker{"seen": true}

	pool := NewWorkerPool(context.Background(), 1, 0, fetcher, checker, logger.NewTestLogger())
	pool.Start()

	done := make(chan map[string]CommentResult)
	go func() { done <- collectResults(pool) }()

	pool.Submit(CommentJob{NoteID: "seen"})
	pool.Submit(CommentJob{NoteID: "new"})
	pool.Stop()

	results := <-done
	if fetcher.callCount("seen") != 0 {
		t.Error("already-fetched note should not hit the client")
	}
	if fetcher.callCount("new") != 1 {
		t.Errorf("new note fetched %d times, want 1", fetcher.callCount("new"))
	}
	if !results["seen"].Success {
		t.Error("skipped note should still report success")
	}
	if len(results["seen"].Comments) != 0 {
		t.Error("skipped note should carry no comments")
	}
}

func TestWorkerPoolPassesMaxComments(t *testing.T) {
	fetcher := newMockFetcher()
	fetcher.comments["n1"] = []xhs.Comment{{ID: "c1"}}

	pool := NewWorkerPool(context.Background(), 1, 50, fetcher, nil, logger.NewTestLogger())
	pool.Start()

	done := make(chan map[string]CommentResult)
	go func() { done <- collectResults(pool) }()

	pool.Submit(CommentJob{NoteID: "n1"})
	pool.Stop()
	<-done

	if fetcher.maxSeen != 50 {
		t.Errorf("max comments = %d, want 50", fetcher.maxSeen)
	}
}

func TestWorkerPoolMinimumWorkers(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 0, 0, newMockFetcher(), nil, logger.NewTestLogger())
	if pool.GetNumWorkers() != 1 {
		t.Errorf("expected at least 1 worker, got %d", pool.GetNumWorkers())
	}
}
