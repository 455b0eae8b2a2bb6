package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndexer struct {
	mu    sync.Mutex
	calls map[string]int
	errs  map[string]error
	panic map[string]bool
}

func newFakeIndexer() *fakeIndexer {
	return &fakeIndexer{
		calls: make(map[string]int),
		errs:  make(map[string]error),
		panic: make(map[string]bool),
	}
}

func (f *fakeIndexer) Index(ctx context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[documentID]++
	if f.panic[documentID] {
		panic("malformed document")
	}
	return f.errs[documentID]
}

func (f *fakeIndexer) callCount(documentID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[documentID]
}

func TestProcessJobsDrainsQueue(t *testing.T) {
	indexer := newFakeIndexer()
	p := NewIndexProcessor(indexer, 10)

	require.NoError(t, p.Enqueue("d1"))
	require.NoError(t, p.Enqueue("d2"))
	require.NoError(t, p.ProcessJobs(context.Background()))

	assert.Equal(t, 1, indexer.callCount("d1"))
	assert.Equal(t, 1, indexer.callCount("d2"))
	assert.Equal(t, 0, p.Pending())
}

func TestProcessJobsRetriesUpToMax(t *testing.T) {
	indexer := newFakeIndexer()
	indexer.errs["bad"] = errors.New("embeddings down")
	p := NewIndexProcessor(indexer, 10)

	require.NoError(t, p.Enqueue("bad"))
	require.NoError(t, p.ProcessJobs(context.Background()))

	assert.Equal(t, MaxRetries, indexer.callCount("bad"))
	assert.Equal(t, 0, p.Pending())
}

func TestProcessJobsRecoversFromPanic(t *testing.T) {
	indexer := newFakeIndexer()
	indexer.panic["boom"] = true
	p := NewIndexProcessor(indexer, 10)

	require.NoError(t, p.Enqueue("boom"))
	require.NoError(t, p.Enqueue("ok"))
	require.NoError(t, p.ProcessJobs(context.Background()))

	// The panicking document is retried then dropped; the healthy one runs
	assert.Equal(t, MaxRetries, indexer.callCount("boom"))
	assert.Equal(t, 1, indexer.callCount("ok"))
}

func TestEnqueueQueueFull(t *testing.T) {
	p := NewIndexProcessor(newFakeIndexer(), 1)

	require.NoError(t, p.Enqueue("d1"))
	assert.ErrorIs(t, p.Enqueue("d2"), ErrQueueFull)
}

func TestWorkerRunsProcessorUntilStopped(t *testing.T) {
	indexer := newFakeIndexer()
	p := NewIndexProcessor(indexer, 10)
	require.NoError(t, p.Enqueue("d1"))

	w := NewWorker("indexing", p, 5*time.Millisecond)
	go w.Start(context.Background())

	assert.Eventually(t, func() bool {
		return indexer.callCount("d1") == 1
	}, time.Second, 5*time.Millisecond)

	w.Stop()
	w.Stop() // idempotent
}

func TestWorkerStopsOnContextCancel(t *testing.T) {
	p := NewIndexProcessor(newFakeIndexer(), 10)
	w := NewWorker("indexing", p, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}
