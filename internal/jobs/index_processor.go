package jobs

import (
	"context"
	"errors"
	"fmt"
	"log"
)

const (
	// MaxRetries is how many times an indexing job is attempted before
	// it is dropped
	MaxRetries = 3
	// DefaultQueueSize bounds the pending-indexing queue
	DefaultQueueSize = 256
)

// ErrQueueFull is returned when the indexing queue cannot accept more work
var ErrQueueFull = errors.New("indexing queue is full")

// Indexer chunks, embeds and indexes a stored document.
type Indexer interface {
	Index(ctx context.Context, documentID string) error
}

type indexJob struct {
	documentID string
	attempts   int
}

// IndexProcessor drains a bounded queue of uploaded documents and pushes
// each through the indexing pipeline.
type IndexProcessor struct {
	indexer Indexer
	queue   chan indexJob
}

// NewIndexProcessor creates an IndexProcessor with the given queue capacity.
func NewIndexProcessor(indexer Indexer, queueSize int) *IndexProcessor {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &IndexProcessor{
		indexer: indexer,
		queue:   make(chan indexJob, queueSize),
	}
}

// Enqueue queues a document for indexing without blocking the caller.
func (p *IndexProcessor) Enqueue(documentID string) error {
	select {
	case p.queue <- indexJob{documentID: documentID}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending reports how many jobs are waiting.
func (p *IndexProcessor) Pending() int {
	return len(p.queue)
}

// ProcessJobs implements the JobProcessor interface. It drains whatever is
// queued right now; failed jobs are re-queued until MaxRetries.
func (p *IndexProcessor) ProcessJobs(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job := <-p.queue:
			p.processJob(ctx, job)
		default:
			return nil
		}
	}
}

func (p *IndexProcessor) processJob(ctx context.Context, job indexJob) {
	err := p.runIndexer(ctx, job.documentID)
	if err == nil {
		log.Printf("index: document %s indexed", job.documentID)
		return
	}

	job.attempts++
	if job.attempts >= MaxRetries {
		log.Printf("index: document %s failed after %d attempts, giving up: %v",
			job.documentID, job.attempts, err)
		return
	}

	log.Printf("index: document %s failed (attempt %d/%d), re-queueing: %v",
		job.documentID, job.attempts, MaxRetries, err)
	select {
	case p.queue <- job:
	default:
		log.Printf("index: queue full, dropping retry for document %s", job.documentID)
	}
}

// runIndexer isolates panics from the pipeline so one bad document cannot
// take the worker down.
func (p *IndexProcessor) runIndexer(ctx context.Context, documentID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("indexing panicked: %v", r)
		}
	}()
	return p.indexer.Index(ctx, documentID)
}
