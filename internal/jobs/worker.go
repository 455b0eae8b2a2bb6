// Package jobs runs background work decoupled from request handling. Upload
// indexing happens here so upload responses return before embedding finishes.
package jobs

import (
	"context"
	"log"
	"sync"
	"time"
)

// JobProcessor drains whatever work is queued for it.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker polls a JobProcessor on a fixed interval until stopped.
type Worker struct {
	name         string
	processor    JobProcessor
	pollInterval time.Duration
	stopOnce     sync.Once
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a Worker. The name only labels log lines.
func NewWorker(name string, processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		name:         name,
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start runs the polling loop until the context is cancelled or Stop is
// called. Blocks; run it in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("worker %s: started (poll interval %v)", w.name, w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("worker %s: stopped, context cancelled", w.name)
			return
		case <-w.stopChan:
			log.Printf("worker %s: stopped", w.name)
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("worker %s: processing error: %v", w.name, err)
			}
		}
	}
}

// Stop signals the loop and waits for it to exit. Safe to call twice.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	<-w.doneChan
}
