package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// stubEmbedder maps texts to fixed 2-d vectors so similarity is controllable
// without a live backend. Texts containing a hot term embed near [1, 0],
// everything else near [0, 1].
type stubEmbedder struct {
	mu      sync.Mutex
	hotTerm string
	errs    []error
	calls   int
}

func (e *stubEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	call := e.calls
	e.calls++
	if call < len(e.errs) && e.errs[call] != nil {
		return nil, e.errs[call]
	}
	if e.hotTerm != "" && strings.Contains(text, e.hotTerm) {
		return []float32{1, 0.05}, nil
	}
	return []float32{0.05, 1}, nil
}

// stubCompleter replays scripted responses and errors in call order.
type stubCompleter struct {
	responses []string
	errs      []error
	calls     int
}

func (c *stubCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	call := c.calls
	c.calls++
	if call < len(c.errs) && c.errs[call] != nil {
		return "", c.errs[call]
	}
	if call < len(c.responses) {
		return c.responses[call], nil
	}
	return "fine", nil
}

// seqUUIDGen yields u-0, u-1, ... so ids in assertions are predictable.
type seqUUIDGen struct {
	mu sync.Mutex
	n  int
}

func (g *seqUUIDGen) NewString() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := fmt.Sprintf("u-%d", g.n)
	g.n++
	return id
}

type failingArchiver struct{ calls int }

func (a *failingArchiver) Archive(ctx context.Context, documentID, filename string, data []byte) error {
	a.calls++
	return fmt.Errorf("bucket unreachable")
}
