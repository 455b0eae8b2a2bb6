package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/papyrai/internal/domain"
	"github.com/cloo-solutions/papyrai/internal/index"
)

func TestRetrieveHydratesTopK(t *testing.T) {
	embedder := &stubEmbedder{hotTerm: "item7"}
	idx := index.NewMemory()
	svc, docs := newTestIngest(embedder, idx, nil)
	ctx := context.Background()

	doc, err := svc.Ingest(ctx, "expenses.csv", "text/csv", sampleCSV(10))
	require.NoError(t, err)
	require.NoError(t, svc.Index(ctx, doc.ID))

	// More chunks than k, so the top-4 cut actually discards some
	require.Greater(t, idx.Stats().ChunkCount, 4)

	retriever := NewRetrievalService(embedder, idx, docs)
	chunks, err := retriever.Retrieve(ctx, "what is the amount for item7?", 4)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.LessOrEqual(t, len(chunks), 4)

	// The row-7 chunk must surface in the top results
	var found bool
	for _, c := range chunks {
		assert.Equal(t, "expenses.csv", c.Filename)
		assert.NotEmpty(t, c.Text)
		found = found || strings.Contains(c.Text, "item7")
	}
	assert.True(t, found, "expected a chunk containing row 7")
}

func TestRetrieveEmptyIndex(t *testing.T) {
	retriever := NewRetrievalService(&stubEmbedder{}, index.NewMemory(), nil)
	chunks, err := retriever.Retrieve(context.Background(), "anything", 4)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestRetrieveEmbeddingFailure(t *testing.T) {
	embedder := &stubEmbedder{errs: []error{
		domain.NewDomainErrorWithCause(domain.ErrCodeProvider, "embedding capability unavailable", errors.New("down")),
	}}
	retriever := NewRetrievalService(embedder, index.NewMemory(), nil)

	_, err := retriever.Retrieve(context.Background(), "anything", 4)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestRetrieveSkipsEvictedChunks(t *testing.T) {
	embedder := &stubEmbedder{}
	idx := index.NewMemory()
	_, docs := newTestIngest(embedder, idx, nil)

	// Indexed vector with no hydratable chunk behind it
	idx.Add("ghost:0", []float32{0.05, 1}, index.ChunkMeta{DocumentID: "ghost", Filename: "gone.txt"})

	retriever := NewRetrievalService(embedder, idx, docs)
	chunks, err := retriever.Retrieve(context.Background(), "anything", 4)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}
