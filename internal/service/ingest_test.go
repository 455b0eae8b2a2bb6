package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/papyrai/internal/domain"
	"github.com/cloo-solutions/papyrai/internal/index"
	"github.com/cloo-solutions/papyrai/internal/parser"
	"github.com/cloo-solutions/papyrai/internal/store"
)

func newTestIngest(embedder EmbedderInterface, idx VectorIndexInterface, archiver ArchiverInterface) (*IngestService, *store.MemoryDocumentStore) {
	docs := store.NewMemoryDocumentStore()
	svc := NewIngestService(parser.New(), docs, embedder, idx, archiver, ChunkConfig{
		WindowSize: 120,
		Overlap:    20,
		MinWindow:  40,
	})
	svc.uuidGen = &seqUUIDGen{}
	return svc, docs
}

func sampleCSV(rows int) []byte {
	var b strings.Builder
	b.WriteString("name,amount,city,notes,code\n")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&b, "item%d,%d00,metropolis,ordinary entry,X%d\n", i, i, i)
	}
	return []byte(b.String())
}

func TestIngestStoresDocumentWithPreview(t *testing.T) {
	svc, docs := newTestIngest(&stubEmbedder{}, index.NewMemory(), nil)

	doc, err := svc.Ingest(context.Background(), "expenses.csv", "text/csv", sampleCSV(10))
	require.NoError(t, err)
	assert.Equal(t, "10 rows, 5 columns", doc.Preview)
	assert.Equal(t, domain.MimeClassCSV, doc.MimeClass)

	stored, err := docs.GetDocument(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.NormalizedText, "Row 7: name: item7")
}

func TestIngestRejectsUnsupportedFormat(t *testing.T) {
	svc, _ := newTestIngest(&stubEmbedder{}, index.NewMemory(), nil)

	_, err := svc.Ingest(context.Background(), "photo.png", "image/png", []byte{0x89, 0x50})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestIngestArchiverFailureIsNotFatal(t *testing.T) {
	archiver := &failingArchiver{}
	svc, _ := newTestIngest(&stubEmbedder{}, index.NewMemory(), archiver)

	doc, err := svc.Ingest(context.Background(), "notes.txt", "text/plain", []byte("remember the milk"))
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, 1, archiver.calls)
}

func TestIndexEmbedsEveryChunk(t *testing.T) {
	idx := index.NewMemory()
	svc, docs := newTestIngest(&stubEmbedder{}, idx, nil)
	ctx := context.Background()

	doc, err := svc.Ingest(ctx, "expenses.csv", "text/csv", sampleCSV(10))
	require.NoError(t, err)
	require.NoError(t, svc.Index(ctx, doc.ID))

	stats := idx.Stats()
	assert.Greater(t, stats.ChunkCount, 1)
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, []string{"expenses.csv"}, stats.Sources)

	// Chunk text is hydratable by id
	first, err := docs.GetChunk(ctx, doc.ID+":0")
	require.NoError(t, err)
	assert.NotEmpty(t, first.Text)
}

func TestIndexIsIdempotent(t *testing.T) {
	idx := index.NewMemory()
	svc, _ := newTestIngest(&stubEmbedder{}, idx, nil)
	ctx := context.Background()

	doc, err := svc.Ingest(ctx, "expenses.csv", "text/csv", sampleCSV(10))
	require.NoError(t, err)

	require.NoError(t, svc.Index(ctx, doc.ID))
	before := idx.Stats()
	require.NoError(t, svc.Index(ctx, doc.ID))
	after := idx.Stats()

	assert.Equal(t, before.ChunkCount, after.ChunkCount)
	assert.Equal(t, before.DocumentCount, after.DocumentCount)
}

func TestIndexEmbedFailureLeavesIndexIntact(t *testing.T) {
	idx := index.NewMemory()
	svc, _ := newTestIngest(&stubEmbedder{}, idx, nil)
	ctx := context.Background()

	doc, err := svc.Ingest(ctx, "expenses.csv", "text/csv", sampleCSV(10))
	require.NoError(t, err)
	require.NoError(t, svc.Index(ctx, doc.ID))
	before := idx.Stats()

	// Second pass fails on the first embedding; no entries may be evicted
	svc.embedder = &stubEmbedder{errs: []error{errors.New("backend down")}}
	err = svc.Index(ctx, doc.ID)
	require.Error(t, err)
	assert.Equal(t, before, idx.Stats())
}

func TestIndexUnknownDocument(t *testing.T) {
	svc, _ := newTestIngest(&stubEmbedder{}, index.NewMemory(), nil)
	err := svc.Index(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}
