package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cloo-solutions/papyrai/internal/domain"
	"github.com/cloo-solutions/papyrai/internal/index"
	"github.com/cloo-solutions/papyrai/internal/pagination"
	"github.com/cloo-solutions/papyrai/internal/parser"
	"github.com/cloo-solutions/papyrai/internal/telemetry"
)

// EmbedderInterface defines the embedding capability the pipeline consumes
type EmbedderInterface interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// CompleterInterface defines the chat completion capability
type CompleterInterface interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// VectorIndexInterface defines the similarity index the pipeline consumes
type VectorIndexInterface interface {
	Add(chunkID string, vector []float32, meta index.ChunkMeta)
	Search(query []float32, k int) []index.Hit
	RemoveDocument(documentID string)
	Stats() index.Stats
}

// DocumentStoreInterface defines the store interface for parsed documents
type DocumentStoreInterface interface {
	PutDocument(ctx context.Context, doc *domain.Document) error
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk, vectors [][]float32) error
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)
	ListDocuments(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*domain.Document, error)
	DeleteDocument(ctx context.Context, id string) error
}

// ArchiverInterface archives raw upload bytes. Optional; failures must never
// fail ingestion.
type ArchiverInterface interface {
	Archive(ctx context.Context, documentID, filename string, data []byte) error
}

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// IngestService turns uploaded bytes into a stored document and, separately,
// an indexed set of embedded chunks.
type IngestService struct {
	parser   *parser.Parser
	docs     DocumentStoreInterface
	embedder EmbedderInterface
	index    VectorIndexInterface
	archiver ArchiverInterface
	chunkCfg ChunkConfig
	uuidGen  UUIDGenerator
	now      func() time.Time
}

// NewIngestService creates an IngestService. archiver may be nil.
func NewIngestService(
	p *parser.Parser,
	docs DocumentStoreInterface,
	embedder EmbedderInterface,
	idx VectorIndexInterface,
	archiver ArchiverInterface,
	chunkCfg ChunkConfig,
) *IngestService {
	if chunkCfg.Validate() != nil {
		chunkCfg = DefaultChunkConfig()
	}
	return &IngestService{
		parser:   p,
		docs:     docs,
		embedder: embedder,
		index:    idx,
		archiver: archiver,
		chunkCfg: chunkCfg,
		uuidGen:  &DefaultUUIDGenerator{},
		now:      time.Now,
	}
}

// Ingest parses and stores an upload. Indexing is a separate step so callers
// choose between returning early (upload endpoint) and waiting (attachments).
func (s *IngestService) Ingest(ctx context.Context, filename, contentType string, data []byte) (*domain.Document, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Ingest", telemetry.SpanAttributes{
		Operation: "ingest",
	})
	defer span.End()

	mime := domain.DetectMimeClass(filename, contentType)
	result, err := s.parser.Parse(filename, mime, data)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	doc := domain.NewDocument(s.uuidGen.NewString(), filename, mime,
		int64(len(data)), result.Text, result.Preview, s.now().UTC())

	if err := s.docs.PutDocument(ctx, doc); err != nil {
		span.SetError(err)
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to store document", err)
	}

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, doc.ID, filename, data); err != nil {
			log.Printf("ingest: archiving %s failed (continuing): %v", doc.ID, err)
		}
	}

	return doc, nil
}

// Index chunks and embeds a stored document, then swaps its entries in the
// vector index. All embeddings are generated before any index mutation so a
// provider failure leaves the prior index state intact and re-indexing the
// same document id is idempotent.
func (s *IngestService) Index(ctx context.Context, documentID string) error {
	ctx, span := telemetry.StartSpan(ctx, "IngestService.Index", telemetry.SpanAttributes{
		DocumentID: documentID,
		Operation:  "index",
	})
	defer span.End()

	doc, err := s.docs.GetDocument(ctx, documentID)
	if err != nil {
		span.SetError(err)
		return err
	}

	var (
		chunks  []domain.Chunk
		vectors [][]float32
	)
	for sp := range Chunks(doc.NormalizedText, s.chunkCfg) {
		vec, err := s.embedder.GenerateEmbedding(ctx, sp.Text)
		if err != nil {
			return err
		}
		chunks = append(chunks, domain.Chunk{
			ID:            fmt.Sprintf("%s:%d", doc.ID, sp.Index),
			DocumentID:    doc.ID,
			SequenceIndex: sp.Index,
			Text:          sp.Text,
			StartOffset:   sp.Start,
			EndOffset:     sp.End,
		})
		vectors = append(vectors, vec)
	}

	s.index.RemoveDocument(doc.ID)
	for i, c := range chunks {
		s.index.Add(c.ID, vectors[i], index.ChunkMeta{
			DocumentID:    doc.ID,
			Filename:      doc.Filename,
			SequenceIndex: c.SequenceIndex,
		})
	}

	if err := s.docs.ReplaceChunks(ctx, doc.ID, chunks, vectors); err != nil {
		span.SetError(err)
		return domain.NewDomainErrorWithCause(domain.ErrCodeStorage, "failed to store chunks", err)
	}
	return nil
}

// IngestAndIndex runs both steps; used for chat attachments, which must be
// retrievable within the same turn.
func (s *IngestService) IngestAndIndex(ctx context.Context, filename, contentType string, data []byte) (*domain.Document, error) {
	doc, err := s.Ingest(ctx, filename, contentType, data)
	if err != nil {
		return nil, err
	}
	if err := s.Index(ctx, doc.ID); err != nil {
		return nil, err
	}
	return doc, nil
}
