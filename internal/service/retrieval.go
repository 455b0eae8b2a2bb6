package service

import (
	"context"
	"errors"

	"github.com/cloo-solutions/papyrai/internal/domain"
	"github.com/cloo-solutions/papyrai/internal/telemetry"
)

// DefaultRetrievalK is how many chunks a query pulls into context by default
const DefaultRetrievalK = 4

// RetrievedChunk is one context excerpt with its source attribution.
type RetrievedChunk struct {
	ChunkID    string
	DocumentID string
	Filename   string
	Text       string
	Score      float32
}

// RetrievalService embeds a query, searches the vector index and hydrates
// chunk text from the document store.
type RetrievalService struct {
	embedder EmbedderInterface
	index    VectorIndexInterface
	docs     DocumentStoreInterface
}

// NewRetrievalService creates a RetrievalService.
func NewRetrievalService(embedder EmbedderInterface, idx VectorIndexInterface, docs DocumentStoreInterface) *RetrievalService {
	return &RetrievalService{embedder: embedder, index: idx, docs: docs}
}

// Retrieve returns the top-k most similar chunks for the query text. An
// empty index yields an empty result, not an error. Embedding failure
// surfaces as ErrEmbeddingUnavailable so the caller can degrade.
func (s *RetrievalService) Retrieve(ctx context.Context, query string, k int) ([]RetrievedChunk, error) {
	ctx, span := telemetry.StartSpan(ctx, "RetrievalService.Retrieve", telemetry.SpanAttributes{
		Operation: "retrieve",
	})
	defer span.End()

	if k <= 0 {
		k = DefaultRetrievalK
	}

	vec, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	hits := s.index.Search(vec, k)
	out := make([]RetrievedChunk, 0, len(hits))
	for _, hit := range hits {
		chunk, err := s.docs.GetChunk(ctx, hit.ChunkID)
		if err != nil {
			// Evicted between search and hydration; skip rather than fail
			if errors.Is(err, domain.ErrChunkNotFound) {
				continue
			}
			span.SetError(err)
			return nil, err
		}
		out = append(out, RetrievedChunk{
			ChunkID:    hit.ChunkID,
			DocumentID: hit.Meta.DocumentID,
			Filename:   hit.Meta.Filename,
			Text:       chunk.Text,
			Score:      hit.Score,
		})
	}
	return out, nil
}
