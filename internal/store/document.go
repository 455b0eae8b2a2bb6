package store

import (
	"context"
	"sort"
	"sync"

	"github.com/cloo-solutions/papyrai/internal/domain"
	"github.com/cloo-solutions/papyrai/internal/pagination"
)

// MemoryDocumentStore keeps parsed documents and their chunk texts in
// process memory. Vectors live only in the embedding index.
type MemoryDocumentStore struct {
	mu     sync.RWMutex
	docs   map[string]*domain.Document
	chunks map[string]*domain.Chunk   // chunk id -> chunk
	byDoc  map[string][]string        // document id -> ordered chunk ids
}

// NewMemoryDocumentStore creates an empty document store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		docs:   make(map[string]*domain.Document),
		chunks: make(map[string]*domain.Chunk),
		byDoc:  make(map[string][]string),
	}
}

// PutDocument stores a parsed document.
func (s *MemoryDocumentStore) PutDocument(ctx context.Context, doc *domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[doc.ID] = doc
	return nil
}

// GetDocument returns the document or ErrDocumentNotFound.
func (s *MemoryDocumentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return doc, nil
}

// ReplaceChunks atomically swaps the chunk set for a document. Re-ingesting
// a document id therefore never leaves stale chunks behind. Vectors are
// ignored here; the embedding index owns them in the in-memory tier.
func (s *MemoryDocumentStore) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk, vectors [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byDoc[documentID] {
		delete(s.chunks, id)
	}

	ids := make([]string, 0, len(chunks))
	for i := range chunks {
		c := chunks[i]
		s.chunks[c.ID] = &c
		ids = append(ids, c.ID)
	}
	s.byDoc[documentID] = ids
	return nil
}

// GetChunk returns a chunk by id or ErrChunkNotFound.
func (s *MemoryDocumentStore) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	chunk, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrChunkNotFound
	}
	return chunk, nil
}

// DeleteDocument removes the document and cascades to its chunks.
func (s *MemoryDocumentStore) DeleteDocument(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chunkID := range s.byDoc[id] {
		delete(s.chunks, chunkID)
	}
	delete(s.byDoc, id)
	delete(s.docs, id)
	return nil
}

// ListDocuments returns documents newest-first with cursor pagination.
func (s *MemoryDocumentStore) ListDocuments(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]*domain.Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].UploadedAt.After(docs[j].UploadedAt)
		}
		return docs[i].ID > docs[j].ID
	})

	if cursor != nil {
		for i, d := range docs {
			if d.ID == cursor.LastID {
				docs = docs[i+1:]
				break
			}
		}
	}

	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}
