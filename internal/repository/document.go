package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cloo-solutions/papyrai/internal/domain"
	"github.com/cloo-solutions/papyrai/internal/index"
	"github.com/cloo-solutions/papyrai/internal/pagination"
)

// DocumentRepository persists parsed documents and their chunks. Chunk
// embeddings go into a pgvector column so the in-memory index can be
// rebuilt after a restart.
type DocumentRepository struct {
	db dbtx
}

func NewDocumentRepository(pool *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: pool}
}

func (r *DocumentRepository) PutDocument(ctx context.Context, doc *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, filename, mime_class, raw_size, normalized_text, preview, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE
		 SET filename = EXCLUDED.filename, mime_class = EXCLUDED.mime_class,
		     raw_size = EXCLUDED.raw_size, normalized_text = EXCLUDED.normalized_text,
		     preview = EXCLUDED.preview, uploaded_at = EXCLUDED.uploaded_at`,
		doc.ID, doc.Filename, string(doc.MimeClass), doc.RawSize,
		doc.NormalizedText, doc.Preview, doc.UploadedAt,
	)
	return err
}

func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	var mimeClass string
	err := r.db.QueryRow(ctx,
		`SELECT id, filename, mime_class, raw_size, normalized_text, preview, uploaded_at
		 FROM documents WHERE id = $1`,
		id,
	).Scan(&doc.ID, &doc.Filename, &mimeClass, &doc.RawSize,
		&doc.NormalizedText, &doc.Preview, &doc.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, err
	}
	doc.MimeClass = domain.MimeClass(mimeClass)
	return &doc, nil
}

// ReplaceChunks deletes existing chunks for a document and inserts new ones
// with their embeddings.
func (r *DocumentRepository) ReplaceChunks(ctx context.Context, documentID string, chunks []domain.Chunk, vectors [][]float32) error {
	_, err := r.db.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, documentID)
	if err != nil {
		return err
	}

	for i, c := range chunks {
		var embedding any
		if i < len(vectors) && len(vectors[i]) > 0 {
			embedding = pgvector.NewVector(vectors[i])
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO document_chunks (id, document_id, sequence_index, content, start_offset, end_offset, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.ID, c.DocumentID, c.SequenceIndex, c.Text, c.StartOffset, c.EndOffset, embedding,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *DocumentRepository) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	var chunk domain.Chunk
	err := r.db.QueryRow(ctx,
		`SELECT id, document_id, sequence_index, content, start_offset, end_offset
		 FROM document_chunks WHERE id = $1`,
		id,
	).Scan(&chunk.ID, &chunk.DocumentID, &chunk.SequenceIndex,
		&chunk.Text, &chunk.StartOffset, &chunk.EndOffset)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChunkNotFound
		}
		return nil, err
	}
	return &chunk, nil
}

func (r *DocumentRepository) ListDocuments(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, filename, mime_class, raw_size, normalized_text, preview, uploaded_at
			 FROM documents
			 WHERE (uploaded_at, id) < ($1, $2)
			 ORDER BY uploaded_at DESC, id DESC
			 LIMIT $3`,
			cursor.Timestamp, cursor.LastID, limit,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, filename, mime_class, raw_size, normalized_text, preview, uploaded_at
			 FROM documents
			 ORDER BY uploaded_at DESC, id DESC
			 LIMIT $1`,
			limit,
		)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Document
	for rows.Next() {
		var doc domain.Document
		var mimeClass string
		if err := rows.Scan(&doc.ID, &doc.Filename, &mimeClass, &doc.RawSize,
			&doc.NormalizedText, &doc.Preview, &doc.UploadedAt); err != nil {
			return nil, err
		}
		doc.MimeClass = domain.MimeClass(mimeClass)
		out = append(out, &doc)
	}
	return out, rows.Err()
}

func (r *DocumentRepository) DeleteDocument(ctx context.Context, id string) error {
	// document_chunks cascades via FK
	_, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}

// LoadIndex streams every embedded chunk so the in-memory index can be
// rebuilt at startup.
func (r *DocumentRepository) LoadIndex(ctx context.Context, add func(chunkID string, vector []float32, meta index.ChunkMeta)) error {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.document_id, c.sequence_index, c.embedding, d.filename
		 FROM document_chunks c
		 JOIN documents d ON d.id = c.document_id
		 WHERE c.embedding IS NOT NULL
		 ORDER BY d.uploaded_at ASC, c.sequence_index ASC`,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var chunkID, documentID, filename string
		var sequenceIndex int
		var embedding pgvector.Vector
		if err := rows.Scan(&chunkID, &documentID, &sequenceIndex, &embedding, &filename); err != nil {
			return err
		}
		add(chunkID, embedding.Slice(), index.ChunkMeta{
			DocumentID:    documentID,
			Filename:      filename,
			SequenceIndex: sequenceIndex,
		})
	}
	return rows.Err()
}
