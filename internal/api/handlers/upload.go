package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cloo-solutions/papyrai/internal/api"
	"github.com/cloo-solutions/papyrai/internal/domain"
	"github.com/cloo-solutions/papyrai/internal/pagination"
)

// DefaultPageLimit bounds list endpoints when no limit is given
const DefaultPageLimit = 20

type UploadIngester interface {
	Ingest(ctx context.Context, filename, contentType string, data []byte) (*domain.Document, error)
}

type IndexQueue interface {
	Enqueue(documentID string) error
}

type DocumentLister interface {
	ListDocuments(ctx context.Context, cursor *pagination.Cursor, limit int) ([]*domain.Document, error)
}

type UploadHandler struct {
	ingester  UploadIngester
	queue     IndexQueue
	docs      DocumentLister
	maxUpload int64
}

func NewUploadHandler(ingester UploadIngester, queue IndexQueue, docs DocumentLister, maxUpload int64) *UploadHandler {
	return &UploadHandler{ingester: ingester, queue: queue, docs: docs, maxUpload: maxUpload}
}

type UploadResponse struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	MimeClass  string `json:"mime_class"`
	Preview    string `json:"preview"`
	Indexing   string `json:"indexing"`
}

type DocumentResponse struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	MimeClass  string `json:"mime_class"`
	RawSize    int64  `json:"raw_size"`
	Preview    string `json:"preview"`
	UploadedAt string `json:"uploaded_at"`
}

func documentToResponse(d *domain.Document) *DocumentResponse {
	return &DocumentResponse{
		ID:         d.ID,
		Filename:   d.Filename,
		MimeClass:  string(d.MimeClass),
		RawSize:    d.RawSize,
		Preview:    d.Preview,
		UploadedAt: d.UploadedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Upload accepts one multipart file, parses it and queues indexing. The
// response returns before embedding completes.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Size is rejected before any parsing work
	if h.maxUpload > 0 && r.ContentLength > h.maxUpload {
		api.HandleError(w, domain.ErrPayloadTooLarge)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if h.maxUpload > 0 && header.Size > h.maxUpload {
		api.HandleError(w, domain.ErrPayloadTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	doc, err := h.ingester.Ingest(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	indexing := "queued"
	if err := h.queue.Enqueue(doc.ID); err != nil {
		// Document is stored; indexing can be retried by re-uploading
		indexing = "deferred"
	}

	api.Success(w, http.StatusCreated, &UploadResponse{
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		MimeClass:  string(doc.MimeClass),
		Preview:    doc.Preview,
		Indexing:   indexing,
	})
}

// History lists recent uploads newest-first with cursor pagination.
func (h *UploadHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := DefaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	cursor, err := pagination.DecodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "invalid cursor")
		return
	}

	docs, err := h.docs.ListDocuments(r.Context(), cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*DocumentResponse, 0, len(docs))
	for _, d := range docs {
		items = append(items, documentToResponse(d))
	}

	next := pagination.CreateNextCursor(docs, limit,
		func(d *domain.Document) string { return d.ID },
		func(d *domain.Document) time.Time { return d.UploadedAt })

	api.Success(w, http.StatusOK, pagination.PageResult[*DocumentResponse]{
		Items:   items,
		Cursor:  next,
		HasMore: next != "",
	})
}
