package handlers

import (
	"net/http"

	"github.com/cloo-solutions/papyrai/internal/api"
	"github.com/cloo-solutions/papyrai/internal/index"
)

type IndexStats interface {
	Stats() index.Stats
}

type StatsHandler struct {
	index         IndexStats
	embeddingLive bool
}

func NewStatsHandler(idx IndexStats, embeddingLive bool) *StatsHandler {
	return &StatsHandler{index: idx, embeddingLive: embeddingLive}
}

type StatsResponse struct {
	ChunkCount    int      `json:"chunk_count"`
	DocumentCount int      `json:"document_count"`
	Sources       []string `json:"sources"`
	EmbeddingLive bool     `json:"embedding_live"`
}

// Stats reports index size and whether a live embedding backend is wired.
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats := h.index.Stats()
	api.Success(w, http.StatusOK, &StatsResponse{
		ChunkCount:    stats.ChunkCount,
		DocumentCount: stats.DocumentCount,
		Sources:       stats.Sources,
		EmbeddingLive: h.embeddingLive,
	})
}
