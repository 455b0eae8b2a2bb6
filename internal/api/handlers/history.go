package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/papyrai/internal/api"
	"github.com/cloo-solutions/papyrai/internal/domain"
)

type HistoryService interface {
	Get(ctx context.Context, id string) (*domain.ChatSession, error)
	Delete(ctx context.Context, id string) error
}

type ActionLogReader interface {
	List(ctx context.Context, limit int) ([]*domain.ActionLog, error)
}

type HistoryHandler struct {
	sessions  HistoryService
	actionLog ActionLogReader
}

func NewHistoryHandler(sessions HistoryService, actionLog ActionLogReader) *HistoryHandler {
	return &HistoryHandler{sessions: sessions, actionLog: actionLog}
}

type MessageResponse struct {
	Role                string   `json:"role"`
	Content             string   `json:"content"`
	Timestamp           string   `json:"timestamp"`
	AttachedDocumentIDs []string `json:"attached_document_ids,omitempty"`
}

type SessionHistoryResponse struct {
	SessionID     string             `json:"session_id"`
	CreatedAt     string             `json:"created_at"`
	Messages      []*MessageResponse `json:"messages"`
	PendingAction bool               `json:"pending_action"`
}

type ActionLogResponse struct {
	ID          string `json:"id"`
	ActionType  string `json:"action_type"`
	Description string `json:"description"`
	Status      string `json:"status"`
	SessionID   string `json:"session_id"`
	CreatedAt   string `json:"created_at"`
}

// Get returns the full ordered message history of a session.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	session, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	messages := make([]*MessageResponse, 0, len(session.Messages))
	for _, m := range session.Messages {
		messages = append(messages, &MessageResponse{
			Role:                string(m.Role),
			Content:             m.Content,
			Timestamp:           m.Timestamp.Format("2006-01-02T15:04:05Z"),
			AttachedDocumentIDs: m.AttachedDocumentIDs,
		})
	}

	api.Success(w, http.StatusOK, &SessionHistoryResponse{
		SessionID:     session.ID,
		CreatedAt:     session.CreatedAt.Format("2006-01-02T15:04:05Z"),
		Messages:      messages,
		PendingAction: session.PendingAction != nil,
	})
}

// Delete clears a session, discarding its history and any pending action.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if err := h.sessions.Delete(r.Context(), sessionID); err != nil {
		api.HandleError(w, err)
		return
	}
	api.JSON(w, http.StatusNoContent, nil)
}

// Actions lists committed side effects newest-first.
func (h *HistoryHandler) Actions(w http.ResponseWriter, r *http.Request) {
	limit := DefaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			api.Error(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	entries, err := h.actionLog.List(r.Context(), limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*ActionLogResponse, 0, len(entries))
	for _, e := range entries {
		items = append(items, &ActionLogResponse{
			ID:          e.ID,
			ActionType:  e.ActionType,
			Description: e.Description,
			Status:      e.Status,
			SessionID:   e.SessionID,
			CreatedAt:   e.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	api.Success(w, http.StatusOK, items)
}
