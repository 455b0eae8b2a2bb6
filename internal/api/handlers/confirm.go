package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cloo-solutions/papyrai/internal/api"
	"github.com/cloo-solutions/papyrai/internal/service"
)

type ConfirmService interface {
	Resolve(ctx context.Context, sessionID string, decision service.Decision) (*service.Outcome, error)
}

type ConfirmHandler struct {
	svc ConfirmService
}

func NewConfirmHandler(svc ConfirmService) *ConfirmHandler {
	return &ConfirmHandler{svc: svc}
}

type ConfirmRequest struct {
	SessionID string `json:"session_id"`
	Decision  string `json:"decision"`
}

type ConfirmResponse struct {
	Decision   string `json:"decision"`
	ReminderID string `json:"reminder_id,omitempty"`
	Message    string `json:"message"`
}

// Confirm resolves the session's pending action with a structured verdict.
func (h *ConfirmHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		api.Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	var decision service.Decision
	switch req.Decision {
	case string(service.DecisionConfirm):
		decision = service.DecisionConfirm
	case string(service.DecisionReject):
		decision = service.DecisionReject
	default:
		api.Error(w, http.StatusBadRequest, "decision must be confirm or reject")
		return
	}

	outcome, err := h.svc.Resolve(r.Context(), req.SessionID, decision)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &ConfirmResponse{
		Decision:   string(outcome.Decision),
		ReminderID: outcome.ReminderID,
		Message:    outcome.Message,
	})
}
