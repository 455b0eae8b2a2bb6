package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/cloo-solutions/papyrai/internal/api"
	"github.com/cloo-solutions/papyrai/internal/service"
)

type ChatService interface {
	HandleMessage(ctx context.Context, sessionID, text string, attachments []service.Attachment) (*service.TurnResult, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatResponse struct {
	SessionID string                  `json:"session_id"`
	Type      string                  `json:"type"`
	Response  string                  `json:"response"`
	Action    *service.ProposedAction `json:"action,omitempty"`
}

// Chat runs one conversation turn. Multipart so files can ride along with
// the message; `files` may appear zero or more times.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		api.Error(w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	message := r.FormValue("message")
	sessionID := r.FormValue("session_id")

	var attachments []service.Attachment
	if r.MultipartForm != nil {
		for _, header := range r.MultipartForm.File["files"] {
			file, err := header.Open()
			if err != nil {
				api.Error(w, http.StatusBadRequest, "failed to read attachment "+header.Filename)
				return
			}
			data, err := io.ReadAll(file)
			file.Close()
			if err != nil {
				api.Error(w, http.StatusBadRequest, "failed to read attachment "+header.Filename)
				return
			}
			attachments = append(attachments, service.Attachment{
				Filename:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}

	result, err := h.svc.HandleMessage(r.Context(), sessionID, message, attachments)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &ChatResponse{
		SessionID: result.SessionID,
		Type:      string(result.Type),
		Response:  result.Response,
		Action:    result.Action,
	})
}
