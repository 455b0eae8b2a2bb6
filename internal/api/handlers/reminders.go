package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cloo-solutions/papyrai/internal/api"
	"github.com/cloo-solutions/papyrai/internal/domain"
)

type ReminderService interface {
	Create(ctx context.Context, reminder *domain.Reminder) error
	Get(ctx context.Context, id string) (*domain.Reminder, error)
	List(ctx context.Context) ([]*domain.Reminder, error)
	Complete(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type ReminderHandler struct {
	svc ReminderService
}

func NewReminderHandler(svc ReminderService) *ReminderHandler {
	return &ReminderHandler{svc: svc}
}

type CreateReminderRequest struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
}

type ReminderResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description,omitempty"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
}

func reminderToResponse(r *domain.Reminder) *ReminderResponse {
	return &ReminderResponse{
		ID:          r.ID,
		Title:       r.Title,
		Date:        r.Date,
		Description: r.Description,
		Priority:    string(r.Priority),
		Category:    r.Category,
		Completed:   r.Completed,
		CreatedAt:   r.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// Create makes a reminder directly, without the chat propose/confirm flow.
func (h *ReminderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateReminderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	payload := domain.ReminderPayload{
		Title:       req.Title,
		Date:        req.Date,
		Description: req.Description,
		Priority:    req.Priority,
		Category:    req.Category,
	}
	if err := payload.Validate(); err != nil {
		api.HandleError(w, err)
		return
	}

	reminder := domain.NewReminder(uuid.NewString(), payload, time.Now().UTC())
	if err := h.svc.Create(r.Context(), reminder); err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, reminderToResponse(reminder))
}

func (h *ReminderHandler) List(w http.ResponseWriter, r *http.Request) {
	reminders, err := h.svc.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*ReminderResponse, 0, len(reminders))
	for _, rem := range reminders {
		items = append(items, reminderToResponse(rem))
	}
	api.Success(w, http.StatusOK, items)
}

func (h *ReminderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reminder, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, reminderToResponse(reminder))
}

func (h *ReminderHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Complete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}

	reminder, err := h.svc.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, reminderToResponse(reminder))
}

func (h *ReminderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		api.HandleError(w, err)
		return
	}
	api.JSON(w, http.StatusNoContent, nil)
}
