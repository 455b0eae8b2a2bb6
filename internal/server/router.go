package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/papyrai/internal/api"
	"github.com/cloo-solutions/papyrai/internal/api/handlers"
	"github.com/cloo-solutions/papyrai/internal/api/middleware"
)

type RouterConfig struct {
	UploadHandler   *handlers.UploadHandler
	ChatHandler     *handlers.ChatHandler
	ConfirmHandler  *handlers.ConfirmHandler
	StatsHandler    *handlers.StatsHandler
	ReminderHandler *handlers.ReminderHandler
	HistoryHandler  *handlers.HistoryHandler
	MaxBodyBytes    int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 10 * 1024 * 1024
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/upload", cfg.UploadHandler.Upload)
	r.Get("/upload/history", cfg.UploadHandler.History)

	r.Post("/chat", cfg.ChatHandler.Chat)
	r.Post("/confirm", cfg.ConfirmHandler.Confirm)

	r.Get("/stats", cfg.StatsHandler.Stats)

	r.Route("/reminders", func(r chi.Router) {
		r.Post("/", cfg.ReminderHandler.Create)
		r.Get("/", cfg.ReminderHandler.List)
		r.Get("/{id}", cfg.ReminderHandler.Get)
		r.Put("/{id}/complete", cfg.ReminderHandler.Complete)
		r.Delete("/{id}", cfg.ReminderHandler.Delete)
	})

	r.Route("/history", func(r chi.Router) {
		r.Get("/actions", cfg.HistoryHandler.Actions)
		r.Get("/{session_id}", cfg.HistoryHandler.Get)
		r.Delete("/{session_id}", cfg.HistoryHandler.Delete)
	})

	return r
}
