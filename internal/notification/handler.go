package notification

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MumuCarrot/vote-BE/internal/api"
	"github.com/MumuCarrot/vote-BE/internal/appctx"
	"github.com/MumuCarrot/vote-BE/internal/repository"
)

// Handler handles HTTP requests for notification endpoints
type Handler struct {
	service *Service
}

// NewHandler creates a notification HTTP handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List returns the caller's notifications
// GET /api/notifications?page=1&page_size=10
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := appctx.UserID(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		return
	}

	page := 1
	pageSize := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = v
	}

	notifications, err := h.service.ListForUser(r.Context(), userID, page, pageSize)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"notifications": notifications,
		"page":          page,
		"page_size":     pageSize,
	})
}

// MarkRead acknowledges one notification
// POST /api/notifications/{id}/read
func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := appctx.UserID(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		return
	}
	id := chi.URLParam(r, "id")

	n, err := h.service.MarkRead(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Notification not found", nil)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"notification": n,
	})
}

// RegisterRoutes registers the notification routes behind authentication
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/notifications", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", handler.List)
		r.Post("/{id}/read", handler.MarkRead)
	})
}
