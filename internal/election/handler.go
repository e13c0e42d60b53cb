package election

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/MumuCarrot/vote-BE/internal/api"
	"github.com/MumuCarrot/vote-BE/internal/appctx"
	"github.com/MumuCarrot/vote-BE/internal/repository"
)

// Handler handles HTTP requests for election endpoints
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler creates an election HTTP handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// Create handles election creation
// POST /api/elections
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, "Invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, "Request validation failed", api.ValidationDetails(err))
		return
	}

	actorID, _ := appctx.UserID(r.Context())
	view, err := h.service.Create(r.Context(), req, actorID)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, err.Error(), nil)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusCreated, map[string]any{
		"election": view,
	})
}

// Get handles fetching a single election
// GET /api/elections/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	view, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}
	if view == nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Election not found", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"election": view,
	})
}

// Update handles election updates
// PATCH /api/elections/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, "Invalid request body", nil)
		return
	}

	actorID, _ := appctx.UserID(r.Context())
	view, err := h.service.Update(r.Context(), id, req, actorID)
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, err.Error(), nil)
		case errors.Is(err, repository.ErrNotFound):
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Election not found", nil)
		default:
			api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		}
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"election": view,
	})
}

// Delete handles election deletion
// DELETE /api/elections/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	actorID, _ := appctx.UserID(r.Context())
	if err := h.service.Delete(r.Context(), id, actorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Election not found", nil)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]string{
		"message": "Election deleted",
	})
}

// List handles paginated election listing
// GET /api/elections?page=1&page_size=10
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := pagination(r)

	views, err := h.service.List(r.Context(), page, pageSize)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"elections": views,
		"page":      page,
		"page_size": pageSize,
	})
}

// pagination reads page and page_size query parameters with defaults
func pagination(r *http.Request) (int, int) {
	page := 1
	pageSize := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = v
	}
	return page, pageSize
}
