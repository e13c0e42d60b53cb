package vote

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

// Handler handles HTTP requests for vote endpoints
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler creates a vote HTTP handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// Create handles vote casting
// POST /api/votes
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := appctx.UserID(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		return
	}

	var req CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, "Invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, "Request validation failed", api.ValidationDetails(err))
		return
	}

	v, err := h.service.Create(r.Context(), req, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			api.WriteError(w, http.StatusConflict, api.CodeAlreadyExists, "Vote already exists", nil)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusCreated, map[string]any{
		"vote": v,
	})
}

// Get handles fetching a single vote
// GET /api/votes/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	v, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}
	if v == nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Vote not found", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"vote": v,
	})
}

// ByElection lists votes for one election
// GET /api/votes/election/{electionID}
func (h *Handler) ByElection(w http.ResponseWriter, r *http.Request) {
	electionID := chi.URLParam(r, "electionID")

	votes, err := h.service.GetByElection(r.Context(), electionID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"votes": votes,
	})
}

// Mine lists the caller's votes
// GET /api/votes/me
func (h *Handler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := appctx.UserID(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		return
	}

	votes, err := h.service.GetByUser(r.Context(), userID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"votes": votes,
	})
}

// MineForElection returns the caller's vote in one election
// GET /api/votes/election/{electionID}/me
func (h *Handler) MineForElection(w http.ResponseWriter, r *http.Request) {
	userID, ok := appctx.UserID(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		return
	}
	electionID := chi.URLParam(r, "electionID")

	v, err := h.service.GetUserVoteForElection(r.Context(), electionID, userID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}
	if v == nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Vote not found", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"vote": v,
	})
}

// Update handles vote updates
// PATCH /api/votes/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := appctx.UserID(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		return
	}
	id := chi.URLParam(r, "id")

	var req UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, "Invalid request body", nil)
		return
	}

	v, err := h.service.Update(r.Context(), id, req, userID)
	if err != nil {
		h.writeVoteError(w, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"vote": v,
	})
}

// Delete handles vote deletion
// DELETE /api/votes/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := appctx.UserID(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id, userID); err != nil {
		h.writeVoteError(w, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]string{
		"message": "Vote deleted",
	})
}

// List handles paginated vote listing
// GET /api/votes?page=1&page_size=10
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	pageSize := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = v
	}

	votes, err := h.service.List(r.Context(), page, pageSize)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"votes":     votes,
		"page":      page,
		"page_size": pageSize,
	})
}

func (h *Handler) writeVoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Vote not found", nil)
	case errors.Is(err, ErrPermissionDenied):
		api.WriteError(w, http.StatusForbidden, api.CodePermissionDenied, err.Error(), nil)
	default:
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
	}
}
