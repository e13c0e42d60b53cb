package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/MumuCarrot/vote-BE/internal/api"
	"github.com/MumuCarrot/vote-BE/internal/repository"
)

// UpdateRequest is the user update payload
type UpdateRequest struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8"`
	Phone     *string `json:"phone,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// View is the public projection of a user row
type View struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Phone     *string    `json:"phone,omitempty"`
	FirstName *string    `json:"first_name,omitempty"`
	LastName  *string    `json:"last_name,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func viewOf(u *repository.User) View {
	return View{
		ID:        u.ID,
		Email:     u.Email,
		Phone:     u.Phone,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}

// Handler handles HTTP requests for user endpoints
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// NewHandler creates a user HTTP handler
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
	}
}

// Get handles fetching a single user
// GET /api/users/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}
	if u == nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "User not found", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"user": viewOf(u),
	})
}

// Update handles user updates
// PATCH /api/users/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, "Invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, "Request validation failed", api.ValidationDetails(err))
		return
	}

	u, err := h.service.Update(r.Context(), id, UpdateInput{
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "User not found", nil)
		case errors.Is(err, repository.ErrAlreadyExists):
			api.WriteError(w, http.StatusConflict, api.CodeAlreadyExists, "An account with this email already exists", nil)
		default:
			api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		}
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"user": viewOf(u),
	})
}

// Delete handles user deletion
// DELETE /api/users/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "User not found", nil)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]string{
		"message": "User deleted",
	})
}

// List handles paginated user listing
// GET /api/users?page=1&page_size=10
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	pageSize := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && v > 0 && v <= 100 {
		pageSize = v
	}

	users, err := h.service.List(r.Context(), page, pageSize)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	views := make([]View, 0, len(users))
	for i := range users {
		views = append(views, viewOf(&users[i]))
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"users":     views,
		"page":      page,
		"page_size": pageSize,
	})
}
