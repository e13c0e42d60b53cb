package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/MumuCarrot/vote-BE/internal/api"
	"github.com/MumuCarrot/vote-BE/internal/appctx"
	"github.com/MumuCarrot/vote-BE/internal/repository"
	"github.com/MumuCarrot/vote-BE/internal/token"
	"github.com/MumuCarrot/vote-BE/internal/user"
)

// Auth-specific error codes
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailExists        = "EMAIL_EXISTS"
	CodeTokenNotFound      = "TOKEN_NOT_FOUND"
	CodeTokenBlacklisted   = "TOKEN_BLACKLISTED"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeInvalidTokenType   = "INVALID_TOKEN_TYPE"
)

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Email     string  `json:"email" validate:"required,email"`
	Password  string  `json:"password" validate:"required,min=8"`
	Phone     *string `json:"phone,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserView is the public projection of a user row
type UserView struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Phone     *string    `json:"phone,omitempty"`
	FirstName *string    `json:"first_name,omitempty"`
	LastName  *string    `json:"last_name,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func userView(u *repository.User) UserView {
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		Phone:     u.Phone,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}

// Handler handles HTTP requests for authentication endpoints
type Handler struct {
	service  *Service
	users    UserDirectory
	validate *validator.Validate
}

// NewHandler creates an auth HTTP handler
func NewHandler(service *Service, users UserDirectory) *Handler {
	return &Handler{
		service:  service,
		users:    users,
		validate: validator.New(),
	}
}

// Register handles user registration
// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, "Invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, "Request validation failed", api.ValidationDetails(err))
		return
	}

	created, pair, err := h.service.Register(r.Context(), user.CreateInput{
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			api.WriteError(w, http.StatusConflict, CodeEmailExists, "An account with this email already exists", nil)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	h.service.SetTokenCookies(w, pair)
	api.WriteSuccess(w, http.StatusCreated, map[string]any{
		"user": userView(created),
	})
}

// Login handles user authentication
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, "Invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, "Request validation failed", api.ValidationDetails(err))
		return
	}

	u, pair, err := h.service.Login(r.Context(), req.Email, req.Password, api.ClientIP(r))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			api.WriteError(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid email or password", nil)
			return
		}
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	h.service.SetTokenCookies(w, pair)
	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"user": userView(u),
	})
}

// Refresh rotates the refresh token presented in the refresh cookie
// POST /api/auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken := cookieValue(r, RefreshCookieName)
	if refreshToken == "" {
		api.WriteError(w, http.StatusUnauthorized, CodeTokenNotFound, "Refresh token not found", nil)
		return
	}
	if !h.service.Codec().IsType(refreshToken, token.TypeRefresh) {
		api.WriteError(w, http.StatusUnauthorized, CodeInvalidTokenType, "Invalid token type", nil)
		return
	}

	pair, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenBlacklisted):
			api.WriteError(w, http.StatusUnauthorized, CodeTokenBlacklisted, "Token is blacklisted", nil)
		case errors.Is(err, token.ErrInvalidToken):
			api.WriteError(w, http.StatusUnauthorized, CodeInvalidToken, "Invalid or expired refresh token", nil)
		case errors.Is(err, repository.ErrNotFound):
			api.WriteError(w, http.StatusUnauthorized, CodeInvalidToken, "User no longer exists", nil)
		default:
			api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		}
		return
	}

	h.service.SetTokenCookies(w, pair)
	api.WriteSuccess(w, http.StatusOK, map[string]string{
		"message": "Tokens refreshed",
	})
}

// Logout revokes the caller's tokens and clears the cookies
// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	accessToken := cookieValue(r, AccessCookieName)
	if accessToken == "" {
		api.WriteError(w, http.StatusUnauthorized, CodeTokenNotFound, "Access token not found", nil)
		return
	}
	refreshToken := cookieValue(r, RefreshCookieName)

	if err := h.service.Logout(r.Context(), accessToken, refreshToken); err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	h.service.ClearTokenCookies(w)
	api.WriteSuccess(w, http.StatusOK, map[string]string{
		"message": "Successfully logged out",
	})
}

// Me returns the authenticated user's profile
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := appctx.UserID(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, CodeInvalidToken, "Invalid or expired token", nil)
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}
	if u == nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "User not found", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"user": userView(u),
	})
}
