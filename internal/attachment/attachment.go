// Package attachment exposes file uploads for elections and candidates.
// Files land in object storage; attachment rows record the storage key.
package attachment

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MumuCarrot/vote-BE/internal/api"
	"github.com/MumuCarrot/vote-BE/internal/appctx"
	"github.com/MumuCarrot/vote-BE/internal/repository"
	"github.com/MumuCarrot/vote-BE/internal/storage"
)

// maxUploadBytes caps a single attachment upload
const maxUploadBytes = 25 << 20

// Store persists attachment rows
type Store interface {
	Create(ctx context.Context, a *repository.Attachment, exists repository.Condition) (*repository.Attachment, error)
	ReadOne(ctx context.Context, cond repository.Condition) (*repository.Attachment, error)
	Delete(ctx context.Context, cond repository.Condition) (bool, error)
}

// Handler handles attachment upload, download, and deletion
type Handler struct {
	store   Store
	objects *storage.Service
	log     *slog.Logger
}

// NewHandler creates an attachment HTTP handler
func NewHandler(store Store, objects *storage.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: store, objects: objects, log: log}
}

// Upload stores a multipart file and records the attachment row
// POST /api/attachments?election_id=...&candidate_id=...
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := appctx.UserID(r.Context())
	if !ok {
		api.WriteError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.CodeValidationError, "A file field is required", nil)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	id := uuid.NewString()
	key := "attachments/" + id + "/" + header.Filename
	if _, err := h.objects.Upload(r.Context(), key, contentType, file); err != nil {
		h.log.Error("attachment upload failed", "key", key, "error", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	now := time.Now().UTC()
	attachment := &repository.Attachment{
		ID:         id,
		UserID:     &userID,
		FileURL:    key,
		UploadedAt: &now,
	}
	if electionID := r.URL.Query().Get("election_id"); electionID != "" {
		attachment.ElectionID = &electionID
	}
	if candidateID := r.URL.Query().Get("candidate_id"); candidateID != "" {
		attachment.CandidateID = &candidateID
	}

	created, err := h.store.Create(r.Context(), attachment, repository.Condition{})
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusCreated, map[string]any{
		"attachment": created,
	})
}

// Download redirects to a pre-signed URL for the attachment's object
// GET /api/attachments/{id}/download
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	attachment, err := h.store.ReadOne(r.Context(), repository.Eq("id", id))
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}
	if attachment == nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Attachment not found", nil)
		return
	}

	url, expiry, err := h.objects.PresignedURL(r.Context(), attachment.FileURL)
	if err != nil {
		h.log.Error("presign failed", "attachment_id", id, "error", err)
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"url":        url,
		"expires_in": int(expiry.Seconds()),
	})
}

// Delete removes the attachment row and its stored object
// DELETE /api/attachments/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	attachment, err := h.store.ReadOne(r.Context(), repository.Eq("id", id))
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}
	if attachment == nil {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Attachment not found", nil)
		return
	}

	if err := h.objects.Delete(r.Context(), attachment.FileURL); err != nil {
		h.log.Error("object delete failed", "attachment_id", id, "error", err)
	}

	deleted, err := h.store.Delete(r.Context(), repository.Eq("id", id))
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
		return
	}
	if !deleted {
		api.WriteError(w, http.StatusNotFound, api.CodeNotFound, "Attachment not found", nil)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]string{
		"message": "Attachment deleted",
	})
}

// RegisterRoutes registers the attachment routes behind authentication
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/attachments", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", handler.Upload)
		r.Get("/{id}/download", handler.Download)
		r.Delete("/{id}", handler.Delete)
	})
}
