package election

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the election routes. Reads are public,
// mutations require authentication.
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/elections", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Get("/{id}", handler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", handler.Create)
			r.Patch("/{id}", handler.Update)
			r.Delete("/{id}", handler.Delete)
		})
	})
}
