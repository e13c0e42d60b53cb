package vote

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the vote routes. All vote routes require
// authentication since every operation is tied to the caller.
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/votes", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", handler.List)
		r.Post("/", handler.Create)
		r.Get("/me", handler.Mine)
		r.Get("/election/{electionID}", handler.ByElection)
		r.Get("/election/{electionID}/me", handler.MineForElection)
		r.Get("/{id}", handler.Get)
		r.Patch("/{id}", handler.Update)
		r.Delete("/{id}", handler.Delete)
	})
}
