package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Middleware is an interface for HTTP middleware
type Middleware func(http.Handler) http.Handler

// RegisterRoutes registers the auth routes with the Chi router.
// Public routes: /register, /login, /refresh; the credential endpoints
// additionally sit behind the login rate limiter.
// Protected routes: /logout, /me.
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware, loginLimiter Middleware) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(loginLimiter)
			r.Post("/register", handler.Register)
			r.Post("/login", handler.Login)
		})
		r.Post("/refresh", handler.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", handler.Logout)
			r.Get("/me", handler.Me)
		})
	})
}
