// Package middleware provides the HTTP middleware chain for the API:
// cookie-based JWT authentication, structured request logging, rate
// limiting, and Prometheus instrumentation.
package middleware

import (
	"net/http"

	"github.com/MumuCarrot/vote-BE/internal/api"
	"github.com/MumuCarrot/vote-BE/internal/appctx"
	"github.com/MumuCarrot/vote-BE/internal/auth"
	"github.com/MumuCarrot/vote-BE/internal/token"
)

// AuthMiddleware authenticates requests from the access-token cookie
type AuthMiddleware struct {
	codec     *token.Codec
	blacklist auth.Revoker
	users     auth.UserDirectory
}

// NewAuthMiddleware creates an AuthMiddleware instance
func NewAuthMiddleware(codec *token.Codec, blacklist auth.Revoker, users auth.UserDirectory) *AuthMiddleware {
	return &AuthMiddleware{
		codec:     codec,
		blacklist: blacklist,
		users:     users,
	}
}

// Authenticate validates the access-token cookie and injects the user's
// id and email into the request context. Revoked access tokens are
// rejected, so a logged-out token stops working before its expiry.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.AccessCookieName)
		if err != nil || cookie.Value == "" {
			api.WriteError(w, http.StatusUnauthorized, auth.CodeTokenNotFound, "Access token not found", nil)
			return
		}
		tokenString := cookie.Value

		if !m.codec.IsType(tokenString, token.TypeAccess) {
			api.WriteError(w, http.StatusUnauthorized, auth.CodeInvalidTokenType, "Invalid token type", nil)
			return
		}

		revoked, err := m.blacklist.IsRevoked(r.Context(), tokenString)
		if err != nil {
			api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
			return
		}
		if revoked {
			api.WriteError(w, http.StatusUnauthorized, auth.CodeTokenBlacklisted, "Token is blacklisted", nil)
			return
		}

		userID, err := m.codec.Subject(tokenString)
		if err != nil {
			api.WriteError(w, http.StatusUnauthorized, auth.CodeInvalidToken, "Invalid or expired token", nil)
			return
		}

		u, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			api.WriteError(w, http.StatusInternalServerError, api.CodeInternalError, "An unexpected error occurred", nil)
			return
		}
		if u == nil {
			api.WriteError(w, http.StatusUnauthorized, auth.CodeInvalidToken, "User no longer exists", nil)
			return
		}

		ctx := appctx.WithUserID(r.Context(), u.ID)
		ctx = appctx.WithEmail(ctx, u.Email)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
