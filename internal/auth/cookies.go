package auth

import (
	"net/http"

	"github.com/MumuCarrot/vote-BE/internal/token"
)

// Cookie names for the token pair
const (
	AccessCookieName  = "access_token"
	RefreshCookieName = "refresh_token"
)

// SetTokenCookies projects a token pair onto http-only cookies. Max-Age
// follows each token's lifetime so the browser drops the cookie when
// the token expires.
func (s *Service) SetTokenCookies(w http.ResponseWriter, pair token.TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     AccessCookieName,
		Value:    pair.AccessToken,
		Path:     "/",
		MaxAge:   int(s.codec.AccessTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    pair.RefreshToken,
		Path:     "/",
		MaxAge:   int(s.codec.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearTokenCookies expires both token cookies
func (s *Service) ClearTokenCookies(w http.ResponseWriter) {
	for _, name := range []string{AccessCookieName, RefreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// cookieValue reads a cookie value, returning "" when absent
func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
