package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MumuCarrot/vote-BE/internal/logger"
)

// RequestLogger logs each request as a structured record, carrying the
// chi request id through the context as a correlation id.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := middleware.GetReqID(r.Context())
			r = r.WithContext(logger.SetCorrelationID(r.Context(), requestID))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			attrs := []any{
				slog.String("correlation_id", requestID),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("user_agent", r.UserAgent()),
			}

			switch {
			case ww.Status() >= 500:
				log.Error("HTTP request completed with server error", attrs...)
			case ww.Status() >= 400:
				log.Warn("HTTP request completed with client error", attrs...)
			default:
				log.Info("HTTP request completed", attrs...)
			}
		})
	}
}
