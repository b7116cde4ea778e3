package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/logging"
)

// RequestLogger assigns a request id (honouring an incoming X-Request-ID),
// puts a request-scoped logger into the context and logs one line per
// request once it completes.
func RequestLogger(logger logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(common.RequestIDHeaderName)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(common.RequestIDHeaderName, requestID)

			reqLogger := logger.With(
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_ip", r.RemoteAddr,
			)
			ctx := logging.IntoContext(r.Context(), reqLogger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			args := []any{"status", status, "duration_ms", time.Since(start).Milliseconds()}
			switch {
			case status >= 500:
				reqLogger.Error(ctx, "request completed", args...)
			case status >= 400:
				reqLogger.Warn(ctx, "request completed", args...)
			default:
				reqLogger.Info(ctx, "request completed", args...)
			}
		})
	}
}
