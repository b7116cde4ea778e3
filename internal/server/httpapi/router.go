// Package httpapi exposes the wallet-auth service over HTTP/JSON.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrijs2005/walletauth/internal/common"
	"github.com/dmitrijs2005/walletauth/internal/logging"
)

// NewRouter mounts the wallet-auth and user routes. CORS is enabled only when
// trustedOrigins is non-empty.
func NewRouter(h *Handler, logger logging.Logger, trustedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	if len(trustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: trustedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", common.RequestIDHeaderName},
			ExposedHeaders: []string{common.RequestIDHeaderName},
			MaxAge:         300,
		}))
	}

	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/wallet-auth", h.IssueNonce)
		r.Post("/wallet-auth", h.Verify)

		r.Route("/users", func(r chi.Router) {
			r.Post("/active", h.ActiveUser)
			r.Post("/create", h.CreateUser)
			r.Patch("/update", h.UpdateUser)
		})
	})

	return r
}
