package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// NewRouter builds the chi router with the shared middleware chain and
// the API routes registered.
func NewRouter(ctx context.Context, s *Server, allowedOrigins []string) chi.Router {
	r := chi.NewRouter()

	r.Use(RecoverMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", CallerHeader, IdempotencyHeader, RequestIDHeader},
		ExposedHeaders:   []string{"Location", RequestIDHeader, ReplayedHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(RequestIDMiddleware)
	r.Use(CallerMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	s.Register(ctx, r)
	return r
}
