package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/rcsgrep/internal/history"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *history.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Files and revisions; paths travel in the query string.
	r.Get("/files", h.ListFiles)
	r.Get("/revisions", h.ListRevisions)
	r.Get("/revision", h.ReadRevision)

	r.Get("/grep", h.Grep)
	r.Get("/search", h.Search)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
