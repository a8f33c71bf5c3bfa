package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/vitrine/internal/index"
	"github.com/starford/vitrine/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(sess *session.Session, idx index.CatalogIndex, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(sess, idx)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Catalog.
	r.Get("/catalog", h.Catalog)
	r.Post("/catalog/reload", h.Reload)
	r.Post("/resume", h.Resume)
	r.Get("/categories", h.Categories)
	r.Get("/records/{file}", h.Record)

	// View.
	r.Get("/view", h.View)
	r.Put("/search", h.SetSearch)
	r.Delete("/search", h.ClearSearch)
	r.Post("/viewport", h.Viewport)
	r.Get("/units/{unit}/target", h.Target)

	// Selector surfaces.
	r.Route("/surfaces/{surface}", func(r chi.Router) {
		r.Get("/", h.Surface)
		r.Post("/open", h.OpenSurface)
		r.Post("/toggle", h.Toggle)
		r.Post("/apply", h.Apply)
		r.Post("/reset", h.Reset)
	})

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
