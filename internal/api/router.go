package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/techdocs/internal/auth"
	"github.com/starford/techdocs/internal/docservice"
)

// NewRouter creates a chi router with all API routes mounted.
// enforceAuth controls whether a Bearer JWT is required; login is always open.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *docservice.Service, authn *auth.Authenticator, enforceAuth bool, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, authn)

	r := chi.NewRouter()

	r.Post("/auth/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authn, enforceAuth))

		r.Get("/auth/user", h.CurrentUser)

		// Documents.
		r.Get("/docs", h.ListTree)
		r.Get("/docs/flat", h.ListFlat)
		r.Get("/docs/info", h.GetDocument)
		r.Get("/docs/render", h.RenderDocument)
		r.Get("/docs/search", h.Search)
		r.Post("/docs", h.SaveDocument)
		r.Post("/docs/move", h.MoveDocument)
		r.Delete("/docs/*", h.DeleteDocument)

		// Directories.
		r.Post("/directories", h.CreateDirectory)
		r.Delete("/directories/*", h.DeleteDirectory)

		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
