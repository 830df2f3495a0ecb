package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	analytichttp "github.com/stocktally/stocktally/internal/analytics/http"
	"github.com/stocktally/stocktally/internal/auth"
	"github.com/stocktally/stocktally/internal/entries"
	"github.com/stocktally/stocktally/internal/items"
	"github.com/stocktally/stocktally/internal/stream"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Verifier         auth.TokenVerifier
	AuthHandler      *auth.Handler
	ItemsHandler     *items.Handler
	EntriesHandler   *entries.Handler
	StreamHandler    *stream.Handler
	AnalyticsHandler *analytichttp.Handler
}

// NewRouter constructs the chi router for the entry store API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: params.Logger, Config: params.Config}) {
		r.Use(mw)
	}
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	apiMiddleware := APIMiddleware(MiddlewareConfig{Logger: params.Logger, Config: params.Config})

	r.Group(func(gr chi.Router) {
		for _, mw := range apiMiddleware {
			gr.Use(mw)
		}
		gr.Route("/auth", params.AuthHandler.MountRoutes)
	})

	r.Group(func(gr chi.Router) {
		for _, mw := range apiMiddleware {
			gr.Use(mw)
		}
		gr.Use(auth.RequireUser(params.Verifier))
		gr.Route("/items", func(ir chi.Router) {
			params.ItemsHandler.MountRoutes(ir)
			ir.Route("/{itemID}", func(sr chi.Router) {
				params.ItemsHandler.MountItemRoutes(sr)
				sr.Route("/entries", params.EntriesHandler.MountRoutes)
				params.AnalyticsHandler.MountRoutes(sr)
			})
		})
	})

	// The subscription endpoint skips the request timeout; connections
	// stay open until the client unsubscribes.
	r.Group(func(gr chi.Router) {
		gr.Use(auth.RequireUser(params.Verifier))
		gr.Route("/ws/entries", params.StreamHandler.MountRoutes)
	})

	return r
}
