package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/stocktally/stocktally/internal/auth"
)

// MountRoutes registers chart endpoints onto an item-scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(30, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/chart", h.handleSeries)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/chart.svg", h.handleChartSVG)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if uid, ok := auth.UIDFromContext(r.Context()); ok {
		return "user:" + uid, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
