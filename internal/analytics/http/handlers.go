// Package analytichttp exposes chart endpoints for item entry series.
package analytichttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stocktally/stocktally/internal/analytics"
	"github.com/stocktally/stocktally/internal/analytics/svg"
	"github.com/stocktally/stocktally/internal/auth"
	"github.com/stocktally/stocktally/internal/platform/httpx"
	"github.com/stocktally/stocktally/timeseries"
)

// SeriesService computes windowed chart series per item.
type SeriesService interface {
	Series(ctx context.Context, uid, itemID, window string) (timeseries.Series, error)
}

// Handler serves chart series as JSON and rendered SVG.
type Handler struct {
	logger  *slog.Logger
	service SeriesService
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service SeriesService) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) series(w http.ResponseWriter, r *http.Request) (timeseries.Series, bool) {
	uid, ok := auth.UIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return timeseries.Series{}, false
	}
	window := r.URL.Query().Get("window")
	if window == "" {
		window = "weekly"
	}
	series, err := h.service.Series(r.Context(), uid, chi.URLParam(r, "itemID"), window)
	if err != nil {
		if errors.Is(err, analytics.ErrUnknownWindow) {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "window must be weekly, monthly or yearly")
			return timeseries.Series{}, false
		}
		h.logger.Error("chart series", slog.Any("error", err))
		httpx.RespondError(w, err)
		return timeseries.Series{}, false
	}
	return series, true
}

func (h *Handler) handleSeries(w http.ResponseWriter, r *http.Request) {
	series, ok := h.series(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, series)
}

func (h *Handler) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	series, ok := h.series(w, r)
	if !ok {
		return
	}
	if len(series.Values) == 0 {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	out, err := svg.Line(0, 0, series.Values, series.Labels, svg.LineOpts{Title: "Quantity over time"})
	if err != nil {
		h.logger.Error("render chart", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}
