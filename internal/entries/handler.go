package entries

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stocktally/stocktally/internal/auth"
	"github.com/stocktally/stocktally/internal/platform/httpx"
	"github.com/stocktally/stocktally/timeseries"
)

// Handler wires HTTP endpoints for the entries module. Routes are mounted
// under /items/{itemID}/entries.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs entries handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers entry routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Patch("/{entryID}", h.handleUpdate)
	r.Delete("/{entryID}", h.handleDelete)
}

type createEntryRequest struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Quantity timeseries.Quantity `json:"quantity"`
	Date     time.Time           `json:"date"`
}

type updateEntryRequest struct {
	Quantity *timeseries.Quantity `json:"quantity,omitempty"`
	Date     *time.Time           `json:"date,omitempty"`
	Name     *string              `json:"name,omitempty"`
}

// EntryResponse is the wire form of an entry document.
type EntryResponse struct {
	ID       string    `json:"id"`
	ItemID   string    `json:"item_id"`
	UID      string    `json:"uid"`
	Name     string    `json:"name"`
	Quantity float64   `json:"quantity"`
	Date     time.Time `json:"date"`
}

// ToResponse converts an entry to its wire form.
func ToResponse(e Entry) EntryResponse {
	return EntryResponse{
		ID:       e.ID,
		ItemID:   e.ItemID,
		UID:      e.UID,
		Name:     e.Name,
		Quantity: e.Quantity,
		Date:     e.Date,
	}
}

// ToResponseList converts a slice of entries to wire form, never nil.
func ToResponseList(list []Entry) []EntryResponse {
	result := make([]EntryResponse, 0, len(list))
	for _, e := range list {
		result = append(result, ToResponse(e))
	}
	return result
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	list, err := h.service.ListByUserItem(r.Context(), uid, chi.URLParam(r, "itemID"))
	if err != nil {
		h.logger.Error("list entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponseList(list))
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	entry, err := h.service.Create(r.Context(), uid, CreateInput{
		ID:       req.ID,
		ItemID:   chi.URLParam(r, "itemID"),
		Name:     req.Name,
		Quantity: req.Quantity,
		Date:     req.Date,
	})
	if err != nil {
		h.respondServiceError(w, "create entry", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ToResponse(entry))
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req updateEntryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	entry, err := h.service.Update(r.Context(), uid, chi.URLParam(r, "itemID"), chi.URLParam(r, "entryID"), UpdateInput{
		Quantity: req.Quantity,
		Date:     req.Date,
		Name:     req.Name,
	})
	if err != nil {
		h.respondServiceError(w, "update entry", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(entry))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(r.Context(), uid, chi.URLParam(r, "itemID"), chi.URLParam(r, "entryID")); err != nil {
		h.respondServiceError(w, "delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidID), errors.Is(err, ErrDateRequired):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrDuplicateID):
		httpx.RespondError(w, httpx.ErrDuplicate)
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
