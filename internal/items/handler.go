package items

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stocktally/stocktally/internal/auth"
	"github.com/stocktally/stocktally/internal/platform/httpx"
)

// Handler wires HTTP endpoints for the items module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs items handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers the item collection routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
}

// MountItemRoutes registers routes for a single item; the itemID URL
// param comes from the enclosing route.
func (h *Handler) MountItemRoutes(r chi.Router) {
	r.Get("/", h.handleGet)
	r.Delete("/", h.handleDelete)
}

type createItemRequest struct {
	Name string `json:"name"`
}

type itemResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toResponse(item Item) itemResponse {
	return itemResponse{ID: item.ID, Name: item.Name, CreatedAt: item.CreatedAt}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	list, err := h.service.List(r.Context(), uid)
	if err != nil {
		h.logger.Error("list items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	result := make([]itemResponse, 0, len(list))
	for _, item := range list {
		result = append(result, toResponse(item))
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	item, err := h.service.Create(r.Context(), uid, req.Name)
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		h.logger.Error("create item", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(item))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	item, err := h.service.Get(r.Context(), uid, chi.URLParam(r, "itemID"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("get item", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(item))
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(r.Context(), uid, chi.URLParam(r, "itemID")); err != nil {
		h.logger.Error("delete item", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
