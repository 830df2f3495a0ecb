package stream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/stocktally/stocktally/internal/auth"
	"github.com/stocktally/stocktally/internal/platform/httpx"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handler upgrades subscription requests to WebSocket connections.
type Handler struct {
	logger *slog.Logger
	hub    *Hub
}

// NewHandler constructs stream handler.
func NewHandler(logger *slog.Logger, hub *Hub) *Handler {
	return &Handler{logger: logger, hub: hub}
}

// MountRoutes registers the subscription endpoint.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{itemID}", h.handleSubscribe)
}

// handleSubscribe serves one live query subscription. The first message is
// always a full snapshot; every later message supersedes it. After an error
// message the subscription is dead and the client must reconnect.
func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	uid, ok := auth.UIDFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	itemID := chi.URLParam(r, "itemID")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("stream: upgrade", slog.Any("error", err))
		return
	}

	sub := h.hub.subscribe(uid, itemID)
	defer h.hub.unsubscribe(sub)

	initial, err := h.hub.snapshot(r.Context(), uid, itemID)
	if err != nil {
		h.logger.Error("stream: initial snapshot", slog.String("item_id", itemID), slog.Any("error", err))
		initial = Message{Type: "error", ItemID: itemID, Error: "snapshot unavailable"}
	}
	sub.deliver(initial)

	done := make(chan struct{})
	go h.readPump(conn, done)
	h.writePump(conn, sub, done)
}

// readPump discards inbound frames and signals when the peer goes away.
func (h *Handler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) writePump(conn *websocket.Conn, sub *subscriber, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
			if msg.Type == "error" {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription dead"),
					time.Now().Add(writeWait))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
