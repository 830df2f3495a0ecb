package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/stocktally/stocktally/internal/entries"
)

// SnapshotSource loads the authoritative entry set for a (uid, item)
// query, most recent first.
type SnapshotSource interface {
	ListByUserItem(ctx context.Context, uid, itemID string) ([]entries.Entry, error)
}

// Message is the wire envelope pushed to subscribers. A snapshot message
// replaces all previously delivered state for the query; an error message
// is terminal for the subscription.
type Message struct {
	Type    string                  `json:"type"`
	ItemID  string                  `json:"item_id,omitempty"`
	Entries []entries.EntryResponse `json:"entries,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

type queryKey struct {
	uid    string
	itemID string
}

type subscriber struct {
	key  queryKey
	send chan Message
}

// Hub routes change events to subscribers. One hub runs per process; the
// redis channel bridges writes from other instances.
type Hub struct {
	source SnapshotSource
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[queryKey]map[*subscriber]struct{}
}

// NewHub constructs Hub.
func NewHub(source SnapshotSource, logger *slog.Logger) *Hub {
	return &Hub{
		source: source,
		logger: logger,
		subs:   make(map[queryKey]map[*subscriber]struct{}),
	}
}

// Run consumes the redis change channel until ctx is cancelled.
func (h *Hub) Run(ctx context.Context, rdb *redis.Client) {
	pubsub := rdb.Subscribe(ctx, Channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event entries.ChangeEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				h.logger.Warn("stream: bad change event", slog.Any("error", err))
				continue
			}
			h.Dispatch(ctx, event)
		}
	}
}

// Dispatch pushes a fresh snapshot to every subscriber of the event's
// query. Unknown queries are ignored.
func (h *Hub) Dispatch(ctx context.Context, event entries.ChangeEvent) {
	key := queryKey{uid: event.UID, itemID: event.ItemID}

	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.subs[key]))
	for sub := range h.subs[key] {
		targets = append(targets, sub)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	msg, err := h.snapshot(ctx, event.UID, event.ItemID)
	if err != nil {
		h.logger.Error("stream: load snapshot", slog.String("item_id", event.ItemID), slog.Any("error", err))
		msg = Message{Type: "error", ItemID: event.ItemID, Error: "snapshot unavailable"}
	}
	for _, sub := range targets {
		sub.deliver(msg)
	}
}

// snapshot builds a full snapshot message for the query.
func (h *Hub) snapshot(ctx context.Context, uid, itemID string) (Message, error) {
	list, err := h.source.ListByUserItem(ctx, uid, itemID)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: "snapshot", ItemID: itemID, Entries: entries.ToResponseList(list)}, nil
}

// subscribe registers a subscriber for a (uid, item) query.
func (h *Hub) subscribe(uid, itemID string) *subscriber {
	sub := &subscriber{
		key:  queryKey{uid: uid, itemID: itemID},
		send: make(chan Message, 8),
	}
	h.mu.Lock()
	set, ok := h.subs[sub.key]
	if !ok {
		set = make(map[*subscriber]struct{})
		h.subs[sub.key] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	if set, ok := h.subs[sub.key]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.key)
		}
	}
	h.mu.Unlock()
}

// deliver queues a message without blocking the hub. A subscriber that
// cannot keep up loses intermediate snapshots, never ordering: the queue
// drains oldest-first and every snapshot supersedes the previous one.
func (s *subscriber) deliver(msg Message) {
	for {
		select {
		case s.send <- msg:
			return
		default:
			select {
			case <-s.send:
			default:
			}
		}
	}
}
