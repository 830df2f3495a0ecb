package client

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/stocktally/stocktally/timeseries"
)

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

// EntryUpdate carries the fields an edit flow may replace. Nil fields
// are left untouched.
type EntryUpdate struct {
	Quantity *timeseries.Quantity
	Date     *time.Time
	Name     *string
}

// CreateEntry generates the entry id locally, applies the entry to the
// projection immediately, then writes it to the store under the same id.
// When the store stays unavailable past the retry budget the optimistic
// entry is rolled back and the failure returned.
func (c *Client) CreateEntry(ctx context.Context, itemID string, quantity timeseries.Quantity, date time.Time, name string) (Entry, error) {
	uid, _ := c.session()
	if uid == "" {
		return Entry{}, ErrUnauthenticated
	}
	qty, err := quantity.Float64()
	if err != nil || qty < 0 {
		return Entry{}, ErrValidation
	}
	if date.IsZero() {
		return Entry{}, ErrValidation
	}

	entry := Entry{
		ID:       uuid.NewString(),
		ItemID:   itemID,
		UID:      uid,
		Name:     name,
		Quantity: qty,
		Date:     date.UTC(),
	}
	c.store.ApplyCreate(entry)

	req := createEntryRequest{ID: entry.ID, Name: name, Quantity: quantity, Date: entry.Date}
	if err := c.writeWithRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, "POST", "/items/"+itemID+"/entries/", req, nil)
	}); err != nil {
		c.store.Remove(itemID, entry.ID)
		c.logger.Warn("create entry rolled back", slog.String("entry_id", entry.ID), slog.Any("error", err))
		return Entry{}, err
	}
	return entry, nil
}

// UpdateEntry replaces fields of the entry matched by id, optimistically
// first. An id absent from the projection fails fast with ErrNotFound.
func (c *Client) UpdateEntry(ctx context.Context, itemID, entryID string, update EntryUpdate) (Entry, error) {
	uid, _ := c.session()
	if uid == "" {
		return Entry{}, ErrUnauthenticated
	}
	previous, ok := c.store.Get(itemID, entryID)
	if !ok {
		return Entry{}, ErrNotFound
	}

	next := previous
	if update.Quantity != nil {
		qty, err := update.Quantity.Float64()
		if err != nil || qty < 0 {
			return Entry{}, ErrValidation
		}
		next.Quantity = qty
	}
	if update.Date != nil {
		next.Date = update.Date.UTC()
	}
	if update.Name != nil {
		next.Name = *update.Name
	}
	c.store.ApplyUpdate(next)

	req := updateEntryRequest{Quantity: update.Quantity, Date: update.Date, Name: update.Name}
	if err := c.writeWithRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, "PATCH", "/items/"+itemID+"/entries/"+entryID, req, nil)
	}); err != nil {
		c.store.ApplyUpdate(previous)
		return Entry{}, err
	}
	return next, nil
}

// DeleteEntry removes the entry locally and from the store. Deleting an
// id neither side holds is a no-op success.
func (c *Client) DeleteEntry(ctx context.Context, itemID, entryID string) error {
	uid, _ := c.session()
	if uid == "" {
		return ErrUnauthenticated
	}
	removed, hadLocal := c.store.Remove(itemID, entryID)

	err := c.writeWithRetry(ctx, func(ctx context.Context) error {
		return c.do(ctx, "DELETE", "/items/"+itemID+"/entries/"+entryID, nil, nil)
	})
	if errors.Is(err, ErrNotFound) {
		err = nil
	}
	if err != nil {
		if hadLocal {
			c.store.ApplyCreate(removed)
		}
		return err
	}
	return nil
}

// writeWithRetry runs a store write with bounded fibonacci backoff on
// unavailable-store failures. All other failures return immediately.
func (c *Client) writeWithRetry(ctx context.Context, op func(context.Context) error) error {
	backoff := retry.WithMaxRetries(c.retryMax, retry.NewFibonacci(c.retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := op(ctx)
		if errors.Is(err, ErrRemoteUnavailable) {
			return retry.RetryableError(err)
		}
		return err
	})
}
