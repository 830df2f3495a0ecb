package client

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Item is a tracked thing the signed-in user owns.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type createItemRequest struct {
	Name string `json:"name"`
}

// CreateItem registers a new item on the store. Items are server-assigned
// and not written optimistically; the UI lists them via ListItems.
func (c *Client) CreateItem(ctx context.Context, name string) (Item, error) {
	if c.UID() == "" {
		return Item{}, ErrUnauthenticated
	}
	var item Item
	if err := c.do(ctx, http.MethodPost, "/items/", createItemRequest{Name: name}, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// ListItems returns the user's items.
func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	if c.UID() == "" {
		return nil, ErrUnauthenticated
	}
	var items []Item
	if err := c.do(ctx, http.MethodGet, "/items/", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteItem removes an item and clears its local entries. Deleting an
// absent item succeeds.
func (c *Client) DeleteItem(ctx context.Context, itemID string) error {
	if c.UID() == "" {
		return ErrUnauthenticated
	}
	err := c.do(ctx, http.MethodDelete, "/items/"+itemID+"/", nil, nil)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	c.store.ApplySnapshot(itemID, nil)
	return nil
}
