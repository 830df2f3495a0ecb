package client

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type streamMessage struct {
	Type    string  `json:"type"`
	ItemID  string  `json:"item_id"`
	Entries []Entry `json:"entries"`
	Error   string  `json:"error"`
}

// SubscribeEntries opens a live query for the item's entries. Every
// received snapshot replaces the item's entries in the projection, then
// onUpdate receives the new sequence, newest first. onError is invoked
// at most once; after it fires the subscription is dead and the caller
// must re-subscribe. The returned func cancels the subscription and is
// safe to call more than once.
func (c *Client) SubscribeEntries(ctx context.Context, itemID string, onUpdate func([]Entry), onError func(error)) (func(), error) {
	_, token := c.session()
	if token == "" {
		return nil, ErrUnauthenticated
	}

	wsURL, err := c.watchURL(itemID, token)
	if err != nil {
		return nil, err
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if resp != nil {
		resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == 401 || resp.StatusCode == 403) {
			return nil, ErrUnauthenticated
		}
		return nil, errors.Join(ErrRemoteUnavailable, err)
	}

	var once sync.Once
	done := make(chan struct{})
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		})
	}

	go c.readSnapshots(conn, itemID, done, onUpdate, onError, unsubscribe)
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-done:
		}
	}()
	return unsubscribe, nil
}

// readSnapshots consumes snapshot messages until the connection dies or
// the caller unsubscribes. Callbacks never fire after unsubscribe.
func (c *Client) readSnapshots(conn *websocket.Conn, itemID string, done <-chan struct{}, onUpdate func([]Entry), onError func(error), unsubscribe func()) {
	defer unsubscribe()
	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			select {
			case <-done:
			default:
				if onError != nil {
					onError(errors.Join(ErrRemoteUnavailable, err))
				}
			}
			return
		}
		select {
		case <-done:
			return
		default:
		}
		switch msg.Type {
		case "snapshot":
			c.store.ApplySnapshot(itemID, msg.Entries)
			if onUpdate != nil {
				onUpdate(c.store.Entries(itemID))
			}
		case "error":
			if onError != nil {
				onError(errors.New("client: subscription failed: " + msg.Error))
			}
			return
		}
	}
}

func (c *Client) watchURL(itemID, token string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws/entries/" + itemID
	q := u.Query()
	q.Set("access_token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
