package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stocktally/stocktally/timeseries"
)

// storeServer fakes the entry store endpoints a write flow touches.
type storeServer struct {
	mu       chan struct{}
	entries  map[string]Entry
	failures int32 // remaining 503 responses before success
	requests int32
}

func newStoreServer() *storeServer {
	s := &storeServer{mu: make(chan struct{}, 1), entries: map[string]Entry{}}
	s.mu <- struct{}{}
	return s
}

func (s *storeServer) lock() func() {
	<-s.mu
	return func() { s.mu <- struct{}{} }
}

func (s *storeServer) handler() http.Handler {
	r := chi.NewRouter()
	r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(loginResult{UID: "user-1", Email: "a@b.c", AccessToken: "tok"})
	})
	r.Post("/items/{itemID}/entries/", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&s.requests, 1)
		if atomic.AddInt32(&s.failures, -1) >= 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		defer s.lock()()
		var body createEntryRequest
		_ = json.NewDecoder(req.Body).Decode(&body)
		qty, _ := body.Quantity.Float64()
		e := Entry{ID: body.ID, ItemID: chi.URLParam(req, "itemID"), UID: "user-1", Name: body.Name, Quantity: qty, Date: body.Date}
		s.entries[e.ID] = e
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(e)
	})
	r.Patch("/items/{itemID}/entries/{entryID}", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&s.requests, 1)
		if atomic.AddInt32(&s.failures, -1) >= 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		defer s.lock()()
		e, ok := s.entries[chi.URLParam(req, "entryID")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		var body updateEntryRequest
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body.Quantity != nil {
			e.Quantity, _ = body.Quantity.Float64()
		}
		s.entries[e.ID] = e
		_ = json.NewEncoder(w).Encode(e)
	})
	r.Delete("/items/{itemID}/entries/{entryID}", func(w http.ResponseWriter, req *http.Request) {
		atomic.AddInt32(&s.requests, 1)
		if atomic.AddInt32(&s.failures, -1) >= 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		defer s.lock()()
		delete(s.entries, chi.URLParam(req, "entryID"))
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func newTestClient(t *testing.T) (*Client, *storeServer) {
	t.Helper()
	store := newStoreServer()
	srv := httptest.NewServer(store.handler())
	t.Cleanup(srv.Close)

	c := New(srv.URL, NewProjection(), WithRetry(time.Millisecond, 2))
	require.NoError(t, c.Login(context.Background(), "a@b.c", "password123"))
	return c, store
}

func TestCreateEntryOptimisticConfirmed(t *testing.T) {
	c, store := newTestClient(t)

	entry, err := c.CreateEntry(context.Background(), "item-1", timeseries.Quantity("5"),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "restock")
	require.NoError(t, err)
	require.NoError(t, uuid.Validate(entry.ID))

	// Local state holds exactly one entry under the client-generated id.
	list := c.Store().Entries("item-1")
	require.Len(t, list, 1)
	require.Equal(t, entry.ID, list[0].ID)
	require.Equal(t, float64(5), list[0].Quantity)

	// The remote confirmation snapshot keeps the same id.
	defer store.lock()()
	remote, ok := store.entries[entry.ID]
	require.True(t, ok)
	require.Equal(t, entry.ID, remote.ID)
}

func TestCreateEntryUnauthenticated(t *testing.T) {
	c, _ := newTestClient(t)
	c.Logout()

	_, err := c.CreateEntry(context.Background(), "item-1", timeseries.Quantity("5"), time.Now(), "")
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.Empty(t, c.Store().Entries("item-1"))
}

func TestCreateEntryValidation(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.CreateEntry(context.Background(), "item-1", timeseries.Quantity("many"), time.Now(), "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = c.CreateEntry(context.Background(), "item-1", timeseries.Quantity("-1"), time.Now(), "")
	require.ErrorIs(t, err, ErrValidation)

	_, err = c.CreateEntry(context.Background(), "item-1", timeseries.Quantity("1"), time.Time{}, "")
	require.ErrorIs(t, err, ErrValidation)

	require.Empty(t, c.Store().Entries("item-1"))
}

func TestCreateEntryRetriesThenSucceeds(t *testing.T) {
	c, store := newTestClient(t)
	atomic.StoreInt32(&store.failures, 2)

	_, err := c.CreateEntry(context.Background(), "item-1", timeseries.Quantity("5"), time.Now(), "")
	require.NoError(t, err)
	require.Equal(t, int32(3), atomic.LoadInt32(&store.requests))
	require.Len(t, c.Store().Entries("item-1"), 1)
}

func TestCreateEntryRollbackAfterRetryBudget(t *testing.T) {
	c, store := newTestClient(t)
	atomic.StoreInt32(&store.failures, 100)

	_, err := c.CreateEntry(context.Background(), "item-1", timeseries.Quantity("5"), time.Now(), "")
	require.ErrorIs(t, err, ErrRemoteUnavailable)

	// The optimistic entry is rolled back on final failure.
	require.Empty(t, c.Store().Entries("item-1"))
}

func TestUpdateEntry(t *testing.T) {
	c, _ := newTestClient(t)
	created, err := c.CreateEntry(context.Background(), "item-1", timeseries.Quantity("5"),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "")
	require.NoError(t, err)

	qty := timeseries.Quantity("9")
	updated, err := c.UpdateEntry(context.Background(), "item-1", created.ID, EntryUpdate{Quantity: &qty})
	require.NoError(t, err)
	require.Equal(t, float64(9), updated.Quantity)

	got, ok := c.Store().Get("item-1", created.ID)
	require.True(t, ok)
	require.Equal(t, float64(9), got.Quantity)
}

func TestUpdateEntryNotFound(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.UpdateEntry(context.Background(), "item-1", uuid.NewString(), EntryUpdate{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateEntryRollbackOnFailure(t *testing.T) {
	c, store := newTestClient(t)
	created, err := c.CreateEntry(context.Background(), "item-1", timeseries.Quantity("5"), time.Now(), "")
	require.NoError(t, err)

	atomic.StoreInt32(&store.failures, 100)
	qty := timeseries.Quantity("9")
	_, err = c.UpdateEntry(context.Background(), "item-1", created.ID, EntryUpdate{Quantity: &qty})
	require.ErrorIs(t, err, ErrRemoteUnavailable)

	got, ok := c.Store().Get("item-1", created.ID)
	require.True(t, ok)
	require.Equal(t, float64(5), got.Quantity)
}

func TestDeleteEntry(t *testing.T) {
	c, _ := newTestClient(t)
	created, err := c.CreateEntry(context.Background(), "item-1", timeseries.Quantity("5"), time.Now(), "")
	require.NoError(t, err)

	require.NoError(t, c.DeleteEntry(context.Background(), "item-1", created.ID))
	require.Empty(t, c.Store().Entries("item-1"))
}

func TestDeleteAbsentEntryIsNoOp(t *testing.T) {
	c, _ := newTestClient(t)

	require.NoError(t, c.DeleteEntry(context.Background(), "item-1", uuid.NewString()))
}

func TestDeleteEntryRestoredOnFailure(t *testing.T) {
	c, store := newTestClient(t)
	created, err := c.CreateEntry(context.Background(), "item-1", timeseries.Quantity("5"), time.Now(), "")
	require.NoError(t, err)

	atomic.StoreInt32(&store.failures, 100)
	err = c.DeleteEntry(context.Background(), "item-1", created.ID)
	require.ErrorIs(t, err, ErrRemoteUnavailable)

	_, ok := c.Store().Get("item-1", created.ID)
	require.True(t, ok)
}

func TestLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL, NewProjection())
	err := c.Login(context.Background(), "a@b.c", "wrong")
	require.ErrorIs(t, err, ErrUnauthenticated)
	require.Empty(t, c.UID())
}
