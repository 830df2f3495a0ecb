package entries

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stocktally/stocktally/timeseries"
)

type memoryRepo struct {
	mu      sync.Mutex
	store   map[string]Entry
	deleted map[string]time.Time
	failing bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{store: map[string]Entry{}, deleted: map[string]time.Time{}}
}

var errRepoDown = errors.New("repo down")

func (m *memoryRepo) Insert(_ context.Context, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return errRepoDown
	}
	if _, ok := m.store[entry.ID]; ok {
		return ErrDuplicateID
	}
	m.store[entry.ID] = entry
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *memoryRepo) Update(_ context.Context, uid, itemID, entryID string, qty *float64, date *time.Time, name *string) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[entryID]
	if !ok || e.UID != uid || e.ItemID != itemID {
		return Entry{}, false, nil
	}
	if qty != nil {
		e.Quantity = *qty
	}
	if date != nil {
		e.Date = date.UTC()
	}
	if name != nil {
		e.Name = *name
	}
	e.UpdatedAt = time.Now().UTC()
	m.store[entryID] = e
	return e, true, nil
}

func (m *memoryRepo) SoftDelete(_ context.Context, uid, itemID, entryID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[entryID]
	if !ok || e.UID != uid || e.ItemID != itemID {
		return false, nil
	}
	delete(m.store, entryID)
	m.deleted[entryID] = time.Now().UTC()
	return true, nil
}

func (m *memoryRepo) ListByUserItem(_ context.Context, uid, itemID string, ascending bool) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var list []Entry
	for _, e := range m.store {
		if e.UID == uid && e.ItemID == itemID {
			list = append(list, e)
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if ascending {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].Date.After(list[j].Date)
	})
	return list, nil
}

func (m *memoryRepo) PruneTombstones(_ context.Context, olderThan time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, at := range m.deleted {
		if at.Before(olderThan) {
			delete(m.deleted, id)
			n++
		}
	}
	return n, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ChangeEvent
	err    error
}

func (p *recordingPublisher) PublishEntryChange(_ context.Context, event ChangeEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func newTestService(t *testing.T) (*Service, *memoryRepo, *recordingPublisher) {
	t.Helper()
	repo := newMemoryRepo()
	pub := &recordingPublisher{}
	return NewService(repo, pub, slog.Default()), repo, pub
}

func validInput(itemID string) CreateInput {
	return CreateInput{
		ID:       uuid.NewString(),
		ItemID:   itemID,
		Name:     "restock",
		Quantity: timeseries.Quantity("5"),
		Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateEntry(t *testing.T) {
	svc, repo, pub := newTestService(t)
	in := validInput("item-1")

	entry, err := svc.Create(context.Background(), "user-1", in)
	require.NoError(t, err)
	require.Equal(t, in.ID, entry.ID)
	require.Equal(t, "user-1", entry.UID)
	require.Equal(t, float64(5), entry.Quantity)

	stored, err := repo.GetByID(context.Background(), in.ID)
	require.NoError(t, err)
	require.Equal(t, entry, stored)
	require.Equal(t, 1, pub.count())
}

func TestCreateEntryStringQuantity(t *testing.T) {
	svc, _, _ := newTestService(t)
	in := validInput("item-1")
	in.Quantity = timeseries.Quantity("3.25")

	entry, err := svc.Create(context.Background(), "user-1", in)
	require.NoError(t, err)
	require.Equal(t, 3.25, entry.Quantity)
}

func TestCreateEntryValidation(t *testing.T) {
	svc, _, pub := newTestService(t)

	cases := []struct {
		name   string
		mutate func(*CreateInput)
		want   error
	}{
		{"bad id", func(in *CreateInput) { in.ID = "entry-1" }, ErrInvalidID},
		{"zero date", func(in *CreateInput) { in.Date = time.Time{} }, ErrDateRequired},
		{"non-numeric quantity", func(in *CreateInput) { in.Quantity = "many" }, ErrInvalidQuantity},
		{"negative quantity", func(in *CreateInput) { in.Quantity = "-2" }, ErrInvalidQuantity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput("item-1")
			tc.mutate(&in)
			_, err := svc.Create(context.Background(), "user-1", in)
			require.ErrorIs(t, err, tc.want)
		})
	}
	require.Zero(t, pub.count())
}

func TestCreateEntryIdempotentRetry(t *testing.T) {
	svc, _, pub := newTestService(t)
	in := validInput("item-1")

	first, err := svc.Create(context.Background(), "user-1", in)
	require.NoError(t, err)

	// A retried write with the same client id returns the stored copy.
	second, err := svc.Create(context.Background(), "user-1", in)
	require.NoError(t, err)
	require.Equal(t, first, second)

	list, err := svc.ListByUserItem(context.Background(), "user-1", "item-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 1, pub.count())
}

func TestCreateEntryIDTakenByAnotherUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	in := validInput("item-1")

	_, err := svc.Create(context.Background(), "user-1", in)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), "user-2", in)
	require.ErrorIs(t, err, ErrDuplicateID)
}

func TestCreateEntryRepoFailure(t *testing.T) {
	svc, repo, pub := newTestService(t)
	repo.failing = true

	_, err := svc.Create(context.Background(), "user-1", validInput("item-1"))
	require.ErrorIs(t, err, errRepoDown)
	require.Zero(t, pub.count())
}

func TestUpdateEntry(t *testing.T) {
	svc, _, pub := newTestService(t)
	in := validInput("item-1")
	_, err := svc.Create(context.Background(), "user-1", in)
	require.NoError(t, err)

	qty := timeseries.Quantity("9")
	date := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	updated, err := svc.Update(context.Background(), "user-1", "item-1", in.ID, UpdateInput{
		Quantity: &qty,
		Date:     &date,
	})
	require.NoError(t, err)
	require.Equal(t, float64(9), updated.Quantity)
	require.Equal(t, date, updated.Date)
	require.Equal(t, "restock", updated.Name)
	require.Equal(t, 2, pub.count())
}

func TestUpdateEntryNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Update(context.Background(), "user-1", "item-1", uuid.NewString(), UpdateInput{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateEntryWrongUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	in := validInput("item-1")
	_, err := svc.Create(context.Background(), "user-1", in)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "user-2", "item-1", in.ID, UpdateInput{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateEntryInvalidQuantity(t *testing.T) {
	svc, _, _ := newTestService(t)
	in := validInput("item-1")
	_, err := svc.Create(context.Background(), "user-1", in)
	require.NoError(t, err)

	qty := timeseries.Quantity("nope")
	_, err = svc.Update(context.Background(), "user-1", "item-1", in.ID, UpdateInput{Quantity: &qty})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestDeleteEntry(t *testing.T) {
	svc, _, pub := newTestService(t)
	in := validInput("item-1")
	_, err := svc.Create(context.Background(), "user-1", in)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "user-1", "item-1", in.ID))

	list, err := svc.ListByUserItem(context.Background(), "user-1", "item-1")
	require.NoError(t, err)
	require.Empty(t, list)
	require.Equal(t, 2, pub.count())
}

func TestDeleteAbsentEntryIsNoOp(t *testing.T) {
	svc, _, pub := newTestService(t)

	require.NoError(t, svc.Delete(context.Background(), "user-1", "item-1", uuid.NewString()))
	require.Zero(t, pub.count())
}

func TestListOrderings(t *testing.T) {
	svc, _, _ := newTestService(t)
	dates := []time.Time{
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		in := validInput("item-1")
		in.Date = d
		_, err := svc.Create(context.Background(), "user-1", in)
		require.NoError(t, err)
	}

	desc, err := svc.ListByUserItem(context.Background(), "user-1", "item-1")
	require.NoError(t, err)
	require.Len(t, desc, 3)
	require.True(t, desc[0].Date.After(desc[1].Date))
	require.True(t, desc[1].Date.After(desc[2].Date))

	asc, err := svc.ListChronological(context.Background(), "user-1", "item-1")
	require.NoError(t, err)
	require.Len(t, asc, 3)
	require.True(t, asc[0].Date.Before(asc[1].Date))
	require.True(t, asc[1].Date.Before(asc[2].Date))
}

func TestListScopedToUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Create(context.Background(), "user-1", validInput("item-1"))
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), "user-2", validInput("item-1"))
	require.NoError(t, err)

	list, err := svc.ListByUserItem(context.Background(), "user-1", "item-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "user-1", list[0].UID)
}

func TestPublisherFailureDoesNotFailWrite(t *testing.T) {
	repo := newMemoryRepo()
	pub := &recordingPublisher{err: errors.New("redis down")}
	svc := NewService(repo, pub, slog.Default())

	entry, err := svc.Create(context.Background(), "user-1", validInput("item-1"))
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)
}
