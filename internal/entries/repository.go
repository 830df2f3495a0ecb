package entries

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, entry Entry) error
	GetByID(ctx context.Context, id string) (Entry, error)
	Update(ctx context.Context, uid, itemID, entryID string, qty *float64, date *time.Time, name *string) (Entry, bool, error)
	SoftDelete(ctx context.Context, uid, itemID, entryID string) (bool, error)
	ListByUserItem(ctx context.Context, uid, itemID string, ascending bool) ([]Entry, error)
	PruneTombstones(ctx context.Context, olderThan time.Time) (int64, error)
}

// Repository persists entries in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stores a new entry document under its client-generated id.
func (r *Repository) Insert(ctx context.Context, entry Entry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO entries (id, item_id, uid, name, quantity, entry_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		entry.ID, entry.ItemID, entry.UID, entry.Name, entry.Quantity, entry.Date, entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

// GetByID fetches an entry regardless of owner; the service enforces the
// authorization boundary.
func (r *Repository) GetByID(ctx context.Context, id string) (Entry, error) {
	var e Entry
	err := r.pool.QueryRow(ctx,
		`SELECT id, item_id, uid, name, quantity, entry_date, created_at, updated_at
		 FROM entries WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&e.ID, &e.ItemID, &e.UID, &e.Name, &e.Quantity, &e.Date, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

// Update replaces fields on the entry matched by id within the user's item.
// The second return value reports whether a row was matched.
func (r *Repository) Update(ctx context.Context, uid, itemID, entryID string, qty *float64, date *time.Time, name *string) (Entry, bool, error) {
	var e Entry
	err := r.pool.QueryRow(ctx,
		`UPDATE entries SET
			quantity = COALESCE($1, quantity),
			entry_date = COALESCE($2, entry_date),
			name = COALESCE($3, name),
			updated_at = now()
		 WHERE id = $4 AND item_id = $5 AND uid = $6 AND deleted_at IS NULL
		 RETURNING id, item_id, uid, name, quantity, entry_date, created_at, updated_at`,
		qty, date, name, entryID, itemID, uid).
		Scan(&e.ID, &e.ItemID, &e.UID, &e.Name, &e.Quantity, &e.Date, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	return e, true, nil
}

// SoftDelete tombstones the entry. Returns false when no live row matched.
func (r *Repository) SoftDelete(ctx context.Context, uid, itemID, entryID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE entries SET deleted_at = now()
		 WHERE id = $1 AND item_id = $2 AND uid = $3 AND deleted_at IS NULL`,
		entryID, itemID, uid)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListByUserItem returns the user's live entries for one item ordered by
// entry date, descending by default.
func (r *Repository) ListByUserItem(ctx context.Context, uid, itemID string, ascending bool) ([]Entry, error) {
	order := "DESC"
	if ascending {
		order = "ASC"
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, item_id, uid, name, quantity, entry_date, created_at, updated_at
		 FROM entries
		 WHERE uid = $1 AND item_id = $2 AND deleted_at IS NULL
		 ORDER BY entry_date `+order+`, created_at `+order, uid, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.UID, &e.Name, &e.Quantity, &e.Date, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// PruneTombstones hard-deletes entries tombstoned before the cutoff.
func (r *Repository) PruneTombstones(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM entries WHERE deleted_at IS NOT NULL AND deleted_at < $1`, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ RepositoryPort = (*Repository)(nil)
