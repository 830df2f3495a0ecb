package items

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists items in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	Insert(ctx context.Context, item Item) error
	ListByUID(ctx context.Context, uid string) ([]Item, error)
	Get(ctx context.Context, uid, id string) (Item, error)
	SoftDelete(ctx context.Context, uid, id string) (bool, error)
}

// Insert stores a new item.
func (r *Repository) Insert(ctx context.Context, item Item) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO items (id, uid, name, created_at) VALUES ($1, $2, $3, $4)`,
		item.ID, item.UID, item.Name, item.CreatedAt)
	return err
}

// ListByUID returns the user's items, most recent first.
func (r *Repository) ListByUID(ctx context.Context, uid string) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, uid, name, created_at FROM items
		 WHERE uid = $1 AND deleted_at IS NULL
		 ORDER BY created_at DESC`, uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.UID, &item.Name, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}

// Get returns a single item owned by uid.
func (r *Repository) Get(ctx context.Context, uid, id string) (Item, error) {
	var item Item
	err := r.pool.QueryRow(ctx,
		`SELECT id, uid, name, created_at FROM items
		 WHERE id = $1 AND uid = $2 AND deleted_at IS NULL`, id, uid).
		Scan(&item.ID, &item.UID, &item.Name, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	return item, nil
}

// SoftDelete tombstones the item and its entries. Returns false when the
// item was already absent.
func (r *Repository) SoftDelete(ctx context.Context, uid, id string) (bool, error) {
	now := time.Now().UTC()
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE items SET deleted_at = $1 WHERE id = $2 AND uid = $3 AND deleted_at IS NULL`,
		now, id, uid)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, tx.Commit(ctx)
	}
	_, err = tx.Exec(ctx,
		`UPDATE entries SET deleted_at = $1 WHERE item_id = $2 AND deleted_at IS NULL`,
		now, id)
	if err != nil {
		return false, err
	}
	return true, tx.Commit(ctx)
}

var _ RepositoryPort = (*Repository)(nil)
