package entries

import (
	"context"
	"errors"
	"time"

	"github.com/stocktally/stocktally/timeseries"
)

// Entry models one dated quantity record belonging to one item and one user.
// The id is generated by the writing client before the remote write so the
// optimistic and confirmed copies share identity.
type Entry struct {
	ID        string
	ItemID    string
	UID       string
	Name      string
	Quantity  float64
	Date      time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateInput describes a client-originated entry write. Quantity may arrive
// as a JSON number or a numeric string.
type CreateInput struct {
	ID       string
	ItemID   string
	Name     string
	Quantity timeseries.Quantity
	Date     time.Time
}

// UpdateInput replaces fields on an existing entry. Nil fields are left
// untouched.
type UpdateInput struct {
	Quantity *timeseries.Quantity
	Date     *time.Time
	Name     *string
}

// ChangeEvent signals that the entry set for (uid, item) changed and
// subscribers must be sent a fresh snapshot.
type ChangeEvent struct {
	UID    string `json:"uid"`
	ItemID string `json:"item_id"`
}

// Publisher fans a change event out to live subscribers.
type Publisher interface {
	PublishEntryChange(ctx context.Context, event ChangeEvent) error
}

// ErrNotFound indicates no entry with the given id in the user's sequence.
var ErrNotFound = errors.New("entries: entry not found")

// ErrInvalidQuantity indicates a non-numeric or negative quantity.
var ErrInvalidQuantity = errors.New("entries: quantity must be a non-negative number")

// ErrInvalidID indicates a malformed entry id.
var ErrInvalidID = errors.New("entries: entry id must be a uuid")

// ErrDateRequired indicates a missing entry date.
var ErrDateRequired = errors.New("entries: date is required")

// ErrDuplicateID indicates the id is already used by another user's entry.
var ErrDuplicateID = errors.New("entries: entry id already in use")
