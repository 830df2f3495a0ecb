package items

import (
	"errors"
	"time"
)

// Item is a named tracked thing owned by one user. Its entries live in the
// entries module, addressed by the item id.
type Item struct {
	ID        string
	UID       string
	Name      string
	CreatedAt time.Time
}

// ErrNotFound indicates a missing or foreign item.
var ErrNotFound = errors.New("items: item not found")

// ErrNameRequired indicates a blank item name.
var ErrNameRequired = errors.New("items: name is required")
