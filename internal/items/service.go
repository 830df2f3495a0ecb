package items

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service coordinates item operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create registers a new tracked item for the user.
func (s *Service) Create(ctx context.Context, uid, name string) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, ErrNameRequired
	}
	item := Item{
		ID:        uuid.NewString(),
		UID:       uid,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// List returns the user's items.
func (s *Service) List(ctx context.Context, uid string) ([]Item, error) {
	return s.repo.ListByUID(ctx, uid)
}

// Get returns one item owned by the user.
func (s *Service) Get(ctx context.Context, uid, id string) (Item, error) {
	return s.repo.Get(ctx, uid, id)
}

// Delete removes the item and tombstones its entries. Deleting an absent
// item is a no-op success.
func (s *Service) Delete(ctx context.Context, uid, id string) error {
	_, err := s.repo.SoftDelete(ctx, uid, id)
	return err
}
