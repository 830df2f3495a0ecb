package entries

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Service coordinates entry writes and uid-scoped reads against the store.
// Writes resolve concurrent edits last-write-wins by server receipt time;
// each entry document is independently atomic, there is no cross-document
// isolation.
type Service struct {
	repo      RepositoryPort
	publisher Publisher
	logger    *slog.Logger
}

// NewService builds Service.
func NewService(repo RepositoryPort, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, logger: logger}
}

// Create stores a new entry under the client-generated id. Re-creating an
// id the same user already owns is idempotent and returns the stored copy,
// so a retried write never yields a visible duplicate.
func (s *Service) Create(ctx context.Context, uid string, input CreateInput) (Entry, error) {
	qty, err := input.validate()
	if err != nil {
		return Entry{}, err
	}
	now := time.Now().UTC()
	entry := Entry{
		ID:        input.ID,
		ItemID:    input.ItemID,
		UID:       uid,
		Name:      input.Name,
		Quantity:  qty,
		Date:      input.Date.UTC(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		if errors.Is(err, ErrDuplicateID) {
			existing, getErr := s.repo.GetByID(ctx, input.ID)
			if getErr == nil && existing.UID == uid {
				return existing, nil
			}
			return Entry{}, ErrDuplicateID
		}
		return Entry{}, err
	}
	s.publishChange(ctx, uid, input.ItemID)
	return entry, nil
}

// Update replaces fields on the entry matched by id, not by position.
func (s *Service) Update(ctx context.Context, uid, itemID, entryID string, input UpdateInput) (Entry, error) {
	qty, err := input.validate()
	if err != nil {
		return Entry{}, err
	}
	entry, matched, err := s.repo.Update(ctx, uid, itemID, entryID, qty, input.Date, input.Name)
	if err != nil {
		return Entry{}, err
	}
	if !matched {
		return Entry{}, ErrNotFound
	}
	s.publishChange(ctx, uid, itemID)
	return entry, nil
}

// Delete tombstones the entry. Deleting an absent id is a no-op success;
// concurrent deletions from another device are expected.
func (s *Service) Delete(ctx context.Context, uid, itemID, entryID string) error {
	deleted, err := s.repo.SoftDelete(ctx, uid, itemID, entryID)
	if err != nil {
		return err
	}
	if deleted {
		s.publishChange(ctx, uid, itemID)
	}
	return nil
}

// ListByUserItem returns the authoritative ordered result set for the
// (uid, item) query, most recent first.
func (s *Service) ListByUserItem(ctx context.Context, uid, itemID string) ([]Entry, error) {
	return s.repo.ListByUserItem(ctx, uid, itemID, false)
}

// ListChronological returns the same set oldest first, for windowing.
func (s *Service) ListChronological(ctx context.Context, uid, itemID string) ([]Entry, error) {
	return s.repo.ListByUserItem(ctx, uid, itemID, true)
}

// A failed fan-out never fails the write; subscribers recover on the next
// event or reconnect.
func (s *Service) publishChange(ctx context.Context, uid, itemID string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEntryChange(ctx, ChangeEvent{UID: uid, ItemID: itemID}); err != nil && s.logger != nil {
		s.logger.Warn("publish entry change", slog.String("item_id", itemID), slog.Any("error", err))
	}
}
