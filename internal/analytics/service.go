// Package analytics derives chart-ready windowed series from the entry
// store, with a versioned redis cache in front.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stocktally/stocktally/internal/entries"
	"github.com/stocktally/stocktally/timeseries"
)

// ErrUnknownWindow indicates an unrecognised window name.
var ErrUnknownWindow = errors.New("analytics: unknown window")

// EntriesSource loads the chronological entry sequence for a (uid, item)
// query.
type EntriesSource interface {
	ListChronological(ctx context.Context, uid, itemID string) ([]entries.Entry, error)
}

// Service computes windowed chart series per item.
type Service struct {
	source EntriesSource
	cache  *Cache
	logger *slog.Logger
}

// NewService constructs the analytics service.
func NewService(source EntriesSource, cache *Cache, logger *slog.Logger) *Service {
	return &Service{source: source, cache: cache, logger: logger}
}

// Series returns the chart series for one of the named windows (weekly,
// monthly, yearly), oldest first. Results are cached until the next
// entry write bumps the cache version.
func (s *Service) Series(ctx context.Context, uid, itemID, window string) (timeseries.Series, error) {
	size := timeseries.WindowSize(window)
	if size == 0 {
		return timeseries.Series{}, ErrUnknownWindow
	}

	key, err := s.cache.BuildKey(ctx, keySeries(uid, itemID, window))
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("analytics: build cache key: %w", err)
	}

	var series timeseries.Series
	err = s.cache.FetchJSON(ctx, key, &series, func(ctx context.Context) (interface{}, error) {
		return s.compute(ctx, uid, itemID, size)
	})
	if err != nil {
		return timeseries.Series{}, err
	}
	return series, nil
}

func (s *Service) compute(ctx context.Context, uid, itemID string, size int) (timeseries.Series, error) {
	list, err := s.source.ListChronological(ctx, uid, itemID)
	if err != nil {
		return timeseries.Series{}, fmt.Errorf("analytics: load entries: %w", err)
	}
	points := make([]timeseries.Point, 0, len(list))
	for _, e := range list {
		points = append(points, timeseries.Point{
			Date:     e.Date,
			Quantity: timeseries.QuantityOf(e.Quantity),
		})
	}
	return timeseries.ToSeries(timeseries.Window(points, size)), nil
}

// InvalidatingPublisher decorates an entries publisher so every change
// event also bumps the series cache version. Cache invalidation failure
// never blocks the event.
type InvalidatingPublisher struct {
	Next   entries.Publisher
	Cache  *Cache
	Logger *slog.Logger
}

// PublishEntryChange implements entries.Publisher.
func (p *InvalidatingPublisher) PublishEntryChange(ctx context.Context, event entries.ChangeEvent) error {
	if err := p.Cache.Bump(ctx); err != nil && p.Logger != nil {
		p.Logger.Warn("analytics: bump series cache", slog.Any("error", err))
	}
	if p.Next == nil {
		return nil
	}
	return p.Next.PublishEntryChange(ctx, event)
}

var _ entries.Publisher = (*InvalidatingPublisher)(nil)
