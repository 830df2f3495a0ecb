package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/stocktally/stocktally/timeseries"
)

const defaultActiveWithinHours = 24

var warmupWindows = []string{"weekly", "monthly", "yearly"}

// ActivePair identifies one (user, item) query with recent writes.
type ActivePair struct {
	UID    string
	ItemID string
}

// ActiveSource lists queries whose entries changed since a cutoff.
type ActiveSource interface {
	ListActive(ctx context.Context, since time.Time) ([]ActivePair, error)
}

// SeriesComputer computes (and thereby caches) a chart series.
type SeriesComputer interface {
	Series(ctx context.Context, uid, itemID, window string) (timeseries.Series, error)
}

// PGActiveSource finds recently active queries in PostgreSQL.
type PGActiveSource struct {
	Pool *pgxpool.Pool
}

// ListActive implements ActiveSource.
func (s *PGActiveSource) ListActive(ctx context.Context, since time.Time) ([]ActivePair, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT DISTINCT uid, item_id FROM entries WHERE updated_at >= $1`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []ActivePair
	for rows.Next() {
		var p ActivePair
		if err := rows.Scan(&p.UID, &p.ItemID); err != nil {
			return nil, err
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

// SeriesWarmupJob precomputes chart series for recently active items so
// the first chart view after a burst of writes hits a warm cache.
type SeriesWarmupJob struct {
	Source ActiveSource
	Series SeriesComputer
	Logger *slog.Logger
	clock  func() time.Time
}

// NewSeriesWarmupJob initialises the warmup handler.
func NewSeriesWarmupJob(source ActiveSource, series SeriesComputer, logger *slog.Logger) *SeriesWarmupJob {
	return &SeriesWarmupJob{
		Source: source,
		Series: series,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one warmup run. Per-item failures are logged and
// skipped; the run only fails when the active set cannot be listed.
func (j *SeriesWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Source == nil || j.Series == nil {
		return errors.New("series warmup: handler not configured")
	}
	var payload SeriesWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.ActiveWithinHours <= 0 {
		payload.ActiveWithinHours = defaultActiveWithinHours
	}

	start := j.now()
	since := start.Add(-time.Duration(payload.ActiveWithinHours) * time.Hour)
	logger := j.logger().With(slog.Time("since", since))
	logger.Info("starting series warmup")

	pairs, err := j.Source.ListActive(ctx, since)
	if err != nil {
		logger.Error("list active items", slog.Any("error", err))
		return err
	}

	var warmed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, pair := range pairs {
		for _, window := range warmupWindows {
			pair, window := pair, window
			g.Go(func() error {
				if _, err := j.Series.Series(gctx, pair.UID, pair.ItemID, window); err != nil {
					logger.Warn("warm series",
						slog.String("item_id", pair.ItemID),
						slog.String("window", window),
						slog.Any("error", err))
					return nil
				}
				warmed.Add(1)
				return nil
			})
		}
	}
	_ = g.Wait()

	logger.Info("completed series warmup",
		slog.Int("items", len(pairs)),
		slog.Int64("series", warmed.Load()),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *SeriesWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSeriesWarmup))
	}
	return slog.Default().With(slog.String("job", TaskSeriesWarmup))
}

func (j *SeriesWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
