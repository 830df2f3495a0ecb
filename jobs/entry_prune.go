package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const defaultRetentionHours = 720

// TombstonePruner removes soft-deleted entries older than a cutoff.
type TombstonePruner interface {
	PruneTombstones(ctx context.Context, olderThan time.Time) (int64, error)
}

// EntryPruneJob permanently removes expired entry tombstones. Tombstones
// stay around long enough for every device to observe the deletion
// through a snapshot before the row disappears.
type EntryPruneJob struct {
	Repo   TombstonePruner
	Logger *slog.Logger
	clock  func() time.Time
}

// NewEntryPruneJob initialises the prune handler.
func NewEntryPruneJob(repo TombstonePruner, logger *slog.Logger) *EntryPruneJob {
	return &EntryPruneJob{
		Repo:   repo,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one prune run.
func (j *EntryPruneJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil {
		return errors.New("entry prune: handler not configured")
	}
	var payload EntriesPrunePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionHours <= 0 {
		payload.RetentionHours = defaultRetentionHours
	}

	cutoff := j.now().Add(-time.Duration(payload.RetentionHours) * time.Hour)
	logger := j.logger().With(slog.Time("cutoff", cutoff))
	logger.Info("starting tombstone prune")

	removed, err := j.Repo.PruneTombstones(ctx, cutoff)
	if err != nil {
		logger.Error("prune failed", slog.Any("error", err))
		return err
	}

	logger.Info("completed tombstone prune", slog.Int64("removed", removed))
	return nil
}

func (j *EntryPruneJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskEntriesPrune))
	}
	return slog.Default().With(slog.String("job", TaskEntriesPrune))
}

func (j *EntryPruneJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
