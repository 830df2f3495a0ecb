// Package jobs hosts background maintenance for the entry store: tombstone
// pruning and chart series cache warmup, scheduled through asynq.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskEntriesPrune removes expired entry tombstones.
	TaskEntriesPrune = "entries:prune-tombstones"
	// TaskSeriesWarmup precomputes chart series for recently active items.
	TaskSeriesWarmup = "series:warmup"
)

// EntriesPrunePayload bounds which tombstones a prune run removes.
type EntriesPrunePayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewEntriesPruneTask constructs the prune task.
func NewEntriesPruneTask(retentionHours int) (*asynq.Task, error) {
	data, err := json.Marshal(EntriesPrunePayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEntriesPrune, data), nil
}

// SeriesWarmupPayload selects which items a warmup run touches.
type SeriesWarmupPayload struct {
	ActiveWithinHours int `json:"active_within_hours"`
}

// NewSeriesWarmupTask constructs the warmup task.
func NewSeriesWarmupTask(activeWithinHours int) (*asynq.Task, error) {
	data, err := json.Marshal(SeriesWarmupPayload{ActiveWithinHours: activeWithinHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSeriesWarmup, data), nil
}
