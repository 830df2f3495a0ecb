// Package stream delivers live, uid-scoped entry snapshots to connected
// clients. Writes publish a change event over redis; the hub answers each
// event by pushing a fresh full snapshot to every subscriber of the
// affected (user, item) query. Subscribers never receive deltas.
package stream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/stocktally/stocktally/internal/entries"
)

// Channel carries entry change events between service instances.
const Channel = "entries.changed"

// RedisPublisher fans entry change events out through redis pub/sub.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher constructs RedisPublisher.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// PublishEntryChange implements entries.Publisher.
func (p *RedisPublisher) PublishEntryChange(ctx context.Context, event entries.ChangeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("stream: marshal change event: %w", err)
	}
	if err := p.rdb.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("stream: publish change event: %w", err)
	}
	return nil
}

var _ entries.Publisher = (*RedisPublisher)(nil)
