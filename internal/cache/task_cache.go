package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/BuzzLyutic/taskflow-api/pkg/model"
)

const keyPrefix = "tasks:"

// TaskCache caches owner-scoped task lists and stats in Redis.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

func ownerPrefix(ownerID string) string {
	return keyPrefix + ownerID + ":"
}

func genKey(ownerID string) string {
	return ownerPrefix(ownerID) + "gen"
}

func listKey(ownerID string, gen int64, filter model.TaskFilter) string {
	return fmt.Sprintf("%sg%d:list:%s", ownerPrefix(ownerID), gen, filter.Key())
}

func statsKey(ownerID string, gen int64) string {
	return fmt.Sprintf("%sg%d:stats", ownerPrefix(ownerID), gen)
}

// Generation returns the owner's current generation; 0 when no write has happened yet.
// The counter has no TTL, so it survives volatile-* eviction policies.
func (c *TaskCache) Generation(ctx context.Context, ownerID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, genKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// GetList returns the cached list or nil on a miss.
func (c *TaskCache) GetList(ctx context.Context, ownerID string, gen int64, filter model.TaskFilter) ([]model.Task, error) {
	var tasks []model.Task
	ok, err := c.get(ctx, listKey(ownerID, gen, filter), &tasks)
	if err != nil || !ok {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (c *TaskCache) SetList(ctx context.Context, ownerID string, gen int64, filter model.TaskFilter, tasks []model.Task) error {
	return c.set(ctx, listKey(ownerID, gen, filter), tasks)
}

// GetStats returns the cached stats or nil on a miss.
func (c *TaskCache) GetStats(ctx context.Context, ownerID string, gen int64) (*model.TaskStats, error) {
	var stats model.TaskStats
	ok, err := c.get(ctx, statsKey(ownerID, gen), &stats)
	if err != nil || !ok {
		return nil, err
	}
	return &stats, nil
}

func (c *TaskCache) SetStats(ctx context.Context, ownerID string, gen int64, stats model.TaskStats) error {
	return c.set(ctx, statsKey(ownerID, gen), stats)
}

// Invalidate moves the owner to a new generation (called on each write).
// Entries of older generations become unreachable and expire with their TTL.
func (c *TaskCache) Invalidate(ctx context.Context, ownerID string) error {
	return c.rdb.Incr(ctx, genKey(ownerID)).Err()
}

func (c *TaskCache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *TaskCache) set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}
