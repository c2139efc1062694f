package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/devrayanco/task-manager-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyOwnerTasks = "tasks:owner:"

// TaskCache caches each owner's task listing in Redis. Keys embed the owner
// ID, so a listing is only ever returned to the user it was built for.
//
// Every owner has a version counter. Listings are stored under the version
// that was current before the store was read, and Invalidate bumps the
// counter, so a fill that raced with a write lands under a version nobody
// reads again.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// NewRedisClient connects to Redis and checks the connection with a ping.
func NewRedisClient(ctx context.Context, opts *redis.Options) (*redis.Client, error) {
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func versionKey(ownerID int64) string {
	return keyOwnerTasks + strconv.FormatInt(ownerID, 10) + ":ver"
}

func listKey(ownerID, version int64) string {
	return keyOwnerTasks + strconv.FormatInt(ownerID, 10) + ":v" + strconv.FormatInt(version, 10)
}

// Version returns the owner's current listing version. An owner that was
// never invalidated is at version 0.
func (c *TaskCache) Version(ctx context.Context, ownerID int64) (int64, error) {
	v, err := c.rdb.Get(ctx, versionKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

// GetList returns the listing cached under version. ok is false on a miss.
func (c *TaskCache) GetList(ctx context.Context, ownerID, version int64) ([]domain.Task, bool, error) {
	b, err := c.rdb.Get(ctx, listKey(ownerID, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var list []domain.Task
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, false, fmt.Errorf("decode cached tasks: %w", err)
	}
	return list, true, nil
}

// SetList stores the owner's listing under version for the configured TTL.
func (c *TaskCache) SetList(ctx context.Context, ownerID, version int64, tasks []domain.Task) error {
	b, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, listKey(ownerID, version), b, c.ttl).Err()
}

// Invalidate moves the owner to a new version after a write. Listings stored
// under older versions are never read again and expire with their TTL.
func (c *TaskCache) Invalidate(ctx context.Context, ownerID int64) error {
	return c.rdb.Incr(ctx, versionKey(ownerID)).Err()
}
