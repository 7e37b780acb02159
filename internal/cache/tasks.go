// Package cache keeps workspace task lists in Redis between writes.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/model"
)

// errStaleWrite aborts a cache fill whose workspace was evicted while the
// store was being read.
var errStaleWrite = errors.New("cache: workspace evicted during fill")

type lister interface {
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.Task, error)
}

// Tasks is a read-through cache in front of the task store. A nil Redis
// client or a zero TTL turns it into a pass-through.
//
// Each workspace has a version counter that Evict increments. A fill only
// writes when the counter still holds the value read before the store was
// queried, so a list read before a write can never be cached after it.
type Tasks struct {
	base   lister
	redis  *redis.Client
	ttl    time.Duration
	logger *log.Logger
}

func NewTasks(base lister, client *redis.Client, ttl time.Duration, logger *log.Logger) *Tasks {
	if base == nil {
		panic("cache.NewTasks: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Tasks{base: base, redis: client, ttl: ttl, logger: logger}
}

func (c *Tasks) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]model.Task, error) {
	if tasks, ok := c.load(ctx, workspaceID); ok {
		return tasks, nil
	}

	version, fillable := c.version(ctx, workspaceID)

	tasks, err := c.base.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	if fillable {
		c.store(ctx, workspaceID, version, tasks)
	}
	return tasks, nil
}

// Evict drops the cached list and invalidates fills already in progress, so
// the next read goes to the store.
func (c *Tasks) Evict(ctx context.Context, workspaceID uuid.UUID) {
	if c.redis == nil {
		return
	}
	pipe := c.redis.TxPipeline()
	pipe.Incr(ctx, versionKey(workspaceID))
	pipe.Del(ctx, tasksKey(workspaceID))
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.WithError(err).WithField("workspace_id", workspaceID).Warn("cache: evict failed")
	}
}

// version returns the workspace's eviction counter ("" before the first
// eviction). The bool is false when the cache must not be filled.
func (c *Tasks) version(ctx context.Context, workspaceID uuid.UUID) (string, bool) {
	if c.redis == nil || c.ttl == 0 {
		return "", false
	}
	v, err := c.redis.Get(ctx, versionKey(workspaceID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", true
	}
	if err != nil {
		c.logger.WithError(err).Warn("cache: version read failed")
		return "", false
	}
	return v, true
}

func (c *Tasks) load(ctx context.Context, workspaceID uuid.UUID) ([]model.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksKey(workspaceID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// Fall back to the store without failing the request.
			c.logger.WithError(err).Warn("cache: read failed")
			_ = c.redis.Del(ctx, tasksKey(workspaceID)).Err()
		}
		return nil, false
	}
	var tasks []model.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksKey(workspaceID)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Tasks) store(ctx context.Context, workspaceID uuid.UUID, version string, tasks []model.Task) {
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}

	verKey := versionKey(workspaceID)
	err = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, verKey).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return errStaleWrite
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, tasksKey(workspaceID), data, c.ttl)
			return nil
		})
		return err
	}, verKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleWrite), errors.Is(err, redis.TxFailedErr):
		c.logger.WithField("workspace_id", workspaceID).Debug("cache: skipped fill after eviction")
	default:
		c.logger.WithError(err).Warn("cache: write failed")
	}
}

func tasksKey(workspaceID uuid.UUID) string {
	return "tasks:" + workspaceID.String()
}

func versionKey(workspaceID uuid.UUID) string {
	return "tasks:ver:" + workspaceID.String()
}
