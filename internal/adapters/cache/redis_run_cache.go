package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/platform/obs"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const (
	DefaultRunTTL    = 24 * time.Hour
	defaultRecentCap = 100
	recentRunsKey    = "runs:recent"
)

// RedisRunCache keeps recently finished runs in Redis for fast lookup by ID.
// Entries expire after TTL; the recent list is capped.
type RedisRunCache struct {
	rdb       *redis.Client
	ttl       time.Duration
	recentCap int64
}

func NewRedisRunCache(rdb *redis.Client, ttl time.Duration) *RedisRunCache {
	if ttl <= 0 {
		ttl = DefaultRunTTL
	}
	return &RedisRunCache{rdb: rdb, ttl: ttl, recentCap: defaultRecentCap}
}

// NewRedisRunCacheFromURL parses a redis:// URL and connects lazily.
func NewRedisRunCacheFromURL(url string, ttl time.Duration) (*RedisRunCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisRunCache(redis.NewClient(opt), ttl), nil
}

func (c *RedisRunCache) SaveRun(ctx context.Context, run *domain.Run) (err error) {
	defer obs.Time(ctx, "run.cache.SaveRun")(&err)

	if run == nil || run.ID == "" {
		return errors.New("save run: run has no id")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("save run: marshal: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, runKey(run.ID), data, c.ttl)
	pipe.LPush(ctx, recentRunsKey, run.ID)
	pipe.LTrim(ctx, recentRunsKey, 0, c.recentCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	return nil
}

func (c *RedisRunCache) GetRun(ctx context.Context, id string) (_ *domain.Run, err error) {
	defer obs.Time(ctx, "run.cache.GetRun")(&err)

	data, err := c.rdb.Get(ctx, runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	var run domain.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("get run %s: decode: %w", id, err)
	}
	return &run, nil
}

// ListRuns returns up to limit cached runs, newest first. Expired entries are skipped.
func (c *RedisRunCache) ListRuns(ctx context.Context, limit int) (_ []*domain.Run, err error) {
	defer obs.Time(ctx, "run.cache.ListRuns")(&err)

	if limit <= 0 {
		return []*domain.Run{}, nil
	}

	ids, err := c.rdb.LRange(ctx, recentRunsKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	out := make([]*domain.Run, 0, len(ids))
	for _, id := range ids {
		run, err := c.GetRun(ctx, id)
		if errors.Is(err, domain.ErrRunNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

// Ping reports whether the Redis server answers.
func (c *RedisRunCache) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

func (c *RedisRunCache) Close() error { return c.rdb.Close() }

func runKey(id string) string { return "run:" + id }
