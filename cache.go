package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/arty021/bad-modems/internal/report"
)

// resultCache is a read-through cache of the latest result JSON per city.
// A nil *resultCache is a disabled cache. Cache failures are logged and
// treated as misses; the database stays authoritative.
type resultCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func newResultCache(cfg redisConfig, log *zap.Logger) (*resultCache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return &resultCache{
		rdb: rdb,
		ttl: time.Duration(cfg.TTLSeconds) * time.Second,
		log: log,
	}, nil
}

func latestCacheKey(city report.City) string {
	return "badmodems:latest:" + string(city)
}

func (c *resultCache) get(ctx context.Context, city report.City) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, latestCacheKey(city)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("cache read failed", zap.String("city", string(city)), zap.Error(err))
		}
		return nil, false
	}
	return raw, true
}

func (c *resultCache) set(ctx context.Context, city report.City, raw []byte) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, latestCacheKey(city), raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("city", string(city)), zap.Error(err))
	}
}

func (c *resultCache) close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}
