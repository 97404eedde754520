// Package cache keeps published rankings and patterns in Redis.
// Every method degrades to a miss on failure; callers fall back to direct reads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/logger"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/metrics"
)

const (
	keyPrefix      = "talentmatch"
	defaultTTL     = 5 * time.Minute
	connectTimeout = 5 * time.Second
	scanBatch      = 100
)

// Cache stores ranking and pattern reads.
type Cache interface {
	GetRanking(ctx context.Context, roleID string, version int) ([]model.MatchResult, bool)
	SetRanking(ctx context.Context, roleID string, version int, results []model.MatchResult)
	GetPattern(ctx context.Context, roleID string, version int, topQuantile float64) (model.SuccessPattern, bool)
	SetPattern(ctx context.Context, pattern model.SuccessPattern)
	Invalidate(ctx context.Context, roleID string)
}

// RankingKey is the cache key of a role's ranking for one version.
func RankingKey(roleID string, version int) string {
	return fmt.Sprintf("%s:ranking:%s:v%d", keyPrefix, roleID, version)
}

// PatternKey is the cache key of a role's pattern for one version and quantile.
func PatternKey(roleID string, version int, topQuantile float64) string {
	return fmt.Sprintf("%s:pattern:%s:v%d:q%g", keyPrefix, roleID, version, topQuantile)
}

// Config holds Redis connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisCache implements Cache on go-redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, ttl time.Duration, log logger.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &RedisCache{client: client, ttl: ttl, log: log}
}

// Dial connects to Redis and verifies the connection.
func Dial(ctx context.Context, cfg Config, log logger.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  connectTimeout,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	c := NewRedisCache(client, cfg.TTL, log)
	c.log.Info(ctx, "redis connected", logger.String("addr", cfg.Addr), logger.Int("db", cfg.DB))
	return c, nil
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) get(ctx context.Context, key string, dest any) bool {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordCacheMiss()
		return false
	}
	if err != nil {
		metrics.RecordCacheError()
		c.log.Warn(ctx, "cache get failed", logger.String("key", key), logger.Error(err))
		return false
	}
	if err := json.Unmarshal(value, dest); err != nil {
		metrics.RecordCacheError()
		c.log.Warn(ctx, "cache decode failed", logger.String("key", key), logger.Error(err))
		return false
	}
	metrics.RecordCacheHit()
	return true
}

func (c *RedisCache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn(ctx, "cache encode failed", logger.String("key", key), logger.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		metrics.RecordCacheError()
		c.log.Warn(ctx, "cache set failed", logger.String("key", key), logger.Error(err))
	}
}

// GetRanking implements Cache.
func (c *RedisCache) GetRanking(ctx context.Context, roleID string, version int) ([]model.MatchResult, bool) {
	var out []model.MatchResult
	if !c.get(ctx, RankingKey(roleID, version), &out) {
		return nil, false
	}
	return out, true
}

// SetRanking implements Cache.
func (c *RedisCache) SetRanking(ctx context.Context, roleID string, version int, results []model.MatchResult) {
	c.set(ctx, RankingKey(roleID, version), results)
}

// GetPattern implements Cache.
func (c *RedisCache) GetPattern(ctx context.Context, roleID string, version int, topQuantile float64) (model.SuccessPattern, bool) {
	var p model.SuccessPattern
	if !c.get(ctx, PatternKey(roleID, version, topQuantile), &p) {
		return model.SuccessPattern{}, false
	}
	return p, true
}

// SetPattern implements Cache.
func (c *RedisCache) SetPattern(ctx context.Context, p model.SuccessPattern) {
	c.set(ctx, PatternKey(p.RoleID, p.RoleVersion, p.TopQuantile), p)
}

// Invalidate drops every cached version of a role, scanning instead of KEYS.
func (c *RedisCache) Invalidate(ctx context.Context, roleID string) {
	for _, pattern := range []string{
		fmt.Sprintf("%s:ranking:%s:v*", keyPrefix, roleID),
		fmt.Sprintf("%s:pattern:%s:v*", keyPrefix, roleID),
	} {
		var keys []string
		iter := c.client.Scan(ctx, 0, pattern, scanBatch).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			metrics.RecordCacheError()
			c.log.Warn(ctx, "cache scan failed", logger.String("pattern", pattern), logger.Error(err))
			continue
		}
		if len(keys) == 0 {
			continue
		}
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			metrics.RecordCacheError()
			c.log.Warn(ctx, "cache delete failed", logger.Int("keys", len(keys)), logger.Error(err))
		}
	}
}

// Nop is a Cache that never hits.
type Nop struct{}

func (Nop) GetRanking(context.Context, string, int) ([]model.MatchResult, bool) { return nil, false }
func (Nop) SetRanking(context.Context, string, int, []model.MatchResult)        {}
func (Nop) GetPattern(context.Context, string, int, float64) (model.SuccessPattern, bool) {
	return model.SuccessPattern{}, false
}
func (Nop) SetPattern(context.Context, model.SuccessPattern) {}
func (Nop) Invalidate(context.Context, string)              {}
