package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	derr "github.com/sllynn/airport-stand-allocation/internal/domain/errors"
	"github.com/sllynn/airport-stand-allocation/internal/domain/models"
)

type ResultCache struct {
	redis *redis.Client
}

func NewResultCache(redisClient *redis.Client) *ResultCache {
	return &ResultCache{redis: redisClient}
}

func (c *ResultCache) GetByFingerprint(ctx context.Context, fingerprint string) (models.Result, error) {
	data, err := c.redis.Get(ctx, resultKey(fingerprint)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Result{}, derr.ErrResultNotFound
		}
		return models.Result{}, fmt.Errorf("redis get allocation result: %w", err)
	}

	var result models.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return models.Result{}, fmt.Errorf("unmarshal cached allocation result: %w", err)
	}

	return result, nil
}

// SetByFingerprint stores only definitive results. A non-positive ttl disables caching.
func (c *ResultCache) SetByFingerprint(ctx context.Context, fingerprint string, result models.Result, ttl time.Duration) error {
	if ttl <= 0 || !result.Status.Definitive() {
		return nil
	}

	normalized := result
	normalized.SolvedAt = normalized.SolvedAt.UTC()
	normalized.Stats.Cached = false

	data, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("marshal allocation result for cache: %w", err)
	}

	if err := c.redis.Set(ctx, resultKey(fingerprint), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set allocation result: %w", err)
	}

	return nil
}

func resultKey(fingerprint string) string {
	return fmt.Sprintf("allocation:%s", strings.ToLower(strings.TrimSpace(fingerprint)))
}
