package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/model"
)

// CorpusCache keeps the serialized question snapshot in Redis.
type CorpusCache struct {
	rdb *redis.Client
}

func NewCorpusCache(rdb *redis.Client) *CorpusCache {
	return &CorpusCache{rdb: rdb}
}

// Load returns the cached corpus; ok is false on a cache miss.
func (c *CorpusCache) Load(ctx context.Context) ([]model.Question, bool, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.CorpusKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get corpus: %w", err)
	}

	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false, fmt.Errorf("unmarshal corpus: %w", err)
	}
	return questions, true, nil
}

// Store replaces the snapshot and records which version produced it.
func (c *CorpusCache) Store(ctx context.Context, questions []model.Question, version string, ttl time.Duration) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal corpus: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.CorpusKey(), data, ttl)
	pipe.Set(ctx, config.CacheKey.CorpusVersionKey(), version, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache corpus: %w", err)
	}
	return nil
}

// Invalidate drops the snapshot so the next read goes to PostgreSQL.
func (c *CorpusCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, config.CacheKey.CorpusKey(), config.CacheKey.CorpusVersionKey()).Err()
}
