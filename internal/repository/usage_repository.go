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

// dailyCounterTTL outlives the UTC day so late requests near midnight still count.
const dailyCounterTTL = 48 * time.Hour

// UsageRepository tracks per-key daily counters and queues usage events in Redis.
type UsageRepository struct {
	rdb *redis.Client
}

func NewUsageRepository(rdb *redis.Client) *UsageRepository {
	return &UsageRepository{rdb: rdb}
}

// DailyCount returns how many calls keyID made on day.
func (r *UsageRepository) DailyCount(ctx context.Context, keyID string, day time.Time) (int64, error) {
	n, err := r.rdb.Get(ctx, config.CacheKey.APIKeyDailyUsageKey(keyID, day)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("get daily usage: %w", err)
	}
	return n, nil
}

// Record bumps the daily counter and enqueues the event for persistence.
func (r *UsageRepository) Record(ctx context.Context, e model.UsageEvent) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	key := config.CacheKey.APIKeyDailyUsageKey(e.KeyID, e.UsedAt)
	pipe := r.rdb.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, dailyCounterTTL)
	pipe.RPush(ctx, config.WorkerKey.PersistAPIUsageQueue, raw)
	_, err = pipe.Exec(ctx)
	return err
}
