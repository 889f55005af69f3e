package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/model"
)

const (
	UsageBatchSize    = 50
	UsageBatchTimeout = 2 * time.Second
	UsagePollTimeout  = 1 * time.Second

	// UsageMaxAttempts failed single-row inserts drop an event.
	UsageMaxAttempts = 3
)

// UsageWriter persists usage events; satisfied by repository.APIKeyRepository.
type UsageWriter interface {
	InsertUsage(ctx context.Context, events []model.UsageEvent) error
}

// UsageWorker drains the API usage queue into PostgreSQL in batches.
type UsageWorker struct {
	writer  UsageWriter
	rdb     *redis.Client
	requeue func(ctx context.Context, raw []byte) error
	log     zerolog.Logger
}

func NewUsageWorker(writer UsageWriter, rdb *redis.Client, log zerolog.Logger) *UsageWorker {
	w := &UsageWorker{
		writer: writer,
		rdb:    rdb,
		log:    log.With().Str("component", "usage_worker").Logger(),
	}
	w.requeue = func(ctx context.Context, raw []byte) error {
		return w.rdb.RPush(ctx, config.WorkerKey.PersistAPIUsageQueue, raw).Err()
	}
	return w
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

// Start runs until ctx is cancelled, then flushes what it holds. Call in a goroutine.
func (w *UsageWorker) Start(ctx context.Context) {
	w.log.Info().Msg("UsageWorker started")

	batch := make([]model.UsageEvent, 0, UsageBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= UsageBatchSize || time.Since(lastFlush) >= UsageBatchTimeout) {
			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, UsagePollTimeout, config.WorkerKey.PersistAPIUsageQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var e model.UsageEvent
			if err := json.Unmarshal([]byte(item[1]), &e); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}
			batch = append(batch, e)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with per-row fallback
// ----------------------------------------------------------------

func (w *UsageWorker) flushSafe(ctx context.Context, batch []model.UsageEvent) {
	if len(batch) == 0 {
		return
	}

	err := w.writer.InsertUsage(ctx, batch)
	if err == nil {
		return
	}
	w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk usage insert failed, using fallback")

	for _, e := range batch {
		err := w.writer.InsertUsage(ctx, []model.UsageEvent{e})
		if err == nil {
			continue
		}

		e.Attempts++
		if e.Attempts >= UsageMaxAttempts {
			w.log.Error().
				Err(err).
				Str("key_id", e.KeyID).
				Int("attempts", e.Attempts).
				Msg("single usage insert failed too often, usage event dropped")
			continue
		}

		w.log.Error().Err(err).Str("key_id", e.KeyID).Int("attempts", e.Attempts).Msg("single usage insert failed, requeueing")
		raw, err := json.Marshal(e)
		if err != nil {
			w.log.Error().Err(err).Str("key_id", e.KeyID).Msg("encode usage event failed, usage event dropped")
			continue
		}
		if err := w.requeue(ctx, raw); err != nil {
			w.log.Error().Err(err).Msg("requeue failed, usage event dropped")
		}
	}
}
