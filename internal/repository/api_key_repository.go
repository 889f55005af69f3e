package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/qbank-backend/internal/model"
)

// APIKeyRepository handles public API key data access.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

func (r *APIKeyRepository) Create(ctx context.Context, k *model.APIKey) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO api_keys (owner_id, name, key_prefix, key_hash, daily_limit)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, active, created_at`,
		k.OwnerID, k.Name, k.KeyPrefix, k.KeyHash, k.DailyLimit,
	).Scan(&k.ID, &k.Active, &k.CreatedAt)
}

// GetActiveByHash returns the active key with the given hash.
func (r *APIKeyRepository) GetActiveByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var k model.APIKey
	err := r.pool.QueryRow(ctx,
		`SELECT id, owner_id, name, key_prefix, key_hash, daily_limit, active, created_at, last_used_at
		 FROM api_keys WHERE key_hash = $1 AND active`, hash,
	).Scan(&k.ID, &k.OwnerID, &k.Name, &k.KeyPrefix, &k.KeyHash, &k.DailyLimit, &k.Active, &k.CreatedAt, &k.LastUsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &k, nil
}

func (r *APIKeyRepository) List(ctx context.Context) ([]model.APIKey, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, owner_id, name, key_prefix, key_hash, daily_limit, active, created_at, last_used_at
		 FROM api_keys ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []model.APIKey
	for rows.Next() {
		var k model.APIKey
		if err := rows.Scan(&k.ID, &k.OwnerID, &k.Name, &k.KeyPrefix, &k.KeyHash, &k.DailyLimit, &k.Active, &k.CreatedAt, &k.LastUsedAt); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Revoke deactivates a key. Revoking an unknown key returns ErrNotFound.
func (r *APIKeyRepository) Revoke(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE api_keys SET active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertUsage bulk-writes usage events and bumps last_used_at per key.
func (r *APIKeyRepository) InsertUsage(ctx context.Context, events []model.UsageEvent) error {
	if len(events) == 0 {
		return nil
	}

	keyIDs := make([]uuid.UUID, 0, len(events))
	owners := make([]string, 0, len(events))
	endpoints := make([]string, 0, len(events))
	usedAts := make([]time.Time, 0, len(events))
	for _, e := range events {
		id, err := uuid.Parse(e.KeyID)
		if err != nil {
			return err
		}
		keyIDs = append(keyIDs, id)
		owners = append(owners, e.OwnerID)
		endpoints = append(endpoints, e.Endpoint)
		usedAts = append(usedAts, e.UsedAt)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO api_usage (key_id, owner_id, endpoint, used_at)
		SELECT u.key_id, u.owner_id, u.endpoint, u.used_at
		FROM UNNEST($1::uuid[], $2::text[], $3::text[], $4::timestamptz[])
			AS u (key_id, owner_id, endpoint, used_at)`,
		keyIDs, owners, endpoints, usedAts)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE api_keys AS k
		SET last_used_at = t.used_at
		FROM (
			SELECT key_id, MAX(used_at) AS used_at
			FROM UNNEST($1::uuid[], $2::timestamptz[]) AS u (key_id, used_at)
			GROUP BY key_id
		) AS t
		WHERE k.id = t.key_id`,
		keyIDs, usedAts)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
