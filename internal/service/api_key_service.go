package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/repository"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrAPIKeyInvalid  = errors.New("api key invalid or revoked")
	ErrQuotaExceeded  = errors.New("daily quota exceeded")
	ErrAPIKeyNotFound = errors.New("api key not found")
)

const (
	apiKeyPrefix     = "qb_"
	apiKeyBytes      = 24
	apiKeyShownChars = 10
	usageWriteWait   = 3 * time.Second
)

// APIKeyService issues and verifies public API keys and meters their use.
type APIKeyService struct {
	keys         APIKeyStore
	usage        UsageCounter
	defaultLimit int
	now          func() time.Time
	log          zerolog.Logger
}

// NewAPIKeyService creates a new APIKeyService.
func NewAPIKeyService(keys APIKeyStore, usage UsageCounter, defaultLimit int, log zerolog.Logger) *APIKeyService {
	return &APIKeyService{
		keys:         keys,
		usage:        usage,
		defaultLimit: defaultLimit,
		now:          time.Now,
		log:          log.With().Str("component", "api_key_service").Logger(),
	}
}

// HashAPIKey returns the hex BLAKE2b-256 digest stored in place of the key.
func HashAPIKey(raw string) string {
	sum := blake2b.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Issue creates a key and returns it in clear text. It cannot be recovered later.
func (s *APIKeyService) Issue(ctx context.Context, req model.IssueAPIKeyRequest) (*model.IssuedAPIKey, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	raw := apiKeyPrefix + hex.EncodeToString(buf)

	limit := req.DailyLimit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	k := &model.APIKey{
		OwnerID:    req.OwnerID,
		Name:       req.Name,
		KeyPrefix:  raw[:apiKeyShownChars],
		KeyHash:    HashAPIKey(raw),
		DailyLimit: limit,
	}
	if err := s.keys.Create(ctx, k); err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}

	s.log.Info().
		Str("key_id", k.ID.String()).
		Str("owner_id", k.OwnerID).
		Int("daily_limit", k.DailyLimit).
		Msg("API key issued")
	return &model.IssuedAPIKey{APIKey: *k, Key: raw}, nil
}

// Verify resolves a raw key to its grant.
func (s *APIKeyService) Verify(ctx context.Context, raw string) (*model.KeyGrant, error) {
	if raw == "" {
		return nil, ErrAPIKeyInvalid
	}
	k, err := s.keys.GetActiveByHash(ctx, HashAPIKey(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAPIKeyInvalid
		}
		return nil, fmt.Errorf("lookup api key: %w", err)
	}
	return &model.KeyGrant{KeyID: k.ID, OwnerID: k.OwnerID, DailyLimit: k.DailyLimit}, nil
}

// CheckQuota rejects the call once today's count reaches the limit. A
// failing counter store lets the call through.
func (s *APIKeyService) CheckQuota(ctx context.Context, grant *model.KeyGrant) error {
	used, err := s.usage.DailyCount(ctx, grant.KeyID.String(), s.now())
	if err != nil {
		s.log.Warn().Err(err).Str("key_id", grant.KeyID.String()).Msg("Quota lookup failed, allowing request")
		return nil
	}
	if used >= int64(grant.DailyLimit) {
		return ErrQuotaExceeded
	}
	return nil
}

// RecordUsage meters one successful call in the background. It never
// blocks the caller and only logs failures.
func (s *APIKeyService) RecordUsage(grant *model.KeyGrant, endpoint string) {
	event := model.UsageEvent{
		KeyID:    grant.KeyID.String(),
		OwnerID:  grant.OwnerID,
		Endpoint: endpoint,
		UsedAt:   s.now().UTC(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), usageWriteWait)
		defer cancel()
		if err := s.usage.Record(ctx, event); err != nil {
			s.log.Warn().Err(err).Str("key_id", event.KeyID).Msg("Failed to record API usage")
		}
	}()
}

func (s *APIKeyService) List(ctx context.Context) ([]model.APIKey, error) {
	keys, err := s.keys.List(ctx)
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []model.APIKey{}
	}
	return keys, nil
}

func (s *APIKeyService) Revoke(ctx context.Context, id uuid.UUID) error {
	if err := s.keys.Revoke(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAPIKeyNotFound
		}
		return err
	}
	s.log.Info().Str("key_id", id.String()).Msg("API key revoked")
	return nil
}
