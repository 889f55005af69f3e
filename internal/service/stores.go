package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/qbank-backend/internal/model"
)

// The interfaces below are satisfied by the repository package; services
// depend on them so they can run against in-memory fakes in tests.

type QuestionStore interface {
	ListAll(ctx context.Context) ([]model.Question, error)
	GetByID(ctx context.Context, questionID string) (*model.Question, error)
	NearestByEmbedding(ctx context.Context, embedding []float32, excludeID, subject string, limit int) ([]model.Question, error)
	InsertMany(ctx context.Context, questions []model.Question) (int, error)
}

type CorpusCache interface {
	Load(ctx context.Context) ([]model.Question, bool, error)
	Store(ctx context.Context, questions []model.Question, version string, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

type TaxonomyStore interface {
	ReplaceAll(ctx context.Context, agg model.Aggregates) error
	ListSubjects(ctx context.Context) ([]model.SubjectAggregate, error)
	ListChapters(ctx context.Context) ([]model.ChapterAggregate, error)
}

type APIKeyStore interface {
	Create(ctx context.Context, k *model.APIKey) error
	GetActiveByHash(ctx context.Context, hash string) (*model.APIKey, error)
	List(ctx context.Context) ([]model.APIKey, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}

type UsageCounter interface {
	DailyCount(ctx context.Context, keyID string, day time.Time) (int64, error)
	Record(ctx context.Context, e model.UsageEvent) error
}

type AdminStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Admin, error)
	Create(ctx context.Context, a *model.Admin) error
}
