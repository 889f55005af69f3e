package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/ranking"
	"github.com/stemsi/qbank-backend/internal/repository"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	// ErrStoreUnavailable wraps any failure to read the question corpus.
	ErrStoreUnavailable = errors.New("question store unavailable")
)

// QuestionService serves filtered question pages from the corpus snapshot.
type QuestionService struct {
	store QuestionStore
	cache CorpusCache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewQuestionService creates a new QuestionService. A zero ttl keeps the
// cached snapshot until the next refresh.
func NewQuestionService(store QuestionStore, cache CorpusCache, ttl time.Duration, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		store: store,
		cache: cache,
		ttl:   ttl,
		log:   log.With().Str("component", "question_service").Logger(),
	}
}

// Corpus returns every question, from Redis when warm and from PostgreSQL
// otherwise. Cache errors are logged and never fail the read.
func (s *QuestionService) Corpus(ctx context.Context) ([]model.Question, error) {
	questions, ok, err := s.cache.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Corpus cache read failed, falling back to database")
	} else if ok {
		return questions, nil
	}

	questions, err = s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if err := s.cache.Store(ctx, questions, uuid.NewString(), s.ttl); err != nil {
		s.log.Warn().Err(err).Msg("Corpus cache write failed")
	}
	return questions, nil
}

// List runs the filter engine over the current corpus.
func (s *QuestionService) List(ctx context.Context, params ranking.Params) (ranking.FilterResult, error) {
	corpus, err := s.Corpus(ctx)
	if err != nil {
		return ranking.FilterResult{}, err
	}
	return ranking.Filter(corpus, params.Predicates, params.Sort, params.Page), nil
}

// Get returns a single question with its correct option resolved.
func (s *QuestionService) Get(ctx context.Context, questionID string) (*model.QuestionDetail, error) {
	q, err := s.store.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	d := model.NewQuestionDetail(*q)
	return &d, nil
}

// RefreshCache reloads the snapshot from PostgreSQL and replaces the cached copy.
func (s *QuestionService) RefreshCache(ctx context.Context) (int, error) {
	questions, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	version := uuid.NewString()
	if err := s.cache.Store(ctx, questions, version, s.ttl); err != nil {
		return 0, fmt.Errorf("store corpus: %w", err)
	}

	s.log.Info().
		Int("questions", len(questions)).
		Str("version", version).
		Msg("Corpus cache refreshed")
	return len(questions), nil
}

// InvalidateCache drops the cached snapshot so the next read goes to
// PostgreSQL. Failures are logged only.
func (s *QuestionService) InvalidateCache(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Corpus cache invalidation failed")
	}
}

// PrewarmCache loads the corpus into Redis before traffic is accepted.
func (s *QuestionService) PrewarmCache(ctx context.Context) error {
	s.log.Info().Msg("Prewarming corpus cache...")
	n, err := s.RefreshCache(ctx)
	if err != nil {
		return err
	}
	if n == 0 {
		s.log.Info().Msg("Corpus is empty, nothing to prewarm")
	}
	return nil
}
