package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/ranking"
	"github.com/stemsi/qbank-backend/internal/repository"
)

const (
	DefaultSimilarLimit = 10
	MaxSimilarLimit     = 50
)

// SimilarResult is a ranked list plus the algorithm that actually produced it.
type SimilarResult struct {
	QuestionID string
	Algorithm  ranking.Algorithm
	Items      []model.SimilarQuestion
}

// SimilarityService finds related questions, preferring embeddings and
// falling back to metadata overlap.
type SimilarityService struct {
	store     QuestionStore
	questions *QuestionService
	log       zerolog.Logger
}

// NewSimilarityService creates a new SimilarityService.
func NewSimilarityService(store QuestionStore, questions *QuestionService, log zerolog.Logger) *SimilarityService {
	return &SimilarityService{
		store:     store,
		questions: questions,
		log:       log.With().Str("component", "similarity_service").Logger(),
	}
}

// ClampSimilarLimit applies the default and maximum result counts.
func ClampSimilarLimit(limit int) int {
	if limit <= 0 {
		return DefaultSimilarLimit
	}
	return min(limit, MaxSimilarLimit)
}

// FindSimilar ranks neighbours of questionID. When preferVectors is set the
// embedding strategy runs first; any error or empty result from it falls
// through to the metadata strategy without surfacing. An unknown target
// yields an empty graph result, not an error.
func (s *SimilarityService) FindSimilar(ctx context.Context, questionID string, limit int, preferVectors bool) (*SimilarResult, error) {
	limit = ClampSimilarLimit(limit)
	result := &SimilarResult{
		QuestionID: questionID,
		Algorithm:  ranking.AlgorithmGraph,
		Items:      []model.SimilarQuestion{},
	}

	target, err := s.store.GetByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return result, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	if preferVectors {
		items, err := s.rankByVector(ctx, *target, limit)
		if err != nil {
			s.log.Warn().
				Err(err).
				Str("question_id", questionID).
				Msg("Vector similarity failed, falling back to graph")
		} else if len(items) > 0 {
			result.Algorithm = ranking.AlgorithmVector
			result.Items = items
			return result, nil
		}
	}

	corpus, err := s.questions.Corpus(ctx)
	if err != nil {
		return nil, err
	}
	if items := ranking.RankByMetadata(*target, corpus, limit); len(items) > 0 {
		result.Items = items
	}
	return result, nil
}

func (s *SimilarityService) rankByVector(ctx context.Context, target model.Question, limit int) ([]model.SimilarQuestion, error) {
	if !target.HasEmbedding() {
		return nil, nil
	}
	pool, err := s.store.NearestByEmbedding(ctx, target.VectorEmbedding, target.QuestionID, target.Subject, limit)
	if err != nil {
		return nil, fmt.Errorf("nearest by embedding: %w", err)
	}
	return ranking.Rank(ranking.AlgorithmVector, target, pool, limit)
}
