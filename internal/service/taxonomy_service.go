package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/taxonomy"
)

// TaxonomyService serves the subject/chapter/subtopic menus and the stats summary.
type TaxonomyService struct {
	store     TaxonomyStore
	questions *QuestionService
	log       zerolog.Logger
}

// NewTaxonomyService creates a new TaxonomyService.
func NewTaxonomyService(store TaxonomyStore, questions *QuestionService, log zerolog.Logger) *TaxonomyService {
	return &TaxonomyService{
		store:     store,
		questions: questions,
		log:       log.With().Str("component", "taxonomy_service").Logger(),
	}
}

// Subjects merges the static catalog with the stored subject counts.
func (s *TaxonomyService) Subjects(ctx context.Context) ([]model.SubjectOverview, error) {
	subjects, err := s.store.ListSubjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return taxonomy.Overview(config.SubjectCatalog(), subjects), nil
}

// Chapters lists chapter aggregates, optionally narrowed to one subject.
func (s *TaxonomyService) Chapters(ctx context.Context, subject string) ([]model.ChapterAggregate, error) {
	chapters, err := s.store.ListChapters(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return taxonomy.ChaptersOf(chapters, subject), nil
}

// Subtopics returns the de-duplicated display names for the given scope.
func (s *TaxonomyService) Subtopics(ctx context.Context, subject, chapter string) ([]string, error) {
	corpus, err := s.questions.Corpus(ctx)
	if err != nil {
		return nil, err
	}
	return taxonomy.SubtopicsFor(corpus, subject, chapter), nil
}

func (s *TaxonomyService) Stats(ctx context.Context) (model.CorpusStats, error) {
	corpus, err := s.questions.Corpus(ctx)
	if err != nil {
		return model.CorpusStats{}, err
	}
	return taxonomy.Summarize(corpus), nil
}

// Rebuild clears and recomputes every aggregate from the stored questions.
func (s *TaxonomyService) Rebuild(ctx context.Context, questions []model.Question) (model.Aggregates, error) {
	agg := taxonomy.Build(questions, time.Now().UTC())
	if err := s.store.ReplaceAll(ctx, agg); err != nil {
		return model.Aggregates{}, fmt.Errorf("replace aggregates: %w", err)
	}

	s.log.Info().
		Int("subjects", len(agg.Subjects)).
		Int("chapters", len(agg.Chapters)).
		Int("subtopics", len(agg.Subtopics)).
		Msg("Aggregates rebuilt")
	return agg, nil
}

// RebuildFromStore reloads the corpus from PostgreSQL before rebuilding.
func (s *TaxonomyService) RebuildFromStore(ctx context.Context) (model.Aggregates, error) {
	questions, err := s.questions.store.ListAll(ctx)
	if err != nil {
		return model.Aggregates{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return s.Rebuild(ctx, questions)
}
