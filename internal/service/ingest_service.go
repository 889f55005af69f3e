package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/validator"
)

// RecordError reports why one input record was rejected.
type RecordError struct {
	Index  int               `json:"index"`
	Fields map[string]string `json:"fields"`
}

// IngestReport summarises one bulk load.
type IngestReport struct {
	Received   int           `json:"received"`
	Valid      int           `json:"valid"`
	Inserted   int           `json:"inserted"`
	Duplicates int           `json:"duplicates"`
	Rejected   []RecordError `json:"rejected,omitempty"`
}

// IngestService loads validated records, then rebuilds aggregates and the cache.
type IngestService struct {
	store     QuestionStore
	taxonomy  *TaxonomyService
	questions *QuestionService
	log       zerolog.Logger
}

// NewIngestService creates a new IngestService.
func NewIngestService(store QuestionStore, taxonomy *TaxonomyService, questions *QuestionService, log zerolog.Logger) *IngestService {
	return &IngestService{
		store:     store,
		taxonomy:  taxonomy,
		questions: questions,
		log:       log.With().Str("component", "ingest_service").Logger(),
	}
}

// ValidateRecords converts the records that pass validation into questions.
// The first embedded record fixes the embedding dimension for the batch;
// records with another dimension are rejected.
func ValidateRecords(records []model.IngestRecord) ([]model.Question, []RecordError) {
	var rejected []RecordError
	questions := make([]model.Question, 0, len(records))
	dims := 0
	for i := range records {
		if fields := validator.Struct(&records[i]); fields != nil {
			rejected = append(rejected, RecordError{Index: i, Fields: fields})
			continue
		}
		if n := len(records[i].VectorEmbedding); n > 0 {
			if dims == 0 {
				dims = n
			} else if n != dims {
				rejected = append(rejected, RecordError{Index: i, Fields: map[string]string{
					"vector_embedding": fmt.Sprintf("vector_embedding must have %d dimensions, got %d", dims, n),
				}})
				continue
			}
		}
		questions = append(questions, records[i].ToQuestion())
	}
	return questions, rejected
}

// Ingest inserts every valid record and rebuilds the aggregates. Records
// whose derived id already exists are skipped, so re-running the same file
// inserts nothing.
func (s *IngestService) Ingest(ctx context.Context, records []model.IngestRecord) (*IngestReport, error) {
	report := &IngestReport{Received: len(records)}

	questions, rejected := ValidateRecords(records)
	report.Rejected = rejected
	report.Valid = len(questions)

	if len(questions) > 0 {
		inserted, err := s.store.InsertMany(ctx, questions)
		if err != nil {
			return nil, fmt.Errorf("insert questions: %w", err)
		}
		report.Inserted = inserted
		report.Duplicates = len(questions) - inserted
	}

	s.log.Info().
		Int("received", report.Received).
		Int("inserted", report.Inserted).
		Int("duplicates", report.Duplicates).
		Int("rejected", len(report.Rejected)).
		Msg("Ingest complete")

	// Aggregates are recomputed on every run so a rerun repairs a rebuild
	// that failed after its rows were inserted.
	if _, err := s.taxonomy.RebuildFromStore(ctx); err != nil {
		return report, err
	}
	if report.Inserted == 0 {
		return report, nil
	}
	if _, err := s.questions.RefreshCache(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Cache refresh after ingest failed")
		s.questions.InvalidateCache(ctx)
	}
	return report, nil
}
