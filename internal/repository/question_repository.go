package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	"github.com/stemsi/qbank-backend/internal/model"
)

const questionColumns = `question_id, subject, chapter, subtopic, question_text, options, correct_answer,
	year, marks, theoretical_practical, has_diagram, provenance, confidence`

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListAll returns the whole corpus in ingest order, without embeddings.
func (r *QuestionRepository) ListAll(ctx context.Context) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions ORDER BY ingest_seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := make([]model.Question, 0, 256)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// GetByID fetches one question including its embedding, if any.
func (r *QuestionRepository) GetByID(ctx context.Context, questionID string) (*model.Question, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+`, embedding::real[] FROM questions WHERE question_id = $1`, questionID)

	var embedding []float32
	q, err := scanQuestion(row, &embedding)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	q.VectorEmbedding = embedding
	return &q, nil
}

// NearestByEmbedding pre-selects the candidates for vector ranking: the limit
// embedded questions closest to the given vector by cosine distance, plus the
// limit closest among those sharing subject. Together they hold every
// question a same-subject bonus could lift into the top limit. Rows whose
// embedding has a different dimension are skipped. Nearest rows come first.
func (r *QuestionRepository) NearestByEmbedding(ctx context.Context, embedding []float32, excludeID, subject string, limit int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`(SELECT `+questionColumns+`, embedding::real[], embedding <=> $1::vector AS distance
		  FROM questions
		  WHERE embedding IS NOT NULL
		    AND vector_dims(embedding) = vector_dims($1::vector)
		    AND question_id <> $2
		  ORDER BY distance
		  LIMIT $3)
		 UNION ALL
		 (SELECT `+questionColumns+`, embedding::real[], embedding <=> $1::vector AS distance
		  FROM questions
		  WHERE embedding IS NOT NULL
		    AND vector_dims(embedding) = vector_dims($1::vector)
		    AND question_id <> $2
		    AND $4::text <> '' AND subject = $4::text
		  ORDER BY distance
		  LIMIT $3)
		 ORDER BY distance`,
		pgvector.NewVector(embedding), excludeID, limit, subject,
	)
	if err != nil {
		return nil, fmt.Errorf("nearest by embedding: %w", err)
	}
	defer rows.Close()

	var questions []model.Question
	seen := make(map[string]bool)
	for rows.Next() {
		var (
			vec      []float32
			distance float64
		)
		q, err := scanQuestion(rows, &vec, &distance)
		if err != nil {
			return nil, err
		}
		if seen[q.QuestionID] {
			continue
		}
		seen[q.QuestionID] = true
		q.VectorEmbedding = vec
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// InsertMany inserts questions in one batch. Rows whose question_id already
// exists are left untouched; the number of new rows is returned.
func (r *QuestionRepository) InsertMany(ctx context.Context, questions []model.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, q := range questions {
		var embedding any
		if q.HasEmbedding() {
			embedding = pgvector.NewVector(q.VectorEmbedding)
		}
		batch.Queue(
			`INSERT INTO questions (`+questionColumns+`, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			 ON CONFLICT (question_id) DO NOTHING`,
			q.QuestionID, q.Subject, q.Chapter, q.Subtopic, q.QuestionText, q.Options, q.CorrectAnswer,
			q.Year, q.Marks, string(q.TheoreticalPractical), q.HasDiagram, q.Provenance, q.Confidence, embedding,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := 0
	for range questions {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert question: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

// Count returns the number of stored questions.
func (r *QuestionRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n)
	return n, err
}

func scanQuestion(row pgx.Row, extras ...any) (model.Question, error) {
	var (
		q    model.Question
		kind string
	)
	dest := []any{
		&q.QuestionID, &q.Subject, &q.Chapter, &q.Subtopic, &q.QuestionText, &q.Options, &q.CorrectAnswer,
		&q.Year, &q.Marks, &kind, &q.HasDiagram, &q.Provenance, &q.Confidence,
	}
	dest = append(dest, extras...)
	if err := row.Scan(dest...); err != nil {
		return model.Question{}, err
	}
	q.TheoreticalPractical = model.QuestionKind(kind)
	if len(q.Options) == 0 {
		q.Options = nil
	}
	return q, nil
}
