package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/qbank-backend/internal/model"
)

// TaxonomyRepository stores the derived subject/chapter/subtopic aggregates.
type TaxonomyRepository struct {
	pool *pgxpool.Pool
}

func NewTaxonomyRepository(pool *pgxpool.Pool) *TaxonomyRepository {
	return &TaxonomyRepository{pool: pool}
}

// ReplaceAll clears every aggregate table and writes agg in one transaction.
func (r *TaxonomyRepository) ReplaceAll(ctx context.Context, agg model.Aggregates) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE subtopic_stats, chapter_stats, subject_stats`); err != nil {
		return fmt.Errorf("truncate aggregates: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"subject_stats"},
		[]string{"name", "question_count", "updated_at"},
		pgx.CopyFromSlice(len(agg.Subjects), func(i int) ([]any, error) {
			s := agg.Subjects[i]
			return []any{s.Name, s.QuestionCount, s.UpdatedAt}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy subjects: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"chapter_stats"},
		[]string{"subject", "name", "question_count", "updated_at"},
		pgx.CopyFromSlice(len(agg.Chapters), func(i int) ([]any, error) {
			c := agg.Chapters[i]
			return []any{c.Subject, c.Name, c.QuestionCount, c.UpdatedAt}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy chapters: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"subtopic_stats"},
		[]string{"subject", "chapter", "key", "name", "question_count", "updated_at"},
		pgx.CopyFromSlice(len(agg.Subtopics), func(i int) ([]any, error) {
			t := agg.Subtopics[i]
			return []any{t.Subject, t.Chapter, t.Key, t.Name, t.QuestionCount, t.UpdatedAt}, nil
		}))
	if err != nil {
		return fmt.Errorf("copy subtopics: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *TaxonomyRepository) ListSubjects(ctx context.Context) ([]model.SubjectAggregate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT name, question_count, updated_at FROM subject_stats ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SubjectAggregate
	for rows.Next() {
		var s model.SubjectAggregate
		if err := rows.Scan(&s.Name, &s.QuestionCount, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *TaxonomyRepository) ListChapters(ctx context.Context) ([]model.ChapterAggregate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT subject, name, question_count, updated_at FROM chapter_stats ORDER BY subject, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChapterAggregate
	for rows.Next() {
		var c model.ChapterAggregate
		if err := rows.Scan(&c.Subject, &c.Name, &c.QuestionCount, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
