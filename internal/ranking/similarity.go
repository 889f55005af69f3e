package ranking

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/textnorm"
)

// Algorithm names the strategy that produced a similarity list.
type Algorithm string

const (
	AlgorithmGraph  Algorithm = "graph"
	AlgorithmVector Algorithm = "vector"
)

// Similarity reasons, in priority order for the metadata strategy.
const (
	ReasonSameSubtopic = "Same subtopic"
	ReasonSameChapter  = "Same chapter"
	ReasonSameSubject  = "Same subject"
	ReasonRelatedTopic = "Related topic"
	ReasonVector       = "Vector similarity"
)

// Metadata scoring weights.
const (
	weightSubtopic    = 5.0
	weightChapter     = 3.0
	weightSubject     = 1.0
	recencyWindow     = 5
	recencyBoost      = 1.2
	sameMarksBoost    = 1.1
	vectorSubjectBump = 0.1
)

var (
	ErrUnknownAlgorithm  = errors.New("unknown ranking algorithm")
	ErrDimensionMismatch = errors.New("embedding dimensions differ")
)

// Rank dispatches to the strategy named by alg. Each strategy is a pure
// function of (target, candidates, limit).
func Rank(alg Algorithm, target model.Question, candidates []model.Question, limit int) ([]model.SimilarQuestion, error) {
	switch alg {
	case AlgorithmGraph:
		return RankByMetadata(target, candidates, limit), nil
	case AlgorithmVector:
		return RankByVector(target, candidates, limit)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, alg)
	}
}

type scored struct {
	q     model.Question
	score float64
}

// RankByMetadata scores candidates by shared subtopic, chapter and subject,
// boosted for nearby years and equal marks. Candidates sharing nothing are
// dropped. Ties go to the newer question.
func RankByMetadata(target model.Question, candidates []model.Question, limit int) []model.SimilarQuestion {
	targetKey := textnorm.Normalize(target.Subtopic)

	pool := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.QuestionID == target.QuestionID {
			continue
		}
		s := metadataScore(target, targetKey, c)
		if s <= 0 {
			continue
		}
		pool = append(pool, scored{q: c, score: s})
	}

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return pool[i].q.Year > pool[j].q.Year
	})

	pool = truncate(pool, limit)
	out := make([]model.SimilarQuestion, len(pool))
	for i, s := range pool {
		out[i] = model.SimilarQuestion{
			Question:         s.q,
			SimilarityScore:  s.score,
			SimilarityReason: metadataReason(target, targetKey, s.q),
		}
	}
	return out
}

func metadataScore(target model.Question, targetKey string, c model.Question) float64 {
	var score float64
	if targetKey != "" && textnorm.Normalize(c.Subtopic) == targetKey {
		score += weightSubtopic
	}
	if sameField(c.Chapter, target.Chapter) {
		score += weightChapter
	}
	if sameField(c.Subject, target.Subject) {
		score += weightSubject
	}

	// Boosts compound in this order.
	if abs(c.Year-target.Year) <= recencyWindow {
		score *= recencyBoost
	}
	if c.Marks == target.Marks {
		score *= sameMarksBoost
	}
	return score
}

// metadataReason names the strongest shared field, falling back to
// ReasonRelatedTopic when nothing is shared.
func metadataReason(target model.Question, targetKey string, c model.Question) string {
	switch {
	case targetKey != "" && textnorm.Normalize(c.Subtopic) == targetKey:
		return ReasonSameSubtopic
	case sameField(c.Chapter, target.Chapter):
		return ReasonSameChapter
	case sameField(c.Subject, target.Subject):
		return ReasonSameSubject
	default:
		// RankByMetadata drops zero scores, so its results never land here.
		return ReasonRelatedTopic
	}
}

// RankByVector scores candidates by cosine similarity of their embeddings,
// plus a flat bonus for a shared subject. The sum is not clamped, so a score
// can exceed 1. A target without an embedding yields no results.
func RankByVector(target model.Question, candidates []model.Question, limit int) ([]model.SimilarQuestion, error) {
	if !target.HasEmbedding() {
		return nil, nil
	}
	targetNorm := norm(target.VectorEmbedding)

	pool := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		if c.QuestionID == target.QuestionID || !c.HasEmbedding() {
			continue
		}
		if len(c.VectorEmbedding) != len(target.VectorEmbedding) {
			return nil, fmt.Errorf("%w: target %d, %s %d",
				ErrDimensionMismatch, len(target.VectorEmbedding), c.QuestionID, len(c.VectorEmbedding))
		}
		s := cosine(target.VectorEmbedding, c.VectorEmbedding, targetNorm)
		if sameField(c.Subject, target.Subject) {
			s += vectorSubjectBump
		}
		pool = append(pool, scored{q: c, score: s})
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].score > pool[j].score })

	pool = truncate(pool, limit)
	out := make([]model.SimilarQuestion, len(pool))
	for i, s := range pool {
		out[i] = model.SimilarQuestion{
			Question:         s.q,
			SimilarityScore:  s.score,
			SimilarityReason: ReasonVector,
		}
	}
	return out, nil
}

// cosine takes the precomputed norm of a; zero-norm vectors score 0.
func cosine(a, b []float32, normA float64) float64 {
	normB := norm(b)
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (normA * normB)
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// sameField is exact equality that never matches two blank values.
func sameField(a, b string) bool {
	return a != "" && a == b
}

func truncate(pool []scored, limit int) []scored {
	if limit > 0 && len(pool) > limit {
		return pool[:limit]
	}
	return pool
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
