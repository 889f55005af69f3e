package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/repository"
)

var errBoom = errors.New("boom")

type fakeQuestionStore struct {
	mu           sync.Mutex
	questions    []model.Question
	listErr      error
	getErr       error
	nearestErr   error
	listCalls    int
	nearestLimit int
}

func (f *fakeQuestionStore) ListAll(ctx context.Context) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Question, len(f.questions))
	for i, q := range f.questions {
		q.VectorEmbedding = nil
		out[i] = q
	}
	return out, nil
}

func (f *fakeQuestionStore) GetByID(ctx context.Context, questionID string) (*model.Question, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, q := range f.questions {
		if q.QuestionID == questionID {
			q := q
			return &q, nil
		}
	}
	return nil, repository.ErrNotFound
}

// NearestByEmbedding treats slice order as distance order: the first limit
// embedded questions, then the first limit sharing subject.
func (f *fakeQuestionStore) NearestByEmbedding(ctx context.Context, embedding []float32, excludeID, subject string, limit int) ([]model.Question, error) {
	f.nearestLimit = limit
	if f.nearestErr != nil {
		return nil, f.nearestErr
	}
	var overall, sameSubject []model.Question
	for _, q := range f.questions {
		if q.QuestionID == excludeID || !q.HasEmbedding() {
			continue
		}
		if len(overall) < limit {
			overall = append(overall, q)
		}
		if subject != "" && q.Subject == subject && len(sameSubject) < limit {
			sameSubject = append(sameSubject, q)
		}
	}

	out := overall
	for _, q := range sameSubject {
		if !containsQuestion(out, q.QuestionID) {
			out = append(out, q)
		}
	}
	return out, nil
}

func containsQuestion(qs []model.Question, id string) bool {
	for _, q := range qs {
		if q.QuestionID == id {
			return true
		}
	}
	return false
}

func (f *fakeQuestionStore) InsertMany(ctx context.Context, questions []model.Question) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	for _, q := range f.questions {
		seen[q.QuestionID] = true
	}
	n := 0
	for _, q := range questions {
		if seen[q.QuestionID] {
			continue
		}
		seen[q.QuestionID] = true
		f.questions = append(f.questions, q)
		n++
	}
	return n, nil
}

type fakeCorpusCache struct {
	questions []model.Question
	warm      bool
	loadErr   error
	storeErr  error
	stores    int
}

func (f *fakeCorpusCache) Load(ctx context.Context) ([]model.Question, bool, error) {
	if f.loadErr != nil {
		return nil, false, f.loadErr
	}
	return f.questions, f.warm, nil
}

func (f *fakeCorpusCache) Store(ctx context.Context, questions []model.Question, version string, ttl time.Duration) error {
	f.stores++
	if f.storeErr != nil {
		return f.storeErr
	}
	f.questions = questions
	f.warm = true
	return nil
}

func (f *fakeCorpusCache) Invalidate(ctx context.Context) error {
	f.questions, f.warm = nil, false
	return nil
}

type fakeTaxonomyStore struct {
	agg      model.Aggregates
	replaced int
	err      error
}

func (f *fakeTaxonomyStore) ReplaceAll(ctx context.Context, agg model.Aggregates) error {
	if f.err != nil {
		return f.err
	}
	f.agg = agg
	f.replaced++
	return nil
}

func (f *fakeTaxonomyStore) ListSubjects(ctx context.Context) ([]model.SubjectAggregate, error) {
	return f.agg.Subjects, f.err
}

func (f *fakeTaxonomyStore) ListChapters(ctx context.Context) ([]model.ChapterAggregate, error) {
	return f.agg.Chapters, f.err
}

type fakeAPIKeyStore struct {
	keys []model.APIKey
}

func (f *fakeAPIKeyStore) Create(ctx context.Context, k *model.APIKey) error {
	k.ID = uuid.New()
	k.Active = true
	k.CreatedAt = time.Now()
	f.keys = append(f.keys, *k)
	return nil
}

func (f *fakeAPIKeyStore) GetActiveByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	for _, k := range f.keys {
		if k.KeyHash == hash && k.Active {
			k := k
			return &k, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAPIKeyStore) List(ctx context.Context) ([]model.APIKey, error) {
	return f.keys, nil
}

func (f *fakeAPIKeyStore) Revoke(ctx context.Context, id uuid.UUID) error {
	for i := range f.keys {
		if f.keys[i].ID == id {
			f.keys[i].Active = false
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeUsageCounter struct {
	mu       sync.Mutex
	counts   map[string]int64
	countErr error
	recErr   error
	recorded chan model.UsageEvent
}

func newFakeUsageCounter() *fakeUsageCounter {
	return &fakeUsageCounter{counts: map[string]int64{}, recorded: make(chan model.UsageEvent, 8)}
}

func (f *fakeUsageCounter) DailyCount(ctx context.Context, keyID string, day time.Time) (int64, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[keyID], nil
}

func (f *fakeUsageCounter) Record(ctx context.Context, e model.UsageEvent) error {
	f.mu.Lock()
	f.counts[e.KeyID]++
	f.mu.Unlock()
	f.recorded <- e
	return f.recErr
}

type fakeAdminStore struct {
	admins map[string]*model.Admin
}

func (f *fakeAdminStore) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	if a, ok := f.admins[email]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeAdminStore) Create(ctx context.Context, a *model.Admin) error {
	if f.admins == nil {
		f.admins = map[string]*model.Admin{}
	}
	a.ID = len(f.admins) + 1
	f.admins[a.Email] = a
	return nil
}
