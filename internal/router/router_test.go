package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/qbank-backend/internal/config"
	"github.com/stemsi/qbank-backend/internal/handler"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/repository"
	"github.com/stemsi/qbank-backend/internal/service"
	"github.com/stemsi/qbank-backend/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// ─── In-memory stores ────────────────────────────────────────────────

type memQuestions struct {
	questions []model.Question
	down      bool
}

func (m *memQuestions) ListAll(ctx context.Context) ([]model.Question, error) {
	if m.down {
		return nil, errors.New("connection refused")
	}
	return m.questions, nil
}

func (m *memQuestions) GetByID(ctx context.Context, id string) (*model.Question, error) {
	if m.down {
		return nil, errors.New("connection refused")
	}
	for _, q := range m.questions {
		if q.QuestionID == id {
			q := q
			return &q, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memQuestions) NearestByEmbedding(ctx context.Context, emb []float32, excludeID, subject string, limit int) ([]model.Question, error) {
	var out []model.Question
	for _, q := range m.questions {
		if q.QuestionID != excludeID && q.HasEmbedding() {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *memQuestions) InsertMany(ctx context.Context, qs []model.Question) (int, error) {
	m.questions = append(m.questions, qs...)
	return len(qs), nil
}

type noCache struct{}

func (noCache) Load(ctx context.Context) ([]model.Question, bool, error) { return nil, false, nil }
func (noCache) Store(ctx context.Context, qs []model.Question, v string, ttl time.Duration) error {
	return nil
}
func (noCache) Invalidate(ctx context.Context) error { return nil }

type memTaxonomy struct{ agg model.Aggregates }

func (m *memTaxonomy) ReplaceAll(ctx context.Context, agg model.Aggregates) error {
	m.agg = agg
	return nil
}
func (m *memTaxonomy) ListSubjects(ctx context.Context) ([]model.SubjectAggregate, error) {
	return m.agg.Subjects, nil
}
func (m *memTaxonomy) ListChapters(ctx context.Context) ([]model.ChapterAggregate, error) {
	return m.agg.Chapters, nil
}

type memKeys struct {
	mu   sync.Mutex
	keys []model.APIKey
}

func (m *memKeys) Create(ctx context.Context, k *model.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k.ID = uuid.New()
	k.Active = true
	m.keys = append(m.keys, *k)
	return nil
}

func (m *memKeys) GetActiveByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.keys {
		if k.KeyHash == hash && k.Active {
			k := k
			return &k, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memKeys) List(ctx context.Context) ([]model.APIKey, error) { return m.keys, nil }

func (m *memKeys) Revoke(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.keys {
		if m.keys[i].ID == id {
			m.keys[i].Active = false
			return nil
		}
	}
	return repository.ErrNotFound
}

type memUsage struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (m *memUsage) DailyCount(ctx context.Context, keyID string, day time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[keyID], nil
}

func (m *memUsage) Record(ctx context.Context, e model.UsageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[e.KeyID]++
	return nil
}

type memAdmins struct{ admins map[string]*model.Admin }

func (m *memAdmins) GetByEmail(ctx context.Context, email string) (*model.Admin, error) {
	if a, ok := m.admins[email]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memAdmins) Create(ctx context.Context, a *model.Admin) error {
	a.ID = len(m.admins) + 1
	m.admins[a.Email] = a
	return nil
}

// ─── Harness ─────────────────────────────────────────────────────────

type harness struct {
	router    *gin.Engine
	questions *memQuestions
	apiKeys   *service.APIKeyService
	auth      *service.AuthService
}

func testCorpus() []model.Question {
	answer := "B"
	qs := []model.Question{
		{QuestionID: "t", Subject: "Algorithms", Chapter: "Sorting and Searching", Subtopic: "Sorting", Marks: 2, Year: 2020,
			QuestionText: "Which algorithm is stable?", Options: []string{"Quick sort", "Merge sort", "Heap sort"}, CorrectAnswer: &answer,
			TheoreticalPractical: model.KindTheoretical},
		{QuestionID: "a", Subject: "Algorithms", Chapter: "Divide and Conquer", Subtopic: "sorting.", Marks: 2, Year: 2021, TheoreticalPractical: model.KindTheoretical},
		{QuestionID: "b", Subject: "Algorithms", Chapter: "Sorting and Searching", Subtopic: "Searching", Marks: 5, Year: 2023, TheoreticalPractical: model.KindPractical},
	}
	for i := 0; i < 4; i++ {
		qs = append(qs, model.Question{
			QuestionID: fmt.Sprintf("y%d", i), Subject: "Databases", Chapter: "Normalization",
			Subtopic: "BCNF", Year: 2023, Marks: 1, TheoreticalPractical: model.KindTheoretical,
		})
	}
	return qs
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		GinMode:             gin.TestMode,
		JWTSecret:           "router-test",
		JWTExpiry:           time.Hour,
		BcryptCost:          4,
		DefaultDailyLimit:   100,
		PublicRatePerMinute: 0,
	}
	log := zerolog.Nop()

	questions := &memQuestions{questions: testCorpus()}
	taxStore := &memTaxonomy{}
	questionSvc := service.NewQuestionService(questions, noCache{}, 0, log)
	similaritySvc := service.NewSimilarityService(questions, questionSvc, log)
	taxonomySvc := service.NewTaxonomyService(taxStore, questionSvc, log)
	apiKeySvc := service.NewAPIKeyService(&memKeys{}, &memUsage{counts: map[string]int64{}}, cfg.DefaultDailyLimit, log)
	authSvc := service.NewAuthService(cfg, &memAdmins{admins: map[string]*model.Admin{}})

	_, err := taxonomySvc.RebuildFromStore(context.Background())
	require.NoError(t, err)

	handlers := &Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		Admin:    handler.NewAdminHandler(apiKeySvc, questionSvc, taxonomySvc),
		Question: handler.NewQuestionHandler(questionSvc, similaritySvc),
		Taxonomy: handler.NewTaxonomyHandler(taxonomySvc),
		System: handler.NewSystemHandler(map[string]handler.Check{
			"postgres": func(ctx context.Context) error { return nil },
		}, nil),
	}

	return &harness{
		router:    SetupRouter(authSvc, apiKeySvc, handlers, cfg),
		questions: questions,
		apiKeys:   apiKeySvc,
		auth:      authSvc,
	}
}

func (h *harness) do(t *testing.T, method, path string, body any, headers map[string]string) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return w.Code, out
}

func errorCode(body map[string]any) string {
	e, _ := body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func dataIDs(body map[string]any) []string {
	items, _ := body["data"].([]any)
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.(map[string]any)["questionId"].(string))
	}
	return out
}

// ─── Tests ───────────────────────────────────────────────────────────

func TestListQuestionsPagination(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodGet, "/api/v1/questions?year=2023&limit=2&offset=0", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["data"], 2)

	pg := body["pagination"].(map[string]any)
	assert.EqualValues(t, 5, pg["total"])
	assert.EqualValues(t, 2, pg["limit"])
	assert.EqualValues(t, 0, pg["offset"])
	assert.Equal(t, true, pg["hasMore"])

	filters := body["filters"].(map[string]any)
	assert.EqualValues(t, 2023, filters["year"])
	assert.Equal(t, "year-desc", filters["sort"])
}

func TestListQuestionsRejectsMalformedYear(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodGet, "/api/v1/questions?year=twenty", nil, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(body))
	fields := body["error"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields, "year")
}

func TestListQuestionsStoreDown(t *testing.T) {
	h := newHarness(t)
	h.questions.down = true

	code, body := h.do(t, http.MethodGet, "/api/v1/questions", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", errorCode(body))
}

func TestGetQuestion(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodGet, "/api/v1/questions/t", nil, nil)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]any)
	assert.Equal(t, "t", data["questionId"])
	assert.EqualValues(t, 1, data["correctOptionIndex"])
	assert.NotContains(t, data, "vector_embedding")

	code, body = h.do(t, http.MethodGet, "/api/v1/questions/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}

func TestSimilarQuestions(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodGet, "/api/v1/questions/t/similar?useVectors=true", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "t", body["questionId"])
	assert.Equal(t, "graph", body["algorithm"], "no embeddings yet, so the graph strategy answers")
	assert.Equal(t, []string{"a", "b"}, dataIDs(body))
	assert.EqualValues(t, 2, body["count"])

	first := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "Same subtopic", first["similarityReason"])
	assert.InDelta(t, 7.92, first["similarityScore"].(float64), 1e-9)
}

func TestSimilarQuestionsUsesVectorsWhenAvailable(t *testing.T) {
	h := newHarness(t)
	h.questions.questions[0].VectorEmbedding = []float32{1, 0}
	h.questions.questions[1].VectorEmbedding = []float32{0.9, 0.1}

	code, body := h.do(t, http.MethodGet, "/api/v1/questions/t/similar", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "vector", body["algorithm"])
	assert.Equal(t, []string{"a"}, dataIDs(body))

	code, body = h.do(t, http.MethodGet, "/api/v1/questions/t/similar?useVectors=false&limit=1", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "graph", body["algorithm"])
	assert.Equal(t, []string{"a"}, dataIDs(body))
}

func TestSimilarQuestionsUnknownTarget(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodGet, "/api/v1/questions/nope/similar", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "graph", body["algorithm"])
	assert.EqualValues(t, 0, body["count"])
	assert.Empty(t, body["data"])
}

func TestTaxonomyMenus(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodGet, "/api/v1/subtopics?subject=Algorithms", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"Searching", "Sorting"}, body["data"])

	code, body = h.do(t, http.MethodGet, "/api/v1/chapters?subject=Databases", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 1)

	code, body = h.do(t, http.MethodGet, "/api/v1/stats", nil, nil)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 7, body["data"].(map[string]any)["totalQuestions"])
}

func TestPublicAPIRequiresKey(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodGet, "/api/v1/public/questions", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "API_KEY_REQUIRED", errorCode(body))

	issued, err := h.apiKeys.Issue(context.Background(), model.IssueAPIKeyRequest{OwnerID: "o", Name: "partner"})
	require.NoError(t, err)

	code, body = h.do(t, http.MethodGet, "/api/v1/public/questions?subject=databases", nil, map[string]string{"X-API-Key": issued.Key})
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 4, body["pagination"].(map[string]any)["total"])

	code, body = h.do(t, http.MethodGet, "/api/v1/public/questions/t/similar", nil, map[string]string{"X-API-Key": "qb_bogus"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "API_KEY_INVALID", errorCode(body))
}

func TestAdminFlow(t *testing.T) {
	h := newHarness(t)
	_, err := h.auth.CreateAdmin(context.Background(), "Ops", "ops@example.com", "hunter22")
	require.NoError(t, err)

	code, body := h.do(t, http.MethodGet, "/api/v1/admin/api-keys", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "TOKEN_REQUIRED", errorCode(body))

	code, body = h.do(t, http.MethodPost, "/api/v1/auth/admin/login",
		map[string]string{"email": "ops@example.com", "password": "wrong-pass"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(body))

	code, body = h.do(t, http.MethodPost, "/api/v1/auth/admin/login",
		map[string]string{"email": "ops@example.com", "password": "hunter22"}, nil)
	require.Equal(t, http.StatusOK, code)
	token := body["data"].(map[string]any)["token"].(string)
	authz := map[string]string{"Authorization": "Bearer " + token}

	code, body = h.do(t, http.MethodPost, "/api/v1/admin/api-keys",
		map[string]any{"owner_id": "partner-1", "name": "Partner", "daily_limit": 3}, authz)
	require.Equal(t, http.StatusCreated, code)
	issued := body["data"].(map[string]any)["api_key"].(map[string]any)
	assert.NotEmpty(t, issued["key"])
	assert.EqualValues(t, 3, issued["daily_limit"])

	code, _ = h.do(t, http.MethodDelete, "/api/v1/admin/api-keys/not-a-uuid", nil, authz)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = h.do(t, http.MethodDelete, "/api/v1/admin/api-keys/"+uuid.NewString(), nil, authz)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = h.do(t, http.MethodDelete, "/api/v1/admin/api-keys/"+issued["id"].(string), nil, authz)
	assert.Equal(t, http.StatusOK, code)

	code, body = h.do(t, http.MethodGet, "/api/v1/public/questions", nil, map[string]string{"X-API-Key": issued["key"].(string)})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "API_KEY_INVALID", errorCode(body))

	code, body = h.do(t, http.MethodPost, "/api/v1/admin/cache/refresh", nil, authz)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 7, body["data"].(map[string]any)["questions"])

	code, body = h.do(t, http.MethodPost, "/api/v1/admin/aggregates/rebuild", nil, authz)
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 2, body["data"].(map[string]any)["subjects"])
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	code, body := h.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}
