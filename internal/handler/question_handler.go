package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/ranking"
	"github.com/stemsi/qbank-backend/internal/response"
	"github.com/stemsi/qbank-backend/internal/service"
	"github.com/stemsi/qbank-backend/internal/validator"
)

// QuestionHandler serves the question browsing and similarity endpoints.
type QuestionHandler struct {
	questionService   *service.QuestionService
	similarityService *service.SimilarityService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService, similarityService *service.SimilarityService) *QuestionHandler {
	return &QuestionHandler{
		questionService:   questionService,
		similarityService: similarityService,
	}
}

// ListQuestions godoc
// GET /api/v1/questions
// Filters, sorts and paginates the question bank.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	var q model.ListQuestionsQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	params, err := ranking.ParseParams(q)
	if err != nil {
		var ve *ranking.ValidationError
		if errors.As(err, &ve) {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, ve.Fields)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		return
	}

	res, err := h.questionService.List(c.Request.Context(), params)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, res.Items, &response.Pagination{
		Total:   res.Total,
		Limit:   res.Limit,
		Offset:  res.Offset,
		HasMore: res.HasMore,
	}, echoFilters(params))
}

// GetQuestion godoc
// GET /api/v1/questions/:questionId
// Returns one question with its resolved correct option.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	questionID := strings.TrimSpace(c.Param("questionId"))
	if questionID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	question, err := h.questionService.Get(c.Request.Context(), questionID)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Success(c, http.StatusOK, question)
}

// SimilarQuestions godoc
// GET /api/v1/questions/:questionId/similar
// Ranks related questions. useVectors defaults to true; the response names
// the algorithm that actually produced the list.
func (h *QuestionHandler) SimilarQuestions(c *gin.Context) {
	questionID := strings.TrimSpace(c.Param("questionId"))
	if questionID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var q model.SimilarQuestionsQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	limit := 0
	if q.Limit != "" {
		n, err := strconv.Atoi(q.Limit)
		if err != nil || n < 1 {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"limit": "limit must be a positive whole number"})
			return
		}
		limit = n
	}
	useVectors := q.UseVectors != "false" && q.UseVectors != "0"

	res, err := h.similarityService.FindSimilar(c.Request.Context(), questionID, limit, useVectors)
	if err != nil {
		failFromService(c, err)
		return
	}

	response.Similar(c, res.QuestionID, string(res.Algorithm), res.Items, len(res.Items))
}

// echoFilters reports the predicates that were applied, in parsed form.
func echoFilters(p ranking.Params) gin.H {
	f := gin.H{"sort": string(p.Sort)}
	if p.Predicates.Subject != "" {
		f["subject"] = p.Predicates.Subject
	}
	if p.Predicates.Year != nil {
		f["year"] = *p.Predicates.Year
	}
	if p.Predicates.Marks != nil {
		f["marks"] = *p.Predicates.Marks
	}
	if p.Predicates.Type != "" {
		f["type"] = p.Predicates.Type
	}
	if p.Predicates.Subtopic != "" {
		f["subtopic"] = p.Predicates.Subtopic
	}
	if p.Predicates.Search != "" {
		f["search"] = p.Predicates.Search
	}
	return f
}
