package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/response"
	"github.com/stemsi/qbank-backend/internal/service"
	"github.com/stemsi/qbank-backend/internal/validator"
)

// AdminHandler handles back-office endpoints: API keys and cache maintenance.
type AdminHandler struct {
	apiKeyService   *service.APIKeyService
	questionService *service.QuestionService
	taxonomyService *service.TaxonomyService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	apiKeyService *service.APIKeyService,
	questionService *service.QuestionService,
	taxonomyService *service.TaxonomyService,
) *AdminHandler {
	return &AdminHandler{
		apiKeyService:   apiKeyService,
		questionService: questionService,
		taxonomyService: taxonomyService,
	}
}

// ListAPIKeys godoc
// GET /api/v1/admin/api-keys
func (h *AdminHandler) ListAPIKeys(c *gin.Context) {
	keys, err := h.apiKeyService.List(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"api_keys": keys})
}

// IssueAPIKey godoc
// POST /api/v1/admin/api-keys
// The raw key appears in this response only.
func (h *AdminHandler) IssueAPIKey(c *gin.Context) {
	var req model.IssueAPIKeyRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	issued, err := h.apiKeyService.Issue(c.Request.Context(), req)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"api_key": issued})
}

// RevokeAPIKey godoc
// DELETE /api/v1/admin/api-keys/:id
func (h *AdminHandler) RevokeAPIKey(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.apiKeyService.Revoke(c.Request.Context(), id); err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": id})
}

// RefreshCache godoc
// POST /api/v1/admin/cache/refresh
func (h *AdminHandler) RefreshCache(c *gin.Context) {
	n, err := h.questionService.RefreshCache(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": n})
}

// RebuildAggregates godoc
// POST /api/v1/admin/aggregates/rebuild
func (h *AdminHandler) RebuildAggregates(c *gin.Context) {
	agg, err := h.taxonomyService.RebuildFromStore(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"subjects":  len(agg.Subjects),
		"chapters":  len(agg.Chapters),
		"subtopics": len(agg.Subtopics),
	})
}
