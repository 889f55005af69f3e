package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/qbank-backend/internal/model"
	"github.com/stemsi/qbank-backend/internal/response"
	"github.com/stemsi/qbank-backend/internal/service"
	"github.com/stemsi/qbank-backend/internal/validator"
)

// TaxonomyHandler serves the subject, chapter and subtopic menus and stats.
type TaxonomyHandler struct {
	taxonomyService *service.TaxonomyService
}

// NewTaxonomyHandler creates a new TaxonomyHandler.
func NewTaxonomyHandler(taxonomyService *service.TaxonomyService) *TaxonomyHandler {
	return &TaxonomyHandler{taxonomyService: taxonomyService}
}

// ListSubjects godoc
// GET /api/v1/subjects
func (h *TaxonomyHandler) ListSubjects(c *gin.Context) {
	subjects, err := h.taxonomyService.Subjects(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, subjects)
}

// ListChapters godoc
// GET /api/v1/chapters?subject=
func (h *TaxonomyHandler) ListChapters(c *gin.Context) {
	chapters, err := h.taxonomyService.Chapters(c.Request.Context(), c.Query("subject"))
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, chapters)
}

// ListSubtopics godoc
// GET /api/v1/subtopics?subject=&chapter=
// Returns one display name per normalized subtopic.
func (h *TaxonomyHandler) ListSubtopics(c *gin.Context) {
	var q model.SubtopicQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	subtopics, err := h.taxonomyService.Subtopics(c.Request.Context(), q.Subject, q.Chapter)
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, subtopics)
}

// GetStats godoc
// GET /api/v1/stats
func (h *TaxonomyHandler) GetStats(c *gin.Context) {
	stats, err := h.taxonomyService.Stats(c.Request.Context())
	if err != nil {
		failFromService(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}
